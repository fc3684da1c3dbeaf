package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Aramesh-Aria/acasmart-api/internal/dto"
	"github.com/Aramesh-Aria/acasmart-api/internal/models"
	"github.com/Aramesh-Aria/acasmart-api/internal/service"
	appErrors "github.com/Aramesh-Aria/acasmart-api/pkg/errors"
	"github.com/Aramesh-Aria/acasmart-api/pkg/response"
)

// ConflictHandler exposes read-only conflict predicates so the admin UI can
// pre-check a slot before submitting a booking.
type ConflictHandler struct {
	service *service.ConflictService
}

// NewConflictHandler constructs a conflict handler.
func NewConflictHandler(svc *service.ConflictService) *ConflictHandler {
	return &ConflictHandler{service: svc}
}

// SlotTaken godoc
// @Summary Check whether a class slot on a date is already booked
// @Tags Conflicts
// @Produce json
// @Param class_id query string true "Class ID"
// @Param date query string true "Date (YYYY-MM-DD)"
// @Param start_time query string true "Start time (HH:MM)"
// @Success 200 {object} response.Envelope
// @Router /conflicts/slot-taken [get]
func (h *ConflictHandler) SlotTaken(c *gin.Context) {
	classID := c.Query("class_id")
	startTime := c.Query("start_time")
	if classID == "" || startTime == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "class_id and start_time are required"))
		return
	}
	date, err := dto.ParseDate(c.Query("date"))
	if err != nil {
		response.Error(c, err)
		return
	}
	taken, err := h.service.ClassSlotTaken(c.Request.Context(), classID, date, startTime)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"taken": taken}, nil)
}

// StudentConflict godoc
// @Summary Check whether a student already meets another class weekly at this time
// @Tags Conflicts
// @Produce json
// @Param student_id query string true "Student ID"
// @Param class_id query string true "Class ID"
// @Param weekday query string true "Weekday"
// @Param start_time query string true "Start time (HH:MM)"
// @Success 200 {object} response.Envelope
// @Router /conflicts/student [get]
func (h *ConflictHandler) StudentConflict(c *gin.Context) {
	studentID := c.Query("student_id")
	classID := c.Query("class_id")
	weekday := models.Weekday(c.Query("weekday"))
	startTime := c.Query("start_time")
	if studentID == "" || classID == "" || startTime == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "student_id, class_id and start_time are required"))
		return
	}
	if !weekday.Valid() {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unsupported weekday"))
		return
	}
	conflict, err := h.service.WeeklyStudentConflict(c.Request.Context(), studentID, classID, weekday, startTime, "")
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"conflict": conflict}, nil)
}

// TeacherConflict godoc
// @Summary Check whether the class teacher already meets another student weekly at this time
// @Tags Conflicts
// @Produce json
// @Param class_id query string true "Class ID"
// @Param student_id query string true "Student ID"
// @Param start_time query string true "Start time (HH:MM)"
// @Success 200 {object} response.Envelope
// @Router /conflicts/teacher [get]
func (h *ConflictHandler) TeacherConflict(c *gin.Context) {
	classID := c.Query("class_id")
	studentID := c.Query("student_id")
	startTime := c.Query("start_time")
	if classID == "" || studentID == "" || startTime == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "class_id, student_id and start_time are required"))
		return
	}
	conflict, err := h.service.WeeklyTeacherConflict(c.Request.Context(), classID, studentID, startTime, "")
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"conflict": conflict}, nil)
}
