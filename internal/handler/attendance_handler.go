package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Aramesh-Aria/acasmart-api/internal/dto"
	"github.com/Aramesh-Aria/acasmart-api/internal/service"
	appErrors "github.com/Aramesh-Aria/acasmart-api/pkg/errors"
	"github.com/Aramesh-Aria/acasmart-api/pkg/response"
)

// AttendanceHandler exposes attendance endpoints.
type AttendanceHandler struct {
	service *service.AttendanceService
}

// NewAttendanceHandler constructs an attendance handler.
func NewAttendanceHandler(svc *service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{service: svc}
}

// Record godoc
// @Summary Record attendance for one date, possibly closing the term
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body dto.RecordAttendancePayload true "Attendance payload"
// @Success 200 {object} response.Envelope
// @Router /attendance [post]
func (h *AttendanceHandler) Record(c *gin.Context) {
	var payload dto.RecordAttendancePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	req, err := payload.ToRequest()
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.service.Record(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// List godoc
// @Summary List attendance records for a term
// @Tags Attendance
// @Produce json
// @Param term_id query string true "Term ID"
// @Success 200 {object} response.Envelope
// @Router /attendance [get]
func (h *AttendanceHandler) List(c *gin.Context) {
	termID := c.Query("term_id")
	if termID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "term_id is required"))
		return
	}
	records, err := h.service.List(c.Request.Context(), termID)
	if err != nil {
		response.Error(c, err)
		return
	}
	count, err := h.service.Count(c.Request.Context(), termID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil, map[string]interface{}{"count": count})
}

// Delete godoc
// @Summary Delete attendance for one date, recalculating the term end date
// @Tags Attendance
// @Produce json
// @Param term_id query string true "Term ID"
// @Param date query string true "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /attendance [delete]
func (h *AttendanceHandler) Delete(c *gin.Context) {
	termID := c.Query("term_id")
	if termID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "term_id is required"))
		return
	}
	date, err := dto.ParseDate(c.Query("date"))
	if err != nil {
		response.Error(c, err)
		return
	}
	count, err := h.service.Delete(c.Request.Context(), termID, date)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"count": count}, nil)
}
