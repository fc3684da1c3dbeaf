package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Aramesh-Aria/acasmart-api/internal/dto"
	"github.com/Aramesh-Aria/acasmart-api/internal/models"
	"github.com/Aramesh-Aria/acasmart-api/internal/service"
	appErrors "github.com/Aramesh-Aria/acasmart-api/pkg/errors"
	"github.com/Aramesh-Aria/acasmart-api/pkg/response"
)

// TermHandler exposes term endpoints.
type TermHandler struct {
	service *service.TermService
}

// NewTermHandler constructs a term handler.
func NewTermHandler(svc *service.TermService) *TermHandler {
	return &TermHandler{service: svc}
}

// List godoc
// @Summary List terms
// @Tags Terms
// @Produce json
// @Param student_id query string false "Filter by student"
// @Param class_id query string false "Filter by class"
// @Param open query bool false "Filter by open/closed state"
// @Success 200 {object} response.Envelope
// @Router /terms [get]
func (h *TermHandler) List(c *gin.Context) {
	var filter models.TermFilter
	filter.StudentID = c.Query("student_id")
	filter.ClassID = c.Query("class_id")
	if open := c.Query("open"); open != "" {
		if val, err := strconv.ParseBool(open); err == nil {
			filter.Open = &val
		}
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	terms, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, terms, pagination)
}

// Get godoc
// @Summary Get term
// @Tags Terms
// @Produce json
// @Param id path string true "Term ID"
// @Success 200 {object} response.Envelope
// @Router /terms/{id} [get]
func (h *TermHandler) Get(c *gin.Context) {
	term, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, term, nil)
}

// Resolve godoc
// @Summary Resolve or create the open term for a student/class pair
// @Tags Terms
// @Accept json
// @Produce json
// @Param payload body dto.ResolveTermPayload true "Resolve payload"
// @Success 200 {object} response.Envelope
// @Router /terms/resolve [post]
func (h *TermHandler) Resolve(c *gin.Context) {
	var payload dto.ResolveTermPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	req, err := payload.ToRequest()
	if err != nil {
		response.Error(c, err)
		return
	}
	resolution, err := h.service.GetOrCreateOpenTerm(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	status := http.StatusOK
	if resolution.Outcome == models.TermOutcomeCreated {
		status = http.StatusCreated
	}
	response.JSON(c, status, resolution, nil)
}

// Delete godoc
// @Summary Delete a term when it has no sessions and no payments
// @Tags Terms
// @Produce json
// @Param id path string true "Term ID"
// @Success 200 {object} response.Envelope
// @Router /terms/{id} [delete]
func (h *TermHandler) Delete(c *gin.Context) {
	deleted, err := h.service.DeleteIfUnused(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"deleted": deleted}, nil)
}
