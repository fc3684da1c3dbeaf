package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Aramesh-Aria/acasmart-api/internal/service"
	appErrors "github.com/Aramesh-Aria/acasmart-api/pkg/errors"
	"github.com/Aramesh-Aria/acasmart-api/pkg/response"
)

// NotificationHandler exposes the renewal and closure notice ledgers.
type NotificationHandler struct {
	service *service.NotificationService
}

// NewNotificationHandler constructs a notification handler.
func NewNotificationHandler(svc *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{service: svc}
}

// RenewalEligibility godoc
// @Summary Report whether the renewal notice should fire for a term
// @Tags Notifications
// @Produce json
// @Param id path string true "Term ID"
// @Success 200 {object} response.Envelope
// @Router /terms/{id}/renewal-eligibility [get]
func (h *NotificationHandler) RenewalEligibility(c *gin.Context) {
	eligible, err := h.service.ShouldNotify(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"eligible": eligible}, nil)
}

// MarkRenewalSent godoc
// @Summary Mark the renewal notice sent for a term (idempotent)
// @Tags Notifications
// @Accept json
// @Produce json
// @Param id path string true "Term ID"
// @Success 204
// @Router /terms/{id}/renewal-sent [post]
func (h *NotificationHandler) MarkRenewalSent(c *gin.Context) {
	var payload struct {
		StudentID string `json:"student_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.service.MarkSent(c.Request.Context(), payload.StudentID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ClosureBanner godoc
// @Summary Report whether the closure banner should be shown for a term
// @Tags Notifications
// @Produce json
// @Param id path string true "Term ID"
// @Success 200 {object} response.Envelope
// @Router /terms/{id}/closure-banner [get]
func (h *NotificationHandler) ClosureBanner(c *gin.Context) {
	show, err := h.service.ShouldShowClosureBanner(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"show": show}, nil)
}

// MarkClosureShown godoc
// @Summary Record that the closure banner was shown (idempotent)
// @Tags Notifications
// @Produce json
// @Param id path string true "Term ID"
// @Success 204
// @Router /terms/{id}/closure-shown [post]
func (h *NotificationHandler) MarkClosureShown(c *gin.Context) {
	if err := h.service.MarkClosureShown(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
