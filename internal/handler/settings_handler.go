package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Aramesh-Aria/acasmart-api/internal/models"
	"github.com/Aramesh-Aria/acasmart-api/internal/service"
	appErrors "github.com/Aramesh-Aria/acasmart-api/pkg/errors"
	"github.com/Aramesh-Aria/acasmart-api/pkg/response"
)

// SettingsHandler exposes the runtime settings store and pricing profiles.
type SettingsHandler struct {
	settings *service.SettingsService
	pricing  *service.PricingService
}

// NewSettingsHandler constructs a settings handler.
func NewSettingsHandler(settings *service.SettingsService, pricing *service.PricingService) *SettingsHandler {
	return &SettingsHandler{settings: settings, pricing: pricing}
}

// List godoc
// @Summary List settings
// @Tags Settings
// @Produce json
// @Param keys query string false "Comma separated keys, defaults to the term keys"
// @Success 200 {object} response.Envelope
// @Router /settings [get]
func (h *SettingsHandler) List(c *gin.Context) {
	keys := []string{models.SettingTermSessionCount, models.SettingTermFee, models.SettingCurrencyUnit}
	if raw := c.Query("keys"); raw != "" {
		keys = strings.Split(raw, ",")
	}
	settings, err := h.settings.List(c.Request.Context(), keys)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, settings, nil)
}

// Set godoc
// @Summary Upsert one setting
// @Tags Settings
// @Accept json
// @Produce json
// @Success 204
// @Router /settings [put]
func (h *SettingsHandler) Set(c *gin.Context) {
	var payload struct {
		Key   string `json:"key" binding:"required"`
		Value string `json:"value" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.settings.Set(c.Request.Context(), payload.Key, payload.Value); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListPricingProfiles godoc
// @Summary List pricing profiles
// @Tags Settings
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /pricing-profiles [get]
func (h *SettingsHandler) ListPricingProfiles(c *gin.Context) {
	profiles, err := h.pricing.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profiles, nil)
}

// CreatePricingProfile godoc
// @Summary Create pricing profile
// @Tags Settings
// @Accept json
// @Produce json
// @Param payload body service.PricingProfileRequest true "Pricing profile payload"
// @Success 201 {object} response.Envelope
// @Router /pricing-profiles [post]
func (h *SettingsHandler) CreatePricingProfile(c *gin.Context) {
	var req service.PricingProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	profile, err := h.pricing.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, profile)
}
