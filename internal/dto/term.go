package dto

import (
	"github.com/Aramesh-Aria/acasmart-api/internal/models"
	"github.com/Aramesh-Aria/acasmart-api/internal/service"
)

// ResolveTermPayload is the wire form of a term resolve request. Dates travel
// as YYYY-MM-DD strings; the optional pricing fields become a TermConfig.
type ResolveTermPayload struct {
	StudentID        string  `json:"student_id" binding:"required"`
	ClassID          string  `json:"class_id" binding:"required"`
	StartDate        string  `json:"start_date" binding:"required"`
	StartTime        string  `json:"start_time" binding:"required"`
	SessionsLimit    *int    `json:"sessions_limit,omitempty"`
	TuitionFee       *int64  `json:"tuition_fee,omitempty"`
	CurrencyUnit     *string `json:"currency_unit,omitempty"`
	PricingProfileID *string `json:"pricing_profile_id,omitempty"`
}

// ToRequest converts the payload into the service request form.
func (p ResolveTermPayload) ToRequest() (service.ResolveTermRequest, error) {
	startDate, err := ParseDate(p.StartDate)
	if err != nil {
		return service.ResolveTermRequest{}, err
	}
	req := service.ResolveTermRequest{
		StudentID: p.StudentID,
		ClassID:   p.ClassID,
		StartDate: startDate,
		StartTime: p.StartTime,
	}
	if p.SessionsLimit != nil || p.TuitionFee != nil || p.CurrencyUnit != nil || p.PricingProfileID != nil {
		req.Config = &models.TermConfig{
			SessionsLimit:    p.SessionsLimit,
			TuitionFee:       p.TuitionFee,
			CurrencyUnit:     p.CurrencyUnit,
			PricingProfileID: p.PricingProfileID,
		}
	}
	return req, nil
}
