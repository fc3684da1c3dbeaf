package dto

import (
	"github.com/Aramesh-Aria/acasmart-api/internal/models"
	"github.com/Aramesh-Aria/acasmart-api/internal/service"
)

// AddSessionPayload is the wire form of a session booking request.
type AddSessionPayload struct {
	ClassID          string  `json:"class_id" binding:"required"`
	StudentID        string  `json:"student_id" binding:"required"`
	Date             string  `json:"date" binding:"required"`
	StartTime        string  `json:"start_time" binding:"required"`
	DurationMinutes  int     `json:"duration_minutes"`
	SessionsLimit    *int    `json:"sessions_limit,omitempty"`
	TuitionFee       *int64  `json:"tuition_fee,omitempty"`
	CurrencyUnit     *string `json:"currency_unit,omitempty"`
	PricingProfileID *string `json:"pricing_profile_id,omitempty"`
}

// ToRequest converts the payload into the service request form.
func (p AddSessionPayload) ToRequest() (service.AddSessionRequest, error) {
	date, err := ParseDate(p.Date)
	if err != nil {
		return service.AddSessionRequest{}, err
	}
	req := service.AddSessionRequest{
		ClassID:         p.ClassID,
		StudentID:       p.StudentID,
		Date:            date,
		StartTime:       p.StartTime,
		DurationMinutes: p.DurationMinutes,
	}
	if p.SessionsLimit != nil || p.TuitionFee != nil || p.CurrencyUnit != nil || p.PricingProfileID != nil {
		req.TermConfig = &models.TermConfig{
			SessionsLimit:    p.SessionsLimit,
			TuitionFee:       p.TuitionFee,
			CurrencyUnit:     p.CurrencyUnit,
			PricingProfileID: p.PricingProfileID,
		}
	}
	return req, nil
}

// UpdateSessionPayload is the wire form of a session move request.
type UpdateSessionPayload struct {
	ClassID   string `json:"class_id"`
	StudentID string `json:"student_id"`
	Date      string `json:"date" binding:"required"`
	StartTime string `json:"start_time" binding:"required"`
}

// ToRequest converts the payload into the service request form.
func (p UpdateSessionPayload) ToRequest() (service.UpdateSessionRequest, error) {
	date, err := ParseDate(p.Date)
	if err != nil {
		return service.UpdateSessionRequest{}, err
	}
	return service.UpdateSessionRequest{
		ClassID:   p.ClassID,
		StudentID: p.StudentID,
		Date:      date,
		StartTime: p.StartTime,
	}, nil
}
