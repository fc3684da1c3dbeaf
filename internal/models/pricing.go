package models

import "time"

// PricingProfile is a named bundle of term pricing values. At most one
// profile is flagged as the default.
type PricingProfile struct {
	ID            string    `db:"id" json:"id"`
	Name          string    `db:"name" json:"name"`
	SessionsLimit int       `db:"sessions_limit" json:"sessions_limit"`
	TuitionFee    int64     `db:"tuition_fee" json:"tuition_fee"`
	CurrencyUnit  string    `db:"currency_unit" json:"currency_unit"`
	IsDefault     bool      `db:"is_default" json:"is_default"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}
