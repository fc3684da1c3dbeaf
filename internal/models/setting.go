package models

import "time"

// Setting keys consumed by term creation.
const (
	SettingTermSessionCount = "term_session_count"
	SettingTermFee          = "term_fee"
	SettingCurrencyUnit     = "currency_unit"
)

// Setting is a stored key/value runtime setting.
type Setting struct {
	Key       string    `db:"key" json:"key"`
	Value     string    `db:"value" json:"value"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
