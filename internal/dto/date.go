package dto

import (
	"time"

	appErrors "github.com/Aramesh-Aria/acasmart-api/pkg/errors"
)

const dateLayout = "2006-01-02"

// ParseDate converts a calendar date in YYYY-MM-DD form into UTC midnight.
func ParseDate(value string) (time.Time, error) {
	date, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD")
	}
	return date.UTC(), nil
}

// ParseOptionalDate parses a date when present, returning nil for "".
func ParseOptionalDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	date, err := ParseDate(value)
	if err != nil {
		return nil, err
	}
	return &date, nil
}

// FormatDate renders a date in the wire form YYYY-MM-DD.
func FormatDate(date time.Time) string {
	return date.Format(dateLayout)
}
