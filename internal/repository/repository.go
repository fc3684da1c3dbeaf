package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/Aramesh-Aria/acasmart-api/internal/models"
)

// IsUniqueViolation reports whether err is a PostgreSQL unique constraint
// violation. Callers treat it as "already exists" when a check-then-act race
// loses to a concurrent writer.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}

// dowNumber maps a stored weekday onto PostgreSQL's EXTRACT(DOW) numbering
// (Sunday = 0 .. Saturday = 6).
func dowNumber(day models.Weekday) int {
	switch day {
	case models.WeekdaySunday:
		return 0
	case models.WeekdayMonday:
		return 1
	case models.WeekdayTuesday:
		return 2
	case models.WeekdayWednesday:
		return 3
	case models.WeekdayThursday:
		return 4
	case models.WeekdayFriday:
		return 5
	default:
		return 6
	}
}

func placeholders(n int) string {
	values := make([]string, n)
	for i := 1; i <= n; i++ {
		values[i-1] = fmt.Sprintf("$%d", i)
	}
	return strings.Join(values, ",")
}
