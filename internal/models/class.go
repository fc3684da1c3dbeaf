package models

import "time"

// Weekday is the day-of-week a class meets, stored in its uppercase English
// form to keep ordering and comparisons trivial.
type Weekday string

const (
	WeekdaySaturday  Weekday = "SATURDAY"
	WeekdaySunday    Weekday = "SUNDAY"
	WeekdayMonday    Weekday = "MONDAY"
	WeekdayTuesday   Weekday = "TUESDAY"
	WeekdayWednesday Weekday = "WEDNESDAY"
	WeekdayThursday  Weekday = "THURSDAY"
	WeekdayFriday    Weekday = "FRIDAY"
)

// Valid returns true when the weekday is a supported value.
func (w Weekday) Valid() bool {
	switch w {
	case WeekdaySaturday, WeekdaySunday, WeekdayMonday, WeekdayTuesday, WeekdayWednesday, WeekdayThursday, WeekdayFriday:
		return true
	default:
		return false
	}
}

// WeekdayOf maps a calendar date onto the stored weekday form.
func WeekdayOf(date time.Time) Weekday {
	switch date.Weekday() {
	case time.Saturday:
		return WeekdaySaturday
	case time.Sunday:
		return WeekdaySunday
	case time.Monday:
		return WeekdayMonday
	case time.Tuesday:
		return WeekdayTuesday
	case time.Wednesday:
		return WeekdayWednesday
	case time.Thursday:
		return WeekdayThursday
	default:
		return WeekdayFriday
	}
}

// Class represents a weekly recurring class slot taught by one teacher.
type Class struct {
	ID         string    `db:"id" json:"id"`
	Name       string    `db:"name" json:"name"`
	TeacherID  string    `db:"teacher_id" json:"teacher_id"`
	Instrument string    `db:"instrument" json:"instrument"`
	Room       string    `db:"room" json:"room"`
	DayOfWeek  Weekday   `db:"day_of_week" json:"day_of_week"`
	StartTime  string    `db:"start_time" json:"start_time"`
	EndTime    string    `db:"end_time" json:"end_time"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// ClassDetail extends Class with teacher information for list views.
type ClassDetail struct {
	Class
	TeacherName *string `db:"teacher_name" json:"teacher_name,omitempty"`
}

// ClassFilter defines filter criteria for listing classes.
type ClassFilter struct {
	TeacherID  string
	Instrument string
	DayOfWeek  Weekday
	Search     string
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}
