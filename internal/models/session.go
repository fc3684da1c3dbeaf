package models

import "time"

// Session is one concrete calendar occurrence of a class for one student,
// belonging to exactly one term. (ClassID, Date, StartTime) is unique.
type Session struct {
	ID              string    `db:"id" json:"id"`
	TermID          string    `db:"term_id" json:"term_id"`
	ClassID         string    `db:"class_id" json:"class_id"`
	StudentID       string    `db:"student_id" json:"student_id"`
	Date            time.Time `db:"date" json:"date"`
	StartTime       string    `db:"start_time" json:"start_time"`
	DurationMinutes int       `db:"duration_minutes" json:"duration_minutes"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// SessionFilter scopes session listing queries.
type SessionFilter struct {
	ClassID   string
	StudentID string
	TermID    string
	DateFrom  *time.Time
	DateTo    *time.Time
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
