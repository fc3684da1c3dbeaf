package models

import "time"

// AttendanceRecord marks presence for one term on one date. (TermID, Date)
// is unique; repeated writes on the same date overwrite the prior value.
type AttendanceRecord struct {
	ID        string    `db:"id" json:"id"`
	TermID    string    `db:"term_id" json:"term_id"`
	StudentID string    `db:"student_id" json:"student_id"`
	ClassID   string    `db:"class_id" json:"class_id"`
	Date      time.Time `db:"date" json:"date"`
	IsPresent bool      `db:"is_present" json:"is_present"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// AttendanceResult reports the effect of recording attendance.
type AttendanceResult struct {
	Record *AttendanceRecord `json:"record"`
	Count  int               `json:"count"`
	// Ended is true when this write closed the term.
	Ended bool `json:"ended"`
	// SessionsRemoved counts future sessions deleted by the closure cascade.
	SessionsRemoved int `json:"sessions_removed"`
	// RenewalNoticeSent is true when this write triggered the one-time
	// renewal SMS.
	RenewalNoticeSent bool `json:"renewal_notice_sent"`
}
