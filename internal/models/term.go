package models

import "time"

// Term is a student's enrollment window in one class. The pricing columns
// (sessions_limit, tuition_fee, currency_unit) are a snapshot taken at
// creation and are never recomputed from the settings store afterwards.
// EndDate is nil while the term is open; it is set by attendance reaching
// the sessions limit and cleared again only through attendance deletion.
type Term struct {
	ID            string     `db:"id" json:"id"`
	StudentID     string     `db:"student_id" json:"student_id"`
	ClassID       string     `db:"class_id" json:"class_id"`
	StartDate     time.Time  `db:"start_date" json:"start_date"`
	StartTime     string     `db:"start_time" json:"start_time"`
	EndDate       *time.Time `db:"end_date" json:"end_date,omitempty"`
	SessionsLimit int        `db:"sessions_limit" json:"sessions_limit"`
	TuitionFee    int64      `db:"tuition_fee" json:"tuition_fee"`
	CurrencyUnit  string     `db:"currency_unit" json:"currency_unit"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

// Open reports whether the term is still accepting sessions and attendance.
func (t *Term) Open() bool {
	return t.EndDate == nil
}

// TermConfig carries optional overrides applied when a term is resolved or
// created. Nil fields fall through to the pricing profile and then to the
// stored defaults.
type TermConfig struct {
	SessionsLimit    *int
	TuitionFee       *int64
	CurrencyUnit     *string
	PricingProfileID *string
}

// TermOutcome names which branch GetOrCreateOpenTerm took.
type TermOutcome string

const (
	TermOutcomeExisting                TermOutcome = "existing"
	TermOutcomeCreated                 TermOutcome = "created"
	TermOutcomeRejectedTeacherConflict TermOutcome = "rejected_teacher_conflict"
	TermOutcomeRejectedSlotTaken       TermOutcome = "rejected_slot_taken"
	TermOutcomeRejectedOverlap         TermOutcome = "rejected_overlap"
)

// Rejected reports whether the outcome denied the caller a term.
func (o TermOutcome) Rejected() bool {
	return o != TermOutcomeExisting && o != TermOutcomeCreated
}

// TermResolution is the result of resolving or creating an open term.
// TermID is empty exactly when Outcome is a rejection.
type TermResolution struct {
	TermID  string      `json:"term_id,omitempty"`
	Outcome TermOutcome `json:"outcome"`
}

// TermFilter defines filters supported by term list endpoints.
type TermFilter struct {
	StudentID string
	ClassID   string
	Open      *bool
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
