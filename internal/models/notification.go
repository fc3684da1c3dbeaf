package models

import "time"

// RenewalNotice is a write-once ledger row recording that the renewal SMS
// for (student, term) has been sent. The unique key guarantees at most one
// externally visible notice per term even when attendance oscillates across
// the threshold through edits and deletes.
type RenewalNotice struct {
	ID        string    `db:"id" json:"id"`
	StudentID string    `db:"student_id" json:"student_id"`
	TermID    string    `db:"term_id" json:"term_id"`
	SentAt    time.Time `db:"sent_at" json:"sent_at"`
}

// TermClosureNotice is a separate write-once ledger, keyed by term only,
// recording that the "term ended" banner has been shown to the operator.
type TermClosureNotice struct {
	ID      string    `db:"id" json:"id"`
	TermID  string    `db:"term_id" json:"term_id"`
	ShownAt time.Time `db:"shown_at" json:"shown_at"`
}
