package models

import "time"

// PaymentKind distinguishes tuition payments from extra charges.
type PaymentKind string

const (
	PaymentKindTuition PaymentKind = "TUITION"
	PaymentKindExtra   PaymentKind = "EXTRA"
)

// Valid returns true when the kind is a supported value.
func (k PaymentKind) Valid() bool {
	return k == PaymentKindTuition || k == PaymentKindExtra
}

// Payment is money received against a term. A term with any payment row is
// never garbage-collected.
type Payment struct {
	ID        string      `db:"id" json:"id"`
	TermID    string      `db:"term_id" json:"term_id"`
	StudentID string      `db:"student_id" json:"student_id"`
	Amount    int64       `db:"amount" json:"amount"`
	Kind      PaymentKind `db:"kind" json:"kind"`
	PaidAt    time.Time   `db:"paid_at" json:"paid_at"`
	CreatedAt time.Time   `db:"created_at" json:"created_at"`
}

// PaymentFilter scopes payment listing queries.
type PaymentFilter struct {
	TermID    string
	StudentID string
	Kind      *PaymentKind
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
