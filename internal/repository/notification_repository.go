package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// NotificationRepository owns the two write-once ledgers: renewal notices
// keyed by (student, term) and closure banners keyed by term.
type NotificationRepository struct {
	db *sqlx.DB
}

// NewNotificationRepository constructs the repository.
func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// RenewalNoticeExists reports whether the renewal SMS for (student, term)
// has already been recorded.
func (r *NotificationRepository) RenewalNoticeExists(ctx context.Context, studentID, termID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM renewal_notices WHERE student_id = $1 AND term_id = $2)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, studentID, termID); err != nil {
		return false, fmt.Errorf("check renewal notice: %w", err)
	}
	return exists, nil
}

// InsertRenewalNotice records the renewal SMS idempotently; a second insert
// for the same (student, term) is a no-op.
func (r *NotificationRepository) InsertRenewalNotice(ctx context.Context, studentID, termID string) error {
	const query = `INSERT INTO renewal_notices (id, student_id, term_id, sent_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (student_id, term_id) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, uuid.NewString(), studentID, termID, time.Now().UTC()); err != nil {
		return fmt.Errorf("insert renewal notice: %w", err)
	}
	return nil
}

// ClosureNoticeExists reports whether the term-ended banner has been shown.
func (r *NotificationRepository) ClosureNoticeExists(ctx context.Context, termID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM term_closure_notices WHERE term_id = $1)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, termID); err != nil {
		return false, fmt.Errorf("check closure notice: %w", err)
	}
	return exists, nil
}

// InsertClosureNotice marks the term-ended banner as shown, write-once.
func (r *NotificationRepository) InsertClosureNotice(ctx context.Context, termID string) error {
	const query = `INSERT INTO term_closure_notices (id, term_id, shown_at)
VALUES ($1, $2, $3)
ON CONFLICT (term_id) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, uuid.NewString(), termID, time.Now().UTC()); err != nil {
		return fmt.Errorf("insert closure notice: %w", err)
	}
	return nil
}
