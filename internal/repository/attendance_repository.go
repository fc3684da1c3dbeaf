package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Aramesh-Aria/acasmart-api/internal/models"
)

// AttendanceRepository persists per-term attendance rows.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs the repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// Upsert inserts or overwrites the attendance row for (term, date). The
// unique (term_id, date) index guarantees a repeat write on the same date
// replaces the prior value instead of duplicating the row.
func (r *AttendanceRepository) Upsert(ctx context.Context, record *models.AttendanceRecord) (*models.AttendanceRecord, error) {
	now := time.Now().UTC()
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now

	const query = `INSERT INTO attendance_records (id, term_id, student_id, class_id, date, is_present, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (term_id, date)
DO UPDATE SET is_present = EXCLUDED.is_present, updated_at = EXCLUDED.updated_at
RETURNING id, term_id, student_id, class_id, date, is_present, created_at, updated_at`
	var stored models.AttendanceRecord
	if err := r.db.GetContext(ctx, &stored, query, record.ID, record.TermID, record.StudentID, record.ClassID, record.Date, record.IsPresent, record.CreatedAt, record.UpdatedAt); err != nil {
		return nil, fmt.Errorf("upsert attendance: %w", err)
	}
	return &stored, nil
}

// CountByTerm returns the total attendance row count (present plus absent)
// for a term. This is the sole threshold input for closure and notification
// decisions.
func (r *AttendanceRepository) CountByTerm(ctx context.Context, termID string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM attendance_records WHERE term_id = $1`, termID); err != nil {
		return 0, fmt.Errorf("count attendance by term: %w", err)
	}
	return count, nil
}

// ListByTerm returns a term's attendance rows ordered by date.
func (r *AttendanceRepository) ListByTerm(ctx context.Context, termID string) ([]models.AttendanceRecord, error) {
	const query = `SELECT id, term_id, student_id, class_id, date, is_present, created_at, updated_at FROM attendance_records WHERE term_id = $1 ORDER BY date ASC`
	var records []models.AttendanceRecord
	if err := r.db.SelectContext(ctx, &records, query, termID); err != nil {
		return nil, fmt.Errorf("list attendance by term: %w", err)
	}
	return records, nil
}

// DeleteByTermAndDate removes the row for that exact date and returns the
// number of affected rows.
func (r *AttendanceRepository) DeleteByTermAndDate(ctx context.Context, termID string, date time.Time) (int, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM attendance_records WHERE term_id = $1 AND date = $2`, termID, date)
	if err != nil {
		return 0, fmt.Errorf("delete attendance: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete attendance rows affected: %w", err)
	}
	return int(affected), nil
}

// MaxDateByTerm returns the latest remaining attendance date for a term, or
// nil when the term has no attendance rows left.
func (r *AttendanceRepository) MaxDateByTerm(ctx context.Context, termID string) (*time.Time, error) {
	var max time.Time
	err := r.db.GetContext(ctx, &max, `SELECT date FROM attendance_records WHERE term_id = $1 ORDER BY date DESC LIMIT 1`, termID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("max attendance date: %w", err)
	}
	return &max, nil
}
