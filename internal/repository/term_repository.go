package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Aramesh-Aria/acasmart-api/internal/models"
)

// TermRepository provides persistence for enrollment terms.
type TermRepository struct {
	db *sqlx.DB
}

// NewTermRepository creates a new term repository.
func NewTermRepository(db *sqlx.DB) *TermRepository {
	return &TermRepository{db: db}
}

const termColumns = "id, student_id, class_id, start_date, start_time, end_date, sessions_limit, tuition_fee, currency_unit, created_at, updated_at"

// FindByID loads a term by id.
func (r *TermRepository) FindByID(ctx context.Context, id string) (*models.Term, error) {
	query := fmt.Sprintf("SELECT %s FROM terms WHERE id = $1", termColumns)
	var term models.Term
	if err := r.db.GetContext(ctx, &term, query, id); err != nil {
		return nil, err
	}
	return &term, nil
}

// FindOpenByStudentClass returns the open term for (student, class) if one
// exists, or sql.ErrNoRows. A pair holds at most one open term; every new
// booking for the pair lands in it regardless of date.
func (r *TermRepository) FindOpenByStudentClass(ctx context.Context, studentID, classID string) (*models.Term, error) {
	query := fmt.Sprintf("SELECT %s FROM terms WHERE student_id = $1 AND class_id = $2 AND end_date IS NULL ORDER BY start_date DESC LIMIT 1", termColumns)
	var term models.Term
	if err := r.db.GetContext(ctx, &term, query, studentID, classID); err != nil {
		return nil, err
	}
	return &term, nil
}

// LatestClosedEndDate returns the end_date of the most recently closed term
// for (student, class), or nil when the pair has no closed terms.
func (r *TermRepository) LatestClosedEndDate(ctx context.Context, studentID, classID string) (*time.Time, error) {
	const query = `SELECT end_date FROM terms WHERE student_id = $1 AND class_id = $2 AND end_date IS NOT NULL ORDER BY end_date DESC LIMIT 1`
	var endDate time.Time
	if err := r.db.GetContext(ctx, &endDate, query, studentID, classID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("latest closed end date: %w", err)
	}
	return &endDate, nil
}

// List returns terms matching the filter with pagination.
func (r *TermRepository) List(ctx context.Context, filter models.TermFilter) ([]models.Term, int, error) {
	base := "FROM terms WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.ClassID != "" {
		conditions = append(conditions, fmt.Sprintf("class_id = $%d", len(args)+1))
		args = append(args, filter.ClassID)
	}
	if filter.Open != nil {
		if *filter.Open {
			conditions = append(conditions, "end_date IS NULL")
		} else {
			conditions = append(conditions, "end_date IS NOT NULL")
		}
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{
		"start_date": true,
		"end_date":   true,
		"created_at": true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "start_date"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", termColumns, base, sortBy, order, size, offset)
	var terms []models.Term
	if err := r.db.SelectContext(ctx, &terms, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list terms: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count terms: %w", err)
	}

	return terms, total, nil
}

// Create stores a new term. The pricing snapshot travels with the model and
// is written exactly once here.
func (r *TermRepository) Create(ctx context.Context, term *models.Term) error {
	if term.ID == "" {
		term.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if term.CreatedAt.IsZero() {
		term.CreatedAt = now
	}
	term.UpdatedAt = now

	const query = `INSERT INTO terms (id, student_id, class_id, start_date, start_time, end_date, sessions_limit, tuition_fee, currency_unit, created_at, updated_at)
VALUES (:id, :student_id, :class_id, :start_date, :start_time, :end_date, :sessions_limit, :tuition_fee, :currency_unit, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, term); err != nil {
		return fmt.Errorf("create term: %w", err)
	}
	return nil
}

// UpdateSnapshot overwrites the pricing snapshot of an existing open term.
// Used only when an explicit config override targets a resolved term.
func (r *TermRepository) UpdateSnapshot(ctx context.Context, id string, sessionsLimit int, tuitionFee int64, currencyUnit string) error {
	const query = `UPDATE terms SET sessions_limit = $2, tuition_fee = $3, currency_unit = $4, updated_at = $5 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, sessionsLimit, tuitionFee, currencyUnit, time.Now().UTC()); err != nil {
		return fmt.Errorf("update term snapshot: %w", err)
	}
	return nil
}

// SetEndDate sets or clears a term's end date. Passing nil reopens the term.
func (r *TermRepository) SetEndDate(ctx context.Context, id string, endDate *time.Time) error {
	const query = `UPDATE terms SET end_date = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, endDate, time.Now().UTC()); err != nil {
		return fmt.Errorf("set term end date: %w", err)
	}
	return nil
}

// DeleteCascade removes the term together with its sessions and attendance
// rows inside one transaction. Callers must have verified the payment gate.
func (r *TermRepository) DeleteCascade(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete term: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM attendance_records WHERE term_id = $1`, id); err != nil {
		return fmt.Errorf("delete term attendance: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM sessions WHERE term_id = $1`, id); err != nil {
		return fmt.Errorf("delete term sessions: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM terms WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete term: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit delete term: %w", err)
	}
	return nil
}
