package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Aramesh-Aria/acasmart-api/internal/models"
)

// SessionRepository provides persistence and conflict queries for sessions.
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository creates a new session repository.
func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

const sessionColumns = "id, term_id, class_id, student_id, date, start_time, duration_minutes, created_at, updated_at"

// FindByID loads a session by id.
func (r *SessionRepository) FindByID(ctx context.Context, id string) (*models.Session, error) {
	query := fmt.Sprintf("SELECT %s FROM sessions WHERE id = $1", sessionColumns)
	var sess models.Session
	if err := r.db.GetContext(ctx, &sess, query, id); err != nil {
		return nil, err
	}
	return &sess, nil
}

// SlotTaken reports whether any session already occupies (class, date, time).
// The excluded session id, when non-empty, is ignored so a session being
// moved does not collide with itself.
func (r *SessionRepository) SlotTaken(ctx context.Context, classID string, date time.Time, startTime, excludeSessionID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM sessions WHERE class_id = $1 AND date = $2 AND start_time = $3 AND ($4 = '' OR id <> $4))`
	var taken bool
	if err := r.db.GetContext(ctx, &taken, query, classID, date, startTime, excludeSessionID); err != nil {
		return false, fmt.Errorf("check slot taken: %w", err)
	}
	return taken, nil
}

// SlotTakenByOther reports whether a different student already occupies
// (class, date, time).
func (r *SessionRepository) SlotTakenByOther(ctx context.Context, classID string, date time.Time, startTime, studentID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM sessions WHERE class_id = $1 AND date = $2 AND start_time = $3 AND student_id <> $4)`
	var taken bool
	if err := r.db.GetContext(ctx, &taken, query, classID, date, startTime, studentID); err != nil {
		return false, fmt.Errorf("check slot taken by other: %w", err)
	}
	return taken, nil
}

// WeeklyStudentConflict reports whether the student has a session at the same
// weekday and time in a different class.
func (r *SessionRepository) WeeklyStudentConflict(ctx context.Context, studentID, classID string, weekday models.Weekday, startTime, excludeSessionID string) (bool, error) {
	const query = `SELECT EXISTS (
SELECT 1 FROM sessions
WHERE student_id = $1 AND class_id <> $2 AND EXTRACT(DOW FROM date) = $3 AND start_time = $4
  AND ($5 = '' OR id <> $5))`
	var conflict bool
	if err := r.db.GetContext(ctx, &conflict, query, studentID, classID, dowNumber(weekday), startTime, excludeSessionID); err != nil {
		return false, fmt.Errorf("check weekly student conflict: %w", err)
	}
	return conflict, nil
}

// WeeklyTeacherConflict resolves the class's teacher and reports whether that
// teacher already has a session at the same weekday and time for a different
// student.
func (r *SessionRepository) WeeklyTeacherConflict(ctx context.Context, classID, studentID string, weekday models.Weekday, startTime, excludeSessionID string) (bool, error) {
	const query = `SELECT EXISTS (
SELECT 1 FROM sessions s
JOIN classes c ON c.id = s.class_id
WHERE c.teacher_id = (SELECT teacher_id FROM classes WHERE id = $1)
  AND s.student_id <> $2 AND EXTRACT(DOW FROM s.date) = $3 AND s.start_time = $4
  AND ($5 = '' OR s.id <> $5))`
	var conflict bool
	if err := r.db.GetContext(ctx, &conflict, query, classID, studentID, dowNumber(weekday), startTime, excludeSessionID); err != nil {
		return false, fmt.Errorf("check weekly teacher conflict: %w", err)
	}
	return conflict, nil
}

// List returns sessions matching the filter with pagination.
func (r *SessionRepository) List(ctx context.Context, filter models.SessionFilter) ([]models.Session, int, error) {
	base := "FROM sessions WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.ClassID != "" {
		conditions = append(conditions, fmt.Sprintf("class_id = $%d", len(args)+1))
		args = append(args, filter.ClassID)
	}
	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.TermID != "" {
		conditions = append(conditions, fmt.Sprintf("term_id = $%d", len(args)+1))
		args = append(args, filter.TermID)
	}
	if filter.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("date >= $%d", len(args)+1))
		args = append(args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("date <= $%d", len(args)+1))
		args = append(args, *filter.DateTo)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{
		"date":       true,
		"start_time": true,
		"created_at": true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "date"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s, start_time ASC LIMIT %d OFFSET %d", sessionColumns, base, sortBy, order, size, offset)
	var sessions []models.Session
	if err := r.db.SelectContext(ctx, &sessions, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list sessions: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count sessions: %w", err)
	}

	return sessions, total, nil
}

// CountByTerm returns the number of sessions attached to a term.
func (r *SessionRepository) CountByTerm(ctx context.Context, termID string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM sessions WHERE term_id = $1`, termID); err != nil {
		return 0, fmt.Errorf("count sessions by term: %w", err)
	}
	return count, nil
}

// Create stores a new session record. The unique (class_id, date, start_time)
// index backs the slot invariant; a lost race surfaces as a unique violation.
func (r *SessionRepository) Create(ctx context.Context, session *models.Session) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	session.UpdatedAt = now

	const query = `INSERT INTO sessions (id, term_id, class_id, student_id, date, start_time, duration_minutes, created_at, updated_at)
VALUES (:id, :term_id, :class_id, :student_id, :date, :start_time, :duration_minutes, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, session); err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// Update modifies a session record.
func (r *SessionRepository) Update(ctx context.Context, session *models.Session) error {
	session.UpdatedAt = time.Now().UTC()
	const query = `UPDATE sessions SET term_id = :term_id, class_id = :class_id, student_id = :student_id, date = :date, start_time = :start_time, duration_minutes = :duration_minutes, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, session); err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	return nil
}

// Delete removes a session by id.
func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteByTermFromDate removes a term's sessions dated on or after the given
// date and returns how many rows were removed. This is the required cascade
// after a term closes.
func (r *SessionRepository) DeleteByTermFromDate(ctx context.Context, termID string, from time.Time) (int, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE term_id = $1 AND date >= $2`, termID, from)
	if err != nil {
		return 0, fmt.Errorf("delete sessions from date: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete sessions rows affected: %w", err)
	}
	return int(affected), nil
}
