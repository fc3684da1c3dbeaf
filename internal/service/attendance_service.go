package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/Aramesh-Aria/acasmart-api/internal/models"
	appErrors "github.com/Aramesh-Aria/acasmart-api/pkg/errors"
)

type attendanceRepository interface {
	Upsert(ctx context.Context, record *models.AttendanceRecord) (*models.AttendanceRecord, error)
	CountByTerm(ctx context.Context, termID string) (int, error)
	ListByTerm(ctx context.Context, termID string) ([]models.AttendanceRecord, error)
	DeleteByTermAndDate(ctx context.Context, termID string, date time.Time) (int, error)
	MaxDateByTerm(ctx context.Context, termID string) (*time.Time, error)
}

type attendanceTermRepository interface {
	FindByID(ctx context.Context, id string) (*models.Term, error)
	SetEndDate(ctx context.Context, id string, endDate *time.Time) error
}

type attendanceSessionPruner interface {
	DeleteByTermFromDate(ctx context.Context, termID string, from time.Time) (int, error)
}

type renewalNotifier interface {
	NotifyIfEligible(ctx context.Context, term *models.Term, count int) (bool, error)
}

type attendanceMetrics interface {
	TermClosed()
	SessionsCascadeDeleted(n int)
}

// RecordAttendanceRequest describes an attendance write.
type RecordAttendanceRequest struct {
	TermID    string    `json:"term_id" validate:"required"`
	StudentID string    `json:"student_id"`
	ClassID   string    `json:"class_id"`
	Date      time.Time `json:"date" validate:"required"`
	IsPresent bool      `json:"is_present"`
}

// AttendanceService records presence per date and drives automatic term
// closure. Closure counts total rows, present plus absent; an absence spends
// a session just like a presence.
type AttendanceService struct {
	repo      attendanceRepository
	terms     attendanceTermRepository
	sessions  attendanceSessionPruner
	notifier  renewalNotifier
	metrics   attendanceMetrics
	locks     *KeyedLocker
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAttendanceService constructs an AttendanceService. notifier and metrics
// may be nil; locks must be the locker shared with the term and session
// services.
func NewAttendanceService(repo attendanceRepository, terms attendanceTermRepository, sessions attendanceSessionPruner, notifier renewalNotifier, metrics attendanceMetrics, locks *KeyedLocker, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if locks == nil {
		locks = NewKeyedLocker()
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{
		repo:      repo,
		terms:     terms,
		sessions:  sessions,
		notifier:  notifier,
		metrics:   metrics,
		locks:     locks,
		validator: validate,
		logger:    logger,
	}
}

// Record upserts the attendance row for (term, date) and applies the closure
// rules: when the total row count reaches the term's sessions limit and the
// term is still open, the term closes with end_date set to the triggering
// date and every future session of the pair is deleted. Crossing one below
// the limit fires the one-time renewal notice.
func (s *AttendanceService) Record(ctx context.Context, req RecordAttendanceRequest) (*models.AttendanceResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}

	term, err := s.terms.FindByID(ctx, req.TermID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "term not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load term")
	}
	if req.StudentID != "" && req.StudentID != term.StudentID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student does not match term")
	}
	if req.ClassID != "" && req.ClassID != term.ClassID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "class does not match term")
	}
	if req.Date.Before(term.StartDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "attendance date precedes term start")
	}

	unlock := s.locks.Lock(studentKey(term.StudentID))
	defer unlock()

	existing, err := s.repo.ListByTerm(ctx, req.TermID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance")
	}
	overwrite := false
	for _, row := range existing {
		if sameDay(row.Date, req.Date) {
			overwrite = true
			break
		}
	}
	if !overwrite && len(existing) >= term.SessionsLimit {
		return nil, appErrors.Clone(appErrors.ErrValidation, "sessions limit already reached")
	}

	record := &models.AttendanceRecord{
		TermID:    term.ID,
		StudentID: term.StudentID,
		ClassID:   term.ClassID,
		Date:      req.Date,
		IsPresent: req.IsPresent,
	}
	stored, err := s.repo.Upsert(ctx, record)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record attendance")
	}

	count := len(existing)
	if !overwrite {
		count++
	}

	result := &models.AttendanceResult{Record: stored, Count: count}

	if s.notifier != nil {
		sent, notifyErr := s.notifier.NotifyIfEligible(ctx, term, count)
		if notifyErr != nil {
			s.logger.Warn("renewal notification check failed", zap.String("term_id", term.ID), zap.Error(notifyErr))
		}
		result.RenewalNoticeSent = sent
	}

	if count == term.SessionsLimit && term.EndDate == nil {
		endDate := req.Date
		if err := s.terms.SetEndDate(ctx, term.ID, &endDate); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to close term")
		}
		result.Ended = true
		if s.metrics != nil {
			s.metrics.TermClosed()
		}

		removed, pruneErr := s.sessions.DeleteByTermFromDate(ctx, term.ID, endDate)
		if pruneErr != nil {
			return nil, appErrors.Wrap(pruneErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to prune sessions after closure")
		}
		result.SessionsRemoved = removed
		if s.metrics != nil && removed > 0 {
			s.metrics.SessionsCascadeDeleted(removed)
		}

		s.logger.Info("term closed by attendance",
			zap.String("term_id", term.ID),
			zap.Time("end_date", endDate),
			zap.Int("sessions_removed", removed),
		)
	}

	return result, nil
}

// Delete removes the attendance row for that exact date and, when the term
// had an end date, recalculates it as the latest remaining attendance date.
// A term whose closing write is deleted reopens partially; deleting every
// row reopens it fully.
func (s *AttendanceService) Delete(ctx context.Context, termID string, date time.Time) (int, error) {
	term, err := s.terms.FindByID(ctx, termID)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, appErrors.Clone(appErrors.ErrNotFound, "term not found")
		}
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load term")
	}

	unlock := s.locks.Lock(studentKey(term.StudentID))
	defer unlock()

	affected, err := s.repo.DeleteByTermAndDate(ctx, termID, date)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete attendance")
	}
	if affected == 0 {
		return 0, nil
	}

	if term.EndDate != nil {
		maxDate, err := s.repo.MaxDateByTerm(ctx, termID)
		if err != nil {
			return affected, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to recalculate end date")
		}
		if err := s.terms.SetEndDate(ctx, termID, maxDate); err != nil {
			return affected, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update end date")
		}
		if maxDate == nil {
			s.logger.Info("term reopened, all attendance removed", zap.String("term_id", termID))
		}
	}

	return affected, nil
}

// Count returns the total attendance row count for a term.
func (s *AttendanceService) Count(ctx context.Context, termID string) (int, error) {
	count, err := s.repo.CountByTerm(ctx, termID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count attendance")
	}
	return count, nil
}

// List returns a term's attendance rows ordered by date.
func (s *AttendanceService) List(ctx context.Context, termID string) ([]models.AttendanceRecord, error) {
	records, err := s.repo.ListByTerm(ctx, termID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
	}
	return records, nil
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}
