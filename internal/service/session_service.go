package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/Aramesh-Aria/acasmart-api/internal/models"
	"github.com/Aramesh-Aria/acasmart-api/internal/repository"
	appErrors "github.com/Aramesh-Aria/acasmart-api/pkg/errors"
)

type sessionRepository interface {
	FindByID(ctx context.Context, id string) (*models.Session, error)
	List(ctx context.Context, filter models.SessionFilter) ([]models.Session, int, error)
	Create(ctx context.Context, session *models.Session) error
	Update(ctx context.Context, session *models.Session) error
	Delete(ctx context.Context, id string) error
	SlotTaken(ctx context.Context, classID string, date time.Time, startTime, excludeSessionID string) (bool, error)
	WeeklyStudentConflict(ctx context.Context, studentID, classID string, weekday models.Weekday, startTime, excludeSessionID string) (bool, error)
}

// sessionTermManager exposes the lock-free term internals; the session
// service holds the student and teacher locks itself across its whole
// check-then-insert sequence, so the locking wrappers must not be used here.
type sessionTermManager interface {
	Get(ctx context.Context, id string) (*models.Term, error)
	resolveOpenTerm(ctx context.Context, req ResolveTermRequest) (*models.TermResolution, error)
	collectIfUnused(ctx context.Context, termID string) (bool, error)
}

type sessionConflictChecker interface {
	WeeklyTeacherConflict(ctx context.Context, classID, studentID, startTime, excludeSessionID string) (bool, error)
}

type sessionClassReader interface {
	FindByID(ctx context.Context, id string) (*models.Class, error)
}

// AddSessionRequest describes a session booking.
type AddSessionRequest struct {
	ClassID         string    `json:"class_id" validate:"required"`
	StudentID       string    `json:"student_id" validate:"required"`
	Date            time.Time `json:"date" validate:"required"`
	StartTime       string    `json:"start_time" validate:"required"`
	DurationMinutes int       `json:"duration_minutes" validate:"gte=0"`
	TermConfig      *models.TermConfig
}

// UpdateSessionRequest moves a session to a new date/time, optionally onto a
// different (student, class) pair.
type UpdateSessionRequest struct {
	ClassID   string    `json:"class_id"`
	StudentID string    `json:"student_id"`
	Date      time.Time `json:"date" validate:"required"`
	StartTime string    `json:"start_time" validate:"required"`
}

// SessionService books, moves and removes concrete calendar occurrences.
type SessionService struct {
	repo      sessionRepository
	terms     sessionTermManager
	conflicts sessionConflictChecker
	classes   sessionClassReader
	locks     *KeyedLocker
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSessionService constructs a SessionService. locks must be the locker
// shared with the term and attendance services.
func NewSessionService(repo sessionRepository, terms sessionTermManager, conflicts sessionConflictChecker, classes sessionClassReader, locks *KeyedLocker, validate *validator.Validate, logger *zap.Logger) *SessionService {
	if locks == nil {
		locks = NewKeyedLocker()
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionService{repo: repo, terms: terms, conflicts: conflicts, classes: classes, locks: locks, validator: validate, logger: logger}
}

// Get loads a session by id.
func (s *SessionService) Get(ctx context.Context, id string) (*models.Session, error) {
	sess, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	return sess, nil
}

// List returns sessions with pagination metadata.
func (s *SessionService) List(ctx context.Context, filter models.SessionFilter) ([]models.Session, *models.Pagination, error) {
	sessions, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sessions")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 50
	}
	return sessions, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Add books a session, resolving or lazily creating the enrollment term for
// the (student, class) pair first.
func (s *SessionService) Add(ctx context.Context, req AddSessionRequest) (*models.Session, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid session payload")
	}

	class, err := s.classes.FindByID(ctx, req.ClassID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}

	// The weekly invariants have no store backstop, so the whole
	// check-then-insert sequence runs under the student and teacher locks.
	unlock := s.locks.Lock(studentKey(req.StudentID), teacherKey(class.TeacherID))
	defer unlock()

	if err := s.checkConflicts(ctx, req.ClassID, req.StudentID, req.Date, req.StartTime, ""); err != nil {
		return nil, err
	}

	resolution, err := s.terms.resolveOpenTerm(ctx, ResolveTermRequest{
		StudentID: req.StudentID,
		ClassID:   req.ClassID,
		StartDate: req.Date,
		StartTime: req.StartTime,
		Config:    req.TermConfig,
	})
	if err != nil {
		return nil, err
	}
	if resolution.Outcome.Rejected() {
		return nil, rejectionError(resolution.Outcome)
	}

	term, err := s.terms.Get(ctx, resolution.TermID)
	if err != nil {
		return nil, err
	}
	if req.Date.Before(term.StartDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "session date precedes term start")
	}
	if term.EndDate != nil && req.Date.After(*term.EndDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "term is closed before the requested date")
	}

	duration := req.DurationMinutes
	if duration == 0 {
		duration = slotMinutes(class.StartTime, class.EndTime)
	}

	session := &models.Session{
		TermID:          term.ID,
		ClassID:         req.ClassID,
		StudentID:       req.StudentID,
		Date:            req.Date,
		StartTime:       req.StartTime,
		DurationMinutes: duration,
	}
	if err := s.repo.Create(ctx, session); err != nil {
		// A term created only for this booking must not outlive the failure.
		if resolution.Outcome == models.TermOutcomeCreated {
			if _, gcErr := s.terms.collectIfUnused(ctx, term.ID); gcErr != nil {
				s.logger.Warn("failed to roll back speculative term", zap.String("term_id", term.ID), zap.Error(gcErr))
			}
		}
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrIntegrity, "session slot already booked")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create session")
	}

	s.logger.Info("session booked",
		zap.String("session_id", session.ID),
		zap.String("term_id", term.ID),
		zap.Time("date", session.Date),
		zap.String("start_time", session.StartTime),
	)
	return session, nil
}

// Update moves a session to a new date/time, re-running the conflict checks
// with the moving session excluded. The session is re-linked to a different
// term only when the (student, class) pair changed.
func (s *SessionService) Update(ctx context.Context, id string, req UpdateSessionRequest) (*models.Session, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid session payload")
	}

	session, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}

	classID := req.ClassID
	if classID == "" {
		classID = session.ClassID
	}
	studentID := req.StudentID
	if studentID == "" {
		studentID = session.StudentID
	}

	class, err := s.classes.FindByID(ctx, classID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}

	unlock := s.locks.Lock(studentKey(session.StudentID), studentKey(studentID), teacherKey(class.TeacherID))
	defer unlock()

	if err := s.checkConflicts(ctx, classID, studentID, req.Date, req.StartTime, session.ID); err != nil {
		return nil, err
	}

	pairChanged := classID != session.ClassID || studentID != session.StudentID
	oldTermID := session.TermID
	termCreated := false
	if pairChanged {
		resolution, err := s.terms.resolveOpenTerm(ctx, ResolveTermRequest{
			StudentID: studentID,
			ClassID:   classID,
			StartDate: req.Date,
			StartTime: req.StartTime,
		})
		if err != nil {
			return nil, err
		}
		if resolution.Outcome.Rejected() {
			return nil, rejectionError(resolution.Outcome)
		}
		session.TermID = resolution.TermID
		termCreated = resolution.Outcome == models.TermOutcomeCreated
	}

	// The moved session must still land inside its term's window.
	term, err := s.terms.Get(ctx, session.TermID)
	if err != nil {
		return nil, err
	}
	if req.Date.Before(term.StartDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "session date precedes term start")
	}
	if term.EndDate != nil && req.Date.After(*term.EndDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "term is closed before the requested date")
	}

	session.ClassID = classID
	session.StudentID = studentID
	session.Date = req.Date
	session.StartTime = req.StartTime

	if err := s.repo.Update(ctx, session); err != nil {
		if termCreated {
			if _, gcErr := s.terms.collectIfUnused(ctx, session.TermID); gcErr != nil {
				s.logger.Warn("failed to roll back speculative term", zap.String("term_id", session.TermID), zap.Error(gcErr))
			}
		}
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrIntegrity, "session slot already booked")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update session")
	}

	if pairChanged && oldTermID != session.TermID {
		if _, gcErr := s.terms.collectIfUnused(ctx, oldTermID); gcErr != nil {
			s.logger.Warn("failed to garbage-collect previous term", zap.String("term_id", oldTermID), zap.Error(gcErr))
		}
	}
	return session, nil
}

// Delete removes a session and garbage-collects its term when nothing else
// references it.
func (s *SessionService) Delete(ctx context.Context, id string) error {
	session, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	unlock := s.locks.Lock(studentKey(session.StudentID))
	defer unlock()

	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete session")
	}
	if _, gcErr := s.terms.collectIfUnused(ctx, session.TermID); gcErr != nil {
		s.logger.Warn("failed to garbage-collect term", zap.String("term_id", session.TermID), zap.Error(gcErr))
	}
	return nil
}

func (s *SessionService) checkConflicts(ctx context.Context, classID, studentID string, date time.Time, startTime, excludeSessionID string) error {
	taken, err := s.repo.SlotTaken(ctx, classID, date, startTime, excludeSessionID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check slot")
	}
	if taken {
		return appErrors.Clone(appErrors.ErrConflict, "class slot already taken")
	}

	studentConflict, err := s.repo.WeeklyStudentConflict(ctx, studentID, classID, models.WeekdayOf(date), startTime, excludeSessionID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check student conflict")
	}
	if studentConflict {
		return appErrors.Clone(appErrors.ErrConflict, "student has another class at this weekday and time")
	}

	teacherConflict, err := s.conflicts.WeeklyTeacherConflict(ctx, classID, studentID, startTime, excludeSessionID)
	if err != nil {
		return err
	}
	if teacherConflict {
		return appErrors.Clone(appErrors.ErrConflict, "teacher has another student at this weekday and time")
	}
	return nil
}

func rejectionError(outcome models.TermOutcome) error {
	switch outcome {
	case models.TermOutcomeRejectedOverlap:
		return appErrors.Clone(appErrors.ErrOverlap, "term would overlap the previous term")
	case models.TermOutcomeRejectedSlotTaken:
		return appErrors.Clone(appErrors.ErrConflict, "class slot already taken by another student")
	default:
		return appErrors.Clone(appErrors.ErrConflict, "teacher has another student at this weekday and time")
	}
}

// slotMinutes derives a session duration from the class's weekly slot,
// defaulting to an hour when the times do not parse.
func slotMinutes(start, end string) int {
	st, err1 := time.Parse("15:04", start)
	en, err2 := time.Parse("15:04", end)
	if err1 != nil || err2 != nil || !en.After(st) {
		return 60
	}
	return int(en.Sub(st).Minutes())
}
