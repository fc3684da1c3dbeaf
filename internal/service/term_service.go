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

type termRepository interface {
	FindByID(ctx context.Context, id string) (*models.Term, error)
	FindOpenByStudentClass(ctx context.Context, studentID, classID string) (*models.Term, error)
	LatestClosedEndDate(ctx context.Context, studentID, classID string) (*time.Time, error)
	List(ctx context.Context, filter models.TermFilter) ([]models.Term, int, error)
	Create(ctx context.Context, term *models.Term) error
	UpdateSnapshot(ctx context.Context, id string, sessionsLimit int, tuitionFee int64, currencyUnit string) error
	DeleteCascade(ctx context.Context, id string) error
}

type termSessionReader interface {
	SlotTakenByOther(ctx context.Context, classID string, date time.Time, startTime, studentID string) (bool, error)
	CountByTerm(ctx context.Context, termID string) (int, error)
}

type termPaymentReader interface {
	CountByTerm(ctx context.Context, termID string) (int, error)
}

type termConflictChecker interface {
	WeeklyTeacherConflict(ctx context.Context, classID, studentID, startTime, excludeSessionID string) (bool, error)
}

type termClassReader interface {
	FindByID(ctx context.Context, id string) (*models.Class, error)
}

type pricingProfileReader interface {
	FindByID(ctx context.Context, id string) (*models.PricingProfile, error)
	FindDefault(ctx context.Context) (*models.PricingProfile, error)
}

type termSettingsProvider interface {
	TermSessionCount(ctx context.Context) (int, error)
	TermFee(ctx context.Context) (int64, error)
	CurrencyUnit(ctx context.Context) (string, error)
}

// ResolveTermRequest describes the term resolution payload.
type ResolveTermRequest struct {
	StudentID string    `json:"student_id" validate:"required"`
	ClassID   string    `json:"class_id" validate:"required"`
	StartDate time.Time `json:"start_date" validate:"required"`
	StartTime string    `json:"start_time" validate:"required"`
	Config    *models.TermConfig
}

// TermService resolves or creates enrollment windows and garbage-collects
// unused ones. All validate-then-mutate sequences run while holding the
// shared keyed locks for the student and teacher involved.
type TermService struct {
	repo      termRepository
	sessions  termSessionReader
	payments  termPaymentReader
	conflicts termConflictChecker
	profiles  pricingProfileReader
	settings  termSettingsProvider
	classes   termClassReader
	locks     *KeyedLocker
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTermService constructs a TermService. locks must be the locker shared
// with the session and attendance services.
func NewTermService(repo termRepository, sessions termSessionReader, payments termPaymentReader, conflicts termConflictChecker, profiles pricingProfileReader, settings termSettingsProvider, classes termClassReader, locks *KeyedLocker, validate *validator.Validate, logger *zap.Logger) *TermService {
	if locks == nil {
		locks = NewKeyedLocker()
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TermService{
		repo:      repo,
		sessions:  sessions,
		payments:  payments,
		conflicts: conflicts,
		profiles:  profiles,
		settings:  settings,
		classes:   classes,
		locks:     locks,
		validator: validate,
		logger:    logger,
	}
}

// Get loads a term by id.
func (s *TermService) Get(ctx context.Context, id string) (*models.Term, error) {
	term, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "term not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load term")
	}
	return term, nil
}

// List returns terms with pagination metadata.
func (s *TermService) List(ctx context.Context, filter models.TermFilter) ([]models.Term, *models.Pagination, error) {
	terms, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list terms")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return terms, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// GetOrCreateOpenTerm resolves the open term for the (student, class) pair,
// or creates one after the conflict and overlap gates pass. Rejections come
// back as outcomes, not errors, so the caller can branch on cause.
func (s *TermService) GetOrCreateOpenTerm(ctx context.Context, req ResolveTermRequest) (*models.TermResolution, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid term payload")
	}

	class, err := s.classes.FindByID(ctx, req.ClassID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}

	unlock := s.locks.Lock(studentKey(req.StudentID), teacherKey(class.TeacherID))
	defer unlock()

	return s.resolveOpenTerm(ctx, req)
}

// resolveOpenTerm is the lock-free resolution body. Callers must already
// hold the student lock; the session service calls it while serializing its
// own check-then-insert sequence.
func (s *TermService) resolveOpenTerm(ctx context.Context, req ResolveTermRequest) (*models.TermResolution, error) {
	existing, err := s.repo.FindOpenByStudentClass(ctx, req.StudentID, req.ClassID)
	if err != nil && err != sql.ErrNoRows {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve term")
	}
	if existing != nil {
		if err := s.applyOverrides(ctx, existing, req.Config); err != nil {
			return nil, err
		}
		return &models.TermResolution{TermID: existing.ID, Outcome: models.TermOutcomeExisting}, nil
	}

	conflict, err := s.conflicts.WeeklyTeacherConflict(ctx, req.ClassID, req.StudentID, req.StartTime, "")
	if err != nil {
		return nil, err
	}
	if conflict {
		return &models.TermResolution{Outcome: models.TermOutcomeRejectedTeacherConflict}, nil
	}

	taken, err := s.sessions.SlotTakenByOther(ctx, req.ClassID, req.StartDate, req.StartTime, req.StudentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check slot")
	}
	if taken {
		return &models.TermResolution{Outcome: models.TermOutcomeRejectedSlotTaken}, nil
	}

	lastEnd, err := s.repo.LatestClosedEndDate(ctx, req.StudentID, req.ClassID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check prior terms")
	}
	if lastEnd != nil && lastEnd.After(req.StartDate) {
		return &models.TermResolution{Outcome: models.TermOutcomeRejectedOverlap}, nil
	}

	limit, fee, currency, err := s.resolveSnapshot(ctx, req.Config)
	if err != nil {
		return nil, err
	}

	term := &models.Term{
		StudentID:     req.StudentID,
		ClassID:       req.ClassID,
		StartDate:     req.StartDate,
		StartTime:     req.StartTime,
		SessionsLimit: limit,
		TuitionFee:    fee,
		CurrencyUnit:  currency,
	}
	if err := s.repo.Create(ctx, term); err != nil {
		if repository.IsUniqueViolation(err) {
			// Lost a create race; the winner's row is the term we wanted.
			winner, findErr := s.repo.FindOpenByStudentClass(ctx, req.StudentID, req.ClassID)
			if findErr != nil {
				return nil, appErrors.Wrap(findErr, appErrors.ErrIntegrity.Code, appErrors.ErrIntegrity.Status, "term already exists but could not be loaded")
			}
			return &models.TermResolution{TermID: winner.ID, Outcome: models.TermOutcomeExisting}, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create term")
	}

	s.logger.Info("term created",
		zap.String("term_id", term.ID),
		zap.String("student_id", term.StudentID),
		zap.String("class_id", term.ClassID),
		zap.Int("sessions_limit", term.SessionsLimit),
	)
	return &models.TermResolution{TermID: term.ID, Outcome: models.TermOutcomeCreated}, nil
}

// DeleteIfUnused garbage-collects a term once it has no sessions and no
// payments. Returns true when the term was removed.
func (s *TermService) DeleteIfUnused(ctx context.Context, termID string) (bool, error) {
	term, err := s.repo.FindByID(ctx, termID)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, appErrors.Clone(appErrors.ErrNotFound, "term not found")
		}
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load term")
	}

	unlock := s.locks.Lock(studentKey(term.StudentID))
	defer unlock()

	return s.collectIfUnused(ctx, termID)
}

// collectIfUnused is the lock-free garbage-collection body; the session
// service calls it while already holding the student lock.
func (s *TermService) collectIfUnused(ctx context.Context, termID string) (bool, error) {
	payments, err := s.payments.CountByTerm(ctx, termID)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count payments")
	}
	if payments > 0 {
		return false, nil
	}
	sessions, err := s.sessions.CountByTerm(ctx, termID)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count sessions")
	}
	if sessions > 0 {
		return false, nil
	}

	if err := s.repo.DeleteCascade(ctx, termID); err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete term")
	}
	s.logger.Info("unused term deleted", zap.String("term_id", termID))
	return true, nil
}

// applyOverrides rewrites the snapshot of an already-resolved open term when
// the caller supplies explicit non-nil overrides. Absent fields keep their
// stored values; the snapshot is never silently recomputed from defaults.
func (s *TermService) applyOverrides(ctx context.Context, term *models.Term, cfg *models.TermConfig) error {
	if cfg == nil || (cfg.SessionsLimit == nil && cfg.TuitionFee == nil && cfg.CurrencyUnit == nil) {
		return nil
	}
	limit := term.SessionsLimit
	fee := term.TuitionFee
	currency := term.CurrencyUnit
	if cfg.SessionsLimit != nil {
		limit = *cfg.SessionsLimit
	}
	if cfg.TuitionFee != nil {
		fee = *cfg.TuitionFee
	}
	if cfg.CurrencyUnit != nil {
		currency = *cfg.CurrencyUnit
	}
	if limit == term.SessionsLimit && fee == term.TuitionFee && currency == term.CurrencyUnit {
		return nil
	}
	if err := s.repo.UpdateSnapshot(ctx, term.ID, limit, fee, currency); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to apply term overrides")
	}
	term.SessionsLimit = limit
	term.TuitionFee = fee
	term.CurrencyUnit = currency
	return nil
}

// resolveSnapshot resolves each pricing field through the chain: explicit
// override, then selected (or default) pricing profile, then stored
// settings defaults.
func (s *TermService) resolveSnapshot(ctx context.Context, cfg *models.TermConfig) (int, int64, string, error) {
	var profile *models.PricingProfile
	if cfg != nil && cfg.PricingProfileID != nil {
		p, err := s.profiles.FindByID(ctx, *cfg.PricingProfileID)
		if err != nil {
			if err == sql.ErrNoRows {
				return 0, 0, "", appErrors.Clone(appErrors.ErrNotFound, "pricing profile not found")
			}
			return 0, 0, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load pricing profile")
		}
		profile = p
	} else {
		p, err := s.profiles.FindDefault(ctx)
		if err != nil && err != sql.ErrNoRows {
			return 0, 0, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load default pricing profile")
		}
		profile = p
	}

	var limit int
	switch {
	case cfg != nil && cfg.SessionsLimit != nil:
		limit = *cfg.SessionsLimit
	case profile != nil:
		limit = profile.SessionsLimit
	default:
		v, err := s.settings.TermSessionCount(ctx)
		if err != nil {
			return 0, 0, "", err
		}
		limit = v
	}

	var fee int64
	switch {
	case cfg != nil && cfg.TuitionFee != nil:
		fee = *cfg.TuitionFee
	case profile != nil:
		fee = profile.TuitionFee
	default:
		v, err := s.settings.TermFee(ctx)
		if err != nil {
			return 0, 0, "", err
		}
		fee = v
	}

	var currency string
	switch {
	case cfg != nil && cfg.CurrencyUnit != nil:
		currency = *cfg.CurrencyUnit
	case profile != nil:
		currency = profile.CurrencyUnit
	default:
		v, err := s.settings.CurrencyUnit(ctx)
		if err != nil {
			return 0, 0, "", err
		}
		currency = v
	}

	if limit <= 0 {
		return 0, 0, "", appErrors.Clone(appErrors.ErrValidation, "sessions limit must be positive")
	}
	return limit, fee, currency, nil
}
