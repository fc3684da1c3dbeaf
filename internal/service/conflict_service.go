package service

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"

	"github.com/Aramesh-Aria/acasmart-api/internal/models"
	appErrors "github.com/Aramesh-Aria/acasmart-api/pkg/errors"
)

type conflictSessionRepository interface {
	SlotTaken(ctx context.Context, classID string, date time.Time, startTime, excludeSessionID string) (bool, error)
	SlotTakenByOther(ctx context.Context, classID string, date time.Time, startTime, studentID string) (bool, error)
	WeeklyStudentConflict(ctx context.Context, studentID, classID string, weekday models.Weekday, startTime, excludeSessionID string) (bool, error)
	WeeklyTeacherConflict(ctx context.Context, classID, studentID string, weekday models.Weekday, startTime, excludeSessionID string) (bool, error)
}

type conflictClassReader interface {
	FindByID(ctx context.Context, id string) (*models.Class, error)
}

// ConflictService answers the three read-only scheduling questions. None of
// its predicates is atomic with a subsequent write; the term and session
// services hold the student and teacher locks around their
// validate-then-mutate sequences before consulting it.
type ConflictService struct {
	sessions conflictSessionRepository
	classes  conflictClassReader
	logger   *zap.Logger
}

// NewConflictService constructs a ConflictService.
func NewConflictService(sessions conflictSessionRepository, classes conflictClassReader, logger *zap.Logger) *ConflictService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConflictService{sessions: sessions, classes: classes, logger: logger}
}

// ClassSlotTaken reports whether any session already occupies the class on
// that date at that time.
func (s *ConflictService) ClassSlotTaken(ctx context.Context, classID string, date time.Time, startTime string) (bool, error) {
	taken, err := s.sessions.SlotTaken(ctx, classID, date, startTime, "")
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check class slot")
	}
	return taken, nil
}

// WeeklyStudentConflict reports whether the student has a session at the
// same weekday and time in a different class. excludeSessionID, when
// non-empty, removes a session being moved from consideration.
func (s *ConflictService) WeeklyStudentConflict(ctx context.Context, studentID, classID string, weekday models.Weekday, startTime, excludeSessionID string) (bool, error) {
	conflict, err := s.sessions.WeeklyStudentConflict(ctx, studentID, classID, weekday, startTime, excludeSessionID)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check student conflict")
	}
	return conflict, nil
}

// WeeklyTeacherConflict resolves the class's teacher and weekday, then
// reports whether that teacher has a session at the same weekday and time
// for a different student.
func (s *ConflictService) WeeklyTeacherConflict(ctx context.Context, classID, studentID, startTime, excludeSessionID string) (bool, error) {
	class, err := s.classes.FindByID(ctx, classID)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	conflict, err := s.sessions.WeeklyTeacherConflict(ctx, classID, studentID, class.DayOfWeek, startTime, excludeSessionID)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check teacher conflict")
	}
	return conflict, nil
}
