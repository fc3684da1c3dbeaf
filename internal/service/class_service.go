package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/Aramesh-Aria/acasmart-api/internal/models"
	appErrors "github.com/Aramesh-Aria/acasmart-api/pkg/errors"
)

type classRepository interface {
	List(ctx context.Context, filter models.ClassFilter) ([]models.ClassDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.Class, error)
	Create(ctx context.Context, class *models.Class) error
	Update(ctx context.Context, class *models.Class) error
	Delete(ctx context.Context, id string) error
}

type classTeacherReader interface {
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
}

// ClassRequest describes class create/update payloads.
type ClassRequest struct {
	Name       string         `json:"name" validate:"required"`
	TeacherID  string         `json:"teacher_id" validate:"required,uuid"`
	Instrument string         `json:"instrument" validate:"required"`
	Room       string         `json:"room" validate:"required"`
	DayOfWeek  models.Weekday `json:"day_of_week" validate:"required"`
	StartTime  string         `json:"start_time" validate:"required"`
	EndTime    string         `json:"end_time" validate:"required"`
}

// ClassService manages weekly class slots.
type ClassService struct {
	repo      classRepository
	teachers  classTeacherReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewClassService constructs a ClassService.
func NewClassService(repo classRepository, teachers classTeacherReader, validate *validator.Validate, logger *zap.Logger) *ClassService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassService{repo: repo, teachers: teachers, validator: validate, logger: logger}
}

// List returns classes with teacher names and pagination metadata.
func (s *ClassService) List(ctx context.Context, filter models.ClassFilter) ([]models.ClassDetail, *models.Pagination, error) {
	classes, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list classes")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return classes, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get loads a class by id.
func (s *ClassService) Get(ctx context.Context, id string) (*models.Class, error) {
	class, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	return class, nil
}

// Create registers a new weekly class slot.
func (s *ClassService) Create(ctx context.Context, req ClassRequest) (*models.Class, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}
	if err := s.checkTeacher(ctx, req.TeacherID); err != nil {
		return nil, err
	}
	class := &models.Class{
		Name:       req.Name,
		TeacherID:  req.TeacherID,
		Instrument: req.Instrument,
		Room:       req.Room,
		DayOfWeek:  req.DayOfWeek,
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
	}
	if err := s.repo.Create(ctx, class); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create class")
	}
	return class, nil
}

// Update modifies an existing class slot.
func (s *ClassService) Update(ctx context.Context, id string, req ClassRequest) (*models.Class, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}
	class, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if class.TeacherID != req.TeacherID {
		if err := s.checkTeacher(ctx, req.TeacherID); err != nil {
			return nil, err
		}
	}
	class.Name = req.Name
	class.TeacherID = req.TeacherID
	class.Instrument = req.Instrument
	class.Room = req.Room
	class.DayOfWeek = req.DayOfWeek
	class.StartTime = req.StartTime
	class.EndTime = req.EndTime
	if err := s.repo.Update(ctx, class); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update class")
	}
	return class, nil
}

// Delete removes a class slot.
func (s *ClassService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete class")
	}
	return nil
}

func (s *ClassService) validate(req ClassRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class payload")
	}
	if !req.DayOfWeek.Valid() {
		return appErrors.Clone(appErrors.ErrValidation, "unsupported day_of_week")
	}
	if req.StartTime >= req.EndTime {
		return appErrors.Clone(appErrors.ErrValidation, "start_time must be before end_time")
	}
	return nil
}

func (s *ClassService) checkTeacher(ctx context.Context, teacherID string) error {
	if _, err := s.teachers.FindByID(ctx, teacherID); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	return nil
}
