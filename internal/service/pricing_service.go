package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/Aramesh-Aria/acasmart-api/internal/models"
	appErrors "github.com/Aramesh-Aria/acasmart-api/pkg/errors"
)

type pricingProfileRepository interface {
	FindByID(ctx context.Context, id string) (*models.PricingProfile, error)
	FindDefault(ctx context.Context) (*models.PricingProfile, error)
	List(ctx context.Context) ([]models.PricingProfile, error)
	Create(ctx context.Context, profile *models.PricingProfile) error
}

// PricingProfileRequest describes a pricing profile creation payload.
type PricingProfileRequest struct {
	Name          string `json:"name" validate:"required"`
	SessionsLimit int    `json:"sessions_limit" validate:"required,gt=0"`
	TuitionFee    int64  `json:"tuition_fee" validate:"gte=0"`
	CurrencyUnit  string `json:"currency_unit" validate:"required"`
	IsDefault     bool   `json:"is_default"`
}

// PricingService manages named pricing bundles consumed at term creation.
type PricingService struct {
	repo      pricingProfileRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPricingService constructs a PricingService.
func NewPricingService(repo pricingProfileRepository, validate *validator.Validate, logger *zap.Logger) *PricingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PricingService{repo: repo, validator: validate, logger: logger}
}

// List returns all pricing profiles.
func (s *PricingService) List(ctx context.Context) ([]models.PricingProfile, error) {
	profiles, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list pricing profiles")
	}
	return profiles, nil
}

// Get loads a pricing profile by id.
func (s *PricingService) Get(ctx context.Context, id string) (*models.PricingProfile, error) {
	profile, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "pricing profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load pricing profile")
	}
	return profile, nil
}

// Default returns the current default profile, or nil when none is flagged.
func (s *PricingService) Default(ctx context.Context) (*models.PricingProfile, error) {
	profile, err := s.repo.FindDefault(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load default pricing profile")
	}
	return profile, nil
}

// Create stores a new pricing profile, demoting the previous default when
// the new one claims the flag.
func (s *PricingService) Create(ctx context.Context, req PricingProfileRequest) (*models.PricingProfile, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid pricing profile payload")
	}
	profile := &models.PricingProfile{
		Name:          req.Name,
		SessionsLimit: req.SessionsLimit,
		TuitionFee:    req.TuitionFee,
		CurrencyUnit:  req.CurrencyUnit,
		IsDefault:     req.IsDefault,
	}
	if err := s.repo.Create(ctx, profile); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create pricing profile")
	}
	return profile, nil
}
