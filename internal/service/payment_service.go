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

type paymentRepository interface {
	List(ctx context.Context, filter models.PaymentFilter) ([]models.Payment, int, error)
	Create(ctx context.Context, payment *models.Payment) error
	Delete(ctx context.Context, id string) error
}

type paymentTermReader interface {
	FindByID(ctx context.Context, id string) (*models.Term, error)
}

// PaymentRequest describes a payment creation payload.
type PaymentRequest struct {
	TermID string             `json:"term_id" validate:"required,uuid"`
	Amount int64              `json:"amount" validate:"required,gt=0"`
	Kind   models.PaymentKind `json:"kind" validate:"required"`
	PaidAt *time.Time         `json:"paid_at,omitempty"`
}

// PaymentService records money received against terms. Any payment row pins
// its term against garbage collection.
type PaymentService struct {
	repo      paymentRepository
	terms     paymentTermReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPaymentService constructs a PaymentService.
func NewPaymentService(repo paymentRepository, terms paymentTermReader, validate *validator.Validate, logger *zap.Logger) *PaymentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentService{repo: repo, terms: terms, validator: validate, logger: logger}
}

// List returns payments with pagination metadata.
func (s *PaymentService) List(ctx context.Context, filter models.PaymentFilter) ([]models.Payment, *models.Pagination, error) {
	payments, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list payments")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return payments, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Create records a payment against a term.
func (s *PaymentService) Create(ctx context.Context, req PaymentRequest) (*models.Payment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payment payload")
	}
	if !req.Kind.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported payment kind")
	}
	term, err := s.terms.FindByID(ctx, req.TermID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "term not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load term")
	}
	paidAt := time.Now().UTC()
	if req.PaidAt != nil {
		paidAt = *req.PaidAt
	}
	payment := &models.Payment{
		TermID:    term.ID,
		StudentID: term.StudentID,
		Amount:    req.Amount,
		Kind:      req.Kind,
		PaidAt:    paidAt,
	}
	if err := s.repo.Create(ctx, payment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create payment")
	}
	s.logger.Info("payment recorded",
		zap.String("term_id", payment.TermID),
		zap.Int64("amount", payment.Amount),
		zap.String("kind", string(payment.Kind)))
	return payment, nil
}

// Delete removes a payment row.
func (s *PaymentService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete payment")
	}
	return nil
}
