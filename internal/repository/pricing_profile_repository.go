package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Aramesh-Aria/acasmart-api/internal/models"
)

// PricingProfileRepository persists named pricing bundles.
type PricingProfileRepository struct {
	db *sqlx.DB
}

// NewPricingProfileRepository constructs the repository.
func NewPricingProfileRepository(db *sqlx.DB) *PricingProfileRepository {
	return &PricingProfileRepository{db: db}
}

const pricingColumns = "id, name, sessions_limit, tuition_fee, currency_unit, is_default, created_at, updated_at"

// FindByID loads a profile by id.
func (r *PricingProfileRepository) FindByID(ctx context.Context, id string) (*models.PricingProfile, error) {
	query := fmt.Sprintf("SELECT %s FROM pricing_profiles WHERE id = $1", pricingColumns)
	var profile models.PricingProfile
	if err := r.db.GetContext(ctx, &profile, query, id); err != nil {
		return nil, err
	}
	return &profile, nil
}

// FindDefault loads the profile flagged as default, or sql.ErrNoRows.
func (r *PricingProfileRepository) FindDefault(ctx context.Context) (*models.PricingProfile, error) {
	query := fmt.Sprintf("SELECT %s FROM pricing_profiles WHERE is_default LIMIT 1", pricingColumns)
	var profile models.PricingProfile
	if err := r.db.GetContext(ctx, &profile, query); err != nil {
		return nil, err
	}
	return &profile, nil
}

// List returns all profiles ordered by name.
func (r *PricingProfileRepository) List(ctx context.Context) ([]models.PricingProfile, error) {
	query := fmt.Sprintf("SELECT %s FROM pricing_profiles ORDER BY name ASC", pricingColumns)
	var profiles []models.PricingProfile
	if err := r.db.SelectContext(ctx, &profiles, query); err != nil {
		return nil, fmt.Errorf("list pricing profiles: %w", err)
	}
	return profiles, nil
}

// Create stores a new profile. Setting is_default demotes any prior default
// inside the same transaction.
func (r *PricingProfileRepository) Create(ctx context.Context, profile *models.PricingProfile) error {
	if profile.ID == "" {
		profile.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = now
	}
	profile.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create pricing profile: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if profile.IsDefault {
		if _, err = tx.ExecContext(ctx, `UPDATE pricing_profiles SET is_default = FALSE, updated_at = $1 WHERE is_default`, now); err != nil {
			return fmt.Errorf("demote default pricing profile: %w", err)
		}
	}
	const query = `INSERT INTO pricing_profiles (id, name, sessions_limit, tuition_fee, currency_unit, is_default, created_at, updated_at)
VALUES (:id, :name, :sessions_limit, :tuition_fee, :currency_unit, :is_default, :created_at, :updated_at)`
	if _, err = tx.NamedExecContext(ctx, query, profile); err != nil {
		return fmt.Errorf("create pricing profile: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit create pricing profile: %w", err)
	}
	return nil
}
