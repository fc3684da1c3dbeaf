package service

import (
	"context"
	"database/sql"
	"strconv"

	"go.uber.org/zap"

	"github.com/Aramesh-Aria/acasmart-api/internal/models"
	"github.com/Aramesh-Aria/acasmart-api/pkg/config"
	appErrors "github.com/Aramesh-Aria/acasmart-api/pkg/errors"
)

type settingRepository interface {
	Get(ctx context.Context, key string) (*models.Setting, error)
	ListByKeys(ctx context.Context, keys []string) ([]models.Setting, error)
	Upsert(ctx context.Context, setting *models.Setting) error
}

// SettingsService is the stored-settings provider feeding term creation.
// Values read here are snapshotted onto the term at creation time and never
// re-derived afterwards.
type SettingsService struct {
	repo     settingRepository
	defaults config.TermDefaultsConfig
	logger   *zap.Logger
}

// NewSettingsService constructs a SettingsService. The config defaults act
// as the fallback when a key has never been written to the store.
func NewSettingsService(repo settingRepository, defaults config.TermDefaultsConfig, logger *zap.Logger) *SettingsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettingsService{repo: repo, defaults: defaults, logger: logger}
}

// GetString returns the stored value for key, or fallback when unset.
func (s *SettingsService) GetString(ctx context.Context, key, fallback string) (string, error) {
	setting, err := s.repo.Get(ctx, key)
	if err != nil {
		if err == sql.ErrNoRows {
			return fallback, nil
		}
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read setting")
	}
	return setting.Value, nil
}

// GetInt returns the stored integer for key, or fallback when unset or
// unparsable.
func (s *SettingsService) GetInt(ctx context.Context, key string, fallback int) (int, error) {
	raw, err := s.GetString(ctx, key, "")
	if err != nil {
		return 0, err
	}
	if raw == "" {
		return fallback, nil
	}
	value, convErr := strconv.Atoi(raw)
	if convErr != nil {
		s.logger.Warn("setting is not an integer, using fallback", zap.String("key", key), zap.String("value", raw))
		return fallback, nil
	}
	return value, nil
}

// GetInt64 returns the stored 64-bit integer for key, or fallback.
func (s *SettingsService) GetInt64(ctx context.Context, key string, fallback int64) (int64, error) {
	raw, err := s.GetString(ctx, key, "")
	if err != nil {
		return 0, err
	}
	if raw == "" {
		return fallback, nil
	}
	value, convErr := strconv.ParseInt(raw, 10, 64)
	if convErr != nil {
		s.logger.Warn("setting is not an integer, using fallback", zap.String("key", key), zap.String("value", raw))
		return fallback, nil
	}
	return value, nil
}

// Set upserts a setting value.
func (s *SettingsService) Set(ctx context.Context, key, value string) error {
	if key == "" {
		return appErrors.Clone(appErrors.ErrValidation, "setting key is required")
	}
	if err := s.repo.Upsert(ctx, &models.Setting{Key: key, Value: value}); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to write setting")
	}
	return nil
}

// List returns the settings for the given keys.
func (s *SettingsService) List(ctx context.Context, keys []string) ([]models.Setting, error) {
	settings, err := s.repo.ListByKeys(ctx, keys)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list settings")
	}
	return settings, nil
}

// TermSessionCount returns the default sessions limit for new terms.
func (s *SettingsService) TermSessionCount(ctx context.Context) (int, error) {
	return s.GetInt(ctx, models.SettingTermSessionCount, s.defaults.SessionCount)
}

// TermFee returns the default tuition fee for new terms.
func (s *SettingsService) TermFee(ctx context.Context) (int64, error) {
	return s.GetInt64(ctx, models.SettingTermFee, s.defaults.Fee)
}

// CurrencyUnit returns the configured currency unit.
func (s *SettingsService) CurrencyUnit(ctx context.Context) (string, error) {
	return s.GetString(ctx, models.SettingCurrencyUnit, s.defaults.CurrencyUnit)
}
