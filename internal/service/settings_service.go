package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/course-eval-api/internal/models"
	appErrors "github.com/noah-isme/course-eval-api/pkg/errors"
)

type settingsRepository interface {
	Get(ctx context.Context, adminID int64) (*models.AppSettings, error)
	Upsert(ctx context.Context, settings *models.AppSettings) error
}

// SettingsService stores per-admin application preferences.
type SettingsService struct {
	repo      settingsRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSettingsService constructs the settings service.
func NewSettingsService(repo settingsRepository, validate *validator.Validate, logger *zap.Logger) *SettingsService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettingsService{repo: repo, validator: validate, logger: logger}
}

// Get returns the admin's settings, or the defaults when none were saved.
func (s *SettingsService) Get(ctx context.Context, adminID int64) (*models.AppSettings, error) {
	settings, err := s.repo.Get(ctx, adminID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			defaults := models.DefaultAppSettings(adminID)
			return &defaults, nil
		}
		return nil, appErrors.Internal(err, "failed to load settings")
	}
	return settings, nil
}

// Save upserts the admin's settings. Zero values fall back to the defaults.
func (s *SettingsService) Save(ctx context.Context, adminID int64, req models.SaveSettingsRequest) (*models.AppSettings, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid settings")
	}
	settings := models.DefaultAppSettings(adminID)
	if req.Theme != "" {
		settings.Theme = req.Theme
	}
	if req.AutoLogoutMinutes > 0 {
		settings.AutoLogoutMinutes = req.AutoLogoutMinutes
	}
	if err := s.repo.Upsert(ctx, &settings); err != nil {
		return nil, appErrors.Internal(err, "failed to save settings")
	}
	return &settings, nil
}
