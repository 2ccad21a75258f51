package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/course-eval-api/internal/models"
)

// SettingsRepository stores per-admin application settings.
type SettingsRepository struct {
	db *sqlx.DB
}

// NewSettingsRepository constructs the repository.
func NewSettingsRepository(db *sqlx.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Get returns the stored settings; sql.ErrNoRows is returned unwrapped.
func (r *SettingsRepository) Get(ctx context.Context, adminID int64) (*models.AppSettings, error) {
	const query = `SELECT admin_id, theme, auto_logout_minutes, updated_at FROM app_settings WHERE admin_id = $1`
	var settings models.AppSettings
	if err := r.db.GetContext(ctx, &settings, query, adminID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get app settings: %w", err)
	}
	return &settings, nil
}

// Upsert inserts or replaces the admin's settings.
func (r *SettingsRepository) Upsert(ctx context.Context, settings *models.AppSettings) error {
	settings.UpdatedAt = time.Now().UTC()
	const query = `INSERT INTO app_settings (admin_id, theme, auto_logout_minutes, updated_at) VALUES (:admin_id, :theme, :auto_logout_minutes, :updated_at)
ON CONFLICT (admin_id) DO UPDATE SET theme = EXCLUDED.theme, auto_logout_minutes = EXCLUDED.auto_logout_minutes, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, settings); err != nil {
		return fmt.Errorf("upsert app settings: %w", err)
	}
	return nil
}
