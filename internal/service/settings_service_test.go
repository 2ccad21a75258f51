package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/course-eval-api/internal/models"
)

type settingsRepoStub struct {
	rows map[int64]*models.AppSettings
}

func (s *settingsRepoStub) Get(_ context.Context, adminID int64) (*models.AppSettings, error) {
	row, ok := s.rows[adminID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return row, nil
}

func (s *settingsRepoStub) Upsert(_ context.Context, settings *models.AppSettings) error {
	s.rows[settings.AdminID] = settings
	return nil
}

func TestSettingsDefaultsAndSave(t *testing.T) {
	repo := &settingsRepoStub{rows: map[int64]*models.AppSettings{}}
	svc := NewSettingsService(repo, nil, zap.NewNop())
	ctx := context.Background()

	defaults, err := svc.Get(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultTheme, defaults.Theme)
	assert.Equal(t, models.DefaultAutoLogoutMinutes, defaults.AutoLogoutMinutes)

	saved, err := svc.Save(ctx, 3, models.SaveSettingsRequest{Theme: "dark"})
	require.NoError(t, err)
	assert.Equal(t, "dark", saved.Theme)
	assert.Equal(t, models.DefaultAutoLogoutMinutes, saved.AutoLogoutMinutes)

	got, err := svc.Get(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, "dark", got.Theme)

	_, err = svc.Save(ctx, 3, models.SaveSettingsRequest{Theme: "neon"})
	assert.Error(t, err)
}
