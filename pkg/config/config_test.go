package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg := fromViper(v)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, "course_evaluation", cfg.Database.Name)
	assert.Equal(t, 12*time.Hour, cfg.JWT.Expiration)
	assert.Equal(t, 10*time.Minute, cfg.Cache.ReportTTL)
	assert.Equal(t, 3, cfg.Reports.WorkerRetries)
	assert.False(t, cfg.Redis.Enabled)
	assert.Nil(t, cfg.CORS.AllowedOrigins)
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, http://b.test ,")
	t.Setenv("REPORT_CACHE_TTL", "not-a-duration")
	t.Setenv("ENABLE_REPORT_EXPORTS", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, 10*time.Minute, cfg.Cache.ReportTTL)
	assert.True(t, cfg.Reports.Enabled)
}
