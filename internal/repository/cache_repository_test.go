package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/course-eval-api/pkg/errors"
)

func newMiniRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestCacheRepositoryRoundTrip(t *testing.T) {
	mr, client := newMiniRedis(t)
	repo := NewCacheRepository(client, nil)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "reports:aggregate:a", map[string]int{"total": 3}, time.Minute))

	var out map[string]int
	require.NoError(t, repo.Get(ctx, "reports:aggregate:a", &out))
	assert.Equal(t, 3, out["total"])

	mr.FastForward(2 * time.Minute)
	assert.ErrorIs(t, repo.Get(ctx, "reports:aggregate:a", &out), appErrors.ErrCacheMiss)
}

func TestCacheRepositoryDeleteByPattern(t *testing.T) {
	mr, client := newMiniRedis(t)
	repo := NewCacheRepository(client, nil)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "reports:aggregate:a", 1, time.Minute))
	require.NoError(t, repo.Set(ctx, "reports:aggregate:b", 2, time.Minute))
	require.NoError(t, repo.Set(ctx, "dashboard:admin:1", 3, time.Minute))

	removed, err := repo.DeleteByPattern(ctx, "reports:*")
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	assert.False(t, mr.Exists("reports:aggregate:a"))
	assert.True(t, mr.Exists("dashboard:admin:1"))
}

func TestCacheRepositoryUndecodableEntryIsMiss(t *testing.T) {
	mr, client := newMiniRedis(t)
	repo := NewCacheRepository(client, nil)
	require.NoError(t, mr.Set("reports:aggregate:bad", "{not json"))

	var out map[string]int
	err := repo.Get(context.Background(), "reports:aggregate:bad", &out)
	assert.ErrorIs(t, err, appErrors.ErrCacheMiss)
	assert.False(t, mr.Exists("reports:aggregate:bad"))
}

func TestCacheRepositoryDisabled(t *testing.T) {
	repo := NewCacheRepository(nil, nil)
	ctx := context.Background()

	assert.False(t, repo.Enabled())
	assert.NoError(t, repo.Set(ctx, "k", 1, time.Minute))
	var out int
	assert.ErrorIs(t, repo.Get(ctx, "k", &out), appErrors.ErrCacheMiss)
	removed, err := repo.DeleteByPattern(ctx, "*")
	assert.NoError(t, err)
	assert.Zero(t, removed)
}
