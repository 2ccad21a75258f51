package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/course-eval-api/internal/models"
)

func TestRedisSessionStore(t *testing.T) {
	mr, client := newMiniRedis(t)
	store := NewRedisSessionStore(client)
	ctx := context.Background()

	session := models.Session{ID: "jti-1", UserID: 7, Role: models.RoleAdmin}
	require.NoError(t, store.Save(ctx, session, time.Hour))
	assert.True(t, mr.Exists("session:jti-1"))

	got, err := store.Get(ctx, "jti-1")
	require.NoError(t, err)
	assert.Equal(t, int64(7), got.UserID)

	require.NoError(t, store.Delete(ctx, "jti-1"))
	_, err = store.Get(ctx, "jti-1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestMemorySessionStoreExpires(t *testing.T) {
	store := NewMemorySessionStore()
	now := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, models.Session{ID: "a", UserID: 1}, time.Minute))
	got, err := store.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.UserID)

	now = now.Add(2 * time.Minute)
	_, err = store.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestMemorySessionStoreDelete(t *testing.T) {
	store := NewMemorySessionStore()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, models.Session{ID: "a"}, time.Hour))
	require.NoError(t, store.Delete(ctx, "a"))
	_, err := store.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}
