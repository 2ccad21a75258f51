package cache

import (
	"context"
	"strconv"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/course-eval-api/pkg/config"
)

func TestNewRedisDisabled(t *testing.T) {
	client, err := NewRedis(context.Background(), config.RedisConfig{Enabled: false})
	require.NoError(t, err)
	assert.Nil(t, client)
}

func TestNewRedisPings(t *testing.T) {
	mr := miniredis.RunT(t)
	host, portRaw, _ := strings.Cut(mr.Addr(), ":")
	port, err := strconv.Atoi(portRaw)
	require.NoError(t, err)

	client, err := NewRedis(context.Background(), config.RedisConfig{Enabled: true, Host: host, Port: port})
	require.NoError(t, err)
	require.NotNil(t, client)
	defer client.Close()
}

func TestNewRedisUnreachable(t *testing.T) {
	_, err := NewRedis(context.Background(), config.RedisConfig{Enabled: true, Host: "127.0.0.1", Port: 1})
	assert.Error(t, err)
}
