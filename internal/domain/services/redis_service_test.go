package services

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hoa-vote-service/internal/infrastructure/config"
)

func newTestLimiter(t *testing.T, maxFailures int) (InterfaceLoginLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cfg := &config.Config{LoginMaxFailures: maxFailures, LoginLockMinutes: 15}
	return NewLoginLimiter(client, cfg), mr
}

func TestRedisLoginLimiter_LocksAfterMaxFailures(t *testing.T) {
	limiter, mr := newTestLimiter(t, 3)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		locked, err := limiter.IsLocked(ctx, "alice")
		require.NoError(t, err)
		assert.False(t, locked)

		count, err := limiter.RecordFailure(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, int64(i), count)
	}

	locked, err := limiter.IsLocked(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, locked)

	// 其他用户不受影响
	locked, err = limiter.IsLocked(ctx, "bob")
	require.NoError(t, err)
	assert.False(t, locked)

	mr.FastForward(16 * time.Minute)
	locked, err = limiter.IsLocked(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, locked)
}

func TestRedisLoginLimiter_Reset(t *testing.T) {
	limiter, mr := newTestLimiter(t, 2)
	ctx := context.Background()

	_, err := limiter.RecordFailure(ctx, "alice")
	require.NoError(t, err)
	require.True(t, mr.Exists("login_fail:alice"))

	require.NoError(t, limiter.Reset(ctx, "alice"))
	assert.False(t, mr.Exists("login_fail:alice"))
}

func TestNewLoginLimiter_NoRedis(t *testing.T) {
	limiter := NewLoginLimiter(nil, &config.Config{})
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		_, err := limiter.RecordFailure(ctx, "alice")
		require.NoError(t, err)
	}
	locked, err := limiter.IsLocked(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, locked)
}
