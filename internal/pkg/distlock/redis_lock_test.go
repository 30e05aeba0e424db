package distlock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestRedisLockMutualExclusion(t *testing.T) {
	client := newTestRedis(t)
	ctx := context.Background()

	a := NewRedisLock(client, "scheduler", time.Minute)
	b := NewRedisLock(client, "scheduler", time.Minute)

	got, err := a.TryAcquire(ctx)
	require.NoError(t, err)
	assert.True(t, got)

	got, err = b.TryAcquire(ctx)
	require.NoError(t, err)
	assert.False(t, got)

	require.NoError(t, a.Release(ctx))

	got, err = b.TryAcquire(ctx)
	require.NoError(t, err)
	assert.True(t, got)
}

func TestRedisLockReleaseOnlyByOwner(t *testing.T) {
	client := newTestRedis(t)
	ctx := context.Background()

	a := NewRedisLock(client, "scheduler", time.Minute)
	b := NewRedisLock(client, "scheduler", time.Minute)

	got, err := a.TryAcquire(ctx)
	require.NoError(t, err)
	require.True(t, got)

	// A non-owner release is a no-op; the lock stays held.
	require.NoError(t, b.Release(ctx))
	got, err = b.TryAcquire(ctx)
	require.NoError(t, err)
	assert.False(t, got)
}

func TestRedisLockExtend(t *testing.T) {
	client := newTestRedis(t)
	ctx := context.Background()

	a := NewRedisLock(client, "scheduler", time.Minute)
	got, err := a.TryAcquire(ctx)
	require.NoError(t, err)
	require.True(t, got)

	require.NoError(t, a.Extend(ctx, 5*time.Minute))

	// Extending a lock we do not own leaves the TTL alone.
	b := NewRedisLock(client, "scheduler", time.Minute)
	require.NoError(t, b.Extend(ctx, time.Hour))
}
