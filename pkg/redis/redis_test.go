package redis

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMiniredis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	mr := miniredis.RunT(t)
	c := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = c.Close() })
	return mr, c
}

func TestAttemptLimiter_FixedWindow(t *testing.T) {
	mr, c := setupMiniredis(t)
	limiter := NewAttemptLimiter(c, 3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := limiter.Allow(ctx, "register:a@example.com")
		require.NoError(t, err)
		assert.True(t, ok, "attempt %d", i+1)
	}
	ok, err := limiter.Allow(ctx, "register:a@example.com")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = limiter.Allow(ctx, "register:b@example.com")
	require.NoError(t, err)
	assert.True(t, ok, "keys are independent")

	mr.FastForward(time.Minute + time.Second)
	ok, err = limiter.Allow(ctx, "register:a@example.com")
	require.NoError(t, err)
	assert.True(t, ok, "window resets")
}

// failFirstPipeline fails the first pipelined call and lets everything else through.
type failFirstPipeline struct {
	failed atomic.Bool
}

func (h *failFirstPipeline) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return next(ctx, network, addr)
	}
}

func (h *failFirstPipeline) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return next
}

func (h *failFirstPipeline) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		if h.failed.CompareAndSwap(false, true) {
			return errors.New("i/o timeout")
		}
		return next(ctx, cmds)
	}
}

func TestAttemptLimiter_WindowIsNotExtended(t *testing.T) {
	mr, c := setupMiniredis(t)
	limiter := NewAttemptLimiter(c, 3, time.Minute)
	ctx := context.Background()

	_, err := limiter.Allow(ctx, "reset:a@example.com")
	require.NoError(t, err)
	assert.Equal(t, time.Minute, mr.TTL("attempts:reset:a@example.com"))

	mr.FastForward(40 * time.Second)
	_, err = limiter.Allow(ctx, "reset:a@example.com")
	require.NoError(t, err)
	assert.Equal(t, 20*time.Second, mr.TTL("attempts:reset:a@example.com"))
}

func TestAttemptLimiter_CounterWithoutTTLRecovers(t *testing.T) {
	mr, c := setupMiniredis(t)
	limiter := NewAttemptLimiter(c, 3, time.Minute)
	ctx := context.Background()

	// A counter left behind without a window
	require.NoError(t, mr.Set("attempts:register:a@example.com", "9"))

	ok, err := limiter.Allow(ctx, "register:a@example.com")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, time.Minute, mr.TTL("attempts:register:a@example.com"))

	mr.FastForward(time.Minute + time.Second)
	ok, err = limiter.Allow(ctx, "register:a@example.com")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAttemptLimiter_FailedRoundTripDoesNotLockOut(t *testing.T) {
	mr, c := setupMiniredis(t)
	c.AddHook(&failFirstPipeline{})
	limiter := NewAttemptLimiter(c, 3, time.Minute)
	ctx := context.Background()

	_, err := limiter.Allow(ctx, "register:a@example.com")
	assert.Error(t, err)

	for i := 0; i < 5; i++ {
		_, err := limiter.Allow(ctx, "register:a@example.com")
		require.NoError(t, err)
	}
	assert.Greater(t, mr.TTL("attempts:register:a@example.com"), time.Duration(0))

	mr.FastForward(24 * time.Hour)
	ok, err := limiter.Allow(ctx, "register:a@example.com")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAttemptLimiter_RedisDown(t *testing.T) {
	mr, c := setupMiniredis(t)
	limiter := NewAttemptLimiter(c, 3, time.Minute)
	mr.Close()

	ok, err := limiter.Allow(context.Background(), "k")
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestRevocationList(t *testing.T) {
	mr, c := setupMiniredis(t)
	list := NewRevocationList(c)
	ctx := context.Background()

	revoked, err := list.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, list.Revoke(ctx, "jti-1", 10*time.Minute))
	revoked, err = list.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	mr.FastForward(11 * time.Minute)
	revoked, err = list.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)
}
