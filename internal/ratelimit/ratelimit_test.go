package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/smallbiznis/fyxed/internal/config"
	"github.com/stretchr/testify/require"
)

func TestLoginLimiterDisabledAllowsEverything(t *testing.T) {
	var limiter *LoginLimiter
	require.False(t, limiter.Enabled())

	res, err := limiter.Allow(context.Background(), "org:someone@example.com")
	require.NoError(t, err)
	require.True(t, res.Allowed)
}

func TestNewLoginLimiterRequiresRedis(t *testing.T) {
	cfg := config.Config{LoginRateLimitEnabled: true, LoginRatePerMinute: 10, LoginBurst: 5}
	require.Nil(t, NewLoginLimiter(nil, cfg))
}

func TestNewLoginLimiterConvertsPerMinute(t *testing.T) {
	limiter := newLoginLimiter(NewTokenBucket(nil), 30, 3)
	require.InDelta(t, 0.5, limiter.rate, 1e-9)
	require.Equal(t, 3, limiter.burst)
}

func TestTokenBucketValidatesArguments(t *testing.T) {
	bucket := NewTokenBucket(nil)
	_, err := bucket.Allow(context.Background(), "k", 1, 1)
	require.Error(t, err)
}

func TestBucketTTL(t *testing.T) {
	require.Equal(t, 20*time.Second, bucketTTL(0.5, 5))
	require.Equal(t, time.Second, bucketTTL(100, 1))
}

func TestScriptValueConversion(t *testing.T) {
	require.Equal(t, int64(1), toInt(int64(1)))
	require.Equal(t, int64(0), toInt(nil))
	require.InDelta(t, 2.75, toFloat("2.75"), 1e-9)
	require.InDelta(t, 3.0, toFloat(int64(3)), 1e-9)
}

func TestLockerNilIsSafe(t *testing.T) {
	var locker *Locker
	require.Nil(t, NewLocker(nil))

	_, ok, err := locker.TryLock(context.Background(), "job", time.Minute)
	require.ErrorIs(t, err, ErrLockNotConfigured)
	require.False(t, ok)
	require.NoError(t, locker.Release(context.Background(), "job", "token"))
}

func TestLockKey(t *testing.T) {
	key, err := lockKey(" scheduler:call_billing_reconcile ")
	require.NoError(t, err)
	require.Equal(t, "fyxed:lock:scheduler:call_billing_reconcile", key)

	for _, name := range []string{"", "   ", "two words"} {
		_, err := lockKey(name)
		require.ErrorIs(t, err, ErrInvalidLock, name)
	}
}
