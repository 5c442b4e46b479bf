package ratelimit

import (
	"context"
	"strings"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/fyxed/internal/config"
)

const keyLoginAttempt = "fyxed:login:"

// LoginLimiter throttles login attempts per client key (usually org and
// email). A nil or disabled limiter allows everything.
type LoginLimiter struct {
	bucket *TokenBucket
	rate   float64
	burst  int
}

func NewLoginLimiter(client *redis.Client, cfg config.Config) *LoginLimiter {
	if client == nil || !cfg.LoginRateLimitEnabled {
		return nil
	}
	if cfg.LoginRatePerMinute <= 0 || cfg.LoginBurst <= 0 {
		return nil
	}
	return newLoginLimiter(NewTokenBucket(client), cfg.LoginRatePerMinute, cfg.LoginBurst)
}

func newLoginLimiter(bucket *TokenBucket, perMinute float64, burst int) *LoginLimiter {
	return &LoginLimiter{
		bucket: bucket,
		rate:   perMinute / 60,
		burst:  burst,
	}
}

func (l *LoginLimiter) Enabled() bool {
	return l != nil && l.bucket != nil
}

func (l *LoginLimiter) Allow(ctx context.Context, key string) (Result, error) {
	if !l.Enabled() {
		return Result{Allowed: true}, nil
	}
	key = strings.ToLower(strings.TrimSpace(key))
	return l.bucket.Allow(ctx, keyLoginAttempt+key, l.rate, l.burst)
}
