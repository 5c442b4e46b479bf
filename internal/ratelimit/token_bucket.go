package ratelimit

import (
	"context"
	"errors"
	"math"
	"strconv"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// Tokens refill continuously at rate per second up to burst. Time comes from
// the redis server so that every API replica shares one clock.
const tokenBucketScript = `
local rate = tonumber(ARGV[1])
local burst = tonumber(ARGV[2])
local ttl = tonumber(ARGV[3])

local nowData = redis.call("TIME")
local now = (nowData[1] * 1000) + math.floor(nowData[2] / 1000)

local data = redis.call("HMGET", KEYS[1], "tokens", "ts")
local tokens = tonumber(data[1])
local ts = tonumber(data[2])

if tokens == nil then
  tokens = burst
else
  local delta = now - ts
  if delta < 0 then
    delta = 0
  end
  tokens = math.min(burst, tokens + (delta / 1000) * rate)
end

local allowed = 0
if tokens >= 1 then
  allowed = 1
  tokens = tokens - 1
end

redis.call("HSET", KEYS[1], "tokens", tokens, "ts", now)
redis.call("PEXPIRE", KEYS[1], ttl)

return {allowed, tostring(tokens)}
`

// Result is the outcome of a single Allow call.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

type TokenBucket struct {
	client redis.Scripter
	script *redis.Script
}

func NewTokenBucket(client redis.Scripter) *TokenBucket {
	return &TokenBucket{
		client: client,
		script: redis.NewScript(tokenBucketScript),
	}
}

// Allow takes one token from the bucket stored at key.
func (t *TokenBucket) Allow(ctx context.Context, key string, rate float64, burst int) (Result, error) {
	if t == nil || t.client == nil {
		return Result{}, errors.New("token bucket client not configured")
	}
	if key == "" {
		return Result{}, errors.New("token bucket key is empty")
	}
	if rate <= 0 || burst <= 0 {
		return Result{}, errors.New("token bucket rate and burst must be positive")
	}

	ttl := bucketTTL(rate, burst)
	raw, err := t.script.Run(ctx, t.client, []string{key}, rate, burst, ttl.Milliseconds()).Slice()
	if err != nil {
		return Result{}, err
	}
	if len(raw) != 2 {
		return Result{}, errors.New("token bucket script returned unexpected payload")
	}

	tokens := toFloat(raw[1])
	result := Result{
		Allowed:   toInt(raw[0]) == 1,
		Limit:     burst,
		Remaining: int(math.Floor(tokens)),
	}
	if !result.Allowed {
		missing := 1 - tokens
		result.RetryAfter = time.Duration(math.Ceil(missing/rate*1000)) * time.Millisecond
	}
	return result, nil
}

// bucketTTL keeps idle keys around for twice the time a full refill takes.
func bucketTTL(rate float64, burst int) time.Duration {
	refill := time.Duration(float64(burst) / rate * float64(time.Second))
	ttl := 2 * refill
	if ttl < time.Second {
		ttl = time.Second
	}
	return ttl
}

func toInt(v interface{}) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case string:
		parsed, _ := strconv.ParseInt(n, 10, 64)
		return parsed
	default:
		return 0
	}
}

func toFloat(v interface{}) float64 {
	switch n := v.(type) {
	case int64:
		return float64(n)
	case string:
		parsed, _ := strconv.ParseFloat(n, 64)
		return parsed
	default:
		return 0
	}
}
