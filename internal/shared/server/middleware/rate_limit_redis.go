package middleware

import (
	"context"
	"math"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/suiscode/ai-resume/internal/shared/telemetry"
)

// tokenBucketScript refills and takes one token atomically.
// KEYS[1] bucket key; ARGV: rate, burst, now (ms). Returns {allowed, tokens*1000}.
var tokenBucketScript = redis.NewScript(`
local rate = tonumber(ARGV[1])
local burst = tonumber(ARGV[2])
local now = tonumber(ARGV[3])
local state = redis.call("HMGET", KEYS[1], "tokens", "ts")
local tokens = tonumber(state[1])
local ts = tonumber(state[2])
if tokens == nil then
  tokens = burst
  ts = now
end
local elapsed = math.max(0, now - ts) / 1000
tokens = math.min(burst, tokens + elapsed * rate)
local allowed = 0
if tokens >= 1 then
  tokens = tokens - 1
  allowed = 1
end
redis.call("HSET", KEYS[1], "tokens", tokens, "ts", now)
redis.call("PEXPIRE", KEYS[1], math.ceil(burst / rate * 1000) + 1000)
return {allowed, math.floor(tokens * 1000)}
`)

// RedisLimiter shares token buckets across instances through Redis.
// Redis failures fail open so an outage never blocks traffic.
type RedisLimiter struct {
	client redis.Scripter
	prefix string
	now    func() time.Time
}

// NewRedisLimiter builds a RedisLimiter over client.
func NewRedisLimiter(client redis.Scripter, prefix string) *RedisLimiter {
	if prefix == "" {
		prefix = "ratelimit:"
	}
	return &RedisLimiter{client: client, prefix: prefix, now: time.Now}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string, rule Rule) (bool, time.Duration) {
	if l == nil || l.client == nil || rule.disabled() {
		return true, 0
	}
	args := []any{
		strconv.FormatFloat(rule.Rate, 'f', -1, 64),
		rule.Burst,
		l.now().UnixMilli(),
	}
	res, err := tokenBucketScript.Run(ctx, l.client, []string{l.prefix + key}, args...).Int64Slice()
	if err != nil || len(res) != 2 {
		telemetry.Warn("ratelimit.redis_unavailable", map[string]any{"error": errString(err)})
		return true, 0
	}
	if res[0] == 1 {
		return true, 0
	}
	return false, untilNextToken(float64(res[1])/1000.0, rule.Rate)
}

func untilNextToken(tokens, perSecond float64) time.Duration {
	missing := 1 - tokens
	if missing <= 0 {
		return 0
	}
	return time.Duration(math.Ceil(missing/perSecond*1000)) * time.Millisecond
}

func errString(err error) string {
	if err == nil {
		return "unexpected script result"
	}
	return err.Error()
}
