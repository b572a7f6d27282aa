// Package ratelimit throttles credential endpoints with a Redis sliding
// window keyed by client IP.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultKeyPrefix namespaces limiter keys in a shared Redis.
const DefaultKeyPrefix = "taskhub:ratelimit:"

// Result is the outcome of one Allow call.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration
}

// Limiter decides whether a request identified by key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
}

// The sorted set holds one member per accepted request, scored by its
// timestamp in milliseconds. Members older than the window are trimmed first
// so ZCARD counts only the live window.
var slidingWindowScript = redis.NewScript(`
local key = KEYS[1]
local seq_key = KEYS[2]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])

redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
local count = redis.call('ZCARD', key)

if count < limit then
	local seq = redis.call('INCR', seq_key)
	redis.call('ZADD', key, now, now .. ':' .. seq)
	redis.call('PEXPIRE', key, window)
	redis.call('PEXPIRE', seq_key, window)
	return {1, limit - count - 1, 0}
end

local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
local retry = 0
if #oldest >= 2 then
	retry = tonumber(oldest[2]) + window - now
end
return {0, 0, retry}
`)

// SlidingWindow is a Limiter backed by a Redis sorted set per key.
type SlidingWindow struct {
	client redis.Scripter
	limit  int
	window time.Duration
	prefix string
	now    func() time.Time
}

// NewSlidingWindow creates a limiter admitting limit requests per window.
func NewSlidingWindow(client redis.Scripter, limit int, window time.Duration, prefix string) *SlidingWindow {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &SlidingWindow{
		client: client,
		limit:  limit,
		window: window,
		prefix: prefix,
		now:    time.Now,
	}
}

// Allow records the request if the window has room and reports the outcome.
func (l *SlidingWindow) Allow(ctx context.Context, key string) (Result, error) {
	now := l.now()
	redisKey := l.prefix + key

	raw, err := slidingWindowScript.Run(ctx, l.client,
		[]string{redisKey, redisKey + ":seq"},
		now.UnixMilli(),
		l.window.Milliseconds(),
		l.limit,
	).Int64Slice()
	if err != nil {
		return Result{}, fmt.Errorf("rate limit script for %q: %w", key, err)
	}
	if len(raw) != 3 {
		return Result{}, fmt.Errorf("rate limit script returned %d values", len(raw))
	}

	res := Result{
		Allowed:   raw[0] == 1,
		Limit:     l.limit,
		Remaining: int(raw[1]),
		ResetAt:   now.Add(l.window),
	}
	if !res.Allowed && raw[2] > 0 {
		res.RetryAfter = time.Duration(raw[2]) * time.Millisecond
		res.ResetAt = now.Add(res.RetryAfter)
	}
	return res, nil
}
