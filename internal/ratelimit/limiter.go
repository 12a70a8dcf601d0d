package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lockllm/lockllm-go/internal/config"
)

const keyPrefix = "lockllm:gw:rl:"

// Quota is how many requests a caller may send within a rolling window.
type Quota struct {
	Limit  int64
	Window time.Duration
}

// QuotaFrom converts the per-minute allowance in cfg to a Quota over the
// configured window. A missing window means one minute; the limit never
// drops below one request.
func QuotaFrom(cfg config.RateLimitConfig) Quota {
	window := cfg.Window
	if window <= 0 {
		window = time.Minute
	}
	limit := int64(float64(cfg.RequestsPerMinute) * window.Minutes())
	return Quota{Limit: max(limit, 1), Window: window}
}

// Decision says whether one request may proceed.
type Decision struct {
	Allowed    bool
	Remaining  int64
	ResetAt    time.Time
	RetryAfter time.Duration
}

// Limiter counts gateway requests per caller in Redis sorted sets. A nil
// client or a Redis failure lets every request through.
type Limiter struct {
	rdb redis.UniversalClient
	now func() time.Time
}

func NewLimiter(rdb redis.UniversalClient) *Limiter {
	return &Limiter{rdb: rdb, now: time.Now}
}

// admitScript trims entries older than the window and records the request
// if the caller is under its limit.
//
//	KEYS[1] caller set
//	ARGV    cutoff, now (unix micro), limit, ttl seconds
//	returns {entries after the call, admitted 0/1, oldest entry score}
var admitScript = redis.NewScript(`
local set = KEYS[1]
local cutoff, now = tonumber(ARGV[1]), tonumber(ARGV[2])
local limit, ttl = tonumber(ARGV[3]), tonumber(ARGV[4])

redis.call('ZREMRANGEBYSCORE', set, '-inf', cutoff)
local n = redis.call('ZCARD', set)
local admitted = 0
if n < limit then
    redis.call('ZADD', set, now, now .. '-' .. math.random(1000000))
    n = n + 1
    admitted = 1
end
redis.call('EXPIRE', set, ttl)

local first = redis.call('ZRANGE', set, 0, 0, 'WITHSCORES')
local oldest = now
if first[2] then
    oldest = tonumber(first[2])
end
return {n, admitted, oldest}
`)

// Allow records one request for caller against q.
func (l *Limiter) Allow(ctx context.Context, caller string, q Quota) (Decision, error) {
	now := l.now()
	open := Decision{Allowed: true, Remaining: q.Limit - 1, ResetAt: now.Add(q.Window)}
	if l.rdb == nil {
		return open, nil
	}

	reply, err := admitScript.Run(ctx, l.rdb, []string{keyPrefix + caller},
		now.Add(-q.Window).UnixMicro(),
		now.UnixMicro(),
		q.Limit,
		int64(q.Window.Seconds())+1,
	).Int64Slice()
	if err == nil && len(reply) != 3 {
		err = redis.Nil
	}
	if err != nil {
		return open, err
	}

	// The oldest entry leaving the window is what frees the next slot.
	d := Decision{
		Allowed:   reply[1] == 1,
		Remaining: max(q.Limit-reply[0], 0),
		ResetAt:   time.UnixMicro(reply[2]).Add(q.Window),
	}
	if !d.Allowed {
		d.RetryAfter = max(d.ResetAt.Sub(now), time.Second)
	}
	return d, nil
}
