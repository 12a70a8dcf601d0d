package router

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// HealthTracker keeps one Breaker per proxy route and logs every state
// change.
type HealthTracker struct {
	mu        sync.RWMutex
	breakers  map[string]*Breaker
	threshold int
	cooldown  time.Duration

	logger *slog.Logger
	now    func() time.Time
}

func NewHealthTracker(threshold int, cooldown time.Duration, logger *slog.Logger) *HealthTracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthTracker{
		breakers:  make(map[string]*Breaker),
		threshold: threshold,
		cooldown:  cooldown,
		logger:    logger,
		now:       time.Now,
	}
}

func (ht *HealthTracker) breaker(route string) *Breaker {
	ht.mu.RLock()
	b, ok := ht.breakers[route]
	ht.mu.RUnlock()
	if ok {
		return b
	}

	ht.mu.Lock()
	defer ht.mu.Unlock()
	if b, ok := ht.breakers[route]; ok {
		return b
	}
	b = NewBreaker(ht.threshold, ht.cooldown)
	b.now = ht.now
	ht.breakers[route] = b
	return b
}

// Configure applies new thresholds after a config reload. Every route starts
// again closed.
func (ht *HealthTracker) Configure(threshold int, cooldown time.Duration) {
	ht.mu.Lock()
	defer ht.mu.Unlock()
	ht.threshold = threshold
	ht.cooldown = cooldown
	clear(ht.breakers)
}

// IsAvailable reports whether a request for route may be forwarded.
func (ht *HealthTracker) IsAvailable(route string) bool {
	return ht.breaker(route).Allow()
}

// ReleaseTrial frees the route for the next request when one admitted by
// IsAvailable ends without an upstream verdict.
func (ht *HealthTracker) ReleaseTrial(route string) {
	ht.breaker(route).Release()
}

func (ht *HealthTracker) RecordSuccess(route string) {
	ht.observe(route, ht.breaker(route).Success)
}

func (ht *HealthTracker) RecordFailure(route string) {
	ht.observe(route, ht.breaker(route).Failure)
}

func (ht *HealthTracker) observe(route string, record func() (BreakerState, BreakerState)) {
	from, to := record()
	if from == to {
		return
	}
	level := slog.LevelInfo
	if to == BreakerOpen {
		level = slog.LevelWarn
	}
	ht.logger.Log(context.Background(), level, "circuit breaker state changed",
		"route", route,
		"from", from.String(),
		"to", to.String(),
	)
}

// Snapshot returns the state of every route seen so far.
func (ht *HealthTracker) Snapshot() map[string]string {
	ht.mu.RLock()
	defer ht.mu.RUnlock()
	out := make(map[string]string, len(ht.breakers))
	for route, b := range ht.breakers {
		out[route] = b.State().String()
	}
	return out
}
