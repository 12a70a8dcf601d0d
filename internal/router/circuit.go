package router

import (
	"sync"
	"time"
)

// BreakerState is the position of a route's circuit breaker.
type BreakerState int

const (
	BreakerClosed BreakerState = iota
	BreakerOpen
	BreakerHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half_open"
	}
	return "unknown"
}

// Breaker stops traffic to a LockLLM proxy route after threshold consecutive
// failures. Once cooldown has passed it admits one trial at a time; the
// trial's outcome closes or reopens it. A trial that reports nothing for a
// whole cooldown no longer blocks the next one.
type Breaker struct {
	mu       sync.Mutex
	state    BreakerState
	streak   int
	openedAt time.Time
	trialOut bool
	trialAt  time.Time

	threshold int
	cooldown  time.Duration
	now       func() time.Time
}

func NewBreaker(threshold int, cooldown time.Duration) *Breaker {
	return &Breaker{threshold: max(threshold, 1), cooldown: cooldown, now: time.Now}
}

func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.settle()
}

// settle moves an open breaker to half-open when its cooldown is over.
// Callers hold mu.
func (b *Breaker) settle() BreakerState {
	if b.state == BreakerOpen && b.now().Sub(b.openedAt) >= b.cooldown {
		b.state = BreakerHalfOpen
		b.trialOut = false
	}
	return b.state
}

// Allow reports whether a request may go upstream. In the half-open state
// one caller at a time gets through.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch b.settle() {
	case BreakerClosed:
		return true
	case BreakerHalfOpen:
		now := b.now()
		if !b.trialOut || now.Sub(b.trialAt) >= b.cooldown {
			b.trialOut = true
			b.trialAt = now
			return true
		}
	}
	return false
}

// Release gives back a slot taken by Allow without recording an outcome,
// for requests abandoned by their caller.
func (b *Breaker) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.trialOut = false
}

// Success records a healthy upstream response and returns the transition.
func (b *Breaker) Success() (from, to BreakerState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	from = b.settle()
	b.streak = 0
	b.trialOut = false
	if from == BreakerHalfOpen {
		b.state = BreakerClosed
	}
	return from, b.state
}

// Failure records a failed upstream exchange and returns the transition.
func (b *Breaker) Failure() (from, to BreakerState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	from = b.settle()
	b.streak++
	if from == BreakerHalfOpen || from == BreakerClosed && b.streak >= b.threshold {
		b.state = BreakerOpen
		b.openedAt = b.now()
		b.trialOut = false
	}
	return from, b.state
}
