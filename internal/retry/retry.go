// Package retry holds the backoff and Retry-After arithmetic shared by the
// client transport.
package retry

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultBaseDelay is the first backoff step.
	DefaultBaseDelay = time.Second
	// MaxDelay caps every computed backoff.
	MaxDelay = 30 * time.Second
)

// maxRetryAfterSecs is the largest Retry-After that fits in a Duration.
const maxRetryAfterSecs = math.MaxInt64 / int64(time.Second)

// Backoff returns min(base * 2^attempt, MaxDelay). Attempt is zero-based.
func Backoff(attempt int, base time.Duration) time.Duration {
	if base <= 0 {
		base = DefaultBaseDelay
	}
	if attempt < 0 {
		attempt = 0
	}
	// Large shifts overflow int64.
	if attempt > 30 {
		return MaxDelay
	}
	d := base << uint(attempt)
	if d <= 0 || d > MaxDelay {
		return MaxDelay
	}
	return d
}

// ParseRetryAfter reads a Retry-After value, either delta-seconds or an HTTP
// date. The second return is false when the value is missing or unparseable.
// Dates in the past yield zero.
func ParseRetryAfter(value string, now time.Time) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	secs, err := strconv.ParseInt(value, 10, 64)
	if errors.Is(err, strconv.ErrRange) {
		secs, err = maxRetryAfterSecs, nil
		if value[0] == '-' {
			secs = 0
		}
	}
	if err == nil {
		return time.Duration(min(max(secs, 0), maxRetryAfterSecs)) * time.Second, true
	}
	if at, err := http.ParseTime(value); err == nil {
		d := at.Sub(now)
		if d < 0 {
			d = 0
		}
		return d, true
	}
	return 0, false
}

// Sleep waits for d or until ctx is done, whichever comes first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
