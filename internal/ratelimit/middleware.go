package ratelimit

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/lockllm/lockllm-go/internal/auth"
	"github.com/lockllm/lockllm-go/internal/config"
	"github.com/lockllm/lockllm-go/internal/httputil"
	"github.com/lockllm/lockllm-go/internal/telemetry"
)

const (
	headerRateLimitRequests          = "X-RateLimit-Limit-Requests"
	headerRateLimitRemainingRequests = "X-RateLimit-Remaining-Requests"
	headerRateLimitReset             = "X-RateLimit-Reset-Requests"
)

// Middleware returns chi middleware that enforces the gateway rate limit per
// caller. Callers are identified by their gateway token, or by client IP
// when local auth is disabled. settings is read on every request so config
// reloads apply without a restart.
func Middleware(limiter *Limiter, settings func() config.RateLimitConfig, metrics *telemetry.GatewayMetrics, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cfg := settings()
			if !cfg.Enabled || cfg.RequestsPerMinute <= 0 {
				next.ServeHTTP(w, r)
				return
			}
			reqID := w.Header().Get("X-Request-ID")
			quota := QuotaFrom(cfg)
			key := callerKey(r)

			result, err := limiter.Allow(r.Context(), key, quota)
			if err != nil {
				logger.Warn("rate limit check failed, allowing request", "request_id", reqID, "error", err)
			}

			w.Header().Set(headerRateLimitRequests, strconv.FormatInt(quota.Limit, 10))
			w.Header().Set(headerRateLimitRemainingRequests, strconv.FormatInt(result.Remaining, 10))
			w.Header().Set(headerRateLimitReset, result.ResetAt.UTC().Format(time.RFC3339))

			if !result.Allowed {
				logger.Warn("rate limit exceeded",
					"request_id", reqID,
					"caller", key,
					"limit", quota.Limit,
					"window", quota.Window.String(),
				)
				if metrics != nil {
					metrics.RecordRateLimitHit()
				}
				httputil.WriteRateLimitError(w, reqID,
					fmt.Sprintf("Rate limit exceeded: %d requests per %s", quota.Limit, quota.Window), result.RetryAfter)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func callerKey(r *http.Request) string {
	if id, ok := auth.AuthFromContext(r.Context()); ok && id != nil {
		return "key:" + id.KeyID
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}
