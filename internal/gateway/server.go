package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/lockllm/lockllm-go/internal/auth"
	"github.com/lockllm/lockllm-go/internal/config"
	"github.com/lockllm/lockllm-go/internal/ratelimit"
)

// RouterDeps holds what NewRouter wires together.
type RouterDeps struct {
	Handler  *Handler
	KeyStore auth.KeyStore
	Limiter  *ratelimit.Limiter
	Metrics  http.Handler
	Version  string
	Logger   *slog.Logger
}

// NewRouter builds the gateway's chi router.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestIDMiddleware)

	r.Get("/healthz", deps.healthHandler)
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}

	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(deps.KeyStore, deps.Logger))
		r.Use(ratelimit.Middleware(deps.Limiter, func() config.RateLimitConfig {
			return deps.Handler.cfg().RateLimit
		}, deps.Handler.metrics, deps.Logger))

		r.Post("/v1/chat/completions", deps.Handler.ChatCompletions)
		r.Post("/v1/proxy/chat/completions", deps.Handler.ChatCompletions)
		r.HandleFunc("/v1/proxy/{provider}", deps.Handler.ProviderProxy)
		r.HandleFunc("/v1/proxy/{provider}/*", deps.Handler.ProviderProxy)
	})
	return r
}

func (deps RouterDeps) healthHandler(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{
		"status":  "healthy",
		"version": deps.Version,
	}
	if ht := deps.Handler.healthTracker; ht != nil {
		body["breakers"] = ht.Snapshot()
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(body)
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("X-Request-ID")
		if reqID == "" {
			reqID = generateRequestID()
		}
		w.Header().Set("X-Request-ID", reqID)
		ctx := context.WithValue(r.Context(), requestIDKey, reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type contextKey string

const requestIDKey contextKey = "request_id"

// RequestIDFromContext returns the id requestIDMiddleware assigned.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

func generateRequestID() string {
	id := uuid.New()
	return fmt.Sprintf("req_%d_%x", time.Now().UnixMilli(), id[:8])
}
