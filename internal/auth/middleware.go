package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/lockllm/lockllm-go/internal/httputil"
)

// Middleware returns a chi middleware that authenticates local callers. The
// token may arrive in whichever header the caller's provider SDK uses:
// Authorization: Bearer, x-api-key or x-goog-api-key.
func Middleware(store KeyStore, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !store.Enabled() {
				next.ServeHTTP(w, r)
				return
			}
			reqID := w.Header().Get("X-Request-ID")

			token, ok := extractToken(r)
			if !ok {
				httputil.WriteAuthError(w, reqID, "Missing gateway token. Use: Authorization: Bearer <token>")
				return
			}
			if token == "" {
				httputil.WriteAuthError(w, reqID, "Empty gateway token")
				return
			}

			id, err := store.Lookup(r.Context(), HashToken(token))
			if err != nil {
				logger.Error("token lookup failed", "error", err, "key_prefix", Redact(token))
				httputil.WriteInternalError(w, reqID, "Internal error during authentication")
				return
			}
			if id == nil {
				logger.Warn("auth failed: token not found", "request_id", reqID, "key_prefix", Redact(token))
				httputil.WriteAuthError(w, reqID, "Invalid gateway token")
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithAuth(r.Context(), id)))
		})
	}
}

func extractToken(r *http.Request) (string, bool) {
	if h := r.Header.Get("Authorization"); h != "" {
		token, found := strings.CutPrefix(h, "Bearer ")
		if !found {
			return "", false
		}
		return strings.TrimSpace(token), true
	}
	for _, name := range []string{"x-api-key", "x-goog-api-key"} {
		if v := r.Header.Get(name); v != "" {
			return strings.TrimSpace(v), true
		}
	}
	if v := r.URL.Query().Get("key"); v != "" {
		return v, true
	}
	return "", false
}
