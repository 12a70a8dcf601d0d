package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"

	lockllm "github.com/lockllm/lockllm-go"
	"github.com/lockllm/lockllm-go/internal/config"
	apierr "github.com/lockllm/lockllm-go/internal/httputil"
	"github.com/lockllm/lockllm-go/internal/router"
	"github.com/lockllm/lockllm-go/internal/telemetry"
)

// maxErrorBody bounds how much of an upstream error response is buffered
// for logging.
const maxErrorBody = 64 << 10

// Handler forwards local requests to the LockLLM proxy, presenting the
// configured LockLLM key and x-lockllm-* options in place of whatever
// credentials the caller sent.
type Handler struct {
	healthTracker *router.HealthTracker
	cfg           func() *config.Config
	metrics       *telemetry.GatewayMetrics
	logger        *slog.Logger
	base          http.RoundTripper

	options atomic.Pointer[lockllm.ProxyOptions]
}

// NewHandler builds a handler. base is the transport used to reach LockLLM;
// nil means http.DefaultTransport.
func NewHandler(healthTracker *router.HealthTracker, cfg func() *config.Config, metrics *telemetry.GatewayMetrics, logger *slog.Logger, base http.RoundTripper) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{
		healthTracker: healthTracker,
		cfg:           cfg,
		metrics:       metrics,
		logger:        logger,
		base:          base,
	}
	h.SetProxyOptions(cfg().Proxy.Options())
	return h
}

// SetProxyOptions replaces the options attached to forwarded requests.
// Requests already in flight keep the options they started with.
func (h *Handler) SetProxyOptions(opts *lockllm.ProxyOptions) {
	h.options.Store(opts)
}

// ProxyOptions returns the options currently attached to forwarded requests.
func (h *Handler) ProxyOptions() *lockllm.ProxyOptions {
	return h.options.Load()
}

// ChatCompletions handles POST /v1/chat/completions through the universal endpoint.
func (h *Handler) ChatCompletions(w http.ResponseWriter, r *http.Request) {
	h.forward(w, r, "", "")
}

// ProviderProxy handles /v1/proxy/{provider}/* for BYOK providers.
func (h *Handler) ProviderProxy(w http.ResponseWriter, r *http.Request) {
	h.forward(w, r, chi.URLParam(r, "provider"), chi.URLParam(r, "*"))
}

func (h *Handler) forward(w http.ResponseWriter, r *http.Request, provider, rest string) {
	reqID := w.Header().Get("X-Request-ID")
	receivedAt := time.Now()
	cfg := h.cfg()

	target, err := router.Resolve(cfg.Client.BaseURL, provider)
	if err != nil {
		apierr.WriteNotFoundError(w, reqID, err.Error())
		return
	}

	if h.healthTracker != nil && !h.healthTracker.IsAvailable(target.Route) {
		h.logger.Warn("circuit open, rejecting request", "request_id", reqID, "route", target.Route)
		h.record(target.Route, http.StatusServiceUnavailable, "", "", receivedAt)
		apierr.WriteServiceUnavailableError(w, reqID, "LockLLM proxy for "+target.Route+" is temporarily unavailable")
		return
	}

	proxy := &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.Out.URL.Scheme = target.Upstream.Scheme
			pr.Out.URL.Host = target.Upstream.Host
			pr.Out.URL.Path = joinPath(target.Upstream.Path, rest)
			pr.Out.URL.RawPath = ""
			pr.Out.Host = target.Upstream.Host
			pr.Out.Header.Set("X-Request-Id", reqID)
		},
		Transport: &lockllm.ProxyTransport{
			APIKey:   cfg.Client.APIKey,
			Provider: target.Provider,
			Options:  h.options.Load(),
			Base:     h.base,
		},
		FlushInterval: -1,
		ModifyResponse: func(resp *http.Response) error {
			if resp.Header.Get("X-Request-Id") == "" {
				resp.Header.Set("X-Request-Id", reqID)
			}
			h.observe(resp, target.Route, reqID, receivedAt)
			return nil
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			if errors.Is(err, context.Canceled) {
				if h.healthTracker != nil {
					h.healthTracker.ReleaseTrial(target.Route)
				}
				h.logger.Info("caller went away", "request_id", reqID, "route", target.Route)
				return
			}
			if h.healthTracker != nil {
				h.healthTracker.RecordFailure(target.Route)
			}
			h.logger.Error("lockllm proxy request failed",
				"request_id", reqID,
				"route", target.Route,
				"error", err,
			)
			h.record(target.Route, http.StatusBadGateway, "", "", receivedAt)
			apierr.WriteBadGatewayError(w, reqID, "LockLLM proxy request failed")
		},
	}
	// The response carries LockLLM's request id, or ours when it sends none.
	w.Header().Del("X-Request-ID")
	proxy.ServeHTTP(w, r)
}

// observe logs and records a LockLLM response before it is streamed back.
func (h *Handler) observe(resp *http.Response, route, reqID string, receivedAt time.Time) {
	if h.healthTracker != nil {
		if resp.StatusCode >= 500 {
			h.healthTracker.RecordFailure(route)
		} else {
			h.healthTracker.RecordSuccess(route)
		}
	}

	md := lockllm.ParseProxyMetadata(resp.Header)
	if md.RequestID == "" {
		md.RequestID = reqID
	}

	if resp.StatusCode >= 400 {
		e := h.upstreamError(resp, md.RequestID)
		h.logger.Warn("lockllm rejected request",
			"request_id", reqID,
			"lockllm_request_id", e.RequestID,
			"route", route,
			"status", resp.StatusCode,
			"kind", e.Kind.String(),
			"type", e.Type,
			"code", e.Code,
		)
		h.record(route, resp.StatusCode, e.Kind.String(), md.CacheStatus, receivedAt)
		return
	}

	outcome := scanOutcome(md)
	args := []any{
		"request_id", reqID,
		"lockllm_request_id", md.RequestID,
		"route", route,
		"status", resp.StatusCode,
		"outcome", outcome,
		"scan_mode", string(md.ScanMode),
		"credits_mode", md.CreditsMode,
		"duration_ms", time.Since(receivedAt).Milliseconds(),
	}
	if md.Model != "" {
		args = append(args, "model", md.Model)
	}
	if md.ScanWarning != nil {
		args = append(args, "injection_score", md.ScanWarning.InjectionScore)
	}
	if md.PolicyWarnings != nil {
		args = append(args, "policy_warnings", md.PolicyWarnings.Count)
	}
	if md.Abuse != nil {
		args = append(args, "abuse_types", md.Abuse.Types)
	}
	if md.PII != nil && md.PII.Detected {
		args = append(args, "pii_types", md.PII.EntityTypes, "pii_action", md.PII.Action)
	}
	if md.Routing != nil && md.Routing.Enabled {
		args = append(args, "routed_model", md.Routing.SelectedModel, "task_type", md.Routing.TaskType)
	}
	if md.CreditsDeducted != nil {
		args = append(args, "credits_deducted", *md.CreditsDeducted)
	}
	if md.CacheStatus != "" {
		args = append(args, "cache_status", md.CacheStatus)
	}
	if md.Compression != nil && md.Compression.Applied {
		args = append(args, "compression", md.Compression.Method, "compression_ratio", md.Compression.Ratio)
	}
	h.logger.Info("request forwarded", args...)
	h.record(route, resp.StatusCode, outcome, md.CacheStatus, receivedAt)
}

// upstreamError buffers a small error body, maps it to a typed error and
// restores the body for the caller.
func (h *Handler) upstreamError(resp *http.Response, requestID string) *lockllm.Error {
	var env lockllm.ErrorResponse
	if resp.Body != nil && resp.ContentLength <= maxErrorBody {
		body := resp.Body
		data, err := io.ReadAll(io.LimitReader(body, maxErrorBody))
		resp.Body = readCloser{io.MultiReader(bytes.NewReader(data), body), body}
		if err == nil {
			_ = json.Unmarshal(data, &env)
		}
	}
	e := lockllm.ParseError(env, requestID)
	if e.Status == 0 {
		e.Status = resp.StatusCode
	}
	return e
}

type readCloser struct {
	io.Reader
	io.Closer
}

func (h *Handler) record(route string, status int, outcome, cacheStatus string, receivedAt time.Time) {
	if h.metrics == nil {
		return
	}
	h.metrics.RecordRequest(telemetry.RequestLabels{
		Provider:    route,
		Status:      strconv.Itoa(status),
		Outcome:     outcome,
		CacheStatus: strings.ToLower(cacheStatus),
		DurationMs:  float64(time.Since(receivedAt).Milliseconds()),
	})
}

func scanOutcome(md lockllm.ProxyResponseMetadata) string {
	switch {
	case md.Blocked != nil && *md.Blocked:
		return "blocked"
	case !md.Scanned:
		return "not_scanned"
	case md.Safe:
		return "safe"
	default:
		return "unsafe"
	}
}

func joinPath(base, rest string) string {
	rest = strings.TrimPrefix(rest, "/")
	if rest == "" {
		return base
	}
	return strings.TrimSuffix(base, "/") + "/" + rest
}
