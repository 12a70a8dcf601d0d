// Package lockllm is a client for the LockLLM security gateway: direct prompt
// scans, proxy helpers for provider SDKs and the management REST API.
package lockllm

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/lockllm/lockllm-go/internal/retry"
	"github.com/lockllm/lockllm-go/internal/telemetry"
)

const (
	DefaultBaseURL    = "https://api.lockllm.com"
	DefaultTimeout    = 60 * time.Second
	DefaultMaxRetries = 3
)

// Option configures a Client.
type Option func(*settings)

type settings struct {
	baseURL    string
	timeout    time.Duration
	maxRetries int
	baseDelay  time.Duration
	httpClient *http.Client
	logger     *slog.Logger
	registerer prometheus.Registerer
}

// WithBaseURL points the client at a different LockLLM deployment.
func WithBaseURL(u string) Option {
	return func(s *settings) { s.baseURL = u }
}

// WithTimeout sets the per-attempt timeout used when the call's context has no deadline.
func WithTimeout(d time.Duration) Option {
	return func(s *settings) { s.timeout = d }
}

// WithMaxRetries sets how many times a rate-limited or failed request is retried. Zero disables retries.
func WithMaxRetries(n int) Option {
	return func(s *settings) { s.maxRetries = n }
}

// WithRetryBaseDelay sets the first exponential backoff step.
func WithRetryBaseDelay(d time.Duration) Option {
	return func(s *settings) { s.baseDelay = d }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(s *settings) { s.httpClient = c }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *settings) { s.logger = l }
}

// WithMetrics registers client metrics with reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(s *settings) { s.registerer = reg }
}

// Client talks to the LockLLM API. It is safe for concurrent use.
type Client struct {
	req *requester

	Policies     *PoliciesService
	Routing      *RoutingService
	Credits      *CreditsService
	Logs         *LogsService
	Webhooks     *WebhooksService
	UpstreamKeys *UpstreamKeysService
}

type service struct {
	client *Client
}

// New creates a client authenticated with apiKey. An empty key is rejected
// before any network activity.
func New(apiKey string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, configError("missing_api_key", "API key is required")
	}

	s := settings{
		baseURL:    DefaultBaseURL,
		timeout:    DefaultTimeout,
		maxRetries: DefaultMaxRetries,
		baseDelay:  retry.DefaultBaseDelay,
	}
	for _, opt := range opts {
		opt(&s)
	}

	s.baseURL = strings.TrimRight(strings.TrimSpace(s.baseURL), "/")
	if u, err := url.Parse(s.baseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return nil, configError("invalid_base_url", "invalid base URL: "+s.baseURL)
	}
	if s.timeout <= 0 {
		s.timeout = DefaultTimeout
	}
	if s.maxRetries < 0 {
		s.maxRetries = 0
	}
	if s.httpClient == nil {
		s.httpClient = &http.Client{}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	r := &requester{
		apiKey:     apiKey,
		baseURL:    s.baseURL,
		httpClient: s.httpClient,
		timeout:    s.timeout,
		maxRetries: s.maxRetries,
		baseDelay:  s.baseDelay,
		logger:     s.logger,
		sleep:      retry.Sleep,
		now:        time.Now,
	}
	if s.registerer != nil {
		r.metrics = telemetry.NewClientMetrics(s.registerer)
	}

	c := &Client{req: r}
	c.Policies = &PoliciesService{client: c}
	c.Routing = &RoutingService{client: c}
	c.Credits = &CreditsService{client: c}
	c.Logs = &LogsService{client: c}
	c.Webhooks = &WebhooksService{client: c}
	c.UpstreamKeys = &UpstreamKeysService{client: c}
	return c, nil
}

// BaseURL returns the configured base URL without a trailing slash.
func (c *Client) BaseURL() string { return c.req.baseURL }

// ProxyURL returns the proxy endpoint for provider on this client's deployment.
func (c *Client) ProxyURL(provider Provider) string {
	return ProxyURL(c.req.baseURL, provider)
}

// Do sends a request to path (relative to the base URL) with the client's
// retry and error handling, decoding a successful response into out. It
// returns the request id associated with the call.
func (c *Client) Do(ctx context.Context, method, path string, body, out any, opts *RequestOptions) (string, error) {
	return c.req.do(ctx, method, path, body, opts, out)
}
