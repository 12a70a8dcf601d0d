// Package gemini builds Google Generative AI clients that talk to Gemini
// through the LockLLM proxy.
package gemini

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/lockllm/lockllm-go"
)

// Option configures NewClient.
type Option func(*settings)

type settings struct {
	baseURL   string
	transport http.RoundTripper
	extra     []option.ClientOption
}

// WithBaseURL points the client at a different LockLLM deployment.
func WithBaseURL(u string) Option {
	return func(s *settings) { s.baseURL = u }
}

// WithTransport sets the transport underneath the LockLLM header injection.
func WithTransport(rt http.RoundTripper) Option {
	return func(s *settings) { s.transport = rt }
}

// WithClientOptions appends raw Google API client options.
func WithClientOptions(opts ...option.ClientOption) Option {
	return func(s *settings) { s.extra = append(s.extra, opts...) }
}

// NewClient returns a genai client whose requests go to the LockLLM Gemini
// proxy, authenticated with the LockLLM apiKey and carrying the headers for opts.
func NewClient(ctx context.Context, apiKey string, opts *lockllm.ProxyOptions, options ...Option) (*genai.Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, &lockllm.Error{
			Kind:    lockllm.KindConfiguration,
			Message: "API key is required",
			Type:    "configuration_error",
			Code:    "missing_api_key",
			Status:  http.StatusBadRequest,
		}
	}

	s := settings{baseURL: lockllm.DefaultBaseURL}
	for _, o := range options {
		o(&s)
	}

	clientOpts := append([]option.ClientOption{
		option.WithEndpoint(Endpoint(s.baseURL)),
		// genai refuses to start without an auth option; the transport
		// below is what actually authenticates.
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(&http.Client{
			Transport: &lockllm.ProxyTransport{
				APIKey:   apiKey,
				Provider: lockllm.ProviderGemini,
				Options:  opts,
				Base:     s.transport,
			},
		}),
	}, s.extra...)

	client, err := genai.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return client, nil
}

// Endpoint returns the Gemini proxy endpoint under baseURL.
func Endpoint(baseURL string) string {
	return lockllm.ProxyURL(baseURL, lockllm.ProviderGemini)
}
