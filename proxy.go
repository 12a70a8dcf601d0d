package lockllm

import (
	"net/http"
	"strings"

	"github.com/lockllm/lockllm-go/internal/headers"
)

// Provider names an upstream LLM provider reachable through the LockLLM proxy.
type Provider string

const (
	ProviderOpenAI      Provider = "openai"
	ProviderAnthropic   Provider = "anthropic"
	ProviderGemini      Provider = "gemini"
	ProviderCohere      Provider = "cohere"
	ProviderOpenRouter  Provider = "openrouter"
	ProviderPerplexity  Provider = "perplexity"
	ProviderMistral     Provider = "mistral"
	ProviderGroq        Provider = "groq"
	ProviderDeepSeek    Provider = "deepseek"
	ProviderTogether    Provider = "together"
	ProviderXAI         Provider = "xai"
	ProviderFireworks   Provider = "fireworks"
	ProviderAnyscale    Provider = "anyscale"
	ProviderHuggingFace Provider = "huggingface"
	ProviderAzure       Provider = "azure"
	ProviderBedrock     Provider = "bedrock"
	ProviderVertexAI    Provider = "vertex-ai"
)

// Providers returns every supported provider in a stable order.
func Providers() []Provider {
	return []Provider{
		ProviderOpenAI, ProviderAnthropic, ProviderGemini, ProviderCohere,
		ProviderOpenRouter, ProviderPerplexity, ProviderMistral, ProviderGroq,
		ProviderDeepSeek, ProviderTogether, ProviderXAI, ProviderFireworks,
		ProviderAnyscale, ProviderHuggingFace, ProviderAzure, ProviderBedrock,
		ProviderVertexAI,
	}
}

// ParseProvider matches name against the supported providers, ignoring case.
func ParseProvider(name string) (Provider, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, p := range Providers() {
		if string(p) == name {
			return p, true
		}
	}
	return "", false
}

// ProxyURL returns the BYOK proxy endpoint for provider under baseURL.
func ProxyURL(baseURL string, provider Provider) string {
	return strings.TrimRight(baseURL, "/") + "/v1/proxy/" + string(provider)
}

// UniversalProxyURL returns the credit-billed, OpenAI-compatible endpoint.
func UniversalProxyURL(baseURL string) string {
	return strings.TrimRight(baseURL, "/") + "/v1/proxy/chat/completions"
}

// ProxyURLs returns the proxy endpoint of every provider under baseURL.
func ProxyURLs(baseURL string) map[Provider]string {
	out := make(map[Provider]string)
	for _, p := range Providers() {
		out[p] = ProxyURL(baseURL, p)
	}
	return out
}

// ProxyTransport is an http.RoundTripper that authenticates proxied
// requests with a LockLLM key and adds the x-lockllm-* headers for Options.
// The key goes in the header the provider's own SDK would use.
type ProxyTransport struct {
	APIKey   string
	Provider Provider
	Options  *ProxyOptions
	Base     http.RoundTripper
}

func (t *ProxyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())

	for k, v := range BuildLockLLMHeaders(t.Options) {
		r.Header.Set(k, v)
	}

	r.Header.Del(headers.Authorization)
	r.Header.Del(headers.AnthropicAPIKey)
	r.Header.Del(headers.GoogleAPIKey)
	switch t.Provider {
	case ProviderAnthropic:
		r.Header.Set(headers.AnthropicAPIKey, t.APIKey)
	case ProviderGemini:
		r.Header.Set(headers.GoogleAPIKey, t.APIKey)
		q := r.URL.Query()
		if q.Has("key") {
			q.Del("key")
			r.URL.RawQuery = q.Encode()
		}
	default:
		r.Header.Set(headers.Authorization, "Bearer "+t.APIKey)
	}

	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(r)
}

// NewProxyHTTPClient returns an HTTP client for a provider SDK pointed at
// ProxyURL. Streaming responses are not subject to a client timeout.
func NewProxyHTTPClient(apiKey string, provider Provider, opts *ProxyOptions) *http.Client {
	return &http.Client{
		Transport: &ProxyTransport{
			APIKey:   apiKey,
			Provider: provider,
			Options:  opts,
		},
	}
}
