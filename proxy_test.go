package lockllm

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProxyURLs(t *testing.T) {
	assert.Equal(t, "https://api.lockllm.com/v1/proxy/openai", ProxyURL(DefaultBaseURL, ProviderOpenAI))
	assert.Equal(t, "http://localhost:9000/v1/proxy/vertex-ai", ProxyURL("http://localhost:9000/", ProviderVertexAI))
	assert.Equal(t, "https://api.lockllm.com/v1/proxy/chat/completions", UniversalProxyURL(DefaultBaseURL))

	all := ProxyURLs(DefaultBaseURL)
	assert.Len(t, all, 17)
	for _, p := range Providers() {
		assert.Equal(t, ProxyURL(DefaultBaseURL, p), all[p])
	}
}

func TestParseProvider(t *testing.T) {
	p, ok := ParseProvider("Anthropic")
	assert.True(t, ok)
	assert.Equal(t, ProviderAnthropic, p)

	p, ok = ParseProvider("vertex-ai")
	assert.True(t, ok)
	assert.Equal(t, ProviderVertexAI, p)

	_, ok = ParseProvider("chat")
	assert.False(t, ok)
}

func TestProxyTransport_Auth(t *testing.T) {
	tests := []struct {
		provider Provider
		header   string
		value    string
	}{
		{ProviderOpenAI, "Authorization", "Bearer ll-key"},
		{ProviderGroq, "Authorization", "Bearer ll-key"},
		{ProviderAnthropic, "x-api-key", "ll-key"},
		{ProviderGemini, "x-goog-api-key", "ll-key"},
	}

	for _, tt := range tests {
		t.Run(string(tt.provider), func(t *testing.T) {
			var got *http.Request
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = r.Clone(r.Context())
				w.WriteHeader(http.StatusOK)
			}))
			defer srv.Close()

			client := NewProxyHTTPClient("ll-key", tt.provider, &ProxyOptions{
				ScanAction:    ActionBlock,
				CacheResponse: Bool(false),
			})

			req, err := http.NewRequest(http.MethodPost, srv.URL+"/v1/chat?key=provider-key", nil)
			require.NoError(t, err)
			req.Header.Set("Authorization", "Bearer provider-key")
			req.Header.Set("x-api-key", "provider-key")

			resp, err := client.Do(req)
			require.NoError(t, err)
			resp.Body.Close()

			require.NotNil(t, got)
			assert.Equal(t, tt.value, got.Header.Get(tt.header))
			assert.Equal(t, "block", got.Header.Get("x-lockllm-scan-action"))
			assert.Equal(t, "false", got.Header.Get("x-lockllm-cache-response"))
			for _, h := range []string{"Authorization", "x-api-key", "x-goog-api-key"} {
				if h != tt.header {
					assert.Empty(t, got.Header.Get(h), "stale %s header", h)
				}
			}
			if tt.provider == ProviderGemini {
				assert.Empty(t, got.URL.Query().Get("key"))
			}

			// The caller's request is left untouched.
			assert.Equal(t, "Bearer provider-key", req.Header.Get("Authorization"))
		})
	}
}
