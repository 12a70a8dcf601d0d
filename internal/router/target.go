package router

import (
	"fmt"
	"net/url"

	lockllm "github.com/lockllm/lockllm-go"
)

// UniversalRoute names the credit-billed, OpenAI-compatible endpoint.
const UniversalRoute = "universal"

// Target is where the gateway forwards a request.
type Target struct {
	// Route keys the circuit breaker and metrics: a provider name or UniversalRoute.
	Route string
	// Provider selects how the LockLLM key is presented upstream.
	Provider lockllm.Provider
	// Upstream is the LockLLM proxy endpoint the request path is appended to.
	Upstream *url.URL
}

// Resolve maps a provider path segment to its LockLLM proxy endpoint under
// baseURL. An empty name resolves to the universal endpoint.
func Resolve(baseURL, name string) (Target, error) {
	if name == "" {
		u, err := url.Parse(lockllm.UniversalProxyURL(baseURL))
		if err != nil {
			return Target{}, fmt.Errorf("parse universal proxy url: %w", err)
		}
		return Target{Route: UniversalRoute, Provider: lockllm.ProviderOpenAI, Upstream: u}, nil
	}

	p, ok := lockllm.ParseProvider(name)
	if !ok {
		return Target{}, fmt.Errorf("unknown provider: %s", name)
	}
	u, err := url.Parse(lockllm.ProxyURL(baseURL, p))
	if err != nil {
		return Target{}, fmt.Errorf("parse proxy url for %s: %w", p, err)
	}
	return Target{Route: string(p), Provider: p, Upstream: u}, nil
}
