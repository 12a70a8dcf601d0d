package lockllm

import (
	"strconv"

	"github.com/lockllm/lockllm-go/internal/headers"
)

// BuildLockLLMHeaders returns the x-lockllm-* request headers for opts. Only
// options that are explicitly set produce a header; nil yields an empty map.
func BuildLockLLMHeaders(opts *ProxyOptions) map[string]string {
	h := make(map[string]string)
	if opts == nil {
		return h
	}

	if opts.ScanMode != "" {
		h[headers.ScanMode] = string(opts.ScanMode)
	}
	if opts.Sensitivity != "" {
		h[headers.Sensitivity] = string(opts.Sensitivity)
	}
	setActionHeaders(h, actionHeaders{
		scan:            opts.ScanAction,
		policy:          opts.PolicyAction,
		abuse:           opts.AbuseAction,
		pii:             opts.PIIAction,
		compression:     opts.CompressionAction,
		compressionRate: opts.CompressionRate,
	})
	if opts.RouteAction != "" {
		h[headers.RouteAction] = string(opts.RouteAction)
	}
	if opts.CacheResponse != nil && !*opts.CacheResponse {
		h[headers.CacheResponse] = "false"
	}
	if opts.CacheTTL != nil {
		h[headers.CacheTTL] = strconv.Itoa(*opts.CacheTTL)
	}
	return h
}

type actionHeaders struct {
	scan            Action
	policy          Action
	abuse           DetectorAction
	pii             DetectorAction
	compression     Compression
	compressionRate *float64
}

// setActionHeaders writes the headers shared by scan calls and proxied requests.
func setActionHeaders(h map[string]string, a actionHeaders) {
	if a.scan != "" {
		h[headers.ScanAction] = string(a.scan)
	}
	if a.policy != "" {
		h[headers.PolicyAction] = string(a.policy)
	}
	if action, ok := a.abuse.Action(); ok {
		h[headers.AbuseAction] = string(action)
	}
	if action, ok := a.pii.Action(); ok {
		h[headers.PIIAction] = string(action)
	}
	if a.compression != "" {
		h[headers.Compression] = string(a.compression)
	}
	if a.compressionRate != nil {
		h[headers.CompressionRate] = strconv.FormatFloat(*a.compressionRate, 'f', -1, 64)
	}
}
