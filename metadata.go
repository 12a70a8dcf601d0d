package lockllm

import (
	"encoding/base64"
	"encoding/json"
	"iter"
	"maps"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/lockllm/lockllm-go/internal/headers"
)

// HeaderSource is anything that can look up a response header by name.
// http.Header and HeaderMap both qualify.
type HeaderSource interface {
	Get(key string) string
}

// HeaderMap adapts a plain string map with arbitrary key casing.
type HeaderMap map[string]string

// Get looks up key case-insensitively. An exact match wins, then the
// lower-case spelling, then the first other spelling in sorted order.
func (m HeaderMap) Get(key string) string {
	if v, ok := m[key]; ok {
		return v
	}
	lower := strings.ToLower(key)
	if v, ok := m[lower]; ok {
		return v
	}
	for _, k := range slices.Sorted(maps.Keys(m)) {
		if strings.EqualFold(k, key) {
			return m[k]
		}
	}
	return ""
}

// ProxyResponseMetadata is what LockLLM reports about a proxied request
// through response headers. Sub-records are nil when their flag header is absent.
type ProxyResponseMetadata struct {
	RequestID   string
	Scanned     bool
	Safe        bool
	ScanMode    ScanMode
	CreditsMode string
	Provider    string
	Model       string
	Sensitivity string
	Label       *int
	Blocked     *bool

	ScanWarning    *ScanWarningMetadata
	PolicyWarnings *PolicyWarningsMetadata
	Abuse          *AbuseMetadata
	PII            *PIIMetadata
	Routing        *RoutingMetadata
	Compression    *CompressionMetadata

	CreditsReserved    *float64
	RoutingFeeReserved *float64
	CreditsDeducted    *float64
	BalanceAfter       *float64

	CacheStatus string
	CacheAge    *int
	TokensSaved *int
	CostSaved   *float64
}

type ScanWarningMetadata struct {
	InjectionScore float64
	Confidence     float64
	Detail         string
}

type PolicyWarningsMetadata struct {
	Count      int
	Confidence float64
	Detail     string
}

type AbuseMetadata struct {
	Confidence float64
	Types      string
	Detail     string
}

type PIIMetadata struct {
	Detected    bool
	EntityTypes string
	EntityCount int
	Action      string
}

type RoutingMetadata struct {
	Enabled               bool
	TaskType              string
	Complexity            float64
	SelectedModel         string
	OriginalModel         string
	SelectedProvider      string
	OriginalProvider      string
	RoutingReason         string
	EstimatedSavings      float64
	EstimatedOriginalCost float64
	EstimatedRoutedCost   float64
	EstimatedInputTokens  int
	EstimatedOutputTokens int
	RoutingFeeReason      string
}

type CompressionMetadata struct {
	Method  string
	Applied bool
	Ratio   float64
}

// lowerHeaders is a lower-cased snapshot of a header source.
type lowerHeaders map[string]string

func normalize(src HeaderSource) lowerHeaders {
	out := make(lowerHeaders)
	switch h := src.(type) {
	case nil:
	case http.Header:
		for _, k := range foldOrder(maps.Keys(h)) {
			if v := h[k]; len(v) > 0 {
				out[strings.ToLower(k)] = v[0]
			}
		}
	case HeaderMap:
		for _, k := range foldOrder(maps.Keys(h)) {
			out[strings.ToLower(k)] = h[k]
		}
	default:
		for _, name := range knownResponseHeaders {
			if v := src.Get(name); v != "" {
				out[name] = v
			}
		}
	}
	return out
}

// foldOrder sorts keys so that, once folded to lower case, the lower-case
// spelling of a name is written last and wins over any other spelling.
func foldOrder(keys iter.Seq[string]) []string {
	return slices.SortedFunc(keys, func(a, b string) int {
		if c := strings.Compare(strings.ToLower(a), strings.ToLower(b)); c != 0 {
			return c
		}
		aLower, bLower := a == strings.ToLower(a), b == strings.ToLower(b)
		switch {
		case aLower && !bLower:
			return 1
		case bLower && !aLower:
			return -1
		}
		return strings.Compare(b, a)
	})
}

func (h lowerHeaders) has(name string) bool {
	_, ok := h[name]
	return ok
}

func (h lowerHeaders) str(name string) string { return h[name] }

func (h lowerHeaders) isTrue(name string) bool { return h[name] == "true" }

func (h lowerHeaders) number(name string) float64 {
	f, _ := strconv.ParseFloat(strings.TrimSpace(h[name]), 64)
	return f
}

func (h lowerHeaders) integer(name string) int {
	i, err := strconv.Atoi(strings.TrimSpace(h[name]))
	if err != nil {
		return int(h.number(name))
	}
	return i
}

func (h lowerHeaders) optFloat(name string) *float64 {
	if !h.has(name) {
		return nil
	}
	f := h.number(name)
	return &f
}

func (h lowerHeaders) optInt(name string) *int {
	if !h.has(name) {
		return nil
	}
	i := h.integer(name)
	return &i
}

// ParseProxyMetadata reads LockLLM response headers from src. Header names
// are matched case-insensitively whatever the source type.
func ParseProxyMetadata(src HeaderSource) ProxyResponseMetadata {
	h := normalize(src)

	md := ProxyResponseMetadata{
		RequestID:   h.str(headers.RespRequestID),
		Scanned:     h.isTrue(headers.RespScanned),
		Safe:        h.isTrue(headers.RespSafe),
		ScanMode:    ScanModeCombined,
		CreditsMode: "byok",
		Provider:    h.str(headers.RespProvider),
		Model:       h.str(headers.RespModel),
		Sensitivity: h.str(headers.RespSensitivity),
		Label:       h.optInt(headers.RespLabel),
	}
	if v := h.str(headers.RespScanMode); v != "" {
		md.ScanMode = ScanMode(v)
	}
	if v := h.str(headers.RespCreditsMode); v != "" {
		md.CreditsMode = v
	}
	if h.isTrue(headers.RespBlocked) {
		md.Blocked = Bool(true)
	}

	if h.isTrue(headers.RespScanWarning) {
		md.ScanWarning = &ScanWarningMetadata{
			InjectionScore: h.number(headers.RespInjectionScore),
			Confidence:     h.number(headers.RespConfidence),
			Detail:         h.str(headers.RespScanDetail),
		}
	}
	if h.isTrue(headers.RespPolicyWarnings) {
		md.PolicyWarnings = &PolicyWarningsMetadata{
			Count:      h.integer(headers.RespWarningCount),
			Confidence: h.number(headers.RespPolicyConfidence),
			Detail:     h.str(headers.RespWarningDetail),
		}
	}
	if h.isTrue(headers.RespAbuseDetected) {
		md.Abuse = &AbuseMetadata{
			Confidence: h.number(headers.RespAbuseConfidence),
			Types:      h.str(headers.RespAbuseTypes),
			Detail:     h.str(headers.RespAbuseDetail),
		}
	}
	if h.has(headers.RespPIIDetected) {
		md.PII = &PIIMetadata{
			Detected:    h.isTrue(headers.RespPIIDetected),
			EntityTypes: h.str(headers.RespPIITypes),
			EntityCount: h.integer(headers.RespPIICount),
			Action:      h.str(headers.RespPIIAction),
		}
	}
	if h.has(headers.RespRouteEnabled) {
		md.Routing = &RoutingMetadata{
			Enabled:               h.isTrue(headers.RespRouteEnabled),
			TaskType:              h.str(headers.RespTaskType),
			Complexity:            h.number(headers.RespComplexity),
			SelectedModel:         h.str(headers.RespSelectedModel),
			OriginalModel:         h.str(headers.RespOriginalModel),
			SelectedProvider:      h.str(headers.RespSelectedProvider),
			OriginalProvider:      h.str(headers.RespOriginalProvider),
			RoutingReason:         h.str(headers.RespRoutingReason),
			EstimatedSavings:      h.number(headers.RespEstimatedSavings),
			EstimatedOriginalCost: h.number(headers.RespEstimatedOriginalCost),
			EstimatedRoutedCost:   h.number(headers.RespEstimatedRoutedCost),
			EstimatedInputTokens:  h.integer(headers.RespEstimatedInputTokens),
			EstimatedOutputTokens: h.integer(headers.RespEstimatedOutputTokens),
			RoutingFeeReason:      h.str(headers.RespRoutingFeeReason),
		}
	}

	md.CreditsReserved = h.optFloat(headers.RespCreditsReserved)
	md.RoutingFeeReserved = h.optFloat(headers.RespRoutingFeeReserved)
	md.CreditsDeducted = h.optFloat(headers.RespCreditsDeducted)
	md.BalanceAfter = h.optFloat(headers.RespBalanceAfter)

	md.CacheStatus = h.str(headers.RespCacheStatus)
	md.CacheAge = h.optInt(headers.RespCacheAge)
	md.TokensSaved = h.optInt(headers.RespTokensSaved)
	md.CostSaved = h.optFloat(headers.RespCostSaved)

	if h.has(headers.RespCompressionMethod) && h.has(headers.RespCompressionApplied) {
		md.Compression = &CompressionMetadata{
			Method:  h.str(headers.RespCompressionMethod),
			Applied: h.isTrue(headers.RespCompressionApplied),
			Ratio:   1.0,
		}
		if h.has(headers.RespCompressionRatio) {
			md.Compression.Ratio = h.number(headers.RespCompressionRatio)
		}
	}

	return md
}

// DecodeDetailField decodes a base64-encoded JSON detail header. It returns
// nil when the value is not valid base64 or not valid JSON.
func DecodeDetailField(encoded string) any {
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return nil
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		raw, err = base64.RawStdEncoding.DecodeString(encoded)
		if err != nil {
			return nil
		}
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	return v
}

var knownResponseHeaders = []string{
	headers.RespRequestID,
	headers.RespScanned,
	headers.RespSafe,
	headers.RespScanMode,
	headers.RespCreditsMode,
	headers.RespProvider,
	headers.RespModel,
	headers.RespSensitivity,
	headers.RespLabel,
	headers.RespBlocked,
	headers.RespScanWarning,
	headers.RespInjectionScore,
	headers.RespConfidence,
	headers.RespScanDetail,
	headers.RespPolicyWarnings,
	headers.RespWarningCount,
	headers.RespPolicyConfidence,
	headers.RespWarningDetail,
	headers.RespAbuseDetected,
	headers.RespAbuseConfidence,
	headers.RespAbuseTypes,
	headers.RespAbuseDetail,
	headers.RespPIIDetected,
	headers.RespPIITypes,
	headers.RespPIICount,
	headers.RespPIIAction,
	headers.RespRouteEnabled,
	headers.RespTaskType,
	headers.RespComplexity,
	headers.RespSelectedModel,
	headers.RespOriginalModel,
	headers.RespSelectedProvider,
	headers.RespOriginalProvider,
	headers.RespRoutingReason,
	headers.RespEstimatedSavings,
	headers.RespEstimatedOriginalCost,
	headers.RespEstimatedRoutedCost,
	headers.RespEstimatedInputTokens,
	headers.RespEstimatedOutputTokens,
	headers.RespRoutingFeeReason,
	headers.RespCreditsReserved,
	headers.RespRoutingFeeReserved,
	headers.RespCreditsDeducted,
	headers.RespBalanceAfter,
	headers.RespCacheStatus,
	headers.RespCacheAge,
	headers.RespTokensSaved,
	headers.RespCostSaved,
	headers.RespCompressionMethod,
	headers.RespCompressionApplied,
	headers.RespCompressionRatio,
}
