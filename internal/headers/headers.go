// Package headers holds the names of every HTTP header exchanged with the
// LockLLM service. Request-side names are what the client sends; response-side
// names are what the scanning gateway may emit. Lookups on the response side
// must be case-insensitive.
package headers

// Transport headers sent on every call.
const (
	Authorization = "Authorization"
	ContentType   = "Content-Type"
	RequestID     = "X-Request-Id"
	RetryAfter    = "Retry-After"
)

// Request headers that control scan and proxy behaviour.
const (
	ScanMode        = "x-lockllm-scan-mode"
	Sensitivity     = "x-lockllm-sensitivity"
	Chunk           = "x-lockllm-chunk"
	ScanAction      = "x-lockllm-scan-action"
	PolicyAction    = "x-lockllm-policy-action"
	AbuseAction     = "x-lockllm-abuse-action"
	PIIAction       = "x-lockllm-pii-action"
	RouteAction     = "x-lockllm-route-action"
	CacheResponse   = "x-lockllm-cache-response"
	CacheTTL        = "x-lockllm-cache-ttl"
	Compression     = "x-lockllm-compression"
	CompressionRate = "x-lockllm-compression-rate"
)

// Response headers: core scan result.
const (
	RespRequestID   = "x-request-id"
	RespScanned     = "x-lockllm-scanned"
	RespSafe        = "x-lockllm-safe"
	RespScanMode    = "x-scan-mode"
	RespCreditsMode = "x-lockllm-credits-mode"
	RespProvider    = "x-lockllm-provider"
	RespModel       = "x-lockllm-model"
	RespSensitivity = "x-lockllm-sensitivity"
	RespLabel       = "x-lockllm-label"
	RespBlocked     = "x-lockllm-blocked"
)

// Response headers: injection warning emitted in allow_with_warning mode.
// ScanDetail carries base64-encoded JSON.
const (
	RespScanWarning    = "x-lockllm-scan-warning"
	RespInjectionScore = "x-lockllm-injection-score"
	RespConfidence     = "x-lockllm-confidence"
	RespScanDetail     = "x-lockllm-scan-detail"
)

// Response headers: custom policy warnings. WarningDetail carries base64-encoded JSON.
const (
	RespPolicyWarnings   = "x-lockllm-policy-warnings"
	RespWarningCount     = "x-lockllm-warning-count"
	RespPolicyConfidence = "x-lockllm-policy-confidence"
	RespWarningDetail    = "x-lockllm-warning-detail"
)

// Response headers: abuse detection. AbuseDetail carries base64-encoded JSON.
const (
	RespAbuseDetected   = "x-lockllm-abuse-detected"
	RespAbuseConfidence = "x-lockllm-abuse-confidence"
	RespAbuseTypes      = "x-lockllm-abuse-types"
	RespAbuseDetail     = "x-lockllm-abuse-detail"
)

// Response headers: PII detection.
const (
	RespPIIDetected = "x-lockllm-pii-detected"
	RespPIITypes    = "x-lockllm-pii-types"
	RespPIICount    = "x-lockllm-pii-count"
	RespPIIAction   = "x-lockllm-pii-action"
)

// Response headers: intelligent routing.
const (
	RespRouteEnabled          = "x-lockllm-route-enabled"
	RespTaskType              = "x-lockllm-task-type"
	RespComplexity            = "x-lockllm-complexity"
	RespSelectedModel         = "x-lockllm-selected-model"
	RespOriginalModel         = "x-lockllm-original-model"
	RespSelectedProvider      = "x-lockllm-selected-provider"
	RespOriginalProvider      = "x-lockllm-original-provider"
	RespRoutingReason         = "x-lockllm-routing-reason"
	RespEstimatedSavings      = "x-lockllm-estimated-savings"
	RespEstimatedOriginalCost = "x-lockllm-estimated-original-cost"
	RespEstimatedRoutedCost   = "x-lockllm-estimated-routed-cost"
	RespEstimatedInputTokens  = "x-lockllm-estimated-input-tokens"
	RespEstimatedOutputTokens = "x-lockllm-estimated-output-tokens"
	RespRoutingFeeReason      = "x-lockllm-routing-fee-reason"
)

// Response headers: credit accounting.
const (
	RespCreditsReserved    = "x-lockllm-credits-reserved"
	RespRoutingFeeReserved = "x-lockllm-routing-fee-reserved"
	RespCreditsDeducted    = "x-lockllm-credits-deducted"
	RespBalanceAfter       = "x-lockllm-balance-after"
)

// Response headers: response cache.
const (
	RespCacheStatus = "x-lockllm-cache-status"
	RespCacheAge    = "x-lockllm-cache-age"
	RespTokensSaved = "x-lockllm-tokens-saved"
	RespCostSaved   = "x-lockllm-cost-saved"
)

// Response headers: prompt compression.
const (
	RespCompressionMethod  = "x-lockllm-compression-method"
	RespCompressionApplied = "x-lockllm-compression-applied"
	RespCompressionRatio   = "x-lockllm-compression-ratio"
)

// Provider-native credential headers the proxy accepts in place of Authorization.
const (
	AnthropicAPIKey = "x-api-key"
	GoogleAPIKey    = "x-goog-api-key"
)
