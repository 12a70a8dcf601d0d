package lockllm

import (
	"strings"
	"time"
)

// Sensitivity controls how aggressively the remote scanner flags input.
type Sensitivity string

const (
	SensitivityLow    Sensitivity = "low"
	SensitivityMedium Sensitivity = "medium"
	SensitivityHigh   Sensitivity = "high"
)

// ScanMode selects which detectors run on a scan or proxied request.
type ScanMode string

const (
	ScanModeNormal     ScanMode = "normal"
	ScanModePolicyOnly ScanMode = "policy_only"
	ScanModeCombined   ScanMode = "combined"
)

// Action is what the remote service does when a detector fires.
type Action string

const (
	ActionBlock            Action = "block"
	ActionAllowWithWarning Action = "allow_with_warning"
	ActionStrip            Action = "strip"
)

// RouteAction selects intelligent routing behaviour on proxied requests.
type RouteAction string

const (
	RouteDisabled RouteAction = "disabled"
	RouteAuto     RouteAction = "auto"
	RouteCustom   RouteAction = "custom"
)

// Compression selects a prompt compression method.
type Compression string

const (
	CompressionTOON     Compression = "toon"
	CompressionCompact  Compression = "compact"
	CompressionCombined Compression = "combined"
)

// DetectorAction configures an opt-in detector (abuse, PII). The zero value
// leaves the detector unconfigured, DetectorOff disables it explicitly and
// Detect enables it with an action. Only the enabled state is sent on the wire.
type DetectorAction struct {
	action Action
	set    bool
}

// DetectorOff explicitly disables a detector.
var DetectorOff = DetectorAction{set: true}

// Detect enables a detector with the given action.
func Detect(action Action) DetectorAction {
	return DetectorAction{action: action, set: true}
}

// ParseDetectorAction maps a textual setting onto a DetectorAction. An empty
// string is unset; "off", "disabled", "none" and "null" disable the detector.
func ParseDetectorAction(s string) DetectorAction {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "":
		return DetectorAction{}
	case "off", "disabled", "none", "null":
		return DetectorOff
	}
	return Detect(Action(s))
}

// IsSet reports whether the detector was configured at all.
func (d DetectorAction) IsSet() bool { return d.set }

// Action returns the configured action and whether the detector is enabled.
func (d DetectorAction) Action() (Action, bool) {
	if !d.set || d.action == "" {
		return "", false
	}
	return d.action, true
}

func (d DetectorAction) String() string {
	switch {
	case !d.set:
		return "unset"
	case d.action == "":
		return "off"
	}
	return string(d.action)
}

// Bool returns a pointer to b, for optional fields.
func Bool(b bool) *bool { return &b }

// Int returns a pointer to i, for optional fields.
func Int(i int) *int { return &i }

// Float returns a pointer to f, for optional fields.
func Float(f float64) *float64 { return &f }

// RequestOptions are per-call overrides. Cancellation comes from the call's context.
type RequestOptions struct {
	Headers map[string]string
	Timeout time.Duration
}

// ScanRequest is the input of a scan call. Only Input travels in the body.
type ScanRequest struct {
	Input       string
	Sensitivity Sensitivity
	Mode        ScanMode
	Chunk       *bool
}

// ScanOptions select per-category actions for a scan call.
type ScanOptions struct {
	ScanAction        Action
	PolicyAction      Action
	AbuseAction       DetectorAction
	PIIAction         DetectorAction
	CompressionAction Compression
	CompressionRate   *float64
}

// ProxyOptions control proxied provider requests.
type ProxyOptions struct {
	ScanMode          ScanMode
	Sensitivity       Sensitivity
	ScanAction        Action
	PolicyAction      Action
	AbuseAction       DetectorAction
	PIIAction         DetectorAction
	RouteAction       RouteAction
	CacheResponse     *bool
	CacheTTL          *int
	CompressionAction Compression
	CompressionRate   *float64
}

// ScanResponse is the decoded body of POST /v1/scan.
type ScanResponse struct {
	RequestID         string             `json:"request_id,omitempty"`
	Safe              bool               `json:"safe"`
	Label             int                `json:"label"`
	Sensitivity       Sensitivity        `json:"sensitivity,omitempty"`
	Confidence        *float64           `json:"confidence,omitempty"`
	Injection         *float64           `json:"injection,omitempty"`
	PolicyConfidence  *float64           `json:"policy_confidence,omitempty"`
	PolicyWarnings    []ViolatedPolicy   `json:"policy_warnings,omitempty"`
	ScanWarning       *ScanWarning       `json:"scan_warning,omitempty"`
	AbuseWarnings     *AbuseWarning      `json:"abuse_warnings,omitempty"`
	PIIResult         *PIIResult         `json:"pii_result,omitempty"`
	CompressionResult *CompressionResult `json:"compression_result,omitempty"`
	Routing           *RoutingResult     `json:"routing,omitempty"`
	Usage             Usage              `json:"usage"`
	Debug             *DebugInfo         `json:"debug,omitempty"`
}

type ScanWarning struct {
	Message        string  `json:"message"`
	InjectionScore float64 `json:"injection_score"`
	Confidence     float64 `json:"confidence"`
	Label          int     `json:"label"`
}

type AbuseWarning struct {
	Detected       bool            `json:"detected"`
	Confidence     float64         `json:"confidence"`
	AbuseTypes     []string        `json:"abuse_types"`
	Indicators     AbuseIndicators `json:"indicators"`
	Recommendation string          `json:"recommendation,omitempty"`
}

type AbuseIndicators struct {
	BotScore        float64 `json:"bot_score"`
	RepetitionScore float64 `json:"repetition_score"`
	ResourceScore   float64 `json:"resource_score"`
	PatternScore    float64 `json:"pattern_score"`
}

type PIIResult struct {
	Detected      bool     `json:"detected"`
	EntityTypes   []string `json:"entity_types"`
	EntityCount   int      `json:"entity_count"`
	RedactedInput string   `json:"redacted_input,omitempty"`
}

type CompressionResult struct {
	Method           Compression `json:"method"`
	CompressedInput  string      `json:"compressed_input"`
	OriginalLength   int         `json:"original_length"`
	CompressedLength int         `json:"compressed_length"`
	CompressionRatio float64     `json:"compression_ratio"`
}

type RoutingResult struct {
	Enabled       bool    `json:"enabled"`
	TaskType      string  `json:"task_type,omitempty"`
	Complexity    float64 `json:"complexity,omitempty"`
	SelectedModel string  `json:"selected_model,omitempty"`
	RoutingReason string  `json:"routing_reason,omitempty"`
}

type Usage struct {
	Requests   int `json:"requests"`
	InputChars int `json:"input_chars"`
}

type DebugInfo struct {
	DurationMs  float64 `json:"duration_ms"`
	InferenceMs float64 `json:"inference_ms"`
	Mode        string  `json:"mode"`
}

// ScanResult is the scan payload attached to a prompt injection error.
type ScanResult struct {
	Safe        bool        `json:"safe"`
	Label       int         `json:"label"`
	Confidence  float64     `json:"confidence"`
	Injection   float64     `json:"injection"`
	Sensitivity Sensitivity `json:"sensitivity,omitempty"`
}

type ViolatedCategory struct {
	Name string `json:"name"`
}

// ViolatedPolicy is one entry of a policy violation error.
type ViolatedPolicy struct {
	PolicyName         string             `json:"policy_name"`
	ViolatedCategories []ViolatedCategory `json:"violated_categories"`
	ViolationDetails   string             `json:"violation_details,omitempty"`
}

// AbuseDetails is the payload of an abuse error.
type AbuseDetails struct {
	Confidence     float64         `json:"confidence"`
	AbuseTypes     []string        `json:"abuse_types"`
	Indicators     AbuseIndicators `json:"indicators"`
	Recommendation string          `json:"recommendation,omitempty"`
}

// PIIDetails is the payload of a PII error.
type PIIDetails struct {
	EntityTypes []string `json:"entity_types"`
	EntityCount int      `json:"entity_count"`
}
