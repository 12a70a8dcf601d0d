package lockllm

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ErrorKind tags the variant of an *Error.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindConfiguration
	KindAuthentication
	KindRateLimit
	KindUpstream
	KindPromptInjection
	KindPolicyViolation
	KindAbuseDetected
	KindPIIDetected
	KindInsufficientCredits
	KindNetwork
)

var kindNames = map[ErrorKind]string{
	KindUnknown:             "unknown",
	KindConfiguration:       "configuration",
	KindAuthentication:      "authentication",
	KindRateLimit:           "rate_limit",
	KindUpstream:            "upstream",
	KindPromptInjection:     "prompt_injection",
	KindPolicyViolation:     "policy_violation",
	KindAbuseDetected:       "abuse_detected",
	KindPIIDetected:         "pii_detected",
	KindInsufficientCredits: "insufficient_credits",
	KindNetwork:             "network",
}

func (k ErrorKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Sentinels for errors.Is. Every *Error matches the sentinel of its kind.
var (
	ErrConfiguration       = errors.New("lockllm: configuration error")
	ErrAuthentication      = errors.New("lockllm: authentication error")
	ErrRateLimit           = errors.New("lockllm: rate limited")
	ErrUpstream            = errors.New("lockllm: upstream provider error")
	ErrPromptInjection     = errors.New("lockllm: prompt injection detected")
	ErrPolicyViolation     = errors.New("lockllm: policy violation")
	ErrAbuseDetected       = errors.New("lockllm: abuse detected")
	ErrPIIDetected         = errors.New("lockllm: pii detected")
	ErrInsufficientCredits = errors.New("lockllm: insufficient credits")
	ErrNetwork             = errors.New("lockllm: network error")
)

var kindSentinels = map[ErrorKind]error{
	KindConfiguration:       ErrConfiguration,
	KindAuthentication:      ErrAuthentication,
	KindRateLimit:           ErrRateLimit,
	KindUpstream:            ErrUpstream,
	KindPromptInjection:     ErrPromptInjection,
	KindPolicyViolation:     ErrPolicyViolation,
	KindAbuseDetected:       ErrAbuseDetected,
	KindPIIDetected:         ErrPIIDetected,
	KindInsufficientCredits: ErrInsufficientCredits,
	KindNetwork:             ErrNetwork,
}

// Error is returned by every client operation. Kind selects which of the
// payload fields are populated.
type Error struct {
	Kind      ErrorKind
	Message   string
	Type      string
	Code      string
	Status    int
	RequestID string

	// KindPromptInjection
	ScanResult *ScanResult
	// KindPolicyViolation
	ViolatedPolicies []ViolatedPolicy
	// KindAbuseDetected
	AbuseDetails *AbuseDetails
	// KindPIIDetected
	PIIDetails *PIIDetails
	// KindInsufficientCredits
	CurrentBalance float64
	EstimatedCost  float64
	// KindRateLimit; zero when the server sent no Retry-After.
	RetryAfter time.Duration

	// KindNetwork
	Cause error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("lockllm: ")
	b.WriteString(e.Message)
	if e.Code != "" {
		b.WriteString(" (")
		b.WriteString(e.Code)
		b.WriteString(")")
	}
	if e.RequestID != "" {
		b.WriteString(" request_id=")
		b.WriteString(e.RequestID)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Cause }

func (e *Error) Is(target error) bool {
	s, ok := kindSentinels[e.Kind]
	return ok && s == target
}

// ErrorResponse is the error envelope returned by the LockLLM service.
type ErrorResponse struct {
	Error *ErrorBody `json:"error"`
}

// ErrorBody is the content of an error envelope.
type ErrorBody struct {
	Message          string           `json:"message,omitempty"`
	Type             string           `json:"type,omitempty"`
	Code             string           `json:"code,omitempty"`
	RequestID        string           `json:"request_id,omitempty"`
	ScanResult       *ScanResult      `json:"scan_result,omitempty"`
	ViolatedPolicies []ViolatedPolicy `json:"violated_policies,omitempty"`
	AbuseDetails     *AbuseDetails    `json:"abuse_details,omitempty"`
	PIIDetails       *PIIDetails      `json:"pii_details,omitempty"`
	CurrentBalance   *float64         `json:"current_balance,omitempty"`
	EstimatedCost    *float64         `json:"estimated_cost,omitempty"`
}

var creditCodes = map[string]bool{
	"insufficient_credits":              true,
	"no_balance":                        true,
	"balance_check_failed":              true,
	"credits_unavailable":               true,
	"invalid_provider_for_credits_mode": true,
	"insufficient_routing_credits":      true,
}

// ParseError maps an error envelope onto exactly one error kind. The first
// matching rule wins. requestID is used when the envelope carries none.
func ParseError(resp ErrorResponse, requestID string) *Error {
	body := resp.Error
	if body == nil {
		return &Error{
			Kind:      KindUnknown,
			Message:   "Unknown error occurred",
			Type:      "unknown_error",
			RequestID: requestID,
		}
	}

	e := &Error{
		Message:   body.Message,
		Type:      body.Type,
		Code:      body.Code,
		RequestID: body.RequestID,
	}
	if e.RequestID == "" {
		e.RequestID = requestID
	}

	switch {
	case body.Code == "prompt_injection_detected" && body.ScanResult != nil:
		e.setKind(KindPromptInjection, http.StatusBadRequest, "lockllm_security_error")
		e.ScanResult = body.ScanResult
	case body.Code == "policy_violation" && body.ViolatedPolicies != nil:
		e.setKind(KindPolicyViolation, http.StatusForbidden, "lockllm_policy_error")
		e.ViolatedPolicies = body.ViolatedPolicies
	case body.Code == "abuse_detected" && body.AbuseDetails != nil:
		e.setKind(KindAbuseDetected, http.StatusBadRequest, "lockllm_abuse_error")
		e.AbuseDetails = body.AbuseDetails
	case body.Code == "pii_detected" && body.PIIDetails != nil:
		e.setKind(KindPIIDetected, http.StatusForbidden, "lockllm_pii_error")
		e.PIIDetails = body.PIIDetails
	case creditCodes[body.Code]:
		e.setKind(KindInsufficientCredits, http.StatusPaymentRequired, "lockllm_balance_error")
		if body.CurrentBalance != nil {
			e.CurrentBalance = *body.CurrentBalance
		}
		if body.EstimatedCost != nil {
			e.EstimatedCost = *body.EstimatedCost
		}
	case body.Type == "authentication_error" || body.Code == "unauthorized":
		e.setKind(KindAuthentication, http.StatusUnauthorized, "authentication_error")
	case body.Type == "rate_limit_error" || body.Code == "rate_limited":
		e.setKind(KindRateLimit, http.StatusTooManyRequests, "rate_limit_error")
	case body.Type == "upstream_error" || body.Code == "provider_error":
		e.setKind(KindUpstream, http.StatusBadGateway, "upstream_error")
	case body.Type == "configuration_error" || body.Type == "lockllm_config_error" ||
		body.Code == "no_upstream_key" || body.Code == "no_byok_key":
		e.setKind(KindConfiguration, http.StatusBadRequest, "configuration_error")
	default:
		e.setKind(KindUnknown, 0, "unknown_error")
	}

	if e.Message == "" {
		e.Message = "An error occurred"
	}
	return e
}

func (e *Error) setKind(kind ErrorKind, status int, defaultType string) {
	e.Kind = kind
	e.Status = status
	if e.Type == "" {
		e.Type = defaultType
	}
}

func configError(code, message string) *Error {
	return &Error{
		Kind:    KindConfiguration,
		Message: message,
		Type:    "configuration_error",
		Code:    code,
		Status:  http.StatusBadRequest,
	}
}

func networkError(requestID string, cause error) *Error {
	return &Error{
		Kind:      KindNetwork,
		Message:   "Network request failed",
		Type:      "connection_error",
		Code:      "network_error",
		RequestID: requestID,
		Cause:     cause,
	}
}
