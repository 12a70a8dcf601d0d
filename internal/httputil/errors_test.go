package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestWriteError(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, "req_123", http.StatusBadRequest, "invalid_request_error", "bad_request", "test message")

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}

	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected Content-Type application/json, got %s", ct)
	}

	if rid := w.Header().Get("X-Request-ID"); rid != "req_123" {
		t.Errorf("expected X-Request-ID req_123, got %s", rid)
	}

	var resp APIError
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}

	if resp.Error.Message != "test message" {
		t.Errorf("expected message 'test message', got %q", resp.Error.Message)
	}
	if resp.Error.Type != "invalid_request_error" {
		t.Errorf("expected type 'invalid_request_error', got %q", resp.Error.Type)
	}
	if resp.Error.RequestID != "req_123" {
		t.Errorf("expected request_id 'req_123', got %q", resp.Error.RequestID)
	}
}

func TestWriteError_NoRequestID(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, "", http.StatusInternalServerError, "server_error", "internal_error", "boom")

	if _, ok := w.Header()["X-Request-Id"]; ok {
		t.Error("expected no X-Request-ID header")
	}
	var raw map[string]map[string]any
	json.Unmarshal(w.Body.Bytes(), &raw)
	if _, ok := raw["error"]["request_id"]; ok {
		t.Error("expected request_id to be omitted")
	}
}

func TestWriteAuthError(t *testing.T) {
	w := httptest.NewRecorder()
	WriteAuthError(w, "req_456", "Invalid key")

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", w.Code)
	}

	var resp APIError
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Error.Type != "authentication_error" {
		t.Errorf("expected type 'authentication_error', got %q", resp.Error.Type)
	}
	if resp.Error.Code != "unauthorized" {
		t.Errorf("expected code 'unauthorized', got %q", resp.Error.Code)
	}
}

func TestWriteRateLimitError(t *testing.T) {
	tests := []struct {
		retryAfter time.Duration
		expected   string
	}{
		{2 * time.Second, "2"},
		{1500 * time.Millisecond, "2"},
		{100 * time.Millisecond, "1"},
		{0, ""},
	}

	for _, tt := range tests {
		w := httptest.NewRecorder()
		WriteRateLimitError(w, "req_1", "slow down", tt.retryAfter)

		if w.Code != http.StatusTooManyRequests {
			t.Errorf("expected status 429, got %d", w.Code)
		}
		if got := w.Header().Get("Retry-After"); got != tt.expected {
			t.Errorf("retryAfter %v: expected Retry-After %q, got %q", tt.retryAfter, tt.expected, got)
		}
	}
}

func TestUpstreamErrors(t *testing.T) {
	tests := []struct {
		name   string
		write  func(http.ResponseWriter, string, string)
		status int
		code   string
	}{
		{"unavailable", WriteServiceUnavailableError, http.StatusServiceUnavailable, "service_unavailable"},
		{"bad gateway", WriteBadGatewayError, http.StatusBadGateway, "bad_gateway"},
	}

	for _, tt := range tests {
		w := httptest.NewRecorder()
		tt.write(w, "req_9", "upstream down")

		if w.Code != tt.status {
			t.Errorf("%s: expected status %d, got %d", tt.name, tt.status, w.Code)
		}
		var resp APIError
		json.Unmarshal(w.Body.Bytes(), &resp)
		if resp.Error.Type != "upstream_error" {
			t.Errorf("%s: expected type 'upstream_error', got %q", tt.name, resp.Error.Type)
		}
		if resp.Error.Code != tt.code {
			t.Errorf("%s: expected code %q, got %q", tt.name, tt.code, resp.Error.Code)
		}
	}
}
