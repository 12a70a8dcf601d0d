package lockllm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lockllm/lockllm-go/internal/headers"
	"github.com/lockllm/lockllm-go/internal/retry"
	"github.com/lockllm/lockllm-go/internal/telemetry"
)

type requester struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	maxRetries int
	baseDelay  time.Duration
	logger     *slog.Logger
	metrics    *telemetry.ClientMetrics

	sleep func(context.Context, time.Duration) error
	now   func() time.Time
}

type response struct {
	status int
	header http.Header
	body   []byte
}

func newRequestID(now time.Time) string {
	id := uuid.New()
	return fmt.Sprintf("req_%d_%x", now.UnixMilli(), id[:8])
}

// do runs one logical API call: at most maxRetries+1 attempts, retrying only
// 429 responses and transport failures.
func (r *requester) do(ctx context.Context, method, path string, body any, opts *RequestOptions, out any) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			e := configError("invalid_request_body", "encode request body: "+err.Error())
			e.Cause = err
			return "", e
		}
		payload = b
	}

	requestID := newRequestID(r.now())
	url := r.baseURL + path

	var lastErr error
	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		res, err := r.attempt(ctx, method, url, payload, requestID, opts)
		if err != nil {
			lastErr = err
			if attempt == r.maxRetries {
				break
			}
			delay := retry.Backoff(attempt, r.baseDelay)
			if err := r.wait(ctx, requestID, attempt, "network", delay, err); err != nil {
				return requestID, r.fail(networkError(requestID, err))
			}
			continue
		}

		if id := res.header.Get(headers.RequestID); id != "" {
			requestID = id
		}

		switch {
		case res.status >= 200 && res.status < 300:
			return requestID, r.decode(res, requestID, out)

		case res.status == http.StatusTooManyRequests:
			retryAfter, hasRetryAfter := retry.ParseRetryAfter(res.header.Get(headers.RetryAfter), r.now())
			if attempt < r.maxRetries {
				delay := retryAfter
				if !hasRetryAfter {
					delay = retry.Backoff(attempt, r.baseDelay)
				}
				if err := r.wait(ctx, requestID, attempt, "rate_limit", delay, nil); err != nil {
					return requestID, r.fail(networkError(requestID, err))
				}
				continue
			}
			r.logger.Warn("lockllm rate limit retries exhausted",
				"request_id", requestID,
				"attempts", attempt+1,
			)
			return requestID, r.fail(rateLimitError(res, requestID, retryAfter))

		default:
			var env ErrorResponse
			_ = json.Unmarshal(res.body, &env)
			e := ParseError(env, requestID)
			if e.Status == 0 {
				e.Status = res.status
			}
			return requestID, r.fail(e)
		}
	}

	r.logger.Warn("lockllm request failed after retries",
		"request_id", requestID,
		"attempts", r.maxRetries+1,
		"error", lastErr,
	)
	return requestID, r.fail(networkError(requestID, lastErr))
}

// attempt issues a single HTTP exchange. The internal timeout applies only
// when ctx has no deadline of its own.
func (r *requester) attempt(ctx context.Context, method, url string, payload []byte, requestID string, opts *RequestOptions) (*response, error) {
	if _, ok := ctx.Deadline(); !ok {
		timeout := r.timeout
		if opts != nil && opts.Timeout > 0 {
			timeout = opts.Timeout
		}
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set(headers.ContentType, "application/json")
	req.Header.Set(headers.Authorization, "Bearer "+r.apiKey)
	req.Header.Set(headers.RequestID, requestID)
	if opts != nil {
		for k, v := range opts.Headers {
			req.Header.Set(k, v)
		}
	}

	start := time.Now()
	resp, err := r.httpClient.Do(req)
	if err != nil {
		r.recordAttempt(method, 0, start)
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	r.recordAttempt(method, resp.StatusCode, start)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return &response{status: resp.StatusCode, header: resp.Header, body: data}, nil
}

func (r *requester) wait(ctx context.Context, requestID string, attempt int, reason string, delay time.Duration, cause error) error {
	args := []any{
		"request_id", requestID,
		"attempt", attempt + 1,
		"reason", reason,
		"delay_ms", delay.Milliseconds(),
	}
	if cause != nil {
		args = append(args, "error", cause)
	}
	r.logger.Debug("retrying lockllm request", args...)
	if r.metrics != nil {
		r.metrics.RecordRetry(reason)
	}
	return r.sleep(ctx, delay)
}

func (r *requester) decode(res *response, requestID string, out any) error {
	if out == nil || len(bytes.TrimSpace(res.body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(res.body, out); err != nil {
		return r.fail(&Error{
			Kind:      KindUnknown,
			Message:   "decode response body: " + err.Error(),
			Type:      "invalid_response",
			Code:      "invalid_json",
			Status:    res.status,
			RequestID: requestID,
			Cause:     err,
		})
	}
	return nil
}

func (r *requester) fail(e *Error) *Error {
	if r.metrics != nil {
		r.metrics.RecordError(e.Kind.String())
	}
	return e
}

func (r *requester) recordAttempt(method string, status int, start time.Time) {
	if r.metrics != nil {
		r.metrics.RecordAttempt(method, status, float64(time.Since(start).Milliseconds()))
	}
}

func rateLimitError(res *response, requestID string, retryAfter time.Duration) *Error {
	e := &Error{
		Kind:       KindRateLimit,
		Message:    "Rate limit exceeded",
		Type:       "rate_limit_error",
		Status:     http.StatusTooManyRequests,
		RequestID:  requestID,
		RetryAfter: retryAfter,
	}
	var env ErrorResponse
	if err := json.Unmarshal(res.body, &env); err == nil && env.Error != nil {
		if msg := strings.TrimSpace(env.Error.Message); msg != "" {
			e.Message = msg
		}
		e.Code = env.Error.Code
		if env.Error.RequestID != "" {
			e.RequestID = env.Error.RequestID
		}
	}
	return e
}

// IsRetryable reports whether err is a rate limit or network error, the two
// kinds the client retries on its own.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrRateLimit) || errors.Is(err, ErrNetwork)
}
