package lockllm

import (
	"context"
	"errors"
	"io"
	"net/http"
	"regexp"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var requestIDPattern = regexp.MustCompile(`^req_\d+_[0-9a-f]{16}$`)

func TestDo_Headers(t *testing.T) {
	var got http.Header
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	var out map[string]any
	requestID, err := c.Do(context.Background(), http.MethodGet, "/api/v1/tiers", nil, &out, &RequestOptions{
		Headers: map[string]string{"X-Custom": "1", "Content-Type": "application/vnd.custom+json"},
	})
	require.NoError(t, err)

	assert.Equal(t, "Bearer test-key", got.Get("Authorization"))
	assert.Equal(t, "application/vnd.custom+json", got.Get("Content-Type"), "caller header wins")
	assert.Equal(t, "1", got.Get("X-Custom"))
	assert.Regexp(t, requestIDPattern, got.Get("X-Request-Id"))
	assert.Equal(t, got.Get("X-Request-Id"), requestID)
	assert.Equal(t, true, out["ok"])
}

func TestDo_ServerRequestIDWins(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Request-Id", "srv-123")
		writeJSON(w, http.StatusOK, map[string]any{})
	})

	requestID, err := c.Do(context.Background(), http.MethodGet, "/x", nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "srv-123", requestID)
}

func TestDo_RetryAfterSeconds(t *testing.T) {
	var calls atomic.Int32
	var ids []string
	c, rec := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		ids = append(ids, r.Header.Get("X-Request-Id"))
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "2")
			w.Header().Set("X-Request-Id", "srv-abc")
			writeJSON(w, http.StatusTooManyRequests, map[string]any{
				"error": map[string]any{"message": "slow down", "type": "rate_limit_error"},
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"safe": true})
	})

	var out map[string]any
	requestID, err := c.Do(context.Background(), http.MethodPost, "/v1/scan", map[string]string{"input": "x"}, &out, nil)
	require.NoError(t, err)

	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, []time.Duration{2 * time.Second}, rec.recorded())
	assert.Equal(t, true, out["safe"])
	require.Len(t, ids, 2)
	assert.Equal(t, "srv-abc", ids[1], "server id is reused on retry")
	assert.Equal(t, "srv-abc", requestID)
}

func TestDo_RateLimitExhausted(t *testing.T) {
	var calls atomic.Int32
	c, rec := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Retry-After", "2")
		writeJSON(w, http.StatusTooManyRequests, map[string]any{
			"error": map[string]any{"message": "Too many requests", "code": "rate_limited"},
		})
	}, WithMaxRetries(2))

	_, err := c.Do(context.Background(), http.MethodGet, "/x", nil, nil, nil)
	require.Error(t, err)

	var e *Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, KindRateLimit, e.Kind)
	assert.Equal(t, http.StatusTooManyRequests, e.Status)
	assert.Equal(t, 2*time.Second, e.RetryAfter)
	assert.Equal(t, "Too many requests", e.Message)
	assert.Equal(t, "rate_limited", e.Code)
	assert.True(t, errors.Is(err, ErrRateLimit))
	assert.True(t, IsRetryable(err))

	assert.Equal(t, int32(3), calls.Load())
	assert.Len(t, rec.recorded(), 2)
}

func TestDo_RateLimitDefaultMessage(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}, WithMaxRetries(0))

	_, err := c.Do(context.Background(), http.MethodGet, "/x", nil, nil, nil)
	var e *Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, "Rate limit exceeded", e.Message)
	assert.Equal(t, time.Duration(0), e.RetryAfter)
}

func TestDo_RateLimitBackoffWithoutRetryAfter(t *testing.T) {
	var calls atomic.Int32
	c, rec := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{})
	})

	_, err := c.Do(context.Background(), http.MethodGet, "/x", nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}, rec.recorded())
}

func TestDo_NonRateLimitErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	c, rec := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(w, http.StatusUnauthorized, map[string]any{
			"error": map[string]any{"message": "bad key", "type": "authentication_error", "request_id": "env-1"},
		})
	})

	_, err := c.Do(context.Background(), http.MethodGet, "/x", nil, nil, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAuthentication))
	assert.False(t, IsRetryable(err))

	var e *Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, "env-1", e.RequestID)
	assert.Equal(t, http.StatusUnauthorized, e.Status)
	assert.Equal(t, int32(1), calls.Load())
	assert.Empty(t, rec.recorded())
}

func TestDo_UndecodableErrorBody(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, "<html>oops</html>")
	})

	_, err := c.Do(context.Background(), http.MethodGet, "/x", nil, nil, nil)
	var e *Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, KindUnknown, e.Kind)
	assert.Equal(t, "Unknown error occurred", e.Message)
	assert.Equal(t, http.StatusInternalServerError, e.Status)
	assert.Regexp(t, requestIDPattern, e.RequestID)
}

func TestDo_NetworkRetriesThenFails(t *testing.T) {
	var calls atomic.Int32
	boom := errors.New("connection reset")
	c, err := New("k", WithMaxRetries(2), WithHTTPClient(&http.Client{
		Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
			calls.Add(1)
			return nil, boom
		}),
	}))
	require.NoError(t, err)
	rec := &sleepRecorder{}
	c.req.sleep = rec.sleep

	_, err = c.Do(context.Background(), http.MethodGet, "/x", nil, nil, nil)
	require.Error(t, err)

	var e *Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, KindNetwork, e.Kind)
	assert.True(t, errors.Is(err, ErrNetwork))
	assert.True(t, errors.Is(err, boom), "cause is unwrapped")
	assert.Regexp(t, requestIDPattern, e.RequestID)
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, rec.recorded())
}

func TestDo_NetworkRecovers(t *testing.T) {
	var calls atomic.Int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"n": 1})
	})
	inner := c.req.httpClient.Transport
	if inner == nil {
		inner = http.DefaultTransport
	}
	c.req.httpClient = &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		if calls.Add(1) == 1 {
			return nil, errors.New("dial tcp: refused")
		}
		return inner.RoundTrip(r)
	})}

	var out map[string]float64
	_, err := c.Do(context.Background(), http.MethodGet, "/x", nil, &out, nil)
	require.NoError(t, err)
	assert.Equal(t, float64(1), out["n"])
	assert.Equal(t, int32(2), calls.Load())
}

func TestDo_CancelledContextStopsRetrying(t *testing.T) {
	var calls atomic.Int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(w, http.StatusOK, map[string]any{})
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Do(ctx, http.MethodGet, "/x", nil, nil, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNetwork))
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, int32(0), calls.Load())
}

func TestDo_PerCallTimeout(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}, WithMaxRetries(0))

	start := time.Now()
	_, err := c.Do(context.Background(), http.MethodGet, "/x", nil, nil, &RequestOptions{Timeout: 50 * time.Millisecond})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNetwork))
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestDo_ContextDeadlineReplacesClientTimeout(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		writeJSON(w, http.StatusOK, map[string]any{})
	}, WithTimeout(10*time.Millisecond), WithMaxRetries(0))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := c.Do(ctx, http.MethodGet, "/x", nil, nil, nil)
	assert.NoError(t, err)
}

func TestDo_EmptySuccessBody(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	var out map[string]any
	_, err := c.Do(context.Background(), http.MethodDelete, "/x", nil, &out, nil)
	assert.NoError(t, err)
}

func TestDo_InvalidSuccessBody(t *testing.T) {
	var calls atomic.Int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		io.WriteString(w, "not json")
	})

	var out map[string]any
	_, err := c.Do(context.Background(), http.MethodGet, "/x", nil, &out, nil)
	var e *Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, "invalid_response", e.Type)
	assert.Equal(t, int32(1), calls.Load())
}

func TestDo_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	var calls atomic.Int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error": map[string]any{"code": "no_upstream_key"},
		})
	}, WithMetrics(reg))

	_, err := c.Do(context.Background(), http.MethodGet, "/x", nil, nil, nil)
	require.Error(t, err)

	m := c.req.metrics
	assert.Equal(t, float64(1), testutil.ToFloat64(m.RequestTotal.WithLabelValues("GET", "429")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.RequestTotal.WithLabelValues("GET", "400")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.RetryTotal.WithLabelValues("rate_limit")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.ErrorTotal.WithLabelValues("configuration")))
}
