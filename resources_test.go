package lockllm

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResourceEndpoints(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name   string
		call   func(c *Client) error
		method string
		path   string
		query  string
		body   string
	}{
		{"policies list", func(c *Client) error { _, err := c.Policies.List(ctx, nil); return err }, "GET", "/api/v1/policies", "", ""},
		{"policies get", func(c *Client) error { _, err := c.Policies.Get(ctx, "pol_1", nil); return err }, "GET", "/api/v1/policies/pol_1", "", ""},
		{"policies create", func(c *Client) error {
			_, err := c.Policies.Create(ctx, CreatePolicyRequest{Name: "No medical advice", Description: "Blocks dosage questions"}, nil)
			return err
		}, "POST", "/api/v1/policies", "", `{"name":"No medical advice","description":"Blocks dosage questions"}`},
		{"policies update", func(c *Client) error {
			_, err := c.Policies.Update(ctx, "pol_1", UpdatePolicyRequest{Enabled: Bool(false)}, nil)
			return err
		}, "PUT", "/api/v1/policies/pol_1", "", `{"enabled":false}`},
		{"policies delete", func(c *Client) error { _, err := c.Policies.Delete(ctx, "pol_1", nil); return err }, "DELETE", "/api/v1/policies/pol_1", "", ""},

		{"routing list", func(c *Client) error { _, err := c.Routing.List(ctx, nil); return err }, "GET", "/api/v1/routing", "", ""},
		{"routing create", func(c *Client) error {
			_, err := c.Routing.Create(ctx, CreateRoutingRuleRequest{TaskType: "coding", ComplexityTier: "high", TargetModel: "gpt-4o", TargetProvider: "openai"}, nil)
			return err
		}, "POST", "/api/v1/routing", "", `{"task_type":"coding","complexity_tier":"high","target_model":"gpt-4o","target_provider":"openai"}`},
		{"routing update", func(c *Client) error {
			model := "claude-sonnet"
			_, err := c.Routing.Update(ctx, "r1", UpdateRoutingRuleRequest{TargetModel: &model}, nil)
			return err
		}, "PUT", "/api/v1/routing/r1", "", `{"target_model":"claude-sonnet"}`},
		{"routing delete", func(c *Client) error { _, err := c.Routing.Delete(ctx, "r1", nil); return err }, "DELETE", "/api/v1/routing/r1", "", ""},

		{"tiers", func(c *Client) error { _, err := c.Credits.Tiers(ctx, nil); return err }, "GET", "/api/v1/tiers", "", ""},
		{"balance", func(c *Client) error { _, err := c.Credits.Balance(ctx, nil); return err }, "GET", "/api/v1/credits/balance", "", ""},
		{"transactions no filter", func(c *Client) error { _, err := c.Credits.Transactions(ctx, nil, nil); return err }, "GET", "/api/v1/credits/transactions", "", ""},
		{"transactions filtered", func(c *Client) error {
			_, err := c.Credits.Transactions(ctx, &TransactionFilter{Type: "deduction", Limit: 20}, nil)
			return err
		}, "GET", "/api/v1/credits/transactions", "limit=20&type=deduction", ""},

		{"logs list", func(c *Client) error {
			_, err := c.Logs.List(ctx, &LogFilter{
				Status:    "blocked",
				StartDate: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
				Offset:    40,
			}, nil)
			return err
		}, "GET", "/api/v1/logs", "offset=40&start_date=2026-01-01T00%3A00%3A00Z&status=blocked", ""},
		{"logs get", func(c *Client) error { _, err := c.Logs.Get(ctx, "log_9", nil); return err }, "GET", "/api/v1/logs/log_9", "", ""},

		{"webhooks list", func(c *Client) error { _, err := c.Webhooks.List(ctx, nil); return err }, "GET", "/api/v1/webhooks", "", ""},
		{"webhooks create", func(c *Client) error {
			_, err := c.Webhooks.Create(ctx, CreateWebhookRequest{URL: "https://example.com/hook", Format: "slack"}, nil)
			return err
		}, "POST", "/api/v1/webhooks", "", `{"url":"https://example.com/hook","format":"slack"}`},
		{"webhooks update", func(c *Client) error {
			_, err := c.Webhooks.Update(ctx, "wh_1", UpdateWebhookRequest{Enabled: Bool(true)}, nil)
			return err
		}, "PUT", "/api/v1/webhooks/wh_1", "", `{"enabled":true}`},
		{"webhooks delete", func(c *Client) error { _, err := c.Webhooks.Delete(ctx, "wh_1", nil); return err }, "DELETE", "/api/v1/webhooks/wh_1", "", ""},
		{"webhooks test", func(c *Client) error { _, err := c.Webhooks.Test(ctx, "wh_1", nil); return err }, "POST", "/api/v1/webhooks/wh_1/test", "", ""},

		{"keys list", func(c *Client) error { _, err := c.UpstreamKeys.List(ctx, nil); return err }, "GET", "/api/v1/proxy", "", ""},
		{"keys create", func(c *Client) error {
			_, err := c.UpstreamKeys.Create(ctx, CreateUpstreamKeyRequest{Provider: ProviderOpenAI, APIKey: "sk-test"}, nil)
			return err
		}, "POST", "/api/v1/proxy", "", `{"provider":"openai","api_key":"sk-test"}`},
		{"keys update", func(c *Client) error {
			nick := "prod"
			_, err := c.UpstreamKeys.Update(ctx, "k1", UpdateUpstreamKeyRequest{Nickname: &nick}, nil)
			return err
		}, "PUT", "/api/v1/proxy/k1", "", `{"nickname":"prod"}`},
		{"keys delete", func(c *Client) error { _, err := c.UpstreamKeys.Delete(ctx, "k1", nil); return err }, "DELETE", "/api/v1/proxy/k1", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got capturedRequest
			c, _ := newTestClient(t, captureHandler(&got, http.StatusOK, map[string]any{"success": true}))

			require.NoError(t, tt.call(c))
			assert.Equal(t, tt.method, got.method)
			assert.Equal(t, tt.path, got.path)
			assert.Equal(t, tt.query, got.query)
			if tt.body == "" {
				assert.Empty(t, got.body)
			} else {
				assert.JSONEq(t, tt.body, got.body)
			}
		})
	}
}

func TestResourcePath_EscapesID(t *testing.T) {
	var got capturedRequest
	c, _ := newTestClient(t, captureHandler(&got, http.StatusOK, map[string]any{"success": true}))

	_, err := c.Policies.Get(context.Background(), "a/b c", nil)
	require.NoError(t, err)
	assert.Equal(t, "/api/v1/policies/a/b c", got.path)

	assert.Equal(t, "/api/v1/policies/a%2Fb%20c", resourcePath(policiesPath, "a/b c"))
}

func TestPolicies_DecodesResponse(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"success":  true,
			"policies": []map[string]any{{"id": "pol_1", "name": "No medical advice", "enabled": true}},
		})
	})

	resp, err := c.Policies.List(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, resp.Policies, 1)
	assert.Equal(t, Policy{ID: "pol_1", Name: "No medical advice", Enabled: true}, resp.Policies[0])
}

func TestResource_ErrorMapped(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error": map[string]any{"message": "Invalid provider", "type": "invalid_request_error", "code": "invalid_provider"},
		})
	})

	_, err := c.UpstreamKeys.Create(context.Background(), CreateUpstreamKeyRequest{Provider: "nope", APIKey: "k"}, nil)
	var e *Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, KindUnknown, e.Kind)
	assert.Equal(t, "invalid_provider", e.Code)
	assert.Equal(t, http.StatusBadRequest, e.Status)
}
