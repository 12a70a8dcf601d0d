package lockllm

import (
	"context"
	"net/http"
)

const webhooksPath = "/api/v1/webhooks"

// WebhooksService manages webhook endpoints notified on detections.
type WebhooksService service

type Webhook struct {
	ID        string   `json:"id"`
	URL       string   `json:"url"`
	Format    string   `json:"format,omitempty"`
	Events    []string `json:"events,omitempty"`
	Enabled   bool     `json:"enabled"`
	CreatedAt string   `json:"created_at,omitempty"`
}

type CreateWebhookRequest struct {
	URL    string   `json:"url"`
	Format string   `json:"format,omitempty"`
	Secret string   `json:"secret,omitempty"`
	Events []string `json:"events,omitempty"`
}

type UpdateWebhookRequest struct {
	URL     *string  `json:"url,omitempty"`
	Format  *string  `json:"format,omitempty"`
	Secret  *string  `json:"secret,omitempty"`
	Events  []string `json:"events,omitempty"`
	Enabled *bool    `json:"enabled,omitempty"`
}

type WebhookListResponse struct {
	Success  bool      `json:"success"`
	Webhooks []Webhook `json:"webhooks"`
}

type WebhookResponse struct {
	Success bool    `json:"success"`
	Webhook Webhook `json:"webhook"`
}

type WebhookTestResponse struct {
	Success    bool   `json:"success"`
	StatusCode int    `json:"status_code,omitempty"`
	Message    string `json:"message,omitempty"`
}

func (s *WebhooksService) List(ctx context.Context, opts *RequestOptions) (*WebhookListResponse, error) {
	var out WebhookListResponse
	if err := s.client.call(ctx, http.MethodGet, webhooksPath, nil, &out, opts); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *WebhooksService) Create(ctx context.Context, req CreateWebhookRequest, opts *RequestOptions) (*WebhookResponse, error) {
	var out WebhookResponse
	if err := s.client.call(ctx, http.MethodPost, webhooksPath, req, &out, opts); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *WebhooksService) Update(ctx context.Context, id string, req UpdateWebhookRequest, opts *RequestOptions) (*WebhookResponse, error) {
	var out WebhookResponse
	if err := s.client.call(ctx, http.MethodPut, resourcePath(webhooksPath, id), req, &out, opts); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *WebhooksService) Delete(ctx context.Context, id string, opts *RequestOptions) (*DeleteResponse, error) {
	var out DeleteResponse
	if err := s.client.call(ctx, http.MethodDelete, resourcePath(webhooksPath, id), nil, &out, opts); err != nil {
		return nil, err
	}
	return &out, nil
}

// Test asks LockLLM to deliver a sample event to the webhook.
func (s *WebhooksService) Test(ctx context.Context, id string, opts *RequestOptions) (*WebhookTestResponse, error) {
	var out WebhookTestResponse
	if err := s.client.call(ctx, http.MethodPost, resourcePath(webhooksPath, id)+"/test", nil, &out, opts); err != nil {
		return nil, err
	}
	return &out, nil
}
