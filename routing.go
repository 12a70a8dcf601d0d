package lockllm

import (
	"context"
	"net/http"
)

const routingPath = "/api/v1/routing"

// RoutingService manages custom routing rules used when RouteAction is "custom".
type RoutingService service

type RoutingRule struct {
	ID             string `json:"id"`
	TaskType       string `json:"task_type"`
	ComplexityTier string `json:"complexity_tier"`
	TargetModel    string `json:"target_model"`
	TargetProvider string `json:"target_provider"`
	UseBYOK        bool   `json:"use_byok"`
	Enabled        bool   `json:"enabled"`
	CreatedAt      string `json:"created_at,omitempty"`
	UpdatedAt      string `json:"updated_at,omitempty"`
}

type CreateRoutingRuleRequest struct {
	TaskType       string `json:"task_type"`
	ComplexityTier string `json:"complexity_tier"`
	TargetModel    string `json:"target_model"`
	TargetProvider string `json:"target_provider"`
	UseBYOK        *bool  `json:"use_byok,omitempty"`
	Enabled        *bool  `json:"enabled,omitempty"`
}

type UpdateRoutingRuleRequest struct {
	TaskType       *string `json:"task_type,omitempty"`
	ComplexityTier *string `json:"complexity_tier,omitempty"`
	TargetModel    *string `json:"target_model,omitempty"`
	TargetProvider *string `json:"target_provider,omitempty"`
	UseBYOK        *bool   `json:"use_byok,omitempty"`
	Enabled        *bool   `json:"enabled,omitempty"`
}

type RoutingRuleListResponse struct {
	Success bool          `json:"success"`
	Rules   []RoutingRule `json:"rules"`
}

type RoutingRuleResponse struct {
	Success bool        `json:"success"`
	Rule    RoutingRule `json:"rule"`
}

func (s *RoutingService) List(ctx context.Context, opts *RequestOptions) (*RoutingRuleListResponse, error) {
	var out RoutingRuleListResponse
	if err := s.client.call(ctx, http.MethodGet, routingPath, nil, &out, opts); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *RoutingService) Create(ctx context.Context, req CreateRoutingRuleRequest, opts *RequestOptions) (*RoutingRuleResponse, error) {
	var out RoutingRuleResponse
	if err := s.client.call(ctx, http.MethodPost, routingPath, req, &out, opts); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *RoutingService) Update(ctx context.Context, id string, req UpdateRoutingRuleRequest, opts *RequestOptions) (*RoutingRuleResponse, error) {
	var out RoutingRuleResponse
	if err := s.client.call(ctx, http.MethodPut, resourcePath(routingPath, id), req, &out, opts); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *RoutingService) Delete(ctx context.Context, id string, opts *RequestOptions) (*DeleteResponse, error) {
	var out DeleteResponse
	if err := s.client.call(ctx, http.MethodDelete, resourcePath(routingPath, id), nil, &out, opts); err != nil {
		return nil, err
	}
	return &out, nil
}
