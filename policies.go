package lockllm

import (
	"context"
	"net/http"
)

const policiesPath = "/api/v1/policies"

// PoliciesService manages custom content policies.
type PoliciesService service

type Policy struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Enabled     bool   `json:"enabled"`
	CreatedAt   string `json:"created_at,omitempty"`
	UpdatedAt   string `json:"updated_at,omitempty"`
}

type CreatePolicyRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Enabled     *bool  `json:"enabled,omitempty"`
}

type UpdatePolicyRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Enabled     *bool   `json:"enabled,omitempty"`
}

type PolicyListResponse struct {
	Success  bool     `json:"success"`
	Policies []Policy `json:"policies"`
}

type PolicyResponse struct {
	Success bool   `json:"success"`
	Policy  Policy `json:"policy"`
}

func (s *PoliciesService) List(ctx context.Context, opts *RequestOptions) (*PolicyListResponse, error) {
	var out PolicyListResponse
	if err := s.client.call(ctx, http.MethodGet, policiesPath, nil, &out, opts); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *PoliciesService) Get(ctx context.Context, id string, opts *RequestOptions) (*PolicyResponse, error) {
	var out PolicyResponse
	if err := s.client.call(ctx, http.MethodGet, resourcePath(policiesPath, id), nil, &out, opts); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *PoliciesService) Create(ctx context.Context, req CreatePolicyRequest, opts *RequestOptions) (*PolicyResponse, error) {
	var out PolicyResponse
	if err := s.client.call(ctx, http.MethodPost, policiesPath, req, &out, opts); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *PoliciesService) Update(ctx context.Context, id string, req UpdatePolicyRequest, opts *RequestOptions) (*PolicyResponse, error) {
	var out PolicyResponse
	if err := s.client.call(ctx, http.MethodPut, resourcePath(policiesPath, id), req, &out, opts); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *PoliciesService) Delete(ctx context.Context, id string, opts *RequestOptions) (*DeleteResponse, error) {
	var out DeleteResponse
	if err := s.client.call(ctx, http.MethodDelete, resourcePath(policiesPath, id), nil, &out, opts); err != nil {
		return nil, err
	}
	return &out, nil
}
