package lockllm

import (
	"context"
	"net/http"
)

const upstreamKeysPath = "/api/v1/proxy"

// UpstreamKeysService manages the provider keys LockLLM uses for BYOK proxying.
type UpstreamKeysService service

type UpstreamKey struct {
	ID        string   `json:"id"`
	Provider  Provider `json:"provider"`
	Nickname  string   `json:"nickname,omitempty"`
	KeyPrefix string   `json:"key_prefix,omitempty"`
	Endpoint  string   `json:"endpoint,omitempty"`
	Enabled   bool     `json:"enabled"`
	CreatedAt string   `json:"created_at,omitempty"`
}

type CreateUpstreamKeyRequest struct {
	Provider Provider `json:"provider"`
	APIKey   string   `json:"api_key"`
	Nickname string   `json:"nickname,omitempty"`
	Endpoint string   `json:"endpoint,omitempty"`
}

type UpdateUpstreamKeyRequest struct {
	APIKey   *string `json:"api_key,omitempty"`
	Nickname *string `json:"nickname,omitempty"`
	Endpoint *string `json:"endpoint,omitempty"`
	Enabled  *bool   `json:"enabled,omitempty"`
}

type UpstreamKeyListResponse struct {
	Success bool          `json:"success"`
	Keys    []UpstreamKey `json:"keys"`
}

type UpstreamKeyResponse struct {
	Success bool        `json:"success"`
	Key     UpstreamKey `json:"key"`
}

func (s *UpstreamKeysService) List(ctx context.Context, opts *RequestOptions) (*UpstreamKeyListResponse, error) {
	var out UpstreamKeyListResponse
	if err := s.client.call(ctx, http.MethodGet, upstreamKeysPath, nil, &out, opts); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *UpstreamKeysService) Create(ctx context.Context, req CreateUpstreamKeyRequest, opts *RequestOptions) (*UpstreamKeyResponse, error) {
	var out UpstreamKeyResponse
	if err := s.client.call(ctx, http.MethodPost, upstreamKeysPath, req, &out, opts); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *UpstreamKeysService) Update(ctx context.Context, id string, req UpdateUpstreamKeyRequest, opts *RequestOptions) (*UpstreamKeyResponse, error) {
	var out UpstreamKeyResponse
	if err := s.client.call(ctx, http.MethodPut, resourcePath(upstreamKeysPath, id), req, &out, opts); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *UpstreamKeysService) Delete(ctx context.Context, id string, opts *RequestOptions) (*DeleteResponse, error) {
	var out DeleteResponse
	if err := s.client.call(ctx, http.MethodDelete, resourcePath(upstreamKeysPath, id), nil, &out, opts); err != nil {
		return nil, err
	}
	return &out, nil
}
