package lockllm

import (
	"context"
	"net/http"
	"net/url"
)

// CreditsService reads pricing tiers, the credit balance and its ledger.
type CreditsService service

type Tier struct {
	Tier           int     `json:"tier"`
	Name           string  `json:"name"`
	MinSpend       float64 `json:"min_spend"`
	FreeScans      int     `json:"free_scans,omitempty"`
	RequestsPerMin int     `json:"requests_per_minute,omitempty"`
}

type TiersResponse struct {
	Success     bool   `json:"success"`
	Tiers       []Tier `json:"tiers"`
	CurrentTier int    `json:"current_tier,omitempty"`
}

type BalanceResponse struct {
	Success bool    `json:"success"`
	Balance float64 `json:"balance"`
	Tier    int     `json:"tier,omitempty"`
}

type Transaction struct {
	ID           string  `json:"id"`
	Type         string  `json:"type"`
	Amount       float64 `json:"amount"`
	BalanceAfter float64 `json:"balance_after"`
	Description  string  `json:"description,omitempty"`
	RequestID    string  `json:"request_id,omitempty"`
	CreatedAt    string  `json:"created_at"`
}

type TransactionsResponse struct {
	Success      bool          `json:"success"`
	Transactions []Transaction `json:"transactions"`
	Total        int           `json:"total"`
}

// TransactionFilter narrows a ledger listing. Zero fields are omitted.
type TransactionFilter struct {
	Type   string
	Limit  int
	Offset int
}

func (f *TransactionFilter) values() url.Values {
	q := url.Values{}
	if f == nil {
		return q
	}
	setString(q, "type", f.Type)
	setInt(q, "limit", f.Limit)
	setInt(q, "offset", f.Offset)
	return q
}

func (s *CreditsService) Tiers(ctx context.Context, opts *RequestOptions) (*TiersResponse, error) {
	var out TiersResponse
	if err := s.client.call(ctx, http.MethodGet, "/api/v1/tiers", nil, &out, opts); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *CreditsService) Balance(ctx context.Context, opts *RequestOptions) (*BalanceResponse, error) {
	var out BalanceResponse
	if err := s.client.call(ctx, http.MethodGet, "/api/v1/credits/balance", nil, &out, opts); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *CreditsService) Transactions(ctx context.Context, filter *TransactionFilter, opts *RequestOptions) (*TransactionsResponse, error) {
	var out TransactionsResponse
	path := withQuery("/api/v1/credits/transactions", filter.values())
	if err := s.client.call(ctx, http.MethodGet, path, nil, &out, opts); err != nil {
		return nil, err
	}
	return &out, nil
}
