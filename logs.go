package lockllm

import (
	"context"
	"net/http"
	"net/url"
	"time"
)

const logsPath = "/api/v1/logs"

// LogsService reads the request log kept by LockLLM.
type LogsService service

type LogEntry struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Status    string         `json:"status"`
	RequestID string         `json:"request_id,omitempty"`
	Provider  string         `json:"provider,omitempty"`
	Model     string         `json:"model,omitempty"`
	Safe      *bool          `json:"safe,omitempty"`
	CreatedAt string         `json:"created_at"`
	Details   map[string]any `json:"details,omitempty"`
}

type LogListResponse struct {
	Success bool       `json:"success"`
	Logs    []LogEntry `json:"logs"`
	Total   int        `json:"total"`
}

type LogResponse struct {
	Success bool     `json:"success"`
	Log     LogEntry `json:"log"`
}

// LogFilter narrows a log listing. Zero fields are omitted.
type LogFilter struct {
	Type      string
	Status    string
	StartDate time.Time
	EndDate   time.Time
	Limit     int
	Offset    int
}

func (f *LogFilter) values() url.Values {
	q := url.Values{}
	if f == nil {
		return q
	}
	setString(q, "type", f.Type)
	setString(q, "status", f.Status)
	if !f.StartDate.IsZero() {
		q.Set("start_date", f.StartDate.UTC().Format(time.RFC3339))
	}
	if !f.EndDate.IsZero() {
		q.Set("end_date", f.EndDate.UTC().Format(time.RFC3339))
	}
	setInt(q, "limit", f.Limit)
	setInt(q, "offset", f.Offset)
	return q
}

func (s *LogsService) List(ctx context.Context, filter *LogFilter, opts *RequestOptions) (*LogListResponse, error) {
	var out LogListResponse
	if err := s.client.call(ctx, http.MethodGet, withQuery(logsPath, filter.values()), nil, &out, opts); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *LogsService) Get(ctx context.Context, id string, opts *RequestOptions) (*LogResponse, error) {
	var out LogResponse
	if err := s.client.call(ctx, http.MethodGet, resourcePath(logsPath, id), nil, &out, opts); err != nil {
		return nil, err
	}
	return &out, nil
}
