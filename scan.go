package lockllm

import (
	"context"
	"net/http"
	"strings"

	"github.com/lockllm/lockllm-go/internal/headers"
)

type scanBody struct {
	Input string `json:"input"`
}

// Scan checks req.Input for prompt injection, policy violations and the
// opt-in detectors selected in opts. Everything except the input travels as
// x-lockllm-* headers. A blocked prompt comes back as an *Error of the
// matching kind.
func (c *Client) Scan(ctx context.Context, req ScanRequest, opts *ScanOptions, reqOpts *RequestOptions) (*ScanResponse, error) {
	if strings.TrimSpace(req.Input) == "" {
		return nil, configError("invalid_input", "input is required")
	}

	h := scanHeaders(req, opts)
	if reqOpts != nil {
		for k, v := range reqOpts.Headers {
			h[k] = v
		}
	}
	merged := &RequestOptions{Headers: h}
	if reqOpts != nil {
		merged.Timeout = reqOpts.Timeout
	}

	var out ScanResponse
	requestID, err := c.req.do(ctx, http.MethodPost, "/v1/scan", scanBody{Input: req.Input}, merged, &out)
	if err != nil {
		return nil, err
	}
	if out.RequestID == "" {
		out.RequestID = requestID
	}
	return &out, nil
}

func scanHeaders(req ScanRequest, opts *ScanOptions) map[string]string {
	h := make(map[string]string)
	if req.Mode != "" {
		h[headers.ScanMode] = string(req.Mode)
	}
	if req.Sensitivity != "" {
		h[headers.Sensitivity] = string(req.Sensitivity)
	}
	if req.Chunk != nil {
		if *req.Chunk {
			h[headers.Chunk] = "true"
		} else {
			h[headers.Chunk] = "false"
		}
	}
	if opts != nil {
		setActionHeaders(h, actionHeaders{
			scan:            opts.ScanAction,
			policy:          opts.PolicyAction,
			abuse:           opts.AbuseAction,
			pii:             opts.PIIAction,
			compression:     opts.CompressionAction,
			compressionRate: opts.CompressionRate,
		})
	}
	return h
}
