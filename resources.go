package lockllm

import (
	"context"
	"net/url"
	"strconv"
)

// DeleteResponse is returned by every delete endpoint.
type DeleteResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

func (c *Client) call(ctx context.Context, method, path string, body, out any, opts *RequestOptions) error {
	_, err := c.req.do(ctx, method, path, body, opts, out)
	return err
}

// resourcePath joins base and an escaped id.
func resourcePath(base, id string) string {
	return base + "/" + url.PathEscape(id)
}

// withQuery appends q to path when it holds any values. Keys are sorted.
func withQuery(path string, q url.Values) string {
	if len(q) == 0 {
		return path
	}
	return path + "?" + q.Encode()
}

func setString(q url.Values, key, value string) {
	if value != "" {
		q.Set(key, value)
	}
}

func setInt(q url.Values, key string, value int) {
	if value > 0 {
		q.Set(key, strconv.Itoa(value))
	}
}
