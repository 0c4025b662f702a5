// internal/common/http/client.go
package http

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"
)

// Client wraps net/http with a bounded retry on gateway-style 5xx responses
// (502, 503, 504). Other statuses, including 500, are returned to the caller
// untouched: REDCap uses 400/500 to signal oversized record requests and
// those must reach the batch fetcher, not be retried here.
type Client struct {
	httpClient *http.Client
	maxRetries int
	retryDelay time.Duration
}

func NewClient(timeout time.Duration, maxRetries int) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		maxRetries: maxRetries,
		retryDelay: 500 * time.Millisecond,
	}
}

func retryableStatus(code int) bool {
	switch code {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.DoWithContext(req.Context(), req)
}

func (c *Client) DoWithContext(ctx context.Context, req *http.Request) (*http.Response, error) {
	req = req.WithContext(ctx)

	// The body has to be replayable to retry a POST.
	var body []byte
	if req.Body != nil {
		var err error
		body, err = io.ReadAll(req.Body)
		req.Body.Close()
		if err != nil {
			return nil, err
		}
	}

	var resp *http.Response
	var err error
	delay := c.retryDelay
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if body != nil {
			req.Body = io.NopCloser(bytes.NewReader(body))
		}
		resp, err = c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		if !retryableStatus(resp.StatusCode) || attempt == c.maxRetries {
			return resp, nil
		}
		resp.Body.Close()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return resp, err
}
