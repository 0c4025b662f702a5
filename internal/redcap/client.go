// Package redcap is a client for the REDCap external API. Every operation is
// a form-encoded POST against a single endpoint; the "content" parameter
// selects what is being read or written.
package redcap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	commonhttp "redcap-client/internal/common/http"
	"redcap-client/internal/common/logger"
	"redcap-client/internal/common/metrics"
)

type Client struct {
	apiURL     string
	apiToken   string
	httpClient *commonhttp.Client
	logger     logger.Logger
}

// APIError is returned when REDCap answers with a non-200 status. The status
// code matters: 400 and 500 are how the server rejects oversized record
// requests, which the batch fetcher recovers from by shrinking.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("redcap: HTTP %d - %s", e.StatusCode, e.Body)
}

// IsBatchTooLarge reports whether err signals an oversized record request.
func IsBatchTooLarge(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusBadRequest || apiErr.StatusCode == http.StatusInternalServerError
	}
	return false
}

func NewClient(apiURL, apiToken string, timeout time.Duration, maxRetries int, log logger.Logger) *Client {
	return &Client{
		apiURL:     apiURL,
		apiToken:   apiToken,
		httpClient: commonhttp.NewClient(timeout, maxRetries),
		logger:     log.WithFields(map[string]interface{}{"component": "redcap"}),
	}
}

// call issues one API request and returns the raw response body.
func (c *Client) call(ctx context.Context, content string, params url.Values) ([]byte, error) {
	form := url.Values{}
	form.Set("token", c.apiToken)
	form.Set("content", content)
	form.Set("format", "json")
	form.Set("returnFormat", "json")
	for k, vs := range params {
		for _, v := range vs {
			form.Add(k, v)
		}
	}

	requestID := uuid.NewString()
	c.logger.Debug("api request", map[string]interface{}{
		"requestId": requestID,
		"content":   content,
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.DoWithContext(ctx, req)
	if err != nil {
		metrics.APIRequests.WithLabelValues(content, "error").Inc()
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.APIRequests.WithLabelValues(content, "error").Inc()
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	metrics.APIRequests.WithLabelValues(content, strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("api request failed", map[string]interface{}{
			"requestId": requestID,
			"content":   content,
			"status":    resp.StatusCode,
		})
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	return body, nil
}

// callJSON issues a request and decodes the JSON response into out.
func (c *Client) callJSON(ctx context.Context, content string, params url.Values, out interface{}) error {
	body, err := c.call(ctx, content, params)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to unmarshal %s response: %w", content, err)
	}
	return nil
}

// callText issues a request and returns the response as a string.
func (c *Client) callText(ctx context.Context, content string, params url.Values) (string, error) {
	body, err := c.call(ctx, content, params)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// jsonParam serializes v for use as the "data" form parameter.
func jsonParam(v interface{}) (string, error) {
	if s, ok := v.(string); ok {
		return s, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to marshal data param: %w", err)
	}
	return string(data), nil
}

// boolParam renders a bool the way the API expects it.
func boolParam(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// indexedParam adds values as name[0], name[1], ... form fields.
func indexedParam(params url.Values, name string, values []string) {
	for i, v := range values {
		params.Set(fmt.Sprintf("%s[%d]", name, i), v)
	}
}
