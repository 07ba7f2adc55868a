// File: internal/apiclient/client.go

// Package apiclient is a small JSON HTTP client for API-level test steps.
// It complements the browser layer: seed data over the API, then verify it
// in the UI, or the other way round.
package apiclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/uiharness/internal/config"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// StatusError reports a non-2xx response. The body is retained so tests can
// assert on error payloads.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s returned %d: %s", e.Method, e.URL, e.StatusCode, truncate(e.Body, 256))
}

func truncate(b []byte, n int) string {
	s := strings.TrimSpace(string(b))
	if len(s) > n {
		return s[:n] + "..."
	}
	return s
}

// Client issues JSON requests against the configured API base URL. A bearer
// token is attached when an API key is configured.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	logger  *zap.Logger
}

// New builds a client from the API section of the configuration.
func New(cfg config.APIConfig, logger *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.Key,
		http:    &http.Client{Timeout: cfg.Timeout},
		logger:  logger.Named("api_client"),
	}
}

// Get issues a GET and decodes the JSON response into out. Pass nil to
// discard the body. Query parameters may be nil.
func (c *Client) Get(ctx context.Context, endpoint string, params url.Values, out any) error {
	return c.do(ctx, http.MethodGet, endpoint, params, nil, out)
}

// Post issues a POST with body marshaled as JSON and decodes the response
// into out.
func (c *Client) Post(ctx context.Context, endpoint string, body, out any) error {
	return c.do(ctx, http.MethodPost, endpoint, nil, body, out)
}

// Put issues a PUT with body marshaled as JSON and decodes the response into
// out.
func (c *Client) Put(ctx context.Context, endpoint string, body, out any) error {
	return c.do(ctx, http.MethodPut, endpoint, nil, body, out)
}

// Delete issues a DELETE. Most delete endpoints return no body, so out is
// usually nil.
func (c *Client) Delete(ctx context.Context, endpoint string, out any) error {
	return c.do(ctx, http.MethodDelete, endpoint, nil, nil, out)
}

func (c *Client) do(ctx context.Context, method, endpoint string, params url.Values, body, out any) error {
	u := c.baseURL + "/" + strings.TrimLeft(endpoint, "/")
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling %s %s request body: %w", method, endpoint, err)
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return fmt.Errorf("building %s %s request: %w", method, endpoint, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	c.logger.Debug("API request.", zap.String("method", method), zap.String("url", u))
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, u, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading %s %s response: %w", method, u, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Method: method, URL: u, StatusCode: resp.StatusCode, Body: data}
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decoding %s %s response: %w", method, u, err)
		}
	}
	return nil
}
