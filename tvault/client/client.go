// Package client talks to the vault API and drives the editor session
// state machine on top of it.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// APIError carries the status and response text of a failed call.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %d %s: %s", e.Status, http.StatusText(e.Status), e.Body)
}

// IsNotFound reports whether err is a 404 APIError.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// Client is a thin wrapper over the HTTP API. The token is sent in the
// Authorization header on every call.
type Client struct {
	baseURL string
	token   string
	httpc   *http.Client
}

// New creates a client for the server at baseURL.
func New(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpc:   &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader) (string, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", c.token)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &APIError{Status: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}
	return string(data), nil
}

// ListKeys returns every visible key, optionally filtered by prefix.
func (c *Client) ListKeys(ctx context.Context, prefix string) ([]string, error) {
	body, err := c.do(ctx, http.MethodGet, "/api/lists/"+prefix, nil)
	if err != nil {
		return nil, err
	}
	var ks []string
	if err := json.Unmarshal([]byte(body), &ks); err != nil {
		return nil, fmt.Errorf("decode key listing: %w", err)
	}
	return ks, nil
}

// Get fetches the body stored at key.
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	return c.do(ctx, http.MethodGet, "/api/files/"+key, nil)
}

// Put creates or overwrites key with body.
func (c *Client) Put(ctx context.Context, key, body string) error {
	_, err := c.do(ctx, http.MethodPut, "/api/files/"+key, strings.NewReader(body))
	return err
}

// Delete removes key.
func (c *Client) Delete(ctx context.Context, key string) error {
	_, err := c.do(ctx, http.MethodDelete, "/api/files/"+key, nil)
	return err
}

// Move renames src to dst.
func (c *Client) Move(ctx context.Context, src, dst string) error {
	payload, err := json.Marshal(map[string]string{"srcKey": src, "dstKey": dst})
	if err != nil {
		return fmt.Errorf("encode move request: %w", err)
	}
	_, err = c.do(ctx, http.MethodPost, "/api/mv", bytes.NewReader(payload))
	return err
}
