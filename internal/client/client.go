// Package client provides an HTTP client for the curbing JSON API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/evcraddock/curbing/internal/house"
	"github.com/evcraddock/curbing/internal/registry"
	"github.com/evcraddock/curbing/internal/session"
)

// Client is an HTTP client for the curbing API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a new API client.
func New(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Error is a non-2xx response from the server.
type Error struct {
	StatusCode int
	Kind       string
	Message    string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server error: %s", http.StatusText(e.StatusCode))
	}
	return e.Message
}

// Health is the response from GET /health.
type Health struct {
	Status string `json:"status"`
	Loaded bool   `json:"loaded"`
}

// Health checks that the server is up.
func (c *Client) Health(ctx context.Context) (Health, error) {
	var h Health
	err := c.do(ctx, http.MethodGet, "/health", nil, &h)
	return h, err
}

// Houses returns the server's current list state.
func (c *Client) Houses(ctx context.Context) (registry.State, error) {
	var st registry.State
	err := c.do(ctx, http.MethodGet, "/api/houses", nil, &st)
	return st, err
}

// AddHouse creates a house at address.
func (c *Client) AddHouse(ctx context.Context, address string) (house.House, error) {
	var h house.House
	err := c.do(ctx, http.MethodPost, "/api/houses", map[string]string{"address": address}, &h)
	return h, err
}

// SetStatus changes the status of house id and returns the new state.
func (c *Client) SetStatus(ctx context.Context, id string, status house.Status) (registry.State, error) {
	var st registry.State
	path := "/api/houses/" + url.PathEscape(id) + "/status"
	err := c.do(ctx, http.MethodPost, path, map[string]string{"status": string(status)}, &st)
	return st, err
}

// RemoveHouse deletes house id.
func (c *Client) RemoveHouse(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/houses/"+url.PathEscape(id), nil, nil)
}

// Reload asks the server to reload the active houses.
func (c *Client) Reload(ctx context.Context) (registry.State, error) {
	var st registry.State
	err := c.do(ctx, http.MethodPost, "/api/reload", nil, &st)
	return st, err
}

// FinishDay runs the end-of-day reset on the server.
func (c *Client) FinishDay(ctx context.Context) (session.Summary, error) {
	var sum session.Summary
	err := c.do(ctx, http.MethodPost, "/api/finish-day", nil, &sum)
	return sum, err
}

// do sends a request with an optional JSON body and decodes the response.
func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
			Kind  string `json:"kind"`
		}
		_ = json.Unmarshal(respBody, &errResp)
		return &Error{StatusCode: resp.StatusCode, Kind: errResp.Kind, Message: errResp.Error}
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}
