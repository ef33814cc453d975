// Package kvrest provides a client for REST key-value stores that speak the
// Upstash / Vercel KV command protocol.
package kvrest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/abrezinsky/picklecup/internal/logger"
)

// TournamentKey is the key the tournament snapshot is stored under.
const TournamentKey = "TOURNAMENT_DATA"

// Client defines the operations used against the key-value store
type Client interface {
	// Get returns the value stored under key. found is false when the key does not exist.
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	// Set stores value under key, replacing any previous value
	Set(ctx context.Context, key string, value []byte) error
	// Ping checks that the store is reachable and the token is accepted
	Ping(ctx context.Context) error
	// BaseURL returns the configured store URL
	BaseURL() string
}

// commandResponse is the envelope every command returns.
type commandResponse struct {
	Result json.RawMessage `json:"result"`
	Error  string          `json:"error"`
}

// HTTPClient talks to the store over HTTPS with a bearer token
type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
	log        logger.Logger
}

// NewHTTPClient creates a client for the store at baseURL
func NewHTTPClient(baseURL, token string, log logger.Logger) *HTTPClient {
	return NewHTTPClientWithHTTPClient(baseURL, token, &http.Client{Timeout: 15 * time.Second}, log)
}

// NewHTTPClientWithHTTPClient creates a client with a custom http.Client
func NewHTTPClientWithHTTPClient(baseURL, token string, httpClient *http.Client, log logger.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: httpClient,
		log:        log,
	}
}

func (c *HTTPClient) BaseURL() string {
	return c.baseURL
}

// do runs one command and returns its raw result. The store answers 200 with an
// "error" field for command failures and a non-200 status for auth problems.
func (c *HTTPClient) do(ctx context.Context, method, path string, body io.Reader) (json.RawMessage, error) {
	apiURL := c.baseURL + path
	c.log.Debug("KV request", "method", method, "url", apiURL)

	req, err := http.NewRequestWithContext(ctx, method, apiURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "text/plain")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to KV store: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	c.log.Debug("KV response", "status", resp.StatusCode, "bytes", len(data))

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("KV store returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var out commandResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if out.Error != "" {
		return nil, fmt.Errorf("KV store error: %s", out.Error)
	}
	return out.Result, nil
}

// Get fetches a string value. A null result means the key is missing.
func (c *HTTPClient) Get(ctx context.Context, key string) ([]byte, bool, error) {
	result, err := c.do(ctx, http.MethodGet, "/get/"+url.PathEscape(key), nil)
	if err != nil {
		return nil, false, err
	}
	if len(result) == 0 || string(result) == "null" {
		return nil, false, nil
	}

	var value string
	if err := json.Unmarshal(result, &value); err != nil {
		return nil, false, fmt.Errorf("unexpected value for %s: %w", key, err)
	}
	return []byte(value), true, nil
}

// Set posts value as the request body
func (c *HTTPClient) Set(ctx context.Context, key string, value []byte) error {
	result, err := c.do(ctx, http.MethodPost, "/set/"+url.PathEscape(key), strings.NewReader(string(value)))
	if err != nil {
		return err
	}

	var status string
	if err := json.Unmarshal(result, &status); err != nil || status != "OK" {
		return fmt.Errorf("KV store did not acknowledge set of %s: %s", key, string(result))
	}
	return nil
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodGet, "/ping", nil)
	return err
}

var _ Client = (*HTTPClient)(nil)
