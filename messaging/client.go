// Copyright 2026 The CodeBot Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/codebot-io/codebot/lib/netutil"
)

// ClientConfig holds configuration for creating a Client.
type ClientConfig struct {
	// PlatformURL is the base URL of the chat platform API
	// (e.g., "https://chat.example.com").
	PlatformURL string
	// HTTPClient is used for all requests. If nil, http.DefaultClient
	// is used.
	HTTPClient *http.Client
	// Logger is used for structured logging. If nil, slog.Default()
	// is used.
	Logger *slog.Logger
}

// Client is an unauthenticated chat platform client. It holds the
// platform URL and HTTP transport, shared by the Session it produces.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a new unauthenticated chat client.
func NewClient(config ClientConfig) (*Client, error) {
	if config.PlatformURL == "" {
		return nil, fmt.Errorf("messaging: PlatformURL is required")
	}

	// Validate the URL structure. We store the string form (trailing
	// slash stripped) and build request URLs by direct concatenation,
	// avoiding double-encoding issues with url.URL.String() on
	// pre-encoded path segments.
	if _, err := url.Parse(config.PlatformURL); err != nil {
		return nil, fmt.Errorf("messaging: invalid PlatformURL %q: %w", config.PlatformURL, err)
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:    strings.TrimRight(config.PlatformURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// CloseIdleConnections closes idle HTTP connections in the underlying
// transport's connection pool. Call this after a network disruption to
// force subsequent requests onto fresh TCP connections instead of a
// poisoned pooled connection.
func (c *Client) CloseIdleConnections() {
	c.httpClient.CloseIdleConnections()
}

// Login exchanges the bot token for an authenticated DirectSession.
func (c *Client) Login(ctx context.Context, token string) (*DirectSession, error) {
	if token == "" {
		return nil, fmt.Errorf("messaging: token is required for login")
	}

	body, err := c.doRequest(ctx, http.MethodPost, "/v1/login", "", loginRequest{Token: token})
	if err != nil {
		return nil, fmt.Errorf("messaging: login failed: %w", err)
	}

	var response loginResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("messaging: failed to parse login response: %w", err)
	}

	c.logger.Info("logged in to chat platform", "user_id", response.UserID)

	return &DirectSession{
		client: c,
		token:  token,
		userID: response.UserID,
	}, nil
}

// doRequest performs an HTTP request against the platform API and
// returns the response body. On 2xx, returns the body. On 4xx/5xx,
// returns a *ChatError. token may be empty for unauthenticated
// endpoints. query may be nil.
func (c *Client) doRequest(ctx context.Context, method, path, token string, requestBody any, query ...url.Values) ([]byte, error) {
	requestURL := c.baseURL + path
	if len(query) > 0 && query[0] != nil {
		requestURL += "?" + query[0].Encode()
	}

	var bodyReader io.Reader
	if requestBody != nil {
		encoded, err := json.Marshal(requestBody)
		if err != nil {
			return nil, fmt.Errorf("messaging: failed to encode request body: %w", err)
		}
		bodyReader = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, requestURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("messaging: failed to create request: %w", err)
	}

	if requestBody != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("messaging: request to %s %s failed: %w", method, path, err)
	}
	defer response.Body.Close()

	responseBody, err := netutil.ReadResponse(response.Body)
	if err != nil {
		return nil, fmt.Errorf("messaging: failed to read response body: %w", err)
	}

	if response.StatusCode >= 200 && response.StatusCode < 300 {
		return responseBody, nil
	}

	// All platform error responses use the same JSON shape.
	var chatErr ChatError
	if jsonErr := json.Unmarshal(responseBody, &chatErr); jsonErr != nil || chatErr.Code == "" {
		// Non-JSON error body. Should not happen with a conforming
		// server, but fail loud with the raw body.
		return nil, fmt.Errorf("messaging: unexpected %d response from %s %s: %s",
			response.StatusCode, method, path, string(responseBody))
	}
	chatErr.StatusCode = response.StatusCode

	return responseBody, &chatErr
}
