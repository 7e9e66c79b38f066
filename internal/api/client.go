// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"crypto/sha256"
	"crypto/tls"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Configuration constants for the proxy API.
const (
	// DefaultBaseURL is the base URL for a locally running proxy.
	DefaultBaseURL = "http://localhost:8080"

	// DefaultTimeout is the default timeout for non-streaming requests.
	DefaultTimeout = 60 * time.Second

	// DefaultMaxRetries is the default number of retry attempts for transient errors.
	DefaultMaxRetries = 3

	// DefaultMaxTokens is the default response token cap.
	DefaultMaxTokens = 8192

	// DefaultThinkingBudget is the default thinking token budget forwarded upstream.
	DefaultThinkingBudget = 16000

	// retryBaseDelay is the base delay for exponential backoff.
	retryBaseDelay = 500 * time.Millisecond

	// retryMaxDelay is the maximum delay for exponential backoff.
	retryMaxDelay = 10 * time.Second

	// MaxResponseSize is the maximum allowed response body size.
	// SECURITY: Response size limit prevents memory exhaustion attacks.
	MaxResponseSize = 10 * 1024 * 1024 // 10MB limit

	// tokenHeader carries the upstream credential to the proxy.
	tokenHeader = "X-Anthropic-API-Token"
)

var (
	// PERFORMANCE: Connection pooling reduces TCP handshake overhead.
	// Shared HTTP client with connection pooling for all non-streaming requests.
	// SECURITY: TLS verification required for production
	sharedHTTPClient = &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
		Timeout: DefaultTimeout,
	}

	// sharedStreamingClient is used for streaming requests (no timeout, context-controlled).
	// PERFORMANCE: Connection pooling for streaming requests.
	sharedStreamingClient = &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
		// No timeout for streaming - controlled via context
	}
)

// Client is a client for the thinking-proxy chat endpoint.
type Client struct {
	token          string
	baseURL        string
	system         string
	model          string
	maxTokens      int
	thinkingBudget int
	maxRetries     int
	limiter        *rate.Limiter
}

// NewClient creates a new client with the given API token.
//
// If the token is empty the client is still created but requests fail with
// ErrNotConfigured.
func NewClient(token string) *Client {
	return &Client{
		token:          strings.TrimSpace(token),
		baseURL:        DefaultBaseURL,
		maxTokens:      DefaultMaxTokens,
		thinkingBudget: DefaultThinkingBudget,
		maxRetries:     DefaultMaxRetries,
		// One request per second sustained, short bursts allowed. Interactive
		// use never hits this; it guards against submit-key repeat.
		limiter: rate.NewLimiter(rate.Limit(1), 3),
	}
}

// WithBaseURL sets a custom base URL for the proxy.
func (c *Client) WithBaseURL(url string) *Client {
	c.baseURL = strings.TrimSuffix(url, "/")
	return c
}

// WithModel sets the upstream model identifier.
func (c *Client) WithModel(model string) *Client {
	c.model = model
	return c
}

// WithSystem sets the system prompt sent with every request.
func (c *Client) WithSystem(system string) *Client {
	c.system = system
	return c
}

// WithMaxTokens sets the response token cap.
func (c *Client) WithMaxTokens(n int) *Client {
	if n > 0 {
		c.maxTokens = n
	}
	return c
}

// WithThinkingBudget sets the thinking token budget. Zero disables thinking.
func (c *Client) WithThinkingBudget(n int) *Client {
	c.thinkingBudget = n
	return c
}

// WithMaxRetries sets the maximum number of retry attempts.
func (c *Client) WithMaxRetries(n int) *Client {
	c.maxRetries = n
	return c
}

// SetToken replaces the API token. Used by config live-reload.
func (c *Client) SetToken(token string) {
	c.token = strings.TrimSpace(token)
}

// IsConfigured returns true if the client has an API token configured.
func (c *Client) IsConfigured() bool {
	return c.token != ""
}

// TokenMasked returns a masked version of the token for display.
// SECURITY: Never exposes token fragments - use fingerprint instead.
func (c *Client) TokenMasked() string {
	if c.token == "" {
		return "[not set]"
	}
	return fmt.Sprintf("[REDACTED, length=%d, fingerprint=%s]", len(c.token), c.tokenFingerprint())
}

// tokenFingerprint returns a secure fingerprint of the token for logging.
// SECURITY: Uses SHA-256 hash to create a unique identifier without exposing the token.
func (c *Client) tokenFingerprint() string {
	if c.token == "" {
		return "none"
	}
	h := sha256.Sum256([]byte(c.token))
	return hex.EncodeToString(h[:4]) // First 8 hex chars (4 bytes)
}

// TokenFingerprint returns a secure fingerprint of the token for external use.
func (c *Client) TokenFingerprint() string {
	return c.tokenFingerprint()
}

// =============================================================================
// Request/Response Logging (without sensitive data)
// =============================================================================

// logRequest logs an API request without exposing sensitive data.
// SECURITY: Does not log headers (contain auth) or body (contains conversation).
func (c *Client) logRequest(req *http.Request) {
	log.Printf("API Request: %s %s (token=%s)", req.Method, req.URL.Path, c.tokenFingerprint())
}

// logResponse logs an API response with duration.
func (c *Client) logResponse(resp *http.Response, duration time.Duration) {
	log.Printf("API Response: %d %s (%v)", resp.StatusCode, resp.Status, duration)
}

// =============================================================================
// REQUEST CONSTRUCTION
// =============================================================================

// newChatRequest builds the POST request for the chat endpoint.
func (c *Client) newChatRequest(ctx context.Context, history []ChatMessage, stream bool) (*http.Request, error) {
	reqBody := ChatRequest{
		Stream:   stream,
		System:   c.system,
		Messages: history,
		AnthropicConfig: AnthropicConfig{
			Body: ModelConfig{
				Model:     c.model,
				MaxTokens: c.maxTokens,
			},
		},
	}
	if c.thinkingBudget > 0 {
		reqBody.AnthropicConfig.Body.Thinking = &ThinkingConfig{
			Type:         "enabled",
			BudgetTokens: c.thinkingBudget,
		}
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat", bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	c.setHeaders(req)
	return req, nil
}

// setHeaders sets the required headers for proxy requests.
func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set(tokenHeader, c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "mull/0.1.0")
}

// =============================================================================
// NON-STREAMING CHAT
// =============================================================================

// Chat performs a non-streaming chat request with the given history.
//
// It automatically retries with exponential backoff on transient errors
// such as rate limiting and server errors.
func (c *Client) Chat(ctx context.Context, history []ChatMessage) (*ChatResponse, error) {
	if !c.IsConfigured() {
		return nil, ErrNotConfigured
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		// Apply backoff delay after first attempt
		if attempt > 0 {
			delay := c.calculateBackoff(attempt)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		response, err := c.doRequest(ctx, history)
		if err != nil {
			if c.isRetryable(err) {
				lastErr = err
				continue
			}
			return nil, err
		}
		return response, nil
	}

	if lastErr != nil {
		return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
	}
	return nil, errors.New("max retries exceeded")
}

// Ask performs a non-streaming chat with a single user prompt and returns
// only the answer text.
func (c *Client) Ask(ctx context.Context, prompt string) (string, error) {
	resp, err := c.Chat(ctx, []ChatMessage{NewUserMessage(prompt)})
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}

// doRequest performs a single HTTP request to the chat endpoint.
// PERFORMANCE: Uses shared HTTP client with connection pooling.
func (c *Client) doRequest(ctx context.Context, history []ChatMessage) (*ChatResponse, error) {
	req, err := c.newChatRequest(ctx, history, false)
	if err != nil {
		return nil, err
	}

	c.logRequest(req)
	startTime := time.Now()
	resp, err := sharedHTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	c.logResponse(resp, time.Since(startTime))

	// SECURITY: Read response with size limit to prevent memory exhaustion
	body, err := readResponse(resp)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, c.handleErrorResponse(resp, body)
	}

	var chatResp ChatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &chatResp, nil
}

// readResponse reads the response body with size limits.
// SECURITY: Response size limit prevents memory exhaustion attacks.
func readResponse(resp *http.Response) ([]byte, error) {
	limitedReader := io.LimitReader(resp.Body, MaxResponseSize)
	body, err := io.ReadAll(limitedReader)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(body)) == MaxResponseSize {
		return nil, fmt.Errorf("response exceeded maximum size of %d bytes", MaxResponseSize)
	}
	return body, nil
}

// =============================================================================
// ERROR HANDLING
// =============================================================================

// wireErrorResponse is the JSON body the proxy sends with error statuses.
type wireErrorResponse struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// handleErrorResponse converts HTTP error responses to appropriate Go errors.
func (c *Client) handleErrorResponse(resp *http.Response, body []byte) error {
	statusCode := resp.StatusCode

	if statusCode == http.StatusTooManyRequests {
		return c.handleRateLimit(resp)
	}

	var wireErr wireErrorResponse
	if err := json.Unmarshal(body, &wireErr); err == nil && wireErr.Message != "" {
		apiErr := &APIError{
			Code:    wireErr.Code,
			Message: wireErr.Message,
			Status:  statusCode,
		}
		if statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden {
			return fmt.Errorf("%w: %s", ErrAuthFailed, apiErr.Message)
		}
		return apiErr
	}

	// Fallback for unparseable error bodies
	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrAuthFailed
	default:
		return &APIError{
			Message: strings.TrimSpace(string(body)),
			Status:  statusCode,
		}
	}
}

// handleRateLimit maps a 429 to an error carrying the Retry-After hint.
func (c *Client) handleRateLimit(resp *http.Response) error {
	retryAfter := resp.Header.Get("Retry-After")
	if retryAfter == "" {
		return ErrRateLimited
	}

	// Try to parse as seconds
	if seconds, err := strconv.Atoi(retryAfter); err == nil {
		return &RateLimitError{RetryAfter: time.Duration(seconds) * time.Second}
	}

	// Try to parse as HTTP date
	if t, err := http.ParseTime(retryAfter); err == nil {
		return &RateLimitError{RetryAfter: time.Until(t)}
	}

	return ErrRateLimited
}

// isRetryable determines if an error should trigger a retry.
func (c *Client) isRetryable(err error) bool {
	if errors.Is(err, ErrRateLimited) {
		return true
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status >= 500 && apiErr.Status < 600
	}

	// Context cancellation is never retryable.
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	return false
}

// calculateBackoff returns the delay to wait before the next retry.
func (c *Client) calculateBackoff(attempt int) time.Duration {
	// Exponential backoff: 500ms, 1000ms, 2000ms, etc.
	delay := retryBaseDelay * time.Duration(1<<uint(attempt))
	if delay > retryMaxDelay {
		delay = retryMaxDelay
	}
	return delay
}
