// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"errors"
	"fmt"
	"time"
)

// =============================================================================
// WIRE TYPES
// =============================================================================

// Wire record types emitted by the proxy. Every streaming record is a
// "data: <json>" line whose payload carries one of these in its "type" field.
const (
	recordStart       = "start"
	recordContent     = "content"
	recordUsage       = "usage"
	recordError       = "error"
	recordMessageStop = "message_stop"
	recordDone        = "done"
)

// ChatMessage is a single message in the conversation history sent upstream.
type ChatMessage struct {
	Role    string `json:"role"`    // "user" or "assistant"
	Content string `json:"content"` // The message content
}

// NewUserMessage creates a new user message.
func NewUserMessage(content string) ChatMessage {
	return ChatMessage{Role: "user", Content: content}
}

// NewAssistantMessage creates a new assistant message.
func NewAssistantMessage(content string) ChatMessage {
	return ChatMessage{Role: "assistant", Content: content}
}

// ThinkingConfig enables extended thinking on the upstream model.
type ThinkingConfig struct {
	Type         string `json:"type"` // always "enabled" when present
	BudgetTokens int    `json:"budget_tokens"`
}

// ModelConfig is the upstream model configuration forwarded by the proxy.
type ModelConfig struct {
	Model     string          `json:"model"`
	MaxTokens int             `json:"max_tokens,omitempty"`
	Thinking  *ThinkingConfig `json:"thinking,omitempty"`
}

// AnthropicConfig wraps the model configuration the way the proxy expects it.
type AnthropicConfig struct {
	Body ModelConfig `json:"body"`
}

// ChatRequest is the request body for the proxy chat endpoint.
type ChatRequest struct {
	Stream          bool            `json:"stream"`
	System          string          `json:"system,omitempty"`
	Messages        []ChatMessage   `json:"messages"`
	AnthropicConfig AnthropicConfig `json:"anthropic_config"`
}

// ContentBlock is one block of a "content" record. Thinking and answer text
// arrive in separate fields; a block carries one or the other.
type ContentBlock struct {
	ContentType string `json:"content_type,omitempty"`
	Text        string `json:"text,omitempty"`
	Thinking    string `json:"thinking,omitempty"`
	Signature   string `json:"signature,omitempty"`
}

// Usage summarizes token counts and cost for one turn. This is the
// flattened form kept on messages; the wire carries CombinedUsage.
type Usage struct {
	InputTokens  int    `json:"input_tokens"`
	OutputTokens int    `json:"output_tokens"`
	TotalCost    string `json:"total_cost,omitempty"`
}

// AnthropicUsage is the per-provider token block inside a usage record.
type AnthropicUsage struct {
	InputTokens       int    `json:"input_tokens"`
	OutputTokens      int    `json:"output_tokens"`
	CachedWriteTokens int    `json:"cached_write_tokens"`
	CachedReadTokens  int    `json:"cached_read_tokens"`
	TotalTokens       int    `json:"total_tokens"`
	TotalCost         string `json:"total_cost,omitempty"`
}

// CombinedUsage is the wire shape of a streaming "usage" record and of the
// non-streaming "combined_usage" field: an overall cost total wrapping the
// per-provider token block.
type CombinedUsage struct {
	TotalCost string          `json:"total_cost,omitempty"`
	Anthropic *AnthropicUsage `json:"anthropic_usage,omitempty"`
}

// Flatten reduces the nested wire shape to the Usage summary.
func (u *CombinedUsage) Flatten() *Usage {
	out := &Usage{TotalCost: u.TotalCost}
	if u.Anthropic != nil {
		out.InputTokens = u.Anthropic.InputTokens
		out.OutputTokens = u.Anthropic.OutputTokens
	}
	return out
}

// streamPayload is the decoded JSON of a single "data:" record.
type streamPayload struct {
	Type    string         `json:"type"`
	Created time.Time      `json:"created,omitempty"`
	Content []ContentBlock `json:"content,omitempty"`
	Usage   *CombinedUsage `json:"usage,omitempty"`
	Message string         `json:"message,omitempty"`
	Code    int            `json:"code,omitempty"`
}

// ChatResponse is the complete non-streaming response document.
type ChatResponse struct {
	Created time.Time      `json:"created"`
	Content []ContentBlock `json:"content"`
	Usage   *CombinedUsage `json:"combined_usage,omitempty"`
}

// Text returns the concatenated answer text of the response, skipping
// thinking blocks.
func (r *ChatResponse) Text() string {
	var out string
	for _, b := range r.Content {
		out += b.Text
	}
	return out
}

// Thinking returns the concatenated thinking content of the response.
func (r *ChatResponse) Thinking() string {
	var out string
	for _, b := range r.Content {
		out += b.Thinking
	}
	return out
}

// =============================================================================
// STREAM EVENTS
// =============================================================================

// Channel identifies which content channel a delta belongs to.
type Channel int

const (
	// ChannelText is the model's final answer text.
	ChannelText Channel = iota
	// ChannelThinking is the model's intermediate reasoning.
	ChannelThinking
)

// String returns the channel name for logging.
func (c Channel) String() string {
	if c == ChannelThinking {
		return "thinking"
	}
	return "text"
}

// EventKind discriminates the StreamEvent union.
type EventKind int

const (
	// EventStart marks the beginning of the response.
	EventStart EventKind = iota
	// EventDelta carries one content fragment on one channel.
	EventDelta
	// EventUsage carries token and cost totals.
	EventUsage
	// EventStop marks orderly completion. No events follow it.
	EventStop
	// EventMalformed marks a record that failed to decode. Consumers skip it.
	EventMalformed
	// EventFault carries a failure the server declared mid-stream.
	EventFault
)

// StreamEvent is one decoded event from the streaming response.
// Only the fields relevant to Kind are populated.
type StreamEvent struct {
	Kind     EventKind
	Channel  Channel   // EventDelta
	Fragment string    // EventDelta
	Created  time.Time // EventStart
	Usage    *Usage    // EventUsage
	Message  string    // EventFault
	Code     int       // EventFault
}

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrNotConfigured indicates the API token is not set.
	ErrNotConfigured = errors.New("API token not configured")

	// ErrAuthFailed indicates authentication failed (invalid or expired token).
	ErrAuthFailed = errors.New("authentication failed")

	// ErrRateLimited indicates too many requests were made.
	ErrRateLimited = errors.New("rate limited")

	// ErrStreamTruncated indicates the stream ended before a stop record arrived.
	ErrStreamTruncated = errors.New("stream ended without completion")
)

// APIError represents an error response from the proxy.
type APIError struct {
	Code    int
	Message string
	Status  int
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("api error [%d] (HTTP %d): %s", e.Code, e.Status, e.Message)
	}
	return fmt.Sprintf("api error (HTTP %d): %s", e.Status, e.Message)
}

// FaultError represents an "error" record the server emitted mid-stream.
// Content decoded before the fault remains valid.
type FaultError struct {
	Code    int
	Message string
}

// Error implements the error interface.
func (e *FaultError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("server fault [%d]: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("server fault: %s", e.Message)
}

// RateLimitError represents a rate limit error with retry information.
type RateLimitError struct {
	RetryAfter time.Duration
}

// Error implements the error interface.
func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited, retry after %v", e.RetryAfter)
	}
	return "rate limited"
}

// Is allows RateLimitError to be compared with ErrRateLimited.
func (e *RateLimitError) Is(target error) bool {
	return target == ErrRateLimited
}
