// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for chat sessions and messages.
package model

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/jeranaias/mull-tui/internal/api"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Assistant"
	default:
		return string(r)
	}
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message represents a single message in a session. Messages are value
// types: the stream reducer takes a Message and returns a new one, so a
// partially accumulated message can replace its predecessor wholesale.
type Message struct {
	// Identity
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Timestamp time.Time `json:"timestamp"`

	// Content channels. Thinking holds the model's intermediate reasoning
	// and is non-empty only when at least one thinking fragment arrived.
	Content  string `json:"content"`
	Thinking string `json:"thinking,omitempty"`

	// Set once the stream leaves the thinking phase (or ends), then stable.
	ThinkingDuration time.Duration `json:"thinking_duration_ns,omitempty"`

	// Token and cost totals reported by the server (assistant messages).
	Usage *api.Usage `json:"usage,omitempty"`
}

// NewUserMessage creates a new user message.
func NewUserMessage(content string) Message {
	return Message{
		ID:        generateID(),
		Role:      RoleUser,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// NewAssistantMessage creates a new empty assistant message. It is appended
// to the session before any stream event arrives so the transcript has a
// stable slot to fill.
func NewAssistantMessage() Message {
	return Message{
		ID:        generateID(),
		Role:      RoleAssistant,
		Timestamp: time.Now(),
	}
}

// =============================================================================
// MESSAGE METHODS
// =============================================================================

// IsEmpty returns true if the message has no content on either channel.
func (m Message) IsEmpty() bool {
	return m.Content == "" && m.Thinking == ""
}

// HasThinking returns true if any thinking content arrived.
func (m Message) HasThinking() bool {
	return m.Thinking != ""
}

// Preview returns a truncated preview of the message content.
// Uses rune-based truncation to handle Unicode correctly.
func (m Message) Preview(maxLen int) string {
	runes := []rune(m.Content)
	if len(runes) <= maxLen {
		return m.Content
	}
	return string(runes[:maxLen-3]) + "..."
}

// FormatStats returns a formatted stats line for a completed assistant
// message, e.g. "thought for 4.2s | 128 tokens | $0.0031".
func (m Message) FormatStats() string {
	if m.Role != RoleAssistant {
		return ""
	}

	var parts []string
	if m.ThinkingDuration > 0 {
		parts = append(parts, "thought for "+formatSeconds(m.ThinkingDuration.Seconds()))
	}
	if m.Usage != nil {
		if m.Usage.OutputTokens > 0 {
			parts = append(parts, formatInt(m.Usage.OutputTokens)+" tokens")
		}
		if m.Usage.TotalCost != "" {
			parts = append(parts, m.Usage.TotalCost)
		}
	}

	out := ""
	for i, p := range parts {
		if i > 0 {
			out += " | "
		}
		out += p
	}
	return out
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// generateID creates a unique message ID.
func generateID() string {
	bytes := make([]byte, 8)
	rand.Read(bytes)
	return "msg_" + hex.EncodeToString(bytes)
}

// formatInt formats an integer without using fmt.
func formatInt(n int) string {
	if n == 0 {
		return "0"
	}

	negative := n < 0
	if negative {
		n = -n
	}

	var digits []byte
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}

	if negative {
		return "-" + string(digits)
	}
	return string(digits)
}

// formatSeconds formats a duration in seconds with one decimal place,
// switching to whole milliseconds below one second.
func formatSeconds(seconds float64) string {
	if seconds < 1 {
		return formatInt(int(seconds*1000)) + "ms"
	}
	whole := int(seconds)
	frac := int((seconds - float64(whole)) * 10)
	return formatInt(whole) + "." + formatInt(frac) + "s"
}
