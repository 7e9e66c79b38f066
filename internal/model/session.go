// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/mull-tui/internal/api"
)

// =============================================================================
// SESSION TYPE
// =============================================================================

// Session holds one chat conversation with its history and metadata.
type Session struct {
	// Identity
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Messages, oldest first.
	Messages []Message `json:"messages"`
}

// NewSession creates a new empty session with a generated ID.
func NewSession() *Session {
	now := time.Now()
	return &Session{
		ID:        uuid.NewString(),
		CreatedAt: now,
		UpdatedAt: now,
		Messages:  make([]Message, 0),
	}
}

// =============================================================================
// MESSAGE MANAGEMENT
// =============================================================================

// AddMessage appends a message to the session.
func (s *Session) AddMessage(msg Message) {
	s.Messages = append(s.Messages, msg)
	s.UpdatedAt = time.Now()
	s.updateTitle()
}

// ReplaceLast replaces the last message in place. Used during streaming to
// swap the accumulating assistant message into its placeholder slot without
// changing the transcript length.
func (s *Session) ReplaceLast(msg Message) {
	if len(s.Messages) == 0 {
		return
	}
	s.Messages[len(s.Messages)-1] = msg
	s.UpdatedAt = time.Now()
}

// LastMessage returns the most recent message and true, or false if empty.
func (s *Session) LastMessage() (Message, bool) {
	if len(s.Messages) == 0 {
		return Message{}, false
	}
	return s.Messages[len(s.Messages)-1], true
}

// MessageCount returns the number of messages.
func (s *Session) MessageCount() int {
	return len(s.Messages)
}

// IsEmpty returns true if there are no messages.
func (s *Session) IsEmpty() bool {
	return len(s.Messages) == 0
}

// =============================================================================
// REQUEST CONVERSION
// =============================================================================

// ToChatMessages converts the session history to the wire message format.
// Empty assistant messages (unfilled placeholders) are skipped so a request
// derived mid-submission never sends a blank turn.
func (s *Session) ToChatMessages() []api.ChatMessage {
	messages := make([]api.ChatMessage, 0, len(s.Messages))
	for _, msg := range s.Messages {
		if msg.Role == RoleAssistant && msg.Content == "" {
			continue
		}
		// Thinking content is client-side display state, never sent back.
		messages = append(messages, api.ChatMessage{
			Role:    msg.Role.String(),
			Content: msg.Content,
		})
	}
	return messages
}

// =============================================================================
// TITLE MANAGEMENT
// =============================================================================

// updateTitle derives the title from the first user message if not set.
func (s *Session) updateTitle() {
	if s.Title != "" {
		return
	}
	for _, msg := range s.Messages {
		if msg.Role == RoleUser {
			s.Title = DeriveTitle(msg.Content)
			return
		}
	}
}

// DisplayTitle returns the session title or a default.
func (s *Session) DisplayTitle() string {
	if s.Title != "" {
		return s.Title
	}
	return "New Chat"
}

// Clone creates a deep copy of the session.
func (s *Session) Clone() *Session {
	clone := &Session{
		ID:        s.ID,
		Title:     s.Title,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
		Messages:  make([]Message, len(s.Messages)),
	}
	copy(clone.Messages, s.Messages)
	return clone
}
