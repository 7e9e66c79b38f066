// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for chat sessions and messages.
//
// This package defines the core domain types used throughout the application
// and the stream reducer that builds assistant messages from decoded events.
//
// # Key Types
//
//   - Session: Container for a chat conversation with messages and metadata
//   - Message: Single message with role, content and thinking channels
//   - Role: Message role enumeration (user, assistant)
//
// # Streaming
//
// Assistant messages are built by folding stream events through Reduce:
//
//	msg := model.NewAssistantMessage()
//	for ev := range events {
//	    msg = model.Reduce(msg, ev)
//	}
//
// Reduce is pure and append-only, so the final message is independent of how
// the server chunked the response.
package model
