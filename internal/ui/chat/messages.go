// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// This file defines the Bubble Tea message types used by the chat screen.
// Every stream-related message carries the stream ID it belongs to; handlers
// drop messages whose ID is not the active one.
package chat

import (
	"time"

	"github.com/jeranaias/mull-tui/internal/api"
	"github.com/jeranaias/mull-tui/internal/config"
)

// =============================================================================
// STREAMING MESSAGES
// =============================================================================

// StreamStartMsg signals that a stream request has been opened.
type StreamStartMsg struct {
	StreamID  uint64
	StartTime time.Time
}

// StreamEventMsg delivers one decoded wire event from the active stream.
type StreamEventMsg struct {
	StreamID uint64
	Event    api.StreamEvent
}

// StreamDoneMsg signals that the stream ended. Err is nil after an orderly
// stop record, context.Canceled after a local cancel, and a transport or
// decode error otherwise (partial content stays in the transcript).
type StreamDoneMsg struct {
	StreamID uint64
	Err      error
}

// StreamTickMsg drives batched rendering at 30fps while a stream is active.
type StreamTickMsg struct {
	Time time.Time
}

// =============================================================================
// CONFIG MESSAGES
// =============================================================================

// ConfigReloadedMsg delivers a freshly validated config after a live reload
// of ~/.mull/config.toml.
type ConfigReloadedMsg struct {
	Config *config.Config
}
