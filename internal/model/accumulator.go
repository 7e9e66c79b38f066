// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"github.com/jeranaias/mull-tui/internal/api"
)

// =============================================================================
// STREAM REDUCER
// =============================================================================

// Reduce folds one stream event into an in-progress assistant message and
// returns the updated message.
//
// Reduce is pure: it never mutates its input, performs no validation, and
// never reorders content. Fragments append to their channel in arrival
// order, so the result is identical no matter how the server chunked the
// text. Malformed and start events are no-ops; a usage event latches the
// reported totals onto the message.
func Reduce(msg Message, ev api.StreamEvent) Message {
	switch ev.Kind {
	case api.EventDelta:
		if ev.Channel == api.ChannelThinking {
			msg.Thinking += ev.Fragment
		} else {
			msg.Content += ev.Fragment
		}
	case api.EventUsage:
		if ev.Usage != nil {
			u := *ev.Usage
			msg.Usage = &u
		}
	}
	// EventStart, EventStop, EventMalformed and EventFault leave the
	// message unchanged. Completion and failure are stream-level states,
	// not message content.
	return msg
}

// ReduceAll folds a sequence of events into the message.
func ReduceAll(msg Message, events []api.StreamEvent) Message {
	for _, ev := range events {
		msg = Reduce(msg, ev)
	}
	return msg
}

// =============================================================================
// TITLE DERIVATION
// =============================================================================

// TitleRunes is how many leading characters of the first user message
// become the session title.
const TitleRunes = 20

// DeriveTitle derives a session title from the first user message content.
// The cut is rune-based so multibyte characters are never split.
func DeriveTitle(content string) string {
	runes := []rune(content)
	if len(runes) <= TitleRunes {
		return content
	}
	return string(runes[:TitleRunes])
}
