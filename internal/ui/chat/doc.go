// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat implements the chat screen of the mull TUI.
//
// The package is built around a small state machine: Idle, Submitting while
// the request is being prepared, Streaming while events arrive, and a
// terminal outcome (Completed, Errored or Cancelled) that behaves like Idle
// for input purposes. Exactly one stream is active at a time; submitting
// while a stream runs cancels it first (last submission wins). Every stream
// is tagged with a monotonically increasing ID and messages carrying a stale
// ID are dropped, so buffered events from a superseded or cancelled stream
// can never touch the transcript.
//
// Rendering is decoupled from event arrival: deltas are folded into the
// pending assistant message as they come in, but the viewport is only
// rebuilt on a 30fps tick, and scroll-to-bottom requests are coalesced into
// a single pending slot executed on that same tick.
package chat
