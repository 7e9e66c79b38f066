// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// This file contains the commands that bridge the API stream into the
// Bubble Tea loop. Deltas arrive far faster than the terminal can usefully
// repaint, so folding happens per event but rendering is gated behind a
// 30fps tick.
package chat

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/mull-tui/internal/api"
)

// streamFrameInterval is the render cadence during streaming (30fps).
// PERFORMANCE: Unthrottled repaints during a fast stream peg the CPU and
// cause visible flicker.
const streamFrameInterval = 33 * time.Millisecond

// streamTickCmd schedules the next render frame.
func streamTickCmd() tea.Cmd {
	return tea.Tick(streamFrameInterval, func(t time.Time) tea.Msg {
		return StreamTickMsg{Time: t}
	})
}

// awaitStreamCmd waits for the next event from the stream channels and
// converts it into a Bubble Tea message. The handler re-arms this command
// after every delivered event; when the event channel closes, the error
// channel yields either the terminal error or nil for an orderly stop.
func awaitStreamCmd(id uint64, events <-chan api.StreamEvent, errs <-chan error) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return StreamDoneMsg{StreamID: id, Err: <-errs}
		}
		return StreamEventMsg{StreamID: id, Event: ev}
	}
}
