// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// This file contains the submission pipeline: validation, slash command
// dispatch, the optimistic transcript mutations, and opening the stream.
package chat

import (
	"context"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/mull-tui/internal/model"
)

// =============================================================================
// INPUT SUBMISSION
// =============================================================================

// submitInput validates the composer content and starts a stream.
// Empty input and a missing token are both rejected without touching any
// session state; a stream already in flight is cancelled first (last
// submission wins).
func (m Model) submitInput() (tea.Model, tea.Cmd) {
	content := strings.TrimSpace(m.input.Value())
	if content == "" {
		return m, nil
	}

	if strings.HasPrefix(content, "/") {
		m.input.Reset()
		return m.handleCommand(content)
	}

	if !m.client.IsConfigured() {
		m.statusMsg = "no API token: set api.token in ~/.mull/config.toml"
		return m, nil
	}

	m.input.Reset()

	var streamID uint64
	m, streamID = m.beginStream(content)

	// Open the transport. The context is owned by the cancel manager so a
	// later submit or Esc can abort it from the Update loop.
	ctx, cancel := context.WithCancel(context.Background())
	m.setCancelFunc(cancel)

	sess, ok := m.store.Get(m.streamSessionID)
	if !ok {
		return m, nil
	}
	history := sess.ToChatMessages()
	events, errs := m.client.StreamChat(ctx, history)
	m.streamEvents = events
	m.streamErrs = errs

	m.updateViewport()
	m.viewport.GotoBottom()

	start := func() tea.Msg {
		return StreamStartMsg{StreamID: streamID, StartTime: time.Now()}
	}
	return m, tea.Batch(start, awaitStreamCmd(streamID, events, errs), streamTickCmd(), m.spinner.Tick)
}

// beginStream applies the optimistic submission mutations and allocates the
// stream ID. The user message is never rolled back, even if the stream
// fails before its first event. Split out from submitInput so the state
// machine is testable without a live transport.
func (m Model) beginStream(content string) (Model, uint64) {
	// Last submission wins: abort whatever is still streaming. Its buffered
	// messages become stale by the ID bump below.
	m.cancel()

	sess := m.store.Current()
	if sess == nil {
		sess = m.store.Create()
	}
	m.streamSessionID = sess.ID

	m.store.AppendMessage(sess.ID, model.NewUserMessage(content))

	placeholder := model.NewAssistantMessage()
	m.store.AppendMessage(sess.ID, placeholder)
	m.pendingMsg = placeholder

	m.streamSeq++
	m.activeStreamID = m.streamSeq

	m.state = StateSubmitting
	m.thinking = false
	m.thinkingElapsed = 0
	m.lastErr = nil
	m.statusMsg = ""
	m.renderDirty = true
	m.scroll.Follow()

	return m, m.activeStreamID
}

// startNewChat aborts any active stream and switches to a fresh session.
// Partial content stays in the old session's transcript.
func (m Model) startNewChat() (tea.Model, tea.Cmd) {
	if m.state.busy() {
		m.abortStream()
	}
	m.store.Create()
	m.statusMsg = "new chat"
	m.window.Reset()
	m.scroll.Follow()
	m.updateViewport()
	m.viewport.GotoBottom()
	return m, nil
}
