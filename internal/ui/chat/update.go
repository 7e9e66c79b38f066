// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/mull-tui/internal/api"
	"github.com/jeranaias/mull-tui/internal/model"
)

// Layout constants for the resize math. Conservative: slightly larger than
// the actual rendered heights so the viewport never overflows the terminal.
const (
	headerHeight    = 1
	inputAreaHeight = 3
	statusBarHeight = 1
)

// =============================================================================
// RESIZE
// =============================================================================

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height

	vpHeight := m.height - headerHeight - inputAreaHeight - statusBarHeight
	if vpHeight < 1 {
		vpHeight = 1
	}
	m.viewport.Width = m.width
	m.viewport.Height = vpHeight

	contentWidth := m.width - 2
	if contentWidth < 20 {
		contentWidth = 20
	}
	m.window.SetWidth(contentWidth)
	m.markdown.SetWidth(contentWidth)

	inputWidth := m.width - 6
	if inputWidth < 10 {
		inputWidth = 10
	}
	m.input.Width = inputWidth

	if m.theme != nil {
		m.theme.SetSize(m.width, m.height)
	}

	m.updateViewport()
	if m.scroll.AtBottom() {
		m.viewport.GotoBottom()
	}
	return m, nil
}

// =============================================================================
// KEYS
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keyMap.Quit) {
		m.cancel()
		m.quitting = true
		return m, tea.Quit
	}

	if m.showPicker {
		return m.handlePickerKey(msg)
	}

	switch {
	case key.Matches(msg, m.keyMap.Cancel):
		if m.state.busy() {
			return m.cancelStream()
		}
		m.statusMsg = ""
		m.lastErr = nil
		return m, nil

	case key.Matches(msg, m.keyMap.Submit):
		return m.submitInput()

	case key.Matches(msg, m.keyMap.NewChat):
		return m.startNewChat()

	case key.Matches(msg, m.keyMap.Sessions):
		return m.openPicker()

	case key.Matches(msg, m.keyMap.Up):
		m.viewport.LineUp(1)
		m.scroll.Observe(m.viewport)
		return m, nil

	case key.Matches(msg, m.keyMap.Down):
		m.viewport.LineDown(1)
		m.scroll.Observe(m.viewport)
		return m, nil

	case key.Matches(msg, m.keyMap.PageUp):
		m.viewport.HalfViewUp()
		m.scroll.Observe(m.viewport)
		return m, nil

	case key.Matches(msg, m.keyMap.PageDown):
		m.viewport.HalfViewDown()
		m.scroll.Observe(m.viewport)
		return m, nil

	case key.Matches(msg, m.keyMap.Top):
		m.viewport.GotoTop()
		m.scroll.Observe(m.viewport)
		return m, nil

	case key.Matches(msg, m.keyMap.Bottom):
		m.viewport.GotoBottom()
		m.scroll.Observe(m.viewport)
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// cancelStream aborts the active stream. Partial content already folded
// into the transcript stays there.
func (m Model) cancelStream() (tea.Model, tea.Cmd) {
	m.abortStream()
	m.statusMsg = "stream cancelled"
	m.updateViewport()
	m.input.Focus()
	return m, textinput.Blink
}

// =============================================================================
// STREAM MESSAGES
// =============================================================================

func (m Model) handleStreamStart(msg StreamStartMsg) (tea.Model, tea.Cmd) {
	if msg.StreamID != m.activeStreamID {
		return m, nil
	}
	m.state = StateStreaming
	return m, m.spinner.Tick
}

func (m Model) handleStreamEvent(msg StreamEventMsg) (tea.Model, tea.Cmd) {
	// Stale stream: a superseded or cancelled stream may still have events
	// buffered. They must never touch the transcript.
	if msg.StreamID != m.activeStreamID {
		return m, nil
	}

	ev := msg.Event
	if ev.Kind == api.EventDelta {
		switch ev.Channel {
		case api.ChannelThinking:
			if !m.thinking && m.thinkingElapsed == 0 {
				m.thinking = true
				m.thinkingStarted = time.Now()
			}
		case api.ChannelText:
			m.latchThinking()
		}
	}

	m.pendingMsg = model.Reduce(m.pendingMsg, ev)
	m.store.AppendOrReplaceLastAssistant(m.streamSessionID, m.pendingMsg)

	m.invalidatePendingHeight()
	m.renderDirty = true
	m.scroll.ContentGrew()

	return m, awaitStreamCmd(m.activeStreamID, m.streamEvents, m.streamErrs)
}

// handleStreamTick repaints at most once per frame and executes the single
// pending scroll request.
func (m Model) handleStreamTick(StreamTickMsg) (tea.Model, tea.Cmd) {
	if !m.state.busy() {
		return m, nil
	}

	if m.renderDirty {
		m.updateViewport()
		m.renderDirty = false
	}
	if m.scroll.TakePending() {
		m.viewport.GotoBottom()
	}

	return m, streamTickCmd()
}

func (m Model) handleStreamDone(msg StreamDoneMsg) (tea.Model, tea.Cmd) {
	if msg.StreamID != m.activeStreamID {
		return m, nil
	}

	// Whatever ended the stream, the thinking timer stops here and stays.
	m.latchThinking()
	m.finalizePending()
	m.cancel()
	m.streamEvents = nil
	m.streamErrs = nil

	switch {
	case msg.Err == nil:
		m.state = StateCompleted
		m.statusMsg = ""
		// Completed answers switch from raw text to markdown.
		m.markdown.Invalidate(m.pendingMsg.ID)
		m.invalidatePendingHeight()

	case errors.Is(msg.Err, context.Canceled):
		m.state = StateCancelled
		m.statusMsg = "stream cancelled"

	default:
		m.state = StateErrored
		m.lastErr = msg.Err
	}

	m.updateViewport()
	if m.scroll.TakePending() || m.scroll.AtBottom() {
		m.viewport.GotoBottom()
	}
	m.input.Focus()
	return m, textinput.Blink
}

func (m Model) handleConfigReloaded(msg ConfigReloadedMsg) (tea.Model, tea.Cmd) {
	if msg.Config == nil {
		return m, nil
	}
	m.cfg = msg.Config
	m.client.SetToken(msg.Config.API.Token)
	m.statusMsg = "config reloaded"
	return m, nil
}

// =============================================================================
// HELPERS
// =============================================================================

// abortStream cancels the transport and bumps the stream ID so events the
// request already buffered fail the staleness check. The channel holds up
// to 64 events, so without the bump a cancelled stream keeps mutating the
// transcript.
func (m *Model) abortStream() {
	m.cancel()
	m.latchThinking()
	m.finalizePending()
	m.streamSeq++
	m.activeStreamID = m.streamSeq
	m.streamEvents = nil
	m.streamErrs = nil
	m.state = StateCancelled
}

// latchThinking freezes the elapsed thinking time. Idempotent: once
// latched, the value never changes.
func (m *Model) latchThinking() {
	if m.thinking {
		m.thinkingElapsed = time.Since(m.thinkingStarted)
		m.thinking = false
	}
}

// finalizePending writes the latched thinking duration onto the pending
// assistant message and commits it.
func (m *Model) finalizePending() {
	if m.streamSessionID == "" {
		return
	}
	if m.thinkingElapsed > 0 && m.pendingMsg.ThinkingDuration == 0 {
		m.pendingMsg.ThinkingDuration = m.thinkingElapsed
		m.store.AppendOrReplaceLastAssistant(m.streamSessionID, m.pendingMsg)
	}
}

// invalidatePendingHeight drops the height measurement of the message the
// stream is growing, when it belongs to the visible session.
func (m *Model) invalidatePendingHeight() {
	sess := m.store.Current()
	if sess == nil || sess.ID != m.streamSessionID {
		return
	}
	if n := sess.MessageCount(); n > 0 {
		m.window.Invalidate(n - 1)
	}
}

func (m *Model) updateViewport() {
	m.viewport.SetContent(m.renderTranscript())
}
