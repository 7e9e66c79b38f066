// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/mull-tui/internal/model"
	"github.com/jeranaias/mull-tui/internal/util"
)

// =============================================================================
// TOP-LEVEL VIEW
// =============================================================================

// View renders the chat screen.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var body string
	if m.showPicker {
		body = m.renderPicker()
	} else {
		body = m.viewport.View()
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		body,
		m.renderInput(),
		m.renderStatusBar(),
	)
}

// =============================================================================
// HEADER
// =============================================================================

func (m Model) renderHeader() string {
	title := m.theme.HeaderTitle.Render("mull")

	sessionTitle := "New Chat"
	if sess := m.store.Current(); sess != nil {
		sessionTitle = sess.DisplayTitle()
	}
	meta := m.theme.HeaderMeta.Render(
		util.TruncateWidth(sessionTitle, 40) + "  " + m.cfg.API.Model)

	line := title + "  " + meta
	return m.theme.Header.Width(max(m.width, 0)).Render(line)
}

// =============================================================================
// TRANSCRIPT
// =============================================================================

// renderTranscript builds the viewport content for the current session.
// Only messages inside the scroll window (plus overscan) are rendered in
// full; the rest become blank placeholders of their estimated or measured
// height so offsets stay stable.
func (m *Model) renderTranscript() string {
	sess := m.store.Current()
	if sess == nil || sess.MessageCount() == 0 {
		return m.renderEmptyState()
	}

	msgs := sess.Messages
	first, last := m.window.Range(msgs, m.viewport.YOffset, m.viewport.Height)

	var b strings.Builder
	for i, msg := range msgs {
		if i < first || i > last {
			b.WriteString(Placeholder(m.window.HeightOf(i, msg)))
			b.WriteString("\n")
			continue
		}

		rendered := m.renderMessage(i, msg, sess.ID)
		m.window.Record(i, lipgloss.Height(rendered)+1)
		b.WriteString(rendered)
		b.WriteString("\n\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// renderMessage renders one transcript entry: role label, optional
// thinking section, content, optional stats line.
func (m *Model) renderMessage(index int, msg model.Message, sessionID string) string {
	isPending := m.state.busy() &&
		sessionID == m.streamSessionID &&
		index == m.pendingIndex(sessionID)

	var parts []string

	switch msg.Role {
	case model.RoleUser:
		parts = append(parts, m.theme.UserLabel.Render(msg.Role.DisplayName()))
		parts = append(parts, m.theme.MessageBody.Render(msg.Content))

	case model.RoleAssistant:
		parts = append(parts, m.theme.AssistantLabel.Render(msg.Role.DisplayName()))

		if section := m.renderThinking(msg, isPending); section != "" {
			parts = append(parts, section)
		}

		switch {
		case isPending:
			// Raw text during streaming; markdown would flicker on every
			// half-finished code fence.
			body := msg.Content
			if body != "" {
				parts = append(parts, m.theme.MessageBody.Render(body)+m.theme.StreamCursor.Render("▌"))
			} else if !m.thinking {
				parts = append(parts, m.spinner.View())
			}
		case msg.Content != "":
			parts = append(parts, m.markdown.Render(msg.ID, msg.Content))
		}

		if m.cfg.UI.ShowStats && !isPending {
			if stats := msg.FormatStats(); stats != "" {
				parts = append(parts, m.theme.StatsLine.Render(stats))
			}
		}
	}

	return strings.Join(parts, "\n")
}

// renderThinking renders the thinking section of an assistant message.
// While the stream is still on the thinking channel this shows a live
// timer; afterwards the latched duration is part of the stats line and the
// body is only shown when the config asks for it.
func (m *Model) renderThinking(msg model.Message, isPending bool) string {
	if isPending && m.thinking {
		elapsed := time.Since(m.thinkingStarted).Seconds()
		header := m.theme.ThinkingHeader.Render("thinking") + " " +
			m.spinner.View() + " " +
			m.theme.ThinkingTimer.Render(strconv.FormatFloat(elapsed, 'f', 0, 64)+"s")
		if m.cfg.UI.ShowThinking && msg.Thinking != "" {
			return header + "\n" + m.theme.ThinkingBody.Render(msg.Thinking)
		}
		return header
	}

	if !m.cfg.UI.ShowThinking || !msg.HasThinking() {
		return ""
	}
	return m.theme.ThinkingHeader.Render("thinking") + "\n" +
		m.theme.ThinkingBody.Render(msg.Thinking)
}

// pendingIndex returns the index of the message the active stream writes
// to, which is the last message of its session.
func (m *Model) pendingIndex(sessionID string) int {
	sess, ok := m.store.Get(sessionID)
	if !ok {
		return -1
	}
	return sess.MessageCount() - 1
}

func (m Model) renderEmptyState() string {
	hint := m.theme.HeaderMeta.Render("Type a message and press Enter. /help for commands.")
	return lipgloss.Place(m.viewport.Width, m.viewport.Height, lipgloss.Center, lipgloss.Center, hint)
}

// =============================================================================
// SESSION PICKER
// =============================================================================

func (m Model) renderPicker() string {
	sessions := m.store.List()
	current := ""
	if sess := m.store.Current(); sess != nil {
		current = sess.ID
	}

	var b strings.Builder
	b.WriteString(m.theme.PickerTitle.Render("Sessions"))
	b.WriteString("\n\n")

	if len(sessions) == 0 {
		b.WriteString(m.theme.PickerMeta.Render("no sessions"))
	}

	for i, sess := range sessions {
		marker := "  "
		if sess.ID == current {
			marker = "* "
		}

		label := strconv.Itoa(i+1) + ". " + marker + util.TruncateWidth(sess.DisplayTitle(), 36)
		meta := "  " + sess.UpdatedAt.Format("Jan 2 15:04") +
			"  " + strconv.Itoa(sess.MessageCount()) + " msgs"

		style := m.theme.PickerItem
		if i == m.pickerIndex {
			style = m.theme.PickerSelected
		}
		b.WriteString(style.Render(label))
		b.WriteString(m.theme.PickerMeta.Render(meta))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.theme.PickerMeta.Render("Enter select - d delete - n new - x clear all - Esc close"))

	box := m.theme.PickerBox.Render(b.String())
	return lipgloss.Place(m.viewport.Width, m.viewport.Height, lipgloss.Center, lipgloss.Center, box)
}

// =============================================================================
// INPUT AREA AND STATUS BAR
// =============================================================================

func (m Model) renderInput() string {
	line := m.input.View()

	count := ""
	if n := len(m.input.Value()); n > 0 {
		count = m.theme.CharCount.Render(strconv.Itoa(n))
	}

	content := line
	if count != "" {
		content = lipgloss.JoinHorizontal(lipgloss.Bottom, line, " ", count)
	}
	return m.theme.InputLine.Width(max(m.width, 1)).Render(content)
}

func (m Model) renderStatusBar() string {
	var state string
	switch m.state {
	case StateErrored:
		state = m.theme.StatusError.Render(m.state.String())
	case StateStreaming, StateSubmitting:
		state = m.theme.StatusState.Render(m.state.String() + " " + m.spinner.View())
	default:
		state = m.theme.StatusState.Render(m.state.String())
	}

	msg := m.statusMsg
	if m.state == StateErrored && m.lastErr != nil {
		msg = m.lastErr.Error()
	}

	hints := m.theme.StatusKey.Render("C-n") + m.theme.StatusDesc.Render(" new  ") +
		m.theme.StatusKey.Render("C-s") + m.theme.StatusDesc.Render(" sessions  ") +
		m.theme.StatusKey.Render("C-c") + m.theme.StatusDesc.Render(" quit")

	left := state
	if msg != "" {
		left += "  " + m.theme.StatusDesc.Render(util.TruncateWidth(msg, max(m.width-40, 10)))
	}

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(hints) - 2
	if gap < 1 {
		gap = 1
	}
	return m.theme.StatusBar.Width(max(m.width, 1)).Render(left + strings.Repeat(" ", gap) + hints)
}
