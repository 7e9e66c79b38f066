// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// This file implements the slash commands and the session picker overlay.
package chat

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// =============================================================================
// SLASH COMMANDS
// =============================================================================

// handleCommand dispatches a /command typed into the composer.
func (m Model) handleCommand(content string) (tea.Model, tea.Cmd) {
	cmd := strings.ToLower(strings.Fields(content)[0])

	switch cmd {
	case "/new":
		return m.startNewChat()

	case "/sessions":
		return m.openPicker()

	case "/clear":
		m.store.ClearAll()
		m.window.Reset()
		m.scroll.Follow()
		m.statusMsg = "all sessions cleared"
		m.updateViewport()
		return m, nil

	case "/quit", "/exit":
		m.cancel()
		m.quitting = true
		return m, tea.Quit

	case "/help":
		m.statusMsg = "/new  /sessions  /clear  /quit - C-n new - C-s sessions - Esc cancel"
		return m, nil

	default:
		m.statusMsg = "unknown command: " + cmd
		return m, nil
	}
}

// =============================================================================
// SESSION PICKER
// =============================================================================

// openPicker shows the session list overlay.
func (m Model) openPicker() (tea.Model, tea.Cmd) {
	m.showPicker = true
	m.pickerIndex = 0
	m.input.Blur()
	return m, nil
}

// closePicker hides the overlay and repaints the transcript, which may now
// show a different session.
func (m Model) closePicker() (tea.Model, tea.Cmd) {
	m.showPicker = false
	m.window.Reset()
	m.scroll.Follow()
	m.updateViewport()
	m.viewport.GotoBottom()
	m.input.Focus()
	return m, nil
}

// handlePickerKey drives the session picker: j/k or arrows move, 1-9 jump,
// Enter selects, d deletes, n creates, x clears all, Esc closes.
func (m Model) handlePickerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	sessions := m.store.List()

	switch msg.String() {
	case "esc", "ctrl+s", "q":
		return m.closePicker()

	case "up", "k":
		if m.pickerIndex > 0 {
			m.pickerIndex--
		}
		return m, nil

	case "down", "j":
		if m.pickerIndex < len(sessions)-1 {
			m.pickerIndex++
		}
		return m, nil

	case "enter":
		if m.pickerIndex < len(sessions) {
			m.store.Select(sessions[m.pickerIndex].ID)
		}
		return m.closePicker()

	case "d":
		if m.pickerIndex < len(sessions) {
			m.store.Delete(sessions[m.pickerIndex].ID)
			if m.pickerIndex > 0 {
				m.pickerIndex--
			}
		}
		return m, nil

	case "n":
		if m.state.busy() {
			m.abortStream()
		}
		m.store.Create()
		return m.closePicker()

	case "x":
		m.store.ClearAll()
		m.pickerIndex = 0
		return m.closePicker()

	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		idx := int(msg.String()[0] - '1')
		if idx < len(sessions) {
			m.store.Select(sessions[idx].ID)
			return m.closePicker()
		}
		return m, nil
	}

	return m, nil
}
