// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/mull-tui/internal/api"
	"github.com/jeranaias/mull-tui/internal/config"
	"github.com/jeranaias/mull-tui/internal/model"
	"github.com/jeranaias/mull-tui/internal/store"
	"github.com/jeranaias/mull-tui/internal/ui/styles"
)

// =============================================================================
// CONTROLLER STATE
// =============================================================================

// State is the chat controller state. The terminal outcomes behave like
// Idle for input purposes; they exist so the status bar can report how the
// last stream ended.
type State int

const (
	StateIdle State = iota
	StateSubmitting
	StateStreaming
	StateCompleted
	StateErrored
	StateCancelled
)

// String returns the state name for the status bar.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "ready"
	case StateSubmitting:
		return "sending"
	case StateStreaming:
		return "streaming"
	case StateCompleted:
		return "done"
	case StateErrored:
		return "error"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// busy reports whether a stream is in flight.
func (s State) busy() bool {
	return s == StateSubmitting || s == StateStreaming
}

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the Bubble Tea model for the chat screen.
type Model struct {
	state State

	theme *styles.Theme
	cfg   *config.Config

	client *api.Client
	store  *store.Store

	width  int
	height int

	// UI components
	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model
	keyMap   KeyMap

	// Scroll and windowing
	scroll *ScrollCoordinator
	window *MessageWindow

	// Active stream. streamSeq only ever increases; a message whose
	// StreamID differs from activeStreamID belongs to a superseded or
	// cancelled stream and is dropped.
	cancelMgr       *cancelManager
	streamSeq       uint64
	activeStreamID  uint64
	streamSessionID string
	streamEvents    <-chan api.StreamEvent
	streamErrs      <-chan error

	// The assistant message being accumulated by the active stream.
	pendingMsg model.Message

	// Thinking timer. thinkingElapsed latches when the first text delta
	// arrives or when the stream ends, whichever comes first, and never
	// changes afterwards.
	thinking        bool
	thinkingStarted time.Time
	thinkingElapsed time.Duration

	// Render gating: deltas set renderDirty, the 30fps tick repaints.
	renderDirty bool

	// Markdown rendering of completed answers.
	markdown *markdownRenderer

	// Session picker overlay
	showPicker  bool
	pickerIndex int

	// Status line
	statusMsg string
	lastErr   error

	quitting bool
}

// New creates the chat model.
func New(cfg *config.Config, client *api.Client, st *store.Store, theme *styles.Theme) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask anything..."
	ti.CharLimit = 4096
	ti.Focus()

	vp := viewport.New(80, 20)

	sp := spinner.New()
	sp.Spinner = spinner.Spinner{
		Frames: []string{"|", "/", "-", "\\"},
		FPS:    time.Second / 30,
	}
	sp.Style = theme.Spinner

	return Model{
		state:     StateIdle,
		theme:     theme,
		cfg:       cfg,
		client:    client,
		store:     st,
		viewport:  vp,
		input:     ti,
		spinner:   sp,
		keyMap:    DefaultKeyMap(),
		scroll:    NewScrollCoordinator(),
		window:    NewMessageWindow(76),
		cancelMgr: newCancelManager(),
		markdown:  newMarkdownRenderer(theme, 76),
	}
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Init starts the input cursor blink.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update dispatches messages to their handlers.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case StreamStartMsg:
		return m.handleStreamStart(msg)

	case StreamEventMsg:
		return m.handleStreamEvent(msg)

	case StreamTickMsg:
		return m.handleStreamTick(msg)

	case StreamDoneMsg:
		return m.handleStreamDone(msg)

	case ConfigReloadedMsg:
		return m.handleConfigReloaded(msg)

	case spinner.TickMsg:
		if m.state.busy() {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	default:
		var cmds []tea.Cmd

		if !m.showPicker {
			var inputCmd tea.Cmd
			m.input, inputCmd = m.input.Update(msg)
			cmds = append(cmds, inputCmd)
		}

		var vpCmd tea.Cmd
		m.viewport, vpCmd = m.viewport.Update(msg)
		cmds = append(cmds, vpCmd)

		return m, tea.Batch(cmds...)
	}
}

// =============================================================================
// ACCESSORS (used by main and tests)
// =============================================================================

// CurrentState returns the controller state.
func (m Model) CurrentState() State {
	return m.state
}

// Store returns the session store backing this model.
func (m Model) Store() *store.Store {
	return m.store
}
