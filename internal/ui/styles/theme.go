// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds the styled components for the application.
type Theme struct {
	// Terminal capabilities
	Dark    bool
	Profile termenv.Profile

	// Layout dimensions
	Width  int
	Height int

	// ==========================================================================
	// HEADER
	// ==========================================================================

	Header      lipgloss.Style
	HeaderTitle lipgloss.Style
	HeaderMeta  lipgloss.Style

	// ==========================================================================
	// TRANSCRIPT
	// ==========================================================================

	UserLabel      lipgloss.Style
	AssistantLabel lipgloss.Style
	MessageBody    lipgloss.Style
	ThinkingHeader lipgloss.Style
	ThinkingBody   lipgloss.Style
	ThinkingTimer  lipgloss.Style
	StatsLine      lipgloss.Style
	StreamCursor   lipgloss.Style

	// ==========================================================================
	// INPUT AREA
	// ==========================================================================

	InputPrompt lipgloss.Style
	InputLine   lipgloss.Style
	CharCount   lipgloss.Style

	// ==========================================================================
	// STATUS BAR
	// ==========================================================================

	StatusBar   lipgloss.Style
	StatusKey   lipgloss.Style
	StatusDesc  lipgloss.Style
	StatusState lipgloss.Style
	StatusError lipgloss.Style

	// ==========================================================================
	// SESSION PICKER
	// ==========================================================================

	PickerBox      lipgloss.Style
	PickerTitle    lipgloss.Style
	PickerItem     lipgloss.Style
	PickerSelected lipgloss.Style
	PickerMeta     lipgloss.Style

	// ==========================================================================
	// ERROR BANNER
	// ==========================================================================

	ErrorBanner lipgloss.Style

	// ==========================================================================
	// SPINNER
	// ==========================================================================

	Spinner lipgloss.Style
}

// NewTheme creates a theme for the given mode: "dark", "light" or "auto".
// Auto asks the terminal for its background color; the explicit modes pin
// the adaptive palette to one side so a misdetecting terminal can be
// overridden from the config file.
func NewTheme(mode string) *Theme {
	dark := termenv.HasDarkBackground()
	switch mode {
	case "dark":
		dark = true
	case "light":
		dark = false
	}
	lipgloss.SetHasDarkBackground(dark)

	t := &Theme{
		Dark:    dark,
		Profile: termenv.ColorProfile(),
	}
	t.initStyles()
	return t
}

// SetSize records the terminal dimensions for styles that depend on width.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}

// initStyles initializes all the lip gloss styles.
func (t *Theme) initStyles() {
	// Header
	t.Header = lipgloss.NewStyle().
		Background(SurfaceDim).
		Padding(0, 1)
	t.HeaderTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Teal)
	t.HeaderMeta = lipgloss.NewStyle().
		Foreground(TextMuted)

	// Transcript
	t.UserLabel = lipgloss.NewStyle().
		Bold(true).
		Foreground(Teal)
	t.AssistantLabel = lipgloss.NewStyle().
		Bold(true).
		Foreground(Indigo)
	t.MessageBody = lipgloss.NewStyle().
		Foreground(TextPrimary)
	t.ThinkingHeader = lipgloss.NewStyle().
		Foreground(Violet).
		Italic(true)
	t.ThinkingBody = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Italic(true).
		PaddingLeft(2)
	t.ThinkingTimer = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true)
	t.StatsLine = lipgloss.NewStyle().
		Foreground(TextMuted)
	t.StreamCursor = lipgloss.NewStyle().
		Foreground(Indigo).
		Bold(true)

	// Input area
	t.InputPrompt = lipgloss.NewStyle().
		Bold(true).
		Foreground(Teal)
	t.InputLine = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderTop(true).
		BorderForeground(Overlay)
	t.CharCount = lipgloss.NewStyle().
		Foreground(TextMuted)

	// Status bar
	t.StatusBar = lipgloss.NewStyle().
		Background(SurfaceDim).
		Foreground(TextSecondary).
		Padding(0, 1)
	t.StatusKey = lipgloss.NewStyle().
		Bold(true).
		Foreground(Teal)
	t.StatusDesc = lipgloss.NewStyle().
		Foreground(TextMuted)
	t.StatusState = lipgloss.NewStyle().
		Bold(true).
		Foreground(Emerald)
	t.StatusError = lipgloss.NewStyle().
		Bold(true).
		Foreground(Rose)

	// Session picker
	t.PickerBox = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Indigo).
		Padding(1, 2)
	t.PickerTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Indigo)
	t.PickerItem = lipgloss.NewStyle().
		Foreground(TextPrimary)
	t.PickerSelected = lipgloss.NewStyle().
		Bold(true).
		Foreground(Teal)
	t.PickerMeta = lipgloss.NewStyle().
		Foreground(TextMuted)

	// Error banner
	t.ErrorBanner = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Rose).
		Foreground(Rose).
		Padding(0, 1)

	// Spinner
	t.Spinner = lipgloss.NewStyle().
		Foreground(Violet)
}
