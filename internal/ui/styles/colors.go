// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for the mull TUI.
// All colors use Lip Gloss AdaptiveColor so light and dark terminals get
// appropriate variants without separate palettes.
package styles

import "github.com/charmbracelet/lipgloss"

// =============================================================================
// ACCENT COLORS
// =============================================================================

// Indigo - primary accent, assistant labels, selections
var Indigo = lipgloss.AdaptiveColor{Light: "#4F46E5", Dark: "#818CF8"}

// Teal - brand color, user labels, key hints
var Teal = lipgloss.AdaptiveColor{Light: "#0D9488", Dark: "#2DD4BF"}

// Violet - thinking sections
var Violet = lipgloss.AdaptiveColor{Light: "#7C3AED", Dark: "#C4B5FD"}

// =============================================================================
// SEMANTIC COLORS
// =============================================================================

// Rose - errors and failed streams
var Rose = lipgloss.AdaptiveColor{Light: "#E11D48", Dark: "#FB7185"}

// Amber - warnings, cancelled streams
var Amber = lipgloss.AdaptiveColor{Light: "#D97706", Dark: "#FBBF24"}

// Emerald - completed streams, success states
var Emerald = lipgloss.AdaptiveColor{Light: "#059669", Dark: "#34D399"}

// =============================================================================
// SURFACE AND TEXT COLORS
// =============================================================================

// SurfaceDim - header and status bar backgrounds
var SurfaceDim = lipgloss.AdaptiveColor{Light: "#F4F4F5", Dark: "#1C1C28"}

// Overlay - borders and separators
var Overlay = lipgloss.AdaptiveColor{Light: "#E4E4E7", Dark: "#33334A"}

// TextPrimary - main body text
var TextPrimary = lipgloss.AdaptiveColor{Light: "#27272A", Dark: "#D4D4E2"}

// TextSecondary - labels and metadata
var TextSecondary = lipgloss.AdaptiveColor{Light: "#71717A", Dark: "#A0A0B8"}

// TextMuted - timestamps, stats lines, hints
var TextMuted = lipgloss.AdaptiveColor{Light: "#A1A1AA", Dark: "#6B6B85"}
