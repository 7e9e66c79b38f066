// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/glamour"
	gstyles "github.com/charmbracelet/glamour/styles"

	"github.com/jeranaias/mull-tui/internal/ui/styles"
)

// markdownRenderer renders completed assistant answers as terminal
// markdown. Output is cached by message ID: a transcript repaint at 30fps
// must not re-run glamour for every visible message.
//
// Streaming text is deliberately not passed through here; half-finished
// markdown renders badly, so the stream shows raw text and the answer is
// re-rendered once on completion.
type markdownRenderer struct {
	width int
	style string
	tr    *glamour.TermRenderer
	cache map[string]string
}

func newMarkdownRenderer(theme *styles.Theme, width int) *markdownRenderer {
	style := gstyles.LightStyle
	if theme != nil && theme.Dark {
		style = gstyles.DarkStyle
	}
	r := &markdownRenderer{
		width: width,
		style: style,
		cache: make(map[string]string),
	}
	r.rebuild()
	return r
}

func (r *markdownRenderer) rebuild() {
	tr, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(r.style),
		glamour.WithWordWrap(r.width),
	)
	if err != nil {
		// Raw-text fallback; Render handles tr == nil.
		r.tr = nil
		return
	}
	r.tr = tr
}

// SetWidth rebuilds the renderer for a new wrap width and drops the cache.
func (r *markdownRenderer) SetWidth(width int) {
	if width == r.width {
		return
	}
	r.width = width
	r.cache = make(map[string]string)
	r.rebuild()
}

// Invalidate drops one cached rendering, e.g. when a message's content is
// finalized.
func (r *markdownRenderer) Invalidate(id string) {
	delete(r.cache, id)
}

// Render returns the markdown rendering of content, cached under id.
// On any renderer failure the raw content comes back unchanged.
func (r *markdownRenderer) Render(id, content string) string {
	if out, ok := r.cache[id]; ok {
		return out
	}
	if r.tr == nil || content == "" {
		return content
	}

	out, err := r.tr.Render(content)
	if err != nil {
		return content
	}
	// Glamour pads with leading/trailing blank lines; the transcript does
	// its own spacing.
	out = strings.Trim(out, "\n")

	r.cache[id] = out
	return out
}
