// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/jeranaias/mull-tui/internal/model"
)

// overscanLines is the extra margin rendered above and below the viewport so
// small scrolls never expose an unrendered gap.
const overscanLines = 12

// MessageWindow limits full rendering to the messages that intersect the
// viewport plus an overscan margin. Off-window messages are stood in for by
// blank placeholders of the same height, keyed by message index, so the
// total line count and every scroll offset stay stable.
//
// A message that has never been rendered gets a width-based line estimate;
// once rendered, its measured height is recorded and used instead. Changing
// the width invalidates all measurements.
type MessageWindow struct {
	width    int
	measured map[int]int
}

// NewMessageWindow creates a window for the given content width.
func NewMessageWindow(width int) *MessageWindow {
	return &MessageWindow{
		width:    width,
		measured: make(map[int]int),
	}
}

// SetWidth updates the content width. Measurements are wrap-dependent, so a
// width change drops them all.
func (w *MessageWindow) SetWidth(width int) {
	if width == w.width {
		return
	}
	w.width = width
	w.measured = make(map[int]int)
}

// Reset drops all measurements, used when the visible session changes.
func (w *MessageWindow) Reset() {
	w.measured = make(map[int]int)
}

// Invalidate drops the measurement for one message, e.g. when a streaming
// message grows or a completed message is re-rendered as markdown.
func (w *MessageWindow) Invalidate(index int) {
	delete(w.measured, index)
}

// Record stores the measured height of a rendered message.
func (w *MessageWindow) Record(index, height int) {
	if height > 0 {
		w.measured[index] = height
	}
}

// HeightOf returns the measured height when known, the estimate otherwise.
func (w *MessageWindow) HeightOf(index int, msg model.Message) int {
	if h, ok := w.measured[index]; ok {
		return h
	}
	return w.Estimate(msg)
}

// Estimate guesses the rendered height of a message from its content and
// the current width: explicit newlines plus wrap, a label line, and the
// blank separator line after each message.
func (w *MessageWindow) Estimate(msg model.Message) int {
	width := w.width
	if width < 20 {
		width = 80
	}

	lines := estimateLines(msg.Content, width)
	if msg.HasThinking() {
		// Thinking header plus the indented thinking body.
		lines += 1 + estimateLines(msg.Thinking, width-2)
	}

	// Role label + content + trailing separator.
	return 1 + lines + 1
}

// Range returns the [first, last] message indices that intersect the window
// [top, top+height) with overscan applied, walking cumulative heights.
// Returns (0, -1) for an empty transcript.
func (w *MessageWindow) Range(msgs []model.Message, top, height int) (int, int) {
	if len(msgs) == 0 {
		return 0, -1
	}

	lo := top - overscanLines
	hi := top + height + overscanLines

	first, last := -1, -1
	y := 0
	for i, msg := range msgs {
		h := w.HeightOf(i, msg)
		if y+h > lo && y < hi {
			if first == -1 {
				first = i
			}
			last = i
		}
		y += h
		if y >= hi {
			break
		}
	}

	if first == -1 {
		// Window is past the end; keep the final message renderable.
		first, last = len(msgs)-1, len(msgs)-1
	}
	return first, last
}

// Placeholder returns a blank stand-in of the given height.
func Placeholder(height int) string {
	if height <= 1 {
		return ""
	}
	return strings.Repeat("\n", height-1)
}

// estimateLines counts the lines content occupies at the given width:
// explicit newlines plus greedy wrap of each paragraph. Wrap uses display
// width, not rune count, so wide CJK text doesn't underestimate.
func estimateLines(content string, width int) int {
	if content == "" {
		return 1
	}
	if width < 1 {
		width = 1
	}

	lines := 0
	for _, para := range strings.Split(content, "\n") {
		n := (runewidth.StringWidth(para) + width - 1) / width
		if n < 1 {
			n = 1
		}
		lines += n
	}
	return lines
}
