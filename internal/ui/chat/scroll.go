// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import "github.com/charmbracelet/bubbles/viewport"

// followThreshold is how many lines from the true bottom still count as
// "at the bottom". Anti-aliasing of wrapped lines and the streaming cursor
// make an exact-zero comparison flap during fast streams.
const followThreshold = 3

// ScrollCoordinator decides when the transcript follows new content.
//
// While the user sits at (or within followThreshold lines of) the bottom,
// content growth schedules a scroll-to-end. The schedule is a single slot:
// scheduling again before execution supersedes the previous request rather
// than stacking, so a burst of deltas produces exactly one scroll on the
// next render tick. Once the user scrolls up past the threshold they are
// detached and growth never moves their view.
type ScrollCoordinator struct {
	atBottom bool
	pending  bool
}

// NewScrollCoordinator returns a coordinator in the following state, which
// is where a fresh transcript starts.
func NewScrollCoordinator() *ScrollCoordinator {
	return &ScrollCoordinator{atBottom: true}
}

// AtBottom reports whether the view is currently following the bottom.
func (c *ScrollCoordinator) AtBottom() bool {
	return c.atBottom
}

// Observe recomputes the follow state from the viewport's scroll position.
// Call it after every user-driven scroll.
func (c *ScrollCoordinator) Observe(vp viewport.Model) {
	distance := vp.TotalLineCount() - (vp.YOffset + vp.Height)
	c.atBottom = distance <= followThreshold
	if !c.atBottom {
		// Detaching drops any not-yet-executed follow request.
		c.pending = false
	}
}

// Follow forces the following state, used right after the user submits a
// message so their own input is always brought into view.
func (c *ScrollCoordinator) Follow() {
	c.atBottom = true
	c.pending = true
}

// ContentGrew records that the transcript got taller. Schedules a
// scroll-to-end only when following; superseding, never stacking.
func (c *ScrollCoordinator) ContentGrew() {
	if c.atBottom {
		c.pending = true
	}
}

// TakePending consumes the pending scroll request. The caller performs the
// actual GotoBottom exactly once per true return.
func (c *ScrollCoordinator) TakePending() bool {
	if !c.pending {
		return false
	}
	c.pending = false
	return true
}
