// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"
	"testing"

	"github.com/charmbracelet/bubbles/viewport"
)

// tallViewport returns a 10-line viewport over 100 lines of content.
func tallViewport() viewport.Model {
	vp := viewport.New(80, 10)
	vp.SetContent(strings.TrimRight(strings.Repeat("line\n", 100), "\n"))
	return vp
}

func TestScrollStartsFollowing(t *testing.T) {
	c := NewScrollCoordinator()
	if !c.AtBottom() {
		t.Error("fresh coordinator should be following")
	}
}

func TestScrollGrowthWhileFollowingSchedulesOnce(t *testing.T) {
	c := NewScrollCoordinator()

	// A burst of deltas schedules repeatedly but coalesces into one slot.
	c.ContentGrew()
	c.ContentGrew()
	c.ContentGrew()

	if !c.TakePending() {
		t.Fatal("expected a pending scroll after growth while following")
	}
	if c.TakePending() {
		t.Error("pending scroll should supersede, not stack")
	}
}

func TestScrollGrowthWhileDetachedDoesNothing(t *testing.T) {
	c := NewScrollCoordinator()

	vp := tallViewport()
	vp.GotoTop()
	c.Observe(vp)

	if c.AtBottom() {
		t.Fatal("scrolled to top should detach")
	}

	c.ContentGrew()
	if c.TakePending() {
		t.Error("growth while detached must never schedule a scroll")
	}
}

func TestScrollObserveWithinThresholdStaysFollowing(t *testing.T) {
	c := NewScrollCoordinator()

	vp := tallViewport()
	vp.GotoBottom()
	vp.LineUp(followThreshold) // still within the threshold
	c.Observe(vp)

	if !c.AtBottom() {
		t.Errorf("within %d lines of bottom should still count as following", followThreshold)
	}

	vp.LineUp(1) // now past it
	c.Observe(vp)
	if c.AtBottom() {
		t.Error("past the threshold should detach")
	}
}

func TestScrollDetachingDropsPending(t *testing.T) {
	c := NewScrollCoordinator()
	c.ContentGrew()

	vp := tallViewport()
	vp.GotoTop()
	c.Observe(vp)

	if c.TakePending() {
		t.Error("detaching should drop the not-yet-executed scroll request")
	}
}

func TestScrollFollowForcesPending(t *testing.T) {
	c := NewScrollCoordinator()

	vp := tallViewport()
	vp.GotoTop()
	c.Observe(vp)

	c.Follow()
	if !c.AtBottom() {
		t.Error("Follow should re-attach")
	}
	if !c.TakePending() {
		t.Error("Follow should schedule a scroll")
	}
}
