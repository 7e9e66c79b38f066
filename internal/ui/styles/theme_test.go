// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import "testing"

func TestNewThemeModes(t *testing.T) {
	dark := NewTheme("dark")
	if !dark.Dark {
		t.Error("dark mode should pin Dark to true")
	}

	light := NewTheme("light")
	if light.Dark {
		t.Error("light mode should pin Dark to false")
	}

	// Auto only has to produce a usable theme; the detected value depends on
	// the terminal running the tests.
	auto := NewTheme("auto")
	if auto == nil {
		t.Fatal("auto mode returned nil theme")
	}
}

func TestSetSize(t *testing.T) {
	th := NewTheme("dark")
	th.SetSize(120, 40)
	if th.Width != 120 || th.Height != 40 {
		t.Errorf("SetSize not recorded: got %dx%d", th.Width, th.Height)
	}
}
