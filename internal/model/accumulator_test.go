// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"testing"

	"github.com/jeranaias/mull-tui/internal/api"
)

func thinkingDelta(s string) api.StreamEvent {
	return api.StreamEvent{Kind: api.EventDelta, Channel: api.ChannelThinking, Fragment: s}
}

func textDelta(s string) api.StreamEvent {
	return api.StreamEvent{Kind: api.EventDelta, Channel: api.ChannelText, Fragment: s}
}

func TestReduceAppendsChannelsInOrder(t *testing.T) {
	msg := NewAssistantMessage()

	events := []api.StreamEvent{
		{Kind: api.EventStart},
		thinkingDelta("Let's "),
		thinkingDelta("see."),
		textDelta("42"),
		{Kind: api.EventStop},
	}
	msg = ReduceAll(msg, events)

	if msg.Thinking != "Let's see." {
		t.Errorf("Thinking = %q, want %q", msg.Thinking, "Let's see.")
	}
	if msg.Content != "42" {
		t.Errorf("Content = %q, want %q", msg.Content, "42")
	}
	if msg.Role != RoleAssistant {
		t.Errorf("Role = %q, want assistant", msg.Role)
	}
}

// The accumulated message must be identical no matter how the server split
// the fragments.
func TestReduceChunkingInvariance(t *testing.T) {
	whole := ReduceAll(NewAssistantMessage(), []api.StreamEvent{
		thinkingDelta("I should check."),
		textDelta("The answer is 42."),
	})

	split := ReduceAll(NewAssistantMessage(), []api.StreamEvent{
		thinkingDelta("I sho"),
		thinkingDelta("uld ch"),
		thinkingDelta("eck."),
		textDelta("The ans"),
		textDelta("wer is 4"),
		textDelta("2."),
	})

	if whole.Thinking != split.Thinking {
		t.Errorf("Thinking differs: %q vs %q", whole.Thinking, split.Thinking)
	}
	if whole.Content != split.Content {
		t.Errorf("Content differs: %q vs %q", whole.Content, split.Content)
	}
}

func TestReduceIsPure(t *testing.T) {
	original := NewAssistantMessage()
	original.Content = "before"

	updated := Reduce(original, textDelta(" after"))

	if original.Content != "before" {
		t.Errorf("input mutated: Content = %q", original.Content)
	}
	if updated.Content != "before after" {
		t.Errorf("updated Content = %q", updated.Content)
	}
}

func TestReduceSkipsNonContentEvents(t *testing.T) {
	msg := NewAssistantMessage()
	msg = Reduce(msg, api.StreamEvent{Kind: api.EventMalformed})
	msg = Reduce(msg, api.StreamEvent{Kind: api.EventStart})
	msg = Reduce(msg, api.StreamEvent{Kind: api.EventFault, Message: "boom"})

	if !msg.IsEmpty() {
		t.Errorf("message should stay empty, got %+v", msg)
	}
}

func TestReduceLatchesUsage(t *testing.T) {
	msg := NewAssistantMessage()
	msg = Reduce(msg, api.StreamEvent{
		Kind:  api.EventUsage,
		Usage: &api.Usage{InputTokens: 12, OutputTokens: 34, TotalCost: "$0.002"},
	})

	if msg.Usage == nil {
		t.Fatal("usage not latched")
	}
	if msg.Usage.OutputTokens != 34 || msg.Usage.TotalCost != "$0.002" {
		t.Errorf("usage = %+v", msg.Usage)
	}
}

func TestReduceThinkingStaysEmptyWithoutThinkingDeltas(t *testing.T) {
	msg := ReduceAll(NewAssistantMessage(), []api.StreamEvent{
		textDelta("plain "),
		textDelta("answer"),
	})

	if msg.HasThinking() {
		t.Errorf("Thinking should be empty, got %q", msg.Thinking)
	}
	if msg.Content != "plain answer" {
		t.Errorf("Content = %q", msg.Content)
	}
}

func TestDeriveTitle(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"truncated to twenty runes", "How many r's in strawberry?", "How many r's in stra"},
		{"short content unchanged", "hi there", "hi there"},
		{"exactly twenty runes", "12345678901234567890", "12345678901234567890"},
		{"multibyte runes", "héllo wörld with ümlauts äöü", "héllo wörld with üml"},
		{"empty", "", ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := DeriveTitle(tc.content); got != tc.want {
				t.Errorf("DeriveTitle(%q) = %q, want %q", tc.content, got, tc.want)
			}
		})
	}
}
