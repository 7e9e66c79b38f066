// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"io"
	"strings"
	"testing"
)

// chunkedReader delivers the underlying data in fixed-size reads so tests
// can place chunk boundaries anywhere, including mid-line and mid-rune.
type chunkedReader struct {
	data []byte
	size int
	pos  int
}

func (r *chunkedReader) Read(p []byte) (int, error) {
	if r.pos >= len(r.data) {
		return 0, io.EOF
	}
	n := r.size
	if n > len(p) {
		n = len(p)
	}
	if r.pos+n > len(r.data) {
		n = len(r.data) - r.pos
	}
	copy(p, r.data[r.pos:r.pos+n])
	r.pos += n
	return n, nil
}

// drain decodes every event until EOF.
func drain(t *testing.T, d *EventDecoder) []StreamEvent {
	t.Helper()
	var events []StreamEvent
	for {
		ev, err := d.Next()
		if err == io.EOF {
			return events
		}
		if err != nil {
			t.Fatalf("Next() error: %v", err)
		}
		events = append(events, ev)
	}
}

const sampleStream = `data: {"type":"start","created":"2025-01-01T00:00:00Z"}

data: {"type":"content","content":[{"content_type":"thinking","thinking":"Let's "}]}

data: {"type":"content","content":[{"content_type":"thinking","thinking":"see."}]}

data: {"type":"content","content":[{"content_type":"text","text":"42"}]}

data: {"type":"message_stop"}

data: {"type":"done"}

`

func TestEventDecoderSampleStream(t *testing.T) {
	d := NewEventDecoder(strings.NewReader(sampleStream))
	events := drain(t, d)

	var thinking, text strings.Builder
	for _, ev := range events {
		if ev.Kind != EventDelta {
			continue
		}
		if ev.Channel == ChannelThinking {
			thinking.WriteString(ev.Fragment)
		} else {
			text.WriteString(ev.Fragment)
		}
	}

	if got := thinking.String(); got != "Let's see." {
		t.Errorf("thinking = %q, want %q", got, "Let's see.")
	}
	if got := text.String(); got != "42" {
		t.Errorf("text = %q, want %q", got, "42")
	}
	if !d.Stopped() {
		t.Error("decoder should report orderly stop")
	}

	last := events[len(events)-1]
	if last.Kind != EventStop {
		t.Errorf("last event kind = %v, want EventStop", last.Kind)
	}
}

// Chunk boundaries must never change the decoded event sequence.
func TestEventDecoderChunkingInvariance(t *testing.T) {
	reference := drain(t, NewEventDecoder(strings.NewReader(sampleStream)))

	for _, size := range []int{1, 2, 3, 7, 16, 64, 1024} {
		d := NewEventDecoder(&chunkedReader{data: []byte(sampleStream), size: size})
		events := drain(t, d)

		if len(events) != len(reference) {
			t.Fatalf("chunk size %d: got %d events, want %d", size, len(events), len(reference))
		}
		for i := range events {
			if events[i] != reference[i] {
				t.Errorf("chunk size %d: event %d = %+v, want %+v", size, i, events[i], reference[i])
			}
		}
	}
}

func TestEventDecoderMalformedRecordSkipped(t *testing.T) {
	input := "data: {not json}\n" +
		"data: {\"type\":\"content\",\"content\":[{\"content_type\":\"text\",\"text\":\"ok\"}]}\n" +
		"data: {\"type\":\"message_stop\"}\n"

	events := drain(t, NewEventDecoder(strings.NewReader(input)))

	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}
	if events[0].Kind != EventMalformed {
		t.Errorf("event 0 kind = %v, want EventMalformed", events[0].Kind)
	}
	if events[1].Kind != EventDelta || events[1].Fragment != "ok" {
		t.Errorf("event 1 = %+v, want text delta %q", events[1], "ok")
	}
	if events[2].Kind != EventStop {
		t.Errorf("event 2 kind = %v, want EventStop", events[2].Kind)
	}
}

func TestEventDecoderIgnoresNonDataLines(t *testing.T) {
	input := ": keep-alive\n" +
		"event: message\n" +
		"retry: 5000\n" +
		"data: {\"type\":\"content\",\"content\":[{\"content_type\":\"text\",\"text\":\"hi\"}]}\n" +
		"\n" +
		"data: {\"type\":\"done\"}\n"

	events := drain(t, NewEventDecoder(strings.NewReader(input)))

	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].Kind != EventDelta || events[0].Fragment != "hi" {
		t.Errorf("event 0 = %+v, want text delta %q", events[0], "hi")
	}
}

// Records after the stop record are never decoded.
func TestEventDecoderStopsAtMessageStop(t *testing.T) {
	input := "data: {\"type\":\"message_stop\"}\n" +
		"data: {\"type\":\"content\",\"content\":[{\"content_type\":\"text\",\"text\":\"stale\"}]}\n"

	events := drain(t, NewEventDecoder(strings.NewReader(input)))

	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if events[0].Kind != EventStop {
		t.Errorf("event 0 kind = %v, want EventStop", events[0].Kind)
	}
}

func TestEventDecoderMultipleBlocksInOrder(t *testing.T) {
	input := `data: {"type":"content","content":[{"content_type":"thinking","thinking":"a"},{"content_type":"text","text":"b"}]}` + "\n"

	events := drain(t, NewEventDecoder(strings.NewReader(input)))

	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].Channel != ChannelThinking || events[0].Fragment != "a" {
		t.Errorf("event 0 = %+v, want thinking %q", events[0], "a")
	}
	if events[1].Channel != ChannelText || events[1].Fragment != "b" {
		t.Errorf("event 1 = %+v, want text %q", events[1], "b")
	}
}

func TestEventDecoderFinalLineWithoutNewline(t *testing.T) {
	input := `data: {"type":"content","content":[{"content_type":"text","text":"tail"}]}`

	events := drain(t, NewEventDecoder(strings.NewReader(input)))

	if len(events) != 1 || events[0].Fragment != "tail" {
		t.Fatalf("got %+v, want single text delta %q", events, "tail")
	}
}

func TestEventDecoderUsageRecord(t *testing.T) {
	// Token counts sit in the nested anthropic_usage block, not at the top
	// of the usage object.
	input := `data: {"type":"usage","usage":{"total_cost":"$0.0012","anthropic_usage":{"input_tokens":10,"output_tokens":25,"cached_write_tokens":0,"cached_read_tokens":0,"total_tokens":35,"total_cost":"$0.0012"}}}` + "\n" +
		`data: {"type":"done"}` + "\n"

	events := drain(t, NewEventDecoder(strings.NewReader(input)))

	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].Kind != EventUsage || events[0].Usage == nil {
		t.Fatalf("event 0 = %+v, want usage event", events[0])
	}
	if events[0].Usage.InputTokens != 10 || events[0].Usage.OutputTokens != 25 {
		t.Errorf("token counts = %+v, want 10 in / 25 out", events[0].Usage)
	}
	if events[0].Usage.TotalCost != "$0.0012" {
		t.Errorf("total cost = %q, want %q", events[0].Usage.TotalCost, "$0.0012")
	}
}

func TestEventDecoderOversizedLine(t *testing.T) {
	input := dataPrefix + strings.Repeat("x", MaxLineSize) + "\n"

	_, err := NewEventDecoder(strings.NewReader(input)).Next()
	if err == nil || !strings.Contains(err.Error(), "too large") {
		t.Fatalf("err = %v, want line-size error", err)
	}
}

func TestEventDecoderErrorRecord(t *testing.T) {
	input := `data: {"type":"error","message":"overloaded","code":529}` + "\n"

	events := drain(t, NewEventDecoder(strings.NewReader(input)))

	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if events[0].Kind != EventFault || events[0].Message != "overloaded" || events[0].Code != 529 {
		t.Errorf("event 0 = %+v, want fault overloaded/529", events[0])
	}
}
