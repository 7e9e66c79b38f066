// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// STREAMING: Robust SSE decoding with error handling

// =============================================================================
// STREAMING CONSTANTS
// =============================================================================

// MaxLineSize is the maximum allowed size for a single SSE line (64KB).
const MaxLineSize = 64 * 1024

// dataPrefix marks the lines that carry payload records. Everything else
// (blank separators, "event:" lines, ":" keep-alive comments) is ignored.
const dataPrefix = "data: "

// =============================================================================
// EVENT DECODER
// =============================================================================

// EventDecoder decodes the proxy's streaming wire format into StreamEvents.
//
// The decoder is line-buffered: network chunk boundaries never affect the
// decoded event sequence because a line is only processed once its trailing
// newline has arrived (or the body ends). A "content" record with multiple
// blocks yields one EventDelta per block, in block order. After a stop
// record, Next returns io.EOF regardless of any remaining input.
type EventDecoder struct {
	reader  *bufio.Reader
	pending []StreamEvent
	stopped bool
}

// NewEventDecoder creates a decoder over a streaming response body.
// The buffer is sized to MaxLineSize so the line cap is enforced while
// reading, before an oversized line is ever held in memory.
func NewEventDecoder(r io.Reader) *EventDecoder {
	return &EventDecoder{
		reader: bufio.NewReaderSize(r, MaxLineSize),
	}
}

// Stopped reports whether an orderly stop record has been decoded.
func (d *EventDecoder) Stopped() bool {
	return d.stopped
}

// Next returns the next event from the stream.
// It returns io.EOF after a stop record or when the body is exhausted.
func (d *EventDecoder) Next() (StreamEvent, error) {
	for {
		if len(d.pending) > 0 {
			ev := d.pending[0]
			d.pending = d.pending[1:]
			return ev, nil
		}
		if d.stopped {
			return StreamEvent{}, io.EOF
		}

		line, err := d.reader.ReadSlice('\n')
		if err != nil {
			if err == bufio.ErrBufferFull {
				return StreamEvent{}, fmt.Errorf("stream line too large: exceeds %d bytes", MaxLineSize)
			}
			if err == io.EOF {
				// A final line without a trailing newline still counts.
				if trimmed := strings.TrimRight(string(line), "\r\n"); trimmed != "" {
					d.decodeLine(trimmed)
					continue
				}
				return StreamEvent{}, io.EOF
			}
			return StreamEvent{}, fmt.Errorf("read error: %w", err)
		}

		d.decodeLine(strings.TrimRight(string(line), "\r\n"))
	}
}

// decodeLine decodes a single complete line, appending any resulting events
// to the pending queue.
func (d *EventDecoder) decodeLine(line string) {
	if !strings.HasPrefix(line, dataPrefix) {
		return
	}
	data := line[len(dataPrefix):]
	if data == "" {
		return
	}

	var payload streamPayload
	if err := json.Unmarshal([]byte(data), &payload); err != nil {
		// A corrupt record never kills the stream. Surface it so callers
		// can count it, then keep decoding.
		d.pending = append(d.pending, StreamEvent{Kind: EventMalformed})
		return
	}

	switch payload.Type {
	case recordStart:
		d.pending = append(d.pending, StreamEvent{Kind: EventStart, Created: payload.Created})

	case recordContent:
		for _, block := range payload.Content {
			if block.Thinking != "" {
				d.pending = append(d.pending, StreamEvent{
					Kind:     EventDelta,
					Channel:  ChannelThinking,
					Fragment: block.Thinking,
				})
			}
			if block.Text != "" {
				d.pending = append(d.pending, StreamEvent{
					Kind:     EventDelta,
					Channel:  ChannelText,
					Fragment: block.Text,
				})
			}
		}

	case recordUsage:
		if payload.Usage != nil {
			d.pending = append(d.pending, StreamEvent{Kind: EventUsage, Usage: payload.Usage.Flatten()})
		}

	case recordError:
		d.pending = append(d.pending, StreamEvent{
			Kind:    EventFault,
			Message: payload.Message,
			Code:    payload.Code,
		})

	case recordMessageStop, recordDone:
		d.stopped = true
		d.pending = append(d.pending, StreamEvent{Kind: EventStop})

	default:
		// Unknown record types are skipped, same as malformed ones.
		d.pending = append(d.pending, StreamEvent{Kind: EventMalformed})
	}
}

// =============================================================================
// STREAMING CHAT
// =============================================================================

// StreamError represents an error that occurred during streaming,
// preserving any partial content received before the error.
type StreamError struct {
	Partial string // Content received before error
	Err     error
}

// Error implements the error interface.
func (e *StreamError) Error() string {
	if e.Partial != "" {
		return fmt.Sprintf("stream error (partial content received: %d chars): %v", len(e.Partial), e.Err)
	}
	return fmt.Sprintf("stream error: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *StreamError) Unwrap() error {
	return e.Err
}

// StreamChat opens a streaming chat request and returns a channel of decoded
// events plus an error channel. The event channel closes when the stream
// ends; if it ended for any reason other than an orderly stop record, the
// error channel delivers exactly one error before both channels close.
//
// Supports context cancellation: aborting the context closes the transport
// and surfaces ctx.Err().
func (c *Client) StreamChat(ctx context.Context, history []ChatMessage) (<-chan StreamEvent, <-chan error) {
	events := make(chan StreamEvent, 64)
	errs := make(chan error, 1)

	go func() {
		defer close(events)
		defer close(errs)

		if err := c.streamChat(ctx, history, events); err != nil {
			errs <- err
		}
	}()

	return events, errs
}

// streamChat performs the request and decode loop, sending events on out.
func (c *Client) streamChat(ctx context.Context, history []ChatMessage, out chan<- StreamEvent) error {
	if !c.IsConfigured() {
		return ErrNotConfigured
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := c.newChatRequest(ctx, history, true)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	// PERFORMANCE: Use shared streaming client with connection pooling (timeout handled via context)
	// SECURITY: TLS 1.2+ enforced via shared client configuration
	resp, err := sharedStreamingClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
		return c.handleErrorResponse(resp, body)
	}

	decoder := NewEventDecoder(resp.Body)
	var partial strings.Builder

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		ev, err := decoder.Next()
		if err != nil {
			if err == io.EOF {
				if decoder.Stopped() {
					return nil
				}
				// Connection dropped mid-response. Partial content already
				// delivered stays with the caller.
				return &StreamError{Partial: partial.String(), Err: ErrStreamTruncated}
			}
			return &StreamError{Partial: partial.String(), Err: err}
		}

		if ev.Kind == EventDelta && ev.Channel == ChannelText {
			partial.WriteString(ev.Fragment)
		}

		select {
		case out <- ev:
		case <-ctx.Done():
			return ctx.Err()
		}

		if ev.Kind == EventFault {
			return &StreamError{
				Partial: partial.String(),
				Err:     &FaultError{Code: ev.Code, Message: ev.Message},
			}
		}
		if ev.Kind == EventStop {
			return nil
		}
	}
}
