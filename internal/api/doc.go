// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api provides the client for the thinking-proxy chat API.
//
// The proxy exposes a single chat endpoint that either returns a complete
// JSON document (stream=false) or an SSE-shaped body of "data: <json>"
// records (stream=true). Responses interleave two content channels: the
// model's intermediate reasoning ("thinking") and its final answer text.
// This package handles request construction, authentication, retry with
// exponential backoff, and decoding of the streaming wire format into
// typed events.
package api
