// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// This file implements thread-safe cancel function handling for the active
// stream. The cancel func is touched from the Update loop and from stream
// goroutines, so access goes through a mutex.
package chat

import (
	"context"
	"sync"
)

// cancelManager guards the active stream's cancel function.
// IMPORTANT: must be held as a pointer in the Model so Bubble Tea's
// value-copying Update never copies the mutex.
type cancelManager struct {
	mu         sync.Mutex
	cancelFunc context.CancelFunc
}

func newCancelManager() *cancelManager {
	return &cancelManager{}
}

// set stores the cancel function for a newly opened stream, cancelling any
// previous one first so a superseded stream's context never leaks.
func (cm *cancelManager) set(fn context.CancelFunc) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	if cm.cancelFunc != nil {
		cm.cancelFunc()
	}
	cm.cancelFunc = fn
}

// cancel aborts the active stream, if any. Safe to call repeatedly.
func (cm *cancelManager) cancel() {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	if cm.cancelFunc != nil {
		cm.cancelFunc()
		cm.cancelFunc = nil
	}
}

// setCancelFunc stores the cancel function for the stream being opened.
func (m *Model) setCancelFunc(fn context.CancelFunc) {
	m.cancelMgr.set(fn)
}

// cancel aborts the active stream, if any.
func (m *Model) cancel() {
	m.cancelMgr.cancel()
}
