// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store provides the in-memory session store and its persistence.
package store

import (
	"sort"
	"sync"

	"github.com/jeranaias/mull-tui/internal/model"
)

// DefaultMaxSessions limits retained sessions. When exceeded, the
// oldest-updated sessions are evicted (the current one never is).
const DefaultMaxSessions = 50

// =============================================================================
// SESSION STORE
// =============================================================================

// Store holds every chat session plus the current-session handle.
//
// All mutations go through Store methods, which take the lock, commit the
// change, persist the whole mapping, and then notify subscribers. Reads of
// the returned *model.Session pointers are safe as long as callers mutate
// only via the store, which the single-threaded UI loop guarantees.
type Store struct {
	mu          sync.Mutex
	sessions    map[string]*model.Session
	order       []string // session IDs in creation order
	currentID   string
	path        string // empty means in-memory only
	maxSessions int
	subscribers []func()
}

// NewInMemory creates a store with no backing file. Used by tests and
// one-shot mode.
func NewInMemory() *Store {
	return &Store{
		sessions:    make(map[string]*model.Session),
		maxSessions: DefaultMaxSessions,
	}
}

// Subscribe registers a callback invoked after every committed change.
// Callbacks run outside the store lock, on the mutating goroutine.
func (s *Store) Subscribe(fn func()) {
	s.mu.Lock()
	s.subscribers = append(s.subscribers, fn)
	s.mu.Unlock()
}

// notify invokes all subscribers. Must be called without the lock held.
func (s *Store) notify() {
	s.mu.Lock()
	subs := make([]func(), len(s.subscribers))
	copy(subs, s.subscribers)
	s.mu.Unlock()

	for _, fn := range subs {
		fn()
	}
}

// =============================================================================
// CRUD OPERATIONS
// =============================================================================

// Create starts a new empty session and makes it current. It always
// succeeds.
func (s *Store) Create() *model.Session {
	s.mu.Lock()
	sess := model.NewSession()
	s.sessions[sess.ID] = sess
	s.order = append(s.order, sess.ID)
	s.currentID = sess.ID
	s.enforceLimitLocked()
	s.persistLocked()
	s.mu.Unlock()

	s.notify()
	return sess
}

// Select makes the session with the given ID current.
func (s *Store) Select(id string) error {
	s.mu.Lock()
	if _, ok := s.sessions[id]; !ok {
		s.mu.Unlock()
		return ErrSessionNotFound
	}
	s.currentID = id
	s.mu.Unlock()

	s.notify()
	return nil
}

// Delete removes a session. Deleting the current session leaves no session
// current; the next submission lazily creates one. A stream still writing
// to the deleted ID is orphaned (see AppendOrReplaceLastAssistant).
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	if _, ok := s.sessions[id]; !ok {
		s.mu.Unlock()
		return ErrSessionNotFound
	}

	delete(s.sessions, id)
	s.removeFromOrderLocked(id)
	if s.currentID == id {
		s.currentID = ""
	}
	s.persistLocked()
	s.mu.Unlock()

	s.notify()
	return nil
}

// ClearAll removes every session and erases the persisted blob. No session
// is current afterwards.
func (s *Store) ClearAll() {
	s.mu.Lock()
	s.sessions = make(map[string]*model.Session)
	s.order = nil
	s.currentID = ""
	s.eraseLocked()
	s.mu.Unlock()

	s.notify()
}

// Current returns the current session. There is always one after Open or
// Create; before that it returns nil.
func (s *Store) Current() *model.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[s.currentID]
}

// Get returns the session with the given ID.
func (s *Store) Get(id string) (*model.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

// List returns all sessions, most recently updated first.
func (s *Store) List() []*model.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*model.Session, 0, len(s.sessions))
	for _, id := range s.order {
		out = append(out, s.sessions[id])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out
}

// Count returns the number of sessions.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// =============================================================================
// MESSAGE OPERATIONS
// =============================================================================

// AppendMessage appends a message to the given session.
func (s *Store) AppendMessage(sessionID string, msg model.Message) error {
	s.mu.Lock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		s.mu.Unlock()
		return ErrSessionNotFound
	}
	sess.AddMessage(msg)
	s.persistLocked()
	s.mu.Unlock()

	s.notify()
	return nil
}

// AppendOrReplaceLastAssistant folds streamed content into the session: if
// the last message is an assistant message it is replaced, otherwise the
// message is appended.
//
// A missing session is a silent no-op. That is the orphaned-stream rule:
// events from a stream whose session was deleted mid-flight are discarded,
// never resurrected into a new session.
func (s *Store) AppendOrReplaceLastAssistant(sessionID string, msg model.Message) {
	s.mu.Lock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		s.mu.Unlock()
		return
	}

	if last, has := sess.LastMessage(); has && last.Role == model.RoleAssistant {
		sess.ReplaceLast(msg)
	} else {
		sess.AddMessage(msg)
	}
	s.persistLocked()
	s.mu.Unlock()

	s.notify()
}

// =============================================================================
// INTERNAL HELPERS (lock held)
// =============================================================================

// removeFromOrderLocked drops an ID from the creation-order index.
func (s *Store) removeFromOrderLocked(id string) {
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			return
		}
	}
}

// enforceLimitLocked evicts oldest-updated sessions beyond maxSessions.
// The current session is never evicted.
func (s *Store) enforceLimitLocked() {
	if s.maxSessions <= 0 || len(s.sessions) <= s.maxSessions {
		return
	}

	candidates := make([]string, 0, len(s.order))
	for _, id := range s.order {
		if id != s.currentID {
			candidates = append(candidates, id)
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return s.sessions[candidates[i]].UpdatedAt.Before(s.sessions[candidates[j]].UpdatedAt)
	})

	excess := len(s.sessions) - s.maxSessions
	for i := 0; i < excess && i < len(candidates); i++ {
		delete(s.sessions, candidates[i])
		s.removeFromOrderLocked(candidates[i])
	}
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrSessionNotFound is returned when a session doesn't exist.
// Use errors.Is(err, ErrSessionNotFound) to check for this error.
var ErrSessionNotFound = &SessionError{Message: "session not found"}

// SessionError represents a session-related error.
type SessionError struct {
	Message string
}

// Error implements the error interface.
func (e *SessionError) Error() string {
	return e.Message
}

// Is implements errors.Is support for comparing session errors.
func (e *SessionError) Is(target error) bool {
	t, ok := target.(*SessionError)
	if !ok {
		return false
	}
	return e.Message == t.Message
}
