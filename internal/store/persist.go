// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"

	"github.com/jeranaias/mull-tui/internal/model"
	"github.com/jeranaias/mull-tui/internal/util"
)

// The whole session mapping is serialized into one JSON blob and rewritten
// wholesale on every committed change. At interactive scale a full rewrite
// is cheaper than being clever, and the atomic write keeps the blob intact
// across crashes.

// persistedState is the on-disk blob layout.
type persistedState struct {
	Version  int              `json:"version"`
	Sessions []*model.Session `json:"sessions"`
}

// blobVersion guards future layout changes.
const blobVersion = 1

// DefaultPath returns the default sessions blob location, ~/.mull/sessions.json.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".mull", "sessions.json"), nil
}

// Open creates a store backed by the blob at path, loading any previously
// persisted sessions and then starting a fresh current session. A corrupt
// or missing blob never blocks startup: the store simply begins empty.
// maxSessions bounds retention; zero or negative means DefaultMaxSessions.
func Open(path string, maxSessions int) (*Store, error) {
	s := NewInMemory()
	s.path = path
	if maxSessions > 0 {
		s.maxSessions = maxSessions
	}

	if err := s.load(); err != nil {
		// RELIABILITY: a bad blob degrades to a fresh store, it never aborts.
		log.Printf("sessions: failed to load %s: %v (starting fresh)", path, err)
	}

	// Every launch begins with a new empty chat. History stays reachable
	// through the session picker.
	s.Create()
	return s, nil
}

// load reads the blob into the store. Missing file is not an error.
func (s *Store) load() error {
	if s.path == "" {
		return nil
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var state persistedState
	if err := json.Unmarshal(data, &state); err != nil {
		return err
	}

	s.mu.Lock()
	for _, sess := range state.Sessions {
		if sess == nil || sess.ID == "" || sess.IsEmpty() {
			continue
		}
		if _, dup := s.sessions[sess.ID]; dup {
			continue
		}
		s.sessions[sess.ID] = sess
		s.order = append(s.order, sess.ID)
	}
	s.mu.Unlock()
	return nil
}

// persistLocked writes the current mapping to disk. Called with the lock
// held after every committed mutation.
//
// Empty sessions (no messages yet) are not worth a disk write on their own;
// when nothing non-empty exists the blob is erased rather than written as
// an empty shell. Write failures are logged and the in-memory state stays
// authoritative (StorageError policy: degraded persistence, not a crash).
func (s *Store) persistLocked() {
	if s.path == "" {
		return
	}

	state := persistedState{Version: blobVersion}
	for _, id := range s.order {
		sess := s.sessions[id]
		if sess.IsEmpty() {
			continue
		}
		state.Sessions = append(state.Sessions, sess)
	}

	if len(state.Sessions) == 0 {
		s.eraseLocked()
		return
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		log.Printf("sessions: failed to marshal blob: %v", err)
		return
	}

	// RELIABILITY: Atomic write with fsync prevents data loss on crash
	if err := util.AtomicWriteFile(s.path, data, 0600); err != nil {
		log.Printf("sessions: failed to write %s: %v", s.path, err)
	}
}

// eraseLocked removes the blob file. Called with the lock held.
func (s *Store) eraseLocked() {
	if s.path == "" {
		return
	}
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		log.Printf("sessions: failed to remove %s: %v", s.path, err)
	}
}
