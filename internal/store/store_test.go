// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/mull-tui/internal/model"
)

func blobPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "sessions.json")
}

func TestCreateBecomesCurrent(t *testing.T) {
	s := NewInMemory()

	first := s.Create()
	require.NotNil(t, s.Current())
	assert.Equal(t, first.ID, s.Current().ID)

	second := s.Create()
	assert.Equal(t, second.ID, s.Current().ID)
	assert.Equal(t, 2, s.Count())
}

func TestSelectUnknownSession(t *testing.T) {
	s := NewInMemory()
	s.Create()

	err := s.Select("nope")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestDeleteCurrentLeavesNoCurrent(t *testing.T) {
	s := NewInMemory()
	older := s.Create()
	require.NoError(t, s.AppendMessage(older.ID, model.NewUserMessage("old question")))

	current := s.Create()
	require.NoError(t, s.AppendMessage(current.ID, model.NewUserMessage("new question")))

	require.NoError(t, s.Delete(current.ID))

	// No session is current; the survivor is untouched and still reachable.
	assert.Nil(t, s.Current())
	assert.Equal(t, 1, s.Count())
	survivor, ok := s.Get(older.ID)
	require.True(t, ok)
	assert.Equal(t, 1, survivor.MessageCount())
}

func TestDeleteOtherKeepsCurrent(t *testing.T) {
	s := NewInMemory()
	other := s.Create()
	current := s.Create()

	require.NoError(t, s.Delete(other.ID))

	assert.Equal(t, current.ID, s.Current().ID)
}

func TestAppendOrReplaceLastAssistantReusesSlot(t *testing.T) {
	s := NewInMemory()
	sess := s.Create()

	require.NoError(t, s.AppendMessage(sess.ID, model.NewUserMessage("hi")))
	require.NoError(t, s.AppendMessage(sess.ID, model.NewAssistantMessage()))

	// Repeated stream updates must keep the transcript length stable.
	for _, content := range []string{"p", "pa", "par", "part"} {
		msg := model.NewAssistantMessage()
		msg.Content = content
		s.AppendOrReplaceLastAssistant(sess.ID, msg)
		assert.Equal(t, 2, sess.MessageCount())
	}

	last, ok := sess.LastMessage()
	require.True(t, ok)
	assert.Equal(t, "part", last.Content)
}

func TestAppendOrReplaceLastAssistantOrphanIsNoop(t *testing.T) {
	s := NewInMemory()
	sess := s.Create()
	require.NoError(t, s.Delete(sess.ID))

	msg := model.NewAssistantMessage()
	msg.Content = "late stream event"
	s.AppendOrReplaceLastAssistant(sess.ID, msg)

	// Discarded: no session resurrected, nothing appended anywhere.
	assert.Equal(t, 0, s.Count())
	assert.Nil(t, s.Current())
}

func TestTitleDerivation(t *testing.T) {
	s := NewInMemory()
	sess := s.Create()

	require.NoError(t, s.AppendMessage(sess.ID, model.NewUserMessage("How many r's in strawberry?")))

	assert.Equal(t, "How many r's in stra", sess.Title)
}

func TestSubscribeNotifiedOnMutations(t *testing.T) {
	s := NewInMemory()
	var fired int
	s.Subscribe(func() { fired++ })

	sess := s.Create()
	require.NoError(t, s.AppendMessage(sess.ID, model.NewUserMessage("hi")))
	s.ClearAll()

	assert.Equal(t, 3, fired)
}

// =============================================================================
// PERSISTENCE TESTS
// =============================================================================

func TestOpenStartsWithFreshSession(t *testing.T) {
	path := blobPath(t)

	s, err := Open(path, 0)
	require.NoError(t, err)

	require.NotNil(t, s.Current())
	assert.True(t, s.Current().IsEmpty())
}

func TestPersistAndReload(t *testing.T) {
	path := blobPath(t)

	s, err := Open(path, 0)
	require.NoError(t, err)
	sess := s.Current()
	require.NoError(t, s.AppendMessage(sess.ID, model.NewUserMessage("remember me")))

	// Simulated restart.
	s2, err := Open(path, 0)
	require.NoError(t, err)

	// Fresh current session, prior session still reachable.
	assert.True(t, s2.Current().IsEmpty())
	loaded, ok := s2.Get(sess.ID)
	require.True(t, ok)
	assert.Equal(t, "remember me", loaded.Messages[0].Content)
	assert.Equal(t, 2, s2.Count())
}

func TestEmptySessionsNotPersisted(t *testing.T) {
	path := blobPath(t)

	s, err := Open(path, 0)
	require.NoError(t, err)
	s.Create()
	s.Create()

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "blob should not exist while all sessions are empty")
}

func TestClearAllErasesBlobAndRestartIsFresh(t *testing.T) {
	path := blobPath(t)

	s, err := Open(path, 0)
	require.NoError(t, err)
	require.NoError(t, s.AppendMessage(s.Current().ID, model.NewUserMessage("to be erased")))
	require.FileExists(t, path)

	s.ClearAll()
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "blob should be erased by ClearAll")

	// Restart: exactly one fresh session.
	s2, err := Open(path, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, s2.Count())
	assert.True(t, s2.Current().IsEmpty())
}

func TestOpenSurvivesCorruptBlob(t *testing.T) {
	path := blobPath(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	s, err := Open(path, 0)
	require.NoError(t, err)
	require.NotNil(t, s.Current())
	assert.Equal(t, 1, s.Count())
}

func TestDeletePersists(t *testing.T) {
	path := blobPath(t)

	s, err := Open(path, 0)
	require.NoError(t, err)
	keep := s.Current()
	require.NoError(t, s.AppendMessage(keep.ID, model.NewUserMessage("keep")))

	drop := s.Create()
	require.NoError(t, s.AppendMessage(drop.ID, model.NewUserMessage("drop")))
	require.NoError(t, s.Delete(drop.ID))

	s2, err := Open(path, 0)
	require.NoError(t, err)
	_, ok := s2.Get(drop.ID)
	assert.False(t, ok)
	_, ok = s2.Get(keep.ID)
	assert.True(t, ok)
}

func TestOpenAppliesSessionLimit(t *testing.T) {
	s, err := Open(blobPath(t), 2)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		sess := s.Create()
		require.NoError(t, s.AppendMessage(sess.ID, model.NewUserMessage("q")))
	}

	assert.Equal(t, 2, s.Count())
}

func TestEnforceLimitEvictsOldest(t *testing.T) {
	s := NewInMemory()
	s.maxSessions = 3

	first := s.Create()
	require.NoError(t, s.AppendMessage(first.ID, model.NewUserMessage("oldest")))
	for i := 0; i < 3; i++ {
		sess := s.Create()
		require.NoError(t, s.AppendMessage(sess.ID, model.NewUserMessage("newer")))
	}

	assert.Equal(t, 3, s.Count())
	_, ok := s.Get(first.ID)
	assert.False(t, ok, "oldest session should be evicted")
}
