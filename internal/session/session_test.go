// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jeranaias/studyrun/internal/model"
)

func TestStore_ZeroValue(t *testing.T) {
	var s Store

	id, ok := s.Current()
	assert.False(t, ok)
	assert.True(t, id.IsZero())
	assert.True(t, s.NeedsStart())
	assert.Equal(t, model.FormatAuto, s.PreferredFormat())
}

func TestStore_StartIsIdempotent(t *testing.T) {
	var s Store

	s.BeginStart()
	assert.True(t, s.Starting())
	assert.False(t, s.NeedsStart(), "a pending start must not be issued twice")

	s.Adopt("7")
	id, ok := s.Current()
	assert.True(t, ok)
	assert.Equal(t, model.ConversationID("7"), id)
	assert.False(t, s.Starting())
	assert.False(t, s.NeedsStart())

	// BeginStart with a live handle does nothing.
	s.BeginStart()
	assert.False(t, s.Starting())
}

func TestStore_FailStartAllowsRetry(t *testing.T) {
	var s Store

	s.BeginStart()
	s.FailStart()

	assert.False(t, s.HasConversation())
	assert.True(t, s.NeedsStart())
}

func TestStore_Rotate(t *testing.T) {
	var s Store
	s.Adopt("1")

	s.Rotate("2")
	id, _ := s.Current()
	assert.Equal(t, model.ConversationID("2"), id)

	s.Rotate("")
	id, _ = s.Current()
	assert.Equal(t, model.ConversationID("2"), id, "empty rotation keeps the handle")
}

func TestStore_ResetBumpsGeneration(t *testing.T) {
	var s Store
	s.Adopt("1")
	gen := s.Generation()

	s.Reset()

	assert.False(t, s.HasConversation())
	assert.Equal(t, gen+1, s.Generation())
	assert.True(t, s.NeedsStart())
}

func TestStore_PreferredFormatPassesThrough(t *testing.T) {
	var s Store
	s.SetPreferredFormat(model.FormatAudio)
	assert.Equal(t, model.FormatAudio, s.PreferredFormat())

	s.SetPreferredFormat(model.FormatAuto)
	assert.Equal(t, model.FormatAuto, s.PreferredFormat())
}

func TestTracker_Monotonic(t *testing.T) {
	var tr Tracker
	assert.Equal(t, Revision(0), tr.Current())

	for i := 1; i <= 5; i++ {
		got := tr.RecordTurnCompleted()
		assert.Equal(t, Revision(i), got)
		assert.Equal(t, Revision(i), tr.Current())
	}
}
