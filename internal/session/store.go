// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session holds the per-client conversation state.
package session

import (
	"github.com/jeranaias/studyrun/internal/model"
)

// =============================================================================
// SESSION STORE
// =============================================================================

// Store tracks which conversation the client is talking in and the format the
// user prefers for generated content. The zero value is ready to use: no
// conversation, automatic format.
type Store struct {
	conversation model.ConversationID
	starting     bool
	generation   uint64
	format       model.Format
}

// Current returns the live conversation handle, if any.
func (s Store) Current() (model.ConversationID, bool) {
	return s.conversation, !s.conversation.IsZero()
}

// HasConversation reports whether a handle exists.
func (s Store) HasConversation() bool {
	return !s.conversation.IsZero()
}

// NeedsStart reports whether a remote start must be issued: no handle exists
// and no start is already pending.
func (s Store) NeedsStart() bool {
	return s.conversation.IsZero() && !s.starting
}

// Starting reports whether a remote start is pending.
func (s Store) Starting() bool {
	return s.starting
}

// BeginStart marks a remote start as pending. Calling it while a start is
// already pending or a handle exists is a no-op.
func (s *Store) BeginStart() {
	if !s.conversation.IsZero() {
		return
	}
	s.starting = true
}

// Adopt stores the handle returned by a successful start.
func (s *Store) Adopt(id model.ConversationID) {
	s.conversation = id
	s.starting = false
}

// FailStart clears the pending start and leaves the store without a handle,
// so the next user action retries.
func (s *Store) FailStart() {
	s.starting = false
}

// Rotate overwrites the handle with the one a chat turn returned.
// An empty handle keeps the current one.
func (s *Store) Rotate(id model.ConversationID) {
	if id.IsZero() {
		return
	}
	s.conversation = id
}

// Reset drops the current conversation. The next chat message starts a new
// one. Replies still in flight for the old conversation carry a stale
// Generation and are discarded by the caller.
func (s *Store) Reset() {
	s.conversation = ""
	s.starting = false
	s.generation++
}

// Generation identifies the current conversation lifetime.
func (s Store) Generation() uint64 {
	return s.generation
}

// PreferredFormat returns the user's latest explicit choice.
// FormatAuto means no preference and is sent to the backend as-is.
func (s Store) PreferredFormat() model.Format {
	return s.format
}

// SetPreferredFormat stores the user's choice.
func (s *Store) SetPreferredFormat(f model.Format) {
	s.format = f
}
