// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "slices"

// MaxMessages is the maximum number of messages kept in a transcript.
// When exceeded, the oldest messages are pruned.
const MaxMessages = 1000

// Transcript is the ordered list of chat messages shown to the user.
// It is display state only; the backend keeps the authoritative history.
type Transcript struct {
	messages []*Message
}

// NewTranscript returns an empty transcript.
func NewTranscript() Transcript {
	return Transcript{messages: make([]*Message, 0)}
}

// Append adds a message at the end and prunes old entries. The backing
// array is never shared with earlier copies of t.
func (t *Transcript) Append(msg *Message) {
	t.messages = append(slices.Clip(t.messages), msg)
	if len(t.messages) > MaxMessages {
		excess := len(t.messages) - MaxMessages
		pruned := make([]*Message, MaxMessages)
		copy(pruned, t.messages[excess:])
		t.messages = pruned
	}
}

// Messages returns the messages in display order.
func (t Transcript) Messages() []*Message {
	return t.messages
}

// Len returns the number of messages.
func (t Transcript) Len() int {
	return len(t.messages)
}

// Find returns the message with the given ID, or nil.
func (t Transcript) Find(id string) *Message {
	for _, msg := range t.messages {
		if msg.ID == id {
			return msg
		}
	}
	return nil
}

// Last returns the most recent message, or nil if empty.
func (t Transcript) Last() *Message {
	if len(t.messages) == 0 {
		return nil
	}
	return t.messages[len(t.messages)-1]
}

// Clear removes every message.
func (t *Transcript) Clear() {
	t.messages = make([]*Message, 0)
}

// MarkFailed flags the message with the given ID as failed. The message is
// copied before it is changed so earlier transcript values stay untouched.
// It reports whether the message was found.
func (t *Transcript) MarkFailed(id string) bool {
	for i, msg := range t.messages {
		if msg.ID != id {
			continue
		}
		updated := *msg
		updated.Failed = true
		messages := make([]*Message, len(t.messages))
		copy(messages, t.messages)
		messages[i] = &updated
		t.messages = messages
		return true
	}
	return false
}
