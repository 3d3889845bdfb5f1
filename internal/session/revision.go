// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

// Revision is a value of the revision counter.
type Revision uint64

// Tracker counts accepted chat turns. It only ever moves forward.
type Tracker struct {
	value Revision
}

// RecordTurnCompleted advances the counter by exactly one. Call it once per
// turn whose reply was received and appended to the transcript, never for a
// turn that failed.
func (t *Tracker) RecordTurnCompleted() Revision {
	t.value++
	return t.value
}

// Current returns the counter value.
func (t Tracker) Current() Revision {
	return t.value
}
