// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gate

import (
	"github.com/jeranaias/studyrun/internal/model"
	"github.com/jeranaias/studyrun/internal/session"
)

// =============================================================================
// DECISION
// =============================================================================

// Decision is the result of comparing current state against the snapshot.
type Decision int

const (
	// DecisionReuse keeps whatever was last rendered.
	DecisionReuse Decision = iota
	// DecisionNoConversation means there is nothing to analyze yet.
	DecisionNoConversation
	// DecisionRegenerate means the snapshot is absent or stale.
	DecisionRegenerate
)

// String returns a short name for logs.
func (d Decision) String() string {
	switch d {
	case DecisionReuse:
		return "reuse"
	case DecisionNoConversation:
		return "no-conversation"
	case DecisionRegenerate:
		return "regenerate"
	default:
		return "unknown"
	}
}

// NeedsRegeneration reports whether the decision calls for new content
// (a placeholder counts: the screen must change).
func (d Decision) NeedsRegeneration() bool {
	return d != DecisionReuse
}

// Snapshot is the (conversation, revision) pair the last successful
// generation covered.
type Snapshot struct {
	Conversation model.ConversationID
	Revision     session.Revision
}

// Ticket describes one analyze-and-generate call. Conversation and Revision
// are captured when the call is issued.
type Ticket struct {
	Seq          uint64
	Conversation model.ConversationID
	Revision     session.Revision
	Format       model.Format
}

// Snapshot returns the pair this ticket will record on success.
func (t Ticket) Snapshot() Snapshot {
	return Snapshot{Conversation: t.Conversation, Revision: t.Revision}
}

// =============================================================================
// GATE
// =============================================================================

// Gate holds the analysis snapshot and the in-flight guard.
// The zero value has no snapshot and nothing in flight.
type Gate struct {
	snapshot    Snapshot
	hasSnapshot bool

	inFlight bool
	pending  Ticket
	seq      uint64
}

// Decide applies the reuse/regenerate rules without changing anything.
func (g Gate) Decide(conv model.ConversationID, hasConv bool, revision session.Revision) Decision {
	if !hasConv {
		return DecisionNoConversation
	}
	if !g.hasSnapshot || g.snapshot.Conversation != conv {
		return DecisionRegenerate
	}
	if g.snapshot.Revision < revision {
		return DecisionRegenerate
	}
	return DecisionReuse
}

// Snapshot returns the recorded snapshot, if any.
func (g Gate) Snapshot() (Snapshot, bool) {
	return g.snapshot, g.hasSnapshot
}

// InFlight reports whether a generation call is outstanding.
func (g Gate) InFlight() bool {
	return g.inFlight
}

// Pending returns the ticket of the outstanding call.
func (g Gate) Pending() (Ticket, bool) {
	return g.pending, g.inFlight
}

// Invalidate forgets the snapshot. Called when a new conversation starts.
func (g *Gate) Invalidate() {
	g.snapshot = Snapshot{}
	g.hasSnapshot = false
}

// =============================================================================
// TRIGGER
// =============================================================================

// ActionKind says what the caller must do after Trigger.
type ActionKind int

const (
	// ActionReuse: nothing to do, leave the screen alone.
	ActionReuse ActionKind = iota
	// ActionPlaceholder: render the "no conversation" guidance, no call.
	ActionPlaceholder
	// ActionDropped: a call is already in flight; this activation is dropped.
	ActionDropped
	// ActionIssue: render the in-progress state and issue Ticket.
	ActionIssue
)

// String returns a short name for logs.
func (k ActionKind) String() string {
	switch k {
	case ActionReuse:
		return "reuse"
	case ActionPlaceholder:
		return "placeholder"
	case ActionDropped:
		return "dropped"
	case ActionIssue:
		return "issue"
	default:
		return "unknown"
	}
}

// Action is the outcome of Trigger.
type Action struct {
	Kind     ActionKind
	Decision Decision
	Ticket   Ticket // valid when Kind == ActionIssue
}

// Trigger runs once per Study activation. It never queues: an activation
// while a call is outstanding is dropped.
func (g *Gate) Trigger(conv model.ConversationID, hasConv bool, revision session.Revision, format model.Format) Action {
	decision := g.Decide(conv, hasConv, revision)
	switch decision {
	case DecisionReuse:
		return Action{Kind: ActionReuse, Decision: decision}
	case DecisionNoConversation:
		return Action{Kind: ActionPlaceholder, Decision: decision}
	}

	if g.inFlight {
		return Action{Kind: ActionDropped, Decision: decision}
	}

	g.seq++
	g.inFlight = true
	g.pending = Ticket{
		Seq:          g.seq,
		Conversation: conv,
		Revision:     revision,
		Format:       format,
	}
	return Action{Kind: ActionIssue, Decision: decision, Ticket: g.pending}
}

// =============================================================================
// COMPLETION
// =============================================================================

// Outcome is the result of Complete.
type Outcome int

const (
	// OutcomeRecorded: success, snapshot updated to the ticket.
	OutcomeRecorded Outcome = iota
	// OutcomeFailed: failure, snapshot unchanged so the next activation retries.
	OutcomeFailed
	// OutcomeStale: the ticket is not the outstanding call; ignored.
	OutcomeStale
)

// String returns a short name for logs.
func (o Outcome) String() string {
	switch o {
	case OutcomeRecorded:
		return "recorded"
	case OutcomeFailed:
		return "failed"
	case OutcomeStale:
		return "stale"
	default:
		return "unknown"
	}
}

// Complete finishes the outstanding call described by ticket and clears the
// in-flight guard. err == nil is success, including an empty result.
func (g *Gate) Complete(ticket Ticket, err error) Outcome {
	if !g.inFlight || ticket.Seq != g.pending.Seq {
		return OutcomeStale
	}
	g.inFlight = false
	g.pending = Ticket{}

	if err != nil {
		return OutcomeFailed
	}
	g.snapshot = ticket.Snapshot()
	g.hasSnapshot = true
	return OutcomeRecorded
}
