// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package gate decides, on each activation of the Study tab, whether the
// study content on screen can be reused or must be regenerated.
//
// The gate remembers the (conversation, revision) pair the last successful
// generation was computed against and allows at most one generation call in
// flight. A call is described by a Ticket that captures the conversation and
// revision at issuance; the snapshot recorded on success is the ticket's, not
// whatever the counters read when the reply lands.
//
// # Usage
//
//	action := g.Trigger(conv, hasConv, revision, format)
//	switch action.Kind {
//	case gate.ActionIssue:
//	    // call analyze-and-generate with action.Ticket
//	case gate.ActionPlaceholder:
//	    // show "no conversation" guidance
//	}
//
//	// when the call returns:
//	outcome := g.Complete(ticket, err)
package gate
