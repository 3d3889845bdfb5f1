// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session holds the per-client conversation state.
//
// # Key Types
//
//   - Store: Current conversation handle, pending start and preferred format
//   - Tracker: Monotonic revision counter, one step per completed chat turn
//
// Both types are plain values owned by the coordinator state. They carry no
// locks: every mutation happens on the single event loop.
//
// # Usage
//
//	var store session.Store
//	if store.NeedsStart() {
//	    store.BeginStart()
//	    // issue the remote start, then on success:
//	    store.Adopt(id)
//	}
//
//	var revs session.Tracker
//	revs.RecordTurnCompleted()
package session
