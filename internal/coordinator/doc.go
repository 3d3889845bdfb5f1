// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package coordinator is the client's state machine.
//
// Update is a pure transition function: it takes the current State and one
// Event and returns the next State plus the Effects the host must run. The
// host (the Bubble Tea program or the line-mode REPL) runs each Effect with
// Perform, which talks to the backend and returns the completion Event to
// feed back into Update.
//
//	state, effects := coordinator.Update(state, coordinator.TabSelected{Tab: view.TabStudy})
//	for _, eff := range effects {
//	    ev := coordinator.Perform(ctx, client, eff)
//	    state, more = coordinator.Update(state, ev)
//	}
//
// All state lives in State. Nothing in this package keeps package-level
// mutable variables.
package coordinator
