// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package app is the Bubble Tea front end for studyrun.
//
// The Model hosts a coordinator.State and turns every key press or remote
// completion into a coordinator event. Effects returned by the reducer run
// as tea.Cmds; their completions come back as EventMsg values and go
// through the same reducer. The model itself never talks to the backend
// directly.
//
// # Layout
//
//	 studyrun  Chat  Ingest  Study
//	┌──────────────────────────────┐
//	│ transcript / form / content  │
//	└──────────────────────────────┘
//	 status line
//	 key help
package app
