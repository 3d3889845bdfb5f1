// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli wires configuration, logging and the backend client into the
// studyrun command tree.
//
// # Commands
//
//   - studyrun: full-screen interface (line mode when not on a terminal)
//   - studyrun repl: line-mode REPL with history
//   - studyrun config show|path|get|set|init|keys
//   - studyrun version
//
// Both front ends drive the same coordinator reducer; the REPL performs
// effects synchronously through coordinator.Run.
package cli
