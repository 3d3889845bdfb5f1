// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util holds small helpers shared by studyrun packages.
//
//   - AtomicWriteFile: crash-safe file writes (config files)
//   - TruncateWidth, StringWidth, PadRight: terminal-width aware string
//     helpers built on go-runewidth
//   - ExpandHome: "~/" expansion for user supplied paths
package util
