// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"github.com/charmbracelet/bubbles/key"
)

// =============================================================================
// KEY MAP DEFINITION
// =============================================================================

// KeyMap defines all keyboard bindings for the application.
type KeyMap struct {
	NextTab     key.Binding
	PrevTab     key.Binding
	ChatTab     key.Binding
	IngestTab   key.Binding
	StudyTab    key.Binding
	CycleFormat key.Binding
	NewChat     key.Binding
	Submit      key.Binding
	NextField   key.Binding
	PrevField   key.Binding
	PageUp      key.Binding
	PageDown    key.Binding
	Help        key.Binding
	Quit        key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		NextTab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("Tab", "next tab"),
		),
		PrevTab: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("S-Tab", "previous tab"),
		),
		ChatTab: key.NewBinding(
			key.WithKeys("f1"),
			key.WithHelp("F1", "chat"),
		),
		IngestTab: key.NewBinding(
			key.WithKeys("f2"),
			key.WithHelp("F2", "ingest"),
		),
		StudyTab: key.NewBinding(
			key.WithKeys("f3"),
			key.WithHelp("F3", "study"),
		),
		CycleFormat: key.NewBinding(
			key.WithKeys("ctrl+f"),
			key.WithHelp("C-f", "cycle format"),
		),
		NewChat: key.NewBinding(
			key.WithKeys("ctrl+n"),
			key.WithHelp("C-n", "new conversation"),
		),
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("Enter", "submit"),
		),
		NextField: key.NewBinding(
			key.WithKeys("down"),
			key.WithHelp("Down", "next field"),
		),
		PrevField: key.NewBinding(
			key.WithKeys("up"),
			key.WithHelp("Up", "previous field"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("PgUp", "page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("PgDn", "page down"),
		),
		Help: key.NewBinding(
			key.WithKeys("ctrl+g"),
			key.WithHelp("C-g", "toggle help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("C-c", "quit"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.NextTab, k.Submit, k.CycleFormat, k.NewChat, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.NextTab, k.PrevTab, k.ChatTab, k.IngestTab, k.StudyTab},
		{k.Submit, k.NextField, k.PrevField},
		{k.PageUp, k.PageDown},
		{k.CycleFormat, k.NewChat, k.Help, k.Quit},
	}
}
