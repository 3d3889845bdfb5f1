// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package view tracks which of the three tabs is active.
package view

import (
	"fmt"
	"strings"
)

// Tab is one of the client's views.
type Tab int

const (
	TabChat Tab = iota
	TabIngest
	TabStudy
)

// Tabs returns every tab in display order.
func Tabs() []Tab {
	return []Tab{TabChat, TabIngest, TabStudy}
}

// String returns the tab's name.
func (t Tab) String() string {
	switch t {
	case TabChat:
		return "chat"
	case TabIngest:
		return "ingest"
	case TabStudy:
		return "study"
	default:
		return fmt.Sprintf("tab(%d)", int(t))
	}
}

// Title returns the label shown in the tab bar.
func (t Tab) Title() string {
	switch t {
	case TabChat:
		return "Chat"
	case TabIngest:
		return "Ingest"
	case TabStudy:
		return "Study"
	default:
		return t.String()
	}
}

// Valid reports whether t names a real tab.
func (t Tab) Valid() bool {
	return t >= TabChat && t <= TabStudy
}

// ParseTab maps a name ("chat", "ingest", "study") to a Tab.
func ParseTab(s string) (Tab, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "chat":
		return TabChat, nil
	case "ingest":
		return TabIngest, nil
	case "study":
		return TabStudy, nil
	default:
		return TabChat, fmt.Errorf("unknown tab %q", s)
	}
}

// Transition describes a tab change.
type Transition struct {
	From Tab
	To   Tab

	// ActivatesStudy is true whenever study is selected, including when it
	// was already active.
	ActivatesStudy bool
}

// Controller is the tab state machine. The zero value starts on chat.
type Controller struct {
	active Tab
}

// Active returns the current tab.
func (c Controller) Active() Tab {
	return c.active
}

// Select makes tab active. Invalid tabs leave the controller unchanged and
// produce a transition that activates nothing.
func (c *Controller) Select(tab Tab) Transition {
	from := c.active
	if !tab.Valid() {
		return Transition{From: from, To: from}
	}
	c.active = tab
	return Transition{
		From:           from,
		To:             tab,
		ActivatesStudy: tab == TabStudy,
	}
}

// Next returns the tab after the active one, wrapping around.
func (c Controller) Next() Tab {
	return Tab((int(c.active) + 1) % len(Tabs()))
}

// Prev returns the tab before the active one, wrapping around.
func (c Controller) Prev() Tab {
	n := len(Tabs())
	return Tab((int(c.active) + n - 1) % n)
}
