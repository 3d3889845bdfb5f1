// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/studyrun/internal/coordinator"
	"github.com/jeranaias/studyrun/internal/util"
	"github.com/jeranaias/studyrun/internal/view"
)

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var body string
	switch m.state.View.Active() {
	case view.TabChat:
		body = m.renderChat()
	case view.TabIngest:
		body = m.renderIngest()
	case view.TabStudy:
		body = m.renderStudy()
	}

	parts := []string{m.renderHeader(), body, m.renderStatus()}
	if !m.compact {
		parts = append(parts, m.help.View(m.keys))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// =============================================================================
// CHROME
// =============================================================================

func (m Model) renderHeader() string {
	tabs := []string{m.theme.Brand.Render("studyrun")}
	for _, tab := range view.Tabs() {
		style := m.theme.TabInactive
		if tab == m.state.View.Active() {
			style = m.theme.TabActive
		}
		tabs = append(tabs, style.Render(tab.Title()))
	}
	line := strings.Join(tabs, m.theme.TabGap.Render(" "))
	return line + "\n" + m.theme.Muted.Render(strings.Repeat("─", max(m.width, 1)))
}

func (m Model) renderStatus() string {
	var text string
	switch m.state.View.Active() {
	case view.TabChat:
		text = m.state.ChatStatus
		if m.state.Busy() {
			text = m.spinner.View() + " " + text
		}
	case view.TabIngest:
		text = m.state.IngestStatus
		if m.state.IngestBusy {
			text = m.spinner.View() + " " + text
		}
	case view.TabStudy:
		if id, ok := m.state.Session.Current(); ok {
			text = "conversation " + id.String()
		}
	}
	return m.theme.StatusBar.Render(util.TruncateWidth(text, max(m.width-2, 1)))
}

// =============================================================================
// TABS
// =============================================================================

func (m Model) renderChat() string {
	return m.viewport.View() + "\n\n" + m.composer.View()
}

func (m Model) renderIngest() string {
	lines := []string{
		m.theme.CardTitle.Render("Upload a document to the knowledge base"),
		"",
		m.ingestPath.View(),
		m.ingestTitle.View(),
		"",
		m.theme.Muted.Render("Up/Down switch fields, Enter uploads."),
	}
	return lipgloss.NewStyle().Height(m.viewport.Height + composerRows).Render(strings.Join(lines, "\n"))
}

func (m Model) renderStudy() string {
	label := m.renderer.FormatLabel(m.state.Session.PreferredFormat())
	if m.state.Pane.Kind == coordinator.PaneGenerating {
		label = m.spinner.View() + " " + label
	}
	return label + "\n\n" + m.viewport.View()
}
