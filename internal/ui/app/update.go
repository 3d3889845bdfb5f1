// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jeranaias/studyrun/internal/coordinator"
	"github.com/jeranaias/studyrun/internal/util"
	"github.com/jeranaias/studyrun/internal/view"
)

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case EventMsg:
		return m.dispatch(msg.Event)

	case SettingsMsg:
		return m.applySettings(msg.Settings)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// =============================================================================
// KEY HANDLING
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.NextTab):
		return m.dispatch(coordinator.TabSelected{Tab: m.state.View.Next()})
	case key.Matches(msg, m.keys.PrevTab):
		return m.dispatch(coordinator.TabSelected{Tab: m.state.View.Prev()})
	case key.Matches(msg, m.keys.ChatTab):
		return m.dispatch(coordinator.TabSelected{Tab: view.TabChat})
	case key.Matches(msg, m.keys.IngestTab):
		return m.dispatch(coordinator.TabSelected{Tab: view.TabIngest})
	case key.Matches(msg, m.keys.StudyTab):
		return m.dispatch(coordinator.TabSelected{Tab: view.TabStudy})
	case key.Matches(msg, m.keys.CycleFormat):
		return m.dispatch(coordinator.FormatSelected{Format: m.state.Session.PreferredFormat().Next()})
	case key.Matches(msg, m.keys.NewChat):
		return m.dispatch(coordinator.NewConversationRequested{})
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.PageUp):
		m.viewport.HalfViewUp()
		return m, nil
	case key.Matches(msg, m.keys.PageDown):
		m.viewport.HalfViewDown()
		return m, nil
	}

	switch m.state.View.Active() {
	case view.TabChat:
		return m.handleChatKey(msg)
	case view.TabIngest:
		return m.handleIngestKey(msg)
	default:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
}

func (m Model) handleChatKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Submit) {
		text := m.composer.Value()
		m.composer.Reset()
		return m.dispatch(coordinator.MessageSubmitted{Text: text})
	}
	var cmd tea.Cmd
	m.composer, cmd = m.composer.Update(msg)
	return m, cmd
}

func (m Model) handleIngestKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.NextField), key.Matches(msg, m.keys.PrevField):
		if m.ingestField == fieldPath {
			m.ingestField = fieldTitle
		} else {
			m.ingestField = fieldPath
		}
		m.refocus()
		return m, nil

	case key.Matches(msg, m.keys.Submit):
		ev := coordinator.IngestSubmitted{Path: m.ingestPath.Value(), Title: m.ingestTitle.Value()}
		next, cmd := m.dispatch(ev)
		nm := next.(Model)
		if nm.state.IngestBusy && !m.state.IngestBusy {
			nm.ingestPath.Reset()
			nm.ingestTitle.Reset()
			nm.ingestField = fieldPath
			nm.refocus()
		}
		return nm, cmd
	}

	var cmd tea.Cmd
	if m.ingestField == fieldTitle {
		m.ingestTitle, cmd = m.ingestTitle.Update(msg)
	} else {
		m.ingestPath, cmd = m.ingestPath.Update(msg)
	}
	return m, cmd
}

// =============================================================================
// EVENT DISPATCH
// =============================================================================

// dispatch feeds ev through the reducer and schedules its effects.
func (m Model) dispatch(ev coordinator.Event) (tea.Model, tea.Cmd) {
	m.logEvent(ev)

	before := m.state.View.Active()
	var effects []coordinator.Effect
	m.state, effects = coordinator.Update(m.state, ev)

	if m.state.View.Active() != before {
		m.refocus()
		m.resize(m.width, m.height)
	} else {
		m.refresh()
	}

	cmds := make([]tea.Cmd, 0, len(effects))
	for _, eff := range effects {
		m.logEffect(eff)
		cmds = append(cmds, m.effectCmd(eff))
	}
	return m, tea.Batch(cmds...)
}

// applySettings takes a reloaded configuration. The format is only changed
// when the configured value changed, so a format picked with the keyboard
// survives unrelated edits.
func (m Model) applySettings(s Settings) (tea.Model, tea.Cmd) {
	m.logger.Info("settings reloaded",
		zap.String("format", s.Format.String()),
		zap.Bool("compact", s.Compact))

	var cmd tea.Cmd
	if s.Format != m.configFormat {
		m.configFormat = s.Format
		var next tea.Model
		next, cmd = m.dispatch(coordinator.FormatSelected{Format: s.Format})
		m = next.(Model)
	}
	if s.Compact != m.compact {
		m.compact = s.Compact
		m.resize(m.width, m.height)
	}
	return m, tea.Batch(cmd, m.waitForSettings())
}

// effectCmd runs one effect off the event loop.
func (m Model) effectCmd(eff coordinator.Effect) tea.Cmd {
	ctx, remote := m.ctx, m.remote
	return func() tea.Msg {
		ev := coordinator.Perform(ctx, remote, eff)
		if ev == nil {
			return nil
		}
		return EventMsg{Event: ev}
	}
}

// =============================================================================
// LOGGING
// =============================================================================

func (m Model) logEvent(ev coordinator.Event) {
	switch ev := ev.(type) {
	case coordinator.TabSelected:
		m.logger.Debug("tab selected", zap.Stringer("tab", ev.Tab))
	case coordinator.FormatSelected:
		m.logger.Debug("format selected", zap.Stringer("format", ev.Format))
	case coordinator.ConversationStarted:
		if ev.Err != nil {
			m.logger.Warn("conversation start failed", zap.Error(ev.Err))
			return
		}
		m.logger.Info("conversation started", zap.Stringer("conversation", ev.ID))
	case coordinator.ChatReplied:
		if ev.Err != nil {
			m.logger.Warn("chat failed", zap.String("turn", ev.TurnID), zap.Error(ev.Err))
		}
	case coordinator.IngestFinished:
		if ev.Err != nil {
			m.logger.Warn("ingest failed", zap.Error(ev.Err))
			return
		}
		m.logger.Info("ingest finished", zap.Bool("skipped", ev.Result.Skipped), zap.Int("chunks", ev.Result.InsertedChunks))
	case coordinator.AnalysisFinished:
		pending, ok := m.state.Gate.Pending()
		if !ok || pending.Seq != ev.Ticket.Seq {
			m.logger.Debug("stale analysis ignored", zap.Uint64("seq", ev.Ticket.Seq))
			return
		}
		if ev.Err != nil {
			m.logger.Warn("analysis failed", zap.Uint64("seq", ev.Ticket.Seq), zap.Error(ev.Err))
			return
		}
		m.logger.Info("analysis finished",
			zap.Uint64("seq", ev.Ticket.Seq),
			zap.Int("items", len(ev.Analysis.Contents)))
	}
}

func (m Model) logEffect(eff coordinator.Effect) {
	switch eff := eff.(type) {
	case coordinator.AnalyzeAndGenerate:
		m.logger.Info("analysis issued",
			zap.Uint64("seq", eff.Ticket.Seq),
			zap.Stringer("conversation", eff.Ticket.Conversation),
			zap.Uint64("revision", uint64(eff.Ticket.Revision)),
			zap.Stringer("format", eff.Ticket.Format))
	case coordinator.SendChat:
		m.logger.Debug("chat issued",
			zap.String("turn", eff.TurnID),
			zap.String("preview", util.TruncateWidth(util.FirstLine(eff.Message), 40)))
	default:
		m.logger.Debug("effect issued", zap.String("type", fmt.Sprintf("%T", eff)))
	}
}
