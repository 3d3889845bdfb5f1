// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package coordinator

import (
	"slices"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/jeranaias/studyrun/internal/gate"
	"github.com/jeranaias/studyrun/internal/model"
)

// Update applies one event and returns the next state and the effects to run.
// It performs no I/O.
func Update(s State, ev Event) (State, []Effect) {
	switch ev := ev.(type) {
	case MessageSubmitted:
		return s.handleMessageSubmitted(ev)
	case ConversationStarted:
		return s.handleConversationStarted(ev)
	case ChatReplied:
		return s.handleChatReplied(ev)
	case TabSelected:
		return s.handleTabSelected(ev)
	case FormatSelected:
		s.Session.SetPreferredFormat(ev.Format)
		return s, nil
	case NewConversationRequested:
		return s.handleNewConversation()
	case IngestSubmitted:
		return s.handleIngestSubmitted(ev)
	case IngestFinished:
		return s.handleIngestFinished(ev)
	case AnalysisFinished:
		return s.handleAnalysisFinished(ev)
	default:
		return s, nil
	}
}

// normalize trims text and converts it to NFC so composed and decomposed
// input reach the backend identically.
func normalize(text string) string {
	return norm.NFC.String(strings.TrimSpace(text))
}

// =============================================================================
// CHAT
// =============================================================================

func (s State) handleMessageSubmitted(ev MessageSubmitted) (State, []Effect) {
	text := normalize(ev.Text)
	if text == "" {
		return s, nil
	}

	msg := model.NewUserMessage(text)
	s.Transcript.Append(msg)
	s.ChatStatus = StatusSending

	if conv, ok := s.Session.Current(); ok {
		s.pendingTurns++
		return s, []Effect{s.sendChat(msg.ID, conv, text)}
	}

	s.queued = append(slices.Clip(s.queued), queuedTurn{turnID: msg.ID, text: text})
	if !s.Session.NeedsStart() {
		return s, nil
	}
	s.Session.BeginStart()
	return s, []Effect{StartConversation{Generation: s.Session.Generation()}}
}

func (s State) sendChat(turnID string, conv model.ConversationID, text string) SendChat {
	return SendChat{
		TurnID:       turnID,
		Generation:   s.Session.Generation(),
		Conversation: conv,
		Message:      text,
		TopK:         s.TopK,
	}
}

func (s State) handleConversationStarted(ev ConversationStarted) (State, []Effect) {
	if ev.Generation != s.Session.Generation() || !s.Session.Starting() {
		return s, nil
	}

	if ev.Err != nil || ev.ID.IsZero() {
		s.Session.FailStart()
		for _, q := range s.queued {
			s.Transcript.MarkFailed(q.turnID)
		}
		s.queued = nil
		s.ChatStatus = StatusStartFailed
		return s, nil
	}

	s.Session.Adopt(ev.ID)
	s.Gate.Invalidate()

	effects := make([]Effect, 0, len(s.queued))
	for _, q := range s.queued {
		effects = append(effects, s.sendChat(q.turnID, ev.ID, q.text))
	}
	s.pendingTurns += len(s.queued)
	s.queued = nil
	return s, effects
}

func (s State) handleChatReplied(ev ChatReplied) (State, []Effect) {
	if ev.Generation != s.Session.Generation() {
		return s, nil
	}
	if s.pendingTurns > 0 {
		s.pendingTurns--
	}

	if ev.Err != nil {
		s.Transcript.MarkFailed(ev.TurnID)
		s.ChatStatus = StatusSendFailed
		return s, nil
	}

	s.Session.Rotate(ev.Conversation)
	s.Transcript.Append(model.NewAssistantMessage(ev.Reply))
	s.Revisions.RecordTurnCompleted()
	if s.pendingTurns == 0 {
		s.ChatStatus = ""
	}
	return s, nil
}

func (s State) handleNewConversation() (State, []Effect) {
	s.queued = nil
	s.pendingTurns = 0

	s.Session.Reset()
	s.Gate.Invalidate()
	s.Transcript.Clear()
	s.ChatStatus = StatusNewConversation
	return s, nil
}

// =============================================================================
// STUDY
// =============================================================================

func (s State) handleTabSelected(ev TabSelected) (State, []Effect) {
	tr := s.View.Select(ev.Tab)
	if !tr.ActivatesStudy {
		return s, nil
	}

	conv, hasConv := s.Session.Current()
	action := s.Gate.Trigger(conv, hasConv, s.Revisions.Current(), s.Session.PreferredFormat())

	switch action.Kind {
	case gate.ActionPlaceholder:
		s.Pane.show(PaneNoConversation, model.Analysis{})
	case gate.ActionIssue:
		s.Pane.show(PaneGenerating, model.Analysis{})
		return s, []Effect{AnalyzeAndGenerate{Ticket: action.Ticket}}
	}
	// Reuse and dropped activations leave the pane alone.
	return s, nil
}

func (s State) handleAnalysisFinished(ev AnalysisFinished) (State, []Effect) {
	switch s.Gate.Complete(ev.Ticket, ev.Err) {
	case gate.OutcomeStale:
		return s, nil
	case gate.OutcomeFailed:
		s.Pane.show(PaneError, model.Analysis{})
	case gate.OutcomeRecorded:
		if ev.Analysis.IsEmpty() {
			s.Pane.show(PaneNoContent, ev.Analysis)
		} else {
			s.Pane.show(PaneContents, ev.Analysis)
		}
	}
	return s, nil
}

// =============================================================================
// INGEST
// =============================================================================

func (s State) handleIngestSubmitted(ev IngestSubmitted) (State, []Effect) {
	path := strings.TrimSpace(ev.Path)
	if path == "" {
		s.IngestStatus = StatusIngestNoFile
		return s, nil
	}
	if s.IngestBusy {
		s.IngestStatus = StatusIngestBusy
		return s, nil
	}

	s.IngestBusy = true
	s.IngestStatus = StatusUploading
	return s, []Effect{Ingest{Path: path, Title: normalize(ev.Title)}}
}

func (s State) handleIngestFinished(ev IngestFinished) (State, []Effect) {
	s.IngestBusy = false
	if ev.Err != nil {
		s.IngestStatus = StatusIngestFailed
		return s, nil
	}
	s.IngestStatus = ev.Result.Summary()
	return s, nil
}
