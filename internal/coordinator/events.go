// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package coordinator

import (
	"github.com/jeranaias/studyrun/internal/gate"
	"github.com/jeranaias/studyrun/internal/model"
	"github.com/jeranaias/studyrun/internal/view"
)

// Event is an input to Update: a user action or a remote completion.
type Event interface {
	isEvent()
}

// =============================================================================
// USER EVENTS
// =============================================================================

// MessageSubmitted is sent when the user submits the chat composer.
type MessageSubmitted struct {
	Text string
}

// TabSelected is sent when the user picks a tab.
type TabSelected struct {
	Tab view.Tab
}

// FormatSelected is sent when the user changes the preferred content format.
type FormatSelected struct {
	Format model.Format
}

// NewConversationRequested is sent when the user asks for a fresh conversation.
type NewConversationRequested struct{}

// IngestSubmitted is sent when the user submits the ingest form.
type IngestSubmitted struct {
	Path  string
	Title string
}

// =============================================================================
// COMPLETION EVENTS
// =============================================================================

// ConversationStarted carries the result of StartConversation.
type ConversationStarted struct {
	Generation uint64
	ID         model.ConversationID
	Err        error
}

// ChatReplied carries the result of SendChat.
type ChatReplied struct {
	TurnID       string
	Generation   uint64
	Conversation model.ConversationID
	Reply        string
	Err          error
}

// IngestFinished carries the result of Ingest.
type IngestFinished struct {
	Result model.IngestResult
	Err    error
}

// AnalysisFinished carries the result of AnalyzeAndGenerate.
type AnalysisFinished struct {
	Ticket   gate.Ticket
	Analysis model.Analysis
	Err      error
}

func (MessageSubmitted) isEvent()         {}
func (TabSelected) isEvent()              {}
func (FormatSelected) isEvent()           {}
func (NewConversationRequested) isEvent() {}
func (IngestSubmitted) isEvent()          {}
func (ConversationStarted) isEvent()      {}
func (ChatReplied) isEvent()              {}
func (IngestFinished) isEvent()           {}
func (AnalysisFinished) isEvent()         {}
