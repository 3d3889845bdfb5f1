// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package coordinator

import (
	"github.com/jeranaias/studyrun/internal/gate"
	"github.com/jeranaias/studyrun/internal/model"
	"github.com/jeranaias/studyrun/internal/session"
	"github.com/jeranaias/studyrun/internal/view"
)

// DefaultTopK is the retrieval breadth sent with every chat turn.
const DefaultTopK = 5

// Status lines shown to the user.
const (
	StatusSending         = "Sending…"
	StatusSendFailed      = "Failed to send message."
	StatusStartFailed     = "Conversation could not start."
	StatusNewConversation = "New conversation. Send a message to start it."
	StatusUploading       = "Uploading file for ingestion…"
	StatusIngestFailed    = "Ingestion failed."
	StatusIngestBusy      = "An upload is already running."
	StatusIngestNoFile    = "Choose a file to ingest."
	TextNoConversation    = "No conversation found. Go to the Chat tab, talk a little and come back to Study."
	TextGenerating        = "Generating personalized content…"
	TextNoContent         = "No content generated."
	TextGenerationFailed  = "Failed to generate content."
)

// =============================================================================
// STUDY PANE
// =============================================================================

// PaneKind is what the study pane currently shows.
type PaneKind int

const (
	PaneEmpty PaneKind = iota
	PaneNoConversation
	PaneGenerating
	PaneContents
	PaneNoContent
	PaneError
)

// String returns a short name for logs.
func (k PaneKind) String() string {
	switch k {
	case PaneEmpty:
		return "empty"
	case PaneNoConversation:
		return "no-conversation"
	case PaneGenerating:
		return "generating"
	case PaneContents:
		return "contents"
	case PaneNoContent:
		return "no-content"
	case PaneError:
		return "error"
	default:
		return "unknown"
	}
}

// Text returns the fixed message for placeholder kinds.
func (k PaneKind) Text() string {
	switch k {
	case PaneNoConversation:
		return TextNoConversation
	case PaneGenerating:
		return TextGenerating
	case PaneNoContent:
		return TextNoContent
	case PaneError:
		return TextGenerationFailed
	default:
		return ""
	}
}

// Pane is the content area of the study tab.
type Pane struct {
	Kind     PaneKind
	Analysis model.Analysis // set for PaneContents

	// Renders counts how many times the pane was redrawn. A reused
	// activation leaves it unchanged.
	Renders int
}

func (p *Pane) show(kind PaneKind, analysis model.Analysis) {
	p.Kind = kind
	p.Analysis = analysis
	p.Renders++
}

// =============================================================================
// STATE
// =============================================================================

// queuedTurn is a user message waiting for a conversation handle.
type queuedTurn struct {
	turnID string
	text   string
}

// State is everything the client knows. Copy it freely; Update never mutates
// the value it was given in a way visible to the caller.
type State struct {
	Session    session.Store
	Revisions  session.Tracker
	Gate       gate.Gate
	View       view.Controller
	Transcript model.Transcript

	ChatStatus   string
	IngestStatus string
	IngestBusy   bool
	Pane         Pane

	TopK int

	queued       []queuedTurn
	pendingTurns int
}

// NewState returns the initial state: chat tab, no conversation.
// topK <= 0 selects DefaultTopK.
func NewState(topK int) State {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return State{
		Transcript: model.NewTranscript(),
		TopK:       topK,
	}
}

// Busy reports whether any chat turn is waiting on the backend.
func (s State) Busy() bool {
	return s.pendingTurns > 0 || len(s.queued) > 0
}

// Generating reports whether an analyze-and-generate call is outstanding.
func (s State) Generating() bool {
	return s.Gate.InFlight()
}
