// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package coordinator

import (
	"github.com/jeranaias/studyrun/internal/gate"
	"github.com/jeranaias/studyrun/internal/model"
)

// Effect is a remote call Update asks the host to perform.
type Effect interface {
	isEffect()
}

// StartConversation asks the backend for a new conversation handle.
type StartConversation struct {
	Generation uint64
}

// SendChat sends one user message.
type SendChat struct {
	TurnID       string
	Generation   uint64
	Conversation model.ConversationID
	Message      string
	TopK         int
}

// Ingest uploads a local file.
type Ingest struct {
	Path  string
	Title string
}

// AnalyzeAndGenerate requests study content for the ticket's conversation.
type AnalyzeAndGenerate struct {
	Ticket gate.Ticket
}

func (StartConversation) isEffect()  {}
func (SendChat) isEffect()           {}
func (Ingest) isEffect()             {}
func (AnalyzeAndGenerate) isEffect() {}
