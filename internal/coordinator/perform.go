// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package coordinator

import (
	"context"

	"github.com/jeranaias/studyrun/internal/model"
)

// Remote is the set of backend operations the client consumes.
// backend.Client implements it.
type Remote interface {
	StartConversation(ctx context.Context) (model.ConversationID, error)
	Chat(ctx context.Context, conv model.ConversationID, message string, topK int) (model.ChatReply, error)
	Ingest(ctx context.Context, path, title string) (model.IngestResult, error)
	AnalyzeAndGenerate(ctx context.Context, conv model.ConversationID, format model.Format) (model.Analysis, error)
}

// Perform runs one effect against the backend and returns the event that
// reports its completion. It blocks until the remote call returns.
// Unknown effects yield nil.
func Perform(ctx context.Context, remote Remote, eff Effect) Event {
	switch eff := eff.(type) {
	case StartConversation:
		id, err := remote.StartConversation(ctx)
		return ConversationStarted{Generation: eff.Generation, ID: id, Err: err}

	case SendChat:
		reply, err := remote.Chat(ctx, eff.Conversation, eff.Message, eff.TopK)
		return ChatReplied{
			TurnID:       eff.TurnID,
			Generation:   eff.Generation,
			Conversation: reply.Conversation,
			Reply:        reply.Answer,
			Err:          err,
		}

	case Ingest:
		result, err := remote.Ingest(ctx, eff.Path, eff.Title)
		return IngestFinished{Result: result, Err: err}

	case AnalyzeAndGenerate:
		analysis, err := remote.AnalyzeAndGenerate(ctx, eff.Ticket.Conversation, eff.Ticket.Format)
		return AnalysisFinished{Ticket: eff.Ticket, Analysis: analysis, Err: err}

	default:
		return nil
	}
}

// Run feeds ev through Update and performs every resulting effect
// synchronously, feeding each completion back in, until no effects remain.
// The line-mode front end uses it; the TUI runs effects as commands instead.
func Run(ctx context.Context, remote Remote, s State, ev Event) State {
	pending := []Event{ev}
	for len(pending) > 0 {
		next := pending[0]
		pending = pending[1:]

		var effects []Effect
		s, effects = Update(s, next)
		for _, eff := range effects {
			if done := Perform(ctx, remote, eff); done != nil {
				pending = append(pending, done)
			}
		}
	}
	return s
}
