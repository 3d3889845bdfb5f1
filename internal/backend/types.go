// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"encoding/json"
	"strings"

	"github.com/jeranaias/studyrun/internal/model"
)

// =============================================================================
// CONVERSATION
// =============================================================================

// StartResponse is the body of POST /api/conversation/start.
type StartResponse struct {
	ConversationID model.ConversationID `json:"conversation_id"`
}

// ChatRequest is the body of POST /api/conversation/chat.
// A zero ConversationID is sent as null.
type ChatRequest struct {
	Message        string               `json:"message"`
	TopK           int                  `json:"top_k"`
	ConversationID model.ConversationID `json:"conversation_id"`
}

// ChatResponse is the reply to a chat turn. History is the backend's full
// record of the conversation; the client only logs its length.
type ChatResponse struct {
	ConversationID model.ConversationID `json:"conversation_id"`
	Answer         string               `json:"answer"`
	History        []HistoryTurn        `json:"history"`
}

// HistoryTurn is one entry of the backend conversation history.
type HistoryTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// =============================================================================
// INGEST
// =============================================================================

// IngestResponse is the body returned by POST /api/ingest.
type IngestResponse struct {
	Skipped        bool            `json:"skipped"`
	Reason         string          `json:"reason,omitempty"`
	InsertedChunks int             `json:"inserted_chunks"`
	Metadata       json.RawMessage `json:"metadata,omitempty"`
}

func (r IngestResponse) toModel() model.IngestResult {
	return model.IngestResult{
		Skipped:        r.Skipped,
		Reason:         r.Reason,
		InsertedChunks: r.InsertedChunks,
	}
}

// =============================================================================
// ANALYZE AND GENERATE
// =============================================================================

// AnalyzeRequest is the body of POST /api/conversation/{id}/analyze-and-generate.
// Automatic format marshals as null.
type AnalyzeRequest struct {
	PreferredFormat model.Format `json:"preferred_format"`
}

// AnalyzeResponse holds the per-topic analysis and the generated contents.
type AnalyzeResponse struct {
	Analysis []TopicAnalysis `json:"analysis"`
	Contents []GeneratedItem `json:"contents"`
}

// TopicAnalysis is the backend's assessment of one topic.
type TopicAnalysis struct {
	Topic     string `json:"subtema"`
	Level     string `json:"nivel"`
	Rationale string `json:"justificativa"`
}

// GeneratedItem is one generated content row.
type GeneratedItem struct {
	ID          json.Number     `json:"id"`
	ContentType string          `json:"content_type"`
	Topic       string          `json:"subtema"`
	Level       string          `json:"nivel"`
	Title       string          `json:"title"`
	Script      string          `json:"script"`
	Metadata    json.RawMessage `json:"extra_metadata,omitempty"`
}

func (r AnalyzeResponse) toModel() model.Analysis {
	out := model.Analysis{
		Assessments: make([]model.TopicAssessment, 0, len(r.Analysis)),
		Contents:    make([]model.ContentItem, 0, len(r.Contents)),
	}
	for _, a := range r.Analysis {
		out.Assessments = append(out.Assessments, model.TopicAssessment{
			Topic:     a.Topic,
			Level:     a.Level,
			Rationale: a.Rationale,
		})
	}
	for _, item := range r.Contents {
		out.Contents = append(out.Contents, model.ContentItem{
			ID:       item.ID.String(),
			Category: item.ContentType,
			Topic:    item.Topic,
			Level:    item.Level,
			Title:    item.Title,
			Body:     item.Script,
		})
	}
	return out
}

// =============================================================================
// ERRORS
// =============================================================================

// errorBody is a FastAPI error response. Detail is a string for
// HTTPException and a list of objects for validation errors.
type errorBody struct {
	Detail json.RawMessage `json:"detail"`
}

func (b errorBody) message() string {
	if len(b.Detail) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(b.Detail, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var list []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(b.Detail, &list); err == nil {
		msgs := make([]string, 0, len(list))
		for _, item := range list {
			if item.Msg != "" {
				msgs = append(msgs, item.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return string(b.Detail)
}
