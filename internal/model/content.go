// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"fmt"
	"strings"
)

// ContentItem is one piece of generated study content.
// The backend owns it entirely; the client only displays it.
type ContentItem struct {
	ID       string
	Category string // content_type: video, audio, texto
	Topic    string // subtema
	Level    string // nivel of the topic the item addresses
	Title    string
	Body     string // script
}

// DisplayTitle returns the title, or a placeholder when the backend sent none.
func (c ContentItem) DisplayTitle() string {
	if strings.TrimSpace(c.Title) == "" {
		return "(untitled)"
	}
	return c.Title
}

// Badge returns the "CATEGORY • topic" label shown above each card.
func (c ContentItem) Badge() string {
	category := strings.ToUpper(strings.TrimSpace(c.Category))
	if category == "" {
		category = "CONTENT"
	}
	if c.Topic == "" {
		return category
	}
	return category + " • " + c.Topic
}

// TopicAssessment is the backend's judgement of the learner on one topic.
type TopicAssessment struct {
	Topic     string
	Level     string
	Rationale string
}

// Analysis is the result of one analyze-and-generate call.
type Analysis struct {
	Assessments []TopicAssessment
	Contents    []ContentItem
}

// IsEmpty reports whether no content was generated.
func (a Analysis) IsEmpty() bool {
	return len(a.Contents) == 0
}

// IngestResult is the outcome of uploading a document.
type IngestResult struct {
	Skipped        bool
	Reason         string
	InsertedChunks int
}

// Summary returns the status line shown in the Ingest tab.
func (r IngestResult) Summary() string {
	if r.Skipped {
		reason := strings.TrimSpace(r.Reason)
		if reason == "" {
			reason = "already ingested"
		}
		return "Ingestion skipped: " + strings.ReplaceAll(reason, "_", " ") + "."
	}
	return fmt.Sprintf("Ingestion complete. Chunks inserted: %d", r.InsertedChunks)
}
