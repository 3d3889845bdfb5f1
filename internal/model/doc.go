// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures shared by the studyrun client.
//
// # Key Types
//
//   - ConversationID: Opaque handle of a server-tracked conversation
//   - Format: Preferred output format for generated study content
//   - ContentItem: One generated study artifact (category, topic, title, body)
//   - Analysis: Topic assessments plus the generated contents
//   - IngestResult: Outcome of a document ingestion
//   - Transcript: Ordered chat messages shown in the Chat tab
//
// # Usage
//
//	f, err := model.ParseFormat("video")
//	if err != nil {
//	    return err
//	}
//	t := model.NewTranscript()
//	t.Append(model.NewUserMessage("hello"))
package model
