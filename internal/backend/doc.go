// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package backend is the HTTP client for the study assistant API.
//
// The API exposes four operations: start a conversation, send a chat turn,
// ingest a document, and analyze a conversation to generate study content.
// Client implements coordinator.Remote on top of them.
//
// # Timeouts
//
// Each operation runs under its own deadline: Timeout for start and chat,
// IngestTimeout for uploads, AnalyzeTimeout for generation. An
// AnalyzeTimeout of zero leaves generation unbounded.
//
// # Errors
//
// Every failure is a *ClientError. Use IsTimeout, IsConnection, IsNotFound
// and IsBackend to classify it.
//
// # Example
//
//	client := backend.NewClientWithConfig(&backend.ClientConfig{
//	    BaseURL: "http://127.0.0.1:8000",
//	    Logger:  logger,
//	})
//	defer client.Close()
//
//	conv, err := client.StartConversation(ctx)
package backend
