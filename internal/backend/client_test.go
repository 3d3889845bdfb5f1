// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/jeranaias/studyrun/internal/coordinator"
	"github.com/jeranaias/studyrun/internal/model"
)

var _ coordinator.Remote = (*Client)(nil)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// newTestClient points a client at handler and closes both when the test ends.
func newTestClient(t *testing.T, handler http.HandlerFunc, mutate ...func(*ClientConfig)) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	cfg := &ClientConfig{
		BaseURL:           server.URL,
		RequestsPerSecond: -1,
		Logger:            zap.NewNop(),
	}
	for _, fn := range mutate {
		fn(cfg)
	}
	client := NewClientWithConfig(cfg)
	t.Cleanup(func() {
		client.Close()
		server.Close()
	})
	return client
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, body string) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

// =============================================================================
// CONFIGURATION
// =============================================================================

func TestNewClientWithConfig_FillsDefaults(t *testing.T) {
	client := NewClientWithConfig(&ClientConfig{BaseURL: "http://example.test/"})
	defer client.Close()

	assert.Equal(t, "http://example.test", client.BaseURL())
	assert.Equal(t, 60*time.Second, client.config.Timeout)
	assert.Equal(t, 10*time.Minute, client.config.IngestTimeout)
	assert.Zero(t, client.config.AnalyzeTimeout, "zero analyze timeout means unbounded")
	assert.Equal(t, 10, client.config.Burst)

	def := NewClient()
	defer def.Close()
	assert.Equal(t, DefaultBaseURL, def.BaseURL())
	assert.Equal(t, 300*time.Second, def.config.AnalyzeTimeout)
}

// =============================================================================
// START CONVERSATION
// =============================================================================

func TestStartConversation(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/conversation/start", r.URL.Path)
		assert.NotEmpty(t, r.Header.Get(RequestIDHeader))
		writeJSON(t, w, http.StatusOK, `{"conversation_id": 17}`)
	})

	id, err := client.StartConversation(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.ConversationID("17"), id)
}

func TestStartConversation_MissingID(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, `{}`)
	})

	_, err := client.StartConversation(context.Background())
	var cerr *ClientError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, ErrTypeInvalidResponse, cerr.Type)
}

// =============================================================================
// CHAT
// =============================================================================

func TestChat_RequestShape(t *testing.T) {
	tests := []struct {
		name     string
		conv     model.ConversationID
		wantConv string
	}{
		{"no conversation sends null", "", "null"},
		{"numeric conversation sends number", "17", "17"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/api/conversation/chat", r.URL.Path)
				assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

				var body map[string]json.RawMessage
				assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
				assert.JSONEq(t, `"hello"`, string(body["message"]))
				assert.JSONEq(t, `5`, string(body["top_k"]))
				assert.JSONEq(t, tt.wantConv, string(body["conversation_id"]))

				writeJSON(t, w, http.StatusOK, `{"conversation_id": 18, "answer": "hi there", "history": [{"role":"user","content":"hello"}]}`)
			})

			reply, err := client.Chat(context.Background(), tt.conv, "hello", 5)
			require.NoError(t, err)
			assert.Equal(t, model.ConversationID("18"), reply.Conversation)
			assert.Equal(t, "hi there", reply.Answer)
		})
	}
}

func TestChat_KeepsHandleWhenResponseOmitsIt(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, `{"answer": "ok"}`)
	})

	reply, err := client.Chat(context.Background(), "9", "hello", 5)
	require.NoError(t, err)
	assert.Equal(t, model.ConversationID("9"), reply.Conversation)
}

func TestChat_BackendError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusInternalServerError, `{"detail": "database unavailable"}`)
	})

	_, err := client.Chat(context.Background(), "1", "hello", 5)
	require.Error(t, err)
	assert.True(t, IsBackend(err))

	var cerr *ClientError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, http.StatusInternalServerError, cerr.Status)
	assert.Equal(t, "database unavailable", cerr.Message)
	assert.Contains(t, err.Error(), "chat: database unavailable")
}

func TestChat_ValidationErrorDetail(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusUnprocessableEntity,
			`{"detail": [{"loc": ["body","message"], "msg": "field required", "type": "missing"}]}`)
	})

	_, err := client.Chat(context.Background(), "1", "", 5)
	var cerr *ClientError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "field required", cerr.Message)
}

func TestChat_InvalidJSON(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, `{"answer": `)
	})

	_, err := client.Chat(context.Background(), "1", "hello", 5)
	var cerr *ClientError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, ErrTypeInvalidResponse, cerr.Type)
}

// =============================================================================
// ANALYZE AND GENERATE
// =============================================================================

const analyzeBody = `{
	"analysis": [{"subtema": "fractions", "nivel": "beginner", "justificativa": "asked basics"}],
	"contents": [
		{"id": 3, "conversation_id": 17, "analysis_id": 1, "subtema": "fractions", "nivel": "beginner",
		 "content_type": "video", "title": "Halves", "script": "Cut it in two.", "extra_metadata": {"duration": 60}},
		{"id": 1, "conversation_id": 17, "analysis_id": 1, "subtema": "fractions", "nivel": "beginner",
		 "content_type": "texto", "title": "", "script": "Read this.", "extra_metadata": null}
	]
}`

func TestAnalyzeAndGenerate(t *testing.T) {
	tests := []struct {
		name       string
		format     model.Format
		wantFormat string
	}{
		{"automatic sends null", model.FormatAuto, "null"},
		{"explicit format", model.FormatVideo, `"video"`},
		{"text format", model.FormatText, `"texto"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/api/conversation/17/analyze-and-generate", r.URL.Path)

				var body map[string]json.RawMessage
				assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
				assert.JSONEq(t, tt.wantFormat, string(body["preferred_format"]))

				writeJSON(t, w, http.StatusOK, analyzeBody)
			})

			analysis, err := client.AnalyzeAndGenerate(context.Background(), "17", tt.format)
			require.NoError(t, err)

			require.Len(t, analysis.Assessments, 1)
			assert.Equal(t, model.TopicAssessment{Topic: "fractions", Level: "beginner", Rationale: "asked basics"}, analysis.Assessments[0])

			require.Len(t, analysis.Contents, 2)
			assert.Equal(t, "3", analysis.Contents[0].ID, "received order is kept")
			assert.Equal(t, "video", analysis.Contents[0].Category)
			assert.Equal(t, "Cut it in two.", analysis.Contents[0].Body)
			assert.Equal(t, "1", analysis.Contents[1].ID)
		})
	}
}

func TestAnalyzeAndGenerate_EmptyResult(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, `{"analysis": [], "contents": []}`)
	})

	analysis, err := client.AnalyzeAndGenerate(context.Background(), "17", model.FormatAuto)
	require.NoError(t, err)
	assert.True(t, analysis.IsEmpty())
}

func TestAnalyzeAndGenerate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(error) bool
		detail string
	}{
		{"bad request detail", http.StatusBadRequest, `{"detail": "Conversation 17 has no messages"}`, IsBackend, "Conversation 17 has no messages"},
		{"not found", http.StatusNotFound, `{"detail": "Not Found"}`, IsNotFound, "Not Found"},
		{"plain text body", http.StatusBadGateway, `upstream down`, IsBackend, "Bad Gateway"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(t, w, tt.status, tt.body)
			})

			_, err := client.AnalyzeAndGenerate(context.Background(), "17", model.FormatAuto)
			require.Error(t, err)
			assert.True(t, tt.check(err))

			var cerr *ClientError
			require.ErrorAs(t, err, &cerr)
			assert.Equal(t, tt.detail, cerr.Message)
			assert.Equal(t, tt.status, cerr.Status)
		})
	}
}

func TestAnalyzeAndGenerate_Timeout(t *testing.T) {
	release := make(chan struct{})
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}, func(cfg *ClientConfig) {
		cfg.AnalyzeTimeout = 50 * time.Millisecond
	})
	// Registered after the server cleanup, so it runs first.
	t.Cleanup(func() { close(release) })

	start := time.Now()
	_, err := client.AnalyzeAndGenerate(context.Background(), "17", model.FormatAuto)
	require.Error(t, err)
	assert.True(t, IsTimeout(err))
	assert.True(t, errors.Is(err, ErrTimeout))
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestAnalyzeAndGenerate_NoConversation(t *testing.T) {
	called := false
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	_, err := client.AnalyzeAndGenerate(context.Background(), "", model.FormatAuto)
	var cerr *ClientError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, ErrTypeInvalidRequest, cerr.Type)
	assert.False(t, called)
}

// =============================================================================
// INGEST
// =============================================================================

func TestIngest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.md")
	require.NoError(t, os.WriteFile(path, []byte("# Fractions\nA half is one of two parts."), 0o600))

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/ingest", r.URL.Path)
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			return
		}

		file, header, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			return
		}
		defer file.Close()
		data, err := io.ReadAll(file)
		assert.NoError(t, err)

		assert.Equal(t, "notes.md", header.Filename)
		assert.Contains(t, string(data), "A half")
		assert.Equal(t, "Fractions notes", r.FormValue("title"))

		writeJSON(t, w, http.StatusOK, `{"skipped": false, "inserted_chunks": 4, "metadata": {"pages": 1}}`)
	})

	result, err := client.Ingest(context.Background(), path, " Fractions notes ")
	require.NoError(t, err)
	assert.Equal(t, model.IngestResult{InsertedChunks: 4}, result)
}

func TestIngest_NoTitleField(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			return
		}
		_, present := r.MultipartForm.Value["title"]
		assert.False(t, present)
		writeJSON(t, w, http.StatusOK, `{"skipped": true, "reason": "already_ingested"}`)
	})

	result, err := client.Ingest(context.Background(), path, "")
	require.NoError(t, err)
	assert.True(t, result.Skipped)
	assert.Equal(t, "already_ingested", result.Reason)
}

func TestIngest_LocalFileErrors(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})

	for _, path := range []string{filepath.Join(t.TempDir(), "missing.pdf"), t.TempDir()} {
		_, err := client.Ingest(context.Background(), path, "")
		var cerr *ClientError
		require.ErrorAs(t, err, &cerr)
		assert.Equal(t, ErrTypeInvalidRequest, cerr.Type)
	}
}

// =============================================================================
// TRANSPORT
// =============================================================================

func TestConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client := NewClientWithConfig(&ClientConfig{BaseURL: url, RequestsPerSecond: -1})
	defer client.Close()

	_, err := client.StartConversation(context.Background())
	require.Error(t, err)
	assert.True(t, IsConnection(err))
	assert.False(t, IsTimeout(err))
}

func TestCanceledContext(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, `{"conversation_id": 1}`)
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.StartConversation(ctx)
	var cerr *ClientError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, ErrTypeCanceled, cerr.Type)
}

func TestRequestIDsAreUnique(t *testing.T) {
	var mu sync.Mutex
	seen := make(map[string]bool)
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen[r.Header.Get(RequestIDHeader)] = true
		mu.Unlock()
		writeJSON(t, w, http.StatusOK, `{"conversation_id": 1}`)
	})

	for i := 0; i < 3; i++ {
		_, err := client.StartConversation(context.Background())
		require.NoError(t, err)
	}
	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, seen, 3)
}

func TestClientError_Format(t *testing.T) {
	err := &ClientError{Type: ErrTypeBackend, Op: "chat", Status: 500, Message: "boom"}
	assert.Equal(t, "chat: boom (HTTP 500)", err.Error())

	wrapped := &ClientError{Type: ErrTypeConnection, Op: "ingest", Message: "backend unreachable", Cause: io.EOF}
	assert.Equal(t, "ingest: backend unreachable: EOF", wrapped.Error())
	assert.ErrorIs(t, wrapped, io.EOF)
	assert.ErrorIs(t, wrapped, ErrConnection)
	assert.NotErrorIs(t, wrapped, ErrTimeout)
	assert.Equal(t, "not-found", ErrTypeNotFound.String())
}
