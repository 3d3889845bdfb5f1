// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package coordinator

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/studyrun/internal/model"
	"github.com/jeranaias/studyrun/internal/session"
	"github.com/jeranaias/studyrun/internal/view"
)

// =============================================================================
// FAKE BACKEND
// =============================================================================

type fakeRemote struct {
	nextConv int

	startErr   error
	chatErr    error
	ingestErr  error
	analyzeErr error

	analysis model.Analysis
	ingest   model.IngestResult

	starts   int
	chats    []string
	ingests  int
	analyses []model.Format
}

func (f *fakeRemote) StartConversation(context.Context) (model.ConversationID, error) {
	f.starts++
	if f.startErr != nil {
		return "", f.startErr
	}
	f.nextConv++
	return model.ConversationID(fmt.Sprint(f.nextConv)), nil
}

func (f *fakeRemote) Chat(_ context.Context, conv model.ConversationID, message string, _ int) (model.ChatReply, error) {
	f.chats = append(f.chats, message)
	if f.chatErr != nil {
		return model.ChatReply{}, f.chatErr
	}
	return model.ChatReply{Conversation: conv, Answer: "re: " + message}, nil
}

func (f *fakeRemote) Ingest(context.Context, string, string) (model.IngestResult, error) {
	f.ingests++
	return f.ingest, f.ingestErr
}

func (f *fakeRemote) AnalyzeAndGenerate(_ context.Context, _ model.ConversationID, format model.Format) (model.Analysis, error) {
	f.analyses = append(f.analyses, format)
	return f.analysis, f.analyzeErr
}

var errDown = errors.New("backend down")

func sampleAnalysis() model.Analysis {
	return model.Analysis{
		Assessments: []model.TopicAssessment{{Topic: "fractions", Level: "beginner"}},
		Contents: []model.ContentItem{
			{ID: "1", Category: "video", Topic: "fractions", Title: "Halves"},
			{ID: "2", Category: "texto", Topic: "fractions", Title: "Thirds"},
		},
	}
}

// chatTurn drives one full successful chat turn synchronously.
func chatTurn(t *testing.T, s State, remote *fakeRemote, text string) State {
	t.Helper()
	return Run(context.Background(), remote, s, MessageSubmitted{Text: text})
}

// activate selects the study tab and returns the effects without running them.
func activate(s State) (State, []Effect) {
	return Update(s, TabSelected{Tab: view.TabStudy})
}

func analyzeEffect(t *testing.T, effects []Effect) AnalyzeAndGenerate {
	t.Helper()
	require.Len(t, effects, 1)
	eff, ok := effects[0].(AnalyzeAndGenerate)
	require.True(t, ok, "expected AnalyzeAndGenerate, got %T", effects[0])
	return eff
}

// =============================================================================
// SCENARIOS
// =============================================================================

func TestScenarioA_FreshSessionShowsPlaceholder(t *testing.T) {
	s := NewState(0)
	s, effects := activate(s)

	assert.Empty(t, effects)
	assert.Equal(t, PaneNoConversation, s.Pane.Kind)
	assert.Equal(t, TextNoConversation, s.Pane.Kind.Text())
	assert.Equal(t, 1, s.Pane.Renders)
	assert.False(t, s.Generating())
}

func TestScenarioB_OneTurnThenActivate(t *testing.T) {
	remote := &fakeRemote{analysis: sampleAnalysis()}
	s := chatTurn(t, NewState(0), remote, "hello")

	require.Equal(t, session.Revision(1), s.Revisions.Current())
	conv, ok := s.Session.Current()
	require.True(t, ok)

	s = Run(context.Background(), remote, s, TabSelected{Tab: view.TabStudy})
	require.Len(t, remote.analyses, 1)
	assert.Equal(t, PaneContents, s.Pane.Kind)
	assert.Len(t, s.Pane.Analysis.Contents, 2)

	snap, ok := s.Gate.Snapshot()
	require.True(t, ok)
	assert.Equal(t, conv, snap.Conversation)
	assert.Equal(t, session.Revision(1), snap.Revision)
}

func TestScenarioC_ReactivationReuses(t *testing.T) {
	remote := &fakeRemote{analysis: sampleAnalysis()}
	s := chatTurn(t, NewState(0), remote, "hello")
	s = Run(context.Background(), remote, s, TabSelected{Tab: view.TabStudy})
	rendered := s.Pane

	s = Run(context.Background(), remote, s, TabSelected{Tab: view.TabChat})
	s = Run(context.Background(), remote, s, TabSelected{Tab: view.TabStudy})
	s = Run(context.Background(), remote, s, TabSelected{Tab: view.TabStudy})

	assert.Len(t, remote.analyses, 1)
	assert.Equal(t, rendered, s.Pane, "reuse must not redraw the pane")
}

func TestScenarioD_TurnDuringGeneration(t *testing.T) {
	remote := &fakeRemote{analysis: sampleAnalysis()}
	s := chatTurn(t, NewState(0), remote, "hello")

	s, effects := activate(s)
	call := analyzeEffect(t, effects)
	assert.Equal(t, session.Revision(1), call.Ticket.Revision)

	s = chatTurn(t, s, remote, "second")
	require.Equal(t, session.Revision(2), s.Revisions.Current())

	done := Perform(context.Background(), remote, call)
	s, _ = Update(s, done)

	snap, ok := s.Gate.Snapshot()
	require.True(t, ok)
	assert.Equal(t, session.Revision(1), snap.Revision)

	_, effects = activate(s)
	next := analyzeEffect(t, effects)
	assert.Equal(t, session.Revision(2), next.Ticket.Revision)
}

// =============================================================================
// PROPERTIES
// =============================================================================

func TestMonotonicRevision(t *testing.T) {
	remote := &fakeRemote{}
	s := NewState(0)
	last := s.Revisions.Current()

	steps := []struct {
		fail bool
		want session.Revision
	}{
		{false, 1},
		{true, 1},
		{false, 2},
		{true, 2},
		{true, 2},
		{false, 3},
	}
	for i, step := range steps {
		remote.chatErr = nil
		if step.fail {
			remote.chatErr = errDown
		}
		s = chatTurn(t, s, remote, fmt.Sprintf("turn %d", i))
		assert.GreaterOrEqual(t, s.Revisions.Current(), last)
		assert.Equal(t, step.want, s.Revisions.Current(), "step %d", i)
		last = s.Revisions.Current()
	}
}

func TestStaleAfterOneTurn(t *testing.T) {
	remote := &fakeRemote{analysis: sampleAnalysis()}
	s := chatTurn(t, NewState(0), remote, "hello")
	s = Run(context.Background(), remote, s, TabSelected{Tab: view.TabStudy})
	s = chatTurn(t, s, remote, "more")
	s = Run(context.Background(), remote, s, TabSelected{Tab: view.TabStudy})

	assert.Len(t, remote.analyses, 2)
}

func TestNewConversationInvalidates(t *testing.T) {
	remote := &fakeRemote{analysis: sampleAnalysis()}
	s := chatTurn(t, NewState(0), remote, "hello")
	s = chatTurn(t, s, remote, "again")
	s = Run(context.Background(), remote, s, TabSelected{Tab: view.TabStudy})
	require.Len(t, remote.analyses, 1)

	s, _ = Update(s, NewConversationRequested{})
	_, hasConv := s.Session.Current()
	assert.False(t, hasConv)
	assert.Equal(t, 0, s.Transcript.Len())

	// A new conversation starts on the next message. The snapshot belongs to
	// the old one, so generation must run.
	s = chatTurn(t, s, remote, "fresh start")
	assert.Equal(t, 2, remote.starts)

	s, effects := activate(s)
	call := analyzeEffect(t, effects)
	assert.Equal(t, model.ConversationID("2"), call.Ticket.Conversation)
	assert.Equal(t, PaneGenerating, s.Pane.Kind)
}

func TestNoConcurrentGeneration(t *testing.T) {
	remote := &fakeRemote{analysis: sampleAnalysis()}
	s := chatTurn(t, NewState(0), remote, "hello")

	s, effects := activate(s)
	analyzeEffect(t, effects)
	renders := s.Pane.Renders

	for i := 0; i < 3; i++ {
		s, effects = Update(s, TabSelected{Tab: view.TabChat})
		assert.Empty(t, effects)
		s, effects = activate(s)
		assert.Empty(t, effects, "activation while generating must be dropped")
	}
	assert.Equal(t, renders, s.Pane.Renders, "dropped activations must not redraw")
	assert.Equal(t, PaneGenerating, s.Pane.Kind)
}

func TestEmptyResultIsCached(t *testing.T) {
	remote := &fakeRemote{}
	s := chatTurn(t, NewState(0), remote, "hello")
	s = Run(context.Background(), remote, s, TabSelected{Tab: view.TabStudy})

	assert.Equal(t, PaneNoContent, s.Pane.Kind)
	assert.Equal(t, TextNoContent, s.Pane.Kind.Text())

	s = Run(context.Background(), remote, s, TabSelected{Tab: view.TabStudy})
	assert.Len(t, remote.analyses, 1)
}

// =============================================================================
// GENERATION FAILURES AND ORDERING
// =============================================================================

func TestGenerationFailureRetriesOnNextActivation(t *testing.T) {
	remote := &fakeRemote{analyzeErr: errDown}
	s := chatTurn(t, NewState(0), remote, "hello")
	s = Run(context.Background(), remote, s, TabSelected{Tab: view.TabStudy})

	assert.Equal(t, PaneError, s.Pane.Kind)
	assert.False(t, s.Generating())
	_, ok := s.Gate.Snapshot()
	assert.False(t, ok)

	remote.analyzeErr = nil
	remote.analysis = sampleAnalysis()
	s = Run(context.Background(), remote, s, TabSelected{Tab: view.TabStudy})
	assert.Len(t, remote.analyses, 2)
	assert.Equal(t, PaneContents, s.Pane.Kind)
}

func TestResultRendersWhateverTabIsActive(t *testing.T) {
	remote := &fakeRemote{analysis: sampleAnalysis()}
	s := chatTurn(t, NewState(0), remote, "hello")

	s, effects := activate(s)
	call := analyzeEffect(t, effects)
	s, _ = Update(s, TabSelected{Tab: view.TabIngest})

	s, _ = Update(s, Perform(context.Background(), remote, call))
	assert.Equal(t, view.TabIngest, s.View.Active())
	assert.Equal(t, PaneContents, s.Pane.Kind)
}

func TestFormatPassedThrough(t *testing.T) {
	remote := &fakeRemote{analysis: sampleAnalysis()}
	s := chatTurn(t, NewState(0), remote, "hello")
	s = Run(context.Background(), remote, s, TabSelected{Tab: view.TabStudy})

	// Format alone does not cause regeneration.
	s, _ = Update(s, FormatSelected{Format: model.FormatAudio})
	s = Run(context.Background(), remote, s, TabSelected{Tab: view.TabStudy})
	require.Len(t, remote.analyses, 1)

	s = chatTurn(t, s, remote, "more")
	s = Run(context.Background(), remote, s, TabSelected{Tab: view.TabStudy})

	assert.Equal(t, []model.Format{model.FormatAuto, model.FormatAudio}, remote.analyses)
	assert.Equal(t, model.FormatAudio, s.Session.PreferredFormat())
}

// =============================================================================
// CHAT FLOW
// =============================================================================

func TestChat_IgnoresBlankInput(t *testing.T) {
	s, effects := Update(NewState(0), MessageSubmitted{Text: "  \n\t "})
	assert.Empty(t, effects)
	assert.Equal(t, 0, s.Transcript.Len())
}

func TestChat_NormalizesToNFC(t *testing.T) {
	s, _ := Update(NewState(0), MessageSubmitted{Text: " cafe\u0301 "})
	require.Equal(t, 1, s.Transcript.Len())
	assert.Equal(t, "caf\u00e9", s.Transcript.Last().Content)
}

func TestChat_StartsConversationOnce(t *testing.T) {
	s, effects := Update(NewState(0), MessageSubmitted{Text: "one"})
	require.Len(t, effects, 1)
	start, ok := effects[0].(StartConversation)
	require.True(t, ok)
	assert.Equal(t, StatusSending, s.ChatStatus)

	s, effects = Update(s, MessageSubmitted{Text: "two"})
	assert.Empty(t, effects, "second message must wait for the pending start")
	assert.True(t, s.Busy())

	s, effects = Update(s, ConversationStarted{Generation: start.Generation, ID: "42"})
	require.Len(t, effects, 2)
	for i, want := range []string{"one", "two"} {
		send, ok := effects[i].(SendChat)
		require.True(t, ok)
		assert.Equal(t, want, send.Message)
		assert.Equal(t, model.ConversationID("42"), send.Conversation)
		assert.Equal(t, DefaultTopK, send.TopK)
	}
	conv, _ := s.Session.Current()
	assert.Equal(t, model.ConversationID("42"), conv)
}

func TestChat_StartFailureMarksQueuedMessages(t *testing.T) {
	remote := &fakeRemote{startErr: errDown}
	s := chatTurn(t, NewState(0), remote, "hello")

	assert.Equal(t, StatusStartFailed, s.ChatStatus)
	assert.True(t, s.Transcript.Last().Failed)
	assert.False(t, s.Session.HasConversation())
	assert.False(t, s.Busy())
	assert.Equal(t, session.Revision(0), s.Revisions.Current())

	// The next message retries the start.
	remote.startErr = nil
	s = chatTurn(t, s, remote, "retry")
	assert.Equal(t, 2, remote.starts)
	assert.True(t, s.Session.HasConversation())
	assert.Equal(t, session.Revision(1), s.Revisions.Current())
}

func TestChat_FailureKeepsUserMessage(t *testing.T) {
	remote := &fakeRemote{chatErr: errDown}
	s := chatTurn(t, NewState(0), remote, "hello")

	require.Equal(t, 1, s.Transcript.Len())
	last := s.Transcript.Last()
	assert.Equal(t, model.RoleUser, last.Role)
	assert.True(t, last.Failed)
	assert.Equal(t, StatusSendFailed, s.ChatStatus)
}

func TestChat_ReplyRotatesHandle(t *testing.T) {
	s := NewState(7)
	s.Session.Adopt("10")

	s, effects := Update(s, MessageSubmitted{Text: "hi"})
	send := effects[0].(SendChat)
	assert.Equal(t, 7, send.TopK)

	s, _ = Update(s, ChatReplied{
		TurnID:       send.TurnID,
		Generation:   send.Generation,
		Conversation: "11",
		Reply:        "hello",
	})
	conv, _ := s.Session.Current()
	assert.Equal(t, model.ConversationID("11"), conv)
	assert.Equal(t, "", s.ChatStatus)
	assert.Equal(t, "hello", s.Transcript.Last().Content)
}

func TestChat_DropsRepliesFromOldConversation(t *testing.T) {
	s := NewState(0)
	s.Session.Adopt("10")
	s, effects := Update(s, MessageSubmitted{Text: "hi"})
	send := effects[0].(SendChat)

	s, _ = Update(s, NewConversationRequested{})
	s, _ = Update(s, ChatReplied{TurnID: send.TurnID, Generation: send.Generation, Conversation: "10", Reply: "late"})

	assert.Equal(t, session.Revision(0), s.Revisions.Current())
	assert.Equal(t, 0, s.Transcript.Len())
	assert.False(t, s.Session.HasConversation())
}

func TestChat_IgnoresStartForOldConversation(t *testing.T) {
	s, effects := Update(NewState(0), MessageSubmitted{Text: "hi"})
	start := effects[0].(StartConversation)

	s, _ = Update(s, NewConversationRequested{})
	s, effects = Update(s, ConversationStarted{Generation: start.Generation, ID: "5"})

	assert.Empty(t, effects)
	assert.False(t, s.Session.HasConversation())
}

// =============================================================================
// INGEST FLOW
// =============================================================================

func TestIngest(t *testing.T) {
	tests := []struct {
		name   string
		result model.IngestResult
		err    error
		want   string
	}{
		{"inserted", model.IngestResult{InsertedChunks: 12}, nil, "Ingestion complete. Chunks inserted: 12"},
		{"skipped", model.IngestResult{Skipped: true, Reason: "duplicate"}, nil, "Ingestion skipped: duplicate."},
		{"failed", model.IngestResult{}, errDown, StatusIngestFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			remote := &fakeRemote{ingest: tt.result, ingestErr: tt.err}
			s, effects := Update(NewState(0), IngestSubmitted{Path: " notes.pdf ", Title: "Notes"})
			require.Len(t, effects, 1)
			assert.Equal(t, Ingest{Path: "notes.pdf", Title: "Notes"}, effects[0])
			assert.Equal(t, StatusUploading, s.IngestStatus)

			s, _ = Update(s, Perform(context.Background(), remote, effects[0]))
			assert.Equal(t, tt.want, s.IngestStatus)
			assert.False(t, s.IngestBusy)
			assert.Equal(t, session.Revision(0), s.Revisions.Current())
			_, ok := s.Gate.Snapshot()
			assert.False(t, ok)
		})
	}
}

func TestIngest_EmptyPathAndBusy(t *testing.T) {
	s, effects := Update(NewState(0), IngestSubmitted{Path: "  "})
	assert.Empty(t, effects)
	assert.Equal(t, StatusIngestNoFile, s.IngestStatus)

	s, effects = Update(s, IngestSubmitted{Path: "a.txt"})
	require.Len(t, effects, 1)
	s, effects = Update(s, IngestSubmitted{Path: "b.txt"})
	assert.Empty(t, effects)
	assert.Equal(t, StatusIngestBusy, s.IngestStatus)
}

func TestIngest_DoesNotInvalidateSnapshot(t *testing.T) {
	remote := &fakeRemote{analysis: sampleAnalysis(), ingest: model.IngestResult{InsertedChunks: 1}}
	s := chatTurn(t, NewState(0), remote, "hello")
	s = Run(context.Background(), remote, s, TabSelected{Tab: view.TabStudy})
	s = Run(context.Background(), remote, s, IngestSubmitted{Path: "doc.md"})
	s = Run(context.Background(), remote, s, TabSelected{Tab: view.TabStudy})

	assert.Equal(t, 1, remote.ingests)
	assert.Len(t, remote.analyses, 1)
	assert.Equal(t, PaneContents, s.Pane.Kind)
}

// =============================================================================
// PURITY
// =============================================================================

func TestUpdate_BranchesFromSharedState(t *testing.T) {
	s0 := NewState(0)
	s0.Session.Adopt("3")
	for _, text := range []string{"one", "two", "three"} {
		s0, _ = Update(s0, MessageSubmitted{Text: text})
	}

	s1, _ := Update(s0, MessageSubmitted{Text: "branch-a"})
	s2, _ := Update(s0, MessageSubmitted{Text: "branch-b"})

	assert.Equal(t, 3, s0.Transcript.Len())
	assert.Equal(t, "three", s0.Transcript.Last().Content)
	assert.Equal(t, "branch-a", s1.Transcript.Last().Content)
	assert.Equal(t, "branch-b", s2.Transcript.Last().Content)
}

func TestUpdate_DoesNotMutateInput(t *testing.T) {
	remote := &fakeRemote{chatErr: errDown}
	s := NewState(0)
	s.Session.Adopt("3")
	s, effects := Update(s, MessageSubmitted{Text: "hi"})
	before := s
	beforeMsg := *s.Transcript.Last()

	after, _ := Update(s, Perform(context.Background(), remote, effects[0]))

	assert.True(t, after.Transcript.Last().Failed)
	assert.Equal(t, beforeMsg, *before.Transcript.Last())
	assert.Equal(t, StatusSending, before.ChatStatus)
}
