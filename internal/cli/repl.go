// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/peterh/liner"
	"go.uber.org/zap"

	"github.com/jeranaias/studyrun/internal/coordinator"
	"github.com/jeranaias/studyrun/internal/model"
	"github.com/jeranaias/studyrun/internal/render"
	"github.com/jeranaias/studyrun/internal/util"
	"github.com/jeranaias/studyrun/internal/view"
)

const replHelp = `Commands:
  <text>                 Send a chat message
  /chat                  Switch to the chat view
  /study                 Show personalized study content
  /ingest <path> [title] Upload a document
  /format [f]            Show or set the format (auto, video, audio, texto)
  /new                   Start a new conversation
  /status                Show session state
  /help                  Show this help
  /quit                  Exit`

// REPL is the line-mode front end. It drives the same reducer as the TUI
// and performs effects synchronously.
type REPL struct {
	remote   coordinator.Remote
	in       LineReader
	out      io.Writer
	renderer *render.Renderer
	logger   *zap.Logger

	state coordinator.State
}

// REPLOptions configures a REPL.
type REPLOptions struct {
	Remote   coordinator.Remote
	In       LineReader
	Out      io.Writer
	Renderer *render.Renderer
	Logger   *zap.Logger
	TopK     int
	Format   model.Format
}

// NewREPL builds a REPL. In and Renderer default to a liner reader and a
// plain renderer.
func NewREPL(opts REPLOptions) *REPL {
	if opts.In == nil {
		opts.In = newHistoryReader()
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Renderer == nil {
		opts.Renderer = render.New(nil)
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	state, _ := coordinator.Update(coordinator.NewState(opts.TopK), coordinator.FormatSelected{Format: opts.Format})
	return &REPL{
		remote:   opts.Remote,
		in:       opts.In,
		out:      opts.Out,
		renderer: opts.Renderer,
		logger:   opts.Logger.Named("repl"),
		state:    state,
	}
}

// State returns the current coordinator state.
func (r *REPL) State() coordinator.State {
	return r.state
}

// Run reads commands until /quit, EOF or ctx ends.
func (r *REPL) Run(ctx context.Context) error {
	defer r.in.Close()

	fmt.Fprintln(r.out, r.renderer.Theme().Brand.Render("studyrun")+" "+r.renderer.Theme().Muted.Render("type /help for commands"))

	for {
		if ctx.Err() != nil {
			return nil
		}
		input, err := r.in.Prompt(r.prompt())
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				fmt.Fprintln(r.out)
				return nil
			}
			return fmt.Errorf("read input: %w", err)
		}

		if !r.Execute(ctx, input) {
			return nil
		}
	}
}

func (r *REPL) prompt() string {
	return r.state.View.Active().String() + "> "
}

// Execute handles one line of input and reports whether to keep going.
func (r *REPL) Execute(ctx context.Context, input string) bool {
	input = strings.TrimSpace(input)
	if input == "" {
		return true
	}
	if !strings.HasPrefix(input, "/") {
		r.chat(ctx, input)
		return true
	}

	fields := strings.Fields(input)
	cmd, args := strings.ToLower(fields[0]), fields[1:]
	switch cmd {
	case "/quit", "/q", "/exit":
		return false
	case "/help", "/h", "/?":
		fmt.Fprintln(r.out, replHelp)
	case "/chat":
		r.selectTab(ctx, view.TabChat)
		fmt.Fprintln(r.out, r.renderer.Transcript(r.state.Transcript))
	case "/study", "/s":
		// Re-selecting study is an activation too.
		r.dispatch(ctx, coordinator.TabSelected{Tab: view.TabStudy})
		r.printPane()
	case "/ingest", "/i":
		r.ingest(ctx, args)
	case "/format", "/f":
		r.format(ctx, args)
	case "/new", "/n":
		r.dispatch(ctx, coordinator.NewConversationRequested{})
		fmt.Fprintln(r.out, r.renderer.Status(r.state.ChatStatus))
	case "/status":
		r.printStatus()
	default:
		fmt.Fprintln(r.out, r.renderer.Status(fmt.Sprintf("Failed: unknown command %s (try /help)", cmd)))
	}
	return true
}

// =============================================================================
// COMMANDS
// =============================================================================

// dispatch runs ev to completion. Ctrl+C cancels the remote call in
// progress without leaving the REPL.
func (r *REPL) dispatch(ctx context.Context, ev coordinator.Event) {
	callCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()
	r.state = coordinator.Run(callCtx, r.logged(), r.state, ev)
}

func (r *REPL) selectTab(ctx context.Context, tab view.Tab) {
	if r.state.View.Active() != tab {
		r.dispatch(ctx, coordinator.TabSelected{Tab: tab})
	}
}

func (r *REPL) chat(ctx context.Context, text string) {
	r.selectTab(ctx, view.TabChat)

	before := r.state.Transcript.Len()
	r.dispatch(ctx, coordinator.MessageSubmitted{Text: text})

	msgs := r.state.Transcript.Messages()
	for _, msg := range msgs[min(before, len(msgs)):] {
		if msg.Role == model.RoleAssistant {
			fmt.Fprintln(r.out, r.renderer.Message(msg))
		}
	}
	if r.state.ChatStatus != "" {
		fmt.Fprintln(r.out, r.renderer.Status(r.state.ChatStatus))
	}
}

func (r *REPL) ingest(ctx context.Context, args []string) {
	r.selectTab(ctx, view.TabIngest)

	var path, title string
	if len(args) > 0 {
		path = args[0]
		title = strings.Join(args[1:], " ")
	}
	r.dispatch(ctx, coordinator.IngestSubmitted{Path: path, Title: title})
	fmt.Fprintln(r.out, r.renderer.Status(r.state.IngestStatus))
}

func (r *REPL) format(ctx context.Context, args []string) {
	if len(args) > 0 {
		f, err := model.ParseFormat(args[0])
		if err != nil {
			fmt.Fprintln(r.out, r.renderer.Status("Failed: "+err.Error()))
			return
		}
		r.dispatch(ctx, coordinator.FormatSelected{Format: f})
	}
	fmt.Fprintln(r.out, r.renderer.FormatLabel(r.state.Session.PreferredFormat()))
}

func (r *REPL) printPane() {
	fmt.Fprintln(r.out, r.renderer.FormatLabel(r.state.Session.PreferredFormat()))
	fmt.Fprintln(r.out, r.renderer.Pane(r.state.Pane))
}

func (r *REPL) printStatus() {
	conv := "none"
	if id, ok := r.state.Session.Current(); ok {
		conv = id.String()
	}
	snapshot := "none"
	if snap, ok := r.state.Gate.Snapshot(); ok {
		snapshot = fmt.Sprintf("conversation %s at revision %d", snap.Conversation, snap.Revision)
	}

	rows := [][2]string{
		{"view:", r.state.View.Active().String()},
		{"conversation:", conv},
		{"revision:", fmt.Sprint(r.state.Revisions.Current())},
		{"format:", r.state.Session.PreferredFormat().String()},
		{"content for:", snapshot},
	}
	for _, row := range rows {
		fmt.Fprintln(r.out, util.PadRight(row[0], 14)+row[1])
	}
}

// =============================================================================
// LOGGING
// =============================================================================

// logged wraps the remote so every completion is logged.
func (r *REPL) logged() coordinator.Remote {
	return loggingRemote{Remote: r.remote, logger: r.logger}
}

type loggingRemote struct {
	coordinator.Remote
	logger *zap.Logger
}

func (l loggingRemote) AnalyzeAndGenerate(ctx context.Context, conv model.ConversationID, format model.Format) (model.Analysis, error) {
	l.logger.Info("analysis issued", zap.Stringer("conversation", conv), zap.Stringer("format", format))
	a, err := l.Remote.AnalyzeAndGenerate(ctx, conv, format)
	if err != nil {
		l.logger.Warn("analysis failed", zap.Error(err))
	}
	return a, err
}

func (l loggingRemote) Ingest(ctx context.Context, path, title string) (model.IngestResult, error) {
	res, err := l.Remote.Ingest(ctx, path, title)
	if err != nil {
		l.logger.Warn("ingest failed", zap.String("path", path), zap.Error(err))
	}
	return res, err
}
