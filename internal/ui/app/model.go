// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"context"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jeranaias/studyrun/internal/coordinator"
	"github.com/jeranaias/studyrun/internal/model"
	"github.com/jeranaias/studyrun/internal/render"
	"github.com/jeranaias/studyrun/internal/ui/styles"
	"github.com/jeranaias/studyrun/internal/view"
)

const (
	defaultWidth  = 80
	defaultHeight = 24

	// Layout: header + body + status + help.
	headerHeight = 2
	footerHeight = 2
	composerRows = 2
	formatRows   = 2
)

// ingest form fields
const (
	fieldPath = iota
	fieldTitle
)

// EventMsg delivers a coordinator event produced by a finished effect.
type EventMsg struct {
	Event coordinator.Event
}

// Settings is the part of the configuration that can change while the
// program runs.
type Settings struct {
	Format  model.Format
	Compact bool
}

// SettingsMsg delivers reloaded Settings.
type SettingsMsg struct {
	Settings Settings
}

// Options configures a Model.
type Options struct {
	// Remote performs effects. Required.
	Remote coordinator.Remote

	// Logger receives debug and failure logs. Nil means no logging.
	Logger *zap.Logger

	// Theme defaults to styles.NewTheme.
	Theme *styles.Theme

	// Settings, when set, is read for live configuration changes until it
	// is closed.
	Settings <-chan Settings

	TopK     int
	Format   model.Format
	Compact  bool
	Markdown bool
}

// Model is the root Bubble Tea model.
type Model struct {
	ctx    context.Context
	remote coordinator.Remote
	logger *zap.Logger

	state coordinator.State

	theme    *styles.Theme
	renderer *render.Renderer
	keys     KeyMap
	help     help.Model

	composer    textinput.Model
	ingestPath  textinput.Model
	ingestTitle textinput.Model
	ingestField int

	viewport viewport.Model
	spinner  spinner.Model

	settings     <-chan Settings
	configFormat model.Format

	width    int
	height   int
	compact  bool
	quitting bool
}

// New builds the model. ctx bounds every remote call it issues.
func New(ctx context.Context, opts Options) Model {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	theme := opts.Theme
	if theme == nil {
		theme = styles.NewTheme()
	}

	composer := textinput.New()
	composer.Placeholder = "Ask about your material…"
	composer.Prompt = "> "
	composer.PromptStyle = theme.Prompt
	composer.CharLimit = 4000
	composer.Focus()

	path := textinput.New()
	path.Placeholder = "/path/to/notes.pdf"
	path.Prompt = "File:  "
	path.PromptStyle = theme.Prompt

	title := textinput.New()
	title.Placeholder = "optional"
	title.Prompt = "Title: "
	title.PromptStyle = theme.Prompt
	title.CharLimit = 200

	sp := spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(theme.Generating))

	state, _ := coordinator.Update(coordinator.NewState(opts.TopK), coordinator.FormatSelected{Format: opts.Format})

	m := Model{
		ctx:          ctx,
		remote:       opts.Remote,
		logger:       logger.Named("tui"),
		state:        state,
		theme:        theme,
		renderer:     render.New(theme, render.WithMarkdown(opts.Markdown), render.WithWidth(defaultWidth)),
		keys:         DefaultKeyMap(),
		help:         help.New(),
		composer:     composer,
		ingestPath:   path,
		ingestTitle:  title,
		viewport:     viewport.New(defaultWidth, defaultHeight-headerHeight-footerHeight-composerRows),
		spinner:      sp,
		settings:     opts.Settings,
		configFormat: opts.Format,
		compact:      opts.Compact,
	}
	m.resize(defaultWidth, defaultHeight)
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick, m.waitForSettings())
}

// waitForSettings reads the next Settings value. It returns nil when there
// is no settings channel.
func (m Model) waitForSettings() tea.Cmd {
	ch := m.settings
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		s, ok := <-ch
		if !ok {
			return nil
		}
		return SettingsMsg{Settings: s}
	}
}

// State returns the coordinator state.
func (m Model) State() coordinator.State {
	return m.state
}

// Run starts the program and blocks until the user quits or ctx ends.
func Run(ctx context.Context, opts Options) error {
	p := tea.NewProgram(New(ctx, opts), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

// =============================================================================
// LAYOUT
// =============================================================================

func (m *Model) resize(width, height int) {
	m.width, m.height = width, height
	m.renderer.SetWidth(width - 2)
	m.help.Width = width

	bodyHeight := height - headerHeight - footerHeight
	if m.compact {
		bodyHeight++
	}
	switch m.state.View.Active() {
	case view.TabChat:
		bodyHeight -= composerRows
	case view.TabStudy:
		bodyHeight -= formatRows
	}
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	m.viewport.Width = width
	m.viewport.Height = bodyHeight

	inputWidth := width - 10
	if inputWidth < 10 {
		inputWidth = 10
	}
	m.composer.Width = inputWidth
	m.ingestPath.Width = inputWidth
	m.ingestTitle.Width = inputWidth

	m.refresh()
}

// refresh re-renders the viewport for the active tab.
func (m *Model) refresh() {
	switch m.state.View.Active() {
	case view.TabChat:
		m.viewport.SetContent(m.renderer.Transcript(m.state.Transcript))
		m.viewport.GotoBottom()
	case view.TabStudy:
		m.viewport.SetContent(m.renderer.Pane(m.state.Pane))
	default:
		m.viewport.SetContent("")
	}
}

// refocus gives keyboard focus to the input that belongs to the active tab.
func (m *Model) refocus() {
	m.composer.Blur()
	m.ingestPath.Blur()
	m.ingestTitle.Blur()

	switch m.state.View.Active() {
	case view.TabChat:
		m.composer.Focus()
	case view.TabIngest:
		if m.ingestField == fieldTitle {
			m.ingestTitle.Focus()
		} else {
			m.ingestPath.Focus()
		}
	}
}
