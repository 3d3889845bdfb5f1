// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package render turns client state into terminal text.
//
// The study pane shows generated content in exactly the order the backend
// sent it. Bodies are rendered as markdown through glamour when a terminal is
// attached, and as wrapped plain text otherwise.
package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/jeranaias/studyrun/internal/coordinator"
	"github.com/jeranaias/studyrun/internal/model"
	"github.com/jeranaias/studyrun/internal/ui/styles"
	"github.com/jeranaias/studyrun/internal/util"
)

// DefaultWidth is used until the terminal reports its size.
const DefaultWidth = 80

// minWidth keeps cards readable on very narrow terminals.
const minWidth = 20

// Order returns the display sequence for items: the received order,
// unchanged. The result is a copy.
func Order(items []model.ContentItem) []model.ContentItem {
	out := make([]model.ContentItem, len(items))
	copy(out, items)
	return out
}

// =============================================================================
// RENDERER
// =============================================================================

// Renderer draws panes, cards and transcript entries.
type Renderer struct {
	theme    *styles.Theme
	width    int
	markdown bool

	md      *glamour.TermRenderer
	mdWidth int
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithWidth sets the wrap width in columns.
func WithWidth(width int) Option {
	return func(r *Renderer) { r.width = width }
}

// WithMarkdown enables glamour rendering of content bodies.
func WithMarkdown(enabled bool) Option {
	return func(r *Renderer) { r.markdown = enabled }
}

// New creates a renderer. A nil theme selects styles.Plain.
func New(theme *styles.Theme, opts ...Option) *Renderer {
	if theme == nil {
		theme = styles.Plain()
	}
	r := &Renderer{theme: theme, width: DefaultWidth}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SetWidth changes the wrap width. The markdown renderer is rebuilt lazily.
func (r *Renderer) SetWidth(width int) {
	r.width = width
}

// Width returns the effective wrap width.
func (r *Renderer) Width() int {
	if r.width < minWidth {
		return minWidth
	}
	return r.width
}

// Theme returns the styles in use.
func (r *Renderer) Theme() *styles.Theme {
	return r.theme
}

// =============================================================================
// STUDY PANE
// =============================================================================

// Pane renders the study content area.
func (r *Renderer) Pane(p coordinator.Pane) string {
	switch p.Kind {
	case coordinator.PaneEmpty:
		return r.theme.Placeholder.Render("Open this tab after chatting to get study content.")
	case coordinator.PaneNoConversation, coordinator.PaneNoContent:
		return r.theme.Placeholder.Render(r.wrap(p.Kind.Text(), r.Width()-4))
	case coordinator.PaneGenerating:
		return r.theme.Generating.Render(p.Kind.Text())
	case coordinator.PaneError:
		return r.theme.Error.Render(p.Kind.Text())
	case coordinator.PaneContents:
		return r.Contents(p.Analysis)
	default:
		return ""
	}
}

// Contents renders the assessment summary followed by one card per item.
func (r *Renderer) Contents(a model.Analysis) string {
	var b strings.Builder
	if summary := r.Summary(a.Assessments); summary != "" {
		b.WriteString(summary)
		b.WriteString("\n")
	}
	cards := make([]string, 0, len(a.Contents))
	for _, item := range Order(a.Contents) {
		cards = append(cards, r.Card(item))
	}
	b.WriteString(lipgloss.JoinVertical(lipgloss.Left, cards...))
	return b.String()
}

// Summary renders the per-topic levels on one line, or "" when there are none.
func (r *Renderer) Summary(assessments []model.TopicAssessment) string {
	if len(assessments) == 0 {
		return ""
	}
	parts := make([]string, 0, len(assessments))
	for _, a := range assessments {
		if a.Level == "" {
			parts = append(parts, a.Topic)
			continue
		}
		parts = append(parts, fmt.Sprintf("%s (%s)", a.Topic, a.Level))
	}
	line := "Topics: " + strings.Join(parts, ", ")
	return r.theme.Summary.Render(util.TruncateWidth(line, r.Width()))
}

// Card renders one content item: badge, title, level and body.
func (r *Renderer) Card(item model.ContentItem) string {
	inner := r.Width() - 4 // border and padding

	header := r.theme.BadgeFor(item.Category).Render(util.TruncateWidth(item.Badge(), inner))
	title := r.theme.CardTitle.Render(util.TruncateWidth(item.DisplayTitle(), inner))

	lines := []string{header, title}
	if item.Level != "" {
		lines = append(lines, r.theme.CardLevel.Render("level: "+item.Level))
	}
	if body := strings.TrimSpace(item.Body); body != "" {
		lines = append(lines, "", r.Body(body, inner))
	}

	return r.theme.Card.Width(inner + 2).Render(strings.Join(lines, "\n"))
}

// Body renders free text at the given width, through glamour when enabled.
func (r *Renderer) Body(text string, width int) string {
	if r.markdown {
		if md := r.markdownRenderer(width); md != nil {
			if out, err := md.Render(text); err == nil {
				return strings.Trim(out, "\n")
			}
		}
	}
	return r.wrap(text, width)
}

func (r *Renderer) markdownRenderer(width int) *glamour.TermRenderer {
	if r.md != nil && r.mdWidth == width {
		return r.md
	}
	style := "dark"
	if !r.theme.IsDark {
		style = "light"
	}
	if r.theme.Colorless() {
		style = "notty"
	}
	md, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil
	}
	r.md, r.mdWidth = md, width
	return md
}

func (r *Renderer) wrap(text string, width int) string {
	if width < 1 {
		width = 1
	}
	return wordwrap.String(text, width)
}

// =============================================================================
// FORMAT AND TRANSCRIPT
// =============================================================================

// FormatLabel describes the format the next generation will use.
func (r *Renderer) FormatLabel(f model.Format) string {
	name := f.String()
	if f.IsAuto() {
		name = "automatic"
	}
	return r.theme.FormatLabel.Render("(using: " + name + ")")
}

// Message renders one transcript entry.
func (r *Renderer) Message(msg *model.Message) string {
	var label lipgloss.Style
	switch msg.Role {
	case model.RoleUser:
		label = r.theme.UserLabel
	case model.RoleAssistant:
		label = r.theme.AssistantLabel
	default:
		label = r.theme.SystemLabel
	}

	head := label.Render(msg.Role.DisplayName())
	if msg.Failed {
		head += " " + r.theme.FailedMark.Render("(not sent)")
	}

	body := msg.Content
	if msg.Role == model.RoleAssistant {
		body = r.Body(body, r.Width()-2)
	} else {
		body = r.wrap(body, r.Width()-2)
	}
	return head + "\n" + r.theme.MessageBody.Render(body)
}

// Transcript renders every message, separated by blank lines.
func (r *Renderer) Transcript(t model.Transcript) string {
	msgs := t.Messages()
	parts := make([]string, 0, len(msgs))
	for _, msg := range msgs {
		parts = append(parts, r.Message(msg))
	}
	return strings.Join(parts, "\n\n")
}

// Status renders a status line, choosing the style from its content.
func (r *Renderer) Status(text string) string {
	switch {
	case text == "":
		return ""
	case strings.HasPrefix(text, "Failed"), strings.Contains(text, "could not"), text == coordinator.StatusIngestFailed:
		return r.theme.Error.Render(text)
	case strings.HasSuffix(text, "…"):
		return r.theme.Warning.Render(text)
	case strings.HasPrefix(text, "Ingestion complete"):
		return r.theme.Success.Render(text)
	default:
		return r.theme.Info.Render(text)
	}
}
