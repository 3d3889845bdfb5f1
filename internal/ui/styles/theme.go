// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds the styles shared by the TUI and the line-mode REPL.
type Theme struct {
	IsDark       bool
	ColorProfile termenv.Profile

	renderer *lipgloss.Renderer

	// Tabs and chrome
	TabActive   lipgloss.Style
	TabInactive lipgloss.Style
	TabGap      lipgloss.Style
	Brand       lipgloss.Style
	StatusBar   lipgloss.Style
	ShortcutKey lipgloss.Style
	Help        lipgloss.Style

	// Chat
	UserLabel      lipgloss.Style
	AssistantLabel lipgloss.Style
	SystemLabel    lipgloss.Style
	MessageBody    lipgloss.Style
	FailedMark     lipgloss.Style
	Prompt         lipgloss.Style

	// Study pane
	Card        lipgloss.Style
	CardTitle   lipgloss.Style
	CardLevel   lipgloss.Style
	Badge       lipgloss.Style
	Placeholder lipgloss.Style
	Generating  lipgloss.Style
	Summary     lipgloss.Style
	FormatLabel lipgloss.Style

	// Status lines
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Info    lipgloss.Style
	Muted   lipgloss.Style
}

// NewTheme detects the terminal and builds the styles.
func NewTheme() *Theme {
	t := &Theme{
		IsDark:       termenv.HasDarkBackground(),
		ColorProfile: termenv.ColorProfile(),
		renderer:     lipgloss.DefaultRenderer(),
	}
	t.initStyles()
	return t
}

// Plain returns a theme that renders without colors, for piped output and
// tests.
func Plain() *Theme {
	r := lipgloss.NewRenderer(io.Discard)
	r.SetColorProfile(termenv.Ascii)
	r.SetHasDarkBackground(true)

	t := &Theme{IsDark: true, ColorProfile: termenv.Ascii, renderer: r}
	t.initStyles()
	return t
}

// Colorless reports whether the terminal cannot show colors.
func (t *Theme) Colorless() bool {
	return t.ColorProfile == termenv.Ascii
}

func (t *Theme) initStyles() {
	t.TabActive = t.renderer.NewStyle().
		Bold(true).
		Foreground(TextInverse).
		Background(Purple).
		Padding(0, 2)

	t.TabInactive = t.renderer.NewStyle().
		Foreground(TextSecondary).
		Background(SurfaceBright).
		Padding(0, 2)

	t.TabGap = t.renderer.NewStyle().
		Foreground(Overlay)

	t.Brand = t.renderer.NewStyle().
		Bold(true).
		Foreground(Cyan)

	t.StatusBar = t.renderer.NewStyle().
		Background(SurfaceDim).
		Foreground(TextSecondary).
		Padding(0, 1)

	t.ShortcutKey = t.renderer.NewStyle().
		Foreground(Cyan).
		Bold(true)

	t.Help = t.renderer.NewStyle().
		Foreground(TextMuted)

	t.UserLabel = t.renderer.NewStyle().
		Foreground(Cyan).
		Bold(true)

	t.AssistantLabel = t.renderer.NewStyle().
		Foreground(Purple).
		Bold(true)

	t.SystemLabel = t.renderer.NewStyle().
		Foreground(Amber).
		Bold(true)

	t.MessageBody = t.renderer.NewStyle().
		Foreground(TextPrimary).
		PaddingLeft(2)

	t.FailedMark = t.renderer.NewStyle().
		Foreground(Rose).
		Italic(true)

	t.Prompt = t.renderer.NewStyle().
		Foreground(Cyan).
		Bold(true)

	t.Card = t.renderer.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Overlay).
		Padding(0, 1).
		MarginBottom(1)

	t.CardTitle = t.renderer.NewStyle().
		Bold(true).
		Foreground(TextPrimary)

	t.CardLevel = t.renderer.NewStyle().
		Foreground(TextMuted).
		Italic(true)

	t.Badge = t.renderer.NewStyle().
		Bold(true).
		Foreground(Purple)

	t.Placeholder = t.renderer.NewStyle().
		Foreground(TextSecondary).
		Italic(true).
		Padding(1, 2)

	t.Generating = t.renderer.NewStyle().
		Foreground(Amber).
		Padding(1, 2)

	t.Summary = t.renderer.NewStyle().
		Foreground(TextSecondary).
		MarginBottom(1)

	t.FormatLabel = t.renderer.NewStyle().
		Foreground(TextMuted)

	t.Success = t.renderer.NewStyle().Foreground(Emerald)
	t.Warning = t.renderer.NewStyle().Foreground(Amber)
	t.Error = t.renderer.NewStyle().Foreground(Rose).Bold(true)
	t.Info = t.renderer.NewStyle().Foreground(Cyan)
	t.Muted = t.renderer.NewStyle().Foreground(TextMuted)
}

// BadgeFor returns the badge style tinted for a content category.
func (t *Theme) BadgeFor(category string) lipgloss.Style {
	return t.Badge.Foreground(CategoryColor(category))
}
