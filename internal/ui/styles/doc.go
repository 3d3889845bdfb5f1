// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the colors and lipgloss styles used by studyrun.

All colors are lipgloss AdaptiveColor values, so they follow the terminal's
light or dark background automatically.

# Colors (colors.go)

  - Purple - active tab, assistant messages
  - Cyan - brand, prompts, user messages
  - Emerald - success, text content
  - Amber - in-progress states, audio content
  - Rose - errors, video content

CategoryColor maps a generated content category to its badge color.

# Theme (theme.go)

NewTheme detects the terminal with termenv and builds every style once.
Plain returns the same styles for terminals without color support.

	theme := styles.NewTheme()
	fmt.Println(theme.Error.Render("Failed to generate content."))
*/
package styles
