// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// =============================================================================
// THEME
// =============================================================================

// Theme bundles the lipgloss styles used across the interface.
type Theme struct {
	// Chrome
	TabActive   lipgloss.Style
	TabInactive lipgloss.Style
	StatusBar   lipgloss.Style
	Title       lipgloss.Style

	// Chat
	UserBubble      lipgloss.Style
	AssistantBubble lipgloss.Style
	Timestamp       lipgloss.Style
	InputBox        lipgloss.Style

	// Panels
	PanelBorder lipgloss.Style
	PanelTitle  lipgloss.Style
	Label       lipgloss.Style
	Value       lipgloss.Style
	ErrorBox    lipgloss.Style
	EmptyHint   lipgloss.Style

	// Forms
	FieldLabel   lipgloss.Style
	FieldFocused lipgloss.Style
	FieldError   lipgloss.Style
}

// NewTheme builds the theme. The "light"/"dark" choice from config forces
// the background assumption; otherwise lipgloss detects it.
func NewTheme(mode string) *Theme {
	switch mode {
	case "light":
		lipgloss.SetHasDarkBackground(false)
	case "dark":
		lipgloss.SetHasDarkBackground(true)
	}

	return &Theme{
		TabActive: lipgloss.NewStyle().
			Foreground(Teal).
			Bold(true).
			Padding(0, 2).
			Border(lipgloss.RoundedBorder(), false, false, true, false).
			BorderForeground(Teal),
		TabInactive: lipgloss.NewStyle().
			Foreground(TextMuted).
			Padding(0, 2),
		StatusBar: lipgloss.NewStyle().
			Foreground(TextSecondary).
			Background(Overlay),
		Title: lipgloss.NewStyle().
			Foreground(Teal).
			Bold(true),

		UserBubble: lipgloss.NewStyle().
			Foreground(UserBubbleFg).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(UserBubbleBorder).
			Padding(0, 1),
		AssistantBubble: lipgloss.NewStyle().
			Foreground(AssistantBubbleFg).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(AssistantBubbleBorder).
			Padding(0, 1),
		Timestamp: lipgloss.NewStyle().
			Foreground(TextMuted),
		InputBox: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Overlay).
			Padding(0, 1),

		PanelBorder: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Overlay).
			Padding(0, 1),
		PanelTitle: lipgloss.NewStyle().
			Foreground(Violet).
			Bold(true),
		Label: lipgloss.NewStyle().
			Foreground(TextSecondary),
		Value: lipgloss.NewStyle().
			Foreground(TextPrimary).
			Bold(true),
		ErrorBox: lipgloss.NewStyle().
			Foreground(Rose).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Rose).
			Padding(0, 1),
		EmptyHint: lipgloss.NewStyle().
			Foreground(TextMuted).
			Italic(true),

		FieldLabel: lipgloss.NewStyle().
			Foreground(TextSecondary),
		FieldFocused: lipgloss.NewStyle().
			Foreground(Teal).
			Bold(true),
		FieldError: lipgloss.NewStyle().
			Foreground(Rose),
	}
}

// ColorProfile reports the terminal's color capability, used to degrade
// gracefully on dumb terminals.
func ColorProfile() termenv.Profile {
	return termenv.ColorProfile()
}
