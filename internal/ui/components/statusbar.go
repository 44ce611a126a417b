// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/jeranaias/dataground-tui/internal/model"
	"github.com/jeranaias/dataground-tui/internal/ui/styles"
)

// =============================================================================
// STATUS BAR
// =============================================================================

// StatusBar summarizes session state at the bottom of the screen: the
// signed-in user, the current analysis, and a transient note.
type StatusBar struct {
	User   string
	Note   string
	Params *model.AnalysisParameters
}

// Render draws the bar at the given width.
func (s StatusBar) Render(theme *styles.Theme, width int) string {
	left := " " + s.User
	if s.User == "" {
		left = " not signed in"
	}

	middle := ""
	if s.Params != nil {
		if task, ok := model.GetTask(s.Params.Task); ok {
			middle = task.Label
		} else {
			middle = s.Params.Task
		}
		if s.Params.City != "" {
			middle += " · " + s.Params.City
		}
	}

	right := s.Note + " "

	gap := width - runewidth.StringWidth(left) - runewidth.StringWidth(middle) - runewidth.StringWidth(right)
	if gap < 2 {
		middle = runewidth.Truncate(middle, maxInt(0, width-runewidth.StringWidth(left)-runewidth.StringWidth(right)-2), "…")
		gap = width - runewidth.StringWidth(left) - runewidth.StringWidth(middle) - runewidth.StringWidth(right)
		if gap < 0 {
			gap = 0
		}
	}
	leftGap := gap / 2
	rightGap := gap - leftGap

	line := left + strings.Repeat(" ", leftGap) + middle + strings.Repeat(" ", rightGap) + right
	return theme.StatusBar.Width(width).Render(line)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
