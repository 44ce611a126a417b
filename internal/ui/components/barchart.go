// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides reusable terminal widgets: bar charts,
// status bar, and number formatting shared by the dashboard panels.
package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/jeranaias/dataground-tui/internal/ui/styles"
)

// =============================================================================
// BAR CHART
// =============================================================================

// Bar is one row of a horizontal bar chart.
type Bar struct {
	Label string
	Value float64
}

// barGlyph is the fill character for chart bars.
const barGlyph = "█"

// RenderBarChart renders rows of labeled horizontal bars scaled to the
// widest value. Width is the total rendered width including labels.
func RenderBarChart(bars []Bar, width int) string {
	if len(bars) == 0 {
		return ""
	}

	labelWidth := 0
	maxValue := 0.0
	for _, b := range bars {
		if w := runewidth.StringWidth(b.Label); w > labelWidth {
			labelWidth = w
		}
		if b.Value > maxValue {
			maxValue = b.Value
		}
	}
	if labelWidth > width/2 {
		labelWidth = width / 2
	}

	// label + space + bar + space + value
	valueWidth := 10
	barWidth := width - labelWidth - valueWidth - 2
	if barWidth < 5 {
		barWidth = 5
	}

	barStyle := lipgloss.NewStyle().Foreground(styles.Teal)
	labelStyle := lipgloss.NewStyle().Foreground(styles.TextSecondary)
	valueStyle := lipgloss.NewStyle().Foreground(styles.TextMuted)

	var sb strings.Builder
	for i, b := range bars {
		if i > 0 {
			sb.WriteString("\n")
		}
		label := runewidth.Truncate(b.Label, labelWidth, "…")
		label = runewidth.FillRight(label, labelWidth)

		filled := 0
		if maxValue > 0 {
			filled = int(b.Value / maxValue * float64(barWidth))
		}
		if filled < 1 && b.Value > 0 {
			filled = 1
		}

		sb.WriteString(labelStyle.Render(label))
		sb.WriteString(" ")
		sb.WriteString(barStyle.Render(strings.Repeat(barGlyph, filled)))
		sb.WriteString(" ")
		sb.WriteString(valueStyle.Render(formatBarValue(b.Value)))
	}
	return sb.String()
}

// formatBarValue keeps chart values compact.
func formatBarValue(v float64) string {
	switch {
	case v >= 1_000_000:
		return fmt.Sprintf("%.1fM", v/1_000_000)
	case v >= 1_000:
		return fmt.Sprintf("%.1fK", v/1_000)
	case v == float64(int64(v)):
		return fmt.Sprintf("%.0f", v)
	default:
		return fmt.Sprintf("%.2f", v)
	}
}
