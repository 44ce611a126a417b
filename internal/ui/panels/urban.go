// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package panels

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/dataground-tui/internal/api"
	"github.com/jeranaias/dataground-tui/internal/model"
	"github.com/jeranaias/dataground-tui/internal/params"
	"github.com/jeranaias/dataground-tui/internal/ui/components"
	"github.com/jeranaias/dataground-tui/internal/ui/styles"
)

// =============================================================================
// URBAN STATISTICS PANEL
// =============================================================================

// UrbanPanel shows the comprehensive urban time series: area growth, risk
// exposure, and population figures between a start and end year. It only
// reacts to the two-year comprehensive task; single-year tasks leave it
// untouched with an explanatory hint.
type UrbanPanel struct {
	client *api.Client
	theme  *styles.Theme

	stats   *api.ComprehensiveStats
	errMsg  string
	loading bool
	pending string

	width int
}

// NewUrbanPanel builds the urban statistics panel.
func NewUrbanPanel(client *api.Client, theme *styles.Theme) *UrbanPanel {
	return &UrbanPanel{client: client, theme: theme}
}

// SetWidth updates the rendering width.
func (p *UrbanPanel) SetWidth(w int) { p.width = w }

// Update advances the panel.
func (p *UrbanPanel) Update(msg tea.Msg) (*UrbanPanel, tea.Cmd) {
	switch msg := msg.(type) {
	case params.ChangedMsg:
		return p.onParams(msg.Params)
	case urbanResultMsg:
		if msg.identity != p.pending {
			return p, nil
		}
		p.loading = false
		p.pending = ""
		if msg.err != nil {
			p.errMsg = msg.err.Error()
			return p, nil
		}
		p.stats = msg.stats
		return p, nil
	}
	return p, nil
}

func (p *UrbanPanel) onParams(ap *model.AnalysisParameters) (*UrbanPanel, tea.Cmd) {
	p.stats = nil
	p.errMsg = ""
	p.loading = false
	p.pending = ""

	if ap == nil || ap.Provenance != model.ProvenanceManual || ap.Task != model.TaskUrbanComprehensive {
		return p, nil
	}
	if ap.Year1 == nil || ap.Year2 == nil {
		p.errMsg = "comprehensive statistics need both a start and an end year"
		return p, nil
	}
	if *ap.Year1 > *ap.Year2 {
		p.errMsg = fmt.Sprintf("start year %d must not be after end year %d", *ap.Year1, *ap.Year2)
		return p, nil
	}

	p.loading = true
	p.pending = ap.Identity()
	client := p.client
	start, end := *ap.Year1, *ap.Year2
	identity := p.pending
	return p, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()

		stats, err := client.GetComprehensiveStats(ctx, start, end)
		if err != nil {
			return urbanResultMsg{identity: identity, err: err}
		}
		return urbanResultMsg{identity: identity, stats: stats}
	}
}

// View renders the panel.
func (p *UrbanPanel) View() string {
	width := p.width
	if width < 50 {
		width = 50
	}

	var sb strings.Builder
	sb.WriteString(p.theme.PanelTitle.Render("Urban Area Statistics"))
	sb.WriteString("\n\n")

	switch {
	case p.loading:
		sb.WriteString(p.theme.EmptyHint.Render("computing urban statistics..."))
	case p.errMsg != "":
		sb.WriteString(p.theme.ErrorBox.Render(styles.StatusIndicators.Error + " " + p.errMsg))
	case p.stats == nil:
		sb.WriteString(p.theme.EmptyHint.Render("Run an Urban Area Comprehensive analysis to populate this panel."))
	default:
		p.renderStats(&sb, width-6)
	}

	return p.theme.PanelBorder.Width(width - 2).Render(sb.String())
}

func (p *UrbanPanel) renderStats(sb *strings.Builder, width int) {
	s := p.stats.Summary

	row := func(label, value string) {
		sb.WriteString(p.theme.Label.Render(fmt.Sprintf("%-28s", label)))
		sb.WriteString(p.theme.Value.Render(value))
		sb.WriteString("\n")
	}
	row("Period", fmt.Sprintf("%d - %d", s.StartYear, s.EndYear))
	row("Urbanization", components.FormatPercent(s.UrbanizationPct))
	row("Urbanization change", fmt.Sprintf("%.2fx", s.UrbanizationChangeRatio))
	row("Urban area (end year)", fmt.Sprintf("%s km²", components.FormatCount(s.UrbanAreaEndYear)))
	row("Urban area at risk", fmt.Sprintf("%s km²", components.FormatCount(s.UrbanAreaInRiskEndYear)))
	row("Population in urban areas", components.FormatCount(s.PopulationInUrban))
	row("Population at risk", components.FormatCount(s.PopulationInUrbanRisk))
	row("Urban population share", components.FormatPercent(s.PopulationRatioUrban))
	row("At-risk population share", components.FormatPercent(s.PopulationRatioUrbanRisk))

	if len(p.stats.Years) > 0 && len(p.stats.UrbanAreas) == len(p.stats.Years) {
		sb.WriteString("\n")
		sb.WriteString(p.theme.PanelTitle.Render("Urban area by year (km²)"))
		sb.WriteString("\n")
		sb.WriteString(components.RenderBarChart(yearBars(p.stats.Years, p.stats.UrbanAreas), width))
	}
	if len(p.stats.Years) > 0 && len(p.stats.UrbanAreasInRisk) == len(p.stats.Years) {
		sb.WriteString("\n\n")
		sb.WriteString(p.theme.PanelTitle.Render("Urban area at risk by year (km²)"))
		sb.WriteString("\n")
		sb.WriteString(components.RenderBarChart(yearBars(p.stats.Years, p.stats.UrbanAreasInRisk), width))
	}
}

// yearBars samples a time series down to a readable number of chart rows.
func yearBars(years []int, values []float64) []components.Bar {
	const maxRows = 8
	step := 1
	if len(years) > maxRows {
		step = (len(years) + maxRows - 1) / maxRows
	}
	bars := make([]components.Bar, 0, maxRows+1)
	for i := 0; i < len(years); i += step {
		bars = append(bars, components.Bar{Label: fmt.Sprintf("%d", years[i]), Value: values[i]})
	}
	last := len(years) - 1
	if last%step != 0 {
		bars = append(bars, components.Bar{Label: fmt.Sprintf("%d", years[last]), Value: values[last]})
	}
	return bars
}
