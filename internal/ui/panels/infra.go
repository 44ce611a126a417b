// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package panels

import (
	"context"
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/dataground-tui/internal/analysis"
	"github.com/jeranaias/dataground-tui/internal/api"
	"github.com/jeranaias/dataground-tui/internal/model"
	"github.com/jeranaias/dataground-tui/internal/params"
	"github.com/jeranaias/dataground-tui/internal/ui/components"
	"github.com/jeranaias/dataground-tui/internal/ui/styles"
)

// =============================================================================
// INFRASTRUCTURE EXPOSURE PANEL
// =============================================================================

// InfraPanel shows infrastructure at risk for the configured year, threshold,
// and city. The panel keeps a local year override so the user can step
// through years without disturbing the global parameters; "s" publishes the
// override back as the new current year.
type InfraPanel struct {
	client *api.Client
	store  *params.Store
	theme  *styles.Theme

	// base is the parameter set the panel last derived from.
	base *model.AnalysisParameters
	// yearOverride diverges from base.Year1 until synced or replaced.
	yearOverride *int

	result  *api.InfrastructureResult
	year    int
	errMsg  string
	hint    string
	loading bool
	pending string

	width int
}

// NewInfraPanel builds the infrastructure panel.
func NewInfraPanel(client *api.Client, store *params.Store, theme *styles.Theme) *InfraPanel {
	return &InfraPanel{client: client, store: store, theme: theme}
}

// SetWidth updates the rendering width.
func (p *InfraPanel) SetWidth(w int) { p.width = w }

// Update advances the panel.
func (p *InfraPanel) Update(msg tea.Msg) (*InfraPanel, tea.Cmd) {
	switch msg := msg.(type) {
	case params.ChangedMsg:
		return p.onParams(msg.Params)

	case infraResultMsg:
		if msg.identity != p.pending {
			return p, nil
		}
		p.loading = false
		p.pending = ""
		if msg.err != nil {
			p.errMsg = msg.err.Error()
			return p, nil
		}
		p.result = msg.result
		p.year = msg.year
		return p, nil

	case tea.KeyMsg:
		return p.onKey(msg)
	}
	return p, nil
}

func (p *InfraPanel) onKey(msg tea.KeyMsg) (*InfraPanel, tea.Cmd) {
	if p.base == nil {
		return p, nil
	}
	switch msg.String() {
	case "+", "=":
		return p.stepYear(1), nil
	case "-", "_":
		return p.stepYear(-1), nil
	case "r":
		// Re-run with the override without touching the global parameters.
		return p, p.fetchCurrent()
	case "s":
		// Publish the override as the new global year. Every panel,
		// including this one, re-derives from the announcement.
		if p.yearOverride == nil {
			return p, nil
		}
		next := *p.base
		next.Year1 = model.IntPtr(*p.yearOverride)
		changed := p.store.SetAndAnnounce(&next)
		return p, func() tea.Msg { return changed }
	}
	return p, nil
}

func (p *InfraPanel) stepYear(delta int) *InfraPanel {
	year := p.currentYear() + delta
	year = model.AutoAdjustYear(model.TaskInfrastructure, year)
	p.yearOverride = model.IntPtr(year)
	return p
}

func (p *InfraPanel) currentYear() int {
	if p.yearOverride != nil {
		return *p.yearOverride
	}
	if p.base != nil && p.base.Year1 != nil {
		return *p.base.Year1
	}
	return 0
}

func (p *InfraPanel) onParams(ap *model.AnalysisParameters) (*InfraPanel, tea.Cmd) {
	p.base = nil
	p.yearOverride = nil
	p.result = nil
	p.errMsg = ""
	p.hint = ""
	p.loading = false
	p.pending = ""

	if ap == nil || ap.Provenance != model.ProvenanceManual || ap.Task != model.TaskInfrastructure {
		return p, nil
	}
	p.base = ap

	if ap.Year1 == nil || ap.Threshold == nil || ap.City == "" {
		p.hint = "Infrastructure exposure needs a city, a year, and a sea-level threshold."
		return p, nil
	}
	return p, p.fetchCurrent()
}

// fetchCurrent dispatches an exposure fetch for the base parameters with the
// local year override applied.
func (p *InfraPanel) fetchCurrent() tea.Cmd {
	ap := p.base
	if ap == nil || ap.Year1 == nil || ap.Threshold == nil || ap.City == "" {
		return nil
	}
	year := p.currentYear()

	p.loading = true
	p.errMsg = ""
	p.pending = fmt.Sprintf("%s|year=%d", ap.Identity(), year)
	identity := p.pending

	client := p.client
	city := ap.City
	threshold := *ap.Threshold
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()

		bbox := analysis.JakartaBounds
		if coords, err := client.ResolveCity(ctx, city); err == nil {
			bbox = analysis.CalculateStandardBbox(coords.Lat, coords.Lng, model.TaskInfrastructure)
		}

		result, err := client.GetInfrastructureExposure(ctx, year, threshold, bbox)
		if err != nil {
			return infraResultMsg{identity: identity, year: year, err: err}
		}
		return infraResultMsg{identity: identity, year: year, result: result}
	}
}

// View renders the panel.
func (p *InfraPanel) View() string {
	width := p.width
	if width < 50 {
		width = 50
	}

	var sb strings.Builder
	sb.WriteString(p.theme.PanelTitle.Render("Infrastructure Exposure"))
	sb.WriteString("\n\n")

	switch {
	case p.loading:
		sb.WriteString(p.theme.EmptyHint.Render("assessing infrastructure..."))
	case p.errMsg != "":
		sb.WriteString(p.theme.ErrorBox.Render(styles.StatusIndicators.Error + " " + p.errMsg))
	case p.hint != "":
		sb.WriteString(p.theme.EmptyHint.Render(p.hint))
	case p.result == nil:
		sb.WriteString(p.theme.EmptyHint.Render("Run an Infrastructure Exposure analysis to populate this panel."))
	default:
		p.renderResult(&sb, width-6)
	}

	return p.theme.PanelBorder.Width(width - 2).Render(sb.String())
}

func (p *InfraPanel) renderResult(sb *strings.Builder, width int) {
	stats := p.result.Statistics

	yearNote := fmt.Sprintf("%d", p.year)
	if p.yearOverride != nil && p.base != nil && p.base.Year1 != nil && *p.yearOverride != *p.base.Year1 {
		yearNote += fmt.Sprintf(" (override, global is %d)", *p.base.Year1)
	}

	row := func(label, value string) {
		sb.WriteString(p.theme.Label.Render(fmt.Sprintf("%-24s", label)))
		sb.WriteString(p.theme.Value.Render(value))
		sb.WriteString("\n")
	}
	row("Year", yearNote)
	row("Total assets", components.FormatCount(float64(stats.TotalInfrastructure)))
	row("At risk", components.FormatCount(float64(stats.AtRiskInfrastructure)))
	row("Risk share", components.FormatPercent(stats.RiskPercentage))
	if p.result.MapURL != "" {
		row("Overlay", p.result.MapURL)
	}

	if len(stats.ByType) > 0 {
		sb.WriteString("\n")
		sb.WriteString(p.theme.PanelTitle.Render("At risk by type"))
		sb.WriteString("\n")
		sb.WriteString(components.RenderBarChart(typeBars(stats.ByType), width))
	}

	if atRisk := riskItems(p.result.InfrastructureData, 5); len(atRisk) > 0 {
		sb.WriteString("\n\n")
		sb.WriteString(p.theme.PanelTitle.Render("Exposed assets"))
		sb.WriteString("\n")
		for _, item := range atRisk {
			sb.WriteString(p.theme.Label.Render("  " + styles.StatusIndicators.Warning + " "))
			sb.WriteString(p.theme.Value.Render(item.Name))
			sb.WriteString(p.theme.Label.Render(" (" + item.Type + ")"))
			sb.WriteString("\n")
		}
	}

	sb.WriteString("\n")
	sb.WriteString(p.theme.EmptyHint.Render("+/- adjust year · r re-run · s make year global"))
}

// typeBars orders the per-type breakdown by exposure, largest first.
func typeBars(byType map[string]api.TypeBreakdown) []components.Bar {
	bars := make([]components.Bar, 0, len(byType))
	for name, bd := range byType {
		bars = append(bars, components.Bar{Label: name, Value: float64(bd.AtRisk)})
	}
	sort.Slice(bars, func(i, j int) bool {
		if bars[i].Value != bars[j].Value {
			return bars[i].Value > bars[j].Value
		}
		return bars[i].Label < bars[j].Label
	})
	return bars
}

// riskItems returns up to n assets flagged at risk.
func riskItems(items []api.InfrastructureItem, n int) []api.InfrastructureItem {
	out := make([]api.InfrastructureItem, 0, n)
	for _, item := range items {
		if !item.AtRisk {
			continue
		}
		out = append(out, item)
		if len(out) == n {
			break
		}
	}
	return out
}
