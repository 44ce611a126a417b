// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package panels

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/dataground-tui/internal/analysis"
	"github.com/jeranaias/dataground-tui/internal/api"
	"github.com/jeranaias/dataground-tui/internal/model"
	"github.com/jeranaias/dataground-tui/internal/params"
	"github.com/jeranaias/dataground-tui/internal/ui/styles"
)

// fetchTimeout bounds a single panel fetch. Map rendering server-side can be
// slow for large regions.
const fetchTimeout = 3 * time.Minute

// =============================================================================
// MAP PANEL
// =============================================================================

// MapPanel shows the generated overlay for the current analysis: the image
// URL, the bounding box, and the region it covers. Chat-triggered map
// updates are consumed directly; manual parameters trigger a fetch.
type MapPanel struct {
	client *api.Client
	theme  *styles.Theme

	taskLabel string
	city      string
	imageURL  string
	bbox      *analysis.BBox
	note      string
	errMsg    string
	loading   bool
	// pending keys the in-flight fetch to the parameters that started it.
	pending string

	width int
}

// mapTasks are the analyses this panel renders an overlay for.
var mapTasks = map[string]bool{
	model.TaskSLRRisk:            true,
	model.TaskUrbanArea:          true,
	model.TaskUrbanComprehensive: true,
	model.TaskPopulationExposure: true,
}

// NewMapPanel builds the map panel.
func NewMapPanel(client *api.Client, theme *styles.Theme) *MapPanel {
	return &MapPanel{client: client, theme: theme}
}

// SetWidth updates the rendering width.
func (p *MapPanel) SetWidth(w int) { p.width = w }

// Update advances the panel.
func (p *MapPanel) Update(msg tea.Msg) (*MapPanel, tea.Cmd) {
	switch msg := msg.(type) {
	case params.ChangedMsg:
		return p.onParams(msg.Params)
	case mapResultMsg:
		if msg.identity != p.pending {
			return p, nil
		}
		p.loading = false
		p.pending = ""
		if msg.err != nil {
			p.errMsg = msg.err.Error()
			return p, nil
		}
		p.imageURL = msg.url
		p.bbox = msg.bbox
		if msg.note != "" {
			p.note = msg.note
		}
		return p, nil
	}
	return p, nil
}

// onParams derives the panel's state from a new parameter set. All derived
// state is reset first so a stale overlay never survives a parameter change.
func (p *MapPanel) onParams(ap *model.AnalysisParameters) (*MapPanel, tea.Cmd) {
	p.taskLabel = ""
	p.city = ""
	p.imageURL = ""
	p.bbox = nil
	p.note = ""
	p.errMsg = ""
	p.loading = false
	p.pending = ""

	if ap == nil {
		return p, nil
	}

	if ap.Provenance == model.ProvenanceChatTriggered {
		mu := ap.MapUpdate()
		if mu == nil {
			return p, nil
		}
		p.taskLabel = "Assistant map"
		p.imageURL = mu.ImageURL
		if len(mu.BBox) == 4 {
			// Backend bbox order is (minLng, minLat, maxLng, maxLat).
			p.bbox = &analysis.BBox{
				MinLng: mu.BBox[0], MinLat: mu.BBox[1],
				MaxLng: mu.BBox[2], MaxLat: mu.BBox[3],
			}
		}
		return p, nil
	}

	if !mapTasks[ap.Task] {
		return p, nil
	}
	task, _ := model.GetTask(ap.Task)
	p.taskLabel = task.Label
	p.city = ap.City
	p.loading = true
	p.pending = ap.Identity()
	return p, p.fetch(ap, p.pending)
}

// fetch resolves the city, computes the standard bounding box, and requests
// the overlay for the task. When the city cannot be resolved the sea-level
// task falls back to the global view; everything else falls back to the
// Jakarta region.
func (p *MapPanel) fetch(ap *model.AnalysisParameters, identity string) tea.Cmd {
	client := p.client
	task := ap.Task
	city := ap.City
	year := mapYear(ap)
	threshold := ap.Threshold

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()

		var bbox *analysis.BBox
		note := ""
		coords, err := client.ResolveCity(ctx, city)
		switch {
		case err == nil:
			b := analysis.CalculateStandardBbox(coords.Lat, coords.Lng, task)
			bbox = &b
		case task == model.TaskSLRRisk:
			note = fmt.Sprintf("could not locate %q, showing global view", city)
		default:
			b := analysis.JakartaBounds
			bbox = &b
			note = fmt.Sprintf("could not locate %q, showing Jakarta region", city)
		}

		req := api.MapRequest{Year: year, Threshold: threshold, BBox: bbox}
		var url string
		switch task {
		case model.TaskSLRRisk:
			url, err = client.SeaLevelRiseMap(ctx, req)
		case model.TaskUrbanArea:
			url, err = client.UrbanAreaMap(ctx, req)
		default:
			url, err = client.UrbanAreaRiskCombinedMap(ctx, req)
		}
		if err != nil {
			return mapResultMsg{identity: identity, err: err}
		}
		return mapResultMsg{identity: identity, url: url, bbox: bbox, note: note}
	}
}

// mapYear picks the year the overlay is rendered for: the end year for
// range tasks, the single year otherwise.
func mapYear(ap *model.AnalysisParameters) int {
	if t, ok := model.GetTask(ap.Task); ok && t.YearCount == 2 && ap.Year2 != nil {
		return *ap.Year2
	}
	if ap.Year1 != nil {
		return *ap.Year1
	}
	return 0
}

// View renders the panel.
func (p *MapPanel) View() string {
	width := p.width
	if width < 40 {
		width = 40
	}

	var sb strings.Builder
	sb.WriteString(p.theme.PanelTitle.Render("Map"))
	sb.WriteString("\n\n")

	switch {
	case p.loading:
		sb.WriteString(p.theme.EmptyHint.Render("rendering overlay..."))
	case p.errMsg != "":
		sb.WriteString(p.theme.ErrorBox.Render(styles.StatusIndicators.Error + " " + p.errMsg))
	case p.imageURL == "":
		sb.WriteString(p.theme.EmptyHint.Render("No map yet. Run an analysis from the chat or the Analyze tab."))
	default:
		sb.WriteString(p.theme.Label.Render("Analysis  "))
		sb.WriteString(p.theme.Value.Render(p.taskLabel))
		sb.WriteString("\n")
		if p.city != "" {
			sb.WriteString(p.theme.Label.Render("Region    "))
			sb.WriteString(p.theme.Value.Render(p.city))
			sb.WriteString("\n")
		}
		if p.bbox != nil {
			lat, lng := p.bbox.Center()
			sb.WriteString(p.theme.Label.Render("Center    "))
			sb.WriteString(p.theme.Value.Render(fmt.Sprintf("%.4f, %.4f", lat, lng)))
			sb.WriteString("\n")
			sb.WriteString(p.theme.Label.Render("Bounds    "))
			sb.WriteString(p.theme.Value.Render(fmt.Sprintf("[%.3f, %.3f] .. [%.3f, %.3f]",
				p.bbox.MinLat, p.bbox.MinLng, p.bbox.MaxLat, p.bbox.MaxLng)))
			sb.WriteString("\n")
		}
		sb.WriteString(p.theme.Label.Render("Overlay   "))
		sb.WriteString(p.theme.Value.Render(p.imageURL))
		if p.note != "" {
			sb.WriteString("\n")
			sb.WriteString(styles.RenderWarning(p.note))
		}
	}

	return p.theme.PanelBorder.Width(width - 2).Render(sb.String())
}
