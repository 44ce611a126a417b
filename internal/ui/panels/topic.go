// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package panels

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/dataground-tui/internal/api"
	"github.com/jeranaias/dataground-tui/internal/model"
	"github.com/jeranaias/dataground-tui/internal/params"
	"github.com/jeranaias/dataground-tui/internal/ui/components"
	"github.com/jeranaias/dataground-tui/internal/ui/styles"
)

// =============================================================================
// TOPIC MODELING PANEL
// =============================================================================

// TopicPanel runs topic modeling over pasted text or local files and shows
// the discovered topics. Runs are slow server-side, so a duplicate request
// for the parameters already in flight is suppressed instead of queued.
type TopicPanel struct {
	client *api.Client
	theme  *styles.Theme

	result    *api.TopicResult
	emptyNote string
	fileNotes []string
	errMsg    string
	running   bool
	pending   string

	width int
}

// NewTopicPanel builds the topic modeling panel.
func NewTopicPanel(client *api.Client, theme *styles.Theme) *TopicPanel {
	return &TopicPanel{client: client, theme: theme}
}

// SetWidth updates the rendering width.
func (p *TopicPanel) SetWidth(w int) { p.width = w }

// Update advances the panel.
func (p *TopicPanel) Update(msg tea.Msg) (*TopicPanel, tea.Cmd) {
	switch msg := msg.(type) {
	case params.ChangedMsg:
		return p.onParams(msg.Params)
	case topicResultMsg:
		if msg.identity != p.pending {
			return p, nil
		}
		p.running = false
		p.pending = ""
		if msg.err != nil {
			p.errMsg = msg.err.Error()
			return p, nil
		}
		if len(msg.result.Topics) == 0 && msg.result.Message != "" {
			// A successful run that found nothing, not a failure.
			p.emptyNote = msg.result.Message
			return p, nil
		}
		p.result = msg.result
		return p, nil
	}
	return p, nil
}

func (p *TopicPanel) onParams(ap *model.AnalysisParameters) (*TopicPanel, tea.Cmd) {
	if ap != nil && ap.Task == model.TaskTopicModeling && p.running && p.pending == ap.Identity() {
		// Same run already in flight; let it finish.
		return p, nil
	}

	p.result = nil
	p.emptyNote = ""
	p.fileNotes = nil
	p.errMsg = ""
	p.running = false
	p.pending = ""

	if ap == nil || ap.Task != model.TaskTopicModeling || ap.Provenance != model.ProvenanceManual {
		return p, nil
	}

	req := api.TopicRequest{
		Method:     ap.Method,
		NTopics:    ap.NTopics,
		MinDf:      model.DefaultMinDf,
		MaxDf:      model.DefaultMaxDf,
		NgramRange: ap.NgramRange,
		TextInput:  ap.TextInput,
	}
	if ap.MinDf != nil {
		req.MinDf = *ap.MinDf
	}
	if ap.MaxDf != nil {
		req.MaxDf = *ap.MaxDf
	}
	if req.NgramRange == "" {
		req.NgramRange = model.DefaultNgramRange
	}

	if ap.InputType == "files" {
		for _, path := range ap.Files {
			content, err := os.ReadFile(path)
			if err != nil {
				p.fileNotes = append(p.fileNotes, fmt.Sprintf("skipped %s: %v", path, err))
				continue
			}
			req.Files = append(req.Files, api.TopicFile{Name: filepath.Base(path), Content: content})
		}
		if len(req.Files) == 0 {
			p.errMsg = "none of the selected files could be read"
			return p, nil
		}
	} else if strings.TrimSpace(req.TextInput) == "" {
		p.errMsg = "topic modeling needs input text or files"
		return p, nil
	}

	p.running = true
	p.pending = ap.Identity()
	identity := p.pending
	client := p.client
	return p, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()

		result, err := client.RunTopicModeling(ctx, req)
		if err != nil {
			return topicResultMsg{identity: identity, err: err}
		}
		return topicResultMsg{identity: identity, result: result}
	}
}

// View renders the panel.
func (p *TopicPanel) View() string {
	width := p.width
	if width < 50 {
		width = 50
	}

	var sb strings.Builder
	sb.WriteString(p.theme.PanelTitle.Render("Topic Modeling"))
	sb.WriteString("\n\n")

	switch {
	case p.running:
		sb.WriteString(p.theme.EmptyHint.Render("discovering topics, this can take a while..."))
	case p.errMsg != "":
		sb.WriteString(p.theme.ErrorBox.Render(styles.StatusIndicators.Error + " " + p.errMsg))
	case p.emptyNote != "":
		sb.WriteString(styles.RenderInfo(p.emptyNote))
	case p.result == nil:
		sb.WriteString(p.theme.EmptyHint.Render("Run topic modeling from the Analyze tab to populate this panel."))
	default:
		p.renderResult(&sb, width-6)
	}

	for _, note := range p.fileNotes {
		sb.WriteString("\n")
		sb.WriteString(styles.RenderWarning(note))
	}

	return p.theme.PanelBorder.Width(width - 2).Render(sb.String())
}

func (p *TopicPanel) renderResult(sb *strings.Builder, width int) {
	r := p.result

	method := strings.ToUpper(r.Method)
	header := fmt.Sprintf("%s · %d topics · %d documents", method, r.NTopics, r.TotalDocuments)
	if r.IsAutoTopicDetection {
		header += " · auto-detected topic count"
	}
	sb.WriteString(p.theme.Value.Render(header))
	sb.WriteString("\n")

	for i, topic := range r.Topics {
		sb.WriteString("\n")
		sb.WriteString(p.theme.PanelTitle.Render(fmt.Sprintf("Topic %d", i+1)))
		sb.WriteString("\n")
		sb.WriteString(components.RenderBarChart(topicBars(topic), width))
		sb.WriteString("\n")
	}
}

// topicBars turns a topic's weighted vocabulary into chart rows, strongest
// words first, capped for readability.
func topicBars(t api.Topic) []components.Bar {
	const maxWords = 6
	n := len(t.Words)
	if len(t.Weights) < n {
		n = len(t.Weights)
	}
	if n > maxWords {
		n = maxWords
	}
	bars := make([]components.Bar, 0, n)
	for i := 0; i < n; i++ {
		bars = append(bars, components.Bar{Label: t.Words[i], Value: t.Weights[i]})
	}
	return bars
}
