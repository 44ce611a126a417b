// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package panels

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/dataground-tui/internal/model"
	"github.com/jeranaias/dataground-tui/internal/params"
	"github.com/jeranaias/dataground-tui/internal/ui/styles"
)

// =============================================================================
// MANUAL ANALYSIS FORM
// =============================================================================

// Form field identifiers. Which fields are visible depends on the selected
// task; values persist across task switches so flipping back does not lose
// input.
const (
	fieldCountry = iota
	fieldCity
	fieldYear1
	fieldYear2
	fieldThreshold
	fieldNTopics
	fieldMinDf
	fieldMaxDf
	fieldNgram
	fieldText
	fieldFiles
	fieldCount
)

var fieldLabels = [fieldCount]string{
	"Country", "City", "Start year", "End year", "Threshold (m)",
	"Topics", "Min df", "Max df", "N-gram range", "Text", "Files (comma-separated)",
}

// topicMethods and topicInputs are the cycle options for the two selector
// rows of the topic form.
var topicMethods = []string{"lda", "bertopic"}

var topicInputs = []string{"text", "files"}

// FormDefaults seeds the form from configuration.
type FormDefaults struct {
	Country   string
	City      string
	Task      string
	Threshold float64
}

// Form is the manual analysis form. Submitting publishes a complete
// manual-provenance parameter record; nothing is merged with the previous
// record.
type Form struct {
	store *params.Store
	theme *styles.Theme

	taskIdx   int
	methodIdx int
	inputIdx  int
	inputs    [fieldCount]textinput.Model

	// focus 0 is the task selector; higher values index into the visible
	// rows after it.
	focus  int
	errMsg string
	note   string
	width  int
}

// NewForm builds the form seeded with configured defaults.
func NewForm(store *params.Store, theme *styles.Theme, defaults FormDefaults) *Form {
	f := &Form{store: store, theme: theme}

	for i := range f.inputs {
		ti := textinput.New()
		ti.CharLimit = 200
		ti.Width = 32
		f.inputs[i] = ti
	}
	f.inputs[fieldText].CharLimit = 4000
	f.inputs[fieldText].Width = 60
	f.inputs[fieldFiles].CharLimit = 1000
	f.inputs[fieldFiles].Width = 60

	f.inputs[fieldCountry].SetValue(defaults.Country)
	f.inputs[fieldCity].SetValue(defaults.City)
	f.inputs[fieldThreshold].SetValue(strconv.FormatFloat(defaults.Threshold, 'f', -1, 64))
	f.inputs[fieldNTopics].SetValue(strconv.Itoa(model.DefaultNTopics))
	f.inputs[fieldMinDf].SetValue(strconv.FormatFloat(model.DefaultMinDf, 'f', -1, 64))
	f.inputs[fieldMaxDf].SetValue(strconv.FormatFloat(model.DefaultMaxDf, 'f', -1, 64))
	f.inputs[fieldNgram].SetValue(model.DefaultNgramRange)

	for i, id := range model.TaskOrder {
		if id == defaults.Task {
			f.taskIdx = i
		}
	}
	f.seedYears()
	return f
}

// SetWidth updates the rendering width.
func (f *Form) SetWidth(w int) { f.width = w }

// task returns the currently selected task.
func (f *Form) task() model.TaskInfo {
	t, _ := model.GetTask(model.TaskOrder[f.taskIdx])
	return t
}

// visibleFields lists the field rows shown for the current task.
func (f *Form) visibleFields() []int {
	t := f.task()
	if t.ID == model.TaskTopicModeling {
		fields := []int{fieldNTopics, fieldMinDf, fieldMaxDf, fieldNgram}
		if topicInputs[f.inputIdx] == "files" {
			return append(fields, fieldFiles)
		}
		return append(fields, fieldText)
	}

	fields := []int{fieldCountry, fieldCity}
	if t.YearCount >= 1 {
		fields = append(fields, fieldYear1)
	}
	if t.YearCount >= 2 {
		fields = append(fields, fieldYear2)
	}
	if t.Threshold {
		fields = append(fields, fieldThreshold)
	}
	return fields
}

// selectorRows counts the cycle rows before the text fields: the task row,
// plus method and input-type rows for topic modeling.
func (f *Form) selectorRows() int {
	if f.task().ID == model.TaskTopicModeling {
		return 3
	}
	return 1
}

// Update advances the form.
func (f *Form) Update(msg tea.Msg) (*Form, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return f, nil
	}

	switch key.String() {
	case "up":
		f.moveFocus(-1)
		return f, nil
	case "down":
		f.moveFocus(1)
		return f, nil
	case "left", "right":
		if f.focus < f.selectorRows() {
			f.cycle(f.focus, key.String() == "right")
			return f, nil
		}
	case "enter":
		if f.focus == f.selectorRows()+len(f.visibleFields())-1 {
			return f, f.submit()
		}
		f.moveFocus(1)
		return f, nil
	case "ctrl+s":
		return f, f.submit()
	}

	if idx, ok := f.focusedField(); ok {
		var cmd tea.Cmd
		f.inputs[idx], cmd = f.inputs[idx].Update(msg)
		return f, cmd
	}
	return f, nil
}

func (f *Form) focusedField() (int, bool) {
	rows := f.selectorRows()
	fields := f.visibleFields()
	i := f.focus - rows
	if i < 0 || i >= len(fields) {
		return 0, false
	}
	return fields[i], true
}

func (f *Form) moveFocus(delta int) {
	total := f.selectorRows() + len(f.visibleFields())
	f.focus = (f.focus + delta + total) % total
	f.syncFocus()
}

func (f *Form) syncFocus() {
	for i := range f.inputs {
		f.inputs[i].Blur()
	}
	if idx, ok := f.focusedField(); ok {
		f.inputs[idx].Focus()
	}
}

// cycle advances a selector row: task, method, or input type.
func (f *Form) cycle(row int, forward bool) {
	step := 1
	if !forward {
		step = -1
	}
	switch row {
	case 0:
		f.taskIdx = (f.taskIdx + step + len(model.TaskOrder)) % len(model.TaskOrder)
		f.seedYears()
		f.focus = 0
		f.syncFocus()
	case 1:
		f.methodIdx = (f.methodIdx + step + len(topicMethods)) % len(topicMethods)
	case 2:
		f.inputIdx = (f.inputIdx + step + len(topicInputs)) % len(topicInputs)
	}
	f.errMsg = ""
	f.note = ""
}

// seedYears fills or clamps the year fields to the new task's dataset range
// so values carried across a task switch stay valid.
func (f *Form) seedYears() {
	t := f.task()
	if t.YearCount == 0 {
		return
	}
	adjust := func(field int, fallback int) {
		year, err := strconv.Atoi(strings.TrimSpace(f.inputs[field].Value()))
		if err != nil {
			year = fallback
		}
		f.inputs[field].SetValue(strconv.Itoa(model.AutoAdjustYear(t.ID, year)))
	}
	adjust(fieldYear1, t.MinYear)
	if t.YearCount >= 2 {
		adjust(fieldYear2, t.MaxYear)
	}
}

// submit assembles, validates, and publishes the parameter record.
func (f *Form) submit() tea.Cmd {
	p, err := f.build()
	if err != nil {
		f.errMsg = err.Error()
		f.note = ""
		return nil
	}
	if err := p.Validate(); err != nil {
		f.errMsg = err.Error()
		f.note = ""
		return nil
	}
	f.errMsg = ""
	f.note = "analysis dispatched"
	changed := f.store.SetAndAnnounce(p)
	return func() tea.Msg { return changed }
}

// build reads the visible fields into an AnalysisParameters record.
func (f *Form) build() (*model.AnalysisParameters, error) {
	t := f.task()
	p := &model.AnalysisParameters{
		Provenance: model.ProvenanceManual,
		Task:       t.ID,
		MapOption:  model.DefaultMapOption,
	}

	if t.ID == model.TaskTopicModeling {
		p.Method = topicMethods[f.methodIdx]
		p.InputType = topicInputs[f.inputIdx]
		p.NgramRange = strings.TrimSpace(f.inputs[fieldNgram].Value())

		if p.Method == model.DefaultTopicMethod {
			n, err := f.intField(fieldNTopics)
			if err != nil {
				return nil, err
			}
			p.NTopics = n
		}
		minDf, err := f.floatField(fieldMinDf)
		if err != nil {
			return nil, err
		}
		p.MinDf = minDf
		maxDf, err := f.floatField(fieldMaxDf)
		if err != nil {
			return nil, err
		}
		p.MaxDf = maxDf

		if p.InputType == "files" {
			for _, part := range strings.Split(f.inputs[fieldFiles].Value(), ",") {
				if path := strings.TrimSpace(part); path != "" {
					p.Files = append(p.Files, path)
				}
			}
			if len(p.Files) == 0 {
				return nil, fmt.Errorf("at least one file is required")
			}
		} else {
			p.TextInput = f.inputs[fieldText].Value()
			if strings.TrimSpace(p.TextInput) == "" {
				return nil, fmt.Errorf("input text is required")
			}
		}
		return p, nil
	}

	p.Country = strings.TrimSpace(f.inputs[fieldCountry].Value())
	p.City = strings.TrimSpace(f.inputs[fieldCity].Value())

	if t.YearCount >= 1 {
		y, err := f.intField(fieldYear1)
		if err != nil {
			return nil, err
		}
		p.Year1 = y
	}
	if t.YearCount >= 2 {
		y, err := f.intField(fieldYear2)
		if err != nil {
			return nil, err
		}
		p.Year2 = y
	}
	if t.Threshold {
		v, err := f.floatField(fieldThreshold)
		if err != nil {
			return nil, err
		}
		p.Threshold = v
	}
	return p, nil
}

func (f *Form) intField(field int) (*int, error) {
	raw := strings.TrimSpace(f.inputs[field].Value())
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: not a number", fieldLabels[field])
	}
	return model.IntPtr(v), nil
}

func (f *Form) floatField(field int) (*float64, error) {
	raw := strings.TrimSpace(f.inputs[field].Value())
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("%s: not a number", fieldLabels[field])
	}
	return model.FloatPtr(v), nil
}

// View renders the form.
func (f *Form) View() string {
	width := f.width
	if width < 50 {
		width = 50
	}

	var sb strings.Builder
	sb.WriteString(f.theme.PanelTitle.Render("Analyze"))
	sb.WriteString("\n\n")

	t := f.task()
	f.renderSelector(&sb, 0, "Task", t.Label)
	if t.Dataset != "" {
		sb.WriteString(f.theme.EmptyHint.Render("            dataset: " + t.Dataset))
		sb.WriteString("\n")
	}
	if t.ID == model.TaskTopicModeling {
		f.renderSelector(&sb, 1, "Method", strings.ToUpper(topicMethods[f.methodIdx]))
		f.renderSelector(&sb, 2, "Input", topicInputs[f.inputIdx])
	}
	sb.WriteString("\n")

	rows := f.selectorRows()
	for i, field := range f.visibleFields() {
		label := fmt.Sprintf("%-12s", fieldLabels[field])
		if f.focus == rows+i {
			sb.WriteString(f.theme.FieldFocused.Render("> " + label))
		} else {
			sb.WriteString(f.theme.FieldLabel.Render("  " + label))
		}
		sb.WriteString(f.inputs[field].View())
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	switch {
	case f.errMsg != "":
		sb.WriteString(f.theme.FieldError.Render(styles.StatusIndicators.Error + " " + f.errMsg))
	case f.note != "":
		sb.WriteString(styles.RenderSuccess(f.note))
	default:
		sb.WriteString(f.theme.EmptyHint.Render("↑↓ move · ←→ cycle · ctrl+s run"))
	}

	return f.theme.PanelBorder.Width(width - 2).Render(sb.String())
}

func (f *Form) renderSelector(sb *strings.Builder, row int, label, value string) {
	prefix := "  "
	style := f.theme.FieldLabel
	if f.focus == row {
		prefix = "> "
		style = f.theme.FieldFocused
	}
	sb.WriteString(style.Render(prefix + fmt.Sprintf("%-12s", label)))
	sb.WriteString(f.theme.Value.Render("< " + value + " >"))
	sb.WriteString("\n")
}
