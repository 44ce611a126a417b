// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package panels

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/dataground-tui/internal/analysis"
	"github.com/jeranaias/dataground-tui/internal/api"
	"github.com/jeranaias/dataground-tui/internal/model"
	"github.com/jeranaias/dataground-tui/internal/params"
	"github.com/jeranaias/dataground-tui/internal/ui/styles"
)

func testClient() *api.Client {
	c := api.NewClient("http://127.0.0.1:0")
	c.SetToken("test-token")
	return c
}

func testTheme() *styles.Theme {
	return styles.NewTheme("dark")
}

func manualParams(task string) *model.AnalysisParameters {
	return &model.AnalysisParameters{
		Provenance: model.ProvenanceManual,
		Task:       task,
		Country:    "Indonesia",
		City:       "Jakarta",
		Year1:      model.IntPtr(2020),
		Threshold:  model.FloatPtr(2.0),
		MapOption:  model.DefaultMapOption,
	}
}

// ===== MAP PANEL =====

func TestMapPanelConsumesChatMapUpdate(t *testing.T) {
	p := NewMapPanel(testClient(), testTheme())

	ap := &model.AnalysisParameters{
		Provenance: model.ProvenanceChatTriggered,
		Task:       "sea_level_rise",
		Updates: []model.DashboardUpdate{{
			Type: model.UpdateMapUpdate,
			Data: &model.MapUpdateData{
				ImageURL: "https://example.com/map.png",
				BBox:     []float64{106.689, -6.365, 106.971, -6.089},
			},
		}},
	}
	p, cmd := p.Update(params.ChangedMsg{Params: ap, Generation: 1})
	if cmd != nil {
		t.Error("chat map updates should apply without a fetch")
	}
	if p.imageURL != "https://example.com/map.png" {
		t.Errorf("imageURL = %q", p.imageURL)
	}
	if p.bbox == nil || p.bbox.MinLat != -6.365 || p.bbox.MinLng != 106.689 {
		t.Errorf("bbox should reorder backend (lng, lat) pairs, got %+v", p.bbox)
	}
}

func TestMapPanelResetsBeforeFetch(t *testing.T) {
	p := NewMapPanel(testClient(), testTheme())
	p.imageURL = "https://example.com/old.png"
	p.errMsg = "old failure"

	p, cmd := p.Update(params.ChangedMsg{Params: manualParams(model.TaskSLRRisk)})
	if cmd == nil {
		t.Fatal("manual map task should dispatch a fetch")
	}
	if p.imageURL != "" || p.errMsg != "" {
		t.Error("derived state should reset when new parameters arrive")
	}
	if !p.loading {
		t.Error("panel should report loading during the fetch")
	}
}

func TestMapPanelIgnoresUnrelatedTask(t *testing.T) {
	p := NewMapPanel(testClient(), testTheme())
	p.imageURL = "https://example.com/old.png"

	p, cmd := p.Update(params.ChangedMsg{Params: manualParams(model.TaskTopicModeling)})
	if cmd != nil {
		t.Error("topic modeling should not trigger a map fetch")
	}
	if p.imageURL != "" {
		t.Error("an unrelated task still clears the previous overlay")
	}
}

func TestMapPanelDiscardsStaleResult(t *testing.T) {
	p := NewMapPanel(testClient(), testTheme())
	p, _ = p.Update(params.ChangedMsg{Params: manualParams(model.TaskSLRRisk)})
	first := p.pending

	second := manualParams(model.TaskSLRRisk)
	second.City = "Surabaya"
	p, _ = p.Update(params.ChangedMsg{Params: second})

	p, _ = p.Update(mapResultMsg{identity: first, url: "https://example.com/stale.png"})
	if p.imageURL != "" {
		t.Error("result for superseded parameters should be dropped")
	}
	if !p.loading {
		t.Error("the newer fetch should still be pending")
	}

	bbox := analysis.JakartaBounds
	p, _ = p.Update(mapResultMsg{identity: p.pending, url: "https://example.com/fresh.png", bbox: &bbox})
	if p.imageURL != "https://example.com/fresh.png" {
		t.Error("result for current parameters should apply")
	}
}

// ===== URBAN PANEL =====

func TestUrbanPanelRejectsInvertedYearRange(t *testing.T) {
	p := NewUrbanPanel(testClient(), testTheme())

	ap := manualParams(model.TaskUrbanComprehensive)
	ap.Year1 = model.IntPtr(2020)
	ap.Year2 = model.IntPtr(2010)
	p, cmd := p.Update(params.ChangedMsg{Params: ap})
	if cmd != nil {
		t.Error("an inverted year range should not dispatch a fetch")
	}
	if p.errMsg == "" {
		t.Error("an inverted year range should surface an explicit error")
	}
}

func TestUrbanPanelAcceptsSingleYearRange(t *testing.T) {
	p := NewUrbanPanel(testClient(), testTheme())

	ap := manualParams(model.TaskUrbanComprehensive)
	ap.Year1 = model.IntPtr(2015)
	ap.Year2 = model.IntPtr(2015)
	p, cmd := p.Update(params.ChangedMsg{Params: ap})
	if cmd == nil {
		t.Fatal("an equal start and end year is a valid range and should fetch")
	}
	if p.errMsg != "" {
		t.Errorf("unexpected error for an equal-year range: %q", p.errMsg)
	}
}

func TestUrbanPanelRequiresBothYears(t *testing.T) {
	p := NewUrbanPanel(testClient(), testTheme())

	ap := manualParams(model.TaskUrbanComprehensive)
	ap.Year2 = nil
	p, cmd := p.Update(params.ChangedMsg{Params: ap})
	if cmd != nil || p.errMsg == "" {
		t.Error("a missing end year should error, not fetch")
	}
}

func TestUrbanPanelFetchesValidRange(t *testing.T) {
	p := NewUrbanPanel(testClient(), testTheme())

	ap := manualParams(model.TaskUrbanComprehensive)
	ap.Year1 = model.IntPtr(2001)
	ap.Year2 = model.IntPtr(2020)
	p, cmd := p.Update(params.ChangedMsg{Params: ap})
	if cmd == nil {
		t.Fatal("a valid range should dispatch a fetch")
	}

	stats := &api.ComprehensiveStats{
		Years:      []int{2001, 2020},
		UrbanAreas: []float64{100, 250},
	}
	p, _ = p.Update(urbanResultMsg{identity: p.pending, stats: stats})
	if p.stats == nil || len(p.stats.Years) != 2 {
		t.Error("result for current parameters should apply")
	}
}

func TestUrbanPanelIgnoresSingleYearTask(t *testing.T) {
	p := NewUrbanPanel(testClient(), testTheme())
	p.stats = &api.ComprehensiveStats{}

	p, cmd := p.Update(params.ChangedMsg{Params: manualParams(model.TaskSLRRisk)})
	if cmd != nil {
		t.Error("single-year tasks should not reach the comprehensive endpoint")
	}
	if p.stats != nil {
		t.Error("previous statistics should clear on any parameter change")
	}
}

// ===== INFRASTRUCTURE PANEL =====

func TestInfraPanelNeedsFullConfiguration(t *testing.T) {
	p := NewInfraPanel(testClient(), params.NewStore(), testTheme())

	ap := manualParams(model.TaskInfrastructure)
	ap.Threshold = nil
	p, cmd := p.Update(params.ChangedMsg{Params: ap})
	if cmd != nil {
		t.Error("missing threshold should not dispatch a fetch")
	}
	if p.hint == "" {
		t.Error("missing configuration should show a hint")
	}
}

func TestInfraPanelYearOverrideClampsToRange(t *testing.T) {
	p := NewInfraPanel(testClient(), params.NewStore(), testTheme())
	ap := manualParams(model.TaskInfrastructure)
	ap.Year1 = model.IntPtr(2020)
	p, _ = p.Update(params.ChangedMsg{Params: ap})

	p, _ = p.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'+'}})
	if p.currentYear() != 2020 {
		t.Errorf("override should clamp at the dataset maximum, got %d", p.currentYear())
	}

	p, _ = p.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'-'}})
	if p.currentYear() != 2019 {
		t.Errorf("override should step down, got %d", p.currentYear())
	}
}

func TestInfraPanelSyncPublishesOverride(t *testing.T) {
	store := params.NewStore()
	p := NewInfraPanel(testClient(), store, testTheme())

	ap := manualParams(model.TaskInfrastructure)
	ap.Year1 = model.IntPtr(2015)
	store.Set(ap)
	p, _ = p.Update(params.ChangedMsg{Params: ap})

	p, _ = p.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'-'}})
	p, cmd := p.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'s'}})
	if cmd == nil {
		t.Fatal("sync should announce the new parameters")
	}

	changed, ok := cmd().(params.ChangedMsg)
	if !ok {
		t.Fatalf("expected params.ChangedMsg, got %T", cmd())
	}
	if changed.Params.Year1 == nil || *changed.Params.Year1 != 2014 {
		t.Errorf("published year = %v, want 2014", changed.Params.Year1)
	}
	if cur := store.Current(); cur.Year1 == nil || *cur.Year1 != 2014 {
		t.Error("store should hold the synced year")
	}
	if cur := store.Current(); cur == ap {
		t.Error("sync must publish a copy, not mutate the old record")
	}
}

// ===== TOPIC PANEL =====

func topicParams() *model.AnalysisParameters {
	return &model.AnalysisParameters{
		Provenance: model.ProvenanceManual,
		Task:       model.TaskTopicModeling,
		Method:     model.DefaultTopicMethod,
		NTopics:    model.IntPtr(5),
		InputType:  model.DefaultTopicInput,
		TextInput:  "flooding in coastal cities displaces residents",
	}
}

func TestTopicPanelSuppressesDuplicateRun(t *testing.T) {
	p := NewTopicPanel(testClient(), testTheme())

	ap := topicParams()
	p, cmd := p.Update(params.ChangedMsg{Params: ap})
	if cmd == nil {
		t.Fatal("first run should dispatch")
	}

	p, cmd = p.Update(params.ChangedMsg{Params: ap})
	if cmd != nil {
		t.Error("identical parameters while running should not dispatch again")
	}
	if !p.running {
		t.Error("the original run should still be in flight")
	}
}

func TestTopicPanelDistinguishesEmptyFromError(t *testing.T) {
	p := NewTopicPanel(testClient(), testTheme())
	p, _ = p.Update(params.ChangedMsg{Params: topicParams()})

	p, _ = p.Update(topicResultMsg{
		identity: p.pending,
		result:   &api.TopicResult{Message: "No meaningful topics found in the input."},
	})
	if p.errMsg != "" {
		t.Error("a successful empty result is not an error")
	}
	if p.emptyNote == "" {
		t.Error("the backend's message should be surfaced")
	}
}

func TestTopicPanelRequiresInput(t *testing.T) {
	p := NewTopicPanel(testClient(), testTheme())

	ap := topicParams()
	ap.TextInput = "   "
	p, cmd := p.Update(params.ChangedMsg{Params: ap})
	if cmd != nil || p.errMsg == "" {
		t.Error("blank text input should error locally without a network call")
	}
}

// ===== MANUAL FORM =====

func defaultForm(store *params.Store) *Form {
	return NewForm(store, testTheme(), FormDefaults{
		Country:   "Indonesia",
		City:      "Jakarta",
		Task:      model.TaskSLRRisk,
		Threshold: 2.0,
	})
}

func TestFormSubmitPublishesCompleteRecord(t *testing.T) {
	store := params.NewStore()
	f := defaultForm(store)
	f.inputs[fieldYear1].SetValue("2020")

	cmd := f.submit()
	if cmd == nil {
		t.Fatalf("valid form should publish, error: %s", f.errMsg)
	}

	changed, ok := cmd().(params.ChangedMsg)
	if !ok {
		t.Fatalf("expected params.ChangedMsg, got %T", cmd())
	}
	p := changed.Params
	if p.Provenance != model.ProvenanceManual || p.Task != model.TaskSLRRisk {
		t.Errorf("unexpected record: %+v", p)
	}
	if p.Country != "Indonesia" || p.City != "Jakarta" {
		t.Error("defaults should flow into the record")
	}
	if p.Year1 == nil || *p.Year1 != 2020 {
		t.Error("year should parse into the record")
	}
	if p.Threshold == nil || *p.Threshold != 2.0 {
		t.Error("threshold should parse into the record")
	}
	if p.MapOption != model.DefaultMapOption {
		t.Errorf("map option = %q, want %q", p.MapOption, model.DefaultMapOption)
	}
	if store.Current() != p {
		t.Error("store should hold the published record")
	}
}

func TestFormRejectsOutOfRangeYear(t *testing.T) {
	f := defaultForm(params.NewStore())
	f.inputs[fieldYear1].SetValue("1990")

	if cmd := f.submit(); cmd != nil {
		t.Error("out-of-range year should fail validation")
	}
	if f.errMsg == "" {
		t.Error("validation failure should surface an error")
	}
}

func TestFormTaskSwitchClampsYears(t *testing.T) {
	f := defaultForm(params.NewStore())
	f.inputs[fieldYear1].SetValue("2024")

	// slr-risk -> urban-area, whose dataset ends in 2020.
	f.cycle(0, true)
	if got := f.task().ID; got != model.TaskUrbanArea {
		t.Fatalf("task after cycle = %q", got)
	}
	if got := f.inputs[fieldYear1].Value(); got != "2020" {
		t.Errorf("year should clamp to the new dataset range, got %q", got)
	}
}

func TestFormTopicFieldsVisibleOnlyForTopicTask(t *testing.T) {
	f := defaultForm(params.NewStore())
	for _, field := range f.visibleFields() {
		if field == fieldNTopics || field == fieldText {
			t.Error("topic fields should be hidden for geospatial tasks")
		}
	}

	for f.task().ID != model.TaskTopicModeling {
		f.cycle(0, true)
	}
	seen := map[int]bool{}
	for _, field := range f.visibleFields() {
		seen[field] = true
	}
	if !seen[fieldNTopics] || !seen[fieldText] {
		t.Error("topic task should expose topic fields")
	}
	if seen[fieldCountry] {
		t.Error("topic task has no geography fields")
	}
}
