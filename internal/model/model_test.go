// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"encoding/json"
	"strings"
	"testing"
)

// =============================================================================
// TASK CATALOG TESTS
// =============================================================================

func TestTasks_Registry(t *testing.T) {
	essential := []string{
		TaskSLRRisk, TaskUrbanComprehensive, TaskInfrastructure, TaskTopicModeling,
	}
	for _, id := range essential {
		if _, ok := Tasks[id]; !ok {
			t.Errorf("Essential task %q missing from catalog", id)
		}
	}
}

func TestTasks_HaveRequiredFields(t *testing.T) {
	for id, task := range Tasks {
		t.Run(id, func(t *testing.T) {
			if task.ID != id {
				t.Errorf("Task.ID = %q, want %q", task.ID, id)
			}
			if task.Label == "" {
				t.Error("Task.Label should not be empty")
			}
			if task.YearCount < 0 || task.YearCount > 2 {
				t.Errorf("Task.YearCount = %d, want 0..2", task.YearCount)
			}
			if task.YearCount > 0 && task.MinYear >= task.MaxYear {
				t.Errorf("Task year range [%d, %d] is not ascending", task.MinYear, task.MaxYear)
			}
		})
	}
}

func TestValidateYear(t *testing.T) {
	tests := []struct {
		name string
		task string
		year int
		want bool
	}{
		{"slr in range", TaskSLRRisk, 2020, true},
		{"slr below range", TaskSLRRisk, 2010, false},
		{"urban upper bound", TaskUrbanComprehensive, 2020, true},
		{"urban above range", TaskUrbanComprehensive, 2021, false},
		{"topic modeling ignores years", TaskTopicModeling, 1900, true},
		{"unknown task ignores years", "nonexistent", 1900, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ValidateYear(tc.task, tc.year); got != tc.want {
				t.Errorf("ValidateYear(%q, %d) = %v, want %v", tc.task, tc.year, got, tc.want)
			}
		})
	}
}

func TestAutoAdjustYear(t *testing.T) {
	tests := []struct {
		name string
		task string
		year int
		want int
	}{
		{"below range clamps up", TaskUrbanArea, 1995, 2001},
		{"above range clamps down", TaskUrbanArea, 2024, 2020},
		{"in range unchanged", TaskUrbanArea, 2015, 2015},
		{"slr keeps valid recent year", TaskSLRRisk, 2024, 2024},
		{"yearless task unchanged", TaskTopicModeling, 1995, 1995},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := AutoAdjustYear(tc.task, tc.year); got != tc.want {
				t.Errorf("AutoAdjustYear(%q, %d) = %d, want %d", tc.task, tc.year, got, tc.want)
			}
		})
	}
}

// =============================================================================
// PARAMETER VALIDATION TESTS
// =============================================================================

func TestAnalysisParameters_Validate(t *testing.T) {
	tests := []struct {
		name    string
		params  *AnalysisParameters
		wantErr bool
	}{
		{
			name: "valid slr",
			params: &AnalysisParameters{
				Provenance: ProvenanceManual,
				Task:       TaskSLRRisk,
				Country:    "Indonesia",
				City:       "Jakarta",
				Year1:      IntPtr(2020),
				Threshold:  FloatPtr(2.0),
			},
		},
		{
			name: "slr missing threshold",
			params: &AnalysisParameters{
				Provenance: ProvenanceManual,
				Task:       TaskSLRRisk,
				Country:    "Indonesia",
				City:       "Jakarta",
				Year1:      IntPtr(2020),
			},
			wantErr: true,
		},
		{
			name: "slr year outside dataset range",
			params: &AnalysisParameters{
				Provenance: ProvenanceManual,
				Task:       TaskSLRRisk,
				Country:    "Indonesia",
				City:       "Jakarta",
				Year1:      IntPtr(2005),
				Threshold:  FloatPtr(2.0),
			},
			wantErr: true,
		},
		{
			name: "comprehensive needs both years",
			params: &AnalysisParameters{
				Provenance: ProvenanceManual,
				Task:       TaskUrbanComprehensive,
				Country:    "Indonesia",
				City:       "Jakarta",
				Year1:      IntPtr(2005),
			},
			wantErr: true,
		},
		{
			name: "threshold out of bounds",
			params: &AnalysisParameters{
				Provenance: ProvenanceManual,
				Task:       TaskInfrastructure,
				Country:    "Indonesia",
				City:       "Jakarta",
				Year1:      IntPtr(2015),
				Threshold:  FloatPtr(7.5),
			},
			wantErr: true,
		},
		{
			name: "valid topic modeling",
			params: &AnalysisParameters{
				Provenance: ProvenanceManual,
				Task:       TaskTopicModeling,
				Method:     "lda",
				InputType:  "text",
			},
		},
		{
			name: "topic modeling bad method",
			params: &AnalysisParameters{
				Provenance: ProvenanceManual,
				Task:       TaskTopicModeling,
				Method:     "kmeans",
				InputType:  "text",
			},
			wantErr: true,
		},
		{
			name: "unknown task",
			params: &AnalysisParameters{
				Provenance: ProvenanceManual,
				Task:       "mystery",
			},
			wantErr: true,
		},
		{
			name: "chat triggered passes untouched",
			params: &AnalysisParameters{
				Provenance: ProvenanceChatTriggered,
				Task:       "sea_level_rise",
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.params.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

// =============================================================================
// MESSAGE TESTS
// =============================================================================

func TestNewUserMessage_Optimistic(t *testing.T) {
	m := NewUserMessage("hello")

	if !m.IsOptimistic() {
		t.Error("new user message should be optimistic")
	}
	if !strings.HasPrefix(m.TempID, "user-") {
		t.Errorf("TempID = %q, want user- prefix", m.TempID)
	}
	if m.Sender != SenderUser {
		t.Errorf("Sender = %q, want %q", m.Sender, SenderUser)
	}
}

func TestNewErrorMessage_DistinctNamespace(t *testing.T) {
	m := NewErrorMessage()

	if m.Sender != SenderAI {
		t.Errorf("Sender = %q, want %q", m.Sender, SenderAI)
	}
	if !strings.HasPrefix(m.TempID, "ai-error-") {
		t.Errorf("TempID = %q, want ai-error- prefix", m.TempID)
	}
	if !strings.Contains(m.Content, "[AI Error]") {
		t.Errorf("Content = %q, want [AI Error] marker", m.Content)
	}
}

func TestMessage_Key(t *testing.T) {
	confirmed := Message{ID: 42}
	if confirmed.Key() != "msg-42" {
		t.Errorf("Key() = %q, want msg-42", confirmed.Key())
	}

	optimistic := NewUserMessage("x")
	if optimistic.Key() != optimistic.TempID {
		t.Errorf("optimistic Key() = %q, want %q", optimistic.Key(), optimistic.TempID)
	}
}

func TestTitleFromContent(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"short content", "Analyze Jakarta", "Analyze Jakarta"},
		{"empty content", "   ", "New Chat"},
		{"long content truncated", strings.Repeat("a", 40), strings.Repeat("a", 30) + "..."},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := TitleFromContent(tc.content); got != tc.want {
				t.Errorf("TitleFromContent(%q) = %q, want %q", tc.content, got, tc.want)
			}
		})
	}
}

// =============================================================================
// PARAM BAG TESTS
// =============================================================================

func TestParamBag_TolerantLookups(t *testing.T) {
	raw := json.RawMessage(`{
		"country": "Indonesia",
		"year1": 2015,
		"year2": "2020",
		"threshold": "1.5",
		"files": ["a.txt", "b.txt"]
	}`)
	bag := DecodeParamBag(raw)

	if v, ok := bag.String("country"); !ok || v != "Indonesia" {
		t.Errorf("String(country) = %q, %v", v, ok)
	}
	if v, ok := bag.Int("year1"); !ok || v != 2015 {
		t.Errorf("Int(year1) = %d, %v", v, ok)
	}
	if v, ok := bag.Int("year2"); !ok || v != 2020 {
		t.Errorf("Int(year2) string coercion = %d, %v", v, ok)
	}
	if v, ok := bag.Float("threshold"); !ok || v != 1.5 {
		t.Errorf("Float(threshold) string coercion = %v, %v", v, ok)
	}
	if v, ok := bag.Strings("files"); !ok || len(v) != 2 {
		t.Errorf("Strings(files) = %v, %v", v, ok)
	}
	if _, ok := bag.String("missing"); ok {
		t.Error("String(missing) should report absent")
	}
}

func TestDecodeParamBag_Malformed(t *testing.T) {
	for _, raw := range []json.RawMessage{nil, json.RawMessage(`not json`), json.RawMessage(`null`)} {
		bag := DecodeParamBag(raw)
		if bag == nil {
			t.Errorf("DecodeParamBag(%q) returned nil bag", raw)
		}
		if _, ok := bag.String("anything"); ok {
			t.Errorf("DecodeParamBag(%q) should yield empty bag", raw)
		}
	}
}

func TestAnalysisParameters_MapUpdate(t *testing.T) {
	p := &AnalysisParameters{
		Provenance: ProvenanceChatTriggered,
		Updates: []DashboardUpdate{
			{Type: "mystery_type"},
			{Type: UpdateMapUpdate, Data: &MapUpdateData{ImageURL: "https://x/overlay.png"}},
		},
	}

	mu := p.MapUpdate()
	if mu == nil || mu.ImageURL != "https://x/overlay.png" {
		t.Errorf("MapUpdate() = %+v, want overlay entry", mu)
	}

	empty := &AnalysisParameters{Provenance: ProvenanceManual}
	if empty.MapUpdate() != nil {
		t.Error("MapUpdate() on manual record should be nil")
	}
}

func TestAnalysisParameters_Identity(t *testing.T) {
	a := &AnalysisParameters{Task: TaskSLRRisk, City: "Jakarta", Year1: IntPtr(2020)}
	b := &AnalysisParameters{Task: TaskSLRRisk, City: "Jakarta", Year1: IntPtr(2020)}
	c := &AnalysisParameters{Task: TaskSLRRisk, City: "Jakarta", Year1: IntPtr(2021)}

	if a.Identity() != b.Identity() {
		t.Error("identical parameters should share an identity")
	}
	if a.Identity() == c.Identity() {
		t.Error("differing parameters should have distinct identities")
	}
	var nilParams *AnalysisParameters
	if nilParams.Identity() != "" {
		t.Error("nil parameters should have empty identity")
	}
}
