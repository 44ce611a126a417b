// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package analysis

import (
	"encoding/json"
	"testing"

	"github.com/jeranaias/dataground-tui/internal/model"
)

// =============================================================================
// NORMALIZER TESTS
// =============================================================================

func TestNormalize_RedirectToManual(t *testing.T) {
	msg := model.Message{
		Sender:           model.SenderAI,
		RedirectToManual: true,
		ManualAnalysisParams: json.RawMessage(`{
			"task": "infrastructure_analysis",
			"country": "Indonesia",
			"city": "Jakarta",
			"year1": 2015,
			"threshold": 1.5
		}`),
	}

	p := Normalize(msg)
	if p == nil {
		t.Fatal("Normalize() = nil, want parameters")
	}
	if p.Provenance != model.ProvenanceManual {
		t.Errorf("Provenance = %q, want manual", p.Provenance)
	}
	if p.Task != model.TaskInfrastructure {
		t.Errorf("Task = %q, want %q", p.Task, model.TaskInfrastructure)
	}
	if p.Country != "Indonesia" || p.City != "Jakarta" {
		t.Errorf("location = %q/%q, want Indonesia/Jakarta", p.Country, p.City)
	}
	if p.Year1 == nil || *p.Year1 != 2015 {
		t.Errorf("Year1 = %v, want 2015", p.Year1)
	}
	if p.Year2 != nil {
		t.Errorf("Year2 = %v, want absent for single-year task", *p.Year2)
	}
	if p.Threshold == nil || *p.Threshold != 1.5 {
		t.Errorf("Threshold = %v, want 1.5", p.Threshold)
	}
	if p.MapOption != model.DefaultMapOption {
		t.Errorf("MapOption = %q, want fixed default", p.MapOption)
	}
}

func TestNormalize_AutoExecute_UrbanCarriesYear2(t *testing.T) {
	msg := model.Message{
		Sender: model.SenderAI,
		DashboardUpdates: []model.DashboardUpdate{
			{
				Type:         model.UpdateAnalysisTriggered,
				AnalysisType: "urban_analysis",
				AutoExecute:  true,
				Params: json.RawMessage(`{
					"country": "Indonesia",
					"city": "Jakarta",
					"year1": 2005,
					"year2": 2015,
					"threshold": 2.0
				}`),
			},
		},
	}

	p := Normalize(msg)
	if p == nil {
		t.Fatal("Normalize() = nil, want parameters")
	}
	if p.Task != model.TaskUrbanComprehensive {
		t.Errorf("Task = %q, want %q", p.Task, model.TaskUrbanComprehensive)
	}
	if p.Year2 == nil || *p.Year2 != 2015 {
		t.Errorf("Year2 = %v, want 2015", p.Year2)
	}
	if p.Threshold == nil || *p.Threshold != 2.0 {
		t.Errorf("Threshold = %v, want 2.0 (urban carries threshold)", p.Threshold)
	}
}

func TestNormalize_SeaLevelRise_NoYear2(t *testing.T) {
	msg := model.Message{
		Sender:           model.SenderAI,
		RedirectToManual: true,
		ManualAnalysisParams: json.RawMessage(`{
			"task": "sea_level_rise",
			"city": "Jakarta",
			"year1": 2020,
			"year2": 2024,
			"threshold": 2.0
		}`),
	}

	p := Normalize(msg)
	if p == nil {
		t.Fatal("Normalize() = nil, want parameters")
	}
	if p.Task != model.TaskSLRRisk {
		t.Errorf("Task = %q, want %q", p.Task, model.TaskSLRRisk)
	}
	if p.Year2 != nil {
		t.Errorf("Year2 = %v, want dropped for sea_level_rise", *p.Year2)
	}
}

func TestNormalize_TopicModeling_Defaults(t *testing.T) {
	msg := model.Message{
		Sender:           model.SenderAI,
		RedirectToManual: true,
		ManualAnalysisParams: json.RawMessage(`{
			"task": "topic_modeling"
		}`),
	}

	p := Normalize(msg)
	if p == nil {
		t.Fatal("Normalize() = nil, want parameters")
	}
	if p.Task != model.TaskTopicModeling {
		t.Errorf("Task = %q, want %q", p.Task, model.TaskTopicModeling)
	}
	if p.Method != "lda" {
		t.Errorf("Method = %q, want lda default", p.Method)
	}
	if p.NTopics == nil || *p.NTopics != 10 {
		t.Errorf("NTopics = %v, want 10 for lda", p.NTopics)
	}
	if p.MinDf == nil || *p.MinDf != 2.0 {
		t.Errorf("MinDf = %v, want 2.0", p.MinDf)
	}
	if p.MaxDf == nil || *p.MaxDf != 0.95 {
		t.Errorf("MaxDf = %v, want 0.95", p.MaxDf)
	}
	if p.NgramRange != "1,1" {
		t.Errorf("NgramRange = %q, want 1,1", p.NgramRange)
	}
	if p.InputType != "text" || p.TextInput != "" {
		t.Errorf("input = %q/%q, want text/empty", p.InputType, p.TextInput)
	}
	if p.Files == nil || len(p.Files) != 0 {
		t.Errorf("Files = %v, want empty slice", p.Files)
	}
}

func TestNormalize_TopicModeling_BertopicDropsNTopics(t *testing.T) {
	msg := model.Message{
		Sender:           model.SenderAI,
		RedirectToManual: true,
		ManualAnalysisParams: json.RawMessage(`{
			"task": "topic_modeling",
			"method": "bertopic",
			"nTopics": 5
		}`),
	}

	p := Normalize(msg)
	if p == nil {
		t.Fatal("Normalize() = nil, want parameters")
	}
	if p.Method != "bertopic" {
		t.Errorf("Method = %q, want bertopic", p.Method)
	}
	if p.NTopics != nil {
		t.Errorf("NTopics = %v, want absent for bertopic", *p.NTopics)
	}
}

func TestNormalize_ChatTriggered_PassThrough(t *testing.T) {
	updates := []model.DashboardUpdate{
		{
			Type: model.UpdateMapUpdate,
			Data: &model.MapUpdateData{
				ImageURL: "https://backend/overlay.png",
				Center:   []float64{106.83, -6.22},
				BBox:     []float64{106.689, -6.365, 106.971, -6.089},
			},
		},
	}
	msg := model.Message{
		Sender:           model.SenderAI,
		AnalysisType:     "sea_level_rise",
		DashboardUpdates: updates,
	}

	p := Normalize(msg)
	if p == nil {
		t.Fatal("Normalize() = nil, want chat-triggered parameters")
	}
	if p.Provenance != model.ProvenanceChatTriggered {
		t.Errorf("Provenance = %q, want chat_triggered", p.Provenance)
	}
	if p.Task != "sea_level_rise" {
		t.Errorf("Task = %q, want raw analysis type", p.Task)
	}
	if len(p.Updates) != 1 || p.Updates[0].Data.ImageURL != "https://backend/overlay.png" {
		t.Error("raw updates should be preserved unchanged")
	}
}

func TestNormalize_ChatTriggered_DefaultAnalysisType(t *testing.T) {
	msg := model.Message{
		Sender: model.SenderAI,
		DashboardUpdates: []model.DashboardUpdate{
			{Type: model.UpdateMapUpdate, Data: &model.MapUpdateData{ImageURL: "x"}},
		},
	}

	p := Normalize(msg)
	if p == nil {
		t.Fatal("Normalize() = nil, want chat-triggered parameters")
	}
	if p.Task != DefaultAnalysisType {
		t.Errorf("Task = %q, want fallback %q", p.Task, DefaultAnalysisType)
	}
}

func TestNormalize_PriorityOrder(t *testing.T) {
	// redirect_to_manual wins over an auto-execute entry on the same reply.
	msg := model.Message{
		Sender:           model.SenderAI,
		RedirectToManual: true,
		ManualAnalysisParams: json.RawMessage(`{"task": "sea_level_rise", "year1": 2020, "threshold": 1.0}`),
		DashboardUpdates: []model.DashboardUpdate{
			{
				Type:         model.UpdateAnalysisTriggered,
				AnalysisType: "urban_analysis",
				AutoExecute:  true,
				Params:       json.RawMessage(`{"year1": 2001, "year2": 2020}`),
			},
		},
	}

	p := Normalize(msg)
	if p == nil {
		t.Fatal("Normalize() = nil, want parameters")
	}
	if p.Task != model.TaskSLRRisk {
		t.Errorf("Task = %q, want redirect path to win", p.Task)
	}
}

func TestNormalize_UnknownUpdateTypesIgnored(t *testing.T) {
	msg := model.Message{
		Sender: model.SenderAI,
		DashboardUpdates: []model.DashboardUpdate{
			{Type: "hologram_update"},
			{Type: model.UpdateAnalysisTriggered, AnalysisType: "urban_analysis", AutoExecute: true,
				Params: json.RawMessage(`{"year1": 2001, "year2": 2020}`)},
		},
	}

	p := Normalize(msg)
	if p == nil {
		t.Fatal("Normalize() = nil, want auto-execute result")
	}
	if p.Task != model.TaskUrbanComprehensive {
		t.Errorf("Task = %q, unknown entries should be skipped", p.Task)
	}
}

func TestNormalize_Conversational(t *testing.T) {
	msg := model.Message{Sender: model.SenderAI, Content: "The sea level is rising."}
	if p := Normalize(msg); p != nil {
		t.Errorf("Normalize() = %+v, want nil for plain reply", p)
	}
}

func TestNormalize_MalformedParamsDoNotCrash(t *testing.T) {
	tests := []struct {
		name string
		msg  model.Message
	}{
		{
			name: "redirect with garbage params",
			msg: model.Message{
				RedirectToManual:     true,
				ManualAnalysisParams: json.RawMessage(`{{{`),
			},
		},
		{
			name: "redirect with unknown task",
			msg: model.Message{
				RedirectToManual:     true,
				ManualAnalysisParams: json.RawMessage(`{"task": "weather_forecast"}`),
			},
		},
		{
			name: "auto execute with nil params",
			msg: model.Message{
				DashboardUpdates: []model.DashboardUpdate{
					{Type: model.UpdateAnalysisTriggered, AutoExecute: true},
				},
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			// Must not panic; falling through to the chat-triggered shape
			// (or nil) is acceptable.
			p := Normalize(tc.msg)
			if p != nil && p.Provenance == model.ProvenanceManual {
				if _, ok := model.GetTask(p.Task); !ok {
					t.Errorf("manual record carries unknown task %q", p.Task)
				}
			}
		})
	}
}

func TestNormalize_PartialParamsOmitFields(t *testing.T) {
	msg := model.Message{
		Sender:           model.SenderAI,
		RedirectToManual: true,
		ManualAnalysisParams: json.RawMessage(`{"task": "sea_level_rise", "city": "Jakarta"}`),
	}

	p := Normalize(msg)
	if p == nil {
		t.Fatal("Normalize() = nil, want partial parameters")
	}
	if p.Year1 != nil || p.Threshold != nil {
		t.Error("missing source fields should stay absent, not default")
	}
	if p.City != "Jakarta" || p.Country != "" {
		t.Errorf("City/Country = %q/%q, want Jakarta/empty", p.City, p.Country)
	}
}

// =============================================================================
// BOUNDING BOX TESTS
// =============================================================================

func TestCalculateStandardBbox_BufferTable(t *testing.T) {
	tasks := []string{
		model.TaskSLRRisk, "sea_level_rise", model.TaskUrbanArea,
		model.TaskUrbanComprehensive, model.TaskInfrastructure,
		model.TaskTopicModeling, "some-unlisted-task",
	}

	for _, task := range tasks {
		t.Run(task, func(t *testing.T) {
			buffer := StandardBuffer(task)
			box := CalculateStandardBbox(-6.2, 106.8, task)
			if got := box.MaxLat - box.MinLat; got != 2*buffer {
				t.Errorf("lat width = %v, want %v", got, 2*buffer)
			}
			if got := box.MaxLng - box.MinLng; got != 2*buffer {
				t.Errorf("lng width = %v, want %v", got, 2*buffer)
			}
		})
	}

	if StandardBuffer("some-unlisted-task") != DefaultBuffer {
		t.Errorf("unlisted task buffer = %v, want default %v",
			StandardBuffer("some-unlisted-task"), DefaultBuffer)
	}
}

func TestBBox_Center(t *testing.T) {
	lat, lng := JakartaBounds.Center()
	if lat > -6.0 || lat < -6.4 {
		t.Errorf("center lat = %v, want inside Jakarta", lat)
	}
	if lng < 106.6 || lng > 107.0 {
		t.Errorf("center lng = %v, want inside Jakarta", lng)
	}
}
