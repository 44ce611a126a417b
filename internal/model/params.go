// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"encoding/json"
	"strconv"
)

// =============================================================================
// ANALYSIS PARAMETERS
// =============================================================================

// Provenance tags where an AnalysisParameters value came from.
type Provenance string

const (
	// ProvenanceManual marks parameters assembled by the manual analysis
	// form or fully resolved from an assistant reply. All fields needed by
	// the chart, exposure, and topic panels are populated here.
	ProvenanceManual Provenance = "manual"

	// ProvenanceChatTriggered marks a pass-through record that carries the
	// raw dashboard updates for panels that consume them directly, such as
	// the map panel.
	ProvenanceChatTriggered Provenance = "chat_triggered"
)

// DefaultMapOption is the single map style the backend supports.
const DefaultMapOption = "OpenStreetMap"

// Topic-modeling defaults applied when the assistant omits a field.
const (
	DefaultTopicMethod = "lda"
	DefaultNTopics     = 10
	DefaultMinDf       = 2.0
	DefaultMaxDf       = 0.95
	DefaultNgramRange  = "1,1"
	DefaultTopicInput  = "text"
)

// AnalysisParameters is the canonical "what to analyze and how" record.
//
// Exactly one value is current at a time; a new value replaces the old one
// wholesale and every panel re-derives from scratch. Optional fields use
// pointers so that "absent" and "zero" stay distinct; panels treat absence
// as not yet configured.
type AnalysisParameters struct {
	Provenance Provenance

	// Task is the canonical task identifier (see catalog.go). For
	// chat-triggered records this is the analysis type instead.
	Task string

	Country string
	City    string

	Year1     *int
	Year2     *int
	Threshold *float64

	MapOption string

	// Topic-modeling fields, populated only for the topic-modeling task.
	Method     string
	NTopics    *int
	MinDf      *float64
	MaxDf      *float64
	NgramRange string
	InputType  string
	TextInput  string
	Files      []string

	// Updates carries the raw dashboard_updates slice unchanged for
	// chat-triggered provenance.
	Updates []DashboardUpdate
}

// Identity returns a comparable fingerprint of the parameters. Panels key
// in-flight fetches to the identity current at dispatch time and discard
// results whose identity no longer matches.
func (p *AnalysisParameters) Identity() string {
	if p == nil {
		return ""
	}
	b, err := json.Marshal(struct {
		Provenance Provenance
		Task       string
		Country    string
		City       string
		Year1      *int
		Year2      *int
		Threshold  *float64
		Method     string
		NTopics    *int
		TextInput  string
		Files      []string
		NumUpdates int
	}{
		p.Provenance, p.Task, p.Country, p.City,
		p.Year1, p.Year2, p.Threshold,
		p.Method, p.NTopics, p.TextInput, p.Files,
		len(p.Updates),
	})
	if err != nil {
		return "unidentified"
	}
	return string(b)
}

// MapUpdate returns the first map_update entry of a chat-triggered record,
// or nil when none is present.
func (p *AnalysisParameters) MapUpdate() *MapUpdateData {
	if p == nil {
		return nil
	}
	for _, u := range p.Updates {
		if u.Type == UpdateMapUpdate && u.Data != nil {
			return u.Data
		}
	}
	return nil
}

// IntPtr, FloatPtr are small helpers for building optional fields.
func IntPtr(v int) *int { return &v }

func FloatPtr(v float64) *float64 { return &v }

// =============================================================================
// RAW PARAMETER BAG
// =============================================================================

// ParamBag is a tolerant view over a backend-shaped parameter object.
// Backend payloads are loosely typed: numbers arrive as JSON numbers or as
// strings, and any field may be missing. Lookups never fail hard.
type ParamBag map[string]any

// DecodeParamBag parses a raw JSON object into a ParamBag. A missing or
// malformed payload yields an empty bag, never an error.
func DecodeParamBag(raw json.RawMessage) ParamBag {
	if len(raw) == 0 {
		return ParamBag{}
	}
	var bag ParamBag
	if err := json.Unmarshal(raw, &bag); err != nil {
		return ParamBag{}
	}
	if bag == nil {
		return ParamBag{}
	}
	return bag
}

// String returns the string value for key, or ok=false when absent.
func (b ParamBag) String(key string) (string, bool) {
	v, ok := b[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// Int returns the integer value for key, accepting numbers and numeric
// strings.
func (b ParamBag) Int(key string) (int, bool) {
	v, ok := b[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return int(n), true
	case string:
		parsed, err := strconv.Atoi(n)
		if err != nil {
			return 0, false
		}
		return parsed, true
	}
	return 0, false
}

// Float returns the float value for key, accepting numbers and numeric
// strings.
func (b ParamBag) Float(key string) (float64, bool) {
	v, ok := b[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case string:
		parsed, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	}
	return 0, false
}

// Strings returns the string-slice value for key.
func (b ParamBag) Strings(key string) ([]string, bool) {
	v, ok := b[key]
	if !ok {
		return nil, false
	}
	items, ok := v.([]any)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out, true
}
