// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package analysis

import "github.com/jeranaias/dataground-tui/internal/model"

// =============================================================================
// BACKEND TASK MAPPING
// =============================================================================

// Backend analysis type identifiers as they appear in assistant payloads.
const (
	SourceSeaLevelRise   = "sea_level_rise"
	SourceUrbanAnalysis  = "urban_analysis"
	SourceInfrastructure = "infrastructure_analysis"
	SourceTopicModeling  = "topic_modeling"
)

// DefaultAnalysisType is the fallback analysis type for chat-triggered
// records whose payload omits one.
const DefaultAnalysisType = SourceSeaLevelRise

// taskMap translates backend analysis types to canonical task identifiers.
var taskMap = map[string]string{
	SourceSeaLevelRise:   model.TaskSLRRisk,
	SourceUrbanAnalysis:  model.TaskUrbanComprehensive,
	SourceInfrastructure: model.TaskInfrastructure,
	SourceTopicModeling:  model.TaskTopicModeling,
}

// thresholdTasks lists the backend analysis types whose parameters carry a
// sea-level threshold.
var thresholdTasks = map[string]bool{
	SourceSeaLevelRise:   true,
	SourceInfrastructure: true,
	SourceUrbanAnalysis:  true,
}

// MapTask returns the canonical task for a backend analysis type.
func MapTask(analysisType string) (string, bool) {
	task, ok := taskMap[analysisType]
	return task, ok
}

// =============================================================================
// NORMALIZER
// =============================================================================

// Normalize converts an assistant message into canonical analysis
// parameters, or nil when the message is purely conversational.
//
// Three payload shapes are recognized, checked in priority order when more
// than one is present on a single message:
//
//  1. redirect_to_manual with manual_analysis_params: a direct handoff to
//     the manual analysis flow, fully resolved here.
//  2. a dashboard_updates entry with type analysis_triggered and
//     auto_execute set: the auto-execute path, resolved the same way.
//  3. dashboard_updates present with no auto-execute entry: a pass-through
//     chat-triggered record carrying the raw updates for panels that
//     consume them directly.
//
// Malformed or partial payloads never fail: missing fields are omitted from
// the result and downstream panels treat absence as not yet configured.
func Normalize(msg model.Message) *model.AnalysisParameters {
	if msg.RedirectToManual && len(msg.ManualAnalysisParams) > 0 {
		bag := model.DecodeParamBag(msg.ManualAnalysisParams)
		source, _ := bag.String("task")
		if source == "" {
			source, _ = bag.String("analysis_type")
		}
		if p := resolve(source, bag); p != nil {
			return p
		}
	}

	if len(msg.DashboardUpdates) == 0 {
		return nil
	}

	for _, u := range msg.DashboardUpdates {
		if u.Type == model.UpdateAnalysisTriggered && u.AutoExecute {
			source := u.AnalysisType
			bag := model.DecodeParamBag(u.Params)
			if source == "" {
				source, _ = bag.String("task")
			}
			if p := resolve(source, bag); p != nil {
				return p
			}
		}
	}

	analysisType := msg.AnalysisType
	if analysisType == "" {
		for _, u := range msg.DashboardUpdates {
			if u.AnalysisType != "" {
				analysisType = u.AnalysisType
				break
			}
		}
	}
	if analysisType == "" {
		analysisType = DefaultAnalysisType
	}

	return &model.AnalysisParameters{
		Provenance: model.ProvenanceChatTriggered,
		Task:       analysisType,
		MapOption:  model.DefaultMapOption,
		Updates:    msg.DashboardUpdates,
	}
}

// resolve builds a fully normalized manual-provenance record from a backend
// parameter bag. Returns nil when the analysis type has no canonical task.
func resolve(source string, bag model.ParamBag) *model.AnalysisParameters {
	task, ok := taskMap[source]
	if !ok {
		return nil
	}

	p := &model.AnalysisParameters{
		Provenance: model.ProvenanceManual,
		Task:       task,
		MapOption:  model.DefaultMapOption,
	}

	if country, ok := bag.String("country"); ok {
		p.Country = country
	}
	if city, ok := bag.String("city"); ok {
		p.City = city
	}
	if year1, ok := bag.Int("year1"); ok {
		p.Year1 = model.IntPtr(year1)
	}

	// year2 is meaningful only for the two-year urban analysis.
	if source == SourceUrbanAnalysis {
		if year2, ok := bag.Int("year2"); ok {
			p.Year2 = model.IntPtr(year2)
		}
	}

	if thresholdTasks[source] {
		if threshold, ok := bag.Float("threshold"); ok {
			p.Threshold = model.FloatPtr(threshold)
		}
	}

	if source == SourceTopicModeling {
		applyTopicDefaults(p, bag)
	}

	return p
}

// applyTopicDefaults fills the topic-modeling fields, defaulting every one
// the payload omits. nTopics is carried only for the lda method.
func applyTopicDefaults(p *model.AnalysisParameters, bag model.ParamBag) {
	p.Method = model.DefaultTopicMethod
	if method, ok := bag.String("method"); ok {
		p.Method = method
	}

	p.MinDf = model.FloatPtr(model.DefaultMinDf)
	if minDf, ok := bag.Float("minDf"); ok {
		p.MinDf = model.FloatPtr(minDf)
	}

	p.MaxDf = model.FloatPtr(model.DefaultMaxDf)
	if maxDf, ok := bag.Float("maxDf"); ok {
		p.MaxDf = model.FloatPtr(maxDf)
	}

	p.NgramRange = model.DefaultNgramRange
	if ngram, ok := bag.String("ngramRange"); ok {
		p.NgramRange = ngram
	}

	p.InputType = model.DefaultTopicInput
	if inputType, ok := bag.String("inputType"); ok {
		p.InputType = inputType
	}

	p.TextInput = ""
	if text, ok := bag.String("textInput"); ok {
		p.TextInput = text
	}

	p.Files = []string{}
	if files, ok := bag.Strings("files"); ok {
		p.Files = files
	}

	if p.Method == model.DefaultTopicMethod {
		p.NTopics = model.IntPtr(model.DefaultNTopics)
		if n, ok := bag.Int("nTopics"); ok {
			p.NTopics = model.IntPtr(n)
		}
	}
}
