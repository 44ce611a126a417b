// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// =============================================================================
// TASK CATALOG
// =============================================================================

// Canonical task identifiers.
const (
	TaskSLRRisk            = "slr-risk"
	TaskUrbanArea          = "urban-area"
	TaskUrbanComprehensive = "urban-area-comprehensive"
	TaskPopulationExposure = "population-exposure"
	TaskInfrastructure     = "infrastructure-exposure"
	TaskTopicModeling      = "topic-modeling"
)

// Dataset names backing each analysis.
const (
	DatasetMODIS    = "MODIS Land Cover"
	DatasetWorldPop = "WorldPop"
	DatasetSRTM     = "SRTM Elevation"
	DatasetOSM      = "OpenStreetMap"
)

// TaskInfo describes one supported analysis task: how many years it takes,
// the valid year range for its backing dataset, and whether the sea-level
// threshold applies.
type TaskInfo struct {
	ID        string
	Label     string
	YearCount int
	MinYear   int
	MaxYear   int
	Threshold bool
	Dataset   string
}

// Tasks is the static task catalog. Both the manual form and the parameter
// normalizer consult it.
var Tasks = map[string]TaskInfo{
	TaskSLRRisk: {
		ID:        TaskSLRRisk,
		Label:     "Sea Level Rise Risk",
		YearCount: 1,
		MinYear:   2014,
		MaxYear:   2024,
		Threshold: true,
		Dataset:   DatasetSRTM,
	},
	TaskUrbanArea: {
		ID:        TaskUrbanArea,
		Label:     "Urban Area Change",
		YearCount: 1,
		MinYear:   2001,
		MaxYear:   2020,
		Threshold: false,
		Dataset:   DatasetMODIS,
	},
	TaskUrbanComprehensive: {
		ID:        TaskUrbanComprehensive,
		Label:     "Urban Area Comprehensive",
		YearCount: 2,
		MinYear:   2001,
		MaxYear:   2020,
		Threshold: false,
		Dataset:   DatasetMODIS,
	},
	TaskPopulationExposure: {
		ID:        TaskPopulationExposure,
		Label:     "Population Exposure",
		YearCount: 2,
		MinYear:   2000,
		MaxYear:   2020,
		Threshold: true,
		Dataset:   DatasetWorldPop,
	},
	TaskInfrastructure: {
		ID:        TaskInfrastructure,
		Label:     "Infrastructure Exposure",
		YearCount: 1,
		MinYear:   2001,
		MaxYear:   2020,
		Threshold: true,
		Dataset:   DatasetOSM,
	},
	TaskTopicModeling: {
		ID:        TaskTopicModeling,
		Label:     "Topic Modeling",
		YearCount: 0,
		Threshold: false,
	},
}

// TaskOrder is the presentation order for pickers.
var TaskOrder = []string{
	TaskSLRRisk,
	TaskUrbanArea,
	TaskUrbanComprehensive,
	TaskPopulationExposure,
	TaskInfrastructure,
	TaskTopicModeling,
}

// GetTask looks up a task by canonical id.
func GetTask(id string) (TaskInfo, bool) {
	t, ok := Tasks[id]
	return t, ok
}

// ValidateYear reports whether year falls inside the task's dataset range.
// Tasks without a year requirement accept anything.
func ValidateYear(taskID string, year int) bool {
	t, ok := Tasks[taskID]
	if !ok || t.YearCount == 0 {
		return true
	}
	return year >= t.MinYear && year <= t.MaxYear
}

// AutoAdjustYear clamps year into the task's dataset range so that a year
// carried over from a different task still produces a valid request.
func AutoAdjustYear(taskID string, year int) int {
	t, ok := Tasks[taskID]
	if !ok || t.YearCount == 0 {
		return year
	}
	if year < t.MinYear {
		return t.MinYear
	}
	if year > t.MaxYear {
		return t.MaxYear
	}
	return year
}

// =============================================================================
// PARAMETER VALIDATION
// =============================================================================

// yearInRange builds an ozzo rule checking an optional year against a task.
func yearInRange(t TaskInfo) validation.RuleFunc {
	return func(value interface{}) error {
		year, ok := value.(*int)
		if !ok || year == nil {
			return nil
		}
		if *year < t.MinYear || *year > t.MaxYear {
			return fmt.Errorf("must be between %d and %d", t.MinYear, t.MaxYear)
		}
		return nil
	}
}

// Validate checks a manual-provenance AnalysisParameters against the task
// catalog. Chat-triggered records pass untouched since the backend already
// resolved them.
func (p *AnalysisParameters) Validate() error {
	if p == nil {
		return fmt.Errorf("no analysis parameters")
	}
	if p.Provenance == ProvenanceChatTriggered {
		return nil
	}

	t, ok := Tasks[p.Task]
	if !ok {
		return fmt.Errorf("unknown task %q", p.Task)
	}

	if p.Task == TaskTopicModeling {
		return validation.ValidateStruct(p,
			validation.Field(&p.Method, validation.Required, validation.In("lda", "bertopic")),
			validation.Field(&p.InputType, validation.Required, validation.In("text", "files")),
		)
	}

	rules := []*validation.FieldRules{
		validation.Field(&p.Country, validation.Required),
		validation.Field(&p.City, validation.Required),
	}
	if t.YearCount >= 1 {
		rules = append(rules, validation.Field(&p.Year1,
			validation.Required, validation.By(yearInRange(t))))
	}
	if t.YearCount >= 2 {
		rules = append(rules, validation.Field(&p.Year2,
			validation.Required, validation.By(yearInRange(t))))
	}
	if t.Threshold {
		rules = append(rules, validation.Field(&p.Threshold,
			validation.Required, validation.By(func(value interface{}) error {
				th, ok := value.(*float64)
				if !ok || th == nil {
					return nil
				}
				if *th < 0 || *th > 5 {
					return fmt.Errorf("must be between 0 and 5 meters")
				}
				return nil
			})))
	}
	return validation.ValidateStruct(p, rules...)
}
