// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package panels implements the dashboard tabs driven by the current
// analysis parameters: the map view, urban statistics, infrastructure
// exposure, topic modeling, and the manual analysis form.
package panels

import (
	"github.com/jeranaias/dataground-tui/internal/analysis"
	"github.com/jeranaias/dataground-tui/internal/api"
)

// =============================================================================
// MESSAGES
// =============================================================================

// Fetch results carry the parameter identity captured at dispatch. A result
// whose identity no longer matches the panel's pending fetch belongs to a
// superseded parameter set and is dropped. Fetches are never cancelled,
// only ignored.

// mapResultMsg is the outcome of a map overlay fetch.
type mapResultMsg struct {
	identity string
	url      string
	bbox     *analysis.BBox
	note     string
	err      error
}

// urbanResultMsg is the outcome of a comprehensive urban statistics fetch.
type urbanResultMsg struct {
	identity string
	stats    *api.ComprehensiveStats
	err      error
}

// infraResultMsg is the outcome of an infrastructure exposure fetch.
type infraResultMsg struct {
	identity string
	year     int
	result   *api.InfrastructureResult
	err      error
}

// topicResultMsg is the outcome of a topic modeling run.
type topicResultMsg struct {
	identity string
	result   *api.TopicResult
	err      error
}
