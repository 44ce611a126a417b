// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package analysis converts assistant reply payloads into canonical
// analysis parameters and provides the geographic helpers the panels use
// when issuing their own fetches.
package analysis

import "github.com/jeranaias/dataground-tui/internal/model"

// =============================================================================
// BOUNDING BOXES
// =============================================================================

// DefaultBuffer is the half-width in degrees of the box built around a city
// center when the task has no specific entry in the buffer table.
const DefaultBuffer = 0.25

// standardBuffers maps task identifiers to the half-width of their standard
// bounding box. Entries accept both canonical task ids and backend analysis
// types so chat-triggered and manual records share one table.
var standardBuffers = map[string]float64{
	model.TaskSLRRisk:            0.25,
	"sea_level_rise":             0.25,
	model.TaskUrbanArea:          0.25,
	model.TaskUrbanComprehensive: 0.25,
	model.TaskInfrastructure:     0.25,
	model.TaskTopicModeling:      0.25,
}

// BBox is a geographic bounding box in degrees.
type BBox struct {
	MinLat float64
	MinLng float64
	MaxLat float64
	MaxLng float64
}

// JakartaBounds is the fallback region used when city resolution fails.
var JakartaBounds = BBox{
	MinLat: -6.365,
	MinLng: 106.689,
	MaxLat: -6.089,
	MaxLng: 106.971,
}

// Center returns the midpoint of the box as (lat, lng).
func (b BBox) Center() (float64, float64) {
	return (b.MinLat + b.MaxLat) / 2, (b.MinLng + b.MaxLng) / 2
}

// CalculateBbox expands a center point by buffer degrees in every direction.
func CalculateBbox(lat, lng, buffer float64) BBox {
	return BBox{
		MinLat: lat - buffer,
		MinLng: lng - buffer,
		MaxLat: lat + buffer,
		MaxLng: lng + buffer,
	}
}

// StandardBuffer returns the per-task buffer, falling back to DefaultBuffer
// for tasks absent from the table.
func StandardBuffer(task string) float64 {
	if buf, ok := standardBuffers[task]; ok {
		return buf
	}
	return DefaultBuffer
}

// CalculateStandardBbox builds the standard box for a task around a center
// point.
func CalculateStandardBbox(lat, lng float64, task string) BBox {
	return CalculateBbox(lat, lng, StandardBuffer(task))
}
