// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"

	"github.com/jeranaias/dataground-tui/internal/analysis"
)

// =============================================================================
// MAP GENERATION
// =============================================================================

// MapRequest parameterizes the map-image endpoints. BBox nil requests the
// city-agnostic global view, which only the sea-level endpoint supports.
type MapRequest struct {
	Year      int
	Threshold *float64
	BBox      *analysis.BBox
}

// mapResponse is the envelope for generated overlay images.
type mapResponse struct {
	URL string `json:"url"`
}

// query renders the request as URL parameters.
func (r MapRequest) query() url.Values {
	q := url.Values{}
	q.Set("year", strconv.Itoa(r.Year))
	if r.Threshold != nil {
		q.Set("threshold", strconv.FormatFloat(*r.Threshold, 'f', -1, 64))
	}
	if r.BBox != nil {
		q.Set("min_lat", strconv.FormatFloat(r.BBox.MinLat, 'f', -1, 64))
		q.Set("min_lon", strconv.FormatFloat(r.BBox.MinLng, 'f', -1, 64))
		q.Set("max_lat", strconv.FormatFloat(r.BBox.MaxLat, 'f', -1, 64))
		q.Set("max_lon", strconv.FormatFloat(r.BBox.MaxLng, 'f', -1, 64))
	}
	return q
}

// SeaLevelRiseMap renders a sea-level-rise risk overlay and returns its URL.
func (c *Client) SeaLevelRiseMap(ctx context.Context, req MapRequest) (string, error) {
	var resp mapResponse
	if err := c.getJSON(ctx, "/analysis/sea-level-rise", req.query(), &resp); err != nil {
		return "", err
	}
	return resp.URL, nil
}

// UrbanAreaMap renders an urban-area overlay for one year.
func (c *Client) UrbanAreaMap(ctx context.Context, req MapRequest) (string, error) {
	var resp mapResponse
	if err := c.getJSON(ctx, "/analysis/urban-area-map", req.query(), &resp); err != nil {
		return "", err
	}
	return resp.URL, nil
}

// UrbanAreaRiskCombinedMap renders the combined urban-area and risk overlay.
func (c *Client) UrbanAreaRiskCombinedMap(ctx context.Context, req MapRequest) (string, error) {
	var resp mapResponse
	if err := c.getJSON(ctx, "/analysis/urban-area-risk-combined-map", req.query(), &resp); err != nil {
		return "", err
	}
	return resp.URL, nil
}

// =============================================================================
// URBAN AREA STATISTICS
// =============================================================================

// UrbanAreaStats is the single-year urban statistics record.
type UrbanAreaStats struct {
	Year            int     `json:"year"`
	TotalUrbanArea  float64 `json:"total_urban_area"`
	UrbanAreaInRisk float64 `json:"urban_area_in_risk"`
	PopInUrban      float64 `json:"pop_in_urban"`
	PopInUrbanRisk  float64 `json:"pop_in_urban_risk"`
	UrbanizationPct float64 `json:"urbanization_pct"`
}

// GetUrbanAreaStats fetches urban statistics for one year.
func (c *Client) GetUrbanAreaStats(ctx context.Context, year int) (*UrbanAreaStats, error) {
	q := url.Values{"year": {strconv.Itoa(year)}}
	var stats UrbanAreaStats
	if err := c.getJSON(ctx, "/analysis/urban-area-stats", q, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// ComprehensiveSummary condenses a comprehensive stats run.
type ComprehensiveSummary struct {
	StartYear                int     `json:"start_year"`
	EndYear                  int     `json:"end_year"`
	UrbanizationPct          float64 `json:"urbanization_pct"`
	UrbanizationChangeRatio  float64 `json:"urbanization_change_ratio"`
	UrbanAreaEndYear         float64 `json:"urban_area_end_year"`
	UrbanAreaInRiskEndYear   float64 `json:"urban_area_in_risk_end_year"`
	PopulationInUrban        float64 `json:"population_in_urban"`
	PopulationInUrbanRisk    float64 `json:"population_in_urban_risk"`
	PopulationRatioUrban     float64 `json:"population_ratio_urban"`
	PopulationRatioUrbanRisk float64 `json:"population_ratio_urban_risk"`
}

// ComprehensiveStats is the year-range urban time series. All series are
// indexed parallel to Years.
type ComprehensiveStats struct {
	Years                  []int                `json:"years"`
	UrbanAreas             []float64            `json:"urban_areas"`
	UrbanAreasInRisk       []float64            `json:"urban_areas_in_risk"`
	PopulationsInUrban     []float64            `json:"populations_in_urban"`
	PopulationsInUrbanRisk []float64            `json:"populations_in_urban_risk"`
	TotalPopulations       []float64            `json:"total_populations"`
	Summary                ComprehensiveSummary `json:"summary"`
}

// GetComprehensiveStats fetches the urban time series for a year range.
func (c *Client) GetComprehensiveStats(ctx context.Context, startYear, endYear int) (*ComprehensiveStats, error) {
	q := url.Values{
		"start_year": {strconv.Itoa(startYear)},
		"end_year":   {strconv.Itoa(endYear)},
	}
	var stats ComprehensiveStats
	if err := c.getJSON(ctx, "/analysis/urban-area-comprehensive-stats", q, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// =============================================================================
// INFRASTRUCTURE EXPOSURE
// =============================================================================

// InfrastructureItem is one piece of infrastructure with its risk flag.
type InfrastructureItem struct {
	Name   string  `json:"name"`
	Type   string  `json:"type"`
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
	AtRisk bool    `json:"at_risk"`
}

// TypeBreakdown is the per-type exposure count.
type TypeBreakdown struct {
	Total  int `json:"total"`
	AtRisk int `json:"at_risk"`
}

// InfrastructureStats aggregates an exposure run.
type InfrastructureStats struct {
	TotalInfrastructure  int                      `json:"total_infrastructure"`
	AtRiskInfrastructure int                      `json:"at_risk_infrastructure"`
	RiskPercentage       float64                  `json:"risk_percentage"`
	ByType               map[string]TypeBreakdown `json:"by_type"`
}

// InfrastructureResult is the response from the exposure endpoint.
type InfrastructureResult struct {
	InfrastructureData []InfrastructureItem `json:"infrastructure_data"`
	Statistics         InfrastructureStats  `json:"statistics"`
	MapURL             string               `json:"map_url"`
}

// GetInfrastructureExposure fetches infrastructure at risk for a year,
// threshold, and bounding box.
func (c *Client) GetInfrastructureExposure(ctx context.Context, year int, threshold float64, bbox analysis.BBox) (*InfrastructureResult, error) {
	q := url.Values{
		"year":      {strconv.Itoa(year)},
		"threshold": {strconv.FormatFloat(threshold, 'f', -1, 64)},
		"min_lat":   {strconv.FormatFloat(bbox.MinLat, 'f', -1, 64)},
		"min_lon":   {strconv.FormatFloat(bbox.MinLng, 'f', -1, 64)},
		"max_lat":   {strconv.FormatFloat(bbox.MaxLat, 'f', -1, 64)},
		"max_lon":   {strconv.FormatFloat(bbox.MaxLng, 'f', -1, 64)},
	}
	var result InfrastructureResult
	if err := c.getJSON(ctx, "/analysis/infrastructure-exposure", q, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// =============================================================================
// TOPIC MODELING
// =============================================================================

// TopicFile is an in-memory document for corpus-based topic modeling.
type TopicFile struct {
	Name    string
	Content []byte
}

// TopicRequest parameterizes a topic-modeling run. Exactly one of TextInput
// or Files should be populated, mirroring the form's input type.
type TopicRequest struct {
	Method     string
	NTopics    *int
	MinDf      float64
	MaxDf      float64
	NgramRange string
	TextInput  string
	Files      []TopicFile
}

// Topic is one discovered topic with its weighted vocabulary.
type Topic struct {
	Words    []string  `json:"words"`
	Weights  []float64 `json:"weights"`
	TopWords []string  `json:"top_words"`
}

// TopicResult is the response from the topic-modeling endpoint. A non-empty
// Message with zero topics is a successful-empty result, distinct from a
// transport error.
type TopicResult struct {
	Topics               []Topic           `json:"topics"`
	DocumentTopics       [][]float64       `json:"document_topics"`
	Wordclouds           map[string]string `json:"wordclouds"`
	Method               string            `json:"method"`
	NTopics              int               `json:"n_topics"`
	TotalDocuments       int               `json:"total_documents"`
	IsAutoTopicDetection bool              `json:"is_auto_topic_detection"`
	Message              string            `json:"message"`
}

// RunTopicModeling posts a topic-modeling request as multipart form data.
func (c *Client) RunTopicModeling(ctx context.Context, req TopicRequest) (*TopicResult, error) {
	if !c.IsAuthenticated() {
		return nil, ErrNotAuthenticated
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := map[string]string{
		"method":      req.Method,
		"min_df":      strconv.FormatFloat(req.MinDf, 'f', -1, 64),
		"max_df":      strconv.FormatFloat(req.MaxDf, 'f', -1, 64),
		"ngram_range": req.NgramRange,
	}
	if req.NTopics != nil {
		fields["n_topics"] = strconv.Itoa(*req.NTopics)
	}
	if len(req.Files) == 0 {
		fields["text_input"] = req.TextInput
	}
	for key, value := range fields {
		if err := w.WriteField(key, value); err != nil {
			return nil, fmt.Errorf("failed to build topic request: %w", err)
		}
	}
	for _, f := range req.Files {
		part, err := w.CreateFormFile("files", f.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to attach %s: %w", f.Name, err)
		}
		if _, err := part.Write(f.Content); err != nil {
			return nil, fmt.Errorf("failed to attach %s: %w", f.Name, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize topic request: %w", err)
	}

	var result TopicResult
	err := c.do(ctx, request{
		method:      http.MethodPost,
		path:        "/analysis/topic-modeling",
		body:        buf.Bytes(),
		contentType: w.FormDataContentType(),
		noRetry:     true,
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}
