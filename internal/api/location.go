// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"net/url"
)

// =============================================================================
// LOCATION ENDPOINTS
// =============================================================================

// CityCoordinates is a resolved city center.
type CityCoordinates struct {
	City string  `json:"city"`
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
}

// Countries lists the countries the backend has location data for.
func (c *Client) Countries(ctx context.Context) ([]string, error) {
	var countries []string
	if err := c.getJSON(ctx, "/location/countries", nil, &countries); err != nil {
		return nil, err
	}
	return countries, nil
}

// Cities lists all known cities.
func (c *Client) Cities(ctx context.Context) ([]string, error) {
	var cities []string
	if err := c.getJSON(ctx, "/location/cities", nil, &cities); err != nil {
		return nil, err
	}
	return cities, nil
}

// CitiesByCountry lists the cities of one country.
func (c *Client) CitiesByCountry(ctx context.Context, country string) ([]string, error) {
	var cities []string
	path := "/location/cities/" + url.PathEscape(country)
	if err := c.getJSON(ctx, path, nil, &cities); err != nil {
		return nil, err
	}
	return cities, nil
}

// ResolveCity looks up a city's center coordinates by its ASCII name.
// Resolution can fail for cities absent from the gazetteer; callers fall
// back to the default region.
func (c *Client) ResolveCity(ctx context.Context, cityAscii string) (*CityCoordinates, error) {
	var coords CityCoordinates
	path := "/location/city-coordinates/" + url.PathEscape(cityAscii)
	if err := c.getJSON(ctx, path, nil, &coords); err != nil {
		return nil, err
	}
	return &coords, nil
}
