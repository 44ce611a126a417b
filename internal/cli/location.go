// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jeranaias/dataground-tui/internal/ui/styles"
)

// =============================================================================
// CITIES COMMAND
// =============================================================================

// HandleCities lists the cities the backend has coverage for, one per line
// so the output composes with grep. With an argument the list is restricted
// to that country.
func HandleCities(args []string) error {
	client, _, err := buildClient()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	var cities []string
	if len(args) > 0 {
		country := strings.Join(args, " ")
		cities, err = client.CitiesByCountry(ctx, country)
	} else {
		cities, err = client.Cities(ctx)
	}
	if err != nil {
		return fmt.Errorf("failed to list cities: %w", err)
	}
	if len(cities) == 0 {
		fmt.Println(styles.RenderInfo("no cities found"))
		return nil
	}
	for _, city := range cities {
		fmt.Println(city)
	}
	return nil
}
