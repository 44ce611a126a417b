// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jeranaias/dataground-tui/internal/auth"
	"github.com/jeranaias/dataground-tui/internal/config"
	"github.com/jeranaias/dataground-tui/internal/ui/styles"
)

// =============================================================================
// STATUS COMMAND
// =============================================================================

// HandleStatus reports configuration, session, and backend reachability.
func HandleStatus(args []string) error {
	dir, err := config.Dir()
	if err != nil {
		return err
	}
	cfg, err := config.Load(dir)
	if err != nil {
		return err
	}

	fmt.Printf("dataground %s\n\n", Version)
	fmt.Printf("  config dir   %s\n", dir)
	if _, err := os.Stat(config.Path(dir)); err == nil {
		fmt.Printf("  config file  %s\n", config.Path(dir))
	} else {
		fmt.Printf("  config file  (defaults, no file)\n")
	}
	fmt.Printf("  cache        %s\n", config.CachePath(dir))

	client, tokens, err := buildClient()
	if err != nil {
		return err
	}
	fmt.Printf("  backend      %s\n", client.BaseURL())
	fmt.Printf("  defaults     %s, %s, %s\n\n",
		cfg.Defaults.Task, cfg.Defaults.City, cfg.Defaults.Country)

	token, err := tokens.Load()
	if err != nil {
		return err
	}
	if token == "" {
		fmt.Println(styles.RenderInfo("no stored session, run: dataground login"))
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	user, err := auth.Bootstrap(ctx, tokens, client)
	switch {
	case err != nil:
		fmt.Println(styles.RenderWarning("backend unreachable: " + err.Error()))
	case user == nil:
		fmt.Println(styles.RenderWarning("stored session has expired, run: dataground login"))
	default:
		fmt.Println(styles.RenderSuccess("signed in as " + user.UserName + " <" + user.Email + ">"))
	}
	return nil
}
