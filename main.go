// dataground - a terminal dashboard for geospatial and environmental
// analytics: chat with the assistant, run analyses, and read the results
// without leaving the terminal.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"fmt"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/dataground-tui/internal/api"
	"github.com/jeranaias/dataground-tui/internal/cli"
	"github.com/jeranaias/dataground-tui/internal/config"
	"github.com/jeranaias/dataground-tui/internal/storage"
	"github.com/jeranaias/dataground-tui/internal/ui"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args := cli.Parse()

	var err error
	switch cmd {
	case cli.CmdTUI:
		err = runTUI()
	case cli.CmdLogin:
		err = cli.HandleLogin(args)
	case cli.CmdSignup:
		err = cli.HandleSignup(args)
	case cli.CmdLogout:
		err = cli.HandleLogout(args)
	case cli.CmdStatus:
		err = cli.HandleStatus(args)
	case cli.CmdCities:
		err = cli.HandleCities(args)
	case cli.CmdVersion:
		cli.PrintVersion()
	case cli.CmdHelp:
		cli.PrintHelp()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// runTUI launches the full-screen dashboard.
func runTUI() error {
	dir, err := config.Dir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	cfg, err := config.Load(dir)
	if err != nil {
		return err
	}

	// The alternate screen owns stdout; API logging goes to a file.
	if f, err := os.OpenFile(config.LogPath(dir), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600); err == nil {
		log.SetOutput(f)
		defer f.Close()
	} else {
		log.SetOutput(os.Stderr)
	}

	client := api.NewClient(cfg.API.BaseURL).WithMaxRetries(cfg.API.MaxRetries)

	// The cache is an offline convenience; the dashboard runs without it.
	cache, err := storage.Open(config.CachePath(dir))
	if err != nil {
		log.Printf("chat cache unavailable: %v", err)
		cache = nil
	} else {
		defer cache.Close()
	}

	app := ui.NewApp(cfg, dir, client, cache)
	program := tea.NewProgram(app, tea.WithAltScreen())
	_, err = program.Run()
	return err
}
