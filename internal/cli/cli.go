// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the non-TUI entry points: argument dispatch,
// headless authentication, and status reporting.
package cli

import (
	"fmt"
	"os"
)

// Version information, set at build time from main.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Cmd identifies a top-level command.
type Cmd int

const (
	// CmdTUI launches the full-screen dashboard (the default).
	CmdTUI Cmd = iota
	CmdLogin
	CmdSignup
	CmdLogout
	CmdStatus
	CmdCities
	CmdVersion
	CmdHelp
)

// Parse maps os.Args onto a command. Unknown commands fall through to help
// so a typo never silently launches the dashboard.
func Parse() (Cmd, []string) {
	if len(os.Args) < 2 {
		return CmdTUI, nil
	}
	args := os.Args[2:]
	switch os.Args[1] {
	case "login":
		return CmdLogin, args
	case "signup":
		return CmdSignup, args
	case "logout":
		return CmdLogout, args
	case "status":
		return CmdStatus, args
	case "cities":
		return CmdCities, args
	case "version", "--version", "-v":
		return CmdVersion, args
	case "help", "--help", "-h":
		return CmdHelp, args
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", os.Args[1])
		return CmdHelp, args
	}
}

// PrintVersion writes the build information.
func PrintVersion() {
	fmt.Printf("dataground %s (%s, built %s)\n", Version, GitCommit, BuildDate)
}

// PrintHelp writes the usage text.
func PrintHelp() {
	fmt.Print(`dataground - terminal dashboard for geospatial and environmental analytics

Usage:
  dataground            launch the dashboard
  dataground login      sign in and store the session token
  dataground signup     create an account
  dataground logout     discard the stored session token
  dataground status     show configuration and backend reachability
  dataground cities     list covered cities, optionally for one country
  dataground version    show build information
  dataground help       show this help

Environment:
  DATAGROUND_API_URL      override the backend URL
  DATAGROUND_CONFIG_DIR   override the configuration directory
  DATAGROUND_TOKEN        use this session token instead of the stored one
`)
}
