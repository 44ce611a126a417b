// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"os"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want Cmd
	}{
		{"no args launches tui", []string{"dataground"}, CmdTUI},
		{"login", []string{"dataground", "login"}, CmdLogin},
		{"signup", []string{"dataground", "signup"}, CmdSignup},
		{"logout", []string{"dataground", "logout"}, CmdLogout},
		{"status", []string{"dataground", "status"}, CmdStatus},
		{"cities", []string{"dataground", "cities"}, CmdCities},
		{"version word", []string{"dataground", "version"}, CmdVersion},
		{"version flag", []string{"dataground", "--version"}, CmdVersion},
		{"help word", []string{"dataground", "help"}, CmdHelp},
		{"help flag", []string{"dataground", "-h"}, CmdHelp},
		{"unknown falls back to help", []string{"dataground", "frobnicate"}, CmdHelp},
	}

	orig := os.Args
	defer func() { os.Args = orig }()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Args = tt.args
			got, _ := Parse()
			if got != tt.want {
				t.Errorf("Parse(%v) = %v, want %v", tt.args, got, tt.want)
			}
		})
	}
}

func TestParseCarriesCommandArgs(t *testing.T) {
	orig := os.Args
	defer func() { os.Args = orig }()

	os.Args = []string{"dataground", "cities", "Indonesia"}
	cmd, args := Parse()
	if cmd != CmdCities {
		t.Fatalf("Parse() = %v, want CmdCities", cmd)
	}
	if len(args) != 1 || args[0] != "Indonesia" {
		t.Errorf("args = %v, want [Indonesia]", args)
	}
}
