// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"testing"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/dataground-tui/internal/api"
	"github.com/jeranaias/dataground-tui/internal/config"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	client := api.NewClient("http://127.0.0.1:0")
	return NewApp(config.DefaultConfig(), t.TempDir(), client, nil)
}

func TestApplyConfigRewritesSharedTheme(t *testing.T) {
	a := newTestApp(t)
	shared := a.theme

	next := config.DefaultConfig()
	next.UI.Theme = "light"
	a.applyConfig(next)

	if a.theme != shared {
		t.Fatal("reload must rewrite the theme struct the panels hold, not swap the pointer")
	}
	if lipgloss.HasDarkBackground() {
		t.Error("the light theme should clear the dark background assumption")
	}
	if a.cfg != next {
		t.Error("the reloaded config should become current")
	}
	if a.note == "" {
		t.Error("a reload should surface a status note")
	}
}
