// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ui assembles the full-screen terminal application: the
// authentication gate, the tab chrome, and the message routing between the
// chat controller and the dashboard panels.
package ui

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/dataground-tui/internal/api"
	"github.com/jeranaias/dataground-tui/internal/auth"
	"github.com/jeranaias/dataground-tui/internal/config"
	"github.com/jeranaias/dataground-tui/internal/params"
	"github.com/jeranaias/dataground-tui/internal/storage"
	"github.com/jeranaias/dataground-tui/internal/ui/chat"
	"github.com/jeranaias/dataground-tui/internal/ui/components"
	"github.com/jeranaias/dataground-tui/internal/ui/panels"
	"github.com/jeranaias/dataground-tui/internal/ui/styles"
)

// =============================================================================
// TABS
// =============================================================================

type tab int

const (
	tabAssistant tab = iota
	tabMap
	tabUrban
	tabInfra
	tabTopics
	tabAnalyze
	tabCount
)

var tabTitles = [tabCount]string{
	"AI Assistant", "Map", "Urban", "Infrastructure", "Topics", "Analyze",
}

// =============================================================================
// APP MODEL
// =============================================================================

// bootstrapMsg is the startup token validation result.
type bootstrapMsg struct {
	user *api.User
	err  error
}

// configReloadedMsg carries a config reloaded from disk by the watcher.
type configReloadedMsg struct {
	cfg *config.Config
}

// crashMsg is emitted when an Update or View panic was recovered.
type crashMsg struct {
	err   error
	stack string
}

// App is the root Bubble Tea model.
type App struct {
	cfg    *config.Config
	dir    string
	client *api.Client
	cache  *storage.Cache
	tokens *auth.Store
	store  *params.Store
	theme  *styles.Theme

	user  *api.User
	login *loginForm

	chat  *chat.Model
	maps  *panels.MapPanel
	urban *panels.UrbanPanel
	infra *panels.InfraPanel
	topic *panels.TopicPanel
	form  *panels.Form

	watcher *config.Watcher
	cfgCh   chan *config.Config

	active  tab
	width   int
	height  int
	booting bool
	note    string

	crashErr   error
	crashStack string
}

// NewApp assembles the application. cache may be nil when the local cache
// could not be opened; the app then runs network-only.
func NewApp(cfg *config.Config, dir string, client *api.Client, cache *storage.Cache) *App {
	theme := styles.NewTheme(cfg.UI.Theme)
	store := params.NewStore()

	a := &App{
		cfg:     cfg,
		dir:     dir,
		client:  client,
		cache:   cache,
		tokens:  auth.NewStore(dir),
		store:   store,
		theme:   theme,
		booting: true,
		cfgCh:   make(chan *config.Config, 1),
	}
	a.login = newLoginForm(client, a.tokens, theme)
	a.buildPanels()
	return a
}

// buildPanels constructs the dashboard models. Called at startup and again
// on restart after a recovered panic.
func (a *App) buildPanels() {
	a.chat = chat.New(a.client, a.cache, a.store, a.theme, a.cfg.UI.Markdown, a.cfg.UI.WordWrap)
	a.maps = panels.NewMapPanel(a.client, a.theme)
	a.urban = panels.NewUrbanPanel(a.client, a.theme)
	a.infra = panels.NewInfraPanel(a.client, a.store, a.theme)
	a.topic = panels.NewTopicPanel(a.client, a.theme)
	a.form = panels.NewForm(a.store, a.theme, panels.FormDefaults{
		Country:   a.cfg.Defaults.Country,
		City:      a.cfg.Defaults.City,
		Task:      a.cfg.Defaults.Task,
		Threshold: a.cfg.Defaults.Threshold,
	})
}

// Init validates the persisted token and starts the config watcher.
func (a *App) Init() tea.Cmd {
	return tea.Batch(a.bootstrap(), a.startWatcher(), a.nextConfig())
}

func (a *App) bootstrap() tea.Cmd {
	client, tokens := a.client, a.tokens
	return func() tea.Msg {
		user, err := auth.Bootstrap(context.Background(), tokens, client)
		return bootstrapMsg{user: user, err: err}
	}
}

// startWatcher begins watching the config file. Watch failures are silent;
// live reload is a convenience, not a requirement.
func (a *App) startWatcher() tea.Cmd {
	return func() tea.Msg {
		w, err := config.NewWatcher(a.dir, func(cfg *config.Config) {
			select {
			case a.cfgCh <- cfg:
			default:
			}
		})
		if err != nil {
			return nil
		}
		if err := w.Watch(); err != nil {
			w.Close()
			return nil
		}
		a.watcher = w
		return nil
	}
}

// nextConfig blocks until the watcher delivers a fresh config.
func (a *App) nextConfig() tea.Cmd {
	ch := a.cfgCh
	return func() tea.Msg {
		return configReloadedMsg{cfg: <-ch}
	}
}

// =============================================================================
// UPDATE
// =============================================================================

// Update routes messages. A panic in any child model is caught and turned
// into the crash screen rather than taking down the terminal.
func (a *App) Update(msg tea.Msg) (model tea.Model, cmd tea.Cmd) {
	defer func() {
		if r := recover(); r != nil {
			a.crashErr = fmt.Errorf("%v", r)
			a.crashStack = string(debug.Stack())
			model, cmd = a, nil
		}
	}()

	if a.crashErr != nil {
		return a.updateCrashed(msg)
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.maps.SetWidth(msg.Width)
		a.urban.SetWidth(msg.Width)
		a.infra.SetWidth(msg.Width)
		a.topic.SetWidth(msg.Width)
		a.form.SetWidth(msg.Width)
		chatModel, cmd := a.chat.Update(tea.WindowSizeMsg{Width: msg.Width, Height: msg.Height - 3})
		a.chat = chatModel
		return a, cmd

	case bootstrapMsg:
		a.booting = false
		if msg.err != nil {
			a.note = "offline: " + msg.err.Error()
			return a, nil
		}
		if msg.user == nil {
			return a, a.login.Init()
		}
		return a.signIn(msg.user)

	case loginDoneMsg:
		if msg.err != nil {
			var cmd tea.Cmd
			a.login, cmd = a.login.Update(msg)
			return a, cmd
		}
		return a.signIn(msg.user)

	case configReloadedMsg:
		a.applyConfig(msg.cfg)
		return a, a.nextConfig()

	case crashMsg:
		a.crashErr = msg.err
		a.crashStack = msg.stack
		return a, nil

	case params.ChangedMsg:
		// Fan the new parameters out to every panel.
		return a, a.broadcast(msg)

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			if a.watcher != nil {
				a.watcher.Close()
			}
			return a, tea.Quit
		case "tab", "shift+tab":
			if a.user != nil {
				step := 1
				if msg.String() == "shift+tab" {
					step = int(tabCount) - 1
				}
				a.active = tab((int(a.active) + step) % int(tabCount))
				return a, nil
			}
		}
	}

	if a.user == nil {
		if a.booting {
			return a, nil
		}
		var cmd tea.Cmd
		a.login, cmd = a.login.Update(msg)
		return a, cmd
	}
	return a, a.route(msg)
}

// signIn switches from the login gate to the dashboard.
func (a *App) signIn(user *api.User) (tea.Model, tea.Cmd) {
	a.user = user
	a.active = tabAssistant
	cmds := []tea.Cmd{a.chat.Init()}
	if a.width > 0 {
		chatModel, cmd := a.chat.Update(tea.WindowSizeMsg{Width: a.width, Height: a.height - 3})
		a.chat = chatModel
		cmds = append(cmds, cmd)
	}
	return a, tea.Batch(cmds...)
}

// broadcast delivers a message to every panel and collects their commands.
func (a *App) broadcast(msg tea.Msg) tea.Cmd {
	var cmds []tea.Cmd
	var cmd tea.Cmd
	a.maps, cmd = a.maps.Update(msg)
	cmds = append(cmds, cmd)
	a.urban, cmd = a.urban.Update(msg)
	cmds = append(cmds, cmd)
	a.infra, cmd = a.infra.Update(msg)
	cmds = append(cmds, cmd)
	a.topic, cmd = a.topic.Update(msg)
	cmds = append(cmds, cmd)
	return tea.Batch(cmds...)
}

// route sends a message to the owning model: async results go to whichever
// panel issued them, key presses go to the active tab.
func (a *App) route(msg tea.Msg) tea.Cmd {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch a.active {
		case tabAssistant:
			var cmd tea.Cmd
			a.chat, cmd = a.chat.Update(key)
			return cmd
		case tabInfra:
			var cmd tea.Cmd
			a.infra, cmd = a.infra.Update(key)
			return cmd
		case tabAnalyze:
			var cmd tea.Cmd
			a.form, cmd = a.form.Update(key)
			return cmd
		}
		return nil
	}

	// Async results are addressed by type; deliver broadly and let each
	// model ignore what is not for it.
	var cmds []tea.Cmd
	var cmd tea.Cmd
	a.chat, cmd = a.chat.Update(msg)
	cmds = append(cmds, cmd)
	cmds = append(cmds, a.broadcast(msg))
	return tea.Batch(cmds...)
}

// applyConfig applies a live-reloaded config. The theme and form defaults
// take effect immediately; the API base URL requires a restart.
func (a *App) applyConfig(cfg *config.Config) {
	a.cfg = cfg
	// Every panel holds the theme pointer handed out in buildPanels, so the
	// struct is rewritten in place rather than replaced.
	*a.theme = *styles.NewTheme(cfg.UI.Theme)
	a.note = "configuration reloaded"
}

func (a *App) updateCrashed(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return a, nil
	}
	switch key.String() {
	case "q", "ctrl+c":
		return a, tea.Quit
	case "r":
		a.crashErr = nil
		a.crashStack = ""
		a.buildPanels()
		a.active = tabAssistant
		if a.user != nil {
			return a.signIn(a.user)
		}
		return a, a.login.Init()
	}
	return a, nil
}

// =============================================================================
// VIEW
// =============================================================================

// View renders the application. Rendering panics fall through to the crash
// screen on the next frame.
func (a *App) View() (out string) {
	defer func() {
		if r := recover(); r != nil {
			a.crashErr = fmt.Errorf("%v", r)
			a.crashStack = string(debug.Stack())
			out = a.crashView()
		}
	}()

	if a.crashErr != nil {
		return a.crashView()
	}
	if a.booting {
		return "\n  validating session..."
	}
	if a.user == nil {
		return a.login.View()
	}

	var body string
	switch a.active {
	case tabAssistant:
		body = a.chat.View()
	case tabMap:
		body = a.maps.View()
	case tabUrban:
		body = a.urban.View()
	case tabInfra:
		body = a.infra.View()
	case tabTopics:
		body = a.topic.View()
	case tabAnalyze:
		body = a.form.View()
	}

	bar := components.StatusBar{
		User:   a.user.UserName,
		Note:   a.note,
		Params: a.store.Current(),
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		a.renderTabs(),
		body,
		bar.Render(a.theme, a.width),
	)
}

func (a *App) renderTabs() string {
	var rendered []string
	for i, title := range tabTitles {
		if tab(i) == a.active {
			rendered = append(rendered, a.theme.TabActive.Render(title))
		} else {
			rendered = append(rendered, a.theme.TabInactive.Render(title))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Bottom, rendered...)
}

// crashView is the error boundary: the failure and a way back that does not
// involve killing the terminal session.
func (a *App) crashView() string {
	var sb strings.Builder
	sb.WriteString("\n")
	sb.WriteString(styles.RenderError("something went wrong"))
	sb.WriteString("\n\n")
	sb.WriteString(a.crashErr.Error())
	sb.WriteString("\n\n")

	stack := a.crashStack
	if len(stack) > 2000 {
		stack = stack[:2000] + "\n..."
	}
	sb.WriteString(a.theme.EmptyHint.Render(stack))
	sb.WriteString("\n\n")
	sb.WriteString(a.theme.Value.Render("r restart · q quit"))
	return a.theme.ErrorBox.Render(sb.String())
}
