// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/dataground-tui/internal/api"
	"github.com/jeranaias/dataground-tui/internal/auth"
	"github.com/jeranaias/dataground-tui/internal/ui/styles"
)

// =============================================================================
// LOGIN GATE
// =============================================================================

// loginDoneMsg reports an authentication attempt.
type loginDoneMsg struct {
	user *api.User
	err  error
}

// login form field order. Username and confirm only appear in signup mode.
const (
	loginUsername = iota
	loginEmail
	loginPassword
	loginConfirm
	loginFieldCount
)

// loginForm gates the dashboard until the user is authenticated.
type loginForm struct {
	client *api.Client
	tokens *auth.Store
	theme  *styles.Theme

	inputs [loginFieldCount]textinput.Model
	focus  int
	signup bool
	busy   bool
	errMsg string
}

func newLoginForm(client *api.Client, tokens *auth.Store, theme *styles.Theme) *loginForm {
	f := &loginForm{client: client, tokens: tokens, theme: theme}
	labels := [loginFieldCount]string{"username", "email", "password", "confirm password"}
	for i := range f.inputs {
		ti := textinput.New()
		ti.Placeholder = labels[i]
		ti.CharLimit = 120
		ti.Width = 40
		f.inputs[i] = ti
	}
	f.inputs[loginPassword].EchoMode = textinput.EchoPassword
	f.inputs[loginConfirm].EchoMode = textinput.EchoPassword
	f.focus = loginEmail
	f.syncFocus()
	return f
}

// Init focuses the first field.
func (f *loginForm) Init() tea.Cmd {
	return textinput.Blink
}

// fields lists the visible field indices for the current mode.
func (f *loginForm) fields() []int {
	if f.signup {
		return []int{loginUsername, loginEmail, loginPassword, loginConfirm}
	}
	return []int{loginEmail, loginPassword}
}

// Update advances the form.
func (f *loginForm) Update(msg tea.Msg) (*loginForm, tea.Cmd) {
	switch msg := msg.(type) {
	case loginDoneMsg:
		f.busy = false
		if msg.err != nil {
			f.errMsg = authErrorText(msg.err)
		}
		return f, nil

	case tea.KeyMsg:
		if f.busy {
			return f, nil
		}
		switch msg.String() {
		case "tab", "down":
			f.moveFocus(1)
			return f, nil
		case "shift+tab", "up":
			f.moveFocus(-1)
			return f, nil
		case "ctrl+t":
			f.signup = !f.signup
			f.errMsg = ""
			f.focus = f.fields()[0]
			f.syncFocus()
			return f, nil
		case "enter":
			fields := f.fields()
			if f.focus == fields[len(fields)-1] {
				return f, f.submit()
			}
			f.moveFocus(1)
			return f, nil
		}

		var cmd tea.Cmd
		f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
		return f, cmd
	}
	return f, nil
}

func (f *loginForm) moveFocus(delta int) {
	fields := f.fields()
	pos := 0
	for i, field := range fields {
		if field == f.focus {
			pos = i
		}
	}
	f.focus = fields[(pos+delta+len(fields))%len(fields)]
	f.syncFocus()
}

func (f *loginForm) syncFocus() {
	for i := range f.inputs {
		f.inputs[i].Blur()
	}
	f.inputs[f.focus].Focus()
}

// submit runs the login, or the signup-then-login flow, and persists the
// issued token.
func (f *loginForm) submit() tea.Cmd {
	email := strings.TrimSpace(f.inputs[loginEmail].Value())
	password := f.inputs[loginPassword].Value()
	if email == "" || password == "" {
		f.errMsg = "email and password are required"
		return nil
	}

	signup := f.signup
	username := strings.TrimSpace(f.inputs[loginUsername].Value())
	confirm := f.inputs[loginConfirm].Value()
	if signup {
		if username == "" {
			f.errMsg = "username is required"
			return nil
		}
		if password != confirm {
			f.errMsg = "passwords do not match"
			return nil
		}
	}

	f.busy = true
	f.errMsg = ""
	client, tokens := f.client, f.tokens
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()

		if signup {
			if err := client.Signup(ctx, username, email, password, confirm); err != nil {
				return loginDoneMsg{err: err}
			}
		}
		token, err := client.Login(ctx, email, password)
		if err != nil {
			return loginDoneMsg{err: err}
		}
		// Persisting the token is best-effort; the session works without it.
		_ = tokens.Save(token)

		user, err := client.Me(ctx)
		if err != nil {
			return loginDoneMsg{err: err}
		}
		return loginDoneMsg{user: user}
	}
}

// authErrorText folds API errors into a login-screen friendly message.
func authErrorText(err error) string {
	switch {
	case err == nil:
		return ""
	case strings.Contains(err.Error(), "authentication failed"):
		return "invalid email or password"
	default:
		return err.Error()
	}
}

// View renders the gate.
func (f *loginForm) View() string {
	var sb strings.Builder
	sb.WriteString("\n")
	sb.WriteString(f.theme.Title.Render("  DataGround"))
	sb.WriteString("\n")
	mode := "Sign in"
	if f.signup {
		mode = "Create an account"
	}
	sb.WriteString(f.theme.Label.Render("  " + mode))
	sb.WriteString("\n\n")

	for _, field := range f.fields() {
		prefix := "    "
		if field == f.focus {
			prefix = "  > "
		}
		sb.WriteString(prefix)
		sb.WriteString(f.inputs[field].View())
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	switch {
	case f.busy:
		sb.WriteString(f.theme.EmptyHint.Render("  authenticating..."))
	case f.errMsg != "":
		sb.WriteString("  " + styles.RenderError(f.errMsg))
	default:
		sb.WriteString(f.theme.EmptyHint.Render("  enter submit · ctrl+t switch to login/signup · ctrl+c quit"))
	}
	return sb.String()
}
