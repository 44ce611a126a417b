// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/peterh/liner"
	"golang.org/x/term"

	"github.com/jeranaias/dataground-tui/internal/api"
	"github.com/jeranaias/dataground-tui/internal/auth"
	"github.com/jeranaias/dataground-tui/internal/config"
	"github.com/jeranaias/dataground-tui/internal/ui/styles"
)

// authTimeout bounds the headless authentication round-trips.
const authTimeout = 60 * time.Second

// =============================================================================
// HEADLESS AUTH COMMANDS
// =============================================================================

// HandleLogin prompts for credentials, signs in, and stores the token.
func HandleLogin(args []string) error {
	if err := RequiresTTY("log in"); err != nil {
		return err
	}

	client, tokens, err := buildClient()
	if err != nil {
		return err
	}

	email, err := promptLine("Email: ")
	if err != nil {
		return err
	}
	password, err := promptPassword("Password: ")
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), authTimeout)
	defer cancel()

	token, err := client.Login(ctx, email, password)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	if err := tokens.Save(token); err != nil {
		return fmt.Errorf("login succeeded but the token could not be stored: %w", err)
	}

	user, err := client.Me(ctx)
	if err != nil {
		return err
	}
	fmt.Println(styles.RenderSuccess("signed in as " + user.UserName))
	return nil
}

// HandleSignup prompts for account details, creates the account, and signs
// in.
func HandleSignup(args []string) error {
	if err := RequiresTTY("sign up"); err != nil {
		return err
	}

	client, tokens, err := buildClient()
	if err != nil {
		return err
	}

	username, err := promptLine("Username: ")
	if err != nil {
		return err
	}
	email, err := promptLine("Email: ")
	if err != nil {
		return err
	}
	password, err := promptPassword("Password: ")
	if err != nil {
		return err
	}
	confirm, err := promptPassword("Confirm password: ")
	if err != nil {
		return err
	}
	if password != confirm {
		return fmt.Errorf("passwords do not match")
	}

	ctx, cancel := context.WithTimeout(context.Background(), authTimeout)
	defer cancel()

	if err := client.Signup(ctx, username, email, password, confirm); err != nil {
		return fmt.Errorf("signup failed: %w", err)
	}
	token, err := client.Login(ctx, email, password)
	if err != nil {
		return fmt.Errorf("account created but login failed: %w", err)
	}
	if err := tokens.Save(token); err != nil {
		return fmt.Errorf("signed in but the token could not be stored: %w", err)
	}
	fmt.Println(styles.RenderSuccess("account created, signed in as " + username))
	return nil
}

// HandleLogout discards the stored token.
func HandleLogout(args []string) error {
	dir, err := config.Dir()
	if err != nil {
		return err
	}
	if err := auth.NewStore(dir).Clear(); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	fmt.Println(styles.RenderSuccess("signed out"))
	return nil
}

// buildClient loads the config and assembles the API client and token store.
func buildClient() (*api.Client, *auth.Store, error) {
	dir, err := config.Dir()
	if err != nil {
		return nil, nil, err
	}
	cfg, err := config.Load(dir)
	if err != nil {
		return nil, nil, err
	}
	client := api.NewClient(cfg.API.BaseURL).WithMaxRetries(cfg.API.MaxRetries)
	return client, auth.NewStore(dir), nil
}

// promptLine reads one line with editing support.
func promptLine(prompt string) (string, error) {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	value, err := line.Prompt(prompt)
	if err != nil {
		if err == liner.ErrPromptAborted {
			return "", fmt.Errorf("aborted")
		}
		return "", err
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return "", fmt.Errorf("a value is required")
	}
	return value, nil
}

// promptPassword reads a password without echo.
func promptPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	if len(raw) == 0 {
		return "", fmt.Errorf("a password is required")
	}
	return string(raw), nil
}
