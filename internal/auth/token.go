// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package auth persists the backend bearer token between runs.
//
// The token lives in a mode-0600 file under the config directory, with
// DATAGROUND_TOKEN as an environment override. It is validated once at
// startup against /auth/me; an invalid token clears the file and forces
// re-authentication.
package auth

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jeranaias/dataground-tui/internal/api"
	"github.com/jeranaias/dataground-tui/internal/util"
)

// tokenFileName is the file the token is stored in, under the config dir.
const tokenFileName = "token"

// Store reads and writes the persisted token.
type Store struct {
	dir string
}

// NewStore creates a token store rooted at the given config directory.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// path returns the token file location.
func (s *Store) path() string {
	return filepath.Join(s.dir, tokenFileName)
}

// Load returns the persisted token, or empty when none is stored.
func (s *Store) Load() (string, error) {
	data, err := os.ReadFile(s.path())
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read token: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// Save persists a token. The write is atomic so a crash cannot leave a
// truncated token behind.
func (s *Store) Save(token string) error {
	return util.AtomicWriteFile(s.path(), []byte(token+"\n"), 0600)
}

// Clear removes the persisted token. Clearing an absent token is not an
// error.
func (s *Store) Clear() error {
	err := os.Remove(s.path())
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// =============================================================================
// STARTUP VALIDATION
// =============================================================================

// envToken is an environment override for the session token, for CI and
// scripted use. It wins over the token file and is never written to disk.
const envToken = "DATAGROUND_TOKEN"

// Bootstrap puts the session token on the client and validates it with the
// backend. The DATAGROUND_TOKEN environment variable takes precedence over
// the persisted token. Returns the authenticated user, or nil when the user
// must log in. An invalid or expired token from disk is cleared; a rejected
// env token leaves the file alone.
func Bootstrap(ctx context.Context, store *Store, client *api.Client) (*api.User, error) {
	token := strings.TrimSpace(os.Getenv(envToken))
	fromEnv := token != ""
	if !fromEnv {
		var err error
		token, err = store.Load()
		if err != nil {
			return nil, err
		}
	}
	if token == "" {
		return nil, nil
	}

	client.SetToken(token)
	user, err := client.Me(ctx)
	if err != nil {
		if errors.Is(err, api.ErrAuthFailed) || errors.Is(err, api.ErrNotAuthenticated) {
			client.ClearToken()
			if !fromEnv {
				if clearErr := store.Clear(); clearErr != nil {
					return nil, clearErr
				}
			}
			return nil, nil
		}
		// Network trouble: keep the token, surface the error.
		return nil, err
	}
	return user, nil
}
