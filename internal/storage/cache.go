// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage caches chat sessions and message history in SQLite so a
// previously seen conversation paints instantly while the network refresh
// is in flight. The backend stays the source of truth; the cache is
// replaced wholesale on every successful fetch.
package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/jeranaias/dataground-tui/internal/model"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	ErrClosed   = errors.New("cache closed")
	ErrNotFound = errors.New("not cached")
)

// schema holds chats and their messages. Assistant payloads are stored as
// a JSON blob; the cache never inspects them.
const schema = `
CREATE TABLE IF NOT EXISTS chats (
	id         INTEGER PRIMARY KEY,
	title      TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL,
	fetched_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS messages (
	id         INTEGER NOT NULL,
	chat_id    INTEGER NOT NULL REFERENCES chats(id) ON DELETE CASCADE,
	sender     TEXT NOT NULL,
	content    TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL,
	payload    TEXT,
	position   INTEGER NOT NULL,
	PRIMARY KEY (chat_id, position)
);

CREATE INDEX IF NOT EXISTS idx_messages_chat ON messages(chat_id);
`

// messagePayload is the JSON blob for assistant-only message fields.
type messagePayload struct {
	File                 *model.FileInfo         `json:"file_info,omitempty"`
	DashboardUpdates     []model.DashboardUpdate `json:"dashboard_updates,omitempty"`
	RedirectToManual     bool                    `json:"redirect_to_manual,omitempty"`
	ManualAnalysisParams json.RawMessage         `json:"manual_analysis_params,omitempty"`
	AnalysisType         string                  `json:"analysis_type,omitempty"`
}

// Cache is the SQLite-backed chat cache.
type Cache struct {
	db *sql.DB
}

// Open opens (or creates) the cache database at path.
func Open(path string) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}

	// SQLite supports one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA temp_store=MEMORY",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Cache{db: db}, nil
}

// Close closes the underlying database.
func (c *Cache) Close() error {
	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db = nil
	return err
}

// =============================================================================
// CHAT LIST
// =============================================================================

// PutChats replaces the cached chat list. Chats absent from the new list
// are pruned, dropping their history via the cascade; surviving chats keep
// their cached messages.
func (c *Cache) PutChats(chats []model.ChatSession) error {
	if c.db == nil {
		return ErrClosed
	}
	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	keep := make(map[int64]bool, len(chats))
	now := time.Now().UTC()
	for _, chat := range chats {
		keep[chat.ID] = true
		_, err := tx.Exec(
			`INSERT INTO chats (id, title, created_at, fetched_at) VALUES (?, ?, ?, ?)
			 ON CONFLICT(id) DO UPDATE SET title = excluded.title, fetched_at = excluded.fetched_at`,
			chat.ID, chat.Title, chat.CreatedAt.UTC(), now,
		)
		if err != nil {
			return err
		}
	}

	rows, err := tx.Query(`SELECT id FROM chats`)
	if err != nil {
		return err
	}
	var stale []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return err
		}
		if !keep[id] {
			stale = append(stale, id)
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	rows.Close()

	for _, id := range stale {
		if _, err := tx.Exec(`DELETE FROM chats WHERE id = ?`, id); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Chats returns the cached chat list, newest first.
func (c *Cache) Chats() ([]model.ChatSession, error) {
	if c.db == nil {
		return nil, ErrClosed
	}
	rows, err := c.db.Query(
		`SELECT id, title, created_at FROM chats ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chats []model.ChatSession
	for rows.Next() {
		var chat model.ChatSession
		if err := rows.Scan(&chat.ID, &chat.Title, &chat.CreatedAt); err != nil {
			return nil, err
		}
		chats = append(chats, chat)
	}
	return chats, rows.Err()
}

// =============================================================================
// MESSAGE HISTORY
// =============================================================================

// PutMessages replaces the cached history for one chat. Optimistic
// messages are skipped; only server-confirmed entries are worth caching.
func (c *Cache) PutMessages(chatID int64, messages []model.Message) error {
	if c.db == nil {
		return ErrClosed
	}
	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM messages WHERE chat_id = ?`, chatID); err != nil {
		return err
	}
	position := 0
	for _, msg := range messages {
		if msg.IsOptimistic() {
			continue
		}
		payload, err := encodePayload(msg)
		if err != nil {
			return err
		}
		_, err = tx.Exec(
			`INSERT INTO messages (id, chat_id, sender, content, created_at, payload, position)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			msg.ID, chatID, string(msg.Sender), msg.Content, msg.CreatedAt.UTC(), payload, position,
		)
		if err != nil {
			return err
		}
		position++
	}
	return tx.Commit()
}

// Messages returns the cached history for one chat in original order.
// Returns ErrNotFound when the chat has no cached history.
func (c *Cache) Messages(chatID int64) ([]model.Message, error) {
	if c.db == nil {
		return nil, ErrClosed
	}
	rows, err := c.db.Query(
		`SELECT id, sender, content, created_at, payload
		 FROM messages WHERE chat_id = ? ORDER BY position`, chatID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []model.Message
	for rows.Next() {
		var msg model.Message
		var sender string
		var payload sql.NullString
		if err := rows.Scan(&msg.ID, &sender, &msg.Content, &msg.CreatedAt, &payload); err != nil {
			return nil, err
		}
		msg.Sender = model.Sender(sender)
		if payload.Valid && payload.String != "" {
			if err := decodePayload(payload.String, &msg); err != nil {
				return nil, err
			}
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if messages == nil {
		return nil, ErrNotFound
	}
	return messages, nil
}

// encodePayload serializes the assistant-only fields, returning an empty
// string when there is nothing to store.
func encodePayload(msg model.Message) (string, error) {
	p := messagePayload{
		File:                 msg.File,
		DashboardUpdates:     msg.DashboardUpdates,
		RedirectToManual:     msg.RedirectToManual,
		ManualAnalysisParams: msg.ManualAnalysisParams,
		AnalysisType:         msg.AnalysisType,
	}
	if p.File == nil && len(p.DashboardUpdates) == 0 && !p.RedirectToManual &&
		len(p.ManualAnalysisParams) == 0 && p.AnalysisType == "" {
		return "", nil
	}
	data, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("failed to encode message payload: %w", err)
	}
	return string(data), nil
}

// decodePayload restores the assistant-only fields onto msg.
func decodePayload(data string, msg *model.Message) error {
	var p messagePayload
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return fmt.Errorf("failed to decode message payload: %w", err)
	}
	msg.File = p.File
	msg.DashboardUpdates = p.DashboardUpdates
	msg.RedirectToManual = p.RedirectToManual
	msg.ManualAnalysisParams = p.ManualAnalysisParams
	msg.AnalysisType = p.AnalysisType
	return nil
}
