// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for chat sessions, messages,
// and analysis parameters shared across the application.
package model

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// SENDER ROLES
// =============================================================================

// Sender identifies who produced a message.
type Sender string

const (
	// SenderUser is a message typed by the user.
	SenderUser Sender = "user"

	// SenderAI is a message produced by the backend assistant.
	SenderAI Sender = "ai"
)

// =============================================================================
// MESSAGES
// =============================================================================

// FileInfo describes a file attached to a message.
//
// Error is set client-side when the upload failed; the message is still
// sent and the attachment is shown as failed rather than aborting the send.
type FileInfo struct {
	Filename string `json:"filename"`
	Size     int64  `json:"size,omitempty"`
	Error    string `json:"error,omitempty"`
}

// DashboardUpdate is one entry of the assistant's dashboard_updates payload.
//
// The type set is open: entries with an unrecognized Type are ignored, never
// treated as errors. Known types are "map_update" and "analysis_triggered".
type DashboardUpdate struct {
	Type string `json:"type"`

	// map_update fields
	Data *MapUpdateData `json:"data,omitempty"`

	// analysis_triggered fields
	AnalysisType string          `json:"analysis_type,omitempty"`
	AutoExecute  bool            `json:"auto_execute,omitempty"`
	Params       json.RawMessage `json:"params,omitempty"`
}

// Known DashboardUpdate type discriminants.
const (
	UpdateMapUpdate         = "map_update"
	UpdateAnalysisTriggered = "analysis_triggered"
)

// MapUpdateData carries a pre-rendered map overlay produced by the backend.
// Center is (lng, lat) and BBox is (minLng, minLat, maxLng, maxLat), in the
// order the backend delivers them.
type MapUpdateData struct {
	ImageURL string    `json:"image_url"`
	Center   []float64 `json:"center,omitempty"`
	BBox     []float64 `json:"bbox,omitempty"`
}

// Message is a single chat message, either persisted server-side or an
// optimistic client-side entry awaiting the server round-trip.
type Message struct {
	// ID is the server-assigned identifier once confirmed. Optimistic
	// entries use TempID instead and leave ID zero.
	ID     int64  `json:"id,omitempty"`
	TempID string `json:"-"`

	Sender    Sender    `json:"sender"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`

	File *FileInfo `json:"file_info,omitempty"`

	// Assistant-only payloads driving the dashboard.
	DashboardUpdates     []DashboardUpdate `json:"dashboard_updates,omitempty"`
	RedirectToManual     bool              `json:"redirect_to_manual,omitempty"`
	ManualAnalysisParams json.RawMessage   `json:"manual_analysis_params,omitempty"`
	AnalysisType         string            `json:"analysis_type,omitempty"`
}

// NewUserMessage creates an optimistic user message with a client-local id.
// The id never changes after the server confirms the send; the assistant
// reply is simply appended after it.
func NewUserMessage(content string) Message {
	return Message{
		TempID:    "user-" + uuid.NewString(),
		Sender:    SenderUser,
		Content:   content,
		CreatedAt: time.Now(),
	}
}

// NewErrorMessage creates a synthetic assistant message used when a send
// fails. It lives in a distinct id namespace from real assistant messages.
func NewErrorMessage() Message {
	return Message{
		TempID:    "ai-error-" + uuid.NewString(),
		Sender:    SenderAI,
		Content:   "[AI Error] Sorry, something went wrong while generating a response. Please try again.",
		CreatedAt: time.Now(),
	}
}

// Key returns a stable identity for list rendering: the server id when
// confirmed, the client-local id otherwise.
func (m Message) Key() string {
	if m.TempID != "" {
		return m.TempID
	}
	return "msg-" + strconv.FormatInt(m.ID, 10)
}

// IsOptimistic reports whether the message has not been confirmed by the
// server.
func (m Message) IsOptimistic() bool {
	return m.ID == 0 && m.TempID != ""
}

// =============================================================================
// CHAT SESSIONS
// =============================================================================

// maxTitleLen is the display length chat titles are truncated to.
const maxTitleLen = 30

// ChatSession is one conversation with the assistant.
type ChatSession struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`

	// Messages are ordered oldest first. Populated lazily on selection.
	Messages []Message `json:"messages,omitempty"`
}

// TitleFromContent derives a chat title from the first message, truncated
// for display.
func TitleFromContent(content string) string {
	title := strings.TrimSpace(content)
	if title == "" {
		return "New Chat"
	}
	runes := []rune(title)
	if len(runes) <= maxTitleLen {
		return title
	}
	return string(runes[:maxTitleLen]) + "..."
}
