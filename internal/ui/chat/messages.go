// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import "github.com/jeranaias/dataground-tui/internal/model"

// =============================================================================
// MESSAGES
// =============================================================================

// chatsLoadedMsg carries the session list, from the network or the cache.
type chatsLoadedMsg struct {
	chats     []model.ChatSession
	fromCache bool
	err       error
}

// messagesLoadedMsg carries one chat's history. Generation is the selection
// generation captured when the fetch was dispatched; a mismatch means the
// user has switched chats and the result is discarded.
type messagesLoadedMsg struct {
	chatID     int64
	generation uint64
	messages   []model.Message
	fromCache  bool
	err        error
}

// sendResultMsg reports the outcome of a full send turn: the user message
// was posted, the assistant was asked for a response, and the refreshed
// history came back. file is non-nil only when the attachment upload failed;
// the controller pins it to the user turn so the failure stays visible.
type sendResultMsg struct {
	chatID     int64
	generation uint64
	tempID     string
	file       *model.FileInfo
	messages   []model.Message
	err        error
}

// chatCreatedMsg reports the create-with-first-message flow. The new session
// becomes the selection and its history is loaded next. file carries a
// failed attachment upload, as on sendResultMsg.
type chatCreatedMsg struct {
	chat     *model.ChatSession
	messages []model.Message
	tempID   string
	file     *model.FileInfo
	err      error
}

// titleUpdatedMsg reports a rename.
type titleUpdatedMsg struct {
	chatID int64
	title  string
	err    error
}
