// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/jeranaias/dataground-tui/internal/model"
)

// =============================================================================
// CHAT ENDPOINTS
// =============================================================================

// ListChats returns all chat sessions for the current user, newest first.
func (c *Client) ListChats(ctx context.Context) ([]model.ChatSession, error) {
	if !c.IsAuthenticated() {
		return nil, ErrNotAuthenticated
	}
	var chats []model.ChatSession
	if err := c.getJSON(ctx, "/chat/chats", nil, &chats); err != nil {
		return nil, err
	}
	return chats, nil
}

// CreateChatWithFirstMessage creates a chat and its first user message in
// one call, so the chat never exists empty server-side.
func (c *Client) CreateChatWithFirstMessage(ctx context.Context, title, content string) (*model.ChatSession, error) {
	if !c.IsAuthenticated() {
		return nil, ErrNotAuthenticated
	}
	body := struct {
		Title   string `json:"title"`
		Content string `json:"content"`
	}{Title: title, Content: content}

	var chat model.ChatSession
	if err := c.postJSON(ctx, "/chat/chats/first", nil, body, &chat, true); err != nil {
		return nil, err
	}
	return &chat, nil
}

// GetMessages returns the ordered message history for a chat.
func (c *Client) GetMessages(ctx context.Context, chatID int64) ([]model.Message, error) {
	if !c.IsAuthenticated() {
		return nil, ErrNotAuthenticated
	}
	var messages []model.Message
	path := fmt.Sprintf("/chat/chats/%d/messages", chatID)
	if err := c.getJSON(ctx, path, nil, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// SendMessage sends a user message and returns the assistant's reply. The
// reply may carry dashboard payloads; the caller runs it through the
// normalizer. Never retried: a duplicate send would show up in the
// conversation.
func (c *Client) SendMessage(ctx context.Context, chatID int64, content string) (*model.Message, error) {
	if !c.IsAuthenticated() {
		return nil, ErrNotAuthenticated
	}
	path := fmt.Sprintf("/chat/chats/%d/messages", chatID)
	query := url.Values{"content": {content}}
	var reply model.Message
	if err := c.postJSON(ctx, path, query, nil, &reply, true); err != nil {
		return nil, err
	}
	return &reply, nil
}

// ForceAIResponse asks the backend to generate an assistant turn for the
// latest user message. Used after CreateChatWithFirstMessage.
func (c *Client) ForceAIResponse(ctx context.Context, chatID int64) (*model.Message, error) {
	if !c.IsAuthenticated() {
		return nil, ErrNotAuthenticated
	}
	path := fmt.Sprintf("/chat/chats/%d/ai_response", chatID)
	var reply model.Message
	if err := c.postJSON(ctx, path, nil, nil, &reply, true); err != nil {
		return nil, err
	}
	return &reply, nil
}

// UpdateChatTitle renames a chat.
func (c *Client) UpdateChatTitle(ctx context.Context, chatID int64, title string) error {
	if !c.IsAuthenticated() {
		return ErrNotAuthenticated
	}
	body := struct {
		Title string `json:"title"`
	}{Title: title}

	path := fmt.Sprintf("/chat/chats/%d/title", chatID)
	payload, err := marshalBody(body)
	if err != nil {
		return err
	}
	return c.do(ctx, request{
		method:      http.MethodPatch,
		path:        path,
		body:        payload,
		contentType: "application/json",
		noRetry:     true,
	}, nil)
}
