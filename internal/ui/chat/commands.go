// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/dataground-tui/internal/api"
	"github.com/jeranaias/dataground-tui/internal/model"
)

// =============================================================================
// COMMANDS
// =============================================================================

// turnTimeout bounds a full send turn: post, force the assistant reply,
// refresh history.
const turnTimeout = 2 * time.Minute

// loadCachedChats paints the session list from the local cache before the
// network answers. A cache miss is silent.
func (m *Model) loadCachedChats() tea.Cmd {
	cache := m.cache
	return func() tea.Msg {
		if cache == nil {
			return nil
		}
		chats, err := cache.Chats()
		if err != nil || len(chats) == 0 {
			return nil
		}
		return chatsLoadedMsg{chats: chats, fromCache: true}
	}
}

// loadChats fetches the session list and refreshes the cache.
func (m *Model) loadChats() tea.Cmd {
	client, cache := m.client, m.cache
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), turnTimeout)
		defer cancel()

		chats, err := client.ListChats(ctx)
		if err != nil {
			return chatsLoadedMsg{err: err}
		}
		if cache != nil {
			_ = cache.PutChats(chats)
		}
		return chatsLoadedMsg{chats: chats}
	}
}

// loadCachedMessages paints one chat's history from the cache.
func (m *Model) loadCachedMessages(chatID int64, generation uint64) tea.Cmd {
	cache := m.cache
	return func() tea.Msg {
		if cache == nil {
			return nil
		}
		msgs, err := cache.Messages(chatID)
		if err != nil {
			// ErrNotFound and corruption alike: the network load is the
			// source of truth either way.
			return nil
		}
		return messagesLoadedMsg{chatID: chatID, generation: generation, messages: msgs, fromCache: true}
	}
}

// loadMessages fetches one chat's history and refreshes the cache.
func (m *Model) loadMessages(chatID int64, generation uint64) tea.Cmd {
	client, cache := m.client, m.cache
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), turnTimeout)
		defer cancel()

		msgs, err := client.GetMessages(ctx, chatID)
		if err != nil {
			return messagesLoadedMsg{chatID: chatID, generation: generation, err: err}
		}
		if cache != nil {
			_ = cache.PutMessages(chatID, msgs)
		}
		return messagesLoadedMsg{chatID: chatID, generation: generation, messages: msgs}
	}
}

// sendTurn runs a complete exchange against an existing chat: optional file
// upload, post the user message, force the assistant response, then reload
// history so server-side ids and dashboard updates replace the optimistic
// view. An upload failure does not abort the turn; the message is sent
// without the file and the attachment is reported as failed.
func (m *Model) sendTurn(chatID int64, generation uint64, user model.Message, filePath string) tea.Cmd {
	client, cache := m.client, m.cache
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), turnTimeout)
		defer cancel()

		content, file := attachUpload(ctx, client, user.Content, filePath)

		if _, err := client.SendMessage(ctx, chatID, content); err != nil {
			return sendResultMsg{chatID: chatID, generation: generation, tempID: user.TempID, file: file, err: err}
		}
		if _, err := client.ForceAIResponse(ctx, chatID); err != nil {
			return sendResultMsg{chatID: chatID, generation: generation, tempID: user.TempID, file: file, err: err}
		}

		msgs, err := client.GetMessages(ctx, chatID)
		if err != nil {
			return sendResultMsg{chatID: chatID, generation: generation, tempID: user.TempID, file: file, err: err}
		}
		if cache != nil {
			_ = cache.PutMessages(chatID, msgs)
		}
		return sendResultMsg{chatID: chatID, generation: generation, tempID: user.TempID, file: file, messages: msgs}
	}
}

// createTurn creates a chat seeded with the first user message, forces the
// assistant reply, and loads the resulting history.
func (m *Model) createTurn(user model.Message, filePath string) tea.Cmd {
	client, cache := m.client, m.cache
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), turnTimeout)
		defer cancel()

		content, file := attachUpload(ctx, client, user.Content, filePath)

		chat, err := client.CreateChatWithFirstMessage(ctx, model.TitleFromContent(content), content)
		if err != nil {
			return chatCreatedMsg{tempID: user.TempID, file: file, err: err}
		}
		if _, err := client.ForceAIResponse(ctx, chat.ID); err != nil {
			return chatCreatedMsg{chat: chat, tempID: user.TempID, file: file, err: err}
		}

		msgs, err := client.GetMessages(ctx, chat.ID)
		if err != nil {
			return chatCreatedMsg{chat: chat, tempID: user.TempID, file: file, err: err}
		}
		if cache != nil {
			_ = cache.PutMessages(chat.ID, msgs)
		}
		return chatCreatedMsg{chat: chat, tempID: user.TempID, file: file, messages: msgs}
	}
}

// renameChat updates a session title on the server.
func (m *Model) renameChat(chatID int64, title string) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), turnTimeout)
		defer cancel()

		if err := client.UpdateChatTitle(ctx, chatID, title); err != nil {
			return titleUpdatedMsg{chatID: chatID, title: title, err: err}
		}
		return titleUpdatedMsg{chatID: chatID, title: title}
	}
}

// attachUpload uploads the pending file, if any. On success the message
// content gains the attachment note and the server history becomes the
// record of the file. On failure the content is left alone and the returned
// FileInfo carries the error, so the failed attachment stays visible on the
// user turn.
func attachUpload(ctx context.Context, client *api.Client, content, filePath string) (string, *model.FileInfo) {
	if filePath == "" {
		return content, nil
	}
	info, err := uploadFile(ctx, client, filePath)
	if err != nil {
		return content, &model.FileInfo{Filename: filepath.Base(filePath), Error: err.Error()}
	}
	return content + "\n[attached: " + info.Filename + "]", nil
}

// uploadFile pushes an attachment and returns its server-side record.
func uploadFile(ctx context.Context, client *api.Client, path string) (*model.FileInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return client.UploadFile(ctx, filepath.Base(path), f)
}
