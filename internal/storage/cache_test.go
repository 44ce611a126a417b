// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/jeranaias/dataground-tui/internal/model"
)

func openTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestCache_ChatListRoundTrip(t *testing.T) {
	c := openTestCache(t)

	older := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	newer := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	chats := []model.ChatSession{
		{ID: 1, Title: "Jakarta flood risk", CreatedAt: older},
		{ID: 2, Title: "Urban growth", CreatedAt: newer},
	}

	if err := c.PutChats(chats); err != nil {
		t.Fatalf("PutChats() error = %v", err)
	}

	got, err := c.Chats()
	if err != nil {
		t.Fatalf("Chats() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d chats, want 2", len(got))
	}
	if got[0].ID != 2 {
		t.Errorf("newest chat first: got id %d, want 2", got[0].ID)
	}
}

func TestCache_PutChatsReplacesWholesale(t *testing.T) {
	c := openTestCache(t)

	if err := c.PutChats([]model.ChatSession{{ID: 1, Title: "a", CreatedAt: time.Now()}}); err != nil {
		t.Fatal(err)
	}
	if err := c.PutChats([]model.ChatSession{{ID: 2, Title: "b", CreatedAt: time.Now()}}); err != nil {
		t.Fatal(err)
	}

	got, err := c.Chats()
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != 2 {
		t.Errorf("chats = %+v, want only the refreshed list", got)
	}
}

func TestCache_MessagesRoundTrip(t *testing.T) {
	c := openTestCache(t)

	if err := c.PutChats([]model.ChatSession{{ID: 5, Title: "x", CreatedAt: time.Now()}}); err != nil {
		t.Fatal(err)
	}

	messages := []model.Message{
		{ID: 1, Sender: model.SenderUser, Content: "Analyze Jakarta", CreatedAt: time.Now()},
		{
			ID: 2, Sender: model.SenderAI, Content: "Done.", CreatedAt: time.Now(),
			DashboardUpdates: []model.DashboardUpdate{
				{Type: model.UpdateMapUpdate, Data: &model.MapUpdateData{ImageURL: "https://x/o.png"}},
			},
			RedirectToManual:     true,
			ManualAnalysisParams: json.RawMessage(`{"task":"sea_level_rise"}`),
		},
	}

	if err := c.PutMessages(5, messages); err != nil {
		t.Fatalf("PutMessages() error = %v", err)
	}

	got, err := c.Messages(5)
	if err != nil {
		t.Fatalf("Messages() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d messages, want 2", len(got))
	}
	ai := got[1]
	if ai.Sender != model.SenderAI || !ai.RedirectToManual {
		t.Errorf("assistant message = %+v", ai)
	}
	if len(ai.DashboardUpdates) != 1 || ai.DashboardUpdates[0].Data.ImageURL != "https://x/o.png" {
		t.Errorf("dashboard updates = %+v", ai.DashboardUpdates)
	}
	if string(ai.ManualAnalysisParams) != `{"task":"sea_level_rise"}` {
		t.Errorf("manual params = %s", ai.ManualAnalysisParams)
	}
}

func TestCache_MessagesSkipsOptimistic(t *testing.T) {
	c := openTestCache(t)
	if err := c.PutChats([]model.ChatSession{{ID: 9, Title: "x", CreatedAt: time.Now()}}); err != nil {
		t.Fatal(err)
	}

	messages := []model.Message{
		{ID: 1, Sender: model.SenderUser, Content: "hi", CreatedAt: time.Now()},
		model.NewUserMessage("pending"),
	}
	if err := c.PutMessages(9, messages); err != nil {
		t.Fatal(err)
	}

	got, err := c.Messages(9)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Errorf("got %d messages, want optimistic entry skipped", len(got))
	}
}

func TestCache_MessagesNotCached(t *testing.T) {
	c := openTestCache(t)
	if _, err := c.Messages(404); !errors.Is(err, ErrNotFound) {
		t.Errorf("Messages(404) error = %v, want ErrNotFound", err)
	}
}

func TestCache_Closed(t *testing.T) {
	c := openTestCache(t)
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Chats(); !errors.Is(err, ErrClosed) {
		t.Errorf("Chats() after close error = %v, want ErrClosed", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}
