// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/jeranaias/dataground-tui/internal/model"
	"github.com/jeranaias/dataground-tui/internal/ui/styles"
)

// =============================================================================
// VIEW
// =============================================================================

// View renders the chat tab: session list on the left, conversation and
// input on the right.
func (m *Model) View() string {
	if !m.ready {
		return "loading..."
	}

	sidebar := m.renderSidebar()
	conversation := lipgloss.JoinVertical(lipgloss.Left,
		m.viewport.View(),
		m.renderInputLine(),
		m.renderHintLine(),
	)
	return lipgloss.JoinHorizontal(lipgloss.Top, sidebar, " ", conversation)
}

func (m *Model) renderSidebar() string {
	var sb strings.Builder
	sb.WriteString(m.theme.Title.Render("Chats"))
	sb.WriteString("\n\n")

	if m.selected == composing {
		sb.WriteString(m.theme.FieldFocused.Render("> new chat"))
		sb.WriteString("\n")
	}
	for i, c := range m.chats {
		title := model.TitleFromContent(c.Title)
		title = runewidth.Truncate(title, sidebarWidth-3, "…")
		if i == m.selected {
			sb.WriteString(m.theme.FieldFocused.Render("> " + title))
		} else {
			sb.WriteString(m.theme.Label.Render("  " + title))
		}
		sb.WriteString("\n")
	}
	if len(m.chats) == 0 && m.selected != composing {
		sb.WriteString(m.theme.EmptyHint.Render("no chats yet"))
	}

	return lipgloss.NewStyle().Width(sidebarWidth).Height(m.viewport.Height + 2).Render(sb.String())
}

func (m *Model) renderInputLine() string {
	return m.theme.InputBox.Width(m.viewport.Width - 2).Render(m.input.View())
}

func (m *Model) renderHintLine() string {
	if m.busy() {
		note := "sending..."
		if m.state == stateLoading {
			note = "loading..."
		}
		return m.spin.View() + " " + m.theme.EmptyHint.Render(note)
	}
	if m.errNote != "" {
		return m.theme.FieldError.Render(m.errNote)
	}
	return m.theme.EmptyHint.Render("enter send · ctrl+n new chat · ctrl+j/k switch · /attach <file> · /title <name>")
}

// refreshViewport rebuilds the transcript content and scrolls to the newest
// message.
func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}
	width := m.viewport.Width - 2

	var sb strings.Builder
	if len(m.messages) == 0 {
		if m.selected == composing {
			sb.WriteString(m.theme.EmptyHint.Render("Start a conversation. The first message names the chat."))
		}
	}
	for i, msg := range m.messages {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(m.renderMessage(msg, width))
		sb.WriteString("\n")
	}
	m.viewport.SetContent(sb.String())
	m.viewport.GotoBottom()
}

func (m *Model) renderMessage(msg model.Message, width int) string {
	var sb strings.Builder

	label := "You"
	bubble := m.theme.UserBubble
	if msg.Sender == model.SenderAI {
		label = "Assistant"
		bubble = m.theme.AssistantBubble
	}
	ts := ""
	if !msg.CreatedAt.IsZero() {
		ts = "  " + msg.CreatedAt.Format("15:04")
	}
	sb.WriteString(m.theme.Timestamp.Render(label + ts))
	sb.WriteString("\n")

	content := msg.Content
	if msg.Sender == model.SenderAI && m.renderer != nil {
		if out, err := m.renderer.Render(content); err == nil {
			content = strings.TrimRight(out, "\n")
		}
	}
	sb.WriteString(bubble.MaxWidth(width).Render(content))

	if msg.File != nil {
		note := "attachment: " + msg.File.Filename
		if msg.File.Error != "" {
			note += " (upload failed: " + msg.File.Error + ")"
		}
		sb.WriteString("\n")
		sb.WriteString(m.theme.EmptyHint.Render(note))
	}
	if len(msg.DashboardUpdates) > 0 {
		sb.WriteString("\n")
		sb.WriteString(m.theme.EmptyHint.Render(styles.StatusIndicators.Info + " dashboard updated"))
	}
	if msg.RedirectToManual {
		sb.WriteString("\n")
		sb.WriteString(m.theme.EmptyHint.Render(styles.StatusIndicators.Info + " open the Analyze tab to adjust and run this analysis"))
	}
	return sb.String()
}
