// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat implements the AI assistant tab: the session list, the
// conversation view, and the send pipeline that turns assistant replies
// into dashboard analysis parameters.
package chat

import (
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/dataground-tui/internal/analysis"
	"github.com/jeranaias/dataground-tui/internal/api"
	"github.com/jeranaias/dataground-tui/internal/model"
	"github.com/jeranaias/dataground-tui/internal/params"
	"github.com/jeranaias/dataground-tui/internal/storage"
	"github.com/jeranaias/dataground-tui/internal/ui/styles"
)

// =============================================================================
// STATE
// =============================================================================

// state tracks the controller's send machine.
type state int

const (
	stateIdle state = iota
	stateLoading
	stateSending
)

// sidebarWidth is the fixed width of the session list column.
const sidebarWidth = 28

// composing means no server-side chat is selected; the next send runs the
// create-with-first-message flow.
const composing = -1

// Model is the chat controller.
type Model struct {
	client *api.Client
	cache  *storage.Cache
	store  *params.Store
	theme  *styles.Theme

	chats    []model.ChatSession
	selected int
	// selGen increments on every selection change. In-flight history and
	// send results carry the generation they were dispatched under and are
	// discarded on mismatch. Nothing is cancelled, only ignored.
	selGen uint64

	messages        []model.Message
	msgsFromNetwork bool
	chatsFromNet    bool

	input    textinput.Model
	viewport viewport.Model
	spin     spinner.Model
	renderer *glamour.TermRenderer

	state          state
	sendInFlight   bool
	createInFlight bool
	pendingFile    string

	markdown bool
	wordWrap int
	width    int
	height   int
	ready    bool
	errNote  string
}

// New builds the chat controller. cache may be nil for a cache-less session.
func New(client *api.Client, cache *storage.Cache, store *params.Store, theme *styles.Theme, markdown bool, wordWrap int) *Model {
	ti := textinput.New()
	ti.Placeholder = "Ask about sea level rise, urban growth, infrastructure..."
	ti.CharLimit = 4000
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return &Model{
		client:   client,
		cache:    cache,
		store:    store,
		theme:    theme,
		selected: composing,
		input:    ti,
		spin:     sp,
		markdown: markdown,
		wordWrap: wordWrap,
	}
}

// Init starts the cached paint and the network refresh in parallel.
func (m *Model) Init() tea.Cmd {
	m.state = stateLoading
	return tea.Batch(m.loadCachedChats(), m.loadChats(), m.spin.Tick, textinput.Blink)
}

// =============================================================================
// UPDATE
// =============================================================================

// Update advances the controller.
func (m *Model) Update(msg tea.Msg) (*Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case spinner.TickMsg:
		if m.busy() {
			var cmd tea.Cmd
			m.spin, cmd = m.spin.Update(msg)
			return m, cmd
		}
		return m, nil

	case chatsLoadedMsg:
		return m.onChatsLoaded(msg)

	case messagesLoadedMsg:
		return m.onMessagesLoaded(msg)

	case sendResultMsg:
		return m.onSendResult(msg)

	case chatCreatedMsg:
		return m.onChatCreated(msg)

	case titleUpdatedMsg:
		if msg.err != nil {
			m.errNote = "rename failed"
			return m, nil
		}
		for i := range m.chats {
			if m.chats[i].ID == msg.chatID {
				m.chats[i].Title = msg.title
			}
		}
		return m, nil

	case tea.KeyMsg:
		return m.onKey(msg)
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *Model) onKey(msg tea.KeyMsg) (*Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		return m, m.send()
	case "ctrl+n":
		m.startCompose()
		return m, nil
	case "ctrl+j":
		return m, m.selectChat(m.selected + 1)
	case "ctrl+k":
		return m, m.selectChat(m.selected - 1)
	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) onChatsLoaded(msg chatsLoadedMsg) (*Model, tea.Cmd) {
	if msg.err != nil {
		m.state = stateIdle
		m.errNote = "could not load chats: " + msg.err.Error()
		return m, nil
	}
	// A cached list never overwrites one the server already delivered.
	if msg.fromCache && m.chatsFromNet {
		return m, nil
	}
	if !msg.fromCache {
		m.chatsFromNet = true
	}
	m.chats = msg.chats
	m.state = stateIdle

	if len(m.chats) == 0 {
		m.startCompose()
		return m, nil
	}
	if m.selected == composing {
		return m, m.selectChat(0)
	}
	if m.selected >= len(m.chats) {
		return m, m.selectChat(len(m.chats) - 1)
	}
	return m, nil
}

func (m *Model) onMessagesLoaded(msg messagesLoadedMsg) (*Model, tea.Cmd) {
	if msg.generation != m.selGen || m.currentChatID() != msg.chatID {
		return m, nil
	}
	if msg.err != nil {
		m.state = stateIdle
		m.errNote = "could not load messages: " + msg.err.Error()
		return m, nil
	}
	if msg.fromCache && m.msgsFromNetwork {
		return m, nil
	}
	if !msg.fromCache {
		m.msgsFromNetwork = true
	}
	m.messages = msg.messages
	m.state = stateIdle
	m.refreshViewport()
	return m, nil
}

func (m *Model) onSendResult(msg sendResultMsg) (*Model, tea.Cmd) {
	m.sendInFlight = false
	if msg.generation != m.selGen || m.currentChatID() != msg.chatID {
		return m, nil
	}
	m.state = stateIdle

	if msg.err != nil {
		// The optimistic user message stays; a synthetic assistant error
		// turn follows it so the failure is visible in the transcript.
		m.attachFileNote(msg.tempID, msg.file)
		m.messages = append(m.messages, model.NewErrorMessage())
		m.refreshViewport()
		return m, nil
	}

	m.messages = msg.messages
	m.msgsFromNetwork = true
	m.attachFileNote(msg.tempID, msg.file)
	m.refreshViewport()
	return m, m.announceLatest()
}

func (m *Model) onChatCreated(msg chatCreatedMsg) (*Model, tea.Cmd) {
	m.createInFlight = false
	m.state = stateIdle

	if msg.err != nil && msg.chat == nil {
		m.attachFileNote(msg.tempID, msg.file)
		m.messages = append(m.messages, model.NewErrorMessage())
		m.refreshViewport()
		return m, nil
	}

	m.chats = append([]model.ChatSession{*msg.chat}, m.chats...)
	m.selected = 0
	m.selGen++
	m.msgsFromNetwork = true

	if msg.err != nil {
		m.attachFileNote(msg.tempID, msg.file)
		m.messages = append(m.messages, model.NewErrorMessage())
		m.refreshViewport()
		return m, nil
	}

	m.messages = msg.messages
	m.attachFileNote(msg.tempID, msg.file)
	m.refreshViewport()
	return m, m.announceLatest()
}

// attachFileNote pins a failed attachment to the user turn that carried it:
// the optimistic message when it is still in the transcript, otherwise the
// newest user message of the reloaded history. The server never saw the
// file, so the reload alone would silently drop the failure.
func (m *Model) attachFileNote(tempID string, file *model.FileInfo) {
	if file == nil {
		return
	}
	for i := range m.messages {
		if tempID != "" && m.messages[i].TempID == tempID {
			m.messages[i].File = file
			return
		}
	}
	for i := len(m.messages) - 1; i >= 0; i-- {
		if m.messages[i].Sender == model.SenderUser {
			m.messages[i].File = file
			return
		}
	}
}

// announceLatest runs the newest assistant turn through the normalizer and,
// when it yields parameters, publishes them for the panels. Only freshly
// arrived replies are announced; reloading history never re-triggers an
// analysis.
func (m *Model) announceLatest() tea.Cmd {
	for i := len(m.messages) - 1; i >= 0; i-- {
		if m.messages[i].Sender != model.SenderAI {
			continue
		}
		p := analysis.Normalize(m.messages[i])
		if p == nil {
			return nil
		}
		changed := m.store.SetAndAnnounce(p)
		return func() tea.Msg { return changed }
	}
	return nil
}

// =============================================================================
// ACTIONS
// =============================================================================

// send dispatches the composed input. While a send or create is in flight
// further sends are no-ops, so a held enter key cannot double-post.
func (m *Model) send() tea.Cmd {
	if m.sendInFlight || m.createInFlight {
		return nil
	}
	content := strings.TrimSpace(m.input.Value())
	if content == "" {
		return nil
	}

	if rest, ok := strings.CutPrefix(content, "/title "); ok {
		m.input.Reset()
		if id := m.currentChatID(); id != 0 {
			return m.renameChat(id, strings.TrimSpace(rest))
		}
		return nil
	}
	if rest, ok := strings.CutPrefix(content, "/attach "); ok {
		m.pendingFile = strings.TrimSpace(rest)
		m.input.Reset()
		m.errNote = "attached: " + m.pendingFile
		return nil
	}

	user := model.NewUserMessage(content)
	m.messages = append(m.messages, user)
	m.input.Reset()
	m.errNote = ""
	m.state = stateSending
	m.refreshViewport()

	file := m.pendingFile
	m.pendingFile = ""

	if m.selected == composing || len(m.chats) == 0 {
		m.createInFlight = true
		return tea.Batch(m.createTurn(user, file), m.spin.Tick)
	}
	m.sendInFlight = true
	return tea.Batch(m.sendTurn(m.currentChatID(), m.selGen, user, file), m.spin.Tick)
}

// selectChat switches the conversation view. The generation bump makes any
// in-flight result for the previous selection stale.
func (m *Model) selectChat(i int) tea.Cmd {
	if i < 0 || i >= len(m.chats) || i == m.selected {
		return nil
	}
	m.selected = i
	m.selGen++
	m.messages = nil
	m.msgsFromNetwork = false
	m.errNote = ""
	m.state = stateLoading
	m.refreshViewport()

	id := m.currentChatID()
	return tea.Batch(m.loadCachedMessages(id, m.selGen), m.loadMessages(id, m.selGen), m.spin.Tick)
}

// startCompose clears the selection so the next send creates a new chat.
func (m *Model) startCompose() {
	m.selected = composing
	m.selGen++
	m.messages = nil
	m.msgsFromNetwork = false
	m.errNote = ""
	m.state = stateIdle
	m.refreshViewport()
}

func (m *Model) currentChatID() int64 {
	if m.selected == composing || m.selected >= len(m.chats) {
		return 0
	}
	return m.chats[m.selected].ID
}

func (m *Model) busy() bool {
	return m.state == stateSending || m.state == stateLoading
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height

	vpWidth := width - sidebarWidth - 3
	vpHeight := height - 5
	if vpWidth < 20 {
		vpWidth = 20
	}
	if vpHeight < 3 {
		vpHeight = 3
	}
	if !m.ready {
		m.viewport = viewport.New(vpWidth, vpHeight)
		m.ready = true
	} else {
		m.viewport.Width = vpWidth
		m.viewport.Height = vpHeight
	}
	m.input.Width = vpWidth - 4

	wrap := m.wordWrap
	if wrap > vpWidth-4 {
		wrap = vpWidth - 4
	}
	if m.markdown {
		if r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(wrap)); err == nil {
			m.renderer = r
		}
	}
	m.refreshViewport()
}
