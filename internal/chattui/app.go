// Package chattui renders the staff chat widget in the terminal: status
// tabs, the conversation list, the open thread, and the composer, all
// reading from the sync engine's mirrored store.
package chattui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fitdeskhq/fitdesk/internal/support"
	"github.com/fitdeskhq/fitdesk/internal/support/engine"
)

// Config configures the widget.
type Config struct {
	Engine *engine.Engine
	Tab    support.Status
}

// Model is the bubbletea model for the chat widget.
type Model struct {
	eng *engine.Engine
	tab support.Status

	width  int
	height int

	cursor        int
	conversations []support.Conversation
	selected      *support.Conversation
	compose       string
	notice        string
	quitting      bool
}

type engineEventMsg engine.Event

// NewModel builds the widget model; the engine is started by Init.
func NewModel(cfg Config) *Model {
	tab := cfg.Tab
	if tab == "" {
		tab = support.StatusActive
	}
	return &Model{eng: cfg.Engine, tab: tab}
}

// Run starts the engine and the widget, and stops the engine on exit so
// late completions cannot touch the store afterwards.
func Run(cfg Config) error {
	model := NewModel(cfg)
	defer cfg.Engine.Stop()

	program := tea.NewProgram(model, tea.WithAltScreen())
	_, err := program.Run()
	return err
}

func (m *Model) Init() tea.Cmd {
	m.eng.Start(m.tab)
	return m.waitForEvent()
}

// waitForEvent blocks on the engine's update stream and feeds events back
// into the bubbletea loop.
func (m *Model) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		event, ok := <-m.eng.Updates()
		if !ok {
			return nil
		}
		return engineEventMsg(event)
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = typed.Width
		m.height = typed.Height
		return m, nil
	case engineEventMsg:
		m.applyEvent(engine.Event(typed))
		return m, m.waitForEvent()
	case tea.KeyMsg:
		return m.handleKey(typed)
	}
	return m, nil
}

// applyEvent refreshes the local render state from the store after an
// engine update and surfaces recoverable failures as notices.
func (m *Model) applyEvent(event engine.Event) {
	switch event.Kind {
	case engine.EventSendFailed:
		m.notice = "send failed, draft restored"
		if sel, ok := m.eng.Store().Selected(); ok {
			m.compose = m.eng.Store().Draft(sel.ID)
		}
	case engine.EventStatusFailed:
		m.notice = "status change failed"
	case engine.EventMarkReadFailed:
		m.notice = "read receipt not delivered yet"
	case engine.EventStatusSent:
		m.notice = ""
	case engine.EventUnauthorized:
		m.notice = "session expired, please sign in again"
	}
	m.refresh()
}

// refresh re-reads the conversation list and the selection from the store.
func (m *Model) refresh() {
	m.conversations = m.eng.Store().Conversations(m.tab)
	if m.cursor >= len(m.conversations) {
		m.cursor = len(m.conversations) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	if sel, ok := m.eng.Store().Selected(); ok {
		m.selected = &sel
	} else {
		m.selected = nil
	}
}

func (m *Model) handleKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.selected != nil {
		return m.handleThreadKey(key)
	}
	return m.handleListKey(key)
}

func (m *Model) handleListKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.String() {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.conversations)-1 {
			m.cursor++
		}
	case "1":
		m.switchTab(support.StatusActive)
	case "2":
		m.switchTab(support.StatusResolved)
	case "3":
		m.switchTab(support.StatusArchived)
	case "tab":
		m.cycleTab()
	case "enter":
		if m.cursor < len(m.conversations) {
			conv, err := m.eng.Select(m.conversations[m.cursor].ID)
			if err == nil {
				m.selected = &conv
				m.compose = m.eng.Store().Draft(conv.ID)
				m.notice = ""
			}
		}
	case "R":
		m.transitionUnderCursor(support.StatusResolved)
	case "A":
		m.transitionUnderCursor(support.StatusArchived)
	case "O":
		m.transitionUnderCursor(support.StatusActive)
	}
	return m, nil
}

func (m *Model) handleThreadKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.Type {
	case tea.KeyCtrlC:
		m.quitting = true
		return m, tea.Quit
	case tea.KeyEsc:
		m.saveDraft()
		m.eng.Store().ClearSelection()
		m.selected = nil
		m.compose = ""
		return m, nil
	case tea.KeyEnter:
		text := m.compose
		if strings.TrimSpace(text) == "" {
			return m, nil
		}
		// Optimistic: the field blanks now; a failure restores it.
		m.compose = ""
		if err := m.eng.Send(m.selected.ID, text); err != nil {
			m.compose = text
			m.notice = err.Error()
			return m, nil
		}
		m.refresh()
		return m, nil
	case tea.KeyBackspace:
		if len(m.compose) > 0 {
			runes := []rune(m.compose)
			m.compose = string(runes[:len(runes)-1])
		}
		return m, nil
	case tea.KeyRunes, tea.KeySpace:
		m.compose += string(key.Runes)
		if key.Type == tea.KeySpace {
			m.compose += " "
		}
		return m, nil
	}
	return m, nil
}

// switchTab changes the viewed status tab, restarting the poll timer
// against the new tab's query.
func (m *Model) switchTab(tab support.Status) {
	if tab == m.tab {
		return
	}
	m.saveDraft()
	m.tab = tab
	m.cursor = 0
	m.selected = nil
	m.compose = ""
	m.eng.SetTab(tab)
	m.refresh()
}

func (m *Model) cycleTab() {
	tabs := support.Statuses()
	for i, tab := range tabs {
		if tab == m.tab {
			m.switchTab(tabs[(i+1)%len(tabs)])
			return
		}
	}
}

func (m *Model) transitionUnderCursor(to support.Status) {
	if m.cursor >= len(m.conversations) {
		return
	}
	id := m.conversations[m.cursor].ID
	if err := m.eng.SetStatus(id, to); err != nil {
		m.notice = err.Error()
		return
	}
	m.notice = "moving to " + string(to) + "…"
}

func (m *Model) saveDraft() {
	if m.selected != nil {
		m.eng.Store().SetDraft(m.selected.ID, m.compose)
	}
}
