package chattui

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/fitdeskhq/fitdesk/internal/support"
	"github.com/fitdeskhq/fitdesk/internal/support/engine"
)

// staticClient serves a fixed snapshot and accepts everything else.
type staticClient struct {
	mu    sync.Mutex
	lists map[support.Status][]support.Conversation
}

func (c *staticClient) ListConversations(_ context.Context, status support.Status) ([]support.Conversation, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]support.Conversation, 0, len(c.lists[status]))
	for _, conv := range c.lists[status] {
		out = append(out, conv.Clone())
	}
	return out, nil
}

func (c *staticClient) StartConversation(_ context.Context, participantID, text string) (support.Conversation, error) {
	return support.Conversation{}, support.ErrNotSupported
}

func (c *staticClient) SendMessage(_ context.Context, conversationID, text, localID string) (support.Message, error) {
	return support.Message{
		ID:             "srv-" + localID,
		LocalID:        localID,
		ConversationID: conversationID,
		Author:         support.AuthorStaff,
		Content:        strings.TrimSpace(text),
		CreatedAt:      time.Now().UTC(),
	}, nil
}

func (c *staticClient) MarkRead(context.Context, string) error { return nil }

func (c *staticClient) SetStatus(context.Context, string, support.Status) error { return nil }

func newTestModel(t *testing.T) *Model {
	t.Helper()
	created := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	client := &staticClient{
		lists: map[support.Status][]support.Conversation{
			support.StatusActive: {
				{
					ID:          "conv-1",
					Participant: support.Participant{ID: "p-1", Name: "Anna"},
					Status:      support.StatusActive,
					Messages: []support.Message{
						{ID: "m-1", ConversationID: "conv-1", Author: support.AuthorParticipant, Content: "hi, my card was declined", CreatedAt: created},
					},
					UnreadForStaff: 1,
				},
			},
		},
	}
	eng, err := engine.New(engine.Config{
		Client:       client,
		PollInterval: time.Hour,
		Logger:       zerolog.Nop(),
	})
	require.NoError(t, err)
	t.Cleanup(eng.Stop)

	model := NewModel(Config{Engine: eng})
	// Init starts the engine; the returned command blocks until the first
	// snapshot lands on the update stream.
	cmd := model.Init()
	require.NotNil(t, cmd)
	msg := cmd()
	require.NotNil(t, msg)
	model.Update(msg)
	return model
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModelRendersSnapshot(t *testing.T) {
	model := newTestModel(t)

	require.Len(t, model.conversations, 1)
	view := model.View()
	require.Contains(t, view, "Anna")
	require.Contains(t, view, "(1)")
	require.Contains(t, view, "1 unread")
}

func TestEnterOpensThreadAndClearsUnread(t *testing.T) {
	model := newTestModel(t)

	model.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, model.selected)
	require.Equal(t, "conv-1", model.selected.ID)
	require.Zero(t, model.selected.UnreadForStaff)

	view := model.View()
	require.Contains(t, view, "hi, my card was declined")
	require.NotContains(t, view, "unread")
}

func TestEscSavesDraftAndReturnsToList(t *testing.T) {
	model := newTestModel(t)
	model.Update(tea.KeyMsg{Type: tea.KeyEnter})

	model.Update(keyRunes("on it"))
	require.Equal(t, "on it", model.compose)

	model.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	require.Equal(t, "on i", model.compose)

	model.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.Nil(t, model.selected)
	require.Empty(t, model.compose)
	require.Equal(t, "on i", model.eng.Store().Draft("conv-1"))

	// Re-opening the thread restores the saved draft.
	model.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, "on i", model.compose)
}

func TestTabKeysSwitchLists(t *testing.T) {
	model := newTestModel(t)

	model.Update(keyRunes("2"))
	require.Equal(t, support.StatusResolved, model.tab)
	require.Empty(t, model.conversations)
	require.Contains(t, model.View(), "no conversations in this tab")

	model.Update(keyRunes("1"))
	require.Equal(t, support.StatusActive, model.tab)
}

func TestSendFailureRestoresCompose(t *testing.T) {
	model := newTestModel(t)
	model.Update(tea.KeyMsg{Type: tea.KeyEnter})

	// Simulate the engine reporting a failed send after the draft was
	// rolled back into the store.
	model.eng.Store().SetDraft("conv-1", "did not make it")
	model.applyEvent(engine.Event{Kind: engine.EventSendFailed, ConversationID: "conv-1"})

	require.Equal(t, "did not make it", model.compose)
	require.Contains(t, model.View(), "draft restored")
}
