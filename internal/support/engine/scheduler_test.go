package engine

import (
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/fitdeskhq/fitdesk/internal/support"
)

func newPollingEngine(t *testing.T, client *fakeClient) *Engine {
	t.Helper()
	eng, err := New(Config{
		Client:       client,
		PollInterval: 10 * time.Millisecond,
		Logger:       zerolog.Nop(),
	})
	require.NoError(t, err)
	t.Cleanup(eng.Stop)
	return eng
}

func TestPollingAppliesSuccessiveSnapshots(t *testing.T) {
	client := newFakeClient()
	client.setList(support.StatusActive, []support.Conversation{activeConv("c1", 0)})
	eng := newPollingEngine(t, client)

	eng.Start(support.StatusActive)
	require.Eventually(t, func() bool {
		return len(eng.Store().Conversations(support.StatusActive)) == 1
	}, time.Second, 5*time.Millisecond)

	client.setList(support.StatusActive, []support.Conversation{
		activeConv("c1", 0),
		activeConv("c2", 1),
	})
	require.Eventually(t, func() bool {
		return len(eng.Store().Conversations(support.StatusActive)) == 2
	}, time.Second, 5*time.Millisecond)
}

func TestFailedPollRetainsPreviousState(t *testing.T) {
	client := newFakeClient()
	client.setList(support.StatusActive, []support.Conversation{activeConv("c1", 2)})
	eng := newPollingEngine(t, client)

	eng.Start(support.StatusActive)
	require.Eventually(t, func() bool {
		return len(eng.Store().Conversations(support.StatusActive)) == 1
	}, time.Second, 5*time.Millisecond)

	client.mu.Lock()
	client.listErr = fmt.Errorf("gateway timeout")
	client.mu.Unlock()

	time.Sleep(50 * time.Millisecond)
	list := eng.Store().Conversations(support.StatusActive)
	require.Len(t, list, 1)
	require.Equal(t, 2, list[0].UnreadForStaff)

	// The next successful tick self-heals.
	client.mu.Lock()
	client.listErr = nil
	client.lists[support.StatusActive] = []support.Conversation{activeConv("c1", 0)}
	client.mu.Unlock()

	require.Eventually(t, func() bool {
		list := eng.Store().Conversations(support.StatusActive)
		return len(list) == 1 && list[0].UnreadForStaff == 0
	}, time.Second, 5*time.Millisecond)
}

func TestSetTabRestartsPollAgainstNewQuery(t *testing.T) {
	client := newFakeClient()
	client.setList(support.StatusActive, []support.Conversation{activeConv("c1", 0)})
	archived := activeConv("c9", 0)
	archived.Status = support.StatusArchived
	client.setList(support.StatusArchived, []support.Conversation{archived})
	eng := newPollingEngine(t, client)

	eng.Start(support.StatusActive)
	require.Eventually(t, func() bool {
		return len(eng.Store().Conversations(support.StatusActive)) == 1
	}, time.Second, 5*time.Millisecond)

	eng.SetTab(support.StatusArchived)
	require.Equal(t, support.StatusArchived, eng.Store().Tab())
	require.Eventually(t, func() bool {
		return len(eng.Store().Conversations(support.StatusArchived)) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestArchiveThenReopenMovesAcrossTabs(t *testing.T) {
	client := newFakeClient()
	client.setList(support.StatusActive, []support.Conversation{activeConv("c1", 0)})
	eng := newPollingEngine(t, client)

	eng.Start(support.StatusActive)
	require.Eventually(t, func() bool {
		return len(eng.Store().Conversations(support.StatusActive)) == 1
	}, time.Second, 5*time.Millisecond)

	// Staff archives; the server moves the conversation and the next
	// fetches reflect it: gone from active, present under archived.
	require.NoError(t, eng.SetStatus("c1", support.StatusArchived))
	archived := activeConv("c1", 0)
	archived.Status = support.StatusArchived
	client.setList(support.StatusActive, nil)
	client.setList(support.StatusArchived, []support.Conversation{archived})

	require.Eventually(t, func() bool {
		return len(eng.Store().Conversations(support.StatusActive)) == 0
	}, time.Second, 5*time.Millisecond)

	eng.SetTab(support.StatusArchived)
	require.Eventually(t, func() bool {
		list := eng.Store().Conversations(support.StatusArchived)
		return len(list) == 1 && list[0].Status == support.StatusArchived
	}, time.Second, 5*time.Millisecond)

	// Reopen goes back to active only; there is no archived -> resolved
	// edge.
	require.ErrorIs(t, eng.SetStatus("c1", support.StatusResolved), support.ErrInvalidTransition)
	require.NoError(t, eng.SetStatus("c1", support.StatusActive))
}

func TestStopPreventsFurtherSnapshotApplies(t *testing.T) {
	client := newFakeClient()
	client.setList(support.StatusActive, []support.Conversation{activeConv("c1", 0)})
	eng := newPollingEngine(t, client)

	eng.Start(support.StatusActive)
	require.Eventually(t, func() bool {
		return len(eng.Store().Conversations(support.StatusActive)) == 1
	}, time.Second, 5*time.Millisecond)

	eng.Stop()
	client.setList(support.StatusActive, []support.Conversation{
		activeConv("c1", 0),
		activeConv("c2", 0),
	})

	time.Sleep(50 * time.Millisecond)
	require.Len(t, eng.Store().Conversations(support.StatusActive), 1)
}
