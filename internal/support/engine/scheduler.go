package engine

import (
	"context"
	"errors"
	"time"

	"github.com/fitdeskhq/fitdesk/internal/support"
)

// Start opens the widget on a status tab: an immediate fetch followed by
// the fixed poll cadence. Calling Start while already running restarts
// against the given tab. There is never more than one ticker.
func (e *Engine) Start(tab support.Status) {
	e.mu.Lock()
	if e.pollCancel != nil {
		e.pollCancel()
		e.pollCancel = nil
	}
	e.generation++
	e.running = true
	gen := e.generation
	ctx, cancel := context.WithCancel(context.Background())
	e.pollCancel = cancel
	e.mu.Unlock()

	e.store.resetPending()
	e.store.SetTab(tab)
	go e.pollLoop(ctx, gen, tab)
}

// SetTab switches the viewed tab, restarting the single poll timer against
// the new tab's query. A no-op unless the engine is running.
func (e *Engine) SetTab(tab support.Status) {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		e.store.SetTab(tab)
		return
	}
	if e.pollCancel != nil {
		e.pollCancel()
	}
	gen := e.generation
	ctx, cancel := context.WithCancel(context.Background())
	e.pollCancel = cancel
	e.mu.Unlock()

	e.store.SetTab(tab)
	go e.pollLoop(ctx, gen, tab)
}

// Stop closes the widget: the timer is cancelled and the liveness
// generation advances so any still in-flight completion is dropped rather
// than mutating the store after teardown.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.pollCancel != nil {
		e.pollCancel()
		e.pollCancel = nil
	}
	e.running = false
	e.generation++
}

// pollLoop drives the fetch cadence for one tab until its context is
// cancelled by Stop or a tab change.
func (e *Engine) pollLoop(ctx context.Context, gen uint64, tab support.Status) {
	e.fetch(ctx, gen, tab)

	ticker := time.NewTicker(e.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.fetch(ctx, gen, tab)
		}
	}
}

// fetch pulls one snapshot and merges it. A failed fetch skips the merge
// entirely; the previous state is retained and the next tick retries. A
// single missed poll is a soft, logged failure, never a user-facing error.
func (e *Engine) fetch(ctx context.Context, gen uint64, tab support.Status) {
	reqCtx, cancel := context.WithTimeout(ctx, e.requestTimeout)
	list, err := e.client.ListConversations(reqCtx, tab)
	cancel()
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		if errors.Is(err, support.ErrUnauthorized) {
			e.log.Error().Err(err).Msg("session expired during poll")
			if e.live(gen) {
				e.emit(Event{Kind: EventUnauthorized, Err: err})
			}
			return
		}
		e.log.Warn().Err(err).Str("tab", string(tab)).Msg("poll failed, keeping previous state")
		return
	}
	if !e.live(gen) {
		return
	}
	e.store.ApplySnapshot(tab, list)
	e.emit(Event{Kind: EventSnapshot, Tab: tab})
}
