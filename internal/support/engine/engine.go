package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/fitdeskhq/fitdesk/internal/support"
	"github.com/fitdeskhq/fitdesk/internal/support/api"
)

const (
	defaultPollInterval   = 5 * time.Second
	defaultRequestTimeout = 10 * time.Second
	defaultUpdateBuffer   = 64
)

// EventKind tags an engine update for the consuming UI.
type EventKind string

const (
	// EventSnapshot fires after a fetched snapshot was merged.
	EventSnapshot EventKind = "snapshot"
	// EventMessageConfirmed fires when an optimistic send was confirmed
	// and the canonical message appended.
	EventMessageConfirmed EventKind = "message-confirmed"
	// EventSendFailed fires when a send failed and the draft was restored.
	EventSendFailed EventKind = "send-failed"
	// EventMarkReadFailed fires when the async read acknowledgement
	// failed; the local zero is kept and the next fetch re-establishes
	// the authoritative count.
	EventMarkReadFailed EventKind = "mark-read-failed"
	// EventStatusSent fires once a lifecycle transition was accepted by
	// the server; the list moves tabs on the next fetch.
	EventStatusSent EventKind = "status-sent"
	// EventStatusFailed fires when a lifecycle transition was rejected.
	EventStatusFailed EventKind = "status-failed"
	// EventUnauthorized fires on session expiry; the outer layer owns
	// teardown.
	EventUnauthorized EventKind = "unauthorized"
)

// Event is one engine update. Err is set for the failure kinds and is a
// recoverable notice, not a crash.
type Event struct {
	Kind           EventKind
	Tab            support.Status
	ConversationID string
	Err            error
}

// Config assembles an Engine.
type Config struct {
	Client api.Client
	// PollInterval is the snapshot cadence while the widget is open.
	PollInterval time.Duration
	// RequestTimeout bounds individual network calls.
	RequestTimeout time.Duration
	// UpdateBuffer sizes the Updates channel.
	UpdateBuffer int
	Logger       zerolog.Logger
	// Now is injectable for tests.
	Now func() time.Time
}

// Engine coordinates the store, the remote client, and the polling
// scheduler for one staff session. All completions are gated on a
// generation token captured when their request was issued, so a response
// arriving after Stop (or a later Start) is dropped instead of mutating a
// torn-down store.
type Engine struct {
	store          *Store
	client         api.Client
	log            zerolog.Logger
	pollInterval   time.Duration
	requestTimeout time.Duration
	updates        chan Event
	now            func() time.Time

	mu         sync.Mutex
	running    bool
	generation uint64
	pollCancel context.CancelFunc
}

// New builds an Engine around an empty store.
func New(cfg Config) (*Engine, error) {
	if cfg.Client == nil {
		return nil, fmt.Errorf("client required")
	}
	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	requestTimeout := cfg.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = defaultRequestTimeout
	}
	buffer := cfg.UpdateBuffer
	if buffer <= 0 {
		buffer = defaultUpdateBuffer
	}
	now := cfg.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Engine{
		store:          NewStore(),
		client:         cfg.Client,
		log:            cfg.Logger,
		pollInterval:   pollInterval,
		requestTimeout: requestTimeout,
		updates:        make(chan Event, buffer),
		now:            now,
	}, nil
}

// Store exposes the mirrored state for reads.
func (e *Engine) Store() *Store { return e.store }

// Updates streams engine events. The channel is buffered; events are
// dropped, not blocked on, when the consumer lags.
func (e *Engine) Updates() <-chan Event { return e.updates }

// Select marks a conversation selected, zeroes its unread count in the
// same call, and fires the read acknowledgement asynchronously. Selection
// never blocks on the network; a failed acknowledgement keeps the local
// zero and lets the next fetch re-establish the server's count.
func (e *Engine) Select(id string) (support.Conversation, error) {
	conv, err := e.store.Select(id)
	if err != nil {
		return support.Conversation{}, err
	}
	gen := e.token()
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), e.requestTimeout)
		defer cancel()
		if err := e.client.MarkRead(ctx, id); err != nil {
			e.log.Warn().Err(err).Str("conversation_id", id).Msg("mark read failed")
			if e.live(gen) {
				e.emit(Event{Kind: EventMarkReadFailed, ConversationID: id, Err: err})
			}
		}
	}()
	return conv, nil
}

// Send performs an optimistic send: the compose draft is cleared
// immediately, a pending message enters the overlay under a fresh
// correlation id, and the create call is issued in the background. On
// success the canonical server message replaces the pending entry; on
// failure the pending entry is removed and the submitted text is restored
// verbatim for manual retry.
func (e *Engine) Send(conversationID, text string) error {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return support.ErrEmptyMessage
	}
	if _, err := e.store.Status(conversationID); err != nil {
		return err
	}

	localID := uuid.NewString()
	e.store.SetDraft(conversationID, "")
	e.store.addPending(conversationID, support.Message{
		LocalID:        localID,
		ConversationID: conversationID,
		Author:         support.AuthorStaff,
		Content:        trimmed,
		CreatedAt:      e.now(),
	})

	gen := e.token()
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), e.requestTimeout)
		defer cancel()
		message, err := e.client.SendMessage(ctx, conversationID, trimmed, localID)
		if !e.live(gen) {
			return
		}
		e.store.removePending(conversationID, localID)
		if err != nil {
			e.store.SetDraft(conversationID, text)
			e.log.Warn().Err(err).Str("conversation_id", conversationID).Msg("send failed, draft restored")
			e.emit(Event{Kind: EventSendFailed, ConversationID: conversationID, Err: err})
			return
		}
		if err := e.store.AppendMessage(conversationID, message); err != nil {
			e.log.Warn().Err(err).Str("conversation_id", conversationID).Msg("confirmed message had no conversation")
			return
		}
		e.emit(Event{Kind: EventMessageConfirmed, ConversationID: conversationID})
	}()
	return nil
}

// SetStatus moves a conversation along the lifecycle. Illegal edges are
// rejected locally with ErrInvalidTransition. The transition is not
// optimistic for list placement: the detail pane closes now, the list
// moves tabs only once a subsequent fetch confirms.
func (e *Engine) SetStatus(conversationID string, to support.Status) error {
	from, err := e.store.Status(conversationID)
	if err != nil {
		return err
	}
	if err := support.Transition(from, to); err != nil {
		return err
	}
	if e.store.SelectedID() == conversationID {
		e.store.ClearSelection()
	}

	gen := e.token()
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), e.requestTimeout)
		defer cancel()
		err := e.client.SetStatus(ctx, conversationID, to)
		if !e.live(gen) {
			return
		}
		if err != nil {
			e.log.Warn().Err(err).Str("conversation_id", conversationID).Str("status", string(to)).Msg("status change failed")
			e.emit(Event{Kind: EventStatusFailed, ConversationID: conversationID, Err: err})
			return
		}
		e.emit(Event{Kind: EventStatusSent, ConversationID: conversationID, Tab: to})
	}()
	return nil
}

// StartConversation opens a thread with a participant. When the backend
// lacks the capability it degrades to locating that participant's active
// conversation and queuing the message there; with no such conversation
// the error reports the action as unavailable.
func (e *Engine) StartConversation(ctx context.Context, participantID, text string) (support.Conversation, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return support.Conversation{}, support.ErrEmptyMessage
	}
	conv, err := e.client.StartConversation(ctx, participantID, trimmed)
	if err == nil {
		conv.Normalize()
		e.store.Upsert(conv)
		return conv, nil
	}
	if !errors.Is(err, support.ErrNotSupported) {
		return support.Conversation{}, err
	}
	existing, ok := e.store.FindActiveByParticipant(participantID)
	if !ok {
		return support.Conversation{}, fmt.Errorf("%w: no active conversation for participant %s", support.ErrNotSupported, participantID)
	}
	if err := e.Send(existing.ID, trimmed); err != nil {
		return support.Conversation{}, err
	}
	return existing, nil
}

// emit delivers an event without ever blocking engine goroutines.
func (e *Engine) emit(event Event) {
	select {
	case e.updates <- event:
	default:
		e.log.Debug().Str("kind", string(event.Kind)).Msg("update dropped, consumer lagging")
	}
}

// token captures the current liveness generation for an in-flight request.
func (e *Engine) token() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.generation
}

// live reports whether a completion issued under gen may still mutate the
// store.
func (e *Engine) live(gen uint64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running && e.generation == gen
}
