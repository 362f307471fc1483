// Package engine implements the client-held mirror of server conversation
// state: an owned store, snapshot reconciliation, optimistic sends, unread
// accounting, the status lifecycle, and the polling scheduler that keeps
// the mirror eventually consistent without a push transport.
package engine

import (
	"strings"
	"sync"

	"github.com/fitdeskhq/fitdesk/internal/support"
)

// Store owns the mirrored conversation state for one staff session. All
// mutation goes through its mutex, which stands in for the single task
// queue of the browser widget: two completions never interleave.
//
// Confirmed server state lives in the per-tab lists; optimistic sends live
// in a separate pending overlay keyed by conversation and are combined with
// confirmed state only at read time. Applying a snapshot therefore can
// never drop a message the staff member just sent.
type Store struct {
	mu            sync.Mutex
	tab           support.Status
	conversations map[support.Status][]support.Conversation
	selectedID    string
	drafts        map[string]string
	pending       map[string][]support.Message
}

// NewStore returns an empty store viewing the active tab.
func NewStore() *Store {
	return &Store{
		tab:           support.StatusActive,
		conversations: make(map[support.Status][]support.Conversation),
		drafts:        make(map[string]string),
		pending:       make(map[string][]support.Message),
	}
}

// Tab returns the currently viewed status tab.
func (s *Store) Tab() support.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tab
}

// SetTab switches the viewed tab and clears the selection; the next
// snapshot repopulates the list.
func (s *Store) SetTab(tab support.Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tab = tab
	s.selectedID = ""
}

// Conversations returns a clone of the given tab's list.
func (s *Store) Conversations(tab support.Status) []support.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.conversations[tab]
	out := make([]support.Conversation, 0, len(list))
	for _, conv := range list {
		out = append(out, s.materializeLocked(conv))
	}
	return out
}

// Select marks a conversation in the viewed tab as selected and returns
// it. This is the only operation permitted to zero UnreadForStaff
// optimistically; the zero is provisional until the server confirms the
// mark-read on a later fetch.
func (s *Store) Select(id string) (support.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv := s.findLocked(id)
	if conv == nil {
		return support.Conversation{}, support.ErrNotFound
	}
	s.selectedID = conv.ID
	conv.UnreadForStaff = 0
	return s.materializeLocked(*conv), nil
}

// Selected returns the selected conversation, if any, with pending sends
// materialized into its message list.
func (s *Store) Selected() (support.Conversation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selectedID == "" {
		return support.Conversation{}, false
	}
	conv := s.findLocked(s.selectedID)
	if conv == nil {
		return support.Conversation{}, false
	}
	return s.materializeLocked(*conv), true
}

// SelectedID returns the selected conversation id, or "".
func (s *Store) SelectedID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectedID
}

// ClearSelection closes the detail pane. Used by status transitions, which
// are confirmed by fetch rather than applied optimistically to the lists.
func (s *Store) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selectedID = ""
}

// Upsert places a conversation into its status tab's list, replacing any
// record held under the same id elsewhere. Used when the backend returns a
// freshly started conversation ahead of the next snapshot.
func (s *Store) Upsert(conv support.Conversation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv = conv.Clone()
	conv.Normalize()
	for _, tab := range support.Statuses() {
		list := s.conversations[tab]
		for i := range list {
			if list[i].ID != conv.ID {
				continue
			}
			if tab == conv.Status {
				list[i] = conv
				return
			}
			s.conversations[tab] = append(list[:i], list[i+1:]...)
			break
		}
	}
	s.conversations[conv.Status] = append(s.conversations[conv.Status], conv)
}

// AppendMessage inserts a confirmed message into its conversation,
// preserving the ordering invariant and deduplicating by server id.
func (s *Store) AppendMessage(conversationID string, message support.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv := s.findLocked(conversationID)
	if conv == nil {
		return support.ErrNotFound
	}
	conv.AppendMessage(message)
	return nil
}

// Status returns the local lifecycle state of a conversation.
func (s *Store) Status(conversationID string) (support.Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv := s.findLocked(conversationID)
	if conv == nil {
		return "", support.ErrNotFound
	}
	return conv.Status, nil
}

// FindActiveByParticipant locates an active conversation for a participant.
// Used by the start-conversation fallback when the backend lacks the
// explicit create capability.
func (s *Store) FindActiveByParticipant(participantID string) (support.Conversation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.conversations[support.StatusActive] {
		conv := &s.conversations[support.StatusActive][i]
		if conv.Participant.ID == participantID {
			return s.materializeLocked(*conv), true
		}
	}
	return support.Conversation{}, false
}

// Draft returns the compose field contents for a conversation.
func (s *Store) Draft(conversationID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.drafts[conversationID]
}

// SetDraft stores the compose field contents verbatim. An empty value
// clears the draft.
func (s *Store) SetDraft(conversationID, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if conversationID = strings.TrimSpace(conversationID); conversationID == "" {
		return
	}
	if text == "" {
		delete(s.drafts, conversationID)
		return
	}
	s.drafts[conversationID] = text
}

// UnreadBadge is the aggregate unread count shown on the widget launcher.
// Only the active tab is actionable; viewing any other tab yields zero.
func (s *Store) UnreadBadge() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tab != support.StatusActive {
		return 0
	}
	total := 0
	for i := range s.conversations[support.StatusActive] {
		total += s.conversations[support.StatusActive][i].UnreadForStaff
	}
	return total
}

// addPending records an optimistic send in the overlay.
func (s *Store) addPending(conversationID string, message support.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[conversationID] = append(s.pending[conversationID], message)
}

// resetPending drops the whole overlay. Runs when the widget opens: any
// send still unconfirmed at the previous teardown was already dropped by
// the liveness gate and must not resurface.
func (s *Store) resetPending() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = make(map[string][]support.Message)
}

// removePending drops the overlay entry matching a correlation id, whether
// the send confirmed or failed.
func (s *Store) removePending(conversationID, localID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := s.pending[conversationID]
	for i := range entries {
		if entries[i].LocalID == localID {
			entries = append(entries[:i], entries[i+1:]...)
			break
		}
	}
	if len(entries) == 0 {
		delete(s.pending, conversationID)
		return
	}
	s.pending[conversationID] = entries
}

// findLocked returns a pointer into the stored lists, or nil.
func (s *Store) findLocked(id string) *support.Conversation {
	for _, tab := range support.Statuses() {
		list := s.conversations[tab]
		for i := range list {
			if list[i].ID == id {
				return &list[i]
			}
		}
	}
	return nil
}

// materializeLocked clones a conversation and folds the pending overlay
// into its message list, re-deriving the total order.
func (s *Store) materializeLocked(conv support.Conversation) support.Conversation {
	out := conv.Clone()
	if entries := s.pending[conv.ID]; len(entries) > 0 {
		out.Messages = append(out.Messages, entries...)
		out.Normalize()
	}
	return out
}
