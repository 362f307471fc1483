package engine

import "github.com/fitdeskhq/fitdesk/internal/support"

// ApplySnapshot reconciles a freshly fetched tab list into the store.
//
// Non-selected conversations are replaced wholesale; the server is
// authoritative when no local mutation is pending. The selected
// conversation keeps its fully materialized history: confirmed messages
// are merged by server id with the fetched copy winning, so a sparser
// summary fetch never truncates the open thread. Pending sends live in
// the overlay and survive any snapshot untouched.
//
// The merge is idempotent: applying the same snapshot twice yields an
// identical store.
func (s *Store) ApplySnapshot(tab support.Status, fetched []support.Conversation) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]support.Conversation, 0, len(fetched))
	selectedSeen := false
	for _, conv := range fetched {
		conv = conv.Clone()
		if conv.ID == s.selectedID {
			selectedSeen = true
			if local := s.findLocked(conv.ID); local != nil {
				conv.Messages = mergeMessages(local.Messages, conv.Messages)
			}
		}
		conv.Normalize()
		next = append(next, conv)
	}
	s.conversations[tab] = next

	// The selected conversation left this tab server-side (resolved or
	// archived by another session): close the pane rather than pin a
	// record the snapshot no longer carries.
	if s.selectedID != "" && tab == s.tab && !selectedSeen && s.findLocked(s.selectedID) == nil {
		s.selectedID = ""
	}
}

// mergeMessages unions confirmed local messages with a fetched list.
// Same server id wins once, fetched copy authoritative for its fields;
// local messages the fetch did not carry are preserved. The result is
// re-derived into (CreatedAt, ID) order, never arrival order.
func mergeMessages(local, fetched []support.Message) []support.Message {
	byID := make(map[string]struct{}, len(fetched))
	merged := make([]support.Message, 0, len(local)+len(fetched))
	for _, message := range fetched {
		if !message.Pending() {
			byID[message.ID] = struct{}{}
		}
		merged = append(merged, message)
	}
	for _, message := range local {
		if message.Pending() {
			// Pending sends are tracked in the overlay, not the
			// confirmed history.
			continue
		}
		if _, ok := byID[message.ID]; ok {
			continue
		}
		merged = append(merged, message)
	}
	support.SortMessages(merged)
	return merged
}
