// Package support holds the domain model for staff support conversations:
// conversations, messages, and the status lifecycle shared by the sync
// engine, the HTTP client, and the chat widget.
package support

import (
	"sort"
	"strings"
	"time"
)

// Author identifies which side of a conversation wrote a message.
type Author string

const (
	AuthorParticipant Author = "participant"
	AuthorStaff       Author = "staff"
)

// Message is a single immutable entry in a conversation. ID is assigned by
// the server at persistence time and is empty while a send is in flight;
// LocalID is the client-generated correlation id carried by optimistic
// sends so a confirmation can be matched to its pending entry.
type Message struct {
	ID             string    `json:"id"`
	LocalID        string    `json:"localId,omitempty"`
	ConversationID string    `json:"conversationId"`
	Author         Author    `json:"author"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Pending reports whether the message has not yet been confirmed by the
// server.
func (m Message) Pending() bool {
	return strings.TrimSpace(m.ID) == ""
}

// Less is the total order over messages: (CreatedAt, ID) ascending. It is
// the only ordering ever applied to a conversation's message list.
func (m Message) Less(other Message) bool {
	if !m.CreatedAt.Equal(other.CreatedAt) {
		return m.CreatedAt.Before(other.CreatedAt)
	}
	return m.ID < other.ID
}

// SortMessages sorts in place by (CreatedAt, ID). Stable so repeated sorts
// of an already-ordered list are no-ops.
func SortMessages(messages []Message) {
	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].Less(messages[j])
	})
}
