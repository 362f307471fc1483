package support

import "time"

// Participant is the external customer on the other side of a conversation.
// Owned by the customer directory; referenced here only.
type Participant struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// Conversation is one support thread between a participant and staff.
// Messages hold the (CreatedAt, ID)-ordered history; LastMessageAt is
// derived and recomputed on every mutation. UnreadForStaff counts
// participant-authored messages staff has not acknowledged; it is never
// negative and the server value is authoritative on every fetch.
type Conversation struct {
	ID             string      `json:"id"`
	Participant    Participant `json:"participant"`
	Status         Status      `json:"status"`
	Messages       []Message   `json:"messages,omitempty"`
	LastMessageAt  time.Time   `json:"lastMessageAt"`
	UnreadForStaff int         `json:"unreadForStaff"`
}

// Normalize re-derives the ordering invariant and the derived fields after
// any mutation: messages sorted by (CreatedAt, ID), LastMessageAt taken
// from the final message, unread clamped at zero.
func (c *Conversation) Normalize() {
	SortMessages(c.Messages)
	if n := len(c.Messages); n > 0 {
		c.LastMessageAt = c.Messages[n-1].CreatedAt
	}
	if c.UnreadForStaff < 0 {
		c.UnreadForStaff = 0
	}
}

// AppendMessage inserts a message preserving the ordering invariant.
// Messages already present under the same server id are replaced rather
// than duplicated; the fetched/confirmed copy wins.
func (c *Conversation) AppendMessage(message Message) {
	if !message.Pending() {
		for i := range c.Messages {
			if c.Messages[i].ID == message.ID {
				c.Messages[i] = message
				c.Normalize()
				return
			}
		}
	}
	c.Messages = append(c.Messages, message)
	c.Normalize()
}

// Clone returns a deep copy so callers can hand conversations to the UI
// without aliasing the store's slices.
func (c Conversation) Clone() Conversation {
	out := c
	if len(c.Messages) > 0 {
		out.Messages = append([]Message(nil), c.Messages...)
	}
	return out
}
