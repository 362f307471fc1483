// Package api defines the remote support surface consumed by the sync
// engine and its HTTP implementation. The engine never talks HTTP shapes;
// it sees domain types and sentinel errors only.
package api

import (
	"context"

	"github.com/fitdeskhq/fitdesk/internal/support"
)

// Client abstracts the back-office support endpoints. Implementations must
// map "capability missing" responses to support.ErrNotSupported and expired
// sessions to support.ErrUnauthorized so the engine can apply its
// degradation rules.
type Client interface {
	// ListConversations returns the full snapshot for one status tab.
	ListConversations(ctx context.Context, status support.Status) ([]support.Conversation, error)
	// StartConversation opens a thread with a participant's first message.
	// May fail with support.ErrNotSupported.
	StartConversation(ctx context.Context, participantID, text string) (support.Conversation, error)
	// SendMessage persists a staff message. localID is the client
	// correlation id echoed back for dedup on retries.
	SendMessage(ctx context.Context, conversationID, text, localID string) (support.Message, error)
	// MarkRead acknowledges all participant messages in a conversation.
	MarkRead(ctx context.Context, conversationID string) error
	// SetStatus moves a conversation along the lifecycle.
	SetStatus(ctx context.Context, conversationID string, status support.Status) error
}
