package store

import (
	"context"
	"errors"

	"convohub-backend/internal/models"
)

// ErrUnavailable is returned when the backing store cannot be reached. A
// failed append means the turn was not durably saved; callers must not assume
// success.
var ErrUnavailable = errors.New("conversation store unavailable")

// IndexEntry is one record of a session's conversation registry.
type IndexEntry struct {
	ConversationID string
	Title          string
	Timestamp      string // ISO-8601 UTC, assigned at registration time
}

// HistoryWindow is the number of most recent messages returned by
// LoadMessages and the number of index entries returned by ListConversations.
const HistoryWindow = 20

// RecentScanWindow bounds how many raw entries the daily-window filter reads
// per conversation.
const RecentScanWindow = 5000

// Store defines conversation persistence. Keys are namespaced per feature:
//
//	<feature>_chat:<session_id>:<conversation_id>  (conversation log)
//	<feature>_chat_list:<session_id>               (conversation index)
//
// Every write refreshes the key's 7-day expiry. Loading an absent key returns
// an empty result, never an error; absence is normal.
type Store interface {
	// AppendMessages appends msgs to the conversation log in the given order.
	// All messages of one call land contiguously; per-key ordering across
	// concurrent callers is delegated to the underlying store's append
	// semantics.
	AppendMessages(ctx context.Context, feature, sessionID, conversationID string, msgs []models.Message) error

	// LoadMessages returns the most recent HistoryWindow messages of a
	// conversation, oldest first.
	LoadMessages(ctx context.Context, feature, sessionID, conversationID string) ([]models.Message, error)

	// RegisterConversation appends an index entry for a newly minted
	// conversation. It is called once, on the first turn; the store does not
	// de-duplicate.
	RegisterConversation(ctx context.Context, feature, sessionID string, entry IndexEntry) error

	// ListConversations returns the most recent HistoryWindow index entries
	// of a session, in stored order.
	ListConversations(ctx context.Context, feature, sessionID string) ([]IndexEntry, error)

	// RecentMessages returns, per conversation of the session, the messages
	// whose timestamp falls on the same UTC calendar day as that
	// conversation's own latest message. A conversation with no entries
	// anchors to the current wall-clock UTC midnight and contributes an
	// empty log.
	RecentMessages(ctx context.Context, feature, sessionID string) (map[string][]models.Message, error)
}
