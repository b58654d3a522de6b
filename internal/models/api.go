package models

// --- Request Structs ---

// AskRequest defines the body for the ask endpoint of every chat feature.
// ConversationID is optional; when absent the server mints a new conversation.
type AskRequest struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversation_id,omitempty"`
}

// DocAskRequest defines the body for asking questions about an uploaded document.
// The document ID doubles as the conversation ID for the document's chat.
type DocAskRequest struct {
	Query string `json:"query"`
	DocID string `json:"doc_id"`
}

// SummarizeURLRequest defines the body for the URL summarizer endpoint.
type SummarizeURLRequest struct {
	URL string `json:"url"`
}

// --- Response Structs ---

// MessageDTO is the wire representation of a stored message.
type MessageDTO struct {
	Type      string `json:"type"` // "human", "ai" or "system"
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"` // ISO-8601 UTC
}

// AskResponse is returned by every chat feature's ask endpoint.
type AskResponse struct {
	Status         string `json:"status"`
	Answer         string `json:"answer"`
	ConversationID string `json:"conversation_id"`
	Timestamp      string `json:"timestamp"`
}

// ConversationSummary is one entry of a session's conversation list.
type ConversationSummary struct {
	ConversationID string `json:"conversation_id"`
	Title          string `json:"title"`
	Timestamp      string `json:"timestamp"`
}

// ListConversationsResponse lists the most recent conversations of a session.
type ListConversationsResponse struct {
	Status        string                `json:"status"`
	Conversations []ConversationSummary `json:"conversations"`
}

// ConversationResponse returns the recent messages of one conversation.
type ConversationResponse struct {
	Status   string       `json:"status"`
	Messages []MessageDTO `json:"messages"`
}

// RecentActivityResponse maps conversation IDs to the turns that fall on each
// conversation's most recent calendar day.
type RecentActivityResponse struct {
	Status string                  `json:"status"`
	Chats  map[string][]MessageDTO `json:"chats"`
}

// UploadResponse is returned after a successful document ingestion.
type UploadResponse struct {
	Status       string `json:"status"`
	DocID        string `json:"doc_id"`
	ChunksStored int    `json:"chunks_stored"`
	Message      string `json:"message,omitempty"`
}

// SummarizeResponse is returned by the URL summarizer.
type SummarizeResponse struct {
	Status  string `json:"status"`
	Summary string `json:"summary"`
}

// TranscribeResponse is returned by the audio summarizer.
type TranscribeResponse struct {
	Status     string `json:"status"`
	Transcript string `json:"transcript"`
	Summary    string `json:"summary"`
}

// ErrorResponse defines the standard structure for API errors.
type ErrorResponse struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}
