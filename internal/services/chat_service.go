package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"convohub-backend/internal/llm"
	"convohub-backend/internal/models"
	"convohub-backend/internal/store"
	"convohub-backend/internal/vector"

	"github.com/google/uuid"
)

// Custom errors for the chat service.
var (
	ErrChatValidation = errors.New("chat validation failed")
)

// titleLength is how much of the first query becomes the conversation title.
const titleLength = 40

// defaultTopK is the number of passages retrieved per query when the feature
// does not override it.
const defaultTopK = 3

// ChatService runs the retrieval-augmented answering protocol shared by
// every chat feature: load history, append the user turn, retrieve grounding
// context, generate, append the assistant turn, persist the delta.
type ChatService struct {
	store store.Store
	index vector.Index
	llm   llm.Client
}

// NewChatService creates a new ChatService.
func NewChatService(s store.Store, index vector.Index, llmClient llm.Client) *ChatService {
	return &ChatService{
		store: s,
		index: index,
		llm:   llmClient,
	}
}

// AnswerParams identifies one query against one feature's conversation.
type AnswerParams struct {
	Feature        models.Feature
	SessionID      string
	ConversationID string // empty mints a new conversation
	Query          string
	// Collection overrides the feature's collection; the doc feature derives
	// it per request from (session, document).
	Collection string
}

// AnswerResult carries the reply and the (possibly newly minted)
// conversation identity.
type AnswerResult struct {
	Answer         string
	ConversationID string
	Timestamp      time.Time
}

// Answer executes the answering protocol. Validation failures mutate no
// store state; a collaborator failure after the user turn was appended
// in-memory leaves the persisted log at its last durable state.
func (s *ChatService) Answer(ctx context.Context, p AnswerParams) (*AnswerResult, error) {
	query := strings.TrimSpace(p.Query)
	if query == "" {
		return nil, fmt.Errorf("%w: message cannot be empty", ErrChatValidation)
	}
	if p.SessionID == "" {
		return nil, fmt.Errorf("%w: session is required", ErrChatValidation)
	}

	feature := p.Feature
	conversationID := strings.TrimSpace(p.ConversationID)
	if conversationID == "" {
		conversationID = uuid.New().String()
		entry := store.IndexEntry{
			ConversationID: conversationID,
			Title:          conversationTitle(query),
			Timestamp:      time.Now().UTC().Format(time.RFC3339Nano),
		}
		if err := s.store.RegisterConversation(ctx, feature.Name, p.SessionID, entry); err != nil {
			return nil, fmt.Errorf("failed to register conversation: %w", err)
		}
		log.Printf("[ChatService] Answer: minted conversation %s for session %s (feature %s)", conversationID, p.SessionID, feature.Name)
	}

	history, err := s.store.LoadMessages(ctx, feature.Name, p.SessionID, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation history: %w", err)
	}

	humanMsg := models.NewMessage(models.RoleHuman, query)

	// The system prompt is synthesized per request and never persisted.
	prompt := make([]models.Message, 0, len(history)+3)
	prompt = append(prompt, models.NewMessage(models.RoleSystem, feature.SystemPrompt))

	collection := p.Collection
	if collection == "" {
		collection = feature.Collection
	}
	if collection != "" {
		topK := feature.TopK
		if topK <= 0 {
			topK = defaultTopK
		}
		docs, err := s.index.Search(ctx, collection, query, topK)
		if err != nil {
			return nil, fmt.Errorf("failed to retrieve context: %w", err)
		}
		// Zero retrieved documents is not an error; the persona prompt
		// decides how to answer without grounding.
		if len(docs) > 0 {
			prompt = append(prompt, models.NewMessage(models.RoleSystem, contextBlock(docs)))
		}
	}

	prompt = append(prompt, history...)
	prompt = append(prompt, humanMsg)

	answer, err := s.llm.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to generate answer: %w", err)
	}
	answer = strings.TrimSpace(answer)
	assistantMsg := models.NewMessage(models.RoleAssistant, answer)

	// Only the new human+assistant pair is persisted; older turns are
	// already durable in the store.
	if err := s.store.AppendMessages(ctx, feature.Name, p.SessionID, conversationID, []models.Message{humanMsg, assistantMsg}); err != nil {
		return nil, fmt.Errorf("failed to persist turn: %w", err)
	}

	return &AnswerResult{
		Answer:         answer,
		ConversationID: conversationID,
		Timestamp:      assistantMsg.Timestamp,
	}, nil
}

// GetConversation returns the most recent messages of one conversation.
// An unknown conversation yields an empty log.
func (s *ChatService) GetConversation(ctx context.Context, feature models.Feature, sessionID, conversationID string) ([]models.Message, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("%w: session is required", ErrChatValidation)
	}
	if strings.TrimSpace(conversationID) == "" {
		return nil, fmt.Errorf("%w: conversation_id is required", ErrChatValidation)
	}
	msgs, err := s.store.LoadMessages(ctx, feature.Name, sessionID, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}
	return msgs, nil
}

// ListConversations returns the session's most recent conversation entries.
func (s *ChatService) ListConversations(ctx context.Context, feature models.Feature, sessionID string) ([]store.IndexEntry, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("%w: session is required", ErrChatValidation)
	}
	entries, err := s.store.ListConversations(ctx, feature.Name, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	return entries, nil
}

// RecentActivity returns each conversation's turns that fall on its own most
// recent calendar day.
func (s *ChatService) RecentActivity(ctx context.Context, feature models.Feature, sessionID string) (map[string][]models.Message, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("%w: session is required", ErrChatValidation)
	}
	recent, err := s.store.RecentMessages(ctx, feature.Name, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load recent activity: %w", err)
	}
	return recent, nil
}

// conversationTitle derives a display title from the opening query.
func conversationTitle(query string) string {
	runes := []rune(query)
	if len(runes) <= titleLength {
		return query
	}
	return string(runes[:titleLength])
}

// contextBlock formats retrieved passages as grounding instructions.
func contextBlock(docs []vector.Document) string {
	var b strings.Builder
	b.WriteString("Use the following retrieved context to answer the user's question:\n")
	for i, doc := range docs {
		b.WriteString(fmt.Sprintf("\n[%d] %s\n", i+1, doc.Content))
	}
	return b.String()
}
