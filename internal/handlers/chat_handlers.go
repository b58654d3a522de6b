package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"convohub-backend/internal/models"
	"convohub-backend/internal/services"
	"convohub-backend/pkg/httputil"

	"github.com/go-chi/chi/v5"
)

// ChatHandlers serves one chat feature's HTTP surface. The same handler type
// backs every feature; only the bound Feature differs.
type ChatHandlers struct {
	chatService *services.ChatService
	feature     models.Feature
}

// NewChatHandlers creates handlers bound to one feature.
func NewChatHandlers(chatService *services.ChatService, feature models.Feature) *ChatHandlers {
	return &ChatHandlers{
		chatService: chatService,
		feature:     feature,
	}
}

// HandleAsk runs one turn of the feature's conversation.
func (h *ChatHandlers) HandleAsk(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := GetSessionID(r)
	if !ok {
		httputil.RespondError(w, http.StatusBadRequest, "Missing session")
		return
	}

	var req models.AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.chatService.Answer(r.Context(), services.AnswerParams{
		Feature:        h.feature,
		SessionID:      sessionID,
		ConversationID: req.ConversationID,
		Query:          req.Message,
	})
	if err != nil {
		RespondServiceError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, models.AskResponse{
		Status:         "success",
		Answer:         result.Answer,
		ConversationID: result.ConversationID,
		Timestamp:      result.Timestamp.UTC().Format(time.RFC3339Nano),
	})
}

// HandleListConversations returns the session's most recent conversations.
func (h *ChatHandlers) HandleListConversations(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := GetSessionID(r)
	if !ok {
		httputil.RespondError(w, http.StatusBadRequest, "Missing session")
		return
	}

	entries, err := h.chatService.ListConversations(r.Context(), h.feature, sessionID)
	if err != nil {
		RespondServiceError(w, err)
		return
	}

	conversations := make([]models.ConversationSummary, 0, len(entries))
	for _, e := range entries {
		conversations = append(conversations, models.ConversationSummary{
			ConversationID: e.ConversationID,
			Title:          e.Title,
			Timestamp:      e.Timestamp,
		})
	}
	httputil.RespondJSON(w, http.StatusOK, models.ListConversationsResponse{
		Status:        "success",
		Conversations: conversations,
	})
}

// HandleGetConversation returns the recent messages of one conversation.
func (h *ChatHandlers) HandleGetConversation(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := GetSessionID(r)
	if !ok {
		httputil.RespondError(w, http.StatusBadRequest, "Missing session")
		return
	}
	conversationID := chi.URLParam(r, "conversationID")

	msgs, err := h.chatService.GetConversation(r.Context(), h.feature, sessionID, conversationID)
	if err != nil {
		RespondServiceError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, models.ConversationResponse{
		Status:   "success",
		Messages: toMessageDTOs(msgs),
	})
}

// HandleRecent returns each conversation's turns from its own latest
// calendar day.
func (h *ChatHandlers) HandleRecent(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := GetSessionID(r)
	if !ok {
		httputil.RespondError(w, http.StatusBadRequest, "Missing session")
		return
	}

	recent, err := h.chatService.RecentActivity(r.Context(), h.feature, sessionID)
	if err != nil {
		RespondServiceError(w, err)
		return
	}

	chats := make(map[string][]models.MessageDTO, len(recent))
	for conversationID, msgs := range recent {
		chats[conversationID] = toMessageDTOs(msgs)
	}
	httputil.RespondJSON(w, http.StatusOK, models.RecentActivityResponse{
		Status: "success",
		Chats:  chats,
	})
}
