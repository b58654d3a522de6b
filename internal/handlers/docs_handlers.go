package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"convohub-backend/internal/models"
	"convohub-backend/internal/services"
	"convohub-backend/pkg/httputil"

	"github.com/go-chi/chi/v5"
)

// DocsHandlers serves the document question-answering feature: PDF upload
// into a per-(session, document) collection plus RAG chat over it.
type DocsHandlers struct {
	chatService   *services.ChatService
	ingestService *services.IngestService
}

// NewDocsHandlers creates a new DocsHandlers instance.
func NewDocsHandlers(chatService *services.ChatService, ingestService *services.IngestService) *DocsHandlers {
	return &DocsHandlers{
		chatService:   chatService,
		ingestService: ingestService,
	}
}

// HandleUpload ingests an uploaded PDF into the session's vector namespace.
func (h *DocsHandlers) HandleUpload(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := GetSessionID(r)
	if !ok {
		httputil.RespondError(w, http.StatusBadRequest, "Missing session")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, services.MaxUploadBytes+1)
	if err := r.ParseMultipartForm(services.MaxUploadBytes); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "File size exceeds 2MB")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()

	if !strings.HasSuffix(strings.ToLower(header.Filename), ".pdf") {
		httputil.RespondError(w, http.StatusBadRequest, "Only PDF uploads are supported")
		return
	}

	result, err := h.ingestService.IngestPDF(r.Context(), sessionID, file, header.Filename)
	if err != nil {
		RespondServiceError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, models.UploadResponse{
		Status:       "success",
		DocID:        result.DocID,
		ChunksStored: result.ChunksStored,
		Message:      fmt.Sprintf("Stored %d chunks for %s", result.ChunksStored, header.Filename),
	})
}

// HandleAsk answers a question strictly from one uploaded document. The
// document ID doubles as the conversation ID, and the retrieval collection is
// derived from (session, document).
func (h *DocsHandlers) HandleAsk(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := GetSessionID(r)
	if !ok {
		httputil.RespondError(w, http.StatusBadRequest, "Missing session")
		return
	}

	var req models.DocAskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.DocID) == "" {
		httputil.RespondError(w, http.StatusBadRequest, "Missing doc_id")
		return
	}

	result, err := h.chatService.Answer(r.Context(), services.AnswerParams{
		Feature:        models.FeatureDocs,
		SessionID:      sessionID,
		ConversationID: req.DocID,
		Query:          req.Query,
		Collection:     models.DocCollection(sessionID, req.DocID),
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

// HandleList returns the session's uploaded documents.
func (h *DocsHandlers) HandleList(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := GetSessionID(r)
	if !ok {
		httputil.RespondError(w, http.StatusBadRequest, "Missing session")
		return
	}

	entries, err := h.chatService.ListConversations(r.Context(), models.FeatureDocs, sessionID)
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

// HandleGetChat returns the recent messages of one document's chat.
func (h *DocsHandlers) HandleGetChat(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := GetSessionID(r)
	if !ok {
		httputil.RespondError(w, http.StatusBadRequest, "Missing session")
		return
	}
	docID := chi.URLParam(r, "docID")

	msgs, err := h.chatService.GetConversation(r.Context(), models.FeatureDocs, sessionID, docID)
	if err != nil {
		RespondServiceError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, models.ConversationResponse{
		Status:   "success",
		Messages: toMessageDTOs(msgs),
	})
}
