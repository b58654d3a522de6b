package handlers

import (
	"encoding/json"
	"net/http"

	"convohub-backend/internal/models"
	"convohub-backend/internal/services"
	"convohub-backend/pkg/httputil"
)

// SummarizeHandlers serves the stateless URL and audio summarizer endpoints.
type SummarizeHandlers struct {
	summarizeService *services.SummarizeService
}

// NewSummarizeHandlers creates a new SummarizeHandlers instance.
func NewSummarizeHandlers(summarizeService *services.SummarizeService) *SummarizeHandlers {
	return &SummarizeHandlers{summarizeService: summarizeService}
}

// HandleSummarizeURL fetches a page and returns a structured summary.
func (h *SummarizeHandlers) HandleSummarizeURL(w http.ResponseWriter, r *http.Request) {
	var req models.SummarizeURLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	summary, err := h.summarizeService.SummarizeURL(r.Context(), req.URL)
	if err != nil {
		RespondServiceError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, models.SummarizeResponse{
		Status:  "success",
		Summary: summary,
	})
}

// HandleSummarizeAudio transcribes an uploaded audio file and summarizes the
// transcript.
func (h *SummarizeHandlers) HandleSummarizeAudio(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, services.MaxAudioBytes+1)
	if err := r.ParseMultipartForm(services.MaxAudioBytes); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Audio file exceeds 1MB")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "No file part in request")
		return
	}
	defer file.Close()

	transcript, summary, err := h.summarizeService.SummarizeAudio(r.Context(), file, header.Filename)
	if err != nil {
		RespondServiceError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, models.TranscribeResponse{
		Status:     "success",
		Transcript: transcript,
		Summary:    summary,
	})
}
