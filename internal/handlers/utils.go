package handlers

import (
	"errors"
	"net/http"
	"time"

	"convohub-backend/internal/models"
	"convohub-backend/internal/services"
	"convohub-backend/internal/session"
	"convohub-backend/pkg/httputil"
)

// GetSessionID extracts the session identity injected by the middleware.
func GetSessionID(r *http.Request) (string, bool) {
	return session.FromContext(r.Context())
}

// RespondServiceError maps service-layer failures onto the API error shape:
// validation failures become 400s, everything else a 500. Raw collaborator
// errors never cross this boundary unwrapped.
func RespondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrChatValidation),
		errors.Is(err, services.ErrIngestValidation),
		errors.Is(err, services.ErrSummarizeValidation):
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
	default:
		httputil.RespondError(w, http.StatusInternalServerError, err.Error())
	}
}

// toMessageDTOs converts stored messages to their wire representation. Roles
// outside the closed taxonomy cannot occur for loaded messages; they are
// skipped rather than invented.
func toMessageDTOs(msgs []models.Message) []models.MessageDTO {
	dtos := make([]models.MessageDTO, 0, len(msgs))
	for _, m := range msgs {
		wireType, err := m.Role.WireType()
		if err != nil {
			continue
		}
		dtos = append(dtos, models.MessageDTO{
			Type:      wireType,
			Content:   m.Content,
			Timestamp: m.Timestamp.UTC().Format(time.RFC3339Nano),
		})
	}
	return dtos
}
