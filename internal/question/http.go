package question

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	httperrors "github.com/bavakarni05/quizapp/pkg/http/errors"
)

// HTTPHandlers provides REST endpoints for quiz content.
type HTTPHandlers struct {
	service *Service
	logger  zerolog.Logger
}

// NewHTTPHandlers creates HTTP handlers for question endpoints.
func NewHTTPHandlers(service *Service, logger zerolog.Logger) *HTTPHandlers {
	return &HTTPHandlers{
		service: service,
		logger:  logger.With().Str("component", "question_http").Logger(),
	}
}

// Add handles POST /v1/rooms/{roomID}/questions
func (h *HTTPHandlers) Add(w http.ResponseWriter, r *http.Request) {
	roomID, err := uuid.Parse(r.PathValue("roomID"))
	if err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid room id")
		return
	}

	var req Question
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}

	created, err := h.service.Add(r.Context(), roomID, req)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidPrompt),
			errors.Is(err, ErrTooFewOptions),
			errors.Is(err, ErrBadCorrectAnswer),
			errors.Is(err, ErrInvalidTimeLimit):
			httperrors.RespondValidationError(w, httperrors.ErrCodeValidationFailed, err.Error(), "")
		default:
			h.logger.Error().Err(err).Str("room_id", roomID.String()).Msg("failed to add question")
			httperrors.RespondInternalError(w, httperrors.ErrCodeQuestionCreationFailed, "Could not add question")
		}
		return
	}

	respondJSON(w, http.StatusCreated, created)
}

// List handles GET /v1/rooms/{roomID}/questions
func (h *HTTPHandlers) List(w http.ResponseWriter, r *http.Request) {
	roomID, err := uuid.Parse(r.PathValue("roomID"))
	if err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid room id")
		return
	}

	questions, err := h.service.List(r.Context(), roomID)
	if err != nil {
		h.logger.Error().Err(err).Str("room_id", roomID.String()).Msg("failed to list questions")
		httperrors.RespondInternalError(w, httperrors.ErrCodeInternalError, "Could not list questions")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"questions": questions})
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
