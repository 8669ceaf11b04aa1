package user

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/bavakarni05/quizapp/internal/auth"
	"github.com/bavakarni05/quizapp/internal/db/repository"
	httperrors "github.com/bavakarni05/quizapp/pkg/http/errors"
)

// HTTPHandlers provides REST endpoints for user profiles and history.
type HTTPHandlers struct {
	users  *repository.UserRepository
	logger zerolog.Logger
}

// NewHTTPHandlers creates HTTP handlers for user endpoints.
func NewHTTPHandlers(users *repository.UserRepository, logger zerolog.Logger) *HTTPHandlers {
	return &HTTPHandlers{
		users:  users,
		logger: logger.With().Str("component", "user_http").Logger(),
	}
}

// GetMe handles GET /v1/users/me
func (h *HTTPHandlers) GetMe(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFromContext(r.Context())
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeInvalidToken, "Invalid user identity")
		return
	}

	user, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			httperrors.RespondNotFound(w, httperrors.ErrCodeNotFound, "User not found")
			return
		}
		h.logger.Error().Err(err).Msg("failed to load user")
		httperrors.RespondInternalError(w, httperrors.ErrCodeInternalError, "Could not load user")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"user_id":    user.ID.String(),
		"username":   user.Username,
		"role":       user.Role,
		"score":      user.Score,
		"created_at": user.CreatedAt.Format(time.RFC3339),
	})
}

// GetMyAnswers handles GET /v1/users/me/answers
func (h *HTTPHandlers) GetMyAnswers(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFromContext(r.Context())
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeInvalidToken, "Invalid user identity")
		return
	}

	answers, err := h.users.ListAnswers(r.Context(), userID)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list answers")
		httperrors.RespondInternalError(w, httperrors.ErrCodeInternalError, "Could not list answers")
		return
	}

	type answerResponse struct {
		QuestionID       string `json:"question_id"`
		SelectedOption   int    `json:"selected_option"`
		IsCorrect        bool   `json:"is_correct"`
		TimeTakenSeconds int    `json:"time_taken_seconds"`
		AnsweredAt       string `json:"answered_at"`
	}
	out := make([]answerResponse, len(answers))
	for i, a := range answers {
		out[i] = answerResponse{
			QuestionID:       a.QuestionID.String(),
			SelectedOption:   a.SelectedOption,
			IsCorrect:        a.IsCorrect,
			TimeTakenSeconds: a.TimeTakenSeconds,
			AnsweredAt:       a.CreatedAt.Format(time.RFC3339),
		}
	}
	respondJSON(w, http.StatusOK, map[string]any{"answers": out})
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
