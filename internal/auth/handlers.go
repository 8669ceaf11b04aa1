package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	httperrors "github.com/bavakarni05/quizapp/pkg/http/errors"
)

// HTTPHandlers provides REST endpoints for authentication.
type HTTPHandlers struct {
	authSvc *Service
	logger  zerolog.Logger
}

// NewHTTPHandlers creates HTTP handlers for auth endpoints.
func NewHTTPHandlers(authSvc *Service, logger zerolog.Logger) *HTTPHandlers {
	return &HTTPHandlers{authSvc: authSvc, logger: logger}
}

type credentialsRequest struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	Password string `json:"password"`
}

// Signup handles POST /v1/auth/signup
func (h *HTTPHandlers) Signup(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}

	result, err := h.authSvc.Signup(r.Context(), req.Username, req.Role, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrUsernameTaken):
			httperrors.RespondError(w, http.StatusConflict, httperrors.ErrCodeAlreadyExists, err.Error())
		case errors.Is(err, ErrInvalidRole), errors.Is(err, ErrPasswordTooShort):
			httperrors.RespondBadRequest(w, httperrors.ErrCodeValidationFailed, err.Error())
		default:
			h.logger.Error().Err(err).Msg("signup failed")
			httperrors.RespondInternalError(w, httperrors.ErrCodeSignupFailed, "Could not create account")
		}
		return
	}

	respondJSON(w, http.StatusCreated, authResponse(result))
}

// Login handles POST /v1/auth/login
func (h *HTTPHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}

	result, err := h.authSvc.Login(r.Context(), req.Username, req.Role, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidCredentials):
			httperrors.RespondUnauthorized(w, httperrors.ErrCodeLoginFailed, "Invalid username or password")
		case errors.Is(err, ErrInvalidRole):
			httperrors.RespondBadRequest(w, httperrors.ErrCodeValidationFailed, err.Error())
		default:
			h.logger.Error().Err(err).Msg("login failed")
			httperrors.RespondInternalError(w, httperrors.ErrCodeLoginFailed, "Could not sign in")
		}
		return
	}

	respondJSON(w, http.StatusOK, authResponse(result))
}

func authResponse(result AuthResult) map[string]any {
	return map[string]any{
		"user_id":  result.UserID,
		"username": result.Username,
		"role":     result.Role,
		"token":    result.Token,
	}
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
