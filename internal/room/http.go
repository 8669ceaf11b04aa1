package room

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

// HTTPHandlers provides REST endpoints for room operations.
type HTTPHandlers struct {
	service *Service
	starter Starter
	logger  zerolog.Logger
}

// NewHTTPHandlers creates HTTP handlers for room endpoints.
func NewHTTPHandlers(service *Service, starter Starter, logger zerolog.Logger) *HTTPHandlers {
	return &HTTPHandlers{
		service: service,
		starter: starter,
		logger:  logger.With().Str("component", "room_http").Logger(),
	}
}

type roomResponse struct {
	RoomID    string `json:"room_id"`
	QuizName  string `json:"quiz_name"`
	RoomCode  string `json:"room_code"`
	HostPin   string `json:"host_pin,omitempty"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
}

func toResponse(room repository.Room, includePin bool) roomResponse {
	resp := roomResponse{
		RoomID:    room.ID.String(),
		QuizName:  room.QuizName,
		RoomCode:  room.RoomCode,
		Status:    room.Status,
		CreatedAt: room.CreatedAt.Format(time.RFC3339),
	}
	if includePin {
		resp.HostPin = room.HostPin
	}
	return resp
}

// Create handles POST /v1/rooms
func (h *HTTPHandlers) Create(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFromContext(r.Context())
	hostID, err := uuid.Parse(claims.UserID)
	if err != nil {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeInvalidToken, "Invalid user identity")
		return
	}

	var req struct {
		QuizName string `json:"quiz_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.QuizName == "" {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "quiz_name is required")
		return
	}

	room, err := h.service.Create(r.Context(), hostID, req.QuizName)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to create room")
		httperrors.RespondInternalError(w, httperrors.ErrCodeRoomCreationFailed, "Could not create room")
		return
	}

	respondJSON(w, http.StatusCreated, toResponse(room, true))
}

// Get handles GET /v1/rooms/{roomKey}
func (h *HTTPHandlers) Get(w http.ResponseWriter, r *http.Request) {
	room, err := h.service.Get(r.Context(), r.PathValue("roomKey"))
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toResponse(room, false))
}

// JoinAsPlayer handles POST /v1/rooms/{roomKey}/join
func (h *HTTPHandlers) JoinAsPlayer(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFromContext(r.Context())
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeInvalidToken, "Invalid user identity")
		return
	}

	var req struct {
		DisplayName string `json:"display_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}
	if req.DisplayName == "" {
		req.DisplayName = claims.Username
	}

	room, err := h.service.JoinAsPlayer(r.Context(), r.PathValue("roomKey"), userID, req.DisplayName)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toResponse(room, false))
}

// JoinAsHost handles POST /v1/rooms/{roomKey}/host
func (h *HTTPHandlers) JoinAsHost(w http.ResponseWriter, r *http.Request) {
	var req struct {
		HostPin string `json:"host_pin"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.HostPin == "" {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "host_pin is required")
		return
	}

	room, err := h.service.JoinAsHost(r.Context(), r.PathValue("roomKey"), req.HostPin)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toResponse(room, true))
}

// Start handles POST /v1/rooms/{roomKey}/start
func (h *HTTPHandlers) Start(w http.ResponseWriter, r *http.Request) {
	roomKey := r.PathValue("roomKey")
	if err := h.starter.StartGame(r.Context(), roomKey); err != nil {
		h.logger.Error().Err(err).Str("room_key", roomKey).Msg("failed to start quiz")
		httperrors.RespondInternalError(w, httperrors.ErrCodeRoomStartFailed, "Could not start the quiz")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "started"})
}

// Players handles GET /v1/rooms/{roomKey}/players
func (h *HTTPHandlers) Players(w http.ResponseWriter, r *http.Request) {
	players, err := h.service.Players(r.Context(), r.PathValue("roomKey"))
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	type playerResponse struct {
		UserID      string `json:"user_id"`
		DisplayName string `json:"display_name"`
	}
	out := make([]playerResponse, len(players))
	for i, p := range players {
		out[i] = playerResponse{UserID: p.UserID.String(), DisplayName: p.DisplayName}
	}
	respondJSON(w, http.StatusOK, map[string]any{"players": out})
}

// ListMine handles GET /v1/rooms; hosts see rooms they created, players the
// rooms they joined.
func (h *HTTPHandlers) ListMine(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFromContext(r.Context())
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeInvalidToken, "Invalid user identity")
		return
	}

	var rooms []repository.Room
	if claims.Role == auth.RoleHost {
		rooms, err = h.service.ListByHost(r.Context(), userID)
	} else {
		rooms, err = h.service.ListByPlayer(r.Context(), userID)
	}
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list rooms")
		httperrors.RespondInternalError(w, httperrors.ErrCodeInternalError, "Could not list rooms")
		return
	}

	out := make([]roomResponse, len(rooms))
	for i, room := range rooms {
		out[i] = toResponse(room, claims.Role == auth.RoleHost)
	}
	respondJSON(w, http.StatusOK, map[string]any{"rooms": out})
}

func (h *HTTPHandlers) respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrRoomNotFound):
		httperrors.RespondNotFound(w, httperrors.ErrCodeRoomNotFound, "Room not found")
	case errors.Is(err, ErrInvalidHostPin):
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeInvalidHostPin, "Invalid host pin")
	case errors.Is(err, ErrRoomNotJoinable):
		httperrors.RespondError(w, http.StatusConflict, httperrors.ErrCodeRoomNotJoinable, "Room is not accepting players")
	case errors.Is(err, ErrNameTaken):
		httperrors.RespondError(w, http.StatusConflict, httperrors.ErrCodeNameTaken, "Name already taken in this room")
	default:
		h.logger.Error().Err(err).Msg("room operation failed")
		httperrors.RespondInternalError(w, httperrors.ErrCodeInternalError, "Internal error")
	}
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
