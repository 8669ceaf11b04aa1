package quiz

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/bavakarni05/quizapp/internal/auth"
	httperrors "github.com/bavakarni05/quizapp/pkg/http/errors"
	"github.com/bavakarni05/quizapp/pkg/http/ws"
)

// Handler manages WebSocket connections and routes quiz messages to the
// coordinator.
type Handler struct {
	coordinator *Coordinator
	hub         *ws.Hub
	authSvc     *auth.Service
	logger      zerolog.Logger
}

// NewHandler creates a quiz WebSocket handler.
func NewHandler(coordinator *Coordinator, hub *ws.Hub, authSvc *auth.Service, logger zerolog.Logger) *Handler {
	return &Handler{
		coordinator: coordinator,
		hub:         hub,
		authSvc:     authSvc,
		logger:      logger.With().Str("component", "quiz_handler").Logger(),
	}
}

// HandleConnection processes an authenticated WebSocket connection until it
// closes. Token validation happens before this is called.
func (h *Handler) HandleConnection(conn *websocket.Conn, userID, username, role string) {
	wsConn := ws.NewConnection(conn, h.logger)
	h.hub.RegisterConnection(userID, wsConn)

	go wsConn.WritePump()

	wsConn.ReadPump(func(msg ws.Message) error {
		return h.handleMessage(context.Background(), userID, username, role, msg)
	})

	h.hub.UnregisterConnection(userID)
}

func (h *Handler) handleMessage(ctx context.Context, userID, username, role string, msg ws.Message) error {
	switch msg.Type {
	case ws.TypeJoinRoom:
		return h.handleJoinRoom(userID, username, msg.Payload)
	case ws.TypeStartGame:
		return h.handleStartGame(ctx, userID, role, msg.Payload)
	case ws.TypeSubmitAnswer:
		return h.handleSubmitAnswer(userID, msg.Payload)
	case ws.TypeNextQuestion:
		return h.handleNextQuestion(userID, role, msg.Payload)
	case ws.TypeLeaveRoom:
		return h.handleLeaveRoom(userID, msg.Payload)
	case ws.TypePing:
		return h.hub.SendToUser(userID, ws.Message{Type: ws.TypePong})
	default:
		return h.sendError(userID, httperrors.ErrCodeUnknownMessageType, fmt.Sprintf("Unknown message type: %s", msg.Type))
	}
}

func (h *Handler) handleJoinRoom(userID, username string, payload json.RawMessage) error {
	var req ws.JoinRoomPayload
	if err := json.Unmarshal(payload, &req); err != nil || req.RoomKey == "" {
		return h.sendError(userID, httperrors.ErrCodeInvalidPayload, "Invalid join_room payload")
	}

	h.hub.JoinRoom(req.RoomKey, userID)

	update := ws.PlayerJoinedPayload{
		RoomKey:     req.RoomKey,
		UserID:      userID,
		DisplayName: username,
		Players:     h.hub.RoomMembers(req.RoomKey),
	}
	msg, err := ws.NewMessage(ws.TypePlayerJoined, update)
	if err != nil {
		return err
	}
	return h.hub.BroadcastToRoom(req.RoomKey, msg)
}

func (h *Handler) handleStartGame(ctx context.Context, userID, role string, payload json.RawMessage) error {
	var req ws.StartGamePayload
	if err := json.Unmarshal(payload, &req); err != nil || req.RoomKey == "" {
		return h.sendError(userID, httperrors.ErrCodeInvalidPayload, "Invalid start_game payload")
	}
	if role != auth.RoleHost {
		return h.sendError(userID, httperrors.ErrCodeForbidden, "Only the host can start the quiz")
	}

	if err := h.coordinator.StartGame(ctx, req.RoomKey); err != nil {
		h.logger.Error().Err(err).Str("room_key", req.RoomKey).Msg("failed to start quiz")
		return h.sendError(userID, httperrors.ErrCodeStartFailed, "Could not start the quiz")
	}
	return nil
}

func (h *Handler) handleSubmitAnswer(userID string, payload json.RawMessage) error {
	var req ws.SubmitAnswerPayload
	if err := json.Unmarshal(payload, &req); err != nil || req.RoomKey == "" || req.QuestionID == "" {
		return h.sendError(userID, httperrors.ErrCodeInvalidPayload, "Invalid submit_answer payload")
	}

	h.coordinator.SubmitAnswer(req.RoomKey, userID, req.QuestionID, req.SelectedOption, req.TimeTakenSeconds)
	return nil
}

func (h *Handler) handleNextQuestion(userID, role string, payload json.RawMessage) error {
	var req ws.NextQuestionPayload
	if err := json.Unmarshal(payload, &req); err != nil || req.RoomKey == "" {
		return h.sendError(userID, httperrors.ErrCodeInvalidPayload, "Invalid next_question payload")
	}
	if role != auth.RoleHost {
		return h.sendError(userID, httperrors.ErrCodeForbidden, "Only the host can skip questions")
	}

	h.coordinator.ForceAdvance(req.RoomKey)
	return nil
}

func (h *Handler) handleLeaveRoom(userID string, payload json.RawMessage) error {
	var req ws.LeaveRoomPayload
	if err := json.Unmarshal(payload, &req); err != nil || req.RoomKey == "" {
		return h.sendError(userID, httperrors.ErrCodeInvalidPayload, "Invalid leave_room payload")
	}

	h.hub.LeaveRoom(req.RoomKey, userID)
	return nil
}

func (h *Handler) sendError(userID, code, message string) error {
	msg, err := ws.NewMessage(ws.TypeError, ws.ErrorPayload{Code: code, Message: message})
	if err != nil {
		return err
	}
	return h.hub.SendToUser(userID, msg)
}
