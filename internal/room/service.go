package room

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/bavakarni05/quizapp/internal/db/repository"
	"github.com/bavakarni05/quizapp/internal/quiz"
	"github.com/bavakarni05/quizapp/pkg/http/ws"
)

var (
	ErrRoomNotFound    = errors.New("room not found")
	ErrInvalidHostPin  = errors.New("invalid host pin")
	ErrRoomNotJoinable = errors.New("room is not accepting players")
	ErrNameTaken       = errors.New("name already taken in this room")
	ErrNoFreeRoomCode  = errors.New("no free room code")
)

// room codes avoid ambiguous characters
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const (
	codeLength   = 6
	codeAttempts = 5
)

// Starter begins the live quiz for a room.
type Starter interface {
	StartGame(ctx context.Context, roomKey string) error
}

type roomStore interface {
	Create(ctx context.Context, quizName, roomCode, hostPin string, hostID uuid.UUID) (repository.Room, error)
	GetByKey(ctx context.Context, roomKey string) (repository.Room, error)
	AddPlayer(ctx context.Context, roomID, userID uuid.UUID, displayName string) error
	ListPlayers(ctx context.Context, roomID uuid.UUID) ([]repository.RoomPlayer, error)
	HasPlayerName(ctx context.Context, roomID uuid.UUID, displayName string) (bool, error)
	ClearPlayers(ctx context.Context, roomID uuid.UUID) error
	ListByHost(ctx context.Context, hostID uuid.UUID) ([]repository.Room, error)
	ListByPlayer(ctx context.Context, userID uuid.UUID) ([]repository.Room, error)
}

// Service manages quiz lobbies: creation, the join flows for players and
// returning hosts, and lookups.
type Service struct {
	rooms  roomStore
	hub    *ws.Hub
	logger zerolog.Logger
}

// NewService creates the room service.
func NewService(rooms roomStore, hub *ws.Hub, logger zerolog.Logger) *Service {
	return &Service{
		rooms:  rooms,
		hub:    hub,
		logger: logger.With().Str("component", "room").Logger(),
	}
}

// Create opens a new lobby with a fresh join code and host pin.
func (s *Service) Create(ctx context.Context, hostID uuid.UUID, quizName string) (repository.Room, error) {
	pin := fmt.Sprintf("%04d", rand.Intn(10000))

	lastErr := ErrNoFreeRoomCode
	for attempt := 0; attempt < codeAttempts; attempt++ {
		code := randomCode()
		if _, err := s.rooms.GetByKey(ctx, code); err == nil {
			continue
		} else if !errors.Is(err, repository.ErrNotFound) {
			return repository.Room{}, err
		}

		room, err := s.rooms.Create(ctx, quizName, code, pin, hostID)
		if err != nil {
			lastErr = err
			continue
		}
		s.logger.Info().
			Str("room_id", room.ID.String()).
			Str("room_code", room.RoomCode).
			Msg("room created")
		return room, nil
	}
	return repository.Room{}, fmt.Errorf("allocate room code: %w", lastErr)
}

// JoinAsPlayer adds a player to a waiting room under a display name that is
// unique within the room, then notifies the room roster.
func (s *Service) JoinAsPlayer(ctx context.Context, roomKey string, userID uuid.UUID, displayName string) (repository.Room, error) {
	room, err := s.get(ctx, roomKey)
	if err != nil {
		return repository.Room{}, err
	}
	if room.Status != quiz.RoomStatusWaiting {
		return repository.Room{}, ErrRoomNotJoinable
	}

	taken, err := s.rooms.HasPlayerName(ctx, room.ID, displayName)
	if err != nil {
		return repository.Room{}, err
	}
	if taken {
		return repository.Room{}, ErrNameTaken
	}

	if err := s.rooms.AddPlayer(ctx, room.ID, userID, displayName); err != nil {
		return repository.Room{}, err
	}

	s.announceJoin(ctx, room, userID, displayName)
	return room, nil
}

// JoinAsHost lets the host reclaim a room with its pin. The roster is
// cleared so the lobby starts fresh.
func (s *Service) JoinAsHost(ctx context.Context, roomKey, hostPin string) (repository.Room, error) {
	room, err := s.get(ctx, roomKey)
	if err != nil {
		return repository.Room{}, err
	}
	if room.HostPin != hostPin {
		return repository.Room{}, ErrInvalidHostPin
	}

	if err := s.rooms.ClearPlayers(ctx, room.ID); err != nil {
		return repository.Room{}, err
	}
	return room, nil
}

// Get returns a room by UUID or join code.
func (s *Service) Get(ctx context.Context, roomKey string) (repository.Room, error) {
	return s.get(ctx, roomKey)
}

// Players returns the room roster.
func (s *Service) Players(ctx context.Context, roomKey string) ([]repository.RoomPlayer, error) {
	room, err := s.get(ctx, roomKey)
	if err != nil {
		return nil, err
	}
	return s.rooms.ListPlayers(ctx, room.ID)
}

// ListByHost returns rooms created by a host.
func (s *Service) ListByHost(ctx context.Context, hostID uuid.UUID) ([]repository.Room, error) {
	return s.rooms.ListByHost(ctx, hostID)
}

// ListByPlayer returns rooms a user participated in.
func (s *Service) ListByPlayer(ctx context.Context, userID uuid.UUID) ([]repository.Room, error) {
	return s.rooms.ListByPlayer(ctx, userID)
}

func (s *Service) get(ctx context.Context, roomKey string) (repository.Room, error) {
	room, err := s.rooms.GetByKey(ctx, roomKey)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return repository.Room{}, ErrRoomNotFound
		}
		return repository.Room{}, err
	}
	return room, nil
}

func (s *Service) announceJoin(ctx context.Context, room repository.Room, userID uuid.UUID, displayName string) {
	players, err := s.rooms.ListPlayers(ctx, room.ID)
	if err != nil {
		s.logger.Warn().Err(err).Str("room_id", room.ID.String()).Msg("failed to list roster for join event")
		return
	}
	names := make([]string, len(players))
	for i, p := range players {
		names[i] = p.DisplayName
	}

	msg, err := ws.NewMessage(ws.TypePlayerJoined, ws.PlayerJoinedPayload{
		RoomKey:     room.ID.String(),
		UserID:      userID.String(),
		DisplayName: displayName,
		Players:     names,
	})
	if err != nil {
		return
	}
	if err := s.hub.BroadcastToRoom(room.ID.String(), msg); err != nil {
		s.logger.Debug().Err(err).Str("room_id", room.ID.String()).Msg("join broadcast skipped")
	}
}

func randomCode() string {
	code := make([]byte, codeLength)
	for i := range code {
		code[i] = codeAlphabet[rand.Intn(len(codeAlphabet))]
	}
	return string(code)
}
