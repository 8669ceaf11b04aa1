package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Room is one quiz lobby. Rooms are addressed either by UUID or by their
// short join code; queries accepting a roomKey handle both.
type Room struct {
	ID        uuid.UUID
	QuizName  string
	RoomCode  string
	HostPin   string
	HostID    uuid.UUID
	Status    string
	CreatedAt time.Time
}

// RoomPlayer is a roster entry for a room.
type RoomPlayer struct {
	RoomID      uuid.UUID
	UserID      uuid.UUID
	DisplayName string
	JoinedAt    time.Time
}

// RoomRepository contains DB helpers for rooms and their rosters.
type RoomRepository struct {
	db DBTX
}

// NewRoomRepository constructs a room repository.
func NewRoomRepository(db DBTX) *RoomRepository {
	return &RoomRepository{db: db}
}

// Create persists a new room in waiting status.
func (r *RoomRepository) Create(ctx context.Context, quizName, roomCode, hostPin string, hostID uuid.UUID) (Room, error) {
	const q = `
		INSERT INTO rooms (room_id, quiz_name, room_code, host_pin, host_id, status)
		VALUES ($1, $2, $3, $4, $5, 'waiting')
		RETURNING room_id, quiz_name, room_code, host_pin, host_id, status, created_at`

	var room Room
	err := r.db.QueryRow(ctx, q, uuid.New(), quizName, roomCode, hostPin, hostID).
		Scan(&room.ID, &room.QuizName, &room.RoomCode, &room.HostPin, &room.HostID, &room.Status, &room.CreatedAt)
	if err != nil {
		return Room{}, fmt.Errorf("insert room: %w", err)
	}
	return room, nil
}

// GetByKey fetches a room by its UUID or its join code.
func (r *RoomRepository) GetByKey(ctx context.Context, roomKey string) (Room, error) {
	const q = `
		SELECT room_id, quiz_name, room_code, host_pin, host_id, status, created_at
		FROM rooms WHERE room_id::text = $1 OR room_code = $1`

	var room Room
	err := r.db.QueryRow(ctx, q, roomKey).
		Scan(&room.ID, &room.QuizName, &room.RoomCode, &room.HostPin, &room.HostID, &room.Status, &room.CreatedAt)
	if err != nil {
		return Room{}, mapNoRows(err)
	}
	return room, nil
}

// SetStatus transitions a room. Status only moves forward in practice
// (waiting -> active -> completed); callers enforce that.
func (r *RoomRepository) SetStatus(ctx context.Context, roomKey, status string) error {
	const q = `UPDATE rooms SET status = $2 WHERE room_id::text = $1 OR room_code = $1`

	tag, err := r.db.Exec(ctx, q, roomKey, status)
	if err != nil {
		return fmt.Errorf("set room status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// AddPlayer appends a user to the room roster.
func (r *RoomRepository) AddPlayer(ctx context.Context, roomID, userID uuid.UUID, displayName string) error {
	const q = `
		INSERT INTO room_players (room_id, user_id, display_name)
		VALUES ($1, $2, $3)
		ON CONFLICT (room_id, user_id) DO NOTHING`

	if _, err := r.db.Exec(ctx, q, roomID, userID, displayName); err != nil {
		return fmt.Errorf("add room player: %w", err)
	}
	return nil
}

// ListPlayers returns the room roster in join order.
func (r *RoomRepository) ListPlayers(ctx context.Context, roomID uuid.UUID) ([]RoomPlayer, error) {
	const q = `
		SELECT room_id, user_id, display_name, joined_at
		FROM room_players WHERE room_id = $1
		ORDER BY joined_at`

	rows, err := r.db.Query(ctx, q, roomID)
	if err != nil {
		return nil, fmt.Errorf("list room players: %w", err)
	}
	defer rows.Close()

	var players []RoomPlayer
	for rows.Next() {
		var p RoomPlayer
		if err := rows.Scan(&p.RoomID, &p.UserID, &p.DisplayName, &p.JoinedAt); err != nil {
			return nil, err
		}
		players = append(players, p)
	}
	return players, rows.Err()
}

// HasPlayerName reports whether displayName is already taken in the room.
func (r *RoomRepository) HasPlayerName(ctx context.Context, roomID uuid.UUID, displayName string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM room_players WHERE room_id = $1 AND display_name = $2)`

	var exists bool
	if err := r.db.QueryRow(ctx, q, roomID, displayName).Scan(&exists); err != nil {
		return false, fmt.Errorf("check player name: %w", err)
	}
	return exists, nil
}

// ClearPlayers empties the room roster. The host does this when reclaiming
// a room for a fresh run.
func (r *RoomRepository) ClearPlayers(ctx context.Context, roomID uuid.UUID) error {
	const q = `DELETE FROM room_players WHERE room_id = $1`

	if _, err := r.db.Exec(ctx, q, roomID); err != nil {
		return fmt.Errorf("clear room players: %w", err)
	}
	return nil
}

// ListByHost returns every room created by a host, newest first.
func (r *RoomRepository) ListByHost(ctx context.Context, hostID uuid.UUID) ([]Room, error) {
	const q = `
		SELECT room_id, quiz_name, room_code, host_pin, host_id, status, created_at
		FROM rooms WHERE host_id = $1
		ORDER BY created_at DESC`

	return r.queryRooms(ctx, q, hostID)
}

// ListByPlayer returns every room a user has joined, newest first.
func (r *RoomRepository) ListByPlayer(ctx context.Context, userID uuid.UUID) ([]Room, error) {
	const q = `
		SELECT r.room_id, r.quiz_name, r.room_code, r.host_pin, r.host_id, r.status, r.created_at
		FROM rooms r
		JOIN room_players p ON p.room_id = r.room_id
		WHERE p.user_id = $1
		ORDER BY r.created_at DESC`

	return r.queryRooms(ctx, q, userID)
}

func (r *RoomRepository) queryRooms(ctx context.Context, q string, args ...any) ([]Room, error) {
	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	defer rows.Close()

	var rooms []Room
	for rows.Next() {
		var room Room
		if err := rows.Scan(&room.ID, &room.QuizName, &room.RoomCode, &room.HostPin, &room.HostID, &room.Status, &room.CreatedAt); err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	return rooms, rows.Err()
}
