package quiz

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/bavakarni05/quizapp/pkg/http/ws"
)

// Room status values persisted through the durable store.
const (
	RoomStatusWaiting   = "waiting"
	RoomStatusActive    = "active"
	RoomStatusCompleted = "completed"
)

// Question is read-only quiz content served during a live session.
type Question struct {
	ID               string
	Prompt           string
	Options          []string
	CorrectAnswer    int // index into Options
	TimeLimitSeconds int
	ImageURL         string
}

// RecordedAnswer is the write-once ledger entry for one (question, user) pair.
type RecordedAnswer struct {
	SelectedOption   int
	TimeTakenSeconds int
	IsCorrect        bool
	PointsAwarded    int
}

// UserAnswer is the durable form of an accepted answer.
type UserAnswer struct {
	UserID           uuid.UUID
	QuestionID       string
	SelectedOption   int
	IsCorrect        bool
	TimeTakenSeconds int
}

// Store is the durable storage the coordinator reads questions from and
// writes results to. Implementations must be safe for concurrent use.
type Store interface {
	LoadQuestions(ctx context.Context, roomKey string) ([]Question, error)
	SetRoomStatus(ctx context.Context, roomKey, status string) error
	IncrementUserScore(ctx context.Context, userID uuid.UUID, delta int) error
	AppendUserAnswer(ctx context.Context, answer UserAnswer) error
	ResolveDisplayNames(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]string, error)
}

// Broadcaster delivers events to every member of a room or to one specific
// connection. *ws.Hub satisfies it; tests substitute a recording fake.
type Broadcaster interface {
	BroadcastToRoom(roomKey string, msg ws.Message) error
	SendToUser(userID string, msg ws.Message) error
	DropRoom(roomKey string)
}

// ResultRecorder receives final per-player results at quiz end, e.g. for a
// global leaderboard. Optional.
type ResultRecorder interface {
	RecordResult(ctx context.Context, userID, displayName string, score int) error
}

var (
	// ErrAlreadyActive is returned when a session already exists for a room.
	// Callers treat it as a benign duplicate trigger.
	ErrAlreadyActive = errors.New("session already active for room")
	// ErrDuplicateAnswer marks a second submission for the same question
	// and user; the first answer stands.
	ErrDuplicateAnswer = errors.New("answer already recorded")
)
