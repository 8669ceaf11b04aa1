package question

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/bavakarni05/quizapp/internal/db/repository"
)

var (
	ErrInvalidPrompt    = errors.New("prompt is required")
	ErrTooFewOptions    = errors.New("at least two options are required")
	ErrBadCorrectAnswer = errors.New("correct answer must index an option")
	ErrInvalidTimeLimit = errors.New("time limit must be positive")
)

// Question is quiz content as served over the REST surface. The correct
// answer index is included here; these endpoints are host-facing.
type Question struct {
	ID               string   `json:"id"`
	RoomID           string   `json:"room_id"`
	Prompt           string   `json:"prompt"`
	Options          []string `json:"options"`
	CorrectAnswer    int      `json:"correct_answer"`
	TimeLimitSeconds int      `json:"time_limit_seconds"`
	ImageURL         string   `json:"image_url,omitempty"`
	Position         int      `json:"position"`
}

// ListCache is Redis-backed caching of per-room question lists.
type ListCache interface {
	Get(ctx context.Context, roomID uuid.UUID) ([]Question, error)
	Set(ctx context.Context, roomID uuid.UUID, questions []Question) error
	Invalidate(ctx context.Context, roomID uuid.UUID) error
}

// Service manages quiz content for rooms.
type Service struct {
	repo   *repository.QuestionRepository
	cache  ListCache
	logger zerolog.Logger
}

// NewService creates the question service. cache may be nil.
func NewService(repo *repository.QuestionRepository, cache ListCache, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		cache:  cache,
		logger: logger.With().Str("component", "question").Logger(),
	}
}

// Add validates and appends a question to the room's list.
func (s *Service) Add(ctx context.Context, roomID uuid.UUID, q Question) (Question, error) {
	if q.Prompt == "" {
		return Question{}, ErrInvalidPrompt
	}
	if len(q.Options) < 2 {
		return Question{}, ErrTooFewOptions
	}
	if q.CorrectAnswer < 0 || q.CorrectAnswer >= len(q.Options) {
		return Question{}, ErrBadCorrectAnswer
	}
	if q.TimeLimitSeconds <= 0 {
		return Question{}, ErrInvalidTimeLimit
	}

	row, err := s.repo.Insert(ctx, repository.QuestionRow{
		RoomID:           roomID,
		Prompt:           q.Prompt,
		Options:          q.Options,
		CorrectAnswer:    q.CorrectAnswer,
		TimeLimitSeconds: q.TimeLimitSeconds,
		ImageURL:         q.ImageURL,
	})
	if err != nil {
		return Question{}, fmt.Errorf("add question: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, roomID); err != nil {
			s.logger.Debug().Err(err).Str("room_id", roomID.String()).Msg("cache invalidation failed")
		}
	}
	return fromRow(row), nil
}

// List returns the room's questions in play order, through the cache when
// one is configured.
func (s *Service) List(ctx context.Context, roomID uuid.UUID) ([]Question, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, roomID)
		if err != nil {
			s.logger.Debug().Err(err).Str("room_id", roomID.String()).Msg("cache read failed")
		} else if cached != nil {
			return cached, nil
		}
	}

	rows, err := s.repo.ListByRoom(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	questions := make([]Question, len(rows))
	for i, row := range rows {
		questions[i] = fromRow(row)
	}

	if s.cache != nil && len(questions) > 0 {
		if err := s.cache.Set(ctx, roomID, questions); err != nil {
			s.logger.Debug().Err(err).Str("room_id", roomID.String()).Msg("cache write failed")
		}
	}
	return questions, nil
}

func fromRow(row repository.QuestionRow) Question {
	return Question{
		ID:               row.ID.String(),
		RoomID:           row.RoomID.String(),
		Prompt:           row.Prompt,
		Options:          row.Options,
		CorrectAnswer:    row.CorrectAnswer,
		TimeLimitSeconds: row.TimeLimitSeconds,
		ImageURL:         row.ImageURL,
		Position:         row.Position,
	}
}
