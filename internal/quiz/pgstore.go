package quiz

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/bavakarni05/quizapp/internal/db/repository"
)

// PGStore adapts the Postgres repositories to the live-session Store
// interface.
type PGStore struct {
	rooms     *repository.RoomRepository
	questions *repository.QuestionRepository
	users     *repository.UserRepository
}

// NewPGStore wires the repositories behind Store.
func NewPGStore(rooms *repository.RoomRepository, questions *repository.QuestionRepository, users *repository.UserRepository) *PGStore {
	return &PGStore{rooms: rooms, questions: questions, users: users}
}

var _ Store = (*PGStore)(nil)

// LoadQuestions resolves the room by UUID or join code and returns its
// question list in play order.
func (s *PGStore) LoadQuestions(ctx context.Context, roomKey string) ([]Question, error) {
	room, err := s.rooms.GetByKey(ctx, roomKey)
	if err != nil {
		return nil, fmt.Errorf("resolve room %q: %w", roomKey, err)
	}

	rows, err := s.questions.ListByRoom(ctx, room.ID)
	if err != nil {
		return nil, err
	}

	questions := make([]Question, len(rows))
	for i, row := range rows {
		questions[i] = Question{
			ID:               row.ID.String(),
			Prompt:           row.Prompt,
			Options:          row.Options,
			CorrectAnswer:    row.CorrectAnswer,
			TimeLimitSeconds: row.TimeLimitSeconds,
			ImageURL:         row.ImageURL,
		}
	}
	return questions, nil
}

// SetRoomStatus transitions the room in durable storage.
func (s *PGStore) SetRoomStatus(ctx context.Context, roomKey, status string) error {
	return s.rooms.SetStatus(ctx, roomKey, status)
}

// IncrementUserScore folds points into the user's all-time score.
func (s *PGStore) IncrementUserScore(ctx context.Context, userID uuid.UUID, delta int) error {
	return s.users.IncrementScore(ctx, userID, delta)
}

// AppendUserAnswer records one accepted answer for history.
func (s *PGStore) AppendUserAnswer(ctx context.Context, answer UserAnswer) error {
	questionID, err := uuid.Parse(answer.QuestionID)
	if err != nil {
		return fmt.Errorf("parse question id %q: %w", answer.QuestionID, err)
	}
	return s.users.AppendAnswer(ctx, repository.UserAnswerRow{
		UserID:           answer.UserID,
		QuestionID:       questionID,
		SelectedOption:   answer.SelectedOption,
		IsCorrect:        answer.IsCorrect,
		TimeTakenSeconds: answer.TimeTakenSeconds,
	})
}

// ResolveDisplayNames maps user IDs to usernames for the leaderboard.
func (s *PGStore) ResolveDisplayNames(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]string, error) {
	return s.users.ResolveDisplayNames(ctx, userIDs)
}
