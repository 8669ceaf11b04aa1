package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// QuestionRow is one quiz question as stored.
type QuestionRow struct {
	ID               uuid.UUID
	RoomID           uuid.UUID
	Prompt           string
	Options          []string
	CorrectAnswer    int
	TimeLimitSeconds int
	ImageURL         string
	Position         int
}

// QuestionRepository contains DB helpers for quiz content.
type QuestionRepository struct {
	db DBTX
}

// NewQuestionRepository constructs a question repository.
func NewQuestionRepository(db DBTX) *QuestionRepository {
	return &QuestionRepository{db: db}
}

// Insert appends a question to the room's list, taking the next position.
func (r *QuestionRepository) Insert(ctx context.Context, q QuestionRow) (QuestionRow, error) {
	const stmt = `
		INSERT INTO questions (question_id, room_id, prompt, options, correct_answer, time_limit_seconds, image_url, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7,
			(SELECT COALESCE(MAX(position), 0) + 1 FROM questions WHERE room_id = $2))
		RETURNING question_id, room_id, prompt, options, correct_answer, time_limit_seconds, image_url, position`

	var out QuestionRow
	err := r.db.QueryRow(ctx, stmt, uuid.New(), q.RoomID, q.Prompt, q.Options, q.CorrectAnswer, q.TimeLimitSeconds, q.ImageURL).
		Scan(&out.ID, &out.RoomID, &out.Prompt, &out.Options, &out.CorrectAnswer, &out.TimeLimitSeconds, &out.ImageURL, &out.Position)
	if err != nil {
		return QuestionRow{}, fmt.Errorf("insert question: %w", err)
	}
	return out, nil
}

// ListByRoom returns the room's questions in play order.
func (r *QuestionRepository) ListByRoom(ctx context.Context, roomID uuid.UUID) ([]QuestionRow, error) {
	const q = `
		SELECT question_id, room_id, prompt, options, correct_answer, time_limit_seconds, image_url, position
		FROM questions WHERE room_id = $1
		ORDER BY position`

	rows, err := r.db.Query(ctx, q, roomID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	defer rows.Close()

	var questions []QuestionRow
	for rows.Next() {
		var question QuestionRow
		if err := rows.Scan(&question.ID, &question.RoomID, &question.Prompt, &question.Options,
			&question.CorrectAnswer, &question.TimeLimitSeconds, &question.ImageURL, &question.Position); err != nil {
			return nil, err
		}
		questions = append(questions, question)
	}
	return questions, rows.Err()
}
