package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// User is a registered participant. The same username may exist once per
// role, mirroring the separate host and player sign-in surfaces.
type User struct {
	ID           uuid.UUID
	Username     string
	Role         string
	PasswordHash string
	Score        int
	CreatedAt    time.Time
}

// UserAnswerRow is one accepted answer as persisted for history.
type UserAnswerRow struct {
	UserID           uuid.UUID
	QuestionID       uuid.UUID
	SelectedOption   int
	IsCorrect        bool
	TimeTakenSeconds int
	CreatedAt        time.Time
}

// UserRepository contains DB helpers for users and their answer history.
type UserRepository struct {
	db DBTX
}

// NewUserRepository constructs a user repository.
func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a user with credentials. Violating the (username, role)
// uniqueness surfaces as a database error the caller maps.
func (r *UserRepository) Create(ctx context.Context, username, role, passwordHash string) (User, error) {
	const q = `
		INSERT INTO users (user_id, username, role, password_hash)
		VALUES ($1, $2, $3, $4)
		RETURNING user_id, username, role, password_hash, score, created_at`

	var u User
	err := r.db.QueryRow(ctx, q, uuid.New(), username, role, passwordHash).
		Scan(&u.ID, &u.Username, &u.Role, &u.PasswordHash, &u.Score, &u.CreatedAt)
	if err != nil {
		return User{}, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

// GetByID fetches one user.
func (r *UserRepository) GetByID(ctx context.Context, userID uuid.UUID) (User, error) {
	const q = `
		SELECT user_id, username, role, password_hash, score, created_at
		FROM users WHERE user_id = $1`

	var u User
	err := r.db.QueryRow(ctx, q, userID).
		Scan(&u.ID, &u.Username, &u.Role, &u.PasswordHash, &u.Score, &u.CreatedAt)
	if err != nil {
		return User{}, mapNoRows(err)
	}
	return u, nil
}

// GetByUsernameRole fetches the user registered under (username, role).
func (r *UserRepository) GetByUsernameRole(ctx context.Context, username, role string) (User, error) {
	const q = `
		SELECT user_id, username, role, password_hash, score, created_at
		FROM users WHERE username = $1 AND role = $2`

	var u User
	err := r.db.QueryRow(ctx, q, username, role).
		Scan(&u.ID, &u.Username, &u.Role, &u.PasswordHash, &u.Score, &u.CreatedAt)
	if err != nil {
		return User{}, mapNoRows(err)
	}
	return u, nil
}

// IncrementScore adds delta to the user's all-time score.
func (r *UserRepository) IncrementScore(ctx context.Context, userID uuid.UUID, delta int) error {
	const q = `UPDATE users SET score = score + $2 WHERE user_id = $1`

	tag, err := r.db.Exec(ctx, q, userID, delta)
	if err != nil {
		return fmt.Errorf("increment score: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// AppendAnswer records one accepted answer.
func (r *UserRepository) AppendAnswer(ctx context.Context, row UserAnswerRow) error {
	const q = `
		INSERT INTO user_answers (user_id, question_id, selected_option, is_correct, time_taken_seconds)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.db.Exec(ctx, q, row.UserID, row.QuestionID, row.SelectedOption, row.IsCorrect, row.TimeTakenSeconds)
	if err != nil {
		return fmt.Errorf("insert answer: %w", err)
	}
	return nil
}

// ListAnswers returns the user's answer history, newest first.
func (r *UserRepository) ListAnswers(ctx context.Context, userID uuid.UUID) ([]UserAnswerRow, error) {
	const q = `
		SELECT user_id, question_id, selected_option, is_correct, time_taken_seconds, created_at
		FROM user_answers WHERE user_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}
	defer rows.Close()

	var answers []UserAnswerRow
	for rows.Next() {
		var a UserAnswerRow
		if err := rows.Scan(&a.UserID, &a.QuestionID, &a.SelectedOption, &a.IsCorrect, &a.TimeTakenSeconds, &a.CreatedAt); err != nil {
			return nil, err
		}
		answers = append(answers, a)
	}
	return answers, rows.Err()
}

// ResolveDisplayNames maps user IDs to usernames.
func (r *UserRepository) ResolveDisplayNames(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]string, error) {
	const q = `SELECT user_id, username FROM users WHERE user_id = ANY($1)`

	rows, err := r.db.Query(ctx, q, userIDs)
	if err != nil {
		return nil, fmt.Errorf("resolve names: %w", err)
	}
	defer rows.Close()

	names := make(map[uuid.UUID]string, len(userIDs))
	for rows.Next() {
		var id uuid.UUID
		var username string
		if err := rows.Scan(&id, &username); err != nil {
			return nil, err
		}
		names[id] = username
	}
	return names, rows.Err()
}
