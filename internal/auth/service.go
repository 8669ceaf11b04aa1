package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/bavakarni05/quizapp/internal/db/repository"
)

// Account roles. The same username may register once per role; a host and a
// player with the same name are distinct accounts.
const (
	RoleHost   = "host"
	RolePlayer = "player"
)

var (
	ErrInvalidRole        = errors.New("role must be host or player")
	ErrUsernameTaken      = errors.New("username already registered for this role")
	ErrInvalidCredentials = errors.New("invalid username or password")
)

type userStore interface {
	Create(ctx context.Context, username, role, passwordHash string) (repository.User, error)
	GetByID(ctx context.Context, userID uuid.UUID) (repository.User, error)
	GetByUsernameRole(ctx context.Context, username, role string) (repository.User, error)
}

// Service implements signup, login and token validation.
type Service struct {
	users  userStore
	tokens *TokenManager
	logger zerolog.Logger
}

// NewService creates the auth service.
func NewService(users userStore, tokens *TokenManager, logger zerolog.Logger) *Service {
	return &Service{
		users:  users,
		tokens: tokens,
		logger: logger.With().Str("component", "auth").Logger(),
	}
}

// AuthResult is a signed-in identity plus its session token.
type AuthResult struct {
	UserID   string
	Username string
	Role     string
	Token    string
}

// Signup registers a new (username, role) account and signs it in.
func (s *Service) Signup(ctx context.Context, username, role, password string) (AuthResult, error) {
	if err := validRole(role); err != nil {
		return AuthResult{}, err
	}
	if username == "" {
		return AuthResult{}, errors.New("username is required")
	}

	if _, err := s.users.GetByUsernameRole(ctx, username, role); err == nil {
		return AuthResult{}, ErrUsernameTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return AuthResult{}, fmt.Errorf("check username: %w", err)
	}

	hash, err := HashPassword(password)
	if err != nil {
		return AuthResult{}, err
	}

	user, err := s.users.Create(ctx, username, role, hash)
	if err != nil {
		return AuthResult{}, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info().Str("user_id", user.ID.String()).Str("role", role).Msg("user registered")
	return s.issue(user)
}

// Login verifies credentials for the (username, role) account.
func (s *Service) Login(ctx context.Context, username, role, password string) (AuthResult, error) {
	if err := validRole(role); err != nil {
		return AuthResult{}, err
	}

	user, err := s.users.GetByUsernameRole(ctx, username, role)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return AuthResult{}, ErrInvalidCredentials
		}
		return AuthResult{}, fmt.Errorf("lookup user: %w", err)
	}

	if err := VerifyPassword(user.PasswordHash, password); err != nil {
		return AuthResult{}, ErrInvalidCredentials
	}

	return s.issue(user)
}

// ValidateToken checks a session token and returns its claims.
func (s *Service) ValidateToken(token string) (*Claims, error) {
	return s.tokens.Validate(token)
}

func (s *Service) issue(user repository.User) (AuthResult, error) {
	token, err := s.tokens.Generate(user.ID.String(), user.Username, user.Role)
	if err != nil {
		return AuthResult{}, fmt.Errorf("sign token: %w", err)
	}
	return AuthResult{
		UserID:   user.ID.String(),
		Username: user.Username,
		Role:     user.Role,
		Token:    token,
	}, nil
}

func validRole(role string) error {
	if role != RoleHost && role != RolePlayer {
		return ErrInvalidRole
	}
	return nil
}
