package leaderboard

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/bavakarni05/quizapp/internal/quiz"
)

// Entry is one all-time leaderboard record.
type Entry struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	Score       int    `json:"score"`
	Rank        int    `json:"rank"`
}

// ServiceOptions configures the leaderboard service.
type ServiceOptions struct {
	TopN      int
	KeyPrefix string
}

// Service keeps the all-time leaderboard in Redis: a ZSET of scores plus a
// metadata hash per user. Final quiz scores are folded in as each room
// finishes.
type Service struct {
	redis  *redis.Client
	logger zerolog.Logger
	topN   int
	prefix string
}

var _ quiz.ResultRecorder = (*Service)(nil)

// NewService constructs a leaderboard service instance.
func NewService(redis *redis.Client, logger zerolog.Logger, opts ServiceOptions) *Service {
	topN := opts.TopN
	if topN <= 0 {
		topN = 50
	}
	prefix := opts.KeyPrefix
	if prefix == "" {
		prefix = "lb"
	}
	return &Service{
		redis:  redis,
		logger: logger.With().Str("component", "leaderboard").Logger(),
		topN:   topN,
		prefix: prefix,
	}
}

// RecordResult folds one player's final quiz score into the all-time board.
func (s *Service) RecordResult(ctx context.Context, userID, displayName string, score int) error {
	pipe := s.redis.TxPipeline()
	pipe.ZIncrBy(ctx, s.scoresKey(), float64(score), userID)
	pipe.HIncrBy(ctx, s.metaKey(userID), "games", 1)
	pipe.HSet(ctx, s.metaKey(userID), "display_name", displayName)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record leaderboard result: %w", err)
	}
	return nil
}

// Top retrieves the top N entries by all-time score.
func (s *Service) Top(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 || limit > s.topN {
		limit = s.topN
	}

	results, err := s.redis.ZRevRangeWithScores(ctx, s.scoresKey(), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("fetch leaderboard: %w", err)
	}

	entries := make([]Entry, 0, len(results))
	for i, z := range results {
		userID := z.Member.(string)
		name, err := s.redis.HGet(ctx, s.metaKey(userID), "display_name").Result()
		if err != nil && err != redis.Nil {
			s.logger.Warn().Err(err).Str("user_id", userID).Msg("failed to read leaderboard metadata")
		}
		if name == "" {
			name = userID
		}
		entries = append(entries, Entry{
			UserID:      userID,
			DisplayName: name,
			Score:       int(z.Score),
			Rank:        i + 1,
		})
	}
	return entries, nil
}

func (s *Service) scoresKey() string {
	return s.prefix + ":all_time"
}

func (s *Service) metaKey(userID string) string {
	return s.prefix + ":meta:" + userID
}
