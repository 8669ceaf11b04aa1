package leaderboard

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewService(client, zerolog.Nop(), ServiceOptions{})
}

func TestRecordResultAccumulates(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.RecordResult(ctx, "user-1", "alice", 17))
	require.NoError(t, svc.RecordResult(ctx, "user-1", "alice", 12))
	require.NoError(t, svc.RecordResult(ctx, "user-2", "bob", 20))

	entries, err := svc.Top(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, Entry{UserID: "user-1", DisplayName: "alice", Score: 29, Rank: 1}, entries[0])
	assert.Equal(t, Entry{UserID: "user-2", DisplayName: "bob", Score: 20, Rank: 2}, entries[1])
}

func TestTopRespectsLimit(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.RecordResult(ctx, "user-1", "alice", 30))
	require.NoError(t, svc.RecordResult(ctx, "user-2", "bob", 20))
	require.NoError(t, svc.RecordResult(ctx, "user-3", "carol", 10))

	entries, err := svc.Top(ctx, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "alice", entries[0].DisplayName)
	assert.Equal(t, "bob", entries[1].DisplayName)
}

func TestTopFallsBackToUserID(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	svc := NewService(client, zerolog.Nop(), ServiceOptions{})
	ctx := context.Background()

	// Score present without metadata.
	require.NoError(t, client.ZIncrBy(ctx, "lb:all_time", 15, "user-9").Err())

	entries, err := svc.Top(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "user-9", entries[0].DisplayName)
}

func TestTopEmptyBoard(t *testing.T) {
	svc := newTestService(t)

	entries, err := svc.Top(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
