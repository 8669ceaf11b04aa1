package question

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCache struct {
	entries     map[uuid.UUID][]Question
	invalidated []uuid.UUID
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[uuid.UUID][]Question)}
}

func (f *fakeCache) Get(_ context.Context, roomID uuid.UUID) ([]Question, error) {
	return f.entries[roomID], nil
}

func (f *fakeCache) Set(_ context.Context, roomID uuid.UUID, questions []Question) error {
	f.entries[roomID] = questions
	return nil
}

func (f *fakeCache) Invalidate(_ context.Context, roomID uuid.UUID) error {
	f.invalidated = append(f.invalidated, roomID)
	delete(f.entries, roomID)
	return nil
}

func TestAddValidation(t *testing.T) {
	svc := NewService(nil, nil, zerolog.Nop())
	roomID := uuid.New()

	cases := []struct {
		name    string
		input   Question
		wantErr error
	}{
		{
			name:    "missing prompt",
			input:   Question{Options: []string{"a", "b"}, TimeLimitSeconds: 10},
			wantErr: ErrInvalidPrompt,
		},
		{
			name:    "single option",
			input:   Question{Prompt: "p", Options: []string{"a"}, TimeLimitSeconds: 10},
			wantErr: ErrTooFewOptions,
		},
		{
			name:    "correct answer out of range",
			input:   Question{Prompt: "p", Options: []string{"a", "b"}, CorrectAnswer: 2, TimeLimitSeconds: 10},
			wantErr: ErrBadCorrectAnswer,
		},
		{
			name:    "negative correct answer",
			input:   Question{Prompt: "p", Options: []string{"a", "b"}, CorrectAnswer: -1, TimeLimitSeconds: 10},
			wantErr: ErrBadCorrectAnswer,
		},
		{
			name:    "zero time limit",
			input:   Question{Prompt: "p", Options: []string{"a", "b"}, CorrectAnswer: 0},
			wantErr: ErrInvalidTimeLimit,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Add(context.Background(), roomID, tc.input)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestListServedFromCache(t *testing.T) {
	cache := newFakeCache()
	svc := NewService(nil, cache, zerolog.Nop())

	roomID := uuid.New()
	cached := []Question{{ID: "q1", Prompt: "cached"}}
	require.NoError(t, cache.Set(context.Background(), roomID, cached))

	got, err := svc.List(context.Background(), roomID)
	require.NoError(t, err)
	assert.Equal(t, cached, got)
}
