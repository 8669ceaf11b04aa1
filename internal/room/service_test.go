package room

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bavakarni05/quizapp/internal/db/repository"
	"github.com/bavakarni05/quizapp/pkg/http/ws"
)

type fakeRoomStore struct {
	existing map[string]repository.Room
	created  []repository.Room
}

func newFakeRoomStore() *fakeRoomStore {
	return &fakeRoomStore{existing: make(map[string]repository.Room)}
}

func (f *fakeRoomStore) Create(ctx context.Context, quizName, roomCode, hostPin string, hostID uuid.UUID) (repository.Room, error) {
	room := repository.Room{
		ID:       uuid.New(),
		QuizName: quizName,
		RoomCode: roomCode,
		HostPin:  hostPin,
		HostID:   hostID,
		Status:   "waiting",
	}
	f.created = append(f.created, room)
	return room, nil
}

func (f *fakeRoomStore) GetByKey(ctx context.Context, roomKey string) (repository.Room, error) {
	if room, ok := f.existing[roomKey]; ok {
		return room, nil
	}
	return repository.Room{}, repository.ErrNotFound
}

func (f *fakeRoomStore) AddPlayer(ctx context.Context, roomID, userID uuid.UUID, displayName string) error {
	return nil
}

func (f *fakeRoomStore) ListPlayers(ctx context.Context, roomID uuid.UUID) ([]repository.RoomPlayer, error) {
	return nil, nil
}

func (f *fakeRoomStore) HasPlayerName(ctx context.Context, roomID uuid.UUID, displayName string) (bool, error) {
	return false, nil
}

func (f *fakeRoomStore) ClearPlayers(ctx context.Context, roomID uuid.UUID) error {
	return nil
}

func (f *fakeRoomStore) ListByHost(ctx context.Context, hostID uuid.UUID) ([]repository.Room, error) {
	return nil, nil
}

func (f *fakeRoomStore) ListByPlayer(ctx context.Context, userID uuid.UUID) ([]repository.Room, error) {
	return nil, nil
}

// collidingRoomStore reports every candidate join code as taken.
type collidingRoomStore struct {
	*fakeRoomStore
}

func (c *collidingRoomStore) GetByKey(ctx context.Context, roomKey string) (repository.Room, error) {
	return repository.Room{RoomCode: roomKey}, nil
}

func newTestService(store roomStore) *Service {
	return NewService(store, ws.NewHub(zerolog.Nop()), zerolog.Nop())
}

func TestCreateAllocatesCodeAndPin(t *testing.T) {
	store := newFakeRoomStore()
	svc := newTestService(store)

	room, err := svc.Create(context.Background(), uuid.New(), "friday trivia")
	require.NoError(t, err)

	assert.Len(t, room.RoomCode, codeLength)
	assert.Len(t, room.HostPin, 4)
	assert.Equal(t, "waiting", room.Status)
	require.Len(t, store.created, 1)
}

func TestCreateFailsWhenCodesExhausted(t *testing.T) {
	store := &collidingRoomStore{fakeRoomStore: newFakeRoomStore()}
	svc := newTestService(store)

	_, err := svc.Create(context.Background(), uuid.New(), "friday trivia")
	assert.ErrorIs(t, err, ErrNoFreeRoomCode)
	assert.Empty(t, store.created)
}

func TestJoinAsHostChecksPin(t *testing.T) {
	store := newFakeRoomStore()
	room := repository.Room{ID: uuid.New(), RoomCode: "ABC234", HostPin: "0042", Status: "waiting"}
	store.existing[room.RoomCode] = room
	svc := newTestService(store)

	_, err := svc.JoinAsHost(context.Background(), "ABC234", "9999")
	assert.ErrorIs(t, err, ErrInvalidHostPin)

	got, err := svc.JoinAsHost(context.Background(), "ABC234", "0042")
	require.NoError(t, err)
	assert.Equal(t, room.ID, got.ID)
}
