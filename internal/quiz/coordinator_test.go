package quiz

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bavakarni05/quizapp/pkg/http/ws"
)

type fakeStore struct {
	mu        sync.Mutex
	questions map[string][]Question
	names     map[uuid.UUID]string
	statuses  map[string]string
	deltas    map[uuid.UUID]int
	answers   []UserAnswer
	loadErr   error
	nameErr   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		questions: make(map[string][]Question),
		names:     make(map[uuid.UUID]string),
		statuses:  make(map[string]string),
		deltas:    make(map[uuid.UUID]int),
	}
}

func (f *fakeStore) LoadQuestions(_ context.Context, roomKey string) ([]Question, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return f.questions[roomKey], nil
}

func (f *fakeStore) SetRoomStatus(_ context.Context, roomKey, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses[roomKey] = status
	return nil
}

func (f *fakeStore) IncrementUserScore(_ context.Context, userID uuid.UUID, delta int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deltas[userID] += delta
	return nil
}

func (f *fakeStore) AppendUserAnswer(_ context.Context, answer UserAnswer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.answers = append(f.answers, answer)
	return nil
}

func (f *fakeStore) ResolveDisplayNames(_ context.Context, userIDs []uuid.UUID) (map[uuid.UUID]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.nameErr != nil {
		return nil, f.nameErr
	}
	resolved := make(map[uuid.UUID]string, len(userIDs))
	for _, id := range userIDs {
		if name, ok := f.names[id]; ok {
			resolved[id] = name
		}
	}
	return resolved, nil
}

func (f *fakeStore) status(roomKey string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.statuses[roomKey]
}

type fakeBroadcaster struct {
	mu         sync.Mutex
	roomEvents map[string][]ws.Message
	userEvents map[string][]ws.Message
	dropped    []string
}

func newFakeBroadcaster() *fakeBroadcaster {
	return &fakeBroadcaster{
		roomEvents: make(map[string][]ws.Message),
		userEvents: make(map[string][]ws.Message),
	}
}

func (f *fakeBroadcaster) BroadcastToRoom(roomKey string, msg ws.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.roomEvents[roomKey] = append(f.roomEvents[roomKey], msg)
	return nil
}

func (f *fakeBroadcaster) SendToUser(userID string, msg ws.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.userEvents[userID] = append(f.userEvents[userID], msg)
	return nil
}

func (f *fakeBroadcaster) DropRoom(roomKey string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dropped = append(f.dropped, roomKey)
}

func (f *fakeBroadcaster) roomTypes(roomKey string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	types := make([]string, 0, len(f.roomEvents[roomKey]))
	for _, msg := range f.roomEvents[roomKey] {
		types = append(types, msg.Type)
	}
	return types
}

func (f *fakeBroadcaster) lastRoomEvent(t *testing.T, roomKey string) ws.Message {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	events := f.roomEvents[roomKey]
	require.NotEmpty(t, events)
	return events[len(events)-1]
}

// fakeScheduler captures timer callbacks so tests drive time explicitly.
type fakeScheduler struct {
	mu        sync.Mutex
	callbacks []func()
	durations []time.Duration
}

func (f *fakeScheduler) afterFunc(d time.Duration, fn func()) *time.Timer {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.callbacks = append(f.callbacks, fn)
	f.durations = append(f.durations, d)
	return time.NewTimer(time.Hour)
}

func (f *fakeScheduler) fire(t *testing.T, i int) {
	t.Helper()
	f.mu.Lock()
	require.Greater(t, len(f.callbacks), i, "no timer scheduled at index %d", i)
	fn := f.callbacks[i]
	f.mu.Unlock()
	fn()
}

func (f *fakeScheduler) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.callbacks)
}

func newTestCoordinator(store *fakeStore) (*Coordinator, *Registry, *fakeBroadcaster, *fakeScheduler) {
	registry := NewRegistry()
	fanout := newFakeBroadcaster()
	sched := &fakeScheduler{}
	writer := NewAnswerWriter(store, 64, time.Second, zerolog.Nop())

	c := NewCoordinator(registry, store, fanout, writer, CoordinatorOptions{}, zerolog.Nop())
	c.afterFunc = sched.afterFunc
	c.now = func() time.Time { return time.Unix(1700000000, 0) }
	return c, registry, fanout, sched
}

func twoQuestionRoom(store *fakeStore, roomKey string) {
	store.questions[roomKey] = []Question{
		{ID: "q1", Prompt: "first", Options: []string{"a", "b", "c"}, CorrectAnswer: 1, TimeLimitSeconds: 10},
		{ID: "q2", Prompt: "second", Options: []string{"x", "y"}, CorrectAnswer: 0, TimeLimitSeconds: 15},
	}
}

func TestFullQuizFlow(t *testing.T) {
	store := newFakeStore()
	twoQuestionRoom(store, "room-1")

	alice := uuid.New()
	bob := uuid.New()
	store.names[alice] = "alice"
	store.names[bob] = "bob"

	c, registry, fanout, sched := newTestCoordinator(store)

	require.NoError(t, c.StartGame(context.Background(), "room-1"))
	assert.Equal(t, RoomStatusActive, store.status("room-1"))
	assert.Equal(t, []string{ws.TypeGameStarted}, fanout.roomTypes("room-1"))

	// Grace delay elapses, question 1 opens.
	sched.fire(t, 0)
	assert.Equal(t, []string{ws.TypeGameStarted, ws.TypeQuestion}, fanout.roomTypes("room-1"))

	var q ws.QuestionPayload
	require.NoError(t, json.Unmarshal(fanout.lastRoomEvent(t, "room-1").Payload, &q))
	assert.Equal(t, "q1", q.ID)
	assert.Equal(t, 1, q.Number)
	assert.Equal(t, 2, q.Total)

	// Alice answers correctly with 3s on the clock, Bob picks wrong.
	c.SubmitAnswer("room-1", alice.String(), "q1", 1, 3)
	c.SubmitAnswer("room-1", bob.String(), "q1", 2, 5)

	var result ws.AnswerResultPayload
	require.NoError(t, json.Unmarshal(fanout.userEvents[alice.String()][0].Payload, &result))
	assert.True(t, result.IsCorrect)
	assert.Equal(t, 1, result.CorrectAnswer)

	require.NoError(t, json.Unmarshal(fanout.userEvents[bob.String()][0].Payload, &result))
	assert.False(t, result.IsCorrect)

	// Question 1 timer fires, question 2 opens.
	sched.fire(t, 1)
	require.NoError(t, json.Unmarshal(fanout.lastRoomEvent(t, "room-1").Payload, &q))
	assert.Equal(t, "q2", q.ID)
	assert.Equal(t, 2, q.Number)

	// Nobody answers question 2; its timer runs out and the quiz ends.
	sched.fire(t, 2)

	assert.Equal(t,
		[]string{ws.TypeGameStarted, ws.TypeQuestion, ws.TypeQuestion, ws.TypeQuizEnded},
		fanout.roomTypes("room-1"))

	var ended ws.QuizEndedPayload
	require.NoError(t, json.Unmarshal(fanout.lastRoomEvent(t, "room-1").Payload, &ended))
	require.Len(t, ended.Leaderboard, 2)
	assert.Equal(t, ws.LeaderboardEntry{DisplayName: "alice", Score: 17}, ended.Leaderboard[0])
	assert.Equal(t, ws.LeaderboardEntry{DisplayName: "bob", Score: 0}, ended.Leaderboard[1])

	assert.Equal(t, RoomStatusCompleted, store.status("room-1"))
	assert.Equal(t, 0, registry.Len())
	assert.Equal(t, []string{"room-1"}, fanout.dropped)
}

func TestStartGameDuplicateIsNoOp(t *testing.T) {
	store := newFakeStore()
	twoQuestionRoom(store, "room-1")
	c, registry, fanout, _ := newTestCoordinator(store)

	require.NoError(t, c.StartGame(context.Background(), "room-1"))
	require.NoError(t, c.StartGame(context.Background(), "room-1"))

	assert.Equal(t, 1, registry.Len())
	assert.Equal(t, []string{ws.TypeGameStarted}, fanout.roomTypes("room-1"))
}

func TestStartGameEmptyRoomIsNoOp(t *testing.T) {
	store := newFakeStore()
	c, registry, fanout, sched := newTestCoordinator(store)

	require.NoError(t, c.StartGame(context.Background(), "room-empty"))

	assert.Equal(t, 0, registry.Len())
	assert.Empty(t, fanout.roomTypes("room-empty"))
	assert.Equal(t, 0, sched.count())
}

func TestStartGameSurfacesLoadFailure(t *testing.T) {
	store := newFakeStore()
	store.loadErr = errors.New("connection refused")
	c, registry, _, _ := newTestCoordinator(store)

	err := c.StartGame(context.Background(), "room-1")
	require.Error(t, err)
	assert.Equal(t, 0, registry.Len())
}

func TestSubmitAfterAdvanceIsDropped(t *testing.T) {
	store := newFakeStore()
	twoQuestionRoom(store, "room-1")
	alice := uuid.New()
	c, _, fanout, sched := newTestCoordinator(store)

	require.NoError(t, c.StartGame(context.Background(), "room-1"))
	sched.fire(t, 0)
	sched.fire(t, 1) // question 1 closes

	c.SubmitAnswer("room-1", alice.String(), "q1", 1, 3)

	assert.Empty(t, fanout.userEvents[alice.String()])
	session, ok := c.registry.Get("room-1")
	require.True(t, ok)
	session.mu.Lock()
	defer session.mu.Unlock()
	assert.Empty(t, session.totals)
}

func TestDuplicateSubmitKeepsFirstAnswer(t *testing.T) {
	store := newFakeStore()
	twoQuestionRoom(store, "room-1")
	alice := uuid.New()
	c, _, fanout, sched := newTestCoordinator(store)

	require.NoError(t, c.StartGame(context.Background(), "room-1"))
	sched.fire(t, 0)

	c.SubmitAnswer("room-1", alice.String(), "q1", 2, 3) // wrong
	c.SubmitAnswer("room-1", alice.String(), "q1", 1, 4) // correct, too late

	assert.Len(t, fanout.userEvents[alice.String()], 1)
	session, ok := c.registry.Get("room-1")
	require.True(t, ok)
	session.mu.Lock()
	defer session.mu.Unlock()
	assert.Equal(t, 0, session.totals[alice.String()])
	assert.Equal(t, 2, session.answers["q1"][alice.String()].SelectedOption)
}

func TestSubmitBeforeFirstQuestionIsDropped(t *testing.T) {
	store := newFakeStore()
	twoQuestionRoom(store, "room-1")
	alice := uuid.New()
	c, _, fanout, _ := newTestCoordinator(store)

	require.NoError(t, c.StartGame(context.Background(), "room-1"))
	// Grace delay has not elapsed, no question is open yet.
	c.SubmitAnswer("room-1", alice.String(), "q1", 1, 0)

	assert.Empty(t, fanout.userEvents[alice.String()])
}

func TestSubmitWrongQuestionIDIsDropped(t *testing.T) {
	store := newFakeStore()
	twoQuestionRoom(store, "room-1")
	alice := uuid.New()
	c, _, fanout, sched := newTestCoordinator(store)

	require.NoError(t, c.StartGame(context.Background(), "room-1"))
	sched.fire(t, 0)

	c.SubmitAnswer("room-1", alice.String(), "q2", 0, 1)

	assert.Empty(t, fanout.userEvents[alice.String()])
}

func TestNegativeTimeTakenClampedToZero(t *testing.T) {
	store := newFakeStore()
	twoQuestionRoom(store, "room-1")
	alice := uuid.New()
	c, _, _, sched := newTestCoordinator(store)

	require.NoError(t, c.StartGame(context.Background(), "room-1"))
	sched.fire(t, 0)

	c.SubmitAnswer("room-1", alice.String(), "q1", 1, -7)

	session, ok := c.registry.Get("room-1")
	require.True(t, ok)
	session.mu.Lock()
	defer session.mu.Unlock()
	// Clamped to 0 elapsed: base 10 + full 10s bonus.
	assert.Equal(t, 20, session.totals[alice.String()])
	assert.Equal(t, 0, session.answers["q1"][alice.String()].TimeTakenSeconds)
}

func TestForceAdvanceSkipsQuestion(t *testing.T) {
	store := newFakeStore()
	twoQuestionRoom(store, "room-1")
	c, _, fanout, sched := newTestCoordinator(store)

	require.NoError(t, c.StartGame(context.Background(), "room-1"))
	sched.fire(t, 0)

	c.ForceAdvance("room-1")

	var q ws.QuestionPayload
	require.NoError(t, json.Unmarshal(fanout.lastRoomEvent(t, "room-1").Payload, &q))
	assert.Equal(t, "q2", q.ID)
}

func TestStaleTimerAfterForceAdvanceIsIgnored(t *testing.T) {
	store := newFakeStore()
	twoQuestionRoom(store, "room-1")
	c, _, fanout, sched := newTestCoordinator(store)

	require.NoError(t, c.StartGame(context.Background(), "room-1"))
	sched.fire(t, 0)

	c.ForceAdvance("room-1") // question 2 opens, schedules its own timer

	// The stopped question-1 timer fires anyway; the index guard drops it.
	sched.fire(t, 1)

	assert.Equal(t,
		[]string{ws.TypeGameStarted, ws.TypeQuestion, ws.TypeQuestion},
		fanout.roomTypes("room-1"))
	session, ok := c.registry.Get("room-1")
	require.True(t, ok)
	session.mu.Lock()
	defer session.mu.Unlock()
	assert.Equal(t, 1, session.currentIndex)
}

func TestForceAdvanceBeforeFirstQuestionIsNoOp(t *testing.T) {
	store := newFakeStore()
	twoQuestionRoom(store, "room-1")
	c, _, fanout, _ := newTestCoordinator(store)

	require.NoError(t, c.StartGame(context.Background(), "room-1"))
	c.ForceAdvance("room-1")

	assert.Equal(t, []string{ws.TypeGameStarted}, fanout.roomTypes("room-1"))
}

func TestOperationsAfterQuizEndAreNoOps(t *testing.T) {
	store := newFakeStore()
	twoQuestionRoom(store, "room-1")
	alice := uuid.New()
	c, registry, fanout, sched := newTestCoordinator(store)

	require.NoError(t, c.StartGame(context.Background(), "room-1"))
	sched.fire(t, 0)
	sched.fire(t, 1)
	sched.fire(t, 2)
	require.Equal(t, 0, registry.Len())

	before := len(fanout.roomTypes("room-1"))
	c.SubmitAnswer("room-1", alice.String(), "q2", 0, 1)
	c.ForceAdvance("room-1")

	assert.Len(t, fanout.roomTypes("room-1"), before)
	assert.Empty(t, fanout.userEvents[alice.String()])
}

func TestFinalizeRetriedByHostAfterLookupFailure(t *testing.T) {
	store := newFakeStore()
	twoQuestionRoom(store, "room-1")
	alice := uuid.New()
	store.names[alice] = "alice"
	c, registry, fanout, sched := newTestCoordinator(store)

	require.NoError(t, c.StartGame(context.Background(), "room-1"))
	sched.fire(t, 0)
	c.SubmitAnswer("room-1", alice.String(), "q1", 1, 2)
	sched.fire(t, 1)

	store.mu.Lock()
	store.nameErr = errors.New("db down")
	store.mu.Unlock()

	sched.fire(t, 2) // finalize aborts on the lookup failure
	assert.Equal(t, 1, registry.Len())
	assert.NotContains(t, fanout.roomTypes("room-1"), ws.TypeQuizEnded)

	store.mu.Lock()
	store.nameErr = nil
	store.mu.Unlock()

	c.ForceAdvance("room-1") // retry path
	assert.Equal(t, 0, registry.Len())
	assert.Contains(t, fanout.roomTypes("room-1"), ws.TypeQuizEnded)
}

func TestUnresolvedNameFallsBackToRawID(t *testing.T) {
	store := newFakeStore()
	twoQuestionRoom(store, "room-1")
	alice := uuid.New() // no display name stored
	c, _, fanout, sched := newTestCoordinator(store)

	require.NoError(t, c.StartGame(context.Background(), "room-1"))
	sched.fire(t, 0)
	c.SubmitAnswer("room-1", alice.String(), "q1", 1, 2)
	sched.fire(t, 1)
	sched.fire(t, 2)

	var ended ws.QuizEndedPayload
	require.NoError(t, json.Unmarshal(fanout.lastRoomEvent(t, "room-1").Payload, &ended))
	require.Len(t, ended.Leaderboard, 1)
	assert.Equal(t, alice.String(), ended.Leaderboard[0].DisplayName)
}
