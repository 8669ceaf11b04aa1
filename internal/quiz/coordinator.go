package quiz

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"

	"github.com/bavakarni05/quizapp/internal/quiz/scoring"
	"github.com/bavakarni05/quizapp/pkg/http/ws"
)

const durableOpTimeout = 10 * time.Second

// Coordinator drives rooms through their questions: it opens each answer
// window, collects submissions, advances on timeout or host override, and
// finalizes the leaderboard. All per-room state transitions are serialized
// on the session mutex; distinct rooms never contend.
type Coordinator struct {
	registry *Registry
	store    Store
	fanout   Broadcaster
	writer   *AnswerWriter
	engine   *scoring.Engine
	results  ResultRecorder
	logger   zerolog.Logger

	graceDelay time.Duration
	now        func() time.Time
	afterFunc  func(d time.Duration, f func()) *time.Timer
}

// CoordinatorOptions configures the coordinator.
type CoordinatorOptions struct {
	// StartGraceDelay is the pause between game_started and the first
	// question, letting clients finish subscribing.
	StartGraceDelay time.Duration
	Scoring         scoring.Config
	// Results is optional; when set, final scores are recorded there.
	Results ResultRecorder
}

// NewCoordinator creates a quiz coordinator with all dependencies.
func NewCoordinator(registry *Registry, store Store, fanout Broadcaster, writer *AnswerWriter, opts CoordinatorOptions, logger zerolog.Logger) *Coordinator {
	grace := opts.StartGraceDelay
	if grace <= 0 {
		grace = time.Second
	}
	return &Coordinator{
		registry:   registry,
		store:      store,
		fanout:     fanout,
		writer:     writer,
		engine:     scoring.NewEngine(opts.Scoring),
		results:    opts.Results,
		logger:     logger.With().Str("component", "quiz_coordinator").Logger(),
		graceDelay: grace,
		now:        time.Now,
		afterFunc:  time.AfterFunc,
	}
}

// StartGame loads the room's questions, seeds a session, announces the game
// and schedules the first question after the grace delay. A room with a live
// session or an empty question list is left untouched. Durable-store read
// failures abort the start and are returned to the caller.
func (c *Coordinator) StartGame(ctx context.Context, roomKey string) error {
	if _, exists := c.registry.Get(roomKey); exists {
		c.logger.Debug().Str("room_key", roomKey).Msg("duplicate start ignored")
		return nil
	}

	questions, err := c.loadQuestions(ctx, roomKey)
	if err != nil {
		return fmt.Errorf("load questions: %w", err)
	}
	if len(questions) == 0 {
		c.logger.Warn().Str("room_key", roomKey).Msg("start ignored: room has no questions")
		return nil
	}

	session, err := c.registry.Create(roomKey, questions)
	if err != nil {
		if errors.Is(err, ErrAlreadyActive) {
			return nil
		}
		return err
	}

	if err := c.store.SetRoomStatus(ctx, roomKey, RoomStatusActive); err != nil {
		c.logger.Warn().Err(err).Str("room_key", roomKey).Msg("failed to mark room active")
	}

	metricActiveSessions.Inc()
	c.logger.Info().
		Str("room_key", roomKey).
		Int("questions", len(questions)).
		Msg("quiz started")

	session.mu.Lock()
	defer session.mu.Unlock()

	c.broadcast(roomKey, ws.TypeGameStarted, nil)
	session.timer = c.afterFunc(c.graceDelay, func() {
		c.openFirstQuestion(roomKey)
	})
	return nil
}

// SubmitAnswer records a player's answer for the currently open question.
// Submissions for finished rooms, already-passed questions, or already
// answered (question, user) pairs are dropped without a response, matching
// the fire-and-forget semantics of the real-time channel. The advance is the
// hard cutoff: a late answer for the still-open question is accepted even
// past the nominal time limit.
func (c *Coordinator) SubmitAnswer(roomKey, userID, questionID string, selectedOption, timeTakenSeconds int) {
	session, ok := c.registry.Get(roomKey)
	if !ok {
		return
	}

	session.mu.Lock()
	if session.done || session.questionOpenedAt.IsZero() {
		session.mu.Unlock()
		return
	}
	question, open := session.currentQuestionLocked()
	if !open || question.ID != questionID {
		session.mu.Unlock()
		return
	}
	if session.answeredLocked(questionID, userID) {
		session.mu.Unlock()
		return
	}

	if timeTakenSeconds < 0 {
		timeTakenSeconds = 0
	}
	isCorrect := selectedOption == question.CorrectAnswer
	points := c.engine.Score(isCorrect, question.TimeLimitSeconds, timeTakenSeconds)

	record := RecordedAnswer{
		SelectedOption:   selectedOption,
		TimeTakenSeconds: timeTakenSeconds,
		IsCorrect:        isCorrect,
		PointsAwarded:    points,
	}
	if err := session.recordAnswerLocked(questionID, userID, record); err != nil {
		session.mu.Unlock()
		return
	}
	session.mu.Unlock()

	metricAnswersAccepted.Inc()
	c.logger.Info().
		Str("room_key", roomKey).
		Str("user_id", userID).
		Str("question_id", questionID).
		Bool("correct", isCorrect).
		Int("points", points).
		Msg("answer recorded")

	// Result goes to the submitting connection only; the correct option
	// must not reach the rest of the room while the window is open.
	c.send(userID, ws.TypeAnswerResult, ws.AnswerResultPayload{
		IsCorrect:     isCorrect,
		CorrectAnswer: question.CorrectAnswer,
	})

	// Only durably-stored players (UUID identifiers) are persisted.
	if uid, err := uuid.Parse(userID); err == nil {
		c.writer.enqueue(answerWrite{
			userID: uid,
			delta:  points,
			record: UserAnswer{
				UserID:           uid,
				QuestionID:       questionID,
				SelectedOption:   selectedOption,
				IsCorrect:        isCorrect,
				TimeTakenSeconds: timeTakenSeconds,
			},
		})
	}
}

// ForceAdvance is the host-triggered manual skip: it behaves as if the open
// question's timer fired immediately. It is a no-op when the room has no
// session or no question is open yet.
func (c *Coordinator) ForceAdvance(roomKey string) {
	session, ok := c.registry.Get(roomKey)
	if !ok {
		return
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	if session.done || session.questionOpenedAt.IsZero() {
		return
	}
	if _, open := session.currentQuestionLocked(); !open {
		// An earlier finalize aborted on a durable-store failure; retry it.
		c.finalizeLocked(session)
		return
	}

	session.stopTimerLocked()
	session.currentIndex++
	c.openQuestionLocked(session)
}

// openFirstQuestion fires once the start grace delay elapses.
func (c *Coordinator) openFirstQuestion(roomKey string) {
	session, ok := c.registry.Get(roomKey)
	if !ok {
		return
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	if session.done || !session.questionOpenedAt.IsZero() {
		return
	}
	c.openQuestionLocked(session)
}

// advanceFrom moves the session past question index `from`. The index guard
// makes the transition fire exactly once per question: whichever of the
// timer or a host skip gets here first wins, the other observes a moved
// index and backs off. Timer cancellation alone is not trusted for this.
func (c *Coordinator) advanceFrom(roomKey string, from int) {
	session, ok := c.registry.Get(roomKey)
	if !ok {
		return
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	if session.done || session.currentIndex != from {
		return
	}
	session.currentIndex++
	c.openQuestionLocked(session)
}

// openQuestionLocked broadcasts the question at currentIndex and schedules
// its automatic advance, or runs finalize when the list is exhausted.
// Callers must hold the session mutex; broadcasting under it keeps room
// events strictly ordered (hub sends never block).
func (c *Coordinator) openQuestionLocked(session *Session) {
	question, open := session.currentQuestionLocked()
	if !open {
		c.finalizeLocked(session)
		return
	}

	session.questionOpenedAt = c.now()
	index := session.currentIndex

	c.broadcast(session.roomKey, ws.TypeQuestion, ws.QuestionPayload{
		ID:               question.ID,
		Prompt:           question.Prompt,
		Options:          question.Options,
		ImageURL:         question.ImageURL,
		TimeLimitSeconds: question.TimeLimitSeconds,
		Number:           index + 1,
		Total:            len(session.questions),
	})

	roomKey := session.roomKey
	session.timer = c.afterFunc(time.Duration(question.TimeLimitSeconds)*time.Second, func() {
		c.advanceFrom(roomKey, index)
	})
}

// finalizeLocked resolves display names, broadcasts the final leaderboard,
// marks the room completed and removes the session. On a name-resolution
// failure the session is kept so a later host skip can retry; everything
// after the broadcast is best-effort. Callers must hold the session mutex.
func (c *Coordinator) finalizeLocked(session *Session) {
	session.stopTimerLocked()

	ctx, cancel := context.WithTimeout(context.Background(), durableOpTimeout)
	defer cancel()

	standings := session.standingsLocked()
	names, err := c.resolveNames(ctx, standings)
	if err != nil {
		c.logger.Error().Err(err).
			Str("room_key", session.roomKey).
			Msg("finalize aborted: display name lookup failed")
		return
	}

	entries := make([]ws.LeaderboardEntry, len(standings))
	for i, standing := range standings {
		entries[i] = ws.LeaderboardEntry{
			DisplayName: names[standing.UserID],
			Score:       standing.Score,
		}
	}

	session.done = true
	c.broadcast(session.roomKey, ws.TypeQuizEnded, ws.QuizEndedPayload{Leaderboard: entries})

	if err := c.store.SetRoomStatus(ctx, session.roomKey, RoomStatusCompleted); err != nil {
		c.logger.Warn().Err(err).
			Str("room_key", session.roomKey).
			Msg("failed to mark room completed")
	}

	c.registry.Remove(session.roomKey)
	c.fanout.DropRoom(session.roomKey)
	metricActiveSessions.Dec()
	metricQuizzesCompleted.Inc()
	c.logger.Info().
		Str("room_key", session.roomKey).
		Int("players", len(standings)).
		Msg("quiz finished")

	if c.results != nil {
		go c.recordResults(standings, names)
	}
}

func (c *Coordinator) recordResults(standings []Standing, names map[string]string) {
	ctx, cancel := context.WithTimeout(context.Background(), durableOpTimeout)
	defer cancel()

	for _, standing := range standings {
		if err := c.results.RecordResult(ctx, standing.UserID, names[standing.UserID], standing.Score); err != nil {
			c.logger.Warn().Err(err).
				Str("user_id", standing.UserID).
				Msg("failed to record leaderboard result")
		}
	}
}

// loadQuestions reads the room's question list with bounded backoff; it is a
// synchronous prerequisite for the first broadcast.
func (c *Coordinator) loadQuestions(ctx context.Context, roomKey string) ([]Question, error) {
	var questions []Question
	backoff := retry.WithMaxRetries(3, retry.NewExponential(200*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		loaded, err := c.store.LoadQuestions(ctx, roomKey)
		if err != nil {
			return retry.RetryableError(err)
		}
		questions = loaded
		return nil
	})
	return questions, err
}

// resolveNames maps user identifiers to display names. Identifiers that are
// not durable records (or that the store does not know) fall back to the raw
// identifier so the leaderboard never silently loses a player.
func (c *Coordinator) resolveNames(ctx context.Context, standings []Standing) (map[string]string, error) {
	names := make(map[string]string, len(standings))
	var durable []uuid.UUID
	for _, standing := range standings {
		names[standing.UserID] = standing.UserID
		if uid, err := uuid.Parse(standing.UserID); err == nil {
			durable = append(durable, uid)
		}
	}
	if len(durable) == 0 {
		return names, nil
	}

	var resolved map[uuid.UUID]string
	backoff := retry.WithMaxRetries(3, retry.NewExponential(200*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		result, err := c.store.ResolveDisplayNames(ctx, durable)
		if err != nil {
			return retry.RetryableError(err)
		}
		resolved = result
		return nil
	})
	if err != nil {
		return nil, err
	}

	for uid, name := range resolved {
		if name != "" {
			names[uid.String()] = name
		}
	}
	return names, nil
}

func (c *Coordinator) broadcast(roomKey, msgType string, payload any) {
	msg, err := ws.NewMessage(msgType, payload)
	if err != nil {
		c.logger.Error().Err(err).Str("type", msgType).Msg("failed to encode broadcast")
		return
	}
	if err := c.fanout.BroadcastToRoom(roomKey, msg); err != nil {
		c.logger.Warn().Err(err).Str("room_key", roomKey).Str("type", msgType).Msg("room broadcast failed")
	}
}

func (c *Coordinator) send(userID, msgType string, payload any) {
	msg, err := ws.NewMessage(msgType, payload)
	if err != nil {
		c.logger.Error().Err(err).Str("type", msgType).Msg("failed to encode event")
		return
	}
	if err := c.fanout.SendToUser(userID, msg); err != nil {
		c.logger.Warn().Err(err).Str("user_id", userID).Str("type", msgType).Msg("user send failed")
	}
}
