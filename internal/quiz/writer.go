package quiz

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// answerWrite is one unit of detached persistence: the score increment and
// the answer history row for a durably-stored player.
type answerWrite struct {
	userID uuid.UUID
	delta  int
	record UserAnswer
}

// AnswerWriter persists accepted answers off the submission hot path. The
// in-memory score update and the private result event never wait on storage;
// failures here are logged and counted, not rolled back.
type AnswerWriter struct {
	store   Store
	tasks   chan answerWrite
	timeout time.Duration
	logger  zerolog.Logger
}

// NewAnswerWriter creates a writer with a bounded queue.
func NewAnswerWriter(store Store, buffer int, timeout time.Duration, logger zerolog.Logger) *AnswerWriter {
	if buffer <= 0 {
		buffer = 256
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &AnswerWriter{
		store:   store,
		tasks:   make(chan answerWrite, buffer),
		timeout: timeout,
		logger:  logger.With().Str("component", "answer_writer").Logger(),
	}
}

// enqueue hands a write to the background loop without blocking. A full
// queue drops the write; the in-memory score remains authoritative for the
// live session either way.
func (w *AnswerWriter) enqueue(task answerWrite) {
	select {
	case w.tasks <- task:
	default:
		metricAnswerWriteDropped.Inc()
		w.logger.Warn().
			Str("user_id", task.userID.String()).
			Str("question_id", task.record.QuestionID).
			Msg("persistence queue full, dropping answer write")
	}
}

// Run drains the queue until context cancellation.
func (w *AnswerWriter) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case task := <-w.tasks:
			w.persist(ctx, task)
		}
	}
}

func (w *AnswerWriter) persist(ctx context.Context, task answerWrite) {
	writeCtx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	if err := w.store.IncrementUserScore(writeCtx, task.userID, task.delta); err != nil {
		metricAnswerWriteFailures.Inc()
		w.logger.Warn().Err(err).
			Str("user_id", task.userID.String()).
			Int("delta", task.delta).
			Msg("failed to persist score increment")
	}
	if err := w.store.AppendUserAnswer(writeCtx, task.record); err != nil {
		metricAnswerWriteFailures.Inc()
		w.logger.Warn().Err(err).
			Str("user_id", task.userID.String()).
			Str("question_id", task.record.QuestionID).
			Msg("failed to persist answer record")
	}
}
