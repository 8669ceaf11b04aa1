package quiz

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "quizapp_live_sessions",
		Help: "Number of quiz sessions currently in progress.",
	})
	metricAnswersAccepted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quizapp_answers_accepted_total",
		Help: "Answers accepted into the in-memory ledger.",
	})
	metricQuizzesCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quizapp_quizzes_completed_total",
		Help: "Quiz sessions that reached the final leaderboard.",
	})
	metricAnswerWriteFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quizapp_answer_write_failures_total",
		Help: "Detached durable-store answer writes that failed.",
	})
	metricAnswerWriteDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quizapp_answer_write_dropped_total",
		Help: "Answer writes dropped because the persistence queue was full.",
	})
)
