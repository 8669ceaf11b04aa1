package quiz

import (
	"sort"
	"sync"
	"time"
)

// Session is the in-memory progress record for one room's live quiz. It is
// owned by the Coordinator: every mutation happens under mu, which also
// serializes submissions against timer and host driven advances for the room.
type Session struct {
	mu sync.Mutex

	roomKey   string
	questions []Question

	// currentIndex is 0-based and only ever moves forward; it equals
	// len(questions) once the quiz is exhausted.
	currentIndex     int
	questionOpenedAt time.Time

	// answers is the write-once ledger: question ID -> user ID -> answer.
	answers map[string]map[string]RecordedAnswer
	// totals accumulates points per user and never decreases.
	totals map[string]int
	// order holds user IDs in first-answer order; leaderboard ties keep it.
	order []string

	// timer is the pending automatic advance for the open question.
	timer *time.Timer
	done  bool
}

func newSession(roomKey string, questions []Question) *Session {
	return &Session{
		roomKey:   roomKey,
		questions: questions,
		answers:   make(map[string]map[string]RecordedAnswer),
		totals:    make(map[string]int),
	}
}

// currentQuestionLocked returns the open question, or false once the index
// has run past the end. Callers must hold mu.
func (s *Session) currentQuestionLocked() (Question, bool) {
	if s.currentIndex >= len(s.questions) {
		return Question{}, false
	}
	return s.questions[s.currentIndex], true
}

// answeredLocked reports whether the user already has a ledger entry for the
// question. Callers must hold mu.
func (s *Session) answeredLocked(questionID, userID string) bool {
	byUser, ok := s.answers[questionID]
	if !ok {
		return false
	}
	_, ok = byUser[userID]
	return ok
}

// recordAnswerLocked writes an answer into the ledger and folds its points
// into the user's running total. The first write for a (question, user) pair
// wins; later ones return ErrDuplicateAnswer. Callers must hold mu.
func (s *Session) recordAnswerLocked(questionID, userID string, answer RecordedAnswer) error {
	byUser, ok := s.answers[questionID]
	if !ok {
		byUser = make(map[string]RecordedAnswer)
		s.answers[questionID] = byUser
	}
	if _, exists := byUser[userID]; exists {
		return ErrDuplicateAnswer
	}
	byUser[userID] = answer

	if _, seen := s.totals[userID]; !seen {
		s.order = append(s.order, userID)
	}
	s.totals[userID] += answer.PointsAwarded
	return nil
}

// Standing is a user's cumulative score at a point in the session.
type Standing struct {
	UserID string
	Score  int
}

// standingsLocked returns totals ordered by score descending; equal scores
// stay in first-answer order. Callers must hold mu.
func (s *Session) standingsLocked() []Standing {
	standings := make([]Standing, 0, len(s.order))
	for _, userID := range s.order {
		standings = append(standings, Standing{UserID: userID, Score: s.totals[userID]})
	}
	sort.SliceStable(standings, func(i, j int) bool {
		return standings[i].Score > standings[j].Score
	})
	return standings
}

// stopTimerLocked halts the pending automatic advance, if any. The advance
// guard in the coordinator is what actually prevents double advances; this
// just avoids a useless wakeup. Callers must hold mu.
func (s *Session) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}
