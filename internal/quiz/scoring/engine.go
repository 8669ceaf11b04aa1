package scoring

// Config holds the scoring constants.
type Config struct {
	BaseScore int // flat reward for a correct answer, default 10
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{BaseScore: 10}
}

// Engine computes server-side points for submitted answers.
type Engine struct {
	config Config
}

// NewEngine creates a scoring engine with the provided config.
func NewEngine(config Config) *Engine {
	if config.BaseScore == 0 {
		config = DefaultConfig()
	}
	return &Engine{config: config}
}

// Score computes points for a single answer.
// A wrong answer is worth nothing. A correct answer earns the base reward
// plus one point per unspent second of the question's time limit; the bonus
// is clamped at zero so a submission recorded past the nominal limit (e.g.
// due to network delay) never subtracts from the base.
func (e *Engine) Score(isCorrect bool, timeLimitSeconds, timeTakenSeconds int) int {
	if !isCorrect {
		return 0
	}

	bonus := timeLimitSeconds - timeTakenSeconds
	if bonus < 0 {
		bonus = 0
	}
	return e.config.BaseScore + bonus
}
