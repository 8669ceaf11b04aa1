package ws

import "encoding/json"

// MessageType constants for the WebSocket protocol.
const (
	// Client -> Server
	TypeJoinRoom     = "join_room"
	TypeStartGame    = "start_game"
	TypeSubmitAnswer = "submit_answer"
	TypeNextQuestion = "next_question" // host-triggered force advance
	TypeLeaveRoom    = "leave_room"

	// Server -> Client
	TypePlayerJoined = "player_joined"
	TypeGameStarted  = "game_started"
	TypeQuestion     = "question"
	TypeAnswerResult = "answer_result"
	TypeQuizEnded    = "quiz_ended"
	TypeError        = "error"
	TypePing         = "ping"
	TypePong         = "pong"
)

// Message wraps all WebSocket payloads with a type discriminator.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Client Messages (incoming)

type JoinRoomPayload struct {
	RoomKey string `json:"room_key"`
}

type StartGamePayload struct {
	RoomKey string `json:"room_key"`
}

type SubmitAnswerPayload struct {
	RoomKey          string `json:"room_key"`
	QuestionID       string `json:"question_id"`
	SelectedOption   int    `json:"selected_option"`
	TimeTakenSeconds int    `json:"time_taken_seconds"`
}

type NextQuestionPayload struct {
	RoomKey string `json:"room_key"`
}

type LeaveRoomPayload struct {
	RoomKey string `json:"room_key"`
}

// Server Messages (outgoing)

// PlayerJoinedPayload notifies a room that its roster changed.
type PlayerJoinedPayload struct {
	RoomKey     string   `json:"room_key"`
	UserID      string   `json:"user_id"`
	DisplayName string   `json:"display_name"`
	Players     []string `json:"players"`
}

// QuestionPayload is what players see while the answer window is open.
// The correct option index is deliberately absent.
type QuestionPayload struct {
	ID               string   `json:"id"`
	Prompt           string   `json:"prompt"`
	Options          []string `json:"options"`
	ImageURL         string   `json:"image_url,omitempty"`
	TimeLimitSeconds int      `json:"time_limit_seconds"`
	Number           int      `json:"number"` // 1-based position
	Total            int      `json:"total"`
}

// AnswerResultPayload is sent to the submitting player only.
type AnswerResultPayload struct {
	IsCorrect     bool `json:"is_correct"`
	CorrectAnswer int  `json:"correct_answer"`
}

// QuizEndedPayload carries the final ordered leaderboard.
type QuizEndedPayload struct {
	Leaderboard []LeaderboardEntry `json:"leaderboard"`
}

type LeaderboardEntry struct {
	DisplayName string `json:"username"`
	Score       int    `json:"score"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewMessage marshals payload into a typed envelope.
func NewMessage(msgType string, payload any) (Message, error) {
	msg := Message{Type: msgType}
	if payload == nil {
		return msg, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Message{}, err
	}
	msg.Payload = data
	return msg, nil
}
