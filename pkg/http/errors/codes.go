package errors

// Error codes for standardized error responses
const (
	// Authentication errors
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeInvalidToken = "invalid_token"
	ErrCodeLoginFailed  = "login_failed"
	ErrCodeSignupFailed = "signup_failed"
	ErrCodeForbidden    = "forbidden"

	// Validation errors
	ErrCodeInvalidRequest   = "invalid_request"
	ErrCodeValidationFailed = "validation_failed"

	// Resource errors
	ErrCodeNotFound      = "not_found"
	ErrCodeAlreadyExists = "already_exists"

	// Room errors
	ErrCodeRoomCreationFailed = "room_creation_failed"
	ErrCodeRoomNotFound       = "room_not_found"
	ErrCodeInvalidHostPin     = "invalid_host_pin"
	ErrCodeRoomNotJoinable    = "room_not_joinable"
	ErrCodeNameTaken          = "name_taken_in_room"
	ErrCodeRoomStartFailed    = "room_start_failed"

	// Question errors
	ErrCodeQuestionCreationFailed = "question_creation_failed"

	// WebSocket errors
	ErrCodeInvalidPayload     = "invalid_payload"
	ErrCodeUnknownMessageType = "unknown_message_type"
	ErrCodeStartFailed        = "quiz_start_failed"

	// Server errors
	ErrCodeInternalError      = "internal_error"
	ErrCodeServiceUnavailable = "service_unavailable"

	// Leaderboard errors
	ErrCodeLeaderboardFetchFailed = "leaderboard_fetch_failed"
)
