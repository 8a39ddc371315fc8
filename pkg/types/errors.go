package types

// Stable machine-readable error codes surfaced to clients on the error event.
const (
	CodeUnauthorized    = "UNAUTHORIZED"
	CodeValidationError = "VALIDATION_ERROR"
	CodeInvalidRoom     = "INVALID_ROOM"
	CodeRateLimited     = "RATE_LIMITED"
	CodeEmptyMessage    = "EMPTY_MESSAGE"
	CodeMessageTooLong  = "MESSAGE_TOO_LONG"
	CodeNotInRoom       = "NOT_IN_ROOM"
	CodeServerError     = "SERVER_ERROR"
)
