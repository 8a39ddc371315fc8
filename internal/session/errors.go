package session

import "errors"

// Registry-specific error types
var (
	ErrSessionNotFound = errors.New("no session for connection")
)
