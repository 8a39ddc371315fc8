package gateway

import "errors"

// Connection-related errors
var (
	ErrConnectionClosed = errors.New("connection closed")
	ErrWriteTimeout     = errors.New("write timeout")
	ErrInvalidFrame     = errors.New("invalid wire frame")
	ErrHandshakeTimeout = errors.New("handshake not received in time")
)
