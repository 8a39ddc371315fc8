package types

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

// Shared validator instance; struct tags on the payload types define the
// send-message contract (room code 4-20 alphanumerics, non-empty body).
var validate = validator.New()

// Room codes are validated by regexp as well so non-payload call sites
// (store, presence) can check codes without building a payload struct.
var roomCodeRegex = regexp.MustCompile(`^[a-zA-Z0-9]{4,20}$`)

// IsValidRoomCode reports whether code matches the room code pattern.
func IsValidRoomCode(code string) bool {
	return roomCodeRegex.MatchString(code)
}

// Validate checks the handshake carries a non-empty identity.
func (h Handshake) Validate() error {
	return validate.Struct(h)
}

// Validate checks the join payload shape.
func (p JoinRoomPayload) Validate() error {
	return validate.Struct(p)
}

// Validate checks the send payload shape.
func (p SendMessagePayload) Validate() error {
	return validate.Struct(p)
}

// Validate checks the history request shape.
func (p GetChatLogsPayload) Validate() error {
	return validate.Struct(p)
}
