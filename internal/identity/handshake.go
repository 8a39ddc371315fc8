package identity

import (
	"fmt"
	"net/http"

	"roomchat/pkg/interfaces"
	"roomchat/pkg/types"
)

// HandshakeProvider trusts the identity carried in the connect handshake
// frame. This is the default posture: credential verification happens
// upstream and the chat core does not re-check it.
type HandshakeProvider struct{}

// NewHandshakeProvider creates a handshake-trusting identity provider.
func NewHandshakeProvider() *HandshakeProvider {
	return &HandshakeProvider{}
}

// Authenticate returns the identity from the handshake, rejecting empty
// fields.
func (p *HandshakeProvider) Authenticate(_ *http.Request, handshake types.Handshake) (string, string, error) {
	if err := handshake.Validate(); err != nil {
		return "", "", fmt.Errorf("%w: %v", interfaces.ErrUnauthorized, err)
	}
	return handshake.UserID, handshake.DisplayName, nil
}
