package interfaces

import (
	"net/http"

	"roomchat/pkg/types"
)

// IdentityProvider resolves the authenticated identity for a new
// connection. The core trusts whatever identity the provider returns and
// never re-verifies credentials itself.
type IdentityProvider interface {
	// Authenticate derives (userID, displayName) from the upgrade request
	// and the handshake frame. Returns ErrUnauthorized when no valid
	// identity is present.
	Authenticate(r *http.Request, handshake types.Handshake) (userID, displayName string, err error)
}
