package identity

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"roomchat/pkg/interfaces"
	"roomchat/pkg/types"
)

// JWTProvider derives identity from a signed token on the upgrade request
// (Authorization: Bearer header, or ?token= for browser websocket clients
// that cannot set headers). The token's sub claim is the user ID; the
// nickname claim is the display name, falling back to the handshake's.
type JWTProvider struct {
	secret []byte
}

// NewJWTProvider creates a provider verifying HS256 tokens with secret.
func NewJWTProvider(secret string) *JWTProvider {
	return &JWTProvider{secret: []byte(secret)}
}

// Authenticate verifies the request token and extracts the identity.
func (p *JWTProvider) Authenticate(r *http.Request, handshake types.Handshake) (string, string, error) {
	raw := bearerToken(r)
	if raw == "" {
		return "", "", fmt.Errorf("%w: missing token", interfaces.ErrUnauthorized)
	}

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return p.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", interfaces.ErrUnauthorized, err)
	}

	userID, _ := claims["sub"].(string)
	if userID == "" {
		return "", "", fmt.Errorf("%w: token missing sub claim", interfaces.ErrUnauthorized)
	}

	displayName, _ := claims["nickname"].(string)
	if displayName == "" {
		displayName = handshake.DisplayName
	}
	if displayName == "" {
		return "", "", fmt.Errorf("%w: no display name", interfaces.ErrUnauthorized)
	}

	return userID, displayName, nil
}

func bearerToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return r.URL.Query().Get("token")
}
