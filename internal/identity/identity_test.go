package identity

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"roomchat/pkg/interfaces"
	"roomchat/pkg/types"
)

func TestHandshakeProvider_TrustsHandshakeIdentity(t *testing.T) {
	req := require.New(t)
	provider := NewHandshakeProvider()
	r := httptest.NewRequest("GET", "/ws", nil)

	userID, displayName, err := provider.Authenticate(r, types.Handshake{UserID: "alice", DisplayName: "Alice"})
	req.NoError(err)
	req.Equal("alice", userID)
	req.Equal("Alice", displayName)
}

func TestHandshakeProvider_RejectsEmptyIdentity(t *testing.T) {
	req := require.New(t)
	provider := NewHandshakeProvider()
	r := httptest.NewRequest("GET", "/ws", nil)

	for _, handshake := range []types.Handshake{
		{},
		{UserID: "alice"},
		{DisplayName: "Alice"},
	} {
		_, _, err := provider.Authenticate(r, handshake)
		req.ErrorIs(err, interfaces.ErrUnauthorized)
	}
}

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestJWTProvider_AcceptsBearerToken(t *testing.T) {
	req := require.New(t)
	provider := NewJWTProvider("secret")

	token := signToken(t, "secret", jwt.MapClaims{
		"sub":      "alice",
		"nickname": "Alice",
		"exp":      time.Now().Add(time.Hour).Unix(),
	})
	r := httptest.NewRequest("GET", "/ws", nil)
	r.Header.Set("Authorization", "Bearer "+token)

	userID, displayName, err := provider.Authenticate(r, types.Handshake{})
	req.NoError(err)
	req.Equal("alice", userID)
	req.Equal("Alice", displayName)
}

func TestJWTProvider_AcceptsQueryParamToken(t *testing.T) {
	req := require.New(t)
	provider := NewJWTProvider("secret")

	token := signToken(t, "secret", jwt.MapClaims{"sub": "alice", "nickname": "Alice"})
	r := httptest.NewRequest("GET", "/ws?token="+token, nil)

	userID, _, err := provider.Authenticate(r, types.Handshake{})
	req.NoError(err)
	req.Equal("alice", userID)
}

func TestJWTProvider_FallsBackToHandshakeDisplayName(t *testing.T) {
	req := require.New(t)
	provider := NewJWTProvider("secret")

	token := signToken(t, "secret", jwt.MapClaims{"sub": "alice"})
	r := httptest.NewRequest("GET", "/ws?token="+token, nil)

	_, displayName, err := provider.Authenticate(r, types.Handshake{DisplayName: "Alice"})
	req.NoError(err)
	req.Equal("Alice", displayName)
}

func TestJWTProvider_Rejections(t *testing.T) {
	req := require.New(t)
	provider := NewJWTProvider("secret")

	// No token at all
	r := httptest.NewRequest("GET", "/ws", nil)
	_, _, err := provider.Authenticate(r, types.Handshake{})
	req.ErrorIs(err, interfaces.ErrUnauthorized)

	// Wrong signing key
	bad := signToken(t, "other-secret", jwt.MapClaims{"sub": "alice", "nickname": "Alice"})
	r = httptest.NewRequest("GET", "/ws?token="+bad, nil)
	_, _, err = provider.Authenticate(r, types.Handshake{})
	req.ErrorIs(err, interfaces.ErrUnauthorized)

	// Expired token
	expired := signToken(t, "secret", jwt.MapClaims{
		"sub":      "alice",
		"nickname": "Alice",
		"exp":      time.Now().Add(-time.Hour).Unix(),
	})
	r = httptest.NewRequest("GET", "/ws?token="+expired, nil)
	_, _, err = provider.Authenticate(r, types.Handshake{})
	req.ErrorIs(err, interfaces.ErrUnauthorized)

	// Missing sub claim
	noSub := signToken(t, "secret", jwt.MapClaims{"nickname": "Alice"})
	r = httptest.NewRequest("GET", "/ws?token="+noSub, nil)
	_, _, err = provider.Authenticate(r, types.Handshake{})
	req.ErrorIs(err, interfaces.ErrUnauthorized)
}
