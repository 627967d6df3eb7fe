package auth

import (
	"testing"
	"time"

	"github.com/DRSN-tech/storefront-backend/internal/cfg"
	"github.com/DRSN-tech/storefront-backend/internal/domain"
	"github.com/DRSN-tech/storefront-backend/internal/usecase"
	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestJWTManager_IssueAndParse(t *testing.T) {
	m := NewJWTManager(&cfg.AuthCfg{JWTSecret: []byte("secret"), TokenTTL: time.Hour})

	token, err := m.Issue(usecase.TokenClaims{UserID: "65a1", Role: domain.RoleAdmin})
	require.NoError(t, err)

	claims, err := m.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "65a1", claims.UserID)
	assert.True(t, claims.Role.IsAdmin())
}

func TestJWTManager_RejectsInvalidTokens(t *testing.T) {
	m := NewJWTManager(&cfg.AuthCfg{JWTSecret: []byte("secret"), TokenTTL: time.Hour})

	other := NewJWTManager(&cfg.AuthCfg{JWTSecret: []byte("other"), TokenTTL: time.Hour})
	foreign, err := other.Issue(usecase.TokenClaims{UserID: "65a1", Role: domain.RoleCustomer})
	require.NoError(t, err)

	expired := NewJWTManager(&cfg.AuthCfg{JWTSecret: []byte("secret"), TokenTTL: time.Hour})
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, err := expired.Issue(usecase.TokenClaims{UserID: "65a1", Role: domain.RoleCustomer})
	require.NoError(t, err)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: "65a1"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	for name, token := range map[string]string{
		"garbage":      "not.a.token",
		"wrong secret": foreign,
		"expired":      old,
		"alg none":     unsigned,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := m.Parse(token)
			assert.Error(t, err)
		})
	}
}

func TestBcryptHasher(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	hash, err := h.Hash("secret-pass")
	require.NoError(t, err)
	assert.NotEqual(t, "secret-pass", hash)

	assert.NoError(t, h.Compare(hash, "secret-pass"))
	assert.Error(t, h.Compare(hash, "wrong-pass"))
}
