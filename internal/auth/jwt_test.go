package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/ordersync/internal/models"
)

var admin = models.AuthenticatedUser{ID: "u-1", DisplayName: "Boss", Email: "Boss@Shop.io", Role: models.RoleAdmin}

func TestGenerateAndParse(t *testing.T) {
	t.Parallel()
	secret := []byte("super-secret")

	tok, err := GenerateToken(admin, secret, time.Hour, time.Now())
	require.NoError(t, err)

	claims, err := ParseToken(tok, secret)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.Subject)
	assert.Equal(t, models.RoleAdmin, claims.Role)

	user := claims.User(tok)
	assert.Equal(t, "boss@shop.io", user.Email)
	assert.Equal(t, "Boss", user.DisplayName)
	assert.Equal(t, tok, user.Token)
}

func TestParseToken_Expired(t *testing.T) {
	t.Parallel()
	secret := []byte("secret")

	tok, err := GenerateToken(admin, secret, time.Minute, time.Now().Add(-time.Hour))
	require.NoError(t, err)

	_, err = ParseToken(tok, secret)
	require.True(t, errors.Is(err, ErrTokenExpired), "got %v", err)
}

func TestParseToken_WrongSecret(t *testing.T) {
	t.Parallel()

	tok, err := GenerateToken(admin, []byte("right-secret"), time.Hour, time.Now())
	require.NoError(t, err)

	_, err = ParseToken(tok, []byte("wrong-secret"))
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseToken_Garbage(t *testing.T) {
	t.Parallel()
	_, err := ParseToken("not.a.jwt", []byte("s"))
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestPeekClaims(t *testing.T) {
	t.Parallel()

	tok, err := GenerateToken(admin, []byte("server-only"), time.Hour, time.Now())
	require.NoError(t, err)

	claims, err := PeekClaims(tok)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, claims.Role)

	_, err = PeekClaims(strings.Repeat("x", 10))
	require.ErrorIs(t, err, ErrInvalidToken)

	odd, err := GenerateToken(models.AuthenticatedUser{ID: "u", Role: "root"}, []byte("s"), time.Hour, time.Now())
	require.NoError(t, err)
	_, err = PeekClaims(odd)
	require.ErrorIs(t, err, ErrInvalidToken)
}
