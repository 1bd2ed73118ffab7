package security

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"locadz/internal/domain/user"
)

func TestVerifyRoundTrip(t *testing.T) {
	v, err := NewTokenVerifier("s3cret", "idp.locadz")
	require.NoError(t, err)

	token, err := v.Issue(user.Actor{ID: "host-1", Role: user.RoleHost}, time.Hour)
	require.NoError(t, err)

	actor, err := v.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID("host-1"), actor.ID)
	assert.Equal(t, user.RoleHost, actor.Role)
}

func TestVerifyRejectsBadTokens(t *testing.T) {
	v, err := NewTokenVerifier("s3cret", "")
	require.NoError(t, err)
	other, err := NewTokenVerifier("different", "")
	require.NoError(t, err)

	foreign, err := other.Issue(user.Actor{ID: "u1", Role: user.RoleTraveler}, time.Hour)
	require.NoError(t, err)
	_, err = v.Verify(foreign)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired, err := v.Issue(user.Actor{ID: "u1", Role: user.RoleTraveler}, -time.Hour)
	require.NoError(t, err)
	_, err = v.Verify(expired)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = v.Verify("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{Role: "host"}).SignedString(v.Secret)
	require.NoError(t, err)
	_, err = v.Verify(noSubject)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyMapsLegacyGuestRole(t *testing.T) {
	v, err := NewTokenVerifier("s3cret", "")
	require.NoError(t, err)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role:             "guest",
		RegisteredClaims: jwt.RegisteredClaims{Subject: "t-9"},
	}).SignedString(v.Secret)
	require.NoError(t, err)

	actor, err := v.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, user.RoleTraveler, actor.Role)
}

func TestNewTokenVerifierRequiresSecret(t *testing.T) {
	_, err := NewTokenVerifier("", "")
	assert.ErrorIs(t, err, ErrMissingSecret)
}
