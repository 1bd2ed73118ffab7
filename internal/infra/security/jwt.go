package security

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"locadz/internal/domain/user"
)

var (
	ErrInvalidToken  = errors.New("security: invalid token")
	ErrMissingSecret = errors.New("security: signing secret is empty")
)

// Claims are issued by the identity provider: sub is the user id, role one of
// traveler, host or admin.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// TokenVerifier validates HS256 bearer tokens and resolves the actor.
type TokenVerifier struct {
	Secret []byte
	Issuer string
	Leeway time.Duration
}

func NewTokenVerifier(secret, issuer string) (*TokenVerifier, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	return &TokenVerifier{Secret: []byte(secret), Issuer: issuer, Leeway: 30 * time.Second}, nil
}

func (v *TokenVerifier) Verify(raw string) (user.Actor, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(v.Leeway),
	}
	if v.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.Issuer))
	}
	token, err := jwt.ParseWithClaims(strings.TrimSpace(raw), &Claims{}, func(*jwt.Token) (interface{}, error) {
		return v.Secret, nil
	}, opts...)
	if err != nil {
		return user.Actor{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || strings.TrimSpace(claims.Subject) == "" {
		return user.Actor{}, ErrInvalidToken
	}
	role, err := user.ParseRole(claims.Role)
	if err != nil {
		return user.Actor{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return user.Actor{ID: user.ID(claims.Subject), Role: role}, nil
}

// Issue signs a token for actor. Production tokens come from the identity
// provider; this serves local development and tests.
func (v *TokenVerifier) Issue(actor user.Actor, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: string(actor.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   string(actor.ID),
			Issuer:    v.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.Secret)
}
