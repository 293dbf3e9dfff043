package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token errors
var (
	ErrTokenDisabled = errors.New("form tokens are not configured")
	ErrTokenInvalid  = errors.New("form token is invalid or expired")
)

// TokenIssuer mints and verifies the short-lived signed tokens that the
// frontend embeds in a form when it renders it. The token's issued-at claim
// is a server-attested render timestamp, so the timing check does not have
// to trust a client-supplied number when a token is present.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer creates a token issuer. An empty secret disables issuance;
// Issue and Verify then return ErrTokenDisabled.
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Enabled reports whether tokens are configured.
func (t *TokenIssuer) Enabled() bool {
	return len(t.secret) > 0
}

// Issue returns a signed token whose issued-at is the current time.
func (t *TokenIssuer) Issue() (string, error) {
	if !t.Enabled() {
		return "", ErrTokenDisabled
	}

	now := t.now()
	claims := jwt.RegisteredClaims{
		Issuer:    "hscsonoma-forms",
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// RenderedAt verifies the token and returns the render time it attests to.
func (t *TokenIssuer) RenderedAt(tokenString string) (time.Time, error) {
	if !t.Enabled() {
		return time.Time{}, ErrTokenDisabled
	}

	parsed, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, ErrTokenInvalid
			}
			return t.secret, nil
		},
		jwt.WithTimeFunc(t.now),
	)
	if err != nil || !parsed.Valid {
		return time.Time{}, ErrTokenInvalid
	}

	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.IssuedAt == nil {
		return time.Time{}, ErrTokenInvalid
	}

	return claims.IssuedAt.Time, nil
}
