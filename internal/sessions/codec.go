package sessions

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidCookie is returned when a cookie is unsigned, tampered or expired.
var ErrInvalidCookie = errors.New("invalid session cookie")

type cookieClaims struct {
	SID string `json:"sid"`
	jwt.RegisteredClaims
}

// Codec signs session ids into cookie values with HS256.
type Codec struct {
	secret []byte
	now    func() time.Time
}

// NewCodec builds a Codec. The secret must not be empty.
func NewCodec(secret string, now func() time.Time) (*Codec, error) {
	if secret == "" {
		return nil, fmt.Errorf("session secret is required")
	}
	if now == nil {
		now = time.Now
	}
	return &Codec{secret: []byte(secret), now: now}, nil
}

// Encode returns a signed token carrying sid, valid until exp.
func (c *Codec) Encode(sid string, exp time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, cookieClaims{
		SID: sid,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(c.now()),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})
	return token.SignedString(c.secret)
}

// Decode verifies the token and returns the session id it carries.
func (c *Codec) Decode(value string) (string, error) {
	claims := &cookieClaims{}
	token, err := jwt.ParseWithClaims(value, claims, func(token *jwt.Token) (interface{}, error) {
		return c.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(c.now))
	if err != nil || !token.Valid {
		return "", fmt.Errorf("%w: %v", ErrInvalidCookie, err)
	}
	if claims.SID == "" {
		return "", fmt.Errorf("%w: missing sid", ErrInvalidCookie)
	}
	return claims.SID, nil
}
