// Package auth signs the portal's own session cookie. It never sees the
// backend bearer token.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "addmy-partner"

var ErrInvalidSession = errors.New("auth: invalid session cookie")

// SessionClaims carries only the opaque browser session id.
type SessionClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// SignSessionID returns a signed cookie value for sid. A zero ttl produces a
// token without expiry.
func SignSessionID(secret, sid string, ttl time.Duration) (string, error) {
	return SignSessionIDAt(secret, sid, ttl, time.Now())
}

// SignSessionIDAt is SignSessionID with an explicit issue time.
func SignSessionIDAt(secret, sid string, ttl time.Duration, now time.Time) (string, error) {
	if secret == "" {
		return "", errors.New("auth: empty secret")
	}
	claims := SessionClaims{
		SessionID: sid,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now.Add(-time.Minute)),
			Issuer:    issuer,
			Subject:   sid,
		},
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseSessionID verifies a cookie value and returns the session id inside it.
func ParseSessionID(secret, value string) (string, error) {
	return ParseSessionIDAt(secret, value, time.Now())
}

// ParseSessionIDAt validates expiry against now instead of the wall clock.
func ParseSessionIDAt(secret, value string, now time.Time) (string, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(value, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		return "", errors.Join(ErrInvalidSession, err)
	}
	if !token.Valid || claims.SessionID == "" {
		return "", ErrInvalidSession
	}
	return claims.SessionID, nil
}
