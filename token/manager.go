// Package token signs and verifies the session cookie. The cookie carries
// only an opaque session ID; signing it keeps clients from minting or
// tampering with session identifiers.
package token

import (
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// Manager creates and parses HS256-signed session tokens.
type Manager struct {
	secret []byte
	ttl    time.Duration
}

func NewManager(secret string, ttl time.Duration) *Manager {
	return &Manager{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

// NewSessionToken wraps the session ID in a signed token.
func (m *Manager) NewSessionToken(sessionID string) (string, error) {
	claims := jwtlib.MapClaims{
		"sid": sessionID,
		"iat": int64(NowTimeFunc().Unix()),
		"exp": int64(NowTimeFunc().Add(m.ttl).Unix()),
		"jti": uuid.New().String(),
	}

	signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}

// SessionID verifies the token signature and expiry and returns the session
// ID it carries.
func (m *Manager) SessionID(tokenString string) (string, error) {
	parsed, err := jwtlib.Parse(tokenString, func(t *jwtlib.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	}, jwtlib.WithTimeFunc(func() time.Time { return NowTimeFunc() }))
	if err != nil {
		return "", fmt.Errorf("parse session token: %w", err)
	}

	claims, ok := parsed.Claims.(jwtlib.MapClaims)
	if !ok || !parsed.Valid {
		return "", fmt.Errorf("invalid session token")
	}

	sid, ok := claims["sid"].(string)
	if !ok || sid == "" {
		return "", fmt.Errorf("session token has no session ID")
	}
	return sid, nil
}
