// Package csrf issues and verifies the one-time state tokens that bind an
// OAuth login attempt to the session that initiated it.
package csrf

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"github.com/studyforge/studyforge/session"
)

// tokenBytes gives 128 bits of entropy, rendered as 32 hex characters.
const tokenBytes = 16

// Manager stores state tokens in the session so a forged callback cannot
// present a token issued to a different browser.
type Manager struct {
	sessions session.Repo
}

func NewManager(sessions session.Repo) *Manager {
	return &Manager{sessions: sessions}
}

// Issue generates a random state token and stores it as the session's
// pending OAuth state, overwriting any prior value.
func (m *Manager) Issue(ctx context.Context, sessionID string) (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate state token: %w", err)
	}
	token := hex.EncodeToString(b)

	err := m.sessions.Update(ctx, sessionID, func(d *session.Data) error {
		d.OAuthState = token
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("store state token: %w", err)
	}
	return token, nil
}

// Verify consumes the session's pending state token and reports whether the
// received value matches it. The stored token is removed regardless of the
// outcome, so a token can never be checked twice.
func (m *Manager) Verify(ctx context.Context, sessionID, received string) (bool, error) {
	var stored string
	err := m.sessions.Update(ctx, sessionID, func(d *session.Data) error {
		stored = d.OAuthState
		d.OAuthState = ""
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("consume state token: %w", err)
	}

	if received == "" || stored == "" {
		return false, nil
	}
	return subtle.ConstantTimeCompare([]byte(received), []byte(stored)) == 1, nil
}
