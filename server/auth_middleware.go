package server

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	errs "github.com/studyforge/studyforge/internal/errors"
	"github.com/studyforge/studyforge/session"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ContextKeySessionID stores the resolved session ID
	ContextKeySessionID ContextKey = "session_id"
	// ContextKeySessionData stores the loaded session state
	ContextKeySessionData ContextKey = "session_data"
)

// RequireSessionAuth is middleware for the workflow routes. It resolves the
// session cookie, loads the session, and redirects anonymous visitors to the
// login page. An expired access token gets refreshed in place when a refresh
// token is available.
func (s *Server) RequireSessionAuth() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			sessionID := s.ensureSession(w, r)

			data, err := s.workflow.Session(r.Context(), sessionID)
			if err != nil {
				log.Err(err).Msg("Failed to load session")
				http.Redirect(w, r, RouteLogin, http.StatusSeeOther)
				return
			}

			if !data.Authenticated() {
				http.Redirect(w, r, RouteLogin, http.StatusSeeOther)
				return
			}

			if s.tokenExpired(data) {
				data, err = s.refreshTokens(r.Context(), sessionID, data)
				if err != nil {
					log.Err(err).Msg("Token refresh failed")
					http.Redirect(w, r, RouteLogin, http.StatusSeeOther)
					return
				}
			}

			ctx := context.WithValue(r.Context(), ContextKeySessionID, sessionID)
			ctx = context.WithValue(ctx, ContextKeySessionData, data)
			next(w, r.WithContext(ctx))
		}
	}
}

func (s *Server) tokenExpired(data session.Data) bool {
	if data.Tokens == nil || data.Tokens.Expiry.IsZero() {
		return false
	}
	return data.Tokens.Expiry.Before(time.Now())
}

func (s *Server) refreshTokens(ctx context.Context, sessionID string, data session.Data) (session.Data, error) {
	if s.refresher == nil || data.Tokens.RefreshToken == "" {
		// Nothing to refresh with; force a fresh login.
		return data, errs.ErrNotAuthenticated
	}

	refreshed, err := s.refresher.Refresh(ctx, data.Tokens.RefreshToken)
	if err != nil {
		return data, err
	}

	err = s.sessions.Update(ctx, sessionID, func(d *session.Data) error {
		if d.Tokens == nil {
			d.Tokens = &session.Tokens{}
		}
		d.Tokens.AccessToken = refreshed.AccessToken
		d.Tokens.Expiry = refreshed.Expiry
		if refreshed.RefreshToken != "" {
			d.Tokens.RefreshToken = refreshed.RefreshToken
		}
		return nil
	})
	if err != nil {
		return data, err
	}
	return s.workflow.Session(ctx, sessionID)
}

// sessionID returns the session ID injected by RequireSessionAuth.
func (s *Server) sessionID(r *http.Request) string {
	sessionID, _ := r.Context().Value(ContextKeySessionID).(string)
	return sessionID
}

// sessionData returns the session state injected by RequireSessionAuth.
func (s *Server) sessionData(r *http.Request) session.Data {
	data, _ := r.Context().Value(ContextKeySessionData).(session.Data)
	return data
}
