package server

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const sessionCookieName = "studyforge_session"

// ensureSession resolves the session ID from the signed session cookie. A
// missing, expired, or tampered cookie gets replaced with a fresh anonymous
// session.
func (s *Server) ensureSession(w http.ResponseWriter, r *http.Request) string {
	if cookie, err := r.Cookie(sessionCookieName); err == nil && cookie.Value != "" {
		if sessionID, err := s.tokens.SessionID(cookie.Value); err == nil {
			return sessionID
		}
	}

	sessionID := uuid.New().String()
	s.setSessionCookie(w, r, sessionID)
	return sessionID
}

func (s *Server) setSessionCookie(w http.ResponseWriter, r *http.Request, sessionID string) {
	signed, err := s.tokens.NewSessionToken(sessionID)
	if err != nil {
		log.Err(err).Msg("Failed to sign session cookie")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    signed,
		Path:     "/",
		MaxAge:   int(s.config.GetSessionTTL().Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   getScheme(r) == "https",
	})
}

func (s *Server) clearSessionCookie(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   getScheme(r) == "https",
	})
}
