package server

import (
	"net/http"
	"net/url"

	"github.com/rs/zerolog/log"

	errs "github.com/studyforge/studyforge/internal/errors"
)

// LoginPageData contains data for rendering the login page
type LoginPageData struct {
	AppName string
	Error   string
}

// LoginPageUIHandler displays the login page (GET /login)
func (s *Server) LoginPageUIHandler() http.HandlerFunc {
	loginTmpl, err := ParseTemplate("login.html")
	if err != nil {
		log.Err(err).Msg("Failed to parse login template")
	}

	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := s.ensureSession(w, r)

		// Already logged in; nothing to do here.
		data, err := s.workflow.Session(r.Context(), sessionID)
		if err == nil && data.Authenticated() {
			redirectSuccess(w, r, "/")
			return
		}

		page := LoginPageData{
			AppName: s.config.GetAppName(),
			Error:   r.URL.Query().Get("error"),
		}

		w.Header().Set("Content-Type", contentTypeHTML)
		if err := loginTmpl.Execute(w, page); err != nil {
			log.Err(err).Msg("Failed to render login template")
			http.Error(w, "Failed to render login page", http.StatusInternalServerError)
		}
	}
}

// GoogleLoginHandler starts the OAuth flow: issues a state token for the
// session and redirects to the provider's consent screen.
func (s *Server) GoogleLoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := s.ensureSession(w, r)

		authURL, err := s.auth.InitiateLogin(r.Context(), sessionID)
		if err != nil {
			if errs.Is(err, errs.ErrNotConfigured) {
				s.redirectLoginError(w, r, "Login is not configured on this server")
				return
			}
			log.Err(err).Msg("Failed to initiate login")
			s.redirectLoginError(w, r, "Could not start the login flow")
			return
		}

		http.Redirect(w, r, authURL, http.StatusSeeOther)
	}
}

// GoogleCallbackHandler completes the OAuth flow. Validation order is fixed:
// provider error, state token, code presence, exchange, user info.
func (s *Server) GoogleCallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := s.ensureSession(w, r)

		code := r.URL.Query().Get("code")
		state := r.URL.Query().Get("state")
		errParam := r.URL.Query().Get("error")

		err := s.auth.HandleCallback(r.Context(), sessionID, code, state, errParam)
		if err == nil {
			redirectSuccess(w, r, "/")
			return
		}

		log.Err(err).Msg("OAuth callback failed")
		switch {
		case errs.Is(err, errs.ErrProviderError):
			s.redirectLoginError(w, r, "The identity provider reported an error")
		case errs.Is(err, errs.ErrStateMismatch):
			s.redirectLoginError(w, r, "Invalid login state, please try again")
		case errs.Is(err, errs.ErrMissingAuthCode):
			s.redirectLoginError(w, r, "No authorization code received")
		default:
			s.redirectLoginError(w, r, "Login failed, please try again")
		}
	}
}

// LogoutHandler clears the user identity and tokens. The uploaded document
// and quiz progress stay with the session.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := s.ensureSession(w, r)

		if err := s.auth.Logout(r.Context(), sessionID); err != nil {
			log.Err(err).Msg("Failed to log out session")
		}
		redirectSuccess(w, r, "/")
	}
}

// redirectLoginError sends the visitor back to the login page with an error
// message in the query string.
func (s *Server) redirectLoginError(w http.ResponseWriter, r *http.Request, errorMsg string) {
	redirectSuccess(w, r, RouteLogin+"?error="+url.QueryEscape(errorMsg))
}

func redirectSuccess(w http.ResponseWriter, r *http.Request, location string) {
	http.Redirect(w, r, location, http.StatusSeeOther)
}
