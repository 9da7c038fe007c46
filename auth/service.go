// Package auth orchestrates the OAuth login flow: login initiation, callback
// validation, token exchange, and session materialization of the identity.
package auth

import (
	"context"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/studyforge/studyforge/csrf"
	"github.com/studyforge/studyforge/googleauth"
	errs "github.com/studyforge/studyforge/internal/errors"
	"github.com/studyforge/studyforge/session"
)

// Provider is the narrow identity-provider surface the flow needs.
// Implemented by googleauth.Client.
type Provider interface {
	AuthCodeURL(ctx context.Context, state string) (string, error)
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
	UserInfo(ctx context.Context, token *oauth2.Token) (googleauth.Profile, error)
}

// Service drives a session through Anonymous -> LoginInitiated ->
// CallbackReceived -> Authenticated. A provider of nil means the identity
// provider was never configured; login attempts then fail immediately.
type Service struct {
	provider Provider
	states   *csrf.Manager
	sessions session.Repo
}

func NewService(provider Provider, states *csrf.Manager, sessions session.Repo) *Service {
	return &Service{
		provider: provider,
		states:   states,
		sessions: sessions,
	}
}

// InitiateLogin issues a fresh state token and returns the provider's
// authorization URL the caller should redirect to.
func (s *Service) InitiateLogin(ctx context.Context, sessionID string) (string, error) {
	if s.provider == nil {
		return "", errs.ErrNotConfigured
	}

	state, err := s.states.Issue(ctx, sessionID)
	if err != nil {
		return "", err
	}
	return s.provider.AuthCodeURL(ctx, state)
}

// HandleCallback validates the provider callback and, on success, stores the
// authenticated identity in the session.
//
// The checks run in a fixed order: a provider-reported error short-circuits
// before the state token is touched; then the state token is consumed and
// compared; then the code must be present; then the exchange and the
// user-info lookup run. Neither is retried: authorization codes are
// single-use upstream, so a replayed callback fails cleanly at the exchange.
func (s *Service) HandleCallback(ctx context.Context, sessionID, code, state, errParam string) error {
	if s.provider == nil {
		return errs.ErrNotConfigured
	}

	if errParam != "" {
		return errs.Wrapf(errs.ErrProviderError, "%s", errParam)
	}

	ok, err := s.states.Verify(ctx, sessionID, state)
	if err != nil {
		return err
	}
	if !ok {
		return errs.ErrStateMismatch
	}

	if code == "" {
		return errs.ErrMissingAuthCode
	}

	token, err := s.provider.Exchange(ctx, code)
	if err != nil {
		return err
	}

	profile, err := s.provider.UserInfo(ctx, token)
	if err != nil {
		return err
	}

	err = s.sessions.Update(ctx, sessionID, func(d *session.Data) error {
		d.User = &session.User{
			UID:         profile.Sub,
			Email:       profile.Email,
			DisplayName: profile.Name,
			PhotoURL:    profile.Picture,
		}
		d.Tokens = &session.Tokens{
			AccessToken:  token.AccessToken,
			RefreshToken: token.RefreshToken,
			Expiry:       token.Expiry,
		}
		if idToken, ok := token.Extra("id_token").(string); ok {
			d.Tokens.IDToken = idToken
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Info().Str("email", profile.Email).Msg("User authenticated")
	return nil
}

// Logout removes the user identity and stored tokens from the session. The
// rest of the workflow state is left alone; Reset clears everything.
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	return s.sessions.Update(ctx, sessionID, func(d *session.Data) error {
		d.User = nil
		d.Tokens = nil
		return nil
	})
}
