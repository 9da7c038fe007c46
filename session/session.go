package session

import (
	"time"

	"github.com/studyforge/studyforge/quiz"
)

// User is the identity record materialized on a successful OAuth callback.
type User struct {
	UID         string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	PhotoURL    string `json:"photo_url"`
}

// Tokens holds the provider tokens retained for later refresh.
type Tokens struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	IDToken      string    `json:"id_token,omitempty"`
	Expiry       time.Time `json:"expiry"`
}

// Data is the per-session state bag. Every field is optional until the
// workflow step that produces it has run; absence is a normal condition.
type Data struct {
	User   *User   `json:"user,omitempty"`
	Tokens *Tokens `json:"tokens,omitempty"`

	// Single-use CSRF token for the OAuth flow, consumed on first verify.
	OAuthState string `json:"oauth_state,omitempty"`

	DocumentPath     string `json:"document_path,omitempty"`
	DocumentText     string `json:"document_text,omitempty"`
	OriginalFilename string `json:"original_filename,omitempty"`

	SummaryText         string `json:"summary_text,omitempty"`
	SummaryArtifactPath string `json:"summary_artifact_path,omitempty"`

	Quiz            []quiz.Question `json:"quiz,omitempty"`
	CurrentQuestion int             `json:"current_question"`
	Answers         []quiz.Answer   `json:"answers,omitempty"`
}

// Authenticated reports whether the session carries a logged-in user.
func (d *Data) Authenticated() bool {
	return d.User != nil
}

// HasQuiz reports whether a quiz has been generated for this session.
func (d *Data) HasQuiz() bool {
	return len(d.Quiz) > 0
}

// clone returns a copy whose slices and pointers are independent of the
// original, so repository callers cannot mutate stored state.
func (d Data) clone() Data {
	out := d
	if d.User != nil {
		u := *d.User
		out.User = &u
	}
	if d.Tokens != nil {
		t := *d.Tokens
		out.Tokens = &t
	}
	if d.Quiz != nil {
		out.Quiz = make([]quiz.Question, len(d.Quiz))
		copy(out.Quiz, d.Quiz)
	}
	if d.Answers != nil {
		out.Answers = make([]quiz.Answer, len(d.Answers))
		copy(out.Answers, d.Answers)
	}
	return out
}
