package errors

import (
	"errors"
	"fmt"
)

// Common error types for the summary and quiz workflow
var (
	// Configuration errors
	ErrNotConfigured = errors.New("identity provider is not configured")

	// OAuth flow errors
	ErrProviderError   = errors.New("identity provider reported an error")
	ErrStateMismatch   = errors.New("invalid or missing state token")
	ErrMissingAuthCode = errors.New("missing authorization code")
	ErrTokenExchange   = errors.New("token exchange failed")
	ErrUserInfo        = errors.New("user info lookup failed")

	// Session errors
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrSessionNotFound  = errors.New("session not found")

	// Upload validation errors
	ErrNoFile          = errors.New("no file selected")
	ErrInvalidFileType = errors.New("invalid file type")

	// Workflow precondition errors
	ErrNoDocument        = errors.New("no document uploaded")
	ErrNoSummary         = errors.New("no summary generated")
	ErrNoQuiz            = errors.New("no active quiz")
	ErrQuizComplete      = errors.New("quiz already complete")
	ErrNoResults         = errors.New("no quiz results available")
	ErrNoSummaryArtifact = errors.New("no summary available to download")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
