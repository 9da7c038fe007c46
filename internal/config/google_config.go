package config

import "strings"

type GoogleOAuthConfig interface {
	GetGoogleClientID() string
	GetGoogleClientSecret() string
	GetGoogleIssuer() string
	GetOAuthRedirectURL() string
}

type Google struct{}

var _ GoogleOAuthConfig = Google{}

func (Google) GetGoogleClientID() string {
	return stripQuotes(GetEnv("GOOGLE_CLIENT_ID", ""))
}

func (Google) GetGoogleClientSecret() string {
	return stripQuotes(GetEnv("GOOGLE_CLIENT_SECRET", ""))
}

// GetGoogleIssuer returns the OIDC issuer URL. Overridable so tests can point
// the client at a fake provider.
func (Google) GetGoogleIssuer() string {
	return GetEnv("GOOGLE_ISSUER", "https://accounts.google.com")
}

func (Google) GetOAuthRedirectURL() string {
	base := strings.TrimSuffix(EnvVars{}.GetBaseURL(), "/")
	return base + "/auth/google-callback"
}

// stripQuotes removes stray surrounding quotes that sneak in from .env files.
func stripQuotes(s string) string {
	if len(s) >= 2 && s[0] == '\'' && s[len(s)-1] == '\'' {
		return s[1 : len(s)-1]
	}
	return s
}
