package config

import "time"

type SessionConfig interface {
	GetSessionSecret() string
	GetSessionTTL() time.Duration
}

type Session struct{}

var _ SessionConfig = Session{}

func (Session) GetSessionSecret() string {
	return GetEnv("SESSION_SECRET", "hard-to-guess-string")
}

func (Session) GetSessionTTL() time.Duration {
	return 24 * time.Hour
}
