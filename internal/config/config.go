package config

import "github.com/joho/godotenv"

type Config interface {
	EnvConfig
	GoogleOAuthConfig
	GeminiConfig
	UploadConfig
	SessionConfig
}

type mainConfig struct {
	EnvVars
	Google
	Gemini
	Upload
	Session
}

func New() Config {
	// Optional .env file for local development; a missing file is fine.
	_ = godotenv.Load()
	return mainConfig{}
}
