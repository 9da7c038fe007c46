package config

type GeminiConfig interface {
	GetGeminiAPIKey() string
	GetGeminiModel() string
	GetGeminiBaseURL() string
	GetMaxDocumentChars() int
}

type Gemini struct{}

var _ GeminiConfig = Gemini{}

func (Gemini) GetGeminiAPIKey() string {
	return stripQuotes(GetEnv("GEMINI_API_KEY", ""))
}

func (Gemini) GetGeminiModel() string {
	return GetEnv("GEMINI_MODEL", "gemini-2.0-flash")
}

func (Gemini) GetGeminiBaseURL() string {
	return GetEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com")
}

// GetMaxDocumentChars caps how much document text is sent to the model, to
// respect upstream token limits.
func (Gemini) GetMaxDocumentChars() int {
	return 100000
}
