package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	// Auth Routes
	RouteLogin          = "/login"
	RouteGoogleLogin    = "/auth/google-login"
	RouteGoogleCallback = "/auth/google-callback"
	RouteLogout         = "/auth/logout"

	// Workflow Routes
	RouteUpload          = "/upload"
	RouteSummarize       = "/summarize"
	RouteGenerateSummary = "/generate-summary"
	RouteQuizSetup       = "/quiz-setup"
	RouteGenerateQuiz    = "/generate-quiz"
	RouteQuiz            = "/quiz"
	RouteSubmitAnswer    = "/submit-answer"
	RouteResults         = "/results"
	RouteDownloadSummary = "/download-summary"
	RouteReset           = "/reset"

	// Static Asset Routes (patterns)
	RouteStaticCSS = "/css/{file}"
	RouteStaticJS  = "/js/{file}"
)
