package server

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	errs "github.com/studyforge/studyforge/internal/errors"
	"github.com/studyforge/studyforge/quiz"
	"github.com/studyforge/studyforge/workflow"
)

// IndexPageData contains data for rendering the home page
type IndexPageData struct {
	AppName          string
	LoggedIn         bool
	DisplayName      string
	OriginalFilename string
	HasDocument      bool
	HasSummary       bool
	HasQuiz          bool
}

// IndexHandler renders the home page with the upload form. The page is
// public; the upload itself requires login.
func (s *Server) IndexHandler() http.HandlerFunc {
	tmpl, err := ParseTemplate("index.html")
	if err != nil {
		panic("Failed to parse index template: " + err.Error())
	}

	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := s.ensureSession(w, r)
		data, err := s.workflow.Session(r.Context(), sessionID)
		if err != nil {
			log.Err(err).Msg("Failed to load session for index page")
		}

		page := IndexPageData{
			AppName:          s.config.GetAppName(),
			LoggedIn:         data.Authenticated(),
			OriginalFilename: data.OriginalFilename,
			HasDocument:      data.DocumentText != "",
			HasSummary:       data.SummaryText != "",
			HasQuiz:          data.HasQuiz(),
		}
		if data.User != nil {
			page.DisplayName = data.User.DisplayName
		}

		w.Header().Set("Content-Type", contentTypeHTML)
		if err := tmpl.Execute(w, page); err != nil {
			log.Err(err).Msg("Failed to render index template")
		}
	}
}

// UploadHandler accepts the document upload (POST /upload). Responds with
// JSON consumed by the upload form script.
func (s *Server) UploadHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		maxBytes := s.config.GetMaxUploadBytes()
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		if err := r.ParseMultipartForm(maxBytes); err != nil {
			writeJSONError(w, http.StatusRequestEntityTooLarge, "File is too large")
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, errs.ErrNoFile.Error())
			return
		}
		defer file.Close()

		err = s.workflow.Upload(r.Context(), s.sessionID(r), file, header.Filename)
		switch {
		case err == nil:
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"success":  true,
				"redirect": RouteSummarize,
			})
		case errs.Is(err, errs.ErrNoFile), errs.Is(err, errs.ErrInvalidFileType):
			writeJSONError(w, http.StatusBadRequest, err.Error())
		default:
			log.Err(err).Msg("Upload failed")
			writeJSONError(w, http.StatusInternalServerError, "Failed to store the uploaded file")
		}
	}
}

// SummarizePageData contains data for rendering the summary page
type SummarizePageData struct {
	AppName          string
	OriginalFilename string
	SummaryText      string
	HasSummary       bool
}

// SummarizePageHandler renders the summary page (GET /summarize)
func (s *Server) SummarizePageHandler() http.HandlerFunc {
	tmpl, err := ParseTemplate("summarize.html")
	if err != nil {
		panic("Failed to parse summarize template: " + err.Error())
	}

	return func(w http.ResponseWriter, r *http.Request) {
		data := s.sessionData(r)
		if data.DocumentText == "" {
			redirectSuccess(w, r, "/")
			return
		}

		page := SummarizePageData{
			AppName:          s.config.GetAppName(),
			OriginalFilename: data.OriginalFilename,
			SummaryText:      data.SummaryText,
			HasSummary:       data.SummaryText != "",
		}

		w.Header().Set("Content-Type", contentTypeHTML)
		if err := tmpl.Execute(w, page); err != nil {
			log.Err(err).Msg("Failed to render summarize template")
		}
	}
}

// GenerateSummaryHandler produces the summary and its downloadable artifact
// (POST /generate-summary, JSON)
func (s *Server) GenerateSummaryHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		summary, err := s.workflow.Summarize(r.Context(), s.sessionID(r))
		switch {
		case err == nil:
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"success": true,
				"summary": summary,
			})
		case errs.Is(err, errs.ErrNoDocument):
			writeJSON(w, http.StatusBadRequest, map[string]interface{}{
				"error":    err.Error(),
				"redirect": "/",
			})
		default:
			log.Err(err).Msg("Summary generation failed")
			writeJSONError(w, http.StatusInternalServerError, "Failed to generate the summary")
		}
	}
}

// QuizSetupPageData contains data for rendering the quiz configuration page
type QuizSetupPageData struct {
	AppName     string
	SummaryText string
}

// QuizSetupPageHandler renders the quiz configuration page (GET /quiz-setup)
func (s *Server) QuizSetupPageHandler() http.HandlerFunc {
	tmpl, err := ParseTemplate("quiz_setup.html")
	if err != nil {
		panic("Failed to parse quiz setup template: " + err.Error())
	}

	return func(w http.ResponseWriter, r *http.Request) {
		summary, err := s.workflow.QuizSetup(r.Context(), s.sessionID(r))
		if err != nil {
			s.redirectPrecondition(w, r, err)
			return
		}

		page := QuizSetupPageData{
			AppName:     s.config.GetAppName(),
			SummaryText: summary,
		}

		w.Header().Set("Content-Type", contentTypeHTML)
		if err := tmpl.Execute(w, page); err != nil {
			log.Err(err).Msg("Failed to render quiz setup template")
		}
	}
}

// GenerateQuizHandler generates the question set from the submitted
// difficulty and topics (POST /generate-quiz, JSON)
func (s *Server) GenerateQuizHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			writeJSONError(w, http.StatusBadRequest, "Invalid form data")
			return
		}
		difficulty := r.FormValue("difficulty")
		topics := workflow.ParseTopics(r.FormValue("topics"))

		err := s.workflow.ConfigureQuiz(r.Context(), s.sessionID(r), difficulty, topics)
		switch {
		case err == nil:
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"success":  true,
				"redirect": RouteQuiz,
			})
		case errs.Is(err, errs.ErrNoDocument):
			writeJSON(w, http.StatusBadRequest, map[string]interface{}{
				"error":    err.Error(),
				"redirect": "/",
			})
		default:
			log.Err(err).Msg("Quiz generation failed")
			writeJSONError(w, http.StatusInternalServerError, "Failed to generate the quiz")
		}
	}
}

// QuizPageData contains data for rendering the current question
type QuizPageData struct {
	AppName  string
	Question quiz.Question
	Number   int
	Total    int
}

// QuizPageHandler renders the current question (GET /quiz)
func (s *Server) QuizPageHandler() http.HandlerFunc {
	tmpl, err := ParseTemplate("quiz.html")
	if err != nil {
		panic("Failed to parse quiz template: " + err.Error())
	}

	return func(w http.ResponseWriter, r *http.Request) {
		view, err := s.workflow.CurrentQuestion(r.Context(), s.sessionID(r))
		if err != nil {
			s.redirectPrecondition(w, r, err)
			return
		}

		page := QuizPageData{
			AppName:  s.config.GetAppName(),
			Question: view.Question,
			Number:   view.Number,
			Total:    view.Total,
		}

		w.Header().Set("Content-Type", contentTypeHTML)
		if err := tmpl.Execute(w, page); err != nil {
			log.Err(err).Msg("Failed to render quiz template")
		}
	}
}

// SubmitAnswerHandler records the answer for the current question
// (POST /submit-answer, JSON)
func (s *Server) SubmitAnswerHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			writeJSONError(w, http.StatusBadRequest, "Invalid form data")
			return
		}
		answer := r.FormValue("answer")
		if answer == "" {
			writeJSONError(w, http.StatusBadRequest, "No answer selected")
			return
		}

		done, err := s.workflow.SubmitAnswer(r.Context(), s.sessionID(r), answer)
		switch {
		case err == nil:
			redirect := RouteQuiz
			if done {
				redirect = RouteResults
			}
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"success":  true,
				"redirect": redirect,
			})
		case errs.Is(err, errs.ErrNoQuiz):
			writeJSON(w, http.StatusBadRequest, map[string]interface{}{
				"error":    err.Error(),
				"redirect": RouteQuizSetup,
			})
		case errs.Is(err, errs.ErrQuizComplete):
			writeJSON(w, http.StatusBadRequest, map[string]interface{}{
				"error":    err.Error(),
				"redirect": RouteResults,
			})
		default:
			log.Err(err).Msg("Failed to record answer")
			writeJSONError(w, http.StatusInternalServerError, "Failed to record the answer")
		}
	}
}

// ResultsPageData contains data for rendering the score page
type ResultsPageData struct {
	AppName string
	Results quiz.Results
}

// ResultsHandler renders the score page (GET /results)
func (s *Server) ResultsHandler() http.HandlerFunc {
	tmpl, err := ParseTemplate("results.html")
	if err != nil {
		panic("Failed to parse results template: " + err.Error())
	}

	return func(w http.ResponseWriter, r *http.Request) {
		results, err := s.workflow.Results(r.Context(), s.sessionID(r))
		if err != nil {
			s.redirectPrecondition(w, r, err)
			return
		}

		page := ResultsPageData{
			AppName: s.config.GetAppName(),
			Results: results,
		}

		w.Header().Set("Content-Type", contentTypeHTML)
		if err := tmpl.Execute(w, page); err != nil {
			log.Err(err).Msg("Failed to render results template")
		}
	}
}

// DownloadSummaryHandler serves the rendered summary file as an attachment
// (GET /download-summary)
func (s *Server) DownloadSummaryHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path, downloadName, err := s.workflow.SummaryArtifact(r.Context(), s.sessionID(r))
		if err != nil {
			s.redirectPrecondition(w, r, err)
			return
		}

		w.Header().Set("Content-Disposition", `attachment; filename="`+downloadName+`"`)
		http.ServeFile(w, r, path)
	}
}

// ResetHandler wipes the whole session, workflow state and identity alike
// (GET /reset)
func (s *Server) ResetHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := s.ensureSession(w, r)
		if err := s.workflow.Reset(r.Context(), sessionID); err != nil {
			log.Err(err).Msg("Failed to reset session")
		}
		s.clearSessionCookie(w, r)
		redirectSuccess(w, r, "/")
	}
}

// redirectPrecondition sends the visitor to the workflow step that produces
// the artifact a page is missing.
func (s *Server) redirectPrecondition(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errs.Is(err, errs.ErrNoDocument):
		redirectSuccess(w, r, "/")
	case errs.Is(err, errs.ErrNoSummary):
		redirectSuccess(w, r, RouteSummarize)
	case errs.Is(err, errs.ErrNoQuiz), errs.Is(err, errs.ErrNoResults):
		redirectSuccess(w, r, RouteQuizSetup)
	case errs.Is(err, errs.ErrQuizComplete):
		redirectSuccess(w, r, RouteResults)
	case errs.Is(err, errs.ErrNoSummaryArtifact):
		redirectSuccess(w, r, RouteSummarize)
	default:
		log.Err(err).Msg("Workflow request failed")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Err(err).Msg("Failed to encode JSON response")
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{"error": message})
}
