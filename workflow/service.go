// Package workflow implements the document -> summary -> quiz -> results
// pipeline. Every step checks that the artifacts of the preceding steps are
// present in the session before doing any work; a missing artifact is a
// normal precondition failure, reported to the caller as a typed error.
package workflow

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/studyforge/studyforge/internal/config"
	errs "github.com/studyforge/studyforge/internal/errors"
	"github.com/studyforge/studyforge/quiz"
	"github.com/studyforge/studyforge/session"
)

// TextExtractor pulls plain text from an uploaded file. An empty result is
// not an error here; later steps fail their preconditions on it.
type TextExtractor interface {
	ExtractText(path string) string
}

// SummaryGenerator produces a summary of the document text.
type SummaryGenerator interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// QuizGenerator produces the question set for the document text.
type QuizGenerator interface {
	GenerateQuiz(ctx context.Context, text, difficulty string, topics []string) ([]quiz.Question, error)
}

// SummaryRenderer writes the summary to a downloadable file and returns its
// path.
type SummaryRenderer interface {
	RenderSummary(summaryText, originalFilename string) (string, error)
}

// QuestionView is the current question plus 1-based display numbering.
type QuestionView struct {
	Question quiz.Question
	Number   int
	Total    int
}

// Service is the workflow state machine. All session mutations go through
// the repository's atomic update so concurrent requests on one session
// cannot leave the state half-written.
type Service struct {
	sessions  session.Repo
	extractor TextExtractor
	summaries SummaryGenerator
	quizzes   QuizGenerator
	renderer  SummaryRenderer

	uploadDir  string
	allowedExt map[string]bool
}

func NewService(
	sessions session.Repo,
	extractor TextExtractor,
	summaries SummaryGenerator,
	quizzes QuizGenerator,
	renderer SummaryRenderer,
	cfg config.UploadConfig,
) *Service {
	allowed := make(map[string]bool)
	for _, ext := range cfg.GetAllowedExtensions() {
		allowed[ext] = true
	}

	return &Service{
		sessions:   sessions,
		extractor:  extractor,
		summaries:  summaries,
		quizzes:    quizzes,
		renderer:   renderer,
		uploadDir:  cfg.GetUploadFolder(),
		allowedExt: allowed,
	}
}

// Session exposes the current session state for page rendering.
func (s *Service) Session(ctx context.Context, sessionID string) (session.Data, error) {
	return s.sessions.Get(ctx, sessionID)
}

// Upload validates and persists the uploaded file, extracts its text, and
// stores the document artifacts in the session. Re-uploading clears all
// downstream artifacts (summary, quiz, answers) so the session can never
// pair a stale quiz with a new document.
func (s *Service) Upload(ctx context.Context, sessionID string, file io.Reader, filename string) error {
	if filename == "" {
		return errs.ErrNoFile
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if !s.allowedExt[ext] {
		return errs.ErrInvalidFileType
	}

	original := secureFilename(filename)
	stored := fmt.Sprintf("%s_%s", uuid.New().String(), original)
	path := filepath.Join(s.uploadDir, stored)

	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return fmt.Errorf("create upload dir: %w", err)
	}
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("store upload: %w", err)
	}
	if _, err := io.Copy(out, file); err != nil {
		out.Close()
		return fmt.Errorf("store upload: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("store upload: %w", err)
	}

	text := s.extractor.ExtractText(path)
	if text == "" {
		log.Warn().Str("filename", original).Msg("No text extracted from upload")
	}

	return s.sessions.Update(ctx, sessionID, func(d *session.Data) error {
		d.DocumentPath = path
		d.DocumentText = text
		d.OriginalFilename = original

		// New document invalidates everything derived from the old one.
		d.SummaryText = ""
		d.SummaryArtifactPath = ""
		d.Quiz = nil
		d.CurrentQuestion = 0
		d.Answers = nil
		return nil
	})
}

// Summarize generates the summary and its downloadable artifact from the
// uploaded document text.
func (s *Service) Summarize(ctx context.Context, sessionID string) (string, error) {
	data, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return "", err
	}
	if data.DocumentText == "" {
		return "", errs.ErrNoDocument
	}

	summary, err := s.summaries.Summarize(ctx, data.DocumentText)
	if err != nil {
		return "", fmt.Errorf("generate summary: %w", err)
	}

	artifactPath, err := s.renderer.RenderSummary(summary, data.OriginalFilename)
	if err != nil {
		return "", fmt.Errorf("render summary: %w", err)
	}

	err = s.sessions.Update(ctx, sessionID, func(d *session.Data) error {
		d.SummaryText = summary
		d.SummaryArtifactPath = artifactPath
		return nil
	})
	if err != nil {
		return "", err
	}
	return summary, nil
}

// QuizSetup returns the summary shown on the quiz configuration page.
func (s *Service) QuizSetup(ctx context.Context, sessionID string) (string, error) {
	data, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return "", err
	}
	if data.SummaryText == "" {
		return "", errs.ErrNoSummary
	}
	return data.SummaryText, nil
}

// ConfigureQuiz generates a fresh question set and resets the answering
// sub-loop: cursor to zero, answers emptied.
func (s *Service) ConfigureQuiz(ctx context.Context, sessionID, difficulty string, topics []string) error {
	data, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	if data.DocumentText == "" {
		return errs.ErrNoDocument
	}

	questions, err := s.quizzes.GenerateQuiz(ctx, data.DocumentText, normalizeDifficulty(difficulty), topics)
	if err != nil {
		return fmt.Errorf("generate quiz: %w", err)
	}

	return s.sessions.Update(ctx, sessionID, func(d *session.Data) error {
		d.Quiz = questions
		d.CurrentQuestion = 0
		d.Answers = nil
		return nil
	})
}

// CurrentQuestion returns the question at the cursor. A cursor past the end
// means the quiz is complete and the caller should route to results.
func (s *Service) CurrentQuestion(ctx context.Context, sessionID string) (QuestionView, error) {
	data, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return QuestionView{}, err
	}
	if !data.HasQuiz() {
		return QuestionView{}, errs.ErrNoQuiz
	}
	if data.CurrentQuestion >= len(data.Quiz) {
		return QuestionView{}, errs.ErrQuizComplete
	}

	return QuestionView{
		Question: data.Quiz[data.CurrentQuestion],
		Number:   data.CurrentQuestion + 1,
		Total:    len(data.Quiz),
	}, nil
}

// SubmitAnswer records the answer for the current question and advances the
// cursor. The append and the increment are one atomic session update, so
// len(answers) == cursor holds at all times. done reports whether the quiz
// is now complete.
func (s *Service) SubmitAnswer(ctx context.Context, sessionID, selected string) (done bool, err error) {
	err = s.sessions.Update(ctx, sessionID, func(d *session.Data) error {
		if !d.HasQuiz() {
			return errs.ErrNoQuiz
		}
		if d.CurrentQuestion >= len(d.Quiz) {
			return errs.ErrQuizComplete
		}

		q := d.Quiz[d.CurrentQuestion]
		d.Answers = append(d.Answers, quiz.Answer{
			QuestionNumber: d.CurrentQuestion + 1,
			SelectedAnswer: selected,
			CorrectAnswer:  q.CorrectAnswer,
			IsCorrect:      selected == q.CorrectAnswer,
		})
		d.CurrentQuestion++
		done = d.CurrentQuestion >= len(d.Quiz)
		return nil
	})
	return done, err
}

// Results aggregates the recorded answers. It requires a configured quiz;
// zero recorded answers yields a zero score, not a fault.
func (s *Service) Results(ctx context.Context, sessionID string) (quiz.Results, error) {
	data, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return quiz.Results{}, err
	}
	if !data.HasQuiz() {
		return quiz.Results{}, errs.ErrNoResults
	}
	return quiz.Score(data.Answers), nil
}

// SummaryArtifact returns the path of the rendered summary file and the
// attachment name to serve it under.
func (s *Service) SummaryArtifact(ctx context.Context, sessionID string) (path, downloadName string, err error) {
	data, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return "", "", err
	}
	if data.SummaryArtifactPath == "" {
		return "", "", errs.ErrNoSummaryArtifact
	}

	original := data.OriginalFilename
	if original == "" {
		original = "document"
	}
	name := "Summary_" + strings.TrimSuffix(original, filepath.Ext(original)) + ".html"
	return data.SummaryArtifactPath, name, nil
}

// Reset wipes the entire session.
func (s *Service) Reset(ctx context.Context, sessionID string) error {
	return s.sessions.Delete(ctx, sessionID)
}

// ParseTopics splits a comma-separated topics string, trimming whitespace
// and dropping empty entries.
func ParseTopics(raw string) []string {
	parts := strings.Split(raw, ",")
	topics := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			topics = append(topics, p)
		}
	}
	return topics
}

func normalizeDifficulty(difficulty string) string {
	switch strings.ToLower(strings.TrimSpace(difficulty)) {
	case "easy":
		return "easy"
	case "hard":
		return "hard"
	default:
		return "medium"
	}
}

// secureFilename strips directory components and characters that are unsafe
// in a stored filename.
func secureFilename(filename string) string {
	base := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))

	var sb strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			sb.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			sb.WriteRune(r)
		default:
			sb.WriteRune('_')
		}
	}

	cleaned := strings.Trim(sb.String(), "._")
	if cleaned == "" {
		return "upload"
	}
	return cleaned
}
