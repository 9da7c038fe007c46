package workflow_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/studyforge/studyforge/internal/config"
	errs "github.com/studyforge/studyforge/internal/errors"
	"github.com/studyforge/studyforge/quiz"
	"github.com/studyforge/studyforge/session"
	"github.com/studyforge/studyforge/workflow"
	"github.com/stretchr/testify/require"
)

const testSessionID = "session-1"

type stubExtractor struct {
	text string
}

func (s stubExtractor) ExtractText(string) string { return s.text }

type stubSummarizer struct {
	summary string
	err     error
}

func (s stubSummarizer) Summarize(context.Context, string) (string, error) {
	return s.summary, s.err
}

type stubQuizGen struct {
	questions []quiz.Question
	err       error

	seenDifficulty string
	seenTopics     []string
}

func (s *stubQuizGen) GenerateQuiz(_ context.Context, _, difficulty string, topics []string) ([]quiz.Question, error) {
	s.seenDifficulty = difficulty
	s.seenTopics = topics
	return s.questions, s.err
}

type stubRenderer struct {
	path string
	err  error
}

func (s stubRenderer) RenderSummary(string, string) (string, error) { return s.path, s.err }

type testUploadConfig struct {
	dir string
}

func (c testUploadConfig) GetUploadFolder() string        { return c.dir }
func (c testUploadConfig) GetAllowedExtensions() []string { return []string{"pdf", "txt", "md"} }
func (c testUploadConfig) GetMaxUploadBytes() int64       { return 16 * 1024 * 1024 }

var _ config.UploadConfig = testUploadConfig{}

func stubQuestions(n int) []quiz.Question {
	questions := make([]quiz.Question, 0, n)
	for i := 0; i < n; i++ {
		questions = append(questions, quiz.Question{
			Question:      fmt.Sprintf("Stub question %d?", i+1),
			Options:       []string{"A. One", "B. Two", "C. Three", "D. Four"},
			CorrectAnswer: "A. One",
			Explanation:   "Stub explanation",
		})
	}
	return questions
}

type fixture struct {
	sessions *session.InMemoryRepo
	quizzes  *stubQuizGen
	service  *workflow.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	sessions := session.NewInMemoryRepo()
	quizzes := &stubQuizGen{questions: stubQuestions(10)}
	service := workflow.NewService(
		sessions,
		stubExtractor{text: "Paris is the capital of France."},
		stubSummarizer{summary: "# Summary\n\nParis is the capital of France."},
		quizzes,
		stubRenderer{path: "/tmp/summary_test.html"},
		testUploadConfig{dir: t.TempDir()},
	)
	return &fixture{sessions: sessions, quizzes: quizzes, service: service}
}

func (f *fixture) upload(t *testing.T) {
	t.Helper()
	err := f.service.Upload(context.Background(), testSessionID,
		strings.NewReader("Paris is the capital of France."), "geography.txt")
	require.NoError(t, err)
}

func (f *fixture) data(t *testing.T) session.Data {
	t.Helper()
	data, err := f.sessions.Get(context.Background(), testSessionID)
	require.NoError(t, err)
	return data
}

func TestUploadStoresDocumentArtifacts(t *testing.T) {
	f := newFixture(t)
	f.upload(t)

	data := f.data(t)
	require.Equal(t, "Paris is the capital of France.", data.DocumentText)
	require.Equal(t, "geography.txt", data.OriginalFilename)
	require.NotEmpty(t, data.DocumentPath)
	require.FileExists(t, data.DocumentPath)

	content, err := os.ReadFile(data.DocumentPath)
	require.NoError(t, err)
	require.Equal(t, "Paris is the capital of France.", string(content))
}

func TestUploadRejectsEmptyFilename(t *testing.T) {
	f := newFixture(t)

	err := f.service.Upload(context.Background(), testSessionID, strings.NewReader("x"), "")
	require.ErrorIs(t, err, errs.ErrNoFile)
	require.Empty(t, f.data(t).DocumentText)
}

func TestUploadRejectsDisallowedExtension(t *testing.T) {
	f := newFixture(t)

	err := f.service.Upload(context.Background(), testSessionID, strings.NewReader("x"), "malware.exe")
	require.ErrorIs(t, err, errs.ErrInvalidFileType)
	require.Empty(t, f.data(t).DocumentText)
}

func TestUploadSanitizesFilename(t *testing.T) {
	f := newFixture(t)

	err := f.service.Upload(context.Background(), testSessionID,
		strings.NewReader("x"), "../../etc/pass wd$.txt")
	require.NoError(t, err)

	data := f.data(t)
	require.NotContains(t, data.OriginalFilename, "/")
	require.NotContains(t, data.OriginalFilename, " ")
	require.True(t, strings.HasSuffix(data.OriginalFilename, ".txt"))
}

func TestReUploadClearsDownstreamArtifacts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.upload(t)

	_, err := f.service.Summarize(ctx, testSessionID)
	require.NoError(t, err)
	require.NoError(t, f.service.ConfigureQuiz(ctx, testSessionID, "easy", nil))
	_, err = f.service.SubmitAnswer(ctx, testSessionID, "A. One")
	require.NoError(t, err)

	f.upload(t)

	data := f.data(t)
	require.Empty(t, data.SummaryText)
	require.Empty(t, data.SummaryArtifactPath)
	require.Nil(t, data.Quiz)
	require.Zero(t, data.CurrentQuestion)
	require.Nil(t, data.Answers)
}

func TestSummarizeRequiresDocument(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Summarize(context.Background(), testSessionID)
	require.ErrorIs(t, err, errs.ErrNoDocument)
	require.Empty(t, f.data(t).SummaryText)
}

func TestSummarizeStoresSummaryAndArtifact(t *testing.T) {
	f := newFixture(t)
	f.upload(t)

	summary, err := f.service.Summarize(context.Background(), testSessionID)
	require.NoError(t, err)
	require.Contains(t, summary, "Paris is the capital of France.")

	data := f.data(t)
	require.Equal(t, summary, data.SummaryText)
	require.Equal(t, "/tmp/summary_test.html", data.SummaryArtifactPath)
}

func TestQuizSetupRequiresSummary(t *testing.T) {
	f := newFixture(t)
	f.upload(t)

	_, err := f.service.QuizSetup(context.Background(), testSessionID)
	require.ErrorIs(t, err, errs.ErrNoSummary)
}

func TestConfigureQuizRequiresDocument(t *testing.T) {
	f := newFixture(t)

	err := f.service.ConfigureQuiz(context.Background(), testSessionID, "easy", nil)
	require.ErrorIs(t, err, errs.ErrNoDocument)
}

func TestConfigureQuizResetsAnswerLoop(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.upload(t)

	require.NoError(t, f.service.ConfigureQuiz(ctx, testSessionID, "easy", nil))

	data := f.data(t)
	require.Len(t, data.Quiz, 10)
	require.Zero(t, data.CurrentQuestion)
	require.Empty(t, data.Answers)
	require.Equal(t, "easy", f.quizzes.seenDifficulty)
}

func TestConfigureQuizNormalizesDifficulty(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.upload(t)

	require.NoError(t, f.service.ConfigureQuiz(ctx, testSessionID, "IMPOSSIBLE", nil))
	require.Equal(t, "medium", f.quizzes.seenDifficulty)

	require.NoError(t, f.service.ConfigureQuiz(ctx, testSessionID, " Hard ", nil))
	require.Equal(t, "hard", f.quizzes.seenDifficulty)
}

func TestConfigureQuizGenerationFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.upload(t)
	f.quizzes.err = errors.New("model unavailable")

	err := f.service.ConfigureQuiz(ctx, testSessionID, "easy", nil)
	require.Error(t, err)
	require.Nil(t, f.data(t).Quiz)
}

func TestCurrentQuestionRequiresQuiz(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.CurrentQuestion(context.Background(), testSessionID)
	require.ErrorIs(t, err, errs.ErrNoQuiz)
}

func TestCurrentQuestionNumbering(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.upload(t)
	require.NoError(t, f.service.ConfigureQuiz(ctx, testSessionID, "easy", nil))

	view, err := f.service.CurrentQuestion(ctx, testSessionID)
	require.NoError(t, err)
	require.Equal(t, 1, view.Number)
	require.Equal(t, 10, view.Total)
	require.Equal(t, "Stub question 1?", view.Question.Question)
}

func TestSubmitAnswerRequiresQuiz(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.SubmitAnswer(context.Background(), testSessionID, "A. One")
	require.ErrorIs(t, err, errs.ErrNoQuiz)
}

func TestAnswerLoopInvariant(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.upload(t)
	require.NoError(t, f.service.ConfigureQuiz(ctx, testSessionID, "easy", nil))

	// len(answers) == current cursor after every submission.
	for i := 1; i <= 3; i++ {
		done, err := f.service.SubmitAnswer(ctx, testSessionID, "A. One")
		require.NoError(t, err)
		require.False(t, done)

		data := f.data(t)
		require.Equal(t, i, data.CurrentQuestion)
		require.Len(t, data.Answers, i)
	}
}

func TestAnswerLoopToCompletion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.upload(t)
	require.NoError(t, f.service.ConfigureQuiz(ctx, testSessionID, "easy", nil))

	answers := []string{
		"A. One", "B. Two", "A. One", "C. Three", "A. One",
		"A. One", "D. Four", "A. One", "A. One", "A. One",
	}
	for i, selected := range answers {
		done, err := f.service.SubmitAnswer(ctx, testSessionID, selected)
		require.NoError(t, err)
		require.Equal(t, i == len(answers)-1, done)
	}

	// The loop is closed: no further question, no further answer.
	_, err := f.service.CurrentQuestion(ctx, testSessionID)
	require.ErrorIs(t, err, errs.ErrQuizComplete)
	_, err = f.service.SubmitAnswer(ctx, testSessionID, "A. One")
	require.ErrorIs(t, err, errs.ErrQuizComplete)

	results, err := f.service.Results(ctx, testSessionID)
	require.NoError(t, err)
	require.Equal(t, 7, results.CorrectCount)
	require.Equal(t, 10, results.TotalQuestions)
	require.InDelta(t, 70.0, results.ScorePercentage, 0.01)

	first := results.Answers[0]
	require.Equal(t, 1, first.QuestionNumber)
	require.Equal(t, "A. One", first.SelectedAnswer)
	require.True(t, first.IsCorrect)
	second := results.Answers[1]
	require.Equal(t, "B. Two", second.SelectedAnswer)
	require.Equal(t, "A. One", second.CorrectAnswer)
	require.False(t, second.IsCorrect)
}

func TestResultsRequireQuiz(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Results(context.Background(), testSessionID)
	require.ErrorIs(t, err, errs.ErrNoResults)
}

func TestResultsWithZeroAnswers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.upload(t)
	require.NoError(t, f.service.ConfigureQuiz(ctx, testSessionID, "easy", nil))

	results, err := f.service.Results(ctx, testSessionID)
	require.NoError(t, err)
	require.Zero(t, results.TotalQuestions)
	require.Zero(t, results.ScorePercentage)
}

func TestSummaryArtifactRequiresRenderedSummary(t *testing.T) {
	f := newFixture(t)

	_, _, err := f.service.SummaryArtifact(context.Background(), testSessionID)
	require.ErrorIs(t, err, errs.ErrNoSummaryArtifact)
}

func TestSummaryArtifactDownloadName(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.upload(t)
	_, err := f.service.Summarize(ctx, testSessionID)
	require.NoError(t, err)

	path, name, err := f.service.SummaryArtifact(ctx, testSessionID)
	require.NoError(t, err)
	require.Equal(t, "/tmp/summary_test.html", path)
	require.Equal(t, "Summary_geography.html", name)
}

func TestResetWipesEverything(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.upload(t)
	_, err := f.service.Summarize(ctx, testSessionID)
	require.NoError(t, err)
	require.NoError(t, f.service.ConfigureQuiz(ctx, testSessionID, "easy", nil))

	require.NoError(t, f.service.Reset(ctx, testSessionID))

	data := f.data(t)
	require.Empty(t, data.DocumentText)
	require.Empty(t, data.SummaryText)
	require.Nil(t, data.Quiz)
}

func TestParseTopics(t *testing.T) {
	require.Equal(t, []string{"rivers", "capitals"}, workflow.ParseTopics(" rivers , capitals ,, "))
	require.Empty(t, workflow.ParseTopics(""))
	require.Empty(t, workflow.ParseTopics(" , ,"))
}
