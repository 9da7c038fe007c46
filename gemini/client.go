// Package gemini calls the Gemini generateContent REST API to produce
// document summaries and multiple-choice quizzes.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/studyforge/studyforge/internal/config"
	"github.com/studyforge/studyforge/quiz"
)

// Client is a thin request/response wrapper. It performs no retries; any
// transport failure is terminal for the request that triggered it.
type Client struct {
	httpClient  *http.Client
	apiKey      string
	model       string
	baseURL     string
	maxDocChars int
}

func New(cfg config.GeminiConfig) *Client {
	return &Client{
		httpClient:  &http.Client{Timeout: 60 * time.Second},
		apiKey:      cfg.GetGeminiAPIKey(),
		model:       cfg.GetGeminiModel(),
		baseURL:     strings.TrimSuffix(cfg.GetGeminiBaseURL(), "/"),
		maxDocChars: cfg.GetMaxDocumentChars(),
	}
}

// Summarize produces a structured markdown summary of the document text.
func (c *Client) Summarize(ctx context.Context, text string) (string, error) {
	prompt := fmt.Sprintf(`Please summarize the following text from a document.
Focus on the most important topics and key points.
Organize the summary in a clear, structured format with headings and bullet points where appropriate.

TEXT:
%s`, c.truncate(text))

	return c.generateContent(ctx, prompt)
}

// GenerateQuiz asks the model for exactly quiz.QuestionCount multiple-choice
// questions. When the reply cannot be parsed into that structure the
// placeholder set is substituted so the workflow continues in a visibly
// degraded mode.
func (c *Client) GenerateQuiz(ctx context.Context, text, difficulty string, topics []string) ([]quiz.Question, error) {
	topicsStr := "all relevant topics"
	if len(topics) > 0 {
		topicsStr = strings.Join(topics, ", ")
	}

	prompt := fmt.Sprintf(`Based on the following text from a document, generate %d multiple-choice questions (MCQs).

Difficulty level: %s

Topics to focus on: %s

For each question:
1. Create a clear, concise question
2. Provide exactly 4 answer options (A, B, C, D)
3. Indicate which option is correct
4. Include a brief explanation of why the answer is correct

Format the output as a JSON array of objects with the following structure:
[
  {
    "question": "Question text here?",
    "options": ["A. Option A", "B. Option B", "C. Option C", "D. Option D"],
    "correct_answer": "A. Option A",
    "explanation": "Explanation of why Option A is correct"
  }
]

TEXT:
%s`, quiz.QuestionCount, difficulty, topicsStr, c.truncate(text))

	reply, err := c.generateContent(ctx, prompt)
	if err != nil {
		return nil, err
	}

	questions, err := extractQuestions(reply)
	if err != nil {
		log.Err(err).Msg("Failed to parse quiz questions, substituting placeholders")
		return quiz.Placeholder(quiz.QuestionCount), nil
	}
	return questions, nil
}

func (c *Client) truncate(text string) string {
	if len(text) > c.maxDocChars {
		return text[:c.maxDocChars]
	}
	return text
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) generateContent(ctx context.Context, prompt string) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("gemini API key is not configured")
	}

	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("generateContent request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var decoded generateResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		if decoded.Error != nil {
			return "", fmt.Errorf("generateContent: %s (status %d)", decoded.Error.Message, resp.StatusCode)
		}
		return "", fmt.Errorf("generateContent: unexpected status %d", resp.StatusCode)
	}

	if len(decoded.Candidates) == 0 || len(decoded.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("generateContent: empty response")
	}

	var sb strings.Builder
	for _, p := range decoded.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String(), nil
}

// extractQuestions pulls the JSON array out of a model reply that may wrap
// it in prose or code fences, then validates the expected shape.
func extractQuestions(reply string) ([]quiz.Question, error) {
	start := strings.Index(reply, "[")
	end := strings.LastIndex(reply, "]")
	if start == -1 || end == -1 || end < start {
		return nil, fmt.Errorf("no JSON array in model reply")
	}

	var questions []quiz.Question
	if err := json.Unmarshal([]byte(reply[start:end+1]), &questions); err != nil {
		return nil, fmt.Errorf("parse question array: %w", err)
	}

	if len(questions) == 0 {
		return nil, fmt.Errorf("model reply contained no questions")
	}
	for i, q := range questions {
		if q.Question == "" || len(q.Options) != 4 || q.CorrectAnswer == "" {
			return nil, fmt.Errorf("question %d is malformed", i+1)
		}
	}
	return questions, nil
}
