package quiz

import "fmt"

// QuestionCount is the number of questions every generated quiz contains.
const QuestionCount = 10

// Question is a single multiple-choice question with exactly four options.
// The correct answer is compared against submissions by exact string equality.
type Question struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
	Explanation   string   `json:"explanation"`
}

// Answer records one submitted answer. QuestionNumber is 1-based for display.
type Answer struct {
	QuestionNumber int    `json:"question_number"`
	SelectedAnswer string `json:"selected_answer"`
	CorrectAnswer  string `json:"correct_answer"`
	IsCorrect      bool   `json:"is_correct"`
}

// Results aggregates a finished (or abandoned) quiz run.
type Results struct {
	Answers         []Answer
	CorrectCount    int
	TotalQuestions  int
	ScorePercentage float64
}

// Score computes result aggregates. Zero answers yields a zero score rather
// than a division fault.
func Score(answers []Answer) Results {
	correct := 0
	for _, a := range answers {
		if a.IsCorrect {
			correct++
		}
	}

	results := Results{
		Answers:        answers,
		CorrectCount:   correct,
		TotalQuestions: len(answers),
	}
	if results.TotalQuestions > 0 {
		results.ScorePercentage = float64(correct) / float64(results.TotalQuestions) * 100
	}
	return results
}

// Placeholder returns a deterministic fallback question set, used when the
// generation collaborator's output cannot be parsed. The questions are
// clearly labeled so the degraded mode is visible to the user.
func Placeholder(n int) []Question {
	questions := make([]Question, 0, n)
	for i := 0; i < n; i++ {
		questions = append(questions, Question{
			Question:      fmt.Sprintf("Question %d (error generating questions)", i+1),
			Options:       []string{"A. Option A", "B. Option B", "C. Option C", "D. Option D"},
			CorrectAnswer: "A. Option A",
			Explanation:   "Error generating questions",
		})
	}
	return questions
}
