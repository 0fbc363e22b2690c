package domain

import "time"

// Category is a stable reference taxonomy entry from the upstream question source.
type Category struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Question models a multiple-choice trivia question as delivered by the
// upstream source. Question text and answers may contain HTML entities.
type Question struct {
	Category         string   `json:"category"`
	Type             string   `json:"type"`
	Difficulty       string   `json:"difficulty"`
	Question         string   `json:"question"`
	CorrectAnswer    string   `json:"correct_answer"`
	IncorrectAnswers []string `json:"incorrect_answers"`
}

// Quiz is one server-owned instance of a question set, scored at most once.
// Score stays nil until the quiz transitions to submitted.
type Quiz struct {
	ID        string     `json:"id"`
	Questions []Question `json:"questions"`
	UserID    string     `json:"userId"`
	Score     *int       `json:"score,omitempty"`
	Submitted bool       `json:"submitted"`
	CreatedAt time.Time  `json:"createdAt"`
}

// QuestionResult pairs a question with the answer the user gave for it.
type QuestionResult struct {
	Question      string `json:"question"`
	CorrectAnswer string `json:"correct_answer"`
	UserAnswer    string `json:"user_answer"`
}

// Submission is the outcome of scoring a quiz.
type Submission struct {
	Score          int              `json:"score"`
	TotalQuestions int              `json:"totalQuestions"`
	Questions      []QuestionResult `json:"questions"`
}

// AnonymousUser is the tag recorded when a quiz is created without a user id.
const AnonymousUser = "anonymous"

// Difficulty levels accepted by the upstream source.
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// ValidDifficulty reports whether d is one of the accepted difficulty levels.
func ValidDifficulty(d string) bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}
