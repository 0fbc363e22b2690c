package app

import (
	"context"
	"fmt"

	"trivia-quiz-service/internal/domain"
	"trivia-quiz-service/internal/opentdb"
)

// QuizStore abstracts how quizzes are persisted (in-memory, Redis, Postgres).
type QuizStore interface {
	Create(ctx context.Context, questions []domain.Question, userID string) (string, error)
	Get(ctx context.Context, quizID string) (domain.Quiz, error)
	// RecordSubmission marks the quiz submitted with the given score. A quiz
	// is scored at most once; a second call fails with ErrQuizAlreadySubmitted.
	RecordSubmission(ctx context.Context, quizID string, score int) (domain.Quiz, error)
}

// CategorySource provides the reference category taxonomy.
type CategorySource interface {
	Categories(ctx context.Context) ([]domain.Category, error)
}

// QuestionSource fetches questions from the upstream trivia source.
// Implemented by *opentdb.Client.
type QuestionSource interface {
	FetchQuestions(ctx context.Context, req opentdb.QuestionRequest) ([]domain.Question, error)
}

// DefaultMaxQuestions bounds the amount accepted per quiz.
const DefaultMaxQuestions = 50

// QuizService contains the quiz lifecycle use cases: list categories, start a
// quiz, score a submission.
type QuizService struct {
	store        QuizStore
	categories   CategorySource
	questions    QuestionSource
	maxQuestions int
}

func NewQuizService(store QuizStore, categories CategorySource, questions QuestionSource, maxQuestions int) *QuizService {
	if maxQuestions <= 0 {
		maxQuestions = DefaultMaxQuestions
	}
	return &QuizService{
		store:        store,
		categories:   categories,
		questions:    questions,
		maxQuestions: maxQuestions,
	}
}

// StartQuizParams carries the client's quiz selection. The session token is
// acquired and held by the client; the service only relays it upstream.
type StartQuizParams struct {
	CategoryID   int
	Difficulty   string
	Amount       int
	SessionToken string
	UserID       string
}

// StartedQuiz is the response to a successful quiz creation. Questions are
// returned exactly as received, correct answers included; the client is
// trusted not to display them before submission.
type StartedQuiz struct {
	QuizID    string
	Questions []domain.Question
}

// Categories lists the reference categories.
func (s *QuizService) Categories(ctx context.Context) ([]domain.Category, error) {
	return s.categories.Categories(ctx)
}

// StartQuiz validates the selection, fetches questions upstream, and persists
// the new quiz. Nothing is persisted unless the upstream fetch succeeds.
func (s *QuizService) StartQuiz(ctx context.Context, params StartQuizParams) (StartedQuiz, error) {
	if err := s.validateStart(ctx, params); err != nil {
		return StartedQuiz{}, err
	}

	questions, err := s.questions.FetchQuestions(ctx, opentdb.QuestionRequest{
		Amount:     params.Amount,
		Category:   params.CategoryID,
		Difficulty: params.Difficulty,
		Token:      params.SessionToken,
	})
	if err != nil {
		return StartedQuiz{}, fmt.Errorf("%w: %w", domain.ErrQuizCreation, err)
	}

	userID := params.UserID
	if userID == "" {
		userID = domain.AnonymousUser
	}

	quizID, err := s.store.Create(ctx, questions, userID)
	if err != nil {
		return StartedQuiz{}, err
	}

	return StartedQuiz{QuizID: quizID, Questions: questions}, nil
}

// SubmitQuiz scores the answers against the stored quiz and records the
// result. A failed submission leaves the quiz in its pre-submission state.
func (s *QuizService) SubmitQuiz(ctx context.Context, quizID string, answers []string) (domain.Submission, error) {
	if len(answers) == 0 {
		return domain.Submission{}, fmt.Errorf("%w: answers must not be empty", domain.ErrInvalidRequest)
	}

	quiz, err := s.store.Get(ctx, quizID)
	if err != nil {
		return domain.Submission{}, err
	}
	if len(answers) != len(quiz.Questions) {
		return domain.Submission{}, fmt.Errorf("%w: got %d answers for %d questions",
			domain.ErrAnswerCountMismatch, len(answers), len(quiz.Questions))
	}
	if quiz.Submitted {
		return domain.Submission{}, domain.ErrQuizAlreadySubmitted
	}

	score := scoreAnswers(quiz.Questions, answers)

	if _, err := s.store.RecordSubmission(ctx, quizID, score); err != nil {
		return domain.Submission{}, err
	}

	results := make([]domain.QuestionResult, len(quiz.Questions))
	for i, question := range quiz.Questions {
		results[i] = domain.QuestionResult{
			Question:      question.Question,
			CorrectAnswer: question.CorrectAnswer,
			UserAnswer:    answers[i],
		}
	}

	return domain.Submission{
		Score:          score,
		TotalQuestions: len(quiz.Questions),
		Questions:      results,
	}, nil
}

func (s *QuizService) validateStart(ctx context.Context, params StartQuizParams) error {
	if params.Amount < 1 || params.Amount > s.maxQuestions {
		return fmt.Errorf("%w: amount must be between 1 and %d", domain.ErrInvalidRequest, s.maxQuestions)
	}
	if !domain.ValidDifficulty(params.Difficulty) {
		return fmt.Errorf("%w: unknown difficulty %q", domain.ErrInvalidRequest, params.Difficulty)
	}
	if params.SessionToken == "" {
		return fmt.Errorf("%w: session token is required", domain.ErrInvalidRequest)
	}

	categories, err := s.categories.Categories(ctx)
	if err != nil {
		return err
	}
	for _, category := range categories {
		if category.ID == params.CategoryID {
			return nil
		}
	}
	return fmt.Errorf("%w: unknown category %d", domain.ErrInvalidRequest, params.CategoryID)
}

// scoreAnswers counts exact, case-sensitive matches by index. No trimming or
// normalization is applied; answers echo the upstream strings verbatim.
func scoreAnswers(questions []domain.Question, answers []string) int {
	score := 0
	for i, question := range questions {
		if answers[i] == question.CorrectAnswer {
			score++
		}
	}
	return score
}
