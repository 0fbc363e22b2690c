package memory

import (
	"context"
	"sync"
	"time"

	"trivia-quiz-service/internal/domain"

	"github.com/google/uuid"
)

// QuizStore is an in-memory implementation of app.QuizStore, the default
// backend when neither Redis nor Postgres is configured.
type QuizStore struct {
	mu      sync.RWMutex
	quizzes map[string]domain.Quiz
	clock   func() time.Time
	newID   func() string
}

func NewQuizStore() *QuizStore {
	return &QuizStore{
		quizzes: make(map[string]domain.Quiz),
		clock:   time.Now,
		newID:   uuid.NewString,
	}
}

// NewQuizStoreWithClock is test-only for deterministic timestamps and ids.
func NewQuizStoreWithClock(clock func() time.Time, newID func() string) *QuizStore {
	store := NewQuizStore()
	if clock != nil {
		store.clock = clock
	}
	if newID != nil {
		store.newID = newID
	}
	return store
}

func (s *QuizStore) Create(_ context.Context, questions []domain.Question, userID string) (string, error) {
	if userID == "" {
		userID = domain.AnonymousUser
	}
	stored := make([]domain.Question, len(questions))
	copy(stored, questions)

	quiz := domain.Quiz{
		ID:        s.newID(),
		Questions: stored,
		UserID:    userID,
		Submitted: false,
		CreatedAt: s.clock(),
	}

	s.mu.Lock()
	s.quizzes[quiz.ID] = quiz
	s.mu.Unlock()
	return quiz.ID, nil
}

func (s *QuizStore) Get(_ context.Context, quizID string) (domain.Quiz, error) {
	if _, err := uuid.Parse(quizID); err != nil {
		return domain.Quiz{}, domain.ErrInvalidQuizID
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	quiz, ok := s.quizzes[quizID]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return quiz, nil
}

func (s *QuizStore) RecordSubmission(_ context.Context, quizID string, score int) (domain.Quiz, error) {
	if _, err := uuid.Parse(quizID); err != nil {
		return domain.Quiz{}, domain.ErrInvalidQuizID
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	quiz, ok := s.quizzes[quizID]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if quiz.Submitted {
		return domain.Quiz{}, domain.ErrQuizAlreadySubmitted
	}

	quiz.Score = &score
	quiz.Submitted = true
	s.quizzes[quizID] = quiz
	return quiz, nil
}
