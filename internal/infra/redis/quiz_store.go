package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"trivia-quiz-service/internal/domain"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// QuizStore persists quizzes as JSON documents in Redis, one value per quiz
// at quiz:{id}. An optional TTL expires abandoned quizzes. Updates are
// last-writer-wins; the submitted guard runs on the read-back value, which is
// the documented consistency level for a single-instance store.
type QuizStore struct {
	client *redis.Client
	ttl    time.Duration
	clock  func() time.Time
	newID  func() string
}

func NewQuizStore(client *redis.Client, ttl time.Duration) *QuizStore {
	return &QuizStore{
		client: client,
		ttl:    ttl,
		clock:  time.Now,
		newID:  uuid.NewString,
	}
}

func (s *QuizStore) Create(ctx context.Context, questions []domain.Question, userID string) (string, error) {
	if userID == "" {
		userID = domain.AnonymousUser
	}
	quiz := domain.Quiz{
		ID:        s.newID(),
		Questions: questions,
		UserID:    userID,
		Submitted: false,
		CreatedAt: s.clock(),
	}

	if err := s.write(ctx, quiz, s.ttl); err != nil {
		return "", err
	}
	return quiz.ID, nil
}

func (s *QuizStore) Get(ctx context.Context, quizID string) (domain.Quiz, error) {
	if _, err := uuid.Parse(quizID); err != nil {
		return domain.Quiz{}, domain.ErrInvalidQuizID
	}

	raw, err := s.client.Get(ctx, s.key(quizID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}

	var quiz domain.Quiz
	if err := json.Unmarshal(raw, &quiz); err != nil {
		return domain.Quiz{}, fmt.Errorf("%w: decode quiz: %v", domain.ErrStorage, err)
	}
	return quiz, nil
}

func (s *QuizStore) RecordSubmission(ctx context.Context, quizID string, score int) (domain.Quiz, error) {
	quiz, err := s.Get(ctx, quizID)
	if err != nil {
		return domain.Quiz{}, err
	}
	if quiz.Submitted {
		return domain.Quiz{}, domain.ErrQuizAlreadySubmitted
	}

	quiz.Score = &score
	quiz.Submitted = true
	if err := s.write(ctx, quiz, redis.KeepTTL); err != nil {
		return domain.Quiz{}, err
	}
	return quiz, nil
}

func (s *QuizStore) write(ctx context.Context, quiz domain.Quiz, expiration time.Duration) error {
	data, err := json.Marshal(quiz)
	if err != nil {
		return fmt.Errorf("%w: encode quiz: %v", domain.ErrStorage, err)
	}
	if err := s.client.Set(ctx, s.key(quiz.ID), data, expiration).Err(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	return nil
}

func (s *QuizStore) key(quizID string) string {
	return "quiz:" + quizID
}
