package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"trivia-quiz-service/internal/domain"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestStore(t *testing.T, ttl time.Duration) (*QuizStore, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewQuizStore(client, ttl), mr
}

func sampleQuestions() []domain.Question {
	return []domain.Question{
		{Question: "Capital of France?", CorrectAnswer: "Paris", IncorrectAnswers: []string{"London", "Berlin", "Madrid"}},
	}
}

func TestQuizStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t, time.Hour)

	quizID, err := store.Create(ctx, sampleQuestions(), "u1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	quiz, err := store.Get(ctx, quizID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if quiz.UserID != "u1" || quiz.Submitted || quiz.Score != nil {
		t.Fatalf("unexpected stored quiz: %+v", quiz)
	}
	if quiz.Questions[0].CorrectAnswer != "Paris" {
		t.Fatalf("questions did not round-trip: %+v", quiz.Questions)
	}
}

func TestQuizStoreSubmissionGuard(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t, 0)

	quizID, err := store.Create(ctx, sampleQuestions(), "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	quiz, err := store.RecordSubmission(ctx, quizID, 1)
	if err != nil {
		t.Fatalf("record submission: %v", err)
	}
	if !quiz.Submitted || quiz.Score == nil || *quiz.Score != 1 {
		t.Fatalf("expected submitted with score 1, got %+v", quiz)
	}

	if _, err := store.RecordSubmission(ctx, quizID, 0); !errors.Is(err, domain.ErrQuizAlreadySubmitted) {
		t.Fatalf("expected ErrQuizAlreadySubmitted, got %v", err)
	}
}

func TestQuizStoreMissingAndMalformedIDs(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t, 0)

	if _, err := store.Get(ctx, "nope"); !errors.Is(err, domain.ErrInvalidQuizID) {
		t.Fatalf("expected ErrInvalidQuizID, got %v", err)
	}
	if _, err := store.Get(ctx, "1b671a64-40d5-491e-99b0-da01ff1f3341"); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected ErrQuizNotFound, got %v", err)
	}
}

func TestQuizStoreTTLExpiry(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestStore(t, time.Minute)

	quizID, err := store.Create(ctx, sampleQuestions(), "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	mr.FastForward(2 * time.Minute)

	if _, err := store.Get(ctx, quizID); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected expiry to surface as not found, got %v", err)
	}
}
