package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"trivia-quiz-service/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// QuizStore is the durable quiz backend. Questions are stored as a JSONB
// document alongside the scoring columns.
type QuizStore struct {
	pool  *pgxpool.Pool
	clock func() time.Time
	newID func() string
}

func NewQuizStore(pool *pgxpool.Pool) *QuizStore {
	return &QuizStore{
		pool:  pool,
		clock: time.Now,
		newID: uuid.NewString,
	}
}

func (s *QuizStore) Create(ctx context.Context, questions []domain.Question, userID string) (string, error) {
	if userID == "" {
		userID = domain.AnonymousUser
	}
	data, err := json.Marshal(questions)
	if err != nil {
		return "", fmt.Errorf("%w: encode questions: %v", domain.ErrStorage, err)
	}

	quizID := s.newID()
	_, err = s.pool.Exec(ctx,
		`INSERT INTO quizzes (id, user_id, questions, submitted, created_at) VALUES ($1, $2, $3, false, $4)`,
		quizID, userID, data, s.clock(),
	)
	if err != nil {
		return "", fmt.Errorf("%w: insert quiz: %v", domain.ErrStorage, err)
	}
	return quizID, nil
}

func (s *QuizStore) Get(ctx context.Context, quizID string) (domain.Quiz, error) {
	if _, err := uuid.Parse(quizID); err != nil {
		return domain.Quiz{}, domain.ErrInvalidQuizID
	}

	var (
		quiz domain.Quiz
		raw  []byte
	)
	quiz.ID = quizID
	err := s.pool.QueryRow(ctx,
		`SELECT user_id, questions, score, submitted, created_at FROM quizzes WHERE id = $1`,
		quizID,
	).Scan(&quiz.UserID, &raw, &quiz.Score, &quiz.Submitted, &quiz.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("%w: load quiz: %v", domain.ErrStorage, err)
	}
	if err := json.Unmarshal(raw, &quiz.Questions); err != nil {
		return domain.Quiz{}, fmt.Errorf("%w: decode questions: %v", domain.ErrStorage, err)
	}
	return quiz, nil
}

func (s *QuizStore) RecordSubmission(ctx context.Context, quizID string, score int) (domain.Quiz, error) {
	if _, err := uuid.Parse(quizID); err != nil {
		return domain.Quiz{}, domain.ErrInvalidQuizID
	}

	// The submitted guard lives in the statement itself so concurrent
	// submissions cannot both win.
	tag, err := s.pool.Exec(ctx,
		`UPDATE quizzes SET score = $2, submitted = true WHERE id = $1 AND submitted = false`,
		quizID, score,
	)
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("%w: update quiz: %v", domain.ErrStorage, err)
	}
	if tag.RowsAffected() == 0 {
		// Either the quiz does not exist or it was already scored.
		quiz, getErr := s.Get(ctx, quizID)
		if getErr != nil {
			return domain.Quiz{}, getErr
		}
		if quiz.Submitted {
			return domain.Quiz{}, domain.ErrQuizAlreadySubmitted
		}
		return domain.Quiz{}, domain.ErrQuizNotFound
	}

	return s.Get(ctx, quizID)
}
