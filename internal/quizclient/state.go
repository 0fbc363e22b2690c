package quizclient

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"trivia-quiz-service/internal/domain"
)

// State is the client-side quiz lifecycle position.
type State int

const (
	// StateIdle means no active quiz.
	StateIdle State = iota
	// StateInProgress means questions are loaded and answers can change.
	StateInProgress
	// StateSubmitted means the score is available and answers are locked.
	StateSubmitted
)

func (s State) String() string {
	switch s {
	case StateInProgress:
		return "in-progress"
	case StateSubmitted:
		return "submitted"
	default:
		return "idle"
	}
}

// Band buckets a score ratio for display.
type Band string

const (
	BandLow  Band = "low"
	BandMid  Band = "mid"
	BandHigh Band = "high"
)

// ScoreBand maps score/total onto a display band. The intervals are
// half-open: exactly 0.4 is mid and exactly 0.8 is high.
func ScoreBand(score, total int) Band {
	if total <= 0 {
		return BandLow
	}
	ratio := float64(score) / float64(total)
	switch {
	case ratio < 0.4:
		return BandLow
	case ratio < 0.8:
		return BandMid
	default:
		return BandHigh
	}
}

var (
	// ErrInvalidIndex reports an answer selection outside the question range.
	ErrInvalidIndex = errors.New("answer index out of range")
	// ErrOperationInFlight rejects a second Start/Submit while one is loading.
	ErrOperationInFlight = errors.New("operation already in flight")
	// ErrNoActiveQuiz rejects a submit without a started quiz.
	ErrNoActiveQuiz = errors.New("no active quiz")
)

// API is the server surface the state machine drives. Implemented by *Client.
type API interface {
	FetchCategories(ctx context.Context) ([]domain.Category, error)
	CreateQuiz(ctx context.Context, params CreateQuizParams) (CreatedQuiz, error)
	SubmitQuiz(ctx context.Context, quizID string, answers []string) (domain.Submission, error)
}

// TokenSource issues upstream session tokens. Implemented by *opentdb.Client.
type TokenSource interface {
	AcquireToken(ctx context.Context) (string, error)
}

// StateMachine holds one browsing session's quiz state: loaded categories,
// the session token, the active quiz, selected answers, and the submitted
// score. All methods are safe for concurrent use.
type StateMachine struct {
	api    API
	tokens TokenSource

	mu              sync.Mutex
	rnd             *rand.Rand
	categories      []domain.Category
	sessionToken    string
	quizID          string
	questions       []domain.Question
	selectedAnswers []string
	shuffled        [][]string
	score           *int
	submitted       bool
	loading         bool
	lastError       string
	userID          string
}

func NewStateMachine(api API, tokens TokenSource) *StateMachine {
	return &StateMachine{
		api:    api,
		tokens: tokens,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// SetUserID tags quizzes started by this session; empty means anonymous.
func (m *StateMachine) SetUserID(userID string) {
	m.mu.Lock()
	m.userID = userID
	m.mu.Unlock()
}

// LoadCategories fetches and retains the reference category list.
func (m *StateMachine) LoadCategories(ctx context.Context) error {
	if err := m.begin(); err != nil {
		return err
	}
	categories, err := m.api.FetchCategories(ctx)
	if err != nil {
		m.fail(err)
		return err
	}

	m.mu.Lock()
	m.categories = categories
	m.loading = false
	m.mu.Unlock()
	return nil
}

// Start creates a new quiz for the selection, acquiring a session token first
// if the session does not hold one. On success the machine enters InProgress
// with answers cleared and each question's answer order shuffled exactly once.
func (m *StateMachine) Start(ctx context.Context, categoryID int, difficulty string, amount int) error {
	if err := m.begin(); err != nil {
		return err
	}

	m.mu.Lock()
	token := m.sessionToken
	userID := m.userID
	m.mu.Unlock()

	if token == "" {
		fresh, err := m.tokens.AcquireToken(ctx)
		if err != nil {
			m.fail(err)
			return err
		}
		token = fresh
	}

	created, err := m.api.CreateQuiz(ctx, CreateQuizParams{
		Category:     categoryID,
		Difficulty:   difficulty,
		Amount:       amount,
		SessionToken: token,
		UserID:       userID,
	})
	if err != nil {
		m.fail(err)
		return err
	}

	m.mu.Lock()
	m.sessionToken = token
	m.quizID = created.QuizID
	m.questions = created.Questions
	m.selectedAnswers = make([]string, len(created.Questions))
	m.shuffled = shuffleAnswers(m.rnd, created.Questions)
	m.score = nil
	m.submitted = false
	m.loading = false
	m.mu.Unlock()
	return nil
}

// SelectAnswer records the answer for a question; the last write per index
// wins. After submission answers are locked and the call is a no-op, matching
// the reference client which disables the inputs entirely.
func (m *StateMachine) SelectAnswer(index int, answer string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.submitted {
		return nil
	}
	if index < 0 || index >= len(m.selectedAnswers) {
		return ErrInvalidIndex
	}
	m.selectedAnswers[index] = answer
	return nil
}

// Submit sends the selected answers for scoring and enters Submitted.
func (m *StateMachine) Submit(ctx context.Context) (domain.Submission, error) {
	if err := m.begin(); err != nil {
		return domain.Submission{}, err
	}

	m.mu.Lock()
	if m.quizID == "" {
		m.loading = false
		m.mu.Unlock()
		return domain.Submission{}, ErrNoActiveQuiz
	}
	if m.submitted {
		m.loading = false
		m.mu.Unlock()
		return domain.Submission{}, domain.ErrQuizAlreadySubmitted
	}
	quizID := m.quizID
	answers := make([]string, len(m.selectedAnswers))
	copy(answers, m.selectedAnswers)
	m.mu.Unlock()

	submission, err := m.api.SubmitQuiz(ctx, quizID, answers)
	if err != nil {
		m.fail(err)
		return domain.Submission{}, err
	}

	m.mu.Lock()
	score := submission.Score
	m.score = &score
	m.submitted = true
	m.loading = false
	m.mu.Unlock()
	return submission, nil
}

// Reset returns to Idle, discarding the quiz, answers, score, and session
// token while keeping the loaded category list; categories are session-scoped
// reference data independent of the quiz lifecycle.
func (m *StateMachine) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessionToken = ""
	m.quizID = ""
	m.questions = nil
	m.selectedAnswers = nil
	m.shuffled = nil
	m.score = nil
	m.submitted = false
	m.loading = false
	m.lastError = ""
}

// State derives the lifecycle position from the held fields.
func (m *StateMachine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch {
	case m.submitted:
		return StateSubmitted
	case len(m.questions) > 0:
		return StateInProgress
	default:
		return StateIdle
	}
}

func (m *StateMachine) Categories() []domain.Category {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.categories
}

func (m *StateMachine) Questions() []domain.Question {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.questions
}

func (m *StateMachine) QuizID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.quizID
}

func (m *StateMachine) SessionToken() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessionToken
}

// SelectedAnswers returns a copy of the current answers.
func (m *StateMachine) SelectedAnswers() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	answers := make([]string, len(m.selectedAnswers))
	copy(answers, m.selectedAnswers)
	return answers
}

// AnswerOrder returns the display order for a question's answers, fixed when
// the quiz was loaded and stable across calls.
func (m *StateMachine) AnswerOrder(index int) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if index < 0 || index >= len(m.shuffled) {
		return nil
	}
	return m.shuffled[index]
}

// Score reports the submitted score, if any.
func (m *StateMachine) Score() (int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.score == nil {
		return 0, false
	}
	return *m.score, true
}

func (m *StateMachine) Loading() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loading
}

// LastError returns the message of the most recent failed operation; each new
// attempt clears it.
func (m *StateMachine) LastError() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastError
}

// begin marks an operation in flight, rejecting concurrent attempts. This is
// the double-click guard; it lives in the core so every frontend inherits it.
func (m *StateMachine) begin() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loading {
		return ErrOperationInFlight
	}
	m.loading = true
	m.lastError = ""
	return nil
}

func (m *StateMachine) fail(err error) {
	m.mu.Lock()
	m.loading = false
	m.lastError = err.Error()
	m.mu.Unlock()
}

// shuffleAnswers builds each question's display order once: incorrect answers
// plus the correct one, permuted.
func shuffleAnswers(rnd *rand.Rand, questions []domain.Question) [][]string {
	shuffled := make([][]string, len(questions))
	for i, question := range questions {
		answers := make([]string, 0, len(question.IncorrectAnswers)+1)
		answers = append(answers, question.IncorrectAnswers...)
		answers = append(answers, question.CorrectAnswer)
		rnd.Shuffle(len(answers), func(a, b int) {
			answers[a], answers[b] = answers[b], answers[a]
		})
		shuffled[i] = answers
	}
	return shuffled
}
