package quizclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"trivia-quiz-service/internal/domain"
)

// DefaultTimeout bounds every call to the quiz server.
const DefaultTimeout = 10 * time.Second

// Client is the HTTP client for the quiz server API. It carries its own
// explicitly-constructed http.Client; nothing here mutates process-wide state.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return NewClientWithHTTP(baseURL, &http.Client{Timeout: timeout})
}

func NewClientWithHTTP(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{baseURL: baseURL, http: httpClient}
}

// CreateQuizParams mirrors the POST /api/quiz request body.
type CreateQuizParams struct {
	Category     int    `json:"category"`
	Difficulty   string `json:"difficulty"`
	Amount       int    `json:"amount"`
	SessionToken string `json:"sessionToken"`
	UserID       string `json:"userId,omitempty"`
}

// CreatedQuiz is the server's response to quiz creation.
type CreatedQuiz struct {
	QuizID    string            `json:"quizId"`
	Questions []domain.Question `json:"questions"`
}

type apiErrorBody struct {
	Error   string `json:"error"`
	Details string `json:"details"`
}

func (c *Client) FetchCategories(ctx context.Context) ([]domain.Category, error) {
	var payload struct {
		TriviaCategories []domain.Category `json:"trivia_categories"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/categories", nil, &payload); err != nil {
		return nil, err
	}
	return payload.TriviaCategories, nil
}

func (c *Client) CreateQuiz(ctx context.Context, params CreateQuizParams) (CreatedQuiz, error) {
	var created CreatedQuiz
	if err := c.do(ctx, http.MethodPost, "/api/quiz", params, &created); err != nil {
		return CreatedQuiz{}, err
	}
	return created, nil
}

func (c *Client) SubmitQuiz(ctx context.Context, quizID string, answers []string) (domain.Submission, error) {
	body := struct {
		Answers []string `json:"answers"`
	}{Answers: answers}

	var submission domain.Submission
	if err := c.do(ctx, http.MethodPost, "/api/quiz/"+quizID+"/submit", body, &submission); err != nil {
		return domain.Submission{}, err
	}
	return submission, nil
}

// do performs one API call and flattens every failure mode into a single
// user-presentable error, the way the reference client's interceptor did.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reqBody *bytes.Buffer
	if body != nil {
		reqBody = &bytes.Buffer{}
		if err := json.NewEncoder(reqBody).Encode(body); err != nil {
			return err
		}
	}

	var req *http.Request
	var err error
	if reqBody != nil {
		req, err = http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	}
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if isTimeout(err) {
			return errors.New("request timeout, please try again")
		}
		return errors.New("network error, please check your connection")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr apiErrorBody
		if decodeErr := json.NewDecoder(resp.Body).Decode(&apiErr); decodeErr == nil {
			if apiErr.Details != "" {
				return errors.New(apiErr.Details)
			}
			if apiErr.Error != "" {
				return errors.New(apiErr.Error)
			}
		}
		return fmt.Errorf("server returned status %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
