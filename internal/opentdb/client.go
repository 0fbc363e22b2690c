package opentdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"trivia-quiz-service/internal/domain"
)

const (
	// DefaultBaseURL points at the public Open Trivia Database.
	DefaultBaseURL = "https://opentdb.com"
	// DefaultTimeout bounds every upstream call.
	DefaultTimeout = 10 * time.Second

	codeSuccess        = 0
	codeTokenExhausted = 4

	questionType = "multiple"
)

// Client talks to the upstream trivia source. It is stateless between calls;
// the session token is owned by the caller and passed in per request.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a client with its own timeout-bounded http.Client.
// baseURL and timeout fall back to the package defaults when zero.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return NewClientWithHTTP(baseURL, &http.Client{Timeout: timeout})
}

// NewClientWithHTTP builds a client around an existing http.Client, which
// tests use to point at fake upstreams.
func NewClientWithHTTP(baseURL string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{baseURL: baseURL, http: httpClient}
}

// QuestionRequest carries the parameters of one question fetch.
type QuestionRequest struct {
	Amount     int
	Category   int
	Difficulty string
	Token      string
}

// APIError reports a non-success upstream response code.
type APIError struct {
	Code int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("upstream response_code=%d", e.Code)
}

func (e *APIError) Unwrap() error { return domain.ErrUpstream }

type questionsResponse struct {
	ResponseCode int               `json:"response_code"`
	Results      []domain.Question `json:"results"`
}

type tokenResponse struct {
	ResponseCode int    `json:"response_code"`
	Token        string `json:"token"`
}

type categoriesResponse struct {
	TriviaCategories []domain.Category `json:"trivia_categories"`
}

// AcquireToken obtains a fresh session token from the upstream source.
func (c *Client) AcquireToken(ctx context.Context) (string, error) {
	var payload tokenResponse
	if err := c.getJSON(ctx, c.baseURL+"/api_token.php?command=request", &payload); err != nil {
		return "", err
	}
	if payload.ResponseCode != codeSuccess {
		return "", fmt.Errorf("acquire token: %w", &APIError{Code: payload.ResponseCode})
	}
	return payload.Token, nil
}

// ResetToken resets an exhausted session token in place.
func (c *Client) ResetToken(ctx context.Context, token string) error {
	var payload tokenResponse
	reqURL := c.baseURL + "/api_token.php?command=reset&token=" + url.QueryEscape(token)
	if err := c.getJSON(ctx, reqURL, &payload); err != nil {
		return err
	}
	if payload.ResponseCode != codeSuccess {
		return fmt.Errorf("reset token: %w", &APIError{Code: payload.ResponseCode})
	}
	return nil
}

// FetchQuestions requests questions for the given parameters. When the source
// signals token exhaustion it resets the same token and retries the original
// request exactly once; a failed reset or a failed retry surfaces as
// domain.ErrTokenExhausted.
func (c *Client) FetchQuestions(ctx context.Context, req QuestionRequest) ([]domain.Question, error) {
	payload, err := c.fetchOnce(ctx, req)
	if err != nil {
		return nil, err
	}

	if payload.ResponseCode == codeTokenExhausted {
		if err := c.ResetToken(ctx, req.Token); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrTokenExhausted, err)
		}
		payload, err = c.fetchOnce(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("%w: retry failed: %v", domain.ErrTokenExhausted, err)
		}
		if payload.ResponseCode != codeSuccess {
			return nil, fmt.Errorf("%w: retry response_code=%d", domain.ErrTokenExhausted, payload.ResponseCode)
		}
	}

	if payload.ResponseCode != codeSuccess {
		return nil, &APIError{Code: payload.ResponseCode}
	}
	if len(payload.Results) == 0 {
		return nil, domain.ErrNoQuestions
	}
	return payload.Results, nil
}

// FetchCategories retrieves the upstream category taxonomy.
func (c *Client) FetchCategories(ctx context.Context) ([]domain.Category, error) {
	var payload categoriesResponse
	if err := c.getJSON(ctx, c.baseURL+"/api_category.php", &payload); err != nil {
		return nil, err
	}
	return payload.TriviaCategories, nil
}

func (c *Client) fetchOnce(ctx context.Context, req QuestionRequest) (questionsResponse, error) {
	query := url.Values{}
	query.Set("amount", strconv.Itoa(req.Amount))
	query.Set("category", strconv.Itoa(req.Category))
	query.Set("difficulty", req.Difficulty)
	query.Set("type", questionType)
	query.Set("token", req.Token)

	var payload questionsResponse
	err := c.getJSON(ctx, c.baseURL+"/api.php?"+query.Encode(), &payload)
	return payload, err
}

func (c *Client) getJSON(ctx context.Context, reqURL string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if isTimeout(err) {
			return fmt.Errorf("%w: %v", domain.ErrUpstreamTimeout, err)
		}
		return fmt.Errorf("upstream request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: http status %d", domain.ErrUpstream, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode upstream response: %w", err)
	}
	return nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
