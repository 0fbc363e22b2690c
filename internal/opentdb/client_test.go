package opentdb

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"trivia-quiz-service/internal/domain"
)

// fakeUpstream scripts the trivia source: one response_code per api.php call,
// plus a configurable reset outcome.
type fakeUpstream struct {
	fetchCodes []int
	resetCode  int
	fetchCalls int
	resetCalls int
}

func (f *fakeUpstream) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api.php", func(w http.ResponseWriter, r *http.Request) {
		code := f.fetchCodes[f.fetchCalls]
		f.fetchCalls++
		if code != 0 {
			fmt.Fprintf(w, `{"response_code":%d,"results":[]}`, code)
			return
		}
		fmt.Fprint(w, `{"response_code":0,"results":[{"category":"Geography","type":"multiple","difficulty":"easy","question":"Capital of France?","correct_answer":"Paris","incorrect_answers":["London","Berlin","Madrid"]}]}`)
	})
	mux.HandleFunc("/api_token.php", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("command") == "reset" {
			f.resetCalls++
			fmt.Fprintf(w, `{"response_code":%d,"token":"tok-1"}`, f.resetCode)
			return
		}
		fmt.Fprint(w, `{"response_code":0,"token":"tok-1"}`)
	})
	return mux
}

func newFakeClient(t *testing.T, upstream *fakeUpstream) *Client {
	t.Helper()
	server := httptest.NewServer(upstream.handler())
	t.Cleanup(server.Close)
	return NewClientWithHTTP(server.URL, server.Client())
}

func testRequest() QuestionRequest {
	return QuestionRequest{Amount: 1, Category: 9, Difficulty: "easy", Token: "tok-1"}
}

func TestFetchQuestionsSuccess(t *testing.T) {
	upstream := &fakeUpstream{fetchCodes: []int{0}}
	client := newFakeClient(t, upstream)

	questions, err := client.FetchQuestions(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("fetch questions: %v", err)
	}
	if len(questions) != 1 || questions[0].CorrectAnswer != "Paris" {
		t.Fatalf("unexpected questions: %+v", questions)
	}
	if upstream.fetchCalls != 1 || upstream.resetCalls != 0 {
		t.Fatalf("expected single fetch, got fetch=%d reset=%d", upstream.fetchCalls, upstream.resetCalls)
	}
}

func TestFetchQuestionsResetsExhaustedTokenAndRetriesOnce(t *testing.T) {
	upstream := &fakeUpstream{fetchCodes: []int{4, 0}, resetCode: 0}
	client := newFakeClient(t, upstream)

	questions, err := client.FetchQuestions(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("fetch questions: %v", err)
	}
	if len(questions) != 1 {
		t.Fatalf("expected retried results, got %d questions", len(questions))
	}
	if upstream.fetchCalls != 2 || upstream.resetCalls != 1 {
		t.Fatalf("expected fetch, reset, retry; got fetch=%d reset=%d", upstream.fetchCalls, upstream.resetCalls)
	}
}

func TestFetchQuestionsFailsWhenResetFails(t *testing.T) {
	upstream := &fakeUpstream{fetchCodes: []int{4}, resetCode: 3}
	client := newFakeClient(t, upstream)

	_, err := client.FetchQuestions(context.Background(), testRequest())
	if !errors.Is(err, domain.ErrTokenExhausted) {
		t.Fatalf("expected ErrTokenExhausted, got %v", err)
	}
	if upstream.fetchCalls != 1 {
		t.Fatalf("expected no retry after failed reset, got %d fetches", upstream.fetchCalls)
	}
}

func TestFetchQuestionsFailsWhenRetryFails(t *testing.T) {
	upstream := &fakeUpstream{fetchCodes: []int{4, 4}, resetCode: 0}
	client := newFakeClient(t, upstream)

	_, err := client.FetchQuestions(context.Background(), testRequest())
	if !errors.Is(err, domain.ErrTokenExhausted) {
		t.Fatalf("expected ErrTokenExhausted, got %v", err)
	}
	if upstream.fetchCalls != 2 || upstream.resetCalls != 1 {
		t.Fatalf("expected exactly one retry, got fetch=%d reset=%d", upstream.fetchCalls, upstream.resetCalls)
	}
}

func TestFetchQuestionsNonSuccessCode(t *testing.T) {
	upstream := &fakeUpstream{fetchCodes: []int{2}}
	client := newFakeClient(t, upstream)

	_, err := client.FetchQuestions(context.Background(), testRequest())
	if !errors.Is(err, domain.ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Code != 2 {
		t.Fatalf("expected APIError with code 2, got %v", err)
	}
}

func TestFetchQuestionsEmptyResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"response_code":0,"results":[]}`)
	}))
	defer server.Close()

	client := NewClientWithHTTP(server.URL, server.Client())
	_, err := client.FetchQuestions(context.Background(), testRequest())
	if !errors.Is(err, domain.ErrNoQuestions) {
		t.Fatalf("expected ErrNoQuestions, got %v", err)
	}
}

func TestFetchQuestionsTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	client := NewClient(server.URL, 20*time.Millisecond)
	_, err := client.FetchQuestions(context.Background(), testRequest())
	if !errors.Is(err, domain.ErrUpstreamTimeout) {
		t.Fatalf("expected ErrUpstreamTimeout, got %v", err)
	}
}

func TestAcquireToken(t *testing.T) {
	upstream := &fakeUpstream{}
	client := newFakeClient(t, upstream)

	token, err := client.AcquireToken(context.Background())
	if err != nil {
		t.Fatalf("acquire token: %v", err)
	}
	if token != "tok-1" {
		t.Fatalf("expected tok-1, got %q", token)
	}
}

func TestFetchCategories(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api_category.php" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `{"trivia_categories":[{"id":9,"name":"General Knowledge"},{"id":22,"name":"Geography"}]}`)
	}))
	defer server.Close()

	client := NewClientWithHTTP(server.URL, server.Client())
	categories, err := client.FetchCategories(context.Background())
	if err != nil {
		t.Fatalf("fetch categories: %v", err)
	}
	if len(categories) != 2 || categories[0].ID != 9 {
		t.Fatalf("unexpected categories: %+v", categories)
	}
}
