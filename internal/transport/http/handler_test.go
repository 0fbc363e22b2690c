package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"trivia-quiz-service/internal/app"
	"trivia-quiz-service/internal/domain"
	"trivia-quiz-service/internal/infra/memory"
	"trivia-quiz-service/internal/opentdb"
	transport "trivia-quiz-service/internal/transport/http"
)

type staticQuestionSource struct {
	questions []domain.Question
}

func (s *staticQuestionSource) FetchQuestions(context.Context, opentdb.QuestionRequest) ([]domain.Question, error) {
	return s.questions, nil
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	source := &staticQuestionSource{questions: []domain.Question{
		{Question: "Capital of France?", CorrectAnswer: "Paris", IncorrectAnswers: []string{"London", "Berlin", "Madrid"}},
	}}
	categories := memory.NewStaticCategorySource([]domain.Category{{ID: 9, Name: "General Knowledge"}})
	service := app.NewQuizService(memory.NewQuizStore(), categories, source, 50)

	mux := http.NewServeMux()
	transport.NewHandler(service).Register(mux)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func postJSON(t *testing.T, url, body string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Post(url, "application/json", bytes.NewBufferString(body))
	if err != nil {
		t.Fatalf("post %s: %v", url, err)
	}
	defer resp.Body.Close()
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, buf.Bytes()
}

func createQuiz(t *testing.T, server *httptest.Server) string {
	t.Helper()
	resp, body := postJSON(t, server.URL+"/api/quiz",
		`{"category":9,"difficulty":"easy","amount":1,"sessionToken":"tok-1"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("create quiz: status %d body %s", resp.StatusCode, body)
	}
	var created struct {
		QuizID    string            `json:"quizId"`
		Questions []domain.Question `json:"questions"`
	}
	if err := json.Unmarshal(body, &created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	if len(created.Questions) != 1 || created.Questions[0].CorrectAnswer != "Paris" {
		t.Fatalf("unexpected questions in response: %+v", created.Questions)
	}
	return created.QuizID
}

func TestHealth(t *testing.T) {
	server := newTestServer(t)
	resp, err := http.Get(server.URL + "/health")
	if err != nil {
		t.Fatalf("get health: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestCategoriesEndpoint(t *testing.T) {
	server := newTestServer(t)
	resp, err := http.Get(server.URL + "/api/categories")
	if err != nil {
		t.Fatalf("get categories: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var payload struct {
		TriviaCategories []domain.Category `json:"trivia_categories"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode categories: %v", err)
	}
	if len(payload.TriviaCategories) != 1 || payload.TriviaCategories[0].ID != 9 {
		t.Fatalf("unexpected categories: %+v", payload.TriviaCategories)
	}
}

func TestCreateQuizRejectsInvalidParams(t *testing.T) {
	server := newTestServer(t)

	cases := []string{
		`{"category":9,"difficulty":"easy","amount":0,"sessionToken":"tok-1"}`,
		`{"category":9,"difficulty":"nope","amount":1,"sessionToken":"tok-1"}`,
		`{"category":9,"difficulty":"easy","amount":1}`,
		`{"category":12345,"difficulty":"easy","amount":1,"sessionToken":"tok-1"}`,
	}
	for _, body := range cases {
		resp, respBody := postJSON(t, server.URL+"/api/quiz", body)
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("body %s: expected 400, got %d (%s)", body, resp.StatusCode, respBody)
		}
	}
}

func TestSubmitQuizFlow(t *testing.T) {
	server := newTestServer(t)
	quizID := createQuiz(t, server)

	resp, body := postJSON(t, fmt.Sprintf("%s/api/quiz/%s/submit", server.URL, quizID), `{"answers":["Paris"]}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("submit: status %d body %s", resp.StatusCode, body)
	}

	var submission domain.Submission
	if err := json.Unmarshal(body, &submission); err != nil {
		t.Fatalf("decode submission: %v", err)
	}
	if submission.Score != 1 || submission.TotalQuestions != 1 {
		t.Fatalf("unexpected submission: %+v", submission)
	}
	if submission.Questions[0].UserAnswer != "Paris" {
		t.Fatalf("unexpected per-question result: %+v", submission.Questions[0])
	}

	// Second submission is rejected rather than silently rescored.
	resp, _ = postJSON(t, fmt.Sprintf("%s/api/quiz/%s/submit", server.URL, quizID), `{"answers":["London"]}`)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 on resubmission, got %d", resp.StatusCode)
	}
}

func TestSubmitQuizErrorStatuses(t *testing.T) {
	server := newTestServer(t)
	quizID := createQuiz(t, server)

	resp, _ := postJSON(t, server.URL+"/api/quiz/1b671a64-40d5-491e-99b0-da01ff1f3341/submit", `{"answers":["Paris"]}`)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown quiz, got %d", resp.StatusCode)
	}

	resp, _ = postJSON(t, server.URL+"/api/quiz/not-a-uuid/submit", `{"answers":["Paris"]}`)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for malformed quiz id, got %d", resp.StatusCode)
	}

	resp, _ = postJSON(t, fmt.Sprintf("%s/api/quiz/%s/submit", server.URL, quizID), `{"answers":[]}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty answers, got %d", resp.StatusCode)
	}

	resp, _ = postJSON(t, fmt.Sprintf("%s/api/quiz/%s/submit", server.URL, quizID), `{"answers":["a","b"]}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for answer count mismatch, got %d", resp.StatusCode)
	}
}
