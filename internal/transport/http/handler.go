package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"trivia-quiz-service/internal/app"
	"trivia-quiz-service/internal/domain"
)

// Handler exposes the quiz lifecycle over REST.
type Handler struct {
	service *app.QuizService
}

func NewHandler(service *app.QuizService) *Handler {
	return &Handler{service: service}
}

// Register mounts the API routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/categories", h.handleCategories)
	mux.HandleFunc("POST /api/quiz", h.handleCreateQuiz)
	mux.HandleFunc("POST /api/quiz/{quizId}/submit", h.handleSubmitQuiz)
	mux.HandleFunc("GET /health", h.handleHealth)
}

type categoriesResponse struct {
	TriviaCategories []domain.Category `json:"trivia_categories"`
}

type createQuizRequest struct {
	Category     int    `json:"category"`
	Difficulty   string `json:"difficulty"`
	Amount       int    `json:"amount"`
	SessionToken string `json:"sessionToken"`
	UserID       string `json:"userId"`
}

type createQuizResponse struct {
	QuizID    string            `json:"quizId"`
	Questions []domain.Question `json:"questions"`
}

type submitQuizRequest struct {
	Answers []string `json:"answers"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func (h *Handler) handleCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.Categories(r.Context())
	if err != nil {
		log.Printf("categories fetch error: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Failed to fetch categories"})
		return
	}
	if categories == nil {
		categories = []domain.Category{}
	}
	writeJSON(w, http.StatusOK, categoriesResponse{TriviaCategories: categories})
}

func (h *Handler) handleCreateQuiz(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var request createQuizRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	started, err := h.service.StartQuiz(r.Context(), app.StartQuizParams{
		CategoryID:   request.Category,
		Difficulty:   request.Difficulty,
		Amount:       request.Amount,
		SessionToken: request.SessionToken,
		UserID:       request.UserID,
	})
	if err != nil {
		h.writeServiceError(w, "Failed to create quiz", err)
		return
	}

	writeJSON(w, http.StatusOK, createQuizResponse{
		QuizID:    started.QuizID,
		Questions: started.Questions,
	})
}

func (h *Handler) handleSubmitQuiz(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	quizID := r.PathValue("quizId")

	var request submitQuizRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	submission, err := h.service.SubmitQuiz(r.Context(), quizID, request.Answers)
	if err != nil {
		h.writeServiceError(w, "Failed to submit quiz", err)
		return
	}

	writeJSON(w, http.StatusOK, submission)
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeServiceError maps domain sentinels onto HTTP statuses. The error body
// keeps the original {error, details} shape.
func (h *Handler) writeServiceError(w http.ResponseWriter, summary string, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest), errors.Is(err, domain.ErrAnswerCountMismatch):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: summary, Details: err.Error()})
	case errors.Is(err, domain.ErrQuizNotFound), errors.Is(err, domain.ErrInvalidQuizID):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "Quiz not found"})
	case errors.Is(err, domain.ErrQuizAlreadySubmitted):
		writeJSON(w, http.StatusConflict, errorResponse{Error: summary, Details: err.Error()})
	default:
		log.Printf("%s: %v", summary, err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: summary, Details: err.Error()})
	}
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("encode response: %v", err)
	}
}
