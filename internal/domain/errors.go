package domain

import "errors"

var (
	// ErrInvalidRequest indicates client-supplied parameters failed validation.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrQuizNotFound indicates a well-formed quiz id with no stored quiz.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrInvalidQuizID indicates a malformed quiz identifier.
	ErrInvalidQuizID = errors.New("invalid quiz id")
	// ErrQuizAlreadySubmitted guards against double-scoring a quiz.
	ErrQuizAlreadySubmitted = errors.New("quiz already submitted")
	// ErrQuizCreation wraps upstream failures surfaced from quiz creation.
	ErrQuizCreation = errors.New("quiz creation failed")
	// ErrAnswerCountMismatch indicates a submission whose answer count does
	// not match the stored question count.
	ErrAnswerCountMismatch = errors.New("answer count does not match question count")

	// ErrUpstream indicates the trivia source returned a non-success response code.
	ErrUpstream = errors.New("upstream trivia source error")
	// ErrTokenExhausted indicates the session token ran out of questions and
	// could not be recovered by a reset.
	ErrTokenExhausted = errors.New("session token exhausted")
	// ErrNoQuestions indicates a successful upstream response with zero results.
	ErrNoQuestions = errors.New("no questions returned from upstream")
	// ErrUpstreamTimeout indicates the upstream call exceeded its deadline;
	// callers may present this as retry-eligible.
	ErrUpstreamTimeout = errors.New("upstream request timed out")

	// ErrStorage indicates the quiz store is unavailable or failed.
	ErrStorage = errors.New("storage error")
)
