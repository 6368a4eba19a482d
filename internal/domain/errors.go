package domain

import "errors"

var (
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrQuestionNotFound indicates a question ID is unknown or not part of the quiz.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrAttemptNotFound is returned when a quiz attempt does not exist.
	ErrAttemptNotFound = errors.New("quiz attempt not found")
	// ErrAttemptCompleted is returned when mutating an attempt that was already finalized.
	ErrAttemptCompleted = errors.New("quiz attempt already completed")
	// ErrVersionConflict signals a concurrent write to the same attempt.
	ErrVersionConflict = errors.New("quiz attempt was modified concurrently")
	// ErrInvalidQuestion wraps question validation failures.
	ErrInvalidQuestion = errors.New("invalid question")
	// ErrInvalidQuiz wraps quiz validation failures.
	ErrInvalidQuiz = errors.New("invalid quiz")

	ErrSubmissionPending = errors.New("answer already judged for this question")
	ErrEmptySelection    = errors.New("no option selected")
	ErrNotJudged         = errors.New("answer has not been judged yet")
	ErrTimeUp            = errors.New("time is up for this question")
	ErrHintUnavailable   = errors.New("no hint available")
	ErrSessionClosed     = errors.New("quiz session closed")
)
