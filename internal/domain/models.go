package domain

import (
	"fmt"
	"time"
)

// QuestionType governs how a question is evaluated.
type QuestionType string

const (
	QuestionSingle   QuestionType = "single"
	QuestionMultiple QuestionType = "multiple"
)

// Option represents a possible answer for a question.
type Option struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Question is a single- or multiple-answer question owned by one quiz.
type Question struct {
	ID             string       `json:"id"`
	QuizID         string       `json:"quizId"`
	Text           string       `json:"text"`
	Options        []Option     `json:"options"`
	CorrectAnswers []string     `json:"correctAnswers"`
	Hints          []string     `json:"hints"`
	Type           QuestionType `json:"type"`
}

// Validate checks the structural rules of a question definition.
func (q Question) Validate() error {
	if q.Type != QuestionSingle && q.Type != QuestionMultiple {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidQuestion, q.Type)
	}
	if len(q.Options) < 2 {
		return fmt.Errorf("%w: at least two options required", ErrInvalidQuestion)
	}
	ids := make(map[string]struct{}, len(q.Options))
	for _, opt := range q.Options {
		if opt.ID == "" {
			return fmt.Errorf("%w: option id is empty", ErrInvalidQuestion)
		}
		if _, dup := ids[opt.ID]; dup {
			return fmt.Errorf("%w: duplicate option id %q", ErrInvalidQuestion, opt.ID)
		}
		ids[opt.ID] = struct{}{}
	}
	if len(q.CorrectAnswers) == 0 {
		return fmt.Errorf("%w: no correct answers", ErrInvalidQuestion)
	}
	for _, id := range q.CorrectAnswers {
		if _, ok := ids[id]; !ok {
			return fmt.Errorf("%w: correct answer %q is not an option", ErrInvalidQuestion, id)
		}
	}
	if q.Type == QuestionSingle && len(toSet(q.CorrectAnswers)) != 1 {
		return fmt.Errorf("%w: single-answer question needs exactly one correct answer", ErrInvalidQuestion)
	}
	return nil
}

// Quiz is an ordered collection of question ids.
type Quiz struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedBy   string    `json:"createdBy"`
	CreatedAt   time.Time `json:"createdAt"`
	Published   bool      `json:"published"`
	QuestionIDs []string  `json:"questionIds"`
}

// Validate checks the fields required to store a quiz.
func (q Quiz) Validate() error {
	if q.Title == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidQuiz)
	}
	return nil
}

// VisibleTo reports whether userID may see the quiz.
func (q Quiz) VisibleTo(userID string) bool {
	return q.Published || (userID != "" && q.CreatedBy == userID)
}

// QuizContent bundles a quiz with its questions in quiz order.
type QuizContent struct {
	Quiz      Quiz       `json:"quiz"`
	Questions []Question `json:"questions"`
}

// Question returns the question with the given id if it belongs to the quiz.
func (c QuizContent) Question(id string) (Question, bool) {
	for _, q := range c.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}

// AnswerSubmission is a caller's answer to one question. ClaimedCorrect is the
// caller's own verdict, if it sent one.
type AnswerSubmission struct {
	QuestionID      string
	SelectedAnswers []string
	TimeSpent       int
	HintsUsed       int
	ClaimedCorrect  *bool
}
