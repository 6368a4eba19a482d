package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"quiz-attempt-service/internal/app"
	"quiz-attempt-service/internal/domain"
)

var errBadRequest = errors.New("bad request")

type startAttemptRequest struct {
	QuizID string `json:"quizId" validate:"required"`
	UserID string `json:"userId" validate:"required"`
}

type answerRequest struct {
	QuestionID      string   `json:"questionId" validate:"required"`
	SelectedAnswers []string `json:"selectedAnswers" validate:"dive,required"`
	TimeSpent       int      `json:"timeSpent" validate:"gte=0"`
	HintsUsed       int      `json:"hintsUsed" validate:"gte=0"`
	Correct         *bool    `json:"correct"`
}

type hintRequest struct {
	QuestionID string `json:"questionId" validate:"required"`
	HintsUsed  int    `json:"hintsUsed" validate:"gte=0"`
}

type answerResponse struct {
	Attempt attemptResponse        `json:"attempt"`
	Answer  domain.QuestionAttempt `json:"answer"`
}

type attemptResponse struct {
	ID               string                   `json:"id"`
	QuizID           string                   `json:"quizId"`
	UserID           string                   `json:"userId"`
	StartTime        time.Time                `json:"startTime"`
	EndTime          *time.Time               `json:"endTime,omitempty"`
	TotalQuestions   int                      `json:"totalQuestions"`
	QuestionAttempts []domain.QuestionAttempt `json:"questionAttempts"`
	CorrectAnswers   int                      `json:"correctAnswers"`
	Completed        bool                     `json:"completed"`
	Score            *float64                 `json:"score,omitempty"`
}

func toAttemptResponse(attempt domain.QuizAttempt) attemptResponse {
	resp := attemptResponse{
		ID:               attempt.ID,
		QuizID:           attempt.QuizID,
		UserID:           attempt.UserID,
		StartTime:        attempt.StartTime,
		TotalQuestions:   attempt.TotalQuestions,
		QuestionAttempts: attempt.QuestionAttempts,
		CorrectAnswers:   attempt.CorrectAnswers,
		Completed:        attempt.Completed(),
	}
	if resp.QuestionAttempts == nil {
		resp.QuestionAttempts = []domain.QuestionAttempt{}
	}
	if attempt.Completion != nil {
		end := attempt.Completion.EndTime
		score := attempt.Completion.Score
		resp.EndTime = &end
		resp.Score = &score
	}
	return resp
}

type quizRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
	CreatedBy   string `json:"createdBy" validate:"required"`
	Published   bool   `json:"published"`
}

type quizPatchRequest struct {
	Title       *string `json:"title" validate:"omitempty,min=1,max=200"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	Published   *bool   `json:"published"`
}

type optionRequest struct {
	ID   string `json:"id" validate:"required"`
	Text string `json:"text" validate:"required"`
}

type questionBody struct {
	Text           string          `json:"text" validate:"required"`
	Options        []optionRequest `json:"options" validate:"min=2,dive"`
	CorrectAnswers []string        `json:"correctAnswers" validate:"min=1,dive,required"`
	Hints          []string        `json:"hints" validate:"dive,required"`
	Type           string          `json:"type" validate:"required,oneof=single multiple"`
}

type createQuestionRequest struct {
	QuizID string `json:"quizId" validate:"required"`
	questionBody
}

func (b questionBody) draft(quizID string) app.QuestionDraft {
	options := make([]domain.Option, len(b.Options))
	for i, opt := range b.Options {
		options[i] = domain.Option{ID: opt.ID, Text: opt.Text}
	}
	return app.QuestionDraft{
		QuizID:         quizID,
		Text:           b.Text,
		Options:        options,
		CorrectAnswers: b.CorrectAnswers,
		Hints:          b.Hints,
		Type:           domain.QuestionType(b.Type),
	}
}

// decode reads a JSON body into dst and validates it.
func (a *API) decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid json: %v", errBadRequest, err)
	}
	if err := a.validate.Struct(dst); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

var (
	errInvalidPayload     = errors.New("invalid payload")
	errUnsupportedMessage = errors.New("unsupported message type")
)
