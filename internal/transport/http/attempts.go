package http

import (
	"net/http"

	"quiz-attempt-service/internal/domain"
)

func (a *API) startAttempt(w http.ResponseWriter, r *http.Request) {
	var req startAttemptRequest
	if err := a.decode(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	attempt, err := a.attempts.Start(r.Context(), req.QuizID, req.UserID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAttemptResponse(attempt))
}

func (a *API) submitAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := a.decode(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	selected := req.SelectedAnswers
	if selected == nil {
		selected = []string{}
	}
	attempt, answer, err := a.attempts.SubmitAnswer(r.Context(), r.PathValue("id"), domain.AnswerSubmission{
		QuestionID:      req.QuestionID,
		SelectedAnswers: selected,
		TimeSpent:       req.TimeSpent,
		HintsUsed:       req.HintsUsed,
		ClaimedCorrect:  req.Correct,
	})
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, answerResponse{Attempt: toAttemptResponse(attempt), Answer: answer})
}

func (a *API) requestHint(w http.ResponseWriter, r *http.Request) {
	var req hintRequest
	if err := a.decode(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	hint, err := a.attempts.RequestHint(r.Context(), r.PathValue("id"), req.QuestionID, req.HintsUsed)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, hint)
}

func (a *API) completeAttempt(w http.ResponseWriter, r *http.Request) {
	attempt, err := a.attempts.Complete(r.Context(), r.PathValue("id"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAttemptResponse(attempt))
}

func (a *API) getAttempt(w http.ResponseWriter, r *http.Request) {
	attempt, err := a.attempts.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAttemptResponse(attempt))
}

func (a *API) userAttempts(w http.ResponseWriter, r *http.Request) {
	attempts, err := a.attempts.ListByUser(r.Context(), r.PathValue("userId"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	resp := make([]attemptResponse, 0, len(attempts))
	for _, attempt := range attempts {
		resp = append(resp, toAttemptResponse(attempt))
	}
	writeJSON(w, http.StatusOK, resp)
}
