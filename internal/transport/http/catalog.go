package http

import (
	"net/http"

	"quiz-attempt-service/internal/app"
)

func (a *API) listQuizzes(w http.ResponseWriter, r *http.Request) {
	quizzes, err := a.catalog.ListQuizzes(r.Context(), r.URL.Query().Get("userId"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, quizzes)
}

func (a *API) getQuiz(w http.ResponseWriter, r *http.Request) {
	quiz, err := a.catalog.GetQuiz(r.Context(), r.PathValue("id"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, quiz)
}

func (a *API) createQuiz(w http.ResponseWriter, r *http.Request) {
	var req quizRequest
	if err := a.decode(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	quiz, err := a.catalog.CreateQuiz(r.Context(), app.QuizDraft{
		Title:       req.Title,
		Description: req.Description,
		CreatedBy:   req.CreatedBy,
		Published:   req.Published,
	})
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, quiz)
}

func (a *API) updateQuiz(w http.ResponseWriter, r *http.Request) {
	var req quizPatchRequest
	if err := a.decode(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	quiz, err := a.catalog.UpdateQuiz(r.Context(), r.PathValue("id"), app.QuizPatch{
		Title:       req.Title,
		Description: req.Description,
		Published:   req.Published,
	})
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, quiz)
}

func (a *API) deleteQuiz(w http.ResponseWriter, r *http.Request) {
	if err := a.catalog.DeleteQuiz(r.Context(), r.PathValue("id")); err != nil {
		a.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) listQuestions(w http.ResponseWriter, r *http.Request) {
	questions, err := a.catalog.ListQuestions(r.Context(), r.PathValue("id"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, questions)
}

func (a *API) createQuestion(w http.ResponseWriter, r *http.Request) {
	var req createQuestionRequest
	if err := a.decode(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	question, err := a.catalog.CreateQuestion(r.Context(), req.draft(req.QuizID))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, question)
}

func (a *API) updateQuestion(w http.ResponseWriter, r *http.Request) {
	var req questionBody
	if err := a.decode(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	question, err := a.catalog.UpdateQuestion(r.Context(), r.PathValue("id"), req.draft(""))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, question)
}

func (a *API) deleteQuestion(w http.ResponseWriter, r *http.Request) {
	if err := a.catalog.DeleteQuestion(r.Context(), r.PathValue("id")); err != nil {
		a.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
