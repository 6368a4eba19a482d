package http

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"quiz-attempt-service/internal/app"
	"quiz-attempt-service/internal/domain"
)

// API serves the REST endpoints and the take-quiz websocket.
type API struct {
	attempts  *app.AttemptService
	catalog   *app.CatalogService
	logger    *zap.Logger
	validate  *validator.Validate
	timeLimit time.Duration
	ws        *WSHandler
}

func NewAPI(attempts *app.AttemptService, catalog *app.CatalogService, logger *zap.Logger, timeLimit time.Duration) *API {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeLimit <= 0 {
		timeLimit = domain.QuestionTimeLimit
	}
	api := &API{
		attempts:  attempts,
		catalog:   catalog,
		logger:    logger,
		validate:  validator.New(),
		timeLimit: timeLimit,
	}
	api.ws = NewWSHandler(attempts, logger, timeLimit)
	return api
}

// Routes registers every endpoint on mux.
func (a *API) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("POST /api/v1/attempts/start", a.startAttempt)
	mux.HandleFunc("POST /api/v1/attempts/{id}/answer", a.submitAnswer)
	mux.HandleFunc("POST /api/v1/attempts/{id}/hint", a.requestHint)
	mux.HandleFunc("POST /api/v1/attempts/{id}/complete", a.completeAttempt)
	mux.HandleFunc("GET /api/v1/attempts/user/{userId}", a.userAttempts)
	mux.HandleFunc("GET /api/v1/attempts/{id}", a.getAttempt)

	mux.HandleFunc("GET /api/v1/quizzes", a.listQuizzes)
	mux.HandleFunc("POST /api/v1/quizzes", a.createQuiz)
	mux.HandleFunc("GET /api/v1/quizzes/{id}", a.getQuiz)
	mux.HandleFunc("PUT /api/v1/quizzes/{id}", a.updateQuiz)
	mux.HandleFunc("DELETE /api/v1/quizzes/{id}", a.deleteQuiz)
	mux.HandleFunc("GET /api/v1/quizzes/{id}/questions", a.listQuestions)
	mux.HandleFunc("POST /api/v1/questions", a.createQuestion)
	mux.HandleFunc("PUT /api/v1/questions/{id}", a.updateQuestion)
	mux.HandleFunc("DELETE /api/v1/questions/{id}", a.deleteQuestion)

	mux.HandleFunc("GET /ws", a.ws.ServeWS)
}

// Handler returns a mux with all routes registered.
func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()
	a.Routes(mux)
	return mux
}
