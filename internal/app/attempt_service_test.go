package app_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"quiz-attempt-service/internal/app"
	"quiz-attempt-service/internal/domain"
	"quiz-attempt-service/internal/infra/memory"
)

func TestAttemptScenario(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService()

	attempt, err := service.Start(ctx, "quiz-1", "u1")
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if attempt.TotalQuestions != 2 || len(attempt.QuestionAttempts) != 0 || attempt.Completed() {
		t.Fatalf("unexpected new attempt %+v", attempt)
	}

	attempt, err = service.RecordAnswer(ctx, attempt.ID, domain.QuestionAttempt{QuestionID: "q1", SelectedAnswers: []string{"o2"}, Correct: true})
	if err != nil {
		t.Fatalf("record q1: %v", err)
	}
	if attempt.CorrectAnswers != 1 {
		t.Fatalf("expected 1 correct, got %d", attempt.CorrectAnswers)
	}

	attempt, err = service.RecordAnswer(ctx, attempt.ID, domain.QuestionAttempt{QuestionID: "q2", SelectedAnswers: []string{"o1"}, Correct: false})
	if err != nil {
		t.Fatalf("record q2: %v", err)
	}
	if attempt.CorrectAnswers != 1 {
		t.Fatalf("expected 1 correct, got %d", attempt.CorrectAnswers)
	}

	attempt, err = service.Complete(ctx, attempt.ID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	score, ok := attempt.Score()
	if !ok || score != 50 || !attempt.Completed() {
		t.Fatalf("expected score 50, got %v ok=%v", score, ok)
	}

	_, err = service.RecordAnswer(ctx, attempt.ID, domain.QuestionAttempt{QuestionID: "q2", Correct: true})
	if !errors.Is(err, domain.ErrAttemptCompleted) {
		t.Fatalf("expected ErrAttemptCompleted, got %v", err)
	}
}

func TestStartUnknownQuiz(t *testing.T) {
	service, _ := newTestService()
	if _, err := service.Start(context.Background(), "missing", "u1"); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected ErrQuizNotFound, got %v", err)
	}
}

func TestStartCreatesIndependentAttempts(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService()

	first, _ := service.Start(ctx, "quiz-1", "u1")
	second, _ := service.Start(ctx, "quiz-1", "u1")
	if first.ID == second.ID {
		t.Fatalf("expected distinct attempt ids")
	}
	attempts, err := service.ListByUser(ctx, "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(attempts) != 2 {
		t.Fatalf("expected 2 attempts, got %d", len(attempts))
	}
}

func TestRecordAnswerUnknownAttempt(t *testing.T) {
	service, _ := newTestService()
	_, err := service.RecordAnswer(context.Background(), "missing", domain.QuestionAttempt{QuestionID: "q1"})
	if !errors.Is(err, domain.ErrAttemptNotFound) {
		t.Fatalf("expected ErrAttemptNotFound, got %v", err)
	}
	if _, err := service.Complete(context.Background(), "missing"); !errors.Is(err, domain.ErrAttemptNotFound) {
		t.Fatalf("expected ErrAttemptNotFound, got %v", err)
	}
}

func TestSubmitAnswerIgnoresClientClaim(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService()
	attempt, _ := service.Start(ctx, "quiz-1", "u1")

	claimed := true
	updated, answer, err := service.SubmitAnswer(ctx, attempt.ID, domain.AnswerSubmission{
		QuestionID:      "q2",
		SelectedAnswers: []string{"o1"},
		HintsUsed:       5,
		ClaimedCorrect:  &claimed,
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if answer.Correct || updated.CorrectAnswers != 0 {
		t.Fatalf("expected server-side verdict incorrect, got %+v", answer)
	}
	if answer.HintsUsed != domain.MaxHintsPerQuestion {
		t.Fatalf("expected hints clamped to %d, got %d", domain.MaxHintsPerQuestion, answer.HintsUsed)
	}

	updated, answer, err = service.SubmitAnswer(ctx, attempt.ID, domain.AnswerSubmission{
		QuestionID:      "q2",
		SelectedAnswers: []string{"o3", "o1"},
	})
	if err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if !answer.Correct || updated.CorrectAnswers != 1 || len(updated.QuestionAttempts) != 1 {
		t.Fatalf("expected replaced correct answer, got %+v", updated)
	}
}

func TestSubmitAnswerUnknownQuestion(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService()
	attempt, _ := service.Start(ctx, "quiz-1", "u1")

	_, _, err := service.SubmitAnswer(ctx, attempt.ID, domain.AnswerSubmission{QuestionID: "other", SelectedAnswers: []string{"o1"}})
	if !errors.Is(err, domain.ErrQuestionNotFound) {
		t.Fatalf("expected ErrQuestionNotFound, got %v", err)
	}
}

func TestRequestHint(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService()
	attempt, _ := service.Start(ctx, "quiz-1", "u1")

	hint, err := service.RequestHint(ctx, attempt.ID, "q1", 0)
	if err != nil || hint.Hint != "even number" || hint.HintsUsed != 1 {
		t.Fatalf("unexpected first hint %+v err=%v", hint, err)
	}
	hint, err = service.RequestHint(ctx, attempt.ID, "q1", 1)
	if err != nil || hint.Hint != "greater than three" || hint.HintsUsed != 2 {
		t.Fatalf("unexpected second hint %+v err=%v", hint, err)
	}
	if _, err := service.RequestHint(ctx, attempt.ID, "q1", 2); !errors.Is(err, domain.ErrHintUnavailable) {
		t.Fatalf("expected third hint refused, got %v", err)
	}

	_, _, _ = service.SubmitAnswer(ctx, attempt.ID, domain.AnswerSubmission{QuestionID: "q1", SelectedAnswers: []string{"o2"}})
	if _, err := service.RequestHint(ctx, attempt.ID, "q1", 0); !errors.Is(err, domain.ErrHintUnavailable) {
		t.Fatalf("expected hint refused after correct answer, got %v", err)
	}
}

func TestCompleteEmptyQuiz(t *testing.T) {
	ctx := context.Background()
	service, catalog := newTestService()
	catalog.Seed(domain.QuizContent{Quiz: domain.Quiz{ID: "empty", Title: "Empty"}})

	attempt, err := service.Start(ctx, "empty", "u1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	attempt, err = service.Complete(ctx, attempt.ID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if score, ok := attempt.Score(); !ok || score != 0 {
		t.Fatalf("expected score 0, got %v", score)
	}
}

func TestUpdateRetriesOnConflict(t *testing.T) {
	ctx := context.Background()
	store := &conflictingStore{AttemptStore: memory.NewAttemptStore(), conflicts: 2}
	service := app.NewAttemptService(store, memory.NewQuizRepository(seededCatalog(), time.Minute), nil)

	attempt, _ := service.Start(ctx, "quiz-1", "u1")
	updated, err := service.RecordAnswer(ctx, attempt.ID, domain.QuestionAttempt{QuestionID: "q1", Correct: true})
	if err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if updated.CorrectAnswers != 1 || store.updates != 3 {
		t.Fatalf("expected 3 update calls, got %d", store.updates)
	}

	store.conflicts = 10
	if _, err := service.Complete(ctx, attempt.ID); !errors.Is(err, domain.ErrVersionConflict) {
		t.Fatalf("expected conflict after retries, got %v", err)
	}
}

type conflictingStore struct {
	app.AttemptStore
	conflicts int
	updates   int
}

func (s *conflictingStore) Update(ctx context.Context, attempt domain.QuizAttempt) (domain.QuizAttempt, error) {
	s.updates++
	if s.conflicts > 0 {
		s.conflicts--
		return domain.QuizAttempt{}, fmt.Errorf("update attempt: %w", domain.ErrVersionConflict)
	}
	return s.AttemptStore.Update(ctx, attempt)
}

func newTestService() (*app.AttemptService, *memory.CatalogStore) {
	catalog := seededCatalog()
	quizRepo := memory.NewQuizRepository(catalog, 5*time.Minute)
	return app.NewAttemptService(memory.NewAttemptStore(), quizRepo, nil), catalog
}

func seededCatalog() *memory.CatalogStore {
	catalog := memory.NewCatalogStore()
	catalog.Seed(domain.QuizContent{
		Quiz: domain.Quiz{ID: "quiz-1", Title: "Numbers", CreatedBy: "admin", Published: true},
		Questions: []domain.Question{
			{
				ID:   "q1",
				Text: "What is 2 + 2?",
				Options: []domain.Option{
					{ID: "o1", Text: "3"},
					{ID: "o2", Text: "4"},
					{ID: "o3", Text: "5"},
				},
				CorrectAnswers: []string{"o2"},
				Hints:          []string{"even number", "greater than three", "unused"},
				Type:           domain.QuestionSingle,
			},
			{
				ID:   "q2",
				Text: "Which are even?",
				Options: []domain.Option{
					{ID: "o1", Text: "2"},
					{ID: "o2", Text: "3"},
					{ID: "o3", Text: "4"},
				},
				CorrectAnswers: []string{"o1", "o3"},
				Type:           domain.QuestionMultiple,
			},
		},
	})
	return catalog
}
