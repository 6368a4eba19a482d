package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"quiz-attempt-service/internal/app"
	"quiz-attempt-service/internal/domain"
	"quiz-attempt-service/internal/infra/memory"
)

func TestCatalogQuestionLifecycle(t *testing.T) {
	ctx := context.Background()
	catalog, quizzes := newCatalogService()

	quiz, err := catalog.CreateQuiz(ctx, app.QuizDraft{Title: "Capitals", CreatedBy: "admin"})
	if err != nil {
		t.Fatalf("create quiz: %v", err)
	}

	// Warm the cache so the write below must invalidate it.
	if content, err := quizzes.GetQuiz(ctx, quiz.ID); err != nil || len(content.Questions) != 0 {
		t.Fatalf("expected empty quiz, got %+v err=%v", content, err)
	}

	question, err := catalog.CreateQuestion(ctx, app.QuestionDraft{
		QuizID: quiz.ID,
		Text:   "Capital of France?",
		Options: []domain.Option{
			{ID: "a", Text: "Paris"},
			{ID: "b", Text: "Lyon"},
		},
		CorrectAnswers: []string{"a"},
		Type:           domain.QuestionSingle,
	})
	if err != nil {
		t.Fatalf("create question: %v", err)
	}

	content, err := quizzes.GetQuiz(ctx, quiz.ID)
	if err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if len(content.Quiz.QuestionIDs) != 1 || content.Questions[0].ID != question.ID {
		t.Fatalf("expected cache invalidated after question create, got %+v", content)
	}

	updated, err := catalog.UpdateQuestion(ctx, question.ID, app.QuestionDraft{
		QuizID: "another-quiz",
		Text:   "Capital of Italy?",
		Options: []domain.Option{
			{ID: "a", Text: "Rome"},
			{ID: "b", Text: "Milan"},
		},
		CorrectAnswers: []string{"a"},
		Type:           domain.QuestionSingle,
	})
	if err != nil {
		t.Fatalf("update question: %v", err)
	}
	if updated.QuizID != quiz.ID {
		t.Fatalf("expected quiz relation unchanged, got %s", updated.QuizID)
	}

	if err := catalog.DeleteQuestion(ctx, question.ID); err != nil {
		t.Fatalf("delete question: %v", err)
	}
	questions, err := catalog.ListQuestions(ctx, quiz.ID)
	if err != nil || len(questions) != 0 {
		t.Fatalf("expected no questions, got %+v err=%v", questions, err)
	}
}

func TestCatalogRejectsInvalidQuestion(t *testing.T) {
	ctx := context.Background()
	catalog, _ := newCatalogService()
	quiz, _ := catalog.CreateQuiz(ctx, app.QuizDraft{Title: "Broken", CreatedBy: "admin"})

	_, err := catalog.CreateQuestion(ctx, app.QuestionDraft{
		QuizID:         quiz.ID,
		Text:           "Only one option",
		Options:        []domain.Option{{ID: "a", Text: "A"}},
		CorrectAnswers: []string{"a"},
		Type:           domain.QuestionSingle,
	})
	if !errors.Is(err, domain.ErrInvalidQuestion) {
		t.Fatalf("expected ErrInvalidQuestion, got %v", err)
	}

	_, err = catalog.CreateQuestion(ctx, app.QuestionDraft{
		QuizID:         "missing",
		Text:           "Orphan",
		Options:        []domain.Option{{ID: "a", Text: "A"}, {ID: "b", Text: "B"}},
		CorrectAnswers: []string{"a"},
		Type:           domain.QuestionSingle,
	})
	if !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected ErrQuizNotFound, got %v", err)
	}

	if _, err := catalog.CreateQuiz(ctx, app.QuizDraft{CreatedBy: "admin"}); !errors.Is(err, domain.ErrInvalidQuiz) {
		t.Fatalf("expected ErrInvalidQuiz, got %v", err)
	}
}

func TestCatalogVisibility(t *testing.T) {
	ctx := context.Background()
	catalog, _ := newCatalogService()

	_, _ = catalog.CreateQuiz(ctx, app.QuizDraft{Title: "Public", CreatedBy: "admin", Published: true})
	draft, _ := catalog.CreateQuiz(ctx, app.QuizDraft{Title: "Draft", CreatedBy: "admin"})

	visible, err := catalog.ListQuizzes(ctx, "student")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(visible) != 1 || visible[0].Title != "Public" {
		t.Fatalf("expected only published quiz, got %+v", visible)
	}
	owned, _ := catalog.ListQuizzes(ctx, "admin")
	if len(owned) != 2 {
		t.Fatalf("expected owner to see drafts, got %d", len(owned))
	}

	published := true
	if _, err := catalog.UpdateQuiz(ctx, draft.ID, app.QuizPatch{Published: &published}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	visible, _ = catalog.ListQuizzes(ctx, "student")
	if len(visible) != 2 {
		t.Fatalf("expected published draft visible, got %d", len(visible))
	}

	if err := catalog.DeleteQuiz(ctx, draft.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := catalog.GetQuiz(ctx, draft.ID); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected ErrQuizNotFound, got %v", err)
	}
}

func TestCatalogUpdateQuizReturnsStoredQuestions(t *testing.T) {
	ctx := context.Background()
	store := &interleavingCatalog{CatalogStore: seededCatalog()}
	catalog := app.NewCatalogService(store, memory.NewQuizRepository(store, time.Minute), nil)

	// A question lands between the service's read and its write.
	store.beforeUpdate = func() {
		err := store.AddQuestion(ctx, domain.Question{
			ID:             "q3",
			QuizID:         "quiz-1",
			Text:           "What is 3 + 3?",
			Options:        []domain.Option{{ID: "o1", Text: "6"}, {ID: "o2", Text: "7"}},
			CorrectAnswers: []string{"o1"},
			Type:           domain.QuestionSingle,
		})
		if err != nil {
			t.Fatalf("add question: %v", err)
		}
	}

	title := "Renamed"
	updated, err := catalog.UpdateQuiz(ctx, "quiz-1", app.QuizPatch{Title: &title})
	if err != nil {
		t.Fatalf("update quiz: %v", err)
	}
	if updated.Title != "Renamed" || len(updated.QuestionIDs) != 3 || updated.QuestionIDs[2] != "q3" {
		t.Fatalf("expected stored question order in response, got %+v", updated)
	}
}

type interleavingCatalog struct {
	*memory.CatalogStore
	beforeUpdate func()
}

func (c *interleavingCatalog) UpdateQuiz(ctx context.Context, quiz domain.Quiz) (domain.Quiz, error) {
	if c.beforeUpdate != nil {
		c.beforeUpdate()
	}
	return c.CatalogStore.UpdateQuiz(ctx, quiz)
}

func newCatalogService() (*app.CatalogService, *memory.QuizRepository) {
	store := memory.NewCatalogStore()
	quizzes := memory.NewQuizRepository(store, time.Minute)
	return app.NewCatalogService(store, quizzes, nil), quizzes
}
