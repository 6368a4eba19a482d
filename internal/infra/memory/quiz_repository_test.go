package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"quiz-attempt-service/internal/domain"
)

func TestQuizRepositoryCaches(t *testing.T) {
	loader := &countingLoader{QuizLoader: seededStore()}
	repo := NewQuizRepository(loader, time.Minute)

	content, err := repo.GetQuiz(context.Background(), "quiz-1")
	if err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if len(content.Questions) != 2 || content.Questions[0].ID != "q1" {
		t.Fatalf("unexpected content %+v", content)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader once, got %d", loader.calls)
	}

	if _, err := repo.GetQuiz(context.Background(), "quiz-1"); err != nil {
		t.Fatalf("get quiz 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.calls)
	}
}

func TestQuizRepositoryInvalidate(t *testing.T) {
	loader := &countingLoader{QuizLoader: seededStore()}
	repo := NewQuizRepository(loader, time.Minute)
	ctx := context.Background()

	_, _ = repo.GetQuiz(ctx, "quiz-1")
	if err := repo.Invalidate(ctx, "quiz-1"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	_, _ = repo.GetQuiz(ctx, "quiz-1")
	if loader.calls != 2 {
		t.Fatalf("expected reload after invalidate, loader calls %d", loader.calls)
	}
}

func TestQuizRepositoryExpires(t *testing.T) {
	loader := &countingLoader{QuizLoader: seededStore()}
	repo := NewQuizRepository(loader, time.Minute)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	repo.clock = func() time.Time { return now }

	_, _ = repo.GetQuiz(context.Background(), "quiz-1")
	now = now.Add(2 * time.Minute)
	_, _ = repo.GetQuiz(context.Background(), "quiz-1")
	if loader.calls != 2 {
		t.Fatalf("expected reload after ttl, loader calls %d", loader.calls)
	}
}

func TestQuizRepositoryNotFound(t *testing.T) {
	repo := NewQuizRepository(seededStore(), time.Minute)
	if _, err := repo.GetQuiz(context.Background(), "missing"); err != domain.ErrQuizNotFound {
		t.Fatalf("expected ErrQuizNotFound, got %v", err)
	}
}

func TestQuizRepositoryInvalidateDuringLoad(t *testing.T) {
	store := seededStore()
	loader := newBlockingLoader(store)
	repo := NewQuizRepository(loader, time.Minute)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := repo.GetQuiz(ctx, "quiz-1")
		done <- err
	}()
	<-loader.loaded

	if err := store.AddQuestion(ctx, domain.Question{
		ID:             "q3",
		QuizID:         "quiz-1",
		Text:           "What is 3 + 3?",
		Options:        []domain.Option{{ID: "o1", Text: "6"}, {ID: "o2", Text: "7"}},
		CorrectAnswers: []string{"o1"},
		Type:           domain.QuestionSingle,
	}); err != nil {
		t.Fatalf("add question: %v", err)
	}
	if err := repo.Invalidate(ctx, "quiz-1"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	close(loader.release)
	if err := <-done; err != nil {
		t.Fatalf("in-flight get: %v", err)
	}

	content, err := repo.GetQuiz(ctx, "quiz-1")
	if err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if len(content.Questions) != 3 || len(content.Quiz.QuestionIDs) != 3 {
		t.Fatalf("expected fresh content with 3 questions, got %d", len(content.Questions))
	}
}

type countingLoader struct {
	QuizLoader
	calls int
}

func (l *countingLoader) LoadQuiz(ctx context.Context, quizID string) (domain.QuizContent, error) {
	l.calls++
	return l.QuizLoader.LoadQuiz(ctx, quizID)
}

// blockingLoader parks its first load after reading the store until release is closed.
type blockingLoader struct {
	QuizLoader
	once    sync.Once
	loaded  chan struct{}
	release chan struct{}
}

func newBlockingLoader(inner QuizLoader) *blockingLoader {
	return &blockingLoader{QuizLoader: inner, loaded: make(chan struct{}), release: make(chan struct{})}
}

func (l *blockingLoader) LoadQuiz(ctx context.Context, quizID string) (domain.QuizContent, error) {
	content, err := l.QuizLoader.LoadQuiz(ctx, quizID)
	l.once.Do(func() {
		close(l.loaded)
		<-l.release
	})
	return content, err
}

func seededStore() *CatalogStore {
	store := NewCatalogStore()
	store.Seed(sampleContent())
	return store
}

func sampleContent() domain.QuizContent {
	return domain.QuizContent{
		Quiz: domain.Quiz{ID: "quiz-1", Title: "Arithmetic", CreatedBy: "admin", Published: true},
		Questions: []domain.Question{
			{
				ID:   "q1",
				Text: "What is 2 + 2?",
				Options: []domain.Option{
					{ID: "o1", Text: "3"},
					{ID: "o2", Text: "4"},
				},
				CorrectAnswers: []string{"o2"},
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
	}
}
