package memory

import (
	"context"
	"sort"
	"sync"

	"quiz-attempt-service/internal/domain"
)

// CatalogStore keeps quizzes and questions in process memory. It is the
// default backing store when no Postgres URL is configured, and doubles as
// the QuizLoader for the quiz caches.
type CatalogStore struct {
	mu        sync.RWMutex
	quizzes   map[string]domain.Quiz
	questions map[string]domain.Question
}

func NewCatalogStore() *CatalogStore {
	return &CatalogStore{
		quizzes:   make(map[string]domain.Quiz),
		questions: make(map[string]domain.Question),
	}
}

// Seed loads complete quiz content, replacing entries with the same ids.
func (s *CatalogStore) Seed(contents ...domain.QuizContent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, content := range contents {
		quiz := content.Quiz
		quiz.QuestionIDs = make([]string, 0, len(content.Questions))
		for _, q := range content.Questions {
			q.QuizID = quiz.ID
			s.questions[q.ID] = q
			quiz.QuestionIDs = append(quiz.QuestionIDs, q.ID)
		}
		s.quizzes[quiz.ID] = quiz
	}
}

func (s *CatalogStore) LoadQuiz(_ context.Context, quizID string) (domain.QuizContent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	quiz, ok := s.quizzes[quizID]
	if !ok {
		return domain.QuizContent{}, domain.ErrQuizNotFound
	}
	return domain.QuizContent{Quiz: cloneQuiz(quiz), Questions: s.questionsLocked(quiz)}, nil
}

func (s *CatalogStore) ListQuizzes(_ context.Context) ([]domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Quiz, 0, len(s.quizzes))
	for _, quiz := range s.quizzes {
		out = append(out, cloneQuiz(quiz))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *CatalogStore) GetQuiz(_ context.Context, quizID string) (domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	quiz, ok := s.quizzes[quizID]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return cloneQuiz(quiz), nil
}

func (s *CatalogStore) CreateQuiz(_ context.Context, quiz domain.Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quizzes[quiz.ID] = cloneQuiz(quiz)
	return nil
}

// UpdateQuiz stores the quiz fields but keeps the stored question order.
func (s *CatalogStore) UpdateQuiz(_ context.Context, quiz domain.Quiz) (domain.Quiz, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.quizzes[quiz.ID]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	quiz.QuestionIDs = existing.QuestionIDs
	s.quizzes[quiz.ID] = cloneQuiz(quiz)
	return cloneQuiz(quiz), nil
}

func (s *CatalogStore) DeleteQuiz(_ context.Context, quizID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	quiz, ok := s.quizzes[quizID]
	if !ok {
		return domain.ErrQuizNotFound
	}
	for _, id := range quiz.QuestionIDs {
		delete(s.questions, id)
	}
	delete(s.quizzes, quizID)
	return nil
}

func (s *CatalogStore) ListQuestions(_ context.Context, quizID string) ([]domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	quiz, ok := s.quizzes[quizID]
	if !ok {
		return nil, domain.ErrQuizNotFound
	}
	return s.questionsLocked(quiz), nil
}

func (s *CatalogStore) GetQuestion(_ context.Context, questionID string) (domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.questions[questionID]
	if !ok {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	return cloneQuestion(q), nil
}

func (s *CatalogStore) AddQuestion(_ context.Context, question domain.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	quiz, ok := s.quizzes[question.QuizID]
	if !ok {
		return domain.ErrQuizNotFound
	}
	s.questions[question.ID] = cloneQuestion(question)
	quiz.QuestionIDs = append(append([]string{}, quiz.QuestionIDs...), question.ID)
	s.quizzes[quiz.ID] = quiz
	return nil
}

func (s *CatalogStore) UpdateQuestion(_ context.Context, question domain.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.questions[question.ID]; !ok {
		return domain.ErrQuestionNotFound
	}
	s.questions[question.ID] = cloneQuestion(question)
	return nil
}

func (s *CatalogStore) DeleteQuestion(_ context.Context, questionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.questions[questionID]
	if !ok {
		return domain.ErrQuestionNotFound
	}
	delete(s.questions, questionID)
	if quiz, ok := s.quizzes[q.QuizID]; ok {
		ids := make([]string, 0, len(quiz.QuestionIDs))
		for _, id := range quiz.QuestionIDs {
			if id != questionID {
				ids = append(ids, id)
			}
		}
		quiz.QuestionIDs = ids
		s.quizzes[quiz.ID] = quiz
	}
	return nil
}

func (s *CatalogStore) questionsLocked(quiz domain.Quiz) []domain.Question {
	out := make([]domain.Question, 0, len(quiz.QuestionIDs))
	for _, id := range quiz.QuestionIDs {
		if q, ok := s.questions[id]; ok {
			out = append(out, cloneQuestion(q))
		}
	}
	return out
}

func cloneQuiz(q domain.Quiz) domain.Quiz {
	q.QuestionIDs = append([]string{}, q.QuestionIDs...)
	return q
}

func cloneQuestion(q domain.Question) domain.Question {
	q.Options = append([]domain.Option{}, q.Options...)
	q.CorrectAnswers = append([]string{}, q.CorrectAnswers...)
	q.Hints = append([]string{}, q.Hints...)
	return q
}
