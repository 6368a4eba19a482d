package app

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"quiz-attempt-service/internal/domain"
)

// CatalogStore is the authoring-side persistence for quizzes and questions.
// UpdateQuiz keeps the stored question order and returns the quiz as written.
// AddQuestion must append the question id to its quiz atomically and
// DeleteQuestion must remove it again.
type CatalogStore interface {
	ListQuizzes(ctx context.Context) ([]domain.Quiz, error)
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
	CreateQuiz(ctx context.Context, quiz domain.Quiz) error
	UpdateQuiz(ctx context.Context, quiz domain.Quiz) (domain.Quiz, error)
	DeleteQuiz(ctx context.Context, quizID string) error
	ListQuestions(ctx context.Context, quizID string) ([]domain.Question, error)
	GetQuestion(ctx context.Context, questionID string) (domain.Question, error)
	AddQuestion(ctx context.Context, question domain.Question) error
	UpdateQuestion(ctx context.Context, question domain.Question) error
	DeleteQuestion(ctx context.Context, questionID string) error
}

// QuizDraft carries the author-controlled quiz fields.
type QuizDraft struct {
	Title       string
	Description string
	CreatedBy   string
	Published   bool
}

// QuizPatch is a partial quiz update; nil fields are left untouched.
type QuizPatch struct {
	Title       *string
	Description *string
	Published   *bool
}

// QuestionDraft carries the author-controlled question fields.
type QuestionDraft struct {
	QuizID         string
	Text           string
	Options        []domain.Option
	CorrectAnswers []string
	Hints          []string
	Type           domain.QuestionType
}

// CatalogService manages quiz and question authoring.
type CatalogService struct {
	store   CatalogStore
	quizzes QuizRepository
	logger  *zap.Logger
	now     func() time.Time
}

func NewCatalogService(store CatalogStore, quizzes QuizRepository, logger *zap.Logger) *CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{store: store, quizzes: quizzes, logger: logger, now: time.Now}
}

// ListQuizzes returns the quizzes visible to viewerID: published ones plus the viewer's own drafts.
func (s *CatalogService) ListQuizzes(ctx context.Context, viewerID string) ([]domain.Quiz, error) {
	all, err := s.store.ListQuizzes(ctx)
	if err != nil {
		return nil, err
	}
	visible := make([]domain.Quiz, 0, len(all))
	for _, quiz := range all {
		if quiz.VisibleTo(viewerID) {
			visible = append(visible, quiz)
		}
	}
	return visible, nil
}

func (s *CatalogService) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	return s.store.GetQuiz(ctx, quizID)
}

func (s *CatalogService) CreateQuiz(ctx context.Context, draft QuizDraft) (domain.Quiz, error) {
	quiz := domain.Quiz{
		ID:          uuid.NewString(),
		Title:       draft.Title,
		Description: draft.Description,
		CreatedBy:   draft.CreatedBy,
		CreatedAt:   s.now().UTC(),
		Published:   draft.Published,
		QuestionIDs: []string{},
	}
	if err := quiz.Validate(); err != nil {
		return domain.Quiz{}, err
	}
	if err := s.store.CreateQuiz(ctx, quiz); err != nil {
		return domain.Quiz{}, err
	}
	s.logger.Info("quiz created", zap.String("quiz_id", quiz.ID), zap.String("created_by", quiz.CreatedBy))
	return quiz, nil
}

func (s *CatalogService) UpdateQuiz(ctx context.Context, quizID string, patch QuizPatch) (domain.Quiz, error) {
	quiz, err := s.store.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.Quiz{}, err
	}
	if patch.Title != nil {
		quiz.Title = *patch.Title
	}
	if patch.Description != nil {
		quiz.Description = *patch.Description
	}
	if patch.Published != nil {
		quiz.Published = *patch.Published
	}
	if err := quiz.Validate(); err != nil {
		return domain.Quiz{}, err
	}
	updated, err := s.store.UpdateQuiz(ctx, quiz)
	if err != nil {
		return domain.Quiz{}, err
	}
	s.invalidate(ctx, quizID)
	return updated, nil
}

// DeleteQuiz removes the quiz together with its questions.
func (s *CatalogService) DeleteQuiz(ctx context.Context, quizID string) error {
	if err := s.store.DeleteQuiz(ctx, quizID); err != nil {
		return err
	}
	s.invalidate(ctx, quizID)
	s.logger.Info("quiz deleted", zap.String("quiz_id", quizID))
	return nil
}

// ListQuestions returns the quiz's questions in quiz order.
func (s *CatalogService) ListQuestions(ctx context.Context, quizID string) ([]domain.Question, error) {
	if _, err := s.store.GetQuiz(ctx, quizID); err != nil {
		return nil, err
	}
	return s.store.ListQuestions(ctx, quizID)
}

func (s *CatalogService) CreateQuestion(ctx context.Context, draft QuestionDraft) (domain.Question, error) {
	question := draft.question(uuid.NewString())
	if err := question.Validate(); err != nil {
		return domain.Question{}, err
	}
	if err := s.store.AddQuestion(ctx, question); err != nil {
		return domain.Question{}, err
	}
	s.invalidate(ctx, question.QuizID)
	return question, nil
}

// UpdateQuestion replaces a question's content. The owning quiz cannot change.
func (s *CatalogService) UpdateQuestion(ctx context.Context, questionID string, draft QuestionDraft) (domain.Question, error) {
	existing, err := s.store.GetQuestion(ctx, questionID)
	if err != nil {
		return domain.Question{}, err
	}
	draft.QuizID = existing.QuizID
	question := draft.question(questionID)
	if err := question.Validate(); err != nil {
		return domain.Question{}, err
	}
	if err := s.store.UpdateQuestion(ctx, question); err != nil {
		return domain.Question{}, err
	}
	s.invalidate(ctx, question.QuizID)
	return question, nil
}

func (s *CatalogService) DeleteQuestion(ctx context.Context, questionID string) error {
	existing, err := s.store.GetQuestion(ctx, questionID)
	if err != nil {
		return err
	}
	if err := s.store.DeleteQuestion(ctx, questionID); err != nil {
		return err
	}
	s.invalidate(ctx, existing.QuizID)
	return nil
}

// invalidate drops cached quiz content after a write. Failures only leave a
// stale entry until its TTL runs out.
func (s *CatalogService) invalidate(ctx context.Context, quizID string) {
	if err := s.quizzes.Invalidate(ctx, quizID); err != nil {
		s.logger.Warn("quiz cache invalidation failed", zap.String("quiz_id", quizID), zap.Error(err))
	}
}

func (d QuestionDraft) question(id string) domain.Question {
	hints := d.Hints
	if hints == nil {
		hints = []string{}
	}
	return domain.Question{
		ID:             id,
		QuizID:         d.QuizID,
		Text:           d.Text,
		Options:        d.Options,
		CorrectAnswers: d.CorrectAnswers,
		Hints:          hints,
		Type:           d.Type,
	}
}
