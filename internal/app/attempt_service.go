package app

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"quiz-attempt-service/internal/domain"
)

// AttemptStore persists quiz attempts. Update must fail with
// domain.ErrVersionConflict when the stored version differs from attempt.Version,
// and returns the attempt with its new version on success.
type AttemptStore interface {
	Create(ctx context.Context, attempt domain.QuizAttempt) error
	Get(ctx context.Context, attemptID string) (domain.QuizAttempt, error)
	ListByUser(ctx context.Context, userID string) ([]domain.QuizAttempt, error)
	Update(ctx context.Context, attempt domain.QuizAttempt) (domain.QuizAttempt, error)
}

// QuizRepository loads quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.QuizContent, error)
	Invalidate(ctx context.Context, quizID string) error
}

const defaultUpdateRetries = 3

// AttemptService contains the attempt lifecycle use cases.
type AttemptService struct {
	attempts AttemptStore
	quizzes  QuizRepository
	logger   *zap.Logger
	now      func() time.Time
	newID    func() string
	retries  int
}

// AttemptOption customizes an AttemptService.
type AttemptOption func(*AttemptService)

// WithClock overrides the time source, mostly for tests.
func WithClock(now func() time.Time) AttemptOption {
	return func(s *AttemptService) { s.now = now }
}

// WithIDGenerator overrides attempt id generation.
func WithIDGenerator(newID func() string) AttemptOption {
	return func(s *AttemptService) { s.newID = newID }
}

// WithUpdateRetries sets how often a conflicting write is retried.
func WithUpdateRetries(n int) AttemptOption {
	return func(s *AttemptService) {
		if n > 0 {
			s.retries = n
		}
	}
}

func NewAttemptService(attempts AttemptStore, quizzes QuizRepository, logger *zap.Logger, opts ...AttemptOption) *AttemptService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &AttemptService{
		attempts: attempts,
		quizzes:  quizzes,
		logger:   logger,
		now:      time.Now,
		newID:    uuid.NewString,
		retries:  defaultUpdateRetries,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start creates a new attempt. Each call creates an independent attempt.
func (s *AttemptService) Start(ctx context.Context, quizID, userID string) (domain.QuizAttempt, error) {
	content, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.QuizAttempt{}, err
	}

	attempt := domain.NewAttempt(s.newID(), content.Quiz, userID, s.now().UTC())
	if err := s.attempts.Create(ctx, attempt); err != nil {
		return domain.QuizAttempt{}, err
	}
	s.logger.Info("attempt started",
		zap.String("attempt_id", attempt.ID),
		zap.String("quiz_id", quizID),
		zap.String("user_id", userID),
		zap.Int("total_questions", attempt.TotalQuestions),
	)
	return attempt, nil
}

// RecordAnswer stores one question result with the caller's correctness verdict.
// An earlier result for the same question is replaced.
func (s *AttemptService) RecordAnswer(ctx context.Context, attemptID string, answer domain.QuestionAttempt) (domain.QuizAttempt, error) {
	return s.update(ctx, attemptID, func(attempt *domain.QuizAttempt) error {
		return attempt.Record(answer)
	})
}

// SubmitAnswer judges the submission against the stored question and records it.
// A correctness claim sent by the client is never trusted.
func (s *AttemptService) SubmitAnswer(ctx context.Context, attemptID string, submission domain.AnswerSubmission) (domain.QuizAttempt, domain.QuestionAttempt, error) {
	attempt, err := s.attempts.Get(ctx, attemptID)
	if err != nil {
		return domain.QuizAttempt{}, domain.QuestionAttempt{}, err
	}
	if attempt.Completed() {
		return domain.QuizAttempt{}, domain.QuestionAttempt{}, domain.ErrAttemptCompleted
	}
	question, err := s.question(ctx, attempt.QuizID, submission.QuestionID)
	if err != nil {
		return domain.QuizAttempt{}, domain.QuestionAttempt{}, err
	}

	correct := domain.Evaluate(question, submission.SelectedAnswers)
	if submission.ClaimedCorrect != nil && *submission.ClaimedCorrect != correct {
		s.logger.Warn("client correctness claim rejected",
			zap.String("attempt_id", attemptID),
			zap.String("question_id", submission.QuestionID),
			zap.Bool("claimed", *submission.ClaimedCorrect),
			zap.Bool("evaluated", correct),
		)
	}

	answer := domain.QuestionAttempt{
		QuestionID:      submission.QuestionID,
		SelectedAnswers: append([]string{}, submission.SelectedAnswers...),
		TimeSpent:       max(submission.TimeSpent, 0),
		HintsUsed:       min(max(submission.HintsUsed, 0), domain.MaxHintsPerQuestion),
		Correct:         correct,
	}
	updated, err := s.RecordAnswer(ctx, attemptID, answer)
	if err != nil {
		return domain.QuizAttempt{}, domain.QuestionAttempt{}, err
	}
	return updated, answer, nil
}

// RequestHint reveals the next hint for a question of the attempt's quiz.
func (s *AttemptService) RequestHint(ctx context.Context, attemptID, questionID string, hintsUsed int) (domain.HintResult, error) {
	attempt, err := s.attempts.Get(ctx, attemptID)
	if err != nil {
		return domain.HintResult{}, err
	}
	if attempt.Completed() {
		return domain.HintResult{}, domain.ErrAttemptCompleted
	}
	question, err := s.question(ctx, attempt.QuizID, questionID)
	if err != nil {
		return domain.HintResult{}, err
	}

	judgedCorrect := false
	if prior, ok := attempt.Result(questionID); ok {
		judgedCorrect = prior.Correct
	}
	hint, ok := domain.NextHint(question, hintsUsed, judgedCorrect)
	if !ok {
		return hint, domain.ErrHintUnavailable
	}
	return hint, nil
}

// Complete finalizes the attempt and computes its score.
func (s *AttemptService) Complete(ctx context.Context, attemptID string) (domain.QuizAttempt, error) {
	attempt, err := s.update(ctx, attemptID, func(attempt *domain.QuizAttempt) error {
		attempt.Complete(s.now().UTC())
		return nil
	})
	if err != nil {
		return domain.QuizAttempt{}, err
	}
	score, _ := attempt.Score()
	s.logger.Info("attempt completed",
		zap.String("attempt_id", attempt.ID),
		zap.Int("correct_answers", attempt.CorrectAnswers),
		zap.Int("total_questions", attempt.TotalQuestions),
		zap.Float64("score", score),
	)
	return attempt, nil
}

// Get returns one attempt.
func (s *AttemptService) Get(ctx context.Context, attemptID string) (domain.QuizAttempt, error) {
	return s.attempts.Get(ctx, attemptID)
}

// ListByUser returns every attempt of a user, oldest first.
func (s *AttemptService) ListByUser(ctx context.Context, userID string) ([]domain.QuizAttempt, error) {
	return s.attempts.ListByUser(ctx, userID)
}

// update runs a read-modify-write cycle, retrying when another writer won the race.
func (s *AttemptService) update(ctx context.Context, attemptID string, mutate func(*domain.QuizAttempt) error) (domain.QuizAttempt, error) {
	var lastErr error
	for try := 0; try < s.retries; try++ {
		attempt, err := s.attempts.Get(ctx, attemptID)
		if err != nil {
			return domain.QuizAttempt{}, err
		}
		if err := mutate(&attempt); err != nil {
			return domain.QuizAttempt{}, err
		}
		updated, err := s.attempts.Update(ctx, attempt)
		if err == nil {
			return updated, nil
		}
		if !errors.Is(err, domain.ErrVersionConflict) {
			return domain.QuizAttempt{}, err
		}
		lastErr = err
		s.logger.Debug("attempt update conflict, retrying",
			zap.String("attempt_id", attemptID),
			zap.Int("try", try+1),
		)
	}
	return domain.QuizAttempt{}, lastErr
}

func (s *AttemptService) question(ctx context.Context, quizID, questionID string) (domain.Question, error) {
	content, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.Question{}, err
	}
	question, ok := content.Question(questionID)
	if !ok {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	return question, nil
}
