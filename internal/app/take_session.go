package app

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"quiz-attempt-service/internal/domain"
)

// Session event types.
const (
	EventQuestion  = "question"
	EventHint      = "hint"
	EventResult    = "result"
	EventCompleted = "completed"
	EventError     = "error"
)

// SessionEvent is pushed to the session's subscriber.
type SessionEvent struct {
	Type    string
	Payload any
}

// PresentedQuestion is the taker's view of a question: no answers, no hint texts.
type PresentedQuestion struct {
	Number         int                 `json:"number"`
	Total          int                 `json:"total"`
	QuestionID     string              `json:"questionId"`
	Text           string              `json:"text"`
	Options        []domain.Option     `json:"options"`
	Type           domain.QuestionType `json:"type"`
	HintsUsed      int                 `json:"hintsUsed"`
	HintsAvailable int                 `json:"hintsAvailable"`
	TimeLeft       int                 `json:"timeLeft"` // seconds
}

// Judgement is the outcome of one judged presentation.
type Judgement struct {
	QuestionID      string   `json:"questionId"`
	SelectedAnswers []string `json:"selectedAnswers"`
	Correct         bool     `json:"correct"`
	TimedOut        bool     `json:"timedOut"`
	HintsUsed       int      `json:"hintsUsed"`
	TimeSpent       int      `json:"timeSpent"`
	CorrectAnswers  int      `json:"correctAnswers"`
}

// SessionError reports a failure that happened outside a caller's request,
// e.g. while recording a timed-out answer.
type SessionError struct {
	Message string `json:"message"`
}

// TakeSession drives one attempt question by question and enforces the
// per-question countdown. It is safe for concurrent use.
type TakeSession struct {
	service   *AttemptService
	content   domain.QuizContent
	attemptID string
	limit     time.Duration
	now       func() time.Time
	logger    *zap.Logger
	ctx       context.Context
	cancel    context.CancelFunc

	mu      sync.Mutex
	index   int
	current *presentation
	gen     int
	closed  bool
	events  chan SessionEvent
}

type presentation struct {
	question  domain.Question
	pending   []string
	hintsUsed int
	judged    bool
	correct   bool
	timedOut  bool
	started   time.Time
	remaining time.Duration
	spent     time.Duration
	timer     *time.Timer
}

// OpenSession prepares a take session for an active attempt. It resumes at the
// first question that has no recorded result yet.
func (s *AttemptService) OpenSession(ctx context.Context, attemptID string, limit time.Duration) (*TakeSession, error) {
	attempt, err := s.attempts.Get(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.Completed() {
		return nil, domain.ErrAttemptCompleted
	}
	content, err := s.quizzes.GetQuiz(ctx, attempt.QuizID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = domain.QuestionTimeLimit
	}

	index := len(content.Questions)
	for i, q := range content.Questions {
		if _, ok := attempt.Result(q.ID); !ok {
			index = i
			break
		}
	}

	sessionCtx, cancel := context.WithCancel(ctx)
	return &TakeSession{
		service:   s,
		content:   content,
		attemptID: attemptID,
		limit:     limit,
		now:       s.now,
		logger:    s.logger.With(zap.String("attempt_id", attemptID)),
		ctx:       sessionCtx,
		cancel:    cancel,
		index:     index,
		events:    make(chan SessionEvent, 32),
	}, nil
}

// Events streams session events until Close is called.
func (t *TakeSession) Events() <-chan SessionEvent {
	return t.events
}

// Begin presents the current question, or completes the attempt when none are left.
func (t *TakeSession) Begin() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return domain.ErrSessionClosed
	}
	return t.presentLocked()
}

// Select replaces the pending selection. Single-answer questions keep the last option.
func (t *TakeSession) Select(optionIDs []string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, err := t.activeLocked()
	if err != nil {
		return err
	}
	if p.judged {
		return domain.ErrSubmissionPending
	}
	if p.timedOut {
		return domain.ErrTimeUp
	}

	seen := make(map[string]struct{}, len(optionIDs))
	pending := make([]string, 0, len(optionIDs))
	for _, id := range optionIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		pending = append(pending, id)
	}
	if p.question.Type == domain.QuestionSingle && len(pending) > 1 {
		pending = pending[len(pending)-1:]
	}
	p.pending = pending
	return nil
}

// Submit judges the pending selection. Only one submission is accepted per
// presentation until TryAgain clears it.
func (t *TakeSession) Submit() (Judgement, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, err := t.activeLocked()
	if err != nil {
		return Judgement{}, err
	}
	if p.judged {
		return Judgement{}, domain.ErrSubmissionPending
	}
	if p.timedOut || p.remaining <= 0 {
		return Judgement{}, domain.ErrTimeUp
	}
	if len(p.pending) == 0 {
		return Judgement{}, domain.ErrEmptySelection
	}

	t.pauseLocked()
	selected := append([]string{}, p.pending...)
	return t.judgeLocked(selected, domain.Evaluate(p.question, selected), false)
}

// Hint reveals the next hint of the current question.
func (t *TakeSession) Hint() (domain.HintResult, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, err := t.activeLocked()
	if err != nil {
		return domain.HintResult{}, err
	}
	res, ok := domain.NextHint(p.question, p.hintsUsed, p.judged && p.correct)
	if !ok {
		return res, domain.ErrHintUnavailable
	}
	p.hintsUsed = res.HintsUsed
	t.emitLocked(EventHint, res)
	return res, nil
}

// TryAgain clears an incorrect judgement and resumes the countdown.
func (t *TakeSession) TryAgain() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, err := t.activeLocked()
	if err != nil {
		return err
	}
	if !p.judged {
		return domain.ErrNotJudged
	}
	if p.timedOut || p.remaining <= 0 {
		return domain.ErrTimeUp
	}
	p.judged = false
	p.pending = nil
	t.startCountdownLocked()
	t.emitLocked(EventQuestion, t.presentedLocked())
	return nil
}

// Next moves on. An unjudged question is recorded as incorrect first.
func (t *TakeSession) Next() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, err := t.activeLocked()
	if err != nil {
		return err
	}
	if !p.judged {
		if !p.timedOut {
			t.pauseLocked()
		}
		p.judged = true
		answer := t.answerLocked(append([]string{}, p.pending...), false)
		if _, err := t.service.RecordAnswer(t.ctx, t.attemptID, answer); err != nil {
			p.judged = false
			return err
		}
	}
	t.index++
	return t.presentLocked()
}

// Close stops the countdown and the event stream. It is idempotent.
func (t *TakeSession) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	t.closed = true
	t.gen++
	if t.current != nil && t.current.timer != nil {
		t.current.timer.Stop()
	}
	t.cancel()
	close(t.events)
}

func (t *TakeSession) activeLocked() (*presentation, error) {
	if t.closed || t.current == nil {
		return nil, domain.ErrSessionClosed
	}
	return t.current, nil
}

func (t *TakeSession) presentLocked() error {
	if t.index >= len(t.content.Questions) {
		return t.finishLocked()
	}
	t.current = &presentation{
		question:  t.content.Questions[t.index],
		remaining: t.limit,
	}
	t.startCountdownLocked()
	t.emitLocked(EventQuestion, t.presentedLocked())
	return nil
}

func (t *TakeSession) finishLocked() error {
	t.current = nil
	attempt, err := t.service.Complete(t.ctx, t.attemptID)
	if err != nil {
		return err
	}
	t.emitLocked(EventCompleted, attempt)
	return nil
}

func (t *TakeSession) startCountdownLocked() {
	p := t.current
	t.gen++
	gen := t.gen
	p.started = t.now()
	p.timer = time.AfterFunc(p.remaining, func() { t.expire(gen) })
}

// pauseLocked stops the countdown and books the elapsed time.
func (t *TakeSession) pauseLocked() {
	p := t.current
	t.gen++
	if p.timer != nil {
		p.timer.Stop()
	}
	elapsed := t.now().Sub(p.started)
	p.spent += elapsed
	p.remaining -= elapsed
	if p.remaining < 0 {
		p.remaining = 0
	}
}

func (t *TakeSession) expire(gen int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed || gen != t.gen || t.current == nil || t.current.judged {
		return
	}
	p := t.current
	p.spent += t.now().Sub(p.started)
	p.remaining = 0
	t.gen++

	selected, correct := domain.TimeoutAnswer(p.question, p.pending)
	if _, err := t.judgeLocked(selected, correct, true); err != nil {
		t.logger.Error("record timed out answer", zap.String("question_id", p.question.ID), zap.Error(err))
		t.emitLocked(EventError, SessionError{Message: err.Error()})
	}
}

// judgeLocked records the verdict and advances after a correct answer.
func (t *TakeSession) judgeLocked(selected []string, correct, timedOut bool) (Judgement, error) {
	p := t.current
	p.judged = true
	p.correct = correct
	p.timedOut = timedOut

	answer := t.answerLocked(selected, correct)
	attempt, err := t.service.RecordAnswer(t.ctx, t.attemptID, answer)
	if err != nil {
		// A timed out presentation stays timed out; only Next can leave it.
		p.judged = false
		p.correct = false
		if !timedOut && p.remaining > 0 {
			t.startCountdownLocked()
		}
		return Judgement{}, err
	}

	judgement := Judgement{
		QuestionID:      answer.QuestionID,
		SelectedAnswers: answer.SelectedAnswers,
		Correct:         correct,
		TimedOut:        timedOut,
		HintsUsed:       answer.HintsUsed,
		TimeSpent:       answer.TimeSpent,
		CorrectAnswers:  attempt.CorrectAnswers,
	}
	t.emitLocked(EventResult, judgement)

	if correct {
		t.index++
		if err := t.presentLocked(); err != nil {
			return judgement, err
		}
	}
	return judgement, nil
}

func (t *TakeSession) answerLocked(selected []string, correct bool) domain.QuestionAttempt {
	p := t.current
	spent := min(p.spent, t.limit)
	return domain.QuestionAttempt{
		QuestionID:      p.question.ID,
		SelectedAnswers: selected,
		TimeSpent:       int(spent.Round(time.Second) / time.Second),
		HintsUsed:       p.hintsUsed,
		Correct:         correct,
	}
}

func (t *TakeSession) presentedLocked() PresentedQuestion {
	p := t.current
	return PresentedQuestion{
		Number:         t.index + 1,
		Total:          len(t.content.Questions),
		QuestionID:     p.question.ID,
		Text:           p.question.Text,
		Options:        p.question.Options,
		Type:           p.question.Type,
		HintsUsed:      p.hintsUsed,
		HintsAvailable: min(len(p.question.Hints), domain.MaxHintsPerQuestion),
		TimeLeft:       int(p.remaining.Round(time.Second) / time.Second),
	}
}

func (t *TakeSession) emitLocked(typ string, payload any) {
	if t.closed {
		return
	}
	ev := SessionEvent{Type: typ, Payload: payload}
	select {
	case t.events <- ev:
	default:
		// Drop the oldest event so a stalled reader cannot block the countdown.
		select {
		case <-t.events:
		default:
		}
		t.events <- ev
	}
}
