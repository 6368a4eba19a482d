package domain

import "time"

// QuestionAttempt records one question's submission within an attempt.
type QuestionAttempt struct {
	QuestionID      string   `json:"questionId"`
	SelectedAnswers []string `json:"selectedAnswers"`
	TimeSpent       int      `json:"timeSpent"` // seconds
	HintsUsed       int      `json:"hintsUsed"`
	Correct         bool     `json:"correct"`
}

// Completion holds the fields that only exist once an attempt is finalized.
type Completion struct {
	EndTime time.Time `json:"endTime"`
	Score   float64   `json:"score"`
}

// QuizAttempt is one user's run through a quiz. While Completion is nil the
// attempt is active and accepts answers.
type QuizAttempt struct {
	ID               string            `json:"id"`
	QuizID           string            `json:"quizId"`
	UserID           string            `json:"userId"`
	StartTime        time.Time         `json:"startTime"`
	TotalQuestions   int               `json:"totalQuestions"`
	QuestionAttempts []QuestionAttempt `json:"questionAttempts"`
	CorrectAnswers   int               `json:"correctAnswers"`
	Completion       *Completion       `json:"completion,omitempty"`
	Version          int64             `json:"version"`
}

// NewAttempt starts an attempt, snapshotting the quiz's question count.
func NewAttempt(id string, quiz Quiz, userID string, now time.Time) QuizAttempt {
	return QuizAttempt{
		ID:               id,
		QuizID:           quiz.ID,
		UserID:           userID,
		StartTime:        now,
		TotalQuestions:   len(quiz.QuestionIDs),
		QuestionAttempts: []QuestionAttempt{},
	}
}

// Completed reports whether the attempt has been finalized.
func (a *QuizAttempt) Completed() bool {
	return a.Completion != nil
}

// Score returns the final score; ok is false while the attempt is active.
func (a *QuizAttempt) Score() (score float64, ok bool) {
	if a.Completion == nil {
		return 0, false
	}
	return a.Completion.Score, true
}

// Result returns the recorded result for a question, if any.
func (a *QuizAttempt) Result(questionID string) (QuestionAttempt, bool) {
	for _, qa := range a.QuestionAttempts {
		if qa.QuestionID == questionID {
			return qa, true
		}
	}
	return QuestionAttempt{}, false
}

// Record stores a question result, replacing any earlier result for the same
// question in place, then recounts the correct answers.
func (a *QuizAttempt) Record(qa QuestionAttempt) error {
	if a.Completed() {
		return ErrAttemptCompleted
	}
	if qa.SelectedAnswers == nil {
		qa.SelectedAnswers = []string{}
	}

	replaced := false
	for i := range a.QuestionAttempts {
		if a.QuestionAttempts[i].QuestionID == qa.QuestionID {
			a.QuestionAttempts[i] = qa
			replaced = true
			break
		}
	}
	if !replaced {
		a.QuestionAttempts = append(a.QuestionAttempts, qa)
	}

	correct := 0
	for _, entry := range a.QuestionAttempts {
		if entry.Correct {
			correct++
		}
	}
	a.CorrectAnswers = correct
	return nil
}

// Complete finalizes the attempt. Calling it again recomputes end time and score.
func (a *QuizAttempt) Complete(now time.Time) {
	score := 0.0
	if a.TotalQuestions > 0 {
		score = float64(a.CorrectAnswers) / float64(a.TotalQuestions) * 100
	}
	a.Completion = &Completion{EndTime: now, Score: score}
}

// Clone returns a deep copy so stores never share slices with callers.
func (a QuizAttempt) Clone() QuizAttempt {
	out := a
	out.QuestionAttempts = make([]QuestionAttempt, len(a.QuestionAttempts))
	for i, qa := range a.QuestionAttempts {
		qa.SelectedAnswers = append([]string{}, qa.SelectedAnswers...)
		out.QuestionAttempts[i] = qa
	}
	if a.Completion != nil {
		c := *a.Completion
		out.Completion = &c
	}
	return out
}
