package domain

import "time"

const (
	// MaxHintsPerQuestion caps hint reveals regardless of how many hints a question defines.
	MaxHintsPerQuestion = 2
	// QuestionTimeLimit is the countdown allotted to each presented question.
	QuestionTimeLimit = 60 * time.Second
)

// Evaluate decides whether selected answers the question correctly.
// Single-answer questions compare against the first correct answer only.
func Evaluate(q Question, selected []string) bool {
	chosen := toSet(selected)
	switch q.Type {
	case QuestionSingle:
		if len(chosen) != 1 || len(q.CorrectAnswers) == 0 {
			return false
		}
		_, ok := chosen[q.CorrectAnswers[0]]
		return ok
	case QuestionMultiple:
		want := toSet(q.CorrectAnswers)
		if len(want) == 0 || len(want) != len(chosen) {
			return false
		}
		for id := range want {
			if _, ok := chosen[id]; !ok {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// HintResult is the outcome of a successful hint request.
type HintResult struct {
	Hint      string `json:"hint"`
	HintsUsed int    `json:"hintsUsed"`
}

// NextHint reveals the next hint in order. ok is false when the question was
// already judged correct, the cap is reached, or the question has no more hints.
func NextHint(q Question, hintsUsed int, judgedCorrect bool) (HintResult, bool) {
	if hintsUsed < 0 {
		hintsUsed = 0
	}
	if judgedCorrect || hintsUsed >= MaxHintsPerQuestion || hintsUsed >= len(q.Hints) {
		return HintResult{HintsUsed: hintsUsed}, false
	}
	return HintResult{Hint: q.Hints[hintsUsed], HintsUsed: hintsUsed + 1}, true
}

// TimeoutAnswer turns a pending selection into the answer recorded when the
// countdown elapses. An empty selection is recorded as incorrect.
func TimeoutAnswer(q Question, pending []string) ([]string, bool) {
	if len(pending) == 0 {
		return []string{}, false
	}
	selected := append([]string{}, pending...)
	return selected, Evaluate(q, selected)
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
