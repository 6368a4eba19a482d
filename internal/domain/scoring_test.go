package domain

import "testing"

func singleQuestion() Question {
	return Question{
		ID:   "q1",
		Text: "Pick b",
		Options: []Option{
			{ID: "a", Text: "A"},
			{ID: "b", Text: "B"},
			{ID: "c", Text: "C"},
		},
		CorrectAnswers: []string{"b"},
		Hints:          []string{"not a", "not c", "really not a"},
		Type:           QuestionSingle,
	}
}

func multipleQuestion() Question {
	return Question{
		ID:   "q2",
		Text: "Pick a and c",
		Options: []Option{
			{ID: "a", Text: "A"},
			{ID: "b", Text: "B"},
			{ID: "c", Text: "C"},
		},
		CorrectAnswers: []string{"a", "c"},
		Hints:          []string{"two answers"},
		Type:           QuestionMultiple,
	}
}

func TestEvaluateSingle(t *testing.T) {
	q := singleQuestion()
	cases := []struct {
		name     string
		selected []string
		want     bool
	}{
		{"exact", []string{"b"}, true},
		{"empty", nil, false},
		{"wrong", []string{"a"}, false},
		{"two options", []string{"a", "b"}, false},
		{"unknown option", []string{"z"}, false},
	}
	for _, tc := range cases {
		if got := Evaluate(q, tc.selected); got != tc.want {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}

func TestEvaluateSingleComparesFirstCorrectAnswer(t *testing.T) {
	q := singleQuestion()
	q.CorrectAnswers = []string{"b", "c"}
	if !Evaluate(q, []string{"b"}) {
		t.Fatalf("expected first correct answer to win")
	}
	if Evaluate(q, []string{"c"}) {
		t.Fatalf("expected second correct answer to be ignored")
	}
}

func TestEvaluateMultiple(t *testing.T) {
	q := multipleQuestion()
	cases := []struct {
		name     string
		selected []string
		want     bool
	}{
		{"exact", []string{"a", "c"}, true},
		{"exact reordered", []string{"c", "a"}, true},
		{"subset", []string{"a"}, false},
		{"superset", []string{"a", "b", "c"}, false},
		{"disjoint", []string{"b"}, false},
		{"empty", []string{}, false},
	}
	for _, tc := range cases {
		if got := Evaluate(q, tc.selected); got != tc.want {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}

func TestNextHintStopsAtTwo(t *testing.T) {
	q := singleQuestion()

	first, ok := NextHint(q, 0, false)
	if !ok || first.Hint != "not a" || first.HintsUsed != 1 {
		t.Fatalf("unexpected first hint %+v ok=%v", first, ok)
	}
	second, ok := NextHint(q, first.HintsUsed, false)
	if !ok || second.Hint != "not c" || second.HintsUsed != 2 {
		t.Fatalf("unexpected second hint %+v ok=%v", second, ok)
	}
	third, ok := NextHint(q, second.HintsUsed, false)
	if ok || third.HintsUsed != 2 {
		t.Fatalf("expected third hint refused, got %+v ok=%v", third, ok)
	}
}

func TestNextHintRespectsQuestionHints(t *testing.T) {
	q := multipleQuestion()
	if _, ok := NextHint(q, 1, false); ok {
		t.Fatalf("expected refusal beyond defined hints")
	}
	if res, ok := NextHint(q, 0, true); ok || res.HintsUsed != 0 {
		t.Fatalf("expected refusal after correct judgement, got %+v", res)
	}
}

func TestTimeoutAnswer(t *testing.T) {
	q := singleQuestion()
	selected, correct := TimeoutAnswer(q, nil)
	if correct || len(selected) != 0 || selected == nil {
		t.Fatalf("expected empty incorrect answer, got %v %v", selected, correct)
	}
	selected, correct = TimeoutAnswer(q, []string{"b"})
	if !correct || len(selected) != 1 {
		t.Fatalf("expected pending selection judged correct, got %v %v", selected, correct)
	}
}

func TestQuestionValidate(t *testing.T) {
	if err := singleQuestion().Validate(); err != nil {
		t.Fatalf("expected valid question: %v", err)
	}
	bad := singleQuestion()
	bad.CorrectAnswers = []string{"a", "b"}
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected single question with two answers to fail")
	}
	bad = multipleQuestion()
	bad.CorrectAnswers = []string{"x"}
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected unknown correct answer to fail")
	}
	bad = multipleQuestion()
	bad.Options = bad.Options[:1]
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected single option to fail")
	}
}
