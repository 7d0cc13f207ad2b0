package service

import (
	"encoding/json"
	"testing"

	"github.com/acadio/acadio-backend/internal/model"
)

func TestBuildQuestionOrderIdentity(t *testing.T) {
	order := buildQuestionOrder(3, false, nil)
	for i, pair := range order {
		if pair.OriginalIndex != i || pair.NewIndex != i {
			t.Fatalf("expected identity at %d, got %+v", i, pair)
		}
	}
}

func TestBuildQuestionOrderShuffled(t *testing.T) {
	reverse := func(n int) []int {
		perm := make([]int, n)
		for i := range perm {
			perm[i] = n - 1 - i
		}
		return perm
	}

	order := buildQuestionOrder(4, true, reverse)

	want := []model.OrderPair{
		{OriginalIndex: 3, NewIndex: 0},
		{OriginalIndex: 2, NewIndex: 1},
		{OriginalIndex: 1, NewIndex: 2},
		{OriginalIndex: 0, NewIndex: 3},
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("position %d: expected %+v, got %+v", i, want[i], order[i])
		}
	}
}

func TestCanonicalQuestionsSortsByOrderField(t *testing.T) {
	questions := []model.Question{
		{ID: 3, Order: 2},
		{ID: 1, Order: 0},
		{ID: 2, Order: 1},
	}

	sorted := canonicalQuestions(questions)

	if sorted[0].ID != 1 || sorted[1].ID != 2 || sorted[2].ID != 3 {
		t.Fatalf("expected sort by order field, got %v %v %v", sorted[0].ID, sorted[1].ID, sorted[2].ID)
	}
	// Input must not be reordered in place.
	if questions[0].ID != 3 {
		t.Fatalf("canonicalQuestions mutated its input")
	}
}

func TestDisplayQuizStripsAnswers(t *testing.T) {
	quiz := &model.Quiz{
		ID:           9,
		Title:        "Sample",
		TotalPoints:  10,
		PassingScore: 70,
		Questions: []model.Question{
			{
				ID:            4,
				Type:          model.QuestionTypeMultipleChoice,
				Question:      "Pick one",
				Options:       []model.Option{{Text: "a", IsCorrect: true}, {Text: "b"}},
				CorrectAnswer: model.IndexKey(0),
				Points:        10,
			},
		},
	}

	display := buildDisplayQuiz(quiz)

	if len(display.Questions) != 1 {
		t.Fatalf("expected 1 question, got %d", len(display.Questions))
	}
	q := display.Questions[0]
	if q.ID != "4" {
		t.Fatalf("expected string id 4, got %q", q.ID)
	}
	if len(q.Options) != 2 || q.Options[0].Text != "a" || q.Options[0].Value != "a" {
		t.Fatalf("unexpected options %+v", q.Options)
	}
}

func TestDisplayTrueFalseOptions(t *testing.T) {
	q := &model.Question{Type: model.QuestionTypeTrueFalse,
		Options: []model.Option{{Text: "yes"}, {Text: "no"}, {Text: "maybe"}}}

	options := displayOptions(q)

	if len(options) != 2 {
		t.Fatalf("true-false must have exactly 2 options, got %d", len(options))
	}
	if options[0].Text != "True" || options[0].Value != "true" || options[0].Index != 0 {
		t.Fatalf("unexpected first option %+v", options[0])
	}
	if options[1].Text != "False" || options[1].Value != "false" || options[1].Index != 1 {
		t.Fatalf("unexpected second option %+v", options[1])
	}
}

func TestDisplayOptionsDefaults(t *testing.T) {
	empty := &model.Question{Type: model.QuestionTypeMultipleChoice}
	options := displayOptions(empty)
	if len(options) != 4 {
		t.Fatalf("expected 4 default options, got %d", len(options))
	}
	if options[2].Text != "Option 3" || options[2].Value != "option_2" {
		t.Fatalf("unexpected default option %+v", options[2])
	}

	blank := &model.Question{Type: model.QuestionTypeDropdown,
		Options: []model.Option{{Text: "real"}, {Text: "  "}}}
	options = displayOptions(blank)
	if options[0].Text != "real" {
		t.Fatalf("expected real text kept, got %+v", options[0])
	}
	if options[1].Text != "Option 2" || options[1].Value != "option_1" {
		t.Fatalf("expected blank text synthesized, got %+v", options[1])
	}
}

func TestDisplayOptionsFilterNullEntries(t *testing.T) {
	var opts []model.Option
	if err := json.Unmarshal([]byte(`["TCP", null, "UDP"]`), &opts); err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	q := &model.Question{Type: model.QuestionTypeMultipleChoice, Options: opts}
	options := displayOptions(q)
	if len(options) != 2 {
		t.Fatalf("expected null entry dropped, got %d options", len(options))
	}
	if options[0].Text != "TCP" || options[0].Index != 0 {
		t.Fatalf("unexpected first option %+v", options[0])
	}
	if options[1].Text != "UDP" || options[1].Index != 1 {
		t.Fatalf("expected survivors reindexed, got %+v", options[1])
	}

	// An all-null list renders like an empty one.
	if err := json.Unmarshal([]byte(`[null, null]`), &opts); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	options = displayOptions(&model.Question{Type: model.QuestionTypeMultipleChoice, Options: opts})
	if len(options) != 4 || options[0].Text != "Option 1" {
		t.Fatalf("expected default options, got %+v", options)
	}
}

func TestApplyOrderPermutesAndSkipsStale(t *testing.T) {
	canonical := []model.DisplayQuestion{
		{ID: "1", OriginalIndex: 0, DisplayIndex: 0},
		{ID: "2", OriginalIndex: 1, DisplayIndex: 1},
	}
	order := []model.OrderPair{
		{OriginalIndex: 1, NewIndex: 0},
		{OriginalIndex: 4, NewIndex: 1}, // stale
		{OriginalIndex: 0, NewIndex: 2},
	}

	ordered := applyOrder(canonical, order)

	if len(ordered) != 2 {
		t.Fatalf("expected stale entry dropped, got %d questions", len(ordered))
	}
	if ordered[0].ID != "2" || ordered[0].DisplayIndex != 0 || ordered[0].OriginalIndex != 1 {
		t.Fatalf("unexpected first question %+v", ordered[0])
	}
	if ordered[1].ID != "1" || ordered[1].DisplayIndex != 2 {
		t.Fatalf("unexpected second question %+v", ordered[1])
	}
}
