package model_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/acadio/acadio-backend/internal/model"
)

func TestAnswerKeyDecodesBothRepresentations(t *testing.T) {
	var q model.Question
	data := []byte(`{
		"id": 1,
		"type": "multiple-choice",
		"question": "Pick one",
		"options": ["TCP", "UDP"],
		"correctAnswer": 1
	}`)
	if err := json.Unmarshal(data, &q); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if idx, ok := q.CorrectAnswer.ResolveIndex(q.Options); !ok || idx != 1 {
		t.Fatalf("expected numeric key to resolve to 1, got %d ok=%v", idx, ok)
	}

	data = []byte(`{
		"id": 2,
		"type": "dropdown",
		"question": "Pick one",
		"options": ["TCP", "UDP"],
		"correctAnswer": "UDP"
	}`)
	if err := json.Unmarshal(data, &q); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if idx, ok := q.CorrectAnswer.ResolveIndex(q.Options); !ok || idx != 1 {
		t.Fatalf("expected text key to resolve to 1, got %d ok=%v", idx, ok)
	}
}

func TestAnswerKeyTextMissesUnknownOption(t *testing.T) {
	key := model.TextKey("SCTP")
	options := []model.Option{{Text: "TCP"}, {Text: "UDP"}}
	if _, ok := key.ResolveIndex(options); ok {
		t.Fatalf("unknown option text must not resolve")
	}
}

func TestAnswerKeyNullAndRoundTrip(t *testing.T) {
	var key model.AnswerKey
	if err := json.Unmarshal([]byte(`null`), &key); err != nil {
		t.Fatalf("null must decode: %v", err)
	}
	if !key.IsZero() {
		t.Fatalf("null key should be zero")
	}

	out, err := json.Marshal(model.IndexKey(2))
	if err != nil || string(out) != "2" {
		t.Fatalf("expected numeric marshal, got %s err=%v", out, err)
	}
	out, err = json.Marshal(model.TextKey("UDP"))
	if err != nil || string(out) != `"UDP"` {
		t.Fatalf("expected text marshal, got %s err=%v", out, err)
	}
}

func TestOptionDecodesStringAndObjectForms(t *testing.T) {
	var opts []model.Option
	data := []byte(`["TCP", {"text": "UDP", "isCorrect": true}]`)
	if err := json.Unmarshal(data, &opts); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if opts[0].Text != "TCP" || opts[0].IsCorrect {
		t.Fatalf("unexpected string option %+v", opts[0])
	}
	if opts[1].Text != "UDP" || !opts[1].IsCorrect {
		t.Fatalf("unexpected object option %+v", opts[1])
	}
}

func TestOptionDecodesNullAsNull(t *testing.T) {
	var opts []model.Option
	if err := json.Unmarshal([]byte(`["TCP", null]`), &opts); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if opts[0].IsNull() {
		t.Fatalf("real option flagged null")
	}
	if !opts[1].IsNull() {
		t.Fatalf("null entry not flagged")
	}
}

func TestQuestionPointValueDefaultsToOne(t *testing.T) {
	q := model.Question{}
	if q.PointValue() != 1 {
		t.Fatalf("expected default 1, got %d", q.PointValue())
	}
	q.Points = 8
	if q.PointValue() != 8 {
		t.Fatalf("expected 8, got %d", q.PointValue())
	}
}

func TestRecomputeTotalPoints(t *testing.T) {
	quiz := model.Quiz{Questions: []model.Question{
		{Points: 10}, {Points: 5}, {}, // unset defaults to 1
	}}
	quiz.RecomputeTotalPoints()
	if quiz.TotalPoints != 16 {
		t.Fatalf("expected 16, got %d", quiz.TotalPoints)
	}
}

func TestTimeRemainingClampsAtZero(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	s := model.QuizSession{ExpiresAt: now.Add(90 * time.Second)}
	if got := s.TimeRemaining(now); got != 90 {
		t.Fatalf("expected 90, got %d", got)
	}
	s.ExpiresAt = now.Add(-time.Minute)
	if got := s.TimeRemaining(now); got != 0 {
		t.Fatalf("expected clamp to 0, got %d", got)
	}
}
