package service

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/acadio/acadio-backend/internal/model"
)

// Display-form rendering: the answer-free, normalized view of a quiz that
// quiz-taking clients receive. The correct-answer field never appears here.

const defaultOptionCount = 4

// buildDisplayQuiz renders quiz metadata plus its canonical question sequence
// in display form (identity order; OriginalIndex == DisplayIndex). The
// per-session permutation is applied separately so the same canonical payload
// can be cached and shared across sessions.
func buildDisplayQuiz(quiz *model.Quiz) *model.DisplayQuiz {
	canonical := canonicalQuestions(quiz.Questions)
	questions := make([]model.DisplayQuestion, len(canonical))
	for i := range canonical {
		q := &canonical[i]
		questions[i] = model.DisplayQuestion{
			ID:            strconv.Itoa(q.ID),
			OriginalIndex: i,
			DisplayIndex:  i,
			Question:      q.Question,
			Type:          q.Type,
			Options:       displayOptions(q),
			TimeLimit:     q.TimeLimitSeconds,
			Points:        q.Points,
		}
	}
	return &model.DisplayQuiz{
		ID:           quiz.ID,
		Title:        quiz.Title,
		Description:  quiz.Description,
		TimeLimit:    quiz.TimeLimitMinutes,
		TotalPoints:  quiz.TotalPoints,
		PassingScore: quiz.PassingScore,
		Attempts:     quiz.Attempts,
		Questions:    questions,
	}
}

// applyOrder permutes canonical display questions by a session's stored order
// mapping. Positions outside the current question list are skipped: the quiz
// may have shrunk since the session was created.
func applyOrder(canonical []model.DisplayQuestion, order []model.OrderPair) []model.DisplayQuestion {
	ordered := make([]model.DisplayQuestion, 0, len(order))
	for displayIdx, pair := range order {
		if pair.OriginalIndex < 0 || pair.OriginalIndex >= len(canonical) {
			continue
		}
		q := canonical[pair.OriginalIndex]
		q.OriginalIndex = pair.OriginalIndex
		q.DisplayIndex = displayIdx
		ordered = append(ordered, q)
	}
	return ordered
}

// displayOptions normalizes a question's options so the client never receives
// a broken control: true-false questions always render exactly two options,
// and blank option text is synthesized.
func displayOptions(q *model.Question) []model.DisplayOption {
	if q.Type == model.QuestionTypeTrueFalse {
		return []model.DisplayOption{
			{Text: "True", Value: "true", Index: 0},
			{Text: "False", Value: "false", Index: 1},
		}
	}

	// Null entries are dropped and the survivors reindexed; grading still
	// walks the stored array, so answer indices follow the stored positions.
	options := make([]model.DisplayOption, 0, len(q.Options))
	for _, opt := range q.Options {
		if opt.IsNull() {
			continue
		}
		idx := len(options)
		if text := strings.TrimSpace(opt.Text); text != "" {
			options = append(options, model.DisplayOption{Text: opt.Text, Value: opt.Text, Index: idx})
		} else {
			options = append(options, defaultOption(idx))
		}
	}
	if len(options) == 0 {
		return defaultOptions(defaultOptionCount)
	}
	return options
}

func defaultOptions(n int) []model.DisplayOption {
	options := make([]model.DisplayOption, n)
	for i := range options {
		options[i] = defaultOption(i)
	}
	return options
}

func defaultOption(i int) model.DisplayOption {
	return model.DisplayOption{
		Text:  fmt.Sprintf("Option %d", i+1),
		Value: fmt.Sprintf("option_%d", i),
		Index: i,
	}
}
