package service

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/acadio/acadio-backend/internal/model"
)

// GradeOutcome is the result of one grading pass, before ownership fields
// (student, quiz, course, attempt number) are attached.
type GradeOutcome struct {
	Answers        []model.GradedAnswer
	Score          int
	Percentage     int
	TotalQuestions int
	CorrectAnswers int
	TotalPoints    int
}

// Grade scores raw answers against the current question bank. It is a pure
// function: the caller supplies the live quiz, the session's stored order
// mapping, and the raw answers; the only output is the outcome.
//
// The walk follows the order mapping by position over the canonical
// (order-sorted) question sequence — the same sequence display rendering
// uses. Answers are looked up under the question's database id first, then
// under the legacy positional key "q_<index>" that older persisted sessions
// used. A missing or empty answer is incorrect and scores zero.
func Grade(quiz *model.Quiz, questionOrder []model.OrderPair, answers map[string]string) GradeOutcome {
	questions := canonicalQuestions(quiz.Questions)
	if len(questionOrder) == 0 {
		questionOrder = identityOrder(len(questions))
	}

	outcome := GradeOutcome{
		TotalQuestions: len(questions),
	}

	for _, pair := range questionOrder {
		if pair.OriginalIndex < 0 || pair.OriginalIndex >= len(questions) {
			// The quiz shrank after the session started; nothing to score.
			continue
		}
		q := &questions[pair.OriginalIndex]
		questionID := strconv.Itoa(q.ID)

		answer, ok := answers[questionID]
		if !ok || answer == "" {
			answer = answers[fmt.Sprintf("q_%d", pair.OriginalIndex)]
		}

		correct := isCorrect(q, answer)
		points := 0
		if correct {
			outcome.CorrectAnswers++
			points = q.PointValue()
			outcome.Score += points
		}

		outcome.Answers = append(outcome.Answers, model.GradedAnswer{
			QuestionID:     questionID,
			SelectedAnswer: answer,
			IsCorrect:      correct,
			Points:         points,
		})
	}

	outcome.TotalPoints = quiz.TotalPoints
	if outcome.TotalPoints <= 0 {
		for i := range questions {
			outcome.TotalPoints += questions[i].PointValue()
		}
	}
	if outcome.TotalPoints > 0 {
		outcome.Percentage = int(math.Round(float64(outcome.Score) / float64(outcome.TotalPoints) * 100))
	}

	return outcome
}

// isCorrect applies the per-type comparison rule. Answers arrive as the
// chosen option's index rendered as a string. The stored correct answer is
// either an index or the option's literal text; both forms must grade.
func isCorrect(q *model.Question, answer string) bool {
	if answer == "" {
		return false
	}
	answerIdx, err := strconv.Atoi(answer)
	if err != nil {
		return false
	}

	if q.Type == model.QuestionTypeTrueFalse {
		// True is index 0, False is index 1.
		correctIdx, ok := q.CorrectAnswer.ResolveIndex(nil)
		return ok && answerIdx == correctIdx
	}

	correctIdx, ok := q.CorrectAnswer.ResolveIndex(q.Options)
	return ok && answerIdx == correctIdx
}

// buildResult attaches ownership and timing to a grade outcome, producing the
// immutable result record.
func buildResult(quiz *model.Quiz, session *model.QuizSession, outcome GradeOutcome, attemptNumber int, completedAt time.Time) *model.QuizResult {
	return &model.QuizResult{
		StudentID:        session.StudentID,
		QuizID:           session.QuizID,
		CourseID:         quiz.CourseID,
		Answers:          outcome.Answers,
		Score:            outcome.Score,
		Percentage:       outcome.Percentage,
		TotalQuestions:   outcome.TotalQuestions,
		CorrectAnswers:   outcome.CorrectAnswers,
		TotalPoints:      outcome.TotalPoints,
		TimeSpentSeconds: int(completedAt.Sub(session.StartedAt).Seconds()),
		IsPassed:         outcome.Percentage >= quiz.PassingScore,
		AttemptNumber:    attemptNumber,
		StartedAt:        session.StartedAt,
		CompletedAt:      completedAt,
	}
}
