package model

import "time"

// GradedAnswer records how a single question was scored.
type GradedAnswer struct {
	QuestionID     string `json:"questionId"`
	SelectedAnswer string `json:"selectedAnswer"`
	IsCorrect      bool   `json:"isCorrect"`
	Points         int    `json:"points"`
	TimeSpent      int    `json:"timeSpent"`
}

// QuizResult is one completed grading pass. Results are append-only and are
// the sole source of truth for attempt counting and retake eligibility.
type QuizResult struct {
	ID               int            `json:"id"`
	StudentID        int            `json:"student_id"`
	QuizID           int            `json:"quiz_id"`
	CourseID         int            `json:"course_id"`
	Answers          []GradedAnswer `json:"answers"`
	Score            int            `json:"score"`
	Percentage       int            `json:"percentage"`
	TotalQuestions   int            `json:"total_questions"`
	CorrectAnswers   int            `json:"correct_answers"`
	TotalPoints      int            `json:"total_points"`
	TimeSpentSeconds int            `json:"time_spent"`
	IsPassed         bool           `json:"is_passed"`
	AttemptNumber    int            `json:"attempt_number"`
	StartedAt        time.Time      `json:"started_at"`
	CompletedAt      time.Time      `json:"completed_at"`
}

// ResultSummary is the slice of a result returned right after submission.
type ResultSummary struct {
	Score          int  `json:"score"`
	Percentage     int  `json:"percentage"`
	CorrectAnswers int  `json:"correct_answers"`
	TotalQuestions int  `json:"total_questions"`
	IsPassed       bool `json:"is_passed"`
	PassingScore   int  `json:"passing_score"`
}
