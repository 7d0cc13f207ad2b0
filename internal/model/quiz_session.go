package model

import "time"

// OrderPair maps one position in the canonical (order-sorted) question
// sequence to the position it is displayed at for a given session. The full
// list is the session's order mapping, fixed at creation and never
// recomputed.
type OrderPair struct {
	OriginalIndex int `json:"originalIndex"`
	NewIndex      int `json:"newIndex"`
}

// QuizSession is one student's in-progress (or just-finished) attempt at one
// quiz. Answers are keyed by question id rendered as a string; values are the
// chosen option's index, also as a string.
type QuizSession struct {
	ID              int               `json:"id"`
	StudentID       int               `json:"student_id"`
	QuizID          int               `json:"quiz_id"`
	SessionToken    string            `json:"session_token"`
	Answers         map[string]string `json:"answers"`
	LockedQuestions []int             `json:"locked_questions"`
	CurrentQuestion int               `json:"current_question"`
	QuestionOrder   []OrderPair       `json:"question_order"`
	StartedAt       time.Time         `json:"started_at"`
	LastActivityAt  time.Time         `json:"last_activity_at"`
	ExpiresAt       time.Time         `json:"expires_at"`
	IsCompleted     bool              `json:"is_completed"`
	IsExpired       bool              `json:"is_expired"`
}

// TimeRemaining returns the whole seconds left before the session's deadline,
// clamped at zero.
func (s *QuizSession) TimeRemaining(now time.Time) int {
	remaining := int(s.ExpiresAt.Sub(now).Seconds())
	if remaining < 0 {
		return 0
	}
	return remaining
}

// SessionView is the session state returned to the quiz-taking client.
type SessionView struct {
	SessionToken    string            `json:"session_token"`
	Answers         map[string]string `json:"answers"`
	LockedQuestions []int             `json:"locked_questions"`
	CurrentQuestion int               `json:"current_question"`
	StartedAt       time.Time         `json:"started_at"`
	ExpiresAt       time.Time         `json:"expires_at"`
	TimeRemaining   int               `json:"time_remaining"`
}

// UpdateProgressRequest is the payload for saving session progress. A nil
// field leaves the stored value unchanged; a present field overwrites it
// wholesale (last write wins, no merge).
type UpdateProgressRequest struct {
	SessionToken    string            `json:"session_token" binding:"required,len=64,hexadecimal"`
	Answers         map[string]string `json:"answers"`
	LockedQuestions []int             `json:"locked_questions"`
	CurrentQuestion *int              `json:"current_question" binding:"omitempty,min=0"`
}

// CompleteSessionRequest is the payload for submitting a session. Answers may
// be omitted, in which case the session's last-saved answers are graded.
type CompleteSessionRequest struct {
	SessionToken string            `json:"session_token" binding:"required,len=64,hexadecimal"`
	Answers      map[string]string `json:"answers"`
}
