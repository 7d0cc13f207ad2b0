package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/acadio/acadio-backend/internal/model"
)

// The session engine reaches persistence only through these interfaces so it
// can be exercised against in-memory fakes. The pgx repositories in
// internal/repository are the production implementations.

// QuizStore is the question bank adapter: a read view over quiz definitions
// plus the writes the admin surface needs.
type QuizStore interface {
	GetByID(ctx context.Context, id int) (*model.Quiz, error)
	Create(ctx context.Context, q *model.Quiz) error
	Update(ctx context.Context, q *model.Quiz) error
	ListActiveIDs(ctx context.Context) ([]int, error)
}

// SessionStore persists quiz sessions.
type SessionStore interface {
	GetActive(ctx context.Context, studentID, quizID int) (*model.QuizSession, error)
	GetActiveByToken(ctx context.Context, token string, studentID, quizID int) (*model.QuizSession, error)
	GetOpenByToken(ctx context.Context, token string, studentID, quizID int) (*model.QuizSession, error)
	Create(ctx context.Context, s *model.QuizSession) error
	SaveProgress(ctx context.Context, s *model.QuizSession) error
	Touch(ctx context.Context, sessionID int, at time.Time) error
	MarkExpired(ctx context.Context, sessionID int) (bool, error)
	MarkCompleted(ctx context.Context, sessionID int, answers map[string]string) (bool, error)
	ListExpiredOpen(ctx context.Context, now time.Time, limit int) ([]model.QuizSession, error)
}

// ResultStore persists and reads append-only quiz results.
type ResultStore interface {
	Create(ctx context.Context, res *model.QuizResult) error
	ListByStudentAndQuiz(ctx context.Context, studentID, quizID int) ([]model.QuizResult, error)
	ListByStudent(ctx context.Context, studentID int) ([]model.QuizResult, error)
	ListByQuiz(ctx context.Context, quizID, page, perPage int) ([]model.QuizResult, int64, error)
}

// EnrollmentStore answers the enrollment authorization check.
type EnrollmentStore interface {
	IsEnrolled(ctx context.Context, studentID, courseID int) (bool, error)
}

// ─── Domain errors ───────────────────────────────────────────────────

var (
	// ErrQuizNotFound covers both a missing quiz and an inactive one; the
	// two are indistinguishable to students.
	ErrQuizNotFound = errors.New("quiz not found or not available")

	// ErrNotEnrolled is returned when the student is not enrolled in the
	// quiz's course.
	ErrNotEnrolled = errors.New("student is not enrolled in the course")

	// ErrSessionNotFound is returned when no session matches the token, or
	// the matching session does not belong to the caller, or it is already
	// closed. Deliberately one error for all three.
	ErrSessionNotFound = errors.New("quiz session not found or already completed")

	// ErrSessionExpired signals that a session's deadline passed and its
	// answers were auto-submitted.
	ErrSessionExpired = errors.New("quiz session has expired and was auto-submitted")
)

// IneligibleReason distinguishes why a new attempt was refused.
type IneligibleReason string

const (
	ReasonAttemptLimit  IneligibleReason = "attempt_limit"
	ReasonAlreadyPassed IneligibleReason = "already_passed"
	ReasonCooldown      IneligibleReason = "cooldown"
)

// IneligibleError is returned by the eligibility evaluator when a new attempt
// may not begin. It carries enough structure for the client to render a
// countdown rather than a bare "forbidden".
type IneligibleError struct {
	Reason            IneligibleReason
	Message           string
	RetakeAvailableAt time.Time // set for ReasonCooldown only
	CooldownHours     int       // configured cooldown, ReasonCooldown only
	RemainingHours    int       // whole hours left, rounded up
}

func (e *IneligibleError) Error() string { return e.Message }

// AsIneligible unwraps err into an *IneligibleError if it is one.
func AsIneligible(err error) (*IneligibleError, bool) {
	var ie *IneligibleError
	if errors.As(err, &ie) {
		return ie, true
	}
	return nil, false
}

func newCooldownError(availableAt time.Time, cooldownHours, remainingHours int) *IneligibleError {
	return &IneligibleError{
		Reason:            ReasonCooldown,
		Message:           fmt.Sprintf("You must wait %d more hour(s) before you can retake this quiz", remainingHours),
		RetakeAvailableAt: availableAt,
		CooldownHours:     cooldownHours,
		RemainingHours:    remainingHours,
	}
}
