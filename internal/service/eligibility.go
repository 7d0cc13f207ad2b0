package service

import (
	"time"

	"github.com/acadio/acadio-backend/internal/model"
)

// CheckEligibility decides whether a student may begin a new attempt at the
// quiz. It is invoked only when no active session exists. prior must be the
// student's results for this quiz ordered most-recent-first; abandoned
// sessions that never produced a result do not count.
//
// Returns nil when the attempt may begin, or an *IneligibleError describing
// why not.
func CheckEligibility(quiz *model.Quiz, prior []model.QuizResult, now time.Time) error {
	if !quiz.AllowRetake {
		if len(prior) >= quiz.Attempts {
			return &IneligibleError{
				Reason:  ReasonAttemptLimit,
				Message: "You have exceeded the maximum number of attempts for this quiz",
			}
		}
		return nil
	}

	// Retakes enabled: the first attempt is always free, and afterwards only
	// the most recent result matters.
	if len(prior) == 0 {
		return nil
	}

	last := &prior[0]
	if last.IsPassed {
		return &IneligibleError{
			Reason:  ReasonAlreadyPassed,
			Message: "You have already passed this quiz. Retakes are only allowed for failed attempts.",
		}
	}

	cooldown := time.Duration(quiz.RetakeCooldownHours) * time.Hour
	availableAt := last.CompletedAt.Add(cooldown)
	if remaining := availableAt.Sub(now); remaining > 0 {
		remainingHours := int((remaining + time.Hour - 1) / time.Hour)
		return newCooldownError(availableAt, quiz.RetakeCooldownHours, remainingHours)
	}

	return nil
}
