package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/acadio/acadio-backend/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// QuizPayloadSource provides the canonical (unshuffled) display form of a
// quiz. The production implementation is QuizService, which serves it from
// the Redis payload cache.
type QuizPayloadSource interface {
	CanonicalPayload(ctx context.Context, quiz *model.Quiz) (*model.DisplayQuiz, error)
}

// SessionService owns the lifecycle of a student's quiz attempt: creation,
// resumption, progress updates, expiry detection, and completion. A session
// is ACTIVE until its deadline passes (EXPIRED, auto-submitted) or the
// student submits (COMPLETED); neither terminal state ever transitions back.
type SessionService struct {
	quizzes     QuizStore
	sessions    SessionStore
	results     ResultStore
	enrollments EnrollmentStore
	payloads    QuizPayloadSource
	shuffle     ShuffleFunc
	now         func() time.Time
	log         zerolog.Logger
}

// SessionOption customizes a SessionService, mainly for tests.
type SessionOption func(*SessionService)

// WithClock replaces the service's time source.
func WithClock(now func() time.Time) SessionOption {
	return func(s *SessionService) { s.now = now }
}

// WithShuffle replaces the question shuffle, letting tests inject a fixed
// permutation.
func WithShuffle(fn ShuffleFunc) SessionOption {
	return func(s *SessionService) { s.shuffle = fn }
}

// NewSessionService creates a new SessionService.
func NewSessionService(
	quizzes QuizStore,
	sessions SessionStore,
	results ResultStore,
	enrollments EnrollmentStore,
	payloads QuizPayloadSource,
	log zerolog.Logger,
	opts ...SessionOption,
) *SessionService {
	s := &SessionService{
		quizzes:     quizzes,
		sessions:    sessions,
		results:     results,
		enrollments: enrollments,
		payloads:    payloads,
		shuffle:     defaultShuffle,
		now:         time.Now,
		log:         log.With().Str("component", "session_service").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StartOrResumeResult is the response of a successful start or resume.
type StartOrResumeResult struct {
	Resumed bool              `json:"resumed"`
	Session model.SessionView `json:"session"`
	Quiz    model.DisplayQuiz `json:"quiz"`
}

// StartOrResume returns the caller's active session for the quiz, creating
// one if eligibility allows. If an existing session has passed its deadline
// the call auto-submits it and reports ErrSessionExpired instead.
func (s *SessionService) StartOrResume(ctx context.Context, studentID, quizID int) (*StartOrResumeResult, error) {
	now := s.now()

	quiz, err := s.loadQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}

	enrolled, err := s.enrollments.IsEnrolled(ctx, studentID, quiz.CourseID)
	if err != nil {
		return nil, fmt.Errorf("check enrollment: %w", err)
	}
	if !enrolled {
		return nil, ErrNotEnrolled
	}

	session, err := s.sessions.GetActive(ctx, studentID, quizID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("find active session: %w", err)
	}

	if session != nil {
		if now.After(session.ExpiresAt) {
			s.expireAndSubmit(ctx, quiz, session, now)
			return nil, ErrSessionExpired
		}

		if err := s.sessions.Touch(ctx, session.ID, now); err != nil {
			s.log.Warn().Err(err).Int("session_id", session.ID).Msg("Failed to refresh session activity")
		}

		return &StartOrResumeResult{
			Resumed: true,
			Session: viewOf(session, now),
			Quiz:    *s.renderQuiz(ctx, quiz, session.QuestionOrder),
		}, nil
	}

	prior, err := s.results.ListByStudentAndQuiz(ctx, studentID, quizID)
	if err != nil {
		return nil, fmt.Errorf("list prior results: %w", err)
	}
	if err := CheckEligibility(quiz, prior, now); err != nil {
		return nil, err
	}

	order := buildQuestionOrder(len(canonicalQuestions(quiz.Questions)), quiz.RandomizeQuestions, s.shuffle)

	session = &model.QuizSession{
		StudentID:       studentID,
		QuizID:          quizID,
		SessionToken:    newSessionToken(),
		Answers:         map[string]string{},
		LockedQuestions: []int{},
		CurrentQuestion: 0,
		QuestionOrder:   order,
		StartedAt:       now,
		LastActivityAt:  now,
		ExpiresAt:       now.Add(time.Duration(quiz.TimeLimitMinutes) * time.Minute),
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Concurrent start: the unique index let exactly one insert
			// through. Resume the winner.
			existing, fetchErr := s.sessions.GetActive(ctx, studentID, quizID)
			if fetchErr != nil {
				return nil, fmt.Errorf("concurrent start detected, but fetch failed: %w", fetchErr)
			}
			return &StartOrResumeResult{
				Resumed: true,
				Session: viewOf(existing, now),
				Quiz:    *s.renderQuiz(ctx, quiz, existing.QuestionOrder),
			}, nil
		}
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.log.Info().
		Int("student_id", studentID).
		Int("quiz_id", quizID).
		Bool("randomized", quiz.RandomizeQuestions).
		Msg("Quiz session started")

	return &StartOrResumeResult{
		Session: viewOf(session, now),
		Quiz:    *s.renderQuiz(ctx, quiz, order),
	}, nil
}

// UpdateProgress overwrites a session's answers, locks and position wholesale
// (last write wins, no merge) and returns the remaining time in seconds.
func (s *SessionService) UpdateProgress(ctx context.Context, studentID, quizID int, req *model.UpdateProgressRequest) (int, error) {
	now := s.now()

	session, err := s.sessions.GetActiveByToken(ctx, req.SessionToken, studentID, quizID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrSessionNotFound
		}
		return 0, fmt.Errorf("find session: %w", err)
	}

	if now.After(session.ExpiresAt) {
		quiz, loadErr := s.loadQuizForGrading(ctx, quizID)
		if loadErr != nil {
			return 0, loadErr
		}
		s.expireAndSubmit(ctx, quiz, session, now)
		return 0, ErrSessionExpired
	}

	if req.Answers != nil {
		session.Answers = req.Answers
	}
	if req.LockedQuestions != nil {
		session.LockedQuestions = req.LockedQuestions
	}
	if req.CurrentQuestion != nil {
		session.CurrentQuestion = *req.CurrentQuestion
	}
	session.LastActivityAt = now

	if err := s.sessions.SaveProgress(ctx, session); err != nil {
		return 0, fmt.Errorf("save progress: %w", err)
	}

	return session.TimeRemaining(now), nil
}

// Complete submits a session and grades it. Answers in the request replace
// the session's saved answers; when omitted, the last-saved answers are
// graded. This is the only non-expiry path to a result.
func (s *SessionService) Complete(ctx context.Context, studentID, quizID int, req *model.CompleteSessionRequest) (*model.ResultSummary, error) {
	now := s.now()

	session, err := s.sessions.GetOpenByToken(ctx, req.SessionToken, studentID, quizID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("find session: %w", err)
	}

	// Load the question bank before touching the session: a submission must
	// never close the session without a result behind it.
	quiz, err := s.loadQuizForGrading(ctx, quizID)
	if err != nil {
		return nil, err
	}

	answers := req.Answers
	if answers == nil {
		answers = session.Answers
	}

	transitioned, err := s.sessions.MarkCompleted(ctx, session.ID, answers)
	if err != nil {
		return nil, fmt.Errorf("complete session: %w", err)
	}
	if !transitioned {
		// Lost a race against another submit or the sweeper; exactly one
		// result exists either way.
		return nil, ErrSessionNotFound
	}

	result, err := s.persistResult(ctx, quiz, session, answers, now)
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Int("student_id", studentID).
		Int("quiz_id", quizID).
		Int("score", result.Score).
		Int("percentage", result.Percentage).
		Bool("passed", result.IsPassed).
		Msg("Quiz session completed")

	return &model.ResultSummary{
		Score:          result.Score,
		Percentage:     result.Percentage,
		CorrectAnswers: result.CorrectAnswers,
		TotalQuestions: result.TotalQuestions,
		IsPassed:       result.IsPassed,
		PassingScore:   quiz.PassingScore,
	}, nil
}

// Clock reports the remaining seconds of the caller's active session for a
// quiz. The lazy expiry check applies here too: a passed deadline triggers
// auto-submit and ErrSessionExpired.
func (s *SessionService) Clock(ctx context.Context, studentID, quizID int) (int, error) {
	now := s.now()

	session, err := s.sessions.GetActive(ctx, studentID, quizID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrSessionNotFound
		}
		return 0, fmt.Errorf("find active session: %w", err)
	}

	if now.After(session.ExpiresAt) {
		quiz, loadErr := s.loadQuizForGrading(ctx, quizID)
		if loadErr != nil {
			return 0, loadErr
		}
		s.expireAndSubmit(ctx, quiz, session, now)
		return 0, ErrSessionExpired
	}

	return session.TimeRemaining(now), nil
}

// SweepExpired finalizes up to limit open sessions whose deadline has
// passed. Returns the number of sessions closed. Pure backstop for lazy
// expiry; client-observable behavior is identical either way.
func (s *SessionService) SweepExpired(ctx context.Context, limit int) (int, error) {
	now := s.now()

	expired, err := s.sessions.ListExpiredOpen(ctx, now, limit)
	if err != nil {
		return 0, fmt.Errorf("list expired sessions: %w", err)
	}

	closed := 0
	for i := range expired {
		session := &expired[i]
		quiz, err := s.loadQuizForGrading(ctx, session.QuizID)
		if err != nil {
			s.log.Warn().Err(err).Int("quiz_id", session.QuizID).Msg("Sweep skipped session: quiz unavailable")
			continue
		}
		if s.expireAndSubmit(ctx, quiz, session, now) {
			closed++
		}
	}
	return closed, nil
}

// loadQuiz gates on availability: students may only start against an active
// quiz. Missing and inactive are indistinguishable to them.
func (s *SessionService) loadQuiz(ctx context.Context, quizID int) (*model.Quiz, error) {
	quiz, err := s.loadQuizForGrading(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if !quiz.IsActive {
		return nil, ErrQuizNotFound
	}
	return quiz, nil
}

// loadQuizForGrading fetches the question bank without the availability gate.
// Submission and expiry must still grade a session whose quiz was deactivated
// after it started.
func (s *SessionService) loadQuizForGrading(ctx context.Context, quizID int) (*model.Quiz, error) {
	quiz, err := s.quizzes.GetByID(ctx, quizID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("get quiz: %w", err)
	}
	return quiz, nil
}

// expireAndSubmit transitions an ACTIVE session past its deadline to
// EXPIRED→COMPLETED and grades its saved answers. The MarkExpired guard makes
// the transition — and therefore the result — happen exactly once no matter
// how many callers detect the same expiry. Returns true for the caller that
// performed it.
func (s *SessionService) expireAndSubmit(ctx context.Context, quiz *model.Quiz, session *model.QuizSession, now time.Time) bool {
	transitioned, err := s.sessions.MarkExpired(ctx, session.ID)
	if err != nil {
		s.log.Error().Err(err).Int("session_id", session.ID).Msg("Failed to mark session expired")
		return false
	}
	if !transitioned {
		return false
	}

	if _, err := s.persistResult(ctx, quiz, session, session.Answers, now); err != nil {
		s.log.Error().Err(err).
			Int("session_id", session.ID).
			Int("student_id", session.StudentID).
			Msg("Auto-submit of expired session failed")
		return true
	}

	s.log.Info().
		Int("session_id", session.ID).
		Int("student_id", session.StudentID).
		Int("quiz_id", session.QuizID).
		Msg("Expired session auto-submitted")
	return true
}

// persistResult grades against the live question bank and appends the
// result record.
func (s *SessionService) persistResult(ctx context.Context, quiz *model.Quiz, session *model.QuizSession, answers map[string]string, now time.Time) (*model.QuizResult, error) {
	outcome := Grade(quiz, session.QuestionOrder, answers)

	prior, err := s.results.ListByStudentAndQuiz(ctx, session.StudentID, session.QuizID)
	if err != nil {
		return nil, fmt.Errorf("count prior attempts: %w", err)
	}

	result := buildResult(quiz, session, outcome, len(prior)+1, now)
	if err := s.results.Create(ctx, result); err != nil {
		return nil, fmt.Errorf("save result: %w", err)
	}
	return result, nil
}

// renderQuiz produces the quiz in display form with the session's stored
// permutation applied. The canonical payload normally comes from the Redis
// cache; on cache failure it is rebuilt from the quiz directly.
func (s *SessionService) renderQuiz(ctx context.Context, quiz *model.Quiz, order []model.OrderPair) *model.DisplayQuiz {
	payload, err := s.payloads.CanonicalPayload(ctx, quiz)
	if err != nil {
		s.log.Warn().Err(err).Int("quiz_id", quiz.ID).Msg("Payload cache unavailable, rebuilding")
		payload = buildDisplayQuiz(quiz)
	}
	if len(order) == 0 {
		order = identityOrder(len(payload.Questions))
	}
	payload.Questions = applyOrder(payload.Questions, order)
	return payload
}

func viewOf(session *model.QuizSession, now time.Time) model.SessionView {
	return model.SessionView{
		SessionToken:    session.SessionToken,
		Answers:         session.Answers,
		LockedQuestions: session.LockedQuestions,
		CurrentQuestion: session.CurrentQuestion,
		StartedAt:       session.StartedAt,
		ExpiresAt:       session.ExpiresAt,
		TimeRemaining:   session.TimeRemaining(now),
	}
}

// newSessionToken returns 32 random bytes hex-encoded: an opaque 64-character
// session credential.
func newSessionToken() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	return hex.EncodeToString(buf)
}
