package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/acadio/acadio-backend/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
)

// QuizSessionRepository handles quiz session data access.
type QuizSessionRepository struct {
	pool *pgxpool.Pool
}

// NewQuizSessionRepository creates a new QuizSessionRepository.
func NewQuizSessionRepository(pool *pgxpool.Pool) *QuizSessionRepository {
	return &QuizSessionRepository{pool: pool}
}

const sessionColumns = `id, student_id, quiz_id, session_token, answers,
	locked_questions, current_question, question_order,
	started_at, last_activity_at, expires_at, is_completed, is_expired`

func scanSession(row interface{ Scan(...any) error }) (*model.QuizSession, error) {
	s := &model.QuizSession{}
	var answersJSON, lockedJSON, orderJSON []byte
	err := row.Scan(
		&s.ID, &s.StudentID, &s.QuizID, &s.SessionToken, &answersJSON,
		&lockedJSON, &s.CurrentQuestion, &orderJSON,
		&s.StartedAt, &s.LastActivityAt, &s.ExpiresAt, &s.IsCompleted, &s.IsExpired,
	)
	if err != nil {
		return nil, err
	}
	if len(answersJSON) > 0 {
		if err := json.Unmarshal(answersJSON, &s.Answers); err != nil {
			return nil, fmt.Errorf("decode answers: %w", err)
		}
	}
	if s.Answers == nil {
		s.Answers = map[string]string{}
	}
	if len(lockedJSON) > 0 {
		if err := json.Unmarshal(lockedJSON, &s.LockedQuestions); err != nil {
			return nil, fmt.Errorf("decode locked questions: %w", err)
		}
	}
	if len(orderJSON) > 0 {
		if err := json.Unmarshal(orderJSON, &s.QuestionOrder); err != nil {
			return nil, fmt.Errorf("decode question order: %w", err)
		}
	}
	return s, nil
}

// GetActive retrieves the single non-completed, non-expired session for a
// (student, quiz) pair, if any.
func (r *QuizSessionRepository) GetActive(ctx context.Context, studentID, quizID int) (*model.QuizSession, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+`
		 FROM quiz_sessions
		 WHERE student_id = $1 AND quiz_id = $2
		   AND NOT is_completed AND NOT is_expired`,
		studentID, quizID)
	return scanSession(row)
}

// GetActiveByToken retrieves an active session by its token, scoped to the
// owning student and quiz so a leaked token cannot cross attempts.
func (r *QuizSessionRepository) GetActiveByToken(ctx context.Context, token string, studentID, quizID int) (*model.QuizSession, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+`
		 FROM quiz_sessions
		 WHERE session_token = $1 AND student_id = $2 AND quiz_id = $3
		   AND NOT is_completed AND NOT is_expired`,
		token, studentID, quizID)
	return scanSession(row)
}

// GetOpenByToken retrieves a not-yet-completed session by token. Unlike
// GetActiveByToken this still matches sessions flagged expired, which the
// completion path needs.
func (r *QuizSessionRepository) GetOpenByToken(ctx context.Context, token string, studentID, quizID int) (*model.QuizSession, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+`
		 FROM quiz_sessions
		 WHERE session_token = $1 AND student_id = $2 AND quiz_id = $3
		   AND NOT is_completed`,
		token, studentID, quizID)
	return scanSession(row)
}

// Create inserts a new session. The partial unique index on
// (student_id, quiz_id) for open sessions makes concurrent creates collide;
// a conflicting insert returns pgx.ErrNoRows from the RETURNING scan.
func (r *QuizSessionRepository) Create(ctx context.Context, s *model.QuizSession) error {
	answersJSON, _ := json.Marshal(s.Answers)
	lockedJSON, _ := json.Marshal(s.LockedQuestions)
	orderJSON, err := json.Marshal(s.QuestionOrder)
	if err != nil {
		return fmt.Errorf("encode question order: %w", err)
	}
	return r.pool.QueryRow(ctx,
		`INSERT INTO quiz_sessions (student_id, quiz_id, session_token,
		        answers, locked_questions, current_question, question_order,
		        started_at, last_activity_at, expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (student_id, quiz_id) WHERE NOT is_completed AND NOT is_expired
		 DO NOTHING
		 RETURNING id`,
		s.StudentID, s.QuizID, s.SessionToken,
		answersJSON, lockedJSON, s.CurrentQuestion, orderJSON,
		s.StartedAt, s.LastActivityAt, s.ExpiresAt,
	).Scan(&s.ID)
}

// SaveProgress overwrites a session's answers, locks and position wholesale
// and refreshes the activity timestamp.
func (r *QuizSessionRepository) SaveProgress(ctx context.Context, s *model.QuizSession) error {
	answersJSON, _ := json.Marshal(s.Answers)
	lockedJSON, _ := json.Marshal(s.LockedQuestions)
	_, err := r.pool.Exec(ctx,
		`UPDATE quiz_sessions
		 SET answers = $1, locked_questions = $2, current_question = $3,
		     last_activity_at = $4
		 WHERE id = $5`,
		answersJSON, lockedJSON, s.CurrentQuestion, s.LastActivityAt, s.ID)
	return err
}

// Touch refreshes the session's last-activity timestamp.
func (r *QuizSessionRepository) Touch(ctx context.Context, sessionID int, at time.Time) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE quiz_sessions SET last_activity_at = $1 WHERE id = $2`,
		at, sessionID)
	return err
}

// MarkExpired flags a session as expired and completed. Returns true only for
// the call that performed the transition, which makes expiry side effects
// idempotent under races between the lazy check and the sweeper.
func (r *QuizSessionRepository) MarkExpired(ctx context.Context, sessionID int) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE quiz_sessions
		 SET is_expired = TRUE, is_completed = TRUE
		 WHERE id = $1 AND NOT is_completed`,
		sessionID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// MarkCompleted flags a session as completed, storing the final answers.
// Returns true only for the call that performed the transition.
func (r *QuizSessionRepository) MarkCompleted(ctx context.Context, sessionID int, answers map[string]string) (bool, error) {
	answersJSON, _ := json.Marshal(answers)
	tag, err := r.pool.Exec(ctx,
		`UPDATE quiz_sessions
		 SET is_completed = TRUE, answers = $1
		 WHERE id = $2 AND NOT is_completed`,
		answersJSON, sessionID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// ListExpiredOpen returns open sessions whose deadline has passed, oldest
// first. Used by the expiry sweeper.
func (r *QuizSessionRepository) ListExpiredOpen(ctx context.Context, now time.Time, limit int) ([]model.QuizSession, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+sessionColumns+`
		 FROM quiz_sessions
		 WHERE NOT is_completed AND NOT is_expired AND expires_at < $1
		 ORDER BY expires_at ASC
		 LIMIT $2`,
		now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []model.QuizSession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *s)
	}
	return sessions, rows.Err()
}
