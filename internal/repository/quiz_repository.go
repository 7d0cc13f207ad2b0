package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/acadio/acadio-backend/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
)

// QuizRepository handles quiz data access. The question bank is a JSONB
// document on the quiz row.
type QuizRepository struct {
	pool *pgxpool.Pool
}

// NewQuizRepository creates a new QuizRepository.
func NewQuizRepository(pool *pgxpool.Pool) *QuizRepository {
	return &QuizRepository{pool: pool}
}

const quizColumns = `id, course_id, title, description, questions, passing_score,
	total_points, time_limit_minutes, attempts, randomize_questions,
	allow_retake, retake_cooldown_hours, is_active, created_by_id,
	created_at, updated_at`

func scanQuiz(row interface{ Scan(...any) error }) (*model.Quiz, error) {
	q := &model.Quiz{}
	var questionsJSON []byte
	err := row.Scan(
		&q.ID, &q.CourseID, &q.Title, &q.Description, &questionsJSON,
		&q.PassingScore, &q.TotalPoints, &q.TimeLimitMinutes, &q.Attempts,
		&q.RandomizeQuestions, &q.AllowRetake, &q.RetakeCooldownHours,
		&q.IsActive, &q.CreatedByID, &q.CreatedAt, &q.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(questionsJSON) > 0 {
		if err := json.Unmarshal(questionsJSON, &q.Questions); err != nil {
			return nil, fmt.Errorf("decode questions: %w", err)
		}
	}
	return q, nil
}

// GetByID retrieves a quiz, including its full question bank.
func (r *QuizRepository) GetByID(ctx context.Context, id int) (*model.Quiz, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+quizColumns+` FROM quizzes WHERE id = $1`, id)
	return scanQuiz(row)
}

// Create inserts a new quiz and fills in the generated id and timestamps.
func (r *QuizRepository) Create(ctx context.Context, q *model.Quiz) error {
	questionsJSON, err := json.Marshal(q.Questions)
	if err != nil {
		return fmt.Errorf("encode questions: %w", err)
	}
	return r.pool.QueryRow(ctx,
		`INSERT INTO quizzes (course_id, title, description, questions,
		        passing_score, total_points, time_limit_minutes, attempts,
		        randomize_questions, allow_retake, retake_cooldown_hours,
		        is_active, created_by_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 RETURNING id, created_at, updated_at`,
		q.CourseID, q.Title, q.Description, questionsJSON,
		q.PassingScore, q.TotalPoints, q.TimeLimitMinutes, q.Attempts,
		q.RandomizeQuestions, q.AllowRetake, q.RetakeCooldownHours,
		q.IsActive, q.CreatedByID,
	).Scan(&q.ID, &q.CreatedAt, &q.UpdatedAt)
}

// Update rewrites a quiz row in full.
func (r *QuizRepository) Update(ctx context.Context, q *model.Quiz) error {
	questionsJSON, err := json.Marshal(q.Questions)
	if err != nil {
		return fmt.Errorf("encode questions: %w", err)
	}
	_, err = r.pool.Exec(ctx,
		`UPDATE quizzes
		 SET title = $1, description = $2, questions = $3, passing_score = $4,
		     total_points = $5, time_limit_minutes = $6, attempts = $7,
		     randomize_questions = $8, allow_retake = $9,
		     retake_cooldown_hours = $10, is_active = $11, updated_at = NOW()
		 WHERE id = $12`,
		q.Title, q.Description, questionsJSON, q.PassingScore,
		q.TotalPoints, q.TimeLimitMinutes, q.Attempts,
		q.RandomizeQuestions, q.AllowRetake, q.RetakeCooldownHours,
		q.IsActive, q.ID,
	)
	return err
}

// ListActiveIDs returns the ids of all active quizzes, used to prewarm the
// payload cache at boot.
func (r *QuizRepository) ListActiveIDs(ctx context.Context) ([]int, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM quizzes WHERE is_active`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
