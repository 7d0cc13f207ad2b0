package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/acadio/acadio-backend/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
)

// QuizResultRepository handles quiz result data access. Results are
// append-only; there is deliberately no update or delete here.
type QuizResultRepository struct {
	pool *pgxpool.Pool
}

// NewQuizResultRepository creates a new QuizResultRepository.
func NewQuizResultRepository(pool *pgxpool.Pool) *QuizResultRepository {
	return &QuizResultRepository{pool: pool}
}

const resultColumns = `id, student_id, quiz_id, course_id, answers, score,
	percentage, total_questions, correct_answers, total_points,
	time_spent_seconds, is_passed, attempt_number, started_at, completed_at`

func scanResult(row interface{ Scan(...any) error }) (*model.QuizResult, error) {
	res := &model.QuizResult{}
	var answersJSON []byte
	err := row.Scan(
		&res.ID, &res.StudentID, &res.QuizID, &res.CourseID, &answersJSON,
		&res.Score, &res.Percentage, &res.TotalQuestions, &res.CorrectAnswers,
		&res.TotalPoints, &res.TimeSpentSeconds, &res.IsPassed,
		&res.AttemptNumber, &res.StartedAt, &res.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(answersJSON) > 0 {
		if err := json.Unmarshal(answersJSON, &res.Answers); err != nil {
			return nil, fmt.Errorf("decode graded answers: %w", err)
		}
	}
	return res, nil
}

// Create inserts a new result and fills in the generated id.
func (r *QuizResultRepository) Create(ctx context.Context, res *model.QuizResult) error {
	answersJSON, err := json.Marshal(res.Answers)
	if err != nil {
		return fmt.Errorf("encode graded answers: %w", err)
	}
	return r.pool.QueryRow(ctx,
		`INSERT INTO quiz_results (student_id, quiz_id, course_id, answers,
		        score, percentage, total_questions, correct_answers,
		        total_points, time_spent_seconds, is_passed, attempt_number,
		        started_at, completed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		 RETURNING id`,
		res.StudentID, res.QuizID, res.CourseID, answersJSON,
		res.Score, res.Percentage, res.TotalQuestions, res.CorrectAnswers,
		res.TotalPoints, res.TimeSpentSeconds, res.IsPassed, res.AttemptNumber,
		res.StartedAt, res.CompletedAt,
	).Scan(&res.ID)
}

// ListByStudentAndQuiz returns a student's results for one quiz, most recent
// first. Attempt counting and retake eligibility both read this.
func (r *QuizResultRepository) ListByStudentAndQuiz(ctx context.Context, studentID, quizID int) ([]model.QuizResult, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+resultColumns+`
		 FROM quiz_results
		 WHERE student_id = $1 AND quiz_id = $2
		 ORDER BY completed_at DESC`,
		studentID, quizID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectResults(rows)
}

// ListByStudent returns all of a student's results, most recent first.
func (r *QuizResultRepository) ListByStudent(ctx context.Context, studentID int) ([]model.QuizResult, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+resultColumns+`
		 FROM quiz_results
		 WHERE student_id = $1
		 ORDER BY completed_at DESC`,
		studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectResults(rows)
}

// ListByQuiz returns all results for a quiz with pagination, most recent
// first. Admin reporting only.
func (r *QuizResultRepository) ListByQuiz(ctx context.Context, quizID, page, perPage int) ([]model.QuizResult, int64, error) {
	var total int64
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM quiz_results WHERE quiz_id = $1`, quizID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * perPage
	rows, err := r.pool.Query(ctx,
		`SELECT `+resultColumns+`
		 FROM quiz_results
		 WHERE quiz_id = $1
		 ORDER BY completed_at DESC
		 LIMIT $2 OFFSET $3`,
		quizID, perPage, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	results, err := collectResults(rows)
	return results, total, err
}

func collectResults(rows interface {
	Next() bool
	Scan(...any) error
	Err() error
}) ([]model.QuizResult, error) {
	var results []model.QuizResult
	for rows.Next() {
		res, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *res)
	}
	return results, rows.Err()
}
