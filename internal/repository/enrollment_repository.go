package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EnrollmentRepository answers enrollment questions for the session engine.
// Course and user CRUD live elsewhere; the quiz core only ever asks whether
// a student may take a course's quizzes.
type EnrollmentRepository struct {
	pool *pgxpool.Pool
}

// NewEnrollmentRepository creates a new EnrollmentRepository.
func NewEnrollmentRepository(pool *pgxpool.Pool) *EnrollmentRepository {
	return &EnrollmentRepository{pool: pool}
}

// IsEnrolled reports whether the student is enrolled in the course.
func (r *EnrollmentRepository) IsEnrolled(ctx context.Context, studentID, courseID int) (bool, error) {
	var enrolled bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (
		   SELECT 1 FROM course_enrollments
		   WHERE student_id = $1 AND course_id = $2
		 )`,
		studentID, courseID).Scan(&enrolled)
	return enrolled, err
}
