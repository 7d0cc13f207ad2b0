package service_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/acadio/acadio-backend/internal/model"
	"github.com/jackc/pgx/v5"
)

// In-memory store fakes mirroring the contracts of the pgx repositories,
// including pgx.ErrNoRows for misses and the single-open-session conflict.

type memQuizStore struct {
	mu      sync.Mutex
	quizzes map[int]model.Quiz
	nextID  int
}

func newMemQuizStore() *memQuizStore {
	return &memQuizStore{quizzes: map[int]model.Quiz{}, nextID: 1}
}

func (s *memQuizStore) GetByID(ctx context.Context, id int) (*model.Quiz, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.quizzes[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &q, nil
}

func (s *memQuizStore) Create(ctx context.Context, q *model.Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	q.ID = s.nextID
	s.nextID++
	q.CreatedAt = time.Now()
	q.UpdatedAt = q.CreatedAt
	s.quizzes[q.ID] = *q
	return nil
}

func (s *memQuizStore) Update(ctx context.Context, q *model.Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.quizzes[q.ID]; !ok {
		return pgx.ErrNoRows
	}
	s.quizzes[q.ID] = *q
	return nil
}

func (s *memQuizStore) ListActiveIDs(ctx context.Context) ([]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []int
	for id, q := range s.quizzes {
		if q.IsActive {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	return ids, nil
}

type memSessionStore struct {
	mu       sync.Mutex
	sessions map[int]model.QuizSession
	nextID   int
}

func newMemSessionStore() *memSessionStore {
	return &memSessionStore{sessions: map[int]model.QuizSession{}, nextID: 1}
}

func (s *memSessionStore) GetActive(ctx context.Context, studentID, quizID int) (*model.QuizSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sess := range s.sessions {
		if sess.StudentID == studentID && sess.QuizID == quizID && !sess.IsCompleted && !sess.IsExpired {
			out := sess
			return &out, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (s *memSessionStore) GetActiveByToken(ctx context.Context, token string, studentID, quizID int) (*model.QuizSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sess := range s.sessions {
		if sess.SessionToken == token && sess.StudentID == studentID && sess.QuizID == quizID &&
			!sess.IsCompleted && !sess.IsExpired {
			out := sess
			return &out, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (s *memSessionStore) GetOpenByToken(ctx context.Context, token string, studentID, quizID int) (*model.QuizSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sess := range s.sessions {
		if sess.SessionToken == token && sess.StudentID == studentID && sess.QuizID == quizID &&
			!sess.IsCompleted {
			out := sess
			return &out, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (s *memSessionStore) Create(ctx context.Context, sess *model.QuizSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.sessions {
		if existing.StudentID == sess.StudentID && existing.QuizID == sess.QuizID &&
			!existing.IsCompleted && !existing.IsExpired {
			return pgx.ErrNoRows // unique-index conflict
		}
	}
	sess.ID = s.nextID
	s.nextID++
	s.sessions[sess.ID] = *sess
	return nil
}

func (s *memSessionStore) SaveProgress(ctx context.Context, sess *model.QuizSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.sessions[sess.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	stored.Answers = sess.Answers
	stored.LockedQuestions = sess.LockedQuestions
	stored.CurrentQuestion = sess.CurrentQuestion
	stored.LastActivityAt = sess.LastActivityAt
	s.sessions[sess.ID] = stored
	return nil
}

func (s *memSessionStore) Touch(ctx context.Context, sessionID int, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.sessions[sessionID]
	if !ok {
		return pgx.ErrNoRows
	}
	stored.LastActivityAt = at
	s.sessions[sessionID] = stored
	return nil
}

func (s *memSessionStore) MarkExpired(ctx context.Context, sessionID int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.sessions[sessionID]
	if !ok || stored.IsCompleted {
		return false, nil
	}
	stored.IsExpired = true
	stored.IsCompleted = true
	s.sessions[sessionID] = stored
	return true, nil
}

func (s *memSessionStore) MarkCompleted(ctx context.Context, sessionID int, answers map[string]string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.sessions[sessionID]
	if !ok || stored.IsCompleted {
		return false, nil
	}
	stored.IsCompleted = true
	stored.Answers = answers
	s.sessions[sessionID] = stored
	return true, nil
}

func (s *memSessionStore) ListExpiredOpen(ctx context.Context, now time.Time, limit int) ([]model.QuizSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.QuizSession
	for _, sess := range s.sessions {
		if !sess.IsCompleted && !sess.IsExpired && sess.ExpiresAt.Before(now) {
			out = append(out, sess)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExpiresAt.Before(out[j].ExpiresAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// get returns the stored session row by id for assertions.
func (s *memSessionStore) get(id int) (model.QuizSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

type memResultStore struct {
	mu      sync.Mutex
	results []model.QuizResult
	nextID  int
}

func newMemResultStore() *memResultStore {
	return &memResultStore{nextID: 1}
}

func (s *memResultStore) Create(ctx context.Context, res *model.QuizResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	res.ID = s.nextID
	s.nextID++
	s.results = append(s.results, *res)
	return nil
}

func (s *memResultStore) ListByStudentAndQuiz(ctx context.Context, studentID, quizID int) ([]model.QuizResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.QuizResult
	for _, res := range s.results {
		if res.StudentID == studentID && res.QuizID == quizID {
			out = append(out, res)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CompletedAt.After(out[j].CompletedAt) })
	return out, nil
}

func (s *memResultStore) ListByStudent(ctx context.Context, studentID int) ([]model.QuizResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.QuizResult
	for _, res := range s.results {
		if res.StudentID == studentID {
			out = append(out, res)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CompletedAt.After(out[j].CompletedAt) })
	return out, nil
}

func (s *memResultStore) ListByQuiz(ctx context.Context, quizID, page, perPage int) ([]model.QuizResult, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.QuizResult
	for _, res := range s.results {
		if res.QuizID == quizID {
			out = append(out, res)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CompletedAt.After(out[j].CompletedAt) })
	total := int64(len(out))
	start := (page - 1) * perPage
	if start > len(out) {
		start = len(out)
	}
	end := start + perPage
	if end > len(out) {
		end = len(out)
	}
	return out[start:end], total, nil
}

type memEnrollmentStore struct {
	mu       sync.Mutex
	enrolled map[[2]int]bool
}

func newMemEnrollmentStore() *memEnrollmentStore {
	return &memEnrollmentStore{enrolled: map[[2]int]bool{}}
}

func (s *memEnrollmentStore) enroll(studentID, courseID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enrolled[[2]int{studentID, courseID}] = true
}

func (s *memEnrollmentStore) IsEnrolled(ctx context.Context, studentID, courseID int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enrolled[[2]int{studentID, courseID}], nil
}

// missPayloads always reports a cache miss, forcing the session engine onto
// its rebuild-from-quiz fallback.
type missPayloads struct{}

func (missPayloads) CanonicalPayload(ctx context.Context, quiz *model.Quiz) (*model.DisplayQuiz, error) {
	return nil, errors.New("cache unavailable")
}
