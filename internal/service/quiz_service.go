package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/acadio/acadio-backend/internal/config"
	"github.com/acadio/acadio-backend/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// QuizService handles quiz administration and Redis payload caching. The
// cached payload is always the canonical (bank-order, answer-free) display
// form; per-session shuffling is applied at serve time so the cache is shared
// by every student.
type QuizService struct {
	quizzes QuizStore
	rdb     *redis.Client
	log     zerolog.Logger
}

// NewQuizService creates a new QuizService.
func NewQuizService(quizzes QuizStore, rdb *redis.Client, log zerolog.Logger) *QuizService {
	return &QuizService{
		quizzes: quizzes,
		rdb:     rdb,
		log:     log.With().Str("component", "quiz_service").Logger(),
	}
}

// GetQuiz retrieves a quiz by ID, including inactive ones. Admin use only;
// student-facing paths go through SessionService, which filters on IsActive.
func (s *QuizService) GetQuiz(ctx context.Context, id int) (*model.Quiz, error) {
	quiz, err := s.quizzes.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("get quiz: %w", err)
	}
	return quiz, nil
}

// CreateQuiz inserts a new quiz and warms its payload cache.
func (s *QuizService) CreateQuiz(ctx context.Context, createdByID int, req *model.CreateQuizRequest) (*model.Quiz, error) {
	quiz := &model.Quiz{
		CourseID:            req.CourseID,
		Title:               req.Title,
		Description:         req.Description,
		Questions:           assignQuestionIDs(req.Questions, nil),
		PassingScore:        req.PassingScore,
		TimeLimitMinutes:    req.TimeLimitMinutes,
		Attempts:            req.Attempts,
		RandomizeQuestions:  req.RandomizeQuestions,
		AllowRetake:         req.AllowRetake,
		RetakeCooldownHours: req.RetakeCooldownHours,
		IsActive:            true,
		CreatedByID:         createdByID,
	}
	quiz.RecomputeTotalPoints()

	if err := s.quizzes.Create(ctx, quiz); err != nil {
		return nil, fmt.Errorf("create quiz: %w", err)
	}

	if err := s.WarmQuizCache(ctx, quiz); err != nil {
		s.log.Warn().Err(err).Int("quiz_id", quiz.ID).Msg("Failed to warm quiz cache")
	}

	s.log.Info().Int("quiz_id", quiz.ID).Int("questions", len(quiz.Questions)).Msg("Quiz created")
	return quiz, nil
}

// UpdateQuiz applies a partial update. A provided question list replaces the
// bank wholesale; existing question IDs survive the replacement and new
// questions get fresh IDs, so grading keys stay stable across edits.
func (s *QuizService) UpdateQuiz(ctx context.Context, id int, req *model.UpdateQuizRequest) (*model.Quiz, error) {
	quiz, err := s.GetQuiz(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		quiz.Title = *req.Title
	}
	if req.Description != nil {
		quiz.Description = *req.Description
	}
	if req.Questions != nil {
		quiz.Questions = assignQuestionIDs(*req.Questions, quiz.Questions)
		quiz.RecomputeTotalPoints()
	}
	if req.PassingScore != nil {
		quiz.PassingScore = *req.PassingScore
	}
	if req.TimeLimitMinutes != nil {
		quiz.TimeLimitMinutes = *req.TimeLimitMinutes
	}
	if req.Attempts != nil {
		quiz.Attempts = *req.Attempts
	}
	if req.RandomizeQuestions != nil {
		quiz.RandomizeQuestions = *req.RandomizeQuestions
	}
	if req.AllowRetake != nil {
		quiz.AllowRetake = *req.AllowRetake
	}
	if req.RetakeCooldownHours != nil {
		quiz.RetakeCooldownHours = *req.RetakeCooldownHours
	}
	if req.IsActive != nil {
		quiz.IsActive = *req.IsActive
	}

	if err := s.quizzes.Update(ctx, quiz); err != nil {
		return nil, fmt.Errorf("update quiz: %w", err)
	}

	if err := s.WarmQuizCache(ctx, quiz); err != nil {
		s.log.Warn().Err(err).Int("quiz_id", quiz.ID).Msg("Failed to refresh quiz cache")
	}

	s.log.Info().Int("quiz_id", quiz.ID).Msg("Quiz updated")
	return quiz, nil
}

// CanonicalPayload returns the quiz's display form, read-through from Redis.
// A cache miss or a stale document falls back to rebuilding from the quiz
// and re-warming.
func (s *QuizService) CanonicalPayload(ctx context.Context, quiz *model.Quiz) (*model.DisplayQuiz, error) {
	key := config.CacheKey.QuizPayloadKey(quiz.ID)

	data, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("get payload: %w", err)
		}
		return s.rebuildPayload(ctx, quiz)
	}

	var payload model.DisplayQuiz
	if err := json.Unmarshal(data, &payload); err != nil {
		s.log.Warn().Err(err).Int("quiz_id", quiz.ID).Msg("Corrupt cached payload, rebuilding")
		return s.rebuildPayload(ctx, quiz)
	}
	return &payload, nil
}

func (s *QuizService) rebuildPayload(ctx context.Context, quiz *model.Quiz) (*model.DisplayQuiz, error) {
	if err := s.WarmQuizCache(ctx, quiz); err != nil {
		s.log.Warn().Err(err).Int("quiz_id", quiz.ID).Msg("Failed to warm quiz cache")
	}
	return buildDisplayQuiz(quiz), nil
}

// WarmQuizCache stores the quiz's canonical payload in Redis.
func (s *QuizService) WarmQuizCache(ctx context.Context, quiz *model.Quiz) error {
	payload := buildDisplayQuiz(quiz)

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	if err := s.rdb.Set(ctx, config.CacheKey.QuizPayloadKey(quiz.ID), payloadJSON, 0).Err(); err != nil {
		return fmt.Errorf("cache to redis: %w", err)
	}

	s.log.Debug().
		Int("quiz_id", quiz.ID).
		Int("questions", len(payload.Questions)).
		Msg("Cache warmed")
	return nil
}

// PrewarmAllCaches loads every active quiz's payload into Redis on startup.
func (s *QuizService) PrewarmAllCaches(ctx context.Context) error {
	ids, err := s.quizzes.ListActiveIDs(ctx)
	if err != nil {
		return fmt.Errorf("list active quizzes: %w", err)
	}

	if len(ids) == 0 {
		s.log.Info().Msg("No active quizzes to prewarm")
		return nil
	}

	s.log.Info().Int("count", len(ids)).Msg("Prewarming active quizzes...")

	warmed := 0
	for _, id := range ids {
		quiz, err := s.quizzes.GetByID(ctx, id)
		if err != nil {
			s.log.Warn().Err(err).Int("quiz_id", id).Msg("Failed to load quiz, skipping")
			continue
		}
		if err := s.WarmQuizCache(ctx, quiz); err != nil {
			s.log.Warn().Err(err).Int("quiz_id", id).Msg("Failed to warm quiz, skipping")
			continue
		}
		warmed++
	}

	s.log.Info().Int("warmed", warmed).Int("total", len(ids)).Msg("Prewarming complete")
	return nil
}

// assignQuestionIDs converts inputs to stored questions, preserving IDs that
// already exist and allocating new ones above the highest seen so far.
func assignQuestionIDs(inputs []model.QuestionInput, existing []model.Question) []model.Question {
	maxID := 0
	for i := range existing {
		if existing[i].ID > maxID {
			maxID = existing[i].ID
		}
	}
	for i := range inputs {
		if inputs[i].ID > maxID {
			maxID = inputs[i].ID
		}
	}

	questions := make([]model.Question, len(inputs))
	for i, in := range inputs {
		id := in.ID
		if id == 0 {
			maxID++
			id = maxID
		}
		questions[i] = model.Question{
			ID:               id,
			Type:             model.QuestionType(in.Type),
			Question:         in.Question,
			Options:          in.Options,
			CorrectAnswer:    in.CorrectAnswer,
			Points:           in.Points,
			TimeLimitSeconds: in.TimeLimitSeconds,
			Order:            in.Order,
		}
	}
	return questions
}
