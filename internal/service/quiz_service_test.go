package service_test

import (
	"context"
	"testing"

	"github.com/acadio/acadio-backend/internal/config"
	"github.com/acadio/acadio-backend/internal/model"
	"github.com/acadio/acadio-backend/internal/service"
	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func newQuizFixture(t *testing.T) (*service.QuizService, *memQuizStore, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	quizzes := newMemQuizStore()
	return service.NewQuizService(quizzes, client, zerolog.Nop()), quizzes, mr
}

func multipleChoice(question string, correct int, options ...string) model.QuestionInput {
	opts := make([]model.Option, len(options))
	for i, o := range options {
		opts[i] = model.Option{Text: o}
	}
	return model.QuestionInput{
		Type:          string(model.QuestionTypeMultipleChoice),
		Question:      question,
		Options:       opts,
		CorrectAnswer: model.IndexKey(correct),
		Points:        5,
	}
}

func TestCreateQuizRecomputesTotalsAndWarmsCache(t *testing.T) {
	ctx := context.Background()
	svc, _, mr := newQuizFixture(t)

	quiz, err := svc.CreateQuiz(ctx, 1, &model.CreateQuizRequest{
		CourseID:         3,
		Title:            "Protocols",
		TimeLimitMinutes: 30,
		Attempts:         1,
		PassingScore:     70,
		Questions: []model.QuestionInput{
			multipleChoice("Pick TCP", 0, "TCP", "UDP"),
			multipleChoice("Pick UDP", 1, "TCP", "UDP"),
		},
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if quiz.TotalPoints != 10 {
		t.Fatalf("expected total points 10, got %d", quiz.TotalPoints)
	}
	if quiz.Questions[0].ID != 1 || quiz.Questions[1].ID != 2 {
		t.Fatalf("expected sequential question ids, got %d %d",
			quiz.Questions[0].ID, quiz.Questions[1].ID)
	}
	if !quiz.IsActive {
		t.Fatalf("new quizzes must start active")
	}
	if !mr.Exists(config.CacheKey.QuizPayloadKey(quiz.ID)) {
		t.Fatalf("expected payload cached on create")
	}
}

func TestUpdateQuizKeepsQuestionIDsStable(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newQuizFixture(t)

	quiz, err := svc.CreateQuiz(ctx, 1, &model.CreateQuizRequest{
		CourseID:         3,
		Title:            "Protocols",
		TimeLimitMinutes: 30,
		Attempts:         1,
		Questions: []model.QuestionInput{
			multipleChoice("Q1", 0, "a", "b"),
			multipleChoice("Q2", 0, "a", "b"),
		},
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	// Replace the bank: keep question 2, drop question 1, add a new one.
	kept := multipleChoice("Q2 reworded", 1, "a", "b")
	kept.ID = 2
	added := multipleChoice("Q3", 0, "a", "b")

	replaced := []model.QuestionInput{kept, added}
	updated, err := svc.UpdateQuiz(ctx, quiz.ID, &model.UpdateQuizRequest{Questions: &replaced})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}

	if updated.Questions[0].ID != 2 {
		t.Fatalf("expected kept question to retain id 2, got %d", updated.Questions[0].ID)
	}
	if updated.Questions[1].ID != 3 {
		t.Fatalf("expected new question to get id 3, got %d", updated.Questions[1].ID)
	}
	if updated.TotalPoints != 10 {
		t.Fatalf("expected totals recomputed, got %d", updated.TotalPoints)
	}
}

func TestUpdateQuizPartialFields(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newQuizFixture(t)

	quiz, _ := svc.CreateQuiz(ctx, 1, &model.CreateQuizRequest{
		CourseID:         3,
		Title:            "Before",
		TimeLimitMinutes: 30,
		Attempts:         2,
		Questions:        []model.QuestionInput{multipleChoice("Q1", 0, "a", "b")},
	})

	title := "After"
	inactive := false
	updated, err := svc.UpdateQuiz(ctx, quiz.ID, &model.UpdateQuizRequest{
		Title:    &title,
		IsActive: &inactive,
	})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}

	if updated.Title != "After" || updated.IsActive {
		t.Fatalf("expected provided fields applied, got %+v", updated)
	}
	if updated.Attempts != 2 || len(updated.Questions) != 1 {
		t.Fatalf("expected omitted fields untouched, got %+v", updated)
	}
}

func TestCanonicalPayloadReadThrough(t *testing.T) {
	ctx := context.Background()
	svc, quizzes, mr := newQuizFixture(t)

	quiz := &model.Quiz{
		CourseID: 3, Title: "Cached", IsActive: true, TimeLimitMinutes: 30,
		Questions: []model.Question{
			{ID: 1, Type: model.QuestionTypeMultipleChoice,
				Options:       []model.Option{{Text: "a"}, {Text: "b"}},
				CorrectAnswer: model.IndexKey(0), Points: 5},
		},
	}
	if err := quizzes.Create(ctx, quiz); err != nil {
		t.Fatalf("seed quiz: %v", err)
	}

	// Miss: rebuilt from the quiz and cached.
	payload, err := svc.CanonicalPayload(ctx, quiz)
	if err != nil {
		t.Fatalf("payload failed: %v", err)
	}
	if len(payload.Questions) != 1 || payload.Questions[0].ID != "1" {
		t.Fatalf("unexpected payload %+v", payload)
	}
	if !mr.Exists(config.CacheKey.QuizPayloadKey(quiz.ID)) {
		t.Fatalf("expected payload cached after miss")
	}

	// Hit: served from the cache.
	if _, err := svc.CanonicalPayload(ctx, quiz); err != nil {
		t.Fatalf("cached payload failed: %v", err)
	}

	// Corrupt document: rebuilt instead of failing.
	mr.Set(config.CacheKey.QuizPayloadKey(quiz.ID), "{not json")
	payload, err = svc.CanonicalPayload(ctx, quiz)
	if err != nil {
		t.Fatalf("corrupt payload not recovered: %v", err)
	}
	if len(payload.Questions) != 1 {
		t.Fatalf("expected rebuilt payload, got %+v", payload)
	}
}

func TestPrewarmAllCaches(t *testing.T) {
	ctx := context.Background()
	svc, quizzes, mr := newQuizFixture(t)

	active := &model.Quiz{CourseID: 3, Title: "Active", IsActive: true}
	dormant := &model.Quiz{CourseID: 3, Title: "Dormant", IsActive: false}
	quizzes.Create(ctx, active)
	quizzes.Create(ctx, dormant)

	if err := svc.PrewarmAllCaches(ctx); err != nil {
		t.Fatalf("prewarm failed: %v", err)
	}

	if !mr.Exists(config.CacheKey.QuizPayloadKey(active.ID)) {
		t.Fatalf("expected active quiz prewarmed")
	}
	if mr.Exists(config.CacheKey.QuizPayloadKey(dormant.ID)) {
		t.Fatalf("inactive quiz must not be prewarmed")
	}
}
