package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/acadio/acadio-backend/internal/middleware"
	"github.com/acadio/acadio-backend/internal/model"
	"github.com/acadio/acadio-backend/internal/response"
	"github.com/acadio/acadio-backend/internal/service"
	"github.com/acadio/acadio-backend/internal/validator"
	"github.com/gin-gonic/gin"
)

// QuizSessionHandler handles student-facing quiz session endpoints.
type QuizSessionHandler struct {
	sessionService *service.SessionService
}

// NewQuizSessionHandler creates a new QuizSessionHandler.
func NewQuizSessionHandler(sessionService *service.SessionService) *QuizSessionHandler {
	return &QuizSessionHandler{sessionService: sessionService}
}

// StartOrResume godoc
// POST /api/v1/student/quizzes/:quiz_id/session/start
// Returns the caller's active session for the quiz, creating one if none
// exists and eligibility allows.
func (h *QuizSessionHandler) StartOrResume(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	quizID, err := strconv.Atoi(c.Param("quiz_id"))
	if err != nil || quizID < 1 {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	result, err := h.sessionService.StartOrResume(c.Request.Context(), claims.UserID, quizID)
	if err != nil {
		failSessionError(c, err)
		return
	}

	status := http.StatusCreated
	if result.Resumed {
		status = http.StatusOK
	}
	response.Success(c, status, result)
}

// UpdateProgress godoc
// PUT /api/v1/student/quizzes/:quiz_id/session/update
// Saves answers, locked questions, and position. Returns remaining seconds.
func (h *QuizSessionHandler) UpdateProgress(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	quizID, err := strconv.Atoi(c.Param("quiz_id"))
	if err != nil || quizID < 1 {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.UpdateProgressRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	remaining, err := h.sessionService.UpdateProgress(c.Request.Context(), claims.UserID, quizID, &req)
	if err != nil {
		failSessionError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"time_remaining": remaining})
}

// Complete godoc
// POST /api/v1/student/quizzes/:quiz_id/session/complete
// Submits the session for grading and returns the result summary.
func (h *QuizSessionHandler) Complete(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	quizID, err := strconv.Atoi(c.Param("quiz_id"))
	if err != nil || quizID < 1 {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.CompleteSessionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	summary, err := h.sessionService.Complete(c.Request.Context(), claims.UserID, quizID, &req)
	if err != nil {
		failSessionError(c, err)
		return
	}

	response.Success(c, http.StatusOK, summary)
}

// failSessionError maps session engine errors to HTTP error responses.
func failSessionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrQuizNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrQuizNotAvailable)
	case errors.Is(err, service.ErrNotEnrolled):
		response.Fail(c, http.StatusForbidden, response.ErrNotEnrolled)
	case errors.Is(err, service.ErrSessionNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrSessionNotFound)
	case errors.Is(err, service.ErrSessionExpired):
		response.Fail(c, http.StatusGone, response.ErrSessionExpired)
	default:
		if ie, ok := service.AsIneligible(err); ok {
			failIneligible(c, ie)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}

func failIneligible(c *gin.Context, ie *service.IneligibleError) {
	switch ie.Reason {
	case service.ReasonAlreadyPassed:
		response.FailWithDetail(c, http.StatusForbidden, response.ErrAlreadyPassed, ie.Message, nil)
	case service.ReasonCooldown:
		response.FailWithDetail(c, http.StatusForbidden, response.ErrRetakeCooldown, ie.Message, gin.H{
			"retake_available_at": ie.RetakeAvailableAt,
			"cooldown_hours":      ie.CooldownHours,
			"remaining_hours":     ie.RemainingHours,
		})
	default:
		response.FailWithDetail(c, http.StatusForbidden, response.ErrAttemptLimitReached, ie.Message, nil)
	}
}
