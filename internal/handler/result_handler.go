package handler

import (
	"net/http"
	"strconv"

	"github.com/acadio/acadio-backend/internal/middleware"
	"github.com/acadio/acadio-backend/internal/model"
	"github.com/acadio/acadio-backend/internal/response"
	"github.com/acadio/acadio-backend/internal/service"
	"github.com/gin-gonic/gin"
)

// ResultHandler handles student-facing result history endpoints.
type ResultHandler struct {
	results service.ResultStore
}

// NewResultHandler creates a new ResultHandler.
func NewResultHandler(results service.ResultStore) *ResultHandler {
	return &ResultHandler{results: results}
}

// ListByQuiz godoc
// GET /api/v1/student/quizzes/:quiz_id/results
// Returns the caller's attempts at one quiz, most recent first.
func (h *ResultHandler) ListByQuiz(c *gin.Context) {
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

	results, err := h.results.ListByStudentAndQuiz(c.Request.Context(), claims.UserID, quizID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	if results == nil {
		results = []model.QuizResult{}
	}

	response.Success(c, http.StatusOK, gin.H{"results": results})
}

// ListAll godoc
// GET /api/v1/student/results
// Returns all of the caller's results across quizzes, most recent first.
func (h *ResultHandler) ListAll(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	results, err := h.results.ListByStudent(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	if results == nil {
		results = []model.QuizResult{}
	}

	response.Success(c, http.StatusOK, gin.H{"results": results})
}
