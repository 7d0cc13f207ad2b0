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

// QuizAdminHandler handles quiz administration endpoints.
type QuizAdminHandler struct {
	quizService *service.QuizService
	results     service.ResultStore
}

// NewQuizAdminHandler creates a new QuizAdminHandler.
func NewQuizAdminHandler(quizService *service.QuizService, results service.ResultStore) *QuizAdminHandler {
	return &QuizAdminHandler{quizService: quizService, results: results}
}

// Create godoc
// POST /api/v1/admin/quizzes
func (h *QuizAdminHandler) Create(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.CreateQuizRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	quiz, err := h.quizService.CreateQuiz(c.Request.Context(), claims.UserID, &req)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, quiz)
}

// Update godoc
// PUT /api/v1/admin/quizzes/:quiz_id
func (h *QuizAdminHandler) Update(c *gin.Context) {
	quizID, err := strconv.Atoi(c.Param("quiz_id"))
	if err != nil || quizID < 1 {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.UpdateQuizRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	quiz, err := h.quizService.UpdateQuiz(c.Request.Context(), quizID, &req)
	if err != nil {
		if errors.Is(err, service.ErrQuizNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, quiz)
}

// Get godoc
// GET /api/v1/admin/quizzes/:quiz_id
// Returns the full quiz including the answer key. Admin only.
func (h *QuizAdminHandler) Get(c *gin.Context) {
	quizID, err := strconv.Atoi(c.Param("quiz_id"))
	if err != nil || quizID < 1 {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	quiz, err := h.quizService.GetQuiz(c.Request.Context(), quizID)
	if err != nil {
		if errors.Is(err, service.ErrQuizNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, quiz)
}

// ListResults godoc
// GET /api/v1/admin/quizzes/:quiz_id/results?page=1&per_page=20
// Returns all students' results for one quiz, paginated.
func (h *QuizAdminHandler) ListResults(c *gin.Context) {
	quizID, err := strconv.Atoi(c.Param("quiz_id"))
	if err != nil || quizID < 1 {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "20"))
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 20
	}
	if perPage > 100 {
		perPage = 100
	}

	results, total, err := h.results.ListByQuiz(c.Request.Context(), quizID, page, perPage)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	if results == nil {
		results = []model.QuizResult{}
	}

	totalPages := (int(total) + perPage - 1) / perPage
	response.SuccessWithPagination(c, http.StatusOK, gin.H{"results": results}, &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: int(total),
		TotalPages: totalPages,
	})
}
