package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/quizroom-backend/internal/middleware"
	"github.com/stemsi/quizroom-backend/internal/model"
	"github.com/stemsi/quizroom-backend/internal/response"
	"github.com/stemsi/quizroom-backend/internal/service"
	"github.com/stemsi/quizroom-backend/internal/validator"
)

// StudentQuizHandler serves the student's side of taking a quiz.
type StudentQuizHandler struct {
	submissionService *service.SubmissionService
}

// NewStudentQuizHandler creates a new StudentQuizHandler.
func NewStudentQuizHandler(submissionService *service.SubmissionService) *StudentQuizHandler {
	return &StudentQuizHandler{submissionService: submissionService}
}

// ListAvailable godoc
// GET /api/v1/student/quizzes
// Lists active quizzes the student has not completed yet.
func (h *StudentQuizHandler) ListAvailable(c *gin.Context) {
	quizzes, err := h.submissionService.ListAvailable(c.Request.Context(), middleware.GetClaims(c).UserID)
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"quizzes": quizzes})
}

// StartQuiz godoc
// POST /api/v1/student/quizzes/:id/start
// Returns the questions without answers and a server-stamped start time.
func (h *StudentQuizHandler) StartQuiz(c *gin.Context) {
	quizID, ok := pathID(c, "id")
	if !ok {
		return
	}

	started, err := h.submissionService.Start(c.Request.Context(), middleware.GetClaims(c).UserID, quizID)
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, started)
}

// SubmitQuiz godoc
// POST /api/v1/student/quizzes/:id/submit
// Grades and stores the attempt. A second submit is rejected.
func (h *StudentQuizHandler) SubmitQuiz(c *gin.Context) {
	quizID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req model.SubmitQuizRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	result, err := h.submissionService.Submit(c.Request.Context(), middleware.GetClaims(c).UserID, quizID, req)
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusCreated, result)
}

// GetResult godoc
// GET /api/v1/student/quizzes/:id/result
func (h *StudentQuizHandler) GetResult(c *gin.Context) {
	quizID, ok := pathID(c, "id")
	if !ok {
		return
	}

	result, err := h.submissionService.Result(c.Request.Context(), middleware.GetClaims(c).UserID, quizID)
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}
