package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stemsi/quizroom-backend/internal/analytics"
	"github.com/stemsi/quizroom-backend/internal/middleware"
	"github.com/stemsi/quizroom-backend/internal/model"
	"github.com/stemsi/quizroom-backend/internal/response"
	"github.com/stemsi/quizroom-backend/internal/service"
	"github.com/stemsi/quizroom-backend/internal/validator"
)

const dateLayout = "2006-01-02"

// AnalyticsHandler serves the teacher dashboard and AI question analysis.
type AnalyticsHandler struct {
	analyticsService *service.AnalyticsService
	analysisService  *service.AnalysisService
}

// NewAnalyticsHandler creates a new AnalyticsHandler.
func NewAnalyticsHandler(analyticsService *service.AnalyticsService, analysisService *service.AnalysisService) *AnalyticsHandler {
	return &AnalyticsHandler{
		analyticsService: analyticsService,
		analysisService:  analysisService,
	}
}

// ListQuizzes godoc
// GET /api/v1/teacher/analytics/quizzes
func (h *AnalyticsHandler) ListQuizzes(c *gin.Context) {
	quizzes, err := h.analyticsService.Quizzes(c.Request.Context(), middleware.GetClaims(c).UserID)
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"quizzes": quizzes})
}

// Overall godoc
// GET /api/v1/teacher/analytics/overall?quiz_id=&start_date=&end_date=
// Without quiz_id the statistics span every quiz of the teacher.
func (h *AnalyticsHandler) Overall(c *gin.Context) {
	var quizID *uuid.UUID
	if raw := c.Query("quiz_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
			return
		}
		quizID = &id
	}

	from, ok1 := queryTime(c, "start_date", false)
	to, ok2 := queryTime(c, "end_date", true)
	if !ok1 || !ok2 || (from != nil && to != nil && to.Before(*from)) {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidQuery)
		return
	}

	stats, err := h.analyticsService.Overall(c.Request.Context(), middleware.GetClaims(c).UserID, quizID, from, to)
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, stats)
}

// Questions godoc
// GET /api/v1/teacher/analytics/quizzes/:id/questions?sort_by=&order=
func (h *AnalyticsHandler) Questions(c *gin.Context) {
	quizID, ok := pathID(c, "id")
	if !ok {
		return
	}

	sort, err := analytics.ParseQuestionSort(c.Query("sort_by"), c.Query("order"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidQuery)
		return
	}

	stats, err := h.analyticsService.Questions(c.Request.Context(), middleware.GetClaims(c).UserID, quizID, sort)
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"questions": stats})
}

// Students godoc
// GET /api/v1/teacher/analytics/quizzes/:id/students?sort_by=&order=&min_score=&max_score=
func (h *AnalyticsHandler) Students(c *gin.Context) {
	quizID, ok := pathID(c, "id")
	if !ok {
		return
	}

	query, err := analytics.ParseStudentSort(c.Query("sort_by"), c.Query("order"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidQuery)
		return
	}
	var ok1, ok2 bool
	query.MinScore, ok1 = queryFloat(c, "min_score")
	query.MaxScore, ok2 = queryFloat(c, "max_score")
	if !ok1 || !ok2 {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidQuery)
		return
	}

	students, err := h.analyticsService.Students(c.Request.Context(), middleware.GetClaims(c).UserID, quizID, query)
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"students": students})
}

// ListAnalyses godoc
// GET /api/v1/teacher/analytics/quizzes/:id/analyses
// Returns every stored analysis of the quiz without calling the AI service.
func (h *AnalyticsHandler) ListAnalyses(c *gin.Context) {
	quizID, ok := pathID(c, "id")
	if !ok {
		return
	}

	analyses, err := h.analysisService.ListByQuiz(c.Request.Context(), middleware.GetClaims(c).UserID, quizID)
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"analyses": analyses})
}

// AnalyzeQuestion godoc
// POST /api/v1/teacher/questions/:id/analyze
// Returns the stored analysis or generates one. Upstream failures answer 502.
func (h *AnalyticsHandler) AnalyzeQuestion(c *gin.Context) {
	questionID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req model.AnalyzeQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	result, err := h.analysisService.Analyze(c.Request.Context(), middleware.GetClaims(c).UserID, questionID, req.QuizID)
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// ClearAnalysis godoc
// DELETE /api/v1/teacher/questions/:id/analysis?quiz_id=
func (h *AnalyticsHandler) ClearAnalysis(c *gin.Context) {
	questionID, ok := pathID(c, "id")
	if !ok {
		return
	}
	quizID, err := uuid.Parse(c.Query("quiz_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.analysisService.Clear(c.Request.Context(), middleware.GetClaims(c).UserID, questionID, quizID); err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

// queryTime parses an RFC 3339 timestamp or a plain date. A plain end date
// covers that whole day.
func queryTime(c *gin.Context, name string, endOfDay bool) (*time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, true
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, false
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, true
}

func queryFloat(c *gin.Context, name string) (*float64, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f < 0 || f > 100 {
		return nil, false
	}
	return &f, true
}
