package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stemsi/quizroom-backend/internal/model"
	"github.com/stemsi/quizroom-backend/internal/response"
	"github.com/stemsi/quizroom-backend/internal/service"
)

type errorMapping struct {
	err    error
	status int
	code   response.ErrCode
}

var serviceErrors = []errorMapping{
	{service.ErrInvalidCredentials, http.StatusUnauthorized, response.ErrInvalidCredentials},
	{service.ErrTokenExpired, http.StatusUnauthorized, response.ErrTokenExpired},
	{service.ErrTokenInvalid, http.StatusUnauthorized, response.ErrTokenInvalid},
	{service.ErrSessionInvalidated, http.StatusUnauthorized, response.ErrSessionInvalidated},

	{service.ErrUserNotFound, http.StatusNotFound, response.ErrUserNotFound},
	{service.ErrQuestionNotFound, http.StatusNotFound, response.ErrQuestionNotFound},
	{service.ErrQuizNotFound, http.StatusNotFound, response.ErrQuizNotFound},
	{service.ErrSubmissionNotFound, http.StatusNotFound, response.ErrSubmissionNotFound},
	{service.ErrAnalysisNotFound, http.StatusNotFound, response.ErrNotFound},

	{service.ErrUsernameTaken, http.StatusConflict, response.ErrUsernameTaken},
	{service.ErrEmailTaken, http.StatusConflict, response.ErrEmailTaken},
	{service.ErrQuestionInUse, http.StatusConflict, response.ErrQuestionInUse},
	{service.ErrQuizHasNoQuestions, http.StatusConflict, response.ErrQuizHasNoQuestions},
	{service.ErrQuizAlreadyCompleted, http.StatusBadRequest, response.ErrQuizAlreadyCompleted},
	{service.ErrQuizAlreadySubmitted, http.StatusBadRequest, response.ErrQuizAlreadySubmitted},

	{service.ErrInvalidAnswerSet, http.StatusBadRequest, response.ErrInvalidAnswerSet},
	{service.ErrInvalidStartTime, http.StatusBadRequest, response.ErrInvalidStartTime},
	{service.ErrUnknownQuestions, http.StatusBadRequest, response.ErrUnknownQuestions},

	{service.ErrAnalysisUnavailable, http.StatusBadGateway, response.ErrAnalysisUnavailable},
}

// fail writes the response for a service error. Unrecognized errors become
// INTERNAL_ERROR and are attached to the context for the request logger.
func fail(c *gin.Context, err error) {
	var fields model.FieldErrors
	if errors.As(err, &fields) {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	for _, m := range serviceErrors {
		if errors.Is(err, m.err) {
			response.Fail(c, m.status, m.code)
			return
		}
	}

	_ = c.Error(err)
	response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
}

// pathID parses a UUID route parameter, answering INVALID_ID when malformed.
func pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return uuid.Nil, false
	}
	return id, true
}
