package service

import "errors"

// Domain errors returned by services and mapped to response codes by handlers.
var (
	// Auth
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token expired")
	ErrSessionInvalidated = errors.New("session invalidated")

	// Users
	ErrUserNotFound  = errors.New("user not found")
	ErrUsernameTaken = errors.New("username already taken")
	ErrEmailTaken    = errors.New("email already registered")

	// Questions and quizzes
	ErrQuestionNotFound   = errors.New("question not found")
	ErrQuizNotFound       = errors.New("quiz not found")
	ErrUnknownQuestions   = errors.New("quiz references unknown or foreign questions")
	ErrQuestionInUse      = errors.New("question is the last question of a quiz")
	ErrQuizHasNoQuestions = errors.New("quiz has no questions")

	// Submissions
	ErrSubmissionNotFound   = errors.New("submission not found")
	ErrQuizAlreadyCompleted = errors.New("quiz already completed")
	ErrQuizAlreadySubmitted = errors.New("quiz already submitted")
	ErrInvalidAnswerSet     = errors.New("answers must cover every quiz question exactly once")
	ErrInvalidStartTime     = errors.New("start time is after submit time")

	// AI analysis
	ErrAnalysisUnavailable = errors.New("analysis service unavailable")
)

// ErrAnalysisNotFound is returned when clearing an analysis that does not exist.
var ErrAnalysisNotFound = errors.New("analysis not found")
