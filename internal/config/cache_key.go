package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// RefreshSessionKey returns the Redis key that marks a refresh token (by jti) as live.
func (r *CacheKeyStruct) RefreshSessionKey(jti string) string {
	return fmt.Sprintf("auth:refresh:%s", jti)
}

// UserRefreshSetKey returns the Redis set holding every live refresh jti of a user.
func (r *CacheKeyStruct) UserRefreshSetKey(userID string) string {
	return fmt.Sprintf("auth:user:%s:refresh", userID)
}

// UserRevokedKey returns the key holding when every session of a user was last revoked.
func (r *CacheKeyStruct) UserRevokedKey(userID string) string {
	return fmt.Sprintf("auth:user:%s:revoked_at", userID)
}

// AnalysisLockKey returns the lock key guarding a single AI analysis call per question-in-quiz.
func (r *CacheKeyStruct) AnalysisLockKey(questionID, quizID string) string {
	return fmt.Sprintf("analysis:%s:quiz:%s:lock", questionID, quizID)
}

// QuizSubmissionChannel returns the Redis PubSub channel that carries live submission events of a quiz.
func (r *CacheKeyStruct) QuizSubmissionChannel(quizID string) string {
	return fmt.Sprintf("quiz:%s:submissions", quizID)
}

var CacheKey = NewCacheKeyStruct()
