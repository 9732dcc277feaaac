package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stemsi/quizroom-backend/internal/config"
	"github.com/stemsi/quizroom-backend/internal/model"
)

// LiveFeed fans submission events out over Redis Pub/Sub, one channel per quiz.
type LiveFeed struct {
	rdb *redis.Client
}

// NewLiveFeed creates a new LiveFeed.
func NewLiveFeed(rdb *redis.Client) *LiveFeed {
	return &LiveFeed{rdb: rdb}
}

// PublishSubmission implements SubmissionPublisher.
func (f *LiveFeed) PublishSubmission(ctx context.Context, ev model.SubmissionEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal submission event: %w", err)
	}
	channel := config.CacheKey.QuizSubmissionChannel(ev.QuizID.String())
	return f.rdb.Publish(ctx, channel, payload).Err()
}

// Subscribe opens a subscription to the submission events of quizID.
// The caller must Close the returned PubSub.
func (f *LiveFeed) Subscribe(ctx context.Context, quizID uuid.UUID) (*redis.PubSub, error) {
	pubsub := f.rdb.Subscribe(ctx, config.CacheKey.QuizSubmissionChannel(quizID.String()))
	// Wait for confirmation so no event published after this call is missed.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe: %w", err)
	}
	return pubsub, nil
}
