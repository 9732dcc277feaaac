package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stemsi/quizroom-backend/internal/config"
)

// RedisSessionStore keeps live refresh-token ids in Redis. Each jti maps to
// its user, and a per-user set allows revoking every session at once.
type RedisSessionStore struct {
	rdb *redis.Client
}

// NewRedisSessionStore creates a RedisSessionStore.
func NewRedisSessionStore(rdb *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{rdb: rdb}
}

// Save registers a refresh token id for userID until ttl elapses.
func (s *RedisSessionStore) Save(ctx context.Context, userID uuid.UUID, jti string, ttl time.Duration) error {
	setKey := config.CacheKey.UserRefreshSetKey(userID.String())

	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, config.CacheKey.RefreshSessionKey(jti), userID.String(), ttl)
	pipe.SAdd(ctx, setKey, jti)
	pipe.Expire(ctx, setKey, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save refresh session: %w", err)
	}
	return nil
}

// Exists reports whether jti is a live refresh token of userID.
func (s *RedisSessionStore) Exists(ctx context.Context, userID uuid.UUID, jti string) (bool, error) {
	owner, err := s.rdb.Get(ctx, config.CacheKey.RefreshSessionKey(jti)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check refresh session: %w", err)
	}
	return owner == userID.String(), nil
}

// Revoke removes one refresh token id.
func (s *RedisSessionStore) Revoke(ctx context.Context, userID uuid.UUID, jti string) error {
	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, config.CacheKey.RefreshSessionKey(jti))
	pipe.SRem(ctx, config.CacheKey.UserRefreshSetKey(userID.String()), jti)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("revoke refresh session: %w", err)
	}
	return nil
}

// RevokeAll removes every refresh token id of userID.
func (s *RedisSessionStore) RevokeAll(ctx context.Context, userID uuid.UUID) error {
	setKey := config.CacheKey.UserRefreshSetKey(userID.String())
	jtis, err := s.rdb.SMembers(ctx, setKey).Result()
	if err != nil {
		return fmt.Errorf("list refresh sessions: %w", err)
	}

	keys := make([]string, 0, len(jtis)+1)
	for _, jti := range jtis {
		keys = append(keys, config.CacheKey.RefreshSessionKey(jti))
	}
	keys = append(keys, setKey)
	return s.rdb.Del(ctx, keys...).Err()
}

// MarkRevoked records that every token of userID issued before at is void.
// The marker only has to outlive the longest access token, hence ttl.
func (s *RedisSessionStore) MarkRevoked(ctx context.Context, userID uuid.UUID, at time.Time, ttl time.Duration) error {
	key := config.CacheKey.UserRevokedKey(userID.String())
	if err := s.rdb.Set(ctx, key, strconv.FormatInt(at.Unix(), 10), ttl).Err(); err != nil {
		return fmt.Errorf("mark sessions revoked: %w", err)
	}
	return nil
}

// RevokedAt returns when the sessions of userID were last revoked, if ever.
func (s *RedisSessionStore) RevokedAt(ctx context.Context, userID uuid.UUID) (time.Time, bool, error) {
	unix, err := s.rdb.Get(ctx, config.CacheKey.UserRevokedKey(userID.String())).Int64()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("get revocation marker: %w", err)
	}
	return time.Unix(unix, 0), true, nil
}
