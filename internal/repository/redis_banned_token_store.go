package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const bannedTokenKeyPrefix = "banned_token:"

// RedisBannedTokenStore implements domain.BannedTokenStore using Redis.
type RedisBannedTokenStore struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewRedisBannedTokenStore creates a new store. ttl should match the session token lifetime.
func NewRedisBannedTokenStore(client redis.Cmdable, ttl time.Duration) *RedisBannedTokenStore {
	return &RedisBannedTokenStore{client: client, ttl: ttl}
}

// AddToken marks a token as revoked for the lifetime of the token.
// The key pattern is "banned_token:<token>".
func (r *RedisBannedTokenStore) AddToken(ctx context.Context, token string) error {
	err := r.client.Set(ctx, bannedTokenKey(token), true, r.ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to store banned token in redis: %w", err)
	}

	return nil
}

// IsBanned reports whether the token is on the deny-list.
func (r *RedisBannedTokenStore) IsBanned(ctx context.Context, token string) (bool, error) {
	n, err := r.client.Exists(ctx, bannedTokenKey(token)).Result()
	if err != nil {
		return false, fmt.Errorf("redis error: %w", err)
	}

	return n > 0, nil
}

// RemoveToken takes a token off the deny-list.
func (r *RedisBannedTokenStore) RemoveToken(ctx context.Context, token string) error {
	if err := r.client.Del(ctx, bannedTokenKey(token)).Err(); err != nil {
		return fmt.Errorf("redis error: %w", err)
	}

	return nil
}

func bannedTokenKey(token string) string {
	return bannedTokenKeyPrefix + token
}
