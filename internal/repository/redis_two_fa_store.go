package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/FilipeAphrody/sentinel-authcore/internal/domain"
)

const twoFACodeKeyPrefix = "two_fa_code:"

// RedisTwoFACodeStore implements domain.TwoFACodeStore using Redis.
// Each record is a JSON pair ["<code>", "<login attempt id>"] under "two_fa_code:<email>".
type RedisTwoFACodeStore struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewRedisTwoFACodeStore creates a new store. A non-positive ttl falls back to DefaultTwoFACodeTTL.
func NewRedisTwoFACodeStore(client redis.Cmdable, ttl time.Duration) *RedisTwoFACodeStore {
	if ttl <= 0 {
		ttl = DefaultTwoFACodeTTL
	}
	return &RedisTwoFACodeStore{client: client, ttl: ttl}
}

// AddCode overwrites any pending challenge and resets its TTL.
func (r *RedisTwoFACodeStore) AddCode(ctx context.Context, email domain.Email, code domain.TwoFACode, attemptID domain.LoginAttemptID) error {
	payload, err := json.Marshal([2]string{code.String(), attemptID.String()})
	if err != nil {
		return fmt.Errorf("failed to encode 2fa record: %w", err)
	}

	if err := r.client.Set(ctx, twoFACodeKey(email), payload, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store 2fa code in redis: %w", err)
	}

	return nil
}

// GetCode returns the pending challenge, or domain.ErrLoginAttemptNotFound.
func (r *RedisTwoFACodeStore) GetCode(ctx context.Context, email domain.Email) (domain.TwoFACode, domain.LoginAttemptID, error) {
	raw, err := r.client.Get(ctx, twoFACodeKey(email)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.TwoFACode{}, domain.LoginAttemptID{}, domain.ErrLoginAttemptNotFound
		}
		return domain.TwoFACode{}, domain.LoginAttemptID{}, fmt.Errorf("redis error: %w", err)
	}

	var record [2]string
	if err := json.Unmarshal(raw, &record); err != nil {
		return domain.TwoFACode{}, domain.LoginAttemptID{}, fmt.Errorf("corrupt 2fa record: %w", err)
	}

	code, err := domain.ParseTwoFACode(record[0])
	if err != nil {
		return domain.TwoFACode{}, domain.LoginAttemptID{}, fmt.Errorf("corrupt 2fa record: %w", err)
	}
	attemptID, err := domain.ParseLoginAttemptID(record[1])
	if err != nil {
		return domain.TwoFACode{}, domain.LoginAttemptID{}, fmt.Errorf("corrupt 2fa record: %w", err)
	}

	return code, attemptID, nil
}

// RemoveCode deletes the challenge. DEL is atomic, so only one caller gets a count of 1.
func (r *RedisTwoFACodeStore) RemoveCode(ctx context.Context, email domain.Email) (bool, error) {
	deleted, err := r.client.Del(ctx, twoFACodeKey(email)).Result()
	if err != nil {
		return false, fmt.Errorf("redis error: %w", err)
	}

	return deleted > 0, nil
}

func twoFACodeKey(email domain.Email) string {
	return twoFACodeKeyPrefix + email.String()
}
