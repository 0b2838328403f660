package repository

import (
	"context"
	"sync"
	"time"

	"github.com/FilipeAphrody/sentinel-authcore/internal/domain"
)

// MemoryBannedTokenStore implements domain.BannedTokenStore as an in-process set.
// Entries never expire.
type MemoryBannedTokenStore struct {
	mu     sync.RWMutex
	tokens map[string]struct{}
}

func NewMemoryBannedTokenStore() *MemoryBannedTokenStore {
	return &MemoryBannedTokenStore{tokens: make(map[string]struct{})}
}

func (s *MemoryBannedTokenStore) AddToken(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tokens[token] = struct{}{}
	return nil
}

func (s *MemoryBannedTokenStore) IsBanned(_ context.Context, token string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.tokens[token]
	return ok, nil
}

func (s *MemoryBannedTokenStore) RemoveToken(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.tokens, token)
	return nil
}

// DefaultTwoFACodeTTL is how long a pending challenge stays valid.
const DefaultTwoFACodeTTL = 10 * time.Minute

type twoFAEntry struct {
	code      domain.TwoFACode
	attemptID domain.LoginAttemptID
	expiresAt time.Time
}

// MemoryTwoFACodeStore implements domain.TwoFACodeStore with a map.
// Expired entries are treated as absent and dropped on the next write.
type MemoryTwoFACodeStore struct {
	mu      sync.RWMutex
	entries map[domain.Email]twoFAEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryTwoFACodeStore creates a store whose entries live for ttl.
// A non-positive ttl falls back to DefaultTwoFACodeTTL.
func NewMemoryTwoFACodeStore(ttl time.Duration) *MemoryTwoFACodeStore {
	if ttl <= 0 {
		ttl = DefaultTwoFACodeTTL
	}
	return &MemoryTwoFACodeStore{
		entries: make(map[domain.Email]twoFAEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// AddCode replaces any pending challenge for the email.
func (s *MemoryTwoFACodeStore) AddCode(_ context.Context, email domain.Email, code domain.TwoFACode, attemptID domain.LoginAttemptID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for key, entry := range s.entries {
		if !now.Before(entry.expiresAt) {
			delete(s.entries, key)
		}
	}

	s.entries[email] = twoFAEntry{code: code, attemptID: attemptID, expiresAt: now.Add(s.ttl)}
	return nil
}

func (s *MemoryTwoFACodeStore) GetCode(_ context.Context, email domain.Email) (domain.TwoFACode, domain.LoginAttemptID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[email]
	if !ok || !s.now().Before(entry.expiresAt) {
		return domain.TwoFACode{}, domain.LoginAttemptID{}, domain.ErrLoginAttemptNotFound
	}

	return entry.code, entry.attemptID, nil
}

// RemoveCode deletes the challenge. An expired entry is dropped but does not count as removed.
func (s *MemoryTwoFACodeStore) RemoveCode(_ context.Context, email domain.Email) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[email]
	if !ok {
		return false, nil
	}
	delete(s.entries, email)

	return s.now().Before(entry.expiresAt), nil
}
