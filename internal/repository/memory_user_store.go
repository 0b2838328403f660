package repository

import (
	"context"
	"sync"

	"github.com/FilipeAphrody/sentinel-authcore/internal/domain"
)

// MemoryUserStore implements domain.UserStore with a process-local map.
// Passwords are kept as validated values, so it is meant for tests and dev mode.
type MemoryUserStore struct {
	mu    sync.RWMutex
	users map[domain.Email]domain.User
}

// NewMemoryUserStore creates an empty store.
func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{users: make(map[domain.Email]domain.User)}
}

// AddUser stores the user unless the email is already taken.
func (s *MemoryUserStore) AddUser(_ context.Context, user domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[user.Email]; exists {
		return domain.ErrUserAlreadyExists
	}
	s.users[user.Email] = user

	return nil
}

// GetUser returns a copy of the stored user.
func (s *MemoryUserStore) GetUser(_ context.Context, email domain.Email) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[email]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}

	return user, nil
}

// ValidateCredentials compares the supplied password with the stored one.
func (s *MemoryUserStore) ValidateCredentials(_ context.Context, email domain.Email, password domain.Password) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[email]
	if !ok {
		return domain.ErrUserNotFound
	}
	if !user.Password.Equal(password) {
		return domain.ErrInvalidCredentials
	}

	return nil
}
