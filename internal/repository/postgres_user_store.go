package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/FilipeAphrody/sentinel-authcore/internal/domain"
	"github.com/FilipeAphrody/sentinel-authcore/pkg/security"
)

const pgUniqueViolation = "23505"

// PostgresUserStore implements domain.UserStore using PostgreSQL.
// Passwords are stored as argon2id hashes.
type PostgresUserStore struct {
	db     *sql.DB
	hasher *security.Hasher
}

// NewPostgresUserStore creates a new store instance.
func NewPostgresUserStore(db *sql.DB, hasher *security.Hasher) *PostgresUserStore {
	return &PostgresUserStore{db: db, hasher: hasher}
}

// AddUser hashes the password and inserts the user.
// The primary key on email makes the duplicate check atomic.
func (s *PostgresUserStore) AddUser(ctx context.Context, user domain.User) error {
	hash, err := s.hasher.Hash(ctx, user.Password.Secret())
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	query := `
		INSERT INTO users (email, password_hash, requires_2fa)
		VALUES ($1, $2, $3)
	`

	_, err = s.db.ExecContext(ctx, query, user.Email.String(), hash, user.Requires2FA)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation {
			return domain.ErrUserAlreadyExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetUser retrieves a user by email. The password comes back in its hashed form.
func (s *PostgresUserStore) GetUser(ctx context.Context, email domain.Email) (domain.User, error) {
	passwordHash, requires2FA, err := s.lookup(ctx, email)
	if err != nil {
		return domain.User{}, err
	}

	return domain.RestoreUser(email, domain.PasswordFromHash(passwordHash), requires2FA), nil
}

// ValidateCredentials verifies the password against the stored hash.
// A missing user still pays for one verification.
func (s *PostgresUserStore) ValidateCredentials(ctx context.Context, email domain.Email, password domain.Password) error {
	passwordHash, _, err := s.lookup(ctx, email)
	if errors.Is(err, domain.ErrUserNotFound) {
		if dummyErr := s.hasher.CompareDummy(ctx, password.Secret()); dummyErr != nil {
			return fmt.Errorf("failed to verify password: %w", dummyErr)
		}
		return err
	}
	if err != nil {
		return err
	}

	match, err := s.hasher.Compare(ctx, password.Secret(), passwordHash)
	if err != nil {
		return fmt.Errorf("failed to verify password: %w", err)
	}
	if !match {
		return domain.ErrInvalidCredentials
	}

	return nil
}

func (s *PostgresUserStore) lookup(ctx context.Context, email domain.Email) (string, bool, error) {
	query := `
		SELECT password_hash, requires_2fa
		FROM users
		WHERE email = $1
	`

	var passwordHash string
	var requires2FA bool
	err := s.db.QueryRowContext(ctx, query, email.String()).Scan(&passwordHash, &requires2FA)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, domain.ErrUserNotFound
		}
		return "", false, fmt.Errorf("database error: %w", err)
	}

	return passwordHash, requires2FA, nil
}
