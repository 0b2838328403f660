package domain

import (
	"context"
	"crypto/subtle"
	"fmt"
	"regexp"
	"strings"
)

const (
	minPasswordLength = 8
	redacted          = "[REDACTED]"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// Email is a validated account identifier. The zero value is not a valid email.
type Email struct {
	value string
}

// ParseEmail trims surrounding whitespace and checks the local@domain.tld shape.
func ParseEmail(raw string) (Email, error) {
	normalized := strings.TrimSpace(raw)
	if !emailPattern.MatchString(normalized) {
		return Email{}, fmt.Errorf("%w: %q", ErrInvalidEmail, raw)
	}
	return Email{value: normalized}, nil
}

func (e Email) String() string {
	return e.value
}

// Password wraps a secret. It is either policy-checked (built from user input)
// or opaque (an already-hashed value loaded from storage).
type Password struct {
	secret string
	hashed bool
}

// ParsePassword enforces the password policy: at least 8 characters and one digit.
func ParsePassword(secret string) (Password, error) {
	if len(secret) < minPasswordLength {
		return Password{}, fmt.Errorf("%w: must be at least %d characters", ErrInvalidPassword, minPasswordLength)
	}
	if !strings.ContainsAny(secret, "0123456789") {
		return Password{}, fmt.Errorf("%w: must contain a digit", ErrInvalidPassword)
	}
	return Password{secret: secret}, nil
}

// PasswordFromHash rehydrates a stored hash. Never call it with user input.
func PasswordFromHash(hash string) Password {
	return Password{secret: hash, hashed: true}
}

// Secret returns the underlying value for hashing code. Do not log it.
func (p Password) Secret() string {
	return p.secret
}

// IsHashed reports whether the password came from storage.
func (p Password) IsHashed() bool {
	return p.hashed
}

// Equal compares two secrets in constant time.
func (p Password) Equal(other Password) bool {
	return subtle.ConstantTimeCompare([]byte(p.secret), []byte(other.secret)) == 1
}

func (p Password) String() string {
	return redacted
}

func (p Password) GoString() string {
	return redacted
}

// MarshalJSON keeps the secret out of serialized payloads and logs.
func (p Password) MarshalJSON() ([]byte, error) {
	return []byte(`"` + redacted + `"`), nil
}

// User represents the central identity entity of the system.
type User struct {
	Email       Email    `json:"email"`
	Password    Password `json:"-"`
	Requires2FA bool     `json:"requires2FA"`
}

// NewUser validates raw input and builds a User. On failure no partial user is returned.
func NewUser(email, password string, requires2FA bool) (User, error) {
	parsedEmail, err := ParseEmail(email)
	if err != nil {
		return User{}, err
	}

	parsedPassword, err := ParsePassword(password)
	if err != nil {
		return User{}, err
	}

	return User{Email: parsedEmail, Password: parsedPassword, Requires2FA: requires2FA}, nil
}

// RestoreUser assembles a User from parts that were validated before being stored.
func RestoreUser(email Email, password Password, requires2FA bool) User {
	return User{Email: email, Password: password, Requires2FA: requires2FA}
}

// UserStore defines the contract for credential persistence.
// Implementations live in the 'internal/repository' package.
type UserStore interface {
	AddUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, email Email) (User, error)

	// ValidateCredentials returns nil on a match, ErrUserNotFound or ErrInvalidCredentials otherwise.
	ValidateCredentials(ctx context.Context, email Email, password Password) error
}
