package domain

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

const twoFACodeLength = 6

// LoginAttemptID correlates a login request with its pending 2FA challenge.
type LoginAttemptID struct {
	id uuid.UUID
}

// NewLoginAttemptID returns a fresh random (v4) identifier.
func NewLoginAttemptID() LoginAttemptID {
	return LoginAttemptID{id: uuid.New()}
}

const canonicalUUIDLength = 36

// ParseLoginAttemptID validates a client-supplied identifier.
// Only the hyphenated 8-4-4-4-12 form is accepted.
func ParseLoginAttemptID(raw string) (LoginAttemptID, error) {
	if len(raw) != canonicalUUIDLength {
		return LoginAttemptID{}, fmt.Errorf("%w: not a canonical UUID", ErrInvalidLoginAttemptID)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return LoginAttemptID{}, fmt.Errorf("%w: %w", ErrInvalidLoginAttemptID, err)
	}
	return LoginAttemptID{id: id}, nil
}

func (l LoginAttemptID) String() string {
	return l.id.String()
}

// TwoFACode is a one-time code of exactly six ASCII digits.
type TwoFACode struct {
	value string
}

// ParseTwoFACode validates a code supplied by a client or read from storage.
func ParseTwoFACode(raw string) (TwoFACode, error) {
	if len(raw) != twoFACodeLength {
		return TwoFACode{}, fmt.Errorf("%w: must be %d digits", ErrInvalidTwoFACode, twoFACodeLength)
	}
	for i := 0; i < len(raw); i++ {
		if raw[i] < '0' || raw[i] > '9' {
			return TwoFACode{}, fmt.Errorf("%w: must be %d digits", ErrInvalidTwoFACode, twoFACodeLength)
		}
	}
	return TwoFACode{value: raw}, nil
}

func (c TwoFACode) String() string {
	return c.value
}

// TwoFACodeStore holds at most one pending challenge per email.
type TwoFACodeStore interface {
	// AddCode replaces any challenge already stored for the email.
	AddCode(ctx context.Context, email Email, code TwoFACode, attemptID LoginAttemptID) error
	GetCode(ctx context.Context, email Email) (TwoFACode, LoginAttemptID, error)
	// RemoveCode reports whether this call deleted a pending challenge.
	// Of several concurrent callers at most one sees true.
	RemoveCode(ctx context.Context, email Email) (bool, error)
}

// EmailClient delivers notifications to account holders.
type EmailClient interface {
	SendEmail(ctx context.Context, recipient Email, subject, content string) error
}
