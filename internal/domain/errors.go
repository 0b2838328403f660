package domain

import "errors"

// Validation errors returned by the value constructors.
var (
	ErrInvalidEmail          = errors.New("invalid email")
	ErrInvalidPassword       = errors.New("invalid password")
	ErrInvalidLoginAttemptID = errors.New("invalid login attempt id")
	ErrInvalidTwoFACode      = errors.New("invalid 2fa code")
)

// Store errors. Anything else a store returns is unexpected.
var (
	ErrUserAlreadyExists    = errors.New("user already exists")
	ErrUserNotFound         = errors.New("user not found")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrLoginAttemptNotFound = errors.New("login attempt not found")
)
