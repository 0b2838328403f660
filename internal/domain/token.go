package domain

import "context"

// LoginResult defines the outcome of a successful credential check.
// Exactly one of Token or LoginAttemptID is meaningful, depending on Requires2FA.
type LoginResult struct {
	Token          string
	Requires2FA    bool
	LoginAttemptID LoginAttemptID
}

// BannedTokenStore is the deny-list of session tokens revoked before expiry.
// Adding a banned token or removing an absent one is not an error.
type BannedTokenStore interface {
	AddToken(ctx context.Context, token string) error
	IsBanned(ctx context.Context, token string) (bool, error)
	RemoveToken(ctx context.Context, token string) error
}
