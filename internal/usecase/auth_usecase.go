package usecase

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/FilipeAphrody/sentinel-authcore/internal/domain"
	"github.com/FilipeAphrody/sentinel-authcore/pkg/security"
)

// Outcomes reported to the delivery layer. Backend detail is wrapped underneath
// and only reaches the logs.
var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrUserAlreadyExists     = errors.New("user already exists")
	ErrAuthenticationFailure = errors.New("incorrect credentials")
	ErrInvalidToken          = errors.New("invalid token")
	ErrUnexpected            = errors.New("unexpected error")
)

const twoFASubject = "Your 2FA Code"

// AuthUsecase sequences the stores, token service and email client into the login protocol.
type AuthUsecase struct {
	users        domain.UserStore
	bannedTokens domain.BannedTokenStore
	codes        domain.TwoFACodeStore
	email        domain.EmailClient
	tokens       *security.TokenService
	logger       zerolog.Logger
}

// NewAuthUsecase creates an AuthUsecase over the given backends.
func NewAuthUsecase(
	users domain.UserStore,
	bannedTokens domain.BannedTokenStore,
	codes domain.TwoFACodeStore,
	email domain.EmailClient,
	tokens *security.TokenService,
	logger zerolog.Logger,
) *AuthUsecase {
	return &AuthUsecase{
		users:        users,
		bannedTokens: bannedTokens,
		codes:        codes,
		email:        email,
		tokens:       tokens,
		logger:       logger.With().Str("component", "auth").Logger(),
	}
}

// Signup validates the input and registers a new account.
func (u *AuthUsecase) Signup(ctx context.Context, email, password string, requires2FA bool) error {
	user, err := domain.NewUser(email, password, requires2FA)
	if err != nil {
		return invalidInput(err)
	}

	if err := u.users.AddUser(ctx, user); err != nil {
		if errors.Is(err, domain.ErrUserAlreadyExists) {
			return ErrUserAlreadyExists
		}
		return unexpected(err)
	}

	u.logger.Info().Str("event", "SIGNUP").Str("email", user.Email.String()).Bool("requires_2fa", requires2FA).Msg("user registered")
	return nil
}

// Login handles the first step of authentication: validating credentials.
// Accounts without 2FA get a session token; the rest get a login attempt id
// and an emailed code.
func (u *AuthUsecase) Login(ctx context.Context, email, password string) (*domain.LoginResult, error) {
	// 1. Validate input shape
	parsedEmail, err := domain.ParseEmail(email)
	if err != nil {
		return nil, invalidInput(err)
	}
	parsedPassword, err := domain.ParsePassword(password)
	if err != nil {
		return nil, invalidInput(err)
	}

	// 2. Verify credentials; a missing user and a wrong password look the same
	if err := u.users.ValidateCredentials(ctx, parsedEmail, parsedPassword); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) || errors.Is(err, domain.ErrInvalidCredentials) {
			u.logger.Warn().Str("event", "LOGIN_FAILED").Str("email", parsedEmail.String()).Msg("invalid credentials")
			return nil, ErrAuthenticationFailure
		}
		return nil, unexpected(err)
	}

	// 3. Check if the second factor is required
	user, err := u.users.GetUser(ctx, parsedEmail)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, ErrAuthenticationFailure
		}
		return nil, unexpected(err)
	}

	// 4. If no 2FA, issue the session immediately
	if !user.Requires2FA {
		token, err := u.issueSession(parsedEmail)
		if err != nil {
			return nil, err
		}
		return &domain.LoginResult{Token: token}, nil
	}

	// 5. Otherwise start a challenge. It is stored before the email goes out.
	attemptID, err := u.startChallenge(ctx, parsedEmail)
	if err != nil {
		return nil, err
	}

	return &domain.LoginResult{Requires2FA: true, LoginAttemptID: attemptID}, nil
}

// Verify2FA handles the second step: consuming the pending challenge.
func (u *AuthUsecase) Verify2FA(ctx context.Context, email, loginAttemptID, code string) (string, error) {
	parsedEmail, err := domain.ParseEmail(email)
	if err != nil {
		return "", invalidInput(err)
	}
	parsedID, err := domain.ParseLoginAttemptID(loginAttemptID)
	if err != nil {
		return "", invalidInput(err)
	}
	parsedCode, err := domain.ParseTwoFACode(code)
	if err != nil {
		return "", invalidInput(err)
	}

	storedCode, storedID, err := u.codes.GetCode(ctx, parsedEmail)
	if err != nil {
		if errors.Is(err, domain.ErrLoginAttemptNotFound) {
			u.logger.Warn().Str("event", "MFA_FAILED").Str("email", parsedEmail.String()).Msg("no pending challenge")
			return "", ErrAuthenticationFailure
		}
		return "", unexpected(err)
	}

	idMatch := subtle.ConstantTimeCompare([]byte(storedID.String()), []byte(parsedID.String()))
	codeMatch := subtle.ConstantTimeCompare([]byte(storedCode.String()), []byte(parsedCode.String()))
	if idMatch&codeMatch != 1 {
		u.logger.Warn().Str("event", "MFA_FAILED").Str("email", parsedEmail.String()).Msg("challenge mismatch")
		return "", ErrAuthenticationFailure
	}

	// Single use: only the request that actually deleted the challenge gets a token.
	removed, err := u.codes.RemoveCode(ctx, parsedEmail)
	if err != nil {
		return "", unexpected(err)
	}
	if !removed {
		u.logger.Warn().Str("event", "MFA_FAILED").Str("email", parsedEmail.String()).Msg("challenge already consumed")
		return "", ErrAuthenticationFailure
	}

	return u.issueSession(parsedEmail)
}

// Logout revokes a valid session token.
func (u *AuthUsecase) Logout(ctx context.Context, token string) error {
	claims, err := u.VerifyToken(ctx, token)
	if err != nil {
		return err
	}

	if err := u.bannedTokens.AddToken(ctx, token); err != nil {
		return unexpected(err)
	}

	u.logger.Info().Str("event", "LOGOUT").Str("email", claims.Email()).Msg("session revoked")
	return nil
}

// VerifyToken checks signature and expiry, then the deny-list.
// Malformed, expired and revoked tokens all yield ErrInvalidToken.
func (u *AuthUsecase) VerifyToken(ctx context.Context, token string) (*security.Claims, error) {
	claims, err := u.tokens.Validate(token)
	if err != nil {
		return nil, ErrInvalidToken
	}

	banned, err := u.bannedTokens.IsBanned(ctx, token)
	if err != nil {
		return nil, unexpected(err)
	}
	if banned {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// TokenTTL is the lifetime of the session tokens this usecase issues.
func (u *AuthUsecase) TokenTTL() time.Duration {
	return u.tokens.TTL()
}

func (u *AuthUsecase) startChallenge(ctx context.Context, email domain.Email) (domain.LoginAttemptID, error) {
	raw, err := security.GenerateOTPCode()
	if err != nil {
		return domain.LoginAttemptID{}, unexpected(err)
	}
	code, err := domain.ParseTwoFACode(raw)
	if err != nil {
		return domain.LoginAttemptID{}, unexpected(err)
	}
	attemptID := domain.NewLoginAttemptID()

	if err := u.codes.AddCode(ctx, email, code, attemptID); err != nil {
		return domain.LoginAttemptID{}, unexpected(err)
	}

	if err := u.email.SendEmail(ctx, email, twoFASubject, twoFABody(email, code)); err != nil {
		return domain.LoginAttemptID{}, unexpected(err)
	}

	u.logger.Info().Str("event", "MFA_CHALLENGE").Str("email", email.String()).Msg("2fa code sent")
	return attemptID, nil
}

func (u *AuthUsecase) issueSession(email domain.Email) (string, error) {
	token, err := u.tokens.Issue(email.String())
	if err != nil {
		return "", unexpected(err)
	}

	u.logger.Info().Str("event", "LOGIN_SUCCESS").Str("email", email.String()).Msg("session issued")
	return token, nil
}

func twoFABody(email domain.Email, code domain.TwoFACode) string {
	return fmt.Sprintf("Hello %s,\n\nYour 2FA code is: %s\n\nThank you!", email, code)
}

func invalidInput(err error) error {
	return fmt.Errorf("%w: %w", ErrInvalidInput, err)
}

func unexpected(err error) error {
	return fmt.Errorf("%w: %w", ErrUnexpected, err)
}
