package security

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func TestTokenService_IssueAndValidate(t *testing.T) {
	s := NewTokenService(testSecret, 0)
	assert.Equal(t, DefaultTokenTTL, s.TTL())

	token, err := s.Issue("a@b.com")
	require.NoError(t, err)

	claims, err := s.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", claims.Email())
	assert.Equal(t, Issuer, claims.Issuer)
	require.NotNil(t, claims.ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(DefaultTokenTTL), claims.ExpiresAt.Time, 2*time.Second)
}

func TestTokenService_TokensAreDistinct(t *testing.T) {
	s := NewTokenService(testSecret, time.Minute)

	first, err := s.Issue("a@b.com")
	require.NoError(t, err)
	second, err := s.Issue("a@b.com")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestTokenService_Expired(t *testing.T) {
	s := NewTokenService(testSecret, 10*time.Minute)
	issuedAt := time.Now()
	s.now = func() time.Time { return issuedAt }

	token, err := s.Issue("a@b.com")
	require.NoError(t, err)

	s.now = func() time.Time { return issuedAt.Add(9 * time.Minute) }
	_, err = s.Validate(token)
	require.NoError(t, err)

	s.now = func() time.Time { return issuedAt.Add(11 * time.Minute) }
	_, err = s.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenService_RejectsForeignTokens(t *testing.T) {
	s := NewTokenService(testSecret, time.Minute)
	other := NewTokenService("another-secret", time.Minute)

	foreign, err := other.Issue("a@b.com")
	require.NoError(t, err)

	valid, err := s.Issue("a@b.com")
	require.NoError(t, err)
	parts := strings.Split(valid, ".")
	require.Len(t, parts, 3)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject: "a@b.com",
		Issuer:  Issuer,
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	wrongIssuer, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "a@b.com",
		Issuer:    "someone-else",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "a@b.com",
		Issuer:    Issuer,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	for name, token := range map[string]string{
		"empty":          "",
		"garbage":        "not.a.jwt",
		"other secret":   foreign,
		"tampered":       parts[0] + "." + parts[1] + "x." + parts[2],
		"missing expiry": noExpiry,
		"wrong issuer":   wrongIssuer,
		"alg none":       unsigned,
		"truncated":      parts[0] + "." + parts[1],
	} {
		t.Run(name, func(t *testing.T) {
			claims, err := s.Validate(token)
			assert.Nil(t, claims)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}
