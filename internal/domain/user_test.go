package domain

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEmail(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{name: "simple", raw: "a@b.com", want: "a@b.com"},
		{name: "plus and dots", raw: "first.last+tag@mail.example.org", want: "first.last+tag@mail.example.org"},
		{name: "trims whitespace", raw: "  user@example.com\n", want: "user@example.com"},
		{name: "missing at", raw: "userexample.com", wantErr: true},
		{name: "missing tld", raw: "user@example", wantErr: true},
		{name: "short tld", raw: "user@example.c", wantErr: true},
		{name: "empty", raw: "", wantErr: true},
		{name: "space inside", raw: "us er@example.com", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseEmail(tt.raw)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidEmail)
				assert.Equal(t, Email{}, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestEmail_CaseSensitiveEquality(t *testing.T) {
	lower, err := ParseEmail("user@example.com")
	require.NoError(t, err)
	upper, err := ParseEmail("User@example.com")
	require.NoError(t, err)
	same, err := ParseEmail(" user@example.com ")
	require.NoError(t, err)

	assert.NotEqual(t, lower, upper)
	assert.Equal(t, lower, same)

	set := map[Email]struct{}{lower: {}}
	_, ok := set[same]
	assert.True(t, ok)
}

func TestParsePassword(t *testing.T) {
	tests := []struct {
		name    string
		secret  string
		wantErr bool
	}{
		{name: "valid", secret: "password123"},
		{name: "exactly eight", secret: "abcdefg1"},
		{name: "too short", secret: "abc1", wantErr: true},
		{name: "no digit", secret: "passwordpassword", wantErr: true},
		{name: "empty", secret: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePassword(tt.secret)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidPassword)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.secret, got.Secret())
			assert.False(t, got.IsHashed())
		})
	}
}

func TestPasswordFromHash_BypassesPolicy(t *testing.T) {
	p := PasswordFromHash("short")
	assert.Equal(t, "short", p.Secret())
	assert.True(t, p.IsHashed())
}

func TestPassword_NeverRendersSecret(t *testing.T) {
	p, err := ParsePassword("password123")
	require.NoError(t, err)

	assert.NotContains(t, p.String(), "password123")
	assert.NotContains(t, fmt.Sprintf("%v %+v %#v %s", p, p, p, p), "password123")

	user, err := NewUser("a@b.com", "password123", true)
	require.NoError(t, err)
	assert.NotContains(t, fmt.Sprintf("%+v", user), "password123")

	raw, err := json.Marshal(user)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "password123")
}

func TestPassword_Equal(t *testing.T) {
	a, _ := ParsePassword("password123")
	b, _ := ParsePassword("password123")
	c, _ := ParsePassword("password124")

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
}

func TestNewUser(t *testing.T) {
	user, err := NewUser("a@b.com", "password123", true)
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", user.Email.String())
	assert.Equal(t, "password123", user.Password.Secret())
	assert.True(t, user.Requires2FA)

	_, err = NewUser("not-an-email", "password123", false)
	assert.ErrorIs(t, err, ErrInvalidEmail)

	_, err = NewUser("a@b.com", "short", false)
	assert.ErrorIs(t, err, ErrInvalidPassword)
}

func TestUser_CopiesAreIndependent(t *testing.T) {
	original, err := NewUser("a@b.com", "password123", false)
	require.NoError(t, err)

	copied := original
	copied.Requires2FA = true

	assert.False(t, original.Requires2FA)
}

func TestRestoreUser(t *testing.T) {
	email, err := ParseEmail("a@b.com")
	require.NoError(t, err)

	user := RestoreUser(email, PasswordFromHash("$argon2id$..."), true)
	assert.Equal(t, email, user.Email)
	assert.True(t, user.Password.IsHashed())
	assert.True(t, user.Requires2FA)
}
