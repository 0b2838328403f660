package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginAttemptID(t *testing.T) {
	first := NewLoginAttemptID()
	second := NewLoginAttemptID()
	assert.NotEqual(t, first, second)

	parsed, err := ParseLoginAttemptID(first.String())
	require.NoError(t, err)
	assert.Equal(t, first, parsed)

	for _, raw := range []string{"", "not-a-uuid", "1234", "zzzzzzzz-zzzz-zzzz-zzzz-zzzzzzzzzzzz"} {
		_, err := ParseLoginAttemptID(raw)
		assert.ErrorIs(t, err, ErrInvalidLoginAttemptID, raw)
	}
}

func TestParseLoginAttemptID_OnlyCanonicalForm(t *testing.T) {
	id := NewLoginAttemptID()
	canonical := id.String()

	upper, err := ParseLoginAttemptID(strings.ToUpper(canonical))
	require.NoError(t, err)
	assert.Equal(t, id, upper)

	for _, raw := range []string{
		"urn:uuid:" + canonical,
		"{" + canonical + "}",
		strings.ReplaceAll(canonical, "-", ""),
	} {
		_, err := ParseLoginAttemptID(raw)
		assert.ErrorIs(t, err, ErrInvalidLoginAttemptID, raw)
	}
}

func TestParseTwoFACode(t *testing.T) {
	for _, raw := range []string{"000000", "123456", "999999"} {
		code, err := ParseTwoFACode(raw)
		require.NoError(t, err)
		assert.Equal(t, raw, code.String())
	}

	for _, raw := range []string{"", "12345", "1234567", "12a456", " 12345", "١٢٣٤٥٦"} {
		_, err := ParseTwoFACode(raw)
		assert.ErrorIs(t, err, ErrInvalidTwoFACode, raw)
	}
}
