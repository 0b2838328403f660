package security

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testParams = HashParams{
	Memory:      64,
	Iterations:  1,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

func TestHasher_HashAndCompare(t *testing.T) {
	h := NewHasher(testParams, 2)
	ctx := context.Background()

	encoded, err := h.Hash(ctx, "password123")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(encoded, "$argon2id$v=19$m=64,t=1,p=1$"))
	assert.NotContains(t, encoded, "password123")

	match, err := h.Compare(ctx, "password123", encoded)
	require.NoError(t, err)
	assert.True(t, match)

	match, err = h.Compare(ctx, "password124", encoded)
	require.NoError(t, err)
	assert.False(t, match)
}

func TestHasher_SaltsEveryHash(t *testing.T) {
	h := NewHasher(testParams, 1)

	first, err := h.Hash(context.Background(), "password123")
	require.NoError(t, err)
	second, err := h.Hash(context.Background(), "password123")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestHasher_CompareRejectsMalformedHashes(t *testing.T) {
	h := NewHasher(testParams, 1)
	ctx := context.Background()

	for _, encoded := range []string{
		"",
		"plaintext",
		"$bcrypt$v=19$m=64,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=18$m=64,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=0,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=64,t=1,p=1$!!!$aGFzaA",
		"$argon2id$v=19$m=64,t=1,p=1$c2FsdA$",
	} {
		match, err := h.Compare(ctx, "password123", encoded)
		assert.ErrorIs(t, err, ErrInvalidHash, encoded)
		assert.False(t, match)
	}
}

func TestHasher_CompareDummy(t *testing.T) {
	h := NewHasher(testParams, 1)
	require.NoError(t, h.CompareDummy(context.Background(), "password123"))
	require.NoError(t, h.CompareDummy(context.Background(), "anything9"))
}

func TestHasher_DummyHashBuiltUpFront(t *testing.T) {
	h := NewHasher(testParams, 1)
	require.NoError(t, h.dummyErr)
	require.NotEmpty(t, h.dummyHash)

	match, err := comparePassword(dummyPassword, h.dummyHash)
	require.NoError(t, err)
	assert.True(t, match)

	// With every worker slot taken, CompareDummy waits for the pool like any other hash.
	require.NoError(t, h.sem.Acquire(context.Background(), 1))
	defer h.sem.Release(1)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, h.CompareDummy(ctx, "password123"), context.DeadlineExceeded)
}

func TestHasher_CanceledContext(t *testing.T) {
	h := NewHasher(testParams, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.Hash(ctx, "password123")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHasher_ConcurrentUse(t *testing.T) {
	h := NewHasher(testParams, 2)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			encoded, err := h.Hash(ctx, "password123")
			if !assert.NoError(t, err) {
				return
			}
			match, err := h.Compare(ctx, "password123", encoded)
			assert.NoError(t, err)
			assert.True(t, match)
		}()
	}
	wg.Wait()
}

func TestNewHasher_ClampsWorkers(t *testing.T) {
	h := NewHasher(testParams, 0)
	_, err := h.Hash(context.Background(), "password123")
	require.NoError(t, err)
}
