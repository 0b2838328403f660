package security

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/sync/semaphore"
)

var ErrInvalidHash = errors.New("invalid hash format")

// --- Argon2id Configuration ---
// Memory-hard with low parallelism; Memory is expressed in KiB.
type HashParams struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

var DefaultParams = HashParams{
	Memory:      19 * 1024, // 19MB
	Iterations:  2,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

// dummyPassword is hashed at construction and verified when a lookup misses,
// so a missing account costs the same as a wrong password.
const dummyPassword = "sentinel-dummy-password-0"

// Hasher runs argon2id on a bounded set of goroutines so that hashing
// never occupies more than `workers` CPUs at a time.
type Hasher struct {
	params HashParams
	sem    *semaphore.Weighted

	dummyHash string
	dummyErr  error
}

// NewHasher creates a hasher. workers < 1 is treated as 1.
// The dummy hash is built here so that no request pays for it.
func NewHasher(params HashParams, workers int64) *Hasher {
	if workers < 1 {
		workers = 1
	}
	h := &Hasher{params: params, sem: semaphore.NewWeighted(workers)}
	h.dummyHash, h.dummyErr = hashPassword(dummyPassword, params)
	return h
}

// Hash generates an Argon2id hash from a plaintext password.
// Returns a string in the standard encoded format: $argon2id$v=19$m=...,t=...,p=...$salt$hash
func (h *Hasher) Hash(ctx context.Context, password string) (string, error) {
	var encoded string
	var hashErr error

	err := h.run(ctx, func() {
		encoded, hashErr = hashPassword(password, h.params)
	})
	if err != nil {
		return "", err
	}

	return encoded, hashErr
}

// Compare checks if a hash matches a plaintext password.
// It uses constant-time comparison to prevent timing attacks.
func (h *Hasher) Compare(ctx context.Context, password, encodedHash string) (bool, error) {
	var match bool
	var compareErr error

	err := h.run(ctx, func() {
		match, compareErr = comparePassword(password, encodedHash)
	})
	if err != nil {
		return false, err
	}

	return match, compareErr
}

// CompareDummy performs a full verification against a throwaway hash and
// discards the result.
func (h *Hasher) CompareDummy(ctx context.Context, password string) error {
	if h.dummyErr != nil {
		return h.dummyErr
	}

	_, err := h.Compare(ctx, password, h.dummyHash)
	return err
}

// run executes fn on its own goroutine once a worker slot is free.
// If ctx ends first the caller returns early and fn finishes in the background.
func (h *Hasher) run(ctx context.Context, fn func()) error {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return err
	}

	done := make(chan struct{})
	go func() {
		defer h.sem.Release(1)
		defer close(done)
		fn()
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func hashPassword(password string, params HashParams) (string, error) {
	salt := make([]byte, params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}

	hash := argon2.IDKey(
		[]byte(password),
		salt,
		params.Iterations,
		params.Memory,
		params.Parallelism,
		params.KeyLength,
	)

	b64Salt := base64.RawStdEncoding.EncodeToString(salt)
	b64Hash := base64.RawStdEncoding.EncodeToString(hash)

	encoded := fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, params.Memory, params.Iterations, params.Parallelism, b64Salt, b64Hash)

	return encoded, nil
}

func comparePassword(password, encodedHash string) (bool, error) {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return false, ErrInvalidHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return false, fmt.Errorf("%w: %w", ErrInvalidHash, err)
	}
	if version != argon2.Version {
		return false, fmt.Errorf("%w: unsupported version %d", ErrInvalidHash, version)
	}

	var memory, iterations uint32
	var parallelism uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &parallelism); err != nil {
		return false, fmt.Errorf("%w: %w", ErrInvalidHash, err)
	}
	if memory == 0 || iterations == 0 || parallelism == 0 {
		return false, fmt.Errorf("%w: zero cost parameter", ErrInvalidHash)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrInvalidHash, err)
	}

	decodedHash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrInvalidHash, err)
	}
	if len(decodedHash) == 0 {
		return false, fmt.Errorf("%w: empty key", ErrInvalidHash)
	}

	keyLen := uint32(len(decodedHash))
	comparisonHash := argon2.IDKey([]byte(password), salt, iterations, memory, parallelism, keyLen)

	return subtle.ConstantTimeCompare(decodedHash, comparisonHash) == 1, nil
}
