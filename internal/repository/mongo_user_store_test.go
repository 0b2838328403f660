package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/FilipeAphrody/sentinel-authcore/internal/domain"
	"github.com/FilipeAphrody/sentinel-authcore/pkg/security"
)

// Runs against a live server only when MONGO_URI is set.
func TestMongoUserStore_Integration(t *testing.T) {
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		t.Skip("MONGO_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	require.NoError(t, err)
	defer func() { _ = client.Disconnect(context.Background()) }()

	db := client.Database("sentinel_test_" + uuid.NewString()[:8])
	defer func() { _ = db.Drop(context.Background()) }()

	store, err := NewMongoUserStore(ctx, db, security.NewHasher(testHashParams, 1))
	require.NoError(t, err)

	require.NoError(t, store.AddUser(ctx, mustUser(t, "a@b.com", "password123", true)))
	assert.ErrorIs(t, store.AddUser(ctx, mustUser(t, "a@b.com", "password123", false)), domain.ErrUserAlreadyExists)

	user, err := store.GetUser(ctx, mustEmail(t, "a@b.com"))
	require.NoError(t, err)
	assert.True(t, user.Requires2FA)
	assert.True(t, user.Password.IsHashed())

	assert.NoError(t, store.ValidateCredentials(ctx, mustEmail(t, "a@b.com"), mustPassword(t, "password123")))
	assert.ErrorIs(t, store.ValidateCredentials(ctx, mustEmail(t, "a@b.com"), mustPassword(t, "password124")), domain.ErrInvalidCredentials)
	assert.ErrorIs(t, store.ValidateCredentials(ctx, mustEmail(t, "x@b.com"), mustPassword(t, "password123")), domain.ErrUserNotFound)

	_, err = store.GetUser(ctx, mustEmail(t, "x@b.com"))
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}
