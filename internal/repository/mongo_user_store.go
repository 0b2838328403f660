package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/FilipeAphrody/sentinel-authcore/internal/domain"
	"github.com/FilipeAphrody/sentinel-authcore/pkg/security"
)

const userCollection = "users"

type userDocument struct {
	Email        string `bson:"email"`
	PasswordHash string `bson:"password_hash"`
	Requires2FA  bool   `bson:"requires_2fa"`
}

// MongoUserStore implements domain.UserStore on a MongoDB collection.
type MongoUserStore struct {
	collection *mongo.Collection
	hasher     *security.Hasher
}

// NewMongoUserStore ensures the unique email index exists and returns the store.
func NewMongoUserStore(ctx context.Context, db *mongo.Database, hasher *security.Hasher) (*MongoUserStore, error) {
	collection := db.Collection(userCollection)

	index := mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := collection.Indexes().CreateOne(ctx, index); err != nil {
		return nil, fmt.Errorf("failed to create user indexes: %w", err)
	}

	return &MongoUserStore{collection: collection, hasher: hasher}, nil
}

func (s *MongoUserStore) AddUser(ctx context.Context, user domain.User) error {
	hash, err := s.hasher.Hash(ctx, user.Password.Secret())
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	doc := userDocument{
		Email:        user.Email.String(),
		PasswordHash: hash,
		Requires2FA:  user.Requires2FA,
	}

	if _, err := s.collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrUserAlreadyExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

func (s *MongoUserStore) GetUser(ctx context.Context, email domain.Email) (domain.User, error) {
	doc, err := s.find(ctx, email)
	if err != nil {
		return domain.User{}, err
	}

	return domain.RestoreUser(email, domain.PasswordFromHash(doc.PasswordHash), doc.Requires2FA), nil
}

func (s *MongoUserStore) ValidateCredentials(ctx context.Context, email domain.Email, password domain.Password) error {
	doc, err := s.find(ctx, email)
	if errors.Is(err, domain.ErrUserNotFound) {
		if dummyErr := s.hasher.CompareDummy(ctx, password.Secret()); dummyErr != nil {
			return fmt.Errorf("failed to verify password: %w", dummyErr)
		}
		return err
	}
	if err != nil {
		return err
	}

	match, err := s.hasher.Compare(ctx, password.Secret(), doc.PasswordHash)
	if err != nil {
		return fmt.Errorf("failed to verify password: %w", err)
	}
	if !match {
		return domain.ErrInvalidCredentials
	}

	return nil
}

func (s *MongoUserStore) find(ctx context.Context, email domain.Email) (userDocument, error) {
	var doc userDocument
	err := s.collection.FindOne(ctx, bson.D{{Key: "email", Value: email.String()}}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return userDocument{}, domain.ErrUserNotFound
		}
		return userDocument{}, fmt.Errorf("mongo error: %w", err)
	}

	return doc, nil
}
