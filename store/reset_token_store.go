package store

import (
	"context"
	"errors"
	"time"

	"alumni-portal/apperr"
	"alumni-portal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrResetTokenNotFound = apperr.Validation("Invalid or expired reset token")

// ResetTokenStore handles the password_resets collection
type ResetTokenStore struct {
	Collection *mongo.Collection
}

func NewResetTokenStore(db *mongo.Database) *ResetTokenStore {
	return &ResetTokenStore{Collection: db.Collection("password_resets")}
}

// EnsureIndexes indexes tokens for lookup and lets MongoDB reap expired
// documents.
func (s *ResetTokenStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.Collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "token", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}},
		{Keys: bson.D{{Key: "expires_at", Value: 1}}, Options: options.Index().SetExpireAfterSeconds(0)},
	})
	return err
}

// Issue deletes any token held by t.Email and stores t
func (s *ResetTokenStore) Issue(ctx context.Context, t *models.ResetToken) error {
	if _, err := s.Collection.DeleteMany(ctx, bson.M{"email": t.Email}); err != nil {
		return apperr.Store("Error clearing reset tokens", err)
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	if _, err := s.Collection.InsertOne(ctx, t); err != nil {
		return apperr.Store("Error saving reset token", err)
	}
	return nil
}

// Find returns ErrResetTokenNotFound for unknown tokens. Expiry is left to
// the caller.
func (s *ResetTokenStore) Find(ctx context.Context, token string) (*models.ResetToken, error) {
	var t models.ResetToken
	err := s.Collection.FindOne(ctx, bson.M{"token": token}).Decode(&t)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrResetTokenNotFound
		}
		return nil, apperr.Store("Database error", err)
	}
	return &t, nil
}

// Consume deletes token
func (s *ResetTokenStore) Consume(ctx context.Context, token string) error {
	if _, err := s.Collection.DeleteOne(ctx, bson.M{"token": token}); err != nil {
		return apperr.Store("Error deleting reset token", err)
	}
	return nil
}
