package store

import (
	"context"
	"errors"
	"time"

	"alumni-portal/apperr"
	"alumni-portal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrUserNotFound = apperr.NotFound("User not found")
	ErrUserExists   = apperr.Validation("User already exists")
)

// UserStore handles the users collection
type UserStore struct {
	Collection *mongo.Collection
}

func NewUserStore(db *mongo.Database) *UserStore {
	return &UserStore{Collection: db.Collection("users")}
}

// EnsureIndexes creates the unique email index
func (s *UserStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.Collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

// Create inserts user and sets its ID
func (s *UserStore) Create(ctx context.Context, user *models.User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	res, err := s.Collection.InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrUserExists
		}
		return apperr.Store("Error creating user", err)
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		user.ID = id
	}
	return nil
}

// FindByEmail returns ErrUserNotFound when no account uses email
func (s *UserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.Collection.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, apperr.Store("Database error", err)
	}
	return &user, nil
}

// UpdatePassword replaces the password hash of the account using email
func (s *UserStore) UpdatePassword(ctx context.Context, email, hash string) error {
	return s.set(ctx, email, bson.M{"password": hash})
}

// LinkProvider records an OAuth identity on the account using email
func (s *UserStore) LinkProvider(ctx context.Context, email, provider, providerID string) error {
	return s.set(ctx, email, bson.M{"provider": provider, "provider_id": providerID})
}

func (s *UserStore) set(ctx context.Context, email string, fields bson.M) error {
	result, err := s.Collection.UpdateOne(ctx, bson.M{"email": email}, bson.M{"$set": fields})
	if err != nil {
		return apperr.Store("Error updating user", err)
	}
	if result.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}
