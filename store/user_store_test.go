package store

import (
	"context"
	"testing"
	"time"

	"alumni-portal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestUserStore(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("find by email", func(mt *mtest.T) {
		s := &UserStore{Collection: mt.Coll}
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "alumni.users", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: id},
			{Key: "name", Value: "Ada"},
			{Key: "email", Value: "a@b.com"},
			{Key: "password", Value: "hash"},
		}))

		user, err := s.FindByEmail(ctx, "a@b.com")
		require.NoError(mt, err)
		assert.Equal(mt, id, user.ID)
		assert.Equal(mt, "Ada", user.Name)
		assert.True(mt, user.HasPassword())
	})

	mt.Run("find missing", func(mt *mtest.T) {
		s := &UserStore{Collection: mt.Coll}
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "alumni.users", mtest.FirstBatch))

		_, err := s.FindByEmail(ctx, "none@b.com")
		require.ErrorIs(mt, err, ErrUserNotFound)
	})

	mt.Run("create", func(mt *mtest.T) {
		s := &UserStore{Collection: mt.Coll}
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		user := &models.User{ID: primitive.NewObjectID(), Name: "Ada", Email: "a@b.com", Password: "hash"}
		require.NoError(mt, s.Create(ctx, user))
		assert.False(mt, user.ID.IsZero())
		assert.False(mt, user.CreatedAt.IsZero())
	})

	mt.Run("create duplicate", func(mt *mtest.T) {
		s := &UserStore{Collection: mt.Coll}
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "duplicate key error",
		}))

		err := s.Create(ctx, &models.User{Name: "Ada", Email: "a@b.com"})
		require.ErrorIs(mt, err, ErrUserExists)
	})

	mt.Run("update password missing user", func(mt *mtest.T) {
		s := &UserStore{Collection: mt.Coll}
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 0},
			bson.E{Key: "nModified", Value: 0},
		))

		err := s.UpdatePassword(ctx, "none@b.com", "hash")
		require.ErrorIs(mt, err, ErrUserNotFound)
	})

	mt.Run("link provider", func(mt *mtest.T) {
		s := &UserStore{Collection: mt.Coll}
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))

		require.NoError(mt, s.LinkProvider(ctx, "a@b.com", "google", "1234"))
	})
}

func TestResetTokenStore(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("issue replaces prior tokens", func(mt *mtest.T) {
		s := &ResetTokenStore{Collection: mt.Coll}
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 2}),
			mtest.CreateSuccessResponse(),
		)

		tok := &models.ResetToken{Email: "a@b.com", Token: "abc", ExpiresAt: time.Now().Add(time.Hour)}
		require.NoError(mt, s.Issue(ctx, tok))
		assert.False(mt, tok.CreatedAt.IsZero())
	})

	mt.Run("find unknown token", func(mt *mtest.T) {
		s := &ResetTokenStore{Collection: mt.Coll}
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "alumni.password_resets", mtest.FirstBatch))

		_, err := s.Find(ctx, "missing")
		require.ErrorIs(mt, err, ErrResetTokenNotFound)
	})

	mt.Run("find token", func(mt *mtest.T) {
		s := &ResetTokenStore{Collection: mt.Coll}
		expires := time.Now().Add(time.Hour).UTC().Truncate(time.Millisecond)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "alumni.password_resets", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: primitive.NewObjectID()},
			{Key: "email", Value: "a@b.com"},
			{Key: "token", Value: "abc"},
			{Key: "expires_at", Value: expires},
		}))

		tok, err := s.Find(ctx, "abc")
		require.NoError(mt, err)
		assert.Equal(mt, "a@b.com", tok.Email)
		assert.True(mt, tok.ExpiresAt.Equal(expires))
	})
}
