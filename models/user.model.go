package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User represents an alumni account. Password is empty for accounts that
// only ever signed in through an OAuth provider.
type User struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name       string             `bson:"name" json:"name"`
	Email      string             `bson:"email" json:"email"`
	Password   string             `bson:"password,omitempty" json:"-"`
	Provider   string             `bson:"provider,omitempty" json:"provider,omitempty"`
	ProviderID string             `bson:"provider_id,omitempty" json:"-"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
}

// HasPassword reports whether the account can sign in with credentials
func (u *User) HasPassword() bool {
	return u.Password != ""
}
