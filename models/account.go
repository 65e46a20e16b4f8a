package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Account is a connected social account. Unique on (platform, external_user_id).
// Collection: connected_accounts
type Account struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Platform       Platform           `bson:"platform" json:"platform"`
	ExternalUserID string             `bson:"external_user_id" json:"externalUserId"`
	Username       string             `bson:"username" json:"username"`
	AccessToken    string             `bson:"access_token" json:"-"`
	RefreshToken   string             `bson:"refresh_token,omitempty" json:"-"`
	TokenExpiresAt *time.Time         `bson:"token_expires_at,omitempty" json:"tokenExpiresAt,omitempty"`
	PageID         string             `bson:"page_id,omitempty" json:"pageId,omitempty"`
	CreatedAt      time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updated_at" json:"updatedAt"`
}

// TokenExpired reports whether the access token is expired at now, with a
// one minute margin. Accounts without an expiry never expire.
func (a *Account) TokenExpired(now time.Time) bool {
	if a.TokenExpiresAt == nil {
		return false
	}
	return !now.Add(time.Minute).Before(*a.TokenExpiresAt)
}

// Handle is the "@username" form used in prompts.
func (a *Account) Handle() string {
	if a == nil || a.Username == "" {
		return ""
	}
	return "@" + a.Username
}
