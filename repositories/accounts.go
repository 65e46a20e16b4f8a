package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"social-pilot/models"
)

type AccountRepository struct {
	col *mongo.Collection
}

func NewAccountRepository(db *mongo.Database) *AccountRepository {
	return &AccountRepository{col: db.Collection("connected_accounts")}
}

func (r *AccountRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Account, error) {
	var a models.Account
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&a); err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

// ListByPlatform returns connected accounts for a platform.
func (r *AccountRepository) ListByPlatform(ctx context.Context, platform models.Platform) ([]models.Account, error) {
	cur, err := r.col.Find(ctx, bson.M{"platform": platform}, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	results := []models.Account{}
	for cur.Next(ctx) {
		var a models.Account
		if err := cur.Decode(&a); err != nil {
			return nil, err
		}
		results = append(results, a)
	}
	return results, cur.Err()
}

// Upsert inserts or refreshes an account identified by
// (platform, external_user_id) and returns the stored document.
func (r *AccountRepository) Upsert(ctx context.Context, a *models.Account) (*models.Account, error) {
	now := time.Now()
	filter := bson.M{"platform": a.Platform, "external_user_id": a.ExternalUserID}
	set := bson.M{
		"username":         a.Username,
		"access_token":     a.AccessToken,
		"refresh_token":    a.RefreshToken,
		"token_expires_at": a.TokenExpiresAt,
		"updated_at":       now,
	}
	if a.PageID != "" {
		set["page_id"] = a.PageID
	}
	update := bson.M{
		"$setOnInsert": bson.M{"created_at": now},
		"$set":         set,
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var stored models.Account
	if err := r.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&stored); err != nil {
		return nil, err
	}
	return &stored, nil
}

// UpdateTokens stores refreshed credentials.
func (r *AccountRepository) UpdateTokens(ctx context.Context, id primitive.ObjectID, accessToken, refreshToken string, expiresAt *time.Time) error {
	res, err := r.col.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"access_token":     accessToken,
		"refresh_token":    refreshToken,
		"token_expires_at": expiresAt,
		"updated_at":       time.Now(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
