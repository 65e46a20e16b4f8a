package repositories

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"social-pilot/models"
)

type SettingRepository struct {
	col *mongo.Collection
}

func NewSettingRepository(db *mongo.Database) *SettingRepository {
	return &SettingRepository{col: db.Collection("settings")}
}

// Get returns the value for key, or "" when it is not set.
func (r *SettingRepository) Get(ctx context.Context, key string) (string, error) {
	var s models.Setting
	err := r.col.FindOne(ctx, bson.M{"key": key}).Decode(&s)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return s.Value, nil
}

func (r *SettingRepository) All(ctx context.Context) (map[string]string, error) {
	cur, err := r.col.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := map[string]string{}
	for cur.Next(ctx) {
		var s models.Setting
		if err := cur.Decode(&s); err != nil {
			return nil, err
		}
		out[s.Key] = s.Value
	}
	return out, cur.Err()
}

func (r *SettingRepository) Set(ctx context.Context, key, value string) error {
	_, err := r.col.UpdateOne(ctx,
		bson.M{"key": key},
		bson.M{"$set": bson.M{"key": key, "value": value, "updated_at": time.Now()}},
		options.Update().SetUpsert(true),
	)
	return err
}
