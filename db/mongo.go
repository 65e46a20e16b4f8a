package db

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"social-pilot/config"
	"social-pilot/internal/logger"
)

var (
	clientOnce sync.Once
	client     *mongo.Client
	db         *mongo.Database
)

// Init initializes the global Mongo client and database using config values.
func Init(ctx context.Context) error {
	var initErr error
	clientOnce.Do(func() {
		cfg := config.GetConfig()

		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		cl, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			initErr = err
			return
		}
		// Ping to verify connection
		if err := cl.Ping(ctx, readpref.Primary()); err != nil {
			initErr = err
			return
		}
		client = cl
		db = client.Database(cfg.MongoDBName)

		if err := ensureIndexes(ctx, db); err != nil {
			initErr = err
			return
		}
		logger.Log.Infof("MongoDB connected and indexes ensured (db=%s)", cfg.MongoDBName)
	})
	return initErr
}

func Client() *mongo.Client     { return client }
func Database() *mongo.Database { return db }

// Disconnect closes the global client, if any.
func Disconnect(ctx context.Context) error {
	if client == nil {
		return nil
	}
	return client.Disconnect(ctx)
}

func ensureIndexes(ctx context.Context, d *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		"products": {
			{Keys: bson.D{{Key: "created_at", Value: -1}}, Options: options.Index().SetName("idx_created_at_desc")},
		},
		"posts": {
			// product history for rotation and listing
			{Keys: bson.D{{Key: "product_id", Value: 1}, {Key: "created_at", Value: -1}}, Options: options.Index().SetName("idx_product_created")},
			// scheduler: status = scheduled AND scheduled_at <= now
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "scheduled_at", Value: 1}}, Options: options.Index().SetName("idx_status_scheduled_at")},
		},
		"connected_accounts": {
			{Keys: bson.D{{Key: "platform", Value: 1}, {Key: "external_user_id", Value: 1}}, Options: options.Index().SetName("uniq_platform_external_user").SetUnique(true)},
		},
		"product_revisions": {
			{Keys: bson.D{{Key: "product_id", Value: 1}, {Key: "field", Value: 1}, {Key: "created_at", Value: -1}}, Options: options.Index().SetName("idx_product_field_created")},
		},
		"settings": {
			{Keys: bson.D{{Key: "key", Value: 1}}, Options: options.Index().SetName("uniq_key").SetUnique(true)},
		},
		"ai_logs": {
			{Keys: bson.D{{Key: "requested_at", Value: -1}}, Options: options.Index().SetName("idx_requested_at_desc")},
			{Keys: bson.D{{Key: "product_id", Value: 1}}, Options: options.Index().SetName("idx_product_id")},
		},
	}

	for col, models := range indexes {
		if _, err := d.Collection(col).Indexes().CreateMany(ctx, models); err != nil {
			return err
		}
	}
	return nil
}
