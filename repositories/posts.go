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

type PostRepository struct {
	col *mongo.Collection
}

func NewPostRepository(db *mongo.Database) *PostRepository {
	return &PostRepository{col: db.Collection("posts")}
}

func (r *PostRepository) Create(ctx context.Context, p *models.Post) error {
	now := time.Now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	if p.Status == "" {
		p.Status = models.StatusDraft
	}
	if p.Hashtags == nil {
		p.Hashtags = []string{}
	}
	res, err := r.col.InsertOne(ctx, p)
	if err != nil {
		return err
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		p.ID = id
	}
	return nil
}

func (r *PostRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Post, error) {
	var p models.Post
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

// ListByProduct returns a product's posts, newest first.
func (r *PostRepository) ListByProduct(ctx context.Context, productID primitive.ObjectID) ([]models.Post, error) {
	return r.find(ctx, bson.M{"product_id": productID}, options.Find().SetSort(bson.D{
		{Key: "created_at", Value: -1},
		{Key: "_id", Value: -1},
	}))
}

// FindDue returns scheduled posts whose time has come, oldest first.
func (r *PostRepository) FindDue(ctx context.Context, now time.Time) ([]models.Post, error) {
	filter := bson.M{
		"status":       models.StatusScheduled,
		"scheduled_at": bson.M{"$lte": now},
	}
	return r.find(ctx, filter, options.Find().SetSort(bson.D{{Key: "scheduled_at", Value: 1}}))
}

// UpdateEditable writes the user-editable fields. Posted posts are never
// matched.
func (r *PostRepository) UpdateEditable(ctx context.Context, p *models.Post) error {
	filter := bson.M{"_id": p.ID, "status": bson.M{"$ne": models.StatusPosted}}
	set := bson.M{
		"content":          p.Content,
		"hashtags":         p.Hashtags,
		"media_url":        p.MediaURL,
		"public_media_url": p.PublicMediaURL,
		"status":           p.Status,
		"updated_at":       time.Now(),
	}
	update := bson.M{"$set": set}
	if p.ScheduledAt != nil {
		set["scheduled_at"] = p.ScheduledAt
	} else {
		update["$unset"] = bson.M{"scheduled_at": ""}
	}
	res, err := r.col.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrConflict
	}
	return nil
}

// BeginPublishAttempt takes the publish lease for key. It fails with
// ErrConflict when the post is posted or another live lease exists.
func (r *PostRepository) BeginPublishAttempt(ctx context.Context, id primitive.ObjectID, key string, now, staleBefore time.Time) error {
	filter := bson.M{
		"_id":    id,
		"status": bson.M{"$ne": models.StatusPosted},
		"$or": bson.A{
			bson.M{"publish_attempt": bson.M{"$exists": false}},
			bson.M{"publish_attempt": nil},
			bson.M{"publish_attempt.started_at": bson.M{"$lt": staleBefore}},
		},
	}
	update := bson.M{"$set": bson.M{
		"publish_attempt": models.PublishAttempt{Key: key, StartedAt: now},
		"updated_at":      now,
	}}
	res, err := r.col.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrConflict
	}
	return nil
}

// MarkPosted finishes the attempt identified by key.
func (r *PostRepository) MarkPosted(ctx context.Context, id primitive.ObjectID, key, platformPostID string, postedAt time.Time) error {
	filter := bson.M{"_id": id, "publish_attempt.key": key}
	update := bson.M{
		"$set": bson.M{
			"status":           models.StatusPosted,
			"platform_post_id": platformPostID,
			"posted_at":        postedAt,
			"last_error":       "",
			"updated_at":       postedAt,
		},
		"$unset": bson.M{"publish_attempt": ""},
	}
	res, err := r.col.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrConflict
	}
	return nil
}

// FailPublishAttempt releases the lease and records the error.
func (r *PostRepository) FailPublishAttempt(ctx context.Context, id primitive.ObjectID, key, errMsg string) error {
	filter := bson.M{"_id": id, "publish_attempt.key": key}
	update := bson.M{
		"$set":   bson.M{"last_error": errMsg, "updated_at": time.Now()},
		"$unset": bson.M{"publish_attempt": ""},
	}
	_, err := r.col.UpdateOne(ctx, filter, update)
	return err
}

func (r *PostRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Post, error) {
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	results := []models.Post{}
	for cur.Next(ctx) {
		var p models.Post
		if err := cur.Decode(&p); err != nil {
			return nil, err
		}
		results = append(results, p)
	}
	return results, cur.Err()
}
