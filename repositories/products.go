package repositories

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"social-pilot/models"
)

type ProductRepository struct {
	col *mongo.Collection
}

func NewProductRepository(db *mongo.Database) *ProductRepository {
	return &ProductRepository{col: db.Collection("products")}
}

func (r *ProductRepository) Create(ctx context.Context, p *models.Product) error {
	now := time.Now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	if p.ExtractionStatus == "" {
		p.ExtractionStatus = models.ExtractionNone
	}
	if p.Screenshots == nil {
		p.Screenshots = []string{}
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

// GetByID returns the product with legacy shapes normalized.
func (r *ProductRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	var p models.Product
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return nil, translate(err)
	}
	p.Normalize()
	return &p, nil
}

func (r *ProductRepository) List(ctx context.Context) ([]models.Product, error) {
	cur, err := r.col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	results := []models.Product{}
	for cur.Next(ctx) {
		var p models.Product
		if err := cur.Decode(&p); err != nil {
			return nil, err
		}
		p.Normalize()
		results = append(results, p)
	}
	return results, cur.Err()
}

// UpdateDetails updates the descriptive fields that are not revision tracked.
func (r *ProductRepository) UpdateDetails(ctx context.Context, p *models.Product) error {
	return r.set(ctx, p.ID, bson.M{
		"name":          p.Name,
		"description":   p.Description,
		"url":           p.URL,
		"feed_url":      p.FeedURL,
		"screenshots":   p.Screenshots,
		"text_provider": p.TextProvider,
	})
}

// SaveContent persists the given revision-tracked fields from p.
func (r *ProductRepository) SaveContent(ctx context.Context, p *models.Product, fields ...models.RevisionField) error {
	set := bson.M{}
	for _, f := range fields {
		switch f {
		case models.FieldBrief:
			set["brief"] = p.Brief
			set["brief_file_name"] = p.BriefFileName
		case models.FieldProfile:
			set["profile"] = p.Profile
		case models.FieldStrategy:
			set["strategy"] = p.Strategy
		default:
			return fmt.Errorf("unknown revision field %q", f)
		}
	}
	if len(set) == 0 {
		return nil
	}
	return r.set(ctx, p.ID, set)
}

// SetExtractionStatus records a status change. Terminal statuses release
// the extraction claim; pending keeps a running claim in place.
func (r *ProductRepository) SetExtractionStatus(ctx context.Context, id primitive.ObjectID, status models.ExtractionStatus, errMsg string) error {
	set := bson.M{"extraction_status": status, "extraction_error": errMsg}
	update := bson.M{"$set": set}
	if releasesClaim(status) {
		update["$unset"] = bson.M{"extraction_started_at": ""}
	}
	set["updated_at"] = time.Now()
	res, err := r.col.UpdateByID(ctx, id, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ClaimExtraction moves the product to extracting unless another run holds
// a claim younger than staleBefore. It returns ErrConflict when the claim
// is held.
func (r *ProductRepository) ClaimExtraction(ctx context.Context, id primitive.ObjectID, now, staleBefore time.Time) error {
	filter := bson.M{
		"_id": id,
		"$or": bson.A{
			bson.M{"extraction_started_at": bson.M{"$exists": false}},
			bson.M{"extraction_started_at": nil},
			bson.M{"extraction_started_at": bson.M{"$lt": staleBefore}},
		},
	}
	update := bson.M{"$set": bson.M{
		"extraction_status":     models.ExtractionExtracting,
		"extraction_error":      "",
		"extraction_started_at": now,
		"updated_at":            now,
	}}
	res, err := r.col.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return ErrConflict
	}
	return nil
}

// LinkAccount points the product's per-platform account slot at accountID.
func (r *ProductRepository) LinkAccount(ctx context.Context, id primitive.ObjectID, platform models.Platform, accountID primitive.ObjectID) error {
	var key string
	switch platform {
	case models.PlatformInstagram:
		key = "instagram_account_id"
	case models.PlatformTwitter:
		key = "x_account_id"
	default:
		return fmt.Errorf("unknown platform %q", platform)
	}
	return r.set(ctx, id, bson.M{key: accountID})
}

func (r *ProductRepository) set(ctx context.Context, id primitive.ObjectID, fields bson.M) error {
	fields["updated_at"] = time.Now()
	res, err := r.col.UpdateByID(ctx, id, bson.M{"$set": fields})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func releasesClaim(status models.ExtractionStatus) bool {
	switch status {
	case models.ExtractionDone, models.ExtractionFailed, models.ExtractionNone:
		return true
	}
	return false
}
