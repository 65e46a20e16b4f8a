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

// RevisionRepository is append-only.
type RevisionRepository struct {
	col *mongo.Collection
}

func NewRevisionRepository(db *mongo.Database) *RevisionRepository {
	return &RevisionRepository{col: db.Collection("product_revisions")}
}

func (r *RevisionRepository) Insert(ctx context.Context, rev *models.Revision) error {
	if rev.CreatedAt.IsZero() {
		rev.CreatedAt = time.Now()
	}
	res, err := r.col.InsertOne(ctx, rev)
	if err != nil {
		return err
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		rev.ID = id
	}
	return nil
}

func (r *RevisionRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Revision, error) {
	var rev models.Revision
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&rev); err != nil {
		return nil, translate(err)
	}
	return &rev, nil
}

// ListByProduct returns revisions newest first, optionally for one field.
func (r *RevisionRepository) ListByProduct(ctx context.Context, productID primitive.ObjectID, field *models.RevisionField) ([]models.Revision, error) {
	filter := bson.M{"product_id": productID}
	if field != nil {
		filter["field"] = *field
	}
	findOpts := options.Find().SetSort(bson.D{
		{Key: "created_at", Value: -1},
		{Key: "_id", Value: -1},
	})
	cur, err := r.col.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	results := []models.Revision{}
	for cur.Next(ctx) {
		var rev models.Revision
		if err := cur.Decode(&rev); err != nil {
			return nil, err
		}
		results = append(results, rev)
	}
	return results, cur.Err()
}
