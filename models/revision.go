package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RevisionField string

const (
	FieldBrief    RevisionField = "brief"
	FieldProfile  RevisionField = "profile"
	FieldStrategy RevisionField = "strategy"
)

func ParseRevisionField(s string) (RevisionField, bool) {
	switch RevisionField(s) {
	case FieldBrief, FieldProfile, FieldStrategy:
		return RevisionField(s), true
	}
	return "", false
}

type RevisionSource string

const (
	SourceManual     RevisionSource = "manual"
	SourceExtraction RevisionSource = "extraction"
	SourceImport     RevisionSource = "import"
)

// Revision is an immutable snapshot of a field value before it was overwritten.
// Collection: product_revisions
type Revision struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ProductID    primitive.ObjectID `bson:"product_id" json:"productId"`
	Field        RevisionField      `bson:"field" json:"field"`
	Content      string             `bson:"content" json:"content"`
	TextProvider string             `bson:"text_provider,omitempty" json:"textProvider,omitempty"`
	Source       RevisionSource     `bson:"source" json:"source"`
	CreatedAt    time.Time          `bson:"created_at" json:"createdAt"`
}
