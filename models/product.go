package models

import (
	"encoding/json"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ExtractionStatus string

const (
	ExtractionNone       ExtractionStatus = "none"
	ExtractionPending    ExtractionStatus = "pending"
	ExtractionExtracting ExtractionStatus = "extracting"
	ExtractionDone       ExtractionStatus = "done"
	ExtractionFailed     ExtractionStatus = "failed"
)

// Product is a marketable entity.
// Collection: products
type Product struct {
	ID                  primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Name                string              `bson:"name" json:"name"`
	Description         string              `bson:"description" json:"description"`
	Brief               string              `bson:"brief" json:"brief"`
	BriefFileName       string              `bson:"brief_file_name,omitempty" json:"briefFileName,omitempty"`
	URL                 string              `bson:"url,omitempty" json:"url,omitempty"`
	FeedURL             string              `bson:"feed_url,omitempty" json:"feedUrl,omitempty"`
	Screenshots         []string            `bson:"screenshots" json:"screenshots"`
	Profile             *Profile            `bson:"profile,omitempty" json:"profile"`
	Strategy            *Strategy           `bson:"strategy,omitempty" json:"strategy"`
	ExtractionStatus    ExtractionStatus    `bson:"extraction_status" json:"extractionStatus"`
	ExtractionError     string              `bson:"extraction_error,omitempty" json:"extractionError,omitempty"`
	ExtractionStartedAt *time.Time          `bson:"extraction_started_at,omitempty" json:"extractionStartedAt,omitempty"`
	TextProvider        string              `bson:"text_provider,omitempty" json:"textProvider,omitempty"`
	InstagramAccountID  *primitive.ObjectID `bson:"instagram_account_id,omitempty" json:"instagramAccountId,omitempty"`
	XAccountID          *primitive.ObjectID `bson:"x_account_id,omitempty" json:"xAccountId,omitempty"`
	CreatedAt           time.Time           `bson:"created_at" json:"createdAt"`
	UpdatedAt           time.Time           `bson:"updated_at" json:"updatedAt"`
}

// Normalize is applied once when a product is read from storage.
func (p *Product) Normalize() {
	if p.ExtractionStatus == "" {
		p.ExtractionStatus = ExtractionNone
	}
	if p.Screenshots == nil {
		p.Screenshots = []string{}
	}
	if p.Profile != nil {
		p.Profile.Normalize()
	}
	if p.Strategy != nil {
		p.Strategy.Normalize()
	}
}

// AccountIDFor returns the linked account for a platform, if any.
func (p *Product) AccountIDFor(platform Platform) *primitive.ObjectID {
	switch platform {
	case PlatformInstagram:
		return p.InstagramAccountID
	case PlatformTwitter:
		return p.XAccountID
	}
	return nil
}

// FieldContent renders a versioned field as stored in revisions: the brief
// as plain text, profile and strategy as JSON. A missing value is "".
func (p *Product) FieldContent(field RevisionField) (string, error) {
	switch field {
	case FieldBrief:
		return p.Brief, nil
	case FieldProfile:
		if p.Profile == nil {
			return "", nil
		}
		return marshalContent(p.Profile)
	case FieldStrategy:
		if p.Strategy == nil {
			return "", nil
		}
		return marshalContent(p.Strategy)
	}
	return "", fmt.Errorf("unknown revision field %q", field)
}

// SetFieldContent is the inverse of FieldContent.
func (p *Product) SetFieldContent(field RevisionField, content string) error {
	switch field {
	case FieldBrief:
		p.Brief = content
		return nil
	case FieldProfile:
		if content == "" {
			p.Profile = nil
			return nil
		}
		profile, err := ParseProfile([]byte(content))
		if err != nil {
			return err
		}
		p.Profile = &profile
		return nil
	case FieldStrategy:
		if content == "" {
			p.Strategy = nil
			return nil
		}
		strategy, err := ParseStrategy([]byte(content))
		if err != nil {
			return err
		}
		p.Strategy = &strategy
		return nil
	}
	return fmt.Errorf("unknown revision field %q", field)
}

func marshalContent(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
