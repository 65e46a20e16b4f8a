// Package revisions keeps a history of brief, profile and strategy values
// by snapshotting the old value before every overwrite.
package revisions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"social-pilot/apperr"
	"social-pilot/models"
	"social-pilot/repositories"
)

type RevisionStore interface {
	Insert(ctx context.Context, rev *models.Revision) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Revision, error)
	ListByProduct(ctx context.Context, productID primitive.ObjectID, field *models.RevisionField) ([]models.Revision, error)
}

type ProductStore interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	SaveContent(ctx context.Context, p *models.Product, fields ...models.RevisionField) error
}

type Snapshotter struct {
	revisions RevisionStore
	products  ProductStore
	now       func() time.Time
}

func NewSnapshotter(revisions RevisionStore, products ProductStore) *Snapshotter {
	return &Snapshotter{revisions: revisions, products: products, now: time.Now}
}

// Capture stores the current value of field when it is non-empty and
// differs from newContent. It returns nil when nothing was stored.
func (s *Snapshotter) Capture(ctx context.Context, p *models.Product, field models.RevisionField, newContent string, source models.RevisionSource) (*models.Revision, error) {
	old, err := p.FieldContent(field)
	if err != nil {
		return nil, err
	}
	if old == "" || old == newContent {
		return nil, nil
	}
	rev := &models.Revision{
		ProductID:    p.ID,
		Field:        field,
		Content:      old,
		TextProvider: p.TextProvider,
		Source:       source,
		CreatedAt:    s.now(),
	}
	if err := s.revisions.Insert(ctx, rev); err != nil {
		return nil, fmt.Errorf("insert revision: %w", err)
	}
	return rev, nil
}

// Write snapshots the old value, applies content to p and persists it.
// content uses the FieldContent format.
func (s *Snapshotter) Write(ctx context.Context, p *models.Product, field models.RevisionField, content string, source models.RevisionSource) error {
	canonical, err := canonicalize(field, content)
	if err != nil {
		return apperr.Validation(fmt.Sprintf("Invalid %s content", field))
	}
	if _, err := s.Capture(ctx, p, field, canonical, source); err != nil {
		return err
	}
	if err := p.SetFieldContent(field, canonical); err != nil {
		return apperr.Validation(fmt.Sprintf("Invalid %s content", field))
	}
	return s.products.SaveContent(ctx, p, field)
}

// WriteProfile is Write for an already decoded profile.
func (s *Snapshotter) WriteProfile(ctx context.Context, p *models.Product, profile models.Profile, source models.RevisionSource) error {
	profile.Normalize()
	next := &models.Product{Profile: &profile}
	content, err := next.FieldContent(models.FieldProfile)
	if err != nil {
		return err
	}
	return s.Write(ctx, p, models.FieldProfile, content, source)
}

// WriteStrategy is Write for an already decoded strategy.
func (s *Snapshotter) WriteStrategy(ctx context.Context, p *models.Product, strategy models.Strategy, source models.RevisionSource) error {
	strategy.Normalize()
	next := &models.Product{Strategy: &strategy}
	content, err := next.FieldContent(models.FieldStrategy)
	if err != nil {
		return err
	}
	return s.Write(ctx, p, models.FieldStrategy, content, source)
}

// List returns a product's revisions, newest first.
func (s *Snapshotter) List(ctx context.Context, productID primitive.ObjectID, field *models.RevisionField) ([]models.Revision, error) {
	if _, err := s.products.GetByID(ctx, productID); err != nil {
		return nil, notFound(err, "Product not found")
	}
	return s.revisions.ListByProduct(ctx, productID, field)
}

// Revert restores a revision's content through Write, so the value being
// replaced becomes a revision too.
func (s *Snapshotter) Revert(ctx context.Context, productID, revisionID primitive.ObjectID) (*models.Product, error) {
	rev, err := s.revisions.GetByID(ctx, revisionID)
	if err != nil {
		return nil, notFound(err, "Revision not found")
	}
	if rev.ProductID != productID {
		return nil, apperr.NotFound("Revision not found")
	}
	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, notFound(err, "Product not found")
	}
	if err := s.Write(ctx, p, rev.Field, rev.Content, models.SourceManual); err != nil {
		return nil, err
	}
	return p, nil
}

// canonicalize re-encodes JSON fields so equal values compare equal.
func canonicalize(field models.RevisionField, content string) (string, error) {
	if field == models.FieldBrief || content == "" {
		return content, nil
	}
	tmp := &models.Product{}
	if err := tmp.SetFieldContent(field, content); err != nil {
		return "", err
	}
	return tmp.FieldContent(field)
}

func notFound(err error, msg string) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return apperr.NotFound(msg)
	}
	return err
}
