// Package extraction turns a product brief and screenshots into a stored
// profile and strategy. Runs are queued and tracked through the product's
// extraction status.
package extraction

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"social-pilot/apperr"
	"social-pilot/brain"
	"social-pilot/events"
	"social-pilot/imageprep"
	"social-pilot/internal/logger"
	"social-pilot/internal/trace"
	"social-pilot/models"
	"social-pilot/parser"
	"social-pilot/providers"
	"social-pilot/repositories"
)

const (
	extractionTemperature = 0.3
	extractionMaxTokens   = 4096
)

// ErrClaimHeld means another run owns the product's extraction lease.
var ErrClaimHeld = errors.New("extraction already running")

type ProductStore interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	ClaimExtraction(ctx context.Context, id primitive.ObjectID, now, staleBefore time.Time) error
	SetExtractionStatus(ctx context.Context, id primitive.ObjectID, status models.ExtractionStatus, errMsg string) error
}

// ContentWriter persists extracted values with revision history.
type ContentWriter interface {
	WriteProfile(ctx context.Context, p *models.Product, profile models.Profile, source models.RevisionSource) error
	WriteStrategy(ctx context.Context, p *models.Product, strategy models.Strategy, source models.RevisionSource) error
}

type ImagePreparer interface {
	Prepare(ctx context.Context, paths []string, opts imageprep.Options) ([]imageprep.Prepared, error)
}

type ProviderResolver interface {
	Resolve(ctx context.Context, preferred string, settings providers.SettingsReader) (providers.TextProvider, error)
}

type Options struct {
	Images imageprep.Options
	// Lease is how long a claim blocks other runs.
	Lease time.Duration
}

type Pipeline struct {
	products ProductStore
	writer   ContentWriter
	images   ImagePreparer
	resolver ProviderResolver
	settings providers.SettingsReader
	auditor  *providers.Auditor
	events   *events.Dispatcher
	opts     Options
	now      func() time.Time
}

func NewPipeline(products ProductStore, writer ContentWriter, images ImagePreparer, resolver ProviderResolver,
	settings providers.SettingsReader, auditor *providers.Auditor, dispatcher *events.Dispatcher, opts Options) *Pipeline {
	if opts.Lease <= 0 {
		opts.Lease = 10 * time.Minute
	}
	return &Pipeline{
		products: products,
		writer:   writer,
		images:   images,
		resolver: resolver,
		settings: settings,
		auditor:  auditor,
		events:   dispatcher,
		opts:     opts,
		now:      time.Now,
	}
}

type extractionReply struct {
	AppProfile        json.RawMessage `json:"appProfile"`
	MarketingStrategy json.RawMessage `json:"marketingStrategy"`
}

// Run executes one extraction. Failures are recorded on the product as
// status failed and are not returned; the returned error is ErrClaimHeld or
// a storage failure that left the status unrecorded.
func (p *Pipeline) Run(ctx context.Context, productID primitive.ObjectID) error {
	ctx = trace.Background(ctx)
	fields := logger.Fields{"request_id": trace.RequestIDFromContext(ctx), "product_id": productID.Hex()}

	now := p.now()
	if err := p.products.ClaimExtraction(ctx, productID, now, now.Add(-p.opts.Lease)); err != nil {
		switch {
		case errors.Is(err, repositories.ErrConflict):
			logger.InfoWithFields("extraction already running, skip", fields)
			return ErrClaimHeld
		case errors.Is(err, repositories.ErrNotFound):
			logger.WarnWithFields("extraction requested for missing product", fields)
			return nil
		}
		return fmt.Errorf("claim extraction: %w", err)
	}

	product, err := p.products.GetByID(ctx, productID)
	if err != nil {
		return p.fail(ctx, productID, fields, fmt.Errorf("load product: %w", err))
	}

	provider, err := p.extract(ctx, product, fields)
	if err != nil {
		return p.fail(ctx, productID, fields, err)
	}

	if err := p.products.SetExtractionStatus(ctx, productID, models.ExtractionDone, ""); err != nil {
		return fmt.Errorf("set extraction done: %w", err)
	}
	logger.InfoWithFields("extraction completed", fields)
	p.events.ExtractionCompleted(ctx, productID, provider)
	return nil
}

func (p *Pipeline) extract(ctx context.Context, product *models.Product, fields logger.Fields) (string, error) {
	if product.Brief == "" {
		return "", apperr.Validation("No brief stored, upload one first")
	}

	provider, err := p.resolver.Resolve(ctx, product.TextProvider, p.settings)
	if err != nil {
		return "", err
	}
	provider = p.auditor.Wrap(provider, models.PurposeExtraction, product.ID)
	fields["provider"] = provider.Name()

	var prepared []imageprep.Prepared
	if p.images != nil && len(product.Screenshots) > 0 {
		prepared, err = p.images.Prepare(ctx, product.Screenshots, p.opts.Images)
		if err != nil {
			return "", fmt.Errorf("prepare screenshots: %w", err)
		}
	}
	images := make([]providers.Image, len(prepared))
	for i, img := range prepared {
		images[i] = providers.Image{Base64: img.Base64, MIMEType: "image/jpeg"}
	}
	fields["screenshots"] = len(images)
	logger.InfoWithFields("extraction started", fields)

	system, user := brain.BuildExtractionPrompt(brain.ExtractionInput{
		Name:            product.Name,
		Description:     product.Description,
		Brief:           product.Brief,
		ScreenshotCount: len(images),
	})
	resp, err := provider.Generate(ctx, providers.TextRequest{
		System:          system,
		User:            user,
		Images:          images,
		MaxOutputTokens: extractionMaxTokens,
		Temperature:     extractionTemperature,
	})
	if err != nil {
		return "", providers.FriendlyError(err)
	}

	reply, err := parser.DecodeObject[extractionReply](resp.Text)
	if err != nil {
		return "", apperr.Parse("Failed to parse extraction response", err)
	}
	if len(reply.AppProfile) == 0 || len(reply.MarketingStrategy) == 0 {
		return "", apperr.Parse("Extraction response missing appProfile or marketingStrategy", nil)
	}
	profile, err := models.ParseProfile(reply.AppProfile)
	if err != nil {
		return "", apperr.Parse("Failed to parse extracted profile", err)
	}
	strategy, err := models.ParseStrategy(reply.MarketingStrategy)
	if err != nil {
		return "", apperr.Parse("Failed to parse extracted strategy", err)
	}
	FillVisualIdentity(&profile, strategy)

	if err := p.writer.WriteProfile(ctx, product, profile, models.SourceExtraction); err != nil {
		return "", fmt.Errorf("store profile: %w", err)
	}
	if err := p.writer.WriteStrategy(ctx, product, strategy, models.SourceExtraction); err != nil {
		return "", fmt.Errorf("store strategy: %w", err)
	}
	return provider.Name(), nil
}

// fail records the failure. The status write outlives ctx cancellation.
func (p *Pipeline) fail(ctx context.Context, productID primitive.ObjectID, fields logger.Fields, cause error) error {
	reason := apperr.Reason(cause)
	fields["error"] = cause.Error()
	logger.ErrorWithFields("extraction failed", fields)

	if err := p.products.SetExtractionStatus(context.WithoutCancel(ctx), productID, models.ExtractionFailed, reason); err != nil {
		return fmt.Errorf("set extraction failed: %w", err)
	}
	p.events.ExtractionFailed(ctx, productID, reason)
	return nil
}
