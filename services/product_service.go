package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"social-pilot/apperr"
	"social-pilot/briefimport"
	"social-pilot/internal/logger"
	"social-pilot/models"
	"social-pilot/providers"
	"social-pilot/repositories"
)

type ProductStore interface {
	Create(ctx context.Context, p *models.Product) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	List(ctx context.Context) ([]models.Product, error)
	UpdateDetails(ctx context.Context, p *models.Product) error
}

type ContentWriter interface {
	Write(ctx context.Context, p *models.Product, field models.RevisionField, content string, source models.RevisionSource) error
	WriteProfile(ctx context.Context, p *models.Product, profile models.Profile, source models.RevisionSource) error
	WriteStrategy(ctx context.Context, p *models.Product, strategy models.Strategy, source models.RevisionSource) error
}

type ExtractionTrigger interface {
	Trigger(ctx context.Context, productID primitive.ObjectID) (models.ExtractionStatus, error)
}

type BriefImporter interface {
	Import(ctx context.Context, pageURL, feedURL string) (*briefimport.Result, error)
}

// ProductService covers product creation and the edits that feed extraction.
type ProductService struct {
	products   ProductStore
	writer     ContentWriter
	extraction ExtractionTrigger
	importer   BriefImporter
}

func NewProductService(products ProductStore, writer ContentWriter, extraction ExtractionTrigger, importer BriefImporter) *ProductService {
	return &ProductService{products: products, writer: writer, extraction: extraction, importer: importer}
}

type CreateProductInput struct {
	Name          string
	Description   string
	Brief         string
	BriefFileName string
	URL           string
	FeedURL       string
	Screenshots   []string
	TextProvider  string
}

// Create stores a product and queues extraction when a brief is present.
func (s *ProductService) Create(ctx context.Context, in CreateProductInput) (*models.Product, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperr.Validation("name required")
	}
	provider := strings.ToLower(strings.TrimSpace(in.TextProvider))
	if provider != "" && !providers.Known(provider) {
		return nil, apperr.Validation("Unknown text provider: " + in.TextProvider)
	}
	p := &models.Product{
		Name:          name,
		Description:   strings.TrimSpace(in.Description),
		Brief:         strings.TrimSpace(in.Brief),
		BriefFileName: in.BriefFileName,
		URL:           strings.TrimSpace(in.URL),
		FeedURL:       strings.TrimSpace(in.FeedURL),
		Screenshots:   cleanPaths(in.Screenshots),
		TextProvider:  provider,
	}
	if err := s.products.Create(ctx, p); err != nil {
		return nil, err
	}
	if p.Brief != "" {
		s.retrigger(ctx, p)
	}
	return p, nil
}

func (s *ProductService) Get(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	p, err := s.products.GetByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, apperr.NotFound("Product not found")
	}
	return p, err
}

func (s *ProductService) List(ctx context.Context) ([]models.Product, error) {
	return s.products.List(ctx)
}

// UpdateBrief replaces the brief (revision source manual) and re-extracts.
func (s *ProductService) UpdateBrief(ctx context.Context, id primitive.ObjectID, brief, fileName string) (*models.Product, error) {
	brief = strings.TrimSpace(brief)
	if brief == "" {
		return nil, apperr.Validation("brief required")
	}
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	p.BriefFileName = fileName
	if err := s.writer.Write(ctx, p, models.FieldBrief, brief, models.SourceManual); err != nil {
		return nil, err
	}
	s.retrigger(ctx, p)
	return p, nil
}

// ImportBrief builds the brief from the landing page and feed. Empty URLs
// fall back to the ones stored on the product; given ones are saved.
func (s *ProductService) ImportBrief(ctx context.Context, id primitive.ObjectID, pageURL, feedURL string) (*models.Product, *briefimport.Result, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	pageURL, feedURL = strings.TrimSpace(pageURL), strings.TrimSpace(feedURL)
	if pageURL == "" {
		pageURL = p.URL
	}
	if feedURL == "" {
		feedURL = p.FeedURL
	}
	res, err := s.importer.Import(ctx, pageURL, feedURL)
	if err != nil {
		return nil, nil, err
	}
	if pageURL != p.URL || feedURL != p.FeedURL {
		p.URL, p.FeedURL = pageURL, feedURL
		if err := s.products.UpdateDetails(ctx, p); err != nil {
			return nil, nil, err
		}
	}
	p.BriefFileName = ""
	if err := s.writer.Write(ctx, p, models.FieldBrief, res.Brief, models.SourceImport); err != nil {
		return nil, nil, err
	}
	s.retrigger(ctx, p)
	return p, res, nil
}

// UpdateProfile replaces the app profile from a JSON document.
func (s *ProductService) UpdateProfile(ctx context.Context, id primitive.ObjectID, raw json.RawMessage) (*models.Product, error) {
	profile, err := models.ParseProfile(raw)
	if err != nil {
		return nil, apperr.Validation("Invalid profile content")
	}
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.writer.WriteProfile(ctx, p, profile, models.SourceManual); err != nil {
		return nil, err
	}
	return p, nil
}

// UpdateStrategy replaces the marketing strategy from a JSON document.
// Legacy string hooks are accepted.
func (s *ProductService) UpdateStrategy(ctx context.Context, id primitive.ObjectID, raw json.RawMessage) (*models.Product, error) {
	strategy, err := models.ParseStrategy(raw)
	if err != nil {
		return nil, apperr.Validation("Invalid strategy content")
	}
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.writer.WriteStrategy(ctx, p, strategy, models.SourceManual); err != nil {
		return nil, err
	}
	return p, nil
}

// retrigger queues extraction after a brief change. A queue failure is
// recorded on the product by the trigger and does not fail the edit.
func (s *ProductService) retrigger(ctx context.Context, p *models.Product) {
	status, err := s.extraction.Trigger(ctx, p.ID)
	if err != nil {
		logger.WarnWithFields("extraction trigger failed", logger.Fields{"product_id": p.ID.Hex(), "error": err.Error()})
		p.ExtractionStatus = models.ExtractionFailed
		p.ExtractionError = apperr.Reason(err)
		return
	}
	p.ExtractionStatus = status
	p.ExtractionError = ""
}

func cleanPaths(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
