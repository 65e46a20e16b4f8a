// Package generation produces candidate posts for a product. Candidates are
// returned to the caller and not stored.
package generation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"social-pilot/apperr"
	"social-pilot/brain"
	"social-pilot/internal/logger"
	"social-pilot/internal/trace"
	"social-pilot/models"
	"social-pilot/parser"
	"social-pilot/providers"
	"social-pilot/repositories"
)

const (
	MaxCount              = 10
	generationTemperature = 0.9
	tokensPerCandidate    = 4096
)

type ProductStore interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
}

type AccountStore interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Account, error)
}

type PostStore interface {
	ListByProduct(ctx context.Context, productID primitive.ObjectID) ([]models.Post, error)
}

type ProviderResolver interface {
	Resolve(ctx context.Context, preferred string, settings providers.SettingsReader) (providers.TextProvider, error)
}

type Request struct {
	ProductID   primitive.ObjectID
	Platform    models.Platform
	ContentType models.ContentType
	Targeting   brain.Targeting
	Count       int
	// Images are extra screenshots sent with this request only.
	Images []providers.Image
}

// Candidate is one generated post, ready to be saved as a draft.
type Candidate struct {
	Platform       models.Platform    `json:"platform"`
	Type           models.ContentType `json:"type"`
	Content        string             `json:"content"`
	Hashtags       []string           `json:"hashtags"`
	MediaURL       string             `json:"mediaUrl,omitempty"`
	PublicMediaURL string             `json:"publicMediaUrl,omitempty"`
	Metadata       models.Provenance  `json:"metadata"`
}

type generatedItem struct {
	Caption     string             `json:"caption"`
	Hashtags    []string           `json:"hashtags"`
	ImagePrompt *brain.ImagePrompt `json:"imagePrompt"`
}

type Service struct {
	products  ProductStore
	accounts  AccountStore
	posts     PostStore
	resolver  ProviderResolver
	settings  providers.SettingsReader
	auditor   *providers.Auditor
	images    providers.ImageProvider
	assembler *brain.Assembler
}

func NewService(products ProductStore, accounts AccountStore, posts PostStore, resolver ProviderResolver,
	settings providers.SettingsReader, auditor *providers.Auditor, images providers.ImageProvider, assembler *brain.Assembler) *Service {
	if assembler == nil {
		assembler = brain.NewAssembler(nil)
	}
	return &Service{
		products:  products,
		accounts:  accounts,
		posts:     posts,
		resolver:  resolver,
		settings:  settings,
		auditor:   auditor,
		images:    images,
		assembler: assembler,
	}
}

// ClampCount keeps a requested variation count within 1..MaxCount.
func ClampCount(n int) int {
	return max(1, min(n, MaxCount))
}

func (s *Service) Generate(ctx context.Context, req Request) ([]Candidate, error) {
	if req.ProductID.IsZero() || req.Platform == "" || req.ContentType == "" {
		return nil, apperr.Validation("productId, platform, and contentType required")
	}
	if req.Targeting.TargetType != "" {
		if _, ok := models.ParseTargetType(string(req.Targeting.TargetType)); !ok {
			return nil, apperr.Validation("targetType must be pain, desire or objection")
		}
	}
	count := ClampCount(req.Count)

	product, err := s.loadProduct(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}
	if product.Profile == nil || product.Strategy == nil {
		return nil, apperr.Validation("Product missing profile or marketingStrategy. Upload a brief first.")
	}

	provider, err := s.resolver.Resolve(ctx, product.TextProvider, s.settings)
	if err != nil {
		return nil, err
	}
	provider = s.auditor.Wrap(provider, models.PurposeGeneration, product.ID)

	prompt := s.assembler.Build(brain.PromptInput{
		Profile:         *product.Profile,
		Strategy:        *product.Strategy,
		ScreenshotCount: len(req.Images),
		Platform:        req.Platform,
		ContentType:     req.ContentType,
		Targeting:       req.Targeting,
		AccountHandle:   s.accountHandle(ctx, product, req.Platform),
		DisplayName:     product.Name,
	})

	fields := logger.Fields{
		"request_id": trace.RequestIDFromContext(ctx),
		"product_id": product.ID.Hex(),
		"provider":   provider.Name(),
		"platform":   string(req.Platform),
		"type":       string(req.ContentType),
		"count":      count,
	}
	logger.InfoWithFields("generation started", fields)

	resp, err := provider.Generate(ctx, providers.TextRequest{
		System:          prompt.System,
		User:            brain.UserInstruction(count),
		Images:          req.Images,
		MaxOutputTokens: tokensPerCandidate * count,
		Temperature:     generationTemperature,
	})
	if err != nil {
		fields["error"] = err.Error()
		logger.ErrorWithFields("generation failed", fields)
		return nil, providers.FriendlyError(err)
	}

	items, err := decodeItems(resp.Text, count)
	if err != nil {
		fields["error"] = err.Error()
		logger.ErrorWithFields("generation reply unparseable", fields)
		return nil, err
	}

	out := make([]Candidate, 0, len(items))
	for _, item := range items {
		caption := parser.SanitizeCaption(item.Caption)
		if caption == "" {
			continue
		}
		c := Candidate{
			Platform: req.Platform,
			Type:     req.ContentType,
			Content:  caption,
			Hashtags: parser.SanitizeHashtags(item.Hashtags),
			Metadata: prompt.Provenance,
		}
		if item.ImagePrompt != nil && strings.TrimSpace(item.ImagePrompt.Scene) != "" {
			s.attachImage(ctx, &c, *item.ImagePrompt, *product, req, fields)
		}
		out = append(out, c)
	}
	if len(out) == 0 {
		return nil, apperr.Parse("Failed to generate any content", nil)
	}
	fields["candidates"] = len(out)
	logger.InfoWithFields("generation completed", fields)
	return out, nil
}

func decodeItems(text string, count int) ([]generatedItem, error) {
	if count > 1 {
		items, err := parser.DecodeList[generatedItem](text)
		if err != nil {
			return nil, apperr.Parse("Failed to parse array response", err)
		}
		return items, nil
	}
	item, err := parser.DecodeObject[generatedItem](text)
	if err != nil {
		return nil, apperr.Parse("Failed to parse response", err)
	}
	return []generatedItem{item}, nil
}

// attachImage renders the candidate's image. A failed render leaves the
// candidate without media.
func (s *Service) attachImage(ctx context.Context, c *Candidate, ip brain.ImagePrompt, product models.Product, req Request, fields logger.Fields) {
	if s.images == nil {
		return
	}
	if ip.AspectRatio == "" {
		ip.AspectRatio = brain.AspectRatio(req.Platform, req.ContentType)
	}
	prompt := brain.BuildImagePrompt(ip, product.Profile.VisualIdentity, product.Strategy.VisualDirection)
	w, h := brain.ImageSize(ip.AspectRatio)

	img, err := s.images.Generate(ctx, prompt, w, h)
	if err != nil {
		logger.WarnWithFields("image generation failed", logger.Fields{
			"request_id": fields["request_id"],
			"product_id": fields["product_id"],
			"error":      err.Error(),
		})
		return
	}
	c.MediaURL = img.LocalPath
	if c.MediaURL == "" {
		c.MediaURL = img.URL
	}
	c.PublicMediaURL = img.URL
}

// accountHandle returns the handle of the account linked for platform, or "" when none.
func (s *Service) accountHandle(ctx context.Context, p *models.Product, platform models.Platform) string {
	id := p.AccountIDFor(platform)
	if id == nil || s.accounts == nil {
		return ""
	}
	acc, err := s.accounts.GetByID(ctx, *id)
	if err != nil {
		if !errors.Is(err, repositories.ErrNotFound) {
			logger.Log.Warnf("load %s account for %s: %v", platform, p.ID.Hex(), err)
		}
		return ""
	}
	return acc.Handle()
}

// Suggestions returns the least-used angles for a product.
func (s *Service) Suggestions(ctx context.Context, productID primitive.ObjectID) (*brain.Suggestions, error) {
	product, err := s.loadProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product.Strategy == nil {
		return nil, apperr.Validation("Product has no marketing strategy")
	}
	posts, err := s.posts.ListByProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	out := brain.Suggest(*product.Strategy, posts)
	return &out, nil
}

func (s *Service) loadProduct(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperr.NotFound("Product not found")
		}
		return nil, err
	}
	return p, nil
}
