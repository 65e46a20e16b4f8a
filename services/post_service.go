package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"social-pilot/apperr"
	"social-pilot/models"
	"social-pilot/repositories"
)

type PostStore interface {
	Create(ctx context.Context, p *models.Post) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Post, error)
	ListByProduct(ctx context.Context, productID primitive.ObjectID) ([]models.Post, error)
	UpdateEditable(ctx context.Context, p *models.Post) error
}

type ProductReader interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
}

// PostService stores generated posts and moves them through draft,
// approved and scheduled. Only publishing sets posted.
type PostService struct {
	posts    PostStore
	products ProductReader
}

func NewPostService(posts PostStore, products ProductReader) *PostService {
	return &PostService{posts: posts, products: products}
}

type CreatePostInput struct {
	ProductID      primitive.ObjectID
	Platform       models.Platform
	Type           models.ContentType
	Content        string
	Hashtags       []string
	MediaURL       string
	PublicMediaURL string
	Status         models.PostStatus
	ScheduledAt    *time.Time
	Provenance     models.Provenance
}

func (s *PostService) Create(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	if strings.TrimSpace(in.Content) == "" {
		return nil, apperr.Validation("content required")
	}
	platform, ok := models.ParsePlatform(string(in.Platform))
	if !ok {
		return nil, apperr.Validation("Invalid platform")
	}
	contentType, ok := models.ParseContentType(string(in.Type))
	if !ok {
		return nil, apperr.Validation("Invalid content type")
	}
	if _, err := s.products.GetByID(ctx, in.ProductID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperr.NotFound("Product not found")
		}
		return nil, err
	}
	if in.Status == "" {
		in.Status = models.StatusDraft
	}
	p := &models.Post{
		ProductID:      in.ProductID,
		Platform:       platform,
		Type:           contentType,
		Content:        in.Content,
		Hashtags:       in.Hashtags,
		MediaURL:       in.MediaURL,
		PublicMediaURL: in.PublicMediaURL,
		Status:         models.StatusDraft,
		ScheduledAt:    in.ScheduledAt,
		Provenance:     in.Provenance,
	}
	if err := checkTransition(p, in.Status); err != nil {
		return nil, err
	}
	p.Status = in.Status
	if p.Hashtags == nil {
		p.Hashtags = []string{}
	}
	if err := s.posts.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *PostService) Get(ctx context.Context, id primitive.ObjectID) (*models.Post, error) {
	p, err := s.posts.GetByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, apperr.NotFound("Post not found")
	}
	return p, err
}

func (s *PostService) ListByProduct(ctx context.Context, productID primitive.ObjectID) ([]models.Post, error) {
	return s.posts.ListByProduct(ctx, productID)
}

// UpdatePostInput holds optional edits; nil fields are left as they are.
type UpdatePostInput struct {
	Content        *string
	Hashtags       []string
	MediaURL       *string
	PublicMediaURL *string
	Status         *models.PostStatus
	ScheduledAt    *time.Time
	ClearSchedule  bool
}

func (in UpdatePostInput) editsContent() bool {
	return in.Content != nil || in.Hashtags != nil || in.MediaURL != nil || in.PublicMediaURL != nil
}

func (s *PostService) Update(ctx context.Context, id primitive.ObjectID, in UpdatePostInput) (*models.Post, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Status == models.StatusPosted {
		return nil, apperr.Conflict("Posted posts cannot be edited")
	}
	if in.editsContent() && p.Status != models.StatusDraft && (in.Status == nil || *in.Status != models.StatusDraft) {
		return nil, apperr.Conflict("Only draft posts can be edited, move the post back to draft first")
	}
	if in.Content != nil {
		if strings.TrimSpace(*in.Content) == "" {
			return nil, apperr.Validation("content required")
		}
		p.Content = *in.Content
	}
	if in.Hashtags != nil {
		p.Hashtags = in.Hashtags
	}
	if in.MediaURL != nil {
		p.MediaURL = *in.MediaURL
	}
	if in.PublicMediaURL != nil {
		p.PublicMediaURL = *in.PublicMediaURL
	}
	switch {
	case in.ClearSchedule:
		p.ScheduledAt = nil
	case in.ScheduledAt != nil:
		p.ScheduledAt = in.ScheduledAt
	}
	next := p.Status
	if in.Status != nil {
		next = *in.Status
	}
	// 일정이 지워진 scheduled 포스트는 approved 로 되돌린다.
	if next == models.StatusScheduled && p.ScheduledAt == nil && in.Status == nil {
		next = models.StatusApproved
	}
	if err := checkTransition(p, next); err != nil {
		return nil, err
	}
	p.Status = next

	if err := s.posts.UpdateEditable(ctx, p); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			return nil, apperr.Conflict("Posted posts cannot be edited")
		}
		return nil, err
	}
	return p, nil
}

func checkTransition(p *models.Post, to models.PostStatus) error {
	if to == models.StatusPosted {
		return apperr.Validation("Posts become posted only by publishing")
	}
	if to == p.Status && to != models.StatusScheduled {
		return nil
	}
	if !p.CanTransition(to) {
		if to == models.StatusScheduled {
			return apperr.Validation("scheduledAt required for scheduled posts")
		}
		return apperr.Validation("Invalid status: " + string(to))
	}
	return nil
}
