// Package publishing moves approved posts onto their platform exactly once.
package publishing

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"social-pilot/apperr"
	"social-pilot/events"
	"social-pilot/internal/logger"
	"social-pilot/internal/trace"
	"social-pilot/models"
	"social-pilot/repositories"
)

// DefaultLeaseTTL is how long a publish attempt blocks another one.
const DefaultLeaseTTL = 15 * time.Minute

type PostStore interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Post, error)
	BeginPublishAttempt(ctx context.Context, id primitive.ObjectID, key string, now, staleBefore time.Time) error
	MarkPosted(ctx context.Context, id primitive.ObjectID, key, platformPostID string, postedAt time.Time) error
	FailPublishAttempt(ctx context.Context, id primitive.ObjectID, key, errMsg string) error
}

type ProductStore interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
}

type AccountStore interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Account, error)
}

// Publisher is one platform's posting flow.
type Publisher interface {
	// Check validates the post against platform rules without network calls.
	Check(post *models.Post) error
	Publish(ctx context.Context, post *models.Post, acc *models.Account) (platformPostID string, err error)
}

type Service struct {
	posts      PostStore
	products   ProductStore
	accounts   AccountStore
	publishers map[models.Platform]Publisher
	events     *events.Dispatcher
	leaseTTL   time.Duration
	now        func() time.Time
}

func NewService(posts PostStore, products ProductStore, accounts AccountStore, publishers map[models.Platform]Publisher, dispatcher *events.Dispatcher) *Service {
	return &Service{
		posts:      posts,
		products:   products,
		accounts:   accounts,
		publishers: publishers,
		events:     dispatcher,
		leaseTTL:   DefaultLeaseTTL,
		now:        time.Now,
	}
}

func platformLabel(p models.Platform) string {
	if p == models.PlatformTwitter {
		return "X"
	}
	return "Instagram"
}

// Publish sends a post to the platform it was written for.
func (s *Service) Publish(ctx context.Context, postID primitive.ObjectID) (*models.Post, error) {
	return s.publish(ctx, postID, "")
}

// PublishTo is Publish for a platform-specific route; the post must target platform.
func (s *Service) PublishTo(ctx context.Context, postID primitive.ObjectID, platform models.Platform) (*models.Post, error) {
	return s.publish(ctx, postID, platform)
}

func (s *Service) publish(ctx context.Context, postID primitive.ObjectID, want models.Platform) (*models.Post, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, apperr.NotFound("Post not found")
	}
	if err != nil {
		return nil, err
	}
	if post.Status == models.StatusPosted {
		return nil, apperr.Conflict("Already posted")
	}
	if want != "" && post.Platform != want {
		return nil, apperr.Validation("This post is not set to " + platformLabel(want) + " platform")
	}

	pub, ok := s.publishers[post.Platform]
	if !ok {
		return nil, apperr.Validation("Publishing to " + string(post.Platform) + " is not supported")
	}

	acc, err := s.linkedAccount(ctx, post)
	if err != nil {
		return nil, err
	}
	if err := pub.Check(post); err != nil {
		return nil, err
	}

	key := uuid.NewString()
	now := s.now()
	if err := s.posts.BeginPublishAttempt(ctx, post.ID, key, now, now.Add(-s.leaseTTL)); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			return nil, s.explainConflict(ctx, post.ID)
		}
		return nil, err
	}

	fields := logger.Fields{
		"post_id":     post.ID.Hex(),
		"platform":    string(post.Platform),
		"attempt_key": key,
		"request_id":  trace.RequestIDFromContext(ctx),
	}

	platformID, err := pub.Publish(ctx, post, acc)
	// 플랫폼 호출 이후의 기록은 요청이 취소되어도 남겨야 한다.
	wctx := context.WithoutCancel(ctx)
	if err != nil {
		reason := apperr.Reason(err)
		if ferr := s.posts.FailPublishAttempt(wctx, post.ID, key, reason); ferr != nil {
			fields["store_error"] = ferr.Error()
		}
		fields["error"] = err.Error()
		logger.ErrorWithFields("publish failed", fields)
		post.LastError = reason
		s.events.PostPublishFailed(wctx, post, reason)
		if apperr.KindOf(err) == apperr.KindInternal {
			return nil, apperr.Upstream("Failed to post to "+platformLabel(post.Platform), err)
		}
		return nil, err
	}

	fields["platform_post_id"] = platformID
	postedAt := s.now()
	if err := s.posts.MarkPosted(wctx, post.ID, key, platformID, postedAt); err != nil {
		// 플랫폼에는 올라갔지만 로컬 기록이 실패했다. lease 가 만료될 때까지 재시도가 막힌다.
		fields["error"] = err.Error()
		logger.ErrorWithFields("published but failed to record, reconcile manually", fields)
		return nil, apperr.Upstream("Posted to "+platformLabel(post.Platform)+" but failed to record it", err)
	}
	logger.InfoWithFields("post published", fields)

	post.Status = models.StatusPosted
	post.PlatformPostID = platformID
	post.PostedAt = &postedAt
	post.LastError = ""
	post.PublishAttempt = nil
	s.events.PostPublished(wctx, post)
	return post, nil
}

func (s *Service) linkedAccount(ctx context.Context, post *models.Post) (*models.Account, error) {
	label := platformLabel(post.Platform)
	product, err := s.products.GetByID(ctx, post.ProductID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, apperr.NotFound("Product not found")
	}
	if err != nil {
		return nil, err
	}
	accID := product.AccountIDFor(post.Platform)
	if accID == nil {
		return nil, apperr.Validation("No " + label + " account linked to this product")
	}
	acc, err := s.accounts.GetByID(ctx, *accID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, apperr.Validation("Linked " + label + " account not found")
	}
	if err != nil {
		return nil, err
	}
	return acc, nil
}

// explainConflict distinguishes a post that finished in between from a live lease.
func (s *Service) explainConflict(ctx context.Context, id primitive.ObjectID) error {
	if cur, err := s.posts.GetByID(ctx, id); err == nil && cur.Status == models.StatusPosted {
		return apperr.Conflict("Already posted")
	}
	return apperr.Conflict("Publish already in progress")
}
