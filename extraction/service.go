package extraction

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"social-pilot/apperr"
	"social-pilot/models"
	"social-pilot/repositories"
)

type TriggerStore interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	SetExtractionStatus(ctx context.Context, id primitive.ObjectID, status models.ExtractionStatus, errMsg string) error
}

// Service validates and queues extraction requests.
type Service struct {
	products TriggerStore
	queue    Queue
}

func NewService(products TriggerStore, queue Queue) *Service {
	return &Service{products: products, queue: queue}
}

// Trigger marks the product pending and queues a run. It returns as soon
// as the task is queued.
func (s *Service) Trigger(ctx context.Context, productID primitive.ObjectID) (models.ExtractionStatus, error) {
	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return "", apperr.NotFound("Product not found")
		}
		return "", err
	}
	if p.Brief == "" {
		return "", apperr.Validation("No brief stored, upload one first")
	}
	if err := s.products.SetExtractionStatus(ctx, productID, models.ExtractionPending, ""); err != nil {
		return "", err
	}
	if err := s.queue.Enqueue(ctx, productID); err != nil {
		_ = s.products.SetExtractionStatus(context.WithoutCancel(ctx), productID, models.ExtractionFailed, "Failed to queue extraction")
		return "", apperr.Upstream("Failed to queue extraction", err)
	}
	return models.ExtractionPending, nil
}
