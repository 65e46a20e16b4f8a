package extraction

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"social-pilot/eventbus"
	"social-pilot/events"
	"social-pilot/internal/logger"
)

// KafkaQueue publishes extraction.requested events for cmd/worker.
type KafkaQueue struct {
	dispatcher *events.Dispatcher
}

func NewKafkaQueue(dispatcher *events.Dispatcher) *KafkaQueue {
	return &KafkaQueue{dispatcher: dispatcher}
}

func (q *KafkaQueue) Enqueue(ctx context.Context, productID primitive.ObjectID) error {
	return q.dispatcher.RequestExtraction(ctx, productID)
}

// EventHandler returns the consumer side of KafkaQueue. Returning an error
// sends the event to the retry topics. A held claim is retried too: the
// trigger may carry a brief edit the running extraction never read.
func EventHandler(run RunFunc) eventbus.EventHandler {
	return func(ctx context.Context, evt eventbus.Event) error {
		typ, err := events.PeekType(evt)
		if err != nil {
			return err
		}
		if typ != events.ExtractionRequested {
			return nil
		}
		req, err := eventbus.DecodeJSON[events.ExtractionRequestedEvent](evt)
		if err != nil {
			return err
		}
		err = run(ctx, req.ProductID)
		if errors.Is(err, ErrClaimHeld) {
			logger.Log.Infof("extraction for %s already running elsewhere, retry event %s later", req.ProductID.Hex(), evt.ID)
			return fmt.Errorf("product %s: %w", req.ProductID.Hex(), err)
		}
		return err
	}
}
