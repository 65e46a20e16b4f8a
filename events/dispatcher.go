package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"social-pilot/eventbus"
	"social-pilot/internal/logger"
	"social-pilot/models"
)

// Dispatcher 는 도메인 이벤트를 발행한다. nil 이거나 bus 가 없으면 아무것도 하지 않는다.
type Dispatcher struct {
	bus    eventbus.EventBus
	source string
}

func NewDispatcher(bus eventbus.EventBus, source string) *Dispatcher {
	return &Dispatcher{bus: bus, source: source}
}

func (d *Dispatcher) base(t EventType) BaseEvent {
	return BaseEvent{
		ID:        uuid.New().String(),
		Type:      t,
		Timestamp: time.Now(),
		Source:    d.source,
		Version:   "1.0",
	}
}

func (d *Dispatcher) publish(ctx context.Context, topic eventbus.Topic, id string, payload any) error {
	if d == nil || d.bus == nil {
		return nil
	}
	evt, err := eventbus.NewJSONEvent(id, payload, 0)
	if err != nil {
		return fmt.Errorf("failed to build event: %w", err)
	}
	return d.bus.Publish(ctx, topic.Base(), evt)
}

// RequestExtraction 은 추출 작업을 큐 토픽에 넣는다.
func (d *Dispatcher) RequestExtraction(ctx context.Context, productID primitive.ObjectID) error {
	if d == nil {
		return nil
	}
	e := ExtractionRequestedEvent{BaseEvent: d.base(ExtractionRequested), ProductID: productID}
	return d.publish(ctx, eventbus.TopicExtractionRequests, e.ID, e)
}

func (d *Dispatcher) ExtractionCompleted(ctx context.Context, productID primitive.ObjectID, provider string) {
	if d == nil {
		return
	}
	e := ExtractionCompletedEvent{BaseEvent: d.base(ExtractionCompleted), ProductID: productID, Provider: provider}
	d.notify(ctx, e.ID, e)
}

func (d *Dispatcher) ExtractionFailed(ctx context.Context, productID primitive.ObjectID, reason string) {
	if d == nil {
		return
	}
	e := ExtractionFailedEvent{BaseEvent: d.base(ExtractionFailed), ProductID: productID, Error: reason}
	d.notify(ctx, e.ID, e)
}

func (d *Dispatcher) PostPublished(ctx context.Context, post *models.Post) {
	if d == nil {
		return
	}
	e := PostPublishedEvent{
		BaseEvent:      d.base(PostPublished),
		PostID:         post.ID,
		ProductID:      post.ProductID,
		Platform:       post.Platform,
		PlatformPostID: post.PlatformPostID,
	}
	if post.PostedAt != nil {
		e.PostedAt = *post.PostedAt
	}
	d.notify(ctx, e.ID, e)
}

func (d *Dispatcher) PostPublishFailed(ctx context.Context, post *models.Post, reason string) {
	if d == nil {
		return
	}
	e := PostPublishFailedEvent{
		BaseEvent: d.base(PostPublishFailed),
		PostID:    post.ID,
		ProductID: post.ProductID,
		Platform:  post.Platform,
		Error:     reason,
	}
	d.notify(ctx, e.ID, e)
}

// notify 는 알림성 이벤트라 실패해도 호출자에게 전파하지 않는다.
func (d *Dispatcher) notify(ctx context.Context, id string, payload any) {
	if err := d.publish(context.WithoutCancel(ctx), eventbus.TopicPostEvents, id, payload); err != nil {
		logger.Log.Warnf("failed to publish event %s: %v", id, err)
	}
}

// PeekType 은 페이로드의 top-level type 만 읽는다.
func PeekType(evt eventbus.Event) (EventType, error) {
	var peek struct {
		Type EventType `json:"type"`
	}
	if err := json.Unmarshal(evt.Payload, &peek); err != nil {
		return "", err
	}
	return peek.Type, nil
}
