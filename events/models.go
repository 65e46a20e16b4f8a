package events

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"social-pilot/models"
)

// EventType 이벤트 타입
type EventType string

const (
	ExtractionRequested EventType = "extraction.requested"
	ExtractionCompleted EventType = "extraction.completed"
	ExtractionFailed    EventType = "extraction.failed"

	PostPublished     EventType = "post.published"
	PostPublishFailed EventType = "post.publish_failed"
)

// BaseEvent 모든 이벤트의 기본 구조
type BaseEvent struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"` // "api", "worker", "scheduler"
	Version   string    `json:"version"`
}

func (e BaseEvent) GetType() EventType {
	return e.Type
}

// ExtractionRequestedEvent 는 worker 가 소비하는 추출 작업이다.
type ExtractionRequestedEvent struct {
	BaseEvent
	ProductID primitive.ObjectID `json:"product_id"`
}

type ExtractionCompletedEvent struct {
	BaseEvent
	ProductID primitive.ObjectID `json:"product_id"`
	Provider  string             `json:"provider"`
}

type ExtractionFailedEvent struct {
	BaseEvent
	ProductID primitive.ObjectID `json:"product_id"`
	Error     string             `json:"error"`
}

type PostPublishedEvent struct {
	BaseEvent
	PostID         primitive.ObjectID `json:"post_id"`
	ProductID      primitive.ObjectID `json:"product_id"`
	Platform       models.Platform    `json:"platform"`
	PlatformPostID string             `json:"platform_post_id"`
	PostedAt       time.Time          `json:"posted_at"`
}

type PostPublishFailedEvent struct {
	BaseEvent
	PostID    primitive.ObjectID `json:"post_id"`
	ProductID primitive.ObjectID `json:"product_id"`
	Platform  models.Platform    `json:"platform"`
	Error     string             `json:"error"`
}
