package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// extraction.requested, consumed by cmd/worker
	TopicExtractionRequests = NewTopic("social-pilot.extraction.requests")
	// post.published, post.publish_failed, extraction.completed, extraction.failed
	TopicPostEvents = NewTopic("social-pilot.post.events")

	AllTopics = []Topic{TopicExtractionRequests, TopicPostEvents}
)

// RetryDelays는 재시도 횟수(1-based)별 지연 시간이다.
var RetryDelays = []time.Duration{
	10 * time.Second,
	30 * time.Second,
	1 * time.Minute,
	5 * time.Minute,
	10 * time.Minute,
}

type Topic struct {
	base string
}

func NewTopic(base string) Topic {
	return Topic{base: base}
}

func (t Topic) Base() string {
	return t.base
}

// DLQ 예: social-pilot.extraction.requests.dlq
func (t Topic) DLQ() string {
	return t.base + ".dlq"
}

// GetRetryTopics: base.retry.10s, base.retry.30s, ...
func (t Topic) GetRetryTopics() []string {
	topics := make([]string, len(RetryDelays))
	for i, delay := range RetryDelays {
		topics[i] = fmt.Sprintf("%s.retry.%s", t.base, delay.String())
	}
	return topics
}

func (t Topic) GetRetryTopic(retryCount int) (string, error) {
	if retryCount <= 0 || retryCount > len(RetryDelays) {
		return "", ErrMaxRetryExceeded
	}
	return fmt.Sprintf("%s.retry.%s", t.base, RetryDelays[retryCount-1].String()), nil
}

// ParseRetryDelayFromTopicName reads the delay suffix of a retry topic,
// "social-pilot.post.events.retry.1m0s" -> 1m0s.
func ParseRetryDelayFromTopicName(name string) (time.Duration, bool) {
	idx := strings.LastIndex(name, ".retry.")
	if idx == -1 {
		return 0, false
	}
	d, err := time.ParseDuration(name[idx+len(".retry."):])
	if err != nil || d <= 0 {
		return 0, false
	}
	return d, true
}

type Event struct {
	ID        string          `json:"id"`
	Payload   json.RawMessage `json:"payload"`
	Retry     int             `json:"retry"`
	MaxRetry  int             `json:"max_retry"`
	LastError string          `json:"last_error,omitempty"`
}

type EventHandler func(ctx context.Context, event Event) error

type EventBus interface {
	Publish(ctx context.Context, topic string, event Event) error
	// Subscribe는 기본 토픽을 구독하고 실패한 이벤트를 재시도 토픽으로 보낸다.
	Subscribe(ctx context.Context, groupID string, topic Topic, handler EventHandler) error
	// StartRetryReinjector는 재시도 토픽의 이벤트를 지연 후 기본 토픽으로 되돌린다.
	StartRetryReinjector(ctx context.Context, groupID string, topic Topic) error
	Close()
}

var ErrMaxRetryExceeded = errors.New("최대 재시도 횟수 초과")

var ErrRetryScheduleFailed = errors.New("재시도 또는 DLQ 발행 실패")
