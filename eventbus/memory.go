package eventbus

import (
	"context"
	"strings"
	"sync"
)

// MemoryBus is an in-process EventBus. Retry topics are redelivered
// immediately to the base topic.
type MemoryBus struct {
	mu        sync.Mutex
	published map[string][]Event
	queues    map[string]chan Event
}

func NewMemoryBus() *MemoryBus {
	return &MemoryBus{
		published: map[string][]Event{},
		queues:    map[string]chan Event{},
	}
}

func (m *MemoryBus) queue(topic string) chan Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.queues[topic]
	if !ok {
		q = make(chan Event, 256)
		m.queues[topic] = q
	}
	return q
}

func (m *MemoryBus) Publish(ctx context.Context, topic string, event Event) error {
	m.mu.Lock()
	m.published[topic] = append(m.published[topic], event)
	m.mu.Unlock()

	if _, ok := ParseRetryDelayFromTopicName(topic); ok {
		topic = topic[:strings.LastIndex(topic, ".retry.")]
	}
	select {
	case m.queue(topic) <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Published returns every event sent to topic, including retries and DLQ.
func (m *MemoryBus) Published(topic string) []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Event(nil), m.published[topic]...)
}

func (m *MemoryBus) Subscribe(ctx context.Context, groupID string, topic Topic, handler EventHandler) error {
	q := m.queue(topic.Base())
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case evt := <-q:
			if err := handleWithRetry(ctx, m, topic, evt, handler); err != nil {
				return err
			}
		}
	}
}

func (m *MemoryBus) StartRetryReinjector(ctx context.Context, groupID string, topic Topic) error {
	<-ctx.Done()
	return ctx.Err()
}

func (m *MemoryBus) Close() {}
