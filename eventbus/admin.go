package eventbus

import (
	"context"
	"fmt"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
)

// TopicSpecs lists base, retry and DLQ topics for every topic. The DLQ
// always has one partition.
func TopicSpecs(partitions int, topics ...Topic) []kafka.TopicSpecification {
	var specs []kafka.TopicSpecification
	add := func(name string, n int) {
		specs = append(specs, kafka.TopicSpecification{Topic: name, NumPartitions: n, ReplicationFactor: 1})
	}
	for _, t := range topics {
		add(t.Base(), partitions)
		for _, r := range t.GetRetryTopics() {
			add(r, partitions)
		}
		add(t.DLQ(), 1)
	}
	return specs
}

// EnsureTopics creates the topics in one admin call. Existing topics are fine.
func EnsureTopics(brokers string, partitions int, topics ...Topic) error {
	admin, err := kafka.NewAdminClient(&kafka.ConfigMap{"bootstrap.servers": brokers})
	if err != nil {
		return fmt.Errorf("AdminClient 생성 실패: %w", err)
	}
	defer admin.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	results, err := admin.CreateTopics(ctx, TopicSpecs(partitions, topics...))
	if err != nil {
		return fmt.Errorf("토픽 생성 요청 실패: %w", err)
	}
	for _, r := range results {
		if code := r.Error.Code(); code != kafka.ErrNoError && code != kafka.ErrTopicAlreadyExists {
			return fmt.Errorf("토픽 %s 생성 실패: %v", r.Topic, r.Error)
		}
	}
	return nil
}
