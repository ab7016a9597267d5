package repository

import (
	"context"

	pkgkafka "AquaWatch/pkg/kafka"
)

// KafkaEventPublisher exports decision events to a Kafka topic, keyed by
// pond id so per-pond ordering survives partitioning.
type KafkaEventPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaEventPublisher(producer *pkgkafka.Producer, topic string) *KafkaEventPublisher {
	return &KafkaEventPublisher{producer: producer, topic: topic}
}

func (p *KafkaEventPublisher) Publish(ctx context.Context, key string, event interface{}) error {
	return p.producer.Publish(ctx, p.topic, []byte(key), event)
}

func (p *KafkaEventPublisher) Close() error {
	return p.producer.Close()
}

// NoopEventPublisher is used when Kafka export is disabled.
type NoopEventPublisher struct{}

func (NoopEventPublisher) Publish(context.Context, string, interface{}) error { return nil }
func (NoopEventPublisher) Close() error                                       { return nil }
