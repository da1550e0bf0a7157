// Package publisher ships catalog events to Kafka.
package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/confluentinc/confluent-kafka-go/kafka"
	"go.uber.org/zap"

	"moviecatalog/internal/catalog"
)

// KafkaPublisher is a catalog.EventSink producing one message per event,
// keyed by movie ID.
type KafkaPublisher struct {
	producer *kafka.Producer
	topic    string
	logger   *zap.Logger
	done     chan struct{}
}

func NewKafkaPublisher(brokers, topic string, logger *zap.Logger) (*KafkaPublisher, error) {
	producer, err := kafka.NewProducer(&kafka.ConfigMap{"bootstrap.servers": brokers})
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	p := &KafkaPublisher{
		producer: producer,
		topic:    topic,
		logger:   logger,
		done:     make(chan struct{}),
	}
	go p.watchDeliveries()
	return p, nil
}

// Publish enqueues the event; delivery failures are reported asynchronously in the log.
func (p *KafkaPublisher) Publish(ctx context.Context, event catalog.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg, err := newMessage(p.topic, event)
	if err != nil {
		return err
	}
	if err := p.producer.Produce(msg, nil); err != nil {
		return fmt.Errorf("produce event %s: %w", event.ID, err)
	}
	return nil
}

// Close waits up to timeout for queued messages, then shuts the producer down.
func (p *KafkaPublisher) Close(timeout time.Duration) {
	if left := p.producer.Flush(int(timeout.Milliseconds())); left > 0 {
		p.logger.Warn("Kafka messages not delivered before shutdown", zap.Int("pending", left))
	}
	p.producer.Close()
	<-p.done
}

func (p *KafkaPublisher) watchDeliveries() {
	defer close(p.done)
	for e := range p.producer.Events() {
		switch ev := e.(type) {
		case *kafka.Message:
			if ev.TopicPartition.Error != nil {
				p.logger.Error("Failed to deliver catalog event",
					zap.ByteString("key", ev.Key),
					zap.Error(ev.TopicPartition.Error),
				)
			}
		case kafka.Error:
			p.logger.Error("Kafka producer error", zap.Error(ev))
		}
	}
}

func newMessage(topic string, event catalog.Event) (*kafka.Message, error) {
	value, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("encode event %s: %w", event.ID, err)
	}

	return &kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &topic, Partition: kafka.PartitionAny},
		Key:            []byte(strconv.FormatInt(event.MovieID, 10)),
		Value:          value,
		Headers:        []kafka.Header{{Key: "event_type", Value: []byte(event.Type)}},
	}, nil
}
