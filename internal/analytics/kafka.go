package analytics

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
)

// KafkaTracker publishes events to a Kafka topic for downstream pipelines
// (warehouse ingestion, call-quality dashboards). The event key is the
// user id so one user's events stay ordered within a partition.
type KafkaTracker struct {
	writer *kafka.Writer
}

type kafkaEvent struct {
	UserID     string                 `json:"user_id"`
	Event      string                 `json:"event"`
	Properties map[string]interface{} `json:"properties,omitempty"`
	Timestamp  time.Time              `json:"timestamp"`
}

func NewKafkaTracker(broker, topic string) *KafkaTracker {
	return &KafkaTracker{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(broker),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireOne,
			Async:        false,
			WriteTimeout: 10 * time.Second,
		},
	}
}

func (t *KafkaTracker) Capture(ctx context.Context, userID, event string, properties map[string]interface{}) error {
	value, err := json.Marshal(kafkaEvent{
		UserID:     userID,
		Event:      event,
		Properties: properties,
		Timestamp:  time.Now().UTC(),
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return t.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(userID),
		Value: value,
		Time:  time.Now(),
	})
}

// Close flushes and closes the underlying writer.
func (t *KafkaTracker) Close() error {
	return t.writer.Close()
}
