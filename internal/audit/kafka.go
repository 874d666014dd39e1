package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
)

// KafkaSink publishes audit events to a Kafka topic for downstream
// consumers. Records are keyed by address so all movements of one batch
// stay ordered within a partition.
type KafkaSink struct {
	client *kgo.Client
	topic  string
}

// NewKafkaSink connects to the given brokers. Close releases the client.
func NewKafkaSink(brokers []string, topic string) (*KafkaSink, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("connect kafka: %w", err)
	}
	return &KafkaSink{client: client, topic: topic}, nil
}

type kafkaEvent struct {
	ID                string    `json:"id"`
	Timestamp         time.Time `json:"timestamp"`
	Scenario          int       `json:"scenario"`
	Address           string    `json:"address"`
	Item              string    `json:"item"`
	Direction         string    `json:"direction"`
	Quantity          int       `json:"quantity"`
	Discrepancy       int       `json:"discrepancy"`
	Remarks           string    `json:"remarks,omitempty"`
	DocumentReference string    `json:"document_reference"`
	Operator          string    `json:"operator"`
}

func (s *KafkaSink) Publish(ctx context.Context, e Event) error {
	payload, err := json.Marshal(kafkaEvent(e))
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	record := &kgo.Record{
		Key:   []byte(e.Address),
		Value: payload,
	}
	if err := s.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce audit event: %w", err)
	}
	return nil
}

func (s *KafkaSink) Close() {
	s.client.Close()
}
