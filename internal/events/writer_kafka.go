package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/cenkalti/backoff"
	cloudevents "github.com/cloudevents/sdk-go/v2"
	"go.uber.org/zap"
)

// KafkaWriter publishes structured-mode cloudevents with a sarama sync producer.
type KafkaWriter struct {
	producer sarama.SyncProducer
}

// NewKafkaWriter connects to the brokers, retrying with exponential backoff.
func NewKafkaWriter(brokers []string, cfg *sarama.Config) (*KafkaWriter, error) {
	if cfg == nil {
		cfg = sarama.NewConfig()
	}
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Return.Successes = true
	cfg.Producer.Partitioner = sarama.NewHashPartitioner

	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.MaxElapsedTime = 2 * time.Minute
	expBackoff.InitialInterval = 2 * time.Second

	var producer sarama.SyncProducer
	operation := func() error {
		p, err := sarama.NewSyncProducer(brokers, cfg)
		if err != nil {
			zap.S().Named("kafka_writer").Warnw("failed to connect to kafka, retrying", "error", err)
			return err
		}
		producer = p
		return nil
	}

	if err := backoff.Retry(operation, expBackoff); err != nil {
		return nil, fmt.Errorf("failed to connect kafka producer: %w", err)
	}

	return &KafkaWriter{producer: producer}, nil
}

func (k *KafkaWriter) Write(_ context.Context, topic string, e cloudevents.Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return err
	}

	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(e.Type()),
		Value: sarama.ByteEncoder(payload),
		Headers: []sarama.RecordHeader{
			{Key: []byte("content-type"), Value: []byte(cloudevents.ApplicationCloudEventsJSON)},
		},
	}

	if _, _, err := k.producer.SendMessage(msg); err != nil {
		return fmt.Errorf("sending event %s: %w", e.ID(), err)
	}
	return nil
}

func (k *KafkaWriter) Close(_ context.Context) error {
	return k.producer.Close()
}
