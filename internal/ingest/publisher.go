package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Shopify/sarama"
	"github.com/rs/zerolog"
)

// PublisherOptions configure the result producer.
type PublisherOptions struct {
	Brokers  []string
	Topic    string
	ClientID string
}

// Publisher writes JSON documents to a topic, keyed by POD.
type Publisher struct {
	producer sarama.SyncProducer
	topic    string
	logger   zerolog.Logger
}

// NewPublisher connects a synchronous producer.
func NewPublisher(opts PublisherOptions, logger zerolog.Logger) (*Publisher, error) {
	if len(opts.Brokers) == 0 {
		return nil, errors.New("kafka brokers not configured")
	}
	if opts.Topic == "" {
		return nil, errors.New("kafka output topic not configured")
	}

	producer, err := sarama.NewSyncProducer(opts.Brokers, producerConfig(opts.ClientID))
	if err != nil {
		return nil, fmt.Errorf("create producer: %w", err)
	}
	return newPublisher(producer, opts.Topic, logger), nil
}

func producerConfig(clientID string) *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.ClientID = clientID
	cfg.Producer.Return.Successes = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 3
	return cfg
}

func newPublisher(producer sarama.SyncProducer, topic string, logger zerolog.Logger) *Publisher {
	return &Publisher{
		producer: producer,
		topic:    topic,
		logger:   logger.With().Str("component", "kafka_publisher").Str("topic", topic).Logger(),
	}
}

// Publish marshals value and sends it under key.
func (p *Publisher) Publish(ctx context.Context, key string, value any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(payload),
	}
	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("publish to %s: %w", p.topic, err)
	}
	p.logger.Debug().Str("key", key).Int32("partition", partition).Int64("offset", offset).Msg("message published")
	return nil
}

// Close flushes and shuts the producer down.
func (p *Publisher) Close() error {
	return p.producer.Close()
}
