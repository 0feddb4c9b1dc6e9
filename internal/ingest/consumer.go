// Package ingest moves billing records in and analysis results out over Kafka.
package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Shopify/sarama"
	"github.com/rs/zerolog"

	"bill-advisor/internal/billing"
)

// Processor handles one decoded billing record.
type Processor func(ctx context.Context, rec billing.Record) error

// ConsumerOptions configure the consumer group.
type ConsumerOptions struct {
	Brokers       []string
	Topic         string
	GroupID       string
	ClientID      string
	InitialOldest bool
}

// Consumer reads billing records from a topic and hands them to a Processor.
type Consumer struct {
	opts    ConsumerOptions
	group   sarama.ConsumerGroup
	process Processor
	logger  zerolog.Logger
}

// NewConsumer joins the consumer group.
func NewConsumer(opts ConsumerOptions, process Processor, logger zerolog.Logger) (*Consumer, error) {
	if len(opts.Brokers) == 0 {
		return nil, errors.New("kafka brokers not configured")
	}
	if opts.Topic == "" {
		return nil, errors.New("kafka input topic not configured")
	}

	cfg := sarama.NewConfig()
	cfg.ClientID = opts.ClientID
	cfg.Consumer.Return.Errors = true
	cfg.Consumer.Offsets.Initial = sarama.OffsetNewest
	if opts.InitialOldest {
		cfg.Consumer.Offsets.Initial = sarama.OffsetOldest
	}
	cfg.Consumer.Group.Rebalance.Strategy = sarama.BalanceStrategyRoundRobin
	cfg.Consumer.MaxWaitTime = 250 * time.Millisecond

	group, err := sarama.NewConsumerGroup(opts.Brokers, opts.GroupID, cfg)
	if err != nil {
		return nil, fmt.Errorf("create consumer group: %w", err)
	}
	return newConsumer(opts, group, process, logger), nil
}

func newConsumer(opts ConsumerOptions, group sarama.ConsumerGroup, process Processor, logger zerolog.Logger) *Consumer {
	return &Consumer{
		opts:    opts,
		group:   group,
		process: process,
		logger:  logger.With().Str("component", "kafka_consumer").Str("topic", opts.Topic).Logger(),
	}
}

// Consume blocks until ctx is cancelled, rejoining the group after every
// rebalance.
func (c *Consumer) Consume(ctx context.Context) error {
	go func() {
		for err := range c.group.Errors() {
			c.logger.Error().Err(err).Msg("consumer group error")
		}
	}()

	handler := &groupHandler{consumer: c}
	for {
		if err := c.group.Consume(ctx, []string{c.opts.Topic}, handler); err != nil {
			if errors.Is(err, sarama.ErrClosedConsumerGroup) || errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("consume %s: %w", c.opts.Topic, err)
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

// Close leaves the group.
func (c *Consumer) Close() error {
	return c.group.Close()
}

// handle decodes and processes one message. Undecodable and failing records
// are logged and skipped; only cancellation stops the claim.
func (c *Consumer) handle(ctx context.Context, msg *sarama.ConsumerMessage) error {
	log := c.logger.With().Int32("partition", msg.Partition).Int64("offset", msg.Offset).Logger()

	rec, err := billing.Decode(bytes.NewReader(msg.Value))
	if err != nil {
		log.Warn().Err(err).Msg("skipping undecodable billing record")
		return nil
	}
	if err := c.process(ctx, rec); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Error().Err(err).Str("pod", rec.Customer.POD).Msg("billing record processing failed")
	}
	return nil
}

type groupHandler struct {
	consumer *Consumer
}

func (h *groupHandler) Setup(_ sarama.ConsumerGroupSession) error   { return nil }
func (h *groupHandler) Cleanup(_ sarama.ConsumerGroupSession) error { return nil }

func (h *groupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	ctx := session.Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-claim.Messages():
			if !ok {
				return nil
			}
			if err := h.consumer.handle(ctx, msg); err != nil {
				return err
			}
			session.MarkMessage(msg, "")
		}
	}
}
