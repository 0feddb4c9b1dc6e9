package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/Shopify/sarama"
	"github.com/Shopify/sarama/mocks"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bill-advisor/internal/billing"
)

type fakeSession struct {
	ctx    context.Context
	marked []int64
}

func (s *fakeSession) Claims() map[string][]int32                       { return nil }
func (s *fakeSession) MemberID() string                                 { return "member" }
func (s *fakeSession) GenerationID() int32                              { return 1 }
func (s *fakeSession) MarkOffset(_ string, _ int32, _ int64, _ string)  {}
func (s *fakeSession) Commit()                                          {}
func (s *fakeSession) ResetOffset(_ string, _ int32, _ int64, _ string) {}
func (s *fakeSession) MarkMessage(msg *sarama.ConsumerMessage, _ string) {
	s.marked = append(s.marked, msg.Offset)
}
func (s *fakeSession) Context() context.Context { return s.ctx }

type fakeClaim struct {
	messages chan *sarama.ConsumerMessage
}

func (c *fakeClaim) Topic() string                            { return "billing-records" }
func (c *fakeClaim) Partition() int32                         { return 0 }
func (c *fakeClaim) InitialOffset() int64                     { return 0 }
func (c *fakeClaim) HighWaterMarkOffset() int64               { return int64(len(c.messages)) }
func (c *fakeClaim) Messages() <-chan *sarama.ConsumerMessage { return c.messages }

func encodedRecord(t *testing.T, rec billing.Record) []byte {
	t.Helper()
	payload, err := json.Marshal(rec)
	require.NoError(t, err)
	return payload
}

func TestConsumeClaimProcessesAndMarks(t *testing.T) {
	var seen []string
	consumer := newConsumer(ConsumerOptions{Topic: "billing-records"}, nil, func(_ context.Context, rec billing.Record) error {
		seen = append(seen, rec.Customer.POD)
		if rec.Customer.POD == "IT001E87654321" {
			return errors.New("analysis failed")
		}
		return nil
	}, zerolog.Nop())

	claim := &fakeClaim{messages: make(chan *sarama.ConsumerMessage, 3)}
	claim.messages <- &sarama.ConsumerMessage{Offset: 0, Value: encodedRecord(t, billing.SampleMedium())}
	claim.messages <- &sarama.ConsumerMessage{Offset: 1, Value: []byte("{not json")}
	claim.messages <- &sarama.ConsumerMessage{Offset: 2, Value: encodedRecord(t, billing.SampleHigh())}
	close(claim.messages)

	session := &fakeSession{ctx: context.Background()}
	handler := &groupHandler{consumer: consumer}

	require.NoError(t, handler.ConsumeClaim(session, claim))
	assert.Equal(t, []string{"IT001E12345678", "IT001E87654321"}, seen)
	assert.Equal(t, []int64{0, 1, 2}, session.marked)
}

func TestConsumeClaimStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	consumer := newConsumer(ConsumerOptions{Topic: "billing-records"}, nil, func(_ context.Context, _ billing.Record) error {
		cancel()
		return context.Canceled
	}, zerolog.Nop())

	claim := &fakeClaim{messages: make(chan *sarama.ConsumerMessage, 1)}
	claim.messages <- &sarama.ConsumerMessage{Offset: 7, Value: encodedRecord(t, billing.SampleMedium())}

	session := &fakeSession{ctx: ctx}
	err := (&groupHandler{consumer: consumer}).ConsumeClaim(session, claim)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, session.marked)
}

func TestNewConsumerRequiresBrokers(t *testing.T) {
	_, err := NewConsumer(ConsumerOptions{Topic: "billing-records"}, nil, zerolog.Nop())
	assert.Error(t, err)

	_, err = NewPublisher(PublisherOptions{Brokers: []string{"localhost:9092"}}, zerolog.Nop())
	assert.Error(t, err)
}

func TestPublisherSendsKeyedJSON(t *testing.T) {
	producer := mocks.NewSyncProducer(t, producerConfig("test"))
	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var doc map[string]any
		if err := json.Unmarshal(val, &doc); err != nil {
			return err
		}
		if doc["id"] != "abc" {
			return errors.New("unexpected payload")
		}
		return nil
	})

	publisher := newPublisher(producer, "bill-analyses", zerolog.Nop())
	require.NoError(t, publisher.Publish(context.Background(), "IT001E12345678", map[string]string{"id": "abc"}))
	require.NoError(t, publisher.Close())
}

func TestPublisherPropagatesFailure(t *testing.T) {
	producer := mocks.NewSyncProducer(t, producerConfig("test"))
	producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	publisher := newPublisher(producer, "bill-analyses", zerolog.Nop())
	err := publisher.Publish(context.Background(), "IT001E12345678", map[string]string{"id": "abc"})
	assert.ErrorIs(t, err, sarama.ErrOutOfBrokers)
	require.NoError(t, publisher.Close())
}

func TestPublisherHonoursCancelledContext(t *testing.T) {
	producer := mocks.NewSyncProducer(t, producerConfig("test"))
	publisher := newPublisher(producer, "bill-analyses", zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, publisher.Publish(ctx, "k", struct{}{}), context.Canceled)
	require.NoError(t, publisher.Close())
}
