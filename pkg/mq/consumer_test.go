package mq

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"foreclosure-assist/pkg/trace"
	"foreclosure-assist/pkg/util"
)

type fakeAck struct {
	acked    int
	nacked   int
	requeued bool
}

func (f *fakeAck) Ack(tag uint64, multiple bool) error {
	f.acked++
	return nil
}

func (f *fakeAck) Nack(tag uint64, multiple bool, requeue bool) error {
	f.nacked++
	f.requeued = requeue
	return nil
}

func (f *fakeAck) Reject(tag uint64, requeue bool) error { return nil }

func newTestConsumer(h MessageHandler) (*Consumer, *[]string) {
	var dead []string
	c := &Consumer{
		queue:      amqp091.Queue{Name: "lead.created.q"},
		routingKey: "lead.created",
		logger:     zap.NewNop(),
		handler:    h,
	}
	c.deadLetter = func(ctx context.Context, routingKey, queue string, body []byte, reason string) error {
		dead = append(dead, reason)
		return nil
	}
	return c, &dead
}

func TestProcess_AcksOnSuccessAndPropagatesTrace(t *testing.T) {
	var gotTrace string
	c, dead := newTestConsumer(func(ctx context.Context, data json.RawMessage) error {
		gotTrace = trace.FromContext(ctx)
		return nil
	})
	ack := &fakeAck{}
	c.process(amqp091.Delivery{
		Acknowledger: ack,
		DeliveryTag:  1,
		Headers:      amqp091.Table{TraceHeader: "trace-1"},
		Body:         []byte(`{}`),
	})

	assert.Equal(t, 1, ack.acked)
	assert.Equal(t, "trace-1", gotTrace)
	assert.Empty(t, *dead)
}

func TestProcess_RetryableRequeuesOnce(t *testing.T) {
	c, dead := newTestConsumer(func(ctx context.Context, data json.RawMessage) error {
		return util.Retryable(errors.New("503"))
	})

	first := &fakeAck{}
	c.process(amqp091.Delivery{Acknowledger: first, DeliveryTag: 1})
	assert.Equal(t, 1, first.nacked)
	assert.True(t, first.requeued)

	second := &fakeAck{}
	c.process(amqp091.Delivery{Acknowledger: second, DeliveryTag: 2, Redelivered: true})
	assert.Equal(t, 1, second.acked)
	assert.Len(t, *dead, 1)
}

func TestProcess_NonRetryableGoesToDLQ(t *testing.T) {
	c, dead := newTestConsumer(func(ctx context.Context, data json.RawMessage) error {
		var v struct{}
		return json.Unmarshal([]byte("{bad"), &v)
	})
	ack := &fakeAck{}
	c.process(amqp091.Delivery{Acknowledger: ack, DeliveryTag: 1})

	assert.Equal(t, 1, ack.acked)
	assert.Equal(t, 0, ack.nacked)
	assert.Len(t, *dead, 1)
}

func TestProcess_PanicIsDeadLettered(t *testing.T) {
	c, dead := newTestConsumer(func(ctx context.Context, data json.RawMessage) error {
		panic("boom")
	})
	ack := &fakeAck{}
	c.process(amqp091.Delivery{Acknowledger: ack, DeliveryTag: 1})

	assert.Equal(t, 1, ack.acked)
	assert.Equal(t, []string{"panic: boom"}, *dead)
}
