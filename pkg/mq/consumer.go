package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"foreclosure-assist/pkg/logger"
	"foreclosure-assist/pkg/metrics"
	"foreclosure-assist/pkg/trace"
	"foreclosure-assist/pkg/util"
)

type MessageHandler func(ctx context.Context, data json.RawMessage) error

type deadLetterFunc func(ctx context.Context, routingKey, queue string, body []byte, reason string) error

type Consumer struct {
	channel    *amqp091.Channel
	queue      amqp091.Queue
	routingKey string
	handler    MessageHandler
	conn       *amqp091.Connection
	logger     *zap.Logger
	deadLetter deadLetterFunc
	done       chan struct{}
}

// NewConsumer creates a consumer for a specific routing key.
func NewConsumer(url, queueName, routingKey string, logger *zap.Logger) (*Consumer, error) {
	conn, err := NewConnection(url)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	cleanup := func() {
		ch.Close()
		conn.Close()
	}

	if err := DeclareExchange(ch); err != nil {
		cleanup()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}
	if err := DeclareDLQExchange(ch); err != nil {
		cleanup()
		return nil, fmt.Errorf("failed to declare dlq exchange: %w", err)
	}
	if _, err := DeclareDLQQueue(ch, routingKey); err != nil {
		cleanup()
		return nil, err
	}

	q, err := ch.QueueDeclare(
		queueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	err = ch.QueueBind(
		q.Name,
		routingKey,
		ExchangeName,
		false,
		nil,
	)
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("failed to bind queue: %w", err)
	}

	if err := ch.Qos(10, 0, false); err != nil {
		cleanup()
		return nil, fmt.Errorf("failed to set qos: %w", err)
	}

	logger.Info("Consumer initialized",
		zap.String("routing_key", routingKey),
		zap.String("queue", queueName),
		zap.String("exchange", ExchangeName),
	)

	c := &Consumer{
		conn:       conn,
		channel:    ch,
		queue:      q,
		routingKey: routingKey,
		logger:     logger,
		done:       make(chan struct{}),
	}
	c.deadLetter = func(ctx context.Context, routingKey, queue string, body []byte, reason string) error {
		return publishToDLQ(ctx, ch, routingKey, queue, body, reason)
	}
	return c, nil
}

func (c *Consumer) SetHandler(h MessageHandler) {
	c.handler = h
}

// Stop 取消消费并关闭连接，StartConsuming 随之返回
func (c *Consumer) Stop() {
	select {
	case <-c.done:
		return
	default:
		close(c.done)
	}
	if c.channel != nil {
		_ = c.channel.Cancel(c.queue.Name, false)
	}
	c.Close()
}

func (c *Consumer) Close() {
	if c.channel != nil {
		_ = c.channel.Close()
	}
	if c.conn != nil {
		_ = c.conn.Close()
	}
}

// StartConsuming starts consuming messages. This method blocks and should be called in a goroutine.
func (c *Consumer) StartConsuming() error {
	if c.handler == nil {
		return fmt.Errorf("consumer handler not set")
	}

	deliveries, err := c.channel.Consume(
		c.queue.Name,
		c.queue.Name, // consumer tag 与队列同名，Stop 时用于取消
		false,        // 手动ack
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	c.logger.Info("Consumer started consuming messages",
		zap.String("routing_key", c.routingKey),
		zap.String("queue", c.queue.Name),
	)

	for msg := range deliveries {
		c.process(msg)
	}

	return nil
}

// process 保证每条消息都会被 ack 或 nack
func (c *Consumer) process(msg amqp091.Delivery) {
	start := time.Now()
	status := "ok"

	ctx := context.Background()
	if traceID, ok := msg.Headers[TraceHeader].(string); ok && traceID != "" {
		ctx = trace.WithContext(ctx, traceID)
	} else {
		ctx = trace.WithContext(ctx, trace.GenerateTraceID())
	}
	log := logger.WithTrace(ctx, c.logger)

	defer func() {
		metrics.RecordMQConsumeLatency(c.routingKey, c.queue.Name, status, time.Since(start))
	}()

	// Panic 恢复：确保即使 handler panic 也能正确处理消息
	defer func() {
		if r := recover(); r != nil {
			status = "panic"
			log.Error("Handler panic recovered",
				zap.String("routing_key", c.routingKey),
				zap.String("queue", c.queue.Name),
				zap.Any("panic", r),
			)
			c.reject(ctx, log, msg, fmt.Sprintf("panic: %v", r))
		}
	}()

	err := c.handler(ctx, msg.Body)
	if err == nil {
		if err := msg.Ack(false); err != nil {
			log.Error("Failed to ack message", zap.String("routing_key", c.routingKey), zap.Error(err))
		}
		return
	}

	retryable, errType := util.IsRetryableError(err)
	log.Error("Handler error",
		zap.String("routing_key", c.routingKey),
		zap.String("queue", c.queue.Name),
		zap.String("error_type", errType),
		zap.Bool("retryable", retryable),
		zap.Error(err),
	)

	// 可重试且未被重投过 → 重新入队；否则进入死信队列
	if retryable && !msg.Redelivered {
		status = "requeued"
		if err := msg.Nack(false, true); err != nil {
			log.Error("Failed to nack message", zap.String("routing_key", c.routingKey), zap.Error(err))
		}
		return
	}

	status = "dead_lettered"
	c.reject(ctx, log, msg, err.Error())
}

// reject 把消息转入死信队列并 ack；死信发布失败时 nack 重新入队
func (c *Consumer) reject(ctx context.Context, log *zap.Logger, msg amqp091.Delivery, reason string) {
	if c.deadLetter != nil {
		if err := c.deadLetter(ctx, c.routingKey, c.queue.Name, msg.Body, reason); err != nil {
			log.Error("Failed to publish to DLQ", zap.Error(err))
			_ = msg.Nack(false, true)
			return
		}
	}
	if err := msg.Ack(false); err != nil {
		log.Error("Failed to ack dead-lettered message", zap.Error(err))
	}
}
