package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
)

// Handler is a function that processes a Kafka event.
type Handler func(ctx context.Context, event *Event) error

// ErrPermanent marks a handler failure that retrying cannot fix.
var ErrPermanent = errors.New("permanent failure")

// Permanent wraps err so the consumer skips retries for it.
func Permanent(err error) error {
	return fmt.Errorf("%w: %w", ErrPermanent, err)
}

// ConsumerConfig holds Kafka consumer configuration.
type ConsumerConfig struct {
	Brokers      []string
	GroupID      string
	Topic        string
	MinBytes     int
	MaxBytes     int
	MaxRetries   int
	RetryBackoff time.Duration
	EnableDLQ    bool
}

func (c ConsumerConfig) withDefaults() ConsumerConfig {
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = 100 * time.Millisecond
	}
	return c
}

// MessageReader is the subset of *kafka.Reader the consumer needs.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// DeadLetterPublisher receives messages whose handler failed permanently.
type DeadLetterPublisher interface {
	Publish(ctx context.Context, msg kafka.Message, lastErr error, consumerGroup string) error
	Close() error
}

// Consumer reads one topic in a consumer group and hands each decoded event
// to a Handler. A message is committed once it was handled, dead-lettered,
// or found undecodable, so one bad message never blocks the partition.
type Consumer struct {
	reader    MessageReader
	dlq       DeadLetterPublisher
	cfg       ConsumerConfig
	handler   Handler
	logger    *slog.Logger
	closeOnce sync.Once
}

// NewConsumer creates a consumer backed by a kafka-go reader.
func NewConsumer(cfg ConsumerConfig, handler Handler, logger *slog.Logger) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		GroupID:  cfg.GroupID,
		Topic:    cfg.Topic,
		MinBytes: cfg.MinBytes,
		MaxBytes: cfg.MaxBytes,
	})

	var dlq DeadLetterPublisher
	if cfg.EnableDLQ {
		dlq = NewDLQProducer(cfg.Brokers, logger)
	}
	return NewConsumerWithReader(r, dlq, cfg, handler, logger)
}

// NewConsumerWithReader builds a consumer around an existing reader. dlq may
// be nil, in which case failed messages are logged and skipped.
func NewConsumerWithReader(r MessageReader, dlq DeadLetterPublisher, cfg ConsumerConfig, handler Handler, logger *slog.Logger) *Consumer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Consumer{
		reader:  r,
		dlq:     dlq,
		cfg:     cfg.withDefaults(),
		handler: handler,
		logger:  logger,
	}
}

// Start begins consuming messages. It blocks until the context is canceled.
func (c *Consumer) Start(ctx context.Context) error {
	c.logger.Info("consumer started",
		slog.String("topic", c.cfg.Topic),
		slog.String("group", c.cfg.GroupID),
	)

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info("consumer stopping", slog.String("topic", c.cfg.Topic))
				return nil
			}
			c.logger.Error("failed to fetch message", slog.String("error", err.Error()))
			if !sleep(ctx, c.cfg.RetryBackoff) {
				return nil
			}
			continue
		}

		if !c.process(ctx, msg) {
			return nil
		}
	}
}

// process handles one message and commits it. It returns false when the
// context was canceled mid-retry; the message is then left uncommitted.
func (c *Consumer) process(ctx context.Context, msg kafka.Message) bool {
	labels := []string{c.cfg.Topic, c.cfg.GroupID}
	ConsumerMessagesReceived.WithLabelValues(labels...).Inc()

	event, err := UnmarshalEvent(msg.Value)
	if err != nil {
		c.logger.Error("failed to unmarshal event",
			slog.String("error", err.Error()),
			slog.String("topic", msg.Topic),
			slog.Int64("offset", msg.Offset),
		)
		c.deadLetter(ctx, msg, err)
		c.commit(ctx, msg)
		return true
	}

	msgCtx := otel.GetTextMapPropagator().Extract(ctx, NewHeaderCarrier(&msg.Headers))
	start := time.Now()
	lastErr := c.handleWithRetry(msgCtx, msg, event)
	ConsumerProcessingDuration.WithLabelValues(labels...).Observe(time.Since(start).Seconds())

	if lastErr != nil && ctx.Err() != nil {
		return false
	}

	if lastErr != nil {
		ConsumerMessagesFailed.WithLabelValues(labels...).Inc()
		c.logger.Error("handler failed, skipping message",
			slog.String("event_type", event.EventType),
			slog.String("aggregate_id", event.AggregateID),
			slog.String("error", lastErr.Error()),
			slog.String("topic", msg.Topic),
			slog.Int("partition", msg.Partition),
			slog.Int64("offset", msg.Offset),
		)
		c.deadLetter(ctx, msg, lastErr)
	} else {
		ConsumerMessagesProcessed.WithLabelValues(labels...).Inc()
	}

	c.commit(ctx, msg)
	return true
}

func (c *Consumer) handleWithRetry(ctx context.Context, msg kafka.Message, event *Event) error {
	var lastErr error
	for attempt := 1; attempt <= c.cfg.MaxRetries; attempt++ {
		lastErr = c.handler(ctx, event)
		if lastErr == nil || errors.Is(lastErr, ErrPermanent) {
			return lastErr
		}

		c.logger.Warn("handler failed, will retry",
			slog.String("event_type", event.EventType),
			slog.String("error", lastErr.Error()),
			slog.Int64("offset", msg.Offset),
			slog.Int("attempt", attempt),
			slog.Int("max_retries", c.cfg.MaxRetries),
		)
		if attempt < c.cfg.MaxRetries && !sleep(ctx, time.Duration(attempt)*c.cfg.RetryBackoff) {
			return ctx.Err()
		}
	}
	return lastErr
}

func (c *Consumer) deadLetter(ctx context.Context, msg kafka.Message, cause error) {
	if c.dlq == nil {
		return
	}
	if err := c.dlq.Publish(ctx, msg, cause, c.cfg.GroupID); err != nil {
		return
	}
	ConsumerDLQPublished.WithLabelValues(c.cfg.Topic, c.cfg.GroupID).Inc()
}

func (c *Consumer) commit(ctx context.Context, msg kafka.Message) {
	if err := c.reader.CommitMessages(ctx, msg); err != nil {
		c.logger.Error("failed to commit message",
			slog.String("error", err.Error()),
			slog.Int64("offset", msg.Offset),
		)
	}
}

// Close closes the reader and the dead-letter writer. It is safe to call
// multiple times.
func (c *Consumer) Close() error {
	var err error
	c.closeOnce.Do(func() {
		err = c.reader.Close()
		if c.dlq != nil {
			err = errors.Join(err, c.dlq.Close())
		}
	})
	return err
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
