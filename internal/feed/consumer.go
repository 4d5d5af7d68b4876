// Package feed consumes sales events from a Kafka topic and hands them to the
// same ingest path the HTTP endpoint uses.
package feed

import (
	"context"
	"errors"
	"log/slog"
	"time"

	v1 "github.com/craftmarket/salesagg/internal/api/v1"
	coreerrors "github.com/craftmarket/salesagg/internal/core/errors"
	"github.com/craftmarket/salesagg/internal/core/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/segmentio/kafka-go"
)

const (
	defaultRetryDelay = time.Second

	resultAccepted  = "accepted"
	resultDuplicate = "duplicate"
	resultMalformed = "malformed"
	resultRetried   = "retried"
)

// MessageReader is the subset of *kafka.Reader the consumer needs.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// AcceptFunc persists and queues one event. It follows the HTTP ingest
// contract: *IngestError for malformed events, storage.ErrDuplicate for
// replays, ErrBackpressure when the queue is full.
type AcceptFunc func(ctx context.Context, evt *v1.SalesEvent) error

// Config holds the Kafka reader settings. The retry delay belongs to the
// Consumer and is passed to NewConsumer.
type Config struct {
	Brokers  []string
	Topic    string
	GroupID  string
	MinBytes int
	MaxBytes int
}

// NewReader creates a consumer-group reader with manual commits.
func NewReader(cfg Config) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		Topic:          cfg.Topic,
		GroupID:        cfg.GroupID,
		MinBytes:       cfg.MinBytes,
		MaxBytes:       cfg.MaxBytes,
		CommitInterval: 0,
		StartOffset:    kafka.FirstOffset,
	})
}

// Consumer reads the topic one message at a time and commits a message only
// after its event is accepted or judged malformed.
type Consumer struct {
	reader     MessageReader
	codec      Codec
	accept     AcceptFunc
	retryDelay time.Duration
	messages   *prometheus.CounterVec
}

func NewConsumer(reader MessageReader, codec Codec, accept AcceptFunc, retryDelay time.Duration, reg prometheus.Registerer) *Consumer {
	if retryDelay <= 0 {
		retryDelay = defaultRetryDelay
	}
	return &Consumer{
		reader:     reader,
		codec:      codec,
		accept:     accept,
		retryDelay: retryDelay,
		messages: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: "salesagg",
			Subsystem: "feed",
			Name:      "messages_total",
			Help:      "Feed messages by handling result.",
		}, []string{"result"}),
	}
}

// Run consumes until ctx is cancelled. The reader is closed on return.
func (c *Consumer) Run(ctx context.Context) error {
	slog.Info("[Feed] Consumer started", "codec", c.codec.Name())
	defer func() {
		if err := c.reader.Close(); err != nil {
			slog.Error("[Feed] Failed to close reader", "error", err)
		}
		slog.Info("[Feed] Consumer stopped")
	}()

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			slog.Error("[Feed] Fetch failed", "error", err)
			if !c.sleep(ctx) {
				return nil
			}
			continue
		}

		if !c.handle(ctx, msg) {
			return nil
		}
	}
}

// handle processes one message. It returns false only when ctx ends before
// the message could be settled; the message is then redelivered on restart.
func (c *Consumer) handle(ctx context.Context, msg kafka.Message) bool {
	evt, err := c.codec.Decode(msg.Value)
	if err != nil {
		slog.Warn("[Feed] Dropping malformed message",
			"partition", msg.Partition,
			"offset", msg.Offset,
			"error", err,
		)
		c.messages.WithLabelValues(resultMalformed).Inc()
		return c.commit(ctx, msg)
	}

	for {
		err := c.accept(ctx, evt)
		switch {
		case err == nil:
			c.messages.WithLabelValues(resultAccepted).Inc()
			return c.commit(ctx, msg)

		case errors.Is(err, storage.ErrDuplicate):
			c.messages.WithLabelValues(resultDuplicate).Inc()
			return c.commit(ctx, msg)

		case coreerrors.IsIngestError(err):
			slog.Warn("[Feed] Dropping invalid event",
				"event_id", evt.EventID,
				"seller_id", evt.SellerID,
				"offset", msg.Offset,
				"error", err,
			)
			c.messages.WithLabelValues(resultMalformed).Inc()
			return c.commit(ctx, msg)
		}

		if ctx.Err() != nil {
			return false
		}
		slog.Warn("[Feed] Event not accepted, retrying",
			"event_id", evt.EventID,
			"seller_id", evt.SellerID,
			"error", err,
		)
		c.messages.WithLabelValues(resultRetried).Inc()
		if !c.sleep(ctx) {
			return false
		}
	}
}

func (c *Consumer) commit(ctx context.Context, msg kafka.Message) bool {
	if err := c.reader.CommitMessages(ctx, msg); err != nil {
		if ctx.Err() != nil {
			return false
		}
		slog.Error("[Feed] Commit failed", "partition", msg.Partition, "offset", msg.Offset, "error", err)
	}
	return true
}

func (c *Consumer) sleep(ctx context.Context) bool {
	t := time.NewTimer(c.retryDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
