package kafkax

import (
	"context"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type Handler func(ctx context.Context, msg kafka.Message) error

// Deduper decides whether an event id has been seen before. A false return
// means the message was already processed and must be skipped.
type Deduper interface {
	Record(ctx context.Context, eventID, eventType string) (bool, error)
}

// Consumer reads one topic in a consumer group, dedupes by event id, and
// invokes the handler inside a tracing span. Handler errors are logged and
// the loop moves on; redelivery comes from upstream retries, not re-reads.
type Consumer struct {
	reader  *kafka.Reader
	logger  *slog.Logger
	dedup   Deduper
	handler Handler
}

type ConsumerConfig struct {
	Brokers string
	GroupID string
	Topic   string
}

func NewConsumer(logger *slog.Logger, dedup Deduper, cfg ConsumerConfig, handler Handler) *Consumer {
	return &Consumer{
		reader:  NewReader(cfg.Brokers, cfg.GroupID, cfg.Topic),
		logger:  logger,
		dedup:   dedup,
		handler: handler,
	}
}

func (c *Consumer) Run(ctx context.Context) {
	defer c.reader.Close()

	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Error("kafka read error", "err", err)
			time.Sleep(1 * time.Second)
			continue
		}

		ctxMsg := ExtractTraceContext(ctx, msg)
		ctxSpan, span := otel.Tracer("kafka").Start(ctxMsg, "kafka.consume",
			trace.WithAttributes(
				attribute.String("messaging.system", "kafka"),
				attribute.String("messaging.destination", msg.Topic),
			),
		)

		meta := ExtractEventMeta(msg)

		ok, err := c.dedup.Record(ctxSpan, meta.EventID, meta.EventType)
		if err != nil {
			c.logger.Error("inbox record failed", "err", err)
			span.RecordError(err)
			span.End()
			continue
		}
		if !ok {
			c.logger.Info("duplicate event ignored", "event_id", meta.EventID, "event_type", meta.EventType)
			span.End()
			continue
		}

		if err := c.handler(ctxSpan, msg); err != nil {
			c.logger.Error("handler error", "err", err, "event_id", meta.EventID)
			span.RecordError(err)
			span.End()
			continue
		}
		span.End()
	}
}
