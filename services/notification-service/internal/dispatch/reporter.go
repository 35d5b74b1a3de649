package dispatch

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jmoss-dev/salonbook/libs/db"
	"github.com/jmoss-dev/salonbook/libs/outbox"
)

// OutboxReporter writes the delivery-status follow-up events through this
// service's own outbox.
type OutboxReporter struct {
	pool *db.Pool
	repo *outbox.Repository
}

func NewOutboxReporter(pool *db.Pool, repo *outbox.Repository) *OutboxReporter {
	return &OutboxReporter{pool: pool, repo: repo}
}

func (r *OutboxReporter) Sent(ctx context.Context, appointmentID, channel, providerID string) error {
	if providerID == "" {
		providerID = "unknown"
	}
	return r.insert(ctx, appointmentID, "notification.sent.v1", map[string]any{
		"appointment_id": appointmentID,
		"channel":        channel,
		"provider_id":    providerID,
		"sent_at":        time.Now().UTC().Format(time.RFC3339),
	})
}

func (r *OutboxReporter) Failed(ctx context.Context, appointmentID, channel, reason string) error {
	return r.insert(ctx, appointmentID, "notification.failed.v1", map[string]any{
		"appointment_id": appointmentID,
		"channel":        channel,
		"error_reason":   reason,
		"failed_at":      time.Now().UTC().Format(time.RFC3339),
	})
}

func (r *OutboxReporter) insert(ctx context.Context, appointmentID, eventType string, payload map[string]any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return r.pool.InTx(ctx, func(tx pgx.Tx) error {
		return r.repo.Insert(ctx, tx, outbox.Event{
			AggregateType: "notification",
			AggregateID:   appointmentID,
			EventType:     eventType,
			Payload:       body,
		})
	})
}
