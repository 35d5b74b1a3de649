package jobs

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	otelx "github.com/jmoss-dev/salonbook/libs/otel"
)

// Job is a durable fire-at-absolute-time reminder. The idempotency key makes
// redelivered request events collapse into one job.
type Job struct {
	ID             int64
	IdempotencyKey string
	AppointmentID  string
	Recipient      string
	RemindAt       time.Time
	Payload        map[string]any
	Traceparent    string
	Tracestate     string
	Attempts       int
	MaxAttempts    int
	NextRunAt      time.Time
}

type Repository struct{}

func NewRepository() *Repository {
	return &Repository{}
}

func (r *Repository) Insert(ctx context.Context, tx pgx.Tx, job Job) error {
	payload, err := json.Marshal(job.Payload)
	if err != nil {
		return err
	}
	traceparent, tracestate := otelx.TraceContextStrings(ctx)
	_, err = tx.Exec(ctx, `
		INSERT INTO scheduler_jobs (idempotency_key, appointment_id, recipient, remind_at, payload, next_run_at, traceparent, tracestate)
		VALUES ($1, $2, $3, $4, $5, $4, $6, $7)
		ON CONFLICT (idempotency_key) DO NOTHING
	`, job.IdempotencyKey, job.AppointmentID, job.Recipient, job.RemindAt, payload, traceparent, tracestate)
	return err
}

func (r *Repository) FetchDue(ctx context.Context, tx pgx.Tx, limit int) ([]Job, error) {
	rows, err := tx.Query(ctx, `
		SELECT id, idempotency_key, appointment_id, recipient, remind_at, payload, traceparent, tracestate, attempts, max_attempts, next_run_at
		FROM scheduler_jobs
		WHERE status = 'pending' AND next_run_at <= now()
		ORDER BY next_run_at
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []Job
	for rows.Next() {
		var j Job
		var raw []byte
		if err := rows.Scan(&j.ID, &j.IdempotencyKey, &j.AppointmentID, &j.Recipient, &j.RemindAt, &raw, &j.Traceparent, &j.Tracestate, &j.Attempts, &j.MaxAttempts, &j.NextRunAt); err != nil {
			return nil, err
		}
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &j.Payload); err != nil {
				return nil, err
			}
		} else {
			j.Payload = map[string]any{}
		}
		jobs = append(jobs, j)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return jobs, nil
}

func (r *Repository) MarkProcessed(ctx context.Context, tx pgx.Tx, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := tx.Exec(ctx, `
		UPDATE scheduler_jobs
		SET status = 'processed', updated_at = now()
		WHERE id = ANY($1)
	`, ids)
	return err
}

func (r *Repository) MarkFailed(ctx context.Context, tx pgx.Tx, id int64, attempts int, maxAttempts int, nextRunAt time.Time, lastError string) error {
	status := "pending"
	if attempts >= maxAttempts {
		status = "failed"
	}
	_, err := tx.Exec(ctx, `
		UPDATE scheduler_jobs
		SET attempts = $2,
		    status = $3,
		    next_run_at = $4,
		    last_error = $5,
		    updated_at = now()
		WHERE id = $1
	`, id, attempts, status, nextRunAt, lastError)
	return err
}

// CancelPending drops not-yet-fired reminders for an appointment that was
// closed as cancelled. Processed jobs are left alone.
func (r *Repository) CancelPending(ctx context.Context, tx pgx.Tx, appointmentID string) (int64, error) {
	tag, err := tx.Exec(ctx, `
		UPDATE scheduler_jobs
		SET status = 'cancelled', updated_at = now()
		WHERE appointment_id = $1 AND status = 'pending'
	`, appointmentID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// PurgeFinished deletes processed, failed, and cancelled jobs older than the
// cutoff. Used by the nightly janitor.
func (r *Repository) PurgeFinished(ctx context.Context, tx pgx.Tx, before time.Time) (int64, error) {
	tag, err := tx.Exec(ctx, `
		DELETE FROM scheduler_jobs
		WHERE status IN ('processed', 'failed', 'cancelled') AND updated_at < $1
	`, before)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
