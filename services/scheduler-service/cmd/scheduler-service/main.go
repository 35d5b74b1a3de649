package main

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jmoss-dev/salonbook/libs/config"
	"github.com/jmoss-dev/salonbook/libs/db"
	"github.com/jmoss-dev/salonbook/libs/httpx"
	"github.com/jmoss-dev/salonbook/libs/inbox"
	"github.com/jmoss-dev/salonbook/libs/janitor"
	"github.com/jmoss-dev/salonbook/libs/kafkax"
	otelx "github.com/jmoss-dev/salonbook/libs/otel"
	"github.com/jmoss-dev/salonbook/libs/outbox"
	"github.com/jmoss-dev/salonbook/libs/runtime"
	"github.com/jmoss-dev/salonbook/services/scheduler-service/internal/jobs"
	"github.com/jmoss-dev/salonbook/services/scheduler-service/migrations"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	config.LoadDotenv()

	service := config.String("SERVICE_NAME", "scheduler-service")
	port, err := config.Port("PORT", "8082")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		panic(err)
	}
	if config.Bool("MIGRATE_ON_START", true) {
		if err := db.Migrate(dbURL, migrations.FS, "."); err != nil {
			logger.Error("migrations failed", "err", err)
			panic(err)
		}
	}

	pool, err := db.Open(ctx, dbURL)
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	inboxRepo := inbox.NewRepository(pool)
	jobRepo := jobs.NewRepository()
	outboxRepo := outbox.NewRepository()

	outboxPublisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   config.String("KAFKA_BROKERS", ""),
		PollEvery: 2 * time.Second,
		BatchSize: 50,
	})
	go outboxPublisher.Run(ctx)

	jobWorker := jobs.NewWorker(pool, jobRepo, outboxRepo, logger, jobs.WorkerConfig{
		Interval:  2 * time.Second,
		BatchSize: 50,
		Backoff:   time.Duration(config.Int("SCHEDULER_BACKOFF_SECONDS", 60)) * time.Second,
	})
	go jobWorker.Run(ctx)

	brokers := config.String("KAFKA_BROKERS", "")
	groupID := config.String("KAFKA_GROUP_ID", "scheduler-service")

	type reminderRequest struct {
		AppointmentID  string `json:"appointment_id"`
		IdempotencyKey string `json:"idempotency_key"`
		Recipient      string `json:"recipient"`
		RemindAt       string `json:"remind_at"`
	}

	requestConsumer := kafkax.NewConsumer(logger, inboxRepo, kafkax.ConsumerConfig{
		Brokers: brokers,
		GroupID: groupID,
		Topic:   "booking.reminder.requested.v1",
	}, func(ctx context.Context, msg kafka.Message) error {
		var payload reminderRequest
		if err := json.Unmarshal(msg.Value, &payload); err != nil {
			logger.Error("invalid reminder request", "err", err)
			return nil
		}
		if payload.AppointmentID == "" || payload.RemindAt == "" {
			logger.Error("missing reminder fields")
			return nil
		}
		remindAt, err := time.Parse(time.RFC3339, payload.RemindAt)
		if err != nil {
			logger.Error("invalid remind_at", "err", err)
			return nil
		}
		key := payload.IdempotencyKey
		if key == "" {
			key = payload.AppointmentID + "|" + payload.RemindAt
		}

		var stored map[string]any
		_ = json.Unmarshal(msg.Value, &stored)

		return pool.InTx(ctx, func(tx pgx.Tx) error {
			return jobRepo.Insert(ctx, tx, jobs.Job{
				IdempotencyKey: key,
				AppointmentID:  payload.AppointmentID,
				Recipient:      payload.Recipient,
				RemindAt:       remindAt,
				Payload:        stored,
			})
		})
	})
	go requestConsumer.Run(ctx)

	// A cancelled appointment must not remind the customer, so closed events
	// drop its pending jobs.
	closedConsumer := kafkax.NewConsumer(logger, inboxRepo, kafkax.ConsumerConfig{
		Brokers: brokers,
		GroupID: groupID,
		Topic:   "booking.appointment.closed.v1",
	}, func(ctx context.Context, msg kafka.Message) error {
		var payload struct {
			AppointmentID string `json:"appointment_id"`
			Status        string `json:"status"`
		}
		if err := json.Unmarshal(msg.Value, &payload); err != nil {
			logger.Error("invalid closed event", "err", err)
			return nil
		}
		if payload.AppointmentID == "" || payload.Status != "cancelled" {
			// Completed appointments keep nothing pending worth cancelling;
			// their reminder already fired or is about to, harmlessly.
			return nil
		}
		return pool.InTx(ctx, func(tx pgx.Tx) error {
			n, err := jobRepo.CancelPending(ctx, tx, payload.AppointmentID)
			if err != nil {
				return err
			}
			if n > 0 {
				logger.Info("cancelled pending reminders", "appointment_id", payload.AppointmentID, "count", n)
			}
			return nil
		})
	})
	go closedConsumer.Run(ctx)

	sweeper := janitor.New(logger,
		config.String("JANITOR_SCHEDULE", "30 3 * * *"),
		time.Duration(config.Int("JANITOR_RETENTION_DAYS", 7))*24*time.Hour,
		janitor.Sweep{Name: "outbox", Purge: func(ctx context.Context, before time.Time) (int64, error) {
			var n int64
			err := pool.InTx(ctx, func(tx pgx.Tx) error {
				var err error
				n, err = outboxRepo.PurgePublished(ctx, tx, before)
				return err
			})
			return n, err
		}},
		janitor.Sweep{Name: "jobs", Purge: func(ctx context.Context, before time.Time) (int64, error) {
			var n int64
			err := pool.InTx(ctx, func(tx pgx.Tx) error {
				var err error
				n, err = jobRepo.PurgeFinished(ctx, tx, before)
				return err
			})
			return n, err
		}},
		janitor.Sweep{Name: "inbox", Purge: inboxRepo.Purge},
	)
	go sweeper.Run(ctx)

	mux := runtime.NewBaseMuxWithReady(
		runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
		runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(brokers)},
	)
	handler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
	)
	handler = otelhttp.NewHandler(handler, "scheduler")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}
