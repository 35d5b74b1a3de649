package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"strings"
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
	"github.com/jmoss-dev/salonbook/services/notification-service/internal/chat"
	"github.com/jmoss-dev/salonbook/services/notification-service/internal/dispatch"
	"github.com/jmoss-dev/salonbook/services/notification-service/internal/email"
	"github.com/jmoss-dev/salonbook/services/notification-service/internal/gcal"
	"github.com/jmoss-dev/salonbook/services/notification-service/internal/storage"
	"github.com/jmoss-dev/salonbook/services/notification-service/migrations"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	config.LoadDotenv()

	service := config.String("SERVICE_NAME", "notification-service")
	port, err := config.Port("PORT", "8083")
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
	outboxRepo := outbox.NewRepository()
	notifications := storage.NewRepository(pool)

	outboxPublisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   config.String("KAFKA_BROKERS", ""),
		PollEvery: 2 * time.Second,
		BatchSize: 50,
	})
	go outboxPublisher.Run(ctx)

	dispatcher := dispatch.New(
		buildEmailSender(logger),
		buildChatSender(logger),
		buildCalendarSyncer(ctx, logger),
		notifications,
		dispatch.NewOutboxReporter(pool, outboxRepo),
		logger,
		dispatch.Config{
			BusinessName:  config.String("BUSINESS_NAME", "salonbook"),
			OperatorEmail: config.String("OPERATOR_EMAIL", ""),
		},
	)

	brokers := config.String("KAFKA_BROKERS", "")
	groupID := config.String("KAFKA_GROUP_ID", "notification-service")
	topics := []string{
		"booking.appointment.requested.v1",
		"booking.appointment.confirmed.v1",
		"booking.appointment.closed.v1",
		"booking.appointment.reopened.v1",
		"booking.appointment.deleted.v1",
		"scheduler.reminder.due.v1",
	}
	for _, topic := range topics {
		consumer := kafkax.NewConsumer(logger, inboxRepo, kafkax.ConsumerConfig{
			Brokers: brokers,
			GroupID: groupID,
			Topic:   topic,
		}, func(ctx context.Context, msg kafka.Message) error {
			meta := kafkax.ExtractEventMeta(msg)
			return dispatcher.Handle(ctx, meta.EventType, msg.Value)
		})
		go consumer.Run(ctx)
	}

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
	handler = otelhttp.NewHandler(handler, "notification")
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

func buildEmailSender(logger *slog.Logger) email.Sender {
	switch config.String("EMAIL_PROVIDER", "smtp") {
	case "sendgrid":
		key, err := config.RequiredString("SENDGRID_API_KEY")
		if err != nil {
			panic(err)
		}
		return email.NewSendGridSender(key,
			config.String("EMAIL_FROM", "no-reply@salonbook.local"),
			config.String("BUSINESS_NAME", "salonbook"),
		)
	default:
		return email.NewSMTPSender(
			config.String("SMTP_HOST", "localhost"),
			config.String("SMTP_PORT", "1025"),
			config.String("EMAIL_FROM", "no-reply@salonbook.local"),
		)
	}
}

func buildChatSender(logger *slog.Logger) chat.Sender {
	url := config.String("CHAT_WEBHOOK_URL", "")
	if url == "" {
		logger.Info("chat webhook not configured, alerts disabled")
		return chat.NewNoopSender()
	}
	return chat.NewWebhookSender(url,
		config.String("CHAT_WEBHOOK_TOKEN", ""),
		config.String("CHAT_WEBHOOK_TO", ""),
	)
}

func buildCalendarSyncer(ctx context.Context, logger *slog.Logger) gcal.Syncer {
	credsPath := config.String("GOOGLE_CREDENTIALS_FILE", "")
	calendarIDs := splitList(config.String("GOOGLE_CALENDAR_IDS", ""))
	if credsPath == "" || len(calendarIDs) == 0 {
		logger.Info("google calendar not configured, sync disabled")
		return gcal.Noop{}
	}
	creds, err := os.ReadFile(credsPath)
	if err != nil {
		logger.Error("reading google credentials failed", "err", err)
		return gcal.Noop{}
	}
	client, err := gcal.NewClient(ctx, creds, calendarIDs, logger)
	if err != nil {
		logger.Error("google calendar client init failed", "err", err)
		return gcal.Noop{}
	}
	return client
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
