package main

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/jmoss-dev/salonbook/libs/config"
	"github.com/jmoss-dev/salonbook/libs/db"
	"github.com/jmoss-dev/salonbook/libs/httpx"
	"github.com/jmoss-dev/salonbook/libs/kafkax"
	otelx "github.com/jmoss-dev/salonbook/libs/otel"
	"github.com/jmoss-dev/salonbook/libs/outbox"
	"github.com/jmoss-dev/salonbook/libs/runtime"
	"github.com/jmoss-dev/salonbook/services/booking-service/internal/availability"
	"github.com/jmoss-dev/salonbook/services/booking-service/internal/handlers"
	"github.com/jmoss-dev/salonbook/services/booking-service/internal/storage"
	"github.com/jmoss-dev/salonbook/services/booking-service/migrations"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	config.LoadDotenv()

	service := config.String("SERVICE_NAME", "booking-service")
	port, err := config.Port("PORT", "8081")
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

	tzName := config.String("BUSINESS_TIMEZONE", "America/New_York")
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		logger.Error("invalid BUSINESS_TIMEZONE, falling back to UTC", "value", tzName, "err", err)
		loc = time.UTC
	}

	availCfg := availability.DefaultConfig()
	availCfg.OpenMinutes = config.Int("OPEN_HOUR", 9) * 60
	availCfg.CloseMinutes = config.Int("CLOSE_HOUR", 18) * 60
	availCfg.StepMinutes = config.Int("SLOT_STEP_MINUTES", 60)

	apptRepo := storage.NewAppointmentRepository(pool)
	serviceRepo := storage.NewServiceRepository(pool)
	blockedRepo := storage.NewBlockedDateRepository(pool)
	slotCfgRepo := storage.NewSlotConfigRepository(pool)
	outboxRepo := outbox.NewRepository()

	outboxPublisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   config.String("KAFKA_BROKERS", ""),
		PollEvery: 2 * time.Second,
		BatchSize: 50,
	})
	go outboxPublisher.Run(ctx)

	handler := handlers.New(apptRepo, serviceRepo, blockedRepo, slotCfgRepo, outboxRepo, logger, handlers.Config{
		Availability: availCfg,
		Location:     loc,
		FeedToken:    config.String("FEED_TOKEN", ""),
	})

	mux := runtime.NewBaseMuxWithReady(
		runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
		runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(config.String("KAFKA_BROKERS", ""))},
	)

	// Public surface gets the rate limiter; admin and feed do not.
	var limit httpx.Middleware
	if addr := config.String("REDIS_ADDR", ""); addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: addr, Password: config.String("REDIS_PASSWORD", "")})
		limiter := httpx.NewRedisRateLimiter(rdb, config.Int("RATE_LIMIT", 60), time.Minute, "booking")
		limit = limiter.Middleware(logger, true)
	} else {
		limit = httpx.NewRateLimiter(config.Int("RATE_LIMIT", 60), time.Minute).Middleware()
	}
	public := func(h http.HandlerFunc) http.Handler {
		return httpx.Chain(h, limit, httpx.WithBodyLimit(64<<10))
	}

	mux.Handle("/api/v1/public/book", public(handler.Create))
	mux.Handle("/api/v1/public/slots", public(handler.Slots))
	mux.Handle("/api/v1/public/config-slots", public(handler.ConfigSlots))
	mux.Handle("/api/v1/public/services", public(handler.ListServices))
	mux.HandleFunc("/api/v1/admin/appointments", handler.ListAppointments)
	mux.HandleFunc("/api/v1/admin/appointments/status", handler.UpdateStatus)
	mux.HandleFunc("/api/v1/admin/appointments/delete", handler.Delete)
	mux.HandleFunc("/api/v1/admin/blocked-dates", handler.ListBlockedDates)
	mux.HandleFunc("/api/v1/admin/blocked-dates/block", handler.BlockDate)
	mux.HandleFunc("/api/v1/admin/blocked-dates/unblock", handler.UnblockDate)
	mux.HandleFunc("/api/v1/admin/slot-config", handler.SetSlotConfig)
	mux.HandleFunc("/api/v1/admin/services", handler.CreateService)
	mux.HandleFunc("/feed.ics", handler.Feed)

	httpHandler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithCORS(httpx.CORSPolicy{
			AllowedOrigins: splitList(config.String("CORS_ALLOWED_ORIGINS", "")),
			AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type"},
			MaxAge:         10 * time.Minute,
		}),
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "booking")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           httpHandler,
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

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
