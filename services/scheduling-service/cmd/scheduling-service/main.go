package main

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/slotline/slotline/libs/config"
	"github.com/slotline/slotline/libs/db"
	"github.com/slotline/slotline/libs/httpx"
	"github.com/slotline/slotline/libs/kafkax"
	otelx "github.com/slotline/slotline/libs/otel"
	"github.com/slotline/slotline/libs/runtime"
	"github.com/slotline/slotline/services/scheduling-service/internal/availability"
	"github.com/slotline/slotline/services/scheduling-service/internal/booking"
	"github.com/slotline/slotline/services/scheduling-service/internal/events"
	"github.com/slotline/slotline/services/scheduling-service/internal/handlers"
	"github.com/slotline/slotline/services/scheduling-service/internal/store"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func splitCSV(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func main() {
	service := config.String("SERVICE_NAME", "scheduling-service")
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

	checks := []runtime.ReadyCheck{}

	var st store.Store
	if dbURL := config.String("DATABASE_URL", ""); dbURL != "" {
		pool, err := db.Open(ctx, dbURL)
		if err != nil {
			logger.Error("db connection failed", "err", err)
			panic(err)
		}
		defer pool.Close()
		st = store.NewPostgres(pool)
		checks = append(checks, runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)})
	} else {
		logger.Warn("DATABASE_URL not set; using in-memory store, data will not survive restarts")
		st = store.NewMemory()
	}

	availEngine := availability.NewEngine(st, availability.Config{
		DefaultDurationMinutes: config.Int("DEFAULT_SLOT_MINUTES", 30),
	})

	var publisher events.Publisher = events.Nop{}
	brokers := config.String("KAFKA_BROKERS", "")
	if brokers != "" {
		kafkaPublisher := events.NewKafka(brokers, logger)
		go kafkaPublisher.Run(ctx)
		publisher = kafkaPublisher
		checks = append(checks, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(brokers)})
	}

	bookingEngine := booking.NewEngine(st, availEngine, publisher, logger, booking.Config{
		LockTimeout: time.Duration(config.Int("LOCK_TIMEOUT_SECONDS", 5)) * time.Second,
	})

	middlewares := []httpx.Middleware{
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithBodyLimit(1 << 20),
		httpx.WithTimeout(config.Minutes("REQUEST_TIMEOUT_MINUTES", time.Minute)),
		httpx.WithCORS(httpx.CORSPolicy{
			AllowedOrigins: splitCSV(config.String("CORS_ALLOWED_ORIGINS", "")),
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type", httpx.RequestIDHeader},
			MaxAge:         10 * time.Minute,
		}),
	}

	rateLimit := config.Int("RATE_LIMIT_PER_MINUTE", 120)
	if redisAddr := config.String("REDIS_ADDR", ""); redisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
		defer func() { _ = rdb.Close() }()
		limiter := httpx.NewRedisRateLimiter(rdb, rateLimit, time.Minute, service)
		middlewares = append(middlewares, limiter.Middleware(logger, true))
		checks = append(checks, runtime.ReadyCheck{Name: "redis", Check: httpx.RedisReadyCheck(rdb)})
	} else {
		middlewares = append(middlewares, httpx.NewRateLimiter(rateLimit, time.Minute).Middleware())
	}

	availHandler := handlers.NewAvailabilityHandler(availEngine, logger)
	apptHandler := handlers.NewAppointmentHandler(bookingEngine, logger)
	adminHandler := handlers.NewAdminHandler(st, logger)

	mux := runtime.NewBaseMux(checks...)
	mux.HandleFunc("/api/v1/public/slots", availHandler.Slots)
	mux.HandleFunc("/api/v1/public/slots/next", availHandler.NextSlot)
	mux.HandleFunc("/api/v1/public/book", apptHandler.Create)
	mux.HandleFunc("/api/v1/appointments", apptHandler.List)
	mux.HandleFunc("/api/v1/appointments/get", apptHandler.Get)
	mux.HandleFunc("/api/v1/appointments/modify", apptHandler.Modify)
	mux.HandleFunc("/api/v1/appointments/cancel", apptHandler.Cancel)
	mux.HandleFunc("/api/v1/appointments/status", apptHandler.UpdateStatus)
	mux.HandleFunc("/api/v1/businesses", adminHandler.Business)
	mux.HandleFunc("/api/v1/businesses/hours", adminHandler.BusinessHours)
	mux.HandleFunc("/api/v1/staff", adminHandler.Staff)
	mux.HandleFunc("/api/v1/staff/schedule", adminHandler.StaffSchedule)
	mux.HandleFunc("/api/v1/services", adminHandler.Service)
	mux.HandleFunc("/api/v1/services/assign", adminHandler.AssignService)
	mux.HandleFunc("/api/v1/services/unassign", adminHandler.UnassignService)
	mux.HandleFunc("/api/v1/customers", adminHandler.Customer)
	mux.HandleFunc("/api/v1/faqs", adminHandler.FAQ)

	httpHandler := httpx.Chain(mux, middlewares...)
	httpHandler = otelhttp.NewHandler(httpHandler, "scheduling")
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
