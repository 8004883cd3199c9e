package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"charter/internal/app"
	"charter/internal/config"
	"charter/internal/handler"
	internalRedis "charter/internal/redis"
	"charter/internal/repository/postgres"
	"charter/internal/service"
)

func main() {
	// Load configuration.
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize New Relic FIRST (before database so we can instrument DB).
	var nrApp *newrelic.Application
	var err error
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			log.Printf("failed to initialize New Relic: %v", err)
		} else {
			log.Printf("New Relic enabled: app=%s (with DB instrumentation)", cfg.NewRelic.AppName)
		}
	}

	// Initialize database with New Relic instrumentation.
	db, err := app.NewDatabase(ctx, cfg.Database, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Connected to PostgreSQL")

	// Initialize Redis with New Relic instrumentation.
	redisClient, err := app.NewRedisClient(ctx, cfg.Redis, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Connected to Redis")

	// Wire dependencies.
	server := wireServer(db, redisClient, nrApp, cfg)

	// Start server in goroutine.
	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

// wireServer wires all dependencies and returns the HTTP server.
func wireServer(db *sql.DB, redisClient *redis.Client, nrApp *newrelic.Application, cfg *config.Config) *http.Server {
	// Initialize Redis stores.
	lockStore := internalRedis.NewLockStore(redisClient)
	cacheStore := internalRedis.NewCacheStore(redisClient)
	messageStore := internalRedis.NewMessageStore(redisClient)

	// Initialize repositories.
	customerRepo := postgres.NewCustomerRepository(db)
	driverRepo := postgres.NewDriverRepository(db)
	bookingRepo := postgres.NewBookingRepository(db)
	paymentRepo := postgres.NewPaymentRepository(db)
	commissionRepo := postgres.NewCommissionRepository(db)
	promoRepo := postgres.NewPromoRepository(db)

	// Initialize services.
	notificationService := service.NewNotificationService()
	dispatcher := service.NewEventDispatcher(notificationService, messageStore)
	codec := service.NewOrderCodec(bookingRepo)
	auth := service.NewAuthenticator(cfg.Gateway)
	bookingService := service.NewBookingService(bookingRepo, commissionRepo, promoRepo, lockStore, cacheStore)
	paymentService := service.NewPaymentService(bookingRepo, paymentRepo, codec, auth, lockStore, cfg.Gateway)
	settlementService := service.NewSettlementService(db, bookingRepo, paymentRepo, codec, auth, lockStore, cacheStore, cfg.Gateway)
	dispatchService := service.NewDispatchService(bookingRepo, driverRepo, lockStore, cacheStore)
	tripService := service.NewTripService(db, bookingRepo, driverRepo, lockStore, cacheStore)

	// Initialize handlers.
	customerHandler := handler.NewCustomerHandler(customerRepo)
	driverHandler := handler.NewDriverHandler(driverRepo)
	bookingHandler := handler.NewBookingHandler(bookingService, dispatcher, messageStore)
	paymentHandler := handler.NewPaymentHandler(paymentService)
	callbackHandler := handler.NewCallbackHandler(settlementService, dispatcher)
	dispatchHandler := handler.NewDispatchHandler(dispatchService, dispatcher)
	tripHandler := handler.NewTripHandler(tripService, dispatcher)

	// Create router.
	router := app.NewRouter(app.RouterDeps{
		BookingHandler:  bookingHandler,
		PaymentHandler:  paymentHandler,
		CallbackHandler: callbackHandler,
		DispatchHandler: dispatchHandler,
		TripHandler:     tripHandler,
		DriverHandler:   driverHandler,
		CustomerHandler: customerHandler,
		RedisClient:     redisClient,
		NewRelicApp:     nrApp,
	})

	// Create HTTP server.
	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
}
