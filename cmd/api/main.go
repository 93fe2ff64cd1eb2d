package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/paklog/wave-planning-service/pkg/cloudevents"
	"github.com/paklog/wave-planning-service/pkg/kafka"
	"github.com/paklog/wave-planning-service/pkg/logging"
	"github.com/paklog/wave-planning-service/pkg/metrics"
	"github.com/paklog/wave-planning-service/pkg/middleware"
	"github.com/paklog/wave-planning-service/pkg/mongodb"
	"github.com/paklog/wave-planning-service/pkg/outbox"
	outboxmongo "github.com/paklog/wave-planning-service/pkg/outbox/mongodb"
	"github.com/paklog/wave-planning-service/pkg/tracing"

	"github.com/paklog/wave-planning-service/internal/application"
	"github.com/paklog/wave-planning-service/internal/infrastructure/clients"
	"github.com/paklog/wave-planning-service/internal/infrastructure/events"
	mongorepo "github.com/paklog/wave-planning-service/internal/infrastructure/mongodb"
)

const serviceName = "wave-planning-service"

func main() {
	logConfig := logging.DefaultConfig(serviceName)
	logConfig.Level = logging.LogLevel(getEnv("LOG_LEVEL", "info"))
	logger := logging.New(logConfig)
	logger.SetDefault()

	logger.Info("Starting wave-planning-service API")

	config := loadConfig()
	ctx := context.Background()

	// Tracing
	tracingConfig := tracing.DefaultConfig(serviceName)
	tracingConfig.OTLPEndpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317")
	tracingConfig.Environment = getEnv("ENVIRONMENT", "development")
	tracingConfig.Enabled = getEnv("TRACING_ENABLED", "true") == "true"

	tracerProvider, err := tracing.Initialize(ctx, tracingConfig)
	if err != nil {
		logger.WithError(err).Error("Failed to initialize tracing")
		// Continue without tracing
	} else if tracerProvider != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
				logger.WithError(err).Error("Failed to shutdown tracer")
			}
		}()
		logger.Info("Tracing initialized", "endpoint", tracingConfig.OTLPEndpoint)
	}

	// Metrics
	m := metrics.New(metrics.DefaultConfig(serviceName))
	logger.Info("Metrics initialized")

	// MongoDB
	mongoClient, err := mongodb.NewClient(ctx, config.MongoDB)
	if err != nil {
		logger.WithError(err).Error("Failed to connect to MongoDB")
		os.Exit(1)
	}
	defer mongoClient.Close(ctx)
	logger.Info("Connected to MongoDB", "database", config.MongoDB.Database)

	// Kafka producer
	producer := kafka.NewProducer(config.Kafka)
	instrumentedProducer := kafka.NewInstrumentedProducer(producer, m, logger)
	defer instrumentedProducer.Close()
	logger.Info("Kafka producer initialized", "brokers", config.Kafka.Brokers)

	// CloudEvents factory
	eventFactory := cloudevents.NewEventFactory(cloudevents.SourceWavePlanning)

	// Outbox repository and wave repository
	outboxRepo := outboxmongo.NewOutboxRepository(mongoClient.Database())
	if err := outboxRepo.EnsureIndexes(ctx); err != nil {
		logger.WithError(err).Error("Failed to create outbox indexes")
		os.Exit(1)
	}

	eventPublisher := events.NewWaveEventPublisher(outboxRepo, kafka.TopicWaveEvents)
	waveRepo := mongorepo.NewWaveRepository(mongoClient, eventPublisher, m)
	if err := waveRepo.EnsureIndexes(ctx); err != nil {
		logger.WithError(err).Error("Failed to create wave indexes")
		os.Exit(1)
	}

	// Outbox relay: moves staged events to Kafka
	relay := outbox.NewRelay(outboxRepo, eventFactory, instrumentedProducer, logger, m, config.Relay)
	if err := relay.Start(ctx); err != nil {
		logger.WithError(err).Error("Failed to start outbox relay")
		os.Exit(1)
	}
	defer relay.Stop()
	logger.Info("Outbox relay started", "pollInterval", config.Relay.PollInterval)

	// Outbox cleanup: prunes published records
	cleanup := outbox.NewCleanup(outboxRepo, logger, m, config.Cleanup)
	if err := cleanup.Start(ctx); err != nil {
		logger.WithError(err).Error("Failed to start outbox cleanup")
		os.Exit(1)
	}
	defer cleanup.Stop()
	logger.Info("Outbox cleanup started", "retention", config.Cleanup.Retention)

	// Order management client
	orderClient := clients.NewOrderManagementClient(config.OrderServiceURL, logger, m)
	logger.Info("Order management client initialized", "url", config.OrderServiceURL)

	// Application services
	planner := application.NewWavePlanner(config.Planner)
	skuCalc := application.NewSKUCalculator(orderClient, logger)
	waveService := application.NewWavePlanningService(waveRepo, planner, skuCalc, outboxRepo, logger, m)

	// Release scheduler
	scheduler := application.NewReleaseScheduler(waveService, config.Scheduler, logger)
	if config.SchedulerEnabled {
		if err := scheduler.Start(ctx); err != nil {
			logger.WithError(err).Error("Failed to start release scheduler")
		}
	} else {
		logger.Info("Release scheduler disabled")
	}
	defer scheduler.Stop()

	// HTTP router
	router := gin.New()
	middleware.Setup(router, middleware.DefaultConfig(serviceName, logger))
	router.Use(middleware.TracingMiddleware(middleware.DefaultTracingConfig(serviceName)))
	router.Use(middleware.MetricsMiddleware(m))

	router.GET("/health", middleware.HealthCheck(serviceName))
	router.GET("/ready", middleware.ReadinessCheck(serviceName, func() error {
		return mongoClient.HealthCheck(ctx)
	}))
	router.GET("/metrics", middleware.MetricsEndpoint(m))

	registerRoutes(router, waveService, scheduler, logger)

	srv := &http.Server{
		Addr:         config.ServerAddr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("Server error")
		}
	}()
	logger.Info("Server started", "addr", config.ServerAddr)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	if scheduler.IsRunning() {
		scheduler.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}

	logger.Info("Server stopped")
}

// Config holds application configuration
type Config struct {
	ServerAddr       string
	MongoDB          *mongodb.Config
	Kafka            *kafka.Config
	Relay            *outbox.RelayConfig
	Cleanup          *outbox.CleanupConfig
	Planner          application.PlannerConfig
	Scheduler        application.ReleaseSchedulerConfig
	SchedulerEnabled bool
	OrderServiceURL  string
}

func loadConfig() *Config {
	return &Config{
		ServerAddr: getEnv("SERVER_ADDR", ":8003"),
		MongoDB: &mongodb.Config{
			URI:            getEnv("MONGODB_URI", "mongodb://localhost:27017"),
			Database:       getEnv("MONGODB_DATABASE", "wave_planning"),
			ConnectTimeout: 10 * time.Second,
			MaxPoolSize:    100,
			MinPoolSize:    10,
			ReplicaSet:     getEnv("MONGODB_REPLICA_SET", ""),
		},
		Kafka: &kafka.Config{
			Brokers:      []string{getEnv("KAFKA_BROKERS", "localhost:9092")},
			ClientID:     serviceName,
			BatchSize:    100,
			BatchTimeout: 10 * time.Millisecond,
			RequiredAcks: -1,
		},
		Relay: &outbox.RelayConfig{
			PollInterval: parseDuration(getEnv("OUTBOX_POLL_INTERVAL", "5s")),
			BatchSize:    parseInt(getEnv("OUTBOX_BATCH_SIZE", "100")),
			MaxRetries:   parseInt(getEnv("OUTBOX_MAX_RETRIES", "3")),
		},
		Cleanup: &outbox.CleanupConfig{
			Interval:  parseDuration(getEnv("OUTBOX_CLEANUP_INTERVAL", "1h")),
			Retention: parseDuration(getEnv("OUTBOX_RETENTION", "168h")),
		},
		Planner: application.PlannerConfig{
			MaxOrdersPerWave: parseInt(getEnv("PLANNER_MAX_ORDERS", "100")),
			MaxLinesPerWave:  parseInt(getEnv("PLANNER_MAX_LINES", "500")),
			MinOrdersPerWave: parseInt(getEnv("PLANNER_MIN_ORDERS", "5")),
		},
		Scheduler: application.ReleaseSchedulerConfig{
			CheckInterval: parseDuration(getEnv("RELEASE_CHECK_INTERVAL", "30s")),
		},
		SchedulerEnabled: getEnv("RELEASE_SCHEDULER_ENABLED", "true") == "true",
		OrderServiceURL:  getEnv("ORDER_SERVICE_URL", "http://localhost:8001"),
	}
}

func parseDuration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return time.Minute
	}
	return d
}

func parseInt(s string) int {
	var i int
	fmt.Sscanf(s, "%d", &i)
	return i
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
