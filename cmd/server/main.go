package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/homefix/service-lifecycle/internal/application"
	"github.com/homefix/service-lifecycle/internal/common/auth"
	"github.com/homefix/service-lifecycle/internal/common/database"
	"github.com/homefix/service-lifecycle/internal/common/health"
	"github.com/homefix/service-lifecycle/internal/common/kafka"
	"github.com/homefix/service-lifecycle/internal/common/logger"
	"github.com/homefix/service-lifecycle/internal/common/middleware"
	"github.com/homefix/service-lifecycle/internal/config"
	"github.com/homefix/service-lifecycle/internal/domain/lifecycle"
	"github.com/homefix/service-lifecycle/internal/events"
	"github.com/homefix/service-lifecycle/internal/handler"
	"github.com/homefix/service-lifecycle/internal/repository"
)

const serviceName = "service-lifecycle"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewNamed(cfg.AppEnv, serviceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting "+serviceName,
		zap.String("port", cfg.Port),
		zap.Duration("warranty_window", cfg.WarrantyWindow),
	)

	// Connect to database and apply migrations
	db, err := database.Connect(cfg.DBConfig, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	if err := database.RunMigrations(context.Background(), db, log); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, 15*time.Minute)

	// Side-effect sinks: Kafka audit log and RabbitMQ notifications
	kafkaProducer := kafka.NewProducer(cfg.KafkaConfig.Brokers, log)
	defer func() { _ = kafkaProducer.Close() }()
	auditSink := events.NewKafkaAuditSink(kafkaProducer, cfg.KafkaConfig.AuditTopic, log)

	var notifier application.Notifier = events.NewLogNotifier(log)
	if cfg.RabbitConfig.URL != "" {
		rabbit, err := events.NewRabbitNotifier(cfg.RabbitConfig.URL, cfg.RabbitConfig.Queue, log)
		if err != nil {
			log.Fatal("failed to connect to rabbitmq", zap.Error(err))
		}
		defer func() { _ = rabbit.Close() }()
		notifier = rabbit
	} else {
		log.Warn("RABBITMQ_URL not set, notifications are only logged")
	}

	dispatcher := application.NewAsyncDispatcher(auditSink, notifier, cfg.OutboxConfig.Buffer, cfg.OutboxConfig.Workers, log)
	dispatchCtx, stopDispatch := context.WithCancel(context.Background())
	dispatchDone := make(chan struct{})
	go func() {
		defer close(dispatchDone)
		dispatcher.Run(dispatchCtx)
	}()

	// Initialize repositories
	rdb := repository.NewRedisClient(cfg.RedisConfig.Addr, cfg.RedisConfig.Password, cfg.RedisConfig.DB, log)
	if rdb != nil {
		defer func() { _ = rdb.Close() }()
	}
	serviceRepo := repository.NewCachedServiceRepository(repository.NewGormServiceRepository(db), rdb, cfg.RedisConfig.TTL, log)
	providerRepo := repository.NewGormProviderRepository(db)
	bookingRepo := repository.NewGormBookingRepository(db)
	claimRepo := repository.NewGormWarrantyClaimRepository(db)
	reviewRepo := repository.NewGormReviewRepository(db)

	// Initialize application services
	clock := lifecycle.SystemClock{}
	catalogService := application.NewCatalogService(serviceRepo, providerRepo, clock, log)
	bookingService := application.NewBookingService(bookingRepo, catalogService, catalogService, dispatcher, clock, cfg.WarrantyWindow, log)
	warrantyService := application.NewWarrantyService(claimRepo, bookingRepo, catalogService, dispatcher, clock, log)
	reviewService := application.NewReviewService(reviewRepo, bookingRepo, dispatcher, clock, log)

	// Start reference data consumer
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	referenceConsumer := events.NewReferenceDataConsumer(
		cfg.KafkaConfig.Brokers,
		cfg.KafkaConfig.GroupPrefix+"lifecycle-reference",
		[]string{cfg.KafkaConfig.CatalogTopic, cfg.KafkaConfig.DirectoryTopic},
		catalogService,
		log,
	)
	defer func() { _ = referenceConsumer.Close() }()

	go func() {
		log.Info("starting reference data consumer")
		if err := referenceConsumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("reference data consumer error", zap.Error(err))
		}
	}()

	// Setup Gin router
	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.LoggerMiddleware(log))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())

	health.NewHandler(db, serviceName).RegisterRoutes(router)

	handler.NewBookingHandler(bookingService).RegisterRoutes(&router.RouterGroup, jwtManager)
	handler.NewWarrantyHandler(warrantyService).RegisterRoutes(&router.RouterGroup, jwtManager)
	handler.NewReviewHandler(reviewService).RegisterRoutes(&router.RouterGroup, jwtManager)
	handler.NewCatalogHandler(catalogService).RegisterRoutes(&router.RouterGroup, jwtManager)
	handler.NewAdminHandler(bookingService, warrantyService).RegisterRoutes(&router.RouterGroup, jwtManager)

	srv := &http.Server{
		Addr:         cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("HTTP server starting", zap.String("addr", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down " + serviceName)

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server forced shutdown", zap.Error(err))
	}

	// Flush side effects of requests that completed before shutdown.
	stopDispatch()
	<-dispatchDone

	log.Info(serviceName + " stopped")
}
