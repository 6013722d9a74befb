package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/flashmart/order-service/internal/application"
	"github.com/flashmart/order-service/internal/config"
	"github.com/flashmart/order-service/internal/domain"
	"github.com/flashmart/order-service/internal/infrastructure/kafka"
	mongoRepo "github.com/flashmart/order-service/internal/infrastructure/mongodb"
	"github.com/flashmart/order-service/pkg/logging"
	"github.com/flashmart/order-service/pkg/metrics"
	"github.com/flashmart/order-service/pkg/middleware"
	"github.com/flashmart/order-service/pkg/mongodb"
	"github.com/flashmart/order-service/pkg/tracing"
)

const serviceName = "order-service"

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		logging.New(logging.DefaultConfig(serviceName)).WithError(err).Error("Failed to load configuration")
		os.Exit(1)
	}

	logConfig := logging.DefaultConfig(serviceName)
	logConfig.Level = logging.LogLevel(cfg.Log.Level)
	logger := logging.New(logConfig)
	logger.SetDefault()

	logger.Info("Starting order-service API")

	ctx := context.Background()

	m := metrics.New(metrics.DefaultConfig(serviceName))

	tracerProvider, err := tracing.Initialize(ctx, cfg.TracingProviderConfig(serviceName))
	if err != nil {
		logger.WithError(err).Error("Failed to initialize tracing")
		os.Exit(1)
	}
	defer tracerProvider.Shutdown(ctx)
	if cfg.Tracing.Enabled {
		logger.Info("Tracing initialized", "endpoint", cfg.Tracing.OTLPEndpoint)
	}

	rawClient, err := mongodb.NewClient(ctx, cfg.MongoClientConfig())
	if err != nil {
		logger.WithError(err).Error("Failed to connect to MongoDB")
		os.Exit(1)
	}
	mongoClient := mongodb.NewInstrumentedClient(rawClient)
	defer mongoClient.Close(ctx)
	logger.Info("Connected to MongoDB", "database", cfg.MongoDB.Database)

	var publisher domain.EventPublisher
	if cfg.Kafka.Enabled {
		kafkaPublisher := kafka.NewEventPublisher(&kafka.Config{
			Brokers:      cfg.Kafka.Brokers,
			Topic:        cfg.Kafka.Topic,
			ClientID:     cfg.Kafka.ClientID,
			BatchSize:    cfg.Kafka.BatchSize,
			BatchTimeout: cfg.Kafka.BatchTimeout,
		}, logger)
		defer kafkaPublisher.Close()
		publisher = kafka.NewInstrumentedPublisher(kafkaPublisher, cfg.Kafka.Topic)
		logger.Info("Kafka publisher initialized", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.Topic)
	} else {
		logger.Warn("Kafka disabled, domain events will not be published")
	}

	ledgers := mongoRepo.NewLedgerRepository(mongoClient.Database())
	orders := mongoRepo.NewOrderRepository(mongoClient.Database())
	txn := mongoRepo.NewTransactionRunner(mongoClient, m, logger)

	coordinator := application.NewReservationCoordinator(ledgers, orders, txn, publisher, m, logger)
	lifecycle := application.NewOrderLifecycleService(ledgers, orders, txn, publisher, m, logger)
	inventory := application.NewInventoryService(ledgers, publisher, m, logger)
	queries := application.NewOrderQueryService(orders, logger)

	router := gin.New()
	mwConfig := middleware.DefaultConfig(serviceName, logger.Logger)
	mwConfig.EnableTracing = cfg.Tracing.Enabled
	middleware.Setup(router, mwConfig)
	router.Use(middleware.Metrics(m))
	router.NoRoute(middleware.NoRoute())
	router.NoMethod(middleware.NoMethod())

	router.GET("/health", middleware.HealthCheck(serviceName))
	router.GET("/ready", middleware.ReadinessCheck(serviceName, func() error {
		return mongoClient.HealthCheck(ctx)
	}))
	router.GET("/metrics", middleware.MetricsEndpoint(m))

	responder := middleware.NewErrorResponder(logger.Logger)

	v1 := router.Group("/api/v1")
	{
		v1.POST("/orders", placeOrderHandler(coordinator, responder))
		v1.GET("/orders", listOrdersHandler(queries, responder))
		v1.GET("/orders/:orderId", getOrderHandler(queries, responder))
		v1.POST("/orders/:orderId/pay", payOrderHandler(lifecycle, responder))
		v1.POST("/orders/:orderId/cancel", cancelOrderHandler(lifecycle, responder))
		v1.POST("/orders/:orderId/ship", shipOrderHandler(lifecycle, responder))

		v1.POST("/inventory", createLedgerHandler(inventory, responder))
		v1.GET("/inventory/:sku", getLedgerHandler(inventory, responder))
		v1.POST("/inventory/:sku/receive", receiveStockHandler(inventory, responder))
	}

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("Server error")
		}
	}()
	logger.Info("Server started", "addr", cfg.Server.Addr)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}

	logger.Info("Server stopped")
}
