// Package api wires the HTTP server, background processors and messaging
// for the facility operator API.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	rd "github.com/redis/go-redis/v9"

	"github.com/freshfold/facility-api/internal/clients"
	"github.com/freshfold/facility-api/internal/config"
	"github.com/freshfold/facility-api/internal/database"
	"github.com/freshfold/facility-api/internal/handlers"
	"github.com/freshfold/facility-api/internal/models"
	"github.com/freshfold/facility-api/internal/outbox"
	"github.com/freshfold/facility-api/internal/repository"
	"github.com/freshfold/facility-api/internal/service"
	"github.com/freshfold/facility-api/pkg/kafka"
	"github.com/freshfold/facility-api/pkg/logger"
	"github.com/freshfold/facility-api/pkg/ratelimit"
	"github.com/freshfold/facility-api/pkg/redis"
	"github.com/freshfold/facility-api/pkg/retry"
)

// Server is the facility API server and its background machinery
type Server struct {
	config     *config.Config
	logger     logger.Logger
	router     *mux.Router
	httpServer *http.Server
	db         *database.Database

	dlqRepo *repository.DeadLetterRepository

	authService     *service.AuthService
	orderService    *service.OrderService
	checkInService  *service.CheckInService
	quoteService    *service.QuoteService
	statsService    *service.StatsService
	dispatchService *service.DispatchService

	dispatchClient *clients.DispatchClient
	loginLimiter   *ratelimit.IPRateLimiter

	outboxProcessor     *outbox.Processor
	deadLetterProcessor *outbox.DeadLetterProcessor
	kafkaProducer       *kafka.Producer
	kafkaConsumer       *kafka.Consumer
	redisClient         *rd.Client
}

// NewServer creates a new API server with the given configuration and logger
func NewServer(cfg *config.Config, logger logger.Logger) (*Server, error) {
	r := mux.NewRouter()
	db, err := database.New(cfg, logger)

	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.RunMigrations(); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	// Repositories
	facilityRepo := repository.NewFacilityRepository(db, logger)
	orderRepo := repository.NewOrderRepository(db, logger)
	quoteRepo := repository.NewQuoteRepository(db, logger)
	issueRepo := repository.NewIssueRepository(db, logger)
	statusLogRepo := repository.NewStatusLogRepository(db, logger)
	packageRepo := repository.NewPackageRepository(db, logger)
	outboxRepo := repository.NewOutboxRepository(db, logger)
	dlqRepo := repository.NewDeadLetterRepository(db, logger)

	// Messaging
	kafkaProducer, err := kafka.NewProducer(cfg.Kafka.Brokers, logger)

	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	// Redis-backed idempotency for quote request retries
	redisClient := rd.NewClient(&rd.Options{
		Addr: cfg.Redis.Addr,
		DB:   cfg.Redis.DB,
	})
	idempotencyStore := redis.NewIdempotencyStore(redisClient, cfg.Redis.IdempotencyTTL)

	// Downstream clients
	dispatchClient := clients.NewDispatchClient(cfg.Dispatch.BaseURL, logger)

	// Services
	authService := service.NewAuthService(facilityRepo, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, logger)
	orderService := service.NewOrderService(orderRepo, outboxRepo, statusLogRepo, logger)
	quoteService := service.NewQuoteService(quoteRepo, outboxRepo, logger)
	checkInService := service.NewCheckInService(
		orderRepo, issueRepo, statusLogRepo, outboxRepo, quoteService, idempotencyStore, logger)
	statsService := service.NewStatsService(orderRepo, logger)
	dispatchService := service.NewDispatchService(
		orderRepo, packageRepo, statusLogRepo, outboxRepo, dispatchClient, orderService, logger)

	// Outbox processor with dead letter fallback
	outboxProcessor := outbox.NewProcessor(outboxRepo, dlqRepo, logger, &outbox.ProcessorConfig{
		PollingInterval: 5 * time.Second,
		BatchSize:       10,
		MaxRetries:      3,
		UseDLQ:          true,
	})

	deadLetterProcessor := outbox.NewDeadLetterProcessor(dlqRepo, logger, &outbox.DeadLetterProcessorConfig{
		PollingInterval: 30 * time.Second,
		BatchSize:       5,
		MaxRetries:      5,
		BackoffStrategy: &retry.ExponentialBackoff{
			InitialInterval: 1 * time.Second,
			MaxInterval:     2 * time.Minute,
			Multiplier:      2.0,
			JitterFactor:    0.1,
		},
	})

	kafkaHandler := outbox.NewKafkaHandler(kafkaProducer, cfg.Kafka.OrdersTopic, logger)

	for _, eventType := range []string{
		models.EventOrderStatusChanged,
		models.EventOrderCheckedIn,
		models.EventQuoteRequested,
	} {
		outboxProcessor.RegisterHandler(eventType, kafkaHandler)
		deadLetterProcessor.RegisterHandler(eventType, kafkaHandler)
	}

	kafkaConsumer, err := kafka.NewConsumer(&kafka.ConsumerConfig{
		Brokers:       cfg.Kafka.Brokers,
		Topics:        []string{cfg.Kafka.OrdersTopic},
		ConsumerGroup: cfg.Kafka.ConsumerGroup,
	}, logger)

	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka consumer: %w", err)
	}

	kafkaConsumer.RegisterHandler(cfg.Kafka.OrdersTopic, handlers.NewOrderEventsHandler(logger))

	server := &Server{
		config: cfg,
		logger: logger,
		router: r,
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      r,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		db:                  db,
		dlqRepo:             dlqRepo,
		authService:         authService,
		orderService:        orderService,
		checkInService:      checkInService,
		quoteService:        quoteService,
		statsService:        statsService,
		dispatchService:     dispatchService,
		dispatchClient:      dispatchClient,
		loginLimiter:        ratelimit.NewIPRateLimiter(5, 0.1),
		outboxProcessor:     outboxProcessor,
		deadLetterProcessor: deadLetterProcessor,
		kafkaProducer:       kafkaProducer,
		kafkaConsumer:       kafkaConsumer,
		redisClient:         redisClient,
	}

	server.setupRoutes()

	outboxProcessor.Start()
	deadLetterProcessor.Start()

	if err := kafkaConsumer.Start(); err != nil {
		logger.Error("Failed to start Kafka consumer", "error", err)
		// Non-fatal, continue without the consumer
	}

	return server, nil
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("Starting HTTP server", "port", s.config.Port, "env", s.config.Env)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server and its background machinery
func (s *Server) Shutdown(ctx context.Context) error {
	s.outboxProcessor.Stop()
	s.deadLetterProcessor.Stop()
	s.loginLimiter.Stop()

	if s.kafkaConsumer != nil {
		if err := s.kafkaConsumer.Stop(); err != nil {
			s.logger.Error("Error stopping Kafka consumer", "error", err)
		}
	}

	if s.kafkaProducer != nil {
		if err := s.kafkaProducer.Close(); err != nil {
			s.logger.Error("Error closing Kafka producer", "error", err)
		}
	}

	if err := s.redisClient.Close(); err != nil {
		s.logger.Error("Error closing Redis client", "error", err)
	}

	if err := s.db.Close(); err != nil {
		s.logger.Error("Error closing database connection", "error", err)
	}

	return s.httpServer.Shutdown(ctx)
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	s.router.Use(s.loggingMiddleware)

	api := s.router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/health", s.healthCheckHandler).Methods(http.MethodGet)

	// Login is public but throttled per IP
	login := api.PathPrefix("/auth").Subrouter()
	login.Use(s.loginRateLimitMiddleware)
	login.HandleFunc("/login", s.loginHandler).Methods(http.MethodPost)

	// Everything else requires a facility session
	authed := api.PathPrefix("").Subrouter()
	authed.Use(s.authMiddleware)

	authed.HandleFunc("/profile", s.getProfileHandler).Methods(http.MethodGet)

	authed.HandleFunc("/dashboard", s.getDashboardHandler).Methods(http.MethodGet)
	authed.HandleFunc("/statistics", s.getStatisticsHandler).Methods(http.MethodGet)

	authed.HandleFunc("/orders", s.getOrdersHandler).Methods(http.MethodGet)
	authed.HandleFunc("/orders/lookup/{number}", s.lookupOrderHandler).Methods(http.MethodGet)
	authed.HandleFunc("/orders/{id}", s.getOrderByIDHandler).Methods(http.MethodGet)
	authed.HandleFunc("/orders/{id}/status", s.updateOrderStatusHandler).Methods(http.MethodPatch)
	authed.HandleFunc("/orders/{id}/history", s.getOrderHistoryHandler).Methods(http.MethodGet)

	authed.HandleFunc("/orders/{id}/checkin", s.startCheckInHandler).Methods(http.MethodGet)
	authed.HandleFunc("/orders/{id}/checkin", s.completeCheckInHandler).Methods(http.MethodPost)
	authed.HandleFunc("/orders/{id}/checkin/quote", s.requestQuoteHandler).Methods(http.MethodPost)

	authed.HandleFunc("/orders/{id}/ship", s.shipOrderHandler).Methods(http.MethodPost)
	authed.HandleFunc("/orders/{id}/package", s.getPackageHandler).Methods(http.MethodGet)
	authed.HandleFunc("/orders/{id}/package/refresh", s.refreshPackageHandler).Methods(http.MethodPost)

	authed.HandleFunc("/quotes", s.getQuotesHandler).Methods(http.MethodGet)
	authed.HandleFunc("/quotes/{id}", s.getQuoteByIDHandler).Methods(http.MethodGet)
	authed.HandleFunc("/quotes/{id}/respond", s.respondQuoteHandler).Methods(http.MethodPost)
	authed.HandleFunc("/quotes/{id}/decline", s.declineQuoteHandler).Methods(http.MethodPost)

	// Admin API for monitoring and management
	admin := s.router.PathPrefix("/api/v1/admin").Subrouter()
	admin.Use(s.authMiddleware)
	admin.HandleFunc("/dead-letters", s.getDeadLettersHandler).Methods(http.MethodGet)
	admin.HandleFunc("/dead-letters/{id}/retry", s.retryDeadLetterHandler).Methods(http.MethodPost)
	admin.HandleFunc("/dead-letters/{id}/discard", s.discardDeadLetterHandler).Methods(http.MethodPost)
	admin.HandleFunc("/dispatch/breaker", s.getDispatchBreakerHandler).Methods(http.MethodGet)
}
