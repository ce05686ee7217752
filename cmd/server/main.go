package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/safarihub/booking-backend/internal/cache"
	"github.com/safarihub/booking-backend/internal/config"
	"github.com/safarihub/booking-backend/internal/database"
	"github.com/safarihub/booking-backend/internal/handlers"
	"github.com/safarihub/booking-backend/internal/services"
	"github.com/safarihub/booking-backend/pkg/events"
	"github.com/safarihub/booking-backend/pkg/jwt"
	"github.com/safarihub/booking-backend/pkg/paystack"
	"github.com/sirupsen/logrus"
)

var (
	version   = "1.0.0"
	buildTime = "unknown"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	logger.Info("Starting SafariHub Booking Backend")
	logger.Infof("Version: %s, Build Time: %s", version, buildTime)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	// Set log level
	logLevel, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logger.Warn("Invalid log level, using INFO")
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Set Gin mode
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// Initialize database connection
	logger.Info("Connecting to database...")
	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Info("Database connection established")

	// Optional infrastructure: the API runs without a cache or a broker
	var redisClient *redis.Client
	if cfg.Cache.RedisURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		redisClient, err = cache.Connect(ctx, cfg.Cache.RedisURL)
		cancel()
		if err != nil {
			logger.WithError(err).Warn("Redis unavailable, destination cache and login throttling disabled")
			redisClient = nil
		} else {
			defer redisClient.Close()
			logger.Info("Redis connection established")
		}
	}

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.Broker.RabbitMQURL != "" {
		rabbit, err := events.NewRabbitPublisher(cfg.Broker.RabbitMQURL, cfg.Broker.Exchange, logger)
		if err != nil {
			logger.WithError(err).Warn("RabbitMQ unavailable, domain events disabled")
		} else {
			publisher = rabbit
			logger.WithField("exchange", cfg.Broker.Exchange).Info("RabbitMQ publisher ready")
		}
	}
	defer publisher.Close()

	if cfg.Payment.SecretKey == "" {
		logger.Warn("PAYSTACK_SECRET_KEY not set, payment initiation will fail")
	}
	gateway := paystack.NewClient(paystack.Config{
		SecretKey: cfg.Payment.SecretKey,
		BaseURL:   cfg.Payment.BaseURL,
		Currency:  cfg.Payment.Currency,
		Timeout:   cfg.Payment.Timeout,
	}, logger)

	// Repositories
	userRepository := database.NewUserRepository(db)
	profileRepository := database.NewProfileRepository(db)
	destinationRepository := database.NewDestinationRepository(db)
	bookingRepository := database.NewBookingRepository(db)
	paymentRepository := database.NewPaymentRepository(db)
	auditRepository := database.NewPaymentAuditRepository(db, logger)
	dashboardRepository := database.NewDashboardRepository(db)

	// Initialize services
	logger.Info("Initializing services...")
	jwtService := jwt.NewService(cfg.JWT.Secret, cfg.JWT.TokenExpiry)
	destinationCache := cache.NewDestinationCache(redisClient, cfg.Cache.DestinationTTL, logger)

	authService := services.NewAuthService(userRepository, jwtService, cfg.Security.BcryptCost, logger)
	destinationService := services.NewDestinationService(destinationRepository, userRepository, destinationCache, logger)
	bookingService := services.NewBookingService(bookingRepository, userRepository, destinationRepository, publisher, logger)
	paymentService := services.NewPaymentService(
		paymentRepository,
		bookingRepository,
		auditRepository,
		gateway,
		publisher,
		services.PaymentServiceConfig{
			WebhookSecret:  cfg.Payment.WebhookSecret,
			CallbackURL:    cfg.Payment.CallbackURL,
			GatewayTimeout: cfg.Payment.Timeout,
		},
		logger,
	)
	profileService := services.NewProfileService(profileRepository, logger)
	adminService := services.NewAdminService(userRepository, dashboardRepository, logger)

	var attemptCounter services.AttemptCounter
	if redisClient != nil {
		attemptCounter = cache.NewLoginAttempts(redisClient)
	}
	rateLimitService := services.NewRateLimitService(attemptCounter, services.RateLimitConfig{
		MaxEmailAttempts: int64(cfg.Security.LoginMaxAttempts),
		EmailWindow:      cfg.Security.LoginWindow,
		MaxIPAttempts:    int64(cfg.Security.LoginMaxIPAttempts),
		IPWindow:         cfg.Security.LoginIPWindow,
	}, logger)

	// Initialize and start cron service
	cronService := services.NewCronService(paymentService, services.CronConfig{
		SweepSchedule: cfg.Payment.SweepSchedule,
		PendingTTL:    cfg.Payment.PendingTTL,
	}, logger)
	if err := cronService.Start(); err != nil {
		logger.Fatalf("Failed to start cron service: %v", err)
	}
	logger.Info("Services initialized")

	router := setupRouter(routerDeps{
		cfg:          cfg,
		logger:       logger,
		db:           db,
		jwt:          jwtService,
		resolver:     userRepository,
		auth:         handlers.NewAuthHandler(authService, logger).WithLoginLimiter(rateLimitService),
		bookings:     handlers.NewBookingHandler(bookingService, logger),
		payments:     handlers.NewPaymentHandler(paymentService, logger),
		destinations: handlers.NewDestinationHandler(destinationService, logger),
		profiles:     handlers.NewProfileHandler(profileService, logger),
		admin:        handlers.NewAdminHandler(adminService, logger),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.Payment.Timeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Infof("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	cronService.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited successfully")
}
