package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/safarihub/booking-backend/internal/config"
	"github.com/safarihub/booking-backend/internal/handlers"
	"github.com/safarihub/booking-backend/internal/middleware"
	"github.com/safarihub/booking-backend/internal/models"
	"github.com/safarihub/booking-backend/internal/utils"
	"github.com/safarihub/booking-backend/pkg/jwt"
	"github.com/sirupsen/logrus"
)

// pinger is the part of the database the health check needs
type pinger interface {
	PingContext(ctx context.Context) error
}

// routerDeps carries everything the HTTP layer is built from
type routerDeps struct {
	cfg      *config.Config
	logger   *logrus.Logger
	db       pinger
	jwt      *jwt.Service
	resolver middleware.IdentityResolver

	auth         *handlers.AuthHandler
	bookings     *handlers.BookingHandler
	payments     *handlers.PaymentHandler
	destinations *handlers.DestinationHandler
	profiles     *handlers.ProfileHandler
	admin        *handlers.AdminHandler
}

func setupRouter(d routerDeps) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	if d.cfg.Security.EnableRequestLog {
		router.Use(requestLogger(d.logger))
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     d.cfg.CORS.AllowedOrigins,
		AllowMethods:     d.cfg.CORS.AllowedMethods,
		AllowHeaders:     d.cfg.CORS.AllowedHeaders,
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: !allowsAnyOrigin(d.cfg.CORS.AllowedOrigins),
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", healthCheckHandler(d.db, d.logger))

	authRequired := middleware.AuthMiddleware(d.jwt, d.resolver, d.logger)
	travelerOnly := middleware.RequireRole(models.RoleTraveler)
	adminOnly := middleware.RequireRole(models.RoleAdmin)

	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/register", d.auth.Register)
			auth.POST("/login", d.auth.Login)
			auth.GET("/me", authRequired, d.auth.Me)
		}

		destinations := v1.Group("/destinations")
		{
			destinations.GET("", d.destinations.ListDestinations)
			destinations.GET("/:id", d.destinations.GetDestination)
			destinations.POST("", authRequired, adminOnly, d.destinations.CreateDestination)
			destinations.PATCH("/:id", authRequired, adminOnly, d.destinations.UpdateDestination)
			destinations.DELETE("/:id", authRequired, adminOnly, d.destinations.DeleteDestination)
		}

		guides := v1.Group("/guides")
		{
			guides.GET("", d.profiles.ListGuides)
			guides.GET("/:id", d.profiles.GetGuide)
			guides.PUT("/:id", authRequired, d.profiles.UpdateGuide)
		}

		travelers := v1.Group("/travelers", authRequired)
		{
			travelers.GET("/:id", d.profiles.GetTraveler)
			travelers.PATCH("/:id", d.profiles.UpdateTraveler)
		}

		bookings := v1.Group("/bookings", authRequired)
		{
			bookings.POST("", travelerOnly, d.bookings.CreateBooking)
			bookings.GET("", d.bookings.ListBookings)
			bookings.GET("/:id", d.bookings.GetBooking)
			bookings.PUT("/:id", d.bookings.UpdateBooking)
			bookings.DELETE("/:id", d.bookings.DeleteBooking)
		}

		// Gateway redirects land on verify without a session
		v1.GET("/payments/verify/:reference", d.payments.VerifyPayment)
		payments := v1.Group("/payments", authRequired)
		{
			payments.POST("", travelerOnly, d.payments.InitiatePayment)
			payments.GET("", d.payments.ListPayments)
			payments.GET("/:id", d.payments.GetPayment)
			payments.POST("/:id/refund", adminOnly, d.payments.RefundPayment)
		}

		// Authenticated by HMAC signature, not by token
		v1.POST("/webhook/payments", d.payments.Webhook)

		admin := v1.Group("/admin", authRequired, adminOnly)
		{
			admin.GET("/dashboard", d.admin.Dashboard)
			admin.GET("/users", d.admin.ListUsers)
			admin.PUT("/users/:id", d.admin.UpdateUser)
			admin.GET("/payments/:id/audits", d.payments.ListAudits)
		}
	}

	return router
}

func allowsAnyOrigin(origins []string) bool {
	for _, origin := range origins {
		if origin == "*" {
			return true
		}
	}
	return false
}

// requestLogger middleware for logging HTTP requests
func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		fields := logrus.Fields{
			"status":     c.Writer.Status(),
			"method":     c.Request.Method,
			"path":       path,
			"query":      query,
			"ip":         c.ClientIP(),
			"latency_ms": time.Since(start).Milliseconds(),
			"user_agent": c.Request.UserAgent(),
			"request_id": c.GetString(utils.RequestIDKey),
			"has_auth":   c.GetHeader("Authorization") != "",
		}

		// Add user context if available
		if identity, ok := middleware.GetIdentity(c); ok {
			fields["user_id"] = identity.UserID
			fields["role"] = identity.Role
		}

		entry := logger.WithFields(fields)

		if len(c.Errors) > 0 {
			for i, err := range c.Errors {
				entry = entry.WithField(fmt.Sprintf("error_%d", i), err.Error())
			}
			entry.Error("Request failed with errors")
			return
		}

		status := c.Writer.Status()
		switch {
		case status >= 500:
			entry.Error("Request completed with server error")
		case status >= 400:
			entry.Warn("Request completed with client error")
		default:
			entry.Info("Request completed successfully")
		}
	}
}

// healthCheckHandler returns a health check endpoint
func healthCheckHandler(db pinger, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			logger.WithError(err).Error("Health check: database ping failed")
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": "unhealthy",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"database":  "healthy",
			"version":   version,
			"timestamp": time.Now().Unix(),
		})
	}
}
