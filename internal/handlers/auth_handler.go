package handlers

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/safarihub/booking-backend/internal/middleware"
	"github.com/safarihub/booking-backend/internal/models"
	"github.com/safarihub/booking-backend/internal/services"
	"github.com/sirupsen/logrus"
)

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	auth    AuthAPI
	limiter LoginLimiter
	logger  *logrus.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(auth AuthAPI, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, logger: logger}
}

// WithLoginLimiter enables failed-login throttling on Login
func (h *AuthHandler) WithLoginLimiter(limiter LoginLimiter) *AuthHandler {
	h.limiter = limiter
	return h
}

// Register handles POST /api/v1/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}

	resp, err := h.auth.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.logger.WithFields(logrus.Fields{
		"user_id": resp.User.ID,
		"role":    resp.User.Role,
	}).Info("User registered")

	c.JSON(http.StatusCreated, resp)
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	ctx := c.Request.Context()
	clientIP := c.ClientIP()

	if h.limiter != nil {
		if err := h.limiter.CheckLogin(ctx, req.Email, clientIP); err != nil {
			var rateLimitErr *services.RateLimitError
			if errors.As(err, &rateLimitErr) {
				h.rateLimited(c, rateLimitErr, clientIP)
				return
			}
			respondError(c, h.logger, err)
			return
		}
	}

	resp, err := h.auth.Login(ctx, req)
	if err != nil {
		if h.limiter != nil && services.IsKind(err, services.KindAuth) {
			h.limiter.RecordFailure(ctx, req.Email, clientIP)
		}
		respondError(c, h.logger, err)
		return
	}

	if h.limiter != nil {
		h.limiter.Reset(ctx, req.Email)
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AuthHandler) rateLimited(c *gin.Context, err *services.RateLimitError, clientIP string) {
	seconds := int(math.Ceil(err.RetryAfter.Seconds()))
	h.logger.WithFields(logrus.Fields{
		"client_ip":   clientIP,
		"limit_type":  err.Type,
		"retry_after": seconds,
	}).Warn("Login rate limit exceeded")

	c.Header("Retry-After", strconv.Itoa(seconds))
	c.JSON(http.StatusTooManyRequests, gin.H{
		"error":       err.Message,
		"code":        services.CodeRateLimited,
		"retry_after": seconds,
	})
}

// Me handles GET /api/v1/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	caller := middleware.MustGetIdentity(c)

	resp, err := h.auth.Me(c.Request.Context(), caller)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
