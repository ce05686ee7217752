package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/safarihub/booking-backend/internal/database"
	"github.com/safarihub/booking-backend/internal/models"
	"github.com/safarihub/booking-backend/internal/services"
	"github.com/safarihub/booking-backend/pkg/jwt"
	"github.com/sirupsen/logrus"
)

// IdentityContextKey is the key used to store the caller's identity in Gin context
const IdentityContextKey = "identity"

// IdentityResolver loads the current identity of a token's subject
type IdentityResolver interface {
	ResolveIdentity(ctx context.Context, userID int64) (*models.Identity, error)
}

// AuthMiddleware validates the bearer token and resolves the caller against the
// store, so role changes and deactivation apply to tokens already issued
func AuthMiddleware(jwtService *jwt.Service, resolver IdentityResolver, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		fields := logrus.Fields{"path": c.Request.URL.Path, "ip": c.ClientIP()}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abort(c, http.StatusUnauthorized, services.CodeTokenMissing, "Authorization header is required")
			return
		}

		parts := strings.SplitN(strings.TrimSpace(authHeader), " ", 2)
		if !strings.EqualFold(parts[0], "Bearer") {
			logger.WithFields(fields).Warn("Auth failed: malformed authorization header")
			abort(c, http.StatusUnauthorized, services.CodeTokenInvalid, "Invalid authorization header format. Expected: Bearer <token>")
			return
		}
		if len(parts) < 2 || strings.TrimSpace(parts[1]) == "" {
			abort(c, http.StatusUnauthorized, services.CodeTokenMissing, "Bearer token is required")
			return
		}

		claims, err := jwtService.ValidateAccessToken(strings.TrimSpace(parts[1]))
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				abort(c, http.StatusUnauthorized, services.CodeTokenExpired, "Token has expired")
				return
			}
			logger.WithFields(fields).WithError(err).Warn("Auth failed: invalid token")
			abort(c, http.StatusUnauthorized, services.CodeTokenInvalid, "Invalid token")
			return
		}

		identity, err := resolver.ResolveIdentity(c.Request.Context(), claims.UserID)
		if err != nil {
			switch {
			case errors.Is(err, database.ErrNotFound), errors.Is(err, database.ErrUserInactive):
				logger.WithFields(fields).WithField("user_id", claims.UserID).Warn("Auth failed: user missing or deactivated")
				abort(c, http.StatusUnauthorized, services.CodeUserNotFound, "User not found")
			default:
				logger.WithFields(fields).WithError(err).Error("Auth failed: identity lookup")
				abort(c, http.StatusInternalServerError, services.CodeInternal, "Internal server error")
			}
			return
		}

		c.Set(IdentityContextKey, *identity)
		c.Next()
	}
}

// RequireRole rejects callers whose role is not in roles. Must run after AuthMiddleware.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, exists := GetIdentity(c)
		if !exists {
			abort(c, http.StatusUnauthorized, services.CodeTokenMissing, "Authentication required")
			return
		}

		for _, role := range roles {
			if identity.Role == role {
				c.Next()
				return
			}
		}
		abort(c, http.StatusForbidden, services.CodeForbidden, "You don't have permission to access this resource")
	}
}

// GetIdentity retrieves the caller's identity from Gin context
func GetIdentity(c *gin.Context) (models.Identity, bool) {
	value, exists := c.Get(IdentityContextKey)
	if !exists {
		return models.Identity{}, false
	}

	identity, ok := value.(models.Identity)
	if !ok {
		return models.Identity{}, false
	}

	return identity, true
}

// MustGetIdentity retrieves the identity or panics (use only after AuthMiddleware)
func MustGetIdentity(c *gin.Context) models.Identity {
	identity, exists := GetIdentity(c)
	if !exists {
		panic("identity not found - ensure AuthMiddleware is applied")
	}
	return identity
}

func abort(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"error": message,
		"code":  code,
	})
}
