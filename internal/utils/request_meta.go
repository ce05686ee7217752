package utils

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/safarihub/booking-backend/internal/models"
)

// RequestIDKey is the gin context key and response header carrying the request id
const RequestIDKey = "X-Request-ID"

// RequestID returns the id assigned to the request, minting one if missing
func RequestID(c *gin.Context) string {
	if id := c.GetString(RequestIDKey); id != "" {
		return id
	}
	id := c.GetHeader(RequestIDKey)
	if id == "" {
		id = uuid.NewString()
	}
	c.Set(RequestIDKey, id)
	return id
}

// RequestMetaFrom collects the client details stored with payment audits
func RequestMetaFrom(c *gin.Context) models.RequestMeta {
	userAgent := GetUserAgent(c)
	return models.RequestMeta{
		IPAddress:  GetRealIP(c),
		UserAgent:  userAgent,
		DeviceInfo: ParseUserAgent(userAgent).Map(),
		RequestID:  RequestID(c),
	}
}
