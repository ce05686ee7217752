package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/safarihub/booking-backend/internal/utils"
)

// RequestID tags every request with an id, reusing the client's X-Request-ID when sent
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := utils.RequestID(c)
		c.Header(utils.RequestIDKey, id)
		c.Next()
	}
}
