package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/safarihub/booking-backend/internal/services"
	"github.com/safarihub/booking-backend/internal/utils"
	"github.com/sirupsen/logrus"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

var kindStatus = map[services.ErrorKind]int{
	services.KindValidation: http.StatusBadRequest,
	services.KindNotFound:   http.StatusNotFound,
	services.KindForbidden:  http.StatusForbidden,
	services.KindAuth:       http.StatusUnauthorized,
	services.KindConflict:   http.StatusConflict,
	services.KindGateway:    http.StatusBadGateway,
	services.KindInternal:   http.StatusInternalServerError,
}

// respondError writes err as {"error","code"}. Internal causes are logged, never returned.
func respondError(c *gin.Context, logger *logrus.Logger, err error) {
	svcErr := services.AsError(err)
	status, ok := kindStatus[svcErr.Kind]
	if !ok {
		status = http.StatusInternalServerError
	}

	entry := logger.WithFields(logrus.Fields{
		"method":     c.Request.Method,
		"path":       c.Request.URL.Path,
		"code":       svcErr.Code,
		"request_id": utils.RequestID(c),
	})
	switch {
	case status >= http.StatusInternalServerError:
		entry.WithError(svcErr.Err).Error("Request failed")
		if svcErr.Kind != services.KindGateway {
			c.JSON(status, ErrorResponse{Error: "Internal server error", Code: services.CodeInternal})
			return
		}
	case svcErr.Kind == services.KindGateway:
		entry.WithError(svcErr.Err).Warn("Payment gateway call failed")
	}

	c.JSON(status, ErrorResponse{Error: svcErr.Message, Code: svcErr.Code})
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: message, Code: services.CodeValidation})
}
