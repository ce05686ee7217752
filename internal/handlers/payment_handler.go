package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/safarihub/booking-backend/internal/middleware"
	"github.com/safarihub/booking-backend/internal/models"
	"github.com/safarihub/booking-backend/internal/services"
	"github.com/safarihub/booking-backend/internal/utils"
	"github.com/safarihub/booking-backend/pkg/paystack"
	"github.com/sirupsen/logrus"
)

// maxWebhookBody caps the body read from the gateway
const maxWebhookBody = 1 << 20

// PaymentHandler handles payment endpoints and the gateway webhook
type PaymentHandler struct {
	payments PaymentAPI
	logger   *logrus.Logger
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(payments PaymentAPI, logger *logrus.Logger) *PaymentHandler {
	return &PaymentHandler{payments: payments, logger: logger}
}

// InitiatePayment handles POST /api/v1/payments
func (h *PaymentHandler) InitiatePayment(c *gin.Context) {
	caller := middleware.MustGetIdentity(c)

	var req models.InitiatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}

	resp, err := h.payments.InitiatePayment(c.Request.Context(), caller, req, utils.RequestMetaFrom(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// ListPayments handles GET /api/v1/payments
func (h *PaymentHandler) ListPayments(c *gin.Context) {
	caller := middleware.MustGetIdentity(c)

	filter := models.PaymentFilter{
		Status: models.PaymentStatus(c.Query("status")),
		Page:   paginationQuery(c),
	}

	page, err := h.payments.ListPayments(c.Request.Context(), caller, filter)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

// GetPayment handles GET /api/v1/payments/:id
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	caller := middleware.MustGetIdentity(c)
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	payment, err := h.payments.GetPayment(c.Request.Context(), caller, id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, payment)
}

// RefundPayment handles POST /api/v1/payments/:id/refund
func (h *PaymentHandler) RefundPayment(c *gin.Context) {
	caller := middleware.MustGetIdentity(c)
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	result, err := h.payments.RefundPayment(c.Request.Context(), caller, id, utils.RequestMetaFrom(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"payment": result.Payment,
		"booking": result.Booking,
	})
}

// VerifyPayment handles GET /api/v1/payments/verify/:reference
func (h *PaymentHandler) VerifyPayment(c *gin.Context) {
	reference := strings.TrimSpace(c.Param("reference"))

	resp, err := h.payments.VerifyPayment(c.Request.Context(), reference, utils.RequestMetaFrom(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ListAudits handles GET /api/v1/admin/payments/:id/audits
func (h *PaymentHandler) ListAudits(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	audits, err := h.payments.ListAudits(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"audits": audits})
}

// Webhook handles POST /api/v1/webhook/payments.
// Only answers other than 2xx make the gateway redeliver, so outcomes that a
// retry cannot change are acknowledged.
func (h *PaymentHandler) Webhook(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody)
	body, err := c.GetRawData()
	if err != nil {
		badRequest(c, "Unreadable request body")
		return
	}

	result, err := h.payments.HandleWebhook(
		c.Request.Context(),
		body,
		c.GetHeader(paystack.SignatureHeader),
		utils.RequestMetaFrom(c),
	)
	if err != nil {
		svcErr := services.AsError(err)
		switch svcErr.Kind {
		case services.KindConflict:
			c.JSON(http.StatusOK, gin.H{"status": "duplicate", "code": svcErr.Code})
			return
		case services.KindNotFound:
			h.logger.WithField("request_id", utils.RequestID(c)).Warn("Webhook for unknown payment reference acknowledged")
			c.JSON(http.StatusOK, gin.H{"status": "unknown_reference"})
			return
		}
		respondError(c, h.logger, err)
		return
	}

	if result == nil {
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":         "processed",
		"changed":        result.Changed,
		"payment_status": result.Payment.Status,
	})
}
