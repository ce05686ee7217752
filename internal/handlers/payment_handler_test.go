package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/safarihub/booking-backend/internal/models"
	"github.com/safarihub/booking-backend/internal/services"
	"github.com/safarihub/booking-backend/pkg/paystack"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func paymentRouter(stub *stubPayments, caller *models.Identity) *gin.Engine {
	handler := NewPaymentHandler(stub, quietLogger())
	router := newRouter(caller)
	router.POST("/payments", handler.InitiatePayment)
	router.GET("/payments", handler.ListPayments)
	router.GET("/payments/:id", handler.GetPayment)
	router.POST("/payments/:id/refund", handler.RefundPayment)
	router.GET("/payments/verify/:reference", handler.VerifyPayment)
	router.GET("/admin/payments/:id/audits", handler.ListAudits)
	router.POST("/webhook/payments", handler.Webhook)
	return router
}

func postWebhook(router *gin.Engine, body, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhook/payments", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Paystack/1.0")
	if signature != "" {
		req.Header.Set(paystack.SignatureHeader, signature)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestPaymentHandler_Initiate(t *testing.T) {
	stub := &stubPayments{initiated: &models.InitiatePaymentResponse{
		Payment:          &models.Payment{ID: 3, BookingID: 5, Amount: decimal.RequireFromString("250.00"), Status: models.PaymentStatusPending},
		AuthorizationURL: "https://checkout.paystack.com/abc",
		Reference:        "booking_5_deadbeef",
		AccessCode:       "abc",
	}}
	router := paymentRouter(stub, &traveler)

	w := doJSON(router, http.MethodPost, "/payments", `{"booking_id": 5, "amount": "250.00"}`)

	require.Equal(t, http.StatusCreated, w.Code)
	resp := decodeMap(t, w)
	assert.Equal(t, "https://checkout.paystack.com/abc", resp["authorization_url"])
	assert.Equal(t, "booking_5_deadbeef", resp["reference"])
	assert.NotEmpty(t, stub.lastMeta.RequestID)
}

func TestPaymentHandler_InitiateErrors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"malformed", `{"booking_id":`, nil, http.StatusBadRequest, services.CodeValidation},
		{"missing booking", `{"amount": 10}`, nil, http.StatusBadRequest, services.CodeValidation},
		{"already paid", `{"booking_id": 5, "amount": 10}`, services.ConflictError(services.CodeAlreadyPaid, "Booking is already paid"), http.StatusConflict, services.CodeAlreadyPaid},
		{"gateway down", `{"booking_id": 5, "amount": 10}`, services.GatewayError("Payment gateway unavailable", errors.New("eof")), http.StatusBadGateway, services.CodeGateway},
		{"not owner", `{"booking_id": 5, "amount": 10}`, services.ForbiddenError("Access denied"), http.StatusForbidden, services.CodeForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := paymentRouter(&stubPayments{err: tt.err}, &traveler)

			w := doJSON(router, http.MethodPost, "/payments", tt.body)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantCode, decodeError(t, w).Code)
		})
	}
}

func TestPaymentHandler_ListGetRefund(t *testing.T) {
	stub := &stubPayments{}
	router := paymentRouter(stub, &admin)

	w := doJSON(router, http.MethodGet, "/payments?status=completed&per_page=500", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.PaymentStatusCompleted, stub.lastFilter.Status)
	assert.Equal(t, models.MaxPerPage, stub.lastFilter.Page.PerPage)

	w = doJSON(router, http.MethodGet, "/payments/3", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(3), decodeMap(t, w)["id"])

	stub.result = &services.ReconcileResult{
		Payment: &models.Payment{ID: 3, Status: models.PaymentStatusRefunded},
		Booking: &models.Booking{ID: 5, Status: models.BookingStatusCancelled},
		Changed: true,
	}
	w = doJSON(router, http.MethodPost, "/payments/3/refund", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeMap(t, w)
	assert.Equal(t, "refunded", resp["payment"].(map[string]interface{})["status"])
	assert.Equal(t, "cancelled", resp["booking"].(map[string]interface{})["status"])

	stub.err = services.ConflictError(services.CodeNotRefundable, "Only completed payments can be refunded")
	w = doJSON(router, http.MethodPost, "/payments/3/refund", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, services.CodeNotRefundable, decodeError(t, w).Code)
}

func TestPaymentHandler_Verify(t *testing.T) {
	stub := &stubPayments{verified: &models.VerifyPaymentResponse{
		Payment: &models.Payment{ID: 3, Status: models.PaymentStatusCompleted},
		Status:  models.PaymentStatusCompleted,
		Changed: true,
	}}
	router := paymentRouter(stub, nil)

	w := doJSON(router, http.MethodGet, "/payments/verify/booking_5_deadbeef", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "booking_5_deadbeef", stub.lastRef)
	assert.Equal(t, "completed", decodeMap(t, w)["status"])

	stub.err = services.NotFoundError("Payment")
	w = doJSON(router, http.MethodGet, "/payments/verify/unknown", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPaymentHandler_ListAudits(t *testing.T) {
	stub := &stubPayments{}
	router := paymentRouter(stub, &admin)

	w := doJSON(router, http.MethodGet, "/admin/payments/3/audits", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(3), stub.lastAuditsID)
	audits := decodeMap(t, w)["audits"].([]interface{})
	assert.Len(t, audits, 1)
}

func TestPaymentHandler_WebhookPassesRawBody(t *testing.T) {
	body := `{"event":"charge.success","data":{"reference":"booking_5_deadbeef","amount":25000}}`
	stub := &stubPayments{result: &services.ReconcileResult{
		Payment: &models.Payment{ID: 3, Status: models.PaymentStatusCompleted},
		Changed: true,
	}}
	router := paymentRouter(stub, nil)

	w := postWebhook(router, body, "abc123")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, body, string(stub.lastBody))
	assert.Equal(t, "abc123", stub.lastSig)
	assert.Equal(t, "Paystack/1.0", stub.lastMeta.UserAgent)
	resp := decodeMap(t, w)
	assert.Equal(t, "processed", resp["status"])
	assert.Equal(t, true, resp["changed"])
}

func TestPaymentHandler_WebhookOutcomes(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		result     *services.ReconcileResult
		wantStatus int
		wantBody   string
	}{
		{"bad signature", services.AuthError(services.CodeInvalidSignature, "Invalid webhook signature"), nil, http.StatusUnauthorized, services.CodeInvalidSignature},
		{"store down is retried", services.InternalError(errors.New("connection reset")), nil, http.StatusInternalServerError, services.CodeInternal},
		{"duplicate charge acknowledged", services.ConflictError(services.CodeAlreadyPaid, "Booking is already paid"), nil, http.StatusOK, "duplicate"},
		{"unknown reference acknowledged", services.NotFoundError("Payment"), nil, http.StatusOK, "unknown_reference"},
		{"malformed", services.ValidationError("Invalid webhook payload"), nil, http.StatusBadRequest, services.CodeValidation},
		{"ignored event", nil, nil, http.StatusOK, "ignored"},
		{"replay", nil, &services.ReconcileResult{Payment: &models.Payment{Status: models.PaymentStatusCompleted}}, http.StatusOK, `"changed":false`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := paymentRouter(&stubPayments{err: tt.err, result: tt.result}, nil)

			w := postWebhook(router, `{"event":"charge.success"}`, "sig")

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantBody)
			assert.NotContains(t, w.Body.String(), "connection reset")
		})
	}
}

func TestPaymentHandler_WebhookBodyTooLarge(t *testing.T) {
	stub := &stubPayments{}
	router := paymentRouter(stub, nil)

	w := postWebhook(router, strings.Repeat("a", maxWebhookBody+1), "sig")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Nil(t, stub.lastBody)
}
