package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentEventType represents the type of payment event
type PaymentEventType string

const (
	PaymentEventInitiateRequest        PaymentEventType = "initiate_request"
	PaymentEventInitiateResponse       PaymentEventType = "initiate_response"
	PaymentEventWebhookReceived        PaymentEventType = "webhook_received"
	PaymentEventInvalidSignature       PaymentEventType = "invalid_signature"
	PaymentEventVerifyRequest          PaymentEventType = "verify_request"
	PaymentEventVerifyResponse         PaymentEventType = "verify_response"
	PaymentEventProcessing             PaymentEventType = "payment_processing"
	PaymentEventSuccess                PaymentEventType = "payment_success"
	PaymentEventFailed                 PaymentEventType = "payment_failed"
	PaymentEventDuplicate              PaymentEventType = "duplicate_event"
	PaymentEventReconciliationMismatch PaymentEventType = "reconciliation_mismatch"
	PaymentEventBookingConfirmed       PaymentEventType = "booking_confirmed"
	PaymentEventRefunded               PaymentEventType = "payment_refunded"
	PaymentEventExpired                PaymentEventType = "payment_expired"
	PaymentEventError                  PaymentEventType = "error"
)

// PaymentEventSource identifies where the event originated
type PaymentEventSource string

const (
	PaymentSourceBackend PaymentEventSource = "backend"
	PaymentSourceWebhook PaymentEventSource = "paystack_webhook"
	PaymentSourceAPI     PaymentEventSource = "paystack_api"
	PaymentSourceUser    PaymentEventSource = "user"
	PaymentSourceSystem  PaymentEventSource = "system"
)

// PaymentAudit is an append-only record of one gateway interaction
type PaymentAudit struct {
	ID        uuid.UUID `json:"id" db:"id"`
	PaymentID *int64    `json:"payment_id,omitempty" db:"payment_id"`
	BookingID *int64    `json:"booking_id,omitempty" db:"booking_id"`
	Reference *string   `json:"reference,omitempty" db:"reference"`

	EventType   PaymentEventType   `json:"event_type" db:"event_type"`
	EventSource PaymentEventSource `json:"event_source" db:"event_source"`

	ExpectedAmount *decimal.Decimal `json:"expected_amount,omitempty" db:"expected_amount"`
	ReceivedAmount *decimal.Decimal `json:"received_amount,omitempty" db:"received_amount"`
	Currency       *string          `json:"currency,omitempty" db:"currency"`
	AmountsMatch   *bool            `json:"amounts_match,omitempty" db:"amounts_match"`

	PaymentStatus *string `json:"payment_status,omitempty" db:"payment_status"`
	GatewayStatus *string `json:"gateway_status,omitempty" db:"gateway_status"`

	RequestPayload  JSONB   `json:"request_payload,omitempty" db:"request_payload"`
	ResponsePayload JSONB   `json:"response_payload,omitempty" db:"response_payload"`
	RawBody         *string `json:"raw_body,omitempty" db:"raw_body"`

	ErrorMessage *string `json:"error_message,omitempty" db:"error_message"`
	IsDuplicate  bool    `json:"is_duplicate" db:"is_duplicate"`

	IPAddress  *string `json:"ip_address,omitempty" db:"ip_address"`
	UserAgent  *string `json:"user_agent,omitempty" db:"user_agent"`
	DeviceInfo JSONB   `json:"device_info,omitempty" db:"device_info"`
	RequestID  *string `json:"request_id,omitempty" db:"request_id"`

	ProcessingTimeMs *int      `json:"processing_time_ms,omitempty" db:"processing_time_ms"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
}

// RequestMeta describes the HTTP request that triggered a payment event
type RequestMeta struct {
	IPAddress  string
	UserAgent  string
	DeviceInfo map[string]interface{}
	RequestID  string
}

// NewPaymentAudit creates a new payment audit entry with required fields
func NewPaymentAudit(eventType PaymentEventType, source PaymentEventSource) *PaymentAudit {
	return &PaymentAudit{
		ID:          uuid.New(),
		EventType:   eventType,
		EventSource: source,
		CreatedAt:   time.Now(),
	}
}

// ForPayment links the audit to a stored payment
func (pa *PaymentAudit) ForPayment(p *Payment) *PaymentAudit {
	if p == nil {
		return pa
	}
	id, bookingID, ref, status := p.ID, p.BookingID, p.TransactionID, string(p.Status)
	pa.PaymentID = &id
	pa.BookingID = &bookingID
	pa.Reference = &ref
	pa.PaymentStatus = &status
	return pa
}

// SetReference sets the transaction reference
func (pa *PaymentAudit) SetReference(ref string) *PaymentAudit {
	if ref != "" {
		pa.Reference = &ref
	}
	return pa
}

// SetAmounts records the expected and received amounts and returns whether they match
func (pa *PaymentAudit) SetAmounts(expected, received decimal.Decimal, currency string) bool {
	pa.ExpectedAmount = &expected
	pa.ReceivedAmount = &received
	if currency != "" {
		pa.Currency = &currency
	}
	match := expected.Equal(received)
	pa.AmountsMatch = &match
	return match
}

// SetGatewayStatus sets the status reported by the gateway
func (pa *PaymentAudit) SetGatewayStatus(status string) *PaymentAudit {
	pa.GatewayStatus = &status
	return pa
}

// SetError sets error information
func (pa *PaymentAudit) SetError(message string) *PaymentAudit {
	pa.ErrorMessage = &message
	return pa
}

// SetRawBody stores the raw body before parsing
func (pa *PaymentAudit) SetRawBody(body []byte) *PaymentAudit {
	if len(body) > 0 {
		raw := string(body)
		pa.RawBody = &raw
	}
	return pa
}

// SetRequestPayload sets the request payload sent
func (pa *PaymentAudit) SetRequestPayload(payload map[string]interface{}) *PaymentAudit {
	pa.RequestPayload = JSONB(payload)
	return pa
}

// SetResponsePayload sets the response payload received
func (pa *PaymentAudit) SetResponsePayload(payload map[string]interface{}) *PaymentAudit {
	pa.ResponsePayload = JSONB(payload)
	return pa
}

// SetMeta copies request metadata onto the audit
func (pa *PaymentAudit) SetMeta(meta RequestMeta) *PaymentAudit {
	if meta.IPAddress != "" {
		pa.IPAddress = &meta.IPAddress
	}
	if meta.UserAgent != "" {
		pa.UserAgent = &meta.UserAgent
	}
	if len(meta.DeviceInfo) > 0 {
		pa.DeviceInfo = JSONB(meta.DeviceInfo)
	}
	if meta.RequestID != "" {
		pa.RequestID = &meta.RequestID
	}
	return pa
}

// SetProcessingTime records the elapsed time since start
func (pa *PaymentAudit) SetProcessingTime(start time.Time) *PaymentAudit {
	ms := int(time.Since(start).Milliseconds())
	pa.ProcessingTimeMs = &ms
	return pa
}

// MarkAsDuplicate marks this event as a duplicate
func (pa *PaymentAudit) MarkAsDuplicate() *PaymentAudit {
	pa.IsDuplicate = true
	return pa
}
