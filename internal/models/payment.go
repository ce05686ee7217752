package models

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus represents the lifecycle state of a payment
type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "pending"
	PaymentStatusProcessing PaymentStatus = "processing"
	PaymentStatusCompleted  PaymentStatus = "completed"
	PaymentStatusFailed     PaymentStatus = "failed"
	PaymentStatusRefunded   PaymentStatus = "refunded"
)

// IsValid reports whether s is a known payment status
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusProcessing, PaymentStatusCompleted, PaymentStatusFailed, PaymentStatusRefunded:
		return true
	}
	return false
}

// IsOpen reports whether the gateway outcome for s is still unknown
func (s PaymentStatus) IsOpen() bool {
	return s == PaymentStatusPending || s == PaymentStatusProcessing
}

// IsTerminal reports whether s only changes through an explicit refund or not at all
func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentStatusCompleted || s == PaymentStatusFailed || s == PaymentStatusRefunded
}

// PaymentMethodPaystack is the only gateway wired in
const PaymentMethodPaystack = "paystack"

// Failure reasons stored on failed payments
const (
	FailureReasonGatewayDeclined = "gateway_declined"
	FailureReasonGatewayError    = "gateway_error"
	FailureReasonAmountMismatch  = "amount_mismatch"
	FailureReasonExpired         = "expired"
)

// GatewayStatus is the gateway's verdict normalised to three outcomes
type GatewayStatus string

const (
	GatewayStatusSuccess    GatewayStatus = "success"
	GatewayStatusFailure    GatewayStatus = "failure"
	GatewayStatusProcessing GatewayStatus = "processing"
)

// Payment is one attempt to pay for a booking
type Payment struct {
	ID            int64           `json:"id" db:"id"`
	BookingID     int64           `json:"booking_id" db:"booking_id"`
	Amount        decimal.Decimal `json:"amount" db:"amount"`
	Currency      string          `json:"currency" db:"currency"`
	PaymentMethod string          `json:"payment_method" db:"payment_method"`
	Status        PaymentStatus   `json:"status" db:"status"`
	TransactionID string          `json:"transaction_id" db:"transaction_id"`
	AccessCode    *string         `json:"access_code,omitempty" db:"access_code"`
	FailureReason *string         `json:"failure_reason,omitempty" db:"failure_reason"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`
}

// PaymentDetail is a payment joined with the parties of its booking
type PaymentDetail struct {
	Payment
	TravelerID int64  `json:"traveler_id" db:"traveler_id"`
	GuideID    *int64 `json:"guide_id,omitempty" db:"guide_id"`
}

// PaymentFilter narrows payment listings. Scope fields are set from the caller's role.
type PaymentFilter struct {
	TravelerID *int64
	GuideID    *int64
	Status     PaymentStatus
	Page       Pagination
}

// InitiatePaymentRequest is the body of POST /payments
type InitiatePaymentRequest struct {
	BookingID   int64           `json:"booking_id" binding:"required"`
	Amount      decimal.Decimal `json:"amount"`
	CallbackURL string          `json:"callback_url,omitempty"`
}

// Validate validates the initiate request
func (r *InitiatePaymentRequest) Validate() error {
	if r.BookingID <= 0 {
		return errors.New("booking_id must be positive")
	}
	if !r.Amount.IsPositive() {
		return errors.New("amount must be greater than zero")
	}
	if r.Amount.Exponent() < -2 && !r.Amount.Equal(r.Amount.Round(2)) {
		return errors.New("amount cannot have more than 2 decimal places")
	}
	return nil
}

// InitiatePaymentResponse is returned after the gateway accepted the transaction
type InitiatePaymentResponse struct {
	Payment          *Payment `json:"payment"`
	AuthorizationURL string   `json:"authorization_url"`
	Reference        string   `json:"reference"`
	AccessCode       string   `json:"access_code"`
}

// VerifyPaymentResponse is returned by manual verification
type VerifyPaymentResponse struct {
	Payment *Payment      `json:"payment"`
	Status  PaymentStatus `json:"status"`
	Changed bool          `json:"changed"`
}
