package paystack

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// SignatureHeader carries the HMAC of a webhook body
const SignatureHeader = "X-Paystack-Signature"

// Charge events reconciliation acts on
const (
	EventChargeSuccess = "charge.success"
	EventChargeFailed  = "charge.failed"
)

var (
	// ErrMissingSecret means no webhook secret is configured, so nothing can be trusted
	ErrMissingSecret = errors.New("webhook secret not configured")
	// ErrMissingSignature means the request carried no signature header
	ErrMissingSignature = errors.New("missing webhook signature")
	// ErrBadSignature means the signature is malformed or does not match the body
	ErrBadSignature = errors.New("webhook signature mismatch")
)

// Event is a webhook notification
type Event struct {
	Event string                 `json:"event"`
	Data  TransactionData        `json:"data"`
	Raw   map[string]interface{} `json:"-"`
}

// VerifySignature checks the hex HMAC-SHA512 of the raw body against the header value.
// Every failure path rejects.
func VerifySignature(body []byte, signature, secret string) error {
	if secret == "" {
		return ErrMissingSecret
	}
	signature = strings.TrimSpace(signature)
	if signature == "" {
		return ErrMissingSignature
	}

	given, err := hex.DecodeString(strings.ToLower(signature))
	if err != nil {
		return ErrBadSignature
	}

	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	if !hmac.Equal(given, mac.Sum(nil)) {
		return ErrBadSignature
	}
	return nil
}

// Sign returns the signature Paystack would send for body
func Sign(body []byte, secret string) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// ParseEvent decodes a webhook body
func ParseEvent(body []byte) (*Event, error) {
	var event Event
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("invalid webhook payload: %w", err)
	}
	if event.Event == "" {
		return nil, fmt.Errorf("invalid webhook payload: missing event")
	}
	_ = json.Unmarshal(body, &event.Raw)
	return &event, nil
}

// IsCharge reports whether the event settles a charge
func (e *Event) IsCharge() bool {
	return e.Event == EventChargeSuccess || e.Event == EventChargeFailed
}

// Status returns the normalised outcome carried by a charge event
func (e *Event) Status() Status {
	switch e.Event {
	case EventChargeSuccess:
		return StatusSuccess
	case EventChargeFailed:
		return StatusFailure
	}
	return NormalizeStatus(e.Data.Status)
}

// Amount returns the charged amount in major units
func (e *Event) Amount() decimal.Decimal {
	return FromMinorUnits(e.Data.Amount)
}
