package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/safarihub/booking-backend/internal/models"
	"github.com/sirupsen/logrus"
)

// PaymentAuditRepository appends and reads the payment audit trail
type PaymentAuditRepository struct {
	db     DB
	logger *logrus.Logger
}

// NewPaymentAuditRepository creates a new payment audit repository
func NewPaymentAuditRepository(db DB, logger *logrus.Logger) *PaymentAuditRepository {
	return &PaymentAuditRepository{
		db:     db,
		logger: logger,
	}
}

// Log appends an audit entry
func (r *PaymentAuditRepository) Log(ctx context.Context, audit *models.PaymentAudit) error {
	if audit == nil {
		return fmt.Errorf("audit entry cannot be nil")
	}
	if audit.ID == uuid.Nil {
		audit.ID = uuid.New()
	}
	if audit.CreatedAt.IsZero() {
		audit.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO payment_audits (
			id, payment_id, booking_id, reference,
			event_type, event_source,
			expected_amount, received_amount, currency, amounts_match,
			payment_status, gateway_status,
			request_payload, response_payload, raw_body,
			error_message, is_duplicate,
			ip_address, user_agent, device_info, request_id,
			processing_time_ms, created_at
		) VALUES (
			$1, $2, $3, $4,
			$5, $6,
			$7, $8, $9, $10,
			$11, $12,
			$13, $14, $15,
			$16, $17,
			$18, $19, $20, $21,
			$22, $23
		)`

	_, err := r.db.ExecContext(ctx, query,
		audit.ID, audit.PaymentID, audit.BookingID, audit.Reference,
		audit.EventType, audit.EventSource,
		audit.ExpectedAmount, audit.ReceivedAmount, audit.Currency, audit.AmountsMatch,
		audit.PaymentStatus, audit.GatewayStatus,
		audit.RequestPayload, audit.ResponsePayload, audit.RawBody,
		audit.ErrorMessage, audit.IsDuplicate,
		audit.IPAddress, audit.UserAgent, audit.DeviceInfo, audit.RequestID,
		audit.ProcessingTimeMs, audit.CreatedAt,
	)
	if err != nil {
		r.logger.WithError(err).WithFields(logrus.Fields{
			"event_type": audit.EventType,
			"reference":  audit.Reference,
		}).Error("Failed to write payment audit")
		return fmt.Errorf("failed to log payment audit: %w", err)
	}

	r.logger.WithFields(logrus.Fields{
		"audit_id":   audit.ID,
		"event_type": audit.EventType,
		"reference":  audit.Reference,
	}).Debug("Payment audit logged")

	return nil
}

// ListByPayment returns the audit trail of a payment, oldest first
func (r *PaymentAuditRepository) ListByPayment(ctx context.Context, paymentID int64) ([]models.PaymentAudit, error) {
	query := `
		SELECT id, payment_id, booking_id, reference, event_type, event_source,
			expected_amount, received_amount, currency, amounts_match,
			payment_status, gateway_status, request_payload, response_payload, raw_body,
			error_message, is_duplicate, ip_address, user_agent, device_info, request_id,
			processing_time_ms, created_at
		FROM payment_audits
		WHERE payment_id = $1
		ORDER BY created_at, id`

	audits := []models.PaymentAudit{}
	if err := r.db.SelectContext(ctx, &audits, query, paymentID); err != nil {
		return nil, translate(err, "list payment audits")
	}
	return audits, nil
}
