package database

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/safarihub/booking-backend/internal/models"
)

const paymentColumns = `id, booking_id, amount, currency, payment_method, status, transaction_id,
	access_code, failure_reason, created_at, updated_at`

const paymentDetailSelect = `
	SELECT p.id, p.booking_id, p.amount, p.currency, p.payment_method, p.status, p.transaction_id,
		p.access_code, p.failure_reason, p.created_at, p.updated_at,
		b.traveler_id, b.guide_id
	FROM payments p
	JOIN bookings b ON b.id = p.booking_id`

// PaymentLock holds a payment and its booking, both row-locked while a callback runs
type PaymentLock struct {
	Payment models.Payment
	Booking models.Booking
	// OtherCompleted is set when a different payment of the booking is already completed
	OtherCompleted bool
}

// PaymentRepository handles payment database operations
type PaymentRepository struct {
	db DB
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// Create inserts a payment row
func (r *PaymentRepository) Create(ctx context.Context, p *models.Payment) error {
	query := `
		INSERT INTO payments (booking_id, amount, currency, payment_method, status, transaction_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + paymentColumns

	err := r.db.QueryRowxContext(ctx, query,
		p.BookingID, p.Amount, p.Currency, p.PaymentMethod, p.Status, p.TransactionID,
	).StructScan(p)
	return translate(err, "create payment")
}

// HasCompleted reports whether the booking already has a completed payment
func (r *PaymentRepository) HasCompleted(ctx context.Context, bookingID int64) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM payments WHERE booking_id = $1 AND status = 'completed')`, bookingID)
	if err != nil {
		return false, translate(err, "check completed payment")
	}
	return exists, nil
}

// AttachGatewayReference replaces the provisional reference with the gateway's canonical one
func (r *PaymentRepository) AttachGatewayReference(ctx context.Context, id int64, reference, accessCode string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE payments SET transaction_id = $1, access_code = $2, updated_at = $3 WHERE id = $4`,
		reference, accessCode, time.Now(), id,
	)
	if err != nil {
		return translate(err, "attach gateway reference")
	}
	return requireAffected(result, "attach gateway reference")
}

// MarkFailed fails a payment whose outcome is still open. Returns ErrNotFound when
// the payment is missing or already settled.
func (r *PaymentRepository) MarkFailed(ctx context.Context, id int64, reason string) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE payments SET status = 'failed', failure_reason = $1, updated_at = $2
		WHERE id = $3 AND status IN ('pending', 'processing')`,
		reason, time.Now(), id,
	)
	if err != nil {
		return translate(err, "mark payment failed")
	}
	return requireAffected(result, "mark payment failed")
}

// GetByID fetches a payment with the parties of its booking
func (r *PaymentRepository) GetByID(ctx context.Context, id int64) (*models.PaymentDetail, error) {
	var p models.PaymentDetail
	if err := r.db.GetContext(ctx, &p, paymentDetailSelect+` WHERE p.id = $1`, id); err != nil {
		return nil, translate(err, "get payment")
	}
	return &p, nil
}

// GetByReference fetches a payment by its transaction reference
func (r *PaymentRepository) GetByReference(ctx context.Context, reference string) (*models.Payment, error) {
	var p models.Payment
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE transaction_id = $1`
	if err := r.db.GetContext(ctx, &p, query, reference); err != nil {
		return nil, translate(err, "get payment by reference")
	}
	return &p, nil
}

// List returns one page of payments, newest first
func (r *PaymentRepository) List(ctx context.Context, filter models.PaymentFilter) ([]models.PaymentDetail, int, error) {
	var conds conditions
	if filter.TravelerID != nil {
		conds.add("b.traveler_id = $%[1]d", *filter.TravelerID)
	}
	if filter.GuideID != nil {
		conds.add("b.guide_id = $%[1]d", *filter.GuideID)
	}
	if filter.Status != "" {
		conds.add("p.status = $%[1]d", filter.Status)
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM payments p JOIN bookings b ON b.id = p.booking_id` + conds.where()
	if err := r.db.GetContext(ctx, &total, countQuery, conds.args...); err != nil {
		return nil, 0, translate(err, "count payments")
	}

	limit, args := conds.page(filter.Page.Limit(), filter.Page.Offset())
	query := paymentDetailSelect + conds.where() + ` ORDER BY p.created_at DESC, p.id DESC` + limit

	payments := []models.PaymentDetail{}
	if err := r.db.SelectContext(ctx, &payments, query, args...); err != nil {
		return nil, 0, translate(err, "list payments")
	}
	return payments, total, nil
}

// ListStale returns open payments created before cutoff, oldest first
func (r *PaymentRepository) ListStale(ctx context.Context, cutoff time.Time, limit int) ([]models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments
		WHERE status IN ('pending', 'processing') AND created_at < $1
		ORDER BY created_at
		LIMIT $2`

	payments := []models.Payment{}
	if err := r.db.SelectContext(ctx, &payments, query, cutoff, limit); err != nil {
		return nil, translate(err, "list stale payments")
	}
	return payments, nil
}

// UpdateLockedByReference locks the payment with the transaction reference and
// its booking, runs fn and persists whatever fn changed on either row.
func (r *PaymentRepository) UpdateLockedByReference(ctx context.Context, reference string, fn func(lock *PaymentLock) error) (*PaymentLock, error) {
	return r.updateLocked(ctx, `transaction_id = $1`, reference, fn)
}

// UpdateLockedByID is UpdateLockedByReference keyed by payment id
func (r *PaymentRepository) UpdateLockedByID(ctx context.Context, id int64, fn func(lock *PaymentLock) error) (*PaymentLock, error) {
	return r.updateLocked(ctx, `id = $1`, id, fn)
}

func (r *PaymentRepository) updateLocked(ctx context.Context, where string, key interface{}, fn func(lock *PaymentLock) error) (*PaymentLock, error) {
	var lock PaymentLock
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := tx.GetContext(ctx, &lock.Payment,
			`SELECT `+paymentColumns+` FROM payments WHERE `+where+` FOR UPDATE`, key,
		); err != nil {
			return translate(err, "lock payment")
		}
		if err := lockBooking(ctx, tx, lock.Payment.BookingID, &lock.Booking); err != nil {
			return err
		}
		if err := tx.GetContext(ctx, &lock.OtherCompleted, `
			SELECT EXISTS(
				SELECT 1 FROM payments WHERE booking_id = $1 AND status = 'completed' AND id <> $2
			)`, lock.Payment.BookingID, lock.Payment.ID,
		); err != nil {
			return translate(err, "check completed payment")
		}

		payment, booking := lock.Payment, lock.Booking
		if err := fn(&lock); err != nil {
			return err
		}

		if paymentChanged(payment, lock.Payment) {
			lock.Payment.UpdatedAt = time.Now()
			if _, err := tx.ExecContext(ctx,
				`UPDATE payments SET status = $1, failure_reason = $2, updated_at = $3 WHERE id = $4`,
				lock.Payment.Status, lock.Payment.FailureReason, lock.Payment.UpdatedAt, lock.Payment.ID,
			); err != nil {
				return translate(err, "update payment")
			}
		}
		if booking.Status != lock.Booking.Status {
			if err := saveBooking(ctx, tx, &lock.Booking); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &lock, nil
}

func paymentChanged(before, after models.Payment) bool {
	if before.Status != after.Status {
		return true
	}
	switch {
	case before.FailureReason == nil && after.FailureReason == nil:
		return false
	case before.FailureReason == nil || after.FailureReason == nil:
		return true
	}
	return *before.FailureReason != *after.FailureReason
}
