package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/safarihub/booking-backend/internal/models"
)

const bookingColumns = `id, traveler_id, guide_id, destination_id, date, status, special_requests, created_at, updated_at`

const bookingDetailSelect = `
	SELECT b.id, b.traveler_id, b.guide_id, b.destination_id, b.date, b.status,
		b.special_requests, b.created_at, b.updated_at,
		tu.full_name AS traveler_name, gu.full_name AS guide_name, d.name AS destination_name
	FROM bookings b
	JOIN travelers t ON t.id = b.traveler_id
	JOIN users tu ON tu.id = t.user_id
	LEFT JOIN guides g ON g.id = b.guide_id
	LEFT JOIN users gu ON gu.id = g.user_id
	LEFT JOIN destinations d ON d.id = b.destination_id`

// BookingRepository handles booking database operations
type BookingRepository struct {
	db DB
}

// NewBookingRepository creates a new booking repository
func NewBookingRepository(db DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// guideDateLockKey is hashed into the advisory lock that serialises bookings of one guide on one date
func guideDateLockKey(guideID int64, date models.Date) string {
	return fmt.Sprintf("guide:%d:%s", guideID, date.String())
}

// CreateIfGuideFree inserts a pending booking unless the guide already has an
// active booking on the date. Check and insert run under a transaction-scoped
// advisory lock on (guide, date); the partial unique index backs it up.
func (r *BookingRepository) CreateIfGuideFree(ctx context.Context, b *models.Booking) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if b.GuideID != nil {
			if _, err := tx.ExecContext(ctx,
				`SELECT pg_advisory_xact_lock(hashtext($1))`, guideDateLockKey(*b.GuideID, b.Date),
			); err != nil {
				return translate(err, "lock guide date")
			}

			var taken bool
			if err := tx.GetContext(ctx, &taken, `
				SELECT EXISTS(
					SELECT 1 FROM bookings
					WHERE guide_id = $1 AND date = $2 AND status IN ('pending', 'confirmed')
				)`, *b.GuideID, b.Date,
			); err != nil {
				return translate(err, "check guide availability")
			}
			if taken {
				return ErrGuideUnavailable
			}
		}

		query := `
			INSERT INTO bookings (traveler_id, guide_id, destination_id, date, status, special_requests)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING ` + bookingColumns

		err := tx.QueryRowxContext(ctx, query,
			b.TravelerID, b.GuideID, b.DestinationID, b.Date, models.BookingStatusPending, b.SpecialRequests,
		).StructScan(b)
		return translate(err, "create booking")
	})
}

// GetByID fetches a booking with participant names
func (r *BookingRepository) GetByID(ctx context.Context, id int64) (*models.BookingDetail, error) {
	var b models.BookingDetail
	if err := r.db.GetContext(ctx, &b, bookingDetailSelect+` WHERE b.id = $1`, id); err != nil {
		return nil, translate(err, "get booking")
	}
	return &b, nil
}

// List returns one page of bookings, newest first
func (r *BookingRepository) List(ctx context.Context, filter models.BookingFilter) ([]models.BookingDetail, int, error) {
	var conds conditions
	if filter.TravelerID != nil {
		conds.add("b.traveler_id = $%[1]d", *filter.TravelerID)
	}
	if filter.GuideID != nil {
		conds.add("b.guide_id = $%[1]d", *filter.GuideID)
	}
	if filter.Status != "" {
		conds.add("b.status = $%[1]d", filter.Status)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM bookings b`+conds.where(), conds.args...); err != nil {
		return nil, 0, translate(err, "count bookings")
	}

	limit, args := conds.page(filter.Page.Limit(), filter.Page.Offset())
	query := bookingDetailSelect + conds.where() + ` ORDER BY b.created_at DESC, b.id DESC` + limit

	bookings := []models.BookingDetail{}
	if err := r.db.SelectContext(ctx, &bookings, query, args...); err != nil {
		return nil, 0, translate(err, "list bookings")
	}
	return bookings, total, nil
}

// UpdateLocked locks the booking row, lets fn mutate it and persists the result.
// Nothing is written when fn returns an error or leaves the booking unchanged.
func (r *BookingRepository) UpdateLocked(ctx context.Context, id int64, fn func(b *models.Booking) error) (*models.Booking, error) {
	var booking models.Booking
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := lockBooking(ctx, tx, id, &booking); err != nil {
			return err
		}
		before := booking
		if err := fn(&booking); err != nil {
			return err
		}
		if bookingUnchanged(before, booking) {
			return nil
		}
		return saveBooking(ctx, tx, &booking)
	})
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// DeleteLocked locks the booking row, lets fn veto the deletion and deletes it.
// fn receives whether any payment references the booking.
func (r *BookingRepository) DeleteLocked(ctx context.Context, id int64, fn func(b *models.Booking, hasPayments bool) error) (*models.Booking, error) {
	var booking models.Booking
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := lockBooking(ctx, tx, id, &booking); err != nil {
			return err
		}

		var hasPayments bool
		if err := tx.GetContext(ctx, &hasPayments,
			`SELECT EXISTS(SELECT 1 FROM payments WHERE booking_id = $1)`, id,
		); err != nil {
			return translate(err, "check booking payments")
		}

		if err := fn(&booking, hasPayments); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM bookings WHERE id = $1`, id); err != nil {
			return translate(err, "delete booking")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func lockBooking(ctx context.Context, tx *sqlx.Tx, id int64, b *models.Booking) error {
	err := tx.GetContext(ctx, b, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1 FOR UPDATE`, id)
	return translate(err, "lock booking")
}

func saveBooking(ctx context.Context, tx *sqlx.Tx, b *models.Booking) error {
	b.UpdatedAt = time.Now()
	_, err := tx.ExecContext(ctx,
		`UPDATE bookings SET status = $1, special_requests = $2, updated_at = $3 WHERE id = $4`,
		b.Status, b.SpecialRequests, b.UpdatedAt, b.ID,
	)
	return translate(err, "update booking")
}

func bookingUnchanged(before, after models.Booking) bool {
	if before.Status != after.Status {
		return false
	}
	switch {
	case before.SpecialRequests == nil && after.SpecialRequests == nil:
		return true
	case before.SpecialRequests == nil || after.SpecialRequests == nil:
		return false
	}
	return *before.SpecialRequests == *after.SpecialRequests
}
