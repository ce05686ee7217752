package database

import (
	"context"

	"github.com/safarihub/booking-backend/internal/models"
)

const recentBookingsLimit = 10

// DashboardRepository computes the admin overview
type DashboardRepository struct {
	db DB
}

// NewDashboardRepository creates a new dashboard repository
func NewDashboardRepository(db DB) *DashboardRepository {
	return &DashboardRepository{db: db}
}

// Stats returns counters, completed revenue and the latest bookings
func (r *DashboardRepository) Stats(ctx context.Context) (*models.DashboardStats, error) {
	var stats models.DashboardStats
	query := `
		SELECT
			(SELECT COUNT(*) FROM users) AS total_users,
			(SELECT COUNT(*) FROM travelers) AS total_travelers,
			(SELECT COUNT(*) FROM guides) AS total_guides,
			(SELECT COUNT(*) FROM destinations) AS total_destinations,
			(SELECT COUNT(*) FROM bookings) AS total_bookings,
			(SELECT COUNT(*) FROM bookings WHERE status = 'confirmed') AS confirmed_bookings,
			(SELECT COUNT(*) FROM payments WHERE status IN ('pending', 'processing')) AS pending_payments,
			(SELECT COALESCE(SUM(amount), 0) FROM payments WHERE status = 'completed') AS total_revenue`

	if err := r.db.GetContext(ctx, &stats, query); err != nil {
		return nil, translate(err, "load dashboard stats")
	}

	stats.RecentBookings = []models.BookingDetail{}
	recent := bookingDetailSelect + ` ORDER BY b.created_at DESC, b.id DESC LIMIT $1`
	if err := r.db.SelectContext(ctx, &stats.RecentBookings, recent, recentBookingsLimit); err != nil {
		return nil, translate(err, "load recent bookings")
	}
	return &stats, nil
}

