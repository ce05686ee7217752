package models

import "github.com/shopspring/decimal"

// DashboardStats is the admin overview of the marketplace
type DashboardStats struct {
	TotalUsers        int             `json:"total_users" db:"total_users"`
	TotalTravelers    int             `json:"total_travelers" db:"total_travelers"`
	TotalGuides       int             `json:"total_guides" db:"total_guides"`
	TotalDestinations int             `json:"total_destinations" db:"total_destinations"`
	TotalBookings     int             `json:"total_bookings" db:"total_bookings"`
	ConfirmedBookings int             `json:"confirmed_bookings" db:"confirmed_bookings"`
	PendingPayments   int             `json:"pending_payments" db:"pending_payments"`
	TotalRevenue      decimal.Decimal `json:"total_revenue" db:"total_revenue"`
	RecentBookings    []BookingDetail `json:"recent_bookings" db:"-"`
}
