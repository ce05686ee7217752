package handlers

import (
	"context"

	"github.com/safarihub/booking-backend/internal/models"
	"github.com/safarihub/booking-backend/internal/services"
)

// AuthAPI is what the auth endpoints need
type AuthAPI interface {
	Register(ctx context.Context, req models.RegisterRequest) (*services.AuthResponse, error)
	Login(ctx context.Context, req models.LoginRequest) (*services.AuthResponse, error)
	Me(ctx context.Context, caller models.Identity) (*services.MeResponse, error)
}

// BookingAPI is what the booking endpoints need
type BookingAPI interface {
	CreateBooking(ctx context.Context, caller models.Identity, req models.CreateBookingRequest) (*models.Booking, error)
	ListBookings(ctx context.Context, caller models.Identity, filter models.BookingFilter) (*models.BookingPage, error)
	GetBooking(ctx context.Context, caller models.Identity, id int64) (*models.BookingDetail, error)
	UpdateBooking(ctx context.Context, caller models.Identity, id int64, req models.UpdateBookingRequest) (*models.Booking, error)
	DeleteBooking(ctx context.Context, caller models.Identity, id int64) error
}

// PaymentAPI is what the payment and webhook endpoints need
type PaymentAPI interface {
	InitiatePayment(ctx context.Context, caller models.Identity, req models.InitiatePaymentRequest, meta models.RequestMeta) (*models.InitiatePaymentResponse, error)
	ListPayments(ctx context.Context, caller models.Identity, filter models.PaymentFilter) (*models.PaymentPage, error)
	GetPayment(ctx context.Context, caller models.Identity, id int64) (*models.PaymentDetail, error)
	RefundPayment(ctx context.Context, caller models.Identity, id int64, meta models.RequestMeta) (*services.ReconcileResult, error)
	VerifyPayment(ctx context.Context, reference string, meta models.RequestMeta) (*models.VerifyPaymentResponse, error)
	HandleWebhook(ctx context.Context, rawBody []byte, signature string, meta models.RequestMeta) (*services.ReconcileResult, error)
	ListAudits(ctx context.Context, paymentID int64) ([]models.PaymentAudit, error)
}

// DestinationAPI is what the catalogue endpoints need
type DestinationAPI interface {
	ListDestinations(ctx context.Context, filter models.DestinationFilter) (*models.DestinationPage, error)
	GetDestination(ctx context.Context, id int64) (*models.Destination, error)
	CreateDestination(ctx context.Context, req models.CreateDestinationRequest) (*models.Destination, error)
	UpdateDestination(ctx context.Context, id int64, req models.UpdateDestinationRequest) (*models.Destination, error)
	DeleteDestination(ctx context.Context, id int64) error
}

// ProfileAPI is what the traveler and guide profile endpoints need
type ProfileAPI interface {
	GetTraveler(ctx context.Context, caller models.Identity, id int64) (*models.TravelerDetail, error)
	UpdateTraveler(ctx context.Context, caller models.Identity, id int64, req models.UpdateTravelerRequest) (*models.Traveler, error)
	ListGuides(ctx context.Context, filter models.GuideFilter) (*models.GuidePage, error)
	GetGuide(ctx context.Context, id int64) (*models.GuideDetail, error)
	UpdateGuide(ctx context.Context, caller models.Identity, id int64, req models.UpdateGuideRequest) (*models.Guide, error)
}

// AdminAPI is what the admin endpoints need
type AdminAPI interface {
	Dashboard(ctx context.Context) (*models.DashboardStats, error)
	ListUsers(ctx context.Context, filter models.UserFilter) (*models.UserPage, error)
	UpdateUser(ctx context.Context, caller models.Identity, id int64, req models.UpdateUserRequest) (*models.User, error)
}

// LoginLimiter throttles repeated failed logins
type LoginLimiter interface {
	CheckLogin(ctx context.Context, email, ip string) error
	RecordFailure(ctx context.Context, email, ip string)
	Reset(ctx context.Context, email string)
}

var (
	_ LoginLimiter   = (*services.RateLimitService)(nil)
	_ AuthAPI        = (*services.AuthService)(nil)
	_ BookingAPI     = (*services.BookingService)(nil)
	_ PaymentAPI     = (*services.PaymentService)(nil)
	_ DestinationAPI = (*services.DestinationService)(nil)
	_ ProfileAPI     = (*services.ProfileService)(nil)
	_ AdminAPI       = (*services.AdminService)(nil)
)
