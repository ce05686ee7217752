package services

import (
	"context"
	"time"

	"github.com/safarihub/booking-backend/internal/cache"
	"github.com/safarihub/booking-backend/internal/database"
	"github.com/safarihub/booking-backend/internal/models"
	"github.com/safarihub/booking-backend/pkg/paystack"
)

// UserStore is the persistence the auth and admin flows need
type UserStore interface {
	CreateWithProfile(ctx context.Context, user *models.User) (*models.Identity, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	ResolveIdentity(ctx context.Context, userID int64) (*models.Identity, error)
	GetProfile(ctx context.Context, identity models.Identity) (interface{}, error)
	GuideExists(ctx context.Context, guideID int64) (bool, error)
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	Update(ctx context.Context, id int64, req models.UpdateUserRequest) (*models.User, error)
}

// ProfileStore is the persistence of traveler and guide profiles
type ProfileStore interface {
	GetTraveler(ctx context.Context, id int64) (*models.TravelerDetail, error)
	UpdateTraveler(ctx context.Context, id int64, req models.UpdateTravelerRequest) (*models.Traveler, error)
	GetGuide(ctx context.Context, id int64) (*models.GuideDetail, error)
	UpdateGuide(ctx context.Context, id int64, req models.UpdateGuideRequest) (*models.Guide, error)
	ListGuides(ctx context.Context, filter models.GuideFilter) ([]models.GuideListItem, int, error)
}

// DestinationStore is the persistence of the destination catalogue
type DestinationStore interface {
	Create(ctx context.Context, d *models.Destination) error
	GetByID(ctx context.Context, id int64) (*models.Destination, error)
	Exists(ctx context.Context, id int64) (bool, error)
	List(ctx context.Context, filter models.DestinationFilter) ([]models.Destination, int, error)
	Update(ctx context.Context, d *models.Destination) error
	Delete(ctx context.Context, id int64) error
}

// BookingStore is the persistence of bookings. The *Locked methods run their
// callback while holding the booking row lock.
type BookingStore interface {
	CreateIfGuideFree(ctx context.Context, b *models.Booking) error
	GetByID(ctx context.Context, id int64) (*models.BookingDetail, error)
	List(ctx context.Context, filter models.BookingFilter) ([]models.BookingDetail, int, error)
	UpdateLocked(ctx context.Context, id int64, fn func(b *models.Booking) error) (*models.Booking, error)
	DeleteLocked(ctx context.Context, id int64, fn func(b *models.Booking, hasPayments bool) error) (*models.Booking, error)
}

// PaymentStore is the persistence of payments. The UpdateLocked* methods run
// their callback while holding the payment row lock and then the booking row lock.
type PaymentStore interface {
	Create(ctx context.Context, p *models.Payment) error
	HasCompleted(ctx context.Context, bookingID int64) (bool, error)
	AttachGatewayReference(ctx context.Context, id int64, reference, accessCode string) error
	MarkFailed(ctx context.Context, id int64, reason string) error
	GetByID(ctx context.Context, id int64) (*models.PaymentDetail, error)
	GetByReference(ctx context.Context, reference string) (*models.Payment, error)
	List(ctx context.Context, filter models.PaymentFilter) ([]models.PaymentDetail, int, error)
	ListStale(ctx context.Context, cutoff time.Time, limit int) ([]models.Payment, error)
	UpdateLockedByReference(ctx context.Context, reference string, fn func(lock *database.PaymentLock) error) (*database.PaymentLock, error)
	UpdateLockedByID(ctx context.Context, id int64, fn func(lock *database.PaymentLock) error) (*database.PaymentLock, error)
}

// AuditStore appends and reads the payment audit trail
type AuditStore interface {
	Log(ctx context.Context, audit *models.PaymentAudit) error
	ListByPayment(ctx context.Context, paymentID int64) ([]models.PaymentAudit, error)
}

// DashboardStore computes admin statistics
type DashboardStore interface {
	Stats(ctx context.Context) (*models.DashboardStats, error)
}

// Gateway is the payment provider
type Gateway interface {
	Initialize(ctx context.Context, req paystack.InitializeRequest) (*paystack.InitializeResult, error)
	Verify(ctx context.Context, reference string) (*paystack.VerifyResult, error)
	Currency() string
}

var (
	_ UserStore        = (*database.UserRepository)(nil)
	_ ProfileStore     = (*database.ProfileRepository)(nil)
	_ DestinationStore = (*database.DestinationRepository)(nil)
	_ BookingStore     = (*database.BookingRepository)(nil)
	_ PaymentStore     = (*database.PaymentRepository)(nil)
	_ AuditStore       = (*database.PaymentAuditRepository)(nil)
	_ DashboardStore   = (*database.DashboardRepository)(nil)
	_ Gateway          = (*paystack.Client)(nil)
	_ DestinationCache = (*cache.DestinationCache)(nil)
)
