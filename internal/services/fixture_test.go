package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/safarihub/booking-backend/internal/models"
	"github.com/safarihub/booking-backend/pkg/paystack"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const testWebhookSecret = "whsec_test"

var (
	traveler1 = models.Identity{UserID: 1, Email: "amina@example.com", Role: models.RoleTraveler, ProfileID: 11}
	traveler2 = models.Identity{UserID: 2, Email: "joseph@example.com", Role: models.RoleTraveler, ProfileID: 12}
	guide1    = models.Identity{UserID: 3, Email: "baraka@example.com", Role: models.RoleGuide, ProfileID: 101}
	guide2    = models.Identity{UserID: 4, Email: "neema@example.com", Role: models.RoleGuide, ProfileID: 102}
	admin     = models.Identity{UserID: 5, Email: "admin@example.com", Role: models.RoleAdmin, ProfileID: 1}
)

func ctxBG() context.Context { return context.Background() }

type fixture struct {
	st           *memState
	users        *fakeUsers
	destinations *fakeDestinations
	audits       *fakeAudits
	gateway      *fakeGateway
	publisher    *recordingPublisher

	bookingSvc *BookingService
	paymentSvc *PaymentService

	destinationID int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		st:           newMemState(),
		users:        newFakeUsers(),
		destinations: newFakeDestinations(),
		audits:       &fakeAudits{},
		gateway:      newFakeGateway(),
		publisher:    &recordingPublisher{},
	}
	f.users.guides[guide1.ProfileID] = true
	f.users.guides[guide2.ProfileID] = true

	serengeti := &models.Destination{
		Name:     "Serengeti",
		Country:  "Tanzania",
		Price:    decimal.RequireFromString("250.00"),
		Category: models.CategoryPopular,
	}
	require.NoError(t, f.destinations.Create(ctxBG(), serengeti))
	f.destinationID = serengeti.ID

	logger := testLogger()
	bookings := &fakeBookings{st: f.st}
	payments := &fakePayments{st: f.st}

	f.bookingSvc = NewBookingService(bookings, f.users, f.destinations, f.publisher, logger)
	f.paymentSvc = NewPaymentService(payments, bookings, f.audits, f.gateway, f.publisher, PaymentServiceConfig{
		WebhookSecret:  testWebhookSecret,
		CallbackURL:    "http://localhost:5173/payment/verify",
		GatewayTimeout: time.Second,
	}, logger)
	return f
}

func (f *fixture) book(t *testing.T, caller models.Identity, guide models.Identity, date string) *models.Booking {
	t.Helper()
	booking, err := f.bookingSvc.CreateBooking(ctxBG(), caller, models.CreateBookingRequest{
		GuideID:       guide.ProfileID,
		DestinationID: f.destinationID,
		Date:          date,
	})
	require.NoError(t, err)
	return booking
}

func (f *fixture) pay(t *testing.T, caller models.Identity, bookingID int64, amount string) *models.InitiatePaymentResponse {
	t.Helper()
	resp, err := f.paymentSvc.InitiatePayment(ctxBG(), caller, models.InitiatePaymentRequest{
		BookingID: bookingID,
		Amount:    decimal.RequireFromString(amount),
	}, models.RequestMeta{IPAddress: "203.0.113.7", UserAgent: "test"})
	require.NoError(t, err)
	return resp
}

func (f *fixture) setBookingStatus(id int64, status models.BookingStatus) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	f.st.bookings[id].Status = status
}

func (f *fixture) agePayment(id int64, age time.Duration) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	f.st.payments[id].CreatedAt = time.Now().Add(-age)
}

func webhookBody(t *testing.T, event, reference string, amountMinor int64) []byte {
	t.Helper()
	status := "success"
	if event == paystack.EventChargeFailed {
		status = "failed"
	}
	body, err := json.Marshal(map[string]interface{}{
		"event": event,
		"data": map[string]interface{}{
			"reference": reference,
			"status":    status,
			"amount":    amountMinor,
			"currency":  "USD",
		},
	})
	require.NoError(t, err)
	return body
}

func (f *fixture) deliver(t *testing.T, body []byte) (*ReconcileResult, error) {
	t.Helper()
	return f.paymentSvc.HandleWebhook(ctxBG(), body, paystack.Sign(body, testWebhookSecret), models.RequestMeta{IPAddress: "52.31.139.75"})
}

func requireKind(t *testing.T, err error, kind ErrorKind, code string) {
	t.Helper()
	require.Error(t, err)
	svcErr := AsError(err)
	require.Equal(t, kind, svcErr.Kind, "unexpected error: %v", err)
	if code != "" {
		require.Equal(t, code, svcErr.Code)
	}
}
