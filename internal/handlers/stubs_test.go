package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/safarihub/booking-backend/internal/middleware"
	"github.com/safarihub/booking-backend/internal/models"
	"github.com/safarihub/booking-backend/internal/services"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

var (
	traveler = models.Identity{UserID: 1, Email: "amina@example.com", Role: models.RoleTraveler, ProfileID: 11}
	guide    = models.Identity{UserID: 3, Email: "juma@example.com", Role: models.RoleGuide, ProfileID: 101}
	admin    = models.Identity{UserID: 5, Email: "admin@example.com", Role: models.RoleAdmin, ProfileID: 1}
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// newRouter builds a test engine; a non-nil caller is injected as if authenticated
func newRouter(caller *models.Identity) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	if caller != nil {
		identity := *caller
		router.Use(func(c *gin.Context) {
			c.Set(middleware.IdentityContextKey, identity)
			c.Next()
		})
	}
	return router
}

func doJSON(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	case []byte:
		reader = bytes.NewReader(b)
	default:
		raw, _ := json.Marshal(b)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func decodeMap(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

type stubAuth struct {
	register func(models.RegisterRequest) (*services.AuthResponse, error)
	login    func(models.LoginRequest) (*services.AuthResponse, error)
	me       func(models.Identity) (*services.MeResponse, error)
}

func (s *stubAuth) Register(_ context.Context, req models.RegisterRequest) (*services.AuthResponse, error) {
	return s.register(req)
}

func (s *stubAuth) Login(_ context.Context, req models.LoginRequest) (*services.AuthResponse, error) {
	return s.login(req)
}

func (s *stubAuth) Me(_ context.Context, caller models.Identity) (*services.MeResponse, error) {
	return s.me(caller)
}

type stubBookings struct {
	lastCaller models.Identity
	lastFilter models.BookingFilter
	lastID     int64
	err        error
	booking    *models.Booking
}

func (s *stubBookings) CreateBooking(_ context.Context, caller models.Identity, _ models.CreateBookingRequest) (*models.Booking, error) {
	s.lastCaller = caller
	return s.booking, s.err
}

func (s *stubBookings) ListBookings(_ context.Context, caller models.Identity, filter models.BookingFilter) (*models.BookingPage, error) {
	s.lastCaller, s.lastFilter = caller, filter
	if s.err != nil {
		return nil, s.err
	}
	return &models.BookingPage{Bookings: []models.BookingDetail{}, Pagination: models.NewPageInfo(filter.Page, 0)}, nil
}

func (s *stubBookings) GetBooking(_ context.Context, caller models.Identity, id int64) (*models.BookingDetail, error) {
	s.lastCaller, s.lastID = caller, id
	if s.err != nil {
		return nil, s.err
	}
	return &models.BookingDetail{Booking: *s.booking}, nil
}

func (s *stubBookings) UpdateBooking(_ context.Context, caller models.Identity, id int64, _ models.UpdateBookingRequest) (*models.Booking, error) {
	s.lastCaller, s.lastID = caller, id
	return s.booking, s.err
}

func (s *stubBookings) DeleteBooking(_ context.Context, caller models.Identity, id int64) error {
	s.lastCaller, s.lastID = caller, id
	return s.err
}

type stubPayments struct {
	err          error
	result       *services.ReconcileResult
	initiated    *models.InitiatePaymentResponse
	verified     *models.VerifyPaymentResponse
	lastBody     []byte
	lastSig      string
	lastRef      string
	lastFilter   models.PaymentFilter
	lastMeta     models.RequestMeta
	lastAuditsID int64
}

func (s *stubPayments) InitiatePayment(_ context.Context, _ models.Identity, _ models.InitiatePaymentRequest, meta models.RequestMeta) (*models.InitiatePaymentResponse, error) {
	s.lastMeta = meta
	return s.initiated, s.err
}

func (s *stubPayments) ListPayments(_ context.Context, _ models.Identity, filter models.PaymentFilter) (*models.PaymentPage, error) {
	s.lastFilter = filter
	if s.err != nil {
		return nil, s.err
	}
	return &models.PaymentPage{Payments: []models.PaymentDetail{}, Pagination: models.NewPageInfo(filter.Page, 0)}, nil
}

func (s *stubPayments) GetPayment(_ context.Context, _ models.Identity, id int64) (*models.PaymentDetail, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.PaymentDetail{Payment: models.Payment{ID: id}}, nil
}

func (s *stubPayments) RefundPayment(_ context.Context, _ models.Identity, _ int64, _ models.RequestMeta) (*services.ReconcileResult, error) {
	return s.result, s.err
}

func (s *stubPayments) VerifyPayment(_ context.Context, reference string, _ models.RequestMeta) (*models.VerifyPaymentResponse, error) {
	s.lastRef = reference
	return s.verified, s.err
}

func (s *stubPayments) HandleWebhook(_ context.Context, rawBody []byte, signature string, meta models.RequestMeta) (*services.ReconcileResult, error) {
	s.lastBody, s.lastSig, s.lastMeta = rawBody, signature, meta
	return s.result, s.err
}

func (s *stubPayments) ListAudits(_ context.Context, paymentID int64) ([]models.PaymentAudit, error) {
	s.lastAuditsID = paymentID
	if s.err != nil {
		return nil, s.err
	}
	return []models.PaymentAudit{{EventType: models.PaymentEventWebhookReceived}}, nil
}

type stubDestinations struct {
	err        error
	lastFilter models.DestinationFilter
	lastID     int64
	created    models.CreateDestinationRequest
}

func (s *stubDestinations) ListDestinations(_ context.Context, filter models.DestinationFilter) (*models.DestinationPage, error) {
	s.lastFilter = filter
	if s.err != nil {
		return nil, s.err
	}
	return &models.DestinationPage{Destinations: []models.Destination{}, Pagination: models.NewPageInfo(filter.Page, 0)}, nil
}

func (s *stubDestinations) GetDestination(_ context.Context, id int64) (*models.Destination, error) {
	s.lastID = id
	if s.err != nil {
		return nil, s.err
	}
	return &models.Destination{ID: id, Name: "Serengeti"}, nil
}

func (s *stubDestinations) CreateDestination(_ context.Context, req models.CreateDestinationRequest) (*models.Destination, error) {
	s.created = req
	if s.err != nil {
		return nil, s.err
	}
	return &models.Destination{ID: 7, Name: req.Name, Country: req.Country, Price: req.Price, Category: req.Category}, nil
}

func (s *stubDestinations) UpdateDestination(_ context.Context, id int64, _ models.UpdateDestinationRequest) (*models.Destination, error) {
	s.lastID = id
	if s.err != nil {
		return nil, s.err
	}
	return &models.Destination{ID: id}, nil
}

func (s *stubDestinations) DeleteDestination(_ context.Context, id int64) error {
	s.lastID = id
	return s.err
}

type stubAdmin struct {
	err        error
	lastFilter models.UserFilter
	lastCaller models.Identity
	lastReq    models.UpdateUserRequest
}

func (s *stubAdmin) Dashboard(_ context.Context) (*models.DashboardStats, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.DashboardStats{TotalUsers: 3}, nil
}

func (s *stubAdmin) ListUsers(_ context.Context, filter models.UserFilter) (*models.UserPage, error) {
	s.lastFilter = filter
	if s.err != nil {
		return nil, s.err
	}
	return &models.UserPage{Users: []models.User{}, Pagination: models.NewPageInfo(filter.Page, 0)}, nil
}

func (s *stubAdmin) UpdateUser(_ context.Context, caller models.Identity, id int64, req models.UpdateUserRequest) (*models.User, error) {
	s.lastCaller, s.lastReq = caller, req
	if s.err != nil {
		return nil, s.err
	}
	user := &models.User{ID: id, Role: models.RoleGuide, IsActive: true}
	if req.Role != nil {
		user.Role = *req.Role
	}
	return user, nil
}

type stubProfiles struct {
	err           error
	lastCaller    models.Identity
	lastID        int64
	lastFilter    models.GuideFilter
	travelerPatch models.UpdateTravelerRequest
	guidePut      models.UpdateGuideRequest
}

func (s *stubProfiles) GetTraveler(_ context.Context, caller models.Identity, id int64) (*models.TravelerDetail, error) {
	s.lastCaller, s.lastID = caller, id
	if s.err != nil {
		return nil, s.err
	}
	return &models.TravelerDetail{Traveler: models.Traveler{ID: id, UserID: caller.UserID}, FullName: "Amina", UpcomingBookings: 1}, nil
}

func (s *stubProfiles) UpdateTraveler(_ context.Context, caller models.Identity, id int64, req models.UpdateTravelerRequest) (*models.Traveler, error) {
	s.lastCaller, s.lastID, s.travelerPatch = caller, id, req
	if s.err != nil {
		return nil, s.err
	}
	return &models.Traveler{ID: id, Nationality: req.Nationality, Preferences: req.Preferences}, nil
}

func (s *stubProfiles) ListGuides(_ context.Context, filter models.GuideFilter) (*models.GuidePage, error) {
	s.lastFilter = filter
	if s.err != nil {
		return nil, s.err
	}
	guides := []models.GuideListItem{{Guide: models.Guide{ID: 101, UserID: 3}, FullName: "Juma"}}
	return &models.GuidePage{Guides: guides, Pagination: models.NewPageInfo(filter.Page, len(guides))}, nil
}

func (s *stubProfiles) GetGuide(_ context.Context, id int64) (*models.GuideDetail, error) {
	s.lastID = id
	if s.err != nil {
		return nil, s.err
	}
	return &models.GuideDetail{GuideListItem: models.GuideListItem{Guide: models.Guide{ID: id}, FullName: "Juma"}, CompletedBookings: 4}, nil
}

func (s *stubProfiles) UpdateGuide(_ context.Context, caller models.Identity, id int64, req models.UpdateGuideRequest) (*models.Guide, error) {
	s.lastCaller, s.lastID, s.guidePut = caller, id, req
	if s.err != nil {
		return nil, s.err
	}
	return &models.Guide{ID: id, ExperienceYears: req.ExperienceYears, Languages: req.Languages, Bio: req.Bio}, nil
}
