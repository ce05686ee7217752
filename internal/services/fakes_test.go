package services

import (
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/safarihub/booking-backend/internal/database"
	"github.com/safarihub/booking-backend/internal/models"
	"github.com/safarihub/booking-backend/pkg/paystack"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// memState is shared by the booking and payment fakes. One mutex stands in for
// the row and advisory locks the Postgres repositories take.
type memState struct {
	mu       sync.Mutex
	nextID   int64
	bookings map[int64]*models.Booking
	payments map[int64]*models.Payment
}

func newMemState() *memState {
	return &memState{
		bookings: map[int64]*models.Booking{},
		payments: map[int64]*models.Payment{},
	}
}

func (s *memState) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *memState) booking(id int64) models.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.bookings[id]
}

func (s *memState) payment(id int64) models.Payment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.payments[id]
}

func (s *memState) completedCount(bookingID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, p := range s.payments {
		if p.BookingID == bookingID && p.Status == models.PaymentStatusCompleted {
			n++
		}
	}
	return n
}

type fakeBookings struct {
	st *memState
}

func (f *fakeBookings) CreateIfGuideFree(ctx context.Context, b *models.Booking) error {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	for _, existing := range f.st.bookings {
		if existing.GuideID != nil && b.GuideID != nil && *existing.GuideID == *b.GuideID &&
			existing.Date.Equal(b.Date.Time) && existing.Status.IsActive() {
			return database.ErrGuideUnavailable
		}
	}
	b.ID = f.st.id()
	b.CreatedAt = time.Now()
	b.UpdatedAt = b.CreatedAt
	stored := *b
	f.st.bookings[b.ID] = &stored
	return nil
}

func (f *fakeBookings) GetByID(ctx context.Context, id int64) (*models.BookingDetail, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	b, ok := f.st.bookings[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	return &models.BookingDetail{Booking: *b}, nil
}

func (f *fakeBookings) List(ctx context.Context, filter models.BookingFilter) ([]models.BookingDetail, int, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	var out []models.BookingDetail
	for _, b := range f.st.bookings {
		if filter.TravelerID != nil && b.TravelerID != *filter.TravelerID {
			continue
		}
		if filter.GuideID != nil && (b.GuideID == nil || *b.GuideID != *filter.GuideID) {
			continue
		}
		if filter.Status != "" && b.Status != filter.Status {
			continue
		}
		out = append(out, models.BookingDetail{Booking: *b})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, len(out), nil
}

func (f *fakeBookings) UpdateLocked(ctx context.Context, id int64, fn func(b *models.Booking) error) (*models.Booking, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	stored, ok := f.st.bookings[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	working := *stored
	if err := fn(&working); err != nil {
		return nil, err
	}
	*stored = working
	return &working, nil
}

func (f *fakeBookings) DeleteLocked(ctx context.Context, id int64, fn func(b *models.Booking, hasPayments bool) error) (*models.Booking, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	stored, ok := f.st.bookings[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	hasPayments := false
	for _, p := range f.st.payments {
		if p.BookingID == id {
			hasPayments = true
		}
	}
	deleted := *stored
	if err := fn(&deleted, hasPayments); err != nil {
		return nil, err
	}
	delete(f.st.bookings, id)
	return &deleted, nil
}

type fakePayments struct {
	st *memState
}

func (f *fakePayments) Create(ctx context.Context, p *models.Payment) error {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	for _, existing := range f.st.payments {
		if existing.TransactionID == p.TransactionID {
			return database.ErrDuplicate
		}
	}
	p.ID = f.st.id()
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	stored := *p
	f.st.payments[p.ID] = &stored
	return nil
}

func (f *fakePayments) HasCompleted(ctx context.Context, bookingID int64) (bool, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	for _, p := range f.st.payments {
		if p.BookingID == bookingID && p.Status == models.PaymentStatusCompleted {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakePayments) AttachGatewayReference(ctx context.Context, id int64, reference, accessCode string) error {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	p, ok := f.st.payments[id]
	if !ok {
		return database.ErrNotFound
	}
	p.TransactionID = reference
	p.AccessCode = &accessCode
	return nil
}

func (f *fakePayments) MarkFailed(ctx context.Context, id int64, reason string) error {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	p, ok := f.st.payments[id]
	if !ok || !p.Status.IsOpen() {
		return database.ErrNotFound
	}
	p.Status = models.PaymentStatusFailed
	p.FailureReason = &reason
	return nil
}

func (f *fakePayments) GetByID(ctx context.Context, id int64) (*models.PaymentDetail, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	p, ok := f.st.payments[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	detail := &models.PaymentDetail{Payment: *p}
	if b, ok := f.st.bookings[p.BookingID]; ok {
		detail.TravelerID = b.TravelerID
		detail.GuideID = b.GuideID
	}
	return detail, nil
}

func (f *fakePayments) GetByReference(ctx context.Context, reference string) (*models.Payment, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	for _, p := range f.st.payments {
		if p.TransactionID == reference {
			found := *p
			return &found, nil
		}
	}
	return nil, database.ErrNotFound
}

func (f *fakePayments) List(ctx context.Context, filter models.PaymentFilter) ([]models.PaymentDetail, int, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	var out []models.PaymentDetail
	for _, p := range f.st.payments {
		b := f.st.bookings[p.BookingID]
		if filter.TravelerID != nil && (b == nil || b.TravelerID != *filter.TravelerID) {
			continue
		}
		if filter.GuideID != nil && (b == nil || b.GuideID == nil || *b.GuideID != *filter.GuideID) {
			continue
		}
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		detail := models.PaymentDetail{Payment: *p}
		if b != nil {
			detail.TravelerID = b.TravelerID
			detail.GuideID = b.GuideID
		}
		out = append(out, detail)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, len(out), nil
}

func (f *fakePayments) ListStale(ctx context.Context, cutoff time.Time, limit int) ([]models.Payment, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	var out []models.Payment
	for _, p := range f.st.payments {
		if p.Status.IsOpen() && p.CreatedAt.Before(cutoff) {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakePayments) UpdateLockedByReference(ctx context.Context, reference string, fn func(lock *database.PaymentLock) error) (*database.PaymentLock, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	for id, p := range f.st.payments {
		if p.TransactionID == reference {
			return f.updateLocked(id, fn)
		}
	}
	return nil, database.ErrNotFound
}

func (f *fakePayments) UpdateLockedByID(ctx context.Context, id int64, fn func(lock *database.PaymentLock) error) (*database.PaymentLock, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	return f.updateLocked(id, fn)
}

// updateLocked must be called with st.mu held
func (f *fakePayments) updateLocked(id int64, fn func(lock *database.PaymentLock) error) (*database.PaymentLock, error) {
	p, ok := f.st.payments[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	b, ok := f.st.bookings[p.BookingID]
	if !ok {
		return nil, database.ErrNotFound
	}

	lock := &database.PaymentLock{Payment: *p, Booking: *b}
	for otherID, other := range f.st.payments {
		if otherID != id && other.BookingID == p.BookingID && other.Status == models.PaymentStatusCompleted {
			lock.OtherCompleted = true
		}
	}
	if err := fn(lock); err != nil {
		return nil, err
	}
	if lock.Payment.Status == models.PaymentStatusCompleted && lock.OtherCompleted {
		return nil, database.ErrDuplicate
	}
	*p = lock.Payment
	*b = lock.Booking
	return lock, nil
}

type fakeUsers struct {
	mu     sync.Mutex
	users  map[int64]*models.User
	guides map[int64]bool
	nextID int64
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{users: map[int64]*models.User{}, guides: map[int64]bool{}}
}

func (f *fakeUsers) CreateWithProfile(ctx context.Context, user *models.User) (*models.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == user.Email {
			return nil, database.ErrDuplicate
		}
	}
	f.nextID++
	user.ID = f.nextID
	user.IsActive = true
	stored := *user
	f.users[user.ID] = &stored
	return &models.Identity{UserID: user.ID, Email: user.Email, Role: user.Role, ProfileID: user.ID}, nil
}

func (f *fakeUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == strings.ToLower(email) {
			found := *u
			return &found, nil
		}
	}
	return nil, database.ErrNotFound
}

func (f *fakeUsers) GetByID(ctx context.Context, id int64) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	found := *u
	return &found, nil
}

func (f *fakeUsers) ResolveIdentity(ctx context.Context, userID int64) (*models.Identity, error) {
	u, err := f.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !u.IsActive {
		return nil, database.ErrUserInactive
	}
	return &models.Identity{UserID: u.ID, Email: u.Email, FullName: u.FullName, Role: u.Role, ProfileID: u.ID}, nil
}

func (f *fakeUsers) GetProfile(ctx context.Context, identity models.Identity) (interface{}, error) {
	return map[string]interface{}{"id": identity.ProfileID}, nil
}

func (f *fakeUsers) GuideExists(ctx context.Context, guideID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.guides[guideID], nil
}

func (f *fakeUsers) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.User
	for _, u := range f.users {
		if filter.Role == "" || u.Role == filter.Role {
			out = append(out, *u)
		}
	}
	return out, len(out), nil
}

func (f *fakeUsers) Update(ctx context.Context, id int64, req models.UpdateUserRequest) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	if req.Role != nil {
		u.Role = *req.Role
	}
	if req.IsActive != nil {
		u.IsActive = *req.IsActive
	}
	updated := *u
	return &updated, nil
}

type fakeDestinations struct {
	mu     sync.Mutex
	items  map[int64]*models.Destination
	nextID int64
	// referenced ids cannot be deleted
	referenced map[int64]bool
}

func newFakeDestinations() *fakeDestinations {
	return &fakeDestinations{items: map[int64]*models.Destination{}, referenced: map[int64]bool{}}
}

func (f *fakeDestinations) Create(ctx context.Context, d *models.Destination) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.items {
		if strings.EqualFold(existing.Name, d.Name) {
			return database.ErrDuplicate
		}
	}
	f.nextID++
	d.ID = f.nextID
	stored := *d
	f.items[d.ID] = &stored
	return nil
}

func (f *fakeDestinations) GetByID(ctx context.Context, id int64) (*models.Destination, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.items[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	found := *d
	return &found, nil
}

func (f *fakeDestinations) Exists(ctx context.Context, id int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.items[id]
	return ok, nil
}

func (f *fakeDestinations) List(ctx context.Context, filter models.DestinationFilter) ([]models.Destination, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Destination
	for _, d := range f.items {
		if filter.Category != "" && d.Category != filter.Category {
			continue
		}
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, len(out), nil
}

func (f *fakeDestinations) Update(ctx context.Context, d *models.Destination) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[d.ID]; !ok {
		return database.ErrNotFound
	}
	for id, existing := range f.items {
		if id != d.ID && strings.EqualFold(existing.Name, d.Name) {
			return database.ErrDuplicate
		}
	}
	stored := *d
	f.items[d.ID] = &stored
	return nil
}

func (f *fakeDestinations) Delete(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[id]; !ok {
		return database.ErrNotFound
	}
	if f.referenced[id] {
		return database.ErrReferenced
	}
	delete(f.items, id)
	return nil
}

type fakeAudits struct {
	mu      sync.Mutex
	entries []models.PaymentAudit
}

func (f *fakeAudits) Log(ctx context.Context, audit *models.PaymentAudit) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, *audit)
	return nil
}

func (f *fakeAudits) ListByPayment(ctx context.Context, paymentID int64) ([]models.PaymentAudit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.PaymentAudit
	for _, a := range f.entries {
		if a.PaymentID != nil && *a.PaymentID == paymentID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAudits) count(eventType models.PaymentEventType) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, a := range f.entries {
		if a.EventType == eventType {
			n++
		}
	}
	return n
}

type fakeGateway struct {
	mu          sync.Mutex
	initErr     error
	verifyErr   error
	hang        bool
	canonical   string
	verify      map[string]*paystack.VerifyResult
	initialized []paystack.InitializeRequest
	verified    []string
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{verify: map[string]*paystack.VerifyResult{}}
}

func (g *fakeGateway) Initialize(ctx context.Context, req paystack.InitializeRequest) (*paystack.InitializeResult, error) {
	g.mu.Lock()
	g.initialized = append(g.initialized, req)
	hang, initErr, reference := g.hang, g.initErr, req.Reference
	if g.canonical != "" {
		reference = g.canonical
	}
	g.mu.Unlock()

	if hang {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if initErr != nil {
		return nil, initErr
	}
	return &paystack.InitializeResult{
		AuthorizationURL: "https://checkout.paystack.com/" + reference,
		AccessCode:       "ac_" + reference,
		Reference:        reference,
		RawPayload:       map[string]interface{}{"reference": reference},
	}, nil
}

func (g *fakeGateway) Verify(ctx context.Context, reference string) (*paystack.VerifyResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.verified = append(g.verified, reference)
	if g.verifyErr != nil {
		return nil, g.verifyErr
	}
	result, ok := g.verify[reference]
	if !ok {
		return nil, &paystack.APIError{StatusCode: 404, Message: "Transaction reference not found"}
	}
	return result, nil
}

func (g *fakeGateway) Currency() string { return "USD" }

func (g *fakeGateway) settle(reference, gatewayStatus string, amount decimal.Decimal) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.verify[reference] = &paystack.VerifyResult{
		Reference:     reference,
		Status:        paystack.NormalizeStatus(gatewayStatus),
		GatewayStatus: gatewayStatus,
		Amount:        amount,
		Currency:      "USD",
		RawPayload:    map[string]interface{}{"status": gatewayStatus},
	}
}

type recordingPublisher struct {
	mu   sync.Mutex
	keys []string
	err  error
}

func (p *recordingPublisher) Publish(ctx context.Context, routingKey string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = append(p.keys, routingKey)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) count(routingKey string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, k := range p.keys {
		if k == routingKey {
			n++
		}
	}
	return n
}

var errBoom = errors.New("boom")
