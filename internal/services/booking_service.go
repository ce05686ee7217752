package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/safarihub/booking-backend/internal/database"
	"github.com/safarihub/booking-backend/internal/models"
	"github.com/safarihub/booking-backend/pkg/events"
	"github.com/sirupsen/logrus"
)

// BookingService owns the booking state machine
type BookingService struct {
	bookings     BookingStore
	users        UserStore
	destinations DestinationStore
	publisher    events.Publisher
	logger       *logrus.Logger
}

// NewBookingService creates a new booking service
func NewBookingService(
	bookings BookingStore,
	users UserStore,
	destinations DestinationStore,
	publisher events.Publisher,
	logger *logrus.Logger,
) *BookingService {
	return &BookingService{
		bookings:     bookings,
		users:        users,
		destinations: destinations,
		publisher:    publisher,
		logger:       logger,
	}
}

// CreateBooking reserves a guide and destination on a date for the calling traveler
func (s *BookingService) CreateBooking(ctx context.Context, caller models.Identity, req models.CreateBookingRequest) (*models.Booking, error) {
	if caller.Role != models.RoleTraveler {
		return nil, ForbiddenError("Only travelers can create bookings")
	}

	date, err := models.ParseDate(req.Date)
	if err != nil {
		return nil, ValidationError(err.Error())
	}
	if req.GuideID <= 0 || req.DestinationID <= 0 {
		return nil, ValidationError("guide_id and destination_id are required")
	}

	guideExists, err := s.users.GuideExists(ctx, req.GuideID)
	if err != nil {
		return nil, InternalError(err)
	}
	if !guideExists {
		return nil, NotFoundError("Guide")
	}

	destinationExists, err := s.destinations.Exists(ctx, req.DestinationID)
	if err != nil {
		return nil, InternalError(err)
	}
	if !destinationExists {
		return nil, NotFoundError("Destination")
	}

	guideID, destinationID := req.GuideID, req.DestinationID
	booking := &models.Booking{
		TravelerID:      caller.ProfileID,
		GuideID:         &guideID,
		DestinationID:   &destinationID,
		Date:            date,
		Status:          models.BookingStatusPending,
		SpecialRequests: req.SpecialRequests,
	}

	if err := s.bookings.CreateIfGuideFree(ctx, booking); err != nil {
		if errors.Is(err, database.ErrGuideUnavailable) {
			return nil, ConflictError(CodeGuideUnavailable, "Guide is already booked for this date")
		}
		return nil, InternalError(err)
	}

	s.logger.WithFields(logrus.Fields{
		"booking_id":  booking.ID,
		"traveler_id": booking.TravelerID,
		"guide_id":    guideID,
		"date":        booking.Date.String(),
	}).Info("Booking created")

	s.publish(ctx, events.BookingCreated, bookingEvent(booking, ""))
	return booking, nil
}

// ListBookings returns the bookings visible to the caller
func (s *BookingService) ListBookings(ctx context.Context, caller models.Identity, filter models.BookingFilter) (*models.BookingPage, error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, ValidationError(fmt.Sprintf("invalid status %q", filter.Status))
	}

	filter.TravelerID, filter.GuideID = nil, nil
	switch caller.Role {
	case models.RoleTraveler:
		filter.TravelerID = &caller.ProfileID
	case models.RoleGuide:
		filter.GuideID = &caller.ProfileID
	case models.RoleAdmin:
	default:
		return nil, ForbiddenError("Unknown role")
	}

	bookings, total, err := s.bookings.List(ctx, filter)
	if err != nil {
		return nil, InternalError(err)
	}

	return &models.BookingPage{
		Bookings:   bookings,
		Pagination: models.NewPageInfo(filter.Page, total),
	}, nil
}

// GetBooking returns one booking if the caller is a party to it or an admin
func (s *BookingService) GetBooking(ctx context.Context, caller models.Identity, id int64) (*models.BookingDetail, error) {
	booking, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, NotFoundError("Booking")
		}
		return nil, InternalError(err)
	}
	if !canSeeBooking(caller, &booking.Booking) {
		return nil, ForbiddenError("You do not have access to this booking")
	}
	return booking, nil
}

// UpdateBooking changes status and/or special requests under the booking row lock
func (s *BookingService) UpdateBooking(ctx context.Context, caller models.Identity, id int64, req models.UpdateBookingRequest) (*models.Booking, error) {
	if err := req.Validate(); err != nil {
		return nil, ValidationError(err.Error())
	}

	var previous models.BookingStatus
	booking, err := s.bookings.UpdateLocked(ctx, id, func(b *models.Booking) error {
		previous = b.Status
		return applyBookingUpdate(caller, b, req)
	})
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, NotFoundError("Booking")
		}
		return nil, AsError(err)
	}

	if booking.Status != previous {
		s.logger.WithFields(logrus.Fields{
			"booking_id": booking.ID,
			"from":       previous,
			"to":         booking.Status,
			"user_id":    caller.UserID,
		}).Info("Booking status changed")
		s.publish(ctx, events.BookingStatusChanged, bookingEvent(booking, previous))
	}
	return booking, nil
}

// DeleteBooking removes a pending booking that has never been paid for
func (s *BookingService) DeleteBooking(ctx context.Context, caller models.Identity, id int64) error {
	booking, err := s.bookings.DeleteLocked(ctx, id, func(b *models.Booking, hasPayments bool) error {
		if !caller.IsTraveler(b.TravelerID) {
			return ForbiddenError("Only the traveler who made the booking can delete it")
		}
		if b.Status != models.BookingStatusPending {
			return ConflictError(CodeBookingNotPending, "Only pending bookings can be deleted")
		}
		if hasPayments {
			return ConflictError(CodeBookingHasPayments, "Bookings with payment records cannot be deleted, cancel instead")
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return NotFoundError("Booking")
		}
		return AsError(err)
	}

	s.logger.WithField("booking_id", id).Info("Booking deleted")
	s.publish(ctx, events.BookingDeleted, bookingEvent(booking, ""))
	return nil
}

// applyBookingUpdate enforces who may change what on a locked booking
func applyBookingUpdate(caller models.Identity, b *models.Booking, req models.UpdateBookingRequest) error {
	isOwner := caller.IsTraveler(b.TravelerID)
	isGuide := caller.IsGuide(b.GuideID)
	isAdmin := caller.IsAdmin()
	if !isOwner && !isGuide && !isAdmin {
		return ForbiddenError("You do not have access to this booking")
	}

	if req.SpecialRequests != nil {
		if !isOwner && !isAdmin {
			return ForbiddenError("Only the traveler can edit special requests")
		}
		requests := *req.SpecialRequests
		b.SpecialRequests = &requests
	}

	if req.Status == nil {
		return nil
	}
	next := *req.Status

	if caller.Role == models.RoleTraveler && next != models.BookingStatusCancelled {
		return ForbiddenError("Travelers can only cancel bookings")
	}
	if next == b.Status {
		return nil
	}
	if b.Status.IsTerminal() {
		return ConflictError(CodeInvalidTransition, fmt.Sprintf("Booking is already %s", b.Status))
	}
	if !b.Status.CanTransitionTo(next) {
		return ConflictError(CodeInvalidTransition, fmt.Sprintf("Cannot change booking from %s to %s", b.Status, next))
	}

	b.Status = next
	return nil
}

func canSeeBooking(caller models.Identity, b *models.Booking) bool {
	return caller.IsAdmin() || caller.IsTraveler(b.TravelerID) || caller.IsGuide(b.GuideID)
}

func bookingEvent(b *models.Booking, previous models.BookingStatus) map[string]interface{} {
	payload := map[string]interface{}{
		"booking_id":  b.ID,
		"traveler_id": b.TravelerID,
		"guide_id":    b.GuideID,
		"date":        b.Date.String(),
		"status":      b.Status,
	}
	if previous != "" {
		payload["previous_status"] = previous
	}
	return payload
}

func (s *BookingService) publish(ctx context.Context, key string, payload interface{}) {
	publishEvent(ctx, s.publisher, s.logger, key, payload)
}

// publishEvent emits a domain event after commit; failures are logged only
func publishEvent(ctx context.Context, publisher events.Publisher, logger *logrus.Logger, key string, payload interface{}) {
	if publisher == nil {
		return
	}
	if err := publisher.Publish(ctx, key, payload); err != nil {
		logger.WithError(err).WithField("routing_key", key).Warn("Failed to publish event")
	}
}
