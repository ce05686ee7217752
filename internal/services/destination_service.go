package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/safarihub/booking-backend/internal/database"
	"github.com/safarihub/booking-backend/internal/models"
	"github.com/sirupsen/logrus"
)

// DestinationCache caches catalogue pages; implementations must never fail the caller
type DestinationCache interface {
	Get(ctx context.Context, filter models.DestinationFilter) (*models.DestinationPage, bool)
	Set(ctx context.Context, filter models.DestinationFilter, page *models.DestinationPage)
	Invalidate(ctx context.Context)
}

// DestinationService manages the destination catalogue
type DestinationService struct {
	destinations DestinationStore
	users        UserStore
	cache        DestinationCache
	logger       *logrus.Logger
}

// NewDestinationService creates a new destination service. cache may be nil.
func NewDestinationService(destinations DestinationStore, users UserStore, cache DestinationCache, logger *logrus.Logger) *DestinationService {
	return &DestinationService{
		destinations: destinations,
		users:        users,
		cache:        cache,
		logger:       logger,
	}
}

// ListDestinations returns one page of the catalogue
func (s *DestinationService) ListDestinations(ctx context.Context, filter models.DestinationFilter) (*models.DestinationPage, error) {
	if filter.Category != "" && !filter.Category.IsValid() {
		return nil, ValidationError("category must be 'popular' or 'international'")
	}
	if filter.MinPrice != nil && filter.MaxPrice != nil && filter.MinPrice.GreaterThan(*filter.MaxPrice) {
		return nil, ValidationError("min_price cannot exceed max_price")
	}

	if s.cache != nil {
		if page, ok := s.cache.Get(ctx, filter); ok {
			return page, nil
		}
	}

	destinations, total, err := s.destinations.List(ctx, filter)
	if err != nil {
		return nil, InternalError(err)
	}
	page := &models.DestinationPage{
		Destinations: destinations,
		Pagination:   models.NewPageInfo(filter.Page, total),
	}

	if s.cache != nil {
		s.cache.Set(ctx, filter, page)
	}
	return page, nil
}

// GetDestination returns one destination
func (s *DestinationService) GetDestination(ctx context.Context, id int64) (*models.Destination, error) {
	d, err := s.destinations.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, NotFoundError("Destination")
		}
		return nil, InternalError(err)
	}
	return d, nil
}

// CreateDestination adds a destination to the catalogue
func (s *DestinationService) CreateDestination(ctx context.Context, req models.CreateDestinationRequest) (*models.Destination, error) {
	if err := req.Validate(); err != nil {
		return nil, ValidationError(err.Error())
	}
	if err := s.checkGuide(ctx, req.GuideID); err != nil {
		return nil, err
	}

	d := req.ToDestination()
	if err := s.destinations.Create(ctx, d); err != nil {
		return nil, destinationWriteError(err, d.Name)
	}

	s.invalidate(ctx)
	s.logger.WithFields(logrus.Fields{
		"destination_id": d.ID,
		"name":           d.Name,
	}).Info("Destination created")
	return d, nil
}

// UpdateDestination applies a partial update to a destination
func (s *DestinationService) UpdateDestination(ctx context.Context, id int64, req models.UpdateDestinationRequest) (*models.Destination, error) {
	d, err := s.GetDestination(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := req.Apply(d); err != nil {
		return nil, ValidationError(err.Error())
	}
	if err := s.checkGuide(ctx, req.GuideID); err != nil {
		return nil, err
	}

	if err := s.destinations.Update(ctx, d); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, NotFoundError("Destination")
		}
		return nil, destinationWriteError(err, d.Name)
	}

	s.invalidate(ctx)
	return d, nil
}

// DeleteDestination removes a destination no booking references
func (s *DestinationService) DeleteDestination(ctx context.Context, id int64) error {
	if err := s.destinations.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, database.ErrNotFound):
			return NotFoundError("Destination")
		case errors.Is(err, database.ErrReferenced):
			return ConflictError(CodeStillReferenced, "Destination is referenced by existing bookings")
		}
		return InternalError(err)
	}

	s.invalidate(ctx)
	s.logger.WithField("destination_id", id).Info("Destination deleted")
	return nil
}

func (s *DestinationService) checkGuide(ctx context.Context, guideID *int64) error {
	if guideID == nil {
		return nil
	}
	ok, err := s.users.GuideExists(ctx, *guideID)
	if err != nil {
		return InternalError(err)
	}
	if !ok {
		return NotFoundError("Guide")
	}
	return nil
}

func (s *DestinationService) invalidate(ctx context.Context) {
	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}
}

func destinationWriteError(err error, name string) error {
	if errors.Is(err, database.ErrDuplicate) {
		return ConflictError(CodeNameTaken, fmt.Sprintf("Destination %q already exists", name))
	}
	return InternalError(err)
}
