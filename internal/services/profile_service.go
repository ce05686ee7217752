package services

import (
	"context"
	"errors"

	"github.com/safarihub/booking-backend/internal/database"
	"github.com/safarihub/booking-backend/internal/models"
	"github.com/sirupsen/logrus"
)

// ProfileService manages traveler and guide profiles
type ProfileService struct {
	profiles ProfileStore
	logger   *logrus.Logger
}

// NewProfileService creates a new profile service
func NewProfileService(profiles ProfileStore, logger *logrus.Logger) *ProfileService {
	return &ProfileService{profiles: profiles, logger: logger}
}

// GetTraveler returns a traveler profile to its owner or an admin
func (s *ProfileService) GetTraveler(ctx context.Context, caller models.Identity, id int64) (*models.TravelerDetail, error) {
	traveler, err := s.profiles.GetTraveler(ctx, id)
	if err != nil {
		return nil, profileError(err, "Traveler")
	}
	if !caller.IsAdmin() && !caller.IsTraveler(id) {
		return nil, ForbiddenError("Access denied")
	}
	return traveler, nil
}

// UpdateTraveler changes a traveler profile for its owner or an admin
func (s *ProfileService) UpdateTraveler(ctx context.Context, caller models.Identity, id int64, req models.UpdateTravelerRequest) (*models.Traveler, error) {
	if err := req.Validate(); err != nil {
		return nil, ValidationError(err.Error())
	}
	if _, err := s.GetTraveler(ctx, caller, id); err != nil {
		return nil, err
	}

	traveler, err := s.profiles.UpdateTraveler(ctx, id, req)
	if err != nil {
		return nil, profileError(err, "Traveler")
	}

	s.logger.WithFields(logrus.Fields{
		"traveler_id": id,
		"user_id":     caller.UserID,
	}).Info("Traveler profile updated")
	return traveler, nil
}

// ListGuides returns one page of the public guide directory
func (s *ProfileService) ListGuides(ctx context.Context, filter models.GuideFilter) (*models.GuidePage, error) {
	guides, total, err := s.profiles.ListGuides(ctx, filter)
	if err != nil {
		return nil, InternalError(err)
	}
	return &models.GuidePage{
		Guides:     guides,
		Pagination: models.NewPageInfo(filter.Page, total),
	}, nil
}

// GetGuide returns the public view of an active guide
func (s *ProfileService) GetGuide(ctx context.Context, id int64) (*models.GuideDetail, error) {
	guide, err := s.profiles.GetGuide(ctx, id)
	if err != nil {
		return nil, profileError(err, "Guide")
	}
	return guide, nil
}

// UpdateGuide changes a guide profile for its owner or an admin
func (s *ProfileService) UpdateGuide(ctx context.Context, caller models.Identity, id int64, req models.UpdateGuideRequest) (*models.Guide, error) {
	if err := req.Validate(); err != nil {
		return nil, ValidationError(err.Error())
	}
	if !caller.IsAdmin() && !caller.IsGuide(&id) {
		return nil, ForbiddenError("Access denied")
	}

	guide, err := s.profiles.UpdateGuide(ctx, id, req)
	if err != nil {
		return nil, profileError(err, "Guide")
	}

	s.logger.WithFields(logrus.Fields{
		"guide_id": id,
		"user_id":  caller.UserID,
	}).Info("Guide profile updated")
	return guide, nil
}

func profileError(err error, entity string) error {
	if errors.Is(err, database.ErrNotFound) {
		return NotFoundError(entity)
	}
	return InternalError(err)
}
