package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/safarihub/booking-backend/internal/database"
	"github.com/safarihub/booking-backend/internal/models"
	"github.com/sirupsen/logrus"
)

const recentBookingsLimit = 10

// AdminService serves the administrator views
type AdminService struct {
	users     UserStore
	dashboard DashboardStore
	logger    *logrus.Logger
}

// NewAdminService creates a new admin service
func NewAdminService(users UserStore, dashboard DashboardStore, logger *logrus.Logger) *AdminService {
	return &AdminService{
		users:     users,
		dashboard: dashboard,
		logger:    logger,
	}
}

// Dashboard returns platform statistics
func (s *AdminService) Dashboard(ctx context.Context) (*models.DashboardStats, error) {
	stats, err := s.dashboard.Stats(ctx)
	if err != nil {
		return nil, InternalError(err)
	}
	if len(stats.RecentBookings) > recentBookingsLimit {
		stats.RecentBookings = stats.RecentBookings[:recentBookingsLimit]
	}
	return stats, nil
}

// ListUsers returns one page of accounts
func (s *AdminService) ListUsers(ctx context.Context, filter models.UserFilter) (*models.UserPage, error) {
	if filter.Role != "" && !filter.Role.IsValid() {
		return nil, ValidationError(fmt.Sprintf("invalid role %q", filter.Role))
	}
	users, total, err := s.users.List(ctx, filter)
	if err != nil {
		return nil, InternalError(err)
	}
	return &models.UserPage{
		Users:      users,
		Pagination: models.NewPageInfo(filter.Page, total),
	}, nil
}

// UpdateUser changes an account's role or active flag. A role change moves the
// profile row to the new role's table.
func (s *AdminService) UpdateUser(ctx context.Context, caller models.Identity, id int64, req models.UpdateUserRequest) (*models.User, error) {
	if req.Role == nil && req.IsActive == nil {
		return nil, ValidationError("nothing to update: provide role or is_active")
	}
	if req.Role != nil && !req.Role.IsValid() {
		return nil, ValidationError(fmt.Sprintf("invalid role %q", *req.Role))
	}
	if id == caller.UserID {
		if req.Role != nil && *req.Role != models.RoleAdmin {
			return nil, ForbiddenError("admins cannot change their own role")
		}
		if req.IsActive != nil && !*req.IsActive {
			return nil, ForbiddenError("admins cannot deactivate themselves")
		}
	}

	user, err := s.users.Update(ctx, id, req)
	if err != nil {
		switch {
		case errors.Is(err, database.ErrNotFound):
			return nil, NotFoundError("User")
		case errors.Is(err, database.ErrReferenced):
			return nil, ConflictError(CodeStillReferenced, "User's current profile is referenced by bookings")
		}
		return nil, InternalError(err)
	}

	s.logger.WithFields(logrus.Fields{
		"user_id":   user.ID,
		"role":      user.Role,
		"is_active": user.IsActive,
		"admin_id":  caller.UserID,
	}).Info("User updated")
	return user, nil
}
