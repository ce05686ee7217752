package models

import (
	"errors"
	"strings"
	"time"
)

// Role is the single role a user account holds
type Role string

const (
	RoleTraveler Role = "traveler"
	RoleGuide    Role = "guide"
	RoleAdmin    Role = "admin"
)

// IsValid reports whether r is one of the known roles
func (r Role) IsValid() bool {
	switch r {
	case RoleTraveler, RoleGuide, RoleAdmin:
		return true
	}
	return false
}

// User represents an account in the system
type User struct {
	ID           int64     `json:"id" db:"id"`
	FullName     string    `json:"full_name" db:"full_name"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Role         Role      `json:"role" db:"role"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// Traveler is the traveler profile of a user
type Traveler struct {
	ID          int64   `json:"id" db:"id"`
	UserID      int64   `json:"user_id" db:"user_id"`
	Nationality *string `json:"nationality,omitempty" db:"nationality"`
	Preferences *string `json:"preferences,omitempty" db:"preferences"`
}

// Guide is the guide profile of a user
type Guide struct {
	ID              int64   `json:"id" db:"id"`
	UserID          int64   `json:"user_id" db:"user_id"`
	ExperienceYears *int    `json:"experience_years,omitempty" db:"experience_years"`
	Languages       *string `json:"languages,omitempty" db:"languages"`
	Bio             *string `json:"bio,omitempty" db:"bio"`
}

// GuideListItem is a guide joined with its account name for public listings
type GuideListItem struct {
	Guide
	FullName      string `json:"full_name" db:"full_name"`
	Email         string `json:"email" db:"email"`
	TotalBookings int    `json:"total_bookings" db:"total_bookings"`
}

// GuideDetail is the public view of one guide
type GuideDetail struct {
	GuideListItem
	CompletedBookings int `json:"completed_bookings" db:"completed_bookings"`
}

// TravelerDetail is a traveler profile with its account and booking counts
type TravelerDetail struct {
	Traveler
	FullName          string `json:"full_name" db:"full_name"`
	Email             string `json:"email" db:"email"`
	TotalBookings     int    `json:"total_bookings" db:"total_bookings"`
	CompletedBookings int    `json:"completed_bookings" db:"completed_bookings"`
	UpcomingBookings  int    `json:"upcoming_bookings" db:"upcoming_bookings"`
}

// GuideFilter narrows the public guide directory
type GuideFilter struct {
	Languages []string
	Search    string
	Page      Pagination
}

// GuidePage is one page of the guide directory
type GuidePage struct {
	Guides     []GuideListItem `json:"guides"`
	Pagination PageInfo        `json:"pagination"`
}

// UpdateTravelerRequest is the body of PATCH /travelers/:id
type UpdateTravelerRequest struct {
	Nationality *string `json:"nationality,omitempty"`
	Preferences *string `json:"preferences,omitempty"`
}

// Validate validates the traveler profile update
func (r *UpdateTravelerRequest) Validate() error {
	if r.Nationality == nil && r.Preferences == nil {
		return errors.New("nothing to update: provide nationality or preferences")
	}
	if r.Nationality != nil {
		trimmed := strings.TrimSpace(*r.Nationality)
		r.Nationality = &trimmed
	}
	return nil
}

// UpdateGuideRequest is the body of PUT /guides/:id
type UpdateGuideRequest struct {
	ExperienceYears *int    `json:"experience_years,omitempty"`
	Languages       *string `json:"languages,omitempty"`
	Bio             *string `json:"bio,omitempty"`
}

// Validate validates the guide profile update
func (r *UpdateGuideRequest) Validate() error {
	if r.ExperienceYears == nil && r.Languages == nil && r.Bio == nil {
		return errors.New("nothing to update: provide experience_years, languages or bio")
	}
	if r.ExperienceYears != nil && (*r.ExperienceYears < 0 || *r.ExperienceYears > 80) {
		return errors.New("experience_years must be between 0 and 80")
	}
	if r.Languages != nil {
		normalized := NormalizeLanguages(*r.Languages)
		if normalized == "" {
			return errors.New("languages cannot be empty")
		}
		r.Languages = &normalized
	}
	return nil
}

// NormalizeLanguages trims a comma-separated language list and drops empty entries
func NormalizeLanguages(value string) string {
	return strings.Join(SplitLanguages(value), ", ")
}

// SplitLanguages splits a comma-separated language list
func SplitLanguages(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// Admin is the admin profile of a user
type Admin struct {
	ID         int64  `json:"id" db:"id"`
	UserID     int64  `json:"user_id" db:"user_id"`
	Privileges string `json:"privileges" db:"privileges"`
}

// Identity is the authenticated caller. ProfileID is the id of the row in the
// profile table selected by Role (travelers, guides or admins).
type Identity struct {
	UserID    int64  `json:"user_id"`
	Email     string `json:"email"`
	FullName  string `json:"full_name"`
	Role      Role   `json:"role"`
	ProfileID int64  `json:"profile_id"`
}

// IsTraveler reports whether the caller acts as the traveler with the given profile id
func (i Identity) IsTraveler(travelerID int64) bool {
	return i.Role == RoleTraveler && i.ProfileID == travelerID
}

// IsGuide reports whether the caller acts as the guide with the given profile id
func (i Identity) IsGuide(guideID *int64) bool {
	return i.Role == RoleGuide && guideID != nil && i.ProfileID == *guideID
}

// IsAdmin reports whether the caller is an administrator
func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

// RegisterRequest is the body of POST /auth/register
type RegisterRequest struct {
	FullName string `json:"full_name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Role     Role   `json:"role" binding:"required"`
}

// Validate validates the registration request
func (r *RegisterRequest) Validate() error {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.FullName = strings.TrimSpace(r.FullName)
	r.Role = Role(strings.ToLower(string(r.Role)))

	if r.FullName == "" {
		return errors.New("full_name is required")
	}
	if r.Role != RoleTraveler && r.Role != RoleGuide {
		return errors.New("role must be 'traveler' or 'guide'")
	}
	return nil
}

// LoginRequest is the body of POST /auth/login
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// UpdateUserRequest is the body of PUT /admin/users/:id
type UpdateUserRequest struct {
	Role     *Role `json:"role,omitempty"`
	IsActive *bool `json:"is_active,omitempty"`
}

// UserFilter narrows admin user listings
type UserFilter struct {
	Role Role
	Page Pagination
}
