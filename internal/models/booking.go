package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// BookingStatus represents the lifecycle state of a booking
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCompleted BookingStatus = "completed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// bookingTransitions lists the forward moves allowed from each status
var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusPending:   {BookingStatusConfirmed, BookingStatusCancelled},
	BookingStatusConfirmed: {BookingStatusCompleted, BookingStatusCancelled},
	BookingStatusCompleted: {},
	BookingStatusCancelled: {},
}

// IsValid reports whether s is a known booking status
func (s BookingStatus) IsValid() bool {
	_, ok := bookingTransitions[s]
	return ok
}

// IsTerminal reports whether no transition leaves s
func (s BookingStatus) IsTerminal() bool {
	return s == BookingStatusCompleted || s == BookingStatusCancelled
}

// IsActive reports whether a booking in s holds its guide for the date
func (s BookingStatus) IsActive() bool {
	return s == BookingStatusPending || s == BookingStatusConfirmed
}

// CanTransitionTo reports whether s -> next is a forward transition
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	for _, allowed := range bookingTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ActiveBookingStatuses are the statuses that block a guide's date
var ActiveBookingStatuses = []BookingStatus{BookingStatusPending, BookingStatusConfirmed}

// DateLayout is the wire and storage format of a booking date
const DateLayout = "2006-01-02"

// Date is a calendar date without time of day
type Date struct {
	time.Time
}

// NewDate truncates t to its calendar date in UTC
func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// ParseDate accepts YYYY-MM-DD or a full ISO-8601 timestamp and keeps the date part
func ParseDate(value string) (Date, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return Date{}, errors.New("date is required")
	}
	if t, err := time.Parse(DateLayout, value); err == nil {
		return NewDate(t), nil
	}
	if t, err := time.Parse(time.RFC3339, strings.Replace(value, "Z", "+00:00", 1)); err == nil {
		return NewDate(t), nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return NewDate(t), nil
	}
	return Date{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", value)
}

// String formats the date as YYYY-MM-DD
func (d Date) String() string {
	return d.Format(DateLayout)
}

// MarshalJSON implements json.Marshaler
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return json.Marshal(nil)
	}
	return json.Marshal(d.String())
}

// Value implements the driver.Valuer interface
func (d Date) Value() (driver.Value, error) {
	if d.IsZero() {
		return nil, nil
	}
	return d.String(), nil
}

// Scan implements the sql.Scanner interface
func (d *Date) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*d = Date{}
		return nil
	case time.Time:
		*d = NewDate(v)
		return nil
	case []byte:
		parsed, err := ParseDate(string(v))
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	case string:
		parsed, err := ParseDate(v)
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	}
	return fmt.Errorf("cannot scan %T into Date", value)
}

// Booking is a traveler's reservation of a guide and destination for a date
type Booking struct {
	ID              int64         `json:"id" db:"id"`
	TravelerID      int64         `json:"traveler_id" db:"traveler_id"`
	GuideID         *int64        `json:"guide_id,omitempty" db:"guide_id"`
	DestinationID   *int64        `json:"destination_id,omitempty" db:"destination_id"`
	Date            Date          `json:"date" db:"date"`
	Status          BookingStatus `json:"status" db:"status"`
	SpecialRequests *string       `json:"special_requests,omitempty" db:"special_requests"`
	CreatedAt       time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at" db:"updated_at"`
}

// BookingDetail is a booking joined with the names of its participants
type BookingDetail struct {
	Booking
	TravelerName    *string `json:"traveler_name,omitempty" db:"traveler_name"`
	GuideName       *string `json:"guide_name,omitempty" db:"guide_name"`
	DestinationName *string `json:"destination_name,omitempty" db:"destination_name"`
}

// BookingFilter narrows booking listings. Scope fields are set from the caller's role.
type BookingFilter struct {
	TravelerID *int64
	GuideID    *int64
	Status     BookingStatus
	Page       Pagination
}

// CreateBookingRequest is the body of POST /bookings
type CreateBookingRequest struct {
	GuideID         int64   `json:"guide_id" binding:"required"`
	DestinationID   int64   `json:"destination_id" binding:"required"`
	Date            string  `json:"date" binding:"required"`
	SpecialRequests *string `json:"special_requests,omitempty"`
}

// UpdateBookingRequest is the body of PUT /bookings/:id
type UpdateBookingRequest struct {
	Status          *BookingStatus `json:"status,omitempty"`
	SpecialRequests *string        `json:"special_requests,omitempty"`
}

// Validate validates the update request
func (r *UpdateBookingRequest) Validate() error {
	if r.Status == nil && r.SpecialRequests == nil {
		return errors.New("nothing to update: provide status or special_requests")
	}
	if r.Status != nil && !r.Status.IsValid() {
		return fmt.Errorf("invalid status %q", *r.Status)
	}
	return nil
}
