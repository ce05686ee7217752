package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
)

var (
	// ErrNotFound is returned when a looked-up row does not exist
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique constraint rejects a write
	ErrDuplicate = errors.New("record already exists")
	// ErrReferenced is returned when a row cannot be removed because others point at it
	ErrReferenced = errors.New("record is still referenced")
	// ErrGuideUnavailable is returned when the guide already has an active booking on the date
	ErrGuideUnavailable = errors.New("guide already booked for this date")
	// ErrUserInactive is returned when resolving a deactivated account
	ErrUserInactive = errors.New("user is deactivated")
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"

	activeGuideDateIndex = "bookings_guide_date_active_idx"
)

func pqCode(err error) (*pq.Error, bool) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr, true
	}
	return nil, false
}

func isUniqueViolation(err error) bool {
	pqErr, ok := pqCode(err)
	return ok && pqErr.Code == pqUniqueViolation
}

func isForeignKeyViolation(err error) bool {
	pqErr, ok := pqCode(err)
	return ok && pqErr.Code == pqForeignKeyViolation
}

// translate maps driver errors onto the package sentinels and wraps everything else
func translate(err error, action string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return ErrNotFound
	case isUniqueViolation(err):
		if pqErr, _ := pqCode(err); pqErr != nil && strings.Contains(pqErr.Constraint, activeGuideDateIndex) {
			return ErrGuideUnavailable
		}
		return fmt.Errorf("%s: %w", action, ErrDuplicate)
	case isForeignKeyViolation(err):
		return fmt.Errorf("%s: %w", action, ErrReferenced)
	}
	return fmt.Errorf("failed to %s: %w", action, err)
}

func requireAffected(result sql.Result, action string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to %s: %w", action, err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}
