package database

import (
	"context"
	"time"

	"github.com/safarihub/booking-backend/internal/models"
)

const destinationColumns = `id, name, country, price, category, guide_id, max_travelers, duration_days,
	description, image_url, included_amenities, itinerary, created_at, updated_at`

// DestinationRepository handles destination catalogue operations
type DestinationRepository struct {
	db DB
}

// NewDestinationRepository creates a new destination repository
func NewDestinationRepository(db DB) *DestinationRepository {
	return &DestinationRepository{db: db}
}

// Create inserts a destination. A taken name yields ErrDuplicate.
func (r *DestinationRepository) Create(ctx context.Context, d *models.Destination) error {
	query := `
		INSERT INTO destinations (
			name, country, price, category, guide_id, max_travelers, duration_days,
			description, image_url, included_amenities, itinerary
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING ` + destinationColumns

	err := r.db.QueryRowxContext(ctx, query,
		d.Name, d.Country, d.Price, d.Category, d.GuideID, d.MaxTravelers, d.DurationDays,
		d.Description, d.ImageURL, d.IncludedAmenities, d.Itinerary,
	).StructScan(d)
	return translate(err, "create destination")
}

// GetByID fetches a destination by id
func (r *DestinationRepository) GetByID(ctx context.Context, id int64) (*models.Destination, error) {
	var d models.Destination
	query := `SELECT ` + destinationColumns + ` FROM destinations WHERE id = $1`
	if err := r.db.GetContext(ctx, &d, query, id); err != nil {
		return nil, translate(err, "get destination")
	}
	return &d, nil
}

// Exists reports whether a destination with the id exists
func (r *DestinationRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM destinations WHERE id = $1)`, id); err != nil {
		return false, translate(err, "check destination")
	}
	return exists, nil
}

// List returns one page of destinations ordered by name
func (r *DestinationRepository) List(ctx context.Context, filter models.DestinationFilter) ([]models.Destination, int, error) {
	var conds conditions
	if filter.Country != "" {
		conds.add("country ILIKE $%[1]d", likePattern(filter.Country))
	}
	if filter.Category != "" {
		conds.add("category = $%[1]d", filter.Category)
	}
	if filter.MinPrice != nil {
		conds.add("price >= $%[1]d", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		conds.add("price <= $%[1]d", *filter.MaxPrice)
	}
	if filter.Search != "" {
		conds.add("(name ILIKE $%[1]d OR country ILIKE $%[1]d OR description ILIKE $%[1]d)", likePattern(filter.Search))
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM destinations`+conds.where(), conds.args...); err != nil {
		return nil, 0, translate(err, "count destinations")
	}

	limit, args := conds.page(filter.Page.Limit(), filter.Page.Offset())
	query := `SELECT ` + destinationColumns + ` FROM destinations` + conds.where() + ` ORDER BY name, id` + limit

	destinations := []models.Destination{}
	if err := r.db.SelectContext(ctx, &destinations, query, args...); err != nil {
		return nil, 0, translate(err, "list destinations")
	}
	return destinations, total, nil
}

// Update writes every mutable column of d
func (r *DestinationRepository) Update(ctx context.Context, d *models.Destination) error {
	d.UpdatedAt = time.Now()
	query := `
		UPDATE destinations SET
			name = $1, country = $2, price = $3, category = $4, guide_id = $5,
			max_travelers = $6, duration_days = $7, description = $8, image_url = $9,
			included_amenities = $10, itinerary = $11, updated_at = $12
		WHERE id = $13`

	result, err := r.db.ExecContext(ctx, query,
		d.Name, d.Country, d.Price, d.Category, d.GuideID,
		d.MaxTravelers, d.DurationDays, d.Description, d.ImageURL,
		d.IncludedAmenities, d.Itinerary, d.UpdatedAt, d.ID,
	)
	if err != nil {
		return translate(err, "update destination")
	}
	return requireAffected(result, "update destination")
}

// Delete removes a destination. Bookings still pointing at it yield ErrReferenced.
func (r *DestinationRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM destinations WHERE id = $1`, id)
	if err != nil {
		return translate(err, "delete destination")
	}
	return requireAffected(result, "delete destination")
}
