package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DestinationCategory groups destinations in the catalogue
type DestinationCategory string

const (
	CategoryPopular       DestinationCategory = "popular"
	CategoryInternational DestinationCategory = "international"
)

// IsValid reports whether c is a known category
func (c DestinationCategory) IsValid() bool {
	return c == CategoryPopular || c == CategoryInternational
}

// Destination is a travel package offered in the catalogue
type Destination struct {
	ID                int64               `json:"id" db:"id"`
	Name              string              `json:"name" db:"name"`
	Country           string              `json:"country" db:"country"`
	Price             decimal.Decimal     `json:"price" db:"price"`
	Category          DestinationCategory `json:"category" db:"category"`
	GuideID           *int64              `json:"guide_id,omitempty" db:"guide_id"`
	MaxTravelers      *int                `json:"max_travelers,omitempty" db:"max_travelers"`
	DurationDays      *int                `json:"duration_days,omitempty" db:"duration_days"`
	Description       *string             `json:"description,omitempty" db:"description"`
	ImageURL          *string             `json:"image_url,omitempty" db:"image_url"`
	IncludedAmenities StringArray         `json:"included_amenities" db:"included_amenities"`
	Itinerary         StringArray         `json:"itinerary" db:"itinerary"`
	CreatedAt         time.Time           `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at" db:"updated_at"`
}

// DestinationFilter narrows catalogue listings
type DestinationFilter struct {
	Country  string
	Category DestinationCategory
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Search   string
	Page     Pagination
}

// CacheKey identifies the filter for the destination cache
func (f DestinationFilter) CacheKey() string {
	minPrice, maxPrice := "", ""
	if f.MinPrice != nil {
		minPrice = f.MinPrice.String()
	}
	if f.MaxPrice != nil {
		maxPrice = f.MaxPrice.String()
	}
	return fmt.Sprintf("country=%s|category=%s|min=%s|max=%s|q=%s|page=%d|per_page=%d",
		strings.ToLower(f.Country), f.Category, minPrice, maxPrice,
		strings.ToLower(f.Search), f.Page.Page, f.Page.PerPage)
}

// DestinationPage is one page of the catalogue
type DestinationPage struct {
	Destinations []Destination `json:"destinations"`
	Pagination   PageInfo      `json:"pagination"`
}

// CreateDestinationRequest is the body of POST /destinations
type CreateDestinationRequest struct {
	Name              string              `json:"name" binding:"required"`
	Country           string              `json:"country" binding:"required"`
	Price             decimal.Decimal     `json:"price"`
	Category          DestinationCategory `json:"category" binding:"required"`
	GuideID           *int64              `json:"guide_id,omitempty"`
	MaxTravelers      *int                `json:"max_travelers,omitempty"`
	DurationDays      *int                `json:"duration_days,omitempty"`
	Description       *string             `json:"description,omitempty"`
	ImageURL          *string             `json:"image_url,omitempty"`
	IncludedAmenities []string            `json:"included_amenities,omitempty"`
	Itinerary         []string            `json:"itinerary,omitempty"`
}

// Validate validates the create request
func (r *CreateDestinationRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	r.Country = strings.TrimSpace(r.Country)
	if r.Name == "" {
		return errors.New("name is required")
	}
	if r.Country == "" {
		return errors.New("country is required")
	}
	if r.Price.IsNegative() {
		return errors.New("price cannot be negative")
	}
	if !r.Category.IsValid() {
		return errors.New("category must be 'popular' or 'international'")
	}
	if r.MaxTravelers != nil && *r.MaxTravelers < 1 {
		return errors.New("max_travelers must be at least 1")
	}
	if r.DurationDays != nil && *r.DurationDays < 1 {
		return errors.New("duration_days must be at least 1")
	}
	return nil
}

// ToDestination builds the row to insert
func (r *CreateDestinationRequest) ToDestination() *Destination {
	return &Destination{
		Name:              r.Name,
		Country:           r.Country,
		Price:             r.Price,
		Category:          r.Category,
		GuideID:           r.GuideID,
		MaxTravelers:      r.MaxTravelers,
		DurationDays:      r.DurationDays,
		Description:       r.Description,
		ImageURL:          r.ImageURL,
		IncludedAmenities: StringArray(r.IncludedAmenities),
		Itinerary:         StringArray(r.Itinerary),
	}
}

// UpdateDestinationRequest is the body of PATCH /destinations/:id. Nil fields are left untouched.
type UpdateDestinationRequest struct {
	Name              *string              `json:"name,omitempty"`
	Country           *string              `json:"country,omitempty"`
	Price             *decimal.Decimal     `json:"price,omitempty"`
	Category          *DestinationCategory `json:"category,omitempty"`
	GuideID           *int64               `json:"guide_id,omitempty"`
	MaxTravelers      *int                 `json:"max_travelers,omitempty"`
	DurationDays      *int                 `json:"duration_days,omitempty"`
	Description       *string              `json:"description,omitempty"`
	ImageURL          *string              `json:"image_url,omitempty"`
	IncludedAmenities []string             `json:"included_amenities,omitempty"`
	Itinerary         []string             `json:"itinerary,omitempty"`
}

// Apply validates the patch and merges it into d
func (r *UpdateDestinationRequest) Apply(d *Destination) error {
	if r.Name != nil {
		name := strings.TrimSpace(*r.Name)
		if name == "" {
			return errors.New("name cannot be empty")
		}
		d.Name = name
	}
	if r.Country != nil {
		country := strings.TrimSpace(*r.Country)
		if country == "" {
			return errors.New("country cannot be empty")
		}
		d.Country = country
	}
	if r.Price != nil {
		if r.Price.IsNegative() {
			return errors.New("price cannot be negative")
		}
		d.Price = *r.Price
	}
	if r.Category != nil {
		if !r.Category.IsValid() {
			return errors.New("category must be 'popular' or 'international'")
		}
		d.Category = *r.Category
	}
	if r.GuideID != nil {
		d.GuideID = r.GuideID
	}
	if r.MaxTravelers != nil {
		if *r.MaxTravelers < 1 {
			return errors.New("max_travelers must be at least 1")
		}
		d.MaxTravelers = r.MaxTravelers
	}
	if r.DurationDays != nil {
		if *r.DurationDays < 1 {
			return errors.New("duration_days must be at least 1")
		}
		d.DurationDays = r.DurationDays
	}
	if r.Description != nil {
		d.Description = r.Description
	}
	if r.ImageURL != nil {
		d.ImageURL = r.ImageURL
	}
	if r.IncludedAmenities != nil {
		d.IncludedAmenities = StringArray(r.IncludedAmenities)
	}
	if r.Itinerary != nil {
		d.Itinerary = StringArray(r.Itinerary)
	}
	return nil
}
