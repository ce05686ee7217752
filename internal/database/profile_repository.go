package database

import (
	"context"

	"github.com/safarihub/booking-backend/internal/models"
)

const guideListColumns = `g.id, g.user_id, g.experience_years, g.languages, g.bio, u.full_name, u.email,
	(SELECT COUNT(*) FROM bookings b WHERE b.guide_id = g.id) AS total_bookings`

// ProfileRepository reads and updates traveler and guide profiles
type ProfileRepository struct {
	db DB
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// GetTraveler fetches a traveler profile with its account and booking counts
func (r *ProfileRepository) GetTraveler(ctx context.Context, id int64) (*models.TravelerDetail, error) {
	query := `
		SELECT t.id, t.user_id, t.nationality, t.preferences, u.full_name, u.email,
			COUNT(b.id) AS total_bookings,
			COUNT(b.id) FILTER (WHERE b.status = 'completed') AS completed_bookings,
			COUNT(b.id) FILTER (WHERE b.status IN ('pending', 'confirmed')) AS upcoming_bookings
		FROM travelers t
		JOIN users u ON u.id = t.user_id
		LEFT JOIN bookings b ON b.traveler_id = t.id
		WHERE t.id = $1
		GROUP BY t.id, u.id`

	var traveler models.TravelerDetail
	if err := r.db.GetContext(ctx, &traveler, query, id); err != nil {
		return nil, translate(err, "get traveler")
	}
	return &traveler, nil
}

// UpdateTraveler writes the non-nil fields of req
func (r *ProfileRepository) UpdateTraveler(ctx context.Context, id int64, req models.UpdateTravelerRequest) (*models.Traveler, error) {
	query := `
		UPDATE travelers SET
			nationality = COALESCE($1, nationality),
			preferences = COALESCE($2, preferences)
		WHERE id = $3
		RETURNING id, user_id, nationality, preferences`

	var traveler models.Traveler
	if err := r.db.QueryRowxContext(ctx, query, req.Nationality, req.Preferences, id).StructScan(&traveler); err != nil {
		return nil, translate(err, "update traveler")
	}
	return &traveler, nil
}

// GetGuide fetches an active guide with its booking counts
func (r *ProfileRepository) GetGuide(ctx context.Context, id int64) (*models.GuideDetail, error) {
	query := `
		SELECT ` + guideListColumns + `,
			(SELECT COUNT(*) FROM bookings b WHERE b.guide_id = g.id AND b.status = 'completed') AS completed_bookings
		FROM guides g
		JOIN users u ON u.id = g.user_id
		WHERE g.id = $1 AND u.is_active = TRUE`

	var guide models.GuideDetail
	if err := r.db.GetContext(ctx, &guide, query, id); err != nil {
		return nil, translate(err, "get guide")
	}
	return &guide, nil
}

// UpdateGuide writes the non-nil fields of req
func (r *ProfileRepository) UpdateGuide(ctx context.Context, id int64, req models.UpdateGuideRequest) (*models.Guide, error) {
	query := `
		UPDATE guides SET
			experience_years = COALESCE($1, experience_years),
			languages = COALESCE($2, languages),
			bio = COALESCE($3, bio)
		WHERE id = $4
		RETURNING id, user_id, experience_years, languages, bio`

	var guide models.Guide
	if err := r.db.QueryRowxContext(ctx, query, req.ExperienceYears, req.Languages, req.Bio, id).StructScan(&guide); err != nil {
		return nil, translate(err, "update guide")
	}
	return &guide, nil
}

// ListGuides returns one page of active guides ordered by name. Every
// requested language must appear in the guide's language list.
func (r *ProfileRepository) ListGuides(ctx context.Context, filter models.GuideFilter) ([]models.GuideListItem, int, error) {
	var conds conditions
	conds.add("u.is_active = $%[1]d", true)
	for _, language := range filter.Languages {
		conds.add("g.languages ILIKE $%[1]d", likePattern(language))
	}
	if filter.Search != "" {
		conds.add("(g.bio ILIKE $%[1]d OR u.full_name ILIKE $%[1]d)", likePattern(filter.Search))
	}

	from := ` FROM guides g JOIN users u ON u.id = g.user_id`

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*)`+from+conds.where(), conds.args...); err != nil {
		return nil, 0, translate(err, "count guides")
	}

	limit, args := conds.page(filter.Page.Limit(), filter.Page.Offset())
	query := `SELECT ` + guideListColumns + from + conds.where() + ` ORDER BY u.full_name, g.id` + limit

	guides := []models.GuideListItem{}
	if err := r.db.SelectContext(ctx, &guides, query, args...); err != nil {
		return nil, 0, translate(err, "list guides")
	}
	return guides, total, nil
}
