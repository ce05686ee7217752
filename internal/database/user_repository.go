package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/safarihub/booking-backend/internal/models"
)

const userColumns = `id, full_name, email, password_hash, role, is_active, created_at, updated_at`

// profileTables maps each role to the table holding its profile row
var profileTables = map[models.Role]string{
	models.RoleTraveler: "travelers",
	models.RoleGuide:    "guides",
	models.RoleAdmin:    "admins",
}

// UserRepository handles user and role profile database operations
type UserRepository struct {
	db DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db DB) *UserRepository {
	return &UserRepository{
		db: db,
	}
}

// CreateWithProfile inserts the user and the profile row for its role in one transaction
func (r *UserRepository) CreateWithProfile(ctx context.Context, user *models.User) (*models.Identity, error) {
	table, ok := profileTables[user.Role]
	if !ok {
		return nil, fmt.Errorf("unknown role %q", user.Role)
	}

	var identity *models.Identity
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO users (full_name, email, password_hash, role, is_active)
			VALUES ($1, $2, $3, $4, TRUE)
			RETURNING ` + userColumns

		if err := tx.QueryRowxContext(ctx, query,
			user.FullName, strings.ToLower(user.Email), user.PasswordHash, user.Role,
		).StructScan(user); err != nil {
			return translate(err, "create user")
		}

		var profileID int64
		if err := tx.GetContext(ctx, &profileID,
			`INSERT INTO `+table+` (user_id) VALUES ($1) RETURNING id`, user.ID,
		); err != nil {
			return translate(err, "create "+string(user.Role)+" profile")
		}

		identity = identityFor(user, profileID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return identity, nil
}

// GetByEmail fetches a user by email, case-insensitively
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	if err := r.db.GetContext(ctx, &user, query, strings.ToLower(strings.TrimSpace(email))); err != nil {
		return nil, translate(err, "get user by email")
	}
	return &user, nil
}

// GetByID fetches a user by id
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		return nil, translate(err, "get user")
	}
	return &user, nil
}

// ResolveIdentity loads an active user and the id of the profile matching its role
func (r *UserRepository) ResolveIdentity(ctx context.Context, userID int64) (*models.Identity, error) {
	user, err := r.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}

	table, ok := profileTables[user.Role]
	if !ok {
		return nil, fmt.Errorf("user %d has unknown role %q", user.ID, user.Role)
	}

	var profileID int64
	if err := r.db.GetContext(ctx, &profileID, `SELECT id FROM `+table+` WHERE user_id = $1`, user.ID); err != nil {
		return nil, translate(err, "resolve "+string(user.Role)+" profile")
	}

	return identityFor(user, profileID), nil
}

// GetProfile returns the role-specific profile row of the identity
func (r *UserRepository) GetProfile(ctx context.Context, identity models.Identity) (interface{}, error) {
	switch identity.Role {
	case models.RoleTraveler:
		var traveler models.Traveler
		err := r.db.GetContext(ctx, &traveler,
			`SELECT id, user_id, nationality, preferences FROM travelers WHERE id = $1`, identity.ProfileID)
		if err != nil {
			return nil, translate(err, "get traveler profile")
		}
		return &traveler, nil
	case models.RoleGuide:
		var guide models.Guide
		err := r.db.GetContext(ctx, &guide,
			`SELECT id, user_id, experience_years, languages, bio FROM guides WHERE id = $1`, identity.ProfileID)
		if err != nil {
			return nil, translate(err, "get guide profile")
		}
		return &guide, nil
	case models.RoleAdmin:
		var admin models.Admin
		err := r.db.GetContext(ctx, &admin,
			`SELECT id, user_id, privileges FROM admins WHERE id = $1`, identity.ProfileID)
		if err != nil {
			return nil, translate(err, "get admin profile")
		}
		return &admin, nil
	}
	return nil, fmt.Errorf("unknown role %q", identity.Role)
}

// GuideExists reports whether a guide profile with the id exists
func (r *UserRepository) GuideExists(ctx context.Context, guideID int64) (bool, error) {
	var exists bool
	if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM guides WHERE id = $1)`, guideID); err != nil {
		return false, translate(err, "check guide")
	}
	return exists, nil
}

// List returns one page of users, newest first
func (r *UserRepository) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	var conds conditions
	if filter.Role != "" {
		conds.add("role = $%[1]d", filter.Role)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM users`+conds.where(), conds.args...); err != nil {
		return nil, 0, translate(err, "count users")
	}

	limit, args := conds.page(filter.Page.Limit(), filter.Page.Offset())
	query := `SELECT ` + userColumns + ` FROM users` + conds.where() + ` ORDER BY created_at DESC, id DESC` + limit

	users := []models.User{}
	if err := r.db.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, 0, translate(err, "list users")
	}
	return users, total, nil
}

// Update changes a user's active flag and role. A role change moves the
// profile row to the new role's table in the same transaction.
func (r *UserRepository) Update(ctx context.Context, id int64, req models.UpdateUserRequest) (*models.User, error) {
	var user models.User
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := tx.GetContext(ctx, &user,
			`SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, id,
		); err != nil {
			return translate(err, "lock user")
		}

		if req.Role != nil && *req.Role != user.Role {
			oldTable, newTable := profileTables[user.Role], profileTables[*req.Role]
			if newTable == "" {
				return fmt.Errorf("unknown role %q", *req.Role)
			}
			if oldTable != "" {
				if _, err := tx.ExecContext(ctx, `DELETE FROM `+oldTable+` WHERE user_id = $1`, user.ID); err != nil {
					return translate(err, "remove "+string(user.Role)+" profile")
				}
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO `+newTable+` (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`, user.ID,
			); err != nil {
				return translate(err, "create "+string(*req.Role)+" profile")
			}
			user.Role = *req.Role
		}
		if req.IsActive != nil {
			user.IsActive = *req.IsActive
		}
		user.UpdatedAt = time.Now()

		if _, err := tx.ExecContext(ctx,
			`UPDATE users SET role = $1, is_active = $2, updated_at = $3 WHERE id = $4`,
			user.Role, user.IsActive, user.UpdatedAt, user.ID,
		); err != nil {
			return translate(err, "update user")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func identityFor(user *models.User, profileID int64) *models.Identity {
	return &models.Identity{
		UserID:    user.ID,
		Email:     user.Email,
		FullName:  user.FullName,
		Role:      user.Role,
		ProfileID: profileID,
	}
}
