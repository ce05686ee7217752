package services

import (
	"context"
	"errors"

	"github.com/safarihub/booking-backend/internal/database"
	"github.com/safarihub/booking-backend/internal/models"
	"github.com/safarihub/booking-backend/pkg/jwt"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// AuthResponse is returned by register and login
type AuthResponse struct {
	User      *models.User `json:"user"`
	Token     string       `json:"token"`
	ExpiresIn int64        `json:"expires_in"`
}

// MeResponse is the caller's account with its role profile
type MeResponse struct {
	User    *models.User `json:"user"`
	Profile interface{}  `json:"profile"`
}

// AuthService handles registration, login and identity resolution
type AuthService struct {
	users      UserStore
	jwtService *jwt.Service
	bcryptCost int
	logger     *logrus.Logger

	// dummyHash keeps login timing flat for unknown emails
	dummyHash []byte
}

// NewAuthService creates a new auth service
func NewAuthService(users UserStore, jwtService *jwt.Service, bcryptCost int, logger *logrus.Logger) *AuthService {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	dummy, _ := bcrypt.GenerateFromPassword([]byte("safarihub-dummy-password"), bcryptCost)
	return &AuthService{
		users:      users,
		jwtService: jwtService,
		bcryptCost: bcryptCost,
		logger:     logger,
		dummyHash:  dummy,
	}
}

// Register creates a traveler or guide account with its profile and returns a token
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*AuthResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, ValidationError(err.Error())
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, InternalError(err)
	}

	user := &models.User{
		FullName:     req.FullName,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         req.Role,
	}
	if _, err := s.users.CreateWithProfile(ctx, user); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, ConflictError(CodeEmailTaken, "Email already registered")
		}
		return nil, InternalError(err)
	}

	s.logger.WithFields(logrus.Fields{
		"user_id": user.ID,
		"role":    user.Role,
	}).Info("User registered")

	return s.issue(user)
}

// Login checks the credentials and returns a token
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*AuthResponse, error) {
	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(req.Password))
			return nil, AuthError(CodeInvalidCredentials, "Invalid email or password")
		}
		return nil, InternalError(err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.logger.WithField("user_id", user.ID).Warn("Failed login attempt")
		return nil, AuthError(CodeInvalidCredentials, "Invalid email or password")
	}
	if !user.IsActive {
		return nil, ForbiddenError("Account is deactivated").withCode(CodeAccountDisabled)
	}

	return s.issue(user)
}

// Me returns the caller's account and role profile
func (s *AuthService) Me(ctx context.Context, caller models.Identity) (*MeResponse, error) {
	user, err := s.users.GetByID(ctx, caller.UserID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, NotFoundError("User")
		}
		return nil, InternalError(err)
	}

	profile, err := s.users.GetProfile(ctx, caller)
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		return nil, InternalError(err)
	}

	return &MeResponse{User: user, Profile: profile}, nil
}

func (s *AuthService) issue(user *models.User) (*AuthResponse, error) {
	token, err := s.jwtService.GenerateAccessToken(user.ID, user.Email, string(user.Role))
	if err != nil {
		return nil, InternalError(err)
	}
	return &AuthResponse{
		User:      user,
		Token:     token,
		ExpiresIn: int64(s.jwtService.TokenExpiry().Seconds()),
	}, nil
}
