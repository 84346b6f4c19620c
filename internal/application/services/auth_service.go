package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/carebridge/telehealth-backend/internal/domain/entities"
	"github.com/carebridge/telehealth-backend/internal/domain/providers"
	"github.com/carebridge/telehealth-backend/internal/domain/repositories"
	apperrors "github.com/carebridge/telehealth-backend/pkg/errors"
	"github.com/carebridge/telehealth-backend/pkg/password"
	"github.com/carebridge/telehealth-backend/pkg/token"
)

const minPasswordLength = 8

// RegisterInput carries the fields for creating an account
type RegisterInput struct {
	Email     string        `json:"email"`
	Password  string        `json:"password"`
	FirstName string        `json:"first_name"`
	LastName  string        `json:"last_name"`
	Role      entities.Role `json:"role"`

	// Doctor-only profile fields
	Specialty     string `json:"specialty,omitempty"`
	LicenseNumber string `json:"license_number,omitempty"`
}

// AuthResult is returned on successful register, login, or refresh
type AuthResult struct {
	User         *entities.User `json:"user"`
	AccessToken  string         `json:"access_token"`
	RefreshToken string         `json:"refresh_token"`
}

// AuthService handles registration, login, and session lifecycle.
//
// Refresh tokens are single-active per user: the stored token is replaced
// on every issue and compared on refresh, so a stolen older token is dead.
type AuthService struct {
	userRepo    repositories.UserRepository
	doctorRepo  repositories.DoctorRepository
	patientRepo repositories.PatientRepository
	hasher      *password.Hasher
	tokens      *token.Manager
	sessions    providers.SessionStore
}

// NewAuthService creates a new auth service
func NewAuthService(
	userRepo repositories.UserRepository,
	doctorRepo repositories.DoctorRepository,
	patientRepo repositories.PatientRepository,
	hasher *password.Hasher,
	tokens *token.Manager,
	sessions providers.SessionStore,
) *AuthService {
	return &AuthService{
		userRepo:    userRepo,
		doctorRepo:  doctorRepo,
		patientRepo: patientRepo,
		hasher:      hasher,
		tokens:      tokens,
		sessions:    sessions,
	}
}

// Register creates a new account plus its role profile and opens a session
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, apperrors.NewValidationError("a valid email is required")
	}
	if len(input.Password) < minPasswordLength {
		return nil, apperrors.NewValidationError("password must be at least 8 characters")
	}
	if input.Role == "" {
		input.Role = entities.RolePatient
	}
	if !entities.ValidRole(input.Role) {
		return nil, apperrors.NewValidationError("invalid role")
	}
	if input.Role == entities.RoleDoctor && strings.TrimSpace(input.LicenseNumber) == "" {
		return nil, apperrors.NewValidationError("license_number is required for doctors")
	}

	if _, err := s.userRepo.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewConflictError("an account with this email already exists")
	} else if !apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
		return nil, err
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to hash password", err)
	}

	now := time.Now()
	user := &entities.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		Role:         input.Role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	switch user.Role {
	case entities.RoleDoctor:
		profile := &entities.DoctorProfile{
			ID:            uuid.New().String(),
			UserID:        user.ID,
			Specialty:     strings.TrimSpace(input.Specialty),
			LicenseNumber: strings.TrimSpace(input.LicenseNumber),
			IsAvailable:   true,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := s.doctorRepo.Create(ctx, profile); err != nil {
			return nil, err
		}
	case entities.RolePatient:
		profile := &entities.PatientProfile{
			ID:        uuid.New().String(),
			UserID:    user.ID,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.patientRepo.Create(ctx, profile); err != nil {
			return nil, err
		}
	}

	log.Info().Str("user_id", user.ID).Str("role", string(user.Role)).Msg("user registered")

	return s.openSession(ctx, user)
}

// Login verifies credentials and opens a session
func (s *AuthService) Login(ctx context.Context, email, pass string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
			return nil, apperrors.NewUnauthorizedError("invalid email or password")
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, apperrors.NewUnauthorizedError("account is deactivated")
	}
	if !s.hasher.Check(pass, user.PasswordHash) {
		return nil, apperrors.NewUnauthorizedError("invalid email or password")
	}

	now := time.Now()
	user.LastLoginAt = &now
	if err := s.userRepo.Update(ctx, user); err != nil {
		log.Warn().Err(err).Str("user_id", user.ID).Msg("failed to record last login")
	}

	return s.openSession(ctx, user)
}

// Refresh rotates a session: the presented refresh token must match the
// stored one, and both tokens are reissued.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	claims, err := s.tokens.Verify(refreshToken)
	if err != nil {
		return nil, apperrors.NewUnauthorizedError("invalid refresh token")
	}

	stored, err := s.sessions.GetRefreshToken(ctx, claims.UserID)
	if err != nil {
		if apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
			return nil, apperrors.NewUnauthorizedError("session has expired")
		}
		return nil, err
	}
	if stored != refreshToken {
		return nil, apperrors.NewUnauthorizedError("refresh token has been revoked")
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, apperrors.NewUnauthorizedError("account is deactivated")
	}

	return s.openSession(ctx, user)
}

// Logout ends the acting user's session
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	return s.sessions.DeleteRefreshToken(ctx, userID)
}

// GetUser loads the account behind a verified session
func (s *AuthService) GetUser(ctx context.Context, userID string) (*entities.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}

func (s *AuthService) openSession(ctx context.Context, user *entities.User) (*AuthResult, error) {
	accessToken, err := s.tokens.GenerateAccessToken(user.ID, user.Email, string(user.Role))
	if err != nil {
		return nil, apperrors.NewInternalError("failed to issue access token", err)
	}

	refreshToken, err := s.tokens.GenerateRefreshToken(user.ID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to issue refresh token", err)
	}

	ttl := int(s.tokens.RefreshExpiration().Seconds())
	if err := s.sessions.StoreRefreshToken(ctx, user.ID, refreshToken, ttl); err != nil {
		return nil, apperrors.NewInternalError("failed to store session", err)
	}

	return &AuthResult{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}
