package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/carebridge/telehealth-backend/internal/application/services"
	"github.com/carebridge/telehealth-backend/internal/domain/entities"
	"github.com/carebridge/telehealth-backend/internal/domain/repositories"
	apperrors "github.com/carebridge/telehealth-backend/pkg/errors"
	"github.com/carebridge/telehealth-backend/pkg/password"
)

// Mocks

type MockDoctorRepository struct {
	mock.Mock
}

func (m *MockDoctorRepository) Create(ctx context.Context, profile *entities.DoctorProfile) error {
	args := m.Called(ctx, profile)
	return args.Error(0)
}

func (m *MockDoctorRepository) GetByID(ctx context.Context, id string) (*entities.DoctorProfile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.DoctorProfile), args.Error(1)
}

func (m *MockDoctorRepository) GetByUserID(ctx context.Context, userID string) (*entities.DoctorProfile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.DoctorProfile), args.Error(1)
}

func (m *MockDoctorRepository) Update(ctx context.Context, profile *entities.DoctorProfile) error {
	args := m.Called(ctx, profile)
	return args.Error(0)
}

func (m *MockDoctorRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockDoctorRepository) List(ctx context.Context, filter repositories.DoctorFilter) ([]*entities.DoctorProfile, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.DoctorProfile), args.Error(1)
}

type MockPatientRepository struct {
	mock.Mock
}

func (m *MockPatientRepository) Create(ctx context.Context, profile *entities.PatientProfile) error {
	args := m.Called(ctx, profile)
	return args.Error(0)
}

func (m *MockPatientRepository) GetByID(ctx context.Context, id string) (*entities.PatientProfile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.PatientProfile), args.Error(1)
}

func (m *MockPatientRepository) GetByUserID(ctx context.Context, userID string) (*entities.PatientProfile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.PatientProfile), args.Error(1)
}

func (m *MockPatientRepository) Update(ctx context.Context, profile *entities.PatientProfile) error {
	args := m.Called(ctx, profile)
	return args.Error(0)
}

func (m *MockPatientRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockPatientRepository) List(ctx context.Context, limit, offset int) ([]*entities.PatientProfile, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.PatientProfile), args.Error(1)
}

type MockSessionStore struct {
	mock.Mock
}

func (m *MockSessionStore) StoreRefreshToken(ctx context.Context, userID, refreshToken string, ttlSeconds int) error {
	args := m.Called(ctx, userID, refreshToken, ttlSeconds)
	return args.Error(0)
}

func (m *MockSessionStore) GetRefreshToken(ctx context.Context, userID string) (string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Error(1)
}

func (m *MockSessionStore) DeleteRefreshToken(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// Helpers

func newAuthService() (*services.AuthService, *MockUserRepository, *MockDoctorRepository, *MockPatientRepository, *MockSessionStore) {
	userRepo := new(MockUserRepository)
	doctorRepo := new(MockDoctorRepository)
	patientRepo := new(MockPatientRepository)
	sessions := new(MockSessionStore)
	service := services.NewAuthService(
		userRepo, doctorRepo, patientRepo, password.NewHasher(), newTokenManager(), sessions)
	return service, userRepo, doctorRepo, patientRepo, sessions
}

// Tests

func TestAuthService_Register(t *testing.T) {
	t.Run("registers patient with profile and session", func(t *testing.T) {
		service, userRepo, _, patientRepo, sessions := newAuthService()

		userRepo.On("GetByEmail", mock.Anything, "ada@example.com").
			Return(nil, apperrors.NewNotFoundError("not found"))
		userRepo.On("Create", mock.Anything, mock.MatchedBy(func(u *entities.User) bool {
			return u.Email == "ada@example.com" && u.Role == entities.RolePatient && u.IsActive
		})).Return(nil)
		patientRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
		sessions.On("StoreRefreshToken", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

		result, err := service.Register(context.Background(), services.RegisterInput{
			Email:     "Ada@Example.com",
			Password:  "s3cret-pass",
			FirstName: "Ada",
			LastName:  "Obi",
			Role:      entities.RolePatient,
		})

		assert.NoError(t, err)
		assert.NotEmpty(t, result.AccessToken)
		assert.NotEmpty(t, result.RefreshToken)
		assert.NotEqual(t, "s3cret-pass", result.User.PasswordHash)
		patientRepo.AssertExpectations(t)
	})

	t.Run("registers doctor with doctor profile", func(t *testing.T) {
		service, userRepo, doctorRepo, _, sessions := newAuthService()

		userRepo.On("GetByEmail", mock.Anything, mock.Anything).
			Return(nil, apperrors.NewNotFoundError("not found"))
		userRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
		doctorRepo.On("Create", mock.Anything, mock.MatchedBy(func(p *entities.DoctorProfile) bool {
			return p.Specialty == "cardiology" && p.LicenseNumber == "MD-1234" && p.IsAvailable
		})).Return(nil)
		sessions.On("StoreRefreshToken", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

		result, err := service.Register(context.Background(), services.RegisterInput{
			Email:         "doc@example.com",
			Password:      "s3cret-pass",
			Role:          entities.RoleDoctor,
			Specialty:     "cardiology",
			LicenseNumber: "MD-1234",
		})

		assert.NoError(t, err)
		assert.Equal(t, entities.RoleDoctor, result.User.Role)
		doctorRepo.AssertExpectations(t)
	})

	t.Run("rejects duplicate email", func(t *testing.T) {
		service, userRepo, _, _, _ := newAuthService()

		userRepo.On("GetByEmail", mock.Anything, "taken@example.com").
			Return(&entities.User{ID: "user-1", Email: "taken@example.com"}, nil)

		_, err := service.Register(context.Background(), services.RegisterInput{
			Email:    "taken@example.com",
			Password: "s3cret-pass",
		})

		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConflict))
		userRepo.AssertNotCalled(t, "Create")
	})

	t.Run("rejects short password", func(t *testing.T) {
		service, _, _, _, _ := newAuthService()

		_, err := service.Register(context.Background(), services.RegisterInput{
			Email:    "ada@example.com",
			Password: "short",
		})

		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	})

	t.Run("rejects doctor without license number", func(t *testing.T) {
		service, _, _, _, _ := newAuthService()

		_, err := service.Register(context.Background(), services.RegisterInput{
			Email:    "doc@example.com",
			Password: "s3cret-pass",
			Role:     entities.RoleDoctor,
		})

		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	})
}

func TestAuthService_Login(t *testing.T) {
	hasher := password.NewHasher()
	hash, _ := hasher.Hash("s3cret-pass")

	activeUser := func() *entities.User {
		return &entities.User{
			ID:           "user-1",
			Email:        "ada@example.com",
			PasswordHash: hash,
			Role:         entities.RolePatient,
			IsActive:     true,
		}
	}

	t.Run("valid credentials open a session", func(t *testing.T) {
		service, userRepo, _, _, sessions := newAuthService()

		userRepo.On("GetByEmail", mock.Anything, "ada@example.com").Return(activeUser(), nil)
		userRepo.On("Update", mock.Anything, mock.Anything).Return(nil)
		sessions.On("StoreRefreshToken", mock.Anything, "user-1", mock.Anything, mock.Anything).Return(nil)

		result, err := service.Login(context.Background(), "ada@example.com", "s3cret-pass")

		assert.NoError(t, err)
		assert.NotEmpty(t, result.AccessToken)
		sessions.AssertExpectations(t)
	})

	t.Run("wrong password is unauthorized", func(t *testing.T) {
		service, userRepo, _, _, sessions := newAuthService()

		userRepo.On("GetByEmail", mock.Anything, "ada@example.com").Return(activeUser(), nil)

		_, err := service.Login(context.Background(), "ada@example.com", "wrong-pass")

		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeUnauthorized))
		sessions.AssertNotCalled(t, "StoreRefreshToken")
	})

	t.Run("unknown email is unauthorized, not not-found", func(t *testing.T) {
		service, userRepo, _, _, _ := newAuthService()

		userRepo.On("GetByEmail", mock.Anything, "ghost@example.com").
			Return(nil, apperrors.NewNotFoundError("not found"))

		_, err := service.Login(context.Background(), "ghost@example.com", "whatever-pass")

		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeUnauthorized))
	})

	t.Run("deactivated account cannot log in", func(t *testing.T) {
		service, userRepo, _, _, _ := newAuthService()

		user := activeUser()
		user.IsActive = false
		userRepo.On("GetByEmail", mock.Anything, "ada@example.com").Return(user, nil)

		_, err := service.Login(context.Background(), "ada@example.com", "s3cret-pass")

		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeUnauthorized))
	})
}

func TestAuthService_Refresh(t *testing.T) {
	t.Run("valid refresh token rotates the session", func(t *testing.T) {
		service, userRepo, _, _, sessions := newAuthService()

		refreshToken, err := newTokenManager().GenerateRefreshToken("user-1")
		assert.NoError(t, err)

		sessions.On("GetRefreshToken", mock.Anything, "user-1").Return(refreshToken, nil)
		userRepo.On("GetByID", mock.Anything, "user-1").
			Return(&entities.User{ID: "user-1", Email: "ada@example.com", Role: entities.RolePatient, IsActive: true}, nil)
		sessions.On("StoreRefreshToken", mock.Anything, "user-1", mock.Anything, mock.Anything).Return(nil)

		result, err := service.Refresh(context.Background(), refreshToken)

		assert.NoError(t, err)
		assert.NotEmpty(t, result.AccessToken)
	})

	t.Run("revoked token is rejected", func(t *testing.T) {
		service, _, _, _, sessions := newAuthService()

		refreshToken, err := newTokenManager().GenerateRefreshToken("user-1")
		assert.NoError(t, err)

		sessions.On("GetRefreshToken", mock.Anything, "user-1").Return("a-different-token", nil)

		_, err = service.Refresh(context.Background(), refreshToken)

		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeUnauthorized))
	})

	t.Run("garbage token is rejected", func(t *testing.T) {
		service, _, _, _, _ := newAuthService()

		_, err := service.Refresh(context.Background(), "not-a-jwt")

		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeUnauthorized))
	})
}

func TestAuthService_Logout(t *testing.T) {
	t.Run("deletes the stored refresh token", func(t *testing.T) {
		service, _, _, _, sessions := newAuthService()

		sessions.On("DeleteRefreshToken", mock.Anything, "user-1").Return(nil)

		err := service.Logout(context.Background(), "user-1")

		assert.NoError(t, err)
		sessions.AssertExpectations(t)
	})
}
