package repositories

import (
	"context"

	"github.com/carebridge/telehealth-backend/internal/domain/entities"
)

// DoctorFilter narrows doctor profile listings
type DoctorFilter struct {
	Specialty     string
	AvailableOnly bool
	Limit         int
	Offset        int
}

// DoctorRepository defines data access for doctor profiles
type DoctorRepository interface {
	Create(ctx context.Context, profile *entities.DoctorProfile) error
	GetByID(ctx context.Context, id string) (*entities.DoctorProfile, error)
	GetByUserID(ctx context.Context, userID string) (*entities.DoctorProfile, error)
	Update(ctx context.Context, profile *entities.DoctorProfile) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter DoctorFilter) ([]*entities.DoctorProfile, error)
}

// PatientRepository defines data access for patient profiles
type PatientRepository interface {
	Create(ctx context.Context, profile *entities.PatientProfile) error
	GetByID(ctx context.Context, id string) (*entities.PatientProfile, error)
	GetByUserID(ctx context.Context, userID string) (*entities.PatientProfile, error)
	Update(ctx context.Context, profile *entities.PatientProfile) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, limit, offset int) ([]*entities.PatientProfile, error)
}
