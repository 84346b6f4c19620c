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
)

// DirectoryService handles the doctor directory, patient profiles, and the
// care service catalog. Directory search goes through the search index when
// one is configured and falls back to SQL filtering otherwise.
type DirectoryService struct {
	doctorRepo  repositories.DoctorRepository
	patientRepo repositories.PatientRepository
	serviceRepo repositories.CareServiceRepository
	userRepo    repositories.UserRepository
	searchIndex providers.DoctorSearchIndex
}

// NewDirectoryService creates a new directory service
func NewDirectoryService(
	doctorRepo repositories.DoctorRepository,
	patientRepo repositories.PatientRepository,
	serviceRepo repositories.CareServiceRepository,
	userRepo repositories.UserRepository,
	searchIndex providers.DoctorSearchIndex,
) *DirectoryService {
	return &DirectoryService{
		doctorRepo:  doctorRepo,
		patientRepo: patientRepo,
		serviceRepo: serviceRepo,
		userRepo:    userRepo,
		searchIndex: searchIndex,
	}
}

// GetDoctor retrieves a doctor profile
func (s *DirectoryService) GetDoctor(ctx context.Context, id string) (*entities.DoctorProfile, error) {
	return s.doctorRepo.GetByID(ctx, id)
}

// GetDoctorByUser retrieves the doctor profile behind a user account
func (s *DirectoryService) GetDoctorByUser(ctx context.Context, userID string) (*entities.DoctorProfile, error) {
	return s.doctorRepo.GetByUserID(ctx, userID)
}

// UpdateDoctor updates the acting doctor's own profile
func (s *DirectoryService) UpdateDoctor(ctx context.Context, userID string, profile *entities.DoctorProfile) (*entities.DoctorProfile, error) {
	existing, err := s.doctorRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	existing.Specialty = strings.TrimSpace(profile.Specialty)
	existing.Bio = profile.Bio
	existing.ConsultationFee = profile.ConsultationFee
	existing.YearsExperience = profile.YearsExperience
	existing.IsAvailable = profile.IsAvailable
	if profile.LicenseNumber != "" {
		existing.LicenseNumber = profile.LicenseNumber
	}

	if err := s.doctorRepo.Update(ctx, existing); err != nil {
		return nil, err
	}

	s.reindexDoctor(ctx, existing)
	return existing, nil
}

// ListDoctors lists doctor profiles matching the filter
func (s *DirectoryService) ListDoctors(ctx context.Context, filter repositories.DoctorFilter) ([]*entities.DoctorProfile, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}
	doctors, err := s.doctorRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if doctors == nil {
		doctors = []*entities.DoctorProfile{}
	}
	return doctors, nil
}

// SearchDoctors queries the directory by free text. Falls back to SQL
// listing when no search index is configured or the index call fails.
func (s *DirectoryService) SearchDoctors(ctx context.Context, query providers.DoctorSearchQuery) ([]*entities.DoctorProfile, error) {
	if query.Limit <= 0 || query.Limit > 100 {
		query.Limit = 20
	}

	if s.searchIndex != nil {
		docs, err := s.searchIndex.Search(ctx, query)
		if err == nil {
			profiles := make([]*entities.DoctorProfile, 0, len(docs))
			for _, doc := range docs {
				profile, err := s.doctorRepo.GetByID(ctx, doc.ID)
				if err != nil {
					if apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
						// Stale index entry; skip it.
						continue
					}
					return nil, err
				}
				profiles = append(profiles, profile)
			}
			return profiles, nil
		}
		log.Warn().Err(err).Msg("doctor search index unavailable, falling back to SQL")
	}

	return s.ListDoctors(ctx, repositories.DoctorFilter{
		Specialty:     query.Specialty,
		AvailableOnly: query.AvailableOnly,
		Limit:         query.Limit,
		Offset:        query.Offset,
	})
}

// GetPatient retrieves the patient profile behind a user account. Patients
// see their own profile; doctors and admins may look up any patient.
func (s *DirectoryService) GetPatient(ctx context.Context, actorID string, actorRole entities.Role, userID string) (*entities.PatientProfile, error) {
	if actorID != userID && actorRole != entities.RoleDoctor && actorRole != entities.RoleAdmin {
		return nil, apperrors.NewForbiddenError("user may not read this patient profile")
	}
	return s.patientRepo.GetByUserID(ctx, userID)
}

// UpdatePatient updates the acting patient's own profile
func (s *DirectoryService) UpdatePatient(ctx context.Context, userID string, profile *entities.PatientProfile) (*entities.PatientProfile, error) {
	existing, err := s.patientRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	existing.DateOfBirth = profile.DateOfBirth
	existing.Gender = profile.Gender
	existing.BloodType = profile.BloodType
	existing.Allergies = profile.Allergies
	existing.MedicalHistory = profile.MedicalHistory
	existing.EmergencyContact = profile.EmergencyContact

	if err := s.patientRepo.Update(ctx, existing); err != nil {
		return nil, err
	}
	return existing, nil
}

// CreateCareService adds a catalog entry. Admin only.
func (s *DirectoryService) CreateCareService(ctx context.Context, actorRole entities.Role, service *entities.CareService) (*entities.CareService, error) {
	if actorRole != entities.RoleAdmin {
		return nil, apperrors.NewForbiddenError("only admins may manage the service catalog")
	}
	if strings.TrimSpace(service.Name) == "" {
		return nil, apperrors.NewValidationError("name is required")
	}
	if service.Price < 0 {
		return nil, apperrors.NewValidationError("price cannot be negative")
	}

	now := time.Now()
	service.ID = uuid.New().String()
	service.IsActive = true
	service.CreatedAt = now
	service.UpdatedAt = now

	if err := s.serviceRepo.Create(ctx, service); err != nil {
		return nil, err
	}
	return service, nil
}

// UpdateCareService updates a catalog entry. Admin only.
func (s *DirectoryService) UpdateCareService(ctx context.Context, actorRole entities.Role, service *entities.CareService) (*entities.CareService, error) {
	if actorRole != entities.RoleAdmin {
		return nil, apperrors.NewForbiddenError("only admins may manage the service catalog")
	}

	existing, err := s.serviceRepo.GetByID(ctx, service.ID)
	if err != nil {
		return nil, err
	}

	existing.Name = service.Name
	existing.Description = service.Description
	existing.Category = service.Category
	existing.Price = service.Price
	existing.DurationMinutes = service.DurationMinutes
	existing.IsActive = service.IsActive

	if err := s.serviceRepo.Update(ctx, existing); err != nil {
		return nil, err
	}
	return existing, nil
}

// GetCareService retrieves a catalog entry
func (s *DirectoryService) GetCareService(ctx context.Context, id string) (*entities.CareService, error) {
	return s.serviceRepo.GetByID(ctx, id)
}

// ListCareServices lists catalog entries
func (s *DirectoryService) ListCareServices(ctx context.Context, filter repositories.CareServiceFilter) ([]*entities.CareService, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 50
	}
	filter.ActiveOnly = true
	services, err := s.serviceRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if services == nil {
		services = []*entities.CareService{}
	}
	return services, nil
}

// reindexDoctor pushes a profile into the search index, best effort
func (s *DirectoryService) reindexDoctor(ctx context.Context, profile *entities.DoctorProfile) {
	if s.searchIndex == nil {
		return
	}

	name := ""
	if user, err := s.userRepo.GetByID(ctx, profile.UserID); err == nil {
		name = user.DisplayName()
	}

	doc := &providers.DoctorDocument{
		ID:              profile.ID,
		UserID:          profile.UserID,
		Name:            name,
		Specialty:       profile.Specialty,
		Bio:             profile.Bio,
		ConsultationFee: profile.ConsultationFee,
		YearsExperience: profile.YearsExperience,
		IsAvailable:     profile.IsAvailable,
		CreatedAt:       profile.CreatedAt.Unix(),
	}
	if err := s.searchIndex.Index(ctx, doc); err != nil {
		log.Warn().Err(err).Str("doctor_id", profile.ID).Msg("failed to index doctor profile")
	}
}
