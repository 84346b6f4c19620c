package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/carebridge/telehealth-backend/internal/domain/entities"
	"github.com/carebridge/telehealth-backend/internal/domain/repositories"
	apperrors "github.com/carebridge/telehealth-backend/pkg/errors"
)

// BookAppointmentInput carries the fields for booking an appointment
type BookAppointmentInput struct {
	DoctorID    string    `json:"doctor_id"`
	ServiceID   string    `json:"service_id"`
	ScheduledAt time.Time `json:"scheduled_at"`
	Reason      string    `json:"reason"`
}

// AppointmentService handles appointment booking logic
type AppointmentService struct {
	repo        repositories.AppointmentRepository
	userRepo    repositories.UserRepository
	serviceRepo repositories.CareServiceRepository
}

// NewAppointmentService creates a new appointment service
func NewAppointmentService(
	repo repositories.AppointmentRepository,
	userRepo repositories.UserRepository,
	serviceRepo repositories.CareServiceRepository,
) *AppointmentService {
	return &AppointmentService{
		repo:        repo,
		userRepo:    userRepo,
		serviceRepo: serviceRepo,
	}
}

// Book books an appointment for the acting patient
func (s *AppointmentService) Book(ctx context.Context, patientID string, input BookAppointmentInput) (*entities.Appointment, error) {
	if input.DoctorID == "" {
		return nil, apperrors.NewValidationError("doctor_id is required")
	}
	if input.ScheduledAt.Before(time.Now()) {
		return nil, apperrors.NewValidationError("cannot book an appointment in the past")
	}

	doctor, err := s.userRepo.GetByID(ctx, input.DoctorID)
	if err != nil {
		return nil, err
	}
	if doctor.Role != entities.RoleDoctor {
		return nil, apperrors.NewValidationError("doctor_id does not refer to a doctor")
	}

	if input.ServiceID != "" {
		service, err := s.serviceRepo.GetByID(ctx, input.ServiceID)
		if err != nil {
			return nil, err
		}
		if !service.IsActive {
			return nil, apperrors.NewValidationError("the selected service is not available")
		}
	}

	now := time.Now()
	appointment := &entities.Appointment{
		ID:          uuid.New().String(),
		PatientID:   patientID,
		DoctorID:    input.DoctorID,
		ServiceID:   input.ServiceID,
		ScheduledAt: input.ScheduledAt,
		Status:      entities.AppointmentStatusPending,
		Reason:      strings.TrimSpace(input.Reason),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, appointment); err != nil {
		return nil, err
	}

	log.Info().
		Str("appointment_id", appointment.ID).
		Str("patient_id", patientID).
		Str("doctor_id", input.DoctorID).
		Msg("appointment booked")

	return appointment, nil
}

// Get retrieves an appointment visible to the acting user
func (s *AppointmentService) Get(ctx context.Context, userID, id string) (*entities.Appointment, error) {
	appointment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if appointment.PatientID != userID && appointment.DoctorID != userID {
		return nil, apperrors.NewForbiddenError("user is not part of this appointment")
	}
	return appointment, nil
}

// Confirm marks a pending appointment confirmed. Doctor only.
func (s *AppointmentService) Confirm(ctx context.Context, userID, id string) (*entities.Appointment, error) {
	appointment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if appointment.DoctorID != userID {
		return nil, apperrors.NewForbiddenError("only the doctor can confirm an appointment")
	}
	if appointment.Status != entities.AppointmentStatusPending {
		return nil, apperrors.NewInvalidStateError("appointment is not pending")
	}

	appointment.Status = entities.AppointmentStatusConfirmed
	if err := s.repo.Update(ctx, appointment); err != nil {
		return nil, err
	}
	return appointment, nil
}

// Cancel cancels an appointment. Either participant may cancel.
func (s *AppointmentService) Cancel(ctx context.Context, userID, id string) error {
	appointment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if appointment.PatientID != userID && appointment.DoctorID != userID {
		return apperrors.NewForbiddenError("user is not part of this appointment")
	}
	return s.repo.Cancel(ctx, id)
}

// ListByUser lists the acting user's appointments
func (s *AppointmentService) ListByUser(ctx context.Context, userID string, filter repositories.AppointmentFilter) ([]*entities.Appointment, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 50
	}
	appointments, err := s.repo.ListByUser(ctx, userID, filter)
	if err != nil {
		return nil, err
	}
	if appointments == nil {
		appointments = []*entities.Appointment{}
	}
	return appointments, nil
}
