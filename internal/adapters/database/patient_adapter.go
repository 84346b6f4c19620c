package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"

	"github.com/carebridge/telehealth-backend/internal/domain/entities"
	"github.com/carebridge/telehealth-backend/internal/domain/repositories"
	"github.com/carebridge/telehealth-backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/carebridge/telehealth-backend/pkg/errors"
)

var patientColumns = []interface{}{
	"id", "user_id", "date_of_birth", "gender", "blood_type", "allergies",
	"medical_history", "emergency_contact", "created_at", "updated_at",
}

// PatientAdapter implements the PatientRepository interface
type PatientAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewPatientAdapter creates a new patient profile adapter
func NewPatientAdapter(client *postgres.Client) repositories.PatientRepository {
	return &PatientAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create creates a new patient profile
func (a *PatientAdapter) Create(ctx context.Context, patient *entities.PatientProfile) error {
	record := goqu.Record{
		"id":                patient.ID,
		"user_id":           patient.UserID,
		"date_of_birth":     patient.DateOfBirth,
		"gender":            patient.Gender,
		"blood_type":        patient.BloodType,
		"allergies":         patient.Allergies,
		"medical_history":   patient.MedicalHistory,
		"emergency_contact": patient.EmergencyContact,
		"created_at":        patient.CreatedAt,
		"updated_at":        patient.UpdatedAt,
	}

	query, args, err := a.db.Insert("patient_profiles").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to create patient profile", err)
	}
	return nil
}

// GetByID retrieves a patient profile by ID
func (a *PatientAdapter) GetByID(ctx context.Context, id string) (*entities.PatientProfile, error) {
	return a.getOne(ctx, goqu.Ex{"id": id}, fmt.Sprintf("patient profile with id %s not found", id))
}

// GetByUserID retrieves a patient profile by the owning user ID
func (a *PatientAdapter) GetByUserID(ctx context.Context, userID string) (*entities.PatientProfile, error) {
	return a.getOne(ctx, goqu.Ex{"user_id": userID}, fmt.Sprintf("patient profile for user %s not found", userID))
}

func (a *PatientAdapter) getOne(ctx context.Context, where goqu.Ex, notFoundMsg string) (*entities.PatientProfile, error) {
	query, args, err := a.db.Select(patientColumns...).From("patient_profiles").Where(where).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	patient, err := scanPatient(a.client.DB().QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(notFoundMsg)
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get patient profile", err)
	}
	return patient, nil
}

// Update updates a patient profile
func (a *PatientAdapter) Update(ctx context.Context, patient *entities.PatientProfile) error {
	patient.UpdatedAt = time.Now()

	record := goqu.Record{
		"date_of_birth":     patient.DateOfBirth,
		"gender":            patient.Gender,
		"blood_type":        patient.BloodType,
		"allergies":         patient.Allergies,
		"medical_history":   patient.MedicalHistory,
		"emergency_contact": patient.EmergencyContact,
		"updated_at":        patient.UpdatedAt,
	}

	query, args, err := a.db.Update("patient_profiles").Set(record).Where(goqu.Ex{"id": patient.ID}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to update patient profile", err)
	}
	return requireRowsAffected(result, fmt.Sprintf("patient profile with id %s not found", patient.ID))
}

// Delete removes a patient profile
func (a *PatientAdapter) Delete(ctx context.Context, id string) error {
	query, args, err := a.db.Delete("patient_profiles").Where(goqu.Ex{"id": id}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build delete query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to delete patient profile", err)
	}
	return requireRowsAffected(result, fmt.Sprintf("patient profile with id %s not found", id))
}

// List retrieves patient profiles, newest first
func (a *PatientAdapter) List(ctx context.Context, limit, offset int) ([]*entities.PatientProfile, error) {
	ds := a.db.Select(patientColumns...).
		From("patient_profiles").
		Order(goqu.I("created_at").Desc())
	if limit > 0 {
		ds = ds.Limit(uint(limit))
	}
	if offset > 0 {
		ds = ds.Offset(uint(offset))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list patient profiles", err)
	}
	defer rows.Close()

	var patients []*entities.PatientProfile
	for rows.Next() {
		patient, err := scanPatient(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan patient profile", err)
		}
		patients = append(patients, patient)
	}
	return patients, nil
}

func scanPatient(row rowScanner) (*entities.PatientProfile, error) {
	patient := &entities.PatientProfile{}
	var dateOfBirth sql.NullTime

	err := row.Scan(
		&patient.ID,
		&patient.UserID,
		&dateOfBirth,
		&patient.Gender,
		&patient.BloodType,
		&patient.Allergies,
		&patient.MedicalHistory,
		&patient.EmergencyContact,
		&patient.CreatedAt,
		&patient.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if dateOfBirth.Valid {
		patient.DateOfBirth = &dateOfBirth.Time
	}
	return patient, nil
}
