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

var doctorColumns = []interface{}{
	"id", "user_id", "specialty", "license_number", "bio", "consultation_fee",
	"years_experience", "is_available", "created_at", "updated_at",
}

// DoctorAdapter implements the DoctorRepository interface
type DoctorAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewDoctorAdapter creates a new doctor profile adapter
func NewDoctorAdapter(client *postgres.Client) repositories.DoctorRepository {
	return &DoctorAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create creates a new doctor profile
func (a *DoctorAdapter) Create(ctx context.Context, doctor *entities.DoctorProfile) error {
	record := goqu.Record{
		"id":               doctor.ID,
		"user_id":          doctor.UserID,
		"specialty":        doctor.Specialty,
		"license_number":   doctor.LicenseNumber,
		"bio":              doctor.Bio,
		"consultation_fee": doctor.ConsultationFee,
		"years_experience": doctor.YearsExperience,
		"is_available":     doctor.IsAvailable,
		"created_at":       doctor.CreatedAt,
		"updated_at":       doctor.UpdatedAt,
	}

	query, args, err := a.db.Insert("doctor_profiles").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to create doctor profile", err)
	}
	return nil
}

// GetByID retrieves a doctor profile by ID
func (a *DoctorAdapter) GetByID(ctx context.Context, id string) (*entities.DoctorProfile, error) {
	return a.getOne(ctx, goqu.Ex{"id": id}, fmt.Sprintf("doctor profile with id %s not found", id))
}

// GetByUserID retrieves a doctor profile by the owning user ID
func (a *DoctorAdapter) GetByUserID(ctx context.Context, userID string) (*entities.DoctorProfile, error) {
	return a.getOne(ctx, goqu.Ex{"user_id": userID}, fmt.Sprintf("doctor profile for user %s not found", userID))
}

func (a *DoctorAdapter) getOne(ctx context.Context, where goqu.Ex, notFoundMsg string) (*entities.DoctorProfile, error) {
	query, args, err := a.db.Select(doctorColumns...).From("doctor_profiles").Where(where).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	doctor, err := scanDoctor(a.client.DB().QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(notFoundMsg)
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get doctor profile", err)
	}
	return doctor, nil
}

// Update updates a doctor profile
func (a *DoctorAdapter) Update(ctx context.Context, doctor *entities.DoctorProfile) error {
	doctor.UpdatedAt = time.Now()

	record := goqu.Record{
		"specialty":        doctor.Specialty,
		"license_number":   doctor.LicenseNumber,
		"bio":              doctor.Bio,
		"consultation_fee": doctor.ConsultationFee,
		"years_experience": doctor.YearsExperience,
		"is_available":     doctor.IsAvailable,
		"updated_at":       doctor.UpdatedAt,
	}

	query, args, err := a.db.Update("doctor_profiles").Set(record).Where(goqu.Ex{"id": doctor.ID}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to update doctor profile", err)
	}
	return requireRowsAffected(result, fmt.Sprintf("doctor profile with id %s not found", doctor.ID))
}

// Delete removes a doctor profile
func (a *DoctorAdapter) Delete(ctx context.Context, id string) error {
	query, args, err := a.db.Delete("doctor_profiles").Where(goqu.Ex{"id": id}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build delete query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to delete doctor profile", err)
	}
	return requireRowsAffected(result, fmt.Sprintf("doctor profile with id %s not found", id))
}

// List retrieves doctor profiles matching the filter
func (a *DoctorAdapter) List(ctx context.Context, filter repositories.DoctorFilter) ([]*entities.DoctorProfile, error) {
	ds := a.db.Select(doctorColumns...).From("doctor_profiles")

	if filter.Specialty != "" {
		ds = ds.Where(goqu.Ex{"specialty": filter.Specialty})
	}
	if filter.AvailableOnly {
		ds = ds.Where(goqu.Ex{"is_available": true})
	}
	ds = ds.Order(goqu.I("years_experience").Desc())
	if filter.Limit > 0 {
		ds = ds.Limit(uint(filter.Limit))
	}
	if filter.Offset > 0 {
		ds = ds.Offset(uint(filter.Offset))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list doctor profiles", err)
	}
	defer rows.Close()

	var doctors []*entities.DoctorProfile
	for rows.Next() {
		doctor, err := scanDoctor(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan doctor profile", err)
		}
		doctors = append(doctors, doctor)
	}
	return doctors, nil
}

func scanDoctor(row rowScanner) (*entities.DoctorProfile, error) {
	doctor := &entities.DoctorProfile{}
	err := row.Scan(
		&doctor.ID,
		&doctor.UserID,
		&doctor.Specialty,
		&doctor.LicenseNumber,
		&doctor.Bio,
		&doctor.ConsultationFee,
		&doctor.YearsExperience,
		&doctor.IsAvailable,
		&doctor.CreatedAt,
		&doctor.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return doctor, nil
}
