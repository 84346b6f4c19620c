package database

import (
	"context"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"

	"github.com/carebridge/telehealth-backend/internal/domain/entities"
	"github.com/carebridge/telehealth-backend/internal/domain/repositories"
	"github.com/carebridge/telehealth-backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/carebridge/telehealth-backend/pkg/errors"
)

var prescriptionColumns = []interface{}{
	"id", "consultation_id", "patient_id", "doctor_id",
	"prescription_text", "created_at",
}

// PrescriptionAdapter implements the PrescriptionRepository interface.
// prescriptions is insert-only.
type PrescriptionAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewPrescriptionAdapter creates a new prescription adapter
func NewPrescriptionAdapter(client *postgres.Client) repositories.PrescriptionRepository {
	return &PrescriptionAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create persists a new immutable prescription
func (a *PrescriptionAdapter) Create(ctx context.Context, prescription *entities.Prescription) error {
	record := goqu.Record{
		"id":                prescription.ID,
		"consultation_id":   prescription.ConsultationID,
		"patient_id":        prescription.PatientID,
		"doctor_id":         prescription.DoctorID,
		"prescription_text": prescription.PrescriptionText,
		"created_at":        prescription.CreatedAt,
	}

	query, args, err := a.db.Insert("prescriptions").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to create prescription", err)
	}
	return nil
}

// ListByConsultation retrieves prescriptions for a consultation
func (a *PrescriptionAdapter) ListByConsultation(ctx context.Context, consultationID string) ([]*entities.Prescription, error) {
	ds := a.db.Select(prescriptionColumns...).
		From("prescriptions").
		Where(goqu.Ex{"consultation_id": consultationID}).
		Order(goqu.I("created_at").Asc())
	return a.list(ctx, ds)
}

// ListByPatient retrieves a patient's prescriptions, newest first
func (a *PrescriptionAdapter) ListByPatient(ctx context.Context, patientID string, limit, offset int) ([]*entities.Prescription, error) {
	ds := a.db.Select(prescriptionColumns...).
		From("prescriptions").
		Where(goqu.Ex{"patient_id": patientID}).
		Order(goqu.I("created_at").Desc())
	if limit > 0 {
		ds = ds.Limit(uint(limit))
	}
	if offset > 0 {
		ds = ds.Offset(uint(offset))
	}
	return a.list(ctx, ds)
}

func (a *PrescriptionAdapter) list(ctx context.Context, ds *goqu.SelectDataset) ([]*entities.Prescription, error) {
	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list prescriptions", err)
	}
	defer rows.Close()

	var prescriptions []*entities.Prescription
	for rows.Next() {
		prescription := &entities.Prescription{}
		err := rows.Scan(
			&prescription.ID,
			&prescription.ConsultationID,
			&prescription.PatientID,
			&prescription.DoctorID,
			&prescription.PrescriptionText,
			&prescription.CreatedAt,
		)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan prescription", err)
		}
		prescriptions = append(prescriptions, prescription)
	}
	return prescriptions, nil
}
