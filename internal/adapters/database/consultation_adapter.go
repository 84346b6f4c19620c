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

var consultationColumns = []interface{}{
	"id", "patient_id", "doctor_id", "appointment_id", "type", "status",
	"notes", "started_at", "ended_at", "created_at", "updated_at",
}

// ConsultationAdapter implements the ConsultationRepository interface
type ConsultationAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewConsultationAdapter creates a new consultation adapter
func NewConsultationAdapter(client *postgres.Client) repositories.ConsultationRepository {
	return &ConsultationAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create creates a new consultation
func (a *ConsultationAdapter) Create(ctx context.Context, consultation *entities.Consultation) error {
	record := goqu.Record{
		"id":             consultation.ID,
		"patient_id":     consultation.PatientID,
		"doctor_id":      consultation.DoctorID,
		"appointment_id": consultation.AppointmentID,
		"type":           consultation.Type,
		"status":         consultation.Status,
		"notes":          consultation.Notes,
		"started_at":     consultation.StartedAt,
		"ended_at":       consultation.EndedAt,
		"created_at":     consultation.CreatedAt,
		"updated_at":     consultation.UpdatedAt,
	}

	query, args, err := a.db.Insert("consultations").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to create consultation", err)
	}
	return nil
}

// GetByID retrieves a consultation by ID
func (a *ConsultationAdapter) GetByID(ctx context.Context, id string) (*entities.Consultation, error) {
	query, args, err := a.db.Select(consultationColumns...).
		From("consultations").
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	consultation, err := scanConsultation(a.client.DB().QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("consultation with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get consultation", err)
	}
	return consultation, nil
}

// MarkActive transitions created -> active with a status-guarded keyed
// update, so concurrent joins collapse to a single transition.
func (a *ConsultationAdapter) MarkActive(ctx context.Context, id string, startedAt time.Time) (bool, error) {
	query, args, err := a.db.Update("consultations").
		Set(goqu.Record{
			"status":     entities.ConsultationStatusActive,
			"started_at": startedAt,
			"updated_at": time.Now(),
		}).
		Where(goqu.Ex{
			"id":     id,
			"status": entities.ConsultationStatusCreated,
		}).
		ToSQL()
	if err != nil {
		return false, apperrors.NewInternalError("failed to build activate query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return false, apperrors.NewInternalError("failed to activate consultation", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, apperrors.NewInternalError("failed to get rows affected", err)
	}
	return rowsAffected > 0, nil
}

// Complete transitions a consultation to completed
func (a *ConsultationAdapter) Complete(ctx context.Context, id string, notes string, endedAt time.Time) error {
	query, args, err := a.db.Update("consultations").
		Set(goqu.Record{
			"status":     entities.ConsultationStatusCompleted,
			"notes":      notes,
			"ended_at":   endedAt,
			"updated_at": time.Now(),
		}).
		Where(goqu.Ex{"id": id}).
		Where(goqu.C("status").Neq(entities.ConsultationStatusCompleted)).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build complete query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to complete consultation", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewInvalidStateError(fmt.Sprintf("consultation %s is already completed", id))
	}
	return nil
}

// ListByUser retrieves consultations where the user is patient or doctor,
// newest first, with the total count.
func (a *ConsultationAdapter) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*entities.Consultation, int, error) {
	participant := goqu.Or(
		goqu.Ex{"patient_id": userID},
		goqu.Ex{"doctor_id": userID},
	)

	countQuery, countArgs, err := a.db.Select(goqu.COUNT("*")).
		From("consultations").
		Where(participant).
		ToSQL()
	if err != nil {
		return nil, 0, apperrors.NewInternalError("failed to build count query", err)
	}

	var total int
	if err := a.client.DB().QueryRowContext(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, apperrors.NewInternalError("failed to count consultations", err)
	}

	ds := a.db.Select(consultationColumns...).
		From("consultations").
		Where(participant).
		Order(goqu.I("created_at").Desc())
	if limit > 0 {
		ds = ds.Limit(uint(limit))
	}
	if offset > 0 {
		ds = ds.Offset(uint(offset))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, 0, apperrors.NewInternalError("failed to build list query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, apperrors.NewInternalError("failed to list consultations", err)
	}
	defer rows.Close()

	var consultations []*entities.Consultation
	for rows.Next() {
		consultation, err := scanConsultation(rows)
		if err != nil {
			return nil, 0, apperrors.NewInternalError("failed to scan consultation", err)
		}
		consultations = append(consultations, consultation)
	}
	return consultations, total, nil
}

func scanConsultation(row rowScanner) (*entities.Consultation, error) {
	consultation := &entities.Consultation{}
	var startedAt, endedAt sql.NullTime

	err := row.Scan(
		&consultation.ID,
		&consultation.PatientID,
		&consultation.DoctorID,
		&consultation.AppointmentID,
		&consultation.Type,
		&consultation.Status,
		&consultation.Notes,
		&startedAt,
		&endedAt,
		&consultation.CreatedAt,
		&consultation.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if startedAt.Valid {
		consultation.StartedAt = &startedAt.Time
	}
	if endedAt.Valid {
		consultation.EndedAt = &endedAt.Time
	}
	return consultation, nil
}
