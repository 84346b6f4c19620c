package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/lib/pq"

	"github.com/carebridge/telehealth-backend/internal/domain/entities"
	"github.com/carebridge/telehealth-backend/internal/domain/repositories"
	"github.com/carebridge/telehealth-backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/carebridge/telehealth-backend/pkg/errors"
)

var fileColumns = []interface{}{
	"id", "file_name", "mime_type", "size", "url", "uploaded_by", "category",
	"patient_id", "appointment_id", "is_public", "tags", "metadata",
	"created_at", "updated_at",
}

// FileAdapter implements the FileRepository interface.
// Tags are stored as a text array, metadata as jsonb.
type FileAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewFileAdapter creates a new file metadata adapter
func NewFileAdapter(client *postgres.Client) repositories.FileRepository {
	return &FileAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create persists a new file metadata record
func (a *FileAdapter) Create(ctx context.Context, record *entities.FileRecord) error {
	metadata, err := marshalMetadata(record.Metadata)
	if err != nil {
		return err
	}

	row := goqu.Record{
		"id":             record.ID,
		"file_name":      record.FileName,
		"mime_type":      record.MimeType,
		"size":           record.Size,
		"url":            record.URL,
		"uploaded_by":    record.UploadedBy,
		"category":       record.Category,
		"patient_id":     record.PatientID,
		"appointment_id": record.AppointmentID,
		"is_public":      record.IsPublic,
		"tags":           pq.Array(record.Tags),
		"metadata":       metadata,
		"created_at":     record.CreatedAt,
		"updated_at":     record.UpdatedAt,
	}

	query, args, err := a.db.Insert("file_records").Rows(row).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to create file record", err)
	}
	return nil
}

// GetByID retrieves a file metadata record by ID
func (a *FileAdapter) GetByID(ctx context.Context, id string) (*entities.FileRecord, error) {
	query, args, err := a.db.Select(fileColumns...).
		From("file_records").
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	record, err := scanFileRecord(a.client.DB().QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("file record with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get file record", err)
	}
	return record, nil
}

// Update updates the mutable fields of a file metadata record
func (a *FileAdapter) Update(ctx context.Context, record *entities.FileRecord) error {
	record.UpdatedAt = time.Now()

	metadata, err := marshalMetadata(record.Metadata)
	if err != nil {
		return err
	}

	row := goqu.Record{
		"file_name":      record.FileName,
		"category":       record.Category,
		"patient_id":     record.PatientID,
		"appointment_id": record.AppointmentID,
		"is_public":      record.IsPublic,
		"tags":           pq.Array(record.Tags),
		"metadata":       metadata,
		"updated_at":     record.UpdatedAt,
	}

	query, args, err := a.db.Update("file_records").Set(row).Where(goqu.Ex{"id": record.ID}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to update file record", err)
	}
	return requireRowsAffected(result, fmt.Sprintf("file record with id %s not found", record.ID))
}

// Delete removes a file metadata record
func (a *FileAdapter) Delete(ctx context.Context, id string) error {
	query, args, err := a.db.Delete("file_records").Where(goqu.Ex{"id": id}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build delete query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to delete file record", err)
	}
	return requireRowsAffected(result, fmt.Sprintf("file record with id %s not found", id))
}

// ListByOwner retrieves file records uploaded by a user, newest first
func (a *FileAdapter) ListByOwner(ctx context.Context, ownerID string, filter repositories.FileFilter) ([]*entities.FileRecord, error) {
	ds := a.db.Select(fileColumns...).
		From("file_records").
		Where(goqu.Ex{"uploaded_by": ownerID})

	if filter.Category != "" {
		ds = ds.Where(goqu.Ex{"category": filter.Category})
	}
	if filter.PatientID != "" {
		ds = ds.Where(goqu.Ex{"patient_id": filter.PatientID})
	}
	if filter.PublicOnly {
		ds = ds.Where(goqu.Ex{"is_public": true})
	}
	ds = ds.Order(goqu.I("created_at").Desc())
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
		return nil, apperrors.NewInternalError("failed to list file records", err)
	}
	defer rows.Close()

	var records []*entities.FileRecord
	for rows.Next() {
		record, err := scanFileRecord(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan file record", err)
		}
		records = append(records, record)
	}
	return records, nil
}

func scanFileRecord(row rowScanner) (*entities.FileRecord, error) {
	record := &entities.FileRecord{}
	var patientID, appointmentID sql.NullString
	var metadata []byte

	err := row.Scan(
		&record.ID,
		&record.FileName,
		&record.MimeType,
		&record.Size,
		&record.URL,
		&record.UploadedBy,
		&record.Category,
		&patientID,
		&appointmentID,
		&record.IsPublic,
		pq.Array(&record.Tags),
		&metadata,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if patientID.Valid {
		record.PatientID = &patientID.String
	}
	if appointmentID.Valid {
		record.AppointmentID = &appointmentID.String
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &record.Metadata); err != nil {
			return nil, err
		}
	}
	return record, nil
}

func marshalMetadata(metadata map[string]string) ([]byte, error) {
	if metadata == nil {
		metadata = map[string]string{}
	}
	data, err := json.Marshal(metadata)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to marshal file metadata", err)
	}
	return data, nil
}
