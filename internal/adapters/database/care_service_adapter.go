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

var careServiceColumns = []interface{}{
	"id", "name", "description", "category", "price",
	"duration_minutes", "is_active", "created_at", "updated_at",
}

// CareServiceAdapter implements the CareServiceRepository interface
type CareServiceAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewCareServiceAdapter creates a new care service adapter
func NewCareServiceAdapter(client *postgres.Client) repositories.CareServiceRepository {
	return &CareServiceAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create creates a new care service
func (a *CareServiceAdapter) Create(ctx context.Context, service *entities.CareService) error {
	record := goqu.Record{
		"id":               service.ID,
		"name":             service.Name,
		"description":      service.Description,
		"category":         service.Category,
		"price":            service.Price,
		"duration_minutes": service.DurationMinutes,
		"is_active":        service.IsActive,
		"created_at":       service.CreatedAt,
		"updated_at":       service.UpdatedAt,
	}

	query, args, err := a.db.Insert("care_services").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to create care service", err)
	}
	return nil
}

// GetByID retrieves a care service by ID
func (a *CareServiceAdapter) GetByID(ctx context.Context, id string) (*entities.CareService, error) {
	query, args, err := a.db.Select(careServiceColumns...).
		From("care_services").
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	service, err := scanCareService(a.client.DB().QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("care service with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get care service", err)
	}
	return service, nil
}

// Update updates a care service
func (a *CareServiceAdapter) Update(ctx context.Context, service *entities.CareService) error {
	service.UpdatedAt = time.Now()

	record := goqu.Record{
		"name":             service.Name,
		"description":      service.Description,
		"category":         service.Category,
		"price":            service.Price,
		"duration_minutes": service.DurationMinutes,
		"is_active":        service.IsActive,
		"updated_at":       service.UpdatedAt,
	}

	query, args, err := a.db.Update("care_services").Set(record).Where(goqu.Ex{"id": service.ID}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to update care service", err)
	}
	return requireRowsAffected(result, fmt.Sprintf("care service with id %s not found", service.ID))
}

// Delete removes a care service from the catalog
func (a *CareServiceAdapter) Delete(ctx context.Context, id string) error {
	query, args, err := a.db.Delete("care_services").Where(goqu.Ex{"id": id}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build delete query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to delete care service", err)
	}
	return requireRowsAffected(result, fmt.Sprintf("care service with id %s not found", id))
}

// List retrieves catalog entries matching the filter
func (a *CareServiceAdapter) List(ctx context.Context, filter repositories.CareServiceFilter) ([]*entities.CareService, error) {
	ds := a.db.Select(careServiceColumns...).From("care_services")

	if filter.ActiveOnly {
		ds = ds.Where(goqu.Ex{"is_active": true})
	}
	if filter.Category != "" {
		ds = ds.Where(goqu.Ex{"category": filter.Category})
	}
	ds = ds.Order(goqu.I("name").Asc())
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
		return nil, apperrors.NewInternalError("failed to list care services", err)
	}
	defer rows.Close()

	var services []*entities.CareService
	for rows.Next() {
		service, err := scanCareService(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan care service", err)
		}
		services = append(services, service)
	}
	return services, nil
}

func scanCareService(row rowScanner) (*entities.CareService, error) {
	service := &entities.CareService{}
	err := row.Scan(
		&service.ID,
		&service.Name,
		&service.Description,
		&service.Category,
		&service.Price,
		&service.DurationMinutes,
		&service.IsActive,
		&service.CreatedAt,
		&service.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return service, nil
}
