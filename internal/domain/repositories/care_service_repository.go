package repositories

import (
	"context"

	"github.com/carebridge/telehealth-backend/internal/domain/entities"
)

// CareServiceFilter narrows catalog listings
type CareServiceFilter struct {
	Category   string
	ActiveOnly bool
	Limit      int
	Offset     int
}

// CareServiceRepository defines data access for the care service catalog
type CareServiceRepository interface {
	Create(ctx context.Context, service *entities.CareService) error
	GetByID(ctx context.Context, id string) (*entities.CareService, error)
	Update(ctx context.Context, service *entities.CareService) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter CareServiceFilter) ([]*entities.CareService, error)
}
