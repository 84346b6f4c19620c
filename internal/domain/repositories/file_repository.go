package repositories

import (
	"context"

	"github.com/carebridge/telehealth-backend/internal/domain/entities"
)

// FileFilter narrows file metadata listings
type FileFilter struct {
	Category   entities.FileCategory
	PatientID  string
	PublicOnly bool
	Limit      int
	Offset     int
}

// FileRepository defines data access for file metadata records
type FileRepository interface {
	Create(ctx context.Context, record *entities.FileRecord) error
	GetByID(ctx context.Context, id string) (*entities.FileRecord, error)
	Update(ctx context.Context, record *entities.FileRecord) error
	Delete(ctx context.Context, id string) error
	ListByOwner(ctx context.Context, ownerID string, filter FileFilter) ([]*entities.FileRecord, error)
}
