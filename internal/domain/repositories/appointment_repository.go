package repositories

import (
	"context"
	"time"

	"github.com/carebridge/telehealth-backend/internal/domain/entities"
)

// AppointmentFilter narrows appointment listings
type AppointmentFilter struct {
	Status entities.AppointmentStatus
	From   *time.Time
	To     *time.Time
	Limit  int
	Offset int
}

// AppointmentRepository defines data access for appointments
type AppointmentRepository interface {
	Create(ctx context.Context, appointment *entities.Appointment) error
	GetByID(ctx context.Context, id string) (*entities.Appointment, error)
	Update(ctx context.Context, appointment *entities.Appointment) error
	Cancel(ctx context.Context, id string) error
	// ListByUser matches appointments where the user is patient or doctor.
	ListByUser(ctx context.Context, userID string, filter AppointmentFilter) ([]*entities.Appointment, error)
}
