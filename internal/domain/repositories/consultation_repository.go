package repositories

import (
	"context"
	"time"

	"github.com/carebridge/telehealth-backend/internal/domain/entities"
)

// ConsultationRepository defines data access for consultations.
//
// State transitions are keyed updates guarded by the current status, so
// concurrent joins collapse to the same active row.
type ConsultationRepository interface {
	Create(ctx context.Context, consultation *entities.Consultation) error
	GetByID(ctx context.Context, id string) (*entities.Consultation, error)

	// MarkActive transitions created -> active and stamps started_at.
	// Returns false without error when the consultation was already active.
	MarkActive(ctx context.Context, id string, startedAt time.Time) (bool, error)

	// Complete transitions to completed, stamping ended_at and notes.
	Complete(ctx context.Context, id string, notes string, endedAt time.Time) error

	// ListByUser returns consultations where the user is patient or doctor,
	// newest first, plus the total count for pagination.
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*entities.Consultation, int, error)
}

// MessageFilter narrows message history pages
type MessageFilter struct {
	Limit  int
	Before time.Time
}

// MessageRepository defines data access for consultation messages.
// Messages are insert-only.
type MessageRepository interface {
	Create(ctx context.Context, message *entities.Message) error
	// ListByConsultation returns messages in ascending timestamp order,
	// each enriched with the sender display name.
	ListByConsultation(ctx context.Context, consultationID string, filter MessageFilter) ([]*entities.Message, error)
}

// PrescriptionRepository defines data access for prescriptions.
// Records are insert-only.
type PrescriptionRepository interface {
	Create(ctx context.Context, prescription *entities.Prescription) error
	ListByConsultation(ctx context.Context, consultationID string) ([]*entities.Prescription, error)
	ListByPatient(ctx context.Context, patientID string, limit, offset int) ([]*entities.Prescription, error)
}
