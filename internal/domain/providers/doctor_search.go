package providers

import (
	"context"
)

// DoctorDocument is the searchable projection of a doctor profile
type DoctorDocument struct {
	ID              string  `json:"id"`
	UserID          string  `json:"user_id"`
	Name            string  `json:"name"`
	Specialty       string  `json:"specialty"`
	Bio             string  `json:"bio"`
	ConsultationFee float64 `json:"consultation_fee"`
	YearsExperience int     `json:"years_experience"`
	IsAvailable     bool    `json:"is_available"`
	CreatedAt       int64   `json:"created_at"`
}

// DoctorSearchQuery carries directory search parameters
type DoctorSearchQuery struct {
	Query         string
	Specialty     string
	AvailableOnly bool
	Limit         int
	Offset        int
}

// DoctorSearchIndex defines the search engine binding for the doctor
// directory
type DoctorSearchIndex interface {
	Index(ctx context.Context, doc *DoctorDocument) error
	Remove(ctx context.Context, id string) error
	Search(ctx context.Context, query DoctorSearchQuery) ([]*DoctorDocument, error)
}
