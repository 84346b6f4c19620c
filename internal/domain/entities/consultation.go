package entities

import (
	"time"
)

// ConsultationStatus represents the lifecycle state of a consultation.
// Transitions are monotonic: created -> active -> completed.
type ConsultationStatus string

const (
	ConsultationStatusCreated   ConsultationStatus = "created"
	ConsultationStatusActive    ConsultationStatus = "active"
	ConsultationStatusCompleted ConsultationStatus = "completed"
)

// ConsultationType represents the consultation medium
type ConsultationType string

const (
	ConsultationTypeVideo ConsultationType = "video"
	ConsultationTypeAudio ConsultationType = "audio"
	ConsultationTypeChat  ConsultationType = "chat"
)

// ValidConsultationType reports whether t is a known consultation type.
func ValidConsultationType(t ConsultationType) bool {
	switch t {
	case ConsultationTypeVideo, ConsultationTypeAudio, ConsultationTypeChat:
		return true
	}
	return false
}

// Consultation represents a session between one patient and one doctor.
// The participant set is exactly {PatientID, DoctorID} for its lifetime.
type Consultation struct {
	ID            string             `json:"id" db:"id"`
	PatientID     string             `json:"patient_id" db:"patient_id"`
	DoctorID      string             `json:"doctor_id" db:"doctor_id"`
	AppointmentID string             `json:"appointment_id" db:"appointment_id"`
	Type          ConsultationType   `json:"type" db:"type"`
	Status        ConsultationStatus `json:"status" db:"status"`
	Notes         string             `json:"notes" db:"notes"`
	StartedAt     *time.Time         `json:"started_at,omitempty" db:"started_at"`
	EndedAt       *time.Time         `json:"ended_at,omitempty" db:"ended_at"`
	CreatedAt     time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at" db:"updated_at"`
}

// Participants returns the fixed participant set.
func (c *Consultation) Participants() []string {
	return []string{c.PatientID, c.DoctorID}
}

// HasParticipant reports whether userID may act within this consultation.
func (c *Consultation) HasParticipant(userID string) bool {
	return userID == c.PatientID || userID == c.DoctorID
}
