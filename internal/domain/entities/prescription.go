package entities

import (
	"time"
)

// Prescription is written by the doctor when a consultation ends.
// Records are immutable.
type Prescription struct {
	ID               string    `json:"id" db:"id"`
	ConsultationID   string    `json:"consultation_id" db:"consultation_id"`
	PatientID        string    `json:"patient_id" db:"patient_id"`
	DoctorID         string    `json:"doctor_id" db:"doctor_id"`
	PrescriptionText string    `json:"prescription_text" db:"prescription_text"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
}
