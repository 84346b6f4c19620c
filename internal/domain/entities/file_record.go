package entities

import (
	"time"
)

// FileCategory groups uploaded files
type FileCategory string

const (
	FileCategoryLabResult    FileCategory = "lab_result"
	FileCategoryPrescription FileCategory = "prescription"
	FileCategoryImaging      FileCategory = "imaging"
	FileCategoryDocument     FileCategory = "document"
	FileCategoryOther        FileCategory = "other"
)

// FileRecord is file metadata; binary storage lives elsewhere and is
// referenced by URL. Category, tags, and visibility are mutable by the
// owner only.
type FileRecord struct {
	ID            string            `json:"id" db:"id"`
	FileName      string            `json:"file_name" db:"file_name"`
	MimeType      string            `json:"mime_type" db:"mime_type"`
	Size          int64             `json:"size" db:"size"`
	URL           string            `json:"url" db:"url"`
	UploadedBy    string            `json:"uploaded_by" db:"uploaded_by"`
	Category      FileCategory      `json:"category" db:"category"`
	PatientID     *string           `json:"patient_id,omitempty" db:"patient_id"`
	AppointmentID *string           `json:"appointment_id,omitempty" db:"appointment_id"`
	IsPublic      bool              `json:"is_public" db:"is_public"`
	Tags          []string          `json:"tags" db:"tags"`
	Metadata      map[string]string `json:"metadata" db:"metadata"`
	CreatedAt     time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at" db:"updated_at"`
}

// CanRead reports whether a user may read this record.
func (f *FileRecord) CanRead(userID string, role Role) bool {
	if f.IsPublic || role == RoleAdmin || f.UploadedBy == userID {
		return true
	}
	return f.PatientID != nil && *f.PatientID == userID
}

// CanMutate reports whether a user may update or delete this record.
func (f *FileRecord) CanMutate(userID string) bool {
	return f.UploadedBy == userID
}
