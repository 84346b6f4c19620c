package entities

import (
	"time"
)

// Role represents a user's role on the platform
type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
	RoleAdmin   Role = "admin"
)

// ValidRole reports whether r is a known role.
func ValidRole(r Role) bool {
	switch r {
	case RolePatient, RoleDoctor, RoleAdmin:
		return true
	}
	return false
}

// User represents a platform account. Accounts are never hard-deleted;
// deactivation flips IsActive.
type User struct {
	ID           string     `json:"id" db:"id"`
	Email        string     `json:"email" db:"email"`
	PasswordHash string     `json:"-" db:"password_hash"`
	FirstName    string     `json:"first_name" db:"first_name"`
	LastName     string     `json:"last_name" db:"last_name"`
	Role         Role       `json:"role" db:"role"`
	IsActive     bool       `json:"is_active" db:"is_active"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty" db:"last_login_at"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

// DisplayName returns the name shown alongside messages.
func (u *User) DisplayName() string {
	if u.FirstName == "" && u.LastName == "" {
		return u.Email
	}
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// DoctorProfile holds doctor-specific attributes linked to a user account.
type DoctorProfile struct {
	ID              string    `json:"id" db:"id"`
	UserID          string    `json:"user_id" db:"user_id"`
	Specialty       string    `json:"specialty" db:"specialty"`
	LicenseNumber   string    `json:"license_number" db:"license_number"`
	Bio             string    `json:"bio" db:"bio"`
	ConsultationFee float64   `json:"consultation_fee" db:"consultation_fee"`
	YearsExperience int       `json:"years_experience" db:"years_experience"`
	IsAvailable     bool      `json:"is_available" db:"is_available"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

// PatientProfile holds patient-specific attributes linked to a user account.
type PatientProfile struct {
	ID               string     `json:"id" db:"id"`
	UserID           string     `json:"user_id" db:"user_id"`
	DateOfBirth      *time.Time `json:"date_of_birth,omitempty" db:"date_of_birth"`
	Gender           string     `json:"gender" db:"gender"`
	BloodType        string     `json:"blood_type" db:"blood_type"`
	Allergies        string     `json:"allergies" db:"allergies"`
	MedicalHistory   string     `json:"medical_history" db:"medical_history"`
	EmergencyContact string     `json:"emergency_contact" db:"emergency_contact"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at" db:"updated_at"`
}
