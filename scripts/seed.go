package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/carebridge/telehealth-backend/internal/adapters/database"
	"github.com/carebridge/telehealth-backend/internal/adapters/search"
	"github.com/carebridge/telehealth-backend/internal/domain/entities"
	"github.com/carebridge/telehealth-backend/internal/domain/providers"
	"github.com/carebridge/telehealth-backend/internal/infrastructure/clients/postgres"
	"github.com/carebridge/telehealth-backend/internal/infrastructure/clients/typesense"
	"github.com/carebridge/telehealth-backend/pkg/config"
	"github.com/carebridge/telehealth-backend/pkg/password"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer pgClient.Close()

	var searchIndex *search.DoctorSearchAdapter
	if cfg.Typesense.Enabled {
		tsClient, err := typesense.NewClient(&cfg.Typesense)
		if err == nil {
			if err := tsClient.InitSchema(context.Background()); err != nil {
				log.Printf("Failed to init Typesense schema: %v", err)
			}
			searchIndex = search.NewDoctorSearchAdapter(tsClient)
		}
	}

	userRepo := database.NewUserAdapter(pgClient)
	doctorRepo := database.NewDoctorAdapter(pgClient)
	patientRepo := database.NewPatientAdapter(pgClient)
	serviceRepo := database.NewCareServiceAdapter(pgClient)

	ctx := context.Background()

	if os.Getenv("RESET_DB") == "true" {
		log.Println("RESET_DB=true detected, truncating tables before seeding")
		_, err := pgClient.DB().ExecContext(ctx, `
			TRUNCATE TABLE
				file_records,
				prescriptions,
				consultation_messages,
				consultations,
				appointments,
				care_services,
				patient_profiles,
				doctor_profiles,
				users
			RESTART IDENTITY CASCADE
		`)
		if err != nil {
			log.Fatalf("Failed to reset tables: %v", err)
		}
	}

	hasher := password.NewHasher()
	hash, err := hasher.Hash("Password123!")
	if err != nil {
		log.Fatalf("Failed to hash seed password: %v", err)
	}

	// 1. Seed doctor accounts with profiles
	doctors := []struct {
		email      string
		first      string
		last       string
		specialty  string
		license    string
		bio        string
		fee        float64
		experience int
	}{
		{"amara.obi@carebridge.example", "Amara", "Obi", "General Practice", "MDCN-48211", "Family medicine with a focus on preventive care.", 15000, 12},
		{"tunde.bakare@carebridge.example", "Tunde", "Bakare", "Cardiology", "MDCN-30754", "Consultant cardiologist, hypertension and heart failure clinics.", 35000, 18},
		{"ngozi.eze@carebridge.example", "Ngozi", "Eze", "Pediatrics", "MDCN-51932", "Pediatrician covering newborn through adolescent care.", 20000, 9},
		{"kemi.adeyemi@carebridge.example", "Kemi", "Adeyemi", "Dermatology", "MDCN-44108", "Skin, hair and nail conditions, teledermatology friendly.", 25000, 7},
	}

	for _, d := range doctors {
		now := time.Now()
		user := &entities.User{
			ID:           uuid.New().String(),
			Email:        d.email,
			PasswordHash: hash,
			FirstName:    d.first,
			LastName:     d.last,
			Role:         entities.RoleDoctor,
			IsActive:     true,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := userRepo.Create(ctx, user); err != nil {
			log.Printf("Failed to create doctor account %s: %v", d.email, err)
			continue
		}

		profile := &entities.DoctorProfile{
			ID:              uuid.New().String(),
			UserID:          user.ID,
			Specialty:       d.specialty,
			LicenseNumber:   d.license,
			Bio:             d.bio,
			ConsultationFee: d.fee,
			YearsExperience: d.experience,
			IsAvailable:     true,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := doctorRepo.Create(ctx, profile); err != nil {
			log.Printf("Failed to create doctor profile for %s: %v", d.email, err)
			continue
		}

		if searchIndex != nil {
			doc := &providers.DoctorDocument{
				ID:              profile.ID,
				UserID:          profile.UserID,
				Name:            user.DisplayName(),
				Specialty:       profile.Specialty,
				Bio:             profile.Bio,
				ConsultationFee: profile.ConsultationFee,
				YearsExperience: profile.YearsExperience,
				IsAvailable:     profile.IsAvailable,
				CreatedAt:       profile.CreatedAt.Unix(),
			}
			if err := searchIndex.Index(ctx, doc); err != nil {
				log.Printf("Failed to index doctor %s: %v", d.email, err)
			}
		}
	}

	// 2. Seed a patient account
	now := time.Now()
	dob := time.Date(1991, 4, 23, 0, 0, 0, 0, time.UTC)
	patient := &entities.User{
		ID:           uuid.New().String(),
		Email:        "ada.nwosu@example.com",
		PasswordHash: hash,
		FirstName:    "Ada",
		LastName:     "Nwosu",
		Role:         entities.RolePatient,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := userRepo.Create(ctx, patient); err != nil {
		log.Printf("Failed to create patient account: %v", err)
	} else {
		profile := &entities.PatientProfile{
			ID:          uuid.New().String(),
			UserID:      patient.ID,
			DateOfBirth: &dob,
			Gender:      "female",
			BloodType:   "O+",
			Allergies:   "penicillin",
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := patientRepo.Create(ctx, profile); err != nil {
			log.Printf("Failed to create patient profile: %v", err)
		}
	}

	// 3. Seed the care service catalog
	careServices := []entities.CareService{
		{ID: uuid.New().String(), Name: "General Consultation", Description: "30 minute video or chat consultation with a GP", Category: "consultation", Price: 15000, DurationMinutes: 30, IsActive: true, CreatedAt: time.Now(), UpdatedAt: time.Now()},
		{ID: uuid.New().String(), Name: "Follow-up Visit", Description: "15 minute follow-up on an earlier consultation", Category: "consultation", Price: 7500, DurationMinutes: 15, IsActive: true, CreatedAt: time.Now(), UpdatedAt: time.Now()},
		{ID: uuid.New().String(), Name: "Lab Result Review", Description: "Review of uploaded lab results with a doctor", Category: "diagnostics", Price: 10000, DurationMinutes: 20, IsActive: true, CreatedAt: time.Now(), UpdatedAt: time.Now()},
		{ID: uuid.New().String(), Name: "Mental Health Session", Description: "45 minute session with a licensed therapist", Category: "mental-health", Price: 30000, DurationMinutes: 45, IsActive: true, CreatedAt: time.Now(), UpdatedAt: time.Now()},
	}

	for _, s := range careServices {
		svc := s
		if err := serviceRepo.Create(ctx, &svc); err != nil {
			log.Printf("Failed to create care service %s: %v", svc.Name, err)
		}
	}

	log.Println("Seeding complete")
}
