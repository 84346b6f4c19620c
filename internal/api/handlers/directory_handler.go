package handlers

import (
	"net/http"

	"github.com/carebridge/telehealth-backend/internal/api/middleware"
	"github.com/carebridge/telehealth-backend/internal/application/services"
	"github.com/carebridge/telehealth-backend/internal/domain/entities"
	"github.com/carebridge/telehealth-backend/internal/domain/providers"
	"github.com/carebridge/telehealth-backend/internal/domain/repositories"
)

// DirectoryHandler handles doctor directory, patient profile, and care
// service catalog HTTP requests
type DirectoryHandler struct {
	directoryService *services.DirectoryService
}

// NewDirectoryHandler creates a new directory handler
func NewDirectoryHandler(directoryService *services.DirectoryService) *DirectoryHandler {
	return &DirectoryHandler{
		directoryService: directoryService,
	}
}

// ListDoctors handles GET /api/doctors
func (h *DirectoryHandler) ListDoctors(w http.ResponseWriter, r *http.Request) {
	limit, offset := paginationParams(r)
	filter := repositories.DoctorFilter{
		Specialty:     r.URL.Query().Get("specialty"),
		AvailableOnly: r.URL.Query().Get("available") == "true",
		Limit:         limit,
		Offset:        offset,
	}

	doctors, err := h.directoryService.ListDoctors(r.Context(), filter)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"doctors": doctors,
		"count":   len(doctors),
	})
}

// SearchDoctors handles GET /api/doctors/search
func (h *DirectoryHandler) SearchDoctors(w http.ResponseWriter, r *http.Request) {
	limit, offset := paginationParams(r)
	query := providers.DoctorSearchQuery{
		Query:         r.URL.Query().Get("q"),
		Specialty:     r.URL.Query().Get("specialty"),
		AvailableOnly: r.URL.Query().Get("available") == "true",
		Limit:         limit,
		Offset:        offset,
	}

	doctors, err := h.directoryService.SearchDoctors(r.Context(), query)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"doctors": doctors,
		"count":   len(doctors),
	})
}

// GetDoctor handles GET /api/doctors/{id}
func (h *DirectoryHandler) GetDoctor(w http.ResponseWriter, r *http.Request) {
	doctorID := r.PathValue("id")
	if doctorID == "" {
		respondWithError(w, http.StatusBadRequest, "doctor ID is required")
		return
	}

	doctor, err := h.directoryService.GetDoctor(r.Context(), doctorID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, doctor)
}

// UpdateDoctorProfile handles PUT /api/doctors/me
func (h *DirectoryHandler) UpdateDoctorProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	if middleware.RoleFromContext(r.Context()) != entities.RoleDoctor {
		respondWithError(w, http.StatusForbidden, "only doctors may edit a doctor profile")
		return
	}

	var profile entities.DoctorProfile
	if err := decodeJSON(r, &profile); err != nil {
		respondWithAppError(w, err)
		return
	}

	updated, err := h.directoryService.UpdateDoctor(r.Context(), userID, &profile)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, updated)
}

// GetPatientProfile handles GET /api/patients/{userId}
func (h *DirectoryHandler) GetPatientProfile(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	patientUserID := r.PathValue("userId")
	if patientUserID == "" {
		respondWithError(w, http.StatusBadRequest, "user ID is required")
		return
	}

	profile, err := h.directoryService.GetPatient(r.Context(), actorID, middleware.RoleFromContext(r.Context()), patientUserID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, profile)
}

// UpdatePatientProfile handles PUT /api/patients/me
func (h *DirectoryHandler) UpdatePatientProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var profile entities.PatientProfile
	if err := decodeJSON(r, &profile); err != nil {
		respondWithAppError(w, err)
		return
	}

	updated, err := h.directoryService.UpdatePatient(r.Context(), userID, &profile)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, updated)
}

// ListCareServices handles GET /api/services
func (h *DirectoryHandler) ListCareServices(w http.ResponseWriter, r *http.Request) {
	limit, offset := paginationParams(r)
	filter := repositories.CareServiceFilter{
		Category: r.URL.Query().Get("category"),
		Limit:    limit,
		Offset:   offset,
	}

	careServices, err := h.directoryService.ListCareServices(r.Context(), filter)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"services": careServices,
		"count":    len(careServices),
	})
}

// GetCareService handles GET /api/services/{id}
func (h *DirectoryHandler) GetCareService(w http.ResponseWriter, r *http.Request) {
	serviceID := r.PathValue("id")
	if serviceID == "" {
		respondWithError(w, http.StatusBadRequest, "service ID is required")
		return
	}

	careService, err := h.directoryService.GetCareService(r.Context(), serviceID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, careService)
}

// CreateCareService handles POST /api/admin/services
func (h *DirectoryHandler) CreateCareService(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.UserIDFromContext(r.Context()); !ok {
		respondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var careService entities.CareService
	if err := decodeJSON(r, &careService); err != nil {
		respondWithAppError(w, err)
		return
	}

	created, err := h.directoryService.CreateCareService(r.Context(), middleware.RoleFromContext(r.Context()), &careService)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, created)
}

// UpdateCareService handles PUT /api/admin/services/{id}
func (h *DirectoryHandler) UpdateCareService(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.UserIDFromContext(r.Context()); !ok {
		respondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	serviceID := r.PathValue("id")
	if serviceID == "" {
		respondWithError(w, http.StatusBadRequest, "service ID is required")
		return
	}

	var careService entities.CareService
	if err := decodeJSON(r, &careService); err != nil {
		respondWithAppError(w, err)
		return
	}
	careService.ID = serviceID

	updated, err := h.directoryService.UpdateCareService(r.Context(), middleware.RoleFromContext(r.Context()), &careService)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, updated)
}
