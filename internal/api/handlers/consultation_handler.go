package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/carebridge/telehealth-backend/internal/api/middleware"
	"github.com/carebridge/telehealth-backend/internal/application/services"
	"github.com/carebridge/telehealth-backend/internal/domain/entities"
	"github.com/carebridge/telehealth-backend/internal/domain/repositories"
	"github.com/carebridge/telehealth-backend/internal/infrastructure/observability"
)

// ConsultationHandler handles consultation HTTP requests
type ConsultationHandler struct {
	consultationService *services.ConsultationService
	metrics             *observability.Metrics
}

// NewConsultationHandler creates a new consultation handler
func NewConsultationHandler(consultationService *services.ConsultationService, metrics *observability.Metrics) *ConsultationHandler {
	return &ConsultationHandler{
		consultationService: consultationService,
		metrics:             metrics,
	}
}

// Create handles POST /api/consultations
func (h *ConsultationHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var input services.CreateConsultationInput
	if err := decodeJSON(r, &input); err != nil {
		respondWithAppError(w, err)
		return
	}

	consultation, err := h.consultationService.Create(r.Context(), userID, input)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, consultation)
}

// Get handles GET /api/consultations/{id}
func (h *ConsultationHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	consultationID := r.PathValue("id")
	if consultationID == "" {
		respondWithError(w, http.StatusBadRequest, "consultation ID is required")
		return
	}

	consultation, err := h.consultationService.Get(r.Context(), userID, consultationID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, consultation)
}

// List handles GET /api/consultations
func (h *ConsultationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	limit, offset := paginationParams(r)
	consultations, total, err := h.consultationService.ListByUser(r.Context(), userID, limit, offset)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"consultations": consultations,
		"total":         total,
	})
}

// Join handles POST /api/consultations/{id}/join
func (h *ConsultationHandler) Join(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	consultationID := r.PathValue("id")
	if consultationID == "" {
		respondWithError(w, http.StatusBadRequest, "consultation ID is required")
		return
	}

	result, err := h.consultationService.Join(r.Context(), userID, consultationID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

// End handles POST /api/consultations/{id}/end
func (h *ConsultationHandler) End(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	consultationID := r.PathValue("id")
	if consultationID == "" {
		respondWithError(w, http.StatusBadRequest, "consultation ID is required")
		return
	}

	var input services.EndConsultationInput
	if err := decodeJSON(r, &input); err != nil {
		respondWithAppError(w, err)
		return
	}

	consultation, err := h.consultationService.End(r.Context(), userID, consultationID, input)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, consultation)
}

// SendMessage handles POST /api/consultations/{id}/messages
func (h *ConsultationHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	consultationID := r.PathValue("id")
	if consultationID == "" {
		respondWithError(w, http.StatusBadRequest, "consultation ID is required")
		return
	}

	var input struct {
		Content string               `json:"content"`
		Type    entities.MessageType `json:"type"`
	}
	if err := decodeJSON(r, &input); err != nil {
		respondWithAppError(w, err)
		return
	}

	message, err := h.consultationService.SendMessage(r.Context(), userID, consultationID, input.Content, input.Type)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.MessagesSent.Add(r.Context(), 1)
	}

	respondWithJSON(w, http.StatusCreated, message)
}

// History handles GET /api/consultations/{id}/messages
func (h *ConsultationHandler) History(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	consultationID := r.PathValue("id")
	if consultationID == "" {
		respondWithError(w, http.StatusBadRequest, "consultation ID is required")
		return
	}

	filter := repositories.MessageFilter{}
	if limit := r.URL.Query().Get("limit"); limit != "" {
		if parsed, err := strconv.Atoi(limit); err == nil {
			filter.Limit = parsed
		}
	}
	if before := r.URL.Query().Get("before"); before != "" {
		parsed, err := time.Parse(time.RFC3339, before)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "before must be an RFC3339 timestamp")
			return
		}
		filter.Before = parsed
	}

	messages, err := h.consultationService.History(r.Context(), userID, consultationID, filter)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"messages": messages,
		"count":    len(messages),
	})
}

// Prescriptions handles GET /api/consultations/{id}/prescriptions
func (h *ConsultationHandler) Prescriptions(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	consultationID := r.PathValue("id")
	if consultationID == "" {
		respondWithError(w, http.StatusBadRequest, "consultation ID is required")
		return
	}

	prescriptions, err := h.consultationService.Prescriptions(r.Context(), userID, consultationID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"prescriptions": prescriptions,
		"count":         len(prescriptions),
	})
}

func paginationParams(r *http.Request) (limit, offset int) {
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil {
			limit = parsed
		}
	}
	if o := r.URL.Query().Get("offset"); o != "" {
		if parsed, err := strconv.Atoi(o); err == nil {
			offset = parsed
		}
	}
	return limit, offset
}
