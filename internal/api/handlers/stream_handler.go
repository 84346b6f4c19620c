package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/carebridge/telehealth-backend/internal/api/middleware"
	"github.com/carebridge/telehealth-backend/internal/application/services"
	"github.com/carebridge/telehealth-backend/internal/infrastructure/observability"
)

// StreamHandler handles Server-Sent Events for live consultation messages
type StreamHandler struct {
	consultationService *services.ConsultationService
	metrics             *observability.Metrics
}

// NewStreamHandler creates a new SSE stream handler
func NewStreamHandler(consultationService *services.ConsultationService, metrics *observability.Metrics) *StreamHandler {
	return &StreamHandler{
		consultationService: consultationService,
		metrics:             metrics,
	}
}

// StreamMessages handles SSE connections for a consultation's message feed
// GET /api/stream/consultations/{id}/messages
func (h *StreamHandler) StreamMessages(w http.ResponseWriter, r *http.Request) {
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

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondWithError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	// Authorization happens before any SSE headers are written, so a
	// non-participant still receives a proper JSON error.
	eventChan, err := h.consultationService.Stream(r.Context(), userID, consultationID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	if h.metrics != nil {
		h.metrics.StreamClients.Add(r.Context(), 1)
		defer h.metrics.StreamClients.Add(r.Context(), -1)
	}

	h.sendEvent(w, "connected", map[string]interface{}{
		"consultation_id": consultationID,
		"timestamp":       time.Now(),
	})
	flusher.Flush()

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			log.Debug().Str("consultation_id", consultationID).Str("user_id", userID).
				Msg("client disconnected from message stream")
			return
		case <-ticker.C:
			h.sendEvent(w, "heartbeat", map[string]interface{}{
				"timestamp": time.Now(),
			})
			flusher.Flush()
		case event, open := <-eventChan:
			if !open {
				return
			}
			if event == nil {
				continue
			}
			h.sendEvent(w, string(event.EventType), event)
			flusher.Flush()
		}
	}
}

// sendEvent sends an SSE event to the client
func (h *StreamHandler) sendEvent(w http.ResponseWriter, eventType string, data interface{}) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal event data")
		return
	}

	fmt.Fprintf(w, "event: %s\n", eventType)
	fmt.Fprintf(w, "data: %s\n\n", jsonData)
}
