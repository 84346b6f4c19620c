package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/carebridge/telehealth-backend/internal/api/middleware"
	"github.com/carebridge/telehealth-backend/internal/application/services"
	"github.com/carebridge/telehealth-backend/internal/domain/entities"
)

// wsInbound is a client frame on the consultation socket
type wsInbound struct {
	Content string               `json:"content"`
	Type    entities.MessageType `json:"type"`
}

// wsError is sent back when an inbound frame is rejected
type wsError struct {
	Error string `json:"error"`
}

// WSHandler handles bidirectional consultation chat over WebSocket.
// Outbound frames are MessageEvents, identical to the SSE payloads.
type WSHandler struct {
	consultationService *services.ConsultationService
}

// NewWSHandler creates a new WebSocket handler
func NewWSHandler(consultationService *services.ConsultationService) *WSHandler {
	return &WSHandler{
		consultationService: consultationService,
	}
}

// Chat handles GET /api/ws/consultations/{id}
func (h *WSHandler) Chat(w http.ResponseWriter, r *http.Request) {
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

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Authorize before upgrading so rejected clients get an HTTP error.
	eventChan, err := h.consultationService.Stream(ctx, userID, consultationID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Str("consultation_id", consultationID).Msg("websocket accept failed")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "connection closed")

	go h.writeLoop(ctx, cancel, conn, eventChan)
	h.readLoop(ctx, conn, userID, consultationID)

	conn.Close(websocket.StatusNormalClosure, "")
}

// readLoop consumes client frames and turns them into sendMessage calls
func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, userID, consultationID string) {
	for {
		var inbound wsInbound
		if err := wsjson.Read(ctx, conn, &inbound); err != nil {
			return
		}

		if _, err := h.consultationService.SendMessage(ctx, userID, consultationID, inbound.Content, inbound.Type); err != nil {
			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			_ = wsjson.Write(writeCtx, conn, wsError{Error: err.Error()})
			cancel()
		}
	}
}

// writeLoop forwards feed events to the client
func (h *WSHandler) writeLoop(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, eventChan <-chan *entities.MessageEvent) {
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case event, open := <-eventChan:
			if !open {
				return
			}
			if event == nil {
				continue
			}

			writeCtx, writeCancel := context.WithTimeout(ctx, 5*time.Second)
			err := wsjson.Write(writeCtx, conn, event)
			writeCancel()
			if err != nil {
				return
			}
		}
	}
}
