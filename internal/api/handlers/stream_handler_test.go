package handlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/carebridge/telehealth-backend/internal/api/handlers"
	"github.com/carebridge/telehealth-backend/internal/api/middleware"
	"github.com/carebridge/telehealth-backend/internal/application/services"
	"github.com/carebridge/telehealth-backend/internal/domain/entities"
	"github.com/carebridge/telehealth-backend/internal/domain/providers"
	"github.com/carebridge/telehealth-backend/pkg/token"
	"github.com/stretchr/testify/mock"
)

type streamStack struct {
	consultationRepo *MockConsultationRepository
	eventBus         *MockEventBus
	tokens           *token.Manager
	handler          *handlers.StreamHandler
}

func newStreamStack() *streamStack {
	consultationRepo := new(MockConsultationRepository)
	messageRepo := new(MockMessageRepository)
	prescriptionRepo := new(MockPrescriptionRepository)
	userRepo := new(MockUserRepository)
	eventBus := NewMockEventBus()
	tokens := token.NewManager("test-secret", 15*time.Minute, 168*time.Hour)

	service := services.NewConsultationService(
		consultationRepo, messageRepo, prescriptionRepo, userRepo, eventBus, tokens,
	)

	return &streamStack{
		consultationRepo: consultationRepo,
		eventBus:         eventBus,
		tokens:           tokens,
		handler:          handlers.NewStreamHandler(service, nil),
	}
}

func streamRequest(t *testing.T, tokens *token.Manager, userID string, consultationID string) *http.Request {
	t.Helper()

	accessToken, err := tokens.GenerateAccessToken(userID, userID+"@example.com", "patient")
	if err != nil {
		t.Fatalf("failed to mint access token: %v", err)
	}

	req := httptest.NewRequest("GET", "/api/stream/consultations/"+consultationID+"/messages?access_token="+accessToken, nil)
	req.SetPathValue("id", consultationID)
	return req
}

func TestStreamHandler_StreamMessages(t *testing.T) {
	t.Run("establishes SSE connection for a participant", func(t *testing.T) {
		stack := newStreamStack()
		stack.consultationRepo.On("GetByID", mock.Anything, "cons-1").Return(activeConsultation(), nil)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		req := streamRequest(t, stack.tokens, "patient-1", "cons-1").WithContext(ctx)
		w := httptest.NewRecorder()

		done := make(chan struct{})
		go func() {
			middleware.AuthMiddleware(stack.tokens)(http.HandlerFunc(stack.handler.StreamMessages)).ServeHTTP(w, req)
			close(done)
		}()

		time.Sleep(100 * time.Millisecond)

		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("handler did not exit after cancel")
		}

		result := w.Result()
		if result.Header.Get("Content-Type") != "text/event-stream" {
			t.Errorf("Expected Content-Type text/event-stream, got %s", result.Header.Get("Content-Type"))
		}
		if result.Header.Get("Cache-Control") != "no-cache" {
			t.Errorf("Expected Cache-Control no-cache, got %s", result.Header.Get("Cache-Control"))
		}
		if !strings.Contains(w.Body.String(), "event: connected") {
			t.Error("Expected a connected event on the stream")
		}
	})

	t.Run("forwards published messages to the stream", func(t *testing.T) {
		stack := newStreamStack()
		stack.consultationRepo.On("GetByID", mock.Anything, "cons-1").Return(activeConsultation(), nil)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		req := streamRequest(t, stack.tokens, "doctor-1", "cons-1").WithContext(ctx)
		w := httptest.NewRecorder()

		done := make(chan struct{})
		go func() {
			middleware.AuthMiddleware(stack.tokens)(http.HandlerFunc(stack.handler.StreamMessages)).ServeHTTP(w, req)
			close(done)
		}()

		time.Sleep(100 * time.Millisecond)

		event := entities.NewMessageEvent(&entities.Message{
			ID:             "msg-1",
			ConsultationID: "cons-1",
			SenderID:       "patient-1",
			SenderName:     "Ada Nwosu",
			Content:        "hello",
			Type:           entities.MessageTypeText,
			Timestamp:      time.Now(),
		})
		stack.eventBus.Publish(context.Background(), providers.GetConsultationChannel("cons-1"), event)

		time.Sleep(200 * time.Millisecond)

		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("handler did not exit after cancel")
		}

		body := w.Body.String()
		if !strings.Contains(body, "event: message:new") {
			t.Errorf("Expected message:new event on the stream, got body: %s", body)
		}
		if !strings.Contains(body, "msg-1") {
			t.Error("Expected message payload on the stream")
		}
	})

	t.Run("rejects non-participant before any SSE headers", func(t *testing.T) {
		stack := newStreamStack()
		stack.consultationRepo.On("GetByID", mock.Anything, "cons-1").Return(activeConsultation(), nil)

		req := streamRequest(t, stack.tokens, "intruder-9", "cons-1")
		w := httptest.NewRecorder()

		middleware.AuthMiddleware(stack.tokens)(http.HandlerFunc(stack.handler.StreamMessages)).ServeHTTP(w, req)

		if w.Code != http.StatusForbidden {
			t.Errorf("Expected status 403, got %d", w.Code)
		}
		if ct := w.Result().Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Expected JSON error response, got Content-Type %s", ct)
		}
	})

	t.Run("rejects completed consultation with 409", func(t *testing.T) {
		stack := newStreamStack()
		cons := activeConsultation()
		cons.Status = entities.ConsultationStatusCompleted
		stack.consultationRepo.On("GetByID", mock.Anything, "cons-1").Return(cons, nil)

		req := streamRequest(t, stack.tokens, "patient-1", "cons-1")
		w := httptest.NewRecorder()

		middleware.AuthMiddleware(stack.tokens)(http.HandlerFunc(stack.handler.StreamMessages)).ServeHTTP(w, req)

		if w.Code != http.StatusConflict {
			t.Errorf("Expected status 409, got %d", w.Code)
		}
	})

	t.Run("rejects missing token with 401", func(t *testing.T) {
		stack := newStreamStack()

		req := httptest.NewRequest("GET", "/api/stream/consultations/cons-1/messages", nil)
		req.SetPathValue("id", "cons-1")
		w := httptest.NewRecorder()

		middleware.AuthMiddleware(stack.tokens)(http.HandlerFunc(stack.handler.StreamMessages)).ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Errorf("Expected status 401, got %d", w.Code)
		}
	})
}
