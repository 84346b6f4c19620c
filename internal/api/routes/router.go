package routes

import (
	"net/http"

	"github.com/carebridge/telehealth-backend/internal/api/handlers"
	"github.com/carebridge/telehealth-backend/internal/api/middleware"
	"github.com/carebridge/telehealth-backend/internal/infrastructure/observability"
	"github.com/carebridge/telehealth-backend/pkg/token"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	authHandler         *handlers.AuthHandler
	consultationHandler *handlers.ConsultationHandler
	streamHandler       *handlers.StreamHandler
	wsHandler           *handlers.WSHandler
	appointmentHandler  *handlers.AppointmentHandler
	directoryHandler    *handlers.DirectoryHandler
	fileHandler         *handlers.FileHandler

	tokens  *token.Manager
	metrics *observability.Metrics
}

// NewRouter creates a new router
func NewRouter(
	authHandler *handlers.AuthHandler,
	consultationHandler *handlers.ConsultationHandler,
	streamHandler *handlers.StreamHandler,
	wsHandler *handlers.WSHandler,
	appointmentHandler *handlers.AppointmentHandler,
	directoryHandler *handlers.DirectoryHandler,
	fileHandler *handlers.FileHandler,
	tokens *token.Manager,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux:                 http.NewServeMux(),
		authHandler:         authHandler,
		consultationHandler: consultationHandler,
		streamHandler:       streamHandler,
		wsHandler:           wsHandler,
		appointmentHandler:  appointmentHandler,
		directoryHandler:    directoryHandler,
		fileHandler:         fileHandler,
		tokens:              tokens,
		metrics:             metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	auth := middleware.AuthMiddleware(r.tokens)
	protected := func(h http.HandlerFunc) http.Handler {
		return auth(h)
	}

	// Health check endpoint
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	// Auth endpoints
	r.mux.HandleFunc("POST /api/auth/register", r.authHandler.Register)
	r.mux.HandleFunc("POST /api/auth/login", r.authHandler.Login)
	r.mux.HandleFunc("POST /api/auth/refresh", r.authHandler.Refresh)
	r.mux.Handle("POST /api/auth/logout", protected(r.authHandler.Logout))
	r.mux.Handle("GET /api/auth/me", protected(r.authHandler.Me))

	// Consultation endpoints
	r.mux.Handle("POST /api/consultations", protected(r.consultationHandler.Create))
	r.mux.Handle("GET /api/consultations", protected(r.consultationHandler.List))
	r.mux.Handle("GET /api/consultations/{id}", protected(r.consultationHandler.Get))
	r.mux.Handle("POST /api/consultations/{id}/join", protected(r.consultationHandler.Join))
	r.mux.Handle("POST /api/consultations/{id}/end", protected(r.consultationHandler.End))
	r.mux.Handle("POST /api/consultations/{id}/messages", protected(r.consultationHandler.SendMessage))
	r.mux.Handle("GET /api/consultations/{id}/messages", protected(r.consultationHandler.History))
	r.mux.Handle("GET /api/consultations/{id}/prescriptions", protected(r.consultationHandler.Prescriptions))

	// Live message streams
	r.mux.Handle("GET /api/stream/consultations/{id}/messages", protected(r.streamHandler.StreamMessages))
	r.mux.Handle("GET /api/ws/consultations/{id}", protected(r.wsHandler.Chat))

	// Appointment endpoints
	r.mux.Handle("POST /api/appointments", protected(r.appointmentHandler.Book))
	r.mux.Handle("GET /api/appointments", protected(r.appointmentHandler.List))
	r.mux.Handle("GET /api/appointments/{id}", protected(r.appointmentHandler.Get))
	r.mux.Handle("POST /api/appointments/{id}/confirm", protected(r.appointmentHandler.Confirm))
	r.mux.Handle("POST /api/appointments/{id}/cancel", protected(r.appointmentHandler.Cancel))

	// Directory endpoints
	r.mux.HandleFunc("GET /api/doctors", r.directoryHandler.ListDoctors)
	r.mux.HandleFunc("GET /api/doctors/search", r.directoryHandler.SearchDoctors)
	r.mux.Handle("PUT /api/doctors/me", protected(r.directoryHandler.UpdateDoctorProfile))
	r.mux.HandleFunc("GET /api/doctors/{id}", r.directoryHandler.GetDoctor)
	r.mux.Handle("GET /api/patients/{userId}", protected(r.directoryHandler.GetPatientProfile))
	r.mux.Handle("PUT /api/patients/me", protected(r.directoryHandler.UpdatePatientProfile))

	// Care service catalog
	r.mux.HandleFunc("GET /api/services", r.directoryHandler.ListCareServices)
	r.mux.HandleFunc("GET /api/services/{id}", r.directoryHandler.GetCareService)
	r.mux.Handle("POST /api/admin/services", protected(r.directoryHandler.CreateCareService))
	r.mux.Handle("PUT /api/admin/services/{id}", protected(r.directoryHandler.UpdateCareService))

	// File metadata endpoints
	r.mux.Handle("POST /api/files", protected(r.fileHandler.Create))
	r.mux.Handle("GET /api/files", protected(r.fileHandler.List))
	r.mux.Handle("GET /api/files/{id}", protected(r.fileHandler.Get))
	r.mux.Handle("PATCH /api/files/{id}", protected(r.fileHandler.Update))
	r.mux.Handle("DELETE /api/files/{id}", protected(r.fileHandler.Delete))

	// Apply middleware in reverse order (last middleware wraps first).
	// CORS must be outermost so every response gets CORS headers.
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	handler = middleware.CORSMiddleware(handler)

	return handler
}
