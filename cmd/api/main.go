package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/carebridge/telehealth-backend/internal/adapters/cache"
	"github.com/carebridge/telehealth-backend/internal/adapters/database"
	"github.com/carebridge/telehealth-backend/internal/adapters/events"
	"github.com/carebridge/telehealth-backend/internal/adapters/search"
	"github.com/carebridge/telehealth-backend/internal/api/handlers"
	"github.com/carebridge/telehealth-backend/internal/api/routes"
	"github.com/carebridge/telehealth-backend/internal/application/services"
	"github.com/carebridge/telehealth-backend/internal/domain/providers"
	"github.com/carebridge/telehealth-backend/internal/infrastructure/clients/postgres"
	"github.com/carebridge/telehealth-backend/internal/infrastructure/clients/redis"
	"github.com/carebridge/telehealth-backend/internal/infrastructure/clients/typesense"
	"github.com/carebridge/telehealth-backend/internal/infrastructure/observability"
	"github.com/carebridge/telehealth-backend/pkg/config"
	"github.com/carebridge/telehealth-backend/pkg/password"
	"github.com/carebridge/telehealth-backend/pkg/token"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Env)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(
			ctx,
			cfg.OTEL.ServiceName,
			cfg.OTEL.ServiceVersion,
			cfg.OTEL.Endpoint,
		)
		if err != nil {
			log.Warn().Err(err).Msg("failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Error().Err(err).Msg("error shutting down OpenTelemetry")
				}
			}()
			log.Info().Msg("OpenTelemetry initialized")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize metrics")
	}

	// Initialize database client
	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize PostgreSQL client")
	}
	defer pgClient.Close()

	// Redis backs sessions, message fan-out, and rate limiting, so it is
	// required rather than optional.
	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize Redis client")
	}
	defer redisClient.Close()
	log.Info().Msg("connected to Redis")

	// Initialize Typesense client. The doctor directory falls back to
	// SQL listing when search is unavailable.
	var searchIndex providers.DoctorSearchIndex
	if cfg.Typesense.Enabled {
		typesenseClient, err := typesense.NewClient(&cfg.Typesense)
		if err != nil {
			log.Warn().Err(err).Msg("failed to initialize Typesense client, doctor search degraded to SQL")
		} else {
			if err := typesenseClient.InitSchema(ctx); err != nil {
				log.Warn().Err(err).Msg("failed to init Typesense schema")
			}
			searchIndex = search.NewDoctorSearchAdapter(typesenseClient)
		}
	}

	// Initialize adapters
	userAdapter := database.NewUserAdapter(pgClient)
	doctorAdapter := database.NewDoctorAdapter(pgClient)
	patientAdapter := database.NewPatientAdapter(pgClient)
	consultationAdapter := database.NewConsultationAdapter(pgClient)
	messageAdapter := database.NewMessageAdapter(pgClient)
	prescriptionAdapter := database.NewPrescriptionAdapter(pgClient)
	appointmentAdapter := database.NewAppointmentAdapter(pgClient)
	careServiceAdapter := database.NewCareServiceAdapter(pgClient)
	fileAdapter := database.NewFileAdapter(pgClient)

	cacheProvider := cache.NewRedisAdapter(redisClient)
	sessionStore := cache.NewRedisSessionStore(redisClient)
	eventBus := events.NewRedisEventBus(redisClient)

	hasher := password.NewHasher()
	tokens := token.NewManager(
		cfg.Auth.JWTSecret,
		cfg.Auth.AccessExpiration,
		cfg.Auth.RefreshExpiration,
	)

	// Initialize services
	authService := services.NewAuthService(
		userAdapter,
		doctorAdapter,
		patientAdapter,
		hasher,
		tokens,
		sessionStore,
	)
	consultationService := services.NewConsultationService(
		consultationAdapter,
		messageAdapter,
		prescriptionAdapter,
		userAdapter,
		eventBus,
		tokens,
	)
	appointmentService := services.NewAppointmentService(
		appointmentAdapter,
		userAdapter,
		careServiceAdapter,
	)
	directoryService := services.NewDirectoryService(
		doctorAdapter,
		patientAdapter,
		careServiceAdapter,
		userAdapter,
		searchIndex,
	)
	fileService := services.NewFileService(
		fileAdapter,
		cacheProvider,
		cfg.Files.UploadRateLimit,
		cfg.Files.UploadRateWindow,
	)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	consultationHandler := handlers.NewConsultationHandler(consultationService, metrics)
	streamHandler := handlers.NewStreamHandler(consultationService, metrics)
	wsHandler := handlers.NewWSHandler(consultationService)
	appointmentHandler := handlers.NewAppointmentHandler(appointmentService)
	directoryHandler := handlers.NewDirectoryHandler(directoryService)
	fileHandler := handlers.NewFileHandler(fileService)

	// Set up router
	router := routes.NewRouter(
		authHandler,
		consultationHandler,
		streamHandler,
		wsHandler,
		appointmentHandler,
		directoryHandler,
		fileHandler,
		tokens,
		metrics,
	)
	handler := router.SetupRoutes()

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:        serverAddr,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		// WriteTimeout stays disabled so SSE and WebSocket streams can
		// outlive a fixed response deadline.
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", serverAddr).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("server shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	}

	if err := eventBus.Close(); err != nil {
		log.Error().Err(err).Msg("error closing event bus")
	}

	log.Info().Msg("server stopped")
}
