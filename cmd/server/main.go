package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"adulting-backend/internal/analytics"
	"adulting-backend/internal/config"
	"adulting-backend/internal/database"
	"adulting-backend/internal/googleauth"
	"adulting-backend/internal/handlers"
	customMiddleware "adulting-backend/internal/middleware"
	"adulting-backend/internal/profile"
	"adulting-backend/internal/repository"
	"adulting-backend/internal/telemetry"
	"adulting-backend/internal/voice"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	// Load .env (ignore error in production — env vars set directly)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Invalid configuration: %v", err)
	}

	// Tracing (no-op unless an OTLP endpoint is configured)
	shutdownTracing, err := telemetry.Init(context.Background(), cfg)
	if err != nil {
		log.Fatalf("❌ Failed to initialize tracing: %v", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Printf("⚠️  Warning: tracing shutdown: %v", err)
		}
	}()

	// Connect to MongoDB
	if err := database.Connect(cfg.MongoURI, cfg.DBName); err != nil {
		log.Fatalf("❌ Failed to connect to MongoDB: %v", err)
	}
	defer func() {
		if err := database.Disconnect(context.Background()); err != nil {
			log.Printf("⚠️  Warning: mongo disconnect: %v", err)
		}
	}()

	// Initialize repositories
	profileRepo := repository.NewProfileRepo()
	tokenRepo := repository.NewAuthTokenRepo()
	plannerRepo := repository.NewPlannerRepo()

	// Ensure indexes
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := profileRepo.EnsureIndexes(ctx); err != nil {
		log.Printf("⚠️  Warning: failed to create profile indexes: %v", err)
	}
	if err := tokenRepo.EnsureIndexes(ctx); err != nil {
		log.Printf("⚠️  Warning: failed to create token indexes: %v", err)
	}
	if err := plannerRepo.EnsureIndexes(ctx); err != nil {
		log.Printf("⚠️  Warning: failed to create planner indexes: %v", err)
	}

	// Analytics backend
	tracker := newTracker(cfg)

	// Core services
	profileSvc := profile.NewService(profileRepo, cfg.DefaultTimezone)

	var google *googleauth.Service
	if cfg.HasGoogleOAuth() {
		google = googleauth.NewService(googleauth.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURI:  cfg.GoogleRedirectURI,
		})
	} else {
		log.Println("⚠️  Google OAuth not configured — /auth/google disabled")
	}

	voiceClient := voice.NewClient(cfg.VapiAPIKey, cfg.VapiAssistantID)
	sessions := voice.NewSessionRegistry()

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(tokenRepo, profileSvc, google, tracker, cfg.JWTSecret, cfg.JWTTTL)
	profileHandler := handlers.NewProfileHandler(profileSvc, google, tracker)
	plannerHandler := handlers.NewPlannerHandler(plannerRepo)
	callsHandler := handlers.NewCallsHandler(voiceClient, sessions, profileSvc, tracker)

	// Setup chi router
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok","service":"adulting-backend"}`))
	})

	// Public routes (no auth required)
	r.Post("/auth/request", authHandler.RequestLogin)
	r.Get("/auth/verify", authHandler.VerifyToken)
	r.Get("/auth/redirect", authHandler.RedirectToApp)
	r.Post("/webhooks/vapi", callsHandler.VapiWebhook)

	// Protected routes (JWT required)
	r.Group(func(r chi.Router) {
		r.Use(customMiddleware.JWTAuth(cfg.JWTSecret))

		r.Post("/auth/google", authHandler.GoogleSignIn)

		r.Get("/profile", profileHandler.GetProfile)
		r.Get("/profile/watch", profileHandler.WatchProfile)
		r.Patch("/profile/contact", profileHandler.UpdateContact)
		r.Put("/profile/schedule", profileHandler.UpdateSchedule)
		r.Put("/profile/timezone", profileHandler.UpdateTimezone)
		r.Post("/profile/streak/increment", profileHandler.IncrementStreak)
		r.Post("/profile/streak/reset", profileHandler.ResetStreak)
		r.Put("/profile/calls-enabled", profileHandler.SetCallsEnabled)
		r.Post("/profile/onboarding", profileHandler.CompleteOnboarding)

		r.Get("/calendar/events", profileHandler.GetCalendarEvents)

		r.Get("/planner/{date}", plannerHandler.GetDay)
		r.Put("/planner/{date}/meals", plannerHandler.SetMeals)
		r.Put("/planner/{date}/tasks", plannerHandler.SetTasks)
		r.Post("/planner/{date}/tasks/{index}/toggle", plannerHandler.ToggleTask)

		r.Post("/calls/start", callsHandler.StartCall)
		r.Post("/calls/stop", callsHandler.StopCall)
		r.Get("/calls/session", callsHandler.GetSession)
	})

	// Start server
	log.Printf("🚀 Adulting backend starting on port %s", cfg.Port)
	handler := otelhttp.NewHandler(r, "adulting-backend")
	if err := http.ListenAndServe(":"+cfg.Port, handler); err != nil {
		log.Fatalf("❌ Server failed: %v", err)
	}
}

// newTracker picks the analytics backend from configuration, falling back to
// plain log output when nothing is configured.
func newTracker(cfg *config.Config) analytics.Tracker {
	switch cfg.AnalyticsBackend {
	case "posthog":
		log.Println("📊 Analytics: PostHog")
		return analytics.NewPostHogTracker(cfg.PostHogAPIKey, cfg.PostHogHost)
	case "kafka":
		log.Println("📊 Analytics: Kafka")
		return analytics.NewKafkaTracker(cfg.KafkaBroker, cfg.KafkaTopic)
	default:
		return analytics.NewLogTracker()
	}
}
