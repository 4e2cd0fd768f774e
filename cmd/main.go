package main

import (
	"context"
	"net/http"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/spicescript/recipe-service/config"
	"github.com/spicescript/recipe-service/internal/auth"
	"github.com/spicescript/recipe-service/internal/core/repository"
	"github.com/spicescript/recipe-service/internal/logging"
	logicv1 "github.com/spicescript/recipe-service/internal/logic/v1"
	"github.com/spicescript/recipe-service/internal/router"
	webv1 "github.com/spicescript/recipe-service/internal/web/v1"
	"github.com/spicescript/recipe-service/middleware"
)

func main() {
	// Load configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		panic("Configuration validation failed: " + err.Error())
	}

	logging.Setup(cfg.Logging.Level)

	log.Info().
		Str("service", cfg.Service.Name).
		Str("version", cfg.Service.Version).
		Str("env", cfg.Service.Env).
		Str("port", cfg.Service.Port).
		Msg("Service starting")

	// Initialize OpenTelemetry tracing
	var tp interface{ Shutdown(context.Context) error }
	if cfg.Tracing.Enabled {
		provider, err := middleware.InitTracing(cfg)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize tracing")
		} else {
			tp = provider
			log.Info().
				Str("endpoint", cfg.Tracing.Endpoint).
				Float64("sample_rate", cfg.Tracing.SampleRate).
				Msg("Tracing initialized")
		}
	} else {
		log.Info().Msg("Tracing disabled (TRACING_ENABLED=false)")
	}

	// JSON document stores
	users := repository.NewUserRepository(cfg.UsersFile())
	recipes := repository.NewRecipeRepository(cfg.RecipesFile())
	sessions := repository.NewSessionRepository(cfg.SessionsFile(), cfg.SessionTTL())

	// Business logic
	hashParams := auth.Params{Iterations: cfg.Crypto.Iterations, KeyLength: cfg.Crypto.KeyLength}
	authService := logicv1.NewAuthService(users, sessions, hashParams)
	recipeService := logicv1.NewRecipeService(recipes, cfg.Upload.MaxImageBytes)

	authn := &middleware.Authenticator{
		Sessions:   sessions,
		Users:      users,
		CookieName: cfg.Session.CookieName,
	}

	// Expired-session garbage collection: once at startup, then on schedule.
	if n, err := sessions.Cleanup(context.Background()); err != nil {
		log.Error().Err(err).Msg("Initial session cleanup failed")
	} else if n > 0 {
		log.Info().Int("removed", n).Msg("Expired sessions removed")
	}
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.Session.CleanupSchedule, func() {
		if n, err := sessions.Cleanup(context.Background()); err != nil {
			log.Error().Err(err).Msg("Session cleanup failed")
		} else if n > 0 {
			log.Info().Int("removed", n).Msg("Expired sessions removed")
		}
	}); err != nil {
		log.Fatal().Err(err).Str("schedule", cfg.Session.CleanupSchedule).Msg("Invalid cleanup schedule")
	}
	scheduler.Start()

	// API routes
	rt := router.New(webv1.WriteError)
	authHandler := webv1.NewAuthHandler(authService, webv1.CookieSettings{
		Name:         cfg.Session.CookieName,
		MaxAgeMillis: cfg.Session.TTLMillis,
		Secure:       cfg.Session.Secure,
	})
	authHandler.RegisterRoutes(rt, authn)
	recipeHandler := webv1.NewRecipeHandler(recipeService, cfg.Storage.UploadDir, cfg.Upload.MaxImageBytes)
	recipeHandler.RegisterRoutes(rt, authn)

	var isShuttingDown atomic.Bool

	mux := http.NewServeMux()
	mux.Handle("/api/", rt)

	// Uploaded recipe images
	mux.Handle("/images/", http.StripPrefix("/images/", http.FileServer(http.Dir(cfg.Storage.UploadDir))))

	// Health check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Readiness check
	// Returns 503 once shutdown has started, to drain traffic before HTTP shutdown.
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if isShuttingDown.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"shutting_down"}`))
			return
		}
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Metrics endpoint
	mux.Handle("/metrics", promhttp.Handler())

	var handler http.Handler = mux
	handler = middleware.PrometheusMiddleware(handler)
	handler = middleware.LoggingMiddleware(handler)
	if cfg.Tracing.Enabled {
		handler = middleware.TracingMiddleware(handler)
	}

	srv := &http.Server{
		Addr:    cfg.Service.Host + ":" + cfg.Service.Port,
		Handler: handler,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("Starting recipe service")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	<-ctx.Done()
	log.Info().Msg("Shutdown signal received")

	// Fail readiness first and wait for propagation before stopping HTTP.
	isShuttingDown.Store(true)
	drainDelay := cfg.GetReadinessDrainDelayDuration()
	if drainDelay > 0 {
		log.Info().Dur("delay", drainDelay).Msg("Readiness drain delay started")
		time.Sleep(drainDelay)
		log.Info().Dur("delay", drainDelay).Msg("Readiness drain delay completed")
	}

	shutdownTimeout := cfg.GetShutdownTimeoutDuration()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	log.Info().Dur("timeout", shutdownTimeout).Msg("Shutting down server...")

	// 1. Shutdown HTTP server
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	} else {
		log.Info().Msg("HTTP server shutdown complete")
	}

	// 2. Stop the cleanup scheduler, waiting for an in-flight run.
	<-scheduler.Stop().Done()
	log.Info().Msg("Session cleanup scheduler stopped")

	// 3. Shutdown tracer
	if tp != nil {
		if err := tp.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Tracer shutdown error")
		} else {
			log.Info().Msg("Tracer shutdown complete")
		}
	}

	log.Info().Msg("Graceful shutdown complete")
}
