package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/GB163/student-led-initiative-sub002/internal/api"
	"github.com/GB163/student-led-initiative-sub002/internal/auth"
	"github.com/GB163/student-led-initiative-sub002/internal/callflow"
	"github.com/GB163/student-led-initiative-sub002/internal/config"
	"github.com/GB163/student-led-initiative-sub002/internal/events"
	"github.com/GB163/student-led-initiative-sub002/internal/identity"
	"github.com/GB163/student-led-initiative-sub002/internal/messaging"
	"github.com/GB163/student-led-initiative-sub002/internal/metrics"
	"github.com/GB163/student-led-initiative-sub002/internal/presence"
	"github.com/GB163/student-led-initiative-sub002/internal/registry"
	"github.com/GB163/student-led-initiative-sub002/internal/storage"
	"github.com/GB163/student-led-initiative-sub002/internal/websocket"
	"github.com/GB163/student-led-initiative-sub002/pkg/middleware"
)

func main() {
	// Configure logger
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Set log level
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Warn().Str("level", cfg.LogLevel).Msg("invalid log level, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	log.Info().
		Str("port", cfg.Port).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Str("store_backend", string(cfg.Storage.Backend)).
		Str("log_level", cfg.LogLevel).
		Msg("starting careline hub server")

	// Create context for services
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Create persistence store
	store, err := storage.NewStore(ctx, cfg.Storage, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize storage")
	}

	// Create presence store
	var presenceStore presence.Store
	if cfg.RedisAddr != "" {
		redisStore, err := presence.NewRedisStore(ctx, cfg.RedisAddr)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to presence store")
		}
		presenceStore = redisStore
		log.Info().Str("redis_addr", cfg.RedisAddr).Msg("presence store connected")
	} else {
		presenceStore = presence.NewNoopStore()
		log.Info().Msg("presence store disabled")
	}

	validator := identity.NewUUIDValidator()

	// Presence updater with stale-heartbeat sweeper
	tracker := presence.NewTracker()
	updater := presence.NewUpdater(presenceStore, validator, tracker, log.Logger)
	sweeper := presence.NewSweeper(updater, tracker, cfg.SweepInterval, cfg.HeartbeatWindow, log.Logger)
	go sweeper.Start(ctx)

	// Connection registry and hub
	reg := registry.New(log.Logger)
	hub := websocket.NewHub(reg, log.Logger)

	// Domain services
	callService := callflow.NewService(store, updater, log.Logger)
	messageService := messaging.NewService(store, log.Logger)

	// Event processor wires it all together
	processor := events.NewProcessor(reg, callService, messageService, updater, validator, hub, log.Logger)
	hub.SetHandler(processor)
	go hub.Run()

	// WebSocket handler
	wsHandler := websocket.NewHandler(hub, cfg, log.Logger)

	// HTTP handlers
	diagHandler := api.NewDiagHandler(reg, log.Logger)
	callsHandler := api.NewCallsHandler(callService, messageService, log.Logger)

	verifier, err := auth.NewVerifier(cfg.AuthIssuerURL, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize token verifier")
	}

	// Create router
	r := chi.NewRouter()

	// Add middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(log.Logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	// Public routes
	r.Get("/health", healthHandler)
	r.Get("/ws", wsHandler.ServeHTTP)

	// Operational routes
	r.Group(func(r chi.Router) {
		r.Use(verifier.Middleware)
		r.Get("/internal/registry", diagHandler.HandleRegistry)
		r.Get("/metrics", metrics.Get().Handler())
		r.Get("/api/calls", callsHandler.HandleListOpen)
		r.Get("/api/calls/{callID}", callsHandler.HandleGet)
		r.Get("/api/calls/{callID}/messages", callsHandler.HandleMessages)
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Msgf("server listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

// healthHandler handles health check requests
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"ok","service":"careline-hub"}`)
}
