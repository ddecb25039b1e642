// Package server provides the operator HTTP API for the trading engine.
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/cstahmer1/solana-trading-bot-sub001/internal/controller"
	"github.com/cstahmer1/solana-trading-bot-sub001/internal/database"
	"github.com/cstahmer1/solana-trading-bot-sub001/internal/events"
	"github.com/cstahmer1/solana-trading-bot-sub001/internal/modules/circuit"
	"github.com/cstahmer1/solana-trading-bot-sub001/internal/telemetry"
)

// Engine is the controller surface the API reads and commands.
type Engine interface {
	Status() controller.Status
	Circuit() circuit.State
	Submit(cmd controller.Command, source string) error
	PendingCommands() int
}

// TelemetryReader queries persisted engine events.
type TelemetryReader interface {
	Query(ctx context.Context, eventType string, limit int) ([]telemetry.Record, error)
}

// RouteRegistrar mounts module routes under /api.
type RouteRegistrar interface {
	RegisterRoutes(r chi.Router)
}

// Config holds server configuration
type Config struct {
	Log       zerolog.Logger
	Port      int
	DevMode   bool
	Engine    Engine
	Telemetry TelemetryReader
	Metrics   http.Handler
	Bus       *events.Bus
	Databases []*database.DB
	Modules   []RouteRegistrar
}

// Server represents the HTTP server
type Server struct {
	router    *chi.Mux
	server    *http.Server
	log       zerolog.Logger
	engine    Engine
	telemetry TelemetryReader
	metrics   http.Handler
	bus       *events.Bus
	databases []*database.DB
	modules   []RouteRegistrar
	started   time.Time

	// cancels request contexts so open event streams end on shutdown
	baseCtx    context.Context
	cancelBase context.CancelFunc
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		log:       cfg.Log.With().Str("component", "server").Logger(),
		engine:    cfg.Engine,
		telemetry: cfg.Telemetry,
		metrics:   cfg.Metrics,
		bus:       cfg.Bus,
		databases: cfg.Databases,
		modules:   cfg.Modules,
		started:   time.Now(),
	}
	s.baseCtx, s.cancelBase = context.WithCancel(context.Background())

	s.setupMiddleware(cfg.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // event stream connections stay open
		IdleTimeout:  60 * time.Second,
		BaseContext:  func(net.Listener) context.Context { return s.baseCtx },
	}

	return s
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	if !devMode {
		s.router.Use(middleware.Compress(5, "application/json"))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	if s.metrics != nil {
		s.router.Method(http.MethodGet, "/metrics", s.metrics)
	}

	s.router.Route("/api", func(r chi.Router) {
		if s.bus != nil {
			r.Get("/events/stream", NewEventsStreamHandler(s.bus, s.log).ServeHTTP)
		}

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(30 * time.Second))

			r.Get("/health", s.handleHealth)
			r.Get("/status", s.handleStatus)
			r.Get("/circuit", s.handleCircuit)
			r.Post("/control/{command}", s.handleControl)
			r.Get("/telemetry", s.handleTelemetry)

			for _, m := range s.modules {
				m.RegisterRoutes(r)
			}
		})
	})
}

// Router returns the configured handler tree.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("Starting HTTP server")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	s.cancelBase()
	return s.server.Shutdown(ctx)
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
