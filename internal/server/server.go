package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/aristath/ashare-monitor/internal/modules/journal"
	"github.com/aristath/ashare-monitor/internal/modules/market"
	"github.com/aristath/ashare-monitor/internal/modules/monitor"
	"github.com/aristath/ashare-monitor/internal/modules/signals"
)

// Config holds server configuration
type Config struct {
	Port      int
	DevMode   bool
	Log       zerolog.Logger
	Monitor   *monitor.Service
	Collector *monitor.Collector
	Engine    *signals.Engine
	Market    *market.Detector
	Journal   *journal.Repository
	Metrics   http.Handler
}

// Server represents the HTTP server
type Server struct {
	router    *chi.Mux
	server    *http.Server
	log       zerolog.Logger
	monitor   *monitor.Service
	collector *monitor.Collector
	engine    *signals.Engine
	market    *market.Detector
	journal   *journal.Repository
	metrics   http.Handler
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	metricsHandler := cfg.Metrics
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}

	s := &Server{
		router:    chi.NewRouter(),
		log:       cfg.Log.With().Str("component", "server").Logger(),
		monitor:   cfg.Monitor,
		collector: cfg.Collector,
		engine:    cfg.Engine,
		market:    cfg.Market,
		journal:   cfg.Journal,
		metrics:   metricsHandler,
	}

	s.setupMiddleware(cfg.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(60 * time.Second))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)
	s.router.Handle("/metrics", s.metrics)

	s.router.Route("/api", func(r chi.Router) {
		r.Route("/market", func(r chi.Router) {
			r.Get("/status", s.handleMarketStatus)
		})

		r.Route("/watchlist", func(r chi.Router) {
			r.Get("/", s.handleWatchlist)
			r.Post("/", s.handleWatchlistAdd)
			r.Delete("/", s.handleWatchlistClear)
			r.Delete("/{code}", s.handleWatchlistRemove)
		})

		r.Route("/positions", func(r chi.Router) {
			r.Get("/", s.handlePositions)
			r.Post("/", s.handlePositionOpen)
			r.Get("/summary", s.handlePositionSummary)
			r.Post("/prices", s.handleBatchPriceUpdate)
			r.Get("/{code}", s.handlePositionGet)
			r.Put("/{code}", s.handlePositionUpdate)
			r.Delete("/{code}", s.handlePositionClose)
			r.Put("/{code}/price", s.handlePositionPrice)
			r.Post("/{code}/reset-peak", s.handleResetPeak)
		})

		r.Route("/signals", func(r chi.Router) {
			r.Get("/recent", s.handleRecentSignals)
			r.Get("/evaluate/{code}", s.handleEvaluate)
		})

		r.Route("/cache", func(r chi.Router) {
			r.Get("/stats", s.handleCacheStats)
		})
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// Router exposes the mux, used by tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
