// Package api provides the HTTP API server and handlers for the bookmark service.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/smartbookmarks/smartbookmarks/internal/auth"
	"github.com/smartbookmarks/smartbookmarks/internal/config"
	"github.com/smartbookmarks/smartbookmarks/internal/metrics"
	"github.com/smartbookmarks/smartbookmarks/internal/ratelimit"
	"github.com/smartbookmarks/smartbookmarks/internal/store"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	store    store.Store
	services *Services
	verifier auth.Verifier
	changes  http.Handler
	metrics  *metrics.Collector
	limiter  *ratelimit.KeyedRateLimiter
	cfg      config.ServerConfig
	router   *chi.Mux
	api      huma.API
	logger   *slog.Logger
}

// Deps are the collaborators NewServer wires into routes.
// Metrics, Limiter and Changes are optional.
type Deps struct {
	Store    store.Store
	Services *Services
	Verifier auth.Verifier
	Changes  http.Handler
	Metrics  *metrics.Collector
	Limiter  *ratelimit.KeyedRateLimiter
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(cfg config.ServerConfig, deps Deps, logger *slog.Logger) *Server {
	s := &Server{
		store:    deps.Store,
		services: deps.Services,
		verifier: deps.Verifier,
		changes:  deps.Changes,
		metrics:  deps.Metrics,
		limiter:  deps.Limiter,
		cfg:      cfg,
		router:   chi.NewRouter(),
		logger:   logger,
	}

	s.setupMiddleware()
	s.api = humachi.New(s.router, newHumaConfig("Smart Bookmarks API", "1.0.0"))
	RegisterErrorHandler()
	s.setupRoutes()

	return s
}

// newHumaConfig returns the huma configuration shared by the server and tests.
func newHumaConfig(title, version string) huma.Config {
	humaConfig := huma.DefaultConfig(title, version)
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "PASETO",
		},
	}
	humaConfig.Transformers = append(humaConfig.Transformers, EnvelopeTransformer)
	return humaConfig
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API exposes the huma API, mainly for OpenAPI generation.
func (s *Server) API() huma.API {
	return s.api
}

// setupMiddleware configures middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	if s.metrics != nil {
		s.router.Use(s.metrics.Middleware)
	}
	if s.limiter != nil {
		s.router.Use(s.limiter.Middleware)
	}

	origins := s.cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"Retry-After"},
		MaxAge:         300,
	}))

	if s.verifier != nil {
		s.router.Use(authMiddleware(s.verifier))
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.registerHealthRoutes()
	s.registerBookmarkRoutes()
	s.registerTagRoutes()
	s.registerCollectionRoutes()
	s.registerTitleRoutes()
	s.registerSessionRoutes()

	if s.metrics != nil {
		s.router.Handle("/metrics", s.metrics.Handler())
	}
	if s.changes != nil {
		s.router.Get("/api/v1/changes", s.changes.ServeHTTP)
	}
}

// requestLogger logs one line per request at debug level.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.Debug("request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.Status()),
				slog.Duration("elapsed", time.Since(start)),
				slog.String("request_id", middleware.GetReqID(r.Context())))
		})
	}
}
