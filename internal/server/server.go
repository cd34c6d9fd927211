package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"docker-express-env/internal/config"
)

type Server struct {
	router  chi.Router
	logger  zerolog.Logger
	cfg     *config.Config
	now     func() time.Time
	started time.Time
}

type Option func(*Server)

// WithClock replaces the wall clock used for timestamps and uptime.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		s.now = now
	}
}

// WithStartTime sets the instant uptime is measured from.
func WithStartTime(t time.Time) Option {
	return func(s *Server) {
		s.started = t
	}
}

func New(logger zerolog.Logger, cfg *config.Config, opts ...Option) *Server {
	s := &Server{
		router: chi.NewRouter(),
		logger: logger,
		cfg:    cfg,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.started.IsZero() {
		s.started = s.now()
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.StripSlashes)
	s.router.Use(caseInsensitive)
	s.router.Use(middleware.GetHead)
	s.router.Use(requestLogger(s.logger))
	s.router.Use(metrics)
	s.router.Use(s.recoverer)
}

func (s *Server) setupRoutes() {
	s.router.Handle("/metrics", promhttp.Handler())

	s.router.Get("/health", s.handle(s.handleHealth))
	s.router.Get("/", s.handle(s.handleRoot))
	s.router.Get("/api/status", s.handle(s.handleStatus))

	// Unknown methods on known paths are reported the same way as unknown
	// paths.
	s.router.NotFound(s.handleNotFound)
	s.router.MethodNotAllowed(s.handleNotFound)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// handlerFunc is an http.HandlerFunc that may fail. A returned error becomes a
// 500 response.
type handlerFunc func(w http.ResponseWriter, r *http.Request) error

func (s *Server) handle(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h(w, r); err != nil {
			s.internalError(w, r, err)
		}
	}
}
