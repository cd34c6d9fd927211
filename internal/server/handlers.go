package server

import (
	"net/http"

	"github.com/rs/zerolog"
)

const (
	welcomeMessage = "Welcome to Docker Express API"
	redactedError  = "Something went wrong"

	// isoTimestamp renders UTC instants with millisecond precision and a Z
	// suffix.
	isoTimestamp = "2006-01-02T15:04:05.000Z07:00"
)

type healthResponse struct {
	Status      string  `json:"status"`
	Timestamp   string  `json:"timestamp"`
	Environment string  `json:"environment"`
	Uptime      float64 `json:"uptime"`
}

type rootResponse struct {
	Message     string `json:"message"`
	Version     string `json:"version"`
	Environment string `json:"environment"`
}

type statusResponse struct {
	Status      string `json:"status"`
	Environment string `json:"environment"`
	Port        string `json:"port"`
}

type notFoundResponse struct {
	Error  string `json:"error"`
	Path   string `json:"path"`
	Method string `json:"method"`
}

type errorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

func (s *Server) timestamp() string {
	return s.now().UTC().Format(isoTimestamp)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) error {
	return writeJSON(w, http.StatusOK, healthResponse{
		Status:      "OK",
		Timestamp:   s.timestamp(),
		Environment: s.cfg.Environment,
		Uptime:      s.now().Sub(s.started).Seconds(),
	})
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) error {
	return writeJSON(w, http.StatusOK, rootResponse{
		Message:     welcomeMessage,
		Version:     s.cfg.Version,
		Environment: s.cfg.Environment,
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) error {
	return writeJSON(w, http.StatusOK, statusResponse{
		Status:      "running",
		Environment: s.cfg.Environment,
		Port:        s.cfg.PortString(),
	})
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	if err := writeJSON(w, http.StatusNotFound, notFoundResponse{
		Error:  "Route not found",
		Path:   r.URL.RequestURI(),
		Method: r.Method,
	}); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to write response")
	}
}

// internalError logs err in full and answers 500. The error text is only
// returned to the caller in development.
func (s *Server) internalError(w http.ResponseWriter, r *http.Request, err error) {
	zerolog.Ctx(r.Context()).Error().
		Err(err).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Msg("request failed")

	message := redactedError
	if s.cfg.IsDevelopment() {
		message = err.Error()
	}
	if werr := writeJSON(w, http.StatusInternalServerError, errorResponse{
		Error:     "Internal server error",
		Message:   message,
		Timestamp: s.timestamp(),
	}); werr != nil {
		zerolog.Ctx(r.Context()).Error().Err(werr).Msg("failed to write response")
	}
}
