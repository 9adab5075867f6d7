// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/riskpoll/internal/domain/model"
	"github.com/okian/riskpoll/internal/domain/report"
	"github.com/okian/riskpoll/pkg/logger"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Submit durably stores one validated submission.
	Submit(ctx context.Context, sub model.Submission) error

	// Reject records a submission that failed validation.
	Reject(ctx context.Context, err error)

	// Report aggregates the current store contents.
	Report(ctx context.Context) (report.Report, error)

	// Backend names the active store.
	Backend() string
}

// Server wires HTTP routes for the survey API.
type Server struct {
	healthHandler *HealthHandler
	submitHandler *SubmitHandler
	adminHandler  *AdminHandler

	allowedOrigin string
	logger        logger.Logger
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithAllowedOrigin sets the Access-Control-Allow-Origin value.
func WithAllowedOrigin(origin string) ServerOption {
	return func(s *Server) {
		if origin != "" {
			s.allowedOrigin = origin
		}
	}
}

// WithLogger sets the logger used by handlers.
func WithLogger(l logger.Logger) ServerOption {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...ServerOption) *Server {
	s := &Server{
		allowedOrigin: "*",
		logger:        logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.healthHandler = NewHealthHandler(deps, statsProvider)
	s.submitHandler = NewSubmitHandler(deps, s.logger.Named("submit"))
	s.adminHandler = NewAdminHandler(deps, s.logger.Named("admin"))
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.Handle("/healthz", s.wrap(s.healthHandler.HandleHealth, "healthz"))
	mux.Handle("/metrics", s.wrap(s.healthHandler.HandleMetrics, "metrics"))
	mux.Handle("/stats", s.wrap(s.healthHandler.HandleStats, "stats"))
	mux.Handle("/api/submit", s.wrap(s.submitHandler.HandleSubmit, "submit"))
	mux.Handle("/admin", s.wrap(s.adminHandler.HandleAdmin, "admin"))
	mux.Handle("/admin/report.json", s.wrap(s.adminHandler.HandleReportJSON, "report_json"))
}

// wrap applies the shared middleware chain to a route.
func (s *Server) wrap(h http.HandlerFunc, endpoint string) http.Handler {
	return RequestID(CORS(s.allowedOrigin, MetricsMiddleware(h, endpoint)))
}

// messageResponse is the body shape of every /api/submit response.
type messageResponse struct {
	Message string `json:"message"`
}

// Fixed client-facing messages.
const (
	msgOK            = "ok"
	msgMissingData   = "Missing data"
	msgSaveFailed    = "Failed to save data"
	msgLoadFailed    = "Failed to load data"
	contentTypeJSON  = "application/json; charset=utf-8"
	contentTypeHTML  = "text/html; charset=utf-8"
	contentTypePlain = "text/plain; charset=utf-8"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, messageResponse{Message: msg})
}

func writePlain(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", contentTypePlain)
	w.WriteHeader(status)
	_, _ = w.Write([]byte(msg))
}
