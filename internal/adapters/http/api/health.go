package api

import (
	"net/http"

	"github.com/okian/riskpoll/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// BackendReporter names the active store.
type BackendReporter interface {
	Backend() string
}

// StatsProvider exposes service counters for /stats.
type StatsProvider interface {
	GetStats() map[string]interface{}
}

// HealthHandler serves the operational endpoints: liveness, counters and
// the Prometheus exposition.
type HealthHandler struct {
	backend BackendReporter
	stats   StatsProvider
	metrics http.Handler
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(backend BackendReporter, stats StatsProvider) *HealthHandler {
	return &HealthHandler{
		backend: backend,
		stats:   stats,
		metrics: promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}),
	}
}

type healthResponse struct {
	Status  string `json:"status"`
	Backend string `json:"backend"`
}

// HandleHealth handles GET /healthz.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Backend: h.backend.Backend()})
}

// HandleStats handles GET /stats.
func (h *HealthHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, h.stats.GetStats())
}

// HandleMetrics handles GET /metrics.
func (h *HealthHandler) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	h.metrics.ServeHTTP(w, r)
}
