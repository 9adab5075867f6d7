package api

import (
	"bytes"
	"net/http"

	"github.com/okian/riskpoll/internal/domain/report"
	"github.com/okian/riskpoll/pkg/logger"
)

// AdminHandler serves the aggregated report.
type AdminHandler struct {
	deps   Dependencies
	logger logger.Logger
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(deps Dependencies, l logger.Logger) *AdminHandler {
	return &AdminHandler{deps: deps, logger: l}
}

// HandleAdmin handles GET /admin requests with an HTML table.
func (h *AdminHandler) HandleAdmin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	rep, err := h.report(r)
	if err != nil {
		writePlain(w, http.StatusInternalServerError, msgLoadFailed)
		return
	}

	// Render before any header is written.
	var buf bytes.Buffer
	if err := report.WriteHTML(&buf, rep); err != nil {
		h.logger.Error(r.Context(), "render report failed", logger.Error(err))
		writePlain(w, http.StatusInternalServerError, msgLoadFailed)
		return
	}
	w.Header().Set("Content-Type", contentTypeHTML)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// HandleReportJSON handles GET /admin/report.json requests.
func (h *AdminHandler) HandleReportJSON(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	rep, err := h.report(r)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, msgLoadFailed)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// report builds the report, logging any store failure.
func (h *AdminHandler) report(r *http.Request) (report.Report, error) {
	rep, err := h.deps.Report(r.Context())
	if err != nil {
		h.logger.Error(r.Context(), "load report failed",
			logger.String("request_id", RequestIDFrom(r.Context())),
			logger.Error(err),
		)
		return report.Report{}, err
	}
	return rep, nil
}
