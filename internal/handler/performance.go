package handler

import (
	"net/http"
	"time"

	"github.com/RaknaroK4LifeBRuv/verbo-friend-mentor/internal/apperror"
	"github.com/RaknaroK4LifeBRuv/verbo-friend-mentor/internal/auth"
	"github.com/RaknaroK4LifeBRuv/verbo-friend-mentor/internal/repository"
	"github.com/RaknaroK4LifeBRuv/verbo-friend-mentor/internal/service"
)

// PerformanceHandler serves standalone performance metrics and their
// derived summary.
type PerformanceHandler struct {
	performanceService *service.PerformanceService
}

func NewPerformanceHandler(performanceService *service.PerformanceService) *PerformanceHandler {
	return &PerformanceHandler{performanceService: performanceService}
}

type metricRequest struct {
	Category string         `json:"category"`
	Score    float64        `json:"score"`
	Details  map[string]any `json:"details"`
}

// Record handles POST /api/metrics.
func (h *PerformanceHandler) Record(w http.ResponseWriter, r *http.Request) {
	var req metricRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	m, err := h.performanceService.RecordPerformanceMetric(r.Context(), auth.UserIDFromContext(r.Context()),
		req.Category, req.Score, req.Details)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

// List handles GET /api/metrics?category=&from=&to=&order=.
func (h *PerformanceHandler) List(w http.ResponseWriter, r *http.Request) {
	q := repository.MetricQuery{
		Category:  r.URL.Query().Get("category"),
		Ascending: r.URL.Query().Get("order") == "asc",
	}

	var err error
	if q.From, err = parseDateParam(r.URL.Query().Get("from")); err != nil {
		writeError(w, apperror.ValidationFailed("from", "dates use YYYY-MM-DD or RFC 3339"))
		return
	}
	if q.To, err = parseDateParam(r.URL.Query().Get("to")); err != nil {
		writeError(w, apperror.ValidationFailed("to", "dates use YYYY-MM-DD or RFC 3339"))
		return
	}

	metrics, err := h.performanceService.GetPerformanceMetrics(r.Context(), auth.UserIDFromContext(r.Context()), q)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, metrics)
}

// Summary handles GET /api/metrics/summary.
func (h *PerformanceHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.performanceService.GetPerformanceSummary(r.Context(), auth.UserIDFromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func parseDateParam(v string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
