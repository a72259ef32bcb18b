package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gourl/idforge/internal/models"
	"github.com/gourl/idforge/internal/services"
)

// TotalsResponse is the body of GET /api/v1/stats.
type TotalsResponse struct {
	Since  *time.Time           `json:"since,omitempty"`
	Totals []models.FormatTotal `json:"totals"`
}

// FormatStatsResponse is the body of GET /api/v1/stats/{format}.
type FormatStatsResponse struct {
	Format string                  `json:"format"`
	Since  *time.Time              `json:"since,omitempty"`
	Stats  []models.GenerationStat `json:"stats"`
}

// StatsHandler handles generation statistics endpoints.
type StatsHandler struct {
	service services.StatsService
}

// NewStatsHandler creates a new StatsHandler.
func NewStatsHandler(svc services.StatsService) *StatsHandler {
	return &StatsHandler{service: svc}
}

// Totals handles GET /api/v1/stats?since=RFC3339 requests.
func (h *StatsHandler) Totals(w http.ResponseWriter, r *http.Request) {
	since, ok := parseSince(w, r)
	if !ok {
		return
	}

	totals, err := h.service.Totals(r.Context(), since)
	if err != nil {
		writeError(w, err)
		return
	}
	if totals == nil {
		totals = []models.FormatTotal{}
	}

	writeJSON(w, http.StatusOK, TotalsResponse{Since: optionalTime(since), Totals: totals})
}

// FormatStats handles GET /api/v1/stats/{format}?since=RFC3339 requests.
func (h *StatsHandler) FormatStats(w http.ResponseWriter, r *http.Request) {
	since, ok := parseSince(w, r)
	if !ok {
		return
	}

	format := r.PathValue("format")
	stats, err := h.service.FormatStats(r.Context(), format, since)
	if err != nil {
		writeError(w, err)
		return
	}
	if stats == nil {
		stats = []models.GenerationStat{}
	}

	writeJSON(w, http.StatusOK, FormatStatsResponse{
		Format: strings.ToLower(strings.TrimSpace(format)),
		Since:  optionalTime(since),
		Stats:  stats,
	})
}

func parseSince(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	raw := r.URL.Query().Get("since")
	if raw == "" {
		return time.Time{}, true
	}
	since, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		badRequest(w, "since must be an RFC 3339 timestamp")
		return time.Time{}, false
	}
	return since.UTC(), true
}

func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
