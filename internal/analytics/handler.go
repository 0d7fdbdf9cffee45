package analytics

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// Handler serves a Collector's Stats as JSON.
type Handler struct {
	collector *Collector
	logger    *slog.Logger
}

func NewHandler(collector *Collector) *Handler {
	return &Handler{
		collector: collector,
		logger:    slog.Default().With("component", "search-metrics-handler"),
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(h.collector.Stats()); err != nil {
		h.logger.Error("failed to write search stats response", "error", err)
	}
}
