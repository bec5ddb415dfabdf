package analytics

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// metricsResponse is the body of GET /metrics.
type metricsResponse struct {
	Snapshot
	Version string `json:"version"`
}

// Handler serves the latency snapshot as JSON.
type Handler struct {
	recorder *Recorder
	version  string
	logger   *slog.Logger
}

func NewHandler(recorder *Recorder, version string) *Handler {
	return &Handler{
		recorder: recorder,
		version:  version,
		logger:   slog.Default().With("component", "metrics-handler"),
	}
}

func (h *Handler) Metrics(w http.ResponseWriter, r *http.Request) {
	resp := metricsResponse{Snapshot: h.recorder.Snapshot(), Version: h.version}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("failed to write metrics response", "error", err)
	}
}
