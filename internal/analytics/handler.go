package analytics

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
)

// SnapshotLister returns persisted stats, newest first.
type SnapshotLister interface {
	ListSnapshots(ctx context.Context, limit int) ([]Snapshot, error)
}

type Handler struct {
	aggregator *Aggregator
	snapshots  SnapshotLister
	logger     *slog.Logger
}

// NewHandler serves live stats; snapshots may be nil when nothing is
// persisted.
func NewHandler(aggregator *Aggregator, snapshots SnapshotLister) *Handler {
	return &Handler{
		aggregator: aggregator,
		snapshots:  snapshots,
		logger:     slog.Default().With("component", "analytics-handler"),
	}
}

// Stats writes the live aggregate. With ?snapshots=N it also includes the
// last N persisted snapshots.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	resp := struct {
		Live      AggregatedStats `json:"live"`
		Snapshots []Snapshot      `json:"snapshots,omitempty"`
	}{Live: h.aggregator.Stats()}

	if raw := r.URL.Query().Get("snapshots"); raw != "" && h.snapshots != nil {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 100 {
			h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "snapshots must be between 1 and 100"})
			return
		}
		snaps, err := h.snapshots.ListSnapshots(r.Context(), n)
		if err != nil {
			h.logger.Error("listing snapshots failed", "error", err)
			h.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "snapshots unavailable"})
			return
		}
		resp.Snapshots = snaps
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to write analytics response", "error", err)
	}
}
