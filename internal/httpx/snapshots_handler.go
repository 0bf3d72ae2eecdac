package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/ariefcatur/go-table-booking/internal/reconcile"
	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

const (
	defaultLimit = 50
	maxLimit     = 500
)

type SnapshotReader interface {
	ListDiscrepancies(ctx context.Context, limit int) ([]reconcile.Snapshot, error)
	SnapshotsForBooking(ctx context.Context, bookingID string) ([]reconcile.Snapshot, error)
}

type SnapshotsHandler struct {
	Repo SnapshotReader
	Log  *logrus.Entry
}

func (h *SnapshotsHandler) Register(r chi.Router) {
	r.Get("/discrepancies", h.listDiscrepancies)
	r.Get("/bookings/{id}/snapshots", h.bookingSnapshots)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *SnapshotsHandler) listDiscrepancies(w http.ResponseWriter, r *http.Request) {
	limit := defaultLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a positive integer"})
			return
		}
		limit = min(n, maxLimit)
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	out, err := h.Repo.ListDiscrepancies(ctx, limit)
	if err != nil {
		h.Log.WithError(err).Error("list discrepancies")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *SnapshotsHandler) bookingSnapshots(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing id"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	out, err := h.Repo.SnapshotsForBooking(ctx, id)
	if err != nil {
		h.Log.WithError(err).WithField("booking_id", id).Error("load snapshots")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	if len(out) == 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	writeJSON(w, http.StatusOK, out)
}
