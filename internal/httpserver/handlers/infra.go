package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/startpage/internal/httpserver/deps"
	"github.com/MrSnakeDoc/startpage/internal/logger"
)

type componentStatus struct {
	OK        bool    `json:"ok"`
	Backend   string  `json:"backend,omitempty"`
	Links     *int    `json:"links,omitempty"`
	Revision  *uint64 `json:"revision,omitempty"`
	Loaded    string  `json:"loaded,omitempty"`
	Persisted *bool   `json:"persisted,omitempty"`
	Impact    string  `json:"impact,omitempty"`
	Error     string  `json:"error,omitempty"`
}

type statusResponse struct {
	Mode       string                     `json:"mode"`
	Components map[string]componentStatus `json:"components"`
}

// Status reports the collection, the persistence backend and snapshots.
func Status(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st := d.Store.Status()

		collection := componentStatus{
			OK:        st.Persisted,
			Links:     &st.Links,
			Revision:  &st.Revision,
			Loaded:    st.Loaded.String(),
			Persisted: &st.Persisted,
			Error:     st.LastError,
		}
		if !st.Persisted {
			collection.Impact = "unsaved-changes-lost-on-restart"
		}

		components := map[string]componentStatus{
			"collection": collection,
			"backend":    checkBackend(r.Context(), d),
			"snapshots":  {OK: true, Impact: snapshotImpact(d)},
		}

		writeJSON(w, http.StatusOK, statusResponse{
			Mode:       determineMode(components),
			Components: components,
		})
	}
}

func snapshotImpact(d deps.Deps) string {
	if d.SnapshotTrigger == nil {
		return "disabled"
	}
	return "enabled"
}

func determineMode(components map[string]componentStatus) string {
	if !components["backend"].OK {
		return "critical" // nothing can be saved
	}
	if !components["collection"].OK {
		return "degraded" // memory is ahead of the slot
	}
	return "ok"
}

func checkBackend(ctx context.Context, d deps.Deps) componentStatus {
	if d.Pinger == nil {
		return componentStatus{OK: true, Backend: d.Backend}
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := d.Pinger.Ping(ctx); err != nil {
		return componentStatus{
			OK:      false,
			Backend: d.Backend,
			Impact:  "changes-not-persisted",
			Error:   err.Error(),
		}
	}
	return componentStatus{OK: true, Backend: d.Backend}
}

type readyzResponse struct {
	Ready bool   `json:"ready"`
	Error string `json:"error,omitempty"`
}

// Readyz fails while the persistence backend cannot be reached.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if backend := checkBackend(r.Context(), d); !backend.OK {
			writeJSON(w, http.StatusServiceUnavailable, readyzResponse{Ready: false, Error: backend.Error})
			return
		}
		writeJSON(w, http.StatusOK, readyzResponse{Ready: true})
	}
}

// Backup asks the snapshotter for an immediate snapshot.
func Backup(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.SnapshotTrigger == nil {
			writeError(w, http.StatusNotFound, "snapshots are disabled")
			return
		}

		select {
		case d.SnapshotTrigger <- struct{}{}:
			d.Logger.Info("manual snapshot triggered via endpoint",
				logger.String("request_id", requestID(r)))
			writeJSON(w, http.StatusAccepted, map[string]string{"status": "snapshot triggered"})
		default:
			d.Logger.Warn("snapshot already pending",
				logger.String("request_id", requestID(r)))
			writeError(w, http.StatusTooManyRequests, "snapshot already in progress, please wait")
		}
	}
}
