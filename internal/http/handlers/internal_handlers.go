package handlers

import (
	"database/sql"
	"errors"
	"net/http"

	"nordgrid/internal/ingest"
)

// NewHealthHandler returns GET /internal/health handler backed by a store ping.
func NewHealthHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"status": "unhealthy"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	}
}

// NewDebugHandler returns GET /internal/debug handler exposing scheduler state.
// Disabled unless the debug flag is set.
func NewDebugHandler(scheduler *ingest.Scheduler, enabled bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !enabled {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		writeJSON(w, http.StatusOK, scheduler.State())
	}
}

// NewFetchNowHandler returns POST /internal/fetch-now handler that runs one
// ingestion tick synchronously and returns its summary.
func NewFetchNowHandler(scheduler *ingest.Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		summary, err := scheduler.TriggerNow(r.Context())
		if errors.Is(err, ingest.ErrTickInProgress) {
			writeError(w, http.StatusConflict, "ingestion already running")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "ingestion failed")
			return
		}
		writeJSON(w, http.StatusOK, summary)
	}
}
