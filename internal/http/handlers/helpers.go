package handlers

import (
	"errors"
	"net/http"
	"strconv"

	httpserver "nordgrid/internal/http"
	"nordgrid/internal/models"
)

var (
	writeJSON  = httpserver.WriteJSON
	writeError = httpserver.WriteError
)

// respondError maps validation failures to 400 and everything else to 500
// without leaking store detail.
func respondError(w http.ResponseWriter, err error) {
	var vErr *models.ValidationError
	if errors.As(err, &vErr) {
		writeError(w, http.StatusBadRequest, vErr.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, "internal error")
}

// pathCountry validates the {country} path segment.
func pathCountry(r *http.Request) (models.Country, error) {
	return models.ParseCountry(r.PathValue("country"))
}

// queryDays reads the days parameter; absent or malformed values fall back
// to zero, which the query layer replaces with its default window.
func queryDays(r *http.Request) int {
	raw := r.URL.Query().Get("days")
	if raw == "" {
		return 0
	}
	days, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return days
}
