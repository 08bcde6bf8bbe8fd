package handlers

import (
	"net/http"

	"nordgrid/internal/models"
	"nordgrid/internal/service"
)

// NewCorrelationHandler returns GET /api/correlation/{country}?type=...&zone=...
func NewCorrelationHandler(svc *service.QueryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		country, err := pathCountry(r)
		if err != nil {
			respondError(w, err)
			return
		}
		energyType, err := models.ParseEnergyType(r.URL.Query().Get("type"))
		if err != nil {
			respondError(w, err)
			return
		}

		report, err := svc.Correlation(r.Context(), country, r.URL.Query().Get("zone"), energyType, queryDays(r))
		if err != nil {
			respondError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, report)
	}
}

// NewCorrelationSummaryHandler returns GET /api/correlation/{country}/summary.
func NewCorrelationSummaryHandler(svc *service.QueryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		country, err := pathCountry(r)
		if err != nil {
			respondError(w, err)
			return
		}

		summary, err := svc.CorrelationSummary(r.Context(), country, r.URL.Query().Get("zone"), queryDays(r))
		if err != nil {
			respondError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"country": country,
			"types":   summary,
		})
	}
}
