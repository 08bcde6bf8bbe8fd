package handlers

import (
	"net/http"

	"nordgrid/internal/service"
)

// NewPricesHandler returns GET /api/prices/{country} handler. Optional query
// parameters: zone (defaults per country), days, currency.
func NewPricesHandler(svc *service.QueryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		country, err := pathCountry(r)
		if err != nil {
			respondError(w, err)
			return
		}

		query := r.URL.Query()
		points, zone, err := svc.PriceSeries(r.Context(), country, query.Get("zone"), queryDays(r), query.Get("currency"))
		if err != nil {
			respondError(w, err)
			return
		}

		currency := query.Get("currency")
		if currency == "" {
			currency = "EUR"
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"country":  country,
			"zone":     zone,
			"currency": currency,
			"data":     points,
		})
	}
}

// NewTodayTomorrowHandler returns GET /api/prices/{country}/today-tomorrow.
func NewTodayTomorrowHandler(svc *service.QueryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		country, err := pathCountry(r)
		if err != nil {
			respondError(w, err)
			return
		}

		result, err := svc.TodayTomorrowPrices(r.Context(), country, r.URL.Query().Get("zone"))
		if err != nil {
			respondError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

// NewZonesHandler returns GET /api/zones/{country} handler.
func NewZonesHandler(svc *service.QueryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		country, err := pathCountry(r)
		if err != nil {
			respondError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, svc.Zones(country))
	}
}
