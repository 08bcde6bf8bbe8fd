package handlers

import (
	"net/http"

	"nordgrid/internal/models"
	"nordgrid/internal/service"
)

// NewCountriesHandler returns GET /api/countries handler.
func NewCountriesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		countries := make(map[string]string, len(models.Countries()))
		for _, c := range models.Countries() {
			countries[string(c)] = c.Name()
		}
		writeJSON(w, http.StatusOK, countries)
	}
}

// NewCurrentHandler returns GET /api/current handler.
func NewCurrentHandler(svc *service.QueryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		current, err := svc.Current(r.Context())
		if err != nil {
			respondError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, current)
	}
}

type statusPoint struct {
	Timestamp   string  `json:"timestamp"`
	Production  float64 `json:"production"`
	Consumption float64 `json:"consumption"`
	Import      float64 `json:"import"`
	Export      float64 `json:"export"`
}

// NewStatusHandler returns GET /api/status/{country} handler.
func NewStatusHandler(svc *service.QueryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		country, err := pathCountry(r)
		if err != nil {
			respondError(w, err)
			return
		}

		history, err := svc.History(r.Context(), country, queryDays(r))
		if err != nil {
			respondError(w, err)
			return
		}

		data := make([]statusPoint, 0, len(history))
		for _, g := range history {
			data = append(data, statusPoint{
				Timestamp:   g.Timestamp.Format(timestampLayout),
				Production:  g.Production,
				Consumption: g.Consumption,
				Import:      g.ImportValue,
				Export:      g.ExportValue,
			})
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"country":      country,
			"country_name": country.Name(),
			"data":         data,
		})
	}
}

type typesPoint struct {
	Timestamp    string  `json:"timestamp"`
	Nuclear      float64 `json:"nuclear"`
	Hydro        float64 `json:"hydro"`
	Wind         float64 `json:"wind"`
	Thermal      float64 `json:"thermal"`
	NotSpecified float64 `json:"not_specified"`
}

// NewTypesHandler returns GET /api/types/{country} handler.
func NewTypesHandler(svc *service.QueryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		country, err := pathCountry(r)
		if err != nil {
			respondError(w, err)
			return
		}

		history, err := svc.History(r.Context(), country, queryDays(r))
		if err != nil {
			respondError(w, err)
			return
		}

		data := make([]typesPoint, 0, len(history))
		for _, g := range history {
			data = append(data, typesPoint{
				Timestamp:    g.Timestamp.Format(timestampLayout),
				Nuclear:      g.Nuclear,
				Hydro:        g.Hydro,
				Wind:         g.Wind,
				Thermal:      g.Thermal,
				NotSpecified: g.NotSpecified,
			})
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"country":      country,
			"country_name": country.Name(),
			"data":         data,
		})
	}
}

// NewSeriesHandler returns GET /api/series/{country}?metric=... handler.
func NewSeriesHandler(svc *service.QueryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		country, err := pathCountry(r)
		if err != nil {
			respondError(w, err)
			return
		}
		metric, err := models.ParseMetric(r.URL.Query().Get("metric"))
		if err != nil {
			respondError(w, err)
			return
		}

		points, err := svc.Series(r.Context(), country, metric, queryDays(r))
		if err != nil {
			respondError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"country": country,
			"metric":  metric,
			"data":    points,
		})
	}
}

// NewStatsHandler returns GET /api/stats handler.
func NewStatsHandler(svc *service.QueryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := svc.Stats(r.Context())
		if err != nil {
			respondError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, stats)
	}
}

const timestampLayout = "2006-01-02T15:04:05Z"
