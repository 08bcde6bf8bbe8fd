package httpserver

import (
	"net/http"

	"go.uber.org/zap"
)

// Routes groups handlers.
type Routes struct {
	Countries          http.HandlerFunc
	Current            http.HandlerFunc
	Status             http.HandlerFunc
	Types              http.HandlerFunc
	Series             http.HandlerFunc
	Prices             http.HandlerFunc
	TodayTomorrow      http.HandlerFunc
	Zones              http.HandlerFunc
	Correlation        http.HandlerFunc
	CorrelationSummary http.HandlerFunc
	Stats              http.HandlerFunc

	Health   http.HandlerFunc
	Debug    http.HandlerFunc
	FetchNow http.HandlerFunc

	LiveWS http.HandlerFunc
}

// NewRouter registers endpoints. Public /api routes sit behind the rate
// limiter; /internal routes sit behind bearer auth instead.
func NewRouter(routes Routes, limiter *RateLimiter, internalAuth Middleware, logger *zap.Logger) http.Handler {
	mux := http.NewServeMux()

	api := func(h http.HandlerFunc) http.Handler {
		return Chain(method(http.MethodGet, h), RateLimit(limiter))
	}

	mux.Handle("/api/countries", api(routes.Countries))
	mux.Handle("/api/current", api(routes.Current))
	mux.Handle("/api/status/{country}", api(routes.Status))
	mux.Handle("/api/types/{country}", api(routes.Types))
	mux.Handle("/api/series/{country}", api(routes.Series))
	mux.Handle("/api/prices/{country}", api(routes.Prices))
	mux.Handle("/api/prices/{country}/today-tomorrow", api(routes.TodayTomorrow))
	mux.Handle("/api/zones/{country}", api(routes.Zones))
	mux.Handle("/api/correlation/{country}", api(routes.Correlation))
	mux.Handle("/api/correlation/{country}/summary", api(routes.CorrelationSummary))
	mux.Handle("/api/stats", api(routes.Stats))

	mux.Handle("/internal/health", internalAuth(method(http.MethodGet, routes.Health)))
	mux.Handle("/internal/debug", internalAuth(method(http.MethodGet, routes.Debug)))
	mux.Handle("/internal/fetch-now", internalAuth(method(http.MethodPost, routes.FetchNow)))

	if routes.LiveWS != nil {
		mux.Handle("/ws/live", method(http.MethodGet, routes.LiveWS))
	}

	// Unmatched paths get a JSON body like every other error response.
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, http.StatusNotFound, "not found")
	})

	return Chain(mux, SecurityHeaders(), BlockSuspicious(logger), RequestLogger(logger))
}

func method(expected string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != expected {
			w.Header().Set("Allow", expected)
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		handler(w, r)
	}
}
