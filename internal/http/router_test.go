package httpserver_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"nordgrid/internal/db"
	httpserver "nordgrid/internal/http"
	"nordgrid/internal/http/handlers"
	"nordgrid/internal/ingest"
	"nordgrid/internal/models"
	"nordgrid/internal/service"
	"nordgrid/internal/store"
	"nordgrid/internal/ws"
)

type stubGrid struct{ readings []models.GridReading }

func (s *stubGrid) FetchSnapshot(ctx context.Context) ([]models.GridReading, error) {
	return s.readings, nil
}

type stubPrices struct{}

func (s *stubPrices) FetchPrices(ctx context.Context, zone models.Zone, dayOffset int) ([]models.PriceReading, error) {
	return nil, nil
}

type testEnv struct {
	handler  http.Handler
	gridRepo *store.GridRepository
	hub      *ws.Hub
}

func newTestEnv(t *testing.T, jwtSecret string, rps int) *testEnv {
	t.Helper()
	sqlDB, err := db.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, store.Migrate(context.Background(), sqlDB))

	gridRepo := store.NewGridRepository(sqlDB)
	priceRepo := store.NewPriceRepository(sqlDB)
	logger := zap.NewNop()
	svc := service.NewQueryService(gridRepo, priceRepo, 200, map[string]float64{"SEK": 11.5}, logger)

	grid := &stubGrid{readings: []models.GridReading{{
		Country:    models.CountrySE,
		Timestamp:  time.Now().UTC().Truncate(time.Minute),
		Production: 15, Consumption: 14, Wind: 6,
	}}}
	job := ingest.NewJob(grid, &stubPrices{}, gridRepo, priceRepo, 200, logger)
	scheduler := ingest.NewScheduler(job, time.Hour, logger)
	hub := ws.NewHub(logger)

	routes := httpserver.Routes{
		Countries:          handlers.NewCountriesHandler(),
		Current:            handlers.NewCurrentHandler(svc),
		Status:             handlers.NewStatusHandler(svc),
		Types:              handlers.NewTypesHandler(svc),
		Series:             handlers.NewSeriesHandler(svc),
		Prices:             handlers.NewPricesHandler(svc),
		TodayTomorrow:      handlers.NewTodayTomorrowHandler(svc),
		Zones:              handlers.NewZonesHandler(svc),
		Correlation:        handlers.NewCorrelationHandler(svc),
		CorrelationSummary: handlers.NewCorrelationSummaryHandler(svc),
		Stats:              handlers.NewStatsHandler(svc),
		Health:             handlers.NewHealthHandler(sqlDB),
		Debug:              handlers.NewDebugHandler(scheduler, true),
		FetchNow:           handlers.NewFetchNowHandler(scheduler),
		LiveWS:             hub.HandleWS,
	}

	limiter := httpserver.NewRateLimiter(rps)
	handler := httpserver.NewRouter(routes, limiter, httpserver.InternalAuth(jwtSecret, logger), logger)
	return &testEnv{handler: handler, gridRepo: gridRepo, hub: hub}
}

func (e *testEnv) do(t *testing.T, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func signToken(t *testing.T, secret string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "ops",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestCountriesEndpoint(t *testing.T) {
	env := newTestEnv(t, "", 1000)

	rec := env.do(t, http.MethodGet, "/api/countries", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body, 4)
	assert.Equal(t, "Sweden", body["SE"])

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.Contains(t, rec.Header().Get("Cache-Control"), "no-store")
}

func TestUnknownCountryRejected(t *testing.T) {
	env := newTestEnv(t, "", 1000)

	rec := env.do(t, http.MethodGet, "/api/zones/XX", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body["error"], "country")
}

func TestZonesEndpoint(t *testing.T) {
	env := newTestEnv(t, "", 1000)

	rec := env.do(t, http.MethodGet, "/api/zones/SE", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Zones       []string `json:"zones"`
		DefaultZone string   `json:"default_zone"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "SE3", body.DefaultZone)
	assert.Len(t, body.Zones, 4)
}

func TestSeriesRequiresMetric(t *testing.T) {
	env := newTestEnv(t, "", 1000)

	rec := env.do(t, http.MethodGet, "/api/series/SE", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/series/SE?metric=production", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMethodNotAllowed(t *testing.T) {
	env := newTestEnv(t, "", 1000)

	rec := env.do(t, http.MethodPost, "/api/countries", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, http.MethodGet, rec.Header().Get("Allow"))
}

func TestSuspiciousPathsBlocked(t *testing.T) {
	env := newTestEnv(t, "", 1000)

	rec := env.do(t, http.MethodGet, "/wp-admin/setup.php", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodGet, "/api//countries", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRateLimitExceeded(t *testing.T) {
	env := newTestEnv(t, "", 1)

	headers := map[string]string{"X-Real-IP": "203.0.113.9"}
	var lastCode int
	for i := 0; i < 5; i++ {
		lastCode = env.do(t, http.MethodGet, "/api/countries", headers).Code
	}
	assert.Equal(t, http.StatusTooManyRequests, lastCode)

	// A different client is unaffected.
	rec := env.do(t, http.MethodGet, "/api/countries", map[string]string{"X-Real-IP": "203.0.113.10"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestInternalDisabledWithoutSecret(t *testing.T) {
	env := newTestEnv(t, "", 1000)

	rec := env.do(t, http.MethodGet, "/internal/health", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestInternalAuth(t *testing.T) {
	const secret = "test-secret"
	env := newTestEnv(t, secret, 1000)

	rec := env.do(t, http.MethodGet, "/internal/health", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodGet, "/internal/health", map[string]string{
		"Authorization": "Bearer " + signToken(t, "wrong-secret"),
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodGet, "/internal/health", map[string]string{
		"Authorization": "Bearer " + signToken(t, secret),
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
}

func TestFetchNowWritesAndReports(t *testing.T) {
	const secret = "test-secret"
	env := newTestEnv(t, secret, 1000)
	auth := map[string]string{"Authorization": "Bearer " + signToken(t, secret)}

	rec := env.do(t, http.MethodPost, "/internal/fetch-now", auth)
	require.Equal(t, http.StatusOK, rec.Code)

	var summary ingest.Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, 1, summary.GridRows)

	latest, err := env.gridRepo.Latest(context.Background(), models.CountrySE)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, 15.0, latest.Production)

	// Data written through the internal trigger is visible on the public API.
	rec = env.do(t, http.MethodGet, "/api/current", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Sweden")
}

func TestDebugEndpointExposesSchedulerState(t *testing.T) {
	const secret = "test-secret"
	env := newTestEnv(t, secret, 1000)
	auth := map[string]string{"Authorization": "Bearer " + signToken(t, secret)}

	rec := env.do(t, http.MethodGet, "/internal/debug", auth)
	require.Equal(t, http.StatusOK, rec.Code)

	var state ingest.State
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	assert.False(t, state.Running)
}

func TestStatsEndpoint(t *testing.T) {
	env := newTestEnv(t, "", 1000)

	rec := env.do(t, http.MethodGet, "/api/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		TotalRecords int64 `json:"total_records"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Zero(t, body.TotalRecords)
}

func TestUnknownRouteReturnsJSONNotFound(t *testing.T) {
	env := newTestEnv(t, "", 1000)

	rec := env.do(t, http.MethodGet, "/api/nope", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not found", body["error"])
}

func TestLiveWebSocketUpgradeThroughRouter(t *testing.T) {
	env := newTestEnv(t, "", 1000)
	srv := httptest.NewServer(env.handler)
	defer srv.Close()

	// The upgrade must survive the full middleware chain, including the
	// logging wrapper around the response writer.
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/live"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	assert.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)

	require.Eventually(t, func() bool { return env.hub.Count() == 1 }, 2*time.Second, 10*time.Millisecond)

	env.hub.Broadcast("ingestion", ingest.Summary{GridRows: 4})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg struct {
		Event string         `json:"event"`
		Data  ingest.Summary `json:"data"`
	}
	require.NoError(t, json.Unmarshal(raw, &msg))
	assert.Equal(t, "ingestion", msg.Event)
	assert.Equal(t, 4, msg.Data.GridRows)
}

func TestPricesUnknownCurrencyRejected(t *testing.T) {
	env := newTestEnv(t, "", 1000)

	rec := env.do(t, http.MethodGet, "/api/prices/SE?currency=USD", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/prices/SE?currency=SEK", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
