package clients

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newNordpoolTestClient(t *testing.T, handler http.HandlerFunc) *NordpoolClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewNordpoolClient(srv.URL, time.Second, zap.NewNop())
}

func TestFetchPricesParsesEntries(t *testing.T) {
	var gotQuery map[string]string
	client := newNordpoolTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{
			"deliveryArea": r.URL.Query().Get("deliveryArea"),
			"currency":     r.URL.Query().Get("currency"),
			"market":       r.URL.Query().Get("market"),
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"multiAreaEntries": [
				{"deliveryStart": "2026-01-01T00:00:00Z", "entryPerArea": {"SE3": 45.0, "SE4": 50.1}},
				{"deliveryStart": "2026-01-01T01:00:00Z", "entryPerArea": {"SE3": -2.5}},
				{"deliveryStart": "2026-01-01T02:00:00Z", "entryPerArea": {"SE4": 48.0}}
			]
		}`)
	})

	readings, err := client.FetchPrices(context.Background(), "SE3", 0)
	require.NoError(t, err)
	require.Len(t, readings, 2)

	assert.Equal(t, "SE3", gotQuery["deliveryArea"])
	assert.Equal(t, "EUR", gotQuery["currency"])
	assert.Equal(t, "DayAhead", gotQuery["market"])

	assert.Equal(t, 45.0, readings[0].Price)
	assert.True(t, readings[0].Timestamp.Equal(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)))
	// Negative clearing prices pass through untouched.
	assert.Equal(t, -2.5, readings[1].Price)
}

func TestFetchPricesTomorrowNotPublished(t *testing.T) {
	client := newNordpoolTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	readings, err := client.FetchPrices(context.Background(), "SE3", 1)
	require.NoError(t, err)
	assert.Empty(t, readings)
}

func TestFetchPricesBadStatus(t *testing.T) {
	client := newNordpoolTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.FetchPrices(context.Background(), "SE3", 0)
	var fErr *FetchError
	require.True(t, errors.As(err, &fErr))
	assert.Equal(t, FetchBadStatus, fErr.Reason)
}

func TestFetchPricesMalformedPayload(t *testing.T) {
	client := newNordpoolTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"multiAreaEntries": [{"deliveryStart": 12`)
	})

	_, err := client.FetchPrices(context.Background(), "SE3", 0)
	var fErr *FetchError
	require.True(t, errors.As(err, &fErr))
	assert.Equal(t, FetchMalformed, fErr.Reason)
}
