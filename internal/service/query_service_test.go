package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"nordgrid/internal/db"
	"nordgrid/internal/models"
	"nordgrid/internal/store"
)

func newTestService(t *testing.T) (*QueryService, *store.GridRepository, *store.PriceRepository) {
	t.Helper()
	sqlDB, err := db.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, store.Migrate(context.Background(), sqlDB))

	gridRepo := store.NewGridRepository(sqlDB)
	priceRepo := store.NewPriceRepository(sqlDB)
	rates := map[string]float64{"SEK": 11.5, "NOK": 11.8, "DKK": 7.46}
	svc := NewQueryService(gridRepo, priceRepo, 200, rates, zap.NewNop())
	return svc, gridRepo, priceRepo
}

func TestClampDays(t *testing.T) {
	svc, _, _ := newTestService(t)
	assert.Equal(t, 7, svc.ClampDays(0))
	assert.Equal(t, 7, svc.ClampDays(-3))
	assert.Equal(t, 1, svc.ClampDays(1))
	assert.Equal(t, 200, svc.ClampDays(100000))
}

func TestSeriesAfterIngest(t *testing.T) {
	svc, gridRepo, _ := newTestService(t)
	ctx := context.Background()
	ts := time.Now().UTC().Truncate(time.Minute)

	reading := models.GridReading{
		Country:     models.CountrySE,
		Timestamp:   ts,
		Production:  10.0,
		Consumption: 9.0,
	}
	require.NoError(t, gridRepo.Upsert(ctx, &reading))

	points, err := svc.Series(ctx, models.CountrySE, models.MetricProduction, 1)
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, 10.0, points[0].Value)
	assert.True(t, points[0].Timestamp.Equal(ts))
}

func TestCorrelationTooFewMatchedHours(t *testing.T) {
	svc, gridRepo, priceRepo := newTestService(t)
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Hour).Add(-3 * time.Hour)

	// Wind production and prices at the same two hours only.
	for i, wind := range []float64{2.0, 3.0} {
		r := models.GridReading{
			Country:   models.CountrySE,
			Timestamp: base.Add(time.Duration(i) * time.Hour),
			Wind:      wind,
		}
		require.NoError(t, gridRepo.Upsert(ctx, &r))
		p := models.PriceReading{
			Zone:      "SE3",
			Timestamp: base.Add(time.Duration(i) * time.Hour),
			Price:     45 + 5*float64(i),
		}
		require.NoError(t, priceRepo.Upsert(ctx, &p))
	}

	report, err := svc.Correlation(ctx, models.CountrySE, "SE3", models.EnergyWind, 7)
	require.NoError(t, err)
	assert.Equal(t, 2, report.N)
	assert.Nil(t, report.R)
	assert.Equal(t, "insufficient data", report.Interpretation)
	assert.Len(t, report.Series, 2)
}

func TestCorrelationStrongAcrossHours(t *testing.T) {
	svc, gridRepo, priceRepo := newTestService(t)
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Hour).Add(-12 * time.Hour)

	for i := 0; i < 6; i++ {
		r := models.GridReading{
			Country:   models.CountryDK,
			Timestamp: base.Add(time.Duration(i) * time.Hour),
			Wind:      float64(i + 1),
		}
		require.NoError(t, gridRepo.Upsert(ctx, &r))
		p := models.PriceReading{
			Zone:      "DK1",
			Timestamp: base.Add(time.Duration(i) * time.Hour),
			Price:     100 - 10*float64(i),
		}
		require.NoError(t, priceRepo.Upsert(ctx, &p))
	}

	report, err := svc.Correlation(ctx, models.CountryDK, "", models.EnergyWind, 7)
	require.NoError(t, err)
	require.NotNil(t, report.R)
	assert.InDelta(t, -1.0, *report.R, 1e-9)
	assert.Equal(t, "strong negative", report.Interpretation)
	assert.Equal(t, models.Zone("DK1"), report.Zone, "empty zone falls back to country default")
}

func TestCorrelationSummaryCoversAllTypes(t *testing.T) {
	svc, _, _ := newTestService(t)

	summary, err := svc.CorrelationSummary(context.Background(), models.CountryFI, "", 7)
	require.NoError(t, err)
	require.Len(t, summary, len(models.EnergyTypes()))
	for _, result := range summary {
		assert.Nil(t, result.R)
		assert.Equal(t, "insufficient data", result.Interpretation)
	}
}

func TestPriceSeriesCurrencyConversion(t *testing.T) {
	svc, _, priceRepo := newTestService(t)
	ctx := context.Background()
	ts := time.Now().UTC().Truncate(time.Hour)

	require.NoError(t, priceRepo.Upsert(ctx, &models.PriceReading{Zone: "SE3", Timestamp: ts, Price: 10}))

	points, zone, err := svc.PriceSeries(ctx, models.CountrySE, "", 1, "SEK")
	require.NoError(t, err)
	assert.Equal(t, models.Zone("SE3"), zone)
	require.Len(t, points, 1)
	assert.InDelta(t, 115.0, points[0].Value, 1e-9)

	_, _, err = svc.PriceSeries(ctx, models.CountrySE, "", 1, "USD")
	var vErr *models.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "currency", vErr.Field)
}

func TestPriceSeriesRejectsForeignZone(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, _, err := svc.PriceSeries(context.Background(), models.CountryNO, "SE3", 1, "")
	var vErr *models.ValidationError
	require.ErrorAs(t, err, &vErr)
}

func TestTodayTomorrowPrices(t *testing.T) {
	svc, _, priceRepo := newTestService(t)
	ctx := context.Background()
	midnight := time.Now().UTC().Truncate(24 * time.Hour)

	for i := 0; i < 3; i++ {
		p := models.PriceReading{Zone: "FI", Timestamp: midnight.Add(time.Duration(i) * time.Hour), Price: 40}
		require.NoError(t, priceRepo.Upsert(ctx, &p))
	}

	result, err := svc.TodayTomorrowPrices(ctx, models.CountryFI, "")
	require.NoError(t, err)
	assert.Len(t, result.Today, 3)
	assert.False(t, result.HasTomorrow)
	assert.Empty(t, result.Tomorrow)

	tomorrow := models.PriceReading{Zone: "FI", Timestamp: midnight.AddDate(0, 0, 1).Add(12 * time.Hour), Price: 55}
	require.NoError(t, priceRepo.Upsert(ctx, &tomorrow))

	result, err = svc.TodayTomorrowPrices(ctx, models.CountryFI, "")
	require.NoError(t, err)
	assert.True(t, result.HasTomorrow)
	assert.Len(t, result.Tomorrow, 1)
}

func TestCurrentOmitsEmptyCountriesAndCarriesPrice(t *testing.T) {
	svc, gridRepo, priceRepo := newTestService(t)
	ctx := context.Background()
	ts := time.Now().UTC().Truncate(time.Minute)

	reading := models.GridReading{
		Country: models.CountrySE, Timestamp: ts,
		Production: 12, Consumption: 11, Nuclear: 5, Hydro: 4, Wind: 3,
	}
	require.NoError(t, gridRepo.Upsert(ctx, &reading))
	require.NoError(t, priceRepo.Upsert(ctx, &models.PriceReading{Zone: "SE3", Timestamp: ts.Truncate(time.Hour), Price: 47}))

	current, err := svc.Current(ctx)
	require.NoError(t, err)
	require.Contains(t, current, models.CountrySE)
	assert.NotContains(t, current, models.CountryNO)

	se := current[models.CountrySE]
	assert.Equal(t, "Sweden", se.Name)
	assert.Equal(t, 12.0, se.Status["production"])
	assert.Equal(t, 5.0, se.Types["nuclear"])
	require.NotNil(t, se.Price)
	assert.Equal(t, 47.0, se.Price.Price)
	assert.Equal(t, "EUR", se.Price.Currency)
}

func TestStats(t *testing.T) {
	svc, gridRepo, _ := newTestService(t)
	ctx := context.Background()

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.TotalRecords)
	assert.Nil(t, stats.NewestRecord)

	ts := time.Now().UTC().Truncate(time.Minute)
	r := models.GridReading{Country: models.CountryDK, Timestamp: ts, Production: 2}
	require.NoError(t, gridRepo.Upsert(ctx, &r))

	stats, err = svc.Stats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, stats.TotalRecords)
	require.NotNil(t, stats.NewestRecord)
	assert.True(t, stats.NewestRecord.Equal(ts))
}

func TestZones(t *testing.T) {
	svc, _, _ := newTestService(t)

	info := svc.Zones(models.CountrySE)
	assert.Equal(t, models.Zone("SE3"), info.DefaultZone)
	assert.Len(t, info.Zones, 4)
}
