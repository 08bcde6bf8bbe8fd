package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nordgrid/internal/models"
)

func hourlySeries(base time.Time, values ...float64) []models.Point {
	points := make([]models.Point, len(values))
	for i, v := range values {
		points[i] = models.Point{Timestamp: base.Add(time.Duration(i) * time.Hour), Value: v}
	}
	return points
}

var corrBase = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestCorrelatePerfectPositive(t *testing.T) {
	energy := hourlySeries(corrBase, 1, 2, 3, 4, 5)
	prices := hourlySeries(corrBase, 1, 2, 3, 4, 5)

	result, pairs := Correlate(energy, prices)
	require.NotNil(t, result.R)
	assert.InDelta(t, 1.0, *result.R, 1e-9)
	assert.Equal(t, 5, result.N)
	assert.Equal(t, "strong positive", result.Interpretation)
	assert.Len(t, pairs, 5)
}

func TestCorrelatePerfectNegative(t *testing.T) {
	energy := hourlySeries(corrBase, 1, 2, 3, 4, 5)
	prices := hourlySeries(corrBase, -1, -2, -3, -4, -5)

	result, _ := Correlate(energy, prices)
	require.NotNil(t, result.R)
	assert.InDelta(t, -1.0, *result.R, 1e-9)
	assert.Equal(t, "strong negative", result.Interpretation)
}

func TestCorrelateTooFewPairs(t *testing.T) {
	// Two matched hours: below the minimum regardless of magnitude.
	energy := hourlySeries(corrBase, 2, 3)
	prices := hourlySeries(corrBase, 45, 50)

	result, pairs := Correlate(energy, prices)
	assert.Nil(t, result.R)
	assert.Equal(t, 2, result.N)
	assert.Equal(t, "insufficient data", result.Interpretation)
	assert.Len(t, pairs, 2)
}

func TestCorrelateConstantSeries(t *testing.T) {
	energy := hourlySeries(corrBase, 5, 5, 5, 5)
	prices := hourlySeries(corrBase, 10, 20, 30, 40)

	result, _ := Correlate(energy, prices)
	assert.Nil(t, result.R)
	assert.Equal(t, 4, result.N)
}

func TestCorrelateDropsUnmatchedTimestamps(t *testing.T) {
	energy := hourlySeries(corrBase, 1, 2, 3, 4)
	// Prices shifted by two hours: only two overlapping timestamps.
	prices := hourlySeries(corrBase.Add(2*time.Hour), 7, 8, 9, 10)

	result, pairs := Correlate(energy, prices)
	assert.Equal(t, 2, result.N)
	assert.Nil(t, result.R)
	require.Len(t, pairs, 2)
	assert.Equal(t, 3.0, pairs[0].Energy)
	assert.Equal(t, 7.0, pairs[0].Price)
}

func TestCorrelateEmptyInput(t *testing.T) {
	result, pairs := Correlate(nil, nil)
	assert.Nil(t, result.R)
	assert.Zero(t, result.N)
	assert.Empty(t, pairs)
}

func TestInterpretBands(t *testing.T) {
	cases := []struct {
		r    float64
		want string
	}{
		{0.05, "negligible"},
		{-0.09, "negligible"},
		{0.2, "weak positive"},
		{-0.35, "weak negative"},
		{0.55, "moderate positive"},
		{-0.4, "moderate negative"},
		{0.9, "strong positive"},
		{-0.71, "strong negative"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, interpret(tc.r), "r=%v", tc.r)
	}
}

func TestConvertPrices(t *testing.T) {
	points := hourlySeries(corrBase, 10, 20)

	converted := ConvertPrices(points, 11.5)
	require.Len(t, converted, 2)
	assert.InDelta(t, 115.0, converted[0].Value, 1e-9)
	assert.InDelta(t, 230.0, converted[1].Value, 1e-9)
	// Originals untouched.
	assert.Equal(t, 10.0, points[0].Value)

	same := ConvertPrices(points, 1)
	assert.Equal(t, points, same)
}
