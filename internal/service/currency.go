package service

import (
	"strings"

	"nordgrid/internal/models"
)

// storedCurrency is what the price repository holds; everything else is a
// presentation-time conversion and is never written back.
const storedCurrency = "EUR"

// ConvertPrices returns a copy of the series with every value multiplied by
// the rate. Pure function of its inputs.
func ConvertPrices(points []models.Point, rate float64) []models.Point {
	if rate == 1 {
		return points
	}
	converted := make([]models.Point, len(points))
	for i, p := range points {
		converted[i] = models.Point{Timestamp: p.Timestamp, Value: p.Value * rate}
	}
	return converted
}

// rateFor resolves a display currency against the configured rate table.
func (s *QueryService) rateFor(currency string) (float64, error) {
	code := strings.ToUpper(strings.TrimSpace(currency))
	if code == "" || code == storedCurrency {
		return 1, nil
	}
	rate, ok := s.rates[code]
	if !ok || rate <= 0 {
		return 0, &models.ValidationError{Field: "currency", Value: currency}
	}
	return rate, nil
}
