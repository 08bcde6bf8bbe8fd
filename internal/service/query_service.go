package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"nordgrid/internal/models"
	"nordgrid/internal/store"
)

const defaultQueryDays = 7

// QueryService is the read-only layer over the store. It never knows whether
// the last ingestion tick succeeded; it serves whatever is persisted.
type QueryService struct {
	gridRepo  *store.GridRepository
	priceRepo *store.PriceRepository
	maxDays   int
	rates     map[string]float64
	logger    *zap.Logger
}

// NewQueryService builds the query layer.
func NewQueryService(gridRepo *store.GridRepository, priceRepo *store.PriceRepository, maxDays int, rates map[string]float64, logger *zap.Logger) *QueryService {
	return &QueryService{
		gridRepo:  gridRepo,
		priceRepo: priceRepo,
		maxDays:   maxDays,
		rates:     rates,
		logger:    logger,
	}
}

// ClampDays bounds a requested window to [1, maxDays]; non-positive input
// falls back to the default window.
func (s *QueryService) ClampDays(days int) int {
	if days <= 0 {
		days = defaultQueryDays
	}
	if days > s.maxDays {
		days = s.maxDays
	}
	return days
}

func (s *QueryService) since(days int) time.Time {
	return time.Now().UTC().AddDate(0, 0, -s.ClampDays(days))
}

// Series returns one grid metric for a country, ascending, no gap filling.
func (s *QueryService) Series(ctx context.Context, country models.Country, metric models.Metric, days int) ([]models.Point, error) {
	return s.gridRepo.Series(ctx, country, metric, s.since(days))
}

// History returns full grid readings for a country, ascending.
func (s *QueryService) History(ctx context.Context, country models.Country, days int) ([]models.GridReading, error) {
	return s.gridRepo.TypeSeries(ctx, country, s.since(days))
}

// PriceSeries returns spot prices for a zone, converted to the display
// currency at the boundary.
func (s *QueryService) PriceSeries(ctx context.Context, country models.Country, zoneRaw string, days int, currency string) ([]models.Point, models.Zone, error) {
	zone, err := s.resolveZone(country, zoneRaw)
	if err != nil {
		return nil, "", err
	}
	rate, err := s.rateFor(currency)
	if err != nil {
		return nil, "", err
	}
	points, err := s.priceRepo.Series(ctx, zone, s.since(days))
	if err != nil {
		return nil, "", err
	}
	return ConvertPrices(points, rate), zone, nil
}

// TodayTomorrow holds the two day-ahead windows a dashboard chart shows side
// by side. Tomorrow stays empty until the auction publishes.
type TodayTomorrow struct {
	Zone        models.Zone    `json:"zone"`
	Today       []models.Point `json:"today"`
	Tomorrow    []models.Point `json:"tomorrow"`
	HasTomorrow bool           `json:"has_tomorrow"`
}

// TodayTomorrowPrices returns today's and tomorrow's hourly prices for a zone.
func (s *QueryService) TodayTomorrowPrices(ctx context.Context, country models.Country, zoneRaw string) (*TodayTomorrow, error) {
	zone, err := s.resolveZone(country, zoneRaw)
	if err != nil {
		return nil, err
	}

	midnight := time.Now().UTC().Truncate(24 * time.Hour)
	today, err := s.priceRepo.Range(ctx, zone, midnight, midnight.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}
	tomorrow, err := s.priceRepo.Range(ctx, zone, midnight.AddDate(0, 0, 1), midnight.AddDate(0, 0, 2))
	if err != nil {
		return nil, err
	}

	return &TodayTomorrow{
		Zone:        zone,
		Today:       today,
		Tomorrow:    tomorrow,
		HasTomorrow: len(tomorrow) > 0,
	}, nil
}

// CurrentStatus is the latest snapshot for one country.
type CurrentStatus struct {
	Name      string             `json:"name"`
	Timestamp time.Time          `json:"timestamp"`
	Status    map[string]float64 `json:"status"`
	Types     map[string]float64 `json:"types"`
	Price     *LatestPrice       `json:"price,omitempty"`
}

// LatestPrice is the newest stored quote for a country's default zone.
type LatestPrice struct {
	Zone      models.Zone `json:"zone"`
	Timestamp time.Time   `json:"timestamp"`
	Price     float64     `json:"price"`
	Currency  string      `json:"currency"`
}

// Current returns the latest reading and default-zone price per country.
// Countries with no stored data yet are omitted.
func (s *QueryService) Current(ctx context.Context) (map[models.Country]CurrentStatus, error) {
	result := make(map[models.Country]CurrentStatus)
	for _, country := range models.Countries() {
		reading, err := s.gridRepo.Latest(ctx, country)
		if err != nil {
			return nil, err
		}
		if reading == nil {
			continue
		}

		entry := CurrentStatus{
			Name:      country.Name(),
			Timestamp: reading.Timestamp,
			Status: map[string]float64{
				"production":  reading.Production,
				"consumption": reading.Consumption,
				"import":      reading.ImportValue,
				"export":      reading.ExportValue,
			},
			Types: map[string]float64{
				"nuclear":       reading.Nuclear,
				"hydro":         reading.Hydro,
				"wind":          reading.Wind,
				"thermal":       reading.Thermal,
				"not_specified": reading.NotSpecified,
			},
		}

		price, err := s.priceRepo.Latest(ctx, models.DefaultZone(country))
		if err != nil {
			return nil, err
		}
		if price != nil {
			entry.Price = &LatestPrice{
				Zone:      price.Zone,
				Timestamp: price.Timestamp,
				Price:     price.Price,
				Currency:  storedCurrency,
			}
		}

		result[country] = entry
	}
	return result, nil
}

// CorrelationReport is a correlation result plus the joined series behind it.
type CorrelationReport struct {
	CorrelationResult
	Country    models.Country    `json:"country"`
	Zone       models.Zone       `json:"zone"`
	EnergyType models.EnergyType `json:"energy_type"`
	Series     []CorrelationPair `json:"series"`
}

// Correlation joins a country's hourly energy-type series against a zone's
// price series and reports Pearson's r.
func (s *QueryService) Correlation(ctx context.Context, country models.Country, zoneRaw string, energyType models.EnergyType, days int) (*CorrelationReport, error) {
	zone, err := s.resolveZone(country, zoneRaw)
	if err != nil {
		return nil, err
	}

	since := s.since(days)
	energy, err := s.gridRepo.HourlyTypeSeries(ctx, country, energyType, since)
	if err != nil {
		return nil, err
	}
	prices, err := s.priceRepo.Series(ctx, zone, since)
	if err != nil {
		return nil, err
	}

	result, pairs := Correlate(energy, prices)
	s.logger.Debug("correlation computed",
		zap.String("country", string(country)),
		zap.String("zone", string(zone)),
		zap.String("energy_type", string(energyType)),
		zap.Int("pairs", result.N),
	)
	return &CorrelationReport{
		CorrelationResult: result,
		Country:           country,
		Zone:              zone,
		EnergyType:        energyType,
		Series:            pairs,
	}, nil
}

// CorrelationSummary computes a correlation per known energy type.
func (s *QueryService) CorrelationSummary(ctx context.Context, country models.Country, zoneRaw string, days int) (map[models.EnergyType]CorrelationResult, error) {
	zone, err := s.resolveZone(country, zoneRaw)
	if err != nil {
		return nil, err
	}

	since := s.since(days)
	prices, err := s.priceRepo.Series(ctx, zone, since)
	if err != nil {
		return nil, err
	}

	summary := make(map[models.EnergyType]CorrelationResult, len(models.EnergyTypes()))
	for _, energyType := range models.EnergyTypes() {
		energy, err := s.gridRepo.HourlyTypeSeries(ctx, country, energyType, since)
		if err != nil {
			return nil, err
		}
		result, _ := Correlate(energy, prices)
		summary[energyType] = result
	}
	return summary, nil
}

// ZoneInfo lists a country's bidding zones.
type ZoneInfo struct {
	Zones       []models.Zone `json:"zones"`
	DefaultZone models.Zone   `json:"default_zone"`
}

// Zones returns the zone whitelist for a country.
func (s *QueryService) Zones(country models.Country) ZoneInfo {
	return ZoneInfo{
		Zones:       models.ZonesFor(country),
		DefaultZone: models.DefaultZone(country),
	}
}

// Stats summarizes stored volume.
type Stats struct {
	TotalRecords int64      `json:"total_records"`
	NewestRecord *time.Time `json:"newest_record"`
}

// Stats reports row count and newest grid timestamp.
func (s *QueryService) Stats(ctx context.Context) (*Stats, error) {
	count, newest, err := s.gridRepo.Stats(ctx)
	if err != nil {
		return nil, err
	}
	return &Stats{TotalRecords: count, NewestRecord: newest}, nil
}

func (s *QueryService) resolveZone(country models.Country, zoneRaw string) (models.Zone, error) {
	if zoneRaw == "" {
		return models.DefaultZone(country), nil
	}
	return models.ParseZone(country, zoneRaw)
}
