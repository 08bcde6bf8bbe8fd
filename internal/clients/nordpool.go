package clients

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"nordgrid/internal/models"
)

const nordpoolSource = "nordpool"

// NordpoolClient pulls hourly day-ahead prices per bidding zone. Prices are
// requested and stored in EUR/MWh.
type NordpoolClient struct {
	url    string
	client *http.Client
	logger *zap.Logger
}

// NewNordpoolClient returns client wrapper with a bounded request timeout.
func NewNordpoolClient(url string, timeout time.Duration, logger *zap.Logger) *NordpoolClient {
	return &NordpoolClient{
		url: url,
		client: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

type nordpoolEntry struct {
	DeliveryStart time.Time          `json:"deliveryStart"`
	EntryPerArea  map[string]float64 `json:"entryPerArea"`
}

type nordpoolResponse struct {
	MultiAreaEntries []nordpoolEntry `json:"multiAreaEntries"`
}

// FetchPrices performs one bounded HTTP call for a zone and day offset
// (0 today, 1 tomorrow). Tomorrow's auction is published mid-afternoon CET;
// before the cutoff the upstream answers 204 and the result is simply empty,
// not an error.
func (c *NordpoolClient) FetchPrices(ctx context.Context, zone models.Zone, dayOffset int) ([]models.PriceReading, error) {
	date := time.Now().UTC().AddDate(0, 0, dayOffset).Format("2006-01-02")

	params := url.Values{}
	params.Set("date", date)
	params.Set("market", "DayAhead")
	params.Set("deliveryArea", string(zone))
	params.Set("currency", "EUR")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url+"?"+params.Encode(), nil)
	if err != nil {
		return nil, &FetchError{Source: nordpoolSource, Reason: FetchNetwork}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn("nordpool request failed", zap.String("zone", string(zone)), zap.Error(err))
		return nil, classifyTransportError(nordpoolSource, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("nordpool returned non-success",
			zap.String("zone", string(zone)), zap.Int("status", resp.StatusCode))
		return nil, &FetchError{Source: nordpoolSource, Reason: FetchBadStatus, Status: resp.StatusCode}
	}

	var payload nordpoolResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		c.logger.Warn("nordpool payload malformed", zap.String("zone", string(zone)), zap.Error(err))
		return nil, &FetchError{Source: nordpoolSource, Reason: FetchMalformed}
	}

	var readings []models.PriceReading
	for _, entry := range payload.MultiAreaEntries {
		price, ok := entry.EntryPerArea[string(zone)]
		if !ok {
			continue
		}
		if math.IsNaN(price) || math.IsInf(price, 0) {
			c.logger.Warn("skipping non-finite price",
				zap.String("zone", string(zone)), zap.Time("hour", entry.DeliveryStart))
			continue
		}
		readings = append(readings, models.PriceReading{
			Zone:      zone,
			Timestamp: entry.DeliveryStart.UTC().Truncate(time.Hour),
			Price:     price,
		})
	}
	return readings, nil
}
