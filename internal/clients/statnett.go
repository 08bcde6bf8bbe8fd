package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"nordgrid/internal/models"
)

const statnettSource = "statnett"

// StatnettClient pulls the latest production/consumption overview for the
// Nordic synchronous area.
type StatnettClient struct {
	url    string
	client *http.Client
	logger *zap.Logger
}

// NewStatnettClient returns client wrapper with a bounded request timeout.
func NewStatnettClient(url string, timeout time.Duration, logger *zap.Logger) *StatnettClient {
	return &StatnettClient{
		url: url,
		client: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// statnettItem is one labelled value in the overview payload. Values arrive
// either as JSON numbers or as formatted strings with non-ASCII thousand
// separators.
type statnettItem struct {
	TitleTranslationID string          `json:"titleTranslationId"`
	Value              json.RawMessage `json:"value"`
}

type statnettOverview struct {
	ProductionData   []statnettItem `json:"ProductionData"`
	ConsumptionData  []statnettItem `json:"ConsumptionData"`
	NetExchangeData  []statnettItem `json:"NetExchangeData"`
	NuclearData      []statnettItem `json:"NuclearData"`
	HydroData        []statnettItem `json:"HydroData"`
	WindData         []statnettItem `json:"WindData"`
	ThermalData      []statnettItem `json:"ThermalData"`
	NotSpecifiedData []statnettItem `json:"NotSpecifiedData"`
}

// FetchSnapshot performs one bounded HTTP call and normalizes the nested
// per-country payload into grid readings. A country whose values fail to parse
// is skipped; it does not abort the other countries.
func (c *StatnettClient) FetchSnapshot(ctx context.Context) ([]models.GridReading, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, &FetchError{Source: statnettSource, Reason: FetchNetwork}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn("statnett request failed", zap.Error(err))
		return nil, classifyTransportError(statnettSource, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("statnett returned non-success", zap.Int("status", resp.StatusCode))
		return nil, &FetchError{Source: statnettSource, Reason: FetchBadStatus, Status: resp.StatusCode}
	}

	var overview statnettOverview
	if err := json.NewDecoder(resp.Body).Decode(&overview); err != nil {
		c.logger.Warn("statnett payload malformed", zap.Error(err))
		return nil, &FetchError{Source: statnettSource, Reason: FetchMalformed}
	}

	timestamp := time.Now().UTC().Truncate(time.Minute)

	var readings []models.GridReading
	for _, country := range models.Countries() {
		reading, err := c.parseCountry(&overview, country, timestamp)
		if err != nil {
			c.logger.Warn("skipping country snapshot",
				zap.String("country", string(country)), zap.Error(err))
			continue
		}
		readings = append(readings, *reading)
	}
	return readings, nil
}

// parseCountry assembles one reading. Upstream reports MW; stored values are GW.
// Net exchange arrives signed: positive is import, negative is export.
func (c *StatnettClient) parseCountry(overview *statnettOverview, country models.Country, ts time.Time) (*models.GridReading, error) {
	production, err := itemValue(overview.ProductionData, "Production", country)
	if err != nil {
		return nil, err
	}
	consumption, err := itemValue(overview.ConsumptionData, "Consumption", country)
	if err != nil {
		return nil, err
	}
	exchange, err := signedItemValue(overview.NetExchangeData, "NetExchange", country)
	if err != nil {
		return nil, err
	}
	nuclear, err := itemValue(overview.NuclearData, "Nuclear", country)
	if err != nil {
		return nil, err
	}
	hydro, err := itemValue(overview.HydroData, "Hydro", country)
	if err != nil {
		return nil, err
	}
	wind, err := itemValue(overview.WindData, "Wind", country)
	if err != nil {
		return nil, err
	}
	thermal, err := itemValue(overview.ThermalData, "Thermal", country)
	if err != nil {
		return nil, err
	}
	notSpecified, err := itemValue(overview.NotSpecifiedData, "NotSpecified", country)
	if err != nil {
		return nil, err
	}

	importVal, exportVal := 0.0, 0.0
	if exchange >= 0 {
		importVal = exchange
	} else {
		exportVal = -exchange
	}

	reading := &models.GridReading{
		Country:      country,
		Timestamp:    ts,
		Production:   production / 1000,
		Consumption:  consumption / 1000,
		ImportValue:  importVal / 1000,
		ExportValue:  exportVal / 1000,
		Nuclear:      nuclear / 1000,
		Hydro:        hydro / 1000,
		Wind:         wind / 1000,
		Thermal:      thermal / 1000,
		NotSpecified: notSpecified / 1000,
	}
	if err := reading.Validate(); err != nil {
		return nil, err
	}
	return reading, nil
}

// itemValue looks up one non-negative metric; absent entries mean the country
// has no such production (Norway reports no nuclear) and count as zero.
func itemValue(items []statnettItem, series string, country models.Country) (float64, error) {
	v, found, err := lookupValue(items, series, country)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, nil
	}
	if v < 0 {
		return 0, &models.ValidationError{Field: strings.ToLower(series), Value: fmt.Sprintf("%v", v)}
	}
	return v, nil
}

// signedItemValue looks up a metric whose sign is meaningful.
func signedItemValue(items []statnettItem, series string, country models.Country) (float64, error) {
	v, found, err := lookupValue(items, series, country)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, nil
	}
	return v, nil
}

func lookupValue(items []statnettItem, series string, country models.Country) (float64, bool, error) {
	key := fmt.Sprintf("ProductionConsumption.%s%sDesc", series, country)
	for _, item := range items {
		if item.TitleTranslationID != key {
			continue
		}
		v, err := parseNumeric(item.Value)
		if err != nil {
			return 0, true, &models.ValidationError{Field: strings.ToLower(series), Value: string(item.Value)}
		}
		return v, true, nil
	}
	return 0, false, nil
}

// parseNumeric accepts a JSON number, or a display string that may carry
// non-ASCII group separators which are stripped before parsing.
func parseNumeric(raw json.RawMessage) (float64, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, nil
	}

	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, fmt.Errorf("non-finite value")
		}
		return n, nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, err
	}
	var b strings.Builder
	for _, r := range s {
		if r < 128 && r != ' ' && r != ',' {
			b.WriteRune(r)
		}
	}
	cleaned := strings.TrimSpace(b.String())
	if cleaned == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("non-finite value")
	}
	return v, nil
}
