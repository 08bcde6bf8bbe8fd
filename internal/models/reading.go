package models

import (
	"fmt"
	"math"
	"time"
)

// GridReading is one snapshot of a country's electricity balance at one
// minute-resolution UTC timestamp. Values are in GW. The breakdown fields
// are not asserted to sum to Production; a mismatch is upstream data quality,
// not something to correct here.
type GridReading struct {
	Country      Country   `db:"country" json:"country"`
	Timestamp    time.Time `db:"timestamp" json:"timestamp"`
	Production   float64   `db:"production" json:"production"`
	Consumption  float64   `db:"consumption" json:"consumption"`
	ImportValue  float64   `db:"import_value" json:"import"`
	ExportValue  float64   `db:"export_value" json:"export"`
	Nuclear      float64   `db:"nuclear" json:"nuclear"`
	Hydro        float64   `db:"hydro" json:"hydro"`
	Wind         float64   `db:"wind" json:"wind"`
	Thermal      float64   `db:"thermal" json:"thermal"`
	NotSpecified float64   `db:"not_specified" json:"not_specified"`
}

// Validate rejects readings outside the closed country set or carrying
// negative or non-finite values.
func (r *GridReading) Validate() error {
	if _, ok := countryNames[r.Country]; !ok {
		return &ValidationError{Field: "country", Value: string(r.Country)}
	}
	if r.Timestamp.IsZero() {
		return &ValidationError{Field: "timestamp", Value: "zero"}
	}
	fields := map[string]float64{
		"production":    r.Production,
		"consumption":   r.Consumption,
		"import":        r.ImportValue,
		"export":        r.ExportValue,
		"nuclear":       r.Nuclear,
		"hydro":         r.Hydro,
		"wind":          r.Wind,
		"thermal":       r.Thermal,
		"not_specified": r.NotSpecified,
	}
	for name, v := range fields {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return &ValidationError{Field: name, Value: fmt.Sprintf("%v", v)}
		}
	}
	return nil
}

// ByType returns the breakdown value for one energy type.
func (r *GridReading) ByType(t EnergyType) float64 {
	switch t {
	case EnergyNuclear:
		return r.Nuclear
	case EnergyHydro:
		return r.Hydro
	case EnergyWind:
		return r.Wind
	case EnergyThermal:
		return r.Thermal
	case EnergyNotSpecified:
		return r.NotSpecified
	}
	return 0
}

// PriceReading is one day-ahead spot price quote for one bidding zone at one
// hour-resolution UTC timestamp. Price is EUR/MWh; conversion to display
// currencies happens at the API boundary and is never persisted.
type PriceReading struct {
	Zone      Zone      `db:"zone" json:"zone"`
	Timestamp time.Time `db:"timestamp" json:"timestamp"`
	Price     float64   `db:"price" json:"price"`
}

// Validate rejects quotes for unknown zones or with non-finite prices.
// Negative prices are legal: day-ahead markets clear below zero on windy
// low-demand days.
func (p *PriceReading) Validate() error {
	known := false
	for _, z := range AllZones() {
		if p.Zone == z {
			known = true
			break
		}
	}
	if !known {
		return &ValidationError{Field: "zone", Value: string(p.Zone)}
	}
	if p.Timestamp.IsZero() {
		return &ValidationError{Field: "timestamp", Value: "zero"}
	}
	if math.IsNaN(p.Price) || math.IsInf(p.Price, 0) {
		return &ValidationError{Field: "price", Value: fmt.Sprintf("%v", p.Price)}
	}
	return nil
}

// Point is one (timestamp, value) sample in a series response.
type Point struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}
