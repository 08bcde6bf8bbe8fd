package models

import "strings"

// EnergyType is one production-source bucket in the grid breakdown.
type EnergyType string

const (
	EnergyNuclear      EnergyType = "nuclear"
	EnergyHydro        EnergyType = "hydro"
	EnergyWind         EnergyType = "wind"
	EnergyThermal      EnergyType = "thermal"
	EnergyNotSpecified EnergyType = "not_specified"
)

// EnergyTypes returns all breakdown buckets in stable order.
func EnergyTypes() []EnergyType {
	return []EnergyType{EnergyNuclear, EnergyHydro, EnergyWind, EnergyThermal, EnergyNotSpecified}
}

// ParseEnergyType validates a raw energy type name.
func ParseEnergyType(raw string) (EnergyType, error) {
	t := EnergyType(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range EnergyTypes() {
		if t == known {
			return t, nil
		}
	}
	return "", &ValidationError{Field: "energy_type", Value: raw}
}

// Metric is one of the top-level grid series a caller can query.
type Metric string

const (
	MetricProduction  Metric = "production"
	MetricConsumption Metric = "consumption"
	MetricImport      Metric = "import"
	MetricExport      Metric = "export"
)

// ParseMetric validates a raw metric name.
func ParseMetric(raw string) (Metric, error) {
	m := Metric(strings.ToLower(strings.TrimSpace(raw)))
	switch m {
	case MetricProduction, MetricConsumption, MetricImport, MetricExport:
		return m, nil
	}
	return "", &ValidationError{Field: "metric", Value: raw}
}
