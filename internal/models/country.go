package models

import "strings"

// Country is one of the four Nordic bidding countries the dashboard tracks.
type Country string

const (
	CountrySE Country = "SE"
	CountryNO Country = "NO"
	CountryFI Country = "FI"
	CountryDK Country = "DK"
)

var countryNames = map[Country]string{
	CountrySE: "Sweden",
	CountryNO: "Norway",
	CountryFI: "Finland",
	CountryDK: "Denmark",
}

// Countries returns all known countries in stable order.
func Countries() []Country {
	return []Country{CountrySE, CountryNO, CountryFI, CountryDK}
}

// ParseCountry validates a raw country code against the closed set.
func ParseCountry(raw string) (Country, error) {
	c := Country(strings.ToUpper(strings.TrimSpace(raw)))
	if _, ok := countryNames[c]; !ok {
		return "", &ValidationError{Field: "country", Value: raw}
	}
	return c, nil
}

// Name returns the display name.
func (c Country) Name() string {
	return countryNames[c]
}

// Zone is a bidding area with its own day-ahead price series.
type Zone string

var zonesByCountry = map[Country][]Zone{
	CountrySE: {"SE1", "SE2", "SE3", "SE4"},
	CountryNO: {"NO1", "NO2", "NO3", "NO4", "NO5"},
	CountryFI: {"FI"},
	CountryDK: {"DK1", "DK2"},
}

var defaultZoneByCountry = map[Country]Zone{
	CountrySE: "SE3",
	CountryNO: "NO1",
	CountryFI: "FI",
	CountryDK: "DK1",
}

// ZonesFor returns the bidding zones of a country.
func ZonesFor(c Country) []Zone {
	return zonesByCountry[c]
}

// DefaultZone returns the zone used when a request does not name one.
func DefaultZone(c Country) Zone {
	return defaultZoneByCountry[c]
}

// AllZones returns every known zone across all countries.
func AllZones() []Zone {
	var zones []Zone
	for _, c := range Countries() {
		zones = append(zones, zonesByCountry[c]...)
	}
	return zones
}

// ParseZone validates a raw zone code against the country's whitelist.
func ParseZone(c Country, raw string) (Zone, error) {
	z := Zone(strings.ToUpper(strings.TrimSpace(raw)))
	for _, known := range zonesByCountry[c] {
		if z == known {
			return z, nil
		}
	}
	return "", &ValidationError{Field: "zone", Value: raw}
}
