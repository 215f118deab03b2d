// Package countries resolves a scenario's country and its area, which caps
// the reported affected area.
package countries

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/couchcryptid/neo-impact-service/internal/domain"
)

//go:embed countries.yaml
var countriesYAML []byte

type tableFile struct {
	Countries map[string]struct {
		Name    string  `yaml:"name"`
		AreaKm2 float64 `yaml:"area_km2"`
	} `yaml:"countries"`
}

// Resolver implements domain.CountryResolver from an area table plus an
// optional reverse geocoder.
type Resolver struct {
	geocoder domain.CountryGeocoder
	table    map[string]domain.Country
	logger   *slog.Logger
}

// NewResolver loads the embedded area table. Pass a nil geocoder to require
// explicit country codes.
func NewResolver(geocoder domain.CountryGeocoder, logger *slog.Logger) (*Resolver, error) {
	table, err := ParseTable(countriesYAML)
	if err != nil {
		return nil, err
	}
	return &Resolver{geocoder: geocoder, table: table, logger: logger}, nil
}

// ParseTable decodes a country area table keyed by ISO 3166-1 alpha-2 code.
func ParseTable(data []byte) (map[string]domain.Country, error) {
	var f tableFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse country table: %w", err)
	}

	table := make(map[string]domain.Country, len(f.Countries))
	for code, c := range f.Countries {
		code = strings.ToUpper(strings.TrimSpace(code))
		if len(code) != 2 || c.AreaKm2 <= 0 {
			return nil, fmt.Errorf("parse country table: invalid entry %q", code)
		}
		table[code] = domain.Country{Code: code, Name: c.Name, AreaKm2: c.AreaKm2}
	}
	return table, nil
}

// Resolve returns the country for an explicit code, or for the coordinates
// when code is empty.
func (r *Resolver) Resolve(ctx context.Context, code string, lat, lon float64) (domain.Country, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		if r.geocoder == nil {
			return domain.Country{}, domain.ErrGeocodingDisabled
		}
		res, err := r.geocoder.ReverseCountry(ctx, lat, lon)
		if err != nil {
			return domain.Country{}, fmt.Errorf("reverse geocode: %w", err)
		}
		if res.Code == "" {
			return domain.Country{}, fmt.Errorf("%w: no country at %.4f,%.4f", domain.ErrUnknownCountry, lat, lon)
		}
		r.logger.Debug("country resolved from coordinates",
			"lat", lat, "lon", lon, "country_code", res.Code, "confidence", res.Confidence)
		code = res.Code
	}

	c, ok := r.table[code]
	if !ok {
		return domain.Country{}, fmt.Errorf("%w: %s", domain.ErrUnknownCountry, code)
	}
	return c, nil
}

// Lookup returns the table entry for code.
func (r *Resolver) Lookup(code string) (domain.Country, bool) {
	c, ok := r.table[strings.ToUpper(code)]
	return c, ok
}
