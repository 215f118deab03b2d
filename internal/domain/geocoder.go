package domain

import "context"

// CountryResult identifies the country containing a coordinate.
type CountryResult struct {
	Code       string // ISO 3166-1 alpha-2, upper case
	Name       string
	Confidence float64 // 0.0–1.0 provider relevance score
}

// CountryGeocoder resolves coordinates to the containing country.
type CountryGeocoder interface {
	// ReverseCountry returns an empty result (no error) when the point is not
	// inside any country, e.g. open ocean.
	ReverseCountry(ctx context.Context, lat, lon float64) (CountryResult, error)
}

// Country carries the area used as the impact-area cap.
type Country struct {
	Code    string  `json:"code"`
	Name    string  `json:"name"`
	AreaKm2 float64 `json:"area_km2"`
}

// CountryResolver finds the country for a scenario. An explicit code wins
// over the coordinates.
type CountryResolver interface {
	Resolve(ctx context.Context, code string, lat, lon float64) (Country, error)
}
