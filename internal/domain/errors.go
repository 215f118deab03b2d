package domain

import "errors"

var (
	// ErrInsufficientData means the radius is missing or non-positive, so no
	// estimate can be produced. It is an expected outcome, not a fault.
	ErrInsufficientData = errors.New("insufficient data: asteroid radius is missing or non-positive")

	// ErrInvalidAreaCap rejects a non-positive or non-finite area cap.
	ErrInvalidAreaCap = errors.New("area cap must be a positive finite number of km²")

	// ErrInvalidVelocity rejects a non-positive or non-finite velocity override.
	ErrInvalidVelocity = errors.New("velocity override must be a positive finite number of km/s")

	// ErrInvalidScenario wraps every scenario decode or validation failure.
	ErrInvalidScenario = errors.New("invalid scenario")

	// ErrAsteroidNotFound is returned by profile sources when the identifier
	// matches no object (or is ambiguous).
	ErrAsteroidNotFound = errors.New("asteroid not found")

	// ErrInvalidFeedWindow rejects a NeoWs feed date range.
	ErrInvalidFeedWindow = errors.New("invalid feed window")

	// ErrUnknownCountry is returned when a country code has no area entry.
	ErrUnknownCountry = errors.New("unknown country")

	// ErrGeocodingDisabled is returned when a scenario needs reverse geocoding
	// to find its country but no geocoder is configured.
	ErrGeocodingDisabled = errors.New("geocoding disabled: scenario needs country_code or area_cap_km2")
)
