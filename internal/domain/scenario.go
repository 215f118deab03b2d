package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Profile source names accepted in ScenarioRequest.Source.
const (
	SourceHorizons = "horizons"
	SourceNeoWs    = "neows"
	SourceInline   = "inline"
)

var scenarioValidate = validator.New()

// ScenarioRequest asks for an impact estimate of one asteroid at one location.
// It is both the Kafka source message and the POST /v1/estimates body.
type ScenarioRequest struct {
	ScenarioID  string    `json:"scenario_id,omitempty" validate:"max=128"`
	AsteroidID  string    `json:"asteroid_id,omitempty" validate:"required_without=Profile,max=64"`
	Source      string    `json:"source,omitempty" validate:"omitempty,oneof=horizons neows"`
	Profile     *Asteroid `json:"profile,omitempty"`
	Lat         float64   `json:"lat" validate:"min=-90,max=90"`
	Lon         float64   `json:"lon" validate:"min=-180,max=180"`
	CountryCode string    `json:"country_code,omitempty" validate:"omitempty,iso3166_1_alpha2"`
	AreaCapKm2  float64   `json:"area_cap_km2,omitempty" validate:"gte=0"`
	VelocityKmS *float64  `json:"velocity_km_s,omitempty" validate:"omitempty,gt=0"`
}

// RawEvent represents an unprocessed message from the source topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// ParseScenario decodes, normalizes, and validates a source-topic message.
func ParseScenario(raw RawEvent) (ScenarioRequest, error) {
	return DecodeScenario(raw.Value)
}

// DecodeScenario decodes, normalizes, and validates a JSON scenario.
func DecodeScenario(data []byte) (ScenarioRequest, error) {
	var req ScenarioRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return ScenarioRequest{}, fmt.Errorf("%w: decode: %w", ErrInvalidScenario, err)
	}
	req = NormalizeScenario(req)
	if err := ValidateScenario(req); err != nil {
		return ScenarioRequest{}, err
	}
	return req, nil
}

// NormalizeScenario trims identifiers and fixes the case of enum-like fields.
func NormalizeScenario(req ScenarioRequest) ScenarioRequest {
	req.ScenarioID = strings.TrimSpace(req.ScenarioID)
	req.AsteroidID = strings.TrimSpace(req.AsteroidID)
	req.Source = strings.ToLower(strings.TrimSpace(req.Source))
	req.CountryCode = strings.ToUpper(strings.TrimSpace(req.CountryCode))
	return req
}

// ValidateScenario checks field ranges. Errors wrap ErrInvalidScenario.
func ValidateScenario(req ScenarioRequest) error {
	if err := scenarioValidate.Struct(req); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidScenario, err)
	}
	return nil
}
