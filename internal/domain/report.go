package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ReportStatus tells consumers whether the report carries an estimate.
type ReportStatus string

const (
	StatusEstimated        ReportStatus = "estimated"
	StatusInsufficientData ReportStatus = "insufficient_data"
	StatusUnresolved       ReportStatus = "unresolved"
)

// Location is the selected impact point in WGS-84 degrees.
type Location struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// ImpactReport is the serialized form destined for the sink topic and the
// HTTP API. Estimate is nil unless Status is StatusEstimated.
type ImpactReport struct {
	ID          string          `json:"id"`
	ScenarioID  string          `json:"scenario_id,omitempty"`
	AsteroidID  string          `json:"asteroid_id,omitempty"`
	Source      string          `json:"source"`
	Status      ReportStatus    `json:"status"`
	Error       string          `json:"error,omitempty"`
	Location    Location        `json:"location"`
	Country     *Country        `json:"country,omitempty"`
	Estimate    *ImpactEstimate `json:"estimate,omitempty"`
	Summary     string          `json:"summary,omitempty"`
	ProcessedAt time.Time       `json:"processed_at"`
}

// BuildReport assembles a report from the outcome of one scenario evaluation.
// err decides the status: nil is estimated, ErrInsufficientData maps to
// insufficient_data, anything else to unresolved.
func BuildReport(req ScenarioRequest, source string, country *Country, est *ImpactEstimate, err error) ImpactReport {
	r := ImpactReport{
		ID:          reportID(req, source),
		ScenarioID:  req.ScenarioID,
		AsteroidID:  req.AsteroidID,
		Source:      source,
		Location:    Location{Lat: req.Lat, Lon: req.Lon},
		Country:     country,
		ProcessedAt: clock.Now().UTC(),
	}

	switch {
	case err == nil && est != nil:
		r.Status = StatusEstimated
		r.Estimate = est
		r.Summary = Summarize(*est)
	case errors.Is(err, ErrInsufficientData):
		r.Status = StatusInsufficientData
		r.Error = err.Error()
	default:
		r.Status = StatusUnresolved
		if err != nil {
			r.Error = err.Error()
		}
	}
	return r
}

// reportID returns the scenario ID when present, else a deterministic hash of
// the scenario inputs so replays produce the same key.
func reportID(req ScenarioRequest, source string) string {
	if req.ScenarioID != "" {
		return req.ScenarioID
	}
	velocity := "auto"
	if req.VelocityKmS != nil {
		velocity = fmt.Sprintf("%g", *req.VelocityKmS)
	}
	input := fmt.Sprintf("%s|%s|%.4f|%.4f|%s|%g|%s|%s",
		req.AsteroidID, source, req.Lat, req.Lon, velocity, req.AreaCapKm2, req.CountryCode, profileKey(req.Profile))
	hash := sha256.Sum256([]byte(input))
	return "impact-" + hex.EncodeToString(hash[:8])
}

// profileKey encodes an inline profile for hashing. The structs hold no maps,
// so the JSON encoding is stable.
func profileKey(p *Asteroid) string {
	if p == nil {
		return ""
	}
	data, err := json.Marshal(p)
	if err != nil {
		// Only non-finite floats fail to encode.
		return fmt.Sprintf("%s|%s|%g|%s|%d", p.ID, p.Name, p.Profile.RadiusKm, p.Profile.Material, len(p.Ephemeris))
	}
	return string(data)
}
