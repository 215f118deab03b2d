package domain

import (
	"context"
	"math"
	"strings"
)

// MaterialClass is the coarse composition class used to pick a default density.
type MaterialClass string

const (
	MaterialMetallic MaterialClass = "metallic"
	MaterialRocky    MaterialClass = "rocky"
)

// ParseMaterialClass normalizes a free-form material label. Unrecognized
// labels are kept verbatim (lower-cased) and behave like rocky bodies.
func ParseMaterialClass(s string) MaterialClass {
	return MaterialClass(strings.ToLower(strings.TrimSpace(s)))
}

// PhysicalProfile holds the physical parameters needed for an estimate.
type PhysicalProfile struct {
	RadiusKm        float64       `json:"radius_km"`
	Material        MaterialClass `json:"material,omitempty"`
	BulkDensityKgM3 *float64      `json:"bulk_density_kg_m3,omitempty"`
}

// Vector3 is a cartesian velocity in km/s.
type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Norm returns the Euclidean length of v.
func (v Vector3) Norm() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// OrbitalSample is one ephemeris row relative to Earth.
type OrbitalSample struct {
	RelativeVelocityKmS *float64 `json:"relative_velocity_km_s,omitempty"`
	VelocityVectorKmS   *Vector3 `json:"velocity_vector_km_s,omitempty"`
	Date                string   `json:"date,omitempty"`
}

// Asteroid is what a profile source returns: identity, physical profile, and
// ephemeris samples ordered by epoch.
type Asteroid struct {
	ID        string          `json:"id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Profile   PhysicalProfile `json:"profile"`
	Ephemeris []OrbitalSample `json:"ephemeris,omitempty"`
}

// ProfileSource fetches an asteroid's physical and orbital data by identifier.
type ProfileSource interface {
	FetchAsteroid(ctx context.Context, id string) (Asteroid, error)
}
