package domain

import (
	"math"
)

const (
	// DefaultVelocityKmS is used when neither an override nor ephemeris data
	// yields a positive speed.
	DefaultVelocityKmS = 20.0

	// DensityMetallicKgM3 and DensityRockyKgM3 are the class-based defaults
	// applied when no explicit bulk density is known.
	DensityMetallicKgM3 = 7800.0
	DensityRockyKgM3    = 3000.0

	// JoulesPerMegatonTNT converts kinetic energy to megatons of TNT.
	JoulesPerMegatonTNT = 4.184e15

	// LargeImpactorRadiusM is the radius above which the large-body crater
	// scaling applies. Equality stays in the small-body regime.
	LargeImpactorRadiusM = 500.0

	unknownAsteroidName = "Unknown"
)

// ImpactEstimate is the immutable result of [Estimate].
type ImpactEstimate struct {
	AsteroidName     string  `json:"asteroid_name"`
	ImpactDate       *string `json:"impact_date"`
	VelocityKmS      float64 `json:"velocity_km_s"`
	VelocityMS       float64 `json:"velocity_m_s"`
	EnergyMt         float64 `json:"energy_mt"`
	CraterDiameterKm float64 `json:"crater_diameter_km"`
	AreaKm2          float64 `json:"area_km2"`
}

// Estimate converts an asteroid's physical and orbital parameters into an
// impact-energy and affected-area estimate, capping the area at areaCapKm2.
//
// velocityOverrideKmS, when non-nil, takes precedence over any ephemeris
// velocity. Returns [ErrInsufficientData] when the radius is missing or
// non-positive, [ErrInvalidAreaCap] for a non-positive cap, and
// [ErrInvalidVelocity] for a non-positive override.
func Estimate(a Asteroid, areaCapKm2 float64, velocityOverrideKmS *float64) (ImpactEstimate, error) {
	if !isPositiveFinite(a.Profile.RadiusKm) {
		return ImpactEstimate{}, ErrInsufficientData
	}
	if !isPositiveFinite(areaCapKm2) {
		return ImpactEstimate{}, ErrInvalidAreaCap
	}
	if velocityOverrideKmS != nil && !isPositiveFinite(*velocityOverrideKmS) {
		return ImpactEstimate{}, ErrInvalidVelocity
	}

	velocityKmS := resolveVelocityKmS(a.Ephemeris, velocityOverrideKmS)
	velocityMS := velocityKmS * 1000
	density := resolveDensityKgM3(a.Profile)

	radiusM := a.Profile.RadiusKm * 1000
	mass := (4.0 / 3.0) * math.Pi * math.Pow(radiusM, 3) * density
	energyJ := 0.5 * mass * velocityMS * velocityMS
	energyMt := energyJ / JoulesPerMegatonTNT

	diameterKm := craterDiameterKm(radiusM, energyJ)
	areaKm2 := math.Min(math.Pi*(diameterKm/2)*(diameterKm/2), areaCapKm2)

	name := a.Name
	if name == "" {
		name = unknownAsteroidName
	}

	return ImpactEstimate{
		AsteroidName:     name,
		ImpactDate:       firstSampleDate(a.Ephemeris),
		VelocityKmS:      round2(velocityKmS),
		VelocityMS:       round2(velocityMS),
		EnergyMt:         round2(energyMt),
		CraterDiameterKm: round2(diameterKm),
		AreaKm2:          round2(areaKm2),
	}, nil
}

// resolveVelocityKmS applies override > scalar speed > vector norm > default,
// looking only at the first ephemeris sample.
func resolveVelocityKmS(samples []OrbitalSample, override *float64) float64 {
	if override != nil {
		return *override
	}
	if len(samples) == 0 {
		return DefaultVelocityKmS
	}
	first := samples[0]
	if v := first.RelativeVelocityKmS; v != nil && isPositiveFinite(*v) {
		return *v
	}
	if vec := first.VelocityVectorKmS; vec != nil {
		if n := vec.Norm(); isPositiveFinite(n) {
			return n
		}
	}
	return DefaultVelocityKmS
}

func resolveDensityKgM3(p PhysicalProfile) float64 {
	if p.BulkDensityKgM3 != nil && isPositiveFinite(*p.BulkDensityKgM3) {
		return *p.BulkDensityKgM3
	}
	if p.Material == MaterialMetallic {
		return DensityMetallicKgM3
	}
	return DensityRockyKgM3
}

// craterDiameterKm applies the two-regime energy scaling law.
func craterDiameterKm(radiusM, energyJ float64) float64 {
	if radiusM > LargeImpactorRadiusM {
		return 0.02 * math.Pow(energyJ/1e12, 1/3.0)
	}
	return 0.07 * math.Pow(energyJ/1e12, 1/3.4)
}

func firstSampleDate(samples []OrbitalSample) *string {
	if len(samples) == 0 || samples[0].Date == "" {
		return nil
	}
	d := samples[0].Date
	return &d
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func isPositiveFinite(v float64) bool {
	return v > 0 && !math.IsInf(v, 1)
}
