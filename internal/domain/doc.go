// Package domain models asteroid impact scenarios and the impact-energy
// estimate derived from them.
//
// # Data Sources
//
// Physical and orbital parameters come from one of two upstream services:
//
//   - JPL HORIZONS (https://ssd.jpl.nasa.gov/api/horizons.api): object data
//     block (radius, density, spectral type) plus a geocentric state-vector
//     table for the requested window.
//   - NASA NeoWs (https://api.nasa.gov/neo/rest/v1): estimated diameter range
//     and close-approach records with relative velocity.
//
// Both adapters map their payloads onto [Asteroid]: a [PhysicalProfile] and a
// list of [OrbitalSample] values, first sample first. Scenarios may also carry
// an inline profile, in which case no upstream call is made.
//
// # Estimation Model
//
// [Estimate] is a single-pass calculation over a handful of formulas:
//
//	velocity   override | first sample speed | |first sample vector| | 20 km/s
//	density    explicit | 7800 kg/m³ (metallic) | 3000 kg/m³
//	mass       4/3·π·r³·ρ            (r in metres)
//	energy     ½·m·v²                (joules; Mt = J / 4.184e15)
//	crater     r > 500 m:  0.02·(E/1e12)^(1/3.0) km
//	           r ≤ 500 m:  0.07·(E/1e12)^(1/3.4) km
//	area       π·(d/2)², clamped to the country area cap
//
// The two crater regimes come from empirical impact-cratering scaling
// relations. The 500 m threshold, both coefficients and both exponents carry
// physical meaning and are not tuning knobs.
//
// Every reported value is rounded to two decimals. The function is pure: no
// clock, no I/O, no shared state.
//
// # Area Cap
//
// The affected area is capped at the area of the country containing the
// impact point, so a scenario never reports an area larger than the country
// being modelled. The cap comes from the scenario itself when given, else from
// the embedded country table after reverse geocoding the impact coordinates.
//
// # Report IDs
//
// Reports are keyed by the scenario ID when the caller supplies one, else by a
// SHA-256 hash of asteroid|source|lat|lon|velocity|cap|country plus the
// inline profile, if any, so replays upsert the same row downstream while
// distinct scenarios never share a key. See [reportID].
package domain
