package horizons

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/couchcryptid/neo-impact-service/internal/domain"
)

const number = `([-+]?(?:\d+\.?\d*|\.\d+)(?:[Ee][-+]?\d+)?)`

var (
	targetRe  = regexp.MustCompile(`Target body name:\s*([^{\n]+)`)
	radiusRe  = regexp.MustCompile(`\bRAD\s*=\s*` + number)
	meanRadRe = regexp.MustCompile(`(?i)mean radius[^=\n]*=\s*` + number)
	densityRe = regexp.MustCompile(`(?i)density[^=\n]*=\s*` + number)
	spectRe   = regexp.MustCompile(`\bSTYP\s*=\s*(\S+)`)
	epochRe   = regexp.MustCompile(`^\s*\d+\.\d+\s*=\s*A\.D\.\s*(\S+\s+\S+)`)
	vectorRe  = regexp.MustCompile(`VX\s*=\s*` + number + `\s*VY\s*=\s*` + number + `\s*VZ\s*=\s*` + number)

	notFoundMarkers = []string{"No matches found", "Matching small-bodies", "Multiple major-bodies match"}
)

// parseResult extracts the profile and ephemeris from the HORIZONS result text.
// A missing radius is not an error; the estimator reports it as insufficient data.
func parseResult(text string) (domain.Asteroid, error) {
	for _, marker := range notFoundMarkers {
		if strings.Contains(text, marker) {
			return domain.Asteroid{}, fmt.Errorf("%w: %s", domain.ErrAsteroidNotFound, marker)
		}
	}

	var a domain.Asteroid
	if m := targetRe.FindStringSubmatch(text); m != nil {
		a.Name = strings.TrimSpace(m[1])
	}

	if r, ok := firstFloat(text, radiusRe, meanRadRe); ok {
		a.Profile.RadiusKm = r
	}

	// HORIZONS reports density in g/cm³.
	if d, ok := firstFloat(text, densityRe); ok && d > 0 {
		kgM3 := d * 1000
		a.Profile.BulkDensityKgM3 = &kgM3
	}

	if m := spectRe.FindStringSubmatch(text); m != nil {
		a.Profile.Material = materialFromSpectralType(m[1])
	}

	samples, err := parseVectors(text)
	if err != nil {
		return domain.Asteroid{}, err
	}
	a.Ephemeris = samples
	return a, nil
}

// parseVectors reads the $$SOE..$$EOE block of a VEC_TABLE=2 ephemeris.
// Each record is an epoch line followed by position and velocity lines.
func parseVectors(text string) ([]domain.OrbitalSample, error) {
	start := strings.Index(text, "$$SOE")
	end := strings.Index(text, "$$EOE")
	if start < 0 || end < start {
		return nil, nil
	}

	var (
		samples []domain.OrbitalSample
		date    string
	)
	for _, line := range strings.Split(text[start+len("$$SOE"):end], "\n") {
		if m := epochRe.FindStringSubmatch(line); m != nil {
			date = m[1]
			continue
		}
		m := vectorRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		v, err := parseVector(m[1:])
		if err != nil {
			return nil, fmt.Errorf("parse vector at %q: %w", date, err)
		}
		samples = append(samples, domain.OrbitalSample{VelocityVectorKmS: &v, Date: date})
	}
	return samples, nil
}

func parseVector(parts []string) (domain.Vector3, error) {
	var xyz [3]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return domain.Vector3{}, err
		}
		xyz[i] = f
	}
	return domain.Vector3{X: xyz[0], Y: xyz[1], Z: xyz[2]}, nil
}

// materialFromSpectralType maps Tholen/SMASS classes to a material class.
// M-types are metallic; everything else is treated as rocky.
func materialFromSpectralType(styp string) domain.MaterialClass {
	styp = strings.TrimSpace(styp)
	if styp == "" || strings.EqualFold(styp, "n.a.") {
		return ""
	}
	if strings.HasPrefix(strings.ToUpper(styp), "M") {
		return domain.MaterialMetallic
	}
	return domain.MaterialRocky
}

func firstFloat(text string, patterns ...*regexp.Regexp) (float64, bool) {
	for _, re := range patterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if f, err := strconv.ParseFloat(m[1], 64); err == nil {
			return f, true
		}
	}
	return 0, false
}
