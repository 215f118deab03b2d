package domain

import (
	"context"
	"fmt"
	"time"
)

// MaxFeedWindow is the widest date range the NeoWs feed accepts.
const MaxFeedWindow = 7 * 24 * time.Hour

// NEOSummary is one close approach listed in the NeoWs feed.
type NEOSummary struct {
	ID                     string  `json:"id"`
	Name                   string  `json:"name"`
	AbsoluteMagnitudeH     float64 `json:"absolute_magnitude_h"`
	EstimatedDiameterMinKm float64 `json:"estimated_diameter_min_km"`
	EstimatedDiameterMaxKm float64 `json:"estimated_diameter_max_km"`
	PotentiallyHazardous   bool    `json:"potentially_hazardous"`
	SentryObject           bool    `json:"sentry_object"`
	CloseApproachDate      string  `json:"close_approach_date"`
	RelativeVelocityKmS    float64 `json:"relative_velocity_km_s"`
	MissDistanceKm         float64 `json:"miss_distance_km"`
}

// CandidateNEO is an unconfirmed object on the Minor Planet Center's NEO
// Confirmation Page.
type CandidateNEO struct {
	Designation   string  `json:"designation"`
	Score         int     `json:"score"`
	DiscoveryDate string  `json:"discovery_date"`
	RA            float64 `json:"ra_deg"`
	Dec           float64 `json:"dec_deg"`
	VMag          float64 `json:"v_mag"`
	H             float64 `json:"h"`
	Observations  int     `json:"observations"`
	ArcDays       float64 `json:"arc_days"`
	NotSeenDays   float64 `json:"not_seen_days"`
	Updated       string  `json:"updated"`
}

// NEOFeed lists close approaches within a date window.
type NEOFeed interface {
	Feed(ctx context.Context, start, end time.Time) ([]NEOSummary, error)
}

// CandidateLister lists NEO confirmation candidates.
type CandidateLister interface {
	ListCandidates(ctx context.Context) ([]CandidateNEO, error)
}

// ValidateFeedWindow rejects reversed windows and windows wider than seven days.
func ValidateFeedWindow(start, end time.Time) error {
	if end.Before(start) {
		return fmt.Errorf("%w: end_date %s is before start_date %s", ErrInvalidFeedWindow, end.Format(time.DateOnly), start.Format(time.DateOnly))
	}
	if end.Sub(start) > MaxFeedWindow {
		return fmt.Errorf("%w: window exceeds 7 days", ErrInvalidFeedWindow)
	}
	return nil
}
