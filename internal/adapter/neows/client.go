// Package neows reads asteroid profiles and close-approach feeds from the
// NASA Near Earth Object Web Service.
package neows

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/time/rate"

	"github.com/couchcryptid/neo-impact-service/internal/domain"
	"github.com/couchcryptid/neo-impact-service/internal/observability"
)

const source = "neows"

var errNotFound = errors.New("not found")

// Client implements domain.ProfileSource and domain.NEOFeed.
type Client struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	clock      clockwork.Clock
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a NeoWs client limited to rps requests per second.
func NewClient(baseURL, apiKey string, timeout time.Duration, rps float64, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		clock:      clockwork.NewRealClock(),
		metrics:    metrics,
		logger:     logger,
	}
}

// FetchAsteroid looks up one NEO by SPK-ID. Samples are the Earth close
// approaches from now on, soonest first; when none remain, past approaches
// are returned most recent first.
func (c *Client) FetchAsteroid(ctx context.Context, id string) (domain.Asteroid, error) {
	u := fmt.Sprintf("%s/neo/%s?%s", c.baseURL, url.PathEscape(id), url.Values{"api_key": {c.apiKey}}.Encode())

	var body neo
	if err := c.doRequest(ctx, u, &body); err != nil {
		if errors.Is(err, errNotFound) {
			return domain.Asteroid{}, fmt.Errorf("neows %q: %w", id, domain.ErrAsteroidNotFound)
		}
		return domain.Asteroid{}, err
	}

	a := domain.Asteroid{
		ID:        id,
		Name:      body.Name,
		Profile:   domain.PhysicalProfile{RadiusKm: body.radiusKm()},
		Ephemeris: c.earthApproaches(body.CloseApproachData),
	}

	c.logger.Debug("neows profile fetched",
		"asteroid_id", id,
		"name", a.Name,
		"radius_km", a.Profile.RadiusKm,
		"samples", len(a.Ephemeris),
	)
	return a, nil
}

// Feed lists close approaches between start and end inclusive, ordered by
// approach time. The window may not exceed seven days.
func (c *Client) Feed(ctx context.Context, start, end time.Time) ([]domain.NEOSummary, error) {
	if err := domain.ValidateFeedWindow(start, end); err != nil {
		return nil, err
	}

	params := url.Values{
		"start_date": {start.Format(time.DateOnly)},
		"end_date":   {end.Format(time.DateOnly)},
		"api_key":    {c.apiKey},
	}

	var body feedResponse
	if err := c.doRequest(ctx, c.baseURL+"/feed?"+params.Encode(), &body); err != nil {
		return nil, err
	}

	var objects []neo
	for _, day := range body.NearEarthObjects {
		objects = append(objects, day...)
	}
	sort.SliceStable(objects, func(i, j int) bool {
		ei, ej := objects[i].firstEpoch(), objects[j].firstEpoch()
		if ei != ej {
			return ei < ej
		}
		return objects[i].ID < objects[j].ID
	})

	out := make([]domain.NEOSummary, 0, len(objects))
	for _, o := range objects {
		out = append(out, o.summary())
	}
	return out, nil
}

func (c *Client) earthApproaches(data []closeApproach) []domain.OrbitalSample {
	now := c.clock.Now().UnixMilli()

	var upcoming, past []closeApproach
	for _, ca := range data {
		if ca.OrbitingBody != "" && ca.OrbitingBody != "Earth" {
			continue
		}
		if ca.EpochDateCloseApproach >= now {
			upcoming = append(upcoming, ca)
		} else {
			past = append(past, ca)
		}
	}

	selected := upcoming
	sort.SliceStable(selected, func(i, j int) bool {
		return selected[i].EpochDateCloseApproach < selected[j].EpochDateCloseApproach
	})
	if len(selected) == 0 {
		selected = past
		sort.SliceStable(selected, func(i, j int) bool {
			return selected[i].EpochDateCloseApproach > selected[j].EpochDateCloseApproach
		})
	}

	samples := make([]domain.OrbitalSample, 0, len(selected))
	for _, ca := range selected {
		samples = append(samples, ca.sample())
	}
	return samples
}

func (c *Client) doRequest(ctx context.Context, fullURL string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("neows rate limit: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.UpstreamDuration.WithLabelValues(source).Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.UpstreamRequests.WithLabelValues(source, "error").Inc()
		return fmt.Errorf("neows request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		c.metrics.UpstreamRequests.WithLabelValues(source, "not_found").Inc()
		return errNotFound
	}
	if resp.StatusCode != http.StatusOK {
		c.metrics.UpstreamRequests.WithLabelValues(source, "error").Inc()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("neows API error: status %d: %s", resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.metrics.UpstreamRequests.WithLabelValues(source, "error").Inc()
		return fmt.Errorf("decode response: %w", err)
	}
	c.metrics.UpstreamRequests.WithLabelValues(source, "success").Inc()
	return nil
}

// NeoWs API response types. Velocities and distances arrive as strings.

type feedResponse struct {
	ElementCount     int              `json:"element_count"`
	NearEarthObjects map[string][]neo `json:"near_earth_objects"`
}

type neo struct {
	ID                 string  `json:"id"`
	Name               string  `json:"name"`
	AbsoluteMagnitudeH float64 `json:"absolute_magnitude_h"`
	EstimatedDiameter  struct {
		Kilometers struct {
			Min float64 `json:"estimated_diameter_min"`
			Max float64 `json:"estimated_diameter_max"`
		} `json:"kilometers"`
	} `json:"estimated_diameter"`
	PotentiallyHazardous bool            `json:"is_potentially_hazardous_asteroid"`
	SentryObject         bool            `json:"is_sentry_object"`
	CloseApproachData    []closeApproach `json:"close_approach_data"`
}

type closeApproach struct {
	CloseApproachDate      string `json:"close_approach_date"`
	CloseApproachDateFull  string `json:"close_approach_date_full"`
	EpochDateCloseApproach int64  `json:"epoch_date_close_approach"`
	RelativeVelocity       struct {
		KilometersPerSecond string `json:"kilometers_per_second"`
	} `json:"relative_velocity"`
	MissDistance struct {
		Kilometers string `json:"kilometers"`
	} `json:"miss_distance"`
	OrbitingBody string `json:"orbiting_body"`
}

// radiusKm is half the mean of the estimated diameter bounds.
func (n neo) radiusKm() float64 {
	d := n.EstimatedDiameter.Kilometers
	if d.Min <= 0 && d.Max <= 0 {
		return 0
	}
	return (d.Min + d.Max) / 4
}

func (n neo) firstEpoch() int64 {
	if len(n.CloseApproachData) == 0 {
		return 0
	}
	return n.CloseApproachData[0].EpochDateCloseApproach
}

func (n neo) summary() domain.NEOSummary {
	s := domain.NEOSummary{
		ID:                     n.ID,
		Name:                   n.Name,
		AbsoluteMagnitudeH:     n.AbsoluteMagnitudeH,
		EstimatedDiameterMinKm: n.EstimatedDiameter.Kilometers.Min,
		EstimatedDiameterMaxKm: n.EstimatedDiameter.Kilometers.Max,
		PotentiallyHazardous:   n.PotentiallyHazardous,
		SentryObject:           n.SentryObject,
	}
	if len(n.CloseApproachData) > 0 {
		ca := n.CloseApproachData[0]
		s.CloseApproachDate = ca.date()
		s.RelativeVelocityKmS, _ = strconv.ParseFloat(ca.RelativeVelocity.KilometersPerSecond, 64)
		s.MissDistanceKm, _ = strconv.ParseFloat(ca.MissDistance.Kilometers, 64)
	}
	return s
}

func (ca closeApproach) date() string {
	if ca.CloseApproachDateFull != "" {
		return ca.CloseApproachDateFull
	}
	return ca.CloseApproachDate
}

func (ca closeApproach) sample() domain.OrbitalSample {
	s := domain.OrbitalSample{Date: ca.date()}
	if v, err := strconv.ParseFloat(ca.RelativeVelocity.KilometersPerSecond, 64); err == nil {
		s.RelativeVelocityKmS = &v
	}
	return s
}
