// Package horizons fetches asteroid profiles and Earth-relative state vectors
// from the JPL HORIZONS API.
package horizons

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	satellite "github.com/joshuaferrara/go-satellite"
	"golang.org/x/time/rate"

	"github.com/couchcryptid/neo-impact-service/internal/domain"
	"github.com/couchcryptid/neo-impact-service/internal/observability"
)

const source = "horizons"

// Client implements domain.ProfileSource using the HORIZONS JSON API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	clock      clockwork.Clock
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a HORIZONS client limited to rps requests per second.
func NewClient(baseURL string, timeout time.Duration, rps float64, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		clock:      clockwork.NewRealClock(),
		metrics:    metrics,
		logger:     logger,
	}
}

// FetchAsteroid looks up a small body by number, designation, or name and
// returns its physical profile plus a one-day window of geocentric vectors
// starting now.
func (c *Client) FetchAsteroid(ctx context.Context, id string) (domain.Asteroid, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return domain.Asteroid{}, fmt.Errorf("horizons rate limit: %w", err)
	}

	start := julianDate(c.clock.Now().UTC())
	params := url.Values{
		"format":     {"json"},
		"COMMAND":    {fmt.Sprintf("'%s;'", id)},
		"OBJ_DATA":   {"'YES'"},
		"MAKE_EPHEM": {"'YES'"},
		"EPHEM_TYPE": {"'VECTORS'"},
		"CENTER":     {"'500@399'"},
		"START_TIME": {fmt.Sprintf("'JD %.5f'", start)},
		"STOP_TIME":  {fmt.Sprintf("'JD %.5f'", start+1)},
		"STEP_SIZE":  {"'1d'"},
		"VEC_TABLE":  {"'2'"},
		"OUT_UNITS":  {"'KM-S'"},
	}

	result, err := c.doRequest(ctx, c.baseURL+"?"+params.Encode())
	if err != nil {
		return domain.Asteroid{}, err
	}

	a, err := parseResult(result)
	if err != nil {
		return domain.Asteroid{}, fmt.Errorf("horizons %q: %w", id, err)
	}
	a.ID = id

	c.logger.Debug("horizons profile fetched",
		"asteroid_id", id,
		"name", a.Name,
		"radius_km", a.Profile.RadiusKm,
		"material", a.Profile.Material,
		"samples", len(a.Ephemeris),
	)
	return a, nil
}

func (c *Client) doRequest(ctx context.Context, fullURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.UpstreamDuration.WithLabelValues(source).Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.UpstreamRequests.WithLabelValues(source, "error").Inc()
		return "", fmt.Errorf("horizons request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metrics.UpstreamRequests.WithLabelValues(source, "error").Inc()
		return "", fmt.Errorf("read response: %w", err)
	}
	var body apiResponse
	decodeErr := json.Unmarshal(raw, &body)

	if resp.StatusCode != http.StatusOK {
		c.metrics.UpstreamRequests.WithLabelValues(source, "error").Inc()
		if decodeErr == nil && body.Error != "" {
			return "", fmt.Errorf("horizons API error: status %d: %s", resp.StatusCode, body.Error)
		}
		return "", fmt.Errorf("horizons API error: status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if decodeErr != nil {
		c.metrics.UpstreamRequests.WithLabelValues(source, "error").Inc()
		return "", fmt.Errorf("decode response: %w", decodeErr)
	}
	if body.Error != "" {
		c.metrics.UpstreamRequests.WithLabelValues(source, "error").Inc()
		return "", fmt.Errorf("horizons API error: %s", body.Error)
	}

	c.metrics.UpstreamRequests.WithLabelValues(source, "success").Inc()
	return body.Result, nil
}

// julianDate converts a UTC time to a Julian date.
func julianDate(t time.Time) float64 {
	year, month, day := t.Date()
	hour, minute, sec := t.Clock()
	return satellite.JDay(year, int(month), day, hour, minute, sec)
}

// HORIZONS API response envelope.

type apiResponse struct {
	Signature struct {
		Version string `json:"version"`
		Source  string `json:"source"`
	} `json:"signature"`
	Result string `json:"result"`
	Error  string `json:"error"`
}
