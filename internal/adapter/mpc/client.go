// Package mpc reads the IAU Minor Planet Center NEO Confirmation Page.
package mpc

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/couchcryptid/neo-impact-service/internal/domain"
	"github.com/couchcryptid/neo-impact-service/internal/observability"
)

const source = "mpc"

// Client implements domain.CandidateLister. It issues conditional GETs and
// serves the previous list when the page is unchanged.
type Client struct {
	httpClient *http.Client
	url        string
	metrics    *observability.Metrics
	logger     *slog.Logger

	mu           sync.Mutex
	etag         string
	lastModified string
	candidates   []domain.CandidateNEO
}

// NewClient creates an NEOCP client for the JSON listing at url.
func NewClient(url string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		url:        url,
		metrics:    metrics,
		logger:     logger,
	}
}

// ListCandidates returns the current NEOCP objects, highest score first.
func (c *Client) ListCandidates(ctx context.Context) ([]domain.CandidateNEO, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if c.etag != "" {
		req.Header.Set("If-None-Match", c.etag)
	}
	if c.lastModified != "" {
		req.Header.Set("If-Modified-Since", c.lastModified)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.UpstreamDuration.WithLabelValues(source).Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.UpstreamRequests.WithLabelValues(source, "error").Inc()
		return nil, fmt.Errorf("neocp request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNotModified:
		c.metrics.UpstreamRequests.WithLabelValues(source, "not_modified").Inc()
		c.logger.Debug("neocp unchanged", "etag", c.etag, "candidates", len(c.candidates))
		return cloneCandidates(c.candidates), nil
	case http.StatusOK:
	default:
		c.metrics.UpstreamRequests.WithLabelValues(source, "error").Inc()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("neocp error: status %d: %s", resp.StatusCode, body)
	}

	var entries []entry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		c.metrics.UpstreamRequests.WithLabelValues(source, "error").Inc()
		return nil, fmt.Errorf("decode neocp: %w", err)
	}
	c.metrics.UpstreamRequests.WithLabelValues(source, "success").Inc()

	candidates := make([]domain.CandidateNEO, 0, len(entries))
	for _, e := range entries {
		candidates = append(candidates, e.candidate())
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].Designation < candidates[j].Designation
	})

	c.etag = resp.Header.Get("ETag")
	c.lastModified = resp.Header.Get("Last-Modified")
	c.candidates = candidates
	return cloneCandidates(candidates), nil
}

func cloneCandidates(in []domain.CandidateNEO) []domain.CandidateNEO {
	out := make([]domain.CandidateNEO, len(in))
	copy(out, in)
	return out
}

// NEOCP JSON entry.

type entry struct {
	TempDesig      string  `json:"Temp_Desig"`
	Score          int     `json:"Score"`
	DiscoveryYear  int     `json:"Discovery_year"`
	DiscoveryMonth int     `json:"Discovery_month"`
	DiscoveryDay   float64 `json:"Discovery_day"`
	RA             float64 `json:"R.A."`
	Decl           float64 `json:"Decl."`
	V              float64 `json:"V"`
	Updated        string  `json:"Updated"`
	NObs           int     `json:"NObs"`
	Arc            float64 `json:"Arc"`
	H              float64 `json:"H"`
	NotSeenDays    float64 `json:"Not_Seen_dys"`
}

func (e entry) candidate() domain.CandidateNEO {
	c := domain.CandidateNEO{
		Designation:  strings.TrimSpace(e.TempDesig),
		Score:        e.Score,
		RA:           e.RA,
		Dec:          e.Decl,
		VMag:         e.V,
		H:            e.H,
		Observations: e.NObs,
		ArcDays:      e.Arc,
		NotSeenDays:  e.NotSeenDays,
		Updated:      strings.TrimSpace(e.Updated),
	}
	if e.DiscoveryYear > 0 {
		// Fractional UT day, as published.
		c.DiscoveryDate = fmt.Sprintf("%04d-%02d-%05.2f", e.DiscoveryYear, e.DiscoveryMonth, e.DiscoveryDay)
	}
	return c
}
