package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/neo-impact-service/internal/domain"
	"github.com/couchcryptid/neo-impact-service/internal/observability"
)

// ImpactTransformer implements Transformer. It resolves the asteroid profile
// and the country concurrently, then runs the estimator.
type ImpactTransformer struct {
	sources       map[string]domain.ProfileSource
	defaultSource string
	countries     domain.CountryResolver
	metrics       *observability.Metrics
	logger        *slog.Logger
}

// NewTransformer creates an ImpactTransformer. sources is keyed by
// domain.SourceHorizons / domain.SourceNeoWs; defaultSource is used when a
// scenario names none.
func NewTransformer(sources map[string]domain.ProfileSource, defaultSource string, countries domain.CountryResolver, metrics *observability.Metrics, logger *slog.Logger) *ImpactTransformer {
	return &ImpactTransformer{
		sources:       sources,
		defaultSource: defaultSource,
		countries:     countries,
		metrics:       metrics,
		logger:        logger,
	}
}

// Transform parses a source-topic message and evaluates it.
func (t *ImpactTransformer) Transform(ctx context.Context, raw domain.RawEvent) (domain.ImpactReport, error) {
	req, err := domain.ParseScenario(raw)
	if err != nil {
		return domain.ImpactReport{}, err
	}
	return t.Evaluate(ctx, req)
}

// Evaluate produces a report for one scenario. Invalid scenarios and context
// cancellation are returned as errors; upstream failures and missing data
// become unresolved or insufficient_data reports.
func (t *ImpactTransformer) Evaluate(ctx context.Context, req domain.ScenarioRequest) (domain.ImpactReport, error) {
	req = domain.NormalizeScenario(req)
	if err := domain.ValidateScenario(req); err != nil {
		return domain.ImpactReport{}, err
	}

	sourceName := t.sourceFor(req)
	var (
		asteroid domain.Asteroid
		country  *domain.Country
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a, err := t.fetchProfile(gctx, sourceName, req)
		if err != nil {
			return err
		}
		asteroid = a
		return nil
	})
	if needsCountry(req) {
		g.Go(func() error {
			c, err := t.countries.Resolve(gctx, req.CountryCode, req.Lat, req.Lon)
			if err != nil {
				if req.AreaCapKm2 > 0 {
					// The explicit cap makes the country informational only.
					t.logger.Warn("country resolution failed",
						"error", err, "country_code", req.CountryCode, "lat", req.Lat, "lon", req.Lon)
					return nil
				}
				return fmt.Errorf("resolve country: %w", err)
			}
			country = &c
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if ctx.Err() != nil {
			return domain.ImpactReport{}, ctx.Err()
		}
		return t.report(req, sourceName, country, nil, err), nil
	}

	areaCap := req.AreaCapKm2
	if areaCap == 0 && country != nil {
		areaCap = country.AreaKm2
	}

	est, err := domain.Estimate(asteroid, areaCap, req.VelocityKmS)
	if err != nil {
		return t.report(req, sourceName, country, nil, err), nil
	}

	t.logger.Debug("impact estimated",
		"asteroid", est.AsteroidName,
		"source", sourceName,
		"radius_km", asteroid.Profile.RadiusKm,
		"velocity_km_s", est.VelocityKmS,
		"energy_mt", est.EnergyMt,
		"crater_km", est.CraterDiameterKm,
		"area_km2", est.AreaKm2,
		"area_cap_km2", areaCap,
	)
	return t.report(req, sourceName, country, &est, nil), nil
}

func (t *ImpactTransformer) report(req domain.ScenarioRequest, sourceName string, country *domain.Country, est *domain.ImpactEstimate, err error) domain.ImpactReport {
	r := domain.BuildReport(req, sourceName, country, est, err)
	t.metrics.Estimates.WithLabelValues(string(r.Status)).Inc()
	if r.Status == domain.StatusUnresolved {
		t.logger.Warn("scenario unresolved", "report_id", r.ID, "asteroid_id", req.AsteroidID, "error", r.Error)
	}
	return r
}

func (t *ImpactTransformer) sourceFor(req domain.ScenarioRequest) string {
	switch {
	case req.Profile != nil:
		return domain.SourceInline
	case req.Source != "":
		return req.Source
	default:
		return t.defaultSource
	}
}

func (t *ImpactTransformer) fetchProfile(ctx context.Context, sourceName string, req domain.ScenarioRequest) (domain.Asteroid, error) {
	if sourceName == domain.SourceInline {
		return *req.Profile, nil
	}
	src, ok := t.sources[sourceName]
	if !ok || src == nil {
		return domain.Asteroid{}, fmt.Errorf("profile source %q is not configured", sourceName)
	}
	a, err := src.FetchAsteroid(ctx, req.AsteroidID)
	if err != nil {
		return domain.Asteroid{}, fmt.Errorf("fetch %s profile: %w", sourceName, err)
	}
	return a, nil
}

// needsCountry reports whether the country must be looked up: always when a
// code is given, and when no explicit cap is set.
func needsCountry(req domain.ScenarioRequest) bool {
	return req.CountryCode != "" || req.AreaCapKm2 == 0
}
