// Package app wires the upstream adapters and the transformer from config.
// It is shared by the service binary and the CLI.
package app

import (
	"log/slog"

	"github.com/couchcryptid/neo-impact-service/internal/adapter/countries"
	"github.com/couchcryptid/neo-impact-service/internal/adapter/horizons"
	"github.com/couchcryptid/neo-impact-service/internal/adapter/mapbox"
	"github.com/couchcryptid/neo-impact-service/internal/adapter/mpc"
	"github.com/couchcryptid/neo-impact-service/internal/adapter/neows"
	"github.com/couchcryptid/neo-impact-service/internal/config"
	"github.com/couchcryptid/neo-impact-service/internal/domain"
	"github.com/couchcryptid/neo-impact-service/internal/observability"
	"github.com/couchcryptid/neo-impact-service/internal/pipeline"
)

// Services bundles everything needed to evaluate scenarios and answer the
// NEO listing routes.
type Services struct {
	Horizons    *horizons.Client
	NeoWs       *neows.Client
	NEOCP       *mpc.Client
	Countries   *countries.Resolver
	Transformer *pipeline.ImpactTransformer
}

// NewServices builds the upstream clients. Geocoding is only wired when
// MAPBOX_ENABLED is set.
func NewServices(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) (*Services, error) {
	var geocoder domain.CountryGeocoder
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, metrics, logger)
		geocoder = mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics)
		metrics.GeocodeEnabled.Set(1)
		logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	} else {
		metrics.GeocodeEnabled.Set(0)
		logger.Info("mapbox geocoding disabled, scenarios need country_code or area_cap_km2")
	}

	resolver, err := countries.NewResolver(geocoder, logger)
	if err != nil {
		return nil, err
	}

	s := &Services{
		Horizons:  horizons.NewClient(cfg.HorizonsURL, cfg.HorizonsTimeout, cfg.HorizonsRateLimit, metrics, logger),
		NeoWs:     neows.NewClient(cfg.NeoWsURL, cfg.NASAAPIKey, cfg.NASATimeout, cfg.NASARateLimit, metrics, logger),
		NEOCP:     mpc.NewClient(cfg.MPCNEOCPURL, cfg.MPCTimeout, metrics, logger),
		Countries: resolver,
	}
	sources := map[string]domain.ProfileSource{
		domain.SourceHorizons: s.Horizons,
		domain.SourceNeoWs:    s.NeoWs,
	}
	s.Transformer = pipeline.NewTransformer(sources, cfg.ProfileSource, resolver, metrics, logger)
	return s, nil
}
