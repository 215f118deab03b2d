package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Profile sources selectable with PROFILE_SOURCE.
const (
	ProfileSourceHorizons = "horizons"
	ProfileSourceNeoWs    = "neows"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	KafkaBrokers     []string
	KafkaSourceTopic string
	KafkaSinkTopic   string
	KafkaGroupID     string
	HTTPAddr         string
	LogLevel         string
	LogFormat        string
	ShutdownTimeout  time.Duration

	BatchSize          int
	BatchFlushInterval time.Duration
	PipelineEnabled    bool

	// ProfileSource is the default upstream for scenarios that name no source.
	ProfileSource string

	// JPL HORIZONS.
	HorizonsURL       string
	HorizonsTimeout   time.Duration
	HorizonsRateLimit float64 // requests per second

	// NASA NeoWs.
	NASAAPIKey    string
	NeoWsURL      string
	NASATimeout   time.Duration
	NASARateLimit float64

	// IAU Minor Planet Center NEO Confirmation Page.
	MPCNEOCPURL string
	MPCTimeout  time.Duration

	// Mapbox geocoding configuration.
	MapboxToken     string
	MapboxEnabled   bool
	MapboxTimeout   time.Duration
	MapboxCacheSize int
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	horizonsTimeout, err := parsePositiveDuration("HORIZONS_TIMEOUT", "20s")
	if err != nil {
		return nil, err
	}
	nasaTimeout, err := parsePositiveDuration("NASA_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	mpcTimeout, err := parsePositiveDuration("MPC_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	mapboxTimeout, err := parsePositiveDuration("MAPBOX_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}

	horizonsRate, err := parseRate("HORIZONS_RATE_LIMIT", "2")
	if err != nil {
		return nil, err
	}
	nasaRate, err := parseRate("NASA_RATE_LIMIT", "1")
	if err != nil {
		return nil, err
	}

	pipelineEnabled, err := parseBool("PIPELINE_ENABLED", true)
	if err != nil {
		return nil, err
	}

	mapboxToken := os.Getenv("MAPBOX_TOKEN")
	mapboxEnabled := mapboxToken != ""
	if v := os.Getenv("MAPBOX_ENABLED"); v != "" {
		mapboxEnabled = v == "true"
	}

	cfg := &Config{
		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic:   sharedcfg.EnvOrDefault("KAFKA_SOURCE_TOPIC", "impact-scenarios"),
		KafkaSinkTopic:     sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "impact-reports"),
		KafkaGroupID:       sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "neo-impact"),
		HTTPAddr:           sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:           sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:          sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:    shutdownTimeout,
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,
		PipelineEnabled:    pipelineEnabled,

		ProfileSource: sharedcfg.EnvOrDefault("PROFILE_SOURCE", ProfileSourceHorizons),

		HorizonsURL:       sharedcfg.EnvOrDefault("HORIZONS_URL", "https://ssd.jpl.nasa.gov/api/horizons.api"),
		HorizonsTimeout:   horizonsTimeout,
		HorizonsRateLimit: horizonsRate,

		NASAAPIKey:    sharedcfg.EnvOrDefault("NASA_API_KEY", "DEMO_KEY"),
		NeoWsURL:      sharedcfg.EnvOrDefault("NASA_NEOWS_URL", "https://api.nasa.gov/neo/rest/v1"),
		NASATimeout:   nasaTimeout,
		NASARateLimit: nasaRate,

		MPCNEOCPURL: sharedcfg.EnvOrDefault("MPC_NEOCP_URL", "https://www.minorplanetcenter.net/Extended_Files/neocp.json"),
		MPCTimeout:  mpcTimeout,

		MapboxToken:     mapboxToken,
		MapboxEnabled:   mapboxEnabled,
		MapboxTimeout:   mapboxTimeout,
		MapboxCacheSize: parseMapboxCacheSize(),
	}

	if len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required")
	}
	if cfg.KafkaSourceTopic == "" {
		return nil, errors.New("KAFKA_SOURCE_TOPIC is required")
	}
	if cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_SINK_TOPIC is required")
	}
	if cfg.ProfileSource != ProfileSourceHorizons && cfg.ProfileSource != ProfileSourceNeoWs {
		return nil, fmt.Errorf("invalid PROFILE_SOURCE %q: must be horizons or neows", cfg.ProfileSource)
	}
	if cfg.MapboxEnabled && cfg.MapboxToken == "" {
		return nil, errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}

	return cfg, nil
}

func parsePositiveDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, fallback))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be a positive duration", key)
	}
	return d, nil
}

func parseRate(key, fallback string) (float64, error) {
	r, err := strconv.ParseFloat(sharedcfg.EnvOrDefault(key, fallback), 64)
	if err != nil || r <= 0 {
		return 0, fmt.Errorf("invalid %s: must be a positive number of requests per second", key)
	}
	return r, nil
}

func parseBool(key string, fallback bool) (bool, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s: must be true or false", key)
	}
	return b, nil
}

func parseMapboxCacheSize() int {
	if s := os.Getenv("MAPBOX_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 1000
}
