package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lmiguelgato/ParentPlanner/internal/domain"
)

// SourceConfig defines one upstream listings feed.
type SourceConfig struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"` // "http" or "file"
	URL  string `yaml:"url,omitempty"`
	Path string `yaml:"path,omitempty"`
}

// Config holds all service settings, populated from environment variables
// plus the YAML sources file.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	DataDir string
	AdminID string

	RefreshInterval time.Duration
	PollInterval    time.Duration
	EnrichWorkers   int
	EventWindow     time.Duration

	GeocodeEnabled   bool
	GeocodeTimeout   time.Duration
	GeocodeCacheSize int
	GeocodeUserAgent string

	WeatherEnabled bool
	WeatherTimeout time.Duration

	RegionState     string
	RegionCountry   string
	RegionRequired  []string
	RegionExcluded  []string
	DefaultLocation string

	SourcesFile string
	Sources     []SourceConfig
	FeedTimeout time.Duration

	KafkaEnabled     bool
	KafkaBrokers     []string
	KafkaEventTopic  string
	KafkaNotifyTopic string
}

// Load reads configuration from environment variables, applying defaults
// where unset, and parses the sources file.
func Load() (*Config, error) {
	shutdownTimeout, err := durationOrDefault("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	refreshInterval, err := durationOrDefault("REFRESH_INTERVAL", 24*time.Hour)
	if err != nil {
		return nil, err
	}
	pollInterval, err := durationOrDefault("POLL_INTERVAL", time.Minute)
	if err != nil {
		return nil, err
	}
	eventWindow, err := durationOrDefault("EVENT_WINDOW", domain.DefaultEventWindow)
	if err != nil {
		return nil, err
	}
	geocodeTimeout, err := durationOrDefault("GEOCODE_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}
	weatherTimeout, err := durationOrDefault("WEATHER_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}
	feedTimeout, err := durationOrDefault("FEED_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}

	brokers := parseList(os.Getenv("KAFKA_BROKERS"))
	kafkaEnabled := len(brokers) > 0
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		DataDir: envOrDefault("DATA_DIR", "data"),
		AdminID: os.Getenv("ADMIN_ID"),

		RefreshInterval: refreshInterval,
		PollInterval:    pollInterval,
		EnrichWorkers:   intOrDefault("ENRICH_WORKERS", 4),
		EventWindow:     eventWindow,

		GeocodeEnabled:   envOrDefault("GEOCODE_ENABLED", "true") == "true",
		GeocodeTimeout:   geocodeTimeout,
		GeocodeCacheSize: intOrDefault("GEOCODE_CACHE_SIZE", 1000),
		GeocodeUserAgent: envOrDefault("GEOCODE_USER_AGENT", "ParentPlannerBot/1.0"),

		WeatherEnabled: envOrDefault("WEATHER_ENABLED", "true") == "true",
		WeatherTimeout: weatherTimeout,

		RegionState:     envOrDefault("REGION_STATE", "WA"),
		RegionCountry:   envOrDefault("REGION_COUNTRY", "USA"),
		RegionRequired:  parseList(envOrDefault("REGION_REQUIRED", "Washington,United States")),
		RegionExcluded:  parseList(envOrDefault("REGION_EXCLUDED", "District of Columbia")),
		DefaultLocation: envOrDefault("DEFAULT_LOCATION", "Washington state, United States"),

		SourcesFile: envOrDefault("SOURCES_FILE", "sources.yaml"),
		FeedTimeout: feedTimeout,

		KafkaEnabled:     kafkaEnabled,
		KafkaBrokers:     brokers,
		KafkaEventTopic:  envOrDefault("KAFKA_EVENT_TOPIC", "enriched-events"),
		KafkaNotifyTopic: envOrDefault("KAFKA_NOTIFY_TOPIC", "novelty-notifications"),
	}

	if cfg.RefreshInterval <= 0 {
		return nil, errors.New("REFRESH_INTERVAL must be positive")
	}
	if cfg.PollInterval <= 0 {
		return nil, errors.New("POLL_INTERVAL must be positive")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}

	sources, err := loadSources(cfg.SourcesFile)
	if err != nil {
		return nil, err
	}
	cfg.Sources = sources

	return cfg, nil
}

// Region builds the geocoding region rule from the configured tokens.
func (c *Config) Region() domain.RegionRule {
	return domain.RegionRule{
		StateToken:      c.RegionState,
		CountryToken:    c.RegionCountry,
		Required:        c.RegionRequired,
		Excluded:        c.RegionExcluded,
		DefaultLocation: c.DefaultLocation,
	}
}

// sourcesFile is the YAML shape of the sources configuration.
type sourcesFile struct {
	Sources []SourceConfig `yaml:"sources"`
}

// loadSources parses the YAML sources file. A missing file yields an empty
// source list; validation of individual entries happens here so wiring can
// trust them.
func loadSources(path string) ([]SourceConfig, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read sources file %s: %w", path, err)
	}

	var f sourcesFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse sources file %s: %w", path, err)
	}

	for i, src := range f.Sources {
		if src.Name == "" {
			return nil, fmt.Errorf("sources[%d]: name is required", i)
		}
		switch src.Type {
		case "http":
			if src.URL == "" {
				return nil, fmt.Errorf("source %s: url is required for http sources", src.Name)
			}
		case "file":
			if src.Path == "" {
				return nil, fmt.Errorf("source %s: path is required for file sources", src.Name)
			}
		default:
			return nil, fmt.Errorf("source %s: unknown type %q", src.Name, src.Type)
		}
	}
	return f.Sources, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func durationOrDefault(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func intOrDefault(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func parseList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
