package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	// Storage
	DataDir         string `envconfig:"DATA_DIR" default:"data"`
	IndexPathPrefix string `envconfig:"INDEX_PATH_PREFIX" default:"/data/hierarchy"`

	// Raw feeds
	DataBaseURL   string        `envconfig:"DATA_BASE_URL" default:"https://raw.githubusercontent.com/ENKDAY/prizepicks-scraper/main/data"`
	DataSources   []string      `envconfig:"DATA_SOURCES" default:"prizepicks-nfl-today.json,prizepicks-nfl-tomorrow.json,prizepicks-nfl.json"`
	SourcesFile   string        `envconfig:"SOURCES_FILE" default:""`
	FeedTimeout   time.Duration `envconfig:"FEED_TIMEOUT" default:"30s"`
	FeedRetries   int           `envconfig:"FEED_MAX_RETRIES" default:"3"`
	FeedRateLimit float64       `envconfig:"FEED_RATE_LIMIT" default:"5"`
	FeedBurst     int           `envconfig:"FEED_BURST" default:"5"`

	// Normalization
	SourceTimezone     string   `envconfig:"SOURCE_TIMEZONE" default:"America/Chicago"`
	Sports             []string `envconfig:"SPORTS" default:""`
	PlayerIDHashLength int      `envconfig:"PLAYER_ID_HASH_LENGTH" default:"8"`

	// Scheduler
	RotationCron string `envconfig:"ROTATION_CRON" default:"5 0 * * *"`
	RefreshCron  string `envconfig:"REFRESH_CRON" default:""`
	OddsSyncCron string `envconfig:"ODDS_SYNC_CRON" default:""`
	RunOnStart   bool   `envconfig:"RUN_ON_START" default:"false"`

	// Redis index mirror
	RedisEnabled  bool          `envconfig:"REDIS_ENABLED" default:"false"`
	RedisHost     string        `envconfig:"REDIS_HOST" default:"localhost"`
	RedisPort     int           `envconfig:"REDIS_PORT" default:"6379"`
	RedisPassword string        `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int           `envconfig:"REDIS_DB" default:"0"`
	CacheTTLIndex time.Duration `envconfig:"CACHE_TTL_INDEX" default:"36h"`

	// The Odds API
	OddsAPIKey     string        `envconfig:"ODDS_API_KEY" default:""`
	OddsAPIBaseURL string        `envconfig:"ODDS_API_BASE_URL" default:"https://api.the-odds-api.com"`
	OddsSports     []string      `envconfig:"ODDS_SPORTS" default:"basketball_nba,americanfootball_nfl,americanfootball_ncaaf"`
	OddsMarkets    []string      `envconfig:"ODDS_MARKETS" default:"player_points,player_rebounds,player_assists,player_pass_yds,player_rush_yds,player_rec_yds"`
	OddsRegion     string        `envconfig:"ODDS_REGION" default:"us"`
	OddsFormat     string        `envconfig:"ODDS_FORMAT" default:"american"`
	OddsTimeout    time.Duration `envconfig:"ODDS_TIMEOUT" default:"20s"`
	OddsOutDir     string        `envconfig:"ODDS_OUT_DIR" default:""`

	// Action slices
	ActionSliceLimit int `envconfig:"ACTION_SLICE_LIMIT" default:"200"`

	// Application
	AppEnv   string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// Monitoring
	EnableMetrics bool `envconfig:"ENABLE_METRICS" default:"true"`
	MetricsPort   int  `envconfig:"METRICS_PORT" default:"9090"`
}

// SourcesManifest is the optional YAML file naming the raw feeds
type SourcesManifest struct {
	BaseURL string   `yaml:"base_url"`
	Sources []string `yaml:"sources"`
}

// Load loads configuration from environment variables
// It first attempts to load from .env file if in development mode
func Load() (*Config, error) {
	// Try to load .env file (ignore error if doesn't exist)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment config: %w", err)
	}

	if cfg.SourcesFile != "" {
		if err := cfg.applyManifest(cfg.SourcesFile); err != nil {
			return nil, err
		}
	}

	// Validate
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// applyManifest overrides the feed base URL and sources from a YAML file
func (c *Config) applyManifest(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read sources file: %w", err)
	}

	var m SourcesManifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("failed to parse sources file: %w", err)
	}

	if m.BaseURL != "" {
		c.DataBaseURL = m.BaseURL
	}
	if len(m.Sources) > 0 {
		c.DataSources = m.Sources
	}
	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if strings.TrimSpace(c.DataDir) == "" {
		return fmt.Errorf("DATA_DIR is required")
	}

	if len(c.DataSources) == 0 {
		return fmt.Errorf("DATA_SOURCES must name at least one feed")
	}

	if _, err := time.LoadLocation(c.SourceTimezone); err != nil {
		return fmt.Errorf("SOURCE_TIMEZONE %q is invalid: %w", c.SourceTimezone, err)
	}

	if c.PlayerIDHashLength < 4 || c.PlayerIDHashLength > 40 {
		return fmt.Errorf("PLAYER_ID_HASH_LENGTH must be between 4 and 40, got %d", c.PlayerIDHashLength)
	}

	crons := map[string]string{
		"ROTATION_CRON":  c.RotationCron,
		"REFRESH_CRON":   c.RefreshCron,
		"ODDS_SYNC_CRON": c.OddsSyncCron,
	}
	for name, spec := range crons {
		if spec == "" {
			continue
		}
		if _, err := cron.ParseStandard(spec); err != nil {
			return fmt.Errorf("%s %q is invalid: %w", name, spec, err)
		}
	}
	if c.RotationCron == "" {
		return fmt.Errorf("ROTATION_CRON is required")
	}

	if c.FeedRetries < 0 {
		return fmt.Errorf("FEED_MAX_RETRIES must not be negative")
	}

	if c.ActionSliceLimit <= 0 {
		return fmt.Errorf("ACTION_SLICE_LIMIT must be positive")
	}

	return nil
}

// HierarchyDir returns the root of the bucket hierarchy
func (c *Config) HierarchyDir() string {
	return filepath.Join(c.DataDir, "hierarchy")
}

// OddsDir returns the directory odds snapshots are written to
func (c *Config) OddsDir() string {
	if c.OddsOutDir != "" {
		return c.OddsOutDir
	}
	return filepath.Join(c.DataDir, "odds")
}

// Location returns the source timezone
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.SourceTimezone)
}

// RedisAddr returns the Redis address
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// MustLoad loads configuration or panics on error
// Use this in main() where we want to fail fast
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	return cfg
}
