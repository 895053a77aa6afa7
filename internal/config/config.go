// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Logging   LoggingConfig   `mapstructure:"logging"`
	Server    ServerConfig    `mapstructure:"server"`
	Scan      ScanConfig      `mapstructure:"scan"`
	Pacing    PacingConfig    `mapstructure:"pacing"`
	Fetch     FetchConfig     `mapstructure:"fetch"`
	Artifacts ArtifactsConfig `mapstructure:"artifacts"`
	Postgres  PostgresConfig  `mapstructure:"postgres"`
	PubSub    PubSubConfig    `mapstructure:"pubsub"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// ServerConfig controls the status HTTP server.
type ServerConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	Addr           string        `mapstructure:"addr"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// ScanConfig governs catalog input, result output, and per-product behavior.
type ScanConfig struct {
	CatalogPath     string        `mapstructure:"catalog_path"`
	OutputPath      string        `mapstructure:"output_path"`
	MaxProducts     int           `mapstructure:"max_products"`
	MaxRetries      int           `mapstructure:"max_retries"`
	RetryBackoffMin time.Duration `mapstructure:"retry_backoff_min"`
	RetryBackoffMax time.Duration `mapstructure:"retry_backoff_max"`
	VariantPause    time.Duration `mapstructure:"variant_pause"`
	ProductPauseMin time.Duration `mapstructure:"product_pause_min"`
	ProductPauseMax time.Duration `mapstructure:"product_pause_max"`
	SnapshotPages   bool          `mapstructure:"snapshot_pages"`
}

// PacingConfig controls the adaptive search throttle.
type PacingConfig struct {
	BatchSize        int           `mapstructure:"batch_size"`
	BatchCooldownMin time.Duration `mapstructure:"batch_cooldown_min"`
	BatchCooldownMax time.Duration `mapstructure:"batch_cooldown_max"`
	EmergencyMin     time.Duration `mapstructure:"emergency_min"`
	EmergencyMax     time.Duration `mapstructure:"emergency_max"`
	WarmupSearches   int           `mapstructure:"warmup_searches"`
	RampSearches     int           `mapstructure:"ramp_searches"`
	WarmupDelayMin   time.Duration `mapstructure:"warmup_delay_min"`
	WarmupDelayMax   time.Duration `mapstructure:"warmup_delay_max"`
	RampDelayMin     time.Duration `mapstructure:"ramp_delay_min"`
	RampDelayMax     time.Duration `mapstructure:"ramp_delay_max"`
	CruiseDelayMin   time.Duration `mapstructure:"cruise_delay_min"`
	CruiseDelayMax   time.Duration `mapstructure:"cruise_delay_max"`
}

// FetchConfig configures the probe and headless fetchers.
type FetchConfig struct {
	UserAgent           string        `mapstructure:"user_agent"`
	RequestTimeout      time.Duration `mapstructure:"request_timeout"`
	DomainRPS           float64       `mapstructure:"domain_rps"`
	DomainBurst         int           `mapstructure:"domain_burst"`
	HeadlessEnabled     bool          `mapstructure:"headless_enabled"`
	HeadlessConcurrency int           `mapstructure:"headless_concurrency"`
	PageTimeout         time.Duration `mapstructure:"page_timeout"`
	SettleMin           time.Duration `mapstructure:"settle_min"`
	SettleMax           time.Duration `mapstructure:"settle_max"`
	PromotionThreshold  int           `mapstructure:"promotion_threshold"`
}

// ArtifactsConfig sets where page snapshots are written.
type ArtifactsConfig struct {
	Backend   string `mapstructure:"backend"`
	BaseDir   string `mapstructure:"base_dir"`
	GCSBucket string `mapstructure:"gcs_bucket"`
	GCSPrefix string `mapstructure:"gcs_prefix"`
}

// PostgresConfig controls optional price row persistence.
type PostgresConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	DSN      string `mapstructure:"dsn"`
	Table    string `mapstructure:"table"`
	MaxConns int32  `mapstructure:"max_conns"`
	MinConns int32  `mapstructure:"min_conns"`
}

// PubSubConfig holds metadata for resolved-product notifications.
type PubSubConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	ProjectID string `mapstructure:"project_id"`
	TopicID   string `mapstructure:"topic_id"`
}

// Load builds a Config from disk and environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("COMPETISCAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.development", true)
	v.SetDefault("server.enabled", true)
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.request_timeout", 30*time.Second)
	v.SetDefault("scan.output_path", "results.json")
	v.SetDefault("scan.max_products", 0)
	v.SetDefault("scan.max_retries", 3)
	v.SetDefault("scan.retry_backoff_min", 30*time.Second)
	v.SetDefault("scan.retry_backoff_max", 60*time.Second)
	v.SetDefault("scan.variant_pause", 5*time.Second)
	v.SetDefault("scan.product_pause_min", 2*time.Second)
	v.SetDefault("scan.product_pause_max", 5*time.Second)
	v.SetDefault("scan.snapshot_pages", false)
	v.SetDefault("pacing.batch_size", 20)
	v.SetDefault("pacing.batch_cooldown_min", 2*time.Minute)
	v.SetDefault("pacing.batch_cooldown_max", 3*time.Minute)
	v.SetDefault("pacing.emergency_min", 5*time.Minute)
	v.SetDefault("pacing.emergency_max", 10*time.Minute)
	v.SetDefault("pacing.warmup_searches", 10)
	v.SetDefault("pacing.ramp_searches", 15)
	v.SetDefault("pacing.warmup_delay_min", 8*time.Second)
	v.SetDefault("pacing.warmup_delay_max", 12*time.Second)
	v.SetDefault("pacing.ramp_delay_min", 12*time.Second)
	v.SetDefault("pacing.ramp_delay_max", 18*time.Second)
	v.SetDefault("pacing.cruise_delay_min", 15*time.Second)
	v.SetDefault("pacing.cruise_delay_max", 25*time.Second)
	v.SetDefault("fetch.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	v.SetDefault("fetch.request_timeout", 15*time.Second)
	v.SetDefault("fetch.domain_rps", 0.5)
	v.SetDefault("fetch.domain_burst", 1)
	v.SetDefault("fetch.headless_enabled", true)
	v.SetDefault("fetch.headless_concurrency", 1)
	v.SetDefault("fetch.page_timeout", 30*time.Second)
	v.SetDefault("fetch.settle_min", 3*time.Second)
	v.SetDefault("fetch.settle_max", 6*time.Second)
	v.SetDefault("fetch.promotion_threshold", 4096)
	v.SetDefault("artifacts.backend", "none")
	v.SetDefault("artifacts.base_dir", "snapshots")
	v.SetDefault("postgres.enabled", false)
	v.SetDefault("postgres.table", "competitor_prices")
	v.SetDefault("pubsub.enabled", false)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Enabled && c.Server.Addr == "" {
		return fmt.Errorf("server.addr must be set when the server is enabled")
	}
	if c.Scan.MaxRetries < 0 {
		return fmt.Errorf("scan.max_retries must be >= 0")
	}
	if c.Scan.RetryBackoffMax < c.Scan.RetryBackoffMin {
		return fmt.Errorf("scan.retry_backoff_max must be >= scan.retry_backoff_min")
	}
	if c.Scan.ProductPauseMax < c.Scan.ProductPauseMin {
		return fmt.Errorf("scan.product_pause_max must be >= scan.product_pause_min")
	}
	if c.Pacing.BatchSize <= 0 {
		return fmt.Errorf("pacing.batch_size must be > 0")
	}
	if c.Pacing.RampSearches < c.Pacing.WarmupSearches {
		return fmt.Errorf("pacing.ramp_searches must be >= pacing.warmup_searches")
	}
	if c.Fetch.HeadlessEnabled && c.Fetch.HeadlessConcurrency <= 0 {
		return fmt.Errorf("fetch.headless_concurrency must be > 0 when headless is enabled")
	}
	switch c.Artifacts.Backend {
	case "none", "memory", "fs", "gcs":
	default:
		return fmt.Errorf("artifacts.backend must be one of none, memory, fs, gcs")
	}
	if c.Artifacts.Backend == "gcs" && c.Artifacts.GCSBucket == "" {
		return fmt.Errorf("artifacts.gcs_bucket must be set when artifacts.backend is gcs")
	}
	if c.Postgres.Enabled && c.Postgres.DSN == "" {
		return fmt.Errorf("postgres.dsn must be set when postgres is enabled")
	}
	if c.PubSub.Enabled && (c.PubSub.ProjectID == "" || c.PubSub.TopicID == "") {
		return fmt.Errorf("pubsub.project_id and pubsub.topic_id must be set when pubsub is enabled")
	}
	return nil
}
