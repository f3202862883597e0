// Package config defines all configuration structures for molgen.  No I/O or
// parsing logic lives here, only plain data types and validation.
package config

import (
	"fmt"
	"time"

	"github.com/turtacn/molgen/internal/infrastructure/monitoring/logging"
)

// ─────────────────────────────────────────────────────────────────────────────
// Sub-configuration structs
// ─────────────────────────────────────────────────────────────────────────────

// DistributionConfig controls how node-count and property distributions are
// fitted and sampled.
type DistributionConfig struct {
	BinCount int `mapstructure:"bin_count"`

	// Fallback selects the behaviour for a node count that has no fitted
	// property partition: "strict" fails with a lookup error, "nearest" uses
	// the closest fitted node count.
	Fallback string `mapstructure:"fallback"` // "strict" | "nearest"

	// AllowRawValues lets property sampling proceed without a normalizer.
	AllowRawValues bool `mapstructure:"allow_raw_values"`

	// NormalizerPath points to a YAML file of per-property mean/mad.
	NormalizerPath string `mapstructure:"normalizer_path"`
}

// ArgsConfig locates persisted generator arguments.
type ArgsConfig struct {
	Dir             string `mapstructure:"dir"`
	Epoch           string `mapstructure:"epoch"`
	ExpectedDataset string `mapstructure:"expected_dataset"`
}

// DatasetConfig describes where training statistics are read from.
type DatasetConfig struct {
	Driver         string        `mapstructure:"driver"` // "sqlite" | "pgx"
	DSN            string        `mapstructure:"dsn"`
	Table          string        `mapstructure:"table"`
	NumAtomsColumn string        `mapstructure:"num_atoms_column"`
	InfoPath       string        `mapstructure:"info_path"`
	QueryTimeout   time.Duration `mapstructure:"query_timeout"`
}

// StorageConfig holds MinIO / S3-compatible object-storage parameters used
// for s3:// checkpoint and argument artifacts.
type StorageConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Region    string `mapstructure:"region"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

// CacheConfig holds the Redis snapshot cache parameters.
type CacheConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Addr      string        `mapstructure:"addr"`
	Password  string        `mapstructure:"password"`
	DB        int           `mapstructure:"db"`
	KeyPrefix string        `mapstructure:"key_prefix"`
	TTL       time.Duration `mapstructure:"ttl"`
}

// MetricsConfig holds Prometheus metrics parameters.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
	// Textfile is where a run writes its metrics for the node_exporter
	// textfile collector.  Empty disables the export.
	Textfile string `mapstructure:"textfile"`
}

// EventsConfig holds the Kafka run-event parameters.
type EventsConfig struct {
	Enabled          bool     `mapstructure:"enabled"`
	Brokers          []string `mapstructure:"brokers"`
	Topic            string   `mapstructure:"topic"`
	Acks             string   `mapstructure:"acks"`
	CompressionCodec string   `mapstructure:"compression"`
	SASLMechanism    string   `mapstructure:"sasl_mechanism"`
	SASLUsername     string   `mapstructure:"sasl_username"`
	SASLPassword     string   `mapstructure:"sasl_password"`
	TLSEnabled       bool     `mapstructure:"tls_enabled"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Root Config
// ─────────────────────────────────────────────────────────────────────────────

// Config is the root configuration structure for molgen.
type Config struct {
	Log          logging.LogConfig  `mapstructure:"log"`
	Distribution DistributionConfig `mapstructure:"distribution"`
	Args         ArgsConfig         `mapstructure:"args"`
	Dataset      DatasetConfig      `mapstructure:"dataset"`
	Storage      StorageConfig      `mapstructure:"storage"`
	Cache        CacheConfig        `mapstructure:"cache"`
	Metrics      MetricsConfig      `mapstructure:"metrics"`
	Events       EventsConfig       `mapstructure:"events"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Validation
// ─────────────────────────────────────────────────────────────────────────────

// Validate performs semantic validation of the fully-populated Config.
// It returns the first error encountered; callers should treat any error as
// fatal.
func (c *Config) Validate() error {
	// Log
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config: log.format %q is invalid; expected json|console", c.Log.Format)
	}

	// Distribution
	if c.Distribution.BinCount < 1 {
		return fmt.Errorf("config: distribution.bin_count must be ≥ 1, got %d", c.Distribution.BinCount)
	}
	switch c.Distribution.Fallback {
	case "strict", "nearest":
	default:
		return fmt.Errorf("config: distribution.fallback %q is invalid; expected strict|nearest", c.Distribution.Fallback)
	}

	// Args
	if c.Args.ExpectedDataset == "" {
		return fmt.Errorf("config: args.expected_dataset is required")
	}

	// Dataset
	switch c.Dataset.Driver {
	case "sqlite", "pgx":
	default:
		return fmt.Errorf("config: dataset.driver %q is invalid; expected sqlite|pgx", c.Dataset.Driver)
	}
	if c.Dataset.NumAtomsColumn == "" {
		return fmt.Errorf("config: dataset.num_atoms_column is required")
	}

	// Cache
	if c.Cache.Enabled && c.Cache.Addr == "" {
		return fmt.Errorf("config: cache.addr is required when cache is enabled")
	}
	if c.Cache.DB < 0 {
		return fmt.Errorf("config: cache.db must be ≥ 0, got %d", c.Cache.DB)
	}

	// Events
	if c.Events.Enabled && len(c.Events.Brokers) == 0 {
		return fmt.Errorf("config: events.brokers is required when events are enabled")
	}

	return nil
}

//Personal.AI order the ending
