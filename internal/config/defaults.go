package config

import "time"

// ─────────────────────────────────────────────────────────────────────────────
// Default value constants
// ─────────────────────────────────────────────────────────────────────────────

const (
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultBinCount = 1000
	DefaultFallback = "strict"

	DefaultExpectedDataset = "qm9_second_half"

	DefaultDatasetDriver  = "sqlite"
	DefaultNumAtomsColumn = "num_atoms"
	DefaultDatasetTable   = "molecules"
	DefaultQueryTimeout   = 60 * time.Second

	DefaultStorageRegion = "us-east-1"

	DefaultCacheAddr      = "localhost:6379"
	DefaultCacheKeyPrefix = "molgen:"
	DefaultCacheTTL       = 24 * time.Hour

	DefaultMetricsNamespace = "molgen"

	DefaultEventsTopic = "molgen.events"
)

// ApplyDefaults fills every zero-value field in cfg with the molgen default.
// Fields that have already been set (non-zero values) are left unchanged so
// that explicit configuration always wins.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// ── Log ───────────────────────────────────────────────────────────────────
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}

	// ── Distribution ──────────────────────────────────────────────────────────
	if cfg.Distribution.BinCount == 0 {
		cfg.Distribution.BinCount = DefaultBinCount
	}
	if cfg.Distribution.Fallback == "" {
		cfg.Distribution.Fallback = DefaultFallback
	}

	// ── Args ──────────────────────────────────────────────────────────────────
	if cfg.Args.ExpectedDataset == "" {
		cfg.Args.ExpectedDataset = DefaultExpectedDataset
	}

	// ── Dataset ───────────────────────────────────────────────────────────────
	if cfg.Dataset.Driver == "" {
		cfg.Dataset.Driver = DefaultDatasetDriver
	}
	if cfg.Dataset.Table == "" {
		cfg.Dataset.Table = DefaultDatasetTable
	}
	if cfg.Dataset.NumAtomsColumn == "" {
		cfg.Dataset.NumAtomsColumn = DefaultNumAtomsColumn
	}
	if cfg.Dataset.QueryTimeout == 0 {
		cfg.Dataset.QueryTimeout = DefaultQueryTimeout
	}

	// ── Storage ───────────────────────────────────────────────────────────────
	if cfg.Storage.Region == "" {
		cfg.Storage.Region = DefaultStorageRegion
	}

	// ── Cache ─────────────────────────────────────────────────────────────────
	if cfg.Cache.Addr == "" {
		cfg.Cache.Addr = DefaultCacheAddr
	}
	if cfg.Cache.KeyPrefix == "" {
		cfg.Cache.KeyPrefix = DefaultCacheKeyPrefix
	}
	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = DefaultCacheTTL
	}

	// ── Metrics ───────────────────────────────────────────────────────────────
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}

	// ── Events ────────────────────────────────────────────────────────────────
	if cfg.Events.Topic == "" {
		cfg.Events.Topic = DefaultEventsTopic
	}
}

//Personal.AI order the ending
