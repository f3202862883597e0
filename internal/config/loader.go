package config

import (
	"fmt"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// envPrefix is the environment variable prefix used by all molgen settings.
const envPrefix = "MOLGEN"

// boundKeys lists every leaf key so that AutomaticEnv can resolve env-only
// values during Unmarshal.
var boundKeys = []string{
	"log.level", "log.format", "log.output_paths", "log.error_output_paths",
	"distribution.bin_count", "distribution.fallback", "distribution.allow_raw_values", "distribution.normalizer_path",
	"args.dir", "args.epoch", "args.expected_dataset",
	"dataset.driver", "dataset.dsn", "dataset.table", "dataset.num_atoms_column", "dataset.info_path", "dataset.query_timeout",
	"storage.endpoint", "storage.access_key", "storage.secret_key", "storage.region", "storage.use_ssl",
	"cache.enabled", "cache.addr", "cache.password", "cache.db", "cache.key_prefix", "cache.ttl",
	"metrics.enabled", "metrics.namespace", "metrics.textfile",
	"events.enabled", "events.brokers", "events.topic", "events.acks", "events.compression",
	"events.sasl_mechanism", "events.sasl_username", "events.sasl_password", "events.tls_enabled",
}

// newViper builds a pre-configured Viper instance: YAML file type, MOLGEN_
// env prefix, automatic env binding, and a key replacer that maps "." → "_"
// so that "dataset.dsn" resolves to "MOLGEN_DATASET_DSN".
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, k := range boundKeys {
		_ = v.BindEnv(k)
	}
	return v
}

// Load reads the YAML file at configPath, merges any MOLGEN_* environment
// variable overrides, applies defaults for unset fields, and validates the
// result.
func Load(configPath string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: failed to read config file %q: %w", configPath, err)
	}

	return unmarshalAndFinalize(v)
}

// LoadFromEnv builds a Config entirely from MOLGEN_* environment variables,
// with no config file required.
//
//	MOLGEN_<SECTION>_<FIELD>   e.g.  MOLGEN_DATASET_DSN, MOLGEN_CACHE_ADDR
func LoadFromEnv() (*Config, error) {
	return unmarshalAndFinalize(newViper())
}

// unmarshalAndFinalize unmarshals viper state into a Config struct, applies
// defaults, and validates the result.
func unmarshalAndFinalize(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal configuration: %w", err)
	}

	ApplyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}

	return cfg, nil
}

// Watch monitors configPath and invokes onChange with the newly parsed Config
// whenever the file is modified on disk.  Only the log level is safe to apply
// at runtime; fitted distributions are never rebuilt from a reload.
//
// Watch is non-blocking.  A change that fails to parse or validate is
// reported through onError (when non-nil) and onChange is not called.
func Watch(configPath string, onChange func(*Config), onError func(error)) error {
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("config: failed to read config file %q: %w", configPath, err)
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cfg, err := unmarshalAndFinalize(v)
		if err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		onChange(cfg)
	})
	v.WatchConfig()
	return nil
}

// MustLoad is a convenience wrapper around Load that panics on any error.
func MustLoad(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		panic(fmt.Sprintf("config: MustLoad failed: %v", err))
	}
	return cfg
}

//Personal.AI order the ending
