package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validConfigYAML = `
log:
  level: debug
  format: console
distribution:
  bin_count: 500
  fallback: nearest
args:
  dir: ./outputs/run1
  epoch: "10"
dataset:
  driver: sqlite
  dsn: "file:train.db"
  table: qm9_train
cache:
  enabled: true
  addr: "redis:6379"
  ttl: 1h
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "molgen.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_ValidFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, validConfigYAML))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 500, cfg.Distribution.BinCount)
	assert.Equal(t, "nearest", cfg.Distribution.Fallback)
	assert.Equal(t, "./outputs/run1", cfg.Args.Dir)
	assert.Equal(t, "10", cfg.Args.Epoch)
	assert.Equal(t, "qm9_train", cfg.Dataset.Table)
	assert.Equal(t, "num_atoms", cfg.Dataset.NumAtomsColumn)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, time.Hour, cfg.Cache.TTL)
	assert.Equal(t, "qm9_second_half", cfg.Args.ExpectedDataset)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("MOLGEN_DISTRIBUTION_BIN_COUNT", "42")
	t.Setenv("MOLGEN_DATASET_DSN", "postgres://u@h/db")

	cfg, err := Load(writeConfig(t, validConfigYAML))
	require.NoError(t, err)
	assert.Equal(t, 42, cfg.Distribution.BinCount)
	assert.Equal(t, "postgres://u@h/db", cfg.Dataset.DSN)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoad_InvalidValues(t *testing.T) {
	_, err := Load(writeConfig(t, "distribution:\n  fallback: linear\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("MOLGEN_ARGS_EXPECTED_DATASET", "qm9")
	t.Setenv("MOLGEN_DATASET_DRIVER", "pgx")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "qm9", cfg.Args.ExpectedDataset)
	assert.Equal(t, "pgx", cfg.Dataset.Driver)
	assert.Equal(t, 1000, cfg.Distribution.BinCount)
}

func TestLoad_EventsSection(t *testing.T) {
	body := validConfigYAML + `
events:
  enabled: true
  brokers: ["kafka-0:9092", "kafka-1:9092"]
  compression: zstd
`
	cfg, err := Load(writeConfig(t, body))
	require.NoError(t, err)
	assert.True(t, cfg.Events.Enabled)
	assert.Equal(t, []string{"kafka-0:9092", "kafka-1:9092"}, cfg.Events.Brokers)
	assert.Equal(t, "zstd", cfg.Events.CompressionCodec)
	assert.Equal(t, DefaultEventsTopic, cfg.Events.Topic)
}

func TestMustLoad_Panics(t *testing.T) {
	assert.Panics(t, func() { MustLoad(filepath.Join(t.TempDir(), "absent.yaml")) })
}

func TestWatch_ReloadsOnWrite(t *testing.T) {
	path := writeConfig(t, validConfigYAML)

	changed := make(chan *Config, 16)
	require.NoError(t, Watch(path, func(c *Config) { changed <- c }, nil))

	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: warn\n"), 0o600))

	deadline := time.After(5 * time.Second)
	for {
		select {
		case cfg := <-changed:
			if cfg.Log.Level == "warn" {
				return
			}
		case <-deadline:
			t.Fatal("config change was not observed")
		}
	}
}

func TestWatch_MissingFile(t *testing.T) {
	err := Watch(filepath.Join(t.TempDir(), "absent.yaml"), func(*Config) {}, nil)
	assert.Error(t, err)
}

//Personal.AI order the ending
