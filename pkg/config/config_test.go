package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, cfg.Engine.CacheTTL)
	assert.Equal(t, 100, cfg.Engine.CacheMaxEntries)
	assert.Equal(t, 100, cfg.Engine.MetricsCapacity)
	assert.Equal(t, 10000, cfg.Benchmark.DatasetSize)
	assert.Equal(t, 3, cfg.Benchmark.WarmupQueries)
	assert.InDelta(t, 0.7, cfg.Benchmark.FuzzyThreshold, 1e-9)
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "cfg.yaml", `
engine:
  cacheTTL: 30s
  cacheMaxEntries: 10
benchmark:
  datasetSize: 500
report:
  format: yaml
  sinks: [file, redis]
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, cfg.Engine.CacheTTL)
	assert.Equal(t, 10, cfg.Engine.CacheMaxEntries)
	assert.Equal(t, 100, cfg.Engine.MetricsCapacity, "unset keys keep defaults")
	assert.Equal(t, 500, cfg.Benchmark.DatasetSize)
	assert.Equal(t, []string{"file", "redis"}, cfg.Report.Sinks)
}

func TestLoadTOML(t *testing.T) {
	path := writeFile(t, "cfg.toml", `
[benchmark]
dataset_size = 250
seed = 7

[logging]
level = "debug"
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 250, cfg.Benchmark.DatasetSize)
	assert.Equal(t, int64(7), cfg.Benchmark.Seed)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadRejectsUnknownExtension(t *testing.T) {
	path := writeFile(t, "cfg.ini", "x=1")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PS_CACHE_MAX_ENTRIES", "20")
	t.Setenv("PS_REPORT_SINKS", "kafka,postgres")
	t.Setenv("PS_METRICS_PORT", "9191")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 20, cfg.Engine.CacheMaxEntries)
	assert.Equal(t, []string{"kafka", "postgres"}, cfg.Report.Sinks)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, 9191, cfg.Metrics.Port)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Benchmark.FuzzyThreshold = 1.5
	cfg.Report.Sinks = []string{"s3"}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fuzzyThreshold")
	assert.Contains(t, err.Error(), "s3")
}

func TestServerDefaultsAndOverride(t *testing.T) {
	t.Setenv("PS_SERVER_PORT", "9191")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 9191, cfg.Server.Port)
	assert.Equal(t, 20, cfg.Server.DefaultLimit)
	assert.Equal(t, 3, cfg.Report.RetryAttempts)
	assert.Equal(t, "searchbench-watch", cfg.Kafka.ConsumerGroup)

	cfg.Server.MaxLimit = 5
	assert.Error(t, cfg.Validate())
}
