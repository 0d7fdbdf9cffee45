// Package config loads and validates configuration from YAML or TOML files
// with environment-variable overrides. It provides typed structs for the
// search engine, filter engine, benchmark harness and the report sinks
// (Redis, Kafka, PostgreSQL).
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Engine    EngineConfig    `yaml:"engine" toml:"engine"`
	Filter    FilterConfig    `yaml:"filter" toml:"filter"`
	Benchmark BenchmarkConfig `yaml:"benchmark" toml:"benchmark"`
	Report    ReportConfig    `yaml:"report" toml:"report"`
	Postgres  PostgresConfig  `yaml:"postgres" toml:"postgres"`
	Kafka     KafkaConfig     `yaml:"kafka" toml:"kafka"`
	Redis     RedisConfig     `yaml:"redis" toml:"redis"`
	Logging   LoggingConfig   `yaml:"logging" toml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics" toml:"metrics"`
	Server    ServerConfig    `yaml:"server" toml:"server"`
}

// EngineConfig controls the query cache and the per-engine metrics ring.
type EngineConfig struct {
	CacheTTL           time.Duration `yaml:"cacheTTL" toml:"cache_ttl"`
	CacheMaxEntries    int           `yaml:"cacheMaxEntries" toml:"cache_max_entries"`
	MetricsCapacity    int           `yaml:"metricsCapacity" toml:"metrics_capacity"`
	SlowQueryThreshold time.Duration `yaml:"slowQueryThreshold" toml:"slow_query_threshold"`
}

// FilterConfig controls structured filtering.
type FilterConfig struct {
	Strict   bool `yaml:"strict" toml:"strict"`
	Parallel bool `yaml:"parallel" toml:"parallel"`
}

// BenchmarkConfig controls the synthetic dataset and per-search options used
// by the benchmark harness.
type BenchmarkConfig struct {
	DatasetSize    int     `yaml:"datasetSize" toml:"dataset_size"`
	Seed           int64   `yaml:"seed" toml:"seed"`
	WarmupQueries  int     `yaml:"warmupQueries" toml:"warmup_queries"`
	FuzzyThreshold float64 `yaml:"fuzzyThreshold" toml:"fuzzy_threshold"`
	MaxResults     int     `yaml:"maxResults" toml:"max_results"`
}

// ReportConfig selects where exported benchmark reports go.
type ReportConfig struct {
	Format     string   `yaml:"format" toml:"format"`
	OutputPath string   `yaml:"outputPath" toml:"output_path"`
	Sinks      []string `yaml:"sinks" toml:"sinks"`
	// SinkTimeout bounds each publish attempt to a single sink.
	SinkTimeout   time.Duration `yaml:"sinkTimeout" toml:"sink_timeout"`
	RetryAttempts int           `yaml:"retryAttempts" toml:"retry_attempts"`
	RetryDelay    time.Duration `yaml:"retryDelay" toml:"retry_delay"`
	// BreakerThreshold is the number of consecutive failed publishes after
	// which a sink is skipped until BreakerReset has passed.
	BreakerThreshold int           `yaml:"breakerThreshold" toml:"breaker_threshold"`
	BreakerReset     time.Duration `yaml:"breakerReset" toml:"breaker_reset"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	Host            string        `yaml:"host" toml:"host"`
	Port            int           `yaml:"port" toml:"port"`
	Database        string        `yaml:"database" toml:"database"`
	User            string        `yaml:"user" toml:"user"`
	Password        string        `yaml:"password" toml:"password"`
	SSLMode         string        `yaml:"sslMode" toml:"ssl_mode"`
	MaxOpenConns    int           `yaml:"maxOpenConns" toml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"maxIdleConns" toml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime" toml:"conn_max_lifetime"`
}

// DSN returns a lib/pq-compatible data source name.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// KafkaConfig holds Kafka broker and topic settings.
type KafkaConfig struct {
	Brokers       []string `yaml:"brokers" toml:"brokers"`
	ReportTopic   string   `yaml:"reportTopic" toml:"report_topic"`
	ConsumerGroup string   `yaml:"consumerGroup" toml:"consumer_group"`
}

// RedisConfig holds Redis connection parameters and report retention.
type RedisConfig struct {
	Addr        string        `yaml:"addr" toml:"addr"`
	Password    string        `yaml:"password" toml:"password"`
	DB          int           `yaml:"db" toml:"db"`
	PoolSize    int           `yaml:"poolSize" toml:"pool_size"`
	KeyPrefix   string        `yaml:"keyPrefix" toml:"key_prefix"`
	ReportTTL   time.Duration `yaml:"reportTTL" toml:"report_ttl"`
	HistorySize int64         `yaml:"historySize" toml:"history_size"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled" toml:"enabled"`
	Port    int  `yaml:"port" toml:"port"`
}

// ServerConfig controls the HTTP search API started by `searchbench serve`.
type ServerConfig struct {
	Port           int           `yaml:"port" toml:"port"`
	ReadTimeout    time.Duration `yaml:"readTimeout" toml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"writeTimeout" toml:"write_timeout"`
	RequestTimeout time.Duration `yaml:"requestTimeout" toml:"request_timeout"`
	DefaultLimit   int           `yaml:"defaultLimit" toml:"default_limit"`
	MaxLimit       int           `yaml:"maxLimit" toml:"max_limit"`
}

// Load reads a YAML or TOML config file (if provided) and applies
// environment-variable overrides. Values missing from the file keep their
// defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		switch ext := strings.ToLower(filepath.Ext(path)); ext {
		case ".yaml", ".yml":
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config file %s: %w", path, err)
			}
		case ".toml":
			if err := toml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config file %s: %w", path, err)
			}
		default:
			return nil, fmt.Errorf("config file %s: unsupported extension %q", path, ext)
		}
	}
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns a Config populated with the engine's documented defaults.
func Default() *Config {
	return &Config{
		Engine: EngineConfig{
			CacheTTL:           5 * time.Minute,
			CacheMaxEntries:    100,
			MetricsCapacity:    100,
			SlowQueryThreshold: 100 * time.Millisecond,
		},
		Benchmark: BenchmarkConfig{
			DatasetSize:    10000,
			Seed:           42,
			WarmupQueries:  3,
			FuzzyThreshold: 0.7,
			MaxResults:     100,
		},
		Report: ReportConfig{
			Format:           "json",
			SinkTimeout:      10 * time.Second,
			RetryAttempts:    3,
			RetryDelay:       200 * time.Millisecond,
			BreakerThreshold: 3,
			BreakerReset:     30 * time.Second,
		},
		Postgres: PostgresConfig{
			Host:            "localhost",
			Port:            5432,
			Database:        "portfoliosearch",
			User:            "portfoliosearch",
			Password:        "localdev",
			SSLMode:         "disable",
			MaxOpenConns:    5,
			MaxIdleConns:    2,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Kafka: KafkaConfig{
			Brokers:       []string{"localhost:9092"},
			ReportTopic:   "benchmark-reports",
			ConsumerGroup: "searchbench-watch",
		},
		Redis: RedisConfig{
			Addr:        "localhost:6379",
			PoolSize:    4,
			KeyPrefix:   "bench",
			ReportTTL:   7 * 24 * time.Hour,
			HistorySize: 50,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9090,
		},
		Server: ServerConfig{
			Port:           8080,
			ReadTimeout:    5 * time.Second,
			WriteTimeout:   10 * time.Second,
			RequestTimeout: 5 * time.Second,
			DefaultLimit:   20,
			MaxLimit:       500,
		},
	}
}

// Validate rejects settings the engine cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Engine.CacheTTL <= 0 {
		errs = append(errs, errors.New("engine.cacheTTL must be positive"))
	}
	if c.Engine.CacheMaxEntries < 2 {
		errs = append(errs, errors.New("engine.cacheMaxEntries must be at least 2"))
	}
	if c.Engine.MetricsCapacity <= 0 {
		errs = append(errs, errors.New("engine.metricsCapacity must be positive"))
	}
	if c.Benchmark.DatasetSize <= 0 {
		errs = append(errs, errors.New("benchmark.datasetSize must be positive"))
	}
	if c.Benchmark.FuzzyThreshold < 0 || c.Benchmark.FuzzyThreshold > 1 {
		errs = append(errs, errors.New("benchmark.fuzzyThreshold must be within [0,1]"))
	}
	if c.Server.DefaultLimit <= 0 || c.Server.MaxLimit < c.Server.DefaultLimit {
		errs = append(errs, errors.New("server.defaultLimit must be positive and at most server.maxLimit"))
	}
	switch c.Report.Format {
	case "json", "yaml":
	default:
		errs = append(errs, fmt.Errorf("report.format %q must be json or yaml", c.Report.Format))
	}
	for _, sink := range c.Report.Sinks {
		switch sink {
		case "file", "redis", "kafka", "postgres":
		default:
			errs = append(errs, fmt.Errorf("report.sinks: unknown sink %q", sink))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// applyEnvOverrides reads PS_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PS_CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Engine.CacheTTL = d
		}
	}
	if v := os.Getenv("PS_CACHE_MAX_ENTRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Engine.CacheMaxEntries = n
		}
	}
	if v := os.Getenv("PS_BENCHMARK_DATASET_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Benchmark.DatasetSize = n
		}
	}
	if v := os.Getenv("PS_BENCHMARK_SEED"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Benchmark.Seed = n
		}
	}
	if v := os.Getenv("PS_REPORT_FORMAT"); v != "" {
		cfg.Report.Format = v
	}
	if v := os.Getenv("PS_REPORT_SINKS"); v != "" {
		cfg.Report.Sinks = strings.Split(v, ",")
	}
	if v := os.Getenv("PS_POSTGRES_HOST"); v != "" {
		cfg.Postgres.Host = v
	}
	if v := os.Getenv("PS_POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.Port = port
		}
	}
	if v := os.Getenv("PS_POSTGRES_PASSWORD"); v != "" {
		cfg.Postgres.Password = v
	}
	if v := os.Getenv("PS_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("PS_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("PS_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("PS_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("PS_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("PS_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("PS_METRICS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Metrics.Port = port
			cfg.Metrics.Enabled = true
		}
	}
}
