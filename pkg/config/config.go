// Package config loads and validates application configuration from YAML files
// with environment-variable overrides. It provides typed structs for every
// subsystem (Server, Dictionary, Search, Redis, Postgres, Kafka, etc.).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Dictionary sources.
const (
	SourceFile     = "file"
	SourcePostgres = "postgres"
)

// Config is the top-level application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Dictionary DictionaryConfig `yaml:"dictionary"`
	Search     SearchConfig     `yaml:"search"`
	Postgres   PostgresConfig   `yaml:"postgres"`
	Kafka      KafkaConfig      `yaml:"kafka"`
	Redis      RedisConfig      `yaml:"redis"`
	RateLimit  RateLimitConfig  `yaml:"rateLimit"`
	Analytics  AnalyticsConfig  `yaml:"analytics"`
	Logging    LoggingConfig    `yaml:"logging"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
	CORSOrigins     []string      `yaml:"corsOrigins"`
}

// DictionaryConfig selects where the word list comes from.
type DictionaryConfig struct {
	Source string `yaml:"source"`
	Path   string `yaml:"path"`
	Table  string `yaml:"table"`
}

// SearchConfig bounds anagram searches.
type SearchConfig struct {
	MaxDepth     int           `yaml:"maxDepth"`
	Memoize      bool          `yaml:"memoize"`
	Timeout      time.Duration `yaml:"timeout"`
	DefaultLimit int           `yaml:"defaultLimit"`
	MaxResults   int           `yaml:"maxResults"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	Enabled         bool          `yaml:"enabled"`
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Database        string        `yaml:"database"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"sslMode"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
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
	Enabled       bool          `yaml:"enabled"`
	Brokers       []string      `yaml:"brokers"`
	ConsumerGroup string        `yaml:"consumerGroup"`
	Topics        KafkaTopics   `yaml:"topics"`
	BatchSize     int           `yaml:"batchSize"`
	FlushInterval time.Duration `yaml:"flushInterval"`
}

// KafkaTopics maps logical topic names to their Kafka topic strings.
type KafkaTopics struct {
	AnalyticsEvents string `yaml:"analyticsEvents"`
}

// RedisConfig holds Redis connection and caching parameters.
type RedisConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	PoolSize int           `yaml:"poolSize"`
	CacheTTL time.Duration `yaml:"cacheTTL"`
}

// RateLimitConfig controls the per-client token bucket on the API.
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requestsPerSecond"`
	Burst             int     `yaml:"burst"`
	// TrustForwardedFor keys clients by X-Forwarded-For. Enable only behind
	// a proxy that overwrites the header.
	TrustForwardedFor bool    `yaml:"trustForwardedFor"`
}

// AnalyticsConfig controls how often aggregated query stats are written
// to Postgres when Postgres is enabled.
type AnalyticsConfig struct {
	SnapshotInterval time.Duration `yaml:"snapshotInterval"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads a YAML config file (if provided), applies environment-variable
// overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns a Config with defaults for local development.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Dictionary: DictionaryConfig{
			Source: SourceFile,
			Path:   "testdata/linuxwords.txt",
			Table:  "dictionary_words",
		},
		Search: SearchConfig{
			MaxDepth:     32,
			Memoize:      true,
			Timeout:      10 * time.Second,
			DefaultLimit: 100,
			MaxResults:   10000,
		},
		Postgres: PostgresConfig{
			Host:            "localhost",
			Port:            5432,
			Database:        "anagrams",
			User:            "anagrams",
			Password:        "localdev",
			SSLMode:         "disable",
			MaxOpenConns:    10,
			MaxIdleConns:    2,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Kafka: KafkaConfig{
			Brokers:       []string{"localhost:9092"},
			ConsumerGroup: "anagrams-analytics",
			Topics: KafkaTopics{
				AnalyticsEvents: "anagram-events",
			},
			BatchSize:     100,
			FlushInterval: 2 * time.Second,
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			PoolSize: 10,
			CacheTTL: 10 * time.Minute,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 20,
			Burst:             40,
		},
		Analytics: AnalyticsConfig{
			SnapshotInterval: time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
		},
	}
}

// Validate rejects configurations the services cannot start with.
func (c *Config) Validate() error {
	switch c.Dictionary.Source {
	case SourceFile:
		if c.Dictionary.Path == "" {
			return fmt.Errorf("dictionary.path is required for source %q", SourceFile)
		}
	case SourcePostgres:
		if c.Dictionary.Table == "" {
			return fmt.Errorf("dictionary.table is required for source %q", SourcePostgres)
		}
	default:
		return fmt.Errorf("unknown dictionary source %q", c.Dictionary.Source)
	}
	if c.Search.MaxDepth < 0 {
		return fmt.Errorf("search.maxDepth must not be negative, got %d", c.Search.MaxDepth)
	}
	if c.Search.DefaultLimit <= 0 || c.Search.MaxResults <= 0 {
		return fmt.Errorf("search limits must be positive (defaultLimit=%d, maxResults=%d)",
			c.Search.DefaultLimit, c.Search.MaxResults)
	}
	if c.Search.DefaultLimit > c.Search.MaxResults {
		return fmt.Errorf("search.defaultLimit %d exceeds search.maxResults %d",
			c.Search.DefaultLimit, c.Search.MaxResults)
	}
	return nil
}

// applyEnvOverrides reads SA_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SA_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("SA_SERVER_CORS_ORIGINS"); v != "" {
		cfg.Server.CORSOrigins = strings.Split(v, ",")
	}
	if v := os.Getenv("SA_DICTIONARY_SOURCE"); v != "" {
		cfg.Dictionary.Source = v
	}
	if v := os.Getenv("SA_DICTIONARY_PATH"); v != "" {
		cfg.Dictionary.Path = v
	}
	if v := os.Getenv("SA_DICTIONARY_TABLE"); v != "" {
		cfg.Dictionary.Table = v
	}
	if v := os.Getenv("SA_SEARCH_MAX_DEPTH"); v != "" {
		if depth, err := strconv.Atoi(v); err == nil {
			cfg.Search.MaxDepth = depth
		}
	}
	if v := os.Getenv("SA_SEARCH_MEMOIZE"); v != "" {
		if memo, err := strconv.ParseBool(v); err == nil {
			cfg.Search.Memoize = memo
		}
	}
	if v := os.Getenv("SA_SEARCH_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Search.Timeout = d
		}
	}
	if v := os.Getenv("SA_POSTGRES_ENABLED"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			cfg.Postgres.Enabled = enabled
		}
	}
	if v := os.Getenv("SA_POSTGRES_HOST"); v != "" {
		cfg.Postgres.Host = v
	}
	if v := os.Getenv("SA_POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.Port = port
		}
	}
	if v := os.Getenv("SA_POSTGRES_DATABASE"); v != "" {
		cfg.Postgres.Database = v
	}
	if v := os.Getenv("SA_POSTGRES_USER"); v != "" {
		cfg.Postgres.User = v
	}
	if v := os.Getenv("SA_POSTGRES_PASSWORD"); v != "" {
		cfg.Postgres.Password = v
	}
	if v := os.Getenv("SA_KAFKA_ENABLED"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			cfg.Kafka.Enabled = enabled
		}
	}
	if v := os.Getenv("SA_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("SA_REDIS_ENABLED"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			cfg.Redis.Enabled = enabled
		}
	}
	if v := os.Getenv("SA_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("SA_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("SA_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("SA_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}
