// Package config loads and validates application configuration from YAML files
// with environment-variable overrides. It provides typed structs for every
// subsystem (Server, Redis, Kafka, Alignment, PathFinding, etc.).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Redis       RedisConfig       `yaml:"redis"`
	Kafka       KafkaConfig       `yaml:"kafka"`
	Graph       GraphConfig       `yaml:"graph"`
	Alignment   AlignmentConfig   `yaml:"alignment"`
	PathFinding PathFindingConfig `yaml:"pathFinding"`
	Logging     LoggingConfig     `yaml:"logging"`
	Metrics     MetricsConfig     `yaml:"metrics"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`

	// RateLimitPerMinute caps requests per client; 0 disables limiting.
	RateLimitPerMinute int `yaml:"rateLimitPerMinute"`
}

// RedisConfig holds Redis connection and alignment-cache parameters.
type RedisConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	PoolSize int           `yaml:"poolSize"`
	CacheTTL time.Duration `yaml:"cacheTTL"`
}

// KafkaConfig holds Kafka broker and topic settings.
type KafkaConfig struct {
	Brokers       []string      `yaml:"brokers"`
	ConsumerGroup string        `yaml:"consumerGroup"`
	Topics        KafkaTopics   `yaml:"topics"`
	JobTimeout    time.Duration `yaml:"jobTimeout"`
}

// KafkaTopics maps logical topic names to their Kafka topic strings.
type KafkaTopics struct {
	ResolveRequests string `yaml:"resolveRequests"`
	ResolveResults  string `yaml:"resolveResults"`
}

// GraphConfig points at the assembly graph served by the resolver.
type GraphConfig struct {
	Path string `yaml:"path"`
}

// AlignmentConfig holds the scoring scheme handed to the alignment oracle,
// written as "match,mismatch,gapOpen,gapExtend", and the scaled score a
// correct path is expected to reach when a request does not say.
type AlignmentConfig struct {
	ScoringScheme       string  `yaml:"scoringScheme"`
	ExpectedScaledScore float64 `yaml:"expectedScaledScore"`
}

// PathFindingConfig holds every tunable of the path search. It is built once
// and passed by pointer; nothing in the search mutates it.
type PathFindingConfig struct {
	// Length window as fractions of the target length.
	MinRelativeLength float64 `yaml:"minRelativeLength"`
	MaxRelativeLength float64 `yaml:"maxRelativeLength"`

	ExhaustiveMaxWorkingPaths int `yaml:"exhaustiveMaxWorkingPaths"`
	ExhaustiveMaxFinalPaths   int `yaml:"exhaustiveMaxFinalPaths"`

	ProgressiveMaxWorkingPaths int     `yaml:"progressiveMaxWorkingPaths"`
	ProgressiveScoreFraction   float64 `yaml:"progressiveScoreFraction"`

	// CullAbortFraction of the expected scaled score below which a cull
	// gives up on every path.
	CullAbortFraction float64 `yaml:"cullAbortFraction"`
	CullCommonTrim    int     `yaml:"cullCommonTrim"`
	CullBandWidth     int     `yaml:"cullBandWidth"`

	RankBandWidth  int     `yaml:"rankBandWidth"`
	RetainFraction float64 `yaml:"retainFraction"`

	Workers int `yaml:"workers"`
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

// Load reads a YAML config file (if provided) and applies environment-variable
// overrides. It returns a Config populated with sensible defaults for any
// missing values.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()
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
	if err := cfg.PathFinding.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// Default returns the built-in configuration without reading any file or
// environment variable.
func Default() *Config {
	return defaultConfig()
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:               8080,
			ReadTimeout:        30 * time.Second,
			WriteTimeout:       120 * time.Second,
			ShutdownTimeout:    15 * time.Second,
			RateLimitPerMinute: 120,
		},
		Redis: RedisConfig{
			Enabled:  false,
			Addr:     "localhost:6379",
			Password: "",
			DB:       0,
			PoolSize: 10,
			CacheTTL: 10 * time.Minute,
		},
		Kafka: KafkaConfig{
			Brokers:       []string{"localhost:9092"},
			ConsumerGroup: "repeat-resolver-group",
			Topics: KafkaTopics{
				ResolveRequests: "resolve-requests",
				ResolveResults:  "resolve-results",
			},
			JobTimeout: 5 * time.Minute,
		},
		Alignment: AlignmentConfig{
			ScoringScheme:       "3,-6,-5,-2",
			ExpectedScaledScore: 85,
		},
		PathFinding: DefaultPathFinding(),
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

// DefaultPathFinding returns the search tunables used when nothing else is
// configured.
func DefaultPathFinding() PathFindingConfig {
	return PathFindingConfig{
		MinRelativeLength:          0.8,
		MaxRelativeLength:          1.3,
		ExhaustiveMaxWorkingPaths:  10000,
		ExhaustiveMaxFinalPaths:    100,
		ProgressiveMaxWorkingPaths: 1000,
		ProgressiveScoreFraction:   0.99,
		CullAbortFraction:          0.9,
		CullCommonTrim:             100,
		CullBandWidth:              500,
		RankBandWidth:              1000,
		RetainFraction:             0.95,
		Workers:                    4,
	}
}

// Validate reports the first inconsistent tunable.
func (p PathFindingConfig) Validate() error {
	switch {
	case p.MinRelativeLength <= 0 || p.MaxRelativeLength <= 0:
		return fmt.Errorf("relative lengths must be positive (min=%v, max=%v)", p.MinRelativeLength, p.MaxRelativeLength)
	case p.MinRelativeLength >= p.MaxRelativeLength:
		return fmt.Errorf("minRelativeLength %v must be below maxRelativeLength %v", p.MinRelativeLength, p.MaxRelativeLength)
	case p.ExhaustiveMaxWorkingPaths <= 0 || p.ExhaustiveMaxFinalPaths <= 0:
		return fmt.Errorf("exhaustive ceilings must be positive")
	case p.ProgressiveMaxWorkingPaths < 2:
		return fmt.Errorf("progressiveMaxWorkingPaths must be at least 2, got %d", p.ProgressiveMaxWorkingPaths)
	case !isFraction(p.ProgressiveScoreFraction):
		return fmt.Errorf("progressiveScoreFraction %v outside (0,1]", p.ProgressiveScoreFraction)
	case !isFraction(p.CullAbortFraction):
		return fmt.Errorf("cullAbortFraction %v outside (0,1]", p.CullAbortFraction)
	case !isFraction(p.RetainFraction):
		return fmt.Errorf("retainFraction %v outside (0,1]", p.RetainFraction)
	case p.CullCommonTrim < 0 || p.CullBandWidth <= 0 || p.RankBandWidth <= 0:
		return fmt.Errorf("band widths must be positive and cullCommonTrim non-negative")
	case p.Workers <= 0:
		return fmt.Errorf("workers must be positive, got %d", p.Workers)
	}
	return nil
}

func isFraction(v float64) bool {
	return v > 0 && v <= 1
}

// applyEnvOverrides reads RR_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("RR_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("RR_RATE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.RateLimitPerMinute = n
		}
	}
	if v := os.Getenv("RR_REDIS_ENABLED"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			cfg.Redis.Enabled = enabled
		}
	}
	if v := os.Getenv("RR_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("RR_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("RR_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("RR_GRAPH_PATH"); v != "" {
		cfg.Graph.Path = v
	}
	if v := os.Getenv("RR_SCORING_SCHEME"); v != "" {
		cfg.Alignment.ScoringScheme = v
	}
	if v := os.Getenv("RR_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.PathFinding.Workers = n
		}
	}
	if v := os.Getenv("RR_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("RR_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("RR_METRICS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Metrics.Port = port
		}
	}
}
