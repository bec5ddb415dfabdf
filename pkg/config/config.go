// Package config loads and validates application configuration from YAML files
// with environment-variable overrides. It provides typed structs for every
// subsystem (Server, Index, Postgres, Redis, Kafka, Auth, RateLimit, etc.).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Index     IndexConfig     `yaml:"index"`
	Postgres  PostgresConfig  `yaml:"postgres"`
	Redis     RedisConfig     `yaml:"redis"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Auth      AuthConfig      `yaml:"auth"`
	RateLimit RateLimitConfig `yaml:"rateLimit"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Answer    AnswerConfig    `yaml:"answer"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	RequestTimeout  time.Duration `yaml:"requestTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
	// CORSOrigins lists browser origins allowed to call the API. "*"
	// allows any origin; an empty list disables CORS headers.
	CORSOrigins []string `yaml:"corsOrigins"`
}

// IndexConfig selects where the snippet index is loaded from at startup.
// Source is "file" (JSON array of {doc_id, text}) or "postgres".
type IndexConfig struct {
	Source      string        `yaml:"source"`
	Path        string        `yaml:"path"`
	Table       string        `yaml:"table"`
	LoadTimeout time.Duration `yaml:"loadTimeout"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
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

// RedisConfig holds Redis connection and answer-cache parameters.
type RedisConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	PoolSize int           `yaml:"poolSize"`
	CacheTTL time.Duration `yaml:"cacheTTL"`
}

// KafkaConfig holds Kafka broker and topic settings for ask analytics.
type KafkaConfig struct {
	Enabled       bool        `yaml:"enabled"`
	Brokers       []string    `yaml:"brokers"`
	ConsumerGroup string      `yaml:"consumerGroup"`
	Topics        KafkaTopics `yaml:"topics"`
	BufferSize    int         `yaml:"bufferSize"`
}

// KafkaTopics maps logical topic names to their Kafka topic strings.
type KafkaTopics struct {
	AskEvents string `yaml:"askEvents"`
}

// AuthConfig holds the single shared API secret. An empty key disables auth.
type AuthConfig struct {
	APIKey string `yaml:"apiKey"`
}

// RateLimitConfig controls the per-key token buckets.
type RateLimitConfig struct {
	PerMinute int           `yaml:"perMinute"`
	MaxKeys   int           `yaml:"maxKeys"`
	IdleTTL   time.Duration `yaml:"idleTTL"`
}

// MetricsConfig controls the latency window and the Prometheus server.
type MetricsConfig struct {
	Enabled    bool `yaml:"enabled"`
	Port       int  `yaml:"port"`
	WindowSize int  `yaml:"windowSize"`
}

// CanonicalEntry maps a topic phrase to a fixed answer.
type CanonicalEntry struct {
	Topic  string `yaml:"topic"`
	Answer string `yaml:"answer"`
}

// AnswerConfig controls retrieval depth and canonical answers. A nil
// Canonical list keeps the built-in entries.
type AnswerConfig struct {
	DefaultK  int              `yaml:"defaultK"`
	MaxK      int              `yaml:"maxK"`
	Canonical []CanonicalEntry `yaml:"canonical"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads a .env file from the working directory (if any), then a YAML
// config file (if provided), and applies environment-variable overrides.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

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
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports configuration that cannot produce a working service.
func (c *Config) Validate() error {
	switch c.Index.Source {
	case "file", "dir":
		if c.Index.Path == "" {
			return fmt.Errorf("index.path is required when index.source is %s", c.Index.Source)
		}
	case "postgres":
		if c.Index.Table == "" {
			return fmt.Errorf("index.table is required when index.source is postgres")
		}
	default:
		return fmt.Errorf("unknown index.source %q", c.Index.Source)
	}
	if c.RateLimit.PerMinute <= 0 {
		return fmt.Errorf("rateLimit.perMinute must be positive, got %d", c.RateLimit.PerMinute)
	}
	if c.Metrics.WindowSize <= 0 {
		return fmt.Errorf("metrics.windowSize must be positive, got %d", c.Metrics.WindowSize)
	}
	if c.Answer.DefaultK <= 0 || c.Answer.MaxK < c.Answer.DefaultK {
		return fmt.Errorf("answer.defaultK must be in [1, maxK], got %d (maxK %d)", c.Answer.DefaultK, c.Answer.MaxK)
	}
	for i, e := range c.Answer.Canonical {
		if strings.TrimSpace(e.Topic) == "" || e.Answer == "" {
			return fmt.Errorf("answer.canonical[%d] needs both topic and answer", i)
		}
	}
	return nil
}

// defaultConfig returns a Config with defaults suitable for local development.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8000,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			RequestTimeout:  10 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			CORSOrigins:     []string{"*"},
		},
		Index: IndexConfig{
			Source:      "file",
			Path:        "data/index.json",
			Table:       "snippets",
			LoadTimeout: 30 * time.Second,
		},
		Postgres: PostgresConfig{
			Host:            "localhost",
			Port:            5432,
			Database:        "ragqa",
			User:            "ragqa",
			Password:        "localdev",
			SSLMode:         "disable",
			MaxOpenConns:    5,
			MaxIdleConns:    2,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Redis: RedisConfig{
			Enabled:  false,
			Addr:     "localhost:6379",
			PoolSize: 10,
			CacheTTL: 60 * time.Second,
		},
		Kafka: KafkaConfig{
			Enabled:       false,
			Brokers:       []string{"localhost:9092"},
			ConsumerGroup: "ragqa-group",
			Topics: KafkaTopics{
				AskEvents: "ask-events",
			},
			BufferSize: 10000,
		},
		RateLimit: RateLimitConfig{
			PerMinute: 60,
			MaxKeys:   10000,
			IdleTTL:   10 * time.Minute,
		},
		Metrics: MetricsConfig{
			Enabled:    false,
			Port:       9090,
			WindowSize: 5000,
		},
		Answer: AnswerConfig{
			DefaultK: 3,
			MaxK:     50,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// applyEnvOverrides reads RAG_* environment variables and overrides the
// corresponding config fields. API_KEY and RATE_LIMIT_PER_MIN are accepted
// as aliases for the auth key and the per-minute quota.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("RAG_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("RAG_CORS_ORIGINS"); v != "" {
		cfg.Server.CORSOrigins = strings.Split(v, ",")
	}
	if v := os.Getenv("RAG_INDEX_SOURCE"); v != "" {
		cfg.Index.Source = v
	}
	if v := os.Getenv("RAG_INDEX_PATH"); v != "" {
		cfg.Index.Path = v
	}
	if v := os.Getenv("RAG_INDEX_TABLE"); v != "" {
		cfg.Index.Table = v
	}
	if v := os.Getenv("RAG_POSTGRES_HOST"); v != "" {
		cfg.Postgres.Host = v
	}
	if v := os.Getenv("RAG_POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.Port = port
		}
	}
	if v := os.Getenv("RAG_POSTGRES_DATABASE"); v != "" {
		cfg.Postgres.Database = v
	}
	if v := os.Getenv("RAG_POSTGRES_USER"); v != "" {
		cfg.Postgres.User = v
	}
	if v := os.Getenv("RAG_POSTGRES_PASSWORD"); v != "" {
		cfg.Postgres.Password = v
	}
	if v := os.Getenv("RAG_REDIS_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Redis.Enabled = b
		}
	}
	if v := os.Getenv("RAG_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("RAG_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("RAG_KAFKA_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Kafka.Enabled = b
		}
	}
	if v := os.Getenv("RAG_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("API_KEY"); v != "" {
		cfg.Auth.APIKey = v
	}
	if v := os.Getenv("RAG_AUTH_API_KEY"); v != "" {
		cfg.Auth.APIKey = v
	}
	if v := os.Getenv("RATE_LIMIT_PER_MIN"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RateLimit.PerMinute = n
		}
	}
	if v := os.Getenv("RAG_RATELIMIT_PER_MINUTE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RateLimit.PerMinute = n
		}
	}
	if v := os.Getenv("RAG_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("RAG_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}
