package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Storage   string          `mapstructure:"storage"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	AI        AIConfig        `mapstructure:"ai"`
	SMTP      SMTPConfig      `mapstructure:"smtp"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Cache     CacheConfig     `mapstructure:"cache"`
	CORS      CORSConfig      `mapstructure:"cors"`
	Security  SecurityConfig  `mapstructure:"security"`
	Audit     AuditConfig     `mapstructure:"audit"`
	Worker    WorkerConfig    `mapstructure:"worker"`
}

type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

type DatabaseConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	Name         string `mapstructure:"name"`
	SSLMode      string `mapstructure:"sslmode"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
}

type RedisConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	URL          string        `mapstructure:"url"`
	MaxRetries   int           `mapstructure:"max_retries"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
}

type AIConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"`
	BaseURL     string        `mapstructure:"base_url"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Temperature float64       `mapstructure:"temperature"`
	Language    string        `mapstructure:"language"`
	// Breaker settings for the AI backend.
	MaxFailures  int           `mapstructure:"max_failures"`
	BreakerReset time.Duration `mapstructure:"breaker_reset"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

type CacheConfig struct {
	DirectoryTTL     time.Duration `mapstructure:"directory_ttl"`
	DirectoryCleanup time.Duration `mapstructure:"directory_cleanup"`
}

type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

type SecurityConfig struct {
	BcryptCost int `mapstructure:"bcrypt_cost"`
	// EncryptionKey is a base64 AES key for prescription details. Empty disables encryption.
	EncryptionKey string `mapstructure:"encryption_key"`
}

type AuditConfig struct {
	// RetentionDays of zero keeps entries forever.
	RetentionDays   int           `mapstructure:"retention_days"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

type WorkerConfig struct {
	HealthPort int           `mapstructure:"health_port"`
	MaxRetries int           `mapstructure:"max_retries"`
	RetryDelay time.Duration `mapstructure:"retry_delay"`
}

// secrets are read from the environment after the config file, prefixed HEALTHTOWN_.
type secrets struct {
	GeminiAPIKey  string `envconfig:"GEMINI_API_KEY"`
	DBHost        string `envconfig:"DB_HOST"`
	DBPassword    string `envconfig:"DB_PASSWORD"`
	RedisURL      string `envconfig:"REDIS_URL"`
	SMTPPassword  string `envconfig:"SMTP_PASSWORD"`
	EncryptionKey string `envconfig:"ENCRYPTION_KEY"`
	Storage       string `envconfig:"STORAGE"`
	Port          int    `envconfig:"PORT"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)
	v.SetDefault("server.request_timeout", 45*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("storage", StorageMemory)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.name", "healthtown")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 5)

	v.SetDefault("redis.url", "redis://localhost:6379/0")
	v.SetDefault("redis.max_retries", 3)
	v.SetDefault("redis.retry_backoff", 100*time.Millisecond)
	v.SetDefault("redis.pool_size", 10)

	v.SetDefault("ai.model", "gemini-1.5-flash")
	v.SetDefault("ai.base_url", "https://generativelanguage.googleapis.com/v1beta")
	v.SetDefault("ai.timeout", 30*time.Second)
	v.SetDefault("ai.temperature", 0.4)
	v.SetDefault("ai.language", "en")
	v.SetDefault("ai.max_failures", 5)
	v.SetDefault("ai.breaker_reset", 30*time.Second)

	v.SetDefault("smtp.port", 587)
	v.SetDefault("smtp.from", "no-reply@healthtown.com")

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests_per_second", 20)
	v.SetDefault("rate_limit.burst", 40)

	v.SetDefault("cache.directory_ttl", 30*time.Second)
	v.SetDefault("cache.directory_cleanup", time.Minute)

	v.SetDefault("cors.allow_origins", []string{"*"})
	v.SetDefault("security.bcrypt_cost", 10)

	v.SetDefault("audit.retention_days", 0)
	v.SetDefault("audit.cleanup_interval", time.Hour)

	v.SetDefault("worker.health_port", 8081)
	v.SetDefault("worker.max_retries", 3)
	v.SetDefault("worker.retry_delay", time.Second)
}

// LoadConfig reads config.yaml (optional) then applies environment overrides.
func LoadConfig() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/app/config")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := applySecrets(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applySecrets(cfg *Config) error {
	var s secrets
	if err := envconfig.Process("healthtown", &s); err != nil {
		return fmt.Errorf("failed to read environment: %w", err)
	}

	if s.GeminiAPIKey != "" {
		cfg.AI.APIKey = s.GeminiAPIKey
	}
	if s.DBHost != "" {
		cfg.Database.Host = s.DBHost
	}
	if s.DBPassword != "" {
		cfg.Database.Password = s.DBPassword
	}
	if s.RedisURL != "" {
		cfg.Redis.URL = s.RedisURL
		cfg.Redis.Enabled = true
	}
	if s.SMTPPassword != "" {
		cfg.SMTP.Password = s.SMTPPassword
	}
	if s.EncryptionKey != "" {
		cfg.Security.EncryptionKey = s.EncryptionKey
	}
	if s.Storage != "" {
		cfg.Storage = s.Storage
	}
	if s.Port != 0 {
		cfg.Server.Port = s.Port
	}
	return nil
}

func (c *Config) Validate() error {
	switch c.Storage {
	case StorageMemory, StoragePostgres:
	default:
		return fmt.Errorf("unknown storage %q", c.Storage)
	}
	if c.Server.Port <= 0 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.AI.Timeout <= 0 {
		return fmt.Errorf("ai.timeout must be positive")
	}
	switch c.AI.Language {
	case "en", "id":
	default:
		return fmt.Errorf("unsupported ai.language %q", c.AI.Language)
	}
	return nil
}
