package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	App     AppConfig
	HTTP    HTTPConfig
	DB      DBConfig
	Redis   RedisConfig
	NATS    NATSConfig
	Secrets SecretsConfig
	Storage StorageConfig
	Tracing TracingConfig
	Log     LogConfig
}

type AppConfig struct {
	Env     string `env:"APP_ENV" env-default:"development"`
	Version string `env:"APP_VERSION" env-default:"dev"`
}

type HTTPConfig struct {
	Port           int           `env:"PORT" env-default:"8080"`
	ReadTimeout    time.Duration `env:"HTTP_READ_TIMEOUT" env-default:"10s"`
	WriteTimeout   time.Duration `env:"HTTP_WRITE_TIMEOUT" env-default:"30s"`
	IdleTimeout    time.Duration `env:"HTTP_IDLE_TIMEOUT" env-default:"1m"`
	AllowedOrigins []string      `env:"HTTP_ALLOWED_ORIGINS" env-default:"https://*,http://*" env-separator:","`
	RateLimitRPS   float64       `env:"RATE_LIMIT_RPS" env-default:"50"`
	RateLimitBurst int           `env:"RATE_LIMIT_BURST" env-default:"100"`
	MaxUploadBytes int64         `env:"MAX_UPLOAD_BYTES" env-default:"10485760"`
}

type DBConfig struct {
	Driver          string        `env:"DB_DRIVER" env-default:"postgres"`
	Host            string        `env:"DB_HOST" env-default:"localhost"`
	Port            int           `env:"DB_PORT" env-default:"5432"`
	User            string        `env:"DB_USERNAME" env-default:"postgres"`
	Password        string        `env:"DB_PASSWORD" env-default:""`
	Name            string        `env:"DB_DATABASE" env-default:"todos"`
	SSLMode         string        `env:"DB_SSLMODE" env-default:"disable"`
	SQLitePath      string        `env:"DB_SQLITE_PATH" env-default:"todos.db"`
	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" env-default:"100"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" env-default:"10"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" env-default:"1h"`
	AutoMigrate     bool          `env:"DB_AUTO_MIGRATE" env-default:"true"`
	LogSQL          bool          `env:"DB_LOG_SQL" env-default:"false"`
}

// DSN returns the key/value connection string understood by pgx.
func (c DBConfig) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s",
		c.Host, c.User, c.Password, c.Name, c.Port, c.SSLMode)
}

type RedisConfig struct {
	// Addr is "host:port". Empty disables the list cache.
	Addr     string        `env:"REDIS_ADDR" env-default:""`
	Password string        `env:"REDIS_PASSWORD" env-default:""`
	DB       int           `env:"REDIS_DB" env-default:"0"`
	TTL      time.Duration `env:"REDIS_LIST_TTL" env-default:"1m"`
}

type NATSConfig struct {
	// URL empty disables file storage and notifications.
	URL    string `env:"NATS_URL" env-default:""`
	Bucket string `env:"NATS_OBJECT_BUCKET" env-default:"files"`
}

type SecretsConfig struct {
	// Key is the hex encoded 32-byte key used to seal secret values.
	Key string `env:"SECRETS_KEY" env-default:""`
}

type StorageConfig struct {
	PresignKey string        `env:"PRESIGN_KEY" env-default:""`
	PresignTTL time.Duration `env:"PRESIGN_TTL" env-default:"15m"`
	BaseURL    string        `env:"PUBLIC_BASE_URL" env-default:"http://localhost:8080"`
}

type TracingConfig struct {
	Enabled  bool   `env:"TRACING_ENABLED" env-default:"false"`
	Endpoint string `env:"OTLP_ENDPOINT" env-default:"localhost:4317"`
}

type LogConfig struct {
	Level  string `env:"LOG_LEVEL" env-default:"info"`
	Format string `env:"LOG_FORMAT" env-default:"json"`
}

// Load reads .env (when present) and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}

	if err := cfg.fillDevelopmentKeys(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.HTTP.Port < 1 || c.HTTP.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.HTTP.Port)
	}
	if c.DB.Driver != "postgres" && c.DB.Driver != "sqlite" {
		return fmt.Errorf("invalid DB_DRIVER: %s (valid: postgres, sqlite)", c.DB.Driver)
	}
	if c.DB.MaxOpenConns < c.DB.MaxIdleConns {
		return fmt.Errorf("max_open_conns (%d) must be >= max_idle_conns (%d)",
			c.DB.MaxOpenConns, c.DB.MaxIdleConns)
	}
	if c.HTTP.RateLimitRPS <= 0 || c.HTTP.RateLimitBurst <= 0 {
		return fmt.Errorf("rate limit rps and burst must be positive")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Log.Level] {
		return fmt.Errorf("invalid log level: %s (valid: debug, info, warn, error)", c.Log.Level)
	}
	if c.Log.Format != "json" && c.Log.Format != "console" {
		return fmt.Errorf("invalid log format: %s (valid: json, console)", c.Log.Format)
	}

	key, err := hex.DecodeString(c.Secrets.Key)
	if err != nil || len(key) != 32 {
		return fmt.Errorf("SECRETS_KEY must be 64 hex characters")
	}
	if len(c.Storage.PresignKey) < 16 {
		return fmt.Errorf("PRESIGN_KEY must be at least 16 characters")
	}
	return nil
}

// SecretsKey returns the decoded sealing key. Validate guarantees it decodes.
func (c *Config) SecretsKey() []byte {
	key, _ := hex.DecodeString(c.Secrets.Key)
	return key
}

func (c *Config) IsProduction() bool {
	return c.App.Env == "production" || c.App.Env == "prod"
}

// fillDevelopmentKeys generates throwaway keys outside production so a bare
// checkout starts. Sealed secrets and presigned links do not survive restarts.
func (c *Config) fillDevelopmentKeys() error {
	if c.IsProduction() {
		if c.Secrets.Key == "" || c.Storage.PresignKey == "" {
			return fmt.Errorf("SECRETS_KEY and PRESIGN_KEY are required in production")
		}
		return nil
	}
	if c.Secrets.Key == "" {
		k, err := randomHex(32)
		if err != nil {
			return err
		}
		c.Secrets.Key = k
	}
	if c.Storage.PresignKey == "" {
		k, err := randomHex(32)
		if err != nil {
			return err
		}
		c.Storage.PresignKey = k
	}
	return nil
}

func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate key: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
