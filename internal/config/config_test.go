package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("SECRETS_KEY", "")
	t.Setenv("PRESIGN_KEY", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, "postgres", cfg.DB.Driver)
	assert.Len(t, cfg.SecretsKey(), 32)
	assert.NotEmpty(t, cfg.Storage.PresignKey)
	assert.Equal(t, []string{"https://*", "http://*"}, cfg.HTTP.AllowedOrigins)
}

func TestLoadRequiresKeysInProduction(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("SECRETS_KEY", "")
	t.Setenv("PRESIGN_KEY", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required in production")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			HTTP:    HTTPConfig{Port: 8080, RateLimitRPS: 1, RateLimitBurst: 1},
			DB:      DBConfig{Driver: "sqlite", MaxOpenConns: 10, MaxIdleConns: 5},
			Secrets: SecretsConfig{Key: strings.Repeat("ab", 32)},
			Storage: StorageConfig{PresignKey: strings.Repeat("k", 16)},
			Log:     LogConfig{Level: "info", Format: "json"},
		}
	}
	require.NoError(t, valid().Validate())

	tests := map[string]func(c *Config){
		"port":       func(c *Config) { c.HTTP.Port = 0 },
		"driver":     func(c *Config) { c.DB.Driver = "mysql" },
		"pool":       func(c *Config) { c.DB.MaxIdleConns = 50 },
		"log level":  func(c *Config) { c.Log.Level = "trace" },
		"log format": func(c *Config) { c.Log.Format = "xml" },
		"short key":  func(c *Config) { c.Secrets.Key = "abcd" },
		"presign":    func(c *Config) { c.Storage.PresignKey = "short" },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			c := valid()
			mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}
