package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Backend  ServerConfig
	OTLP     OTLPConfig
	API      APIConfig
	Database DatabaseConfig
	Session  SessionConfig
}

type ServerConfig struct {
	Port string
	Host string
}

// Addr returns host:port.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

type OTLPConfig struct {
	Enabled     bool
	Endpoint    string
	ServiceName string
	Environment string
}

// APIConfig points the admin UI at the catalog API.
type APIConfig struct {
	BaseURL string
	Timeout time.Duration
}

// DatabaseConfig is used by the reference API only. An empty URL selects
// the in-memory store.
type DatabaseConfig struct {
	URL      string
	SeedFile string
}

type SessionConfig struct {
	TTL time.Duration
}

// env maps config keys to the environment variables that override them.
var env = map[string]string{
	"server.host":        "SERVER_HOST",
	"server.port":        "SERVER_PORT",
	"backend.host":       "BACKEND_HOST",
	"backend.port":       "BACKEND_PORT",
	"otlp.enabled":       "OTEL_ENABLED",
	"otlp.endpoint":      "OTEL_EXPORTER_OTLP_ENDPOINT",
	"otlp.service_name":  "OTEL_SERVICE_NAME",
	"otlp.environment":   "OTEL_ENVIRONMENT",
	"api.base_url":       "CATALOG_API_URL",
	"api.timeout":        "CATALOG_API_TIMEOUT",
	"database.url":       "DATABASE_URL",
	"database.seed_file": "SEED_FILE",
	"session.ttl":        "SESSION_TTL",
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8080")
	v.SetDefault("backend.host", "0.0.0.0")
	v.SetDefault("backend.port", "8000")
	v.SetDefault("otlp.enabled", false)
	v.SetDefault("otlp.endpoint", "localhost:4317")
	v.SetDefault("otlp.service_name", "catalog-admin")
	v.SetDefault("otlp.environment", "development")
	v.SetDefault("api.base_url", "http://localhost:8000")
	v.SetDefault("api.timeout", 10*time.Second)
	v.SetDefault("database.url", "")
	v.SetDefault("database.seed_file", "")
	v.SetDefault("session.ttl", 30*time.Minute)
}

// LoadConfig loads configuration from defaults, an optional YAML file and
// environment variables, in increasing order of precedence.
func LoadConfig(v *viper.Viper, file string) (*Config, error) {
	SetDefaults(v)

	for key, name := range env {
		if err := v.BindEnv(key, name); err != nil {
			return nil, fmt.Errorf("binding %s: %w", name, err)
		}
	}

	if file != "" {
		v.SetConfigFile(file)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", file, err)
		}
	}

	return &Config{
		Server: ServerConfig{
			Host: v.GetString("server.host"),
			Port: v.GetString("server.port"),
		},
		Backend: ServerConfig{
			Host: v.GetString("backend.host"),
			Port: v.GetString("backend.port"),
		},
		OTLP: OTLPConfig{
			Enabled:     v.GetBool("otlp.enabled"),
			Endpoint:    v.GetString("otlp.endpoint"),
			ServiceName: v.GetString("otlp.service_name"),
			Environment: v.GetString("otlp.environment"),
		},
		API: APIConfig{
			BaseURL: v.GetString("api.base_url"),
			Timeout: v.GetDuration("api.timeout"),
		},
		Database: DatabaseConfig{
			URL:      v.GetString("database.url"),
			SeedFile: v.GetString("database.seed_file"),
		},
		Session: SessionConfig{
			TTL: v.GetDuration("session.ttl"),
		},
	}, nil
}
