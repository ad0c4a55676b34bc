// Package config loads service configuration from defaults, an optional YAML
// file and AGENDA_* environment variables, in that order of precedence.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/example/conference-agenda/internal/logging"
)

// Config is the complete service configuration.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Database   DatabaseConfig   `koanf:"database"`
	Auth       AuthConfig       `koanf:"auth"`
	Cache      CacheConfig      `koanf:"cache"`
	Redis      RedisConfig      `koanf:"redis"`
	Qdrant     QdrantConfig     `koanf:"qdrant"`
	Agenda     AgendaConfig     `koanf:"agenda"`
	Conference ConferenceConfig `koanf:"conference"`
	Logging    LoggingConfig    `koanf:"logging"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr            string        `koanf:"addr"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	CORSOrigins     []string      `koanf:"cors_origins"`
	// RateLimit is the number of requests per client and RateLimitWindow.
	// Zero disables rate limiting.
	RateLimit       int           `koanf:"rate_limit"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
}

// DatabaseConfig selects the SQL store.
type DatabaseConfig struct {
	// Driver is "sqlite" or "postgres".
	Driver      string `koanf:"driver"`
	DSN         string `koanf:"dsn"`
	AutoMigrate bool   `koanf:"auto_migrate"`
}

// AuthConfig verifies bearer session tokens.
type AuthConfig struct {
	JWTSecret string `koanf:"jwt_secret"`
	Issuer    string `koanf:"issuer"`
}

// CacheConfig selects the response cache.
type CacheConfig struct {
	// Backend is "memory", "redis" or "none".
	Backend string        `koanf:"backend"`
	Size    int           `koanf:"size"`
	TTL     time.Duration `koanf:"ttl"`
}

// RedisConfig is used when the cache backend is redis.
type RedisConfig struct {
	Addr      string `koanf:"addr"`
	Password  string `koanf:"password"`
	DB        int    `koanf:"db"`
	KeyPrefix string `koanf:"key_prefix"`
}

// QdrantConfig enables semantic relevance scores.
type QdrantConfig struct {
	Enabled           bool          `koanf:"enabled"`
	URL               string        `koanf:"url"`
	APIKey            string        `koanf:"api_key"`
	Collection        string        `koanf:"collection"`
	RequestsPerSecond float64       `koanf:"requests_per_second"`
	Burst             int           `koanf:"burst"`
	BreakerFailures   uint32        `koanf:"breaker_failures"`
	BreakerTimeout    time.Duration `koanf:"breaker_timeout"`
}

// AgendaConfig tunes ranking and packing.
type AgendaConfig struct {
	WeightSemantic     float64       `koanf:"weight_semantic"`
	WeightTagOverlap   float64       `koanf:"weight_tag_overlap"`
	WeightRoleAffinity float64       `koanf:"weight_role_affinity"`
	WeightNetworking   float64       `koanf:"weight_networking"`
	MaxPerDay          int           `koanf:"max_per_day"`
	MealStart          string        `koanf:"meal_start"`
	MealEnd            string        `koanf:"meal_end"`
	MinMealBreak       time.Duration `koanf:"min_meal_break"`
	TravelBuffer       time.Duration `koanf:"travel_buffer"`
	MinScore           float64       `koanf:"min_score"`
	IncludePast        bool          `koanf:"include_past"`
}

// ConferenceConfig describes the conference days. When StartDate is empty the
// days are derived from the catalog.
type ConferenceConfig struct {
	// StartDate is YYYY-MM-DD.
	StartDate string   `koanf:"start_date"`
	Days      int      `koanf:"days"`
	Opens     string   `koanf:"opens"`
	Closes    string   `koanf:"closes"`
	Timezone  string   `koanf:"timezone"`
	Weekdays  []string `koanf:"weekdays"`
}

// LoggingConfig configures the slog handler.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			CORSOrigins:     []string{"*"},
			RateLimit:       120,
			RateLimitWindow: time.Minute,
		},
		Database: DatabaseConfig{
			Driver:      "sqlite",
			DSN:         "agenda.db",
			AutoMigrate: true,
		},
		Cache: CacheConfig{
			Backend: "memory",
			Size:    1024,
			TTL:     5 * time.Minute,
		},
		Redis: RedisConfig{
			Addr:      "localhost:6379",
			KeyPrefix: "agenda-svc:",
		},
		Qdrant: QdrantConfig{
			URL:               "http://localhost:6334",
			Collection:        "sessions",
			RequestsPerSecond: 20,
			Burst:             5,
			BreakerFailures:   3,
			BreakerTimeout:    30 * time.Second,
		},
		Agenda: AgendaConfig{
			WeightSemantic:     0.5,
			WeightTagOverlap:   0.35,
			WeightRoleAffinity: 0.1,
			WeightNetworking:   0.05,
			MealStart:          "12:00",
			MealEnd:            "13:30",
			MinMealBreak:       30 * time.Minute,
		},
		Conference: ConferenceConfig{
			Days:     1,
			Opens:    "08:00",
			Closes:   "18:00",
			Timezone: "UTC",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Validate reports every missing or invalid value at once.
func (c *Config) Validate() error {
	var invalid []string

	if strings.TrimSpace(c.Server.Addr) == "" {
		invalid = append(invalid, "server.addr")
	}
	if c.Server.RateLimit < 0 || (c.Server.RateLimit > 0 && c.Server.RateLimitWindow <= 0) {
		invalid = append(invalid, "server.rate_limit")
	}

	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		invalid = append(invalid, "database.driver")
	}
	if strings.TrimSpace(c.Database.DSN) == "" {
		invalid = append(invalid, "database.dsn")
	}

	switch c.Cache.Backend {
	case "memory", "none":
	case "redis":
		if strings.TrimSpace(c.Redis.Addr) == "" {
			invalid = append(invalid, "redis.addr")
		}
	default:
		invalid = append(invalid, "cache.backend")
	}
	if c.Cache.Size < 0 {
		invalid = append(invalid, "cache.size")
	}
	if c.Cache.TTL < 0 {
		invalid = append(invalid, "cache.ttl")
	}

	if c.Qdrant.Enabled {
		if strings.TrimSpace(c.Qdrant.URL) == "" {
			invalid = append(invalid, "qdrant.url")
		}
		if strings.TrimSpace(c.Qdrant.Collection) == "" {
			invalid = append(invalid, "qdrant.collection")
		}
	}

	if _, err := c.Weights(); err != nil {
		invalid = append(invalid, "agenda.weights")
	}
	if c.Agenda.MaxPerDay < 0 {
		invalid = append(invalid, "agenda.max_per_day")
	}
	if _, err := c.mealWindow(); err != nil {
		invalid = append(invalid, "agenda.meal_start")
	}
	if c.Agenda.MinScore < 0 || c.Agenda.MinScore > 1 {
		invalid = append(invalid, "agenda.min_score")
	}

	if _, err := c.Location(); err != nil {
		invalid = append(invalid, "conference.timezone")
	}
	if c.Conference.StartDate != "" {
		if _, err := c.ConferenceDays(); err != nil {
			invalid = append(invalid, "conference.start_date")
		}
	}

	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		invalid = append(invalid, "logging.level")
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "text":
	default:
		invalid = append(invalid, "logging.format")
	}

	if len(invalid) > 0 {
		return fmt.Errorf("invalid configuration values: %s", strings.Join(invalid, ", "))
	}
	return nil
}

// ValidateServer checks the settings only the HTTP server needs.
func (c *Config) ValidateServer() error {
	var missing []string
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		missing = append(missing, "auth.jwt_secret")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	if len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("invalid configuration values: auth.jwt_secret must be at least 32 bytes")
	}
	return nil
}
