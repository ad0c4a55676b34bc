package config

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadFile(t *testing.T) {
	t.Run("applies defaults without a file", func(t *testing.T) {
		cfg, err := LoadFile("")
		if err != nil {
			t.Fatalf("LoadFile returned error: %v", err)
		}
		if cfg.Server.Addr != ":8080" {
			t.Fatalf("expected default addr, got %q", cfg.Server.Addr)
		}
		if cfg.Database.Driver != "sqlite" || cfg.Cache.Backend != "memory" {
			t.Fatalf("unexpected defaults %+v %+v", cfg.Database, cfg.Cache)
		}
		if cfg.Cache.TTL != 5*time.Minute {
			t.Fatalf("expected default TTL, got %v", cfg.Cache.TTL)
		}
	})

	t.Run("file overrides defaults", func(t *testing.T) {
		path := writeConfig(t, `
server:
  addr: ":9090"
  cors_origins: ["https://agenda.example.com"]
agenda:
  max_per_day: 4
  travel_buffer: 10m
conference:
  start_date: "2025-06-10"
  days: 3
  timezone: "America/Sao_Paulo"
`)
		cfg, err := LoadFile(path)
		if err != nil {
			t.Fatalf("LoadFile returned error: %v", err)
		}
		if cfg.Server.Addr != ":9090" || len(cfg.Server.CORSOrigins) != 1 {
			t.Fatalf("unexpected server config %+v", cfg.Server)
		}
		if cfg.Agenda.MaxPerDay != 4 || cfg.Agenda.TravelBuffer != 10*time.Minute {
			t.Fatalf("unexpected agenda config %+v", cfg.Agenda)
		}
		days, err := cfg.ConferenceDays()
		if err != nil {
			t.Fatalf("conference days: %v", err)
		}
		if len(days) != 3 {
			t.Fatalf("expected 3 days, got %d", len(days))
		}
	})

	t.Run("environment overrides file", func(t *testing.T) {
		path := writeConfig(t, "cache:\n  backend: memory\n")
		t.Setenv("AGENDA_CACHE__BACKEND", "redis")
		t.Setenv("AGENDA_REDIS__ADDR", "cache:6379")
		t.Setenv("AGENDA_AGENDA__WEIGHT_SEMANTIC", "0.7")
		t.Setenv("AGENDA_SERVER__CORS_ORIGINS", "https://a.example,https://b.example")

		cfg, err := LoadFile(path)
		if err != nil {
			t.Fatalf("LoadFile returned error: %v", err)
		}
		if cfg.Cache.Backend != "redis" || cfg.Redis.Addr != "cache:6379" {
			t.Fatalf("env overrides not applied: %+v %+v", cfg.Cache, cfg.Redis)
		}
		if cfg.Agenda.WeightSemantic != 0.7 {
			t.Fatalf("expected semantic weight 0.7, got %v", cfg.Agenda.WeightSemantic)
		}
		if len(cfg.Server.CORSOrigins) != 2 {
			t.Fatalf("expected two origins, got %v", cfg.Server.CORSOrigins)
		}
	})

	t.Run("reports every invalid value", func(t *testing.T) {
		t.Setenv("AGENDA_DATABASE__DRIVER", "oracle")
		t.Setenv("AGENDA_CACHE__BACKEND", "memcached")
		t.Setenv("AGENDA_LOGGING__LEVEL", "loud")

		_, err := LoadFile("")
		if err == nil {
			t.Fatalf("expected validation error")
		}
		for _, key := range []string{"database.driver", "cache.backend", "logging.level"} {
			if !strings.Contains(err.Error(), key) {
				t.Fatalf("expected %s in %q", key, err.Error())
			}
		}
	})
}

func TestLoadUsesConfigPathVariable(t *testing.T) {
	path := writeConfig(t, "logging:\n  format: text\n")
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Logging.Format != "text" {
		t.Fatalf("expected text format, got %q", cfg.Logging.Format)
	}

	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for a missing explicit config file")
	}
}

func TestValidateServer(t *testing.T) {
	cfg := defaultConfig()
	if err := cfg.ValidateServer(); err == nil || !strings.Contains(err.Error(), "auth.jwt_secret") {
		t.Fatalf("expected missing secret error, got %v", err)
	}
	cfg.Auth.JWTSecret = "short"
	if err := cfg.ValidateServer(); err == nil {
		t.Fatalf("expected short secret to be rejected")
	}
	cfg.Auth.JWTSecret = strings.Repeat("k", 32)
	if err := cfg.ValidateServer(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestApplicationAgenda(t *testing.T) {
	cfg := defaultConfig()
	cfg.Agenda.MaxPerDay = 5
	cfg.Conference.Timezone = "Europe/Lisbon"

	agenda, err := cfg.ApplicationAgenda()
	if err != nil {
		t.Fatalf("ApplicationAgenda: %v", err)
	}
	if agenda.Pack.MaxPerDay != 5 {
		t.Fatalf("expected max per day 5, got %d", agenda.Pack.MaxPerDay)
	}
	if agenda.Pack.MealWindow.Start != 12*time.Hour || agenda.Pack.MealWindow.End != 13*time.Hour+30*time.Minute {
		t.Fatalf("unexpected meal window %+v", agenda.Pack.MealWindow)
	}
	if agenda.Location.String() != "Europe/Lisbon" {
		t.Fatalf("unexpected location %v", agenda.Location)
	}
	if agenda.Days != nil {
		t.Fatalf("expected catalog-derived days without a start date, got %v", agenda.Days)
	}

	cfg.Agenda.WeightSemantic = -1
	if _, err := cfg.ApplicationAgenda(); err == nil {
		t.Fatalf("expected negative weight to be rejected")
	}
	cfg.Agenda.WeightSemantic = math.Inf(1)
	if _, err := cfg.ApplicationAgenda(); err == nil {
		t.Fatalf("expected infinite weight to be rejected")
	}
}

func TestEnvKey(t *testing.T) {
	tests := map[string]string{
		"AGENDA_SERVER__ADDR":             "server.addr",
		"AGENDA_AGENDA__MAX_PER_DAY":      "agenda.max_per_day",
		"AGENDA_QDRANT__BREAKER_FAILURES": "qdrant.breaker_failures",
	}
	for in, want := range tests {
		if got := envKey(in); got != want {
			t.Fatalf("envKey(%q) = %q, want %q", in, got, want)
		}
	}
}
