package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"tourbook/currency"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":3000" || cfg.Storage.Driver != "redis" || cfg.JWT.TTL != 24*time.Hour {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
}

func TestLoadYAMLKeepsUnsetDefaults(t *testing.T) {
	path := writeFile(t, `
database:
  username: admin
  password: secret
  host: db
  port: "3307"
  database: tours
storage:
  driver: file
  dir: /var/lib/tourbook
jwt:
  ttl: 2h
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := cfg.Database.DSN(); !strings.HasPrefix(got, "admin:secret@tcp(db:3307)/tours?") {
		t.Fatalf("DSN = %q", got)
	}
	if cfg.Storage.Driver != "file" || cfg.Storage.Prefix != "tourbook:" {
		t.Fatalf("storage = %+v", cfg.Storage)
	}
	if cfg.JWT.TTL != 2*time.Hour || cfg.Server.LoginPath != "/login" {
		t.Fatalf("cfg = %+v", cfg)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeFile(t, "server:\n  addr: \":8080\"\n")
	t.Setenv("TOUR_SERVER_ADDR", ":9090")
	t.Setenv("TOUR_REDIS_DB", "3")
	t.Setenv("TOUR_SERVER_TRUSTED_PROXIES", "10.0.0.1,10.0.0.2")
	t.Setenv("TOUR_LOG_LEVEL", "debug")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":9090" || cfg.Redis.Database != 3 || cfg.Log.Level != "debug" {
		t.Fatalf("env not applied: %+v", cfg)
	}
	if len(cfg.Server.TrustedProxies) != 2 {
		t.Fatalf("proxies = %v", cfg.Server.TrustedProxies)
	}
}

func TestParseEnvErrorIsWrapped(t *testing.T) {
	t.Setenv("TOUR_REDIS_DB", "not-a-number")
	cfg := Default()
	err := ParseEnv(&cfg)
	if err == nil || !strings.HasPrefix(err.Error(), "parse env:") {
		t.Fatalf("got %v", err)
	}
}

func TestLoadRejectsBadYAML(t *testing.T) {
	if _, err := Load(writeFile(t, "server: [unclosed")); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestDisplayTableOverrides(t *testing.T) {
	path := writeFile(t, `
display:
  languages:
    de: {currency: EUR, locale: de-DE}
  fallback: {currency: USD, locale: en-US}
  rules:
    de:
      pattern: "{amount} {symbol}"
      decimal_separator: ","
      thousand_separator: "."
      symbols: {EUR: "€"}
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	table := cfg.Display.Table()
	if got := table.Resolve("de"); got != (currency.Display{Currency: "EUR", Locale: "de-DE"}) {
		t.Fatalf("de = %+v", got)
	}
	if got := table.Resolve("ja"); got.Currency != "JPY" {
		t.Fatalf("default entries lost: %+v", got)
	}
	if got := table.Resolve("ko"); got.Currency != "USD" {
		t.Fatalf("fallback override lost: %+v", got)
	}
	if got := cfg.Display.Formatter().Format(1500, "EUR", nil, "de-DE"); got != "1.500,00 €" {
		t.Fatalf("formatted = %q", got)
	}
}
