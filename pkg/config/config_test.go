package config

import (
	"testing"
	"time"
)

func TestEnsureDSNFromLegacyParts(t *testing.T) {
	t.Parallel()

	cfg := DBConfig{
		LegacyHost:    "localhost",
		LegacyPort:    5432,
		LegacyUser:    "mart",
		LegacyName:    "multimart",
		LegacySSLMode: "disable",
	}
	if err := cfg.ensureDSN(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "postgres://mart@localhost:5432/multimart?sslmode=disable"
	if cfg.DSN != want {
		t.Fatalf("dsn mismatch:\n got %s\nwant %s", cfg.DSN, want)
	}
}

func TestEnsureDSNMissingParts(t *testing.T) {
	t.Parallel()

	cfg := DBConfig{LegacyHost: "localhost"}
	if err := cfg.ensureDSN(); err == nil {
		t.Fatal("expected error when user/name missing")
	}
}

func TestEnsureDSNKeepsExplicitDSN(t *testing.T) {
	t.Parallel()

	cfg := DBConfig{DSN: "postgres://x"}
	if err := cfg.ensureDSN(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DSN != "postgres://x" {
		t.Fatalf("dsn overwritten: %s", cfg.DSN)
	}
}

func TestAppEnvHelpers(t *testing.T) {
	t.Parallel()

	if !(AppConfig{Env: "DEV"}).IsDev() {
		t.Fatal("expected case-insensitive dev check")
	}
	if (AppConfig{Env: "dev"}).IsProd() {
		t.Fatal("dev must not be prod")
	}
}

func TestCartConfigDefaultsParse(t *testing.T) {
	t.Parallel()

	// The defaults mirror the client behavior: tens of milliseconds for the
	// save debounce, three seconds for the notification banner.
	cart := CartConfig{SaveDebounce: 50 * time.Millisecond, NotificationTTL: 3 * time.Second}
	if cart.SaveDebounce >= cart.NotificationTTL {
		t.Fatal("debounce window should be far shorter than notification ttl")
	}
}
