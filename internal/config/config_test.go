package config

import (
	"testing"
	"time"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("JWT_HMAC_SECRET", "s3cret")
	t.Setenv("PORT", "")
	t.Setenv("FREE_CACHE_TTL", "")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.Port != "8080" || cfg.FreeCacheTTL != 5*time.Minute || cfg.BusyCacheTTL != time.Minute ||
		cfg.BookingTxTimeout != 10*time.Second || cfg.MaxPanelSize != 8 || cfg.DefaultTimezone != "UTC" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("STATIC_TOKENS", "a, b,,c")
	t.Setenv("JWT_HMAC_SECRET", "")
	t.Setenv("FREE_CACHE_TTL", "30s")
	t.Setenv("MAX_PANEL_SIZE", "4")
	t.Setenv("DEFAULT_TIMEZONE", "Europe/Berlin")
	t.Setenv("SLOT_ALIGN_HALF_HOUR", "true")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if len(cfg.StaticTokens) != 3 || cfg.StaticTokens[1] != "b" {
		t.Fatalf("unexpected tokens %v", cfg.StaticTokens)
	}
	if cfg.FreeCacheTTL != 30*time.Second || cfg.MaxPanelSize != 4 || !cfg.AlignToHalfHour {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestFromEnvRequiresAuth(t *testing.T) {
	t.Setenv("JWT_HMAC_SECRET", "")
	t.Setenv("STATIC_TOKENS", "")
	if _, err := FromEnv(); err == nil {
		t.Fatalf("expected error without auth settings")
	}
}

func TestFromEnvRejectsBadTimezone(t *testing.T) {
	t.Setenv("JWT_HMAC_SECRET", "x")
	t.Setenv("DEFAULT_TIMEZONE", "Mars/Olympus")
	if _, err := FromEnv(); err == nil {
		t.Fatalf("expected timezone error")
	}
}
