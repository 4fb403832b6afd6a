// Package config reads service settings from the environment. A .env file
// in the working directory is loaded first when present.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL string
	Port        string
	LogLevel    string

	DefaultTimezone  string
	FreeCacheTTL     time.Duration
	BusyCacheTTL     time.Duration
	BookingTxTimeout time.Duration
	MaxPanelSize     int
	AlignToHalfHour  bool

	JWTSecret    string
	StaticTokens []string
	CORSOrigins  []string

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
}

// Load reads .env (if any) and the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

func FromEnv() (*Config, error) {
	cfg := &Config{
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		Port:               getEnv("PORT", "8080"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		DefaultTimezone:    getEnv("DEFAULT_TIMEZONE", "UTC"),
		FreeCacheTTL:       getEnvDuration("FREE_CACHE_TTL", 5*time.Minute),
		BusyCacheTTL:       getEnvDuration("BUSY_CACHE_TTL", time.Minute),
		BookingTxTimeout:   getEnvDuration("BOOKING_TX_TIMEOUT", 10*time.Second),
		MaxPanelSize:       getEnvInt("MAX_PANEL_SIZE", 8),
		AlignToHalfHour:    getEnvBool("SLOT_ALIGN_HALF_HOUR", false),
		JWTSecret:          getEnv("JWT_HMAC_SECRET", ""),
		StaticTokens:       getEnvList("STATIC_TOKENS"),
		CORSOrigins:        getEnvList("CORS_ALLOWED_ORIGINS"),
		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURL:  getEnv("GOOGLE_REDIRECT_URL", ""),
	}

	if _, err := time.LoadLocation(cfg.DefaultTimezone); err != nil {
		return nil, fmt.Errorf("invalid DEFAULT_TIMEZONE %q: %w", cfg.DefaultTimezone, err)
	}
	if cfg.MaxPanelSize <= 0 {
		return nil, fmt.Errorf("MAX_PANEL_SIZE must be positive")
	}
	if cfg.JWTSecret == "" && len(cfg.StaticTokens) == 0 {
		return nil, fmt.Errorf("auth not configured: set JWT_HMAC_SECRET or STATIC_TOKENS")
	}
	return cfg, nil
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err == nil {
			return d
		}
	}
	return def
}

// getEnvList splits a comma separated value, dropping blanks.
func getEnvList(key string) []string {
	var out []string
	for _, s := range strings.Split(os.Getenv(key), ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
