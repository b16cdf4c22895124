package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	ListenAddr string
	RedisURL   string

	// DatabaseURL is optional; without it attempt history is not recorded.
	DatabaseURL string

	CookieHashKey  []byte
	CookieBlockKey []byte

	// Portal access.
	PortalBaseURL string
	PortalSession string // session cookie value captured from a logged-in browser

	TickSpec      string // cron spec for the periodic check
	GuardInterval time.Duration
}

func FromEnv() (Config, error) {
	cfg := Config{
		ListenAddr:    envDefault("LISTEN_ADDR", ":8080"),
		RedisURL:      envDefault("REDIS_URL", "redis://localhost:6379/0"),
		DatabaseURL:   strings.TrimSpace(os.Getenv("DATABASE_URL")),
		PortalBaseURL: strings.TrimSpace(os.Getenv("PORTAL_BASE_URL")),
		PortalSession: strings.TrimSpace(os.Getenv("PORTAL_SESSION")),
		TickSpec:      envDefault("TICK_SPEC", "@every 30s"),
	}
	if cfg.PortalBaseURL == "" {
		return Config{}, fmt.Errorf("PORTAL_BASE_URL is required")
	}

	guardSec, err := strconv.Atoi(envDefault("GUARD_INTERVAL_SECONDS", "5"))
	if err != nil || guardSec < 1 {
		return Config{}, fmt.Errorf("invalid GUARD_INTERVAL_SECONDS")
	}
	cfg.GuardInterval = time.Duration(guardSec) * time.Second

	cfg.CookieHashKey, err = mustB64("COOKIE_HASH_KEY")
	if err != nil {
		return Config{}, err
	}
	cfg.CookieBlockKey, err = mustB64("COOKIE_BLOCK_KEY")
	if err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func envDefault(k, d string) string {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return d
	}
	return v
}

func mustB64(k string) ([]byte, error) {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return nil, fmt.Errorf("%s is required (base64)", k)
	}
	if b, err := base64.StdEncoding.DecodeString(v); err == nil {
		return b, nil
	}
	b, err := base64.RawStdEncoding.DecodeString(v)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", k, err)
	}
	return b, nil
}
