package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/riskibarqy/armory-onboarding/internal/platform/logging"
)

// ClientConfig configures the onboard CLI.
type ClientConfig struct {
	StorefrontURL     string
	StorefrontToken   string
	StorefrontTimeout time.Duration
	// StatePath is the SQLite file holding wizard state across runs; empty keeps state in memory.
	StatePath  string
	GeoBaseURL string
	GeoTimeout time.Duration
	LogLevel   logging.Level
}

func LoadClient() (ClientConfig, error) {
	storefrontURL := strings.TrimRight(strings.TrimSpace(getEnv("STOREFRONT_API_URL", "http://localhost:8080")), "/")
	if !strings.HasPrefix(storefrontURL, "http://") && !strings.HasPrefix(storefrontURL, "https://") {
		return ClientConfig{}, fmt.Errorf("STOREFRONT_API_URL must be an http(s) url, got %q", storefrontURL)
	}

	storefrontTimeout, err := getEnvAsPositiveDuration("STOREFRONT_TIMEOUT", "30s")
	if err != nil {
		return ClientConfig{}, err
	}
	geoTimeout, err := getEnvAsPositiveDuration("GEO_TIMEOUT", "10s")
	if err != nil {
		return ClientConfig{}, err
	}

	return ClientConfig{
		StorefrontURL:     storefrontURL,
		StorefrontToken:   strings.TrimSpace(getEnv("STOREFRONT_TOKEN", "")),
		StorefrontTimeout: storefrontTimeout,
		StatePath:         strings.TrimSpace(getEnv("STOREFRONT_STATE_PATH", defaultStatePath())),
		GeoBaseURL:        strings.TrimSpace(getEnv("GEO_API_URL", "")),
		GeoTimeout:        geoTimeout,
		LogLevel:          logging.ParseLevel(getEnv("APP_LOG_LEVEL", "warn")),
	}, nil
}

func defaultStatePath() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		return ""
	}
	return filepath.Join(dir, "armory-onboarding", "state.db")
}
